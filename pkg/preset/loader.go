// Package preset loads named patterns, each with the capture group that
// identifies "the same thing" when only unique matches are wanted.
package preset

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/logsift/logsift/pkg/types"
	"gopkg.in/yaml.v3"
)

// Loader handles loading presets from YAML files.
type Loader struct {
	fs fs.FS // embedded filesystem for built-in presets
}

// NewLoader creates a loader with built-in presets from embedded filesystem.
func NewLoader() *Loader {
	return &Loader{
		fs: builtinPresetsFS,
	}
}

// NewLoaderWithFS creates a loader with a custom filesystem. Preset files are
// read from its presets/ directory.
func NewLoaderWithFS(fsys fs.FS) *Loader {
	return &Loader{
		fs: fsys,
	}
}

// Load parses every preset in YAML bytes.
func (l *Loader) Load(data []byte) ([]*types.Preset, error) {
	var yamlFile yamlPresetsFile
	if err := yaml.Unmarshal(data, &yamlFile); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if len(yamlFile.Presets) == 0 {
		return nil, fmt.Errorf("no presets found in YAML")
	}

	presets := make([]*types.Preset, 0, len(yamlFile.Presets))
	for _, yp := range yamlFile.Presets {
		presets = append(presets, convertYAMLPreset(yp))
	}
	return presets, nil
}

// LoadFile loads presets from a YAML file path.
func (l *Loader) LoadFile(path string) ([]*types.Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	presets, err := l.Load(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return presets, nil
}

// LoadBuiltin loads all built-in presets, sorted by ID.
func (l *Loader) LoadBuiltin() ([]*types.Preset, error) {
	var presets []*types.Preset

	err := fs.WalkDir(l.fs, "presets", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".yml" {
			return nil
		}

		data, err := fs.ReadFile(l.fs, path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		loaded, err := l.Load(data)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		presets = append(presets, loaded...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(presets, func(i, j int) bool {
		return presets[i].ID < presets[j].ID
	})
	return presets, nil
}

// LoadAll loads the built-in presets followed by the presets in files.
// A file preset replaces a built-in one with the same ID.
func (l *Loader) LoadAll(files ...string) ([]*types.Preset, error) {
	presets, err := l.LoadBuiltin()
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(presets))
	for i, p := range presets {
		index[p.ID] = i
	}

	for _, file := range files {
		loaded, err := l.LoadFile(file)
		if err != nil {
			return nil, err
		}
		for _, p := range loaded {
			if i, ok := index[p.ID]; ok {
				presets[i] = p
				continue
			}
			index[p.ID] = len(presets)
			presets = append(presets, p)
		}
	}
	return presets, nil
}

// Find returns the preset with the given ID.
func Find(presets []*types.Preset, id string) (*types.Preset, error) {
	for _, p := range presets {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("unknown preset %q", id)
}

// convertYAMLPreset converts yamlPreset to types.Preset and computes StructuralID.
func convertYAMLPreset(yp yamlPreset) *types.Preset {
	p := &types.Preset{
		ID:               yp.ID,
		Name:             yp.Name,
		Pattern:          yp.Pattern,
		UniqueGroup:      yp.UniqueGroup,
		Description:      yp.Description,
		Keywords:         yp.Keywords,
		Examples:         yp.Examples,
		NegativeExamples: yp.NegativeExamples,
	}
	p.StructuralID = p.ComputeStructuralID()
	return p
}
