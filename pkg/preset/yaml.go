package preset

// yamlPreset is the intermediate struct for parsing a preset YAML entry.
// Maps YAML fields to types.Preset structure.
type yamlPreset struct {
	ID               string   `yaml:"id"`
	Name             string   `yaml:"name"`
	Pattern          string   `yaml:"pattern"`
	UniqueGroup      *int     `yaml:"unique_group,omitempty"`
	Description      string   `yaml:"description,omitempty"`
	Keywords         []string `yaml:"keywords,omitempty"`
	Examples         []string `yaml:"examples,omitempty"`
	NegativeExamples []string `yaml:"negative_examples,omitempty"`
}

// yamlPresetsFile represents the top-level structure of a presets YAML file.
type yamlPresetsFile struct {
	Presets []yamlPreset `yaml:"presets"`
}
