package preset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/logsift/logsift/pkg/matcher"
	"github.com/logsift/logsift/pkg/types"
)

func TestLoad_Valid(t *testing.T) {
	loader := NewLoader()

	validYAML := `presets:
  - id: session
    name: Session ID
    pattern: 'session=(\w+)'
    unique_group: 1
    description: Session identifiers
    keywords:
      - session=
    examples:
      - "GET / session=abc123"
    negative_examples:
      - "no session here"
`

	presets, err := loader.Load([]byte(validYAML))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(presets) != 1 {
		t.Fatalf("expected 1 preset, got %d", len(presets))
	}

	p := presets[0]
	if p.ID != "session" {
		t.Errorf("expected ID session, got %s", p.ID)
	}
	if p.Name != "Session ID" {
		t.Errorf("expected name 'Session ID', got %s", p.Name)
	}
	if p.Pattern != `session=(\w+)` {
		t.Errorf("unexpected pattern %q", p.Pattern)
	}
	if p.UniqueGroup == nil || *p.UniqueGroup != 1 {
		t.Errorf("expected unique group 1, got %v", p.UniqueGroup)
	}
	if len(p.Keywords) != 1 || p.Keywords[0] != "session=" {
		t.Errorf("unexpected keywords %v", p.Keywords)
	}
	if len(p.Examples) != 1 || len(p.NegativeExamples) != 1 {
		t.Errorf("expected 1 example and 1 negative example, got %d and %d", len(p.Examples), len(p.NegativeExamples))
	}
	if p.StructuralID == "" {
		t.Error("expected StructuralID to be computed")
	}
	if err := Validate(p); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestLoad_NoUniqueGroup(t *testing.T) {
	presets, err := NewLoader().Load([]byte("presets:\n  - id: errors\n    name: Errors\n    pattern: 'ERROR .*'\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if presets[0].UniqueGroup != nil {
		t.Errorf("expected append mode preset, got unique group %d", *presets[0].UniqueGroup)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := NewLoader().Load([]byte(`this is not valid yaml: [[[`))
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoad_NoPresets(t *testing.T) {
	_, err := NewLoader().Load([]byte(`presets: []`))
	if err == nil {
		t.Error("expected error for empty presets list")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yml")
	if err := os.WriteFile(path, []byte("presets:\n  - id: pid\n    name: PID\n    pattern: 'pid=(\\d+)'\n    unique_group: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	presets, err := NewLoader().LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if presets[0].Pattern != `pid=(\d+)` {
		t.Errorf("unexpected pattern %q", presets[0].Pattern)
	}

	_, err = NewLoader().LoadFile(filepath.Join(t.TempDir(), "missing.yml"))
	if err == nil || !strings.Contains(err.Error(), "missing.yml") {
		t.Errorf("expected error naming the missing file, got %v", err)
	}
}

func TestLoadBuiltin_WithFS(t *testing.T) {
	fsys := fstest.MapFS{
		"presets/b.yml":     {Data: []byte("presets:\n  - id: zeta\n    name: Z\n    pattern: z\n")},
		"presets/a.yml":     {Data: []byte("presets:\n  - id: alpha\n    name: A\n    pattern: a\n")},
		"presets/notes.txt": {Data: []byte("ignored")},
	}

	presets, err := NewLoaderWithFS(fsys).LoadBuiltin()
	if err != nil {
		t.Fatalf("LoadBuiltin failed: %v", err)
	}
	if len(presets) != 2 {
		t.Fatalf("expected 2 presets, got %d", len(presets))
	}
	if presets[0].ID != "alpha" || presets[1].ID != "zeta" {
		t.Errorf("expected presets sorted by ID, got %s, %s", presets[0].ID, presets[1].ID)
	}
}

func TestLoadAll_FileOverridesBuiltin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.yml")
	content := "presets:\n  - id: ipv4\n    name: Any dotted quad\n    pattern: '(\\d+\\.\\d+\\.\\d+\\.\\d+)'\n    unique_group: 1\n  - id: extra\n    name: Extra\n    pattern: extra\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	builtin, err := NewLoader().LoadBuiltin()
	if err != nil {
		t.Fatalf("LoadBuiltin failed: %v", err)
	}
	all, err := NewLoader().LoadAll(path)
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(all) != len(builtin)+1 {
		t.Fatalf("expected %d presets, got %d", len(builtin)+1, len(all))
	}

	p, err := Find(all, "ipv4")
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if p.Name != "Any dotted quad" {
		t.Errorf("expected file preset to replace builtin, got %q", p.Name)
	}
	if all[len(all)-1].ID != "extra" {
		t.Errorf("expected new preset appended, got %s", all[len(all)-1].ID)
	}
}

func TestFind_Unknown(t *testing.T) {
	_, err := Find(nil, "nope")
	if err == nil || !strings.Contains(err.Error(), "nope") {
		t.Errorf("expected unknown preset error, got %v", err)
	}
}

// Every builtin preset must validate: examples match, negatives don't.
func TestBuiltinPresets_Validate(t *testing.T) {
	presets, err := NewLoader().LoadBuiltin()
	if err != nil {
		t.Fatalf("LoadBuiltin failed: %v", err)
	}
	if len(presets) == 0 {
		t.Fatal("expected builtin presets")
	}
	if err := ValidateAll(presets); err != nil {
		t.Fatal(err)
	}
}

func TestBuiltinPresets_UniqueGroupExtractsKey(t *testing.T) {
	presets, err := NewLoader().LoadBuiltin()
	if err != nil {
		t.Fatalf("LoadBuiltin failed: %v", err)
	}

	tests := []struct {
		id   string
		line string
		want string
	}{
		{"ipv4", "client 192.168.1.10 connected", "192.168.1.10"},
		{"email-domain", "to bob@mail.example.org queued", "mail.example.org"},
		{"url-host", "redirect to https://example.com/login", "example.com"},
		{"access-log-client", `203.0.113.7 - - [10/Oct/2000:13:55:36 -0700] "GET /apache_pb.gif HTTP/1.0" 200 2326`, "203.0.113.7"},
		{"access-log-path", `203.0.113.7 - - [10/Oct/2000:13:55:36 -0700] "GET /apache_pb.gif HTTP/1.0" 200 2326`, "/apache_pb.gif"},
		{"access-log-status", `203.0.113.7 - - [10/Oct/2000:13:55:36 -0700] "GET /apache_pb.gif HTTP/1.0" 200 2326`, "200"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			p, err := Find(presets, tt.id)
			if err != nil {
				t.Fatal(err)
			}
			m, err := matcher.New(p.Pattern, matcher.DefaultOptions())
			if err != nil {
				t.Fatal(err)
			}
			matches, err := m.FindAll("test", 1, tt.line)
			if err != nil {
				t.Fatal(err)
			}
			if len(matches) == 0 {
				t.Fatalf("no match for %q", tt.line)
			}
			got, ok := matches[0].Group(*p.UniqueGroup)
			if !ok || got != tt.want {
				t.Errorf("group %d = %q (%v), want %q", *p.UniqueGroup, got, ok, tt.want)
			}
		})
	}
}

func TestConvertYAMLPreset_StructuralIDIgnoresGroupNames(t *testing.T) {
	named := convertYAMLPreset(yamlPreset{ID: "a", Name: "A", Pattern: `(?P<ip>\d+)`})
	plain := convertYAMLPreset(yamlPreset{ID: "b", Name: "B", Pattern: `(\d+)`})
	if named.StructuralID != plain.StructuralID {
		t.Errorf("expected equal structural IDs, got %s and %s", named.StructuralID, plain.StructuralID)
	}
	if named.StructuralID != types.ComputeStructuralID(`(\d+)`) {
		t.Error("structural ID does not match types.ComputeStructuralID")
	}
}
