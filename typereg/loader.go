package typereg

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader reads normalized registry files (YAML or JSON) and merges them into
// a single Registry.
type Loader struct {
	paths []string
}

// NewLoader creates a loader for the given registry files.
func NewLoader(paths ...string) *Loader {
	return &Loader{paths: paths}
}

// Load reads every file and merges the assemblies. The CDK_REFLECT_REGISTRY
// environment variable prepends additional colon-separated paths.
func (l *Loader) Load() (*Registry, error) {
	paths := l.paths
	if env := os.Getenv("CDK_REFLECT_REGISTRY"); env != "" {
		paths = append(strings.Split(env, ":"), paths...)
	}
	reg := NewRegistry()
	for _, path := range paths {
		asm, err := LoadAssembly(path)
		if err != nil {
			return nil, err
		}
		if err := reg.Add(asm); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// LoadAssembly reads a single assembly file, dispatching on extension.
func LoadAssembly(path string) (*Assembly, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file %s: %w", path, err)
	}
	asm, err := ParseAssembly(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse registry file %s: %w", path, err)
	}
	if asm.Name == "" {
		asm.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return asm, nil
}

// ParseAssembly parses assembly bytes; ext selects the format (".json" for
// JSON, anything else for YAML).
func ParseAssembly(data []byte, ext string) (*Assembly, error) {
	var asm Assembly
	if ext == ".json" {
		if err := json.Unmarshal(data, &asm); err != nil {
			return nil, fmt.Errorf("parse JSON assembly: %w", err)
		}
		return &asm, nil
	}
	if err := yaml.Unmarshal(data, &asm); err != nil {
		return nil, fmt.Errorf("parse YAML assembly: %w", err)
	}
	return &asm, nil
}
