// Package manifest owns the stave.yaml build manifest schema: the
// unit-of-measure constants available to a build, the debug dump
// switch, and the compile cache location. The driver decides where the
// file lives; the core only defines what it means.
package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is the top-level stave.yaml configuration.
type Manifest struct {
	// Units lists the unit-of-measure constants declared for the
	// build, available to by/per/untag in every module.
	Units []Unit `yaml:"units,omitempty"`

	// DebugDump enables the textual disassembly dump after codegen.
	DebugDump bool `yaml:"debug-dump,omitempty"`

	// Cache is the path of the compile cache database. Empty disables
	// caching.
	Cache string `yaml:"cache,omitempty"`
}

// Unit is one declared unit constant.
type Unit struct {
	Name string `yaml:"name"`
}

// Parse reads and validates a manifest from yaml bytes.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	seen := map[string]bool{}
	for _, u := range m.Units {
		if u.Name == "" {
			return nil, fmt.Errorf("manifest unit with empty name")
		}
		if seen[u.Name] {
			return nil, fmt.Errorf("duplicate unit `%s` in manifest", u.Name)
		}
		seen[u.Name] = true
	}
	return &m, nil
}

// Load reads a manifest file. A missing file yields the defaults.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, err
	}
	return Parse(data)
}
