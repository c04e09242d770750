// Package restrictions declares the contract for the restriction-file
// loader collaborator (out of scope for this module: it's consumed by the
// Builder to narrow which entity sets/properties get fuzzed). A thin
// YAML-backed implementation is provided. The CLI records a --restrictions
// path in config.Config.Restrictions and does not load the file itself.
package restrictions

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Group is the parsed restriction file: a set of rules keyed by entity set
// name. The rule shape itself is a Builder concern; this module only
// carries it through unopened.
type Group struct {
	Rules map[string]any `yaml:",inline"`
}

// Loader reads a restriction file from disk into a Group.
type Loader interface {
	Load(path string) (*Group, error)
}

// YAMLLoader is the default Loader implementation.
type YAMLLoader struct{}

// Load reads and parses a YAML restriction file.
func (YAMLLoader) Load(path string) (*Group, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("restrictions: reading %s: %w", path, err)
	}

	var group Group
	if err := yaml.Unmarshal(data, &group.Rules); err != nil {
		return nil, fmt.Errorf("restrictions: parsing %s: %w", path, err)
	}
	return &group, nil
}
