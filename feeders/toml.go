// Package feeders extracts one named section from a shared TOML/YAML file
// into a module's own config struct, so several modules can share one
// config file without any of them needing to know about the others'
// sections.
package feeders

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// TomlFeeder reads key out of a TOML file and decodes it into a target
// struct.
type TomlFeeder struct {
	Path string
}

// NewTomlFeeder builds a TomlFeeder reading from path.
func NewTomlFeeder(path string) TomlFeeder { return TomlFeeder{Path: path} }

// FeedKey reads the whole file, looks up key at the top level, and decodes
// just that value into target. A missing key is not an error: target is
// left unmodified so callers can rely on their own defaults.
func (f TomlFeeder) FeedKey(key string, target interface{}) error {
	var all map[string]interface{}
	if _, err := toml.DecodeFile(f.Path, &all); err != nil {
		return fmt.Errorf("feeders: failed to read toml %q: %w", f.Path, err)
	}

	value, exists := all[key]
	if !exists {
		return nil
	}

	buf, err := toml.Marshal(value)
	if err != nil {
		return fmt.Errorf("feeders: failed to remarshal toml key %q: %w", key, err)
	}
	if err := toml.Unmarshal(buf, target); err != nil {
		return fmt.Errorf("feeders: failed to decode toml key %q: %w", key, err)
	}
	return nil
}

// HasKey reports whether key exists at the top level of the TOML file,
// without decoding it into anything.
func (f TomlFeeder) HasKey(key string) (bool, error) {
	var all map[string]interface{}
	if _, err := toml.DecodeFile(f.Path, &all); err != nil {
		return false, fmt.Errorf("feeders: failed to read toml %q: %w", f.Path, err)
	}
	_, exists := all[key]
	return exists, nil
}
