package feeders

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YamlFeeder reads key out of a YAML file and decodes it into a target
// struct.
type YamlFeeder struct {
	Path string
}

// NewYamlFeeder builds a YamlFeeder reading from path.
func NewYamlFeeder(path string) YamlFeeder { return YamlFeeder{Path: path} }

// FeedKey reads the whole file, looks up key at the top level, and decodes
// just that value into target. A missing key is not an error.
func (f YamlFeeder) FeedKey(key string, target interface{}) error {
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		return fmt.Errorf("feeders: failed to read yaml %q: %w", f.Path, err)
	}

	var all map[string]interface{}
	if err := yaml.Unmarshal(raw, &all); err != nil {
		return fmt.Errorf("feeders: failed to parse yaml %q: %w", f.Path, err)
	}

	value, exists := all[key]
	if !exists {
		return nil
	}

	buf, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("feeders: failed to remarshal yaml key %q: %w", key, err)
	}
	if err := yaml.Unmarshal(buf, target); err != nil {
		return fmt.Errorf("feeders: failed to decode yaml key %q: %w", key, err)
	}
	return nil
}

// HasKey reports whether key exists at the top level of the YAML file,
// without decoding it into anything.
func (f YamlFeeder) HasKey(key string) (bool, error) {
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		return false, fmt.Errorf("feeders: failed to read yaml %q: %w", f.Path, err)
	}
	var all map[string]interface{}
	if err := yaml.Unmarshal(raw, &all); err != nil {
		return false, fmt.Errorf("feeders: failed to parse yaml %q: %w", f.Path, err)
	}
	_, exists := all[key]
	return exists, nil
}
