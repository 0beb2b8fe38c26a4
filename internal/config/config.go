// Package config loads optional .sqlgen.yaml defaults (SPEC_FULL.md §6
// "--config PATH"), merged underneath whatever the command line supplies:
// CLI flags always win. Grounded on gopkg.in/yaml.v3 the way the rest of
// the pack's services load their own structured config files.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// File is the shape of a .sqlgen.yaml file. Every field is optional; a zero
// value means "not overridden here".
type File struct {
	Header       string `yaml:"header"`
	Manifest     string `yaml:"manifest"`
	NoColor      bool   `yaml:"no-color"`
	OutputHeader string `yaml:"output-header"`
	OutputSource string `yaml:"output-source"`
}

// Load reads and parses the YAML file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// ApplyDefaults copies any field set in f into the corresponding flag value
// that is still at its zero value, leaving explicit CLI flags untouched.
func ApplyDefaults(f *File, header, manifest, outputHeader, outputSource *string, noColor *bool) {
	if f == nil {
		return
	}
	if *header == "" {
		*header = f.Header
	}
	if *manifest == "" {
		*manifest = f.Manifest
	}
	if *outputHeader == "" {
		*outputHeader = f.OutputHeader
	}
	if *outputSource == "" {
		*outputSource = f.OutputSource
	}
	if f.NoColor {
		*noColor = true
	}
}
