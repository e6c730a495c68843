package gen

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/syssam/entityhistory/schema"
)

// DefaultConfigFile is the configuration file read by historygen when present.
const DefaultConfigFile = "historygen.yaml"

// File is the YAML configuration file of the generator:
//
//	defaults:
//	  target_path: internal
//	  base_package_name: history
//	  state_column_definition: JSON
//	templates:
//	  - templates
//	policy: skip-invalid
//	registry: registry.go
//	build_tags: [history]
type File struct {
	Defaults  schema.Historical `yaml:"defaults,omitempty"`
	Templates []string          `yaml:"templates,omitempty"`
	Policy    string            `yaml:"policy,omitempty"`
	Registry  string            `yaml:"registry,omitempty"`
	BuildTags []string          `yaml:"build_tags,omitempty"`
}

// ParseFile decodes a configuration file. Unknown keys are rejected.
func ParseFile(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	f := &File{}
	if err := dec.Decode(f); err != nil && !errors.Is(err, io.EOF) {
		return nil, NewConfigError("File", nil, err.Error())
	}
	return f, nil
}

// Options returns the options described by the file.
func (f *File) Options() ([]Option, error) {
	opts := []Option{WithDefaults(f.Defaults)}
	if len(f.Templates) > 0 {
		opts = append(opts, WithTemplateDir(f.Templates...))
	}
	if f.Policy != "" {
		p, err := ParsePolicy(f.Policy)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithPolicy(p))
	}
	if f.Registry != "" {
		opts = append(opts, WithRegistry(f.Registry))
	}
	if len(f.BuildTags) > 0 {
		opts = append(opts, WithBuildFlags("-tags="+strings.Join(f.BuildTags, ",")))
	}
	return opts, nil
}

// LoadConfigFile reads the configuration file at path and returns its
// options.
func LoadConfigFile(path string) ([]Option, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	f, err := ParseFile(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f.Options()
}
