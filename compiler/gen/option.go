package gen

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/syssam/entityhistory/schema"
)

// MetadataPolicy controls how a batch reacts to invalid metadata.
type MetadataPolicy int

const (
	// FailFast aborts the batch on the first invalid entity, before any
	// file is written.
	FailFast MetadataPolicy = iota
	// SkipInvalid logs and reports invalid entities and generates the rest.
	SkipInvalid
)

// String implements fmt.Stringer.
func (p MetadataPolicy) String() string {
	switch p {
	case FailFast:
		return "fail-fast"
	case SkipInvalid:
		return "skip-invalid"
	default:
		return fmt.Sprintf("MetadataPolicy(%d)", int(p))
	}
}

// ParsePolicy parses a policy name as returned by MetadataPolicy.String.
func ParsePolicy(s string) (MetadataPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fail-fast", "failfast", "":
		return FailFast, nil
	case "skip-invalid", "skipinvalid":
		return SkipInvalid, nil
	default:
		return FailFast, NewConfigError("Policy", s, "unsupported policy; use fail-fast or skip-invalid")
	}
}

// DefaultRegistryFile is the registry file name used by WithRegistry("").
const DefaultRegistryFile = "registry.go"

// Config holds the generator configuration.
type Config struct {
	// Defaults are applied to every entity below its own directives.
	Defaults schema.Historical
	// TemplateDirs are searched, in order, before the embedded templates.
	TemplateDirs []string
	// Policy controls the handling of invalid metadata.
	Policy MetadataPolicy
	// Registry is the name of the registry file generated for each
	// (target, base) pair. Empty disables the registry.
	Registry string
	// BuildFlags are used when loading the source packages.
	BuildFlags []string
	// Logger receives the batch progress. Defaults to a discarding logger.
	Logger *slog.Logger
	// Extensions run after the entities of a batch were generated.
	Extensions []Extension
}

// Option configures code generation.
type Option func(*Config) error

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) error {
		if l == nil {
			return NewConfigError("Logger", nil, "logger cannot be nil")
		}
		c.Logger = l
		return nil
	}
}

// WithDefaults merges the set fields of h into the annotation defaults.
func WithDefaults(h schema.Historical) Option {
	return func(c *Config) error {
		c.Defaults = c.Defaults.Merge(h)
		return nil
	}
}

// WithTarget sets the default output directory.
func WithTarget(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return NewConfigError("Target", nil, "target directory cannot be empty")
		}
		c.Defaults.TargetPath = dir
		return nil
	}
}

// WithBase sets the default base package of the generated packages.
// For example: "internal/history" or "com.example".
func WithBase(base string) Option {
	return func(c *Config) error {
		if base == "" {
			return NewConfigError("Base", nil, "base package cannot be empty")
		}
		c.Defaults.BasePackageName = base
		return nil
	}
}

// WithTemplateDir adds directories searched for templates before the
// embedded ones.
func WithTemplateDir(dirs ...string) Option {
	return func(c *Config) error {
		for _, d := range dirs {
			if d == "" {
				return NewConfigError("TemplateDir", nil, "template directory cannot be empty")
			}
		}
		c.TemplateDirs = append(c.TemplateDirs, dirs...)
		return nil
	}
}

// WithPolicy sets the metadata policy.
func WithPolicy(p MetadataPolicy) Option {
	return func(c *Config) error {
		if p != FailFast && p != SkipInvalid {
			return NewConfigError("Policy", p, "unsupported policy")
		}
		c.Policy = p
		return nil
	}
}

// WithSkipInvalid is a shorthand for WithPolicy(SkipInvalid).
func WithSkipInvalid() Option {
	return WithPolicy(SkipInvalid)
}

// WithRegistry enables the registry file. An empty name selects
// DefaultRegistryFile.
func WithRegistry(name string) Option {
	return func(c *Config) error {
		if name == "" {
			name = DefaultRegistryFile
		}
		if !strings.HasSuffix(name, ".go") || strings.ContainsAny(name, `/\`) {
			return NewConfigError("Registry", name, "registry must be a .go file name")
		}
		c.Registry = name
		return nil
	}
}

// WithBuildFlags sets custom build flags for loading source packages.
func WithBuildFlags(flags ...string) Option {
	return func(c *Config) error {
		c.BuildFlags = append(c.BuildFlags, flags...)
		return nil
	}
}

// WithExtensions adds extensions run at the end of every batch.
func WithExtensions(exts ...Extension) Option {
	return func(c *Config) error {
		for _, ext := range exts {
			if ext == nil {
				return NewConfigError("Extensions", nil, "extension cannot be nil")
			}
		}
		c.Extensions = append(c.Extensions, exts...)
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewConfig creates a new Config with the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{
		Defaults: schema.Defaults(),
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewConfig creates a new Config with the given options.
// It panics if any option fails.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}
