package gen

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure cases.
var (
	// ErrInvalidMetadata indicates a malformed historical annotation.
	ErrInvalidMetadata = errors.New("entityhistory: invalid metadata")
	// ErrMissingConfig indicates a configuration error.
	ErrMissingConfig = errors.New("entityhistory: missing configuration")
	// ErrGenerationFailed indicates a template or output failure.
	ErrGenerationFailed = errors.New("entityhistory: code generation failed")
)

// MetadataError represents an invalid historical annotation.
type MetadataError struct {
	Entity  string // Qualified source entity name
	Key     string // Directive key (if applicable)
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *MetadataError) Error() string {
	var b strings.Builder
	b.WriteString("entityhistory: metadata error")
	if e.Entity != "" {
		b.WriteString(" on ")
		b.WriteString(e.Entity)
	}
	if e.Key != "" {
		b.WriteString(" key ")
		b.WriteString(e.Key)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *MetadataError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for MetadataError.
func (e *MetadataError) Is(target error) bool {
	return target == ErrInvalidMetadata
}

// NewMetadataError creates a new MetadataError.
func NewMetadataError(entity, key, message string, cause error) *MetadataError {
	return &MetadataError{
		Entity:  entity,
		Key:     key,
		Message: message,
		Cause:   cause,
	}
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("entityhistory: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("entityhistory: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches the sentinel error for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrMissingConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{
		Option:  option,
		Value:   value,
		Message: message,
	}
}

// Generation phases reported by GenerationError.
const (
	PhaseTemplate = "template"
	PhaseRender   = "render"
	PhaseFormat   = "format"
	PhaseWrite    = "write"
	PhaseRegistry = "registry"
)

// GenerationError represents a code generation error.
type GenerationError struct {
	Phase   string // "template", "render", "format", "write" or "registry"
	File    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("entityhistory: generation error")
	if e.Phase != "" {
		b.WriteString(" in phase ")
		b.WriteString(e.Phase)
	}
	if e.File != "" {
		b.WriteString(" (file: ")
		b.WriteString(e.File)
		b.WriteString(")")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for GenerationError.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

// NewGenerationError creates a new GenerationError.
func NewGenerationError(phase, file, message string, cause error) *GenerationError {
	return &GenerationError{
		Phase:   phase,
		File:    file,
		Message: message,
		Cause:   cause,
	}
}

// IsMetadataError reports whether the error is a MetadataError.
func IsMetadataError(err error) bool {
	var metaErr *MetadataError
	return errors.As(err, &metaErr)
}

// IsConfigError reports whether the error is a ConfigError.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// IsGenerationError reports whether the error is a GenerationError.
func IsGenerationError(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr)
}
