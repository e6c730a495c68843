package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Directive is the comment prefix marking a historical entity.
const Directive = "entityhistory:historical"

// Default values of the Historical annotation.
const (
	DefaultTargetPath          = "."
	DefaultEntityTemplatePath  = "history/entity.go.tmpl"
	DefaultDaoTemplatePath     = "history/repository.go.tmpl"
	DefaultServiceTemplatePath = "history/service.go.tmpl"
	DefaultBasePackageName     = "historical"
	DefaultConverter           = "github.com/syssam/entityhistory/converter.MapJSON"
	DefaultColumnDefinition    = "JSONB"
)

// The msgpack converter stores states in a binary column, defined as
// DefaultBinaryColumnDefinition unless set.
const (
	MsgpackConverter              = "github.com/syssam/entityhistory/converter.MapMsgpack"
	DefaultBinaryColumnDefinition = "BYTEA"
)

// Historical is the marker annotation of a historical entity.
// Empty fields are unset.
type Historical struct {
	TargetPath              string `yaml:"target_path,omitempty"`
	EntityTemplatePath      string `yaml:"entity_template_path,omitempty"`
	DaoTemplatePath         string `yaml:"dao_template_path,omitempty"`
	ServiceTemplatePath     string `yaml:"service_template_path,omitempty"`
	BasePackageName         string `yaml:"base_package_name,omitempty"`
	StateAttributeConverter string `yaml:"state_attribute_converter,omitempty"`
	StateColumnDefinition   string `yaml:"state_column_definition,omitempty"`
	StateType               string `yaml:"state_type,omitempty"`
}

// Defaults returns the annotation with every field set to its default.
// StateType and StateColumnDefinition stay unset: they are derived from the
// converter.
func Defaults() Historical {
	return Historical{
		TargetPath:              DefaultTargetPath,
		EntityTemplatePath:      DefaultEntityTemplatePath,
		DaoTemplatePath:         DefaultDaoTemplatePath,
		ServiceTemplatePath:     DefaultServiceTemplatePath,
		BasePackageName:         DefaultBasePackageName,
		StateAttributeConverter: DefaultConverter,
	}
}

// DefaultColumn returns the state column definition used with converter
// when none is set.
func DefaultColumn(converter string) string {
	if converter == MsgpackConverter {
		return DefaultBinaryColumnDefinition
	}
	return DefaultColumnDefinition
}

// Name describes the annotation name.
func (Historical) Name() string {
	return "Historical"
}

// Merge returns a copy of h with the set fields of other applied on top.
func (h Historical) Merge(other Historical) Historical {
	for _, k := range keys {
		if v := *k.field(&other); v != "" {
			*k.field(&h) = v
		}
	}
	return h
}

// Get returns the value of the given directive key.
func (h Historical) Get(key string) (string, bool) {
	for _, k := range keys {
		if k.name == key {
			return *k.field(&h), true
		}
	}
	return "", false
}

type key struct {
	name  string
	field func(*Historical) *string
}

var keys = []key{
	{"target", func(h *Historical) *string { return &h.TargetPath }},
	{"entity-template", func(h *Historical) *string { return &h.EntityTemplatePath }},
	{"dao-template", func(h *Historical) *string { return &h.DaoTemplatePath }},
	{"service-template", func(h *Historical) *string { return &h.ServiceTemplatePath }},
	{"base", func(h *Historical) *string { return &h.BasePackageName }},
	{"converter", func(h *Historical) *string { return &h.StateAttributeConverter }},
	{"column", func(h *Historical) *string { return &h.StateColumnDefinition }},
	{"state", func(h *Historical) *string { return &h.StateType }},
}

// Keys returns the sorted directive keys.
func Keys() []string {
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, k.name)
	}
	sort.Strings(names)
	return names
}

// IsDirective reports whether the comment text (with or without the leading
// "//") is a historical directive.
func IsDirective(text string) bool {
	text = strings.TrimPrefix(text, "//")
	return text == Directive || strings.HasPrefix(text, Directive+" ") || strings.HasPrefix(text, Directive+"\t")
}

// ParseDirective parses the key=value pairs of a directive comment. Later
// occurrences of a key override earlier ones.
func ParseDirective(text string) (Historical, error) {
	var h Historical
	text = strings.TrimPrefix(text, "//")
	if !IsDirective(text) {
		return h, fmt.Errorf("not a %s directive: %q", Directive, text)
	}
	rest := text[len(Directive):]
	for {
		rest = strings.TrimLeft(rest, " \t")
		if rest == "" {
			return h, nil
		}
		eq := strings.IndexByte(rest, '=')
		if sp := strings.IndexAny(rest, " \t"); eq < 0 || (sp >= 0 && sp < eq) {
			end := len(rest)
			if sp >= 0 {
				end = sp
			}
			return h, fmt.Errorf("directive argument %q is not a key=value pair", rest[:end])
		}
		name := rest[:eq]
		if name == "" {
			return h, fmt.Errorf("directive argument %q has an empty key", rest)
		}
		rest = rest[eq+1:]
		var value string
		if strings.HasPrefix(rest, `"`) || strings.HasPrefix(rest, "`") {
			quoted, err := strconv.QuotedPrefix(rest)
			if err != nil {
				return h, fmt.Errorf("directive key %q: invalid quoted value: %w", name, err)
			}
			if value, err = strconv.Unquote(quoted); err != nil {
				return h, fmt.Errorf("directive key %q: invalid quoted value: %w", name, err)
			}
			rest = rest[len(quoted):]
			if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
				return h, fmt.Errorf("directive key %q: unexpected text after quoted value", name)
			}
		} else {
			end := strings.IndexAny(rest, " \t")
			if end < 0 {
				end = len(rest)
			}
			value, rest = rest[:end], rest[end:]
		}
		if err := h.set(name, value); err != nil {
			return h, err
		}
	}
}

// ParseDirectives parses and merges a sequence of directive comments.
func ParseDirectives(texts []string) (Historical, error) {
	var h Historical
	for _, text := range texts {
		d, err := ParseDirective(text)
		if err != nil {
			return h, err
		}
		h = h.Merge(d)
	}
	return h, nil
}

func (h *Historical) set(name, value string) error {
	for _, k := range keys {
		if k.name == name {
			if value == "" {
				return fmt.Errorf("directive key %q has an empty value", name)
			}
			*k.field(h) = value
			return nil
		}
	}
	return fmt.Errorf("unknown directive key %q (valid keys: %s)", name, strings.Join(Keys(), ", "))
}
