package graphql

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/syssam/entityhistory/compiler/gen"
)

// GQLGenConfig is a gqlgen.yml document. Only the schema list and the model
// bindings are edited; every other key, and the comments, are kept as read.
type GQLGenConfig struct {
	doc  *yaml.Node
	root *yaml.Node
}

// TypeMapEntry is the configuration for a single GraphQL type.
type TypeMapEntry struct {
	// Model is the Go model(s) bound to this GraphQL type.
	Model StringList `yaml:"model,omitempty"`
}

// StringList is a YAML type that can be either a string or a list of strings.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler for StringList.
func (s *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*s = []string{node.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*s = list
		return nil
	default:
		return fmt.Errorf("expected string or list, got %v", node.Kind)
	}
}

// LoadGQLGenConfig loads a gqlgen.yml configuration file. A missing file
// yields an empty configuration.
func LoadGQLGenConfig(path string) (*GQLGenConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return newGQLGenConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read gqlgen config: %w", err)
	}
	return ParseGQLGenConfig(data)
}

// ParseGQLGenConfig parses the content of a gqlgen.yml file.
func ParseGQLGenConfig(data []byte) (*GQLGenConfig, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse gqlgen config: %w", err)
	}
	if len(doc.Content) == 0 {
		return newGQLGenConfig(), nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse gqlgen config: expected a mapping, got %v", root.Kind)
	}
	return &GQLGenConfig{doc: &doc, root: root}, nil
}

func newGQLGenConfig() *GQLGenConfig {
	root := mapping()
	return &GQLGenConfig{doc: &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}, root: root}
}

// SaveGQLGenConfig saves a gqlgen.yml configuration file.
func SaveGQLGenConfig(path string, cfg *GQLGenConfig) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg.doc); err != nil {
		return fmt.Errorf("marshal gqlgen config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("marshal gqlgen config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Schema returns the schema paths of the configuration.
func (c *GQLGenConfig) Schema() []string {
	var s StringList
	if n := lookup(c.root, "schema"); n != nil {
		_ = n.Decode(&s)
	}
	return s
}

// Models returns the model bindings of the configuration.
func (c *GQLGenConfig) Models() map[string]TypeMapEntry {
	models := make(map[string]TypeMapEntry)
	if n := lookup(c.root, "models"); n != nil {
		_ = n.Decode(&models)
	}
	return models
}

// AddSchemaPath adds a schema path to the configuration if not already present.
func (c *GQLGenConfig) AddSchemaPath(path string) {
	n := lookup(c.root, "schema")
	switch {
	case n == nil:
		set(c.root, "schema", sequence(path))
	case n.Kind == yaml.ScalarNode:
		if n.Value != path {
			*n = *sequence(n.Value, path)
		}
	case n.Kind == yaml.SequenceNode:
		if !slices.Contains(c.Schema(), path) {
			n.Content = append(n.Content, scalar(path))
		}
	}
}

// SetModel adds modelPath to the models bound to a GraphQL type.
func (c *GQLGenConfig) SetModel(typeName, modelPath string) {
	models := lookup(c.root, "models")
	if models == nil || models.Kind != yaml.MappingNode {
		models = mapping()
		set(c.root, "models", models)
	}
	entry := lookup(models, typeName)
	if entry == nil || entry.Kind != yaml.MappingNode {
		entry = mapping()
		set(models, typeName, entry)
	}
	model := lookup(entry, "model")
	switch {
	case model == nil:
		set(entry, "model", sequence(modelPath))
	case model.Kind == yaml.ScalarNode:
		if model.Value != modelPath {
			*model = *sequence(model.Value, modelPath)
		}
	case model.Kind == yaml.SequenceNode:
		if !slices.Contains(c.Models()[typeName].Model, modelPath) {
			model.Content = append(model.Content, scalar(modelPath))
		}
	}
}

// InjectHistoryBindings adds the schema path and binds the history types and
// scalars of metas to their Go models.
func (c *GQLGenConfig) InjectHistoryBindings(metas []*gen.Metadata, schemaPath string) {
	if schemaPath != "" {
		c.AddSchemaPath(schemaPath)
	}
	c.SetModel("ID", "github.com/99designs/gqlgen/graphql.ID")
	c.SetModel("ID", Package+".ID")
	c.SetModel("Time", "github.com/99designs/gqlgen/graphql.Time")
	c.SetModel(StateScalar, Package+".State")
	for _, m := range metas {
		c.SetModel(m.EntityTypeName(), m.EntityImportPath()+"."+m.EntityTypeName())
	}
}

func lookup(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func set(m *yaml.Node, key string, v *yaml.Node) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = v
			return
		}
	}
	m.Content = append(m.Content, scalar(key), v)
}

func mapping() *yaml.Node { return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"} }

func scalar(v string) *yaml.Node { return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v} }

func sequence(vs ...string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, v := range vs {
		n.Content = append(n.Content, scalar(v))
	}
	return n
}
