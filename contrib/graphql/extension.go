package graphql

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/syssam/entityhistory/compiler/gen"
)

// DefaultSchemaPath is the schema file written when no path is configured.
const DefaultSchemaPath = "history.graphql"

// SchemaHook is called after the schema was rendered and before it is
// validated and written. It receives the generated entities and the schema
// content, and returns the content to keep.
type SchemaHook func(metas []*gen.Metadata, schema string) (string, error)

// Extension implements gen.Extension. It writes the GraphQL schema of the
// history entities generated by a batch.
type Extension struct {
	schemaPath  string
	configPath  string
	queries     bool
	schemaHooks []SchemaHook
}

var _ gen.Extension = (*Extension)(nil)

// ExtensionOption is a function that configures the Extension.
type ExtensionOption func(*Extension) error

// NewExtension creates a new GraphQL extension with the given options.
func NewExtension(opts ...ExtensionOption) (*Extension, error) {
	ex := &Extension{schemaPath: DefaultSchemaPath}
	for _, opt := range opts {
		if err := opt(ex); err != nil {
			return nil, err
		}
	}
	return ex, nil
}

// WithSchemaPath sets the output path of the generated schema. The file
// must have a .graphql or .graphqls extension.
func WithSchemaPath(path string) ExtensionOption {
	return func(e *Extension) error {
		switch filepath.Ext(path) {
		case ".graphql", ".graphqls":
			e.schemaPath = path
			return nil
		default:
			return fmt.Errorf("graphql: schema path %q must end in .graphql or .graphqls", path)
		}
	}
}

// WithConfigPath sets the gqlgen.yml file that receives the schema path and
// the model bindings of the history types. A missing file is created.
func WithConfigPath(path string) ExtensionOption {
	return func(e *Extension) error {
		if path == "" {
			return fmt.Errorf("graphql: gqlgen config path cannot be empty")
		}
		e.configPath = path
		return nil
	}
}

// WithQueries adds a Query field listing the snapshots of every entity.
func WithQueries() ExtensionOption {
	return func(e *Extension) error {
		e.queries = true
		return nil
	}
}

// WithSchemaHook adds a hook that runs after schema generation.
// Multiple hooks run in order.
//
//	graphql.WithSchemaHook(func(_ []*gen.Metadata, s string) (string, error) {
//	    return s + "\ndirective @auth on FIELD_DEFINITION\n", nil
//	})
func WithSchemaHook(hooks ...SchemaHook) ExtensionOption {
	return func(e *Extension) error {
		for _, h := range hooks {
			if h == nil {
				return fmt.Errorf("graphql: schema hook cannot be nil")
			}
		}
		e.schemaHooks = append(e.schemaHooks, hooks...)
		return nil
	}
}

// Name implements gen.Extension.
func (e *Extension) Name() string { return "graphql" }

// SchemaPath returns the output path of the schema.
func (e *Extension) SchemaPath() string { return e.schemaPath }

// Generate implements gen.Extension. A batch without entities writes
// nothing.
func (e *Extension) Generate(ctx context.Context, metas []*gen.Metadata) ([]string, error) {
	if len(metas) == 0 {
		return nil, nil
	}
	sdl, err := Schema(metas, e.queries)
	if err != nil {
		return nil, err
	}
	for _, h := range e.schemaHooks {
		if sdl, err = h(metas, sdl); err != nil {
			return nil, fmt.Errorf("graphql: schema hook: %w", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := Format(e.schemaPath, sdl)
	if err != nil {
		return nil, err
	}
	if err := writeFile(e.schemaPath, []byte(out)); err != nil {
		return nil, fmt.Errorf("graphql: write schema: %w", err)
	}
	files := []string{e.schemaPath}
	if e.configPath == "" {
		return files, nil
	}
	cfg, err := LoadGQLGenConfig(e.configPath)
	if err != nil {
		return files, err
	}
	cfg.InjectHistoryBindings(metas, e.schemaRef())
	if err := SaveGQLGenConfig(e.configPath, cfg); err != nil {
		return files, err
	}
	return append(files, e.configPath), nil
}

// schemaRef returns the schema path relative to the gqlgen config, as gqlgen
// resolves schema globs from the directory of its configuration.
func (e *Extension) schemaRef() string {
	rel, err := filepath.Rel(filepath.Dir(e.configPath), e.schemaPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(e.schemaPath)
	}
	return filepath.ToSlash(rel)
}

func writeFile(name string, b []byte) error {
	if dir := filepath.Dir(name); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(name, b, 0o644)
}
