package gen

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"golang.org/x/tools/imports"
)

// TemplateWriter renders the three companion files of a historical entity.
type TemplateWriter struct {
	templates *Templates
}

// NewTemplateWriter creates a new template-based writer.
func NewTemplateWriter(t *Templates) *TemplateWriter {
	if t == nil {
		t = NewTemplates()
	}
	return &TemplateWriter{templates: t}
}

// Outcome lists the files written for one entity.
type Outcome struct {
	Entity string
	Files  []string
}

// fileTask represents a single file generation task.
type fileTask struct {
	name     string // output file path
	template string // template identifier
	tmpl     *template.Template
	out      []byte
}

// Data returns the value bound to the templates of an entity.
func Data(m *Metadata) map[string]any {
	return map[string]any{
		"h":                "#",
		"historicalEntity": m,
	}
}

// Generate renders the entity, repository and service templates of m and
// writes them under m.TargetPath. Every template is loaded and rendered
// before the first file is written. Existing files are overwritten.
func (w *TemplateWriter) Generate(ctx context.Context, m *Metadata) (*Outcome, error) {
	files := []*fileTask{
		{name: m.EntityFile(), template: m.EntityTemplatePath},
		{name: m.DaoFile(), template: m.DaoTemplatePath},
		{name: m.ServiceFile(), template: m.ServiceTemplatePath},
	}
	// 1. Load templates
	for _, f := range files {
		tmpl, err := w.templates.Lookup(f.template)
		if err != nil {
			return nil, NewGenerationError(PhaseTemplate, f.name, "load template "+f.template, err)
		}
		f.tmpl = tmpl
	}
	// 2. Execute and format
	data := Data(m)
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := render(f.tmpl, f.name, data)
		if err != nil {
			return nil, err
		}
		f.out = out
	}
	// 3. Write files
	outcome := &Outcome{Entity: m.SourceEntityQualifiedName}
	for _, f := range files {
		if err := writeFile(f.name, f.out); err != nil {
			return outcome, NewGenerationError(PhaseWrite, f.name, "", err)
		}
		outcome.Files = append(outcome.Files, f.name)
	}
	return outcome, nil
}

// render executes tmpl and formats the result when name is a Go file.
func render(tmpl *template.Template, name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, NewGenerationError(PhaseRender, name, "execute template "+tmpl.Name(), err)
	}
	if !strings.HasSuffix(name, ".go") {
		return buf.Bytes(), nil
	}
	formatted, err := imports.Process(name, buf.Bytes(), &imports.Options{
		FormatOnly: true,
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
	})
	if err != nil {
		// Write unformatted file for debugging (errors intentionally ignored as we're already in error state)
		debugPath := name + ".error"
		_ = os.MkdirAll(filepath.Dir(debugPath), 0o755)
		_ = os.WriteFile(debugPath, buf.Bytes(), 0o644)
		return nil, NewGenerationError(PhaseFormat, name, "unformatted written to "+debugPath, err)
	}
	return formatted, nil
}

// writeFile creates the parent directories of name and overwrites it with b.
func writeFile(name string, b []byte) (rerr error) {
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() { rerr = errors.Join(rerr, f.Close()) }()
	_, err = f.Write(b)
	return err
}
