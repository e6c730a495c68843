package gen

import (
	"context"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/entityhistory/schema"
)

func newMetadata(t *testing.T, ann schema.Historical) *Metadata {
	t.Helper()
	m, err := NewMetadata(ann, SourceInfo{Package: "example.com/shop", PackageName: "shop", Name: "Order"})
	require.NoError(t, err)
	return m
}

func TestTemplateWriter_Generate(t *testing.T) {
	target := filepath.Join(t.TempDir(), "deeply", "nested", "target")
	m := newMetadata(t, schema.Historical{TargetPath: target, BasePackageName: "com.example"})

	w := NewTemplateWriter(nil)
	outcome, err := w.Generate(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, "example.com/shop.Order", outcome.Entity)
	assert.Equal(t, []string{
		filepath.Join(target, "com", "example", "model", "order_history.go"),
		filepath.Join(target, "com", "example", "dao", "order_history_repository.go"),
		filepath.Join(target, "com", "example", "service", "order_history_service.go"),
	}, outcome.Files)

	fset := token.NewFileSet()
	for _, name := range outcome.Files {
		f, err := parser.ParseFile(fset, name, nil, parser.ParseComments)
		require.NoError(t, err, name)
		assert.Equal(t, filepath.Base(filepath.Dir(name)), f.Name.Name)
	}

	entity, err := os.ReadFile(outcome.Files[0])
	require.NoError(t, err)
	assert.Contains(t, string(entity), "// Code generated by historygen. DO NOT EDIT.")
	assert.Contains(t, string(entity), "type OrderHistory struct")
	assert.Contains(t, string(entity), "entityhistory.History[map[string]any]")
	assert.Contains(t, string(entity), `const OrderHistoryTable = "order_histories"`)
	assert.Contains(t, string(entity), `const OrderHistoryColumn = "JSONB"`)

	dao, err := os.ReadFile(outcome.Files[1])
	require.NoError(t, err)
	assert.Contains(t, string(dao), "type OrderHistoryRepository struct")
	assert.Contains(t, string(dao), `"com/example/model"`)
	assert.Contains(t, string(dao), "converter.MapJSON{}")

	svc, err := os.ReadFile(outcome.Files[2])
	require.NoError(t, err)
	assert.Contains(t, string(svc), "type OrderHistoryService struct")
	assert.Contains(t, string(svc), "repo *dao.OrderHistoryRepository")
}

func TestTemplateWriter_Idempotent(t *testing.T) {
	target := t.TempDir()
	m := newMetadata(t, schema.Historical{TargetPath: target})
	w := NewTemplateWriter(nil)

	first, err := w.Generate(context.Background(), m)
	require.NoError(t, err)
	contents := make(map[string][]byte)
	for _, name := range first.Files {
		b, err := os.ReadFile(name)
		require.NoError(t, err)
		contents[name] = b
		// Regeneration must overwrite stale content.
		require.NoError(t, os.WriteFile(name, []byte("stale content that is longer than nothing"), 0o644))
	}

	second, err := NewTemplateWriter(nil).Generate(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, first.Files, second.Files)
	for _, name := range second.Files {
		b, err := os.ReadFile(name)
		require.NoError(t, err)
		assert.Equal(t, contents[name], b, name)
	}
}

func TestTemplateWriter_TemplateNotFound(t *testing.T) {
	target := t.TempDir()
	m := newMetadata(t, schema.Historical{TargetPath: target, ServiceTemplatePath: "history/missing.go.tmpl"})

	_, err := NewTemplateWriter(nil).Generate(context.Background(), m)
	require.Error(t, err)
	var gerr *GenerationError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, PhaseTemplate, gerr.Phase)
	assert.Equal(t, m.ServiceFile(), gerr.File)

	entries, err := os.ReadDir(target)
	require.NoError(t, err)
	assert.Empty(t, entries, "no file is written when a template is missing")
}

func TestTemplateWriter_FormatError(t *testing.T) {
	target := t.TempDir()
	tmpl := filepath.Join(t.TempDir(), "broken.go.tmpl")
	require.NoError(t, os.WriteFile(tmpl, []byte("package {{ .historicalEntity.EntityPackage }}\n\nfunc {\n"), 0o644))
	m := newMetadata(t, schema.Historical{TargetPath: target, EntityTemplatePath: FilePrefix + tmpl})

	_, err := NewTemplateWriter(nil).Generate(context.Background(), m)
	var gerr *GenerationError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, PhaseFormat, gerr.Phase)

	raw, err := os.ReadFile(m.EntityFile() + ".error")
	require.NoError(t, err)
	assert.Equal(t, "package model\n\nfunc {\n", string(raw))
	assert.NoFileExists(t, m.EntityFile())
}

func TestTemplateWriter_RenderError(t *testing.T) {
	tmpl := filepath.Join(t.TempDir(), "render.go.tmpl")
	require.NoError(t, os.WriteFile(tmpl, []byte("{{ .historicalEntity.Missing }}"), 0o644))
	m := newMetadata(t, schema.Historical{TargetPath: t.TempDir(), DaoTemplatePath: FilePrefix + tmpl})

	_, err := NewTemplateWriter(nil).Generate(context.Background(), m)
	var gerr *GenerationError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, PhaseRender, gerr.Phase)
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestTemplateWriter_Data(t *testing.T) {
	tmpl := filepath.Join(t.TempDir(), "data.go.tmpl")
	require.NoError(t, os.WriteFile(tmpl, []byte(
		"package {{ .historicalEntity.EntityPackage }}\n\n// {{ .h }} {{ .historicalEntity.SourceEntitySimpleName }}\n"), 0o644))
	m := newMetadata(t, schema.Historical{TargetPath: t.TempDir(), EntityTemplatePath: FilePrefix + tmpl})

	_, err := NewTemplateWriter(nil).Generate(context.Background(), m)
	require.NoError(t, err)
	b, err := os.ReadFile(m.EntityFile())
	require.NoError(t, err)
	assert.Equal(t, "package model\n\n// # Order\n", string(b))
	assert.Len(t, Data(m), 2)
}

func TestTemplateWriter_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := newMetadata(t, schema.Historical{TargetPath: t.TempDir()})
	_, err := NewTemplateWriter(nil).Generate(ctx, m)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTemplateWriter_WriteError(t *testing.T) {
	target := t.TempDir()
	m := newMetadata(t, schema.Historical{TargetPath: target})
	// A regular file where the base directory must be created.
	require.NoError(t, os.WriteFile(filepath.Join(target, "historical"), nil, 0o644))

	outcome, err := NewTemplateWriter(nil).Generate(context.Background(), m)
	var gerr *GenerationError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, PhaseWrite, gerr.Phase)
	assert.Empty(t, outcome.Files)
}
