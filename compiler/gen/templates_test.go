package gen

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/entityhistory/schema"
)

func TestEmbedded(t *testing.T) {
	ids, err := Embedded()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		schema.DefaultEntityTemplatePath,
		schema.DefaultDaoTemplatePath,
		schema.DefaultServiceTemplatePath,
	}, ids)
}

func TestTemplates_Lookup(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "history"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "history", "entity.go.tmpl"), []byte("override {{ .h }}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plain.tmpl"), []byte("plain"), 0o644))
	abs := filepath.Join(t.TempDir(), "abs.tmpl")
	require.NoError(t, os.WriteFile(abs, []byte("file {{ .h }}"), 0o644))

	execute := func(t *testing.T, ts *Templates, id string) string {
		t.Helper()
		tmpl, err := ts.Lookup(id)
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, tmpl.Execute(&buf, map[string]any{"h": "#"}))
		return buf.String()
	}

	t.Run("template dir overrides embedded", func(t *testing.T) {
		ts := NewTemplates(dir)
		assert.Equal(t, "override #", execute(t, ts, schema.DefaultEntityTemplatePath))
		assert.Equal(t, "plain", execute(t, ts, "plain.tmpl"))
	})

	t.Run("embedded fallback", func(t *testing.T) {
		ts := NewTemplates(dir)
		tmpl, err := ts.Lookup(schema.DefaultDaoTemplatePath)
		require.NoError(t, err)
		assert.Equal(t, schema.DefaultDaoTemplatePath, tmpl.Name())
	})

	t.Run("file prefix", func(t *testing.T) {
		ts := NewTemplates(dir)
		assert.Equal(t, "file #", execute(t, ts, FilePrefix+abs))
	})

	t.Run("cached", func(t *testing.T) {
		ts := NewTemplates()
		a, err := ts.Lookup(schema.DefaultServiceTemplatePath)
		require.NoError(t, err)
		b, err := ts.Lookup(schema.DefaultServiceTemplatePath)
		require.NoError(t, err)
		assert.Same(t, a, b)
	})

	t.Run("not found", func(t *testing.T) {
		ts := NewTemplates(dir)
		_, err := ts.Lookup("history/missing.go.tmpl")
		assert.ErrorIs(t, err, fs.ErrNotExist)
		_, err = ts.Lookup(FilePrefix + filepath.Join(dir, "missing.tmpl"))
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("invalid identifier", func(t *testing.T) {
		_, err := NewTemplates(dir).Lookup("../escape.tmpl")
		assert.ErrorIs(t, err, fs.ErrInvalid)
	})

	t.Run("parse error", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.tmpl")
		require.NoError(t, os.WriteFile(bad, []byte("{{ .h "), 0o644))
		_, err := NewTemplates().Lookup(FilePrefix + bad)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse template")
	})
}

func TestFuncs(t *testing.T) {
	tests := []struct {
		tmpl string
		want string
	}{
		{`{{ snake "OrderHistory" }}`, "order_history"},
		{`{{ camel "order_history" }}`, "orderHistory"},
		{`{{ plural "history" }}`, "histories"},
		{`{{ singular "orders" }}`, "order"},
		{`{{ title "order history" }}`, "Order History"},
		{`{{ lowerFirst "OrderHistory" }}`, "orderHistory"},
		{`{{ lowerFirst "" }}`, ""},
		{`{{ quote "a\"b" }}`, `"a\"b"`},
		{`{{ base "com/example/model" }}`, "model"},
		{`{{ join .list "/" }}`, "a/b"},
	}
	for _, tt := range tests {
		t.Run(tt.tmpl, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "f.tmpl")
			require.NoError(t, os.WriteFile(path, []byte(tt.tmpl), 0o644))
			tmpl, err := NewTemplates().Lookup(FilePrefix + path)
			require.NoError(t, err)
			var buf bytes.Buffer
			require.NoError(t, tmpl.Execute(&buf, map[string]any{"list": []string{"a", "b"}}))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}
