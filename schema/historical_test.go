package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDirective(t *testing.T) {
	assert.True(t, IsDirective("//entityhistory:historical"))
	assert.True(t, IsDirective("//entityhistory:historical base=x"))
	assert.True(t, IsDirective("entityhistory:historical\tbase=x"))
	assert.False(t, IsDirective("// entityhistory:historical"))
	assert.False(t, IsDirective("//entityhistory:historicalx"))
	assert.False(t, IsDirective("//go:generate historygen"))
}

func TestParseDirective(t *testing.T) {
	t.Run("all keys", func(t *testing.T) {
		h, err := ParseDirective(`//entityhistory:historical target=gen base=com.example converter=converter.MapMsgpack column=BYTEA state=map[string]any entity-template=a.tmpl dao-template=b.tmpl service-template=c.tmpl`)
		require.NoError(t, err)
		assert.Equal(t, Historical{
			TargetPath:              "gen",
			EntityTemplatePath:      "a.tmpl",
			DaoTemplatePath:         "b.tmpl",
			ServiceTemplatePath:     "c.tmpl",
			BasePackageName:         "com.example",
			StateAttributeConverter: "converter.MapMsgpack",
			StateColumnDefinition:   "BYTEA",
			StateType:               "map[string]any",
		}, h)
	})

	t.Run("quoted values", func(t *testing.T) {
		h, err := ParseDirective(`//entityhistory:historical column="VARCHAR(255) NOT NULL" entity-template=` + "`file:my dir/e.tmpl`")
		require.NoError(t, err)
		assert.Equal(t, "VARCHAR(255) NOT NULL", h.StateColumnDefinition)
		assert.Equal(t, "file:my dir/e.tmpl", h.EntityTemplatePath)
	})

	t.Run("bare marker", func(t *testing.T) {
		h, err := ParseDirective("//entityhistory:historical")
		require.NoError(t, err)
		assert.Equal(t, Historical{}, h)
	})

	t.Run("later key wins", func(t *testing.T) {
		h, err := ParseDirective("//entityhistory:historical base=a base=b")
		require.NoError(t, err)
		assert.Equal(t, "b", h.BasePackageName)
	})

	errs := []string{
		"//entityhistory:historical base",
		"//entityhistory:historical base x=y",
		"//entityhistory:historical =x",
		"//entityhistory:historical base=",
		"//entityhistory:historical color=red",
		`//entityhistory:historical column="JSONB`,
		`//entityhistory:historical column="JSONB"x`,
		"//go:generate foo",
	}
	for _, text := range errs {
		t.Run(text, func(t *testing.T) {
			_, err := ParseDirective(text)
			assert.Error(t, err)
		})
	}
}

func TestParseDirectives(t *testing.T) {
	h, err := ParseDirectives([]string{
		"//entityhistory:historical base=a column=JSON",
		"//entityhistory:historical base=b",
	})
	require.NoError(t, err)
	assert.Equal(t, "b", h.BasePackageName)
	assert.Equal(t, "JSON", h.StateColumnDefinition)

	_, err = ParseDirectives([]string{"//entityhistory:historical base=a", "//entityhistory:historical nope=1"})
	assert.Error(t, err)
}

func TestHistoricalMerge(t *testing.T) {
	h := Defaults().Merge(Historical{BasePackageName: "com.example", StateType: "[]byte"})
	assert.Equal(t, "com.example", h.BasePackageName)
	assert.Equal(t, "[]byte", h.StateType)
	assert.Equal(t, DefaultConverter, h.StateAttributeConverter)
	assert.Equal(t, DefaultTargetPath, h.TargetPath)

	v, ok := h.Get("base")
	assert.True(t, ok)
	assert.Equal(t, "com.example", v)
	_, ok = h.Get("nope")
	assert.False(t, ok)
	assert.Equal(t, "Historical", h.Name())
}

func TestDefaultColumn(t *testing.T) {
	assert.Empty(t, Defaults().StateColumnDefinition)
	assert.Equal(t, "JSONB", DefaultColumn(DefaultConverter))
	assert.Equal(t, "BYTEA", DefaultColumn(MsgpackConverter))
	assert.Equal(t, "JSONB", DefaultColumn("example.com/conv.Codec"))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, []string{"base", "column", "converter", "dao-template", "entity-template", "service-template", "state", "target"}, Keys())
}
