package graphql

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/go-openapi/inflect"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/syssam/entityhistory/compiler/gen"
)

// Package is the import path of this package, referenced by the scalar
// bindings of the generated schema.
const Package = "github.com/syssam/entityhistory/contrib/graphql"

// StateScalar is the scalar carrying history states.
const StateScalar = "HistoryState"

// goModel declares the gqlgen binding directive so the schema validates on
// its own, outside of gqlgen.
const goModel = `directive @goModel(model: String, models: [String!], forceGenerate: Boolean) on OBJECT | INPUT_OBJECT | SCALAR | ENUM | INTERFACE | UNION`

// Schema renders the GraphQL schema of metas. Types are sorted by name, and
// two entities mapping to the same GraphQL type name are an error.
func Schema(metas []*gen.Metadata, queries bool) (string, error) {
	metas = append([]*gen.Metadata(nil), metas...)
	sort.Slice(metas, func(i, j int) bool {
		if a, b := metas[i].EntityTypeName(), metas[j].EntityTypeName(); a != b {
			return a < b
		}
		return metas[i].SourceEntityQualifiedName < metas[j].SourceEntityQualifiedName
	})
	for i := 1; i < len(metas); i++ {
		if prev, m := metas[i-1], metas[i]; prev.EntityTypeName() == m.EntityTypeName() {
			return "", fmt.Errorf("graphql: type %s is generated for both %s and %s",
				m.EntityTypeName(), prev.SourceEntityQualifiedName, m.SourceEntityQualifiedName)
		}
	}

	var b strings.Builder
	b.WriteString(goModel + "\n")
	b.WriteString("scalar Time\n")
	fmt.Fprintf(&b, "\"\"\"The JSON snapshot of an entity state.\"\"\"\nscalar %s @goModel(model: %q)\n", StateScalar, Package+".State")
	for _, m := range metas {
		fmt.Fprintf(&b, "\"\"\"A recorded snapshot of %s.\"\"\"\n", m.SourceEntityQualifiedName)
		fmt.Fprintf(&b, "type %s @goModel(model: %q) {\n", m.EntityTypeName(), m.EntityImportPath()+"."+m.EntityTypeName())
		b.WriteString("  id: ID!\n")
		fmt.Fprintf(&b, "  state: %s!\n", StateScalar)
		b.WriteString("  createdAt: Time!\n")
		b.WriteString("  updatedAt: Time!\n")
		b.WriteString("}\n")
	}
	if queries {
		b.WriteString("type Query {\n")
		for _, m := range metas {
			fmt.Fprintf(&b, "  \"\"\"Snapshots of %s, newest first.\"\"\"\n", m.SourceEntityQualifiedName)
			fmt.Fprintf(&b, "  %s(since: Time, until: Time, limit: Int): [%s!]!\n", QueryField(m), m.EntityTypeName())
		}
		b.WriteString("}\n")
	}
	return b.String(), nil
}

// QueryField returns the name of the Query field listing the snapshots of
// m, e.g. orderHistories.
func QueryField(m *gen.Metadata) string {
	name := inflect.Pluralize(m.EntityTypeName())
	return strings.ToLower(name[:1]) + name[1:]
}

// Format validates sdl as a standalone schema and returns it in canonical
// form, headed by the generated-code comment.
func Format(name, sdl string) (string, error) {
	src := &ast.Source{Name: name, Input: sdl}
	if _, err := gqlparser.LoadSchema(src); err != nil {
		return "", fmt.Errorf("graphql: invalid schema: %w", err)
	}
	doc, err := parser.ParseSchema(src)
	if err != nil {
		return "", fmt.Errorf("graphql: parse schema: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString("# " + gen.Header + "\n\n")
	formatter.NewFormatter(&buf, formatter.WithIndent("  ")).FormatSchemaDocument(doc)
	return buf.String(), nil
}
