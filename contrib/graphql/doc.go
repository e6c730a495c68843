// Package graphql exposes generated history entities over GraphQL.
//
// The extension runs at the end of every historygen batch. It writes a
// GraphQL schema (SDL) describing one object type per history entity,
// validates it with gqlparser, and optionally injects the matching model
// bindings into a gqlgen.yml file so gqlgen binds the schema types to the
// generated Go entities.
//
// # Usage
//
//	ex, err := graphql.NewExtension(
//	    graphql.WithSchemaPath("./graph/history.graphql"),
//	    graphql.WithConfigPath("./gqlgen.yml"),
//	    graphql.WithQueries(),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cfg, err := gen.NewConfig(gen.WithExtensions(ex))
//
// The historygen command enables the extension with its -graphql flag.
//
// # Scalars
//
// History states are exposed through the HistoryState scalar, marshaled as
// JSON by MarshalState. Record identifiers use the ID scalar, bound to
// MarshalID and UnmarshalID. Both are plain gqlgen marshaler functions.
package graphql
