// Package dialect names the SQL databases supported by the history store.
//
// # Supported Dialects
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
//
// Each dialect has a default state column type used when the historical
// directive does not set one explicitly:
//
//	dialect.DefaultColumn(dialect.Postgres) // JSONB
//	dialect.DefaultColumn(dialect.MySQL)    // JSON
//	dialect.DefaultColumn(dialect.SQLite)   // TEXT
package dialect
