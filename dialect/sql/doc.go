// Package sql implements the SQL history store used by generated history
// repositories.
//
// A generated repository wraps a Store for its history entity:
//
//	drv, err := sql.Open(dialect.Postgres, "postgres://localhost/app?sslmode=disable")
//	if err != nil {
//	    return err
//	}
//	store, err := sql.NewStore(drv, "order_histories", converter.MapJSON{},
//	    sql.WithColumn("JSONB"),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := store.CreateTable(ctx); err != nil {
//	    return err
//	}
//	h, err := store.Insert(ctx, map[string]any{"status": "paid"}, time.Now())
//
// # Dialect Support
//
// Statements adapt to the driver dialect: Postgres uses $n placeholders and
// RETURNING, MySQL and SQLite use ? placeholders and LastInsertId. Table and
// column identifiers are validated and quoted per dialect.
//
// The Postgres (lib/pq), MySQL (go-sql-driver/mysql) and SQLite
// (modernc.org/sqlite) database/sql drivers are registered by this package.
//
// # Migrations
//
// Store.Plan plans the table creation offline with atlas, and
// Store.WriteMigration writes it into a versioned migration directory.
//
// # Statistics
//
// WithStats wraps a driver to count statements and report slow ones:
//
//	stats := new(sql.QueryStats)
//	drv = sql.WithStats(drv, stats, sql.WithSlowQueryLog(logger))
package sql
