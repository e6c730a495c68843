package sql

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/syssam/entityhistory/dialect"
)

// validIdentifierRe validates SQL identifiers (alphanumeric, underscores, dots for schema.name)
var validIdentifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)

// isValidIdentifier checks if the string is a valid SQL identifier.
func isValidIdentifier(s string) bool {
	return s != "" && len(s) <= 128 && validIdentifierRe.MatchString(s) &&
		!strings.HasSuffix(s, ".") && !strings.Contains(s, "..")
}

// ExecQuerier wraps the standard Exec and Query methods.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Driver wraps a database handle with its dialect.
type Driver struct {
	ExecQuerier
	dialect string
}

// NewDriver creates a new Driver with the given ExecQuerier and dialect.
func NewDriver(dialect string, eq ExecQuerier) *Driver {
	return &Driver{dialect: dialect, ExecQuerier: eq}
}

// Open wraps the database/sql.Open method and returns a Driver for the dialect.
// MySQL sources are parsed and forced to scan DATETIME columns into time.Time.
func Open(name, source string) (*Driver, error) {
	d, err := dialect.Normalize(name)
	if err != nil {
		return nil, err
	}
	if d == dialect.MySQL {
		cfg, err := mysql.ParseDSN(source)
		if err != nil {
			return nil, fmt.Errorf("dialect/sql: parse mysql dsn: %w", err)
		}
		cfg.ParseTime = true
		source = cfg.FormatDSN()
	}
	db, err := sql.Open(d, source)
	if err != nil {
		return nil, err
	}
	return NewDriver(d, db), nil
}

// OpenDB wraps the given database/sql.DB with a Driver.
func OpenDB(dialect string, db *sql.DB) *Driver {
	return NewDriver(dialect, db)
}

// DB returns the underlying *sql.DB instance.
func (d Driver) DB() *sql.DB {
	if s, ok := d.ExecQuerier.(*statsConn); ok {
		return Driver{ExecQuerier: s.ExecQuerier}.DB()
	}
	return d.ExecQuerier.(*sql.DB)
}

// Dialect returns the dialect name of the driver.
func (d Driver) Dialect() string {
	if n, err := dialect.Normalize(d.dialect); err == nil {
		return n
	}
	return d.dialect
}

// Close closes the underlying connection.
func (d *Driver) Close() error { return d.DB().Close() }

// Quote quotes a (possibly schema-qualified) identifier for the dialect.
func (d Driver) Quote(ident string) string {
	parts := strings.Split(ident, ".")
	for i, p := range parts {
		switch d.Dialect() {
		case dialect.Postgres:
			parts[i] = pq.QuoteIdentifier(p)
		case dialect.MySQL:
			parts[i] = "`" + strings.ReplaceAll(p, "`", "``") + "`"
		default:
			parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
		}
	}
	return strings.Join(parts, ".")
}

// Placeholder returns the n-th (1-based) bind placeholder for the dialect.
func (d Driver) Placeholder(n int) string {
	if d.Dialect() == dialect.Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}
