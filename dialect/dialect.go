package dialect

import (
	"fmt"
	"strings"
)

// Dialect names.
const (
	Postgres = "postgres"
	MySQL    = "mysql"
	SQLite   = "sqlite"
)

// Normalize returns the canonical dialect name for the given driver name.
// Driver names wrapped by telemetry drivers (e.g. "postgres-otel") and the
// "sqlite3" alias are accepted.
func Normalize(name string) (string, error) {
	for _, d := range []string{Postgres, MySQL, SQLite} {
		if strings.HasPrefix(name, d) {
			return d, nil
		}
	}
	if name == "pgx" {
		return Postgres, nil
	}
	return "", fmt.Errorf("dialect: unsupported dialect %q", name)
}

// DefaultColumn returns the default state column type of the dialect.
func DefaultColumn(d string) string {
	switch d {
	case Postgres:
		return "JSONB"
	case MySQL:
		return "JSON"
	default:
		return "TEXT"
	}
}
