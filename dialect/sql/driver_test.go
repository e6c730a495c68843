package sql

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/entityhistory/dialect"
)

func TestIsValidIdentifier(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"order_histories", true},
		{"public.order_histories", true},
		{"_t1", true},
		{"", false},
		{"1table", false},
		{"orders; DROP TABLE x", false},
		{"a..b", false},
		{"a.", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.valid, isValidIdentifier(tt.input))
		})
	}
}

func TestDriverQuote(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, `"order_histories"`, OpenDB(dialect.Postgres, db).Quote("order_histories"))
	assert.Equal(t, `"public"."order_histories"`, OpenDB(dialect.Postgres, db).Quote("public.order_histories"))
	assert.Equal(t, "`order_histories`", OpenDB(dialect.MySQL, db).Quote("order_histories"))
	assert.Equal(t, `"order_histories"`, OpenDB(dialect.SQLite, db).Quote("order_histories"))
}

func TestDriverPlaceholder(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, "$2", OpenDB(dialect.Postgres, db).Placeholder(2))
	assert.Equal(t, "?", OpenDB(dialect.MySQL, db).Placeholder(2))
	assert.Equal(t, "?", OpenDB("sqlite3", db).Placeholder(1))
}

func TestOpen(t *testing.T) {
	t.Run("sqlite", func(t *testing.T) {
		drv, err := Open(dialect.SQLite, ":memory:")
		require.NoError(t, err)
		defer drv.Close()
		assert.Equal(t, dialect.SQLite, drv.Dialect())
	})

	t.Run("invalid mysql dsn", func(t *testing.T) {
		_, err := Open(dialect.MySQL, "user:pass@tcp(localhost:3306")
		assert.Error(t, err)
	})

	t.Run("unsupported dialect", func(t *testing.T) {
		_, err := Open("oracle", "")
		assert.Error(t, err)
	})
}
