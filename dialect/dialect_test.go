package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"postgres", Postgres},
		{"pgx", Postgres},
		{"mysql", MySQL},
		{"sqlite", SQLite},
		{"sqlite3", SQLite},
		{"postgres-otel", Postgres},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			d, err := Normalize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, d)
		})
	}

	_, err := Normalize("oracle")
	assert.Error(t, err)
}

func TestDefaultColumn(t *testing.T) {
	assert.Equal(t, "JSONB", DefaultColumn(Postgres))
	assert.Equal(t, "JSON", DefaultColumn(MySQL))
	assert.Equal(t, "TEXT", DefaultColumn(SQLite))
}
