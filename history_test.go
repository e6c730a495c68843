package entityhistory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/entityhistory"
)

func TestTimestamps(t *testing.T) {
	t.Run("Touch sets both on first call", func(t *testing.T) {
		var ts entityhistory.Timestamps
		now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
		ts.Touch(now)
		assert.Equal(t, now, ts.GetCreatedAt())
		assert.Equal(t, now, ts.GetUpdatedAt())
	})

	t.Run("Touch keeps CreatedAt", func(t *testing.T) {
		created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
		ts := entityhistory.Timestamps{CreatedAt: created}
		later := created.Add(time.Hour)
		ts.Touch(later)
		assert.Equal(t, created, ts.GetCreatedAt())
		assert.Equal(t, later, ts.GetUpdatedAt())
	})
}

func TestHistory(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	h := entityhistory.NewHistory(map[string]any{"status": "paid"}, at)

	var eh entityhistory.EntityHistory[map[string]any] = h
	assert.Equal(t, "paid", eh.GetState()["status"])
	assert.Equal(t, at, eh.GetCreatedAt())
	assert.Zero(t, h.GetID())
	assert.True(t, h.UpdatedAt.IsZero())
}
