package entityhistory_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/entityhistory"
)

func TestNotFoundError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := entityhistory.NewNotFoundError("order_histories")
		assert.Equal(t, "entityhistory: order_histories not found", err.Error())
	})

	t.Run("ErrorWithID", func(t *testing.T) {
		err := entityhistory.NewNotFoundErrorWithID("order_histories", int64(7))
		assert.Equal(t, "entityhistory: order_histories not found (id=7)", err.Error())
		assert.Equal(t, int64(7), err.ID())
		assert.Equal(t, "order_histories", err.Label())
	})

	t.Run("Is", func(t *testing.T) {
		err := entityhistory.NewNotFoundError("order_histories")
		assert.True(t, errors.Is(err, entityhistory.ErrNotFound))
	})

	t.Run("IsNotFound", func(t *testing.T) {
		err := entityhistory.NewNotFoundError("order_histories")
		assert.True(t, entityhistory.IsNotFound(err))

		// Wrapped error
		wrapped := fmt.Errorf("wrapper: %w", err)
		assert.True(t, entityhistory.IsNotFound(wrapped))

		// Sentinel error
		assert.True(t, entityhistory.IsNotFound(entityhistory.ErrNotFound))

		// Non-matching error
		assert.False(t, entityhistory.IsNotFound(errors.New("other error")))
		assert.False(t, entityhistory.IsNotFound(nil))
	})
}

func TestConversionError(t *testing.T) {
	cause := errors.New("bad input")

	t.Run("Encode", func(t *testing.T) {
		err := entityhistory.NewEncodeError("converter.MapJSON", cause)
		assert.Equal(t, "entityhistory: converter.MapJSON encode state: bad input", err.Error())
		assert.ErrorIs(t, err, cause)
		assert.ErrorIs(t, err, entityhistory.ErrConversion)
	})

	t.Run("Decode", func(t *testing.T) {
		err := entityhistory.NewDecodeError("converter.MapJSON", cause)
		assert.Equal(t, "decode", err.Direction)
		assert.True(t, entityhistory.IsConversionError(fmt.Errorf("wrap: %w", err)))
		assert.False(t, entityhistory.IsConversionError(cause))
		assert.False(t, entityhistory.IsConversionError(nil))
	})
}
