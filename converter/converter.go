// Package converter provides state converters for generated history entities.
//
// A converter turns an entity state into the value stored in the history
// state column and back. The historical directive references a converter by
// type:
//
//	//entityhistory:historical converter=converter.MapMsgpack column=BYTEA
package converter

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/entityhistory"
)

// MapJSON stores a map state as JSON text.
type MapJSON struct{}

// ToColumn encodes the state as a JSON string.
func (MapJSON) ToColumn(state map[string]any) (driver.Value, error) {
	if state == nil {
		return nil, nil
	}
	b, err := json.Marshal(state)
	if err != nil {
		return nil, entityhistory.NewEncodeError("converter.MapJSON", err)
	}
	return string(b), nil
}

// FromColumn decodes a JSON column value.
func (MapJSON) FromColumn(v any) (map[string]any, error) {
	b, err := columnBytes(v)
	if err != nil || b == nil {
		if err != nil {
			err = entityhistory.NewDecodeError("converter.MapJSON", err)
		}
		return nil, err
	}
	var state map[string]any
	if err := json.Unmarshal(b, &state); err != nil {
		return nil, entityhistory.NewDecodeError("converter.MapJSON", err)
	}
	return state, nil
}

// MapMsgpack stores a map state as msgpack bytes. It suits binary columns
// (BYTEA, BLOB).
type MapMsgpack struct{}

// ToColumn encodes the state with msgpack.
func (MapMsgpack) ToColumn(state map[string]any) (driver.Value, error) {
	if state == nil {
		return nil, nil
	}
	b, err := msgpack.Marshal(state)
	if err != nil {
		return nil, entityhistory.NewEncodeError("converter.MapMsgpack", err)
	}
	return b, nil
}

// FromColumn decodes a msgpack column value.
func (MapMsgpack) FromColumn(v any) (map[string]any, error) {
	b, err := columnBytes(v)
	if err != nil || b == nil {
		if err != nil {
			err = entityhistory.NewDecodeError("converter.MapMsgpack", err)
		}
		return nil, err
	}
	var state map[string]any
	if err := msgpack.Unmarshal(b, &state); err != nil {
		return nil, entityhistory.NewDecodeError("converter.MapMsgpack", err)
	}
	return state, nil
}

// JSON stores a typed state as JSON text.
type JSON[T any] struct{}

// ToColumn encodes the state as a JSON string.
func (JSON[T]) ToColumn(state T) (driver.Value, error) {
	b, err := json.Marshal(state)
	if err != nil {
		return nil, entityhistory.NewEncodeError(fmt.Sprintf("converter.JSON[%T]", state), err)
	}
	return string(b), nil
}

// FromColumn decodes a JSON column value. A NULL column yields the zero T.
func (JSON[T]) FromColumn(v any) (T, error) {
	var state T
	b, err := columnBytes(v)
	if err != nil {
		return state, entityhistory.NewDecodeError(fmt.Sprintf("converter.JSON[%T]", state), err)
	}
	if b == nil {
		return state, nil
	}
	if err := json.Unmarshal(b, &state); err != nil {
		return state, entityhistory.NewDecodeError(fmt.Sprintf("converter.JSON[%T]", state), err)
	}
	return state, nil
}

func columnBytes(v any) ([]byte, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported column value type %T", v)
	}
}

var (
	_ entityhistory.StateConverter[map[string]any] = MapJSON{}
	_ entityhistory.StateConverter[map[string]any] = MapMsgpack{}
	_ entityhistory.StateConverter[struct{}]       = JSON[struct{}]{}
)
