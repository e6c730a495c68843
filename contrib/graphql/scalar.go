package graphql

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/99designs/gqlgen/graphql"
)

// MarshalState marshals a history state as its JSON value. States that
// cannot be encoded are written as null.
func MarshalState(v any) graphql.Marshaler {
	return graphql.WriterFunc(func(w io.Writer) {
		b, err := json.Marshal(v)
		if err != nil {
			b = []byte("null")
		}
		_, _ = w.Write(b)
	})
}

// UnmarshalState returns the decoded JSON input value unchanged.
func UnmarshalState(v any) (any, error) {
	return v, nil
}

// MarshalID marshals a history record identifier as a GraphQL ID.
func MarshalID(id int64) graphql.Marshaler {
	return graphql.MarshalString(strconv.FormatInt(id, 10))
}

// UnmarshalID parses a GraphQL ID into a history record identifier.
func UnmarshalID(v any) (int64, error) {
	switch v := v.(type) {
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("graphql: invalid history id %q", v)
		}
		return id, nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case json.Number:
		return v.Int64()
	default:
		return 0, fmt.Errorf("graphql: %T is not a history id", v)
	}
}
