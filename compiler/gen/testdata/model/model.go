// Package model shares its name with the generated entity package.
package model

import (
	"time"

	hconv "github.com/syssam/entityhistory/converter"
)

// Order is tracked with the default settings.
//
//entityhistory:historical
type Order struct {
	ID     int64
	Status string
}

//entityhistory:historical converter=hconv.MapMsgpack
type Customer struct {
	ID   int64
	Name string
}

//entityhistory:historical converter=Codec
type Invoice struct {
	Number string
}

// Codec is a local state converter with a typed state.
type Codec struct{ hconv.JSON[Snapshot] }

// Snapshot is the state of an Invoice.
type Snapshot struct {
	Number string
	Issued time.Time
}
