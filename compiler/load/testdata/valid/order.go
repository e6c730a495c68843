package valid

import (
	"time"

	hconv "github.com/syssam/entityhistory/converter"
)

// Order is tracked with the default settings.
//
//entityhistory:historical
type Order struct {
	ID        int64
	Status    string
	CreatedAt time.Time
}

//entityhistory:historical base=internal/history column=BYTEA
//entityhistory:historical converter=hconv.MapMsgpack
type Customer struct {
	ID   int64
	Name string
}

type (
	// Invoice is declared inside a group.
	//entityhistory:historical converter=Codec
	Invoice struct {
		Number string
	}

	// Draft is not tracked.
	Draft struct{}
)

// Codec is a local state converter with a typed state.
type Codec struct{ hconv.JSON[Snapshot] }

// Snapshot is the state of an Invoice.
type Snapshot struct {
	Number string
	Lines  []string
}
