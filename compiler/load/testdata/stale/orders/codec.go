package orders

import hconv "github.com/syssam/entityhistory/converter"

// Codec converts Snap states. It was renamed from Snapshot after the
// history package was generated.
type Codec struct{ hconv.JSON[Snap] }

// Snap is the state of an Order.
type Snap struct {
	Status string
}
