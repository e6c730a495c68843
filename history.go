// Package entityhistory holds the runtime contract shared by generated
// history entities, repositories and services.
//
// A source entity marked with the historical directive:
//
//	//entityhistory:historical base=internal/history column=JSONB
//	type Order struct { ... }
//
// gets three companion types generated by the historygen command. The
// generated entity embeds History, so it satisfies EntityHistory and carries
// the creation and update timestamps of every recorded snapshot.
package entityhistory

import (
	"database/sql/driver"
	"time"
)

// EntityHistory is implemented by every generated history entity.
// S is the type of the serialized state snapshot.
type EntityHistory[S any] interface {
	// GetState returns the snapshot of the source entity.
	GetState() S
	// GetCreatedAt returns when the snapshot was taken.
	GetCreatedAt() time.Time
}

// StateConverter converts an entity state to and from its column value.
type StateConverter[S any] interface {
	ToColumn(S) (driver.Value, error)
	FromColumn(any) (S, error)
}

// Timestamps is the timestamped-entity base embedded by history records.
type Timestamps struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetCreatedAt returns the creation time.
func (t Timestamps) GetCreatedAt() time.Time { return t.CreatedAt }

// GetUpdatedAt returns the last update time.
func (t Timestamps) GetUpdatedAt() time.Time { return t.UpdatedAt }

// SetCreatedAt sets the creation time.
func (t *Timestamps) SetCreatedAt(at time.Time) { t.CreatedAt = at }

// SetUpdatedAt sets the last update time.
func (t *Timestamps) SetUpdatedAt(at time.Time) { t.UpdatedAt = at }

// Touch sets UpdatedAt to now, and CreatedAt too if it was never set.
func (t *Timestamps) Touch(now time.Time) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
}

// History is a single recorded snapshot of an entity state.
type History[S any] struct {
	ID    int64 `json:"id"`
	State S     `json:"state"`
	Timestamps
}

// NewHistory returns a snapshot of state taken at createdAt.
func NewHistory[S any](state S, createdAt time.Time) *History[S] {
	h := &History[S]{State: state}
	h.SetCreatedAt(createdAt)
	return h
}

// GetID returns the record identifier.
func (h *History[S]) GetID() int64 { return h.ID }

// GetState returns the snapshot.
func (h *History[S]) GetState() S { return h.State }

var _ EntityHistory[map[string]any] = (*History[map[string]any])(nil)

// Descriptor describes one generated history entity. Generated registries
// expose a slice of descriptors for every historical entity of a package tree.
type Descriptor struct {
	// Source is the qualified name of the source entity.
	Source string
	// Entity is the qualified name of the generated history entity.
	Entity string
	// Table is the history table name.
	Table string
	// Column is the state column definition.
	Column string
	// Converter is the qualified name of the state converter.
	Converter string
}
