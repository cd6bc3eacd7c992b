package core

import (
	"context"
	"time"
)

// ChangeOperation represents the kind of mutation a change event reports.
type ChangeOperation string

const (
	// ChangeInsert reports newly inserted rows.
	ChangeInsert ChangeOperation = "INSERT"

	// ChangeUpdate reports updated rows.
	ChangeUpdate ChangeOperation = "UPDATE"

	// ChangeDelete reports deleted rows.
	ChangeDelete ChangeOperation = "DELETE"

	// ChangeClear reports that an unknown set of rows changed; receivers drop the whole cache.
	ChangeClear ChangeOperation = "CLEAR"
)

// Change is a mutation notice published by a table handler after the database
// confirmed a write. Other processes use it to invalidate their own caches.
type Change struct {
	// Table is the name of the table the mutation targeted.
	Table string `json:"table"`

	// Operation is the kind of mutation.
	Operation ChangeOperation `json:"operation"`

	// Keys are the canonical identifier keys of the affected rows.
	// Empty for ChangeClear.
	Keys []string `json:"keys,omitempty"`

	// Origin identifies the publishing handler so it can skip its own events.
	Origin string `json:"origin"`

	// Timestamp is when the mutation was committed.
	Timestamp time.Time `json:"timestamp"`
}

// ChangeFeed transports change events between processes.
type ChangeFeed interface {
	// Publish appends a change event to the feed.
	Publish(ctx context.Context, change *Change) error

	// Receive retrieves up to max change events in publish order.
	// Returns an empty slice if no events are available.
	Receive(ctx context.Context, max int) ([]*Change, error)

	// Size returns the approximate number of undelivered events.
	Size() int

	// Close closes the feed and releases resources.
	Close() error
}
