// Package sources defines the interface that all stop dataset sources must implement.
package sources

import (
	"context"
)

// Record is one raw stop as read from a dataset, before normalization.
type Record struct {
	// StopID is the unique, opaque stop identifier.
	StopID string `json:"stopId"`

	// Name is the display name as authored in the dataset.
	Name string `json:"name"`

	// Lat and Lon are passed through unchanged.
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Source defines the interface that all stop sources must implement.
// All methods must be safe for concurrent use.
type Source interface {
	// Load reads the complete stop dataset. The order of the returned records
	// is the catalog row order. An unreadable or unparsable dataset is
	// reported as an error; an empty dataset is not.
	Load(ctx context.Context) ([]Record, error)

	// Close releases resources held by the source.
	// It is safe to call multiple times. After Close, Load will fail.
	Close() error
}

// Store is implemented by sources that can also persist a dataset, so stops
// can be imported from a file into a shared backend.
type Store interface {
	Source

	// Store writes records, replacing any entry with the same StopID.
	Store(ctx context.Context, records []Record) error

	// DeleteAll removes the whole dataset. This operation cannot be undone.
	DeleteAll(ctx context.Context) error
}
