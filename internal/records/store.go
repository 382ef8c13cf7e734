// internal/records/store.go
//
// Best-time record stores.
// A record maps a level key ("8x8_10mines") to the best completion time in
// whole seconds. Three backends implement Store:
//   - File:   a JSON document on disk (default; unknown keys are preserved).
//   - SQLite: a best_times table, migrated from the embedded assets.
//   - Memory: process-local map for tests and throwaway servers.
//
// Every I/O failure is wrapped in ErrStoreIO so callers can log it and keep
// playing.

package records

import (
	"context"
	"errors"
)

// ErrStoreIO marks a failure to read or write the record store.
var ErrStoreIO = errors.New("record store I/O")

// Store defines the persistence interface for best times.
type Store interface {
	// Best returns the best time for key; ok is false when none is stored.
	Best(ctx context.Context, key string) (seconds int, ok bool, err error)

	// Put stores seconds as the best time for key unless an equal or lower
	// time is already stored.
	Put(ctx context.Context, key string, seconds int) error

	// All returns every recognised (integer-valued) record.
	All(ctx context.Context) (map[string]int, error)
}
