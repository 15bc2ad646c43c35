package repository

import "context"

// ProductIDMap is the persistent, append-only table mapping legacy product
// keys to stable internal numeric ids. Ids are allocated monotonically from a
// counter recomputed from the persisted map contents, never carried over in
// memory across restarts.
type ProductIDMap interface {
	// Resolve returns the internal id for a legacy key, allocating and
	// persisting a new one when the key is unknown.
	Resolve(ctx context.Context, legacyKey string) (int, error)
	// Save persists the full map.
	Save(ctx context.Context) error
}
