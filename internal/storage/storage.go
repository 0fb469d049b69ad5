// internal/storage/storage.go
// Purpose: the key/value persistence contract consumed by the game core.
// Implementations live in subpackages.

package storage

import "context"

// --- Types ---

// Store is a string key/value store. A value set is retrievable by the same
// key for at least the lifetime of the process; nothing stronger is assumed.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
}
