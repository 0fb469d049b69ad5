// internal/storage/memory/store.go
// Purpose: in-process storage.Store for tests and ephemeral sessions.

package memory

import (
	"context"
	"sort"

	"github.com/Conwinds/geocoin/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// --- Types ---

// Store keeps values in a map. Not safe for concurrent use.
type Store struct {
	values map[string]string
}

// --- Constructors ---

// New returns an empty store.
func New() *Store {
	return &Store{values: make(map[string]string)}
}

// --- Public methods ---

// Get returns the value for key.
func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := s.values[key]
	return v, ok, nil
}

// Set stores value under key.
func (s *Store) Set(_ context.Context, key, value string) error {
	s.values[key] = value
	return nil
}

// Keys returns every stored key in sorted order.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
