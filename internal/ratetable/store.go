package ratetable

import "sync/atomic"

// Store publishes the current table to the handlers. Tables are immutable;
// a reload builds a fresh one and swaps the pointer.
type Store struct {
	table atomic.Pointer[Table]
}

// NewStore returns an empty store. Get returns nil until the first Set.
func NewStore() *Store {
	return &Store{}
}

// Get returns the current table, nil when none has been loaded.
func (s *Store) Get() *Table {
	return s.table.Load()
}

// Set publishes a new table snapshot.
func (s *Store) Set(t *Table) {
	s.table.Store(t)
}

// Loaded reports whether a table is available.
func (s *Store) Loaded() bool {
	return s.table.Load() != nil
}
