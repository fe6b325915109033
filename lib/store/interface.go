package store

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IStore is the interface for the key–value table of a single node.
// All implementations must be safe for concurrent use.
type IStore interface {
	// Get returns the value for a key. The boolean return value indicates whether the key was found.
	Get(key uint16) (value uint16, loaded bool)
	// Put inserts or updates a key–value pair. It returns false if the pair was not applied
	// (e.g. because key or value is the reserved sentinel 0).
	Put(key, value uint16) (applied bool)
	// Range calls fn for every entry until fn returns false.
	// The iteration order is unspecified and concurrent writes may or may not be observed.
	Range(fn func(key, value uint16) bool)
	// Len returns the number of entries.
	Len() int
	// GetInfo returns statistics about the store.
	GetInfo() Info
}

// Entry is a single key–value pair held by a store.
type Entry struct {
	Key   uint16 `json:"key"`
	Value uint16 `json:"value"`
}

// Info contains statistics about a store
type Info struct {
	Entries int    `json:"entries"` // Number of stored keys
	Inserts uint64 `json:"inserts"` // Number of writes that created a new entry
	Updates uint64 `json:"updates"` // Number of writes that overwrote an existing entry
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// Snapshot collects all entries of s for which filter returns true.
// A nil filter selects every entry.
func Snapshot(s IStore, filter func(key uint16) bool) []Entry {
	entries := make([]Entry, 0, s.Len())
	s.Range(func(key, value uint16) bool {
		if filter == nil || filter(key) {
			entries = append(entries, Entry{Key: key, Value: value})
		}
		return true
	})
	return entries
}
