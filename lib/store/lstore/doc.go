// Package lstore implements the local, in-memory store.IStore of a pKV node.
// Data is held entirely in memory and is lost when the process exits.
//
// Implementation Details:
//
//   - Storage: A single xsync.MapOf[uint16, uint16]. The map grows dynamically;
//     there is no fixed capacity.
//
//   - Put: Implemented with MapOf.Compute, so the "update if present, insert
//     otherwise" decision and the write itself are one atomic step per key.
//
//   - Statistics: Insert and update counters are maintained with atomic
//     operations.
//
// Thread Safety:
//
//	Every read, insert and update goes through the concurrent map, which is
//	the single synchronization boundary of the store. No caller needs to hold
//	any additional lock.
//
// Usage Example:
//
//	s := lstore.NewLocalStore()
//	s.Put(9, 42)
//	value, ok := s.Get(9) // 42, true
package lstore
