// Package store defines the interface of the in-memory table that holds the
// entries of a pKV node.
//
// Keys and values are 16-bit unsigned integers. The key 0 is reserved as the
// "absent" sentinel of the wire protocol and is never stored; a value of 0 is
// indistinguishable from a missing key for readers, so it is never stored
// either.
//
// Key Components:
//
//   - IStore Interface: Get, Put, Range and Len. Entries are created on their
//     first successful write and only ever updated afterwards. There is no
//     delete operation.
//
//   - Info: A small snapshot of store statistics used by the operator console
//     and the admin endpoint.
//
// Implementations:
//
//	- Local Store (lstore): The only implementation. It keeps every entry in a
//	  single concurrent map, so reads, inserts and updates all pass through one
//	  synchronization boundary.
//	  Available in the "github.com/ValentinKolb/pKV/lib/store/lstore" package.
package store
