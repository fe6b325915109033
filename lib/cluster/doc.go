// Package cluster describes the static membership of a pKV cluster and the
// partitioning rule that maps keys onto its nodes.
//
// The package focuses on:
//   - An immutable, ordered list of exactly Size node endpoints
//   - The modulo partitioner (OwnerIndex) and replica set helpers
//   - Topology helpers used by replication and recovery (targets, neighbours)
//
// Key Components:
//
//   - Cluster: Immutable membership object. It is created once at startup and
//     passed explicitly to every component that needs it (coordinator,
//     recovery, dispatcher, clients). A Cluster never changes after creation.
//
//   - OwnerIndex / ReplicaSet / IsInReplicaSet / RoleOf: Pure functions over
//     the key space. The replica set of a key k is the three consecutive
//     nodes OwnerIndex(k), OwnerIndex(k)+1 and OwnerIndex(k)+2 (mod Size),
//     in priority order: primary, first backup, second backup.
//
// Thread Safety:
//
//	All functions are pure and a Cluster is read-only after construction,
//	so everything in this package is safe for concurrent use.
package cluster
