// Package replication implements the write path of a pKV node.
//
// A client write is accepted by the key's primary or first backup. The
// accepting node forwards the write to its trailing replicas (two for the
// primary, one for the first backup) and applies it locally only if the
// TolerancePolicy allows the observed number of failed forwards. Writes that
// arrive from a peer (replica writes) or from a recovery stream are applied
// locally without further propagation.
//
// Key Components:
//
//   - Coordinator: Decides the role of the node for a key, fans the write out
//     to the replication targets (concurrently or sequentially) and commits.
//
//   - IPeerClient: The single peer operation the coordinator needs. The RPC
//     implementation lives in rpc/client, tests use in-memory fakes.
//
//   - TolerancePolicy: Commit rule evaluated after all forwards resolved.
//
// Known asymmetry: a first backup forwards to a single target, so with the
// default policy it commits even when that target is unreachable and the
// value then lives on one node only.
package replication
