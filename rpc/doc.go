// Package rpc provides the communication layer of pKV. It carries the fixed
// six byte request records between clients and nodes and between the nodes
// themselves (replica writes and recovery streams).
//
// The package is organized into several subpackages:
//
//   - common: Core data structures and utilities used across the RPC system,
//     including the Message record, opcodes, configuration structures and logging.
//
//   - transport: Network communication abstractions with pluggable implementations
//     (TCP, Unix sockets). One request per connection.
//
//   - serializer: Encoding of records and replies in network byte order (binary)
//     or little endian (native).
//
//   - client: The peer client used for replication and recovery, and the KV
//     client with retry across the replicas of a key.
//
//   - server: The node itself, dispatching requests to the write path and the
//     recovery protocol.
//
//   - admin: Optional HTTP endpoint for health checks, metrics and recovery.
package rpc
