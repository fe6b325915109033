// Package common provides the core data structures shared by all parts of
// the pKV RPC system: the wire protocol, configuration structures and logging.
//
// The package focuses on:
//   - Message protocol definition (fixed 6-byte records, 2-byte replies)
//   - Configuration structures for client and server components
//   - Custom logging implementation plugged into dragonboat's logger registry
//
// Key Components:
//
//   - Message: A fixed record [opcode, arg1, arg2] of three uint16 values.
//     Factory functions create the five record kinds of the protocol.
//
//   - Opcode: READ_REQUEST(1), WRITE_REQUEST(2), RECOVER_REQUEST(3),
//     RECOVER_WRITE(4) and REPLICATE_WRITE(5).
//
//   - Recovery stream: The reply to a RECOVER_REQUEST is a sequence of
//     RECOVER_WRITE records without a length prefix or per-record
//     acknowledgement. The responder closes the connection after the last
//     record; the close is the end-of-stream marker and part of the protocol.
//
//   - ServerConfig / ClientConfig: Node identity, static membership, timeouts
//     and resource bounds, with pretty printers for startup logging.
//
//   - Logger: Named loggers ("server", "replication", "recovery", ...) with a
//     consistent "LEVEL | package | message" format.
package common
