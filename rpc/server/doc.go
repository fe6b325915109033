// Package server implements a pKV node: the connection dispatcher that ties
// the transport layer to the write path and the recovery protocol.
//
// The package focuses on:
//   - Routing each request record to the adapter registered for its opcode
//   - Connection lifecycle: reply and close, close without reply, or detach
//   - Bounded resources: connection limit in the transport, recovery stream
//     limit in the recovery adapter
//   - Graceful shutdown that drains requests, streams and a running recovery
//
// Key Components:
//
//   - RPCServer: Created with NewRPCServer. Owns the local store, the metrics,
//     the replication coordinator and the recovery initiator. Serve blocks on
//     the transport; Shutdown stops it.
//
//   - IRPCServerAdapter: Handles the requests of a set of opcodes and tells the
//     dispatcher how to finish the connection (Response).
//
//   - NewKVServerAdapter: READ_REQUEST (reply value, 0 if absent), WRITE_REQUEST
//     (write with propagation, reply 1/0) and REPLICATE_WRITE (local write,
//     reply echoes the key).
//
//   - NewRecoveryServerAdapter: RECOVER_REQUEST. Detaches the connection to a
//     responder goroutine that streams the requester's entries and closes it.
//
// Requests that cannot be decoded, RECOVER_WRITE records outside a recovery
// stream and unknown opcodes are protocol violations: they are logged, counted
// and the connection is closed without a reply.
//
// Usage Example:
//
//	s, err := server.NewRPCServer(config, tcp.NewTCPServerTransport(), tcp.NewTCPClientTransport(),
//		serializer.NewBinarySerializer())
//	if err != nil {
//	  // handle error
//	}
//	go s.Serve()
//	...
//	s.Shutdown(ctx)
package server
