// Package base implements the connection handling shared by all socket based
// transports of pKV. Concrete transports (tcp, unix) only provide a connector
// that knows how to listen, dial and tune their socket type.
//
// Wire contract:
//
//   - A client opens a connection and writes exactly one request record of
//     common.RecordSize bytes.
//   - The server reads that record and hands it to the registered handler.
//   - The handler either returns a reply (common.ReplySize bytes) that is written
//     before the connection is closed, returns nil to close without reply, or
//     detaches the connection to stream records on it itself.
//   - A stream ends when the server closes the connection at a record boundary.
//
// Key Components:
//
//   - serverTransport: Accept loop bounded by a connection semaphore. Close stops
//     the listener and waits for all handlers that are still running.
//
//   - clientTransport: Dials a fresh connection per exchange. Dial failures are
//     wrapped in transport.ErrConnect so callers can retry unreachable peers.
//
//   - IServerConnector / IClientConnector: Dependency injection points for the
//     socket specific parts.
//
// All reads and writes are bounded by the configured timeout. For streams the
// timeout applies to the gap between two records.
package base
