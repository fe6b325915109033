// Package transport defines the interfaces of the pKV transport layer. It
// provides a common contract that all transport implementations must fulfil,
// so that the dispatcher and the peer clients do not depend on the concrete
// socket type.
//
// The package focuses on:
//   - One request per connection: a client connects, sends a single fixed-size
//     record and reads either a single reply or a recovery stream.
//   - Handing connections over to long-running handlers (recovery streams).
//   - Multiple implementations (TCP, Unix sockets).
//
// Key Components:
//
//   - IRPCClientTransport: Client-side transport with Call (request/reply) and
//     Stream (request/record stream terminated by connection close).
//
//   - IRPCServerTransport: Server-side transport that accepts connections,
//     reads one request record and passes it to the registered handler.
//
//   - ServerHandleFunc: Handler callback; it may detach the connection.
//
//   - ErrConnect: Sentinel wrapped by client transports when dialing fails.
package transport
