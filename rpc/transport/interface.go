package transport

import (
	"errors"
	"github.com/ValentinKolb/pKV/rpc/common"
	"net"
)

// ErrConnect is wrapped by client transports when a connection could not be established.
// Callers use it to tell an unreachable peer apart from a failure during an exchange.
var ErrConnect = errors.New("connect failed")

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ServerHandleFunc handles one request record received by a server transport.
// req holds the bytes read from the connection (fewer than common.RecordSize if the
// peer sent a short record). The handler returns the reply to write (nil = no reply).
// If detached is true the handler has taken ownership of conn: the transport neither
// writes a reply nor closes the connection.
type ServerHandleFunc func(req []byte, conn net.Conn) (resp []byte, detached bool)

// IRPCServerTransport is the interface for the server side of the transport layer
type IRPCServerTransport interface {
	// RegisterHandler registers the handler called for every accepted connection
	RegisterHandler(handler ServerHandleFunc)
	// Listen binds the endpoint of the configured node and serves connections until Close is called.
	// Errors binding the endpoint are returned immediately; after Close it returns nil.
	Listen(config common.ServerConfig) error
	// Close stops accepting connections and waits for all in-flight handlers to finish
	Close() error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport is the interface for the client side of the transport layer.
// Every exchange uses a fresh connection that is closed afterwards.
type IRPCClientTransport interface {
	// Connect initializes the transport with the given configuration
	Connect(config common.ClientConfig) error
	// Call sends one request record to endpoint and waits for a single reply
	Call(endpoint string, req []byte) (resp []byte, err error)
	// Stream sends one request record to endpoint and calls fn for every record received
	// until the peer closes the connection. A close at a record boundary ends the stream
	// normally and Stream returns nil.
	Stream(endpoint string, req []byte, fn func(record []byte) error) error
	// Close releases all resources of the transport
	Close() error
}
