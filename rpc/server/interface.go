package server

import (
	"github.com/ValentinKolb/pKV/rpc/common"
	"net"
)

// Response tells the dispatcher how to finish a connection after a request was handled
type Response struct {
	// Value is the reply written to the client if Send is set
	Value uint16
	Send  bool
	// Detached means the adapter took over the connection
	Detached bool
}

// reply returns a response sending v
func reply(v uint16) Response {
	return Response{Value: v, Send: true}
}

var (
	// closeWithoutReply closes the connection without writing anything
	closeWithoutReply = Response{}
	// detached hands the connection over to the adapter
	detached = Response{Detached: true}
)

// IRPCServerAdapter is the interface for all RPC server adapters.
// An adapter is registered for the opcodes it serves.
type IRPCServerAdapter interface {
	// Opcodes returns the request types handled by the adapter
	Opcodes() []common.Opcode
	// Handle handles a decoded request received on conn
	Handle(req common.Message, conn net.Conn) Response
}
