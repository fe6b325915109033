package common

import (
	"fmt"
)

// --------------------------------------------------------------------------
// Wire Format Constants
// --------------------------------------------------------------------------

const (
	// RecordSize is the size of every request and recovery stream record: [opcode, arg1, arg2] as uint16
	RecordSize = 6
	// ReplySize is the size of a reply: a single uint16
	ReplySize = 2
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message is a single fixed-size record of the wire protocol.
// The meaning of Arg1 and Arg2 depends on the opcode:
//
//	READ_REQUEST     Arg1=key
//	WRITE_REQUEST    Arg1=key, Arg2=value
//	RECOVER_REQUEST  Arg1=requester node index
//	RECOVER_WRITE    Arg1=key, Arg2=value (streamed, no reply)
//	REPLICATE_WRITE  Arg1=key, Arg2=value
type Message struct {
	Op   Opcode
	Arg1 uint16
	Arg2 uint16
}

func (m Message) String() string {
	return fmt.Sprintf("%s(%d, %d)", m.Op, m.Arg1, m.Arg2)
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewReadRequest creates a new read request
func NewReadRequest(key uint16) Message {
	return Message{Op: OpReadRequest, Arg1: key}
}

// NewWriteRequest creates a new client write request (propagated to the replicas)
func NewWriteRequest(key, value uint16) Message {
	return Message{Op: OpWriteRequest, Arg1: key, Arg2: value}
}

// NewRecoverRequest creates a new recovery request for the requesting node
func NewRecoverRequest(requester int) Message {
	return Message{Op: OpRecoverRequest, Arg1: uint16(requester)}
}

// NewRecoverWrite creates a new record of a recovery stream
func NewRecoverWrite(key, value uint16) Message {
	return Message{Op: OpRecoverWrite, Arg1: key, Arg2: value}
}

// NewReplicateWrite creates a new replica write request (never propagated further)
func NewReplicateWrite(key, value uint16) Message {
	return Message{Op: OpReplicateWrite, Arg1: key, Arg2: value}
}

// BoolReply converts a write outcome into its wire reply value
func BoolReply(ok bool) uint16 {
	if ok {
		return 1
	}
	return 0
}

// --------------------------------------------------------------------------
// Opcode Definition
// --------------------------------------------------------------------------

// Opcode defines the type of a record
type Opcode uint16

const (
	OpUnknown        Opcode = iota
	OpReadRequest           // Read a key, reply is the value (0 = absent)
	OpWriteRequest          // Write a key, reply is 1 (committed) or 0 (rejected)
	OpRecoverRequest        // Ask a peer to stream the requester's entries
	OpRecoverWrite          // One entry of a recovery stream
	OpReplicateWrite        // Apply a write without propagation, reply is the key
)

// String returns the string representation of an Opcode.
func (o Opcode) String() string {
	switch o {
	case OpReadRequest:
		return "READ_REQUEST"
	case OpWriteRequest:
		return "WRITE_REQUEST"
	case OpRecoverRequest:
		return "RECOVER_REQUEST"
	case OpRecoverWrite:
		return "RECOVER_WRITE"
	case OpReplicateWrite:
		return "REPLICATE_WRITE"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint16(o))
	}
}
