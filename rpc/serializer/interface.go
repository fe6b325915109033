package serializer

import (
	"errors"
	"github.com/ValentinKolb/pKV/rpc/common"
)

// ErrShortRecord is returned when a record or reply has fewer bytes than its fixed size
var ErrShortRecord = errors.New("short record")

// IRPCSerializer is the interface for all record serializers
type IRPCSerializer interface {
	// Serialize encodes a Message into a fixed-size record of common.RecordSize bytes
	Serialize(msg common.Message) []byte
	// Deserialize decodes a record into a Message
	// It returns ErrShortRecord if b holds fewer than common.RecordSize bytes
	Deserialize(b []byte, msg *common.Message) error
	// SerializeReply encodes a single reply value into common.ReplySize bytes
	SerializeReply(v uint16) []byte
	// DeserializeReply decodes a reply value
	// It returns ErrShortRecord if b holds fewer than common.ReplySize bytes
	DeserializeReply(b []byte) (uint16, error)
	// Name returns the name of the serializer (e.g. "binary")
	Name() string
}
