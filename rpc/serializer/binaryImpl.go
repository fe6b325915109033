package serializer

import (
	"encoding/binary"
	"fmt"
	"github.com/ValentinKolb/pKV/rpc/common"
)

// NewBinarySerializer creates a new serializer writing every field in network byte order (big endian)
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{order: binary.BigEndian, name: "binary"}
}

// NewNativeSerializer creates a new serializer writing every field in little endian order.
// This matches nodes that put host-order integers on the wire on x86 machines.
func NewNativeSerializer() IRPCSerializer {
	return &binarySerializerImpl{order: binary.LittleEndian, name: "native"}
}

// binarySerializerImpl implements IRPCSerializer for the fixed record format
// [opcode, arg1, arg2] with a configurable byte order
type binarySerializerImpl struct {
	order binary.ByteOrder
	name  string
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b *binarySerializerImpl) Serialize(msg common.Message) []byte {
	result := make([]byte, common.RecordSize)
	b.order.PutUint16(result[0:2], uint16(msg.Op))
	b.order.PutUint16(result[2:4], msg.Arg1)
	b.order.PutUint16(result[4:6], msg.Arg2)
	return result
}

func (b *binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	if len(data) < common.RecordSize {
		return fmt.Errorf("%w: got %d of %d bytes", ErrShortRecord, len(data), common.RecordSize)
	}
	msg.Op = common.Opcode(b.order.Uint16(data[0:2]))
	msg.Arg1 = b.order.Uint16(data[2:4])
	msg.Arg2 = b.order.Uint16(data[4:6])
	return nil
}

func (b *binarySerializerImpl) SerializeReply(v uint16) []byte {
	result := make([]byte, common.ReplySize)
	b.order.PutUint16(result, v)
	return result
}

func (b *binarySerializerImpl) DeserializeReply(data []byte) (uint16, error) {
	if len(data) < common.ReplySize {
		return 0, fmt.Errorf("%w: got %d of %d bytes", ErrShortRecord, len(data), common.ReplySize)
	}
	return b.order.Uint16(data[:common.ReplySize]), nil
}

func (b *binarySerializerImpl) Name() string {
	return b.name
}
