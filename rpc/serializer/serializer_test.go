package serializer

import (
	"bytes"
	"errors"
	"github.com/ValentinKolb/pKV/rpc/common"
	"testing"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"Binary": NewBinarySerializer,
	"Native": NewNativeSerializer,
}

// testMessages creates one message of every record kind
func testMessages() []common.Message {
	return []common.Message{
		common.NewReadRequest(9),
		common.NewWriteRequest(9, 42),
		common.NewRecoverRequest(6),
		common.NewRecoverWrite(65535, 65535),
		common.NewReplicateWrite(1, 1),
		{Op: common.Opcode(0xBEEF), Arg1: 7, Arg2: 8},
	}
}

// TestSerializerRoundTrip tests that records can be serialized and deserialized correctly
func TestSerializerRoundTrip(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, msg := range testMessages() {
				data := serializer.Serialize(msg)
				if len(data) != common.RecordSize {
					t.Errorf("Message %d serialized to %d bytes, want %d", i, len(data), common.RecordSize)
					continue
				}

				var result common.Message
				if err := serializer.Deserialize(data, &result); err != nil {
					t.Errorf("Failed to deserialize message %d: %v", i, err)
					continue
				}

				if msg != result {
					t.Errorf("Message %d doesn't match after round trip:\nOriginal: %s\nResult: %s", i, msg, result)
				}
			}

			for _, v := range []uint16{0, 1, 9, 65535} {
				got, err := serializer.DeserializeReply(serializer.SerializeReply(v))
				if err != nil || got != v {
					t.Errorf("Reply %d doesn't match after round trip: got %d (%v)", v, got, err)
				}
			}
		})
	}
}

// TestByteOrder pins the exact wire layout of both serializers
func TestByteOrder(t *testing.T) {
	msg := common.NewWriteRequest(0x0102, 0x0304)

	big := NewBinarySerializer().Serialize(msg)
	if want := []byte{0x00, 0x02, 0x01, 0x02, 0x03, 0x04}; !bytes.Equal(big, want) {
		t.Errorf("binary serializer wrote % x, want % x", big, want)
	}

	little := NewNativeSerializer().Serialize(msg)
	if want := []byte{0x02, 0x00, 0x02, 0x01, 0x04, 0x03}; !bytes.Equal(little, want) {
		t.Errorf("native serializer wrote % x, want % x", little, want)
	}

	if got := NewBinarySerializer().SerializeReply(1); !bytes.Equal(got, []byte{0x00, 0x01}) {
		t.Errorf("binary reply = % x, want 00 01", got)
	}
}

// TestShortRecords tests that truncated input is rejected
func TestShortRecords(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			var msg common.Message
			for _, data := range [][]byte{nil, {}, {1, 2, 3, 4, 5}} {
				if err := serializer.Deserialize(data, &msg); !errors.Is(err, ErrShortRecord) {
					t.Errorf("Deserialize(% x) = %v, want ErrShortRecord", data, err)
				}
			}

			if _, err := serializer.DeserializeReply([]byte{1}); !errors.Is(err, ErrShortRecord) {
				t.Errorf("DeserializeReply of 1 byte = %v, want ErrShortRecord", err)
			}
		})
	}
}
