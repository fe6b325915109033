// Package serializer converts pKV wire records to and from bytes.
//
// Every request and every recovery stream record is exactly six bytes: three
// consecutive uint16 values [opcode, arg1, arg2]. Replies are a single uint16.
// There is no framing beyond the fixed size.
//
// Key Components:
//
//   - IRPCSerializer: Interface for encoding records and replies.
//
//   - binarySerializerImpl: The only implementation, parameterised by byte
//     order. NewBinarySerializer writes network byte order (big endian) and is
//     the default. NewNativeSerializer writes little endian, which matches
//     peers that send raw host-order integers from x86 machines.
//
// All nodes and clients of a cluster must use the same serializer.
//
// Thread Safety:
//
//	Serializers are stateless and safe for concurrent use.
package serializer
