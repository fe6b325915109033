// Package client implements the RPC clients of pKV. All requests use the
// fixed-size wire records of the common package and travel over an
// IRPCClientTransport, so the same code works over TCP and Unix sockets.
//
// Key Components:
//
//   - PeerClient: Used by a node to talk to its peers. It forwards replica
//     writes (replication.IPeerClient) and fetches recovery streams
//     (recovery.IRecoverySource). Dial failures are reported as
//     recovery.ErrPeerUnreachable so the recovery initiator can retry them.
//
//   - KVClient: Used by the command line client. Reads try the key's replica
//     set in random order, writes go to the key's primary and fall back to the
//     first backup if the primary cannot be reached.
//
// Usage Example:
//
//	config := common.ClientConfig{
//	  Members:       common.NormalizeMembers(common.DefaultMembers, common.DefaultPort),
//	  TimeoutSecond: 5,
//	}
//
//	c, err := client.NewKVClient(config, tcp.NewTCPClientTransport(), serializer.NewBinarySerializer())
//	if err != nil {
//	  // handle error
//	}
//
//	res, err := c.Write(9, 42)
package client
