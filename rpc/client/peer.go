package client

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/pKV/lib/recovery"
	"github.com/ValentinKolb/pKV/rpc/common"
	"github.com/ValentinKolb/pKV/rpc/serializer"
	"github.com/ValentinKolb/pKV/rpc/transport"
)

// PeerClient is used by a node to talk to the other nodes of the cluster.
// It implements replication.IPeerClient and recovery.IRecoverySource.
type PeerClient struct {
	rpcClientAdapter
}

// NewPeerClient creates a new peer client
func NewPeerClient(
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (*PeerClient, error) {
	adapter, err := newRPCClientAdapter(config, transport, serializer)
	if err != nil {
		return nil, err
	}
	return &PeerClient{adapter}, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see replication.IPeerClient and recovery.IRecoverySource)
// --------------------------------------------------------------------------

func (p *PeerClient) Replicate(peer int, key, value uint16) error {
	// Any reply counts as acknowledgement
	_, err := p.invokeRPCRequest(peer, common.NewReplicateWrite(key, value))
	return err
}

func (p *PeerClient) Fetch(peer, requester int, fn func(key, value uint16)) error {
	req := p.serializer.Serialize(common.NewRecoverRequest(requester))

	err := p.transport.Stream(p.cluster.Address(peer), req, func(record []byte) error {
		var msg common.Message
		if err := p.serializer.Deserialize(record, &msg); err != nil {
			return err
		}
		if msg.Op != common.OpRecoverWrite {
			Logger.Warningf("Skipping unexpected %s in recovery stream from node %d", msg, peer)
			return nil
		}
		fn(msg.Arg1, msg.Arg2)
		return nil
	})

	if errors.Is(err, transport.ErrConnect) {
		return fmt.Errorf("%w: %w", recovery.ErrPeerUnreachable, err)
	}
	return err
}
