package client

import (
	"fmt"
	"github.com/ValentinKolb/pKV/lib/cluster"
	"github.com/ValentinKolb/pKV/rpc/common"
	"github.com/ValentinKolb/pKV/rpc/serializer"
	"github.com/ValentinKolb/pKV/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("rpc")
)

// rpcClientAdapter is a struct that stores all data needed for an implementation of an RPC client
// Used by the peer client and the kv client with composition pattern
type rpcClientAdapter struct {
	config     common.ClientConfig
	cluster    *cluster.Cluster
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
}

// newRPCClientAdapter validates the membership list and connects the transport
func newRPCClientAdapter(
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (rpcClientAdapter, error) {
	c, err := cluster.New(config.Members)
	if err != nil {
		return rpcClientAdapter{}, err
	}

	// Connect the transport
	if err := transport.Connect(config); err != nil {
		return rpcClientAdapter{}, err
	}

	return rpcClientAdapter{
		config:     config,
		cluster:    c,
		transport:  transport,
		serializer: serializer,
	}, nil
}

// invokeRPCRequest sends a single request to a node and returns the decoded reply
func (a *rpcClientAdapter) invokeRPCRequest(node int, req common.Message) (uint16, error) {
	endpoint := a.cluster.Address(node)

	// Send the request
	respBytes, err := a.transport.Call(endpoint, a.serializer.Serialize(req))
	if err != nil {
		return 0, err
	}

	// Deserialize the reply
	resp, err := a.serializer.DeserializeReply(respBytes)
	if err != nil {
		return 0, fmt.Errorf("invalid reply from node %d to %s: %w", node, req.Op, err)
	}
	return resp, nil
}

// Close closes the underlying transport
func (a *rpcClientAdapter) Close() error {
	return a.transport.Close()
}
