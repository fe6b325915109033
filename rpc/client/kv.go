package client

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/pKV/lib/cluster"
	"github.com/ValentinKolb/pKV/rpc/common"
	"github.com/ValentinKolb/pKV/rpc/serializer"
	"github.com/ValentinKolb/pKV/rpc/transport"
	"math/rand"
)

var (
	// ErrNoReachableNode is returned if no candidate node answered a request
	ErrNoReachableNode = errors.New("no reachable node")
	// ErrInvalidWrite is returned for writes with key 0 or value 0
	ErrInvalidWrite = errors.New("key and value must not be 0")
)

// KVClient reads and writes keys with retry across the candidate owners of a key
type KVClient struct {
	rpcClientAdapter
	shuffle func(n int) []int
}

// ReadResult is the outcome of a read
type ReadResult struct {
	Value uint16
	Found bool
	// Node is the index of the node that answered
	Node int
}

// WriteResult is the outcome of a write
type WriteResult struct {
	Committed bool
	// Node is the index of the node that answered
	Node int
}

// NewKVClient creates a new kv client
func NewKVClient(
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (*KVClient, error) {
	adapter, err := newRPCClientAdapter(config, transport, serializer)
	if err != nil {
		return nil, err
	}
	return &KVClient{rpcClientAdapter: adapter, shuffle: rand.Perm}, nil
}

// Read asks the replica set of key in random order until one node answers.
// A value of 0 means the key is not stored on the answering node.
func (c *KVClient) Read(key uint16) (ReadResult, error) {
	replicas := cluster.ReplicaSet(key)

	var errs []error
	for _, i := range c.shuffle(len(replicas)) {
		node := replicas[i]
		value, err := c.invokeRPCRequest(node, common.NewReadRequest(key))
		if err != nil {
			Logger.Debugf("Read of key %d from node %d failed: %v", key, node, err)
			errs = append(errs, err)
			continue
		}
		return ReadResult{Value: value, Found: value != 0, Node: node}, nil
	}
	return ReadResult{}, fmt.Errorf("%w for key %d: %w", ErrNoReachableNode, key, errors.Join(errs...))
}

// Write sends the write to the key's primary and falls back to the first backup if
// the primary is unreachable. A rejected write is not retried.
func (c *KVClient) Write(key, value uint16) (WriteResult, error) {
	if key == 0 || value == 0 {
		return WriteResult{}, ErrInvalidWrite
	}

	replicas := cluster.ReplicaSet(key)

	var errs []error
	for _, node := range replicas[:2] {
		reply, err := c.invokeRPCRequest(node, common.NewWriteRequest(key, value))
		if errors.Is(err, transport.ErrConnect) {
			Logger.Debugf("Node %d unreachable for write of key %d: %v", node, key, err)
			errs = append(errs, err)
			continue
		}
		if err != nil {
			return WriteResult{Node: node}, err
		}
		return WriteResult{Committed: reply == 1, Node: node}, nil
	}
	return WriteResult{}, fmt.Errorf("%w for key %d: %w", ErrNoReachableNode, key, errors.Join(errs...))
}

// Nodes returns the number of nodes known to the client
func (c *KVClient) Nodes() int {
	return c.cluster.Size()
}
