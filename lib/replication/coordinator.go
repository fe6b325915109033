package replication

import (
	"fmt"
	"github.com/ValentinKolb/pKV/lib/cluster"
	"github.com/ValentinKolb/pKV/lib/metrics"
	"github.com/ValentinKolb/pKV/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	"sync"
	"time"
)

var Logger = logger.GetLogger("replication")

// IPeerClient forwards a write to another node of the cluster.
// Replicate returns nil once the peer acknowledged the write with any reply.
type IPeerClient interface {
	Replicate(peer int, key, value uint16) error
}

// Config holds the settings of a Coordinator
type Config struct {
	// Self is the index of the local node
	Self int
	// Parallel sends forwards concurrently instead of one after another
	Parallel bool
	// Policy is the commit rule applied after the fan-out
	Policy TolerancePolicy
}

// Coordinator implements the write path of a node
type Coordinator struct {
	config  Config
	cluster *cluster.Cluster
	store   store.IStore
	peers   IPeerClient
	metrics *metrics.Metrics
}

// NewCoordinator creates a new coordinator. m may be nil.
func NewCoordinator(config Config, c *cluster.Cluster, s store.IStore, peers IPeerClient, m *metrics.Metrics) (*Coordinator, error) {
	if err := c.Validate(config.Self); err != nil {
		return nil, err
	}
	if s == nil || peers == nil {
		return nil, fmt.Errorf("store and peer client must be set")
	}
	return &Coordinator{
		config:  config,
		cluster: c,
		store:   s,
		peers:   peers,
		metrics: m,
	}, nil
}

// Self returns the index of the local node
func (c *Coordinator) Self() int {
	return c.config.Self
}

// Store returns the store the coordinator writes to
func (c *Coordinator) Store() store.IStore {
	return c.store
}

// Write applies a write to the local store. With propagate set the write is a
// client write and is forwarded to the replication targets first; it is only
// accepted on the key's primary or first backup. Writes with key 0 or value 0
// are always rejected. The return value tells whether the write was committed.
func (c *Coordinator) Write(key, value uint16, propagate bool) bool {
	if key == 0 || value == 0 {
		Logger.Debugf("Rejected write %d=%d: zero key or value", key, value)
		if propagate {
			c.metrics.IncWrite(false)
		}
		return false
	}

	if !propagate {
		return c.store.Put(key, value)
	}

	var fanOut int
	role := cluster.RoleOf(key, c.config.Self)
	switch role {
	case cluster.RolePrimary:
		fanOut = 2
	case cluster.RoleFirstBackup:
		fanOut = 1
	default:
		Logger.Infof("Rejected write %d=%d: node %d is %s for owner %d",
			key, value, c.config.Self, role, cluster.OwnerIndex(key))
		c.metrics.IncWrite(false)
		return false
	}

	targets := c.cluster.ReplicationTargets(c.config.Self, fanOut)
	succeeded := c.fanOut(targets, key, value)

	if !c.config.Policy.Allow(len(targets), succeeded) {
		Logger.Warningf("Rejected write %d=%d as %s: %d of %d replicas reachable",
			key, value, role, succeeded, len(targets))
		c.metrics.IncWrite(false)
		return false
	}

	applied := c.store.Put(key, value)
	Logger.Debugf("Committed write %d=%d as %s: %d of %d replicas reachable",
		key, value, role, succeeded, len(targets))
	c.metrics.IncWrite(applied)
	return applied
}

// fanOut forwards the write to all targets and returns the number of successful forwards.
// It returns only after every forward resolved.
func (c *Coordinator) fanOut(targets []int, key, value uint16) int {
	results := make([]bool, len(targets))

	forward := func(i int) {
		peer := targets[i]
		start := time.Now()
		err := c.peers.Replicate(peer, key, value)
		c.metrics.ObserveReplication(peer, start, err)
		if err != nil {
			Logger.Warningf("Failed to replicate %d=%d to node %d: %v", key, value, peer, err)
			return
		}
		results[i] = true
	}

	if c.config.Parallel {
		var wg sync.WaitGroup
		for i := range targets {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				forward(i)
			}(i)
		}
		wg.Wait()
	} else {
		for i := range targets {
			forward(i)
		}
	}

	succeeded := 0
	for _, ok := range results {
		if ok {
			succeeded++
		}
	}
	return succeeded
}
