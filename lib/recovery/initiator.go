package recovery

import (
	"context"
	"errors"
	"fmt"
	"github.com/ValentinKolb/pKV/lib/cluster"
	"github.com/ValentinKolb/pKV/lib/metrics"
	"sort"
	"strings"
	"sync/atomic"
	"time"
)

var (
	// ErrRecoveryInProgress is returned by Recover while another recovery runs
	ErrRecoveryInProgress = errors.New("recovery already in progress")
	// ErrPeerUnreachable must be wrapped by sources if no connection to the peer could be established.
	// Only such errors are retried.
	ErrPeerUnreachable = errors.New("peer unreachable")
)

// IRecoverySource fetches the recovery stream of one peer.
// Fetch sends a recovery request for requester to peer and calls fn for every received
// entry until the peer closes the stream.
type IRecoverySource interface {
	Fetch(peer, requester int, fn func(key, value uint16)) error
}

// ILocalWriter applies recovered entries. It is implemented by replication.Coordinator.
type ILocalWriter interface {
	Write(key, value uint16, propagate bool) bool
}

// InitiatorConfig holds the settings of an Initiator
type InitiatorConfig struct {
	Self       int
	Retries    int
	RetryDelay time.Duration
}

// Report summarises a recovery run
type Report struct {
	PerPeer     map[int]int   `json:"perPeer"`
	Total       int           `json:"total"`
	Unreachable []int         `json:"unreachable"`
	Duration    time.Duration `json:"duration"`
}

// String returns a one-line summary of the report
func (r Report) String() string {
	peers := make([]int, 0, len(r.PerPeer))
	for p := range r.PerPeer {
		peers = append(peers, p)
	}
	sort.Ints(peers)

	parts := make([]string, 0, len(peers))
	for _, p := range peers {
		parts = append(parts, fmt.Sprintf("node %d: %d", p, r.PerPeer[p]))
	}
	return fmt.Sprintf("recovered %d entries in %s (%s), unreachable: %v",
		r.Total, r.Duration.Round(time.Millisecond), strings.Join(parts, ", "), r.Unreachable)
}

// Initiator pulls the entries of the local node from its neighbours
type Initiator struct {
	config  InitiatorConfig
	cluster *cluster.Cluster
	source  IRecoverySource
	writer  ILocalWriter
	metrics *metrics.Metrics
	running atomic.Bool
}

// NewInitiator creates a new initiator. m may be nil.
func NewInitiator(config InitiatorConfig, c *cluster.Cluster, source IRecoverySource, writer ILocalWriter, m *metrics.Metrics) (*Initiator, error) {
	if err := c.Validate(config.Self); err != nil {
		return nil, err
	}
	if config.Retries < 1 {
		config.Retries = 1
	}
	return &Initiator{
		config:  config,
		cluster: c,
		source:  source,
		writer:  writer,
		metrics: m,
	}, nil
}

// Running reports whether a recovery is in progress
func (i *Initiator) Running() bool {
	return i.running.Load()
}

// Recover contacts all neighbours one after another and applies their entries locally.
// Unreachable peers are retried up to the configured number of attempts and then skipped.
// Cancelling ctx aborts a pending retry wait; the report up to that point is returned with ctx.Err().
func (i *Initiator) Recover(ctx context.Context) (Report, error) {
	if !i.running.CompareAndSwap(false, true) {
		return Report{}, ErrRecoveryInProgress
	}
	defer i.running.Store(false)

	start := time.Now()
	report := Report{PerPeer: make(map[int]int)}
	Logger.Infof("Starting recovery of node %d", i.config.Self)

	for _, peer := range i.cluster.Neighbours(i.config.Self) {
		n, err := i.recoverFrom(ctx, peer)
		report.PerPeer[peer] = n
		report.Total += n

		if ctx.Err() != nil {
			if err != nil {
				report.Unreachable = append(report.Unreachable, peer)
			}
			report.Duration = time.Since(start)
			i.metrics.AddRecovered(report.Total)
			return report, ctx.Err()
		}
		if errors.Is(err, ErrPeerUnreachable) {
			report.Unreachable = append(report.Unreachable, peer)
		}
	}

	report.Duration = time.Since(start)
	i.metrics.AddRecovered(report.Total)
	Logger.Infof("Recovery finished: %s", report)
	return report, nil
}

// recoverFrom fetches the stream of one peer with retries and returns the number of applied entries
func (i *Initiator) recoverFrom(ctx context.Context, peer int) (int, error) {
	var err error
	for attempt := 1; attempt <= i.config.Retries; attempt++ {
		applied := 0
		err = i.source.Fetch(peer, i.config.Self, func(key, value uint16) {
			if i.writer.Write(key, value, false) {
				applied++
			}
		})

		if err == nil {
			Logger.Infof("Recovered %d entries from node %d", applied, peer)
			return applied, nil
		}

		if !errors.Is(err, ErrPeerUnreachable) {
			// The stream broke after the connection was established; keep what arrived
			Logger.Warningf("Recovery stream from node %d interrupted after %d entries: %v", peer, applied, err)
			return applied, err
		}

		Logger.Warningf("Node %d unreachable (attempt %d of %d): %v", peer, attempt, i.config.Retries, err)
		if attempt == i.config.Retries {
			break
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(i.config.RetryDelay):
		}
	}

	Logger.Errorf("Giving up recovery from node %d", peer)
	return 0, err
}
