package recovery

import (
	"context"
	"errors"
	"fmt"
	"github.com/ValentinKolb/pKV/lib/cluster"
	"github.com/ValentinKolb/pKV/lib/metrics"
	"github.com/ValentinKolb/pKV/lib/store"
	"github.com/ValentinKolb/pKV/lib/store/lstore"
	"sync"
	"testing"
	"time"
)

// --------------------------------------------------------------------------
// Test helpers
// --------------------------------------------------------------------------

// sliceWriter collects streamed entries
type sliceWriter struct {
	entries []store.Entry
	closed  bool
	failAt  int // fail the n-th write (1-based), 0 = never
}

func (w *sliceWriter) WriteEntry(key, value uint16) error {
	if w.failAt > 0 && len(w.entries)+1 == w.failAt {
		return errors.New("broken pipe")
	}
	w.entries = append(w.entries, store.Entry{Key: key, Value: value})
	return nil
}

func (w *sliceWriter) Close() error {
	w.closed = true
	return nil
}

// storeSource serves recovery streams from in-memory stores through real responders
type storeSource struct {
	mu       sync.Mutex
	stores   map[int]store.IStore
	failures map[int]int // number of leading attempts failing with ErrPeerUnreachable
	attempts map[int]int
}

func (s *storeSource) Fetch(peer, requester int, fn func(key, value uint16)) error {
	s.mu.Lock()
	s.attempts[peer]++
	if s.attempts[peer] <= s.failures[peer] {
		s.mu.Unlock()
		return fmt.Errorf("%w: node %d", ErrPeerUnreachable, peer)
	}
	st := s.stores[peer]
	s.mu.Unlock()

	if st == nil {
		return fmt.Errorf("%w: node %d", ErrPeerUnreachable, peer)
	}
	w := &sliceWriter{}
	if _, err := NewResponder(st, nil).Respond(requester, w); err != nil {
		return err
	}
	for _, e := range w.entries {
		fn(e.Key, e.Value)
	}
	return nil
}

// storeWriter applies entries to a store without propagation
type storeWriter struct{ s store.IStore }

func (w storeWriter) Write(key, value uint16, propagate bool) bool {
	return w.s.Put(key, value)
}

func testCluster(t *testing.T) *cluster.Cluster {
	t.Helper()
	members := make([]string, cluster.Size)
	for i := range members {
		members[i] = fmt.Sprintf("node%d:4430", i)
	}
	c, err := cluster.New(members)
	if err != nil {
		t.Fatalf("failed to create cluster: %v", err)
	}
	return c
}

// populatedCluster returns one store per node holding every key of 1..n on its replica set
func populatedCluster(n int) map[int]store.IStore {
	stores := make(map[int]store.IStore)
	for i := 0; i < cluster.Size; i++ {
		stores[i] = lstore.NewLocalStore()
	}
	for k := 1; k <= n; k++ {
		for _, node := range cluster.ReplicaSet(uint16(k)) {
			stores[node].Put(uint16(k), uint16(k*10))
		}
	}
	return stores
}

// --------------------------------------------------------------------------
// Responder
// --------------------------------------------------------------------------

func TestResponder(t *testing.T) {
	s := lstore.NewLocalStore()
	for k := 1; k <= 100; k++ {
		s.Put(uint16(k), uint16(k))
	}

	t.Run("StreamsReplicaSetOnly", func(t *testing.T) {
		m := metrics.New(nil)
		w := &sliceWriter{}
		n, err := NewResponder(s, m).Respond(2, w)
		if err != nil {
			t.Fatalf("Respond failed: %v", err)
		}
		if !w.closed {
			t.Error("expected stream to be closed")
		}
		if n != len(w.entries) {
			t.Errorf("returned %d but wrote %d entries", n, len(w.entries))
		}

		expected := 0
		for k := 1; k <= 100; k++ {
			if cluster.IsInReplicaSet(uint16(k), 2) {
				expected++
			}
		}
		if n != expected {
			t.Errorf("expected %d entries, got %d", expected, n)
		}
		for _, e := range w.entries {
			owner := cluster.OwnerIndex(e.Key)
			if owner != 0 && owner != 1 && owner != 2 {
				t.Errorf("streamed key %d with owner %d to node 2", e.Key, owner)
			}
		}
		if got := m.StreamedEntries.Get(); got != uint64(n) {
			t.Errorf("expected streamed counter %d, got %d", n, got)
		}
	})

	t.Run("InvalidRequester", func(t *testing.T) {
		for _, requester := range []int{7, 100, -1} {
			w := &sliceWriter{}
			n, err := NewResponder(s, nil).Respond(requester, w)
			if err != nil || n != 0 || len(w.entries) != 0 {
				t.Errorf("requester %d: expected empty stream, got %d entries (%v)", requester, n, err)
			}
			if !w.closed {
				t.Errorf("requester %d: expected stream to be closed", requester)
			}
		}
	})

	t.Run("WriteFailure", func(t *testing.T) {
		w := &sliceWriter{failAt: 3}
		n, err := NewResponder(s, nil).Respond(0, w)
		if err == nil {
			t.Fatal("expected error")
		}
		if n != 2 {
			t.Errorf("expected 2 entries before failure, got %d", n)
		}
		if !w.closed {
			t.Error("expected stream to be closed after failure")
		}
	})

	t.Run("EmptyStore", func(t *testing.T) {
		w := &sliceWriter{}
		n, err := NewResponder(lstore.NewLocalStore(), nil).Respond(3, w)
		if err != nil || n != 0 || !w.closed {
			t.Errorf("expected closed empty stream, got n=%d err=%v closed=%v", n, err, w.closed)
		}
	})
}

// --------------------------------------------------------------------------
// Initiator
// --------------------------------------------------------------------------

func newInitiator(t *testing.T, self int, source IRecoverySource, local store.IStore, retries int) *Initiator {
	t.Helper()
	i, err := NewInitiator(InitiatorConfig{Self: self, Retries: retries, RetryDelay: time.Millisecond},
		testCluster(t), source, storeWriter{local}, metrics.New(nil))
	if err != nil {
		t.Fatalf("failed to create initiator: %v", err)
	}
	return i
}

func TestRecoverCompleteness(t *testing.T) {
	stores := populatedCluster(500)
	expected := stores[2]

	// node 2 lost its state
	stores[2] = lstore.NewLocalStore()
	source := &storeSource{stores: stores, failures: map[int]int{}, attempts: map[int]int{}}

	report, err := newInitiator(t, 2, source, stores[2], 3).Recover(context.Background())
	if err != nil {
		t.Fatalf("Recover failed: %v", err)
	}

	if stores[2].Len() != expected.Len() {
		t.Errorf("expected %d entries, got %d", expected.Len(), stores[2].Len())
	}
	expected.Range(func(key, value uint16) bool {
		if v, ok := stores[2].Get(key); !ok || v != value {
			t.Errorf("key %d: expected %d, got %d (%v)", key, value, v, ok)
		}
		return true
	})

	if len(report.PerPeer) != 4 {
		t.Errorf("expected 4 contacted peers, got %v", report.PerPeer)
	}
	for _, p := range []int{0, 1, 3, 4} {
		if _, ok := report.PerPeer[p]; !ok {
			t.Errorf("expected peer %d in report", p)
		}
	}
	sum := 0
	for _, n := range report.PerPeer {
		sum += n
	}
	if sum != report.Total {
		t.Errorf("total %d does not match per-peer sum %d", report.Total, sum)
	}
	if len(report.Unreachable) != 0 {
		t.Errorf("expected no unreachable peers, got %v", report.Unreachable)
	}
}

func TestRecoverWithUnreachablePeers(t *testing.T) {
	stores := populatedCluster(200)
	expected := stores[2]
	stores[2] = lstore.NewLocalStore()

	// node 0 recovers on the second attempt, node 1 never answers
	source := &storeSource{
		stores:   stores,
		failures: map[int]int{0: 1, 1: 100},
		attempts: map[int]int{},
	}

	report, err := newInitiator(t, 2, source, stores[2], 3).Recover(context.Background())
	if err != nil {
		t.Fatalf("Recover failed: %v", err)
	}

	if source.attempts[0] != 2 {
		t.Errorf("expected 2 attempts for node 0, got %d", source.attempts[0])
	}
	if source.attempts[1] != 3 {
		t.Errorf("expected 3 attempts for node 1, got %d", source.attempts[1])
	}
	if len(report.Unreachable) != 1 || report.Unreachable[0] != 1 {
		t.Errorf("expected node 1 to be unreachable, got %v", report.Unreachable)
	}

	// every key of node 2 has another live replica among 0, 3 and 4
	if stores[2].Len() != expected.Len() {
		t.Errorf("expected %d entries, got %d", expected.Len(), stores[2].Len())
	}
}

func TestRecoverInProgress(t *testing.T) {
	block := make(chan struct{})
	started := make(chan struct{}, 1)
	source := blockingSource{block: block, started: started}

	i := newInitiator(t, 0, source, lstore.NewLocalStore(), 1)

	done := make(chan error, 1)
	go func() {
		_, err := i.Recover(context.Background())
		done <- err
	}()
	<-started

	if !i.Running() {
		t.Error("expected recovery to be running")
	}
	if _, err := i.Recover(context.Background()); !errors.Is(err, ErrRecoveryInProgress) {
		t.Errorf("expected ErrRecoveryInProgress, got %v", err)
	}

	close(block)
	if err := <-done; err != nil {
		t.Errorf("first recovery failed: %v", err)
	}
	if i.Running() {
		t.Error("expected recovery to be finished")
	}
}

type blockingSource struct {
	block   chan struct{}
	started chan struct{}
}

func (b blockingSource) Fetch(peer, requester int, fn func(key, value uint16)) error {
	select {
	case b.started <- struct{}{}:
	default:
	}
	<-b.block
	return nil
}

func TestRecoverCancel(t *testing.T) {
	source := &storeSource{stores: map[int]store.IStore{}, failures: map[int]int{}, attempts: map[int]int{}}
	i, err := NewInitiator(InitiatorConfig{Self: 0, Retries: 5, RetryDelay: time.Hour},
		testCluster(t), source, storeWriter{lstore.NewLocalStore()}, nil)
	if err != nil {
		t.Fatalf("failed to create initiator: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	report, err := i.Recover(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error, got %v", err)
	}
	if report.Total != 0 {
		t.Errorf("expected no entries, got %d", report.Total)
	}
}

func TestNewInitiatorInvalidNode(t *testing.T) {
	_, err := NewInitiator(InitiatorConfig{Self: 9}, testCluster(t), nil, nil, nil)
	if !errors.Is(err, cluster.ErrInvalidNode) {
		t.Errorf("expected ErrInvalidNode, got %v", err)
	}
}
