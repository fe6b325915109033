// Package metrics collects the operational counters of a pKV node.
//
// Counters and gauges are kept in a VictoriaMetrics metrics.Set and can be
// exported in the Prometheus text format. Per-peer replication latencies are
// tracked with go-metrics timers, which also provide the percentiles shown by
// the operator console and the admin endpoint.
package metrics

import (
	"fmt"
	vm "github.com/VictoriaMetrics/metrics"
	gometrics "github.com/rcrowley/go-metrics"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"
)

const peerTimerPrefix = "replication.peer."

// Metrics holds all metrics of a single node.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	set      *vm.Set
	registry gometrics.Registry

	Reads               *vm.Counter
	WritesCommitted     *vm.Counter
	WritesRejected      *vm.Counter
	ReplicaWrites       *vm.Counter
	ReplicationFailures *vm.Counter
	RecoveredEntries    *vm.Counter
	StreamedEntries     *vm.Counter
	ProtocolErrors      *vm.Counter
}

// PeerStat summarises the replication calls to one peer
type PeerStat struct {
	Peer     int           `json:"peer"`
	Calls    int64         `json:"calls"`
	Failures int64         `json:"failures"`
	Mean     time.Duration `json:"mean"`
	P99      time.Duration `json:"p99"`
}

// New creates a new metrics instance. storeSize is used for the entries gauge (may be nil).
func New(storeSize func() int) *Metrics {
	set := vm.NewSet()
	m := &Metrics{
		set:                 set,
		registry:            gometrics.NewRegistry(),
		Reads:               set.NewCounter("pkv_reads_total"),
		WritesCommitted:     set.NewCounter("pkv_writes_committed_total"),
		WritesRejected:      set.NewCounter("pkv_writes_rejected_total"),
		ReplicaWrites:       set.NewCounter("pkv_replica_writes_total"),
		ReplicationFailures: set.NewCounter("pkv_replication_failures_total"),
		RecoveredEntries:    set.NewCounter("pkv_recovered_entries_total"),
		StreamedEntries:     set.NewCounter("pkv_streamed_entries_total"),
		ProtocolErrors:      set.NewCounter("pkv_protocol_errors_total"),
	}
	if storeSize != nil {
		set.NewGauge("pkv_store_entries", func() float64 {
			return float64(storeSize())
		})
	}
	return m
}

// --------------------------------------------------------------------------
// Recording
// --------------------------------------------------------------------------

// IncReads counts a served read request
func (m *Metrics) IncReads() {
	if m != nil {
		m.Reads.Inc()
	}
}

// IncWrite counts the outcome of a client write
func (m *Metrics) IncWrite(committed bool) {
	if m == nil {
		return
	}
	if committed {
		m.WritesCommitted.Inc()
	} else {
		m.WritesRejected.Inc()
	}
}

// IncReplicaWrites counts an applied replica write
func (m *Metrics) IncReplicaWrites() {
	if m != nil {
		m.ReplicaWrites.Inc()
	}
}

// AddRecovered counts entries received from peers during recovery
func (m *Metrics) AddRecovered(n int) {
	if m != nil && n > 0 {
		m.RecoveredEntries.Add(n)
	}
}

// AddStreamed counts entries sent to peers during recovery
func (m *Metrics) AddStreamed(n int) {
	if m != nil && n > 0 {
		m.StreamedEntries.Add(n)
	}
}

// IncProtocolErrors counts a malformed or unknown request
func (m *Metrics) IncProtocolErrors() {
	if m != nil {
		m.ProtocolErrors.Inc()
	}
}

// ObserveReplication records the duration and outcome of a replication call to peer.
func (m *Metrics) ObserveReplication(peer int, start time.Time, err error) {
	if m == nil {
		return
	}
	name := peerTimerPrefix + strconv.Itoa(peer)
	gometrics.GetOrRegisterTimer(name, m.registry).UpdateSince(start)
	if err != nil {
		m.ReplicationFailures.Inc()
		gometrics.GetOrRegisterCounter(name+".failures", m.registry).Inc(1)
	}
}

// --------------------------------------------------------------------------
// Export
// --------------------------------------------------------------------------

// WritePrometheus writes all counters and gauges in the Prometheus text format.
func (m *Metrics) WritePrometheus(w io.Writer) {
	if m == nil {
		return
	}
	m.set.WritePrometheus(w)
}

// PeerStats returns the replication statistics of all peers that were contacted so far, sorted by peer.
func (m *Metrics) PeerStats() []PeerStat {
	if m == nil {
		return nil
	}

	stats := make(map[int]*PeerStat)
	get := func(peer int) *PeerStat {
		if s, ok := stats[peer]; ok {
			return s
		}
		s := &PeerStat{Peer: peer}
		stats[peer] = s
		return s
	}

	m.registry.Each(func(name string, metric interface{}) {
		if !strings.HasPrefix(name, peerTimerPrefix) {
			return
		}
		rest := strings.TrimPrefix(name, peerTimerPrefix)
		peerStr, _, isFailures := strings.Cut(rest, ".")
		peer, err := strconv.Atoi(peerStr)
		if err != nil {
			return
		}

		switch v := metric.(type) {
		case gometrics.Timer:
			s := get(peer)
			s.Calls = v.Count()
			s.Mean = time.Duration(v.Mean())
			s.P99 = time.Duration(v.Percentile(0.99))
		case gometrics.Counter:
			if isFailures {
				get(peer).Failures = v.Count()
			}
		}
	})

	out := make([]PeerStat, 0, len(stats))
	for _, s := range stats {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Peer < out[j].Peer })
	return out
}

// String returns a formatted summary of the counters
func (m *Metrics) String() string {
	if m == nil {
		return ""
	}
	var sb strings.Builder
	addField := func(name string, value uint64) {
		sb.WriteString(fmt.Sprintf("  %-22s: %d\n", name, value))
	}
	addField("Reads", m.Reads.Get())
	addField("Writes committed", m.WritesCommitted.Get())
	addField("Writes rejected", m.WritesRejected.Get())
	addField("Replica writes", m.ReplicaWrites.Get())
	addField("Replication failures", m.ReplicationFailures.Get())
	addField("Recovered entries", m.RecoveredEntries.Get())
	addField("Streamed entries", m.StreamedEntries.Get())
	addField("Protocol errors", m.ProtocolErrors.Get())
	for _, s := range m.PeerStats() {
		sb.WriteString(fmt.Sprintf("  %-22s: %d calls, %d failures, mean %s, p99 %s\n",
			fmt.Sprintf("Peer %d", s.Peer), s.Calls, s.Failures, s.Mean, s.P99))
	}
	return sb.String()
}
