package recovery

import (
	"github.com/ValentinKolb/pKV/lib/cluster"
	"github.com/ValentinKolb/pKV/lib/metrics"
	"github.com/ValentinKolb/pKV/lib/store"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("recovery")

// IRecordWriter is the sink of a recovery stream.
// Close ends the stream; the receiver treats it as the end-of-stream marker.
type IRecordWriter interface {
	WriteEntry(key, value uint16) error
	Close() error
}

// Responder answers recovery requests of other nodes
type Responder struct {
	store   store.IStore
	metrics *metrics.Metrics
}

// NewResponder creates a responder streaming entries of s. m may be nil.
func NewResponder(s store.IStore, m *metrics.Metrics) *Responder {
	return &Responder{store: s, metrics: m}
}

// Respond streams every entry whose replica set contains requester to w and closes w.
// The entries are snapshotted before streaming, so concurrent writes do not block on
// a slow requester. An invalid requester index closes w without streaming.
// It returns the number of entries written.
func (r *Responder) Respond(requester int, w IRecordWriter) (int, error) {
	defer func() {
		if err := w.Close(); err != nil {
			Logger.Debugf("Failed to close recovery stream to node %d: %v", requester, err)
		}
	}()

	if requester < 0 || requester >= cluster.Size {
		Logger.Warningf("Ignoring recovery request from invalid node %d", requester)
		return 0, nil
	}

	entries := store.Snapshot(r.store, func(key uint16) bool {
		return cluster.IsInReplicaSet(key, requester)
	})
	Logger.Infof("Streaming %d entries to node %d", len(entries), requester)

	sent := 0
	for _, e := range entries {
		if err := w.WriteEntry(e.Key, e.Value); err != nil {
			Logger.Warningf("Recovery stream to node %d aborted after %d of %d entries: %v",
				requester, sent, len(entries), err)
			r.metrics.AddStreamed(sent)
			return sent, err
		}
		sent++
	}

	r.metrics.AddStreamed(sent)
	return sent, nil
}
