package admin

import (
	"encoding/json"
	"errors"
	"github.com/ValentinKolb/pKV/lib/metrics"
	"github.com/ValentinKolb/pKV/lib/recovery"
	"github.com/ValentinKolb/pKV/lib/store"
	"github.com/go-chi/chi/v5"
	"github.com/lni/dragonboat/v4/logger"
	"net/http"
	"strconv"
)

var Logger = logger.GetLogger("admin")

// INode is the view of a running node the admin endpoint needs
type INode interface {
	NodeID() int
	Store() store.IStore
	Metrics() *metrics.Metrics
	// StartRecovery starts a recovery in the background.
	// It returns recovery.ErrRecoveryInProgress if one is already running.
	StartRecovery() error
}

// NewHandler creates the router of the admin endpoint
func NewHandler(node INode) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"node":    node.NodeID(),
			"entries": node.Store().Len(),
		})
	})

	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		node.Metrics().WritePrometheus(w)
	})

	r.Get("/store", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, store.Snapshot(node.Store(), nil))
	})

	r.Get("/store/{key}", func(w http.ResponseWriter, r *http.Request) {
		key, err := strconv.ParseUint(chi.URLParam(r, "key"), 10, 16)
		if err != nil || key == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "key must be between 1 and 65535"})
			return
		}
		value, ok := node.Store().Get(uint16(key))
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		writeJSON(w, http.StatusOK, store.Entry{Key: uint16(key), Value: value})
	})

	r.Get("/peers", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, node.Metrics().PeerStats())
	})

	r.Post("/recover", func(w http.ResponseWriter, r *http.Request) {
		err := node.StartRecovery()
		if errors.Is(err, recovery.ErrRecoveryInProgress) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "recovery started"})
	})

	return r
}

// NewServer creates an http.Server serving the admin endpoint on addr
func NewServer(addr string, node INode) *http.Server {
	return &http.Server{
		Addr:    addr,
		Handler: NewHandler(node),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		Logger.Warningf("Failed to write response: %v", err)
	}
}
