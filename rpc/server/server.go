package server

import (
	"context"
	"errors"
	"fmt"
	"github.com/ValentinKolb/pKV/lib/cluster"
	"github.com/ValentinKolb/pKV/lib/metrics"
	"github.com/ValentinKolb/pKV/lib/recovery"
	"github.com/ValentinKolb/pKV/lib/replication"
	"github.com/ValentinKolb/pKV/lib/store"
	"github.com/ValentinKolb/pKV/lib/store/lstore"
	"github.com/ValentinKolb/pKV/rpc/admin"
	"github.com/ValentinKolb/pKV/rpc/client"
	"github.com/ValentinKolb/pKV/rpc/common"
	"github.com/ValentinKolb/pKV/rpc/serializer"
	"github.com/ValentinKolb/pKV/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"net"
	"net/http"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
)

var Logger = logger.GetLogger("server")

// ErrShuttingDown is returned by StartRecovery after Shutdown was called
var ErrShuttingDown = errors.New("server is shutting down")

// NewRPCServer creates a new pKV node
// It takes a config, the server transport the node listens on, the client transport
// used to talk to its peers and the wire serializer as parameters
//
// Usage:
//
//	s, err := server.NewRPCServer(
//		*config,
//		tcp.NewTCPServerTransport(),
//		tcp.NewTCPClientTransport(),
//		serializer.NewBinarySerializer(),
//	)
//	if err != nil {
//		return err
//	}
//
//	if err := s.Serve(); err != nil {
//		return err
//	}
func NewRPCServer(
	config common.ServerConfig,
	serverTransport transport.IRPCServerTransport,
	clientTransport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (*RPCServer, error) {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	c, err := cluster.New(config.Members)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(config.NodeID); err != nil {
		return nil, err
	}

	maxStreams := config.MaxRecoveryStreams
	if maxStreams <= 0 {
		maxStreams = common.DefaultMaxRecoveryStreams
	}

	s := &RPCServer{
		config:     config,
		cluster:    c,
		transport:  serverTransport,
		serializer: serializer,
		store:      lstore.NewLocalStore(),
		adapters:   xsync.NewMapOf[common.Opcode, IRPCServerAdapter](),
	}
	s.metrics = metrics.New(s.store.Len)
	s.ctx, s.cancel = context.WithCancel(context.Background())

	// Peer communication
	peers, err := client.NewPeerClient(config.PeerClientConfig(), clientTransport, serializer)
	if err != nil {
		return nil, fmt.Errorf("failed to create peer client: %w", err)
	}

	// Write path
	s.coordinator, err = replication.NewCoordinator(replication.Config{
		Self:     config.NodeID,
		Parallel: config.ParallelReplication,
		Policy:   replication.DefaultPolicy(),
	}, c, s.store, peers, s.metrics)
	if err != nil {
		return nil, err
	}

	// Recovery
	s.initiator, err = recovery.NewInitiator(recovery.InitiatorConfig{
		Self:       config.NodeID,
		Retries:    config.RecoveryRetries,
		RetryDelay: config.RecoveryRetryDelay,
	}, c, peers, s.coordinator, s.metrics)
	if err != nil {
		return nil, err
	}
	responder := recovery.NewResponder(s.store, s.metrics)

	// Request routing
	s.registerAdapter(NewKVServerAdapter(s.coordinator, s.metrics))
	s.registerAdapter(NewRecoveryServerAdapter(responder, serializer, config.Timeout(), maxStreams, &s.responders))

	Logger.Infof("Created pKV node %d", config.NodeID)
	Logger.Infof("%s", config.String())

	return s, nil
}

// RPCServer is a single pKV node: it owns the local store and dispatches the
// requests arriving on its endpoint
type RPCServer struct {
	config      common.ServerConfig
	cluster     *cluster.Cluster
	transport   transport.IRPCServerTransport
	serializer  serializer.IRPCSerializer
	store       store.IStore
	metrics     *metrics.Metrics
	coordinator *replication.Coordinator
	initiator   *recovery.Initiator
	adapters    *xsync.MapOf[common.Opcode, IRPCServerAdapter]
	admin       *http.Server

	// ctx is cancelled on shutdown to interrupt recovery retries
	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	closed     bool
	responders sync.WaitGroup
	recoveries sync.WaitGroup
}

// registerAdapter routes all opcodes of the adapter to it
func (s *RPCServer) registerAdapter(adapter IRPCServerAdapter) {
	for _, op := range adapter.Opcodes() {
		s.adapters.Store(op, adapter)
	}
}

// handle is the transport handler: it decodes a request and passes it to the adapter of its opcode
func (s *RPCServer) handle(req []byte, conn net.Conn) ([]byte, bool) {
	var msg common.Message
	if err := s.serializer.Deserialize(req, &msg); err != nil {
		Logger.Warningf("Protocol violation from %v: %v", conn.RemoteAddr(), err)
		s.metrics.IncProtocolErrors()
		return nil, false
	}

	// RECOVER_WRITE is only valid inside a recovery stream and has no adapter
	adapter, ok := s.adapters.Load(msg.Op)
	if !ok {
		Logger.Warningf("Protocol violation from %v: unexpected %s", conn.RemoteAddr(), msg)
		s.metrics.IncProtocolErrors()
		return nil, false
	}

	resp := adapter.Handle(msg, conn)
	if resp.Detached {
		return nil, true
	}
	if !resp.Send {
		return nil, false
	}
	return s.serializer.SerializeReply(resp.Value), false
}

// Serve starts the node: the optional admin endpoint, the recovery if configured
// and the transport layer. It blocks until Shutdown is called or the endpoint cannot be bound.
func (s *RPCServer) Serve() error {
	s.transport.RegisterHandler(s.handle)

	if s.config.AdminEndpoint != "" {
		adminServer := admin.NewServer(s.config.AdminEndpoint, s)
		s.mu.Lock()
		s.admin = adminServer
		s.mu.Unlock()
		go func() {
			Logger.Infof("Starting admin endpoint on %s", s.config.AdminEndpoint)
			if err := adminServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				Logger.Errorf("Admin endpoint failed: %v", err)
			}
		}()
	}

	if s.config.RecoverOnStart {
		if err := s.StartRecovery(); err != nil {
			Logger.Warningf("Failed to start recovery: %v", err)
		}
	}

	return s.transport.Listen(s.config)
}

// Shutdown stops accepting connections and waits for in-flight requests, recovery
// streams and a running recovery, or until ctx is done.
func (s *RPCServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	adminServer := s.admin
	s.mu.Unlock()

	s.cancel()

	if adminServer != nil {
		if err := adminServer.Shutdown(ctx); err != nil {
			Logger.Warningf("Failed to shut down admin endpoint: %v", err)
		}
	}

	var err error
	done := make(chan struct{})
	go func() {
		// handlers register responders, so the transport must be drained first
		err = s.transport.Close()
		s.responders.Wait()
		s.recoveries.Wait()
		close(done)
	}()

	select {
	case <-done:
		Logger.Infof("Node %d shut down", s.config.NodeID)
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recover runs a recovery synchronously and returns its report
func (s *RPCServer) Recover(ctx context.Context) (recovery.Report, error) {
	return s.initiator.Recover(ctx)
}

// StartRecovery starts a recovery in the background.
// It returns recovery.ErrRecoveryInProgress if a recovery is already running.
func (s *RPCServer) StartRecovery() error {
	if s.initiator.Running() {
		return recovery.ErrRecoveryInProgress
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrShuttingDown
	}

	s.recoveries.Add(1)
	go func() {
		defer s.recoveries.Done()
		report, err := s.initiator.Recover(s.ctx)
		if err != nil {
			Logger.Warningf("Recovery failed: %v", err)
			return
		}
		Logger.Infof("Recovery done: %s", report)
	}()
	return nil
}

// --------------------------------------------------------------------------
// Accessors (used by the admin endpoint and the console)
// --------------------------------------------------------------------------

// NodeID returns the index of this node
func (s *RPCServer) NodeID() int {
	return s.config.NodeID
}

// Store returns the local store
func (s *RPCServer) Store() store.IStore {
	return s.store
}

// Metrics returns the metrics of this node
func (s *RPCServer) Metrics() *metrics.Metrics {
	return s.metrics
}

// Coordinator returns the write path of this node
func (s *RPCServer) Coordinator() *replication.Coordinator {
	return s.coordinator
}

// Config returns the configuration of this node
func (s *RPCServer) Config() common.ServerConfig {
	return s.config
}
