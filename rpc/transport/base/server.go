package base

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/pKV/rpc/common"
	"github.com/ValentinKolb/pKV/rpc/transport"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a listener for the endpoint and returns it
	Listen(endpoint string) (net.Listener, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an accepted connection
	UpgradeConnection(conn net.Conn, config common.TransportConf) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// serverTransport implements the core server transport functionality.
// Every accepted connection carries exactly one request record.
type serverTransport struct {
	connector IServerConnector
	handler   transport.ServerHandleFunc
	config    common.ServerConfig

	mu         sync.Mutex
	listener   net.Listener
	closed     atomic.Bool
	// acceptDone is closed when the accept loop has returned
	acceptDone chan struct{}

	// connSemaphore bounds the number of connections handled concurrently
	connSemaphore chan struct{}
	// inFlight tracks connection handlers that have not returned yet
	inFlight      sync.WaitGroup
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseServerTransport creates a new base server transport with the specified connector
func NewBaseServerTransport(connector IServerConnector) transport.IRPCServerTransport {
	return &serverTransport{
		connector: connector,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

func (t *serverTransport) Listen(config common.ServerConfig) error {
	if t.handler == nil {
		return fmt.Errorf("no handler registered")
	}
	t.config = config

	maxConns := config.MaxConnections
	if maxConns <= 0 {
		maxConns = common.DefaultMaxConnections
	}
	t.connSemaphore = make(chan struct{}, maxConns)

	// Create listener using the connector
	listener, err := t.connector.Listen(config.Endpoint())
	if err != nil {
		return fmt.Errorf("failed to create listener: %v", err)
	}

	t.mu.Lock()
	if t.closed.Load() {
		// Close was called before the listener existed
		t.mu.Unlock()
		listener.Close()
		return nil
	}
	t.listener = listener
	t.acceptDone = make(chan struct{})
	defer close(t.acceptDone)
	t.mu.Unlock()

	Logger.Infof("Starting %s server on %s (max %d connections)",
		t.connector.GetName(), config.Endpoint(), maxConns)

	// Accept connections
	for {
		// Acquire a connection slot before accepting (blocks if the limit is reached)
		t.connSemaphore <- struct{}{}

		conn, err := listener.Accept()
		if err != nil {
			<-t.connSemaphore
			if t.closed.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			Logger.Errorf("Accept error: %v", err)
			time.Sleep(10 * time.Millisecond)
			continue
		}

		// Handle the connection in a goroutine
		t.inFlight.Add(1)
		go t.handleConnection(conn)
	}
}

func (t *serverTransport) Close() error {
	t.closed.Store(true)

	t.mu.Lock()
	listener := t.listener
	acceptDone := t.acceptDone
	t.mu.Unlock()

	var err error
	if listener != nil {
		err = listener.Close()
		if errors.Is(err, net.ErrClosed) {
			err = nil
		}
		// no handler is started after the accept loop returned
		<-acceptDone
	}

	// Wait for all in-flight handlers
	t.inFlight.Wait()
	return err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// handleConnection reads the single request of a connection, calls the handler and
// writes its reply. The connection is closed afterwards unless the handler detached it.
func (t *serverTransport) handleConnection(conn net.Conn) {
	detached := false
	defer func() {
		if !detached {
			conn.Close()
		}
		<-t.connSemaphore
		t.inFlight.Done()
	}()

	if err := t.connector.UpgradeConnection(conn, t.config.Transport); err != nil {
		Logger.Warningf("Failed to upgrade connection from %s: %v", conn.RemoteAddr(), err)
	}

	timeout := t.config.Timeout()
	if err := setReadDeadline(conn, timeout); err != nil {
		Logger.Errorf("Failed to set read deadline: %v", err)
		return
	}

	buf := make([]byte, common.RecordSize)
	n, err := readRecord(conn, buf)
	if n == 0 {
		// Connection closed (or timed out) before a single byte arrived
		if err == io.EOF {
			Logger.Debugf("Connection closed by client before sending a request")
		} else {
			Logger.Warningf("Error reading request: %v", err)
		}
		return
	}
	if err != nil {
		// Short record: the handler decides how to treat the partial request
		Logger.Debugf("Short request (%d of %d bytes): %v", n, common.RecordSize, err)
	}

	start := time.Now()
	var resp []byte
	resp, detached = t.handler(buf[:n], conn)
	Logger.Debugf("Processed request from %s in %s", conn.RemoteAddr(), time.Since(start))

	if detached || resp == nil {
		return
	}

	if err := setWriteDeadline(conn, timeout); err != nil {
		Logger.Errorf("Failed to set write deadline: %v", err)
		return
	}
	if err := writeRecord(conn, resp); err != nil {
		Logger.Errorf("Failed to write response: %v", err)
	}
}
