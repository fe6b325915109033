package base

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/pKV/rpc/common"
	"github.com/ValentinKolb/pKV/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"io"
	"net"
	"time"
)

var Logger = logger.GetLogger("transport/rpc")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection to the endpoint (timeout 0 = no timeout)
	Connect(endpoint string, timeout time.Duration) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.TransportConf) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// clientTransport implements the core client transport functionality
// independent of the specific transport medium (unix, tcp, etc.)
type clientTransport struct {
	connector IClientConnector
	config    common.ClientConfig
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector) transport.IRPCClientTransport {
	return &clientTransport{
		connector: connector,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Connect(config common.ClientConfig) error {
	if len(config.Members) == 0 {
		return fmt.Errorf("no endpoints provided")
	}
	t.config = config
	return nil
}

func (t *clientTransport) Call(endpoint string, req []byte) ([]byte, error) {
	conn, err := t.dial(endpoint)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := setDeadline(conn, t.config.Timeout()); err != nil {
		return nil, fmt.Errorf("failed to set deadline: %v", err)
	}

	if err := writeRecord(conn, req); err != nil {
		return nil, fmt.Errorf("failed to send request to %s: %w", endpoint, err)
	}

	resp := make([]byte, common.ReplySize)
	n, err := readRecord(conn, resp)
	if n == 0 && errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("connection to %s closed without reply: %w", endpoint, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read reply from %s: %w", endpoint, err)
	}
	return resp, nil
}

func (t *clientTransport) Stream(endpoint string, req []byte, fn func(record []byte) error) error {
	conn, err := t.dial(endpoint)
	if err != nil {
		return err
	}
	defer conn.Close()

	timeout := t.config.Timeout()
	if err := setWriteDeadline(conn, timeout); err != nil {
		return fmt.Errorf("failed to set write deadline: %v", err)
	}
	if err := writeRecord(conn, req); err != nil {
		return fmt.Errorf("failed to send request to %s: %w", endpoint, err)
	}

	buf := make([]byte, common.RecordSize)
	for {
		// the deadline bounds the gap between two records, not the whole stream
		if err := setReadDeadline(conn, timeout); err != nil {
			return fmt.Errorf("failed to set read deadline: %v", err)
		}

		_, err := readRecord(conn, buf)
		if err == io.EOF {
			// Connection closed at a record boundary: end of stream
			return nil
		}
		if err != nil {
			return fmt.Errorf("stream from %s interrupted: %w", endpoint, err)
		}

		if err := fn(buf); err != nil {
			return err
		}
	}
}

func (t *clientTransport) Close() error {
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// dial establishes and upgrades a new connection to the endpoint
func (t *clientTransport) dial(endpoint string) (net.Conn, error) {
	conn, err := t.connector.Connect(endpoint, t.config.Timeout())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", transport.ErrConnect, endpoint, err)
	}

	// Upgrade the connection with protocol-specific settings
	if err := t.connector.UpgradeConnection(conn, t.config.Transport); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to upgrade connection to %s: %v", endpoint, err)
	}

	Logger.Debugf("Connected to %s using %s transport", endpoint, t.connector.GetName())
	return conn, nil
}
