package common

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Default values
// --------------------------------------------------------------------------

const (
	// DefaultPort is the port appended to member hosts without an explicit port
	DefaultPort = 4430

	DefaultTimeoutSecond      = 5
	DefaultMaxConnections     = 256
	DefaultMaxRecoveryStreams = 8
	DefaultRecoveryRetries    = 5
	DefaultRecoveryRetryDelay = 2 * time.Second
)

// DefaultMembers is the static membership list of the reference deployment
var DefaultMembers = []string{
	"10.176.69.32", "10.176.69.33", "10.176.69.34", "10.176.69.35", "10.176.69.36", "10.176.69.37", "10.176.69.38",
}

// --------------------------------------------------------------------------
// Transport configuration
// --------------------------------------------------------------------------

// SocketConf holds socket buffer settings (bytes, 0 = OS default)
type SocketConf struct {
	WriteBufferSize int
	ReadBufferSize  int
}

// TCPConf holds TCP specific settings
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int
	TCPLingerSec    int
}

// TransportConf bundles all transport settings shared by client and server
type TransportConf struct {
	SocketConf
	TCPConf
}

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// ServerConfig holds all configuration parameters of a single node.
type ServerConfig struct {
	// Node identity (index into Members) and the static membership list
	NodeID  int
	Members []string

	// Timeout for connects, reads and writes on every connection (0 = no timeout)
	TimeoutSecond int64

	// Resource bounds
	MaxConnections     int
	MaxRecoveryStreams int

	// Replication settings
	ParallelReplication bool

	// Recovery settings
	RecoveryRetries    int
	RecoveryRetryDelay time.Duration
	RecoverOnStart     bool

	// Optional HTTP admin endpoint (empty = disabled)
	AdminEndpoint string

	// Transport settings
	Transport TransportConf

	// Logging configuration
	LogLevel string
}

// Endpoint returns the address this node listens on
func (c *ServerConfig) Endpoint() string {
	if c.NodeID < 0 || c.NodeID >= len(c.Members) {
		return ""
	}
	return c.Members[c.NodeID]
}

// Timeout returns the configured timeout as a duration
func (c *ServerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecond) * time.Second
}

// PeerClientConfig derives the configuration used for node-to-node calls
func (c *ServerConfig) PeerClientConfig() ClientConfig {
	return ClientConfig{
		Members:       c.Members,
		TimeoutSecond: int(c.TimeoutSecond),
		Transport:     c.Transport,
	}
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// Node Identity
	addSection("Node Identity")
	addField("Node ID", strconv.Itoa(c.NodeID))
	addField("Endpoint", c.Endpoint())

	// RPC settings
	addSection("RPC Server")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Max Connections", strconv.Itoa(c.MaxConnections))
	addField("Max Recovery Streams", strconv.Itoa(c.MaxRecoveryStreams))
	if c.AdminEndpoint != "" {
		addField("Admin Endpoint", c.AdminEndpoint)
	}

	// Replication & recovery
	addSection("Replication")
	addField("Parallel Fan-Out", strconv.FormatBool(c.ParallelReplication))
	addField("Recovery Retries", strconv.Itoa(c.RecoveryRetries))
	addField("Recovery Retry Delay", c.RecoveryRetryDelay.String())
	addField("Recover On Start", strconv.FormatBool(c.RecoverOnStart))

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	// Cluster members
	addSection("Cluster")
	for i, m := range c.Members {
		marker := ""
		if i == c.NodeID {
			marker = " (self)"
		}
		sb.WriteString(fmt.Sprintf("    Node %d: %s%s\n", i, m, marker))
	}
	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

// ClientConfig holds the configuration of a client (or of a node talking to its peers)
type ClientConfig struct {
	Members       []string
	TimeoutSecond int
	Transport     TransportConf
}

// Timeout returns the configured timeout as a duration
func (c *ClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecond) * time.Second
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// General Client Settings
	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", int(math.Max(0, float64(c.TimeoutSecond)))))
	addField("TCP No Delay", strconv.FormatBool(c.Transport.TCPNoDelay))

	// Endpoints
	addSection("Members")
	for i, endpoint := range c.Members {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// NormalizeMembers trims every member and appends port to members without one.
// Unix socket paths (containing a '/') are left untouched.
func NormalizeMembers(members []string, port int) []string {
	out := make([]string, 0, len(members))
	for _, m := range members {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if !strings.Contains(m, "/") && !strings.Contains(m, ":") {
			m = fmt.Sprintf("%s:%d", m, port)
		}
		out = append(out, m)
	}
	return out
}
