package util

import (
	"fmt"
	"github.com/ValentinKolb/pKV/lib/cluster"
	"github.com/ValentinKolb/pKV/rpc/common"
	"github.com/ValentinKolb/pKV/rpc/serializer"
	"github.com/ValentinKolb/pKV/rpc/transport"
	"github.com/ValentinKolb/pKV/rpc/transport/tcp"
	"github.com/ValentinKolb/pKV/rpc/transport/unix"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// --------------------------------------------------------------------------
// Flags
// --------------------------------------------------------------------------

// SetupTransportFlags adds the socket tuning flags shared by server and client
func SetupTransportFlags(cmd *cobra.Command) {
	key := "transport-write-buffer"
	cmd.PersistentFlags().Int(key, 0, WrapString("The size of the socket write buffer (in KB, 0 = OS default)"))

	key = "transport-read-buffer"
	cmd.PersistentFlags().Int(key, 0, WrapString("The size of the socket read buffer (in KB, 0 = OS default)"))

	key = "transport-tcp-nodelay"
	cmd.PersistentFlags().Bool(key, true, WrapString("Whether to enable TCP_NODELAY (only for tcp)"))

	key = "transport-tcp-keepalive"
	cmd.PersistentFlags().Int(key, 0, WrapString("The keepalive interval (in seconds, 0 = disabled, only for tcp)"))

	key = "transport-tcp-linger"
	cmd.PersistentFlags().Int(key, 0, WrapString("The linger time (in seconds, 0 = OS default, only for tcp)"))
}

// SetupRPCClientFlags adds common RPC connection flags to a command
func SetupRPCClientFlags(cmd *cobra.Command) {
	key := "timeout"
	cmd.PersistentFlags().Int(key, common.DefaultTimeoutSecond, WrapString("The timeout in seconds of the client"))

	key = "config-file"
	cmd.PersistentFlags().String(key, "", WrapString("Optional file listing the cluster members as key=value lines, where the trailing number of the key is the node index (e.g. server0=10.176.69.32). Overrides --members"))

	SetupTransportFlags(cmd)
}

// InitConfig loads .env files and binds environment variables with the PKV_ prefix
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("pkv")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// --------------------------------------------------------------------------
// Configuration
// --------------------------------------------------------------------------

// GetMembers returns the normalized membership list from the config file or the members flag
func GetMembers() ([]string, error) {
	var members []string
	if path := viper.GetString("config-file"); path != "" {
		var err error
		if members, err = LoadMembersFile(path); err != nil {
			return nil, err
		}
	} else {
		members = strings.Split(viper.GetString("members"), ",")
	}

	members = common.NormalizeMembers(members, viper.GetInt("port"))
	if _, err := cluster.New(members); err != nil {
		return nil, err
	}
	return members, nil
}

// LoadMembersFile reads a members file with key=value lines. The trailing number of each key
// is the node index, so the lines may appear in any order.
func LoadMembersFile(path string) ([]string, error) {
	entries, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read members file %s: %w", path, err)
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	members := make([]string, cluster.Size)
	for _, k := range keys {
		digits := strings.TrimLeftFunc(k, func(r rune) bool { return !unicode.IsDigit(r) })
		index, err := strconv.Atoi(digits)
		if err != nil || index < 0 || index >= cluster.Size {
			return nil, fmt.Errorf("%w: invalid key %q in %s (expected a node index between 0 and %d)",
				cluster.ErrInvalidMembers, k, path, cluster.Size-1)
		}
		if members[index] != "" {
			return nil, fmt.Errorf("%w: node %d listed twice in %s", cluster.ErrInvalidMembers, index, path)
		}
		members[index] = entries[k]
	}

	for i, m := range members {
		if m == "" {
			return nil, fmt.Errorf("%w: node %d missing in %s", cluster.ErrInvalidMembers, i, path)
		}
	}
	return members, nil
}

// GetTransportConf reads the socket tuning flags from viper
func GetTransportConf() common.TransportConf {
	return common.TransportConf{
		SocketConf: common.SocketConf{
			WriteBufferSize: viper.GetInt("transport-write-buffer") * 1024,
			ReadBufferSize:  viper.GetInt("transport-read-buffer") * 1024,
		},
		TCPConf: common.TCPConf{
			TCPNoDelay:      viper.GetBool("transport-tcp-nodelay"),
			TCPKeepAliveSec: viper.GetInt("transport-tcp-keepalive"),
			TCPLingerSec:    viper.GetInt("transport-tcp-linger"),
		},
	}
}

// GetClientConfig reads client configuration from viper
func GetClientConfig() (*common.ClientConfig, error) {
	members, err := GetMembers()
	if err != nil {
		return nil, err
	}
	return &common.ClientConfig{
		Members:       members,
		TimeoutSecond: viper.GetInt("timeout"),
		Transport:     GetTransportConf(),
	}, nil
}

// GetSerializer creates a serializer based on configuration
func GetSerializer() (serializer.IRPCSerializer, error) {
	switch viper.GetString("serializer") {
	case "binary":
		return serializer.NewBinarySerializer(), nil
	case "native":
		return serializer.NewNativeSerializer(), nil
	default:
		return nil, fmt.Errorf("invalid serializer %s", viper.GetString("serializer"))
	}
}

// GetTransport creates the client transport based on configuration
func GetTransport() (transport.IRPCClientTransport, error) {
	switch viper.GetString("transport") {
	case "tcp":
		return tcp.NewTCPClientTransport(), nil
	case "unix":
		return unix.NewUnixClientTransport(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// GetServerTransport creates the server transport based on configuration
func GetServerTransport() (transport.IRPCServerTransport, error) {
	switch viper.GetString("transport") {
	case "tcp":
		return tcp.NewTCPServerTransport(), nil
	case "unix":
		return unix.NewUnixServerTransport(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}
