package serve

import (
	"context"
	"errors"
	"fmt"
	cmdUtil "github.com/ValentinKolb/pKV/cmd/util"
	"github.com/ValentinKolb/pKV/lib/cluster"
	"github.com/ValentinKolb/pKV/rpc/common"
	"github.com/ValentinKolb/pKV/rpc/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const shutdownTimeout = 10 * time.Second

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start a pKV node",
		Long:    `Start a pKV node with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is PKV_<flag> (e.g. PKV_NODE_ID=2)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitConfig)

	// add flags
	key := "node-id"
	ServeCmd.PersistentFlags().Int(key, -1, cmdUtil.WrapString("Index of this node in the members list (0-6, required)"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, common.DefaultTimeoutSecond, cmdUtil.WrapString("Timeout in seconds for connects, reads and writes (0 = no timeout)"))

	key = "max-connections"
	ServeCmd.PersistentFlags().Int(key, common.DefaultMaxConnections, cmdUtil.WrapString("Maximum number of connections handled at the same time"))

	key = "max-recovery-streams"
	ServeCmd.PersistentFlags().Int(key, common.DefaultMaxRecoveryStreams, cmdUtil.WrapString("Maximum number of recovery streams served at the same time"))

	key = "parallel-replication"
	ServeCmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("Forward writes to the replicas concurrently instead of one after another"))

	key = "recovery-retries"
	ServeCmd.PersistentFlags().Int(key, common.DefaultRecoveryRetries, cmdUtil.WrapString("Connection attempts per neighbour during recovery"))

	key = "recovery-retry-delay"
	ServeCmd.PersistentFlags().Duration(key, common.DefaultRecoveryRetryDelay, cmdUtil.WrapString("Delay between two connection attempts during recovery"))

	key = "recover-on-start"
	ServeCmd.PersistentFlags().Bool(key, false, cmdUtil.WrapString("Recover the entries of this node from its neighbours after start"))

	key = "console"
	ServeCmd.PersistentFlags().Bool(key, false, cmdUtil.WrapString("Read operator commands from stdin (r, w, p, c, g, x, s, q)"))

	key = "admin-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Address of the HTTP admin endpoint (e.g. localhost:8080, empty = disabled)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	cmdUtil.SetupTransportFlags(ServeCmd)
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	members, err := cmdUtil.GetMembers()
	if err != nil {
		return err
	}
	c, err := cluster.New(members)
	if err != nil {
		return err
	}

	nodeID := viper.GetInt("node-id")
	if err := c.Validate(nodeID); err != nil {
		return fmt.Errorf("--node-id: %w", err)
	}

	if _, err := common.ParseLogLevel(viper.GetString("log-level")); err != nil {
		return err
	}

	// read the configuration from the command line flags and environment variables
	serveCmdConfig.NodeID = nodeID
	serveCmdConfig.Members = members
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.MaxConnections = viper.GetInt("max-connections")
	serveCmdConfig.MaxRecoveryStreams = viper.GetInt("max-recovery-streams")
	serveCmdConfig.ParallelReplication = viper.GetBool("parallel-replication")
	serveCmdConfig.RecoveryRetries = viper.GetInt("recovery-retries")
	serveCmdConfig.RecoveryRetryDelay = viper.GetDuration("recovery-retry-delay")
	serveCmdConfig.RecoverOnStart = viper.GetBool("recover-on-start")
	serveCmdConfig.AdminEndpoint = viper.GetString("admin-endpoint")
	serveCmdConfig.Transport = cmdUtil.GetTransportConf()
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	return nil
}

// run starts the node and blocks until it is stopped by a signal or the console
func run(_ *cobra.Command, _ []string) error {
	common.InitLoggers(serveCmdConfig.LogLevel)

	s, err := cmdUtil.GetSerializer()
	if err != nil {
		return err
	}
	serverTransport, err := cmdUtil.GetServerTransport()
	if err != nil {
		return err
	}
	clientTransport, err := cmdUtil.GetTransport()
	if err != nil {
		return err
	}

	node, err := server.NewRPCServer(*serveCmdConfig, serverTransport, clientTransport, s)
	if err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- node.Serve() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	quit := make(chan struct{})
	if viper.GetBool("console") {
		go func() {
			if newConsole(node, os.Stdin, os.Stdout).run() {
				close(quit)
			}
		}()
	}

	select {
	case err := <-serveErr:
		// the endpoint could not be bound
		return err
	case sig := <-sigCh:
		server.Logger.Infof("Received %s, shutting down", sig)
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := node.Shutdown(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return <-serveErr
}
