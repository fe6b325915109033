package cmd

import (
	"fmt"
	"github.com/ValentinKolb/pKV/cmd/kv"
	"github.com/ValentinKolb/pKV/cmd/serve"
	"github.com/ValentinKolb/pKV/cmd/util"
	"github.com/ValentinKolb/pKV/rpc/common"
	"github.com/spf13/cobra"
	"os"
	"strings"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "pkv",
		Short: "partitioned, replicated in-memory key-value store",
		Long: fmt.Sprintf(`pKV (v%s)

A key-value store for a fixed cluster of seven nodes. The 16-bit key
space is partitioned by key mod 7 and every key is replicated on its
primary and the two following nodes.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of pKV",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("pKV v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "binary", util.WrapString("wire byte order to use (binary = network byte order, native = little endian)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "tcp", util.WrapString("transport to use (tcp, unix)"))
	key = "members"
	RootCmd.PersistentFlags().String(key, strings.Join(common.DefaultMembers, ","), util.WrapString("Comma-separated list of exactly 7 node addresses in node index order. The port is appended to hosts without one, unix socket paths are used as is"))
	key = "port"
	RootCmd.PersistentFlags().Int(key, common.DefaultPort, util.WrapString("Port appended to members without an explicit port"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
