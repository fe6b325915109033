// Package cmd implements the command-line interface of pKV. It provides a
// hierarchical command structure with operations for running a node and
// interacting with the cluster as a client.
//
// The package is organized into several subpackages:
//
//   - serve: Starts a node (optionally with the operator console)
//   - kv: Client commands (get, set, rand, perf)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Every flag can also be set as environment variable PKV_<FLAG> (e.g. PKV_NODE_ID=2),
// .env and .env.local files in the working directory are loaded on start.
//
// See pkv -help for a list of all commands.
package cmd
