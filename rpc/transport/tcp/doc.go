// Package tcp implements the TCP socket transport used between pKV nodes and
// by the command line client. It provides the TCP specific connectors for the
// base package, which contains the actual request handling.
//
// Key Components:
//
//   - clientConnector: Dials with the configured timeout
//
//   - serverConnector: Listens on the node's member address
//
//   - upgradeConnection: Applies TCPConf/SocketConf settings (no-delay,
//     keep-alive, linger, buffer sizes) to both sides of a connection
package tcp
