// Package unix implements the Unix domain socket transport of pKV. Members
// given as socket paths let a whole seven node cluster run on one machine,
// which is how the integration tests exercise replication and recovery.
//
// Key Components:
//
//   - clientConnector: Dials a socket path with the configured timeout
//
//   - serverConnector: Removes a stale socket file and listens on the path
package unix
