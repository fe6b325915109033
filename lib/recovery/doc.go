// Package recovery implements the peer-to-peer recovery protocol of pKV.
//
// A node that lost its state (for example after a restart) asks its four
// nearest neighbours (offsets -2, -1, +1 and +2) for every entry whose replica
// set contains the node. Each neighbour answers with a recovery stream: one
// RECOVER_WRITE record per entry, no acknowledgements, terminated by closing
// the connection. The receiving node applies each record locally without
// propagating it.
//
// Key Components:
//
//   - Responder: Snapshots the matching entries of the local store and streams
//     them to an IRecordWriter, closing it afterwards.
//
//   - Initiator: Contacts the neighbours one after another through an
//     IRecoverySource, retries unreachable peers with a fixed delay and
//     reports how many entries every peer delivered. Only one recovery runs
//     at a time.
package recovery
