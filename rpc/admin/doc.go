// Package admin provides the optional HTTP admin endpoint of a pKV node.
// It is meant for operators and monitoring, not for data access by clients:
// reads return the local state of the node only and there is no write route.
//
// Routes:
//
//	GET  /health       node id and entry count
//	GET  /metrics      counters and gauges in the Prometheus text format
//	GET  /store        all local entries as JSON
//	GET  /store/{key}  one local entry (404 if absent)
//	GET  /peers        replication statistics per peer
//	POST /recover      starts a recovery in the background (202, 409 if one runs)
package admin
