package server

import (
	"github.com/ValentinKolb/pKV/lib/metrics"
	"github.com/ValentinKolb/pKV/lib/replication"
	"github.com/ValentinKolb/pKV/rpc/common"
	"net"
)

// NewKVServerAdapter creates the adapter serving reads, client writes and replica writes
func NewKVServerAdapter(coordinator *replication.Coordinator, m *metrics.Metrics) IRPCServerAdapter {
	return &kvServerAdapterImpl{coordinator: coordinator, metrics: m}
}

type kvServerAdapterImpl struct {
	coordinator *replication.Coordinator
	metrics     *metrics.Metrics
}

func (adapter *kvServerAdapterImpl) Opcodes() []common.Opcode {
	return []common.Opcode{common.OpReadRequest, common.OpWriteRequest, common.OpReplicateWrite}
}

func (adapter *kvServerAdapterImpl) Handle(req common.Message, _ net.Conn) Response {
	switch req.Op {
	case common.OpReadRequest:
		adapter.metrics.IncReads()
		// absent keys are answered with the 0 sentinel
		value, _ := adapter.coordinator.Store().Get(req.Arg1)
		return reply(value)

	case common.OpWriteRequest:
		ok := adapter.coordinator.Write(req.Arg1, req.Arg2, true)
		return reply(common.BoolReply(ok))

	case common.OpReplicateWrite:
		adapter.metrics.IncReplicaWrites()
		if !adapter.coordinator.Write(req.Arg1, req.Arg2, false) {
			Logger.Warningf("Ignored replica write %d=%d", req.Arg1, req.Arg2)
		}
		// The sender only waits for any reply; echo the key
		return reply(req.Arg1)

	default:
		return closeWithoutReply
	}
}
