package server

import (
	"github.com/ValentinKolb/pKV/lib/recovery"
	"github.com/ValentinKolb/pKV/rpc/common"
	"github.com/ValentinKolb/pKV/rpc/serializer"
	"net"
	"sync"
	"time"
)

// NewRecoveryServerAdapter creates the adapter answering recovery requests.
// Every accepted request detaches its connection to a responder goroutine tracked by wg.
// At most maxStreams responders run at the same time; further requests are closed immediately.
func NewRecoveryServerAdapter(
	responder *recovery.Responder,
	serializer serializer.IRPCSerializer,
	timeout time.Duration,
	maxStreams int,
	wg *sync.WaitGroup,
) IRPCServerAdapter {
	return &recoveryServerAdapterImpl{
		responder:  responder,
		serializer: serializer,
		timeout:    timeout,
		slots:      make(chan struct{}, maxStreams),
		wg:         wg,
	}
}

type recoveryServerAdapterImpl struct {
	responder  *recovery.Responder
	serializer serializer.IRPCSerializer
	timeout    time.Duration
	slots      chan struct{}
	wg         *sync.WaitGroup
}

func (adapter *recoveryServerAdapterImpl) Opcodes() []common.Opcode {
	return []common.Opcode{common.OpRecoverRequest}
}

func (adapter *recoveryServerAdapterImpl) Handle(req common.Message, conn net.Conn) Response {
	requester := int(req.Arg1)

	select {
	case adapter.slots <- struct{}{}:
	default:
		Logger.Warningf("Rejecting recovery request of node %d: %d streams active", requester, cap(adapter.slots))
		return closeWithoutReply
	}

	adapter.wg.Add(1)
	go func() {
		defer adapter.wg.Done()
		defer func() { <-adapter.slots }()

		w := &connRecordWriter{conn: conn, serializer: adapter.serializer, timeout: adapter.timeout}
		start := time.Now()
		n, err := adapter.responder.Respond(requester, w)
		if err != nil {
			return
		}
		Logger.Infof("Streamed %d entries to node %d in %s", n, requester, time.Since(start))
	}()

	return detached
}

// connRecordWriter writes RECOVER_WRITE records to a detached connection
type connRecordWriter struct {
	conn       net.Conn
	serializer serializer.IRPCSerializer
	timeout    time.Duration
}

func (w *connRecordWriter) WriteEntry(key, value uint16) error {
	if w.timeout > 0 {
		if err := w.conn.SetWriteDeadline(time.Now().Add(w.timeout)); err != nil {
			return err
		}
	}
	_, err := w.conn.Write(w.serializer.Serialize(common.NewRecoverWrite(key, value)))
	return err
}

// Close ends the recovery stream
func (w *connRecordWriter) Close() error {
	return w.conn.Close()
}
