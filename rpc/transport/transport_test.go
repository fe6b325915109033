package transport_test

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/pKV/rpc/common"
	"github.com/ValentinKolb/pKV/rpc/transport"
	"github.com/ValentinKolb/pKV/rpc/transport/tcp"
	"github.com/ValentinKolb/pKV/rpc/transport/unix"
	"net"
	"path/filepath"
	"testing"
	"time"
)

// startServer starts a server transport for node 0 and waits until it accepts connections
func startServer(t *testing.T, srv transport.IRPCServerTransport, endpoint, network string, handler transport.ServerHandleFunc) {
	t.Helper()
	srv.RegisterHandler(handler)

	members := make([]string, 7)
	for i := range members {
		members[i] = fmt.Sprintf("unused-%d", i)
	}
	members[0] = endpoint
	config := common.ServerConfig{NodeID: 0, Members: members, TimeoutSecond: 2, MaxConnections: 4}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Listen(config) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		conn, err := net.Dial(network, endpoint)
		if err == nil {
			conn.Close()
			break
		}
		select {
		case err := <-errCh:
			t.Fatalf("Listen failed: %v", err)
		default:
		}
		if time.Now().After(deadline) {
			t.Fatalf("server did not start: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	t.Cleanup(func() {
		if err := srv.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
		if err := <-errCh; err != nil {
			t.Errorf("Listen returned error after Close: %v", err)
		}
	})
}

func newClient(t *testing.T, c transport.IRPCClientTransport, endpoint string) transport.IRPCClientTransport {
	t.Helper()
	if err := c.Connect(common.ClientConfig{Members: []string{endpoint}, TimeoutSecond: 2}); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	return c
}

// echoHandler replies with the last two bytes of the request
func echoHandler(req []byte, conn net.Conn) ([]byte, bool) {
	if len(req) != common.RecordSize {
		return nil, false
	}
	return req[4:6], false
}

func TestUnixTransport(t *testing.T) {
	endpoint := filepath.Join(t.TempDir(), "node0.sock")

	streamHandler := func(req []byte, conn net.Conn) ([]byte, bool) {
		switch req[0] {
		case 'S':
			// Detach and stream three records from another goroutine
			go func() {
				defer conn.Close()
				for i := byte(0); i < 3; i++ {
					conn.Write([]byte{'R', 0, 0, i, 0, 0})
				}
			}()
			return nil, true
		case 'T':
			// Truncated stream
			conn.Write([]byte{'R', 0, 0})
			return nil, false
		case 'N':
			return nil, false
		default:
			return echoHandler(req, conn)
		}
	}
	startServer(t, unix.NewUnixServerTransport(), endpoint, "unix", streamHandler)
	client := newClient(t, unix.NewUnixClientTransport(), endpoint)

	t.Run("Call", func(t *testing.T) {
		resp, err := client.Call(endpoint, []byte{'E', 0, 0, 0, 0xAB, 0xCD})
		if err != nil {
			t.Fatalf("Call failed: %v", err)
		}
		if len(resp) != common.ReplySize || resp[0] != 0xAB || resp[1] != 0xCD {
			t.Errorf("unexpected reply %v", resp)
		}
	})

	t.Run("CallWithoutReply", func(t *testing.T) {
		if _, err := client.Call(endpoint, []byte{'N', 0, 0, 0, 0, 0}); err == nil {
			t.Error("expected error when the server closes without reply")
		}
	})

	t.Run("Stream", func(t *testing.T) {
		var got []byte
		err := client.Stream(endpoint, []byte{'S', 0, 0, 0, 0, 0}, func(record []byte) error {
			if len(record) != common.RecordSize {
				t.Errorf("record has %d bytes", len(record))
			}
			got = append(got, record[3])
			return nil
		})
		if err != nil {
			t.Fatalf("Stream failed: %v", err)
		}
		if len(got) != 3 || got[0] != 0 || got[1] != 1 || got[2] != 2 {
			t.Errorf("unexpected records %v", got)
		}
	})

	t.Run("TruncatedStream", func(t *testing.T) {
		n := 0
		err := client.Stream(endpoint, []byte{'T', 0, 0, 0, 0, 0}, func(record []byte) error {
			n++
			return nil
		})
		if err == nil {
			t.Error("expected error for a truncated record")
		}
		if n != 0 {
			t.Errorf("expected no complete records, got %d", n)
		}
	})

	t.Run("StreamCallbackError", func(t *testing.T) {
		stop := errors.New("stop")
		err := client.Stream(endpoint, []byte{'S', 0, 0, 0, 0, 0}, func(record []byte) error {
			return stop
		})
		if !errors.Is(err, stop) {
			t.Errorf("expected callback error, got %v", err)
		}
	})

	t.Run("ShortRequest", func(t *testing.T) {
		lengths := make(chan int, 1)
		shortEndpoint := filepath.Join(t.TempDir(), "short.sock")
		startServer(t, unix.NewUnixServerTransport(), shortEndpoint, "unix", func(req []byte, conn net.Conn) ([]byte, bool) {
			lengths <- len(req)
			return nil, false
		})

		conn, err := net.Dial("unix", shortEndpoint)
		if err != nil {
			t.Fatalf("dial failed: %v", err)
		}
		conn.Write([]byte{1, 2, 3})
		conn.Close()

		select {
		case n := <-lengths:
			if n != 3 {
				t.Errorf("expected handler to see 3 bytes, got %d", n)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("handler was not called")
		}
	})
}

func TestConnectError(t *testing.T) {
	endpoint := filepath.Join(t.TempDir(), "missing.sock")
	client := newClient(t, unix.NewUnixClientTransport(), endpoint)

	_, err := client.Call(endpoint, make([]byte, common.RecordSize))
	if !errors.Is(err, transport.ErrConnect) {
		t.Errorf("expected ErrConnect, got %v", err)
	}

	err = client.Stream(endpoint, make([]byte, common.RecordSize), func([]byte) error { return nil })
	if !errors.Is(err, transport.ErrConnect) {
		t.Errorf("expected ErrConnect, got %v", err)
	}
}

func TestTCPTransport(t *testing.T) {
	// Reserve a free port
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	endpoint := l.Addr().String()
	l.Close()

	startServer(t, tcp.NewTCPServerTransport(), endpoint, "tcp", echoHandler)
	client := newClient(t, tcp.NewTCPClientTransport(), endpoint)

	for i := 0; i < 10; i++ {
		resp, err := client.Call(endpoint, []byte{0, 0, 0, 0, 0, byte(i)})
		if err != nil {
			t.Fatalf("Call %d failed: %v", i, err)
		}
		if resp[1] != byte(i) {
			t.Errorf("Call %d: unexpected reply %v", i, resp)
		}
	}
}

func TestCloseBeforeListen(t *testing.T) {
	srv := unix.NewUnixServerTransport()
	srv.RegisterHandler(echoHandler)
	if err := srv.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	members := []string{filepath.Join(t.TempDir(), "n.sock"), "a", "b", "c", "d", "e", "f"}
	if err := srv.Listen(common.ServerConfig{NodeID: 0, Members: members}); err != nil {
		t.Errorf("expected Listen after Close to return nil, got %v", err)
	}
}
