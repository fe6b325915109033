package serve

import (
	"bytes"
	"context"
	"fmt"
	"github.com/ValentinKolb/pKV/lib/cluster"
	"github.com/ValentinKolb/pKV/rpc/common"
	"github.com/ValentinKolb/pKV/rpc/serializer"
	"github.com/ValentinKolb/pKV/rpc/server"
	"github.com/ValentinKolb/pKV/rpc/transport/unix"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// newTestNode creates node 3 of a cluster whose other members are not running
func newTestNode(t *testing.T) *server.RPCServer {
	t.Helper()
	dir := t.TempDir()
	members := make([]string, cluster.Size)
	for i := range members {
		members[i] = filepath.Join(dir, fmt.Sprintf("n%d.sock", i))
	}
	node, err := server.NewRPCServer(common.ServerConfig{
		NodeID:             3,
		Members:            members,
		TimeoutSecond:      1,
		RecoveryRetries:    1,
		RecoveryRetryDelay: time.Millisecond,
	}, unix.NewUnixServerTransport(), unix.NewUnixClientTransport(), serializer.NewBinarySerializer())
	if err != nil {
		t.Fatalf("failed to create node: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		node.Shutdown(ctx)
	})
	return node
}

func runConsole(node *server.RPCServer, input string) (string, bool) {
	var out bytes.Buffer
	quit := newConsole(node, strings.NewReader(input), &out).run()
	return out.String(), quit
}

func TestConsole(t *testing.T) {
	node := newTestNode(t)
	node.Coordinator().Write(3, 30, false)
	node.Coordinator().Write(10, 100, false)
	node.Coordinator().Write(8, 80, false)

	t.Run("Read", func(t *testing.T) {
		out, _ := runConsole(node, "r\n")
		if !strings.Contains(out, "Value: 30") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("Count", func(t *testing.T) {
		out, _ := runConsole(node, "c\n")
		if !strings.Contains(out, "Store size: 3") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("Print", func(t *testing.T) {
		out, _ := runConsole(node, "p\n")
		// key:value:owner+1, sorted by key
		want := "3:30:4\n8:80:2\n10:100:4\n"
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output %q", want, out)
		}
	})

	t.Run("WriteAndGenerateWithoutPeers", func(t *testing.T) {
		// both replication targets of node 3 are down: every client write is rejected
		out, _ := runConsole(node, "w\ng\n")
		if !strings.Contains(out, "rejected") {
			t.Errorf("expected rejected write in %q", out)
		}
		if !strings.Contains(out, "Generated 0 of 20 entries") {
			t.Errorf("unexpected output %q", out)
		}
		if node.Store().Len() != 3 {
			t.Errorf("rejected writes must not change the store, got %d entries", node.Store().Len())
		}
	})

	t.Run("Stats", func(t *testing.T) {
		out, _ := runConsole(node, "s\n")
		if !strings.Contains(out, "Writes rejected") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("Recover", func(t *testing.T) {
		out, _ := runConsole(node, "x\n")
		if !strings.Contains(out, "Recovery") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("InvalidCommand", func(t *testing.T) {
		out, quit := runConsole(node, "z\n\n")
		if !strings.Contains(out, "Invalid command") || quit {
			t.Errorf("unexpected output %q (quit=%v)", out, quit)
		}
	})

	t.Run("Quit", func(t *testing.T) {
		out, quit := runConsole(node, "c\nq\nc\n")
		if !quit {
			t.Error("expected console to quit")
		}
		if strings.Count(out, "Store size") != 1 {
			t.Errorf("commands after q must not run: %q", out)
		}
	})

	t.Run("EndOfInput", func(t *testing.T) {
		if _, quit := runConsole(node, "c\n"); quit {
			t.Error("end of input must not stop the node")
		}
	})
}
