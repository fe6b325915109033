package serve

import (
	"bufio"
	"errors"
	"fmt"
	"github.com/ValentinKolb/pKV/lib/cluster"
	"github.com/ValentinKolb/pKV/lib/recovery"
	"github.com/ValentinKolb/pKV/lib/store"
	"github.com/ValentinKolb/pKV/rpc/server"
	"github.com/lni/dragonboat/v4/logger"
	"io"
	"math/rand"
	"sort"
	"strings"
)

var Logger = logger.GetLogger("console")

// generateCount is the number of writes issued by the generate command
const generateCount = 20

// console reads single-letter operator commands, one per line
type console struct {
	node *server.RPCServer
	in   io.Reader
	out  io.Writer
	rand *rand.Rand
}

func newConsole(node *server.RPCServer, in io.Reader, out io.Writer) *console {
	return &console{
		node: node,
		in:   in,
		out:  out,
		rand: rand.New(rand.NewSource(rand.Int63())),
	}
}

// run processes commands until q is entered (returns true) or the input ends (returns false)
func (c *console) run() bool {
	fmt.Fprintln(c.out, "Commands Read, Write, Print, Count, Generate, XRecover, Stats, Quit [r,w,p,c,g,x,s,q]:")

	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if c.execute(line[0]) {
			return true
		}
	}
	if err := scanner.Err(); err != nil {
		Logger.Warningf("Console input failed: %v", err)
	}
	return false
}

// randNum returns a random number in [lo, hi]
func (c *console) randNum(lo, hi int) uint16 {
	return uint16(lo + c.rand.Intn(hi-lo+1))
}

// execute runs a single command and reports whether the node should quit
func (c *console) execute(cmd byte) bool {
	self := c.node.NodeID()

	switch cmd {
	case 'r':
		// the node's own index is used as key
		value, _ := c.node.Store().Get(uint16(self))
		fmt.Fprintf(c.out, "Value: %d\n", value)

	case 'w':
		value := c.randNum(1, 100)
		ok := c.node.Coordinator().Write(uint16(self), value, true)
		fmt.Fprintf(c.out, "Write %d=%d: %s\n", self, value, outcome(ok))

	case 'p':
		entries := store.Snapshot(c.node.Store(), nil)
		sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
		for _, e := range entries {
			fmt.Fprintf(c.out, "%d:%d:%d\n", e.Key, e.Value, cluster.OwnerIndex(e.Key)+1)
		}

	case 'c':
		fmt.Fprintf(c.out, "Store size: %d\n", c.node.Store().Len())

	case 'g':
		// keys owned by this node
		committed := 0
		for i := 0; i < generateCount; i++ {
			key := c.randNum(1, 100)*cluster.Size + uint16(self)
			if c.node.Coordinator().Write(key, c.randNum(1, 1000), true) {
				committed++
			}
		}
		fmt.Fprintf(c.out, "Generated %d of %d entries\n", committed, generateCount)

	case 'x':
		err := c.node.StartRecovery()
		switch {
		case err == nil:
			fmt.Fprintln(c.out, "Recovery started")
		case errors.Is(err, recovery.ErrRecoveryInProgress):
			fmt.Fprintln(c.out, "Recovery already in progress")
		default:
			fmt.Fprintf(c.out, "Failed to start recovery: %v\n", err)
		}

	case 's':
		fmt.Fprint(c.out, c.node.Metrics().String())

	case 'q':
		return true

	default:
		fmt.Fprintln(c.out, "Invalid command")
	}
	return false
}

func outcome(ok bool) string {
	if ok {
		return "committed"
	}
	return "rejected"
}
