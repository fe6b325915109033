package cluster

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidMembers is returned if the membership list does not contain exactly Size distinct endpoints
	ErrInvalidMembers = errors.New("invalid cluster members")
	// ErrInvalidNode is returned for node indices outside [0, Size)
	ErrInvalidNode = errors.New("invalid node index")
)

// neighbourOffsets are the topologically nearest nodes contacted during recovery
var neighbourOffsets = []int{-2, -1, 1, 2}

// Cluster is the immutable, ordered membership of a pKV cluster.
type Cluster struct {
	members []string
}

// New creates a cluster from an ordered list of endpoints.
// The list must contain exactly Size non-empty, distinct endpoints.
func New(members []string) (*Cluster, error) {
	if len(members) != Size {
		return nil, fmt.Errorf("%w: expected %d members, got %d", ErrInvalidMembers, Size, len(members))
	}

	seen := make(map[string]struct{}, len(members))
	copied := make([]string, len(members))
	for i, m := range members {
		m = strings.TrimSpace(m)
		if m == "" {
			return nil, fmt.Errorf("%w: member %d is empty", ErrInvalidMembers, i)
		}
		if _, ok := seen[m]; ok {
			return nil, fmt.Errorf("%w: duplicate member %s", ErrInvalidMembers, m)
		}
		seen[m] = struct{}{}
		copied[i] = m
	}

	return &Cluster{members: copied}, nil
}

// Size returns the number of nodes.
func (c *Cluster) Size() int {
	return len(c.members)
}

// Address returns the endpoint of the node with the given index.
func (c *Cluster) Address(node int) string {
	return c.members[Wrap(node)]
}

// Members returns a copy of the ordered endpoint list.
func (c *Cluster) Members() []string {
	out := make([]string, len(c.members))
	copy(out, c.members)
	return out
}

// Validate returns ErrInvalidNode if node is not a valid index into the membership list.
func (c *Cluster) Validate(node int) error {
	if node < 0 || node >= len(c.members) {
		return fmt.Errorf("%w: %d (must be between 0 and %d)", ErrInvalidNode, node, len(c.members)-1)
	}
	return nil
}

// ReplicationTargets returns the n nodes following self (self+1 .. self+n).
func (c *Cluster) ReplicationTargets(self, n int) []int {
	targets := make([]int, 0, n)
	for i := 1; i <= n; i++ {
		targets = append(targets, Wrap(self+i))
	}
	return targets
}

// Neighbours returns the four nodes at offsets -2, -1, +1 and +2 from self.
// Together they hold every key self is responsible for.
func (c *Cluster) Neighbours(self int) []int {
	out := make([]int, 0, len(neighbourOffsets))
	for _, off := range neighbourOffsets {
		out = append(out, Wrap(self+off))
	}
	return out
}
