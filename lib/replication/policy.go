package replication

// DefaultMaxUnreachable is the number of failed forwards a write tolerates
const DefaultMaxUnreachable = 1

// TolerancePolicy decides whether a write may be committed after its fan-out
type TolerancePolicy struct {
	MaxUnreachable int
}

// DefaultPolicy returns the policy used by pKV nodes
func DefaultPolicy() TolerancePolicy {
	return TolerancePolicy{MaxUnreachable: DefaultMaxUnreachable}
}

// Allow reports whether a write with the given number of attempted and
// successful forwards may be committed.
func (p TolerancePolicy) Allow(attempted, succeeded int) bool {
	return attempted-succeeded <= p.MaxUnreachable
}
