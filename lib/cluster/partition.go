package cluster

// --------------------------------------------------------------------------
// Partitioning Constants
// --------------------------------------------------------------------------

const (
	// Size is the fixed number of nodes in a cluster
	Size = 7
	// ReplicationFactor is the number of nodes holding a copy of each key
	ReplicationFactor = 3
)

// --------------------------------------------------------------------------
// Role of a node for a key
// --------------------------------------------------------------------------

// Role describes the position of a node inside the replica set of a key.
type Role uint8

const (
	RoleNone         Role = iota // node does not hold the key
	RolePrimary                  // node is the owner of the key
	RoleFirstBackup              // node is the first trailing backup
	RoleSecondBackup             // node is the second trailing backup
)

func (r Role) String() string {
	switch r {
	case RolePrimary:
		return "primary"
	case RoleFirstBackup:
		return "first backup"
	case RoleSecondBackup:
		return "second backup"
	default:
		return "none"
	}
}

// --------------------------------------------------------------------------
// Partitioner
// --------------------------------------------------------------------------

// OwnerIndex returns the index of the node owning the key (key mod Size).
func OwnerIndex(key uint16) int {
	return int(key) % Size
}

// ReplicaSet returns the three nodes holding the key in priority order.
// The set wraps around the end of the membership list.
func ReplicaSet(key uint16) [ReplicationFactor]int {
	owner := OwnerIndex(key)
	var set [ReplicationFactor]int
	for i := range set {
		set[i] = Wrap(owner + i)
	}
	return set
}

// RoleOf returns the role node plays for key.
func RoleOf(key uint16, node int) Role {
	switch Wrap(node - OwnerIndex(key)) {
	case 0:
		return RolePrimary
	case 1:
		return RoleFirstBackup
	case 2:
		return RoleSecondBackup
	default:
		return RoleNone
	}
}

// IsInReplicaSet reports whether node holds a copy of key. This is the case iff
// the owner of the key is node, node-1 or node-2 (mod Size).
func IsInReplicaSet(key uint16, node int) bool {
	return RoleOf(key, node) != RoleNone
}

// Wrap maps any (possibly negative) index onto [0, Size).
func Wrap(i int) int {
	return ((i % Size) + Size) % Size
}
