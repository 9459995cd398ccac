package sim

import "fmt"

// Node is a single simulated participant: a dense, small-integer id, a
// position on the toroidal-ish rectangular map used only by latency and
// partitioning, and the counters the kernel maintains on its behalf.
type Node struct {
	ID        int
	X, Y      int
	Down      bool
	Byzantine bool

	MsgSent, MsgReceived     int
	BytesSent, BytesReceived int64

	// DoneAt is the virtual time at which this node's protocol completed;
	// zero means not done.
	DoneAt int
}

// NewNode creates a node with the given id and position. Counters start at
// zero and DoneAt is unset.
func NewNode(id, x, y int) *Node {
	return &Node{ID: id, X: x, Y: y}
}

// Registry is the dense vector of nodes indexed by id, enforcing the
// invariant registry[id].ID == id. Ids form [0, n) when nodes are added
// without skipping an id; a skipped id is left as a nil entry.
type Registry struct {
	nodes []*Node
}

// Add registers n at its own id. It fails if that id is already occupied.
func (r *Registry) Add(n *Node) error {
	if n == nil {
		return fmt.Errorf("sim: cannot register a nil node")
	}
	if n.ID < 0 {
		return fmt.Errorf("sim: node id must be non-negative, got %d", n.ID)
	}
	for len(r.nodes) <= n.ID {
		r.nodes = append(r.nodes, nil)
	}
	if r.nodes[n.ID] != nil {
		return fmt.Errorf("sim: node id %d already registered", n.ID)
	}
	r.nodes[n.ID] = n
	return nil
}

// Get returns the node at id, or nil if unregistered.
func (r *Registry) Get(id int) *Node {
	if id < 0 || id >= len(r.nodes) {
		return nil
	}
	return r.nodes[id]
}

// Len returns one past the highest registered id (the registry's dense size).
func (r *Registry) Len() int { return len(r.nodes) }

// All returns every registered node, in id order. Ids that Add skipped over
// appear as nil.
func (r *Registry) All() []*Node {
	out := make([]*Node, len(r.nodes))
	copy(out, r.nodes)
	return out
}
