// Package dependency builds dependency graphs over a stack's services and
// exposes a stable topological ordering for the deployment planner, with
// sort and cycle detection over a small in-memory graph.
package dependency

import (
	"sort"

	"github.com/readystackgo/rsgo/internal/apperrors"
)

// NodeState represents the lifecycle state of a node (service). It can be
// used by higher-level orchestration logic to report progress. At the
// moment it is informational only.
type NodeState int

const (
	StateUnknown NodeState = iota
	StateStopped
	StateStarting
	StateRunning
	StateError
)

// NodeID is the unique identifier for a node inside a dependency graph. We
// purposely keep it as a string alias so that callers can freely choose an
// encoding scheme (e.g. a service name within a stack).
type NodeID string

// NodeKind categorises nodes. The current domain needs just one kind
// (container service) but we keep it extensible.
type NodeKind int

const (
	KindUnknown NodeKind = iota
	KindService
)

// Node represents a runtime unit (a service within a stack) together with
// its dependency list.
//
// A node can depend on zero or more other nodes. The graph should
// therefore be a Directed Acyclic Graph (DAG); TopoSort reports a
// CycleError when it is not.
type Node struct {
	ID           NodeID
	FriendlyName string
	Kind         NodeKind
	DependsOn    []NodeID
	State        NodeState
}

// Graph is a small helper to answer dependency queries. It is *not*
// thread-safe by itself; callers must synchronise if they write
// concurrently.
type Graph struct {
	nodes map[NodeID]*Node

	// seq records each node's first-insertion order, so TopoSort can break
	// ties by declaration order instead of an arbitrary one.
	seq  map[NodeID]int
	next int
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[NodeID]*Node), seq: make(map[NodeID]int)}
}

// AddNode adds (or replaces) a node in the graph. A node's declaration
// sequence is fixed by its first AddNode call; replacing it later does not
// move it.
func (g *Graph) AddNode(n Node) {
	if g.nodes == nil {
		g.nodes = make(map[NodeID]*Node)
		g.seq = make(map[NodeID]int)
	}
	// Copy to avoid external mutations
	copied := n
	g.nodes[n.ID] = &copied
	if _, ok := g.seq[n.ID]; !ok {
		g.seq[n.ID] = g.next
		g.next++
	}
}

// Get returns a pointer to the stored node or nil if it does not exist.
func (g *Graph) Get(id NodeID) *Node {
	return g.nodes[id]
}

// Dependencies returns a slice of immediate dependency IDs for the given node.
func (g *Graph) Dependencies(id NodeID) []NodeID {
	if n, ok := g.nodes[id]; ok {
		// Return a copy to avoid callers modifying internal slice.
		depsCopy := make([]NodeID, len(n.DependsOn))
		copy(depsCopy, n.DependsOn)
		return depsCopy
	}
	return nil
}

// Dependents returns all node IDs that have a direct dependency on the given
// node. This is an expensive O(n) walk but the graph is tiny, so fine.
func (g *Graph) Dependents(id NodeID) []NodeID {
	var res []NodeID
	for _, n := range g.nodes {
		for _, dep := range n.DependsOn {
			if dep == id {
				res = append(res, n.ID)
				break
			}
		}
	}
	return res
}

// TopoSort returns node IDs in dependency order (a node always appears
// after everything it depends on). Ties are broken by declaration order —
// the order nodes were first added via AddNode — so the result is stable
// across runs given the same graph and matches the order a stack's
// services were written in its manifest. Returns a *apperrors.CycleError
// naming the offending path when the graph is not a DAG.
func (g *Graph) TopoSort() ([]NodeID, error) {
	ids := make([]NodeID, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return g.seq[ids[i]] < g.seq[ids[j]] })

	const (
		unvisited = 0
		visiting  = 1
		visited   = 2
	)
	state := make(map[NodeID]int, len(g.nodes))
	order := make([]NodeID, 0, len(g.nodes))
	var path []string

	var visit func(id NodeID) error
	visit = func(id NodeID) error {
		switch state[id] {
		case visited:
			return nil
		case visiting:
			cyclePath := append(append([]string(nil), path...), string(id))
			return apperrors.NewCycleError(cyclePath)
		}
		state[id] = visiting
		path = append(path, string(id))

		deps := g.Dependencies(id)
		sort.Slice(deps, func(i, j int) bool { return g.seq[deps[i]] < g.seq[deps[j]] })
		for _, dep := range deps {
			if _, ok := g.nodes[dep]; !ok {
				continue // dangling reference, not this layer's concern
			}
			if err := visit(dep); err != nil {
				return err
			}
		}

		path = path[:len(path)-1]
		state[id] = visited
		order = append(order, id)
		return nil
	}

	for _, id := range ids {
		if err := visit(id); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// HasCycle reports whether the graph contains a dependency cycle.
func (g *Graph) HasCycle() bool {
	_, err := g.TopoSort()
	return err != nil
}
