package dependency

import (
	"errors"
	"testing"

	"github.com/readystackgo/rsgo/internal/apperrors"
)

func TestNew(t *testing.T) {
	g := New()
	if g == nil {
		t.Fatal("New() returned nil")
	}
	if g.nodes == nil {
		t.Fatal("nodes map not initialized")
	}
	if len(g.nodes) != 0 {
		t.Fatalf("expected empty nodes map, got %d nodes", len(g.nodes))
	}
}

func TestAddNode(t *testing.T) {
	tests := []struct {
		name     string
		nodes    []Node
		expected int
	}{
		{
			name: "add single node",
			nodes: []Node{
				{ID: "web", FriendlyName: "web", Kind: KindService, DependsOn: nil},
			},
			expected: 1,
		},
		{
			name: "add multiple nodes",
			nodes: []Node{
				{ID: "db", FriendlyName: "db", Kind: KindService, DependsOn: nil},
				{ID: "cache", FriendlyName: "cache", Kind: KindService, DependsOn: []NodeID{"db"}},
				{ID: "web", FriendlyName: "web", Kind: KindService, DependsOn: []NodeID{"cache"}},
			},
			expected: 3,
		},
		{
			name: "replace existing node",
			nodes: []Node{
				{ID: "web", FriendlyName: "web", Kind: KindService, DependsOn: nil},
				{ID: "web", FriendlyName: "web updated", Kind: KindService, DependsOn: []NodeID{"db"}},
			},
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			for _, node := range tt.nodes {
				g.AddNode(node)
			}
			if len(g.nodes) != tt.expected {
				t.Errorf("expected %d nodes, got %d", tt.expected, len(g.nodes))
			}
			if tt.expected > 0 {
				lastNode := tt.nodes[len(tt.nodes)-1]
				if node := g.Get(lastNode.ID); node == nil {
					t.Errorf("node %s not found", lastNode.ID)
				} else if node.FriendlyName != lastNode.FriendlyName {
					t.Errorf("node friendly name mismatch: expected %s, got %s",
						lastNode.FriendlyName, node.FriendlyName)
				}
			}
		})
	}
}

func TestGet(t *testing.T) {
	g := New()

	if node := g.Get("nonexistent"); node != nil {
		t.Error("expected nil for non-existent node")
	}

	testNode := Node{
		ID:           "web",
		FriendlyName: "Web",
		Kind:         KindService,
		DependsOn:    []NodeID{"db", "cache"},
		State:        StateRunning,
	}
	g.AddNode(testNode)

	retrieved := g.Get("web")
	if retrieved == nil {
		t.Fatal("failed to retrieve added node")
	}
	if retrieved.ID != testNode.ID {
		t.Errorf("ID mismatch: expected %s, got %s", testNode.ID, retrieved.ID)
	}
	if retrieved.FriendlyName != testNode.FriendlyName {
		t.Errorf("FriendlyName mismatch: expected %s, got %s", testNode.FriendlyName, retrieved.FriendlyName)
	}
	if retrieved.State != testNode.State {
		t.Errorf("State mismatch: expected %v, got %v", testNode.State, retrieved.State)
	}
	if len(retrieved.DependsOn) != len(testNode.DependsOn) {
		t.Errorf("DependsOn length mismatch: expected %d, got %d",
			len(testNode.DependsOn), len(retrieved.DependsOn))
	}
}

func TestDependencies(t *testing.T) {
	g := New()

	deps := g.Dependencies("nonexistent")
	if len(deps) != 0 {
		t.Errorf("expected empty dependencies for non-existent node, got %v", deps)
	}

	g.AddNode(Node{ID: "db", Kind: KindService})
	g.AddNode(Node{ID: "cache", Kind: KindService, DependsOn: []NodeID{"db"}})
	g.AddNode(Node{ID: "web", Kind: KindService, DependsOn: []NodeID{"cache"}})
	g.AddNode(Node{ID: "worker", Kind: KindService, DependsOn: []NodeID{"cache", "db"}})

	tests := []struct {
		nodeID   NodeID
		expected []NodeID
	}{
		{"db", []NodeID{}},
		{"cache", []NodeID{"db"}},
		{"web", []NodeID{"cache"}},
		{"worker", []NodeID{"cache", "db"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.nodeID), func(t *testing.T) {
			deps := g.Dependencies(tt.nodeID)
			if len(deps) != len(tt.expected) {
				t.Errorf("expected %d dependencies, got %d", len(tt.expected), len(deps))
			}
			for _, exp := range tt.expected {
				found := false
				for _, dep := range deps {
					if dep == exp {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("expected dependency %s not found", exp)
				}
			}
		})
	}
}

func TestDependents(t *testing.T) {
	g := New()

	deps := g.Dependents("nonexistent")
	if len(deps) != 0 {
		t.Errorf("expected empty dependents for non-existent node, got %v", deps)
	}

	g.AddNode(Node{ID: "db", Kind: KindService})
	g.AddNode(Node{ID: "cache1", Kind: KindService, DependsOn: []NodeID{"db"}})
	g.AddNode(Node{ID: "cache2", Kind: KindService, DependsOn: []NodeID{"db"}})
	g.AddNode(Node{ID: "web1", Kind: KindService, DependsOn: []NodeID{"cache1"}})
	g.AddNode(Node{ID: "web2", Kind: KindService, DependsOn: []NodeID{"cache1", "db"}})

	tests := []struct {
		nodeID   NodeID
		expected []NodeID
	}{
		{"db", []NodeID{"cache1", "cache2", "web2"}},
		{"cache1", []NodeID{"web1", "web2"}},
		{"cache2", []NodeID{}},
		{"web1", []NodeID{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.nodeID), func(t *testing.T) {
			deps := g.Dependents(tt.nodeID)
			if len(deps) != len(tt.expected) {
				t.Errorf("expected %d dependents, got %d: %v", len(tt.expected), len(deps), deps)
			}
			for _, exp := range tt.expected {
				found := false
				for _, dep := range deps {
					if dep == exp {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("expected dependent %s not found in %v", exp, deps)
				}
			}
		})
	}
}

func TestComplexDependencyGraph(t *testing.T) {
	g := New()

	g.AddNode(Node{ID: "postgres", Kind: KindService})
	g.AddNode(Node{ID: "redis", Kind: KindService})

	g.AddNode(Node{ID: "migrate", Kind: KindService, DependsOn: []NodeID{"postgres"}})
	g.AddNode(Node{ID: "api", Kind: KindService, DependsOn: []NodeID{"migrate", "redis"}})
	g.AddNode(Node{ID: "worker", Kind: KindService, DependsOn: []NodeID{"migrate", "redis"}})

	postgresDependents := g.Dependents("postgres")
	expected := map[NodeID]bool{"migrate": true}
	for _, dep := range postgresDependents {
		if !expected[dep] {
			t.Errorf("unexpected dependent of postgres: %s", dep)
		}
		delete(expected, dep)
	}
	if len(expected) > 0 {
		t.Errorf("missing dependents of postgres: %v", expected)
	}

	migrateDependents := g.Dependents("migrate")
	if len(migrateDependents) != 2 {
		t.Errorf("expected 2 dependents of migrate, got %v", migrateDependents)
	}
}

func TestTopoSortOrdersDependenciesFirst(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "db", Kind: KindService})
	g.AddNode(Node{ID: "cache", Kind: KindService, DependsOn: []NodeID{"db"}})
	g.AddNode(Node{ID: "web", Kind: KindService, DependsOn: []NodeID{"db", "cache"}})

	order, err := g.TopoSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pos := map[NodeID]int{}
	for i, id := range order {
		pos[id] = i
	}
	if pos["db"] > pos["cache"] {
		t.Errorf("db must come before cache: %v", order)
	}
	if pos["cache"] > pos["web"] {
		t.Errorf("cache must come before web: %v", order)
	}
}

func TestTopoSortStableForEqualGraphs(t *testing.T) {
	build := func() *Graph {
		g := New()
		g.AddNode(Node{ID: "b", Kind: KindService})
		g.AddNode(Node{ID: "a", Kind: KindService})
		g.AddNode(Node{ID: "c", Kind: KindService, DependsOn: []NodeID{"a", "b"}})
		return g
	}

	first, err := build().TopoSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := build().TopoSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("length mismatch: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("unstable ordering at index %d: %v vs %v", i, first, second)
		}
	}
}

func TestTopoSortTiesBreakByDeclarationOrderNotAlphabetical(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "zebra", Kind: KindService})
	g.AddNode(Node{ID: "apple", Kind: KindService})
	g.AddNode(Node{ID: "mango", Kind: KindService})

	order, err := g.TopoSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []NodeID{"zebra", "apple", "mango"}
	if len(order) != len(want) {
		t.Fatalf("length mismatch: %v vs %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("expected declaration order %v, got %v", want, order)
			break
		}
	}
}

func TestTopoSortDependencyTieBreakUsesDeclarationOrder(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "db", Kind: KindService})
	g.AddNode(Node{ID: "cache", Kind: KindService})
	g.AddNode(Node{ID: "web", Kind: KindService, DependsOn: []NodeID{"cache", "db"}})

	order, err := g.TopoSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pos := map[NodeID]int{}
	for i, id := range order {
		pos[id] = i
	}
	if pos["db"] > pos["cache"] {
		t.Errorf("db was declared before cache, so it must come first: %v", order)
	}
}

func TestTopoSortDetectsCycle(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "a", Kind: KindService, DependsOn: []NodeID{"b"}})
	g.AddNode(Node{ID: "b", Kind: KindService, DependsOn: []NodeID{"c"}})
	g.AddNode(Node{ID: "c", Kind: KindService, DependsOn: []NodeID{"a"}})

	_, err := g.TopoSort()
	if err == nil {
		t.Fatal("expected cycle error, got nil")
	}
	var cycleErr *apperrors.CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected *apperrors.CycleError, got %T: %v", err, err)
	}
	if len(cycleErr.Path) == 0 {
		t.Error("expected a non-empty cycle path")
	}
}

func TestHasCycle(t *testing.T) {
	clean := New()
	clean.AddNode(Node{ID: "a", Kind: KindService})
	clean.AddNode(Node{ID: "b", Kind: KindService, DependsOn: []NodeID{"a"}})
	if clean.HasCycle() {
		t.Error("expected no cycle")
	}

	cyclic := New()
	cyclic.AddNode(Node{ID: "a", Kind: KindService, DependsOn: []NodeID{"b"}})
	cyclic.AddNode(Node{ID: "b", Kind: KindService, DependsOn: []NodeID{"a"}})
	if !cyclic.HasCycle() {
		t.Error("expected a cycle")
	}
}
