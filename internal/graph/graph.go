package graph

import (
	"sync"

	"github.com/junioryono/ioc/internal/registry"
)

// EdgeKind tells how one key depends on another.
type EdgeKind int

const (
	// ParamEdge links a key to one of its constructor or factory parameters
	ParamEdge EdgeKind = iota

	// ParentEdge links a factory-produced key to the component that produces it
	ParentEdge

	// ImplementationEdge links an abstract parameter key to its declared implementation
	ImplementationEdge
)

func (k EdgeKind) String() string {
	switch k {
	case ParamEdge:
		return "param"
	case ParentEdge:
		return "parent"
	case ImplementationEdge:
		return "implementation"
	default:
		return "unknown"
	}
}

// Edge is a single dependency relationship.
type Edge struct {
	From registry.Key
	To   registry.Key
	Kind EdgeKind
}

// Node represents a key in the dependency graph.
type Node struct {
	Key registry.Key

	// Owner is the declaring context, nil until attributed
	Owner any

	// Dependencies are the keys this node depends on, in declaration order
	Dependencies []registry.Key

	// Dependents are the keys that depend on this node
	Dependents []registry.Key
}

// DependencyGraph records the dependency relationships walked during attribution.
type DependencyGraph struct {
	mu    sync.RWMutex
	nodes map[registry.Key]*Node
	order []registry.Key
	edges []Edge
	seen  map[Edge]struct{}
}

// NewDependencyGraph creates an empty graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes: make(map[registry.Key]*Node),
		seen:  make(map[Edge]struct{}),
	}
}

// node returns the node for key, creating it if needed. Caller holds the lock.
func (g *DependencyGraph) node(key registry.Key) *Node {
	n, ok := g.nodes[key]
	if !ok {
		n = &Node{Key: key}
		g.nodes[key] = n
		g.order = append(g.order, key)
	}
	return n
}

// AddNode ensures key is present in the graph.
func (g *DependencyGraph) AddNode(key registry.Key) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.node(key)
}

// AddEdge records a dependency from one key to another. Duplicate edges are ignored.
func (g *DependencyGraph) AddEdge(from, to registry.Key, kind EdgeKind) {
	g.mu.Lock()
	defer g.mu.Unlock()

	edge := Edge{From: from, To: to, Kind: kind}
	if _, ok := g.seen[edge]; ok {
		return
	}
	g.seen[edge] = struct{}{}
	g.edges = append(g.edges, edge)

	fromNode := g.node(from)
	toNode := g.node(to)
	fromNode.Dependencies = append(fromNode.Dependencies, to)
	toNode.Dependents = append(toNode.Dependents, from)
}

// SetOwner labels a node with its owner.
func (g *DependencyGraph) SetOwner(key registry.Key, owner any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.node(key).Owner = owner
}

// GetNode returns a copy of the node for key.
func (g *DependencyGraph) GetNode(key registry.Key) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n, ok := g.nodes[key]
	if !ok {
		return Node{}, false
	}
	copied := *n
	copied.Dependencies = append([]registry.Key(nil), n.Dependencies...)
	copied.Dependents = append([]registry.Key(nil), n.Dependents...)
	return copied, true
}

// GetDependencies returns the direct dependencies of key.
func (g *DependencyGraph) GetDependencies(key registry.Key) []registry.Key {
	n, ok := g.GetNode(key)
	if !ok {
		return nil
	}
	return n.Dependencies
}

// GetDependents returns the keys that directly depend on key.
func (g *DependencyGraph) GetDependents(key registry.Key) []registry.Key {
	n, ok := g.GetNode(key)
	if !ok {
		return nil
	}
	return n.Dependents
}

// Edges returns a snapshot of all edges in insertion order.
func (g *DependencyGraph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]Edge(nil), g.edges...)
}

// Keys returns all node keys in insertion order.
func (g *DependencyGraph) Keys() []registry.Key {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]registry.Key(nil), g.order...)
}

// Size returns the number of nodes.
func (g *DependencyGraph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// GetRoots returns nodes nothing depends on.
func (g *DependencyGraph) GetRoots() []registry.Key {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var roots []registry.Key
	for _, key := range g.order {
		if len(g.nodes[key].Dependents) == 0 {
			roots = append(roots, key)
		}
	}
	return roots
}

// GetLeaves returns nodes without dependencies.
func (g *DependencyGraph) GetLeaves() []registry.Key {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var leaves []registry.Key
	for _, key := range g.order {
		if len(g.nodes[key].Dependencies) == 0 {
			leaves = append(leaves, key)
		}
	}
	return leaves
}
