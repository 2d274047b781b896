package graph

import (
	"sync"

	"github.com/junioryono/ioc/internal/registry"
)

// Source exposes the declared structure the tracker walks.
// *registry.Store implements it.
type Source interface {
	Parent(key registry.Key) (registry.Parent, bool)
	Params(key registry.Key) []registry.Key
	FindImplementation(key registry.Key) registry.Key
}

// Tracker attributes every declared key to the owner that declared it and
// detects dependency cycles while doing so.
type Tracker struct {
	mu     sync.RWMutex
	owners map[registry.Key]any
	order  []registry.Key

	graph *DependencyGraph
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		owners: make(map[registry.Key]any),
		graph:  NewDependencyGraph(),
	}
}

// Graph returns the dependency graph recorded during attribution.
func (t *Tracker) Graph() *DependencyGraph {
	return t.graph
}

// SetOwner records owner for key unless key already has one.
// It reports whether the owner was recorded.
func (t *Tracker) SetOwner(key registry.Key, owner any) bool {
	t.mu.Lock()
	if _, ok := t.owners[key]; ok {
		t.mu.Unlock()
		return false
	}
	t.owners[key] = owner
	t.order = append(t.order, key)
	t.mu.Unlock()

	t.graph.SetOwner(key, owner)
	return true
}

// Owner returns the owner attributed to key.
func (t *Tracker) Owner(key registry.Key) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	owner, ok := t.owners[key]
	return owner, ok
}

// HasOwner reports whether key has been attributed.
func (t *Tracker) HasOwner(key registry.Key) bool {
	_, ok := t.Owner(key)
	return ok
}

// Owned returns a snapshot of the attributed keys in attribution order.
func (t *Tracker) Owned() []registry.Key {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]registry.Key(nil), t.order...)
}

// Len returns the number of attributed keys.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.order)
}

// Attribute records owner for key and, transitively, for its factory parent and
// parameters. Keys that already have an owner are left untouched. A key found
// on its own dependency path yields a CircularDependencyError.
func (t *Tracker) Attribute(owner any, key registry.Key, source Source) error {
	return t.attribute(owner, key, source, nil)
}

func (t *Tracker) attribute(owner any, key registry.Key, source Source, path []registry.Key) error {
	if onPath(path, key) {
		return cycle(path, key)
	}
	if t.HasOwner(key) {
		return nil
	}

	path = append(path[:len(path):len(path)], key)
	t.graph.AddNode(key)

	if parent, ok := source.Parent(key); ok {
		t.graph.AddEdge(key, parent.Key, ParentEdge)
		if err := t.attribute(owner, parent.Key, source, path); err != nil {
			return err
		}
	}

	t.SetOwner(key, owner)

	for _, param := range source.Params(key) {
		t.graph.AddEdge(key, param, ParamEdge)
		if err := t.attribute(owner, param, source, path); err != nil {
			return err
		}

		// Resolution substitutes the declared implementation, so walk it as well.
		impl := source.FindImplementation(param)
		if impl == param {
			continue
		}
		t.graph.AddEdge(param, impl, ImplementationEdge)
		visited := make(map[registry.Key]struct{})
		if err := t.check(impl, source, append(path[:len(path):len(path)], param), visited); err != nil {
			return err
		}
	}

	return nil
}

// check walks key without attributing it, looking only for cycles back onto path.
func (t *Tracker) check(key registry.Key, source Source, path []registry.Key, visited map[registry.Key]struct{}) error {
	if onPath(path, key) {
		return cycle(path, key)
	}
	if _, ok := visited[key]; ok {
		return nil
	}
	visited[key] = struct{}{}

	path = append(path[:len(path):len(path)], key)

	if parent, ok := source.Parent(key); ok {
		if err := t.check(parent.Key, source, path, visited); err != nil {
			return err
		}
	}

	for _, param := range source.Params(key) {
		if err := t.check(param, source, path, visited); err != nil {
			return err
		}
		if impl := source.FindImplementation(param); impl != param {
			if err := t.check(impl, source, append(path[:len(path):len(path)], param), visited); err != nil {
				return err
			}
		}
	}

	return nil
}

func onPath(path []registry.Key, key registry.Key) bool {
	for _, k := range path {
		if k == key {
			return true
		}
	}
	return false
}

func cycle(path []registry.Key, key registry.Key) error {
	full := make([]registry.Key, 0, len(path)+1)
	full = append(full, path...)
	full = append(full, key)
	return CircularDependencyError{Node: key, Path: full}
}
