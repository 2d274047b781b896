package ioc

import (
	"sync"
)

// beanRegistry provides thread-safe storage for realized singletons, one per key.
type beanRegistry struct {
	beans map[Key]any
	order []Key
	mu    sync.RWMutex
}

// newBeanRegistry creates an empty bean registry
func newBeanRegistry() *beanRegistry {
	return &beanRegistry{
		beans: make(map[Key]any),
	}
}

// get retrieves an instance from the registry
func (r *beanRegistry) get(key Key) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bean, ok := r.beans[key]
	return bean, ok
}

// set stores an instance, replacing any previous instance at key
func (r *beanRegistry) set(key Key, bean any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.beans[key]; !ok {
		r.order = append(r.order, key)
	}
	r.beans[key] = bean
}

// len returns the number of stored instances
func (r *beanRegistry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.beans)
}

// all returns every stored instance in first-registration order
func (r *beanRegistry) all() []QualifiedBean {
	r.mu.RLock()
	defer r.mu.RUnlock()

	beans := make([]QualifiedBean, 0, len(r.order))
	for _, key := range r.order {
		beans = append(beans, QualifiedBean{Key: key, Bean: r.beans[key], Qualifier: key.Qualifier})
	}
	return beans
}
