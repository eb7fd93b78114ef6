package ecs

// Registry tracks all component stores and supports bulk cleanup on despawn.
type Registry struct {
	stores []Removable
}

func NewRegistry() *Registry {
	return &Registry{
		stores: make([]Removable, 0, 16),
	}
}

// Register adds a component store to the registry.
func (r *Registry) Register(store Removable) {
	r.stores = append(r.stores, store)
}

// RemoveAll clears the given entity from every registered component store
// and reports how many stores held it.
func (r *Registry) RemoveAll(h Handle) int {
	n := 0
	for _, s := range r.stores {
		if s.Remove(h) {
			n++
		}
	}
	return n
}
