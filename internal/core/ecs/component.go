package ecs

// Removable is implemented by all component stores so the Registry can
// bulk-remove an entity's data from every store on despawn.
type Removable interface {
	Remove(h Handle) bool
}

// Store is a sparse-set component store. Components live in a dense slice,
// so iteration order is deterministic: insertion order, except that Remove
// moves the last element into the freed slot.
type Store[T any] struct {
	index   map[Handle]int
	handles []Handle
	data    []*T
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{
		index:   make(map[Handle]int, 256),
		handles: make([]Handle, 0, 256),
		data:    make([]*T, 0, 256),
	}
}

// Set inserts or replaces the component for h.
func (s *Store[T]) Set(h Handle, c *T) {
	if i, ok := s.index[h]; ok {
		s.data[i] = c
		return
	}
	s.index[h] = len(s.data)
	s.handles = append(s.handles, h)
	s.data = append(s.data, c)
}

func (s *Store[T]) Get(h Handle) (*T, bool) {
	i, ok := s.index[h]
	if !ok {
		return nil, false
	}
	return s.data[i], true
}

func (s *Store[T]) Remove(h Handle) bool {
	i, ok := s.index[h]
	if !ok {
		return false
	}
	last := len(s.data) - 1
	if i != last {
		s.data[i] = s.data[last]
		s.handles[i] = s.handles[last]
		s.index[s.handles[i]] = i
	}
	s.data[last] = nil
	s.data = s.data[:last]
	s.handles = s.handles[:last]
	delete(s.index, h)
	return true
}

func (s *Store[T]) Has(h Handle) bool {
	_, ok := s.index[h]
	return ok
}

func (s *Store[T]) Len() int {
	return len(s.data)
}

// Each visits every component in dense order. fn must not add or remove
// components of this store.
func (s *Store[T]) Each(fn func(Handle, *T)) {
	for i, c := range s.data {
		fn(s.handles[i], c)
	}
}

// Handles returns a snapshot of the stored handles in dense order.
// Use it when the loop body may remove entries.
func (s *Store[T]) Handles() []Handle {
	out := make([]Handle, len(s.handles))
	copy(out, s.handles)
	return out
}
