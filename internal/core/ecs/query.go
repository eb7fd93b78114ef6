package ecs

// Each2 visits entities that have both component A and B, in the dense order
// of sa so the visit order is reproducible.
func Each2[A, B any](sa *Store[A], sb *Store[B], fn func(Handle, *A, *B)) {
	for i, a := range sa.data {
		h := sa.handles[i]
		if b, ok := sb.Get(h); ok {
			fn(h, a, b)
		}
	}
}
