package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolRecyclesWithNewGeneration(t *testing.T) {
	p := NewEntityPool()
	a := p.Create()
	require.False(t, a.IsZero())
	require.True(t, p.Alive(a))

	require.True(t, p.Destroy(a))
	assert.False(t, p.Alive(a))
	assert.False(t, p.Destroy(a), "second destroy of a stale handle is a no-op")

	b := p.Create()
	assert.Equal(t, a.Index(), b.Index(), "slot is reused")
	assert.NotEqual(t, a.Generation(), b.Generation())
	assert.False(t, p.Alive(a))
	assert.True(t, p.Alive(b))
	assert.Equal(t, 1, p.Len())
}

func TestStoreOrderAndRemove(t *testing.T) {
	s := NewStore[int]()
	vals := []int{10, 20, 30}
	hs := []Handle{NewHandle(0, 1), NewHandle(1, 1), NewHandle(2, 1)}
	for i, h := range hs {
		v := vals[i]
		s.Set(h, &v)
	}

	var seen []int
	s.Each(func(_ Handle, v *int) { seen = append(seen, *v) })
	assert.Equal(t, []int{10, 20, 30}, seen)

	require.True(t, s.Remove(hs[0]))
	assert.False(t, s.Remove(hs[0]))
	seen = seen[:0]
	s.Each(func(_ Handle, v *int) { seen = append(seen, *v) })
	assert.Equal(t, []int{30, 20}, seen, "last element fills the removed slot")

	v, ok := s.Get(hs[2])
	require.True(t, ok)
	assert.Equal(t, 30, *v)
}

func TestRegistryRemoveAll(t *testing.T) {
	a := NewStore[int]()
	b := NewStore[string]()
	r := NewRegistry()
	r.Register(a)
	r.Register(b)

	h := NewHandle(3, 1)
	n, str := 1, "x"
	a.Set(h, &n)
	b.Set(h, &str)

	assert.Equal(t, 2, r.RemoveAll(h))
	assert.False(t, a.Has(h))
	assert.False(t, b.Has(h))
}

func TestEach2(t *testing.T) {
	a := NewStore[int]()
	b := NewStore[int]()
	h1, h2 := NewHandle(0, 1), NewHandle(1, 1)
	x, y, z := 1, 2, 3
	a.Set(h1, &x)
	a.Set(h2, &y)
	b.Set(h2, &z)

	var got []Handle
	Each2(a, b, func(h Handle, _ *int, _ *int) { got = append(got, h) })
	assert.Equal(t, []Handle{h2}, got)
}
