package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRotate(t *testing.T) {
	up := V(0, 1)
	assert.True(t, up.Rotate(V(1, 0)).Near(V(0, 1), 1e-12))
	assert.True(t, up.Rotate(V(0, 1)).Near(V(-1, 0), 1e-12))
	assert.Equal(t, V(3, 4), V(1, 0).Rotate(V(3, 4)))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, Vec2{}, Vec2{}.Normalize())
	n := V(3, 4).Normalize()
	assert.InDelta(t, 1.0, n.Len(), 1e-12)
	assert.InDelta(t, 0.6, n.X, 1e-12)
}

func TestSignAndClamp(t *testing.T) {
	assert.Equal(t, 0.0, Sign(0))
	assert.Equal(t, -1.0, Sign(-0.5))
	assert.Equal(t, 1.0, Sign(math.Inf(1)))
	assert.Equal(t, 5.0, Clamp(7, 0, 5))
	assert.Equal(t, 0.0, Clamp(-1, 0, 5))
}

func TestBoxOverlap(t *testing.T) {
	assert.True(t, BoxOverlap(V(100, 100), 10, V(115, 100), 10))
	assert.False(t, BoxOverlap(V(100, 100), 10, V(120, 100), 10), "touching is not overlap")
	assert.False(t, BoxOverlap(V(100, 100), 10, V(105, 130), 10))
}
