package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRectEdgesAreInclusive(t *testing.T) {
	assert := assert.New(t)

	r := NewRect(10, 20, 100, 50)
	assert.Equal(109, r.Right())
	assert.Equal(69, r.Bottom())
	assert.False(r.IsEmpty())
	assert.True(NewRect(0, 0, 0, 5).IsEmpty())
}

func TestRectContains(t *testing.T) {
	assert := assert.New(t)

	outer := NewRect(0, 0, 64, 64)
	assert.True(outer.Contains(NewRect(0, 0, 64, 64)))
	assert.True(outer.Contains(NewRect(10, 10, 4, 4)))
	assert.False(outer.Contains(NewRect(60, 60, 8, 4)))
	assert.False(outer.Contains(Rect{}))
}

func TestRectIntersected(t *testing.T) {
	assert := assert.New(t)

	a := NewRect(0, 0, 100, 100)
	assert.Equal(NewRect(50, 60, 50, 40), a.Intersected(NewRect(50, 60, 200, 200)))
	assert.True(a.Intersected(NewRect(200, 200, 10, 10)).IsEmpty())
}

func TestRectFAdjusted(t *testing.T) {
	assert := assert.New(t)

	r := NewRectF(0, 0, 100, 50)
	adj := r.Adjusted(10, 5, -20, -5)
	assert.Equal(NewRectF(10, 5, 70, 40), adj)
	assert.Equal(float32(80), adj.Right())
	assert.Equal(Vec2{80, 45}, adj.BottomRight())
}
