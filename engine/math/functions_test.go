package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextPowTwo(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(uint32(0), NextPowTwo(0))
	assert.Equal(uint32(1), NextPowTwo(1))
	assert.Equal(uint32(2), NextPowTwo(2))
	assert.Equal(uint32(4), NextPowTwo(3))
	assert.Equal(uint32(128), NextPowTwo(100))
	assert.Equal(uint32(512), NextPowTwo(512))
	assert.Equal(uint32(1024), NextPowTwo(600))
	assert.Equal(uint32(2048), NextPowTwo(1920))
}

func TestRepeat(t *testing.T) {
	assert := assert.New(t)

	assert.InDelta(0.25, Repeat(0.25, 1), 1e-6)
	assert.InDelta(0.5, Repeat(1.5, 1), 1e-6)
	assert.InDelta(0.75, Repeat(-0.25, 1), 1e-6)
	assert.InDelta(0.0, Repeat(-1, 1), 1e-6)
	assert.InDelta(0.0, Repeat(2, 1), 1e-6)
}

func TestLerp(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(float32(2), Lerp(2, 6, 0))
	assert.Equal(float32(6), Lerp(2, 6, 1))
	assert.Equal(float32(3), Lerp(2, 6, 0.25))
}

func TestOrthographicMapsCorners(t *testing.T) {
	assert := assert.New(t)

	proj := NewMat4Orthographic(0, 640, 480, 0, -1, 1)

	assert.True(proj.Transform(Vec2{0, 0}).Compare(Vec2{-1, 1}, 1e-6))
	assert.True(proj.Transform(Vec2{640, 480}).Compare(Vec2{1, -1}, 1e-6))
	assert.True(proj.Transform(Vec2{320, 240}).Compare(Vec2{0, 0}, 1e-6))
}

func TestMat4MulIdentity(t *testing.T) {
	proj := NewMat4Orthographic(0, 100, 50, 0, -1, 1)
	assert.Equal(t, proj, proj.Mul(NewMat4Identity()))
}

func TestVec2Normalized(t *testing.T) {
	assert := assert.New(t)

	assert.True(Vec2{3, 4}.Normalized().Compare(Vec2{0.6, 0.8}, 1e-6))
	assert.Equal(Vec2{}, Vec2{}.Normalized())
}

func TestFuzzy(t *testing.T) {
	assert := assert.New(t)

	assert.True(FuzzyCompare(1.0, 1.0000001))
	assert.False(FuzzyCompare(1.0, 1.01))
	assert.True(FuzzyIsNull(0.000001))
	assert.False(FuzzyIsNull(0.1))
}

func TestClamp(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(5, Clamp(7, 0, 5))
	assert.Equal(float32(0), Clamp(float32(-1), 0, 1))
	assert.Equal(3, Max(3, 2))
	assert.Equal(2, Min(3, 2))
}
