package renderer

import (
	"fmt"
	gomath "math"
	"testing"

	"github.com/spaghettifunk/vidgfx/engine/math"
	"github.com/spaghettifunk/vidgfx/engine/renderer/geometry"
	"github.com/spaghettifunk/vidgfx/engine/renderer/metadata"
	"github.com/spaghettifunk/vidgfx/engine/renderer/renderertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func newDrawableQuad(t *testing.T, ctx *Context) *VertexBuffer {
	t.Helper()
	vb, err := ctx.CreateVertexBuffer(geometry.TexDecalRectNumFloats)
	require.NoError(t, err)
	require.NoError(t, vb.WriteTexDecalRectBr(math.NewRectF(0, 0, 4, 4), math.NewVec2One()))
	return vb
}

func countUpdates(dev *renderertest.Device, buf metadata.Handle) int {
	return dev.Count(fmt.Sprintf("UpdateBuffer %d", buf))
}

func TestConstantDefaults(t *testing.T) {
	assert := assert.New(t)
	c := NewConstantStateCache(renderertest.NewDevice())

	assert.Equal(math.NewMat4Identity(), c.ViewMatrix())
	assert.Equal(math.NewMat4Identity(), c.TargetProjectionMatrix(metadata.RenderTargetUser))
	assert.Equal(math.NewColorWhite(), c.DecalModColor())
	g, b, con, s := c.DecalEffects()
	assert.Equal([]float32{1, 0, 1, 1}, []float32{g, b, con, s})
	assert.False(c.DecalSwizzle())
}

func TestDecalEffectsReadBack(t *testing.T) {
	assert := assert.New(t)
	c := NewConstantStateCache(renderertest.NewDevice())
	rng := rand.New(rand.NewSource(11))

	for i := 0; i < 100; i++ {
		g := float32(rng.Float64()*4.0) + 0.001
		b := float32(rng.Float64()*2.0 - 1.0)
		con := float32(rng.Float64() * 3.0)
		s := float32(rng.Float64() * 3.0)

		c.SetDecalEffects(g, b, con, s)
		rg, rb, rc, rs := c.DecalEffects()
		assert.Equal(1.0/g, rg)
		assert.Equal(b, rb)
		assert.Equal(con, rc)
		assert.Equal(s, rs)
	}

	c.SetDecalEffects(0, 0, 1, 1)
	rg, _, _, _ := c.DecalEffects()
	assert.InDelta(100.0, rg, 0.001)
	c.SetDecalEffects(-3, 0, 1, 1)
	rg, _, _, _ = c.DecalEffects()
	assert.InDelta(100.0, rg, 0.001)
}

func TestDecalEffectsHelper(t *testing.T) {
	assert := assert.New(t)
	c := NewConstantStateCache(renderertest.NewDevice())

	c.decal.dirty = false
	assert.False(c.SetDecalEffectsHelper(1.0000001, 0, 0, 0))
	assert.False(c.decal.dirty)

	assert.True(c.SetDecalEffectsHelper(2, 25, 50, -50))
	g, b, con, s := c.DecalEffects()
	assert.Equal(float32(0.5), g)
	assert.InDelta(0.1, b, 1e-6)
	assert.InDelta(1.5, con, 1e-6)
	assert.InDelta(0.5, s, 1e-6)
	assert.True(c.decal.dirty)
}

func TestConstantsUploadOnlyWhenChanged(t *testing.T) {
	assert := assert.New(t)
	ctx, dev, _ := newTestContext(t)
	c := ctx.Constants()
	vb := newDrawableQuad(t, ctx)

	ctx.SetShader(metadata.ShaderTexDecal)
	require.NoError(t, ctx.DrawBuffer(vb, -1, 0))
	assert.False(c.camera.dirty)
	assert.False(c.decal.dirty)

	dev.Reset()
	c.SetDecalEffects(1, 0, 1, 1)
	c.SetDecalModColor(math.NewColorWhite())
	c.SetViewMatrix(math.NewMat4Identity())
	require.NoError(t, ctx.DrawBuffer(vb, -1, 0))
	assert.Equal(0, dev.Count("UpdateBuffer"))

	c.SetDecalEffects(2, 0, 1, 1)
	assert.True(c.decal.dirty)
	require.NoError(t, ctx.DrawBuffer(vb, -1, 0))
	assert.Equal(1, dev.Count("UpdateBuffer"))
	assert.Equal(1, countUpdates(dev, c.decal.buffer))
	assert.Equal(float32(0.5), dev.Buffer(c.decal.buffer).Data[8])
}

func TestCameraDirtyOnlyForCurrentTarget(t *testing.T) {
	assert := assert.New(t)
	c := NewConstantStateCache(renderertest.NewDevice())
	m := math.NewMat4Orthographic(0, 10, 10, 0, -1, 1)

	c.SetCurrentTarget(metadata.RenderTargetCanvasA)
	c.camera.dirty = false

	c.SetTargetViewMatrix(metadata.RenderTargetScreen, m)
	c.SetTargetProjectionMatrix(metadata.RenderTargetScratchA, m)
	assert.False(c.camera.dirty)
	assert.Equal(m, c.TargetViewMatrix(metadata.RenderTargetScreen))
	assert.Equal(m, c.TargetProjectionMatrix(metadata.RenderTargetScratchB))

	// the canvases share their matrices
	c.SetTargetProjectionMatrix(metadata.RenderTargetCanvasB, m)
	assert.True(c.camera.dirty)
	assert.Equal(m, c.ProjectionMatrix())

	c.camera.dirty = false
	c.SetCurrentTarget(metadata.RenderTargetCanvasA)
	assert.True(c.camera.dirty)
}

func TestCameraUploadLayout(t *testing.T) {
	assert := assert.New(t)
	ctx, dev, _ := newTestContext(t)
	c := ctx.Constants()
	vb := newDrawableQuad(t, ctx)

	proj := math.NewMat4Orthographic(0, 64, 32, 0, -1, 1)
	c.SetProjectionMatrix(proj)
	ctx.SetShader(metadata.ShaderSolid)
	require.NoError(t, ctx.DrawBuffer(vb, -1, 0))

	data := dev.Buffer(c.camera.buffer).Data
	id := math.NewMat4Identity()
	assert.Equal(id.Data[:], data[:16])
	assert.Equal(proj.Data[:], data[16:32])
}

func TestChromaAndDecalLayout(t *testing.T) {
	assert := assert.New(t)
	ctx, dev, _ := newTestContext(t)
	c := ctx.Constants()
	vb := newDrawableQuad(t, ctx)

	c.SetChromaPixelSize(math.NewVec2(0.5, 0.25))
	ctx.SetShader(metadata.ShaderRgbNv16)
	require.NoError(t, ctx.DrawBuffer(vb, -1, 0))
	assert.Equal([]float32{-0.75, -0.25, 0.25, 0.75}, dev.Buffer(c.chroma.buffer).Data)

	c.SetDecalSwizzle(true)
	c.SetDecalModColor(math.NewColor(1, 0.5, 0.25, 1))
	ctx.SetShader(metadata.ShaderTexDecalGbcs)
	require.NoError(t, ctx.DrawBuffer(vb, -1, 0))
	data := dev.Buffer(c.decal.buffer).Data
	assert.Equal([]float32{1, 0.5, 0.25, 1}, data[:4])
	assert.Equal(uint32(0xFFFFFFFF), gomath.Float32bits(data[4]))
	assert.Equal([]float32{0, 0, 0}, data[5:8])
	assert.Equal([]float32{1, 0, 1, 1}, data[8:12])

	c.SetResizeRect(math.NewRectF(1, 2, 3, 4))
	ctx.SetShader(metadata.ShaderResizeLayer)
	require.NoError(t, ctx.DrawBuffer(vb, -1, 0))
	assert.Equal([]float32{1, 2, 3, 4}, dev.Buffer(c.resize.buffer).Data)
	assert.Equal(math.NewRectF(1, 2, 3, 4), c.ResizeRect())
}

func TestYuvShadersBindChromaWithoutFlush(t *testing.T) {
	assert := assert.New(t)
	ctx, dev, _ := newTestContext(t)
	c := ctx.Constants()
	vb := newDrawableQuad(t, ctx)

	c.SetChromaPixelSize(math.NewVec2(0.5, 0.5))
	require.True(t, c.chroma.dirty)

	ctx.SetShader(metadata.ShaderUyvyRgb)
	dev.Reset()
	require.NoError(t, ctx.DrawBuffer(vb, -1, 0))
	assert.Equal(0, countUpdates(dev, c.chroma.buffer))
	assert.Contains(dev.Calls, fmt.Sprintf("SetConstantBuffer 1 %d", c.chroma.buffer))
	assert.True(c.chroma.dirty)
}

func TestChromaDirtyOnScratchGrowth(t *testing.T) {
	assert := assert.New(t)
	ctx, _, _ := newTestContext(t)
	c := ctx.Constants()
	vb := newDrawableQuad(t, ctx)

	ctx.SetShader(metadata.ShaderRgbNv16)
	require.NoError(t, ctx.DrawBuffer(vb, -1, 0))
	require.False(t, c.chroma.dirty)

	ctx.Scratch().Resize(math.NewSize(8, 8))
	assert.False(c.chroma.dirty)
	ctx.Scratch().Resize(math.NewSize(40, 8))
	assert.True(c.chroma.dirty)
}
