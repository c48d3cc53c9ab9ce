package renderer

import (
	"errors"
	"strings"
	"testing"

	"github.com/spaghettifunk/vidgfx/engine/core"
	"github.com/spaghettifunk/vidgfx/engine/math"
	"github.com/spaghettifunk/vidgfx/engine/renderer/metadata"
	"github.com/spaghettifunk/vidgfx/engine/renderer/renderertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Device = (*renderertest.Device)(nil)

type recordingSink struct {
	lines []string
}

func (s *recordingSink) Log(category string, level core.LogLevel, msg string) {
	s.lines = append(s.lines, level.String()+" "+category+" "+msg)
}

func (s *recordingSink) contains(part string) bool {
	for _, l := range s.lines {
		if strings.Contains(l, part) {
			return true
		}
	}
	return false
}

func testConfig() core.RendererConfig {
	cfg := core.DefaultConfig().Renderer
	cfg.ScreenWidth, cfg.ScreenHeight = 64, 32
	cfg.CanvasWidth, cfg.CanvasHeight = 128, 64
	cfg.ScratchInitial = 16
	return cfg
}

func newTestContext(t *testing.T) (*Context, *renderertest.Device, *recordingSink) {
	t.Helper()
	dev := renderertest.NewDevice()
	sink := &recordingSink{}
	ctx := NewContext(dev, sink, testConfig())
	require.NoError(t, ctx.Initialize(renderertest.NewShaderLoader()))
	return ctx, dev, sink
}

func TestContextInitializeCreatesTargets(t *testing.T) {
	assert := assert.New(t)
	ctx, dev, _ := newTestContext(t)

	assert.True(ctx.IsInitialized())
	assert.Equal(math.NewSize(64, 32), ctx.ScreenSize())
	assert.Equal(math.NewSize(128, 64), ctx.CanvasSize())
	assert.Equal(math.NewSize(16, 16), ctx.Scratch().Capacity())
	assert.NotNil(ctx.TargetTexture(metadata.RenderTargetCanvasB))
	assert.Nil(ctx.TargetTexture(metadata.RenderTargetUser))

	screen := ctx.TargetTexture(metadata.RenderTargetScreen)
	assert.Equal(metadata.RenderTargetScreen, ctx.RenderTarget())
	assert.Equal(screen.Handle(), dev.Target)
	assert.Equal(math.NewRect(0, 0, 64, 32), dev.Viewport)
	assert.Len(dev.Loaded, 13)

	calls := len(dev.Calls)
	require.NoError(t, ctx.Initialize(renderertest.NewShaderLoader()))
	assert.Len(dev.Calls, calls)
}

func TestContextInitializeFailsUnrecoverably(t *testing.T) {
	dev := renderertest.NewDevice()
	dev.FailLoadShaders = true
	ctx := NewContext(dev, nil, testConfig())

	err := ctx.Initialize(renderertest.NewShaderLoader())
	assert.True(t, errors.Is(err, core.ErrUnrecoverable))
	assert.False(t, ctx.IsInitialized())

	dev = renderertest.NewDevice()
	dev.FailCreateTexture = true
	ctx = NewContext(dev, nil, testConfig())
	err = ctx.Initialize(renderertest.NewShaderLoader())
	assert.True(t, errors.Is(err, core.ErrUnrecoverable))
	assert.Equal(t, 0, dev.NumBuffers())
}

func TestContextCallbacks(t *testing.T) {
	assert := assert.New(t)
	dev := renderertest.NewDevice()
	ctx := NewContext(dev, nil, testConfig())

	var order []string
	ctx.AddInitializedCallback(func(*Context) { order = append(order, "init") })
	remove := ctx.AddDestroyingCallback(func(*Context) { order = append(order, "removed") })
	ctx.AddDestroyingCallback(func(c *Context) {
		assert.True(c.IsInitialized())
		order = append(order, "destroy")
	})
	remove()

	require.NoError(t, ctx.Initialize(renderertest.NewShaderLoader()))
	ctx.Destroy()
	assert.Equal([]string{"init", "destroy"}, order)
	assert.False(ctx.IsInitialized())
}

func TestContextDestroyReportsLeaks(t *testing.T) {
	assert := assert.New(t)
	ctx, dev, sink := newTestContext(t)

	kept, err := ctx.CreateTexture(math.NewSize(4, 4), true, false)
	require.NoError(t, err)
	freed, err := ctx.CreateTexture(math.NewSize(4, 4), true, false)
	require.NoError(t, err)
	ctx.DestroyTexture(freed)

	ctx.Destroy()
	assert.True(sink.contains("texture:" + kept.ID().String()))
	assert.False(sink.contains(freed.ID().String()))
	assert.Equal(1, dev.NumTextures())
	assert.Equal(0, dev.NumBuffers())
}

func TestCreateTextureValidation(t *testing.T) {
	assert := assert.New(t)
	ctx, dev, _ := newTestContext(t)

	_, err := ctx.CreateTexture(math.NewSize(0, 10), false, false)
	assert.True(errors.Is(err, core.ErrValidation))

	dev.FailCreateTexture = true
	tex, err := ctx.CreateTexture(math.NewSize(8, 8), false, false)
	assert.Nil(tex)
	assert.True(errors.Is(err, core.ErrAllocation))

	_, err = ctx.CreateTextureLike(nil, false, false)
	assert.True(errors.Is(err, core.ErrValidation))
}

func TestCreateTextureFromImageAndLike(t *testing.T) {
	assert := assert.New(t)
	ctx, dev, _ := newTestContext(t)

	img := metadata.ImageData{Width: 2, Height: 2, Stride: 8, Pixels: []byte{
		1, 2, 3, 4, 5, 6, 7, 8,
		9, 10, 11, 12, 13, 14, 15, 16,
	}}
	tex, err := ctx.CreateTextureFromImage(img, false, false)
	require.NoError(t, err)
	assert.Equal(math.NewSize(2, 2), tex.Size())

	stored := dev.Texture(tex.Handle())
	assert.Equal(img.Pixels[8:16], stored.Pixels[stored.Stride:stored.Stride+8])

	like, err := ctx.CreateTextureLike(tex, false, true)
	require.NoError(t, err)
	assert.Equal(tex.Size(), like.Size())
	assert.True(like.IsTargetable())
	assert.False(like.IsWritable())
}

func TestDestroyTextureIsIdempotentAndUnmaps(t *testing.T) {
	assert := assert.New(t)
	ctx, dev, _ := newTestContext(t)

	tex, err := ctx.CreateTexture(math.NewSize(4, 4), true, false)
	require.NoError(t, err)
	_, err = tex.Map()
	require.NoError(t, err)

	dev.Reset()
	ctx.DestroyTexture(tex)
	ctx.DestroyTexture(tex)
	ctx.DestroyTexture(nil)
	assert.Equal(1, dev.Count("UnmapTexture"))
	assert.Equal(1, dev.Count("DestroyTexture"))
	assert.False(tex.IsMapped())
	assert.False(tex.Handle().IsValid())
}

func TestTextureMapAndUpdate(t *testing.T) {
	assert := assert.New(t)
	ctx, _, _ := newTestContext(t)

	plain, err := ctx.CreateTexture(math.NewSize(2, 2), false, false)
	require.NoError(t, err)
	_, err = plain.Map()
	assert.True(errors.Is(err, core.ErrValidation))
	assert.True(errors.Is(plain.UpdateData(metadata.ImageData{Width: 2, Height: 2}), core.ErrValidation))

	tex, err := ctx.CreateTexture(math.NewSize(2, 2), true, false)
	require.NoError(t, err)
	img := metadata.ImageData{Width: 2, Height: 2, Pixels: []byte{
		1, 1, 1, 1, 2, 2, 2, 2,
		3, 3, 3, 3, 4, 4, 4, 4,
	}}
	require.NoError(t, tex.UpdateData(img))
	assert.False(tex.IsMapped())

	data, err := tex.Map()
	require.NoError(t, err)
	stride := tex.Stride()
	assert.Greater(stride, 8)
	assert.Equal(img.Pixels[:8], data[:8])
	assert.Equal(img.Pixels[8:], data[stride:stride+8])
	tex.Unmap()
	assert.Nil(tex.Data())
}

func TestCopyTextureData(t *testing.T) {
	assert := assert.New(t)
	ctx, dev, sink := newTestContext(t)

	src, err := ctx.CreateTexture(math.NewSize(4, 4), true, false)
	require.NoError(t, err)
	pixels := make([]byte, 4*4*4)
	for i := range pixels {
		pixels[i] = byte(i)
	}
	require.NoError(t, src.UpdateData(metadata.ImageData{Width: 4, Height: 4, Pixels: pixels}))

	dst, err := ctx.CreateStagingTexture(math.NewSize(2, 2))
	require.NoError(t, err)

	assert.True(errors.Is(ctx.CopyTextureData(src, src, math.Point{}, math.Rect{}), core.ErrValidation))
	assert.True(errors.Is(ctx.CopyTextureData(dst, src, math.Point{}, math.Rect{}), core.ErrValidation))
	assert.True(sink.contains("doesn't fit in the destination texture"))
	assert.True(errors.Is(ctx.CopyTextureData(dst, src, math.Point{}, math.NewRect(3, 3, 2, 2)), core.ErrValidation))
	assert.True(sink.contains("doesn't fit in the source texture"))
	assert.True(errors.Is(ctx.CopyTextureData(dst, src, math.Point{X: 1, Y: 0}, math.NewRect(0, 0, 2, 2)), core.ErrValidation))

	_, err = dst.Map()
	require.NoError(t, err)
	assert.True(errors.Is(ctx.CopyTextureData(dst, src, math.Point{}, math.NewRect(0, 0, 2, 2)), core.ErrValidation))
	assert.True(sink.contains("Cannot copy texture data while mapped"))
	dst.Unmap()
	assert.Equal(0, dev.Count("CopyTexture"))

	// the region touching the bottom right corner still fits
	require.NoError(t, ctx.CopyTextureData(dst, src, math.Point{}, math.NewRect(2, 2, 2, 2)))
	data, err := dst.Map()
	require.NoError(t, err)
	stride := dst.Stride()
	assert.Equal(pixels[2*16+8:2*16+16], data[:8])
	assert.Equal(pixels[3*16+8:3*16+16], data[stride:stride+8])
	dst.Unmap()
}

func TestCreateVertexBuffer(t *testing.T) {
	assert := assert.New(t)
	ctx, _, _ := newTestContext(t)

	_, err := ctx.CreateVertexBuffer(0)
	assert.True(errors.Is(err, core.ErrValidation))

	vb, err := ctx.CreateVertexBuffer(32)
	require.NoError(t, err)
	assert.Equal(32, vb.NumFloats())
	ctx.DestroyVertexBuffer(vb)
	ctx.DestroyVertexBuffer(vb)
	assert.False(vb.handle.IsValid())
}

func TestSetRenderTargetViewports(t *testing.T) {
	assert := assert.New(t)
	ctx, dev, _ := newTestContext(t)

	ctx.SetRenderTarget(metadata.RenderTargetCanvasB)
	assert.Equal(ctx.TargetTexture(metadata.RenderTargetCanvasB).Handle(), dev.Target)
	assert.Equal(math.NewRect(0, 0, 128, 64), dev.Viewport)

	ctx.Scratch().Resize(math.NewSize(10, 6))
	ctx.SetRenderTarget(metadata.RenderTargetScratchB)
	assert.Equal(math.NewRect(0, 0, 10, 6), dev.Viewport)

	user, err := ctx.CreateTexture(math.NewSize(20, 20), false, true)
	require.NoError(t, err)
	require.NoError(t, ctx.SetUserRenderTarget(user))
	ctx.SetRenderTarget(metadata.RenderTargetUser)
	assert.Equal(math.NewRect(0, 0, 20, 20), dev.Viewport)
	ctx.SetUserRenderTargetViewport(math.NewRect(5, 5, 10, 10))
	assert.Equal(math.NewRect(5, 5, 10, 10), dev.Viewport)
	assert.Equal(user.Handle(), dev.Target)
}

func TestSetRenderTargetWithoutTexture(t *testing.T) {
	assert := assert.New(t)
	ctx, dev, sink := newTestContext(t)

	// flush the camera group
	vb, err := ctx.CreateVertexBuffer(32)
	require.NoError(t, err)
	require.NoError(t, vb.WriteSolidRect(math.NewRectF(0, 0, 1, 1), math.NewColorWhite()))
	ctx.SetShader(metadata.ShaderSolid)
	require.NoError(t, ctx.DrawBuffer(vb, -1, 0))
	require.False(t, ctx.constants.camera.dirty)

	dev.Reset()
	ctx.SetRenderTarget(metadata.RenderTargetUser)
	assert.Equal(metadata.RenderTargetUser, ctx.RenderTarget())
	assert.Equal(0, dev.Count("SetRenderTarget"))
	assert.True(ctx.constants.camera.dirty)
	assert.True(sink.contains("Attempted to select a render target that doesn't exist yet"))
}

func TestSetUserRenderTargetRejectsPlainTexture(t *testing.T) {
	ctx, _, sink := newTestContext(t)

	tex, err := ctx.CreateTexture(math.NewSize(8, 8), true, false)
	require.NoError(t, err)
	err = ctx.SetUserRenderTarget(tex)
	assert.True(t, errors.Is(err, core.ErrValidation))
	assert.True(t, sink.contains("non-targetable"))
	assert.Nil(t, ctx.TargetTexture(metadata.RenderTargetUser))
}

func TestResizeCanvasTarget(t *testing.T) {
	assert := assert.New(t)
	ctx, dev, _ := newTestContext(t)

	dev.Reset()
	require.NoError(t, ctx.ResizeCanvasTarget(math.NewSize(128, 64)))
	assert.Empty(dev.Calls)

	ctx.SetRenderTarget(metadata.RenderTargetCanvasA)
	require.NoError(t, ctx.ResizeCanvasTarget(math.NewSize(256, 128)))
	assert.Equal(math.NewSize(256, 128), ctx.CanvasSize())
	assert.Equal(ctx.TargetTexture(metadata.RenderTargetCanvasA).Handle(), dev.Target)
	assert.Equal(math.NewRect(0, 0, 256, 128), dev.Viewport)
}

func TestSetTexture(t *testing.T) {
	assert := assert.New(t)
	ctx, dev, sink := newTestContext(t)

	staging, err := ctx.CreateStagingTexture(math.NewSize(4, 4))
	require.NoError(t, err)
	dev.Reset()
	assert.True(errors.Is(ctx.SetTexture(staging), core.ErrValidation))
	assert.True(sink.contains("Attempted to bind a staging texture to a shader"))
	assert.Equal(0, dev.Count("SetTextures"))

	writable, err := ctx.CreateTexture(math.NewSize(4, 4), true, false)
	require.NoError(t, err)
	_, err = writable.Map()
	require.NoError(t, err)
	assert.True(errors.Is(ctx.SetTexture(writable), core.ErrValidation))
	writable.Unmap()

	dev.Swizzle = true
	swizzled, err := ctx.CreateTexture(math.NewSize(4, 4), false, false)
	require.NoError(t, err)
	require.NoError(t, ctx.SetTexture(swizzled, writable))
	assert.True(ctx.Constants().DecalSwizzle())
	assert.Equal([]metadata.Handle{swizzled.Handle(), writable.Handle()}, dev.Bound)

	require.NoError(t, ctx.SetTexture(writable))
	assert.False(ctx.Constants().DecalSwizzle())
}

func TestDrawBuffer(t *testing.T) {
	assert := assert.New(t)
	ctx, dev, _ := newTestContext(t)

	vb, err := ctx.CreateVertexBuffer(64)
	require.NoError(t, err)
	require.NoError(t, vb.WriteSolidRect(math.NewRectF(0, 0, 10, 10), math.NewColorWhite()))
	ctx.SetShader(metadata.ShaderSolid)

	dev.Reset()
	require.NoError(t, ctx.DrawBuffer(vb, 0, 0))
	assert.Empty(dev.Calls)

	require.NoError(t, ctx.DrawBuffer(vb, -1, 0))
	assert.Equal("Draw 4 0", dev.Calls[len(dev.Calls)-1])
	assert.Equal(1, dev.Count("SetVertexBuffer"))
	assert.Len(dev.Buffer(vb.handle).Data, 64)
	assert.Equal(float32(10), dev.Buffer(vb.handle).Data[8])
	assert.False(vb.IsDirty())

	dev.Reset()
	require.NoError(t, ctx.DrawBuffer(vb, 2, 1))
	assert.Equal(0, dev.Count("UpdateBuffer"))
	assert.Equal("Draw 2 1", dev.Calls[len(dev.Calls)-1])

	dev.FailDraw = true
	assert.Error(ctx.DrawBuffer(vb, -1, 0))
	assert.True(errors.Is(ctx.DrawBuffer(nil, -1, 0), core.ErrValidation))
}

func TestReloadShadersAndFlush(t *testing.T) {
	assert := assert.New(t)
	ctx, dev, sink := newTestContext(t)

	loader := renderertest.NewShaderLoader()
	loader["yv12-rgb-ps"] = []byte{1, 2, 3, 4}
	require.NoError(t, ctx.ReloadShaders(loader))
	assert.Equal([]byte{1, 2, 3, 4}, dev.Loaded["yv12-rgb-ps"])

	delete(loader, "solid-ps")
	assert.Error(ctx.ReloadShaders(loader))
	assert.True(sink.contains("Failed to reload shaders"))

	dev.Reset()
	require.NoError(t, ctx.Flush())
	assert.Equal([]string{"Flush"}, dev.Calls)
}
