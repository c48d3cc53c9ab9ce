package renderer

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/vidgfx/engine/core"
	"github.com/spaghettifunk/vidgfx/engine/math"
	"github.com/spaghettifunk/vidgfx/engine/renderer/metadata"
	"github.com/spaghettifunk/vidgfx/engine/renderer/renderertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type planes struct {
	y, u, v *Texture
}

func createPlanes(t *testing.T, ctx *Context, luma math.Size) planes {
	t.Helper()
	var p planes
	var err error
	p.y, err = ctx.CreateTexture(luma, true, false)
	require.NoError(t, err)
	p.u, err = ctx.CreateTexture(math.NewSize(luma.W/2, luma.H/2), true, false)
	require.NoError(t, err)
	p.v, err = ctx.CreateTexture(math.NewSize(luma.W/2, luma.H/2), true, false)
	require.NoError(t, err)
	return p
}

func TestConvertRejectsUnsupportedFormats(t *testing.T) {
	assert := assert.New(t)
	ctx, dev, sink := newTestContext(t)
	p := createPlanes(t, ctx, math.NewSize(8, 4))

	dev.Reset()
	logged := len(sink.lines)
	for _, format := range []metadata.PixelFormat{
		metadata.PixelFormatNone,
		metadata.PixelFormatRGB24,
		metadata.PixelFormatRGB32,
		metadata.PixelFormatARGB32,
		metadata.PixelFormatNV12,
		metadata.PixelFormat(42),
	} {
		tex, err := ctx.ConvertToBgrx(format, p.y, p.u, p.v)
		assert.Nil(tex, format.String())
		assert.True(errors.Is(err, core.ErrUnsupportedInput), format.String())
	}
	assert.Empty(dev.Calls)
	assert.Len(sink.lines, logged)
}

func TestConvertYv12ValidatesPlanes(t *testing.T) {
	assert := assert.New(t)
	ctx, dev, _ := newTestContext(t)
	p := createPlanes(t, ctx, math.NewSize(8, 4))
	wrong, err := ctx.CreateTexture(math.NewSize(4, 4), true, false)
	require.NoError(t, err)

	dev.Reset()
	tex, err := ctx.ConvertToBgrx(metadata.PixelFormatYV12, p.y, wrong, p.u)
	assert.Nil(tex)
	assert.True(errors.Is(err, core.ErrValidation))

	tex, err = ctx.ConvertToBgrx(metadata.PixelFormatIYUV, p.y, p.u, wrong)
	assert.Nil(tex)
	assert.True(errors.Is(err, core.ErrValidation))

	_, err = ctx.ConvertToBgrx(metadata.PixelFormatYV12, p.y, nil, p.u)
	assert.True(errors.Is(err, core.ErrValidation))
	_, err = ctx.ConvertToBgrx(metadata.PixelFormatUYVY, nil, nil, nil)
	assert.True(errors.Is(err, core.ErrValidation))

	assert.Equal(0, dev.Draws)
	assert.Equal(0, dev.Count("SetRenderTarget"))
}

func TestConvertYv12(t *testing.T) {
	assert := assert.New(t)
	ctx, dev, _ := newTestContext(t)
	p := createPlanes(t, ctx, math.NewSize(8, 4))
	screen := ctx.TargetTexture(metadata.RenderTargetScreen)

	dev.Reset()
	out, err := ctx.ConvertToBgrx(metadata.PixelFormatYV12, p.y, p.v, p.u)
	require.NoError(t, err)
	assert.Same(ctx.TargetTexture(metadata.RenderTargetScratchA), out)
	assert.Equal(math.NewSize(32, 4), ctx.Scratch().RequestedSize())
	assert.Equal(math.NewSize(32, 32), ctx.Scratch().Capacity())
	assert.Equal(1, dev.Draws)

	chroma := ctx.Constants().chroma
	assert.Equal([]float32{4.0 / 32, 0.125 / 32, 8.0 / 32, 0.0625 / 32}, dev.Buffer(chroma.buffer).Data)
	assert.True(chroma.dirty)

	assert.Equal([]metadata.Handle{p.y.Handle(), p.v.Handle(), p.u.Handle()}, dev.Bound)
	assert.Contains(dev.Calls, "SetShader yv12Rgb")
	assert.Contains(dev.Calls, "SetSampler point")
	assert.Contains(dev.Calls, "SetTopology triangleStrip")
	assert.Contains(dev.Calls, "SetBlending none")
	assert.Equal(screen.Handle(), dev.Target)
	assert.Equal(metadata.RenderTargetScreen, ctx.RenderTarget())
}

func TestConvertIyuvMatchesYv12(t *testing.T) {
	run := func(format metadata.PixelFormat) []string {
		dev := renderertest.NewDevice()
		ctx := NewContext(dev, nil, testConfig())
		require.NoError(t, ctx.Initialize(renderertest.NewShaderLoader()))
		p := createPlanes(t, ctx, math.NewSize(16, 8))

		dev.Reset()
		var err error
		if format == metadata.PixelFormatIYUV {
			_, err = ctx.ConvertToBgrx(format, p.y, p.u, p.v)
		} else {
			_, err = ctx.ConvertToBgrx(format, p.y, p.v, p.u)
		}
		require.NoError(t, err)
		return dev.Calls
	}

	yv12 := run(metadata.PixelFormatYV12)
	assert.NotEmpty(t, yv12)
	assert.Equal(t, yv12, run(metadata.PixelFormatIYUV))
}

func TestConvertPackedFormats(t *testing.T) {
	for format, shader := range map[metadata.PixelFormat]metadata.Shader{
		metadata.PixelFormatUYVY: metadata.ShaderUyvyRgb,
		metadata.PixelFormatHDYC: metadata.ShaderHdycRgb,
		metadata.PixelFormatYUY2: metadata.ShaderYuy2Rgb,
	} {
		t.Run(format.String(), func(t *testing.T) {
			assert := assert.New(t)
			ctx, dev, _ := newTestContext(t)
			frame, err := ctx.CreateTexture(math.NewSize(8, 4), true, false)
			require.NoError(t, err)

			dev.Reset()
			out, err := ctx.ConvertToBgrx(format, frame, frame, nil)
			require.NoError(t, err)
			assert.NotNil(out)
			assert.Equal(math.NewSize(16, 4), ctx.Scratch().RequestedSize())
			assert.Equal([]float32{2.0 / 16, 1.0 / 16, 0, 0}, dev.Buffer(ctx.Constants().chroma.buffer).Data)
			assert.Equal([]metadata.Handle{frame.Handle()}, dev.Bound)
			assert.Contains(dev.Calls, "SetShader "+shader.String())
			assert.Equal("Draw 4 0", dev.Calls[indexOf(dev.Calls, "Draw")])
		})
	}
}

func indexOf(calls []string, op string) int {
	for i, c := range calls {
		if len(c) >= len(op) && c[:len(op)] == op {
			return i
		}
	}
	return -1
}

func TestConvertUsesPhysicalScratchWidth(t *testing.T) {
	assert := assert.New(t)
	ctx, dev, _ := newTestContext(t)
	frame, err := ctx.CreateTexture(math.NewSize(8, 4), true, false)
	require.NoError(t, err)

	ctx.Scratch().Resize(math.NewSize(100, 100))
	_, err = ctx.ConvertToBgrx(metadata.PixelFormatUYVY, frame, nil, nil)
	require.NoError(t, err)
	assert.Equal([]float32{2.0 / 128, 1.0 / 128, 0, 0}, dev.Buffer(ctx.Constants().chroma.buffer).Data)
}

func TestConvertUploadFailureRestoresTarget(t *testing.T) {
	assert := assert.New(t)
	ctx, dev, sink := newTestContext(t)
	frame, err := ctx.CreateTexture(math.NewSize(8, 4), true, false)
	require.NoError(t, err)
	ctx.SetRenderTarget(metadata.RenderTargetCanvasB)

	dev.Reset()
	dev.FailUpdateBuffer = true
	out, err := ctx.ConvertToBgrx(metadata.PixelFormatYUY2, frame, nil, nil)
	assert.Nil(out)
	assert.True(errors.Is(err, core.ErrAllocation))
	assert.Equal(0, dev.Draws)
	assert.Equal(ctx.TargetTexture(metadata.RenderTargetCanvasB).Handle(), dev.Target)
	assert.True(sink.contains("Failed to convert YUY2 frame"))
}

func TestConvertScratchAllocationFailure(t *testing.T) {
	assert := assert.New(t)
	ctx, dev, _ := newTestContext(t)
	frame, err := ctx.CreateTexture(math.NewSize(64, 4), true, false)
	require.NoError(t, err)

	dev.FailCreateTexture = true
	out, err := ctx.ConvertToBgrx(metadata.PixelFormatUYVY, frame, nil, nil)
	assert.Nil(out)
	assert.True(errors.Is(err, core.ErrAllocation))
	assert.Equal(0, dev.Draws)
	assert.Equal(metadata.RenderTargetScreen, ctx.RenderTarget())
}
