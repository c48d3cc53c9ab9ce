package renderer

import (
	gomath "math"
	"testing"

	"github.com/spaghettifunk/vidgfx/engine/math"
	"github.com/spaghettifunk/vidgfx/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestPrepareDegenerateInput(t *testing.T) {
	assert := assert.New(t)
	ctx, dev, _ := newTestContext(t)

	tex, err := ctx.CreateTexture(math.NewSize(32, 32), false, false)
	require.NoError(t, err)

	dev.Reset()
	for _, p := range []Prepared{
		ctx.PrepareFullTexture(nil, math.NewSize(10, 10), metadata.TextureFilterBilinear, true),
		ctx.PrepareFullTexture(tex, math.NewSize(0, 10), metadata.TextureFilterBilinear, true),
		ctx.PrepareFullTexture(tex, math.NewSize(10, -1), metadata.TextureFilterPoint, true),
	} {
		assert.Equal(math.NewVec2Zero(), p.TopLeft)
		assert.Equal(math.NewVec2One(), p.BottomRight)
		assert.Equal(math.NewVec2One(), p.PixelSize)
	}
	assert.Equal([]string{"SetSampler bilinear", "SetSampler bilinear", "SetSampler point"}, dev.Calls)
	assert.Equal(metadata.TextureFilterPoint, ctx.TextureFilter())
	assert.Equal(0, dev.Draws)
}

func TestPrepareDegenerateInputSelectsFilter(t *testing.T) {
	ctx, dev, _ := newTestContext(t)
	ctx.SetTextureFilter(metadata.TextureFilterPoint)

	dev.Reset()
	ctx.PrepareFullTexture(nil, math.NewSize(10, 10), metadata.TextureFilterBilinear, true)
	assert.Equal(t, metadata.TextureFilterBilinear, ctx.TextureFilter())

	dev.Reset()
	ctx.PrepareFullTexture(nil, math.NewSize(10, 10), metadata.TextureFilterPoint, false)
	assert.Equal(t, metadata.TextureFilterBilinear, ctx.TextureFilter())
	assert.Empty(t, dev.Calls)
}

func TestPrepareFailedPassRestoresTarget(t *testing.T) {
	assert := assert.New(t)
	ctx, dev, sink := newTestContext(t)

	tex, err := ctx.CreateTexture(math.NewSize(256, 256), true, false)
	require.NoError(t, err)
	_, err = tex.Map()
	require.NoError(t, err)

	ctx.SetRenderTarget(metadata.RenderTargetCanvasA)
	canvas := ctx.TargetTexture(metadata.RenderTargetCanvasA)

	dev.Reset()
	p := ctx.PrepareFullTexture(tex, math.NewSize(32, 32), metadata.TextureFilterBilinear, true)
	assert.Equal(0, p.Passes)
	assert.Same(tex, p.Texture)
	assert.Equal(0, dev.Draws)
	assert.Equal(metadata.RenderTargetCanvasA, ctx.RenderTarget())
	assert.Equal(canvas.Handle(), dev.Target)
	assert.True(sink.contains("Attempted to bind a mapped texture to a shader"))
	assert.True(sink.contains("Failed to downscale texture"))
}

func TestPrepareNearestIsIdentityCrop(t *testing.T) {
	assert := assert.New(t)
	ctx, dev, _ := newTestContext(t)
	rng := rand.New(rand.NewSource(3))

	for i := 0; i < 50; i++ {
		size := math.NewSize(1+rng.Intn(300), 1+rng.Intn(300))
		tex, err := ctx.CreateTexture(size, false, false)
		require.NoError(t, err)

		x, y := rng.Intn(size.W), rng.Intn(size.H)
		crop := math.NewRect(x, y, 1+rng.Intn(size.W-x), 1+rng.Intn(size.H-y))
		target := math.NewSize(1+rng.Intn(100), 1+rng.Intn(100))

		dev.Reset()
		p := ctx.PrepareTexture(tex, crop, target, metadata.TextureFilterPoint, false)
		assert.Same(tex, p.Texture)
		assert.Equal(0, p.Passes)
		assert.Equal(0, dev.Draws)

		sz := math.NewVec2FromSize(size)
		tl := math.NewVec2(float32(crop.X), float32(crop.Y)).Div(sz)
		br := math.NewVec2(float32(crop.Right()+1), float32(crop.Bottom()+1)).Div(sz)
		assert.Equal(tl, p.TopLeft)
		assert.Equal(br, p.BottomRight)
		assert.Equal(br.Sub(tl).Div(math.NewVec2FromSize(target)), p.PixelSize)

		ctx.DestroyTexture(tex)
	}
}

func TestPrepareHalvesOnceForQuarterSize(t *testing.T) {
	assert := assert.New(t)
	ctx, dev, _ := newTestContext(t)

	tex, err := ctx.CreateTexture(math.NewSize(1920, 1080), false, false)
	require.NoError(t, err)
	ctx.SetRenderTarget(metadata.RenderTargetCanvasA)
	canvas := ctx.TargetTexture(metadata.RenderTargetCanvasA)

	dev.Reset()
	p := ctx.PrepareFullTexture(tex, math.NewSize(480, 270), metadata.TextureFilterBilinear, true)

	working := ctx.Scratch().RequestedSize()
	assert.Equal(1, p.Passes)
	assert.Equal(1, dev.Draws)
	assert.Equal(math.NewSize(960, 540), working)
	assert.True(working.Contains(math.NewSize(480, 270)))
	assert.True(math.NewSize(960, 540).Contains(working))
	assert.Same(ctx.TargetTexture(metadata.RenderTargetScratchA), p.Texture)

	assert.Equal(math.NewSize(1024, 1024), ctx.Scratch().Capacity())
	assert.Equal(math.NewVec2Zero(), p.TopLeft)
	assert.Equal(math.NewVec2(960.0/1024.0, 540.0/1024.0), p.BottomRight)
	assert.Equal(p.BottomRight.Div(math.NewVec2(480, 270)), p.PixelSize)

	// the source was sampled bilinearly with its full extent
	assert.Contains(dev.Calls, "SetShader texDecal")
	assert.Contains(dev.Calls, "SetSampler bilinear")
	assert.Equal(canvas.Handle(), dev.Target)
	assert.Equal(metadata.RenderTargetCanvasA, ctx.RenderTarget())
	assert.Equal(metadata.TextureFilterBilinear, ctx.TextureFilter())
	assert.Equal(metadata.ShaderNone, ctx.Shader())
}

func TestPrepareChainsRatios(t *testing.T) {
	assert := assert.New(t)
	ctx, dev, _ := newTestContext(t)

	tex, err := ctx.CreateTexture(math.NewSize(1024, 1024), false, false)
	require.NoError(t, err)

	dev.Reset()
	p := ctx.PrepareFullTexture(tex, math.NewSize(64, 64), metadata.TextureFilterBilinear, false)
	assert.Equal(3, p.Passes)
	assert.Equal(math.NewSize(128, 128), ctx.Scratch().RequestedSize())
	assert.Equal(math.NewSize(512, 512), ctx.Scratch().Capacity())
	assert.Same(ctx.TargetTexture(metadata.RenderTargetScratchA), p.Texture)
	assert.Equal(math.NewVec2(0.25, 0.25), p.BottomRight)

	// the last pass read the half of scratch B that the second pass wrote
	data := dev.Buffer(ctx.decalBuf.handle).Data
	assert.Equal([]float32{128, 128, 0, 1, 0.5, 0.5, 0, 0}, data[24:32])
	assert.Equal(
		[]metadata.Handle{ctx.TargetTexture(metadata.RenderTargetScratchB).Handle()},
		dev.Bound)
	assert.Equal(0, dev.Count("SetSampler point"))
}

func TestPrepareCropIsAppliedAfterTheChain(t *testing.T) {
	assert := assert.New(t)
	ctx, _, _ := newTestContext(t)

	tex, err := ctx.CreateTexture(math.NewSize(1000, 500), false, false)
	require.NoError(t, err)

	crop := math.NewRect(100, 50, 400, 200)
	p := ctx.PrepareTexture(tex, crop, math.NewSize(100, 50), metadata.TextureFilterBilinear, false)
	assert.Equal(1, p.Passes)
	assert.Equal(math.NewSize(500, 250), ctx.Scratch().RequestedSize())

	ratio := math.NewVec2(500.0/512.0, 250.0/512.0)
	px := ratio.Div(math.NewVec2(1000, 500))
	assert.InDelta(100*px.X, p.TopLeft.X, 1e-6)
	assert.InDelta(50*px.Y, p.TopLeft.Y, 1e-6)
	assert.InDelta(500*px.X, p.BottomRight.X, 1e-6)
	assert.InDelta(250*px.Y, p.BottomRight.Y, 1e-6)
	assert.InDelta((400*px.X)/100, p.PixelSize.X, 1e-6)
}

func TestPrepareWithoutHalvingKeepsSource(t *testing.T) {
	assert := assert.New(t)
	ctx, dev, _ := newTestContext(t)

	tex, err := ctx.CreateTexture(math.NewSize(100, 100), false, false)
	require.NoError(t, err)

	dev.Reset()
	p := ctx.PrepareTexture(tex, math.NewRect(0, 0, 50, 100), math.NewSize(40, 90), metadata.TextureFilterBilinear, true)
	assert.Same(tex, p.Texture)
	assert.Equal(0, p.Passes)
	assert.Equal(0, dev.Draws)
	assert.Equal(math.NewVec2Zero(), p.TopLeft)
	assert.InDelta(0.5, p.BottomRight.X, 1e-6)
	assert.InDelta(1.0, p.BottomRight.Y, 1e-6)
	assert.Equal([]string{"SetSampler bilinear"}, dev.Calls)
}

func TestPrepareEmptyCropMeansFullTexture(t *testing.T) {
	ctx, _, sink := newTestContext(t)
	tex, err := ctx.CreateTexture(math.NewSize(40, 20), false, false)
	require.NoError(t, err)

	logged := len(sink.lines)
	full := ctx.PrepareFullTexture(tex, math.NewSize(10, 10), metadata.TextureFilterPoint, false)
	assert.Len(t, sink.lines, logged)

	outside := ctx.PrepareTexture(tex, math.NewRect(100, 100, 5, 5), math.NewSize(10, 10), metadata.TextureFilterPoint, false)
	assert.Equal(t, math.NewVec2One(), full.BottomRight)
	assert.Equal(t, full, outside)
	assert.True(t, sink.contains("Crop 5x5 at (100,100) lies outside the 40x20 texture"))
}

func TestPrepareClipsCropToTexture(t *testing.T) {
	assert := assert.New(t)
	ctx, _, sink := newTestContext(t)
	tex, err := ctx.CreateTexture(math.NewSize(40, 20), false, false)
	require.NoError(t, err)

	logged := len(sink.lines)
	inside := ctx.PrepareTexture(tex, math.NewRect(20, 10, 20, 10), math.NewSize(10, 10), metadata.TextureFilterPoint, false)
	assert.Len(sink.lines, logged)

	clipped := ctx.PrepareTexture(tex, math.NewRect(20, 10, 50, 50), math.NewSize(10, 10), metadata.TextureFilterPoint, false)
	assert.Equal(inside.TopLeft, clipped.TopLeft)
	assert.Equal(inside.BottomRight, clipped.BottomRight)
	assert.True(sink.contains("Crop 50x50 at (20,10) was clipped to the 40x20 texture"))
}

func TestPrepareBilinearStaysWithinOneOctave(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	rng := rand.New(rand.NewSource(5))

	for i := 0; i < 25; i++ {
		size := math.NewSize(16+rng.Intn(1000), 16+rng.Intn(1000))
		target := math.NewSize(1+rng.Intn(size.W), 1+rng.Intn(size.H))
		tex, err := ctx.CreateTexture(size, false, false)
		require.NoError(t, err)

		p := ctx.PrepareFullTexture(tex, target, metadata.TextureFilterBilinear, false)

		working := size
		if p.Passes > 0 {
			working = ctx.Scratch().RequestedSize()
		}
		assert.True(t, working.Contains(target), "%v undershoots %v", working, target)
		assert.True(t, target.Scaled(2, 2).Contains(working), "%v is not within an octave of %v", working, target)

		steps := gomath.Log2(gomath.Max(float64(size.W)/float64(target.W), float64(size.H)/float64(target.H)))
		assert.LessOrEqual(t, float64(p.Passes), gomath.Ceil(steps))

		assert.InDelta(t, p.BottomRight.X/float32(target.W), p.PixelSize.X, 1e-6)
		ctx.DestroyTexture(tex)
	}
}
