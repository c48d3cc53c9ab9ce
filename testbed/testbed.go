package testbed

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/spaghettifunk/vidgfx/engine/assets/loaders"
	"github.com/spaghettifunk/vidgfx/engine/core"
	"github.com/spaghettifunk/vidgfx/engine/math"
	"github.com/spaghettifunk/vidgfx/engine/renderer"
	"github.com/spaghettifunk/vidgfx/engine/renderer/metadata"
)

const logCategory = "Testbed"

/**
 * @brief Renders a small compositing scene off-screen and writes what ended
 * up on the GPU to PNG files.
 */
type Testbed struct {
	ctx *renderer.Context
	log core.LogSink

	outDir string
	// rendered texels are stored RGBA instead of BGRA
	deviceSwizzled bool

	decal *renderer.DecalVertexSet
	owned []*renderer.Texture
	clock *core.Clock
}

func New(ctx *renderer.Context, log core.LogSink, outDir string, deviceSwizzled bool) *Testbed {
	if log == nil {
		log = core.NopLogger
	}
	return &Testbed{
		ctx:            ctx,
		log:            log,
		outDir:         outDir,
		deviceSwizzled: deviceSwizzled,
		decal:          ctx.NewDecalVertexSet(),
		clock:          core.NewClock(),
	}
}

/**
 * @brief Draws img at half size on CanvasA and converts a generated UYVY
 * frame. Returns the paths of the PNG files that were written.
 */
func (tb *Testbed) Run(img image.Image) ([]string, error) {
	var written []string

	tb.clock.Reset()
	tb.clock.Start()
	canvas, err := tb.drawImage(img)
	if err != nil {
		return written, err
	}
	path, err := tb.save("canvas.png", canvas)
	if err != nil {
		return written, err
	}
	written = append(written, path)

	frame, err := tb.convertFrame(math.NewSize(320, 180))
	if err != nil {
		return written, err
	}
	if err := tb.ctx.Flush(); err != nil {
		return written, err
	}
	core.LogNotice(tb.log, logCategory, "Scene rendered in %s", tb.clock.Stop())
	path, err = tb.save("uyvy.png", frame)
	if err != nil {
		return written, err
	}
	return append(written, path), nil
}

func (tb *Testbed) track(tex *renderer.Texture, err error) (*renderer.Texture, error) {
	if err == nil {
		tb.owned = append(tb.owned, tex)
	}
	return tex, err
}

func (tb *Testbed) drawImage(img image.Image) (*renderer.Texture, error) {
	ctx := tb.ctx
	tex, err := tb.track(ctx.CreateTextureFromImage(loaders.ToImageData(img), false, false))
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	half := math.NewSize(math.Max(tex.Width()/2, 1), math.Max(tex.Height()/2, 1))
	canvas := ctx.CanvasSize()
	if !math.NewRectFromSize(canvas).Contains(math.NewRectFromSize(half)) {
		return nil, fmt.Errorf("%w: %dx%d does not fit on the %dx%d canvas", core.ErrValidation, half.W, half.H, canvas.W, canvas.H)
	}
	prepared := ctx.PrepareFullTexture(tex, half, metadata.TextureFilterBilinear, true)
	core.LogNotice(tb.log, logCategory, "Prepared %dx%d image for %dx%d in %d passes",
		tex.Width(), tex.Height(), half.W, half.H, prepared.Passes)

	ctx.SetRenderTarget(metadata.RenderTargetCanvasA)
	ctx.Constants().SetViewMatrix(math.NewMat4Identity())
	ctx.Constants().SetProjectionMatrix(math.NewMat4Orthographic(0, float32(canvas.W), float32(canvas.H), 0, -1, 1))
	if err := ctx.Clear(math.NewColor(0.1, 0.1, 0.1, 1)); err != nil {
		return nil, err
	}

	tl, br := prepared.TopLeft, prepared.BottomRight
	tb.decal.SetRect(math.NewRectF(0, 0, float32(half.W), float32(half.H)))
	tb.decal.SetTextureUv(tl, math.NewVec2(br.X, tl.Y), math.NewVec2(tl.X, br.Y), br)
	ctx.SetShader(metadata.ShaderTexDecal)
	ctx.SetBlending(metadata.BlendingAlpha)
	if err := ctx.SetTexture(prepared.Texture); err != nil {
		return nil, err
	}
	if err := tb.decal.Draw(); err != nil {
		return nil, fmt.Errorf("failed to draw image: %w", err)
	}
	return tb.readback(ctx.TargetTexture(metadata.RenderTargetCanvasA), math.NewRectFromSize(half))
}

/**
 * @brief Fills a UYVY frame with horizontal colour bars over a vertical luma
 * ramp. Each texel holds two pixels.
 */
func uyvyBars(size math.Size) metadata.ImageData {
	bars := [][3]byte{
		// U, Y, V
		{128, 235, 128},
		{16, 210, 146},
		{166, 170, 16},
		{54, 145, 34},
		{202, 106, 222},
		{90, 81, 240},
		{240, 41, 110},
		{128, 16, 128},
	}
	texels := size.W / 2
	stride := texels * 4
	pixels := make([]byte, stride*size.H)
	for y := 0; y < size.H; y++ {
		for x := 0; x < texels; x++ {
			bar := bars[x*len(bars)/texels]
			luma := int(bar[1]) * (size.H - y/2) / size.H
			o := y*stride + x*4
			pixels[o+0] = bar[0]
			pixels[o+1] = byte(luma)
			pixels[o+2] = bar[2]
			pixels[o+3] = byte(luma)
		}
	}
	return metadata.ImageData{Width: texels, Height: size.H, Stride: stride, Pixels: pixels}
}

func (tb *Testbed) convertFrame(size math.Size) (*renderer.Texture, error) {
	ctx := tb.ctx
	data := uyvyBars(size)
	frame, err := tb.track(ctx.CreateTexture(math.NewSize(data.Width, data.Height), true, false))
	if err != nil {
		return nil, err
	}
	if err := frame.UpdateData(data); err != nil {
		return nil, err
	}
	out, err := ctx.ConvertToBgrx(metadata.PixelFormatUYVY, frame, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to convert frame: %w", err)
	}
	// out is a scratch texture, read it back before anything else renders
	return tb.readback(out, math.NewRect(0, 0, data.Width*2, data.Height))
}

func (tb *Testbed) readback(src *renderer.Texture, rect math.Rect) (*renderer.Texture, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nothing to read back", core.ErrValidation)
	}
	staging, err := tb.track(tb.ctx.CreateStagingTexture(rect.Size()))
	if err != nil {
		return nil, err
	}
	if err := tb.ctx.CopyTextureData(staging, src, math.Point{}, rect); err != nil {
		return nil, err
	}
	return staging, nil
}

/**
 * @brief Converts the mapped rows of a staging texture into an image. BGRA
 * texels are swapped back to RGBA unless the device stored them that way.
 */
func stagingImage(data []byte, stride int, size math.Size, swizzled bool) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size.W, size.H))
	rowBytes := size.W * 4
	for y := 0; y < size.H; y++ {
		src := data[y*stride : y*stride+rowBytes]
		dst := img.Pix[y*img.Stride : y*img.Stride+rowBytes]
		copy(dst, src)
		if !swizzled {
			for i := 0; i < rowBytes; i += 4 {
				dst[i], dst[i+2] = dst[i+2], dst[i]
			}
		}
		// the canvas is BGRX, alpha is meaningless
		for i := 3; i < rowBytes; i += 4 {
			dst[i] = 0xff
		}
	}
	return img
}

func (tb *Testbed) save(name string, staging *renderer.Texture) (string, error) {
	data, err := staging.Map()
	if err != nil {
		return "", err
	}
	img := stagingImage(data, staging.Stride(), staging.Size(), tb.deviceSwizzled)
	staging.Unmap()

	if err := os.MkdirAll(tb.outDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(tb.outDir, name)
	if err := imaging.Save(img, path); err != nil {
		return "", err
	}
	core.LogNotice(tb.log, logCategory, "Wrote %s", path)
	return path, nil
}

// Destroy releases every texture and buffer the testbed created.
func (tb *Testbed) Destroy() {
	for _, tex := range tb.owned {
		tb.ctx.DestroyTexture(tex)
	}
	tb.owned = nil
	tb.decal.Destroy()
}
