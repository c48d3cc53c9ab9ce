package renderer

import (
	"github.com/spaghettifunk/vidgfx/engine/core"
	"github.com/spaghettifunk/vidgfx/engine/math"
	"github.com/spaghettifunk/vidgfx/engine/renderer/metadata"
)

/**
 * @brief The result of preparing a texture for display. Raw texture sizes are
 * meaningless once a scratch target is involved; sample Texture between
 * TopLeft and BottomRight, which are normalized to Texture.
 */
type Prepared struct {
	Texture     *Texture
	TopLeft     math.Vec2
	BottomRight math.Vec2
	/** @brief Normalized size of one target pixel. */
	PixelSize math.Vec2
	/** @brief Number of halving passes that were rendered. */
	Passes int
}

// PrepareFullTexture prepares the whole of tex.
func (c *Context) PrepareFullTexture(tex *Texture, size math.Size, filter metadata.TextureFilter, setFilter bool) Prepared {
	return c.PrepareTexture(tex, math.Rect{}, size, filter, setFilter)
}

/**
 * @brief Makes crop of tex suitable to be drawn at size with filter.
 *
 * Point filtering samples the source directly. Any other filter halves the
 * texture through the scratch targets until it is within one octave of the
 * target size so bilinear sampling does not alias. The returned texture can
 * be a scratch texture, which is only valid until the next scratch pass.
 *
 * @param crop The part of tex to prepare. Empty means all of it.
 * @param setFilter Also select the sampler matching filter on the context.
 */
func (c *Context) PrepareTexture(tex *Texture, crop math.Rect, size math.Size, filter metadata.TextureFilter, setFilter bool) Prepared {
	if setFilter {
		c.selectPreparedFilter(filter)
	}
	if tex == nil || size.IsEmpty() || tex.Size().IsEmpty() {
		return Prepared{
			Texture:     tex,
			TopLeft:     math.NewVec2Zero(),
			BottomRight: math.NewVec2One(),
			PixelSize:   math.NewVec2One(),
		}
	}

	texSize := tex.Size()
	bounds := math.NewRectFromSize(texSize)
	if !crop.IsEmpty() {
		clipped := crop.Intersected(bounds)
		if clipped != crop {
			if clipped.IsEmpty() {
				core.LogWarning(c.log, logCategory, "Crop %dx%d at (%d,%d) lies outside the %dx%d texture, using the whole texture",
					crop.W, crop.H, crop.X, crop.Y, texSize.W, texSize.H)
			} else {
				core.LogWarning(c.log, logCategory, "Crop %dx%d at (%d,%d) was clipped to the %dx%d texture",
					crop.W, crop.H, crop.X, crop.Y, texSize.W, texSize.H)
			}
		}
		crop = clipped
	}
	if crop.IsEmpty() {
		crop = bounds
	}
	texSizeF := math.NewVec2FromSize(texSize)
	cropBr := math.NewVec2(float32(crop.Right()+1), float32(crop.Bottom()+1))

	var ret Prepared
	if filter == metadata.TextureFilterPoint {
		ret.Texture = tex
		ret.TopLeft = math.NewVec2FromPoint(crop.TopLeft()).Div(texSizeF)
		ret.BottomRight = cropBr.Div(texSizeF)
	} else {
		working, ratio, passes := c.halveTexture(tex, crop, size)
		ret.Texture = working
		ret.Passes = passes
		ret.TopLeft = math.NewVec2Zero()
		ret.BottomRight = ratio
		if crop != bounds {
			px := ratio.Div(texSizeF)
			ret.TopLeft = math.NewVec2FromPoint(crop.TopLeft()).Mul(px)
			ret.BottomRight = cropBr.Mul(px)
		}
	}
	ret.PixelSize = ret.BottomRight.Sub(ret.TopLeft).Div(math.NewVec2FromSize(size))
	return ret
}

// Point stays point, every other filter samples the prepared texture bilinearly.
func (c *Context) selectPreparedFilter(filter metadata.TextureFilter) {
	if filter == metadata.TextureFilterPoint {
		c.SetTextureFilter(metadata.TextureFilterPoint)
		return
	}
	c.SetTextureFilter(metadata.TextureFilterBilinear)
}

/**
 * @brief Runs the halving chain. The working size stops within one octave of
 * the size the full texture would need for crop to cover size, and never goes
 * below it.
 *
 * @return The final texture, the part of it holding the full source and the
 * number of passes.
 */
func (c *Context) halveTexture(tex *Texture, crop math.Rect, size math.Size) (*Texture, math.Vec2, int) {
	texSizeF := math.NewVec2FromSize(tex.Size())
	cropRel := math.NewVec2FromSize(crop.Size()).Div(texSizeF)
	inv := math.NewSize(
		int(math.Ceil(float32(size.W)/cropRel.X)),
		int(math.Ceil(float32(size.H)/cropRel.Y)))

	prevTarget := c.current
	working := tex
	ratio := math.NewVec2One()
	next := tex.Size()
	passes := 0
	attempted := false

	for next.W > 2*inv.W || next.H > 2*inv.H {
		next = math.NewSize(
			math.Max((next.W+1)/2, inv.W),
			math.Max((next.H+1)/2, inv.H))

		attempted = true
		out, err := c.renderScratchPass(scratchPass{
			shader:   metadata.ShaderTexDecal,
			filter:   metadata.TextureFilterBilinear,
			textures: []*Texture{working},
			size:     next,
			brUv:     ratio,
		})
		if err != nil {
			core.LogWarning(c.log, logCategory, "Failed to downscale texture to %dx%d: %s", next.W, next.H, err)
			break
		}
		working = out
		ratio = c.scratch.Ratio()
		passes++
	}

	// a failed pass can leave a scratch target bound
	if attempted {
		c.SetRenderTarget(prevTarget)
	}
	return working, ratio, passes
}
