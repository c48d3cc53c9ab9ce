package renderer

import (
	"fmt"

	"github.com/spaghettifunk/vidgfx/engine/core"
	"github.com/spaghettifunk/vidgfx/engine/math"
	"github.com/spaghettifunk/vidgfx/engine/renderer/metadata"
)

/**
 * @brief Converts YUV planes into a single BGRX texture.
 *
 * Planar 4:2:0 input (YV12, IYUV) needs the luma plane and both chroma planes
 * at exactly half its size; IYUV is YV12 with the chroma planes swapped.
 * Packed 4:2:2 input (UYVY, HDYC, YUY2) only uses planeA. Every plane stores
 * four samples per BGRA texel.
 *
 * The result is a scratch texture and stays valid until the next scratch
 * pass of this context.
 */
func (c *Context) ConvertToBgrx(format metadata.PixelFormat, planeA, planeB, planeC *Texture) (*Texture, error) {
	var (
		shader metadata.Shader
		size   math.Size
		chroma func(capacity math.Size) []float32
	)

	switch format {
	case metadata.PixelFormatYV12, metadata.PixelFormatIYUV:
		if format == metadata.PixelFormatIYUV {
			planeB, planeC = planeC, planeB
		}
		if planeA == nil || planeB == nil || planeC == nil {
			core.LogWarning(c.log, logCategory, "Cannot convert %s without all three planes", format)
			return nil, fmt.Errorf("%w: %s needs three planes", core.ErrValidation, format)
		}
		half := math.NewSize(planeA.Width()/2, planeA.Height()/2)
		if planeB.Size() != half || planeC.Size() != half {
			core.LogWarning(c.log, logCategory, "Chroma planes of %s must be half the size of the luma plane", format)
			return nil, fmt.Errorf("%w: %s chroma planes are not %dx%d", core.ErrValidation, format, half.W, half.H)
		}
		shader = metadata.ShaderYv12Rgb
		size = math.NewSize(planeA.Width()*4, planeA.Height())
		chroma = func(capacity math.Size) []float32 {
			w := float32(capacity.W)
			return []float32{4.0 / w, 0.125 / w, 8.0 / w, 0.0625 / w}
		}

	case metadata.PixelFormatUYVY, metadata.PixelFormatHDYC, metadata.PixelFormatYUY2:
		if planeA == nil {
			core.LogWarning(c.log, logCategory, "Cannot convert %s without a texture", format)
			return nil, fmt.Errorf("%w: %s needs a texture", core.ErrValidation, format)
		}
		switch format {
		case metadata.PixelFormatUYVY:
			shader = metadata.ShaderUyvyRgb
		case metadata.PixelFormatHDYC:
			shader = metadata.ShaderHdycRgb
		default:
			shader = metadata.ShaderYuy2Rgb
		}
		size = math.NewSize(planeA.Width()*2, planeA.Height())
		planeB, planeC = nil, nil
		chroma = func(capacity math.Size) []float32 {
			w := float32(capacity.W)
			return []float32{2.0 / w, 1.0 / w, 0, 0}
		}

	case metadata.PixelFormatNV12:
		// no shader permutation exists for NV12
		return nil, fmt.Errorf("%w: %s conversion is not implemented", core.ErrUnsupportedInput, format)

	default:
		return nil, fmt.Errorf("%w: %s cannot be converted", core.ErrUnsupportedInput, format)
	}

	if size.IsEmpty() {
		core.LogWarning(c.log, logCategory, "Cannot convert an empty %s frame", format)
		return nil, fmt.Errorf("%w: empty %s frame", core.ErrValidation, format)
	}

	prevTarget := c.current
	defer c.SetRenderTarget(prevTarget)

	textures := []*Texture{planeA}
	if planeB != nil {
		textures = append(textures, planeB, planeC)
	}
	out, err := c.renderScratchPass(scratchPass{
		shader:   shader,
		filter:   metadata.TextureFilterPoint,
		textures: textures,
		size:     size,
		brUv:     math.NewVec2One(),
		chroma:   chroma,
	})
	if err != nil {
		core.LogWarning(c.log, logCategory, "Failed to convert %s frame: %s", format, err)
		return nil, err
	}
	return out, nil
}
