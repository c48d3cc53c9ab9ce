package renderer

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spaghettifunk/vidgfx/engine/core"
	"github.com/spaghettifunk/vidgfx/engine/math"
	"github.com/spaghettifunk/vidgfx/engine/renderer/metadata"
)

/**
 * @brief A device texture with a single owner. Created by the Context
 * factories and released only through Context.DestroyTexture.
 */
type Texture struct {
	device Device
	handle metadata.Handle
	id     uuid.UUID

	size     math.Size
	flags    metadata.TextureFlag
	swizzled bool

	/** @brief Non-nil while mapped. */
	mapped []byte
	stride int
}

func (t *Texture) ID() uuid.UUID {
	return t.id
}

func (t *Texture) Handle() metadata.Handle {
	return t.handle
}

func (t *Texture) Size() math.Size {
	return t.size
}

func (t *Texture) Width() int  { return t.size.W }
func (t *Texture) Height() int { return t.size.H }

func (t *Texture) Flags() metadata.TextureFlag {
	return t.flags
}

func (t *Texture) IsWritable() bool {
	return t.flags.Has(metadata.TextureFlagWritable)
}

func (t *Texture) IsTargetable() bool {
	return t.flags.Has(metadata.TextureFlagTargetable)
}

func (t *Texture) IsStaging() bool {
	return t.flags.Has(metadata.TextureFlagStaging)
}

// Swizzled reports whether shaders must swap red and blue when sampling.
func (t *Texture) Swizzled() bool {
	return t.swizzled
}

func (t *Texture) IsMapped() bool {
	return t.mapped != nil
}

/**
 * @brief Bytes per row. Only meaningful while the texture is mapped.
 */
func (t *Texture) Stride() int {
	return t.stride
}

/**
 * @brief Returns the mapped pixels, or nil when not mapped.
 */
func (t *Texture) Data() []byte {
	return t.mapped
}

/**
 * @brief Maps the texture for CPU access. Staging textures are mapped for
 * reading and block until the device has finished writing to them; writable
 * textures are mapped for writing and their previous contents are discarded.
 */
func (t *Texture) Map() ([]byte, error) {
	if t.mapped != nil {
		return t.mapped, nil
	}
	if !t.IsWritable() && !t.IsStaging() {
		return nil, fmt.Errorf("%w: texture %s is neither writable nor staging", core.ErrValidation, t.id)
	}
	data, stride, err := t.device.MapTexture(t.handle)
	if err != nil {
		return nil, err
	}
	t.mapped = data
	t.stride = stride
	return data, nil
}

func (t *Texture) Unmap() {
	if t.mapped == nil {
		return
	}
	t.device.UnmapTexture(t.handle)
	t.mapped = nil
	t.stride = 0
}

/**
 * @brief Copies BGRA pixels into a writable texture, honouring the different
 * row pitch of the source and the mapped texture.
 */
func (t *Texture) UpdateData(img metadata.ImageData) error {
	if !t.IsWritable() {
		return fmt.Errorf("%w: texture %s is not writable", core.ErrValidation, t.id)
	}
	if len(img.Pixels) == 0 {
		return nil
	}
	data, err := t.Map()
	if err != nil {
		return err
	}
	defer t.Unmap()
	copyRows(data, t.stride, t.size, img)
	return nil
}

func copyRows(dst []byte, dstStride int, size math.Size, img metadata.ImageData) {
	srcStride := img.Stride
	if srcStride == 0 {
		srcStride = img.Width * 4
	}
	if dstStride == srcStride && img.Width == size.W {
		n := math.Min(len(dst), len(img.Pixels))
		n = math.Min(n, dstStride*math.Min(size.H, img.Height))
		copy(dst[:n], img.Pixels[:n])
		return
	}
	rowLen := math.Min(dstStride, math.Min(img.Width, size.W)*4)
	rows := math.Min(size.H, img.Height)
	for y := 0; y < rows; y++ {
		s := img.Pixels[y*srcStride:]
		d := dst[y*dstStride:]
		copy(d[:rowLen], s[:math.Min(rowLen, len(s))])
	}
}
