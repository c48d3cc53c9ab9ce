package metadata

import "github.com/spaghettifunk/vidgfx/engine/math"

// Handle names a device resource. Zero is never a valid handle.
type Handle uint32

const InvalidHandle Handle = 0

func (h Handle) IsValid() bool {
	return h != InvalidHandle
}

type TextureFlag uint8

const (
	/** @brief The CPU can map the texture for writing. */
	TextureFlagWritable TextureFlag = 0x1
	/** @brief The texture can be bound as a render target. */
	TextureFlagTargetable TextureFlag = 0x2
	/** @brief The texture is a CPU readback buffer and cannot be sampled. */
	TextureFlagStaging TextureFlag = 0x4
)

func (f TextureFlag) Has(flag TextureFlag) bool {
	return f&flag != 0
}

/**
 * @brief Everything a device needs to create a texture. All textures are
 * 8 bit BGRA; YUV planes are packed four bytes per texel.
 */
type TextureDesc struct {
	/** @brief The size in texels. Must not be empty. */
	Size math.Size
	/** @brief Usage flags. */
	Flags TextureFlag
	/** @brief Optional initial BGRA pixels, Stride bytes per row. */
	Pixels []byte
	/** @brief Row pitch of Pixels in bytes. */
	Stride int
	/** @brief A debug name for validation layers and logs. */
	Label string
}

/** @brief The result of a texture creation. */
type TextureAllocation struct {
	Handle Handle
	/**
	 * @brief True when the device stores the texels as RGBA because BGRA cannot
	 * be sampled. Shaders must swizzle when reading such a texture.
	 */
	Swizzled bool
}

/** @brief Represents supported texture filtering modes. */
type TextureFilter int

const (
	/** @brief Nearest-neighbor filtering. */
	TextureFilterPoint TextureFilter = iota
	/** @brief Linear (i.e. bilinear) filtering.*/
	TextureFilterBilinear
	/** @brief Linear filtering with wrapping, used by the resize layer shader. */
	TextureFilterResizeLayer
)

func (f TextureFilter) String() string {
	switch f {
	case TextureFilterPoint:
		return "point"
	case TextureFilterBilinear:
		return "bilinear"
	case TextureFilterResizeLayer:
		return "resizeLayer"
	}
	return "unknown"
}

/** @brief How texture coordinates are mapped onto a decal rectangle. */
type Orientation int

const (
	OrientationUnchanged Orientation = iota
	/** @brief Upside down. */
	OrientationFlipped
	/** @brief Left to right. */
	OrientationMirrored
	OrientationFlippedMirrored
)

/** @brief Layout of raw video frames handed to the colour space converter. */
type PixelFormat int

const (
	PixelFormatNone PixelFormat = iota
	PixelFormatRGB24
	PixelFormatRGB32
	PixelFormatARGB32
	/** @brief Planar 4:2:0, planes Y, V, U. */
	PixelFormatYV12
	/** @brief Planar 4:2:0, planes Y, U, V. */
	PixelFormatIYUV
	/** @brief Semi planar 4:2:0. */
	PixelFormatNV12
	/** @brief Packed 4:2:2, U Y0 V Y1, BT.601. */
	PixelFormatUYVY
	/** @brief Packed 4:2:2, U Y0 V Y1, BT.709. */
	PixelFormatHDYC
	/** @brief Packed 4:2:2, Y0 U Y1 V. */
	PixelFormatYUY2
)

func (p PixelFormat) String() string {
	switch p {
	case PixelFormatNone:
		return "none"
	case PixelFormatRGB24:
		return "RGB24"
	case PixelFormatRGB32:
		return "RGB32"
	case PixelFormatARGB32:
		return "ARGB32"
	case PixelFormatYV12:
		return "YV12"
	case PixelFormatIYUV:
		return "IYUV"
	case PixelFormatNV12:
		return "NV12"
	case PixelFormatUYVY:
		return "UYVY"
	case PixelFormatHDYC:
		return "HDYC"
	case PixelFormatYUY2:
		return "YUY2"
	}
	return "unknown"
}
