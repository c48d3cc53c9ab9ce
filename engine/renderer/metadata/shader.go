package metadata

/**
 * @brief The fixed set of shader programs. Each one is a vertex and pixel
 * stage pair loaded from compiled bytecode at device initialization.
 */
type Shader int

const (
	ShaderNone Shader = iota
	/** @brief Per vertex colour. */
	ShaderSolid
	/** @brief Textured quad modulated by a colour. */
	ShaderTexDecal
	/** @brief Textured quad with gamma, brightness, contrast and saturation. */
	ShaderTexDecalGbcs
	/** @brief Textured quad that ignores the source alpha. */
	ShaderTexDecalRgb
	/** @brief Resize handles drawn over a layer. */
	ShaderResizeLayer
	/** @brief Resamples a 4:2:2 chroma plane. */
	ShaderRgbNv16
	ShaderYv12Rgb
	ShaderUyvyRgb
	ShaderHdycRgb
	ShaderYuy2Rgb
)

const NumShaders = int(ShaderYuy2Rgb) + 1

// Shaders lists every program except ShaderNone.
func Shaders() []Shader {
	return []Shader{
		ShaderSolid,
		ShaderTexDecal,
		ShaderTexDecalGbcs,
		ShaderTexDecalRgb,
		ShaderResizeLayer,
		ShaderRgbNv16,
		ShaderYv12Rgb,
		ShaderUyvyRgb,
		ShaderHdycRgb,
		ShaderYuy2Rgb,
	}
}

/** @brief Returns the permutation names of the vertex and pixel stages. */
func (s Shader) StageNames() (vertex string, pixel string) {
	switch s {
	case ShaderSolid:
		return "solid-vs", "solid-ps"
	case ShaderTexDecal:
		return "texDecal-vs", "texDecal-ps"
	case ShaderTexDecalGbcs:
		return "texDecal-vs", "texDecalGbcs-ps"
	case ShaderTexDecalRgb:
		return "texDecal-vs", "texDecalRgb-ps"
	case ShaderResizeLayer:
		return "resize-vs", "resize-ps"
	case ShaderRgbNv16:
		return "texDecal-vs", "rgb-nv16-ps"
	case ShaderYv12Rgb:
		return "texDecal-vs", "yv12-rgb-ps"
	case ShaderUyvyRgb:
		return "texDecal-vs", "uyvy-rgb-ps"
	case ShaderHdycRgb:
		return "texDecal-vs", "hdyc-rgb-ps"
	case ShaderYuy2Rgb:
		return "texDecal-vs", "yuy2-rgb-ps"
	}
	return "", ""
}

/**
 * @brief Number of float32 values per vertex the shader reads: position plus
 * colour or texture coordinate for everything except the resize layer.
 */
func (s Shader) VertexSize() int {
	if s == ShaderResizeLayer {
		return 4
	}
	return 8
}

// IsYuv reports whether the shader converts packed or planar YUV.
func (s Shader) IsYuv() bool {
	switch s {
	case ShaderYv12Rgb, ShaderUyvyRgb, ShaderHdycRgb, ShaderYuy2Rgb:
		return true
	}
	return false
}

func (s Shader) IsDecal() bool {
	switch s {
	case ShaderTexDecal, ShaderTexDecalGbcs, ShaderTexDecalRgb:
		return true
	}
	return false
}

func (s Shader) String() string {
	switch s {
	case ShaderNone:
		return "none"
	case ShaderSolid:
		return "solid"
	case ShaderTexDecal:
		return "texDecal"
	case ShaderTexDecalGbcs:
		return "texDecalGbcs"
	case ShaderTexDecalRgb:
		return "texDecalRgb"
	case ShaderResizeLayer:
		return "resizeLayer"
	case ShaderRgbNv16:
		return "rgbNv16"
	case ShaderYv12Rgb:
		return "yv12Rgb"
	case ShaderUyvyRgb:
		return "uyvyRgb"
	case ShaderHdycRgb:
		return "hdycRgb"
	case ShaderYuy2Rgb:
		return "yuy2Rgb"
	}
	return "unknown"
}

// ShaderStage selects the constant buffer slot a buffer is bound to.
type ShaderStage int

const (
	ShaderStageVertex ShaderStage = iota
	ShaderStagePixel
)
