package renderer

import (
	"github.com/spaghettifunk/vidgfx/engine/math"
	"github.com/spaghettifunk/vidgfx/engine/renderer/metadata"
)

/**
 * @brief The capability set a GPU backend provides to the Context. The
 * Context never talks to a graphics API directly; adding a backend means
 * implementing this interface.
 *
 * All calls are made from the goroutine that owns the Context. Binding calls
 * only record state; Draw, Clear and CopyTexture consume it.
 */
type Device interface {
	/** @brief Compiles every shader permutation from the loader. May be called again to reload. */
	LoadShaders(loader metadata.ShaderLoader) error
	/** @brief Blocks until all submitted work has finished. */
	Flush() error
	Shutdown() error

	CreateBuffer(kind metadata.BufferKind, numFloats int) (metadata.Handle, error)
	DestroyBuffer(buf metadata.Handle)
	UpdateBuffer(buf metadata.Handle, data []float32) error

	CreateTexture(desc metadata.TextureDesc) (metadata.TextureAllocation, error)
	DestroyTexture(tex metadata.Handle)
	/**
	 * @brief Maps a writable or staging texture. Staging textures are mapped
	 * for reading and reflect all previously submitted copies.
	 */
	MapTexture(tex metadata.Handle) (data []byte, stride int, err error)
	UnmapTexture(tex metadata.Handle)
	/** @brief Copies srcRect of src to dstPos in dst. Bounds are validated by the caller. */
	CopyTexture(dst metadata.Handle, dstPos math.Point, src metadata.Handle, srcRect math.Rect) error

	SetRenderTarget(tex metadata.Handle, viewport math.Rect)
	Clear(color math.Color) error
	SetShader(shader metadata.Shader)
	SetTopology(topology metadata.Topology)
	SetBlending(blending metadata.Blending)
	/** @brief Binds up to three textures to the pixel stage, in slot order. */
	SetTextures(textures ...metadata.Handle)
	SetSampler(filter metadata.TextureFilter)
	SetConstantBuffer(stage metadata.ShaderStage, buf metadata.Handle)
	SetVertexBuffer(buf metadata.Handle, vertSize int)
	Draw(numVertices, startVertex int) error
}
