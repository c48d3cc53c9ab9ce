package renderer

import (
	"fmt"

	"github.com/spaghettifunk/vidgfx/engine/core"
	"github.com/spaghettifunk/vidgfx/engine/math"
	"github.com/spaghettifunk/vidgfx/engine/renderer/geometry"
	"github.com/spaghettifunk/vidgfx/engine/renderer/metadata"
)

const logCategory = "Gfx"

type ContextCallback func(ctx *Context)

type callbackList struct {
	nextID int
	ids    []int
	fns    map[int]ContextCallback
}

func (l *callbackList) add(fn ContextCallback) func() {
	if l.fns == nil {
		l.fns = make(map[int]ContextCallback)
	}
	id := l.nextID
	l.nextID++
	l.ids = append(l.ids, id)
	l.fns[id] = fn
	return func() {
		delete(l.fns, id)
	}
}

func (l *callbackList) call(ctx *Context) {
	for _, id := range l.ids {
		if fn, ok := l.fns[id]; ok {
			fn(ctx)
		}
	}
}

/**
 * @brief The device agnostic graphics context. Owns the screen, canvas and
 * scratch targets, the shader constants and every texture or vertex buffer
 * created through it.
 *
 * A Context is not safe for concurrent use; it must be driven by a single
 * goroutine.
 */
type Context struct {
	device Device
	log    core.LogSink
	config core.RendererConfig
	ids    *core.Identifiers

	initialized bool
	constants   *ConstantStateCache
	scratch     *ScratchTargetPool

	// full extent quad shared by the prepare and convert passes
	decalBuf *VertexBuffer

	screen       *Texture
	canvas       [2]*Texture
	user         *Texture
	userViewport math.Rect

	current  metadata.RenderTarget
	shader   metadata.Shader
	topology metadata.Topology
	blending metadata.Blending
	filter   metadata.TextureFilter

	onInitialized callbackList
	onDestroying  callbackList
}

func NewContext(device Device, log core.LogSink, config core.RendererConfig) *Context {
	if log == nil {
		log = core.NopLogger
	}
	c := &Context{
		device:    device,
		log:       log,
		config:    config,
		ids:       core.NewIdentifiers(),
		constants: NewConstantStateCache(device),
		current:   metadata.RenderTargetScreen,
		topology:  metadata.TopologyTriangleStrip,
		filter:    metadata.TextureFilterPoint,
	}
	c.scratch = NewScratchTargetPool(c, log)
	c.scratch.onCapacityChange = c.constants.MarkChromaDirty
	return c
}

/**
 * @brief Loads the shaders and creates every resource the context owns. Any
 * failure here is unrecoverable for this context.
 */
func (c *Context) Initialize(loader metadata.ShaderLoader) error {
	if c.initialized {
		return nil
	}
	if err := c.device.LoadShaders(loader); err != nil {
		core.LogCritical(c.log, logCategory, "Failed to load shaders: %s", err)
		return fmt.Errorf("%w: %s", core.ErrUnrecoverable, err)
	}
	if err := c.constants.Create(); err != nil {
		core.LogCritical(c.log, logCategory, "Failed to create constant buffers: %s", err)
		return fmt.Errorf("%w: %s", core.ErrUnrecoverable, err)
	}
	buf, err := c.CreateVertexBuffer(geometry.TexDecalRectNumFloats)
	if err != nil {
		c.release()
		return fmt.Errorf("%w: %s", core.ErrUnrecoverable, err)
	}
	c.decalBuf = buf

	if err := c.ResizeScreenTarget(math.NewSize(c.config.ScreenWidth, c.config.ScreenHeight)); err != nil {
		c.release()
		return fmt.Errorf("%w: %s", core.ErrUnrecoverable, err)
	}
	if err := c.ResizeCanvasTarget(math.NewSize(c.config.CanvasWidth, c.config.CanvasHeight)); err != nil {
		c.release()
		return fmt.Errorf("%w: %s", core.ErrUnrecoverable, err)
	}
	if c.config.ScratchInitial > 0 {
		c.scratch.Resize(math.NewSize(c.config.ScratchInitial, c.config.ScratchInitial))
	}

	c.initialized = true
	c.SetRenderTarget(metadata.RenderTargetScreen)
	core.LogNotice(c.log, logCategory, "Graphics context initialized")
	c.onInitialized.call(c)
	return nil
}

func (c *Context) IsInitialized() bool {
	return c.initialized
}

/**
 * @brief Releases the context resources. Textures and vertex buffers the
 * application still holds are reported as leaks but not destroyed.
 */
func (c *Context) Destroy() {
	if !c.initialized {
		return
	}
	c.onDestroying.call(c)
	c.release()
	c.initialized = false

	for _, live := range c.ids.Live() {
		core.LogWarning(c.log, logCategory, "Resource was not destroyed before the context: %s", live)
	}
}

func (c *Context) release() {
	c.DestroyVertexBuffer(c.decalBuf)
	c.decalBuf = nil
	c.scratch.Destroy()
	for i, tex := range c.canvas {
		c.DestroyTexture(tex)
		c.canvas[i] = nil
	}
	c.DestroyTexture(c.screen)
	c.screen = nil
	c.user = nil
	c.constants.Destroy()
}

// AddInitializedCallback returns a function that removes the callback again.
func (c *Context) AddInitializedCallback(fn ContextCallback) func() {
	return c.onInitialized.add(fn)
}

func (c *Context) AddDestroyingCallback(fn ContextCallback) func() {
	return c.onDestroying.add(fn)
}

func (c *Context) Device() Device {
	return c.device
}

func (c *Context) Constants() *ConstantStateCache {
	return c.constants
}

func (c *Context) Scratch() *ScratchTargetPool {
	return c.scratch
}

/**
 * @brief Replaces the shader permutations with the ones provided by loader.
 * Pipelines built from the previous bytecode are discarded by the device.
 */
func (c *Context) ReloadShaders(loader metadata.ShaderLoader) error {
	if err := c.device.LoadShaders(loader); err != nil {
		core.LogWarning(c.log, logCategory, "Failed to reload shaders: %s", err)
		return err
	}
	core.LogNotice(c.log, logCategory, "Shaders reloaded")
	return nil
}

// Flush blocks until the device has executed every submitted command.
func (c *Context) Flush() error {
	return c.device.Flush()
}

//-----------------------------------------------------------------------------
// Textures

func (c *Context) CreateTexture(size math.Size, writable, targetable bool) (*Texture, error) {
	var flags metadata.TextureFlag
	if writable {
		flags |= metadata.TextureFlagWritable
	}
	if targetable {
		flags |= metadata.TextureFlagTargetable
	}
	return c.createTexture(metadata.TextureDesc{Size: size, Flags: flags})
}

/**
 * @brief Creates a texture initialised with the BGRA pixels of img.
 */
func (c *Context) CreateTextureFromImage(img metadata.ImageData, writable, targetable bool) (*Texture, error) {
	var flags metadata.TextureFlag
	if writable {
		flags |= metadata.TextureFlagWritable
	}
	if targetable {
		flags |= metadata.TextureFlagTargetable
	}
	return c.createTexture(metadata.TextureDesc{
		Size:   math.NewSize(img.Width, img.Height),
		Flags:  flags,
		Pixels: img.Pixels,
		Stride: img.Stride,
	})
}

/**
 * @brief Creates a texture the device can copy into and the CPU can map for
 * reading. Staging textures can never be bound to a shader.
 */
func (c *Context) CreateStagingTexture(size math.Size) (*Texture, error) {
	return c.createTexture(metadata.TextureDesc{Size: size, Flags: metadata.TextureFlagStaging})
}

// CreateTextureLike creates a texture with the size and pixel layout of other.
func (c *Context) CreateTextureLike(other *Texture, writable, targetable bool) (*Texture, error) {
	if other == nil {
		return nil, fmt.Errorf("%w: no texture to copy the layout from", core.ErrValidation)
	}
	return c.CreateTexture(other.Size(), writable, targetable)
}

func (c *Context) createTexture(desc metadata.TextureDesc) (*Texture, error) {
	if desc.Size.IsEmpty() {
		core.LogWarning(c.log, logCategory, "Cannot create a texture of size %dx%d", desc.Size.W, desc.Size.H)
		return nil, fmt.Errorf("%w: texture size %dx%d", core.ErrValidation, desc.Size.W, desc.Size.H)
	}
	id := c.ids.Acquire("texture")
	desc.Label = id.String()

	alloc, err := c.device.CreateTexture(desc)
	if err != nil {
		_ = c.ids.Release(id)
		core.LogWarning(c.log, logCategory, "Failed to create %dx%d texture: %s", desc.Size.W, desc.Size.H, err)
		return nil, fmt.Errorf("%w: %s", core.ErrAllocation, err)
	}
	return &Texture{
		device:   c.device,
		handle:   alloc.Handle,
		id:       id,
		size:     desc.Size,
		flags:    desc.Flags,
		swizzled: alloc.Swizzled,
	}, nil
}

/**
 * @brief Releases tex. Destroying nil or an already destroyed texture does
 * nothing.
 */
func (c *Context) DestroyTexture(tex *Texture) {
	if tex == nil || !tex.handle.IsValid() {
		return
	}
	tex.Unmap()
	if c.user == tex {
		c.user = nil
	}
	c.device.DestroyTexture(tex.handle)
	if err := c.ids.Release(tex.id); err != nil {
		core.LogWarning(c.log, logCategory, "%s", err)
	}
	tex.handle = metadata.InvalidHandle
}

/**
 * @brief Copies srcRect of src into dst at dstPos. An empty srcRect copies
 * all of src. Neither texture may be mapped and both regions must lie inside
 * their textures.
 */
func (c *Context) CopyTextureData(dst, src *Texture, dstPos math.Point, srcRect math.Rect) error {
	if dst == nil || src == nil {
		return fmt.Errorf("%w: missing texture for copy", core.ErrValidation)
	}
	if dst == src {
		core.LogWarning(c.log, logCategory, "Cannot copy texture data onto itself")
		return fmt.Errorf("%w: source and destination are the same texture", core.ErrValidation)
	}
	if dst.IsMapped() || src.IsMapped() {
		core.LogWarning(c.log, logCategory, "Cannot copy texture data while mapped")
		return fmt.Errorf("%w: texture is mapped", core.ErrValidation)
	}
	if srcRect.IsEmpty() {
		srcRect = math.NewRectFromSize(src.Size())
	}
	if !math.NewRectFromSize(src.Size()).Contains(srcRect) {
		core.LogWarning(c.log, logCategory, "Source rectangle doesn't fit in the source texture")
		return fmt.Errorf("%w: source rectangle out of bounds", core.ErrValidation)
	}
	dstRect := math.NewRect(dstPos.X, dstPos.Y, srcRect.W, srcRect.H)
	if !math.NewRectFromSize(dst.Size()).Contains(dstRect) {
		core.LogWarning(c.log, logCategory, "Source rectangle doesn't fit in the destination texture")
		return fmt.Errorf("%w: destination rectangle out of bounds", core.ErrValidation)
	}
	if err := c.device.CopyTexture(dst.handle, dstPos, src.handle, srcRect); err != nil {
		core.LogWarning(c.log, logCategory, "Failed to copy texture data: %s", err)
		return err
	}
	return nil
}

//-----------------------------------------------------------------------------
// Vertex buffers

func (c *Context) CreateVertexBuffer(numFloats int) (*VertexBuffer, error) {
	if numFloats <= 0 {
		return nil, fmt.Errorf("%w: vertex buffer of %d floats", core.ErrValidation, numFloats)
	}
	handle, err := c.device.CreateBuffer(metadata.BufferKindVertex, numFloats)
	if err != nil {
		core.LogWarning(c.log, logCategory, "Failed to create vertex buffer: %s", err)
		return nil, fmt.Errorf("%w: %s", core.ErrAllocation, err)
	}
	return &VertexBuffer{
		device:   c.device,
		handle:   handle,
		id:       c.ids.Acquire("vertex buffer"),
		data:     make([]float32, numFloats),
		vertSize: 8,
	}, nil
}

func (c *Context) DestroyVertexBuffer(vb *VertexBuffer) {
	if vb == nil || !vb.handle.IsValid() {
		return
	}
	c.device.DestroyBuffer(vb.handle)
	if err := c.ids.Release(vb.id); err != nil {
		core.LogWarning(c.log, logCategory, "%s", err)
	}
	vb.handle = metadata.InvalidHandle
}

//-----------------------------------------------------------------------------
// Render targets

/**
 * @brief Recreates both canvas targets at size. Nothing happens when the
 * canvas already has that size.
 */
func (c *Context) ResizeCanvasTarget(size math.Size) error {
	if c.canvas[0] != nil && c.canvas[0].Size() == size {
		return nil
	}
	core.LogNotice(c.log, logCategory, "Setting canvas target size to %dx%d", size.W, size.H)
	for i, tex := range c.canvas {
		c.DestroyTexture(tex)
		c.canvas[i] = nil
	}
	for i := range c.canvas {
		tex, err := c.CreateTexture(size, false, true)
		if err != nil {
			return err
		}
		c.canvas[i] = tex
	}
	if c.current.IsCanvas() {
		c.SetRenderTarget(c.current)
	}
	return nil
}

func (c *Context) CanvasSize() math.Size {
	if c.canvas[0] == nil {
		return math.Size{}
	}
	return c.canvas[0].Size()
}

// ResizeScreenTarget recreates the off-screen texture that stands in for the screen.
func (c *Context) ResizeScreenTarget(size math.Size) error {
	if c.screen != nil && c.screen.Size() == size {
		return nil
	}
	core.LogNotice(c.log, logCategory, "Setting screen target size to %dx%d", size.W, size.H)
	c.DestroyTexture(c.screen)
	c.screen = nil
	tex, err := c.CreateTexture(size, false, true)
	if err != nil {
		return err
	}
	c.screen = tex
	if c.current == metadata.RenderTargetScreen {
		c.SetRenderTarget(c.current)
	}
	return nil
}

func (c *Context) ScreenSize() math.Size {
	if c.screen == nil {
		return math.Size{}
	}
	return c.screen.Size()
}

/**
 * @brief Makes tex the User render target, or removes it when tex is nil. The
 * viewport is reset to the full texture.
 */
func (c *Context) SetUserRenderTarget(tex *Texture) error {
	if tex != nil && !tex.IsTargetable() {
		core.LogWarning(c.log, logCategory, "Attempted to set a non-targetable texture as a render target")
		return fmt.Errorf("%w: texture %s is not targetable", core.ErrValidation, tex.ID())
	}
	c.user = tex
	c.userViewport = math.Rect{}
	if tex != nil {
		c.userViewport = math.NewRectFromSize(tex.Size())
	}
	if c.current == metadata.RenderTargetUser {
		c.SetRenderTarget(c.current)
	}
	return nil
}

func (c *Context) SetUserRenderTargetViewport(viewport math.Rect) {
	c.userViewport = viewport
	if c.current == metadata.RenderTargetUser {
		c.SetRenderTarget(c.current)
	}
}

// TargetTexture returns nil when the target has no texture yet.
func (c *Context) TargetTexture(target metadata.RenderTarget) *Texture {
	switch {
	case target == metadata.RenderTargetScreen:
		return c.screen
	case target == metadata.RenderTargetCanvasA:
		return c.canvas[0]
	case target == metadata.RenderTargetCanvasB:
		return c.canvas[1]
	case target.IsScratch():
		return c.scratch.Texture(target)
	case target == metadata.RenderTargetUser:
		return c.user
	}
	return nil
}

func (c *Context) targetViewport(target metadata.RenderTarget, tex *Texture) math.Rect {
	switch {
	case target.IsScratch():
		return math.NewRectFromSize(c.scratch.RequestedSize())
	case target == metadata.RenderTargetUser && !c.userViewport.IsEmpty():
		return c.userViewport
	}
	return math.NewRectFromSize(tex.Size())
}

/**
 * @brief Makes target current and binds it with its viewport. The camera
 * constants always follow the selection, even when the target has no texture
 * yet and nothing could be bound.
 */
func (c *Context) SetRenderTarget(target metadata.RenderTarget) {
	c.current = target
	c.constants.SetCurrentTarget(target)

	tex := c.TargetTexture(target)
	if tex == nil {
		core.LogWarning(c.log, logCategory, "Attempted to select a render target that doesn't exist yet")
		return
	}
	c.device.SetRenderTarget(tex.handle, c.targetViewport(target, tex))
}

func (c *Context) RenderTarget() metadata.RenderTarget {
	return c.current
}

//-----------------------------------------------------------------------------
// Pipeline state

func (c *Context) SetShader(shader metadata.Shader) {
	c.shader = shader
	c.device.SetShader(shader)
}

func (c *Context) Shader() metadata.Shader {
	return c.shader
}

func (c *Context) SetTopology(topology metadata.Topology) {
	c.topology = topology
	c.device.SetTopology(topology)
}

func (c *Context) Topology() metadata.Topology {
	return c.topology
}

func (c *Context) SetBlending(blending metadata.Blending) {
	c.blending = blending
	c.device.SetBlending(blending)
}

func (c *Context) Blending() metadata.Blending {
	return c.blending
}

func (c *Context) SetTextureFilter(filter metadata.TextureFilter) {
	c.filter = filter
	c.device.SetSampler(filter)
}

func (c *Context) TextureFilter() metadata.TextureFilter {
	return c.filter
}

/**
 * @brief Binds up to three textures to the pixel stage. Whether the decal
 * shaders swizzle follows the first texture.
 */
func (c *Context) SetTexture(textures ...*Texture) error {
	handles := make([]metadata.Handle, len(textures))
	for i, tex := range textures {
		if tex == nil {
			continue
		}
		if tex.IsStaging() {
			core.LogWarning(c.log, logCategory, "Attempted to bind a staging texture to a shader")
			return fmt.Errorf("%w: staging texture bound to a shader", core.ErrValidation)
		}
		if tex.IsMapped() {
			core.LogWarning(c.log, logCategory, "Attempted to bind a mapped texture to a shader")
			return fmt.Errorf("%w: mapped texture bound to a shader", core.ErrValidation)
		}
		handles[i] = tex.handle
	}
	swizzle := false
	if len(textures) > 0 && textures[0] != nil {
		swizzle = textures[0].Swizzled()
	}
	c.constants.SetDecalSwizzle(swizzle)
	c.device.SetTextures(handles...)
	return nil
}

func (c *Context) Clear(color math.Color) error {
	return c.device.Clear(color)
}

/**
 * @brief Draws numVerts vertices of vb starting at startVert with the current
 * pipeline state. A negative numVerts draws the rest of the buffer.
 */
func (c *Context) DrawBuffer(vb *VertexBuffer, numVerts, startVert int) error {
	if vb == nil || !vb.handle.IsValid() {
		return fmt.Errorf("%w: no vertex buffer to draw", core.ErrValidation)
	}
	if numVerts < 0 {
		numVerts = math.Max(vb.NumVerts()-startVert, 0)
	}
	if numVerts == 0 {
		return nil
	}
	if err := vb.upload(); err != nil {
		core.LogWarning(c.log, logCategory, "Failed to upload vertex buffer: %s", err)
		return fmt.Errorf("%w: %s", core.ErrAllocation, err)
	}
	c.device.SetVertexBuffer(vb.handle, vb.vertSize)
	if err := c.constants.bind(c.shader); err != nil {
		core.LogWarning(c.log, logCategory, "Failed to upload shader constants: %s", err)
		return err
	}
	return c.device.Draw(numVerts, startVert)
}

//-----------------------------------------------------------------------------
// Scratch passes

/**
 * @brief One full extent draw into the next scratch target, shared by the
 * mipmap chain and the colour conversion.
 */
type scratchPass struct {
	shader   metadata.Shader
	filter   metadata.TextureFilter
	textures []*Texture
	size     math.Size
	brUv     math.Vec2

	// optional raw chroma constants computed from the physical scratch size
	chroma func(capacity math.Size) []float32
}

/**
 * @brief Renders p into pool.Next() and returns the scratch texture. The
 * scratch target stays bound; callers restore their own target.
 */
func (c *Context) renderScratchPass(p scratchPass) (*Texture, error) {
	if err := c.decalBuf.WriteTexDecalRectBr(math.NewRectF(0, 0, float32(p.size.W), float32(p.size.H)), p.brUv); err != nil {
		return nil, err
	}
	c.scratch.Resize(p.size)
	target := c.scratch.Next()
	tex := c.scratch.Texture(target)
	if tex == nil {
		return nil, fmt.Errorf("%w: no scratch texture", core.ErrAllocation)
	}
	c.SetRenderTarget(target)
	c.constants.SetViewMatrix(math.NewMat4Identity())
	c.constants.SetProjectionMatrix(math.NewMat4Orthographic(0, float32(p.size.W), float32(p.size.H), 0, -1, 1))

	if p.chroma != nil {
		if err := c.constants.uploadChromaRaw(p.chroma(c.scratch.Capacity())); err != nil {
			core.LogWarning(c.log, logCategory, "Failed to upload conversion constants: %s", err)
			return nil, err
		}
	}

	prevShader, prevTopology, prevBlending := c.shader, c.topology, c.blending
	defer func() {
		c.SetShader(prevShader)
		c.SetTopology(prevTopology)
		c.SetBlending(prevBlending)
	}()

	c.SetShader(p.shader)
	c.SetTopology(metadata.TopologyTriangleStrip)
	c.SetBlending(metadata.BlendingNone)
	if err := c.SetTexture(p.textures...); err != nil {
		return nil, err
	}
	c.SetTextureFilter(p.filter)
	if err := c.DrawBuffer(c.decalBuf, -1, 0); err != nil {
		return nil, err
	}
	return tex, nil
}
