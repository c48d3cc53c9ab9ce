package renderer

import (
	"fmt"
	gomath "math"

	"github.com/spaghettifunk/vidgfx/engine/core"
	"github.com/spaghettifunk/vidgfx/engine/math"
	"github.com/spaghettifunk/vidgfx/engine/renderer/metadata"
)

const (
	cameraConstantsSize = 32
	resizeConstantsSize = 4
	chromaConstantsSize = 4
	decalConstantsSize  = 12
)

// swizzleOn is the all bits set word the decal shader tests for.
var swizzleOn = gomath.Float32frombits(0xFFFFFFFF)

/**
 * @brief Local floats, the device buffer they are uploaded to and whether the
 * two differ.
 */
type constantGroup struct {
	data   []float32
	buffer metadata.Handle
	dirty  bool
}

func newConstantGroup(size int) constantGroup {
	return constantGroup{data: make([]float32, size), dirty: true}
}

/**
 * @brief Caches the shader constants of the context and uploads them lazily.
 *
 * Setters only touch local state and mark the owning group dirty when the
 * value actually changed. The upload happens in bind, right before a draw
 * that reads the group.
 */
type ConstantStateCache struct {
	device Device

	current metadata.RenderTarget
	views   [metadata.NumMatrixSlots]math.Mat4
	projs   [metadata.NumMatrixSlots]math.Mat4

	resizeRect    math.RectF
	chromaPxSize  math.Vec2
	decalModulate math.Color
	decalSwizzle  bool
	decalEffects  [4]float32 // recip gamma, brightness, contrast, saturation

	camera constantGroup
	resize constantGroup
	chroma constantGroup
	decal  constantGroup
}

func NewConstantStateCache(device Device) *ConstantStateCache {
	c := &ConstantStateCache{
		device:        device,
		decalModulate: math.NewColorWhite(),
		decalEffects:  [4]float32{1.0, 0.0, 1.0, 1.0},
		camera:        newConstantGroup(cameraConstantsSize),
		resize:        newConstantGroup(resizeConstantsSize),
		chroma:        newConstantGroup(chromaConstantsSize),
		decal:         newConstantGroup(decalConstantsSize),
	}
	for i := range c.views {
		c.views[i] = math.NewMat4Identity()
		c.projs[i] = math.NewMat4Identity()
	}
	return c
}

func (c *ConstantStateCache) groups() []*constantGroup {
	return []*constantGroup{&c.camera, &c.resize, &c.chroma, &c.decal}
}

/**
 * @brief Creates the device buffers for every group. Every group starts dirty
 * so the first draw uploads it.
 */
func (c *ConstantStateCache) Create() error {
	for _, g := range c.groups() {
		buf, err := c.device.CreateBuffer(metadata.BufferKindConstant, len(g.data))
		if err != nil {
			c.Destroy()
			return fmt.Errorf("failed to create constant buffer: %w", err)
		}
		g.buffer = buf
		g.dirty = true
	}
	return nil
}

func (c *ConstantStateCache) Destroy() {
	for _, g := range c.groups() {
		if g.buffer.IsValid() {
			c.device.DestroyBuffer(g.buffer)
			g.buffer = metadata.InvalidHandle
		}
	}
}

/**
 * @brief Selects the target whose matrices feed the camera group. Always
 * marks the camera group dirty.
 */
func (c *ConstantStateCache) SetCurrentTarget(target metadata.RenderTarget) {
	c.current = target
	c.camera.dirty = true
}

func (c *ConstantStateCache) CurrentTarget() metadata.RenderTarget {
	return c.current
}

/**
 * @brief Stores the view matrix of target. The camera group is only marked
 * dirty when target shares its matrices with the current target.
 */
func (c *ConstantStateCache) SetTargetViewMatrix(target metadata.RenderTarget, m math.Mat4) {
	slot := target.MatrixSlot()
	if c.views[slot] == m {
		return
	}
	c.views[slot] = m
	if slot == c.current.MatrixSlot() {
		c.camera.dirty = true
	}
}

func (c *ConstantStateCache) SetTargetProjectionMatrix(target metadata.RenderTarget, m math.Mat4) {
	slot := target.MatrixSlot()
	if c.projs[slot] == m {
		return
	}
	c.projs[slot] = m
	if slot == c.current.MatrixSlot() {
		c.camera.dirty = true
	}
}

func (c *ConstantStateCache) TargetViewMatrix(target metadata.RenderTarget) math.Mat4 {
	return c.views[target.MatrixSlot()]
}

func (c *ConstantStateCache) TargetProjectionMatrix(target metadata.RenderTarget) math.Mat4 {
	return c.projs[target.MatrixSlot()]
}

// SetViewMatrix sets the view matrix of the current target.
func (c *ConstantStateCache) SetViewMatrix(m math.Mat4) {
	c.SetTargetViewMatrix(c.current, m)
}

func (c *ConstantStateCache) SetProjectionMatrix(m math.Mat4) {
	c.SetTargetProjectionMatrix(c.current, m)
}

func (c *ConstantStateCache) ViewMatrix() math.Mat4 {
	return c.TargetViewMatrix(c.current)
}

func (c *ConstantStateCache) ProjectionMatrix() math.Mat4 {
	return c.TargetProjectionMatrix(c.current)
}

func (c *ConstantStateCache) SetResizeRect(rect math.RectF) {
	if c.resizeRect == rect {
		return
	}
	c.resizeRect = rect
	c.resize.dirty = true
}

func (c *ConstantStateCache) ResizeRect() math.RectF {
	return c.resizeRect
}

/**
 * @brief Sets the size of one chroma texel in normalized units, used by the
 * 4:2:2 chroma resampling shader.
 */
func (c *ConstantStateCache) SetChromaPixelSize(size math.Vec2) {
	if c.chromaPxSize == size {
		return
	}
	c.chromaPxSize = size
	c.chroma.dirty = true
}

func (c *ConstantStateCache) ChromaPixelSize() math.Vec2 {
	return c.chromaPxSize
}

/**
 * @brief Forces the chroma group to be uploaded again before its next use.
 * Needed whenever the chroma device buffer was overwritten behind the cache's
 * back or the scratch capacity that the offsets derive from changed.
 */
func (c *ConstantStateCache) MarkChromaDirty() {
	c.chroma.dirty = true
}

func (c *ConstantStateCache) SetDecalModColor(color math.Color) {
	if c.decalModulate == color {
		return
	}
	c.decalModulate = color
	c.decal.dirty = true
}

func (c *ConstantStateCache) DecalModColor() math.Color {
	return c.decalModulate
}

// SetDecalSwizzle makes the decal shaders swap red and blue.
func (c *ConstantStateCache) SetDecalSwizzle(swizzle bool) {
	if c.decalSwizzle == swizzle {
		return
	}
	c.decalSwizzle = swizzle
	c.decal.dirty = true
}

func (c *ConstantStateCache) DecalSwizzle() bool {
	return c.decalSwizzle
}

/**
 * @brief Sets the colour adjustments of the Gbcs decal shader.
 *
 * @param gamma Stored as its reciprocal. Values <= 0 are treated as 0.01.
 * @param brightness Added to the colour.
 * @param contrast Multiplier around mid grey.
 * @param saturation Multiplier of the chroma.
 */
func (c *ConstantStateCache) SetDecalEffects(gamma, brightness, contrast, saturation float32) {
	if gamma <= 0.0 {
		gamma = 0.01
	}
	effects := [4]float32{1.0 / gamma, brightness, contrast, saturation}
	if c.decalEffects == effects {
		return
	}
	c.decalEffects = effects
	c.decal.dirty = true
}

/**
 * @brief Returns the stored effects; the first value is the reciprocal gamma.
 */
func (c *ConstantStateCache) DecalEffects() (recipGamma, brightness, contrast, saturation float32) {
	e := c.decalEffects
	return e[0], e[1], e[2], e[3]
}

/**
 * @brief Converts user facing adjustment values into shader values and
 * applies them.
 *
 * @param gamma 1.0 is neutral.
 * @param brightness -250 to 250, 0 is neutral.
 * @param contrast -100 upwards, 0 is neutral.
 * @param saturation -100 upwards, 0 is neutral.
 * @return False when every value is neutral and nothing was applied, in which
 * case the plain decal shader can be used instead.
 */
func (c *ConstantStateCache) SetDecalEffectsHelper(gamma float32, brightness, contrast, saturation int) bool {
	if math.FuzzyCompare(gamma, 1.0) {
		gamma = 1.0
	}
	if gamma == 1.0 && brightness == 0 && contrast == 0 && saturation == 0 {
		return false
	}
	c.SetDecalEffects(
		gamma,
		float32(brightness)/250.0,
		float32(contrast+100)/100.0,
		float32(saturation+100)/100.0)
	return true
}

/**
 * @brief Writes values straight into the chroma device buffer and marks the
 * group dirty so the cached chroma values are restored on their next use.
 */
func (c *ConstantStateCache) uploadChromaRaw(values []float32) error {
	c.chroma.dirty = true
	if err := c.device.UpdateBuffer(c.chroma.buffer, values); err != nil {
		return fmt.Errorf("%w: chroma constants: %s", core.ErrAllocation, err)
	}
	return nil
}

func (c *ConstantStateCache) flush(g *constantGroup, fill func([]float32)) error {
	if !g.dirty {
		return nil
	}
	fill(g.data)
	if err := c.device.UpdateBuffer(g.buffer, g.data); err != nil {
		return fmt.Errorf("%w: constant upload: %s", core.ErrAllocation, err)
	}
	g.dirty = false
	return nil
}

func (c *ConstantStateCache) fillCamera(d []float32) {
	slot := c.current.MatrixSlot()
	copy(d[0:16], c.views[slot].Data[:])
	copy(d[16:32], c.projs[slot].Data[:])
}

func (c *ConstantStateCache) fillResize(d []float32) {
	r := c.resizeRect
	d[0], d[1], d[2], d[3] = r.X, r.Y, r.W, r.H
}

func (c *ConstantStateCache) fillChroma(d []float32) {
	px := c.chromaPxSize.X
	d[0], d[1], d[2], d[3] = -1.5*px, -0.5*px, 0.5*px, 1.5*px
}

func (c *ConstantStateCache) fillDecal(d []float32) {
	m := c.decalModulate
	d[0], d[1], d[2], d[3] = m.X, m.Y, m.Z, m.W
	d[4] = 0
	if c.decalSwizzle {
		d[4] = swizzleOn
	}
	d[5], d[6], d[7] = 0, 0, 0
	copy(d[8:12], c.decalEffects[:])
}

/**
 * @brief Uploads what the shader reads if it changed and binds it: the camera
 * to the vertex stage and the shader's own group to the pixel stage. The YUV
 * shaders read the chroma buffer as the converter left it, without a flush.
 */
func (c *ConstantStateCache) bind(shader metadata.Shader) error {
	if err := c.flush(&c.camera, c.fillCamera); err != nil {
		return err
	}
	c.device.SetConstantBuffer(metadata.ShaderStageVertex, c.camera.buffer)

	switch {
	case shader == metadata.ShaderResizeLayer:
		if err := c.flush(&c.resize, c.fillResize); err != nil {
			return err
		}
		c.device.SetConstantBuffer(metadata.ShaderStagePixel, c.resize.buffer)
	case shader == metadata.ShaderRgbNv16:
		if err := c.flush(&c.chroma, c.fillChroma); err != nil {
			return err
		}
		c.device.SetConstantBuffer(metadata.ShaderStagePixel, c.chroma.buffer)
	case shader.IsYuv():
		c.device.SetConstantBuffer(metadata.ShaderStagePixel, c.chroma.buffer)
	case shader.IsDecal():
		if err := c.flush(&c.decal, c.fillDecal); err != nil {
			return err
		}
		c.device.SetConstantBuffer(metadata.ShaderStagePixel, c.decal.buffer)
	}
	return nil
}
