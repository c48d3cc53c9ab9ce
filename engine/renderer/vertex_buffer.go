package renderer

import (
	"github.com/google/uuid"
	"github.com/spaghettifunk/vidgfx/engine/math"
	"github.com/spaghettifunk/vidgfx/engine/renderer/geometry"
	"github.com/spaghettifunk/vidgfx/engine/renderer/metadata"
)

/**
 * @brief CPU side vertex storage mirrored into a device buffer. The device copy
 * is refreshed when the buffer is bound for drawing while dirty.
 */
type VertexBuffer struct {
	device Device
	handle metadata.Handle
	id     uuid.UUID

	data     []float32
	numVerts int
	vertSize int
	dirty    bool
}

func (vb *VertexBuffer) ID() uuid.UUID {
	return vb.id
}

// Data exposes the local floats; call SetDirty after writing to it.
func (vb *VertexBuffer) Data() []float32 {
	return vb.data
}

func (vb *VertexBuffer) NumFloats() int {
	return len(vb.data)
}

func (vb *VertexBuffer) NumVerts() int {
	return vb.numVerts
}

func (vb *VertexBuffer) SetNumVerts(n int) {
	vb.numVerts = n
}

// VertSize is the number of floats per vertex.
func (vb *VertexBuffer) VertSize() int {
	return vb.vertSize
}

func (vb *VertexBuffer) SetVertSize(n int) {
	vb.vertSize = n
}

func (vb *VertexBuffer) IsDirty() bool {
	return vb.dirty
}

func (vb *VertexBuffer) SetDirty(dirty bool) {
	vb.dirty = dirty
}

// upload refreshes the device copy when the local data changed.
func (vb *VertexBuffer) upload() error {
	if !vb.dirty {
		return nil
	}
	n := math.Min(vb.numVerts*vb.vertSize, len(vb.data))
	if err := vb.device.UpdateBuffer(vb.handle, vb.data[:n]); err != nil {
		return err
	}
	vb.dirty = false
	return nil
}

func (vb *VertexBuffer) written(numVerts, vertSize int, err error) error {
	if err != nil {
		vb.numVerts = 0
		return err
	}
	vb.numVerts = numVerts
	vb.vertSize = vertSize
	vb.dirty = true
	return nil
}

/** @brief Fills the buffer with a single colour rectangle, strip topology. */
func (vb *VertexBuffer) WriteSolidRect(rect math.RectF, col math.Color) error {
	return vb.WriteSolidRectColors(rect, col, col, col, col)
}

func (vb *VertexBuffer) WriteSolidRectColors(rect math.RectF, tl, tr, bl, br math.Color) error {
	n, err := geometry.SolidRect(vb.data, rect, tl, tr, bl, br)
	return vb.written(n, 8, err)
}

/** @brief Fills the buffer with a rectangle outline, list topology. */
func (vb *VertexBuffer) WriteSolidRectOutline(rect math.RectF, col math.Color, halfWidth math.Vec2) error {
	return vb.WriteSolidRectOutlineColors(rect, col, col, col, col, halfWidth)
}

func (vb *VertexBuffer) WriteSolidRectOutlineColors(rect math.RectF, tl, tr, bl, br math.Color, halfWidth math.Vec2) error {
	n, err := geometry.SolidRectOutline(vb.data, rect, tl, tr, bl, br, halfWidth)
	return vb.written(n, 8, err)
}

/** @brief Fills the buffer with a textured rectangle, strip topology. */
func (vb *VertexBuffer) WriteTexDecalRect(rect math.RectF, tlUv, trUv, blUv, brUv math.Vec2) error {
	n, err := geometry.TexDecalRect(vb.data, rect, tlUv, trUv, blUv, brUv)
	return vb.written(n, 8, err)
}

// WriteTexDecalRectBr assumes the top-left UV is the origin.
func (vb *VertexBuffer) WriteTexDecalRectBr(rect math.RectF, brUv math.Vec2) error {
	n, err := geometry.TexDecalRectBr(vb.data, rect, brUv)
	return vb.written(n, 8, err)
}

/** @brief Fills the buffer with the resize layer outline and handles, list topology. */
func (vb *VertexBuffer) WriteResizeRect(rect math.RectF, handleSize float32, halfWidth math.Vec2) error {
	n, err := geometry.ResizeRect(vb.data, rect, handleSize, halfWidth)
	return vb.written(n, 4, err)
}

func (vb *VertexBuffer) writeDecal(d *geometry.Decal) error {
	n, err := d.Write(vb.data)
	return vb.written(n, 8, err)
}
