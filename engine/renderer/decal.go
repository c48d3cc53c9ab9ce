package renderer

import (
	"github.com/spaghettifunk/vidgfx/engine/math"
	"github.com/spaghettifunk/vidgfx/engine/renderer/geometry"
	"github.com/spaghettifunk/vidgfx/engine/renderer/metadata"
)

/**
 * @brief A textured, optionally scrolling rectangle together with the vertex
 * buffer it is drawn from. The buffer is rebuilt on read after any change.
 */
type DecalVertexSet struct {
	*geometry.Decal

	ctx *Context
	vb  *VertexBuffer
}

func (c *Context) NewDecalVertexSet() *DecalVertexSet {
	return &DecalVertexSet{
		Decal: geometry.NewDecal(),
		ctx:   c,
	}
}

/**
 * @brief Returns the vertex buffer for the current state, rebuilding it when
 * anything changed. The buffer is recreated when the decal switched between
 * static and scrolling geometry.
 */
func (d *DecalVertexSet) VertexBuffer() (*VertexBuffer, error) {
	if d.vb != nil && !d.Dirty() {
		return d.vb, nil
	}
	if d.vb == nil || d.vb.NumFloats() != d.NumFloats() {
		d.ctx.DestroyVertexBuffer(d.vb)
		d.vb = nil
		vb, err := d.ctx.CreateVertexBuffer(d.NumFloats())
		if err != nil {
			return nil, err
		}
		d.vb = vb
	}
	if err := d.vb.writeDecal(d.Decal); err != nil {
		return nil, err
	}
	return d.vb, nil
}

/**
 * @brief Draws the decal with the current shader and textures, selecting the
 * topology its geometry needs.
 */
func (d *DecalVertexSet) Draw() error {
	vb, err := d.VertexBuffer()
	if err != nil {
		return err
	}
	d.ctx.SetTopology(d.Topology())
	return d.ctx.DrawBuffer(vb, -1, 0)
}

// SetTextureRect maps rect, in pixels of a texture of texSize, onto the decal.
func (d *DecalVertexSet) SetTextureRect(rect math.Rect, texSize math.Size, orient metadata.Orientation) {
	if texSize.IsEmpty() {
		return
	}
	sz := math.NewVec2FromSize(texSize)
	norm := math.NewRectF(
		float32(rect.X)/sz.X, float32(rect.Y)/sz.Y,
		float32(rect.W)/sz.X, float32(rect.H)/sz.Y)
	d.SetTextureUvRect(norm, orient)
}

// Destroy releases the vertex buffer; the set can still be used afterwards.
func (d *DecalVertexSet) Destroy() {
	d.ctx.DestroyVertexBuffer(d.vb)
	d.vb = nil
}
