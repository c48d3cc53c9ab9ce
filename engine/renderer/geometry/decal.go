package geometry

import (
	"github.com/spaghettifunk/vidgfx/engine/math"
	"github.com/spaghettifunk/vidgfx/engine/renderer/metadata"
)

/**
 * @brief A textured rectangle that can scroll its texture within its bounds.
 *
 * While the scroll offset is zero a decal is a single 4 vertex strip. Once it
 * scrolls it becomes four sub-rectangles in a triangle list, each sampling the
 * part of the texture that wraps around.
 */
type Decal struct {
	rect math.RectF

	scrolling    bool
	scrollOffset math.Vec2 // in rect space, [0,1) per axis
	roundOffset  bool

	tlUv, trUv, blUv, brUv math.Vec2

	dirty bool
}

func NewDecal() *Decal {
	return &Decal{
		roundOffset: true,
		tlUv:        math.Vec2{X: 0, Y: 0},
		trUv:        math.Vec2{X: 1, Y: 0},
		blUv:        math.Vec2{X: 0, Y: 1},
		brUv:        math.Vec2{X: 1, Y: 1},
		dirty:       true,
	}
}

func (d *Decal) Rect() math.RectF {
	return d.rect
}

func (d *Decal) SetRect(rect math.RectF) {
	if d.rect == rect {
		return
	}
	d.rect = rect
	d.dirty = true
}

/**
 * @brief Moves the texture by delta, in units of the rectangle size. The
 * offset wraps into [0,1) so it stays precise over long runs.
 */
func (d *Decal) ScrollBy(delta math.Vec2) {
	if delta.IsNull() {
		return
	}
	d.scrolling = true
	d.scrollOffset = d.scrollOffset.Add(delta)
	d.scrollOffset.X = math.Repeat(d.scrollOffset.X, 1.0)
	d.scrollOffset.Y = math.Repeat(d.scrollOffset.Y, 1.0)
	d.dirty = true
}

func (d *Decal) ResetScrolling() {
	if !d.scrolling {
		return
	}
	d.scrolling = false
	d.scrollOffset = math.Vec2{}
	d.dirty = true
}

func (d *Decal) ScrollOffset() math.Vec2 {
	return d.scrollOffset
}

func (d *Decal) IsScrolling() bool {
	return d.scrolling
}

/**
 * @brief Enables snapping of the scroll offset to whole texels of the
 * rectangle so scrolling textures do not shimmer. Enabled by default.
 */
func (d *Decal) SetRoundOffset(round bool) {
	if d.roundOffset == round {
		return
	}
	d.roundOffset = round
	d.dirty = true
}

func (d *Decal) RoundOffset() bool {
	return d.roundOffset
}

func (d *Decal) SetTextureUv(tl, tr, bl, br math.Vec2) {
	if d.tlUv == tl && d.trUv == tr && d.blUv == bl && d.brUv == br {
		return
	}
	d.tlUv = tl
	d.trUv = tr
	d.blUv = bl
	d.brUv = br
	d.dirty = true
}

/**
 * @brief Maps the normalized rectangle onto the decal corners, flipping and
 * mirroring as requested.
 */
func (d *Decal) SetTextureUvRect(norm math.RectF, orient metadata.Orientation) {
	rtl := norm.TopLeft()
	rbr := norm.BottomRight()
	rtr := math.Vec2{X: rbr.X, Y: rtl.Y}
	rbl := math.Vec2{X: rtl.X, Y: rbr.Y}

	switch orient {
	case metadata.OrientationFlipped:
		d.SetTextureUv(rbl, rbr, rtl, rtr)
	case metadata.OrientationMirrored:
		d.SetTextureUv(rtr, rtl, rbr, rbl)
	case metadata.OrientationFlippedMirrored:
		d.SetTextureUv(rbr, rbl, rtr, rtl)
	default:
		d.SetTextureUv(rtl, rtr, rbl, rbr)
	}
}

func (d *Decal) TextureUv() (tl, tr, bl, br math.Vec2) {
	return d.tlUv, d.trUv, d.blUv, d.brUv
}

func (d *Decal) Topology() metadata.Topology {
	if d.scrolling {
		return metadata.TopologyTriangleList
	}
	return metadata.TopologyTriangleStrip
}

// NumFloats is the buffer size Write needs in the current mode.
func (d *Decal) NumFloats() int {
	if d.scrolling {
		return ScrollRectNumFloats
	}
	return TexDecalRectNumFloats
}

func (d *Decal) Dirty() bool {
	return d.dirty
}

/**
 * @brief Writes the vertices for the current state and clears the dirty flag.
 *
 * @return The number of vertices written.
 */
func (d *Decal) Write(dst []float32) (int, error) {
	var (
		n   int
		err error
	)
	if d.scrolling {
		n, err = d.writeScrolling(dst)
	} else {
		n, err = TexDecalRect(dst, d.rect, d.tlUv, d.trUv, d.blUv, d.brUv)
	}
	if err != nil {
		return 0, err
	}
	d.dirty = false
	return n, nil
}

func (d *Decal) writeScrolling(dst []float32) (int, error) {
	if err := checkCapacity(dst, ScrollRectNumFloats); err != nil {
		return 0, err
	}

	r := d.rect
	w, h := r.W, r.H
	xLerp, yLerp := d.scrollOffset.X, d.scrollOffset.Y
	if d.roundOffset && !r.IsEmpty() {
		// assumes the texture UV is orthogonal
		xLerp = math.Round(xLerp*w) / w
		yLerp = math.Round(yLerp*h) / h
	}

	// U of the left and right halves, V of the top and bottom halves
	leftTlX := math.Lerp(d.trUv.X, d.tlUv.X, xLerp)
	leftBlX := math.Lerp(d.brUv.X, d.blUv.X, xLerp)
	topTlY := math.Lerp(d.blUv.Y, d.tlUv.Y, yLerp)
	topTrY := math.Lerp(d.brUv.Y, d.trUv.Y, yLerp)

	i := 0

	// top-left
	tl, tr, bl, br := d.tlUv, d.trUv, d.blUv, d.brUv
	tl.X, bl.X = leftTlX, leftBlX
	tl.Y, tr.Y = topTlY, topTrY
	i += writeQuad(dst[i:], r.Adjusted(0, 0, w*xLerp-w, h*yLerp-h), tl, tr, bl, br)

	// top-right
	tl, tr, bl, br = d.tlUv, d.trUv, d.blUv, d.brUv
	tr.X, br.X = leftTlX, leftBlX
	tl.Y, tr.Y = topTlY, topTrY
	i += writeQuad(dst[i:], r.Adjusted(w*xLerp, 0, 0, h*yLerp-h), tl, tr, bl, br)

	// bottom-left
	tl, tr, bl, br = d.tlUv, d.trUv, d.blUv, d.brUv
	tl.X, bl.X = leftTlX, leftBlX
	bl.Y, br.Y = topTlY, topTrY
	i += writeQuad(dst[i:], r.Adjusted(0, h*yLerp, w*xLerp-w, 0), tl, tr, bl, br)

	// bottom-right
	tl, tr, bl, br = d.tlUv, d.trUv, d.blUv, d.brUv
	tr.X, br.X = leftTlX, leftBlX
	bl.Y, br.Y = topTlY, topTrY
	writeQuad(dst[i:], r.Adjusted(w*xLerp, h*yLerp, 0, 0), tl, tr, bl, br)

	return ScrollRectNumVerts, nil
}

// writeQuad writes two list triangles, tl tr bl then bl tr br.
func writeQuad(dst []float32, rect math.RectF, tl, tr, bl, br math.Vec2) int {
	i := 0
	i += writeVertex(dst[i:], rect.TopLeft(), uv(tl))
	i += writeVertex(dst[i:], rect.TopRight(), uv(tr))
	i += writeVertex(dst[i:], rect.BottomLeft(), uv(bl))
	i += writeVertex(dst[i:], rect.BottomLeft(), uv(bl))
	i += writeVertex(dst[i:], rect.TopRight(), uv(tr))
	i += writeVertex(dst[i:], rect.BottomRight(), uv(br))
	return i
}
