package geometry

import (
	"fmt"

	"github.com/spaghettifunk/vidgfx/engine/core"
	"github.com/spaghettifunk/vidgfx/engine/math"
)

const (
	/** @brief Two triangles per line segment. */
	NumVertsPerLine = 6
	/** @brief Four line segments per outline. */
	NumVertsPerRect = 4 * NumVertsPerLine

	/** @brief Solid rectangle, strip topology, 8 floats per vertex. */
	SolidRectNumVerts  = 4
	SolidRectNumFloats = SolidRectNumVerts * 8

	/** @brief Solid rectangle outline, list topology, 8 floats per vertex. */
	SolidRectOutlineNumVerts  = NumVertsPerRect
	SolidRectOutlineNumFloats = SolidRectOutlineNumVerts * 8

	/** @brief Textured rectangle, strip topology, 8 floats per vertex. */
	TexDecalRectNumVerts  = 4
	TexDecalRectNumFloats = TexDecalRectNumVerts * 8

	/** @brief Main outline plus nine handles, list topology, 4 floats per vertex. */
	ResizeRectNumVerts  = 10 * NumVertsPerRect
	ResizeRectNumFloats = ResizeRectNumVerts * 4

	/** @brief Four textured sub-rectangles, list topology, 8 floats per vertex. */
	ScrollRectNumVerts  = 4 * 6
	ScrollRectNumFloats = ScrollRectNumVerts * 8
)

func checkCapacity(dst []float32, need int) error {
	if len(dst) < need {
		return fmt.Errorf("%w: vertex data needs %d floats, buffer holds %d", core.ErrValidation, need, len(dst))
	}
	return nil
}

/**
 * @brief Writes a line segment as two triangles with clockwise winding.
 *
 * Each vertex is (x, y, 0, 1) followed by stride-4 floats that are left
 * untouched for the caller to fill.
 *
 * @param dst Destination, at least NumVertsPerLine*stride floats.
 * @param start The start of the segment.
 * @param end The end of the segment.
 * @param halfWidth Half the thickness per axis, which accounts for non square viewports.
 * @param stride Floats per vertex, at least 4.
 * @return The number of floats written.
 */
func Line(dst []float32, start, end, halfWidth math.Vec2, stride int) int {
	delta := start.Sub(end)
	perp := math.Vec2{X: -delta.Y, Y: delta.X}
	if !perp.IsNull() {
		perp = perp.Normalized()
	}
	perp = perp.Mul(halfWidth)

	if perp.X*delta.Y-perp.Y*delta.X >= 0 {
		perp = perp.Neg()
	}

	tl := start.Sub(perp)
	bl := start.Add(perp)
	tr := end.Sub(perp)
	br := end.Add(perp)

	i := 0
	for _, v := range [NumVertsPerLine]math.Vec2{tl, tr, bl, bl, tr, br} {
		dst[i+0] = v.X
		dst[i+1] = v.Y
		dst[i+2] = 0.0
		dst[i+3] = 1.0
		i += stride
	}
	return i
}

// outline edges in top, bottom, left, right order
func outlineEdges(rect math.RectF, halfWidth math.Vec2) [4][2]math.Vec2 {
	hx := math.Vec2{X: halfWidth.X}
	hy := math.Vec2{Y: halfWidth.Y}
	return [4][2]math.Vec2{
		{rect.TopLeft().Add(hx), rect.TopRight().Sub(hx)},
		{rect.BottomLeft().Add(hx), rect.BottomRight().Sub(hx)},
		{rect.TopLeft().Sub(hy), rect.BottomLeft().Add(hy)},
		{rect.TopRight().Sub(hy), rect.BottomRight().Add(hy)},
	}
}

/**
 * @brief Writes the four edges of rect as position only (4 float) vertices.
 * Horizontal edges are inset by halfWidth.X so corners do not overlap.
 *
 * @return The number of floats written.
 */
func RectOutline(dst []float32, rect math.RectF, halfWidth math.Vec2) int {
	i := 0
	for _, e := range outlineEdges(rect, halfWidth) {
		i += Line(dst[i:], e[0], e[1], halfWidth, 4)
	}
	return i
}

/**
 * @brief Same as RectOutline but with 8 float vertices carrying a colour per
 * corner.
 */
func RectOutlineColor(dst []float32, rect math.RectF, halfWidth math.Vec2, tl, tr, bl, br math.Color) int {
	colors := [4][2]math.Color{{tl, tr}, {bl, br}, {tl, bl}, {tr, br}}
	i := 0
	for n, e := range outlineEdges(rect, halfWidth) {
		off := Line(dst[i:], e[0], e[1], halfWidth, 8)
		start, end := colors[n][0], colors[n][1]
		// Line triangle order = Start, End, Start, Start, End, End
		for v, c := range [NumVertsPerLine]math.Color{start, end, start, start, end, end} {
			writeColor(dst[i+v*8+4:], c)
		}
		i += off
	}
	return i
}

func writeColor(dst []float32, c math.Color) {
	dst[0] = c.X
	dst[1] = c.Y
	dst[2] = c.Z
	dst[3] = c.W
}

func writeVertex(dst []float32, pos math.Vec2, extra math.Vec4) int {
	dst[0] = pos.X
	dst[1] = pos.Y
	dst[2] = 0.0
	dst[3] = 1.0
	dst[4] = extra.X
	dst[5] = extra.Y
	dst[6] = extra.Z
	dst[7] = extra.W
	return 8
}

/**
 * @brief Writes a filled rectangle with a colour per corner, for strip topology.
 *
 * @return The number of vertices written.
 */
func SolidRect(dst []float32, rect math.RectF, tl, tr, bl, br math.Color) (int, error) {
	if err := checkCapacity(dst, SolidRectNumFloats); err != nil {
		return 0, err
	}
	i := 0
	i += writeVertex(dst[i:], rect.TopLeft(), math.Vec4(tl))
	i += writeVertex(dst[i:], rect.TopRight(), math.Vec4(tr))
	i += writeVertex(dst[i:], rect.BottomLeft(), math.Vec4(bl))
	writeVertex(dst[i:], rect.BottomRight(), math.Vec4(br))
	return SolidRectNumVerts, nil
}

/**
 * @brief Writes a rectangle outline with a colour per corner, for list topology.
 *
 * @return The number of vertices written.
 */
func SolidRectOutline(dst []float32, rect math.RectF, tl, tr, bl, br math.Color, halfWidth math.Vec2) (int, error) {
	if err := checkCapacity(dst, SolidRectOutlineNumFloats); err != nil {
		return 0, err
	}
	RectOutlineColor(dst, rect, halfWidth, tl, tr, bl, br)
	return SolidRectOutlineNumVerts, nil
}

/**
 * @brief Writes a textured rectangle for strip topology. Vertex layout is
 * (x, y, 0, 1, u, v, 0, 0).
 *
 * @return The number of vertices written.
 */
func TexDecalRect(dst []float32, rect math.RectF, tlUv, trUv, blUv, brUv math.Vec2) (int, error) {
	if err := checkCapacity(dst, TexDecalRectNumFloats); err != nil {
		return 0, err
	}
	i := 0
	i += writeVertex(dst[i:], rect.TopLeft(), uv(tlUv))
	i += writeVertex(dst[i:], rect.TopRight(), uv(trUv))
	i += writeVertex(dst[i:], rect.BottomLeft(), uv(blUv))
	writeVertex(dst[i:], rect.BottomRight(), uv(brUv))
	return TexDecalRectNumVerts, nil
}

// TexDecalRectBr is TexDecalRect with the top-left UV at the origin.
func TexDecalRectBr(dst []float32, rect math.RectF, brUv math.Vec2) (int, error) {
	return TexDecalRect(dst, rect,
		math.Vec2{}, math.Vec2{X: brUv.X}, math.Vec2{Y: brUv.Y}, brUv)
}

func uv(p math.Vec2) math.Vec4 {
	return math.Vec4{X: p.X, Y: p.Y}
}

/**
 * @brief Writes the outline of rect and nine square handles of size
 * handleSize centred on its corners, edge midpoints and centre. For list
 * topology, position only vertices.
 *
 * @return The number of vertices written.
 */
func ResizeRect(dst []float32, rect math.RectF, handleSize float32, halfWidth math.Vec2) (int, error) {
	if err := checkCapacity(dst, ResizeRectNumFloats); err != nil {
		return 0, err
	}
	i := RectOutline(dst, rect, halfWidth)

	half := handleSize * 0.5
	handle := math.NewRectF(rect.X-half, rect.Y-half, handleSize, handleSize)
	for col := 0; col < 3; col++ {
		for row := 0; row < 3; row++ {
			h := handle.Translated(math.Vec2{
				X: rect.W * 0.5 * float32(col),
				Y: rect.H * 0.5 * float32(row),
			})
			i += RectOutline(dst[i:], h, halfWidth)
		}
	}
	return ResizeRectNumVerts, nil
}
