package math

func NewSize(w, h int) Size {
	return Size{W: w, H: h}
}

// IsEmpty reports whether either axis is zero or negative.
func (s Size) IsEmpty() bool {
	return s.W <= 0 || s.H <= 0
}

// Contains reports whether other fits inside s on both axes.
func (s Size) Contains(other Size) bool {
	return other.W <= s.W && other.H <= s.H
}

func (s Size) Scaled(sx, sy int) Size {
	return Size{s.W * sx, s.H * sy}
}

func NewRect(x, y, w, h int) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

func NewRectFromSize(s Size) Rect {
	return Rect{W: s.W, H: s.H}
}

func (r Rect) Left() int   { return r.X }
func (r Rect) Top() int    { return r.Y }
func (r Rect) Right() int  { return r.X + r.W - 1 }
func (r Rect) Bottom() int { return r.Y + r.H - 1 }

func (r Rect) TopLeft() Point { return Point{r.X, r.Y} }
func (r Rect) Size() Size     { return Size{r.W, r.H} }

func (r Rect) IsEmpty() bool {
	return r.W <= 0 || r.H <= 0
}

// Contains reports whether other lies entirely inside r.
func (r Rect) Contains(other Rect) bool {
	if r.IsEmpty() || other.IsEmpty() {
		return false
	}
	return other.X >= r.X && other.Y >= r.Y &&
		other.Right() <= r.Right() && other.Bottom() <= r.Bottom()
}

/**
 * @brief Returns the overlapping area of r and other. The result is empty when
 * they do not overlap.
 */
func (r Rect) Intersected(other Rect) Rect {
	l := Max(r.X, other.X)
	t := Max(r.Y, other.Y)
	rr := Min(r.Right(), other.Right())
	b := Min(r.Bottom(), other.Bottom())
	if rr < l || b < t {
		return Rect{}
	}
	return Rect{X: l, Y: t, W: rr - l + 1, H: b - t + 1}
}

func NewRectF(x, y, w, h float32) RectF {
	return RectF{X: x, Y: y, W: w, H: h}
}

func NewRectFFromRect(r Rect) RectF {
	return RectF{float32(r.X), float32(r.Y), float32(r.W), float32(r.H)}
}

func (r RectF) Left() float32   { return r.X }
func (r RectF) Top() float32    { return r.Y }
func (r RectF) Right() float32  { return r.X + r.W }
func (r RectF) Bottom() float32 { return r.Y + r.H }

func (r RectF) TopLeft() Vec2     { return Vec2{r.X, r.Y} }
func (r RectF) TopRight() Vec2    { return Vec2{r.Right(), r.Y} }
func (r RectF) BottomLeft() Vec2  { return Vec2{r.X, r.Bottom()} }
func (r RectF) BottomRight() Vec2 { return Vec2{r.Right(), r.Bottom()} }
func (r RectF) Size() Vec2        { return Vec2{r.W, r.H} }

func (r RectF) IsEmpty() bool {
	return r.W <= 0 || r.H <= 0
}

func (r RectF) IsNull() bool {
	return r.W == 0 && r.H == 0
}

// Translated moves the rectangle by d without changing its size.
func (r RectF) Translated(d Vec2) RectF {
	return RectF{r.X + d.X, r.Y + d.Y, r.W, r.H}
}

/**
 * @brief Returns a copy with dx1 and dy1 added to the top-left corner and dx2
 * and dy2 added to the bottom-right corner.
 */
func (r RectF) Adjusted(dx1, dy1, dx2, dy2 float32) RectF {
	return RectF{
		X: r.X + dx1,
		Y: r.Y + dy1,
		W: r.W + dx2 - dx1,
		H: r.H + dy2 - dy1,
	}
}
