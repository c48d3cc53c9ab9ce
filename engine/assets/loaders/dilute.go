package loaders

import (
	"image"
)

const maxDilution = 2

/**
 * @brief Copies colour information into fully transparent pixels from the
 * nearest visible pixel at most two pixels away. Encoders often zero the
 * colour of invisible pixels, which bleeds into bilinear samples as dark
 * fringes. Alpha is left untouched.
 *
 * Returns true if any pixel was modified. Opaque images are never modified.
 */
func DiluteImage(img *image.NRGBA) bool {
	if img == nil || img.Opaque() {
		return false
	}

	// sample from a copy so filled pixels are not used as sources
	src := &image.NRGBA{
		Pix:    append([]uint8(nil), img.Pix...),
		Stride: img.Stride,
		Rect:   img.Rect,
	}

	b := img.Bounds()
	modified := false
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if src.NRGBAAt(x, y).A != 0 {
				continue
			}
			if sx, sy, ok := nearestVisible(src, x, y); ok {
				c := src.NRGBAAt(sx, sy)
				c.A = 0
				img.SetNRGBA(x, y, c)
				modified = true
			}
		}
	}
	return modified
}

// nearestVisible searches square rings of growing distance around (x, y).
// Within a ring the edges are scanned top, left, right then bottom.
func nearestVisible(img *image.NRGBA, x, y int) (int, int, bool) {
	b := img.Bounds()
	visible := func(px, py int) bool {
		return image.Pt(px, py).In(b) && img.NRGBAAt(px, py).A > 0
	}

	for d := 1; d <= maxDilution; d++ {
		top, bottom := y-d, y+d
		left, right := x-d, x+d

		for s := left; s <= right; s++ {
			if visible(s, top) {
				return s, top, true
			}
		}
		for t := top; t <= bottom; t++ {
			if visible(left, t) {
				return left, t, true
			}
		}
		for t := top; t <= bottom; t++ {
			if visible(right, t) {
				return right, t, true
			}
		}
		for s := left; s <= right; s++ {
			if visible(s, bottom) {
				return s, bottom, true
			}
		}
	}
	return 0, 0, false
}
