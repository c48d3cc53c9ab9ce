package math

// Vec2 represents a 2D vector
type Vec2 struct {
	X, Y float32
}

// Vec4 represents a 4D vector
type Vec4 struct {
	X, Y, Z, W float32
}

/** @brief An RGBA colour with normalized components. */
type Color Vec4

/** @brief a 4x4 matrix, column major, laid out the way the shaders read it. */
type Mat4 struct {
	/** @brief The matrix elements */
	Data [16]float32
}

// Point is an integer position in pixels.
type Point struct {
	X, Y int
}

// Size is an integer extent in pixels.
type Size struct {
	W, H int
}

/**
 * @brief An integer rectangle. Right and Bottom are inclusive, so a
 * rectangle at (0,0) with a width of 10 has its right edge at 9.
 */
type Rect struct {
	X, Y, W, H int
}

/**
 * @brief A floating point rectangle. Right and Bottom are exclusive
 * (Right = X + W).
 */
type RectF struct {
	X, Y, W, H float32
}
