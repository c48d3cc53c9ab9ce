package metadata

/**
 * @brief CPU side pixel data in 8 bit BGRA order, ready to be uploaded into a
 * texture.
 */
type ImageData struct {
	/** @brief The width of the image. */
	Width int
	/** @brief The height of the image. */
	Height int
	/** @brief Bytes per row of Pixels. */
	Stride int
	/** @brief The pixel data of the image. */
	Pixels []uint8
}

/** @brief Parameters used when loading an image. */
type ImageResourceParams struct {
	/** @brief Indicates if the image should be flipped on the y-axis when loaded. */
	FlipY bool
	/** @brief Bleed colour into fully transparent pixels before upload. */
	Dilute bool
}

/**
 * @brief Provides compiled shader bytecode by permutation name, for example
 * "texDecal-vs".
 */
type ShaderLoader interface {
	Load(name string) ([]byte, error)
}
