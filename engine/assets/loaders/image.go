package loaders

import (
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/spaghettifunk/vidgfx/engine/renderer/metadata"
)

type ImageLoader struct{}

/**
 * @brief Decodes the image at path into straight alpha RGBA, honouring any
 * EXIF orientation. Dilution runs after the flip.
 */
func (il *ImageLoader) Load(path string, params metadata.ImageResourceParams) (*image.NRGBA, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	var out *image.NRGBA
	if params.FlipY {
		out = imaging.FlipV(img)
	} else {
		out = imaging.Clone(img)
	}
	if params.Dilute {
		DiluteImage(out)
	}
	return out, nil
}

func LoadImage(path string, flipY bool) (*image.NRGBA, error) {
	var il ImageLoader
	return il.Load(path, metadata.ImageResourceParams{FlipY: flipY})
}

/** @brief Returns the pixels of img as tightly packed 8 bit BGRA rows. */
func ToBGRA(img image.Image) []byte {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)

	pix := dst.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
	return pix
}

/** @brief Wraps ToBGRA for Context.CreateTextureFromImage. */
func ToImageData(img image.Image) metadata.ImageData {
	b := img.Bounds()
	return metadata.ImageData{
		Width:  b.Dx(),
		Height: b.Dy(),
		Stride: b.Dx() * 4,
		Pixels: ToBGRA(img),
	}
}
