package loader

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"render-assets/scene"
)

// decodeImage decodes a PNG, JPEG, WebP, BMP or TIFF payload into an RGBA8
// texture.
func decodeImage(name string, data []byte) (*scene.Texture, error) {
	if err := sniff(name, data, classImage); err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: image %s: %w", ErrDecode, name, err)
	}
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != 4*b.Dx() || b.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	return scene.NewTexture(name, b.Dx(), b.Dy(), rgba.Pix), nil
}
