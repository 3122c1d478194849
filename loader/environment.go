package loader

import (
	"render-assets/scene"
)

// EnvironmentFilter turns a decoded HDR environment into the texture used
// for image based lighting. The input must not be modified.
type EnvironmentFilter interface {
	FilterEquirect(src *scene.Texture) (*scene.Texture, error)
	FilterCube(src *scene.CubeTexture) (*scene.CubeTexture, error)
}

// CopyFilter returns copies that share texel data with the source.
type CopyFilter struct{}

func (CopyFilter) FilterEquirect(src *scene.Texture) (*scene.Texture, error) {
	t := src.Clone()
	t.Name = src.Name + "Env"
	return t, nil
}

func (CopyFilter) FilterCube(src *scene.CubeTexture) (*scene.CubeTexture, error) {
	var faces [6]*scene.Texture
	for i, f := range src.Faces {
		if f != nil {
			faces[i] = f.Clone()
		}
	}
	c := scene.NewCubeTexture(src.Name+"Env", faces)
	c.Mapping = src.Mapping
	return c, nil
}

// BoxFilter blurs float textures with a square kernel of the given radius,
// a cheap stand-in for a prefiltered radiance map. LDR input is copied.
type BoxFilter struct {
	Radius int
}

func (b BoxFilter) FilterEquirect(src *scene.Texture) (*scene.Texture, error) {
	t := src.Clone()
	t.Name = src.Name + "Env"
	if src.IsHDR() && b.Radius > 0 {
		t.Float = boxBlur(src.Float, src.Width, src.Height, b.Radius, true)
	}
	return t, nil
}

func (b BoxFilter) FilterCube(src *scene.CubeTexture) (*scene.CubeTexture, error) {
	var faces [6]*scene.Texture
	for i, f := range src.Faces {
		if f == nil {
			continue
		}
		faces[i] = f.Clone()
		if f.IsHDR() && b.Radius > 0 {
			faces[i].Float = boxBlur(f.Float, f.Width, f.Height, b.Radius, false)
		}
	}
	c := scene.NewCubeTexture(src.Name+"Env", faces)
	c.Mapping = src.Mapping
	return c, nil
}

// boxBlur averages RGBA texels over a (2r+1)^2 window. With wrapX the
// horizontal edges wrap around, matching an equirectangular seam.
func boxBlur(src []float32, w, h, r int, wrapX bool) []float32 {
	out := make([]float32, len(src))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum [4]float32
			n := float32(0)
			for dy := -r; dy <= r; dy++ {
				yy := y + dy
				if yy < 0 || yy >= h {
					continue
				}
				for dx := -r; dx <= r; dx++ {
					xx := x + dx
					if wrapX {
						xx = (xx%w + w) % w
					} else if xx < 0 || xx >= w {
						continue
					}
					i := (yy*w + xx) * 4
					sum[0] += src[i]
					sum[1] += src[i+1]
					sum[2] += src[i+2]
					sum[3] += src[i+3]
					n++
				}
			}
			o := (y*w + x) * 4
			for c := 0; c < 4; c++ {
				out[o+c] = sum[c] / n
			}
		}
	}
	return out
}
