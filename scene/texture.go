package scene

import (
	"github.com/google/uuid"
)

// Mapping selects how a texture is projected when sampled.
type Mapping int

const (
	UVMapping Mapping = iota
	EquirectangularReflectionMapping
	EquirectangularRefractionMapping
	CubeReflectionMapping
	CubeRefractionMapping
)

// Texture holds CPU-side pixel data for a 2D texture.
// GLID is set by the OpenGL backend after upload; do not access directly.
type Texture struct {
	Name   string
	UUID   uuid.UUID
	Width  int
	Height int
	// Pixels in RGBA8 format (4 bytes per pixel, row-major, top-to-bottom).
	Pixels []byte
	// Float holds RGBA32F texels for HDR sources; Pixels is empty then.
	Float   []float32
	Mapping Mapping
	// GLID is the OpenGL texture object ID, set by opengl.UploadTexture.
	GLID uint32

	disposed bool
}

// NewTexture wraps decoded RGBA8 pixels.
func NewTexture(name string, width, height int, pixels []byte) *Texture {
	return &Texture{
		Name:   name,
		UUID:   uuid.New(),
		Width:  width,
		Height: height,
		Pixels: pixels,
	}
}

// NewFloatTexture wraps decoded RGBA32F texels.
func NewFloatTexture(name string, width, height int, texels []float32) *Texture {
	return &Texture{
		Name:   name,
		UUID:   uuid.New(),
		Width:  width,
		Height: height,
		Float:  texels,
	}
}

// NewSolidTexture creates a 1x1 texture with the given RGBA color values (0–255).
func NewSolidTexture(name string, r, g, b, a uint8) *Texture {
	return NewTexture(name, 1, 1, []byte{r, g, b, a})
}

// IsHDR reports whether the texture carries floating point texels.
func (t *Texture) IsHDR() bool {
	return len(t.Float) > 0
}

// Clone returns a texture sharing t's decoded pixel data. The clone is a
// separate GPU object: it has its own UUID and must be uploaded on its own.
func (t *Texture) Clone() *Texture {
	c := *t
	c.UUID = uuid.New()
	c.GLID = 0
	c.disposed = false
	return &c
}

// Dispose releases the GPU side of t through r. Repeated calls are no-ops.
func (t *Texture) Dispose(r Releaser) {
	if t == nil || t.disposed {
		return
	}
	r.ReleaseTexture(t)
	t.disposed = true
}

func (t *Texture) Disposed() bool {
	return t.disposed
}

// CubeFace indexes the six faces of a cube texture in +X, -X, +Y, -Y, +Z, -Z order.
type CubeFace int

const (
	FacePosX CubeFace = iota
	FaceNegX
	FacePosY
	FaceNegY
	FacePosZ
	FaceNegZ
)

var cubeFaceNames = [...]string{"px", "nx", "py", "ny", "pz", "nz"}

func (f CubeFace) String() string {
	if f < 0 || int(f) >= len(cubeFaceNames) {
		return "face?"
	}
	return cubeFaceNames[f]
}

// CubeTexture is a six-faced texture used for skyboxes and environment
// lighting. HDR cube maps carry float faces.
type CubeTexture struct {
	Name    string
	UUID    uuid.UUID
	Faces   [6]*Texture
	Mapping Mapping
	GLID    uint32

	disposed bool
}

func NewCubeTexture(name string, faces [6]*Texture) *CubeTexture {
	return &CubeTexture{
		Name:    name,
		UUID:    uuid.New(),
		Faces:   faces,
		Mapping: CubeReflectionMapping,
	}
}

// IsHDR reports whether every face is a float texture.
func (c *CubeTexture) IsHDR() bool {
	for _, f := range c.Faces {
		if f == nil || !f.IsHDR() {
			return false
		}
	}
	return true
}

func (c *CubeTexture) Dispose(r Releaser) {
	if c == nil || c.disposed {
		return
	}
	r.ReleaseCubeTexture(c)
	c.disposed = true
}

func (c *CubeTexture) Disposed() bool {
	return c.disposed
}
