package scene

// Releaser frees the GPU side of scene resources. Implementations must
// tolerate resources that were never uploaded.
type Releaser interface {
	ReleaseGeometry(g *Geometry)
	ReleaseMaterial(m *Material)
	ReleaseTexture(t *Texture)
	ReleaseCubeTexture(c *CubeTexture)
}

// NopReleaser releases nothing. It is used when no GPU backend is attached.
type NopReleaser struct{}

func (NopReleaser) ReleaseGeometry(*Geometry)       {}
func (NopReleaser) ReleaseMaterial(*Material)       {}
func (NopReleaser) ReleaseTexture(*Texture)         {}
func (NopReleaser) ReleaseCubeTexture(*CubeTexture) {}
