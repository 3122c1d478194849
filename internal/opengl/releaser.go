package opengl

import (
	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/sirupsen/logrus"

	"render-assets/scene"
)

// ReleaseStats counts the GPU objects a Releaser has freed.
type ReleaseStats struct {
	Geometries   int
	Materials    int
	Textures     int
	CubeTextures int
}

// Releaser frees GPU objects when the registry disposes assets. It must be
// used on the thread that owns the GL context.
type Releaser struct {
	log   logrus.FieldLogger
	stats ReleaseStats
}

var _ scene.Releaser = (*Releaser)(nil)

func NewReleaser(log logrus.FieldLogger) *Releaser {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Releaser{log: log.WithField("component", "opengl")}
}

func (r *Releaser) ReleaseGeometry(g *scene.Geometry) {
	if _, ok := g.GPUData.(*GPUGeometry); !ok {
		return
	}
	DeleteGeometry(g)
	r.stats.Geometries++
	r.log.WithField("geometry", g.UUID).Trace("geometry released")
}

func (r *Releaser) ReleaseMaterial(m *scene.Material) {
	if m.Program == 0 {
		return
	}
	gl.DeleteProgram(m.Program)
	r.stats.Materials++
	r.log.WithField("material", m.Name).Trace("material program released")
}

func (r *Releaser) ReleaseTexture(t *scene.Texture) {
	if t.GLID == 0 {
		return
	}
	DeleteTexture(t)
	r.stats.Textures++
	r.log.WithField("texture", t.Name).Trace("texture released")
}

func (r *Releaser) ReleaseCubeTexture(c *scene.CubeTexture) {
	if c.GLID == 0 {
		return
	}
	DeleteCubeTexture(c)
	r.stats.CubeTextures++
	r.log.WithField("texture", c.Name).Trace("cube texture released")
}

func (r *Releaser) Stats() ReleaseStats { return r.stats }
