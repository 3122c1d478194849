package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"render-assets/core"
)

// DrawMode controls the OpenGL primitive type used when rendering a mesh.
type DrawMode int

const (
	DrawTriangles DrawMode = iota // gl.TRIANGLES (default)
	DrawLines                     // gl.LINES
	DrawPoints                    // gl.POINTS
)

// Mesh binds a geometry to one material per primitive group. Geometry,
// materials and skeleton may be shared with other meshes.
type Mesh struct {
	Name      string
	Geometry  *Geometry
	Materials []*Material
	Skeleton  *Skeleton
	DrawMode  DrawMode
}

// NewMesh builds a single-material mesh. A nil material falls back to
// DefaultMaterial.
func NewMesh(name string, geometry *Geometry, material *Material) *Mesh {
	if material == nil {
		material = DefaultMaterial()
	}
	return &Mesh{
		Name:      name,
		Geometry:  geometry,
		Materials: []*Material{material},
	}
}

// Material returns the first material, or nil.
func (m *Mesh) Material() *Material {
	if len(m.Materials) == 0 {
		return nil
	}
	return m.Materials[0]
}

// IsSkinned reports whether the mesh is bound to a skeleton.
func (m *Mesh) IsSkinned() bool {
	return m.Skeleton != nil
}

// CreateQuad builds a unit quad on the XY plane.
func CreateQuad(material *Material) *Mesh {
	n := mgl32.Vec3{0, 0, 1}
	vertices := []core.Vertex{
		{Position: mgl32.Vec3{-0.5, -0.5, 0}, Normal: n, UV: mgl32.Vec2{0, 0}, Color: core.ColorWhite},
		{Position: mgl32.Vec3{0.5, -0.5, 0}, Normal: n, UV: mgl32.Vec2{1, 0}, Color: core.ColorWhite},
		{Position: mgl32.Vec3{0.5, 0.5, 0}, Normal: n, UV: mgl32.Vec2{1, 1}, Color: core.ColorWhite},
		{Position: mgl32.Vec3{-0.5, 0.5, 0}, Normal: n, UV: mgl32.Vec2{0, 1}, Color: core.ColorWhite},
	}
	indices := []uint32{0, 1, 2, 2, 3, 0}
	return NewMesh("Quad", NewGeometry(vertices, indices), material)
}

// CreateCube builds an axis aligned cube with per-face normals.
func CreateCube(size float32, material *Material) *Mesh {
	s := size / 2
	faces := []struct {
		normal  mgl32.Vec3
		corners [4]mgl32.Vec3
	}{
		{mgl32.Vec3{0, 0, 1}, [4]mgl32.Vec3{{-s, -s, s}, {s, -s, s}, {s, s, s}, {-s, s, s}}},
		{mgl32.Vec3{0, 0, -1}, [4]mgl32.Vec3{{s, -s, -s}, {-s, -s, -s}, {-s, s, -s}, {s, s, -s}}},
		{mgl32.Vec3{0, 1, 0}, [4]mgl32.Vec3{{-s, s, s}, {s, s, s}, {s, s, -s}, {-s, s, -s}}},
		{mgl32.Vec3{0, -1, 0}, [4]mgl32.Vec3{{-s, -s, -s}, {s, -s, -s}, {s, -s, s}, {-s, -s, s}}},
		{mgl32.Vec3{1, 0, 0}, [4]mgl32.Vec3{{s, -s, s}, {s, -s, -s}, {s, s, -s}, {s, s, s}}},
		{mgl32.Vec3{-1, 0, 0}, [4]mgl32.Vec3{{-s, -s, -s}, {-s, -s, s}, {-s, s, s}, {-s, s, -s}}},
	}
	uvs := [4]mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

	vertices := make([]core.Vertex, 0, 24)
	indices := make([]uint32, 0, 36)
	for _, f := range faces {
		base := uint32(len(vertices))
		for i, p := range f.corners {
			vertices = append(vertices, core.Vertex{Position: p, Normal: f.normal, UV: uvs[i], Color: core.ColorWhite})
		}
		indices = append(indices, base, base+1, base+2, base+2, base+3, base)
	}
	return NewMesh("Cube", NewGeometry(vertices, indices), material)
}
