package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"render-assets/core"
)

// AABB is an axis aligned bounding box in local space.
type AABB struct {
	Min, Max mgl32.Vec3
}

// Geometry holds CPU-side vertex/index buffers. Several meshes may share one
// geometry; GPUData is set by the renderer backend on upload.
type Geometry struct {
	UUID      uuid.UUID
	Vertices  []core.Vertex
	Indices   []uint32
	LocalAABB AABB
	GPUData   any

	disposed bool
}

func NewGeometry(vertices []core.Vertex, indices []uint32) *Geometry {
	g := &Geometry{
		UUID:     uuid.New(),
		Vertices: vertices,
		Indices:  indices,
	}
	if len(vertices) > 0 {
		g.LocalAABB = computeLocalAABB(vertices)
	}
	return g
}

// computeLocalAABB returns the tight AABB of the given vertex positions.
func computeLocalAABB(vertices []core.Vertex) AABB {
	lo := vertices[0].Position
	hi := vertices[0].Position
	for _, v := range vertices[1:] {
		for i := 0; i < 3; i++ {
			lo[i] = min(lo[i], v.Position[i])
			hi[i] = max(hi[i], v.Position[i])
		}
	}
	return AABB{Min: lo, Max: hi}
}

// Clone copies the buffers into a new geometry with its own UUID and no
// GPU data.
func (g *Geometry) Clone() *Geometry {
	return &Geometry{
		UUID:      uuid.New(),
		Vertices:  append([]core.Vertex(nil), g.Vertices...),
		Indices:   append([]uint32(nil), g.Indices...),
		LocalAABB: g.LocalAABB,
	}
}

func (g *Geometry) Dispose(r Releaser) {
	if g == nil || g.disposed {
		return
	}
	r.ReleaseGeometry(g)
	g.GPUData = nil
	g.disposed = true
}

func (g *Geometry) Disposed() bool {
	return g.disposed
}
