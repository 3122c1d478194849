package opengl

import (
	"fmt"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"render-assets/core"
	"render-assets/scene"
)

// GPUGeometry holds the OpenGL buffer objects for an uploaded geometry.
type GPUGeometry struct {
	VAO        uint32
	VBO        uint32
	EBO        uint32
	IndexCount int32
	HasIndices bool
}

// UploadGeometry creates the vertex array for g and stores it in g.GPUData.
// Uploading twice is a no-op.
func UploadGeometry(g *scene.Geometry) (*GPUGeometry, error) {
	if g == nil {
		return nil, fmt.Errorf("nil geometry")
	}
	if gpu, ok := g.GPUData.(*GPUGeometry); ok {
		return gpu, nil
	}
	if len(g.Vertices) == 0 {
		return nil, fmt.Errorf("geometry %s has no vertices", g.UUID)
	}

	stride := int32(unsafe.Sizeof(core.Vertex{}))
	gpu := &GPUGeometry{
		IndexCount: int32(len(g.Indices)),
		HasIndices: len(g.Indices) > 0,
	}

	gl.GenVertexArrays(1, &gpu.VAO)
	gl.GenBuffers(1, &gpu.VBO)
	gl.BindVertexArray(gpu.VAO)

	gl.BindBuffer(gl.ARRAY_BUFFER, gpu.VBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(g.Vertices)*int(stride), gl.Ptr(g.Vertices), gl.STATIC_DRAW)

	var v core.Vertex
	attribs := []struct {
		size int32
		typ  uint32
		off  uintptr
	}{
		{3, gl.FLOAT, unsafe.Offsetof(v.Position)},
		{3, gl.FLOAT, unsafe.Offsetof(v.Normal)},
		{2, gl.FLOAT, unsafe.Offsetof(v.UV)},
		{4, gl.FLOAT, unsafe.Offsetof(v.Color)},
		{4, gl.UNSIGNED_SHORT, unsafe.Offsetof(v.Joints)},
		{4, gl.FLOAT, unsafe.Offsetof(v.Weights)},
	}
	for i, a := range attribs {
		gl.EnableVertexAttribArray(uint32(i))
		if a.typ == gl.UNSIGNED_SHORT {
			gl.VertexAttribIPointer(uint32(i), a.size, a.typ, stride, gl.PtrOffset(int(a.off)))
			continue
		}
		gl.VertexAttribPointer(uint32(i), a.size, a.typ, false, stride, gl.PtrOffset(int(a.off)))
	}

	if gpu.HasIndices {
		gl.GenBuffers(1, &gpu.EBO)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, gpu.EBO)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(g.Indices)*4, gl.Ptr(g.Indices), gl.STATIC_DRAW)
	}

	gl.BindVertexArray(0)
	g.GPUData = gpu
	return gpu, nil
}

// DeleteGeometry frees the buffers of an uploaded geometry.
func DeleteGeometry(g *scene.Geometry) {
	if g == nil {
		return
	}
	gpu, ok := g.GPUData.(*GPUGeometry)
	if !ok {
		return
	}
	gl.DeleteVertexArrays(1, &gpu.VAO)
	gl.DeleteBuffers(1, &gpu.VBO)
	if gpu.HasIndices {
		gl.DeleteBuffers(1, &gpu.EBO)
	}
	g.GPUData = nil
}

// UploadNode uploads every geometry and texture reachable from root.
func UploadNode(root *scene.Node) error {
	var err error
	root.Traverse(func(n *scene.Node) {
		if err != nil || n.Mesh == nil {
			return
		}
		if n.Mesh.Geometry != nil {
			if _, e := UploadGeometry(n.Mesh.Geometry); e != nil {
				err = fmt.Errorf("%s: %w", n.Name, e)
				return
			}
		}
		for _, m := range n.Mesh.Materials {
			if m == nil {
				continue
			}
			m.Textures(func(_ scene.TextureSlot, t *scene.Texture) {
				if err == nil && t != nil {
					if e := UploadTexture(t); e != nil {
						err = fmt.Errorf("%s: %w", n.Name, e)
					}
				}
			})
		}
	})
	return err
}
