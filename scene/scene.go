package scene

import (
	"render-assets/core"
)

// Scene is a render root plus the environment the renderer reads each
// frame. Background and Environment may point at registry-owned textures;
// the registry clears them before releasing those textures.
type Scene struct {
	Root    *Node
	Ambient core.Color

	Background      *Texture
	Environment     *Texture
	BackgroundCube  *CubeTexture
	EnvironmentCube *CubeTexture
}

func NewScene() *Scene {
	return &Scene{
		Root:    NewNode("Root"),
		Ambient: core.Color{R: 0.2, G: 0.2, B: 0.2, A: 1.0},
	}
}

func (s *Scene) AddNode(node *Node) {
	s.Root.AddChild(node)
}

func (s *Scene) RemoveNode(node *Node) {
	s.Root.RemoveChild(node)
}

// UsesTexture reports whether any material under the root, or any of the
// scene's environment fields, references tex.
func (s *Scene) UsesTexture(tex *Texture) bool {
	if s.Background == tex || s.Environment == tex {
		return true
	}
	return TreeUsesTexture(s.Root, tex)
}

// TreeUsesTexture scans every mesh material below and including root.
func TreeUsesTexture(root *Node, tex *Texture) bool {
	if root == nil || tex == nil {
		return false
	}
	return !root.walk(func(n *Node) bool {
		if n.Mesh == nil {
			return true
		}
		for _, m := range n.Mesh.Materials {
			if m != nil && m.Uses(tex) {
				return false
			}
		}
		return true
	})
}

// ClearTexture unsets Background and Environment when they point at tex.
// It reports whether anything changed.
func (s *Scene) ClearTexture(tex *Texture) bool {
	changed := false
	if tex == nil {
		return false
	}
	if s.Environment == tex {
		s.Environment = nil
		changed = true
	}
	if s.Background == tex {
		s.Background = nil
		changed = true
	}
	return changed
}

// ClearCubeTexture unsets the cube fields when they point at c.
func (s *Scene) ClearCubeTexture(c *CubeTexture) bool {
	changed := false
	if c == nil {
		return false
	}
	if s.EnvironmentCube == c {
		s.EnvironmentCube = nil
		changed = true
	}
	if s.BackgroundCube == c {
		s.BackgroundCube = nil
		changed = true
	}
	return changed
}
