package scene

import (
	"maps"
)

// NodeMap pairs every node of a source tree with its copy.
type NodeMap map[*Node]*Node

// CloneTree copies the subtree rooted at root. Every copied node gets its
// own Mesh value, but geometry, materials and skeleton stay shared with
// the source. The copy has no parent.
func CloneTree(root *Node) (*Node, NodeMap) {
	mapping := make(NodeMap)
	return cloneNode(root, mapping), mapping
}

func cloneNode(src *Node, mapping NodeMap) *Node {
	dst := NewNode(src.Name)
	dst.Transform = src.Transform
	dst.Visible = src.Visible
	if src.UserData != nil {
		dst.UserData = maps.Clone(src.UserData)
	}
	if src.Mesh != nil {
		m := *src.Mesh
		m.Materials = append([]*Material(nil), src.Mesh.Materials...)
		dst.Mesh = &m
	}
	mapping[src] = dst
	for _, child := range src.Children {
		dst.AddChild(cloneNode(child, mapping))
	}
	return dst
}

// CloneSkinned copies the subtree like CloneTree, then rebinds every
// skinned mesh in the copy to the copied bones. Bones outside the subtree
// keep pointing at the source bones.
func CloneSkinned(root *Node) (*Node, NodeMap) {
	clone, mapping := CloneTree(root)
	rebound := make(map[*Skeleton]*Skeleton)
	clone.Traverse(func(n *Node) {
		if n.Mesh == nil || n.Mesh.Skeleton == nil {
			return
		}
		src := n.Mesh.Skeleton
		if s, ok := rebound[src]; ok {
			n.Mesh.Skeleton = s
			return
		}
		bones := make([]*Node, len(src.Bones))
		for i, b := range src.Bones {
			if c, ok := mapping[b]; ok {
				bones[i] = c
			} else {
				bones[i] = b
			}
		}
		s := NewSkeleton(bones, append(src.BoneInverses[:0:0], src.BoneInverses...))
		rebound[src] = s
		n.Mesh.Skeleton = s
	})
	return clone, mapping
}

// CloneMaterials replaces every material under root with its clone.
// Materials shared between meshes of the tree stay shared between the
// corresponding copies.
func CloneMaterials(root *Node) {
	cloned := make(map[*Material]*Material)
	root.Traverse(func(n *Node) {
		if n.Mesh == nil {
			return
		}
		for i, m := range n.Mesh.Materials {
			if m == nil {
				continue
			}
			c, ok := cloned[m]
			if !ok {
				c = m.Clone()
				cloned[m] = c
			}
			n.Mesh.Materials[i] = c
		}
	})
}

// CloneMaterialTextures gives every material under root its own copy of the
// textures held in the given slots.
func CloneMaterialTextures(root *Node, slots ...TextureSlot) {
	cloned := make(map[*Texture]*Texture)
	seen := make(map[*Material]bool)
	root.Traverse(func(n *Node) {
		if n.Mesh == nil {
			return
		}
		for _, m := range n.Mesh.Materials {
			if m == nil || seen[m] {
				continue
			}
			seen[m] = true
			for _, slot := range slots {
				t := m.Texture(slot)
				if t == nil {
					continue
				}
				c, ok := cloned[t]
				if !ok {
					c = t.Clone()
					cloned[t] = c
				}
				m.SetTexture(slot, c)
			}
		}
	})
}

// CloneGeometries gives every mesh under root its own geometry buffers.
func CloneGeometries(root *Node) {
	cloned := make(map[*Geometry]*Geometry)
	root.Traverse(func(n *Node) {
		if n.Mesh == nil || n.Mesh.Geometry == nil {
			return
		}
		g, ok := cloned[n.Mesh.Geometry]
		if !ok {
			g = n.Mesh.Geometry.Clone()
			cloned[n.Mesh.Geometry] = g
		}
		n.Mesh.Geometry = g
	})
}
