package registry

import (
	"render-assets/scene"
)

// IsReachable reports whether node is attached, directly or transitively,
// beneath root right now.
func IsReachable(node, root *scene.Node) bool {
	return node.IsDescendantOf(root)
}

// TextureStillInUse reports whether any tracked model, source or clone of
// any kind, has a mesh material holding tex in one of its texture slots.
func (r *Registry) TextureStillInUse(tex *scene.Texture) bool {
	if tex == nil {
		return false
	}
	return r.index.textureInUse(tex)
}

// textureUsedUnder reports whether tex is used by a tracked instance at or
// below root, by any other renderable in that subtree, or by the
// environment of a tracked scene rooted at root.
func (r *Registry) textureUsedUnder(root *scene.Node, tex *scene.Texture) bool {
	for _, id := range r.index.textureOwners(tex) {
		if n := r.index.node(id); n == root || IsReachable(n, root) {
			return true
		}
	}
	for _, s := range r.scenes {
		if s.Root == root && (s.Background == tex || s.Environment == tex) {
			return true
		}
	}
	return scene.TreeUsesTexture(root, tex)
}

// textureUsedElsewhere reports whether tex is still needed outside root: by
// a tracked instance not under root, or by a tracked scene other than the
// one rooted at root.
func (r *Registry) textureUsedElsewhere(root *scene.Node, tex *scene.Texture) bool {
	for _, id := range r.index.textureOwners(tex) {
		if n := r.index.node(id); n != root && !IsReachable(n, root) {
			return true
		}
	}
	for _, s := range r.scenes {
		if s.Root == root {
			continue
		}
		if s.Background == tex || s.Environment == tex {
			return true
		}
		if usesTextureOutside(s.Root, root, tex) {
			return true
		}
	}
	return false
}

// usedByTrackedScene reports whether any tracked scene renders tex.
func (r *Registry) usedByTrackedScene(tex *scene.Texture) bool {
	for _, s := range r.scenes {
		if s.UsesTexture(tex) {
			return true
		}
	}
	return false
}

// usesTextureOutside scans the tree at n, skipping the subtree at skip.
func usesTextureOutside(n, skip *scene.Node, tex *scene.Texture) bool {
	if n == nil || n == skip {
		return false
	}
	if n.Mesh != nil {
		for _, m := range n.Mesh.Materials {
			if m != nil && m.Uses(tex) {
				return true
			}
		}
	}
	for _, c := range n.Children {
		if usesTextureOutside(c, skip, tex) {
			return true
		}
	}
	return false
}

// ownedTexturesUnder collects registry-owned textures referenced below node.
func (r *Registry) ownedTexturesUnder(node *scene.Node, into map[*scene.Texture]bool) {
	node.Traverse(func(n *scene.Node) {
		if n.Mesh == nil {
			return
		}
		for _, m := range n.Mesh.Materials {
			if m == nil {
				continue
			}
			m.Textures(func(_ scene.TextureSlot, t *scene.Texture) {
				if r.Owns(t) {
					into[t] = true
				}
			})
		}
	})
}
