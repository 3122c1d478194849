package registry

import (
	"render-assets/scene"
)

// ownerSet counts how many times each tracked instance references a resource.
type ownerSet map[Identity]int

func acquire[K comparable](m map[K]ownerSet, k K, id Identity) (first bool) {
	set, ok := m[k]
	if !ok {
		set = make(ownerSet)
		m[k] = set
	}
	set[id]++
	return !ok
}

func release[K comparable](m map[K]ownerSet, k K, id Identity, n int) (last bool) {
	set, ok := m[k]
	if !ok {
		return false
	}
	set[id] -= n
	if set[id] <= 0 {
		delete(set, id)
	}
	if len(set) == 0 {
		delete(m, k)
		return true
	}
	return false
}

// holdings lists the resources reachable from one tracked instance.
type holdings struct {
	node       *scene.Node
	materials  map[*scene.Material]int
	geometries map[*scene.Geometry]int
	skeletons  map[*scene.Skeleton]int
}

// orphans are resources no tracked instance references any more.
type orphans struct {
	materials  []*scene.Material
	geometries []*scene.Geometry
	skeletons  []*scene.Skeleton
}

// usageIndex is the reverse reference index from GPU resources to the
// tracked model instances using them. Texture usage goes through the
// materials that hold the texture, and stays current through the material
// observer hook.
type usageIndex struct {
	holders    map[Identity]*holdings
	matOwners  map[*scene.Material]ownerSet
	geoOwners  map[*scene.Geometry]ownerSet
	skelOwners map[*scene.Skeleton]ownerSet
	texMats    map[*scene.Texture]map[*scene.Material]int
}

func newUsageIndex() *usageIndex {
	return &usageIndex{
		holders:    make(map[Identity]*holdings),
		matOwners:  make(map[*scene.Material]ownerSet),
		geoOwners:  make(map[*scene.Geometry]ownerSet),
		skelOwners: make(map[*scene.Skeleton]ownerSet),
		texMats:    make(map[*scene.Texture]map[*scene.Material]int),
	}
}

// add indexes every mesh under node as owned by id.
func (ix *usageIndex) add(id Identity, node *scene.Node) {
	h := &holdings{
		node:       node,
		materials:  make(map[*scene.Material]int),
		geometries: make(map[*scene.Geometry]int),
		skeletons:  make(map[*scene.Skeleton]int),
	}
	ix.holders[id] = h
	node.Traverse(func(n *scene.Node) {
		if n.Mesh == nil {
			return
		}
		if g := n.Mesh.Geometry; g != nil {
			h.geometries[g]++
			acquire(ix.geoOwners, g, id)
		}
		if s := n.Mesh.Skeleton; s != nil {
			h.skeletons[s]++
			acquire(ix.skelOwners, s, id)
		}
		for _, m := range n.Mesh.Materials {
			if m == nil {
				continue
			}
			h.materials[m]++
			if acquire(ix.matOwners, m, id) {
				ix.watch(m)
			}
		}
	})
}

// remove drops everything id owns and returns what became unreferenced.
func (ix *usageIndex) remove(id Identity) orphans {
	var out orphans
	h, ok := ix.holders[id]
	if !ok {
		return out
	}
	delete(ix.holders, id)
	for m, n := range h.materials {
		if release(ix.matOwners, m, id, n) {
			ix.unwatch(m)
			out.materials = append(out.materials, m)
		}
	}
	for g, n := range h.geometries {
		if release(ix.geoOwners, g, id, n) {
			out.geometries = append(out.geometries, g)
		}
	}
	for s, n := range h.skeletons {
		if release(ix.skelOwners, s, id, n) {
			out.skeletons = append(out.skeletons, s)
		}
	}
	return out
}

// node returns the root node indexed for id.
func (ix *usageIndex) node(id Identity) *scene.Node {
	if h, ok := ix.holders[id]; ok {
		return h.node
	}
	return nil
}

func (ix *usageIndex) watch(m *scene.Material) {
	m.Observe(ix)
	m.Textures(func(_ scene.TextureSlot, t *scene.Texture) {
		ix.link(t, m)
	})
}

func (ix *usageIndex) unwatch(m *scene.Material) {
	if m.Observer() == ix {
		m.Observe(nil)
	}
	m.Textures(func(_ scene.TextureSlot, t *scene.Texture) {
		ix.unlink(t, m)
	})
}

func (ix *usageIndex) link(t *scene.Texture, m *scene.Material) {
	mats, ok := ix.texMats[t]
	if !ok {
		mats = make(map[*scene.Material]int)
		ix.texMats[t] = mats
	}
	mats[m]++
}

func (ix *usageIndex) unlink(t *scene.Texture, m *scene.Material) {
	mats, ok := ix.texMats[t]
	if !ok {
		return
	}
	mats[m]--
	if mats[m] <= 0 {
		delete(mats, m)
	}
	if len(mats) == 0 {
		delete(ix.texMats, t)
	}
}

// TextureChanged keeps the texture links of watched materials current.
func (ix *usageIndex) TextureChanged(m *scene.Material, _ scene.TextureSlot, prev, next *scene.Texture) {
	if _, ok := ix.matOwners[m]; !ok {
		return
	}
	if prev != nil {
		ix.unlink(prev, m)
	}
	if next != nil {
		ix.link(next, m)
	}
}

// textureInUse reports whether any tracked instance references t.
func (ix *usageIndex) textureInUse(t *scene.Texture) bool {
	return len(ix.texMats[t]) > 0
}

// materialsUsing returns the watched materials holding t.
func (ix *usageIndex) materialsUsing(t *scene.Texture) []*scene.Material {
	out := make([]*scene.Material, 0, len(ix.texMats[t]))
	for m := range ix.texMats[t] {
		out = append(out, m)
	}
	return out
}

// textureOwners returns the instances whose materials hold t.
func (ix *usageIndex) textureOwners(t *scene.Texture) []Identity {
	seen := make(map[Identity]bool)
	var out []Identity
	for m := range ix.texMats[t] {
		for id := range ix.matOwners[m] {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}
