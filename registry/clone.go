package registry

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"render-assets/animation"
	"render-assets/scene"
)

// CloneRequest asks for Count clones of one kind. DeepClone and
// CloneGeometry only apply to SkeletonClone: DeepClone also clones the
// materials and their base colour and normal textures, CloneGeometry gives
// each clone its own geometry buffers.
type CloneRequest struct {
	Kind          CloneKind
	Count         int
	DeepClone     bool
	CloneGeometry bool
}

// Validate rejects negative counts, unknown kinds and skeleton options on
// other kinds.
func (q CloneRequest) Validate() error {
	if q.Count < 0 {
		return fmt.Errorf("%w: clone count %d", ErrInvalidArgument, q.Count)
	}
	switch q.Kind {
	case DeepClone, ShallowClone:
		if q.DeepClone || q.CloneGeometry {
			return fmt.Errorf("%w: deepClone and cloneGeometry only apply to %s", ErrInvalidArgument, SkeletonClone)
		}
	case SkeletonClone:
	default:
		return fmt.Errorf("%w: clone kind %s", ErrInvalidArgument, q.Kind)
	}
	return nil
}

// skeletonTextureSlots are the slots a deep skeleton clone copies.
var skeletonTextureSlots = []scene.TextureSlot{scene.MapSlot, scene.NormalMapSlot}

// CloneModel produces req.Count clones of the source model named name and
// registers each under <name><Kind><ordinal>. Ordinals continue from the
// per-kind counter and are never reused. A zero count is a no-op.
func (r *Registry) CloneModel(name string, req CloneRequest) ([]*CloneRecord, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	rec, err := r.ModelRecord(name)
	if err != nil {
		return nil, err
	}
	if rec.state != Registered {
		return nil, fmt.Errorf("%w: model %q is %s", ErrInvalidArgument, name, rec.state)
	}
	counter := rec.counter(req.Kind)
	out := make([]*CloneRecord, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		ordinal := *counter
		*counter++
		key := ModelKey{Base: name, Kind: req.Kind, Ordinal: ordinal}
		c, err := r.addClone(rec, key, req)
		if err != nil {
			return out, err
		}
		out = append(out, c)
	}
	if len(out) > 0 {
		r.log.WithFields(logrus.Fields{"asset": name, "kind": req.Kind, "count": len(out)}).Debug("model cloned")
	}
	return out, nil
}

func (r *Registry) addClone(rec *ModelRecord, key ModelKey, req CloneRequest) (*CloneRecord, error) {
	cloneName := key.Name()
	if err := r.reserve(cloneName); err != nil {
		return nil, err
	}
	node := buildClone(rec.Source.Node, req)
	node.Name = cloneName

	id, err := r.bind(cloneName, ref{category: CategoryModel, base: key.Base, kind: key.Kind, clone: true, ordinal: key.Ordinal})
	if err != nil {
		return nil, err
	}
	c := &CloneRecord{
		ID:         id,
		ParentID:   rec.Source.ID,
		ParentName: rec.Source.Name,
		Name:       cloneName,
		Kind:       key.Kind,
		Ordinal:    key.Ordinal,
		Node:       node,
	}
	if key.Kind == SkeletonClone {
		c.Playback = animation.NewPlayback(node, rec.Source.Clips)
	}
	rec.clones[key.Kind][cloneName] = c
	r.index.add(id, node)
	return c, r.checked(nil)
}

// buildClone duplicates src under the sharing policy of req.
func buildClone(src *scene.Node, req CloneRequest) *scene.Node {
	switch req.Kind {
	case DeepClone:
		n, _ := scene.CloneTree(src)
		scene.CloneMaterials(n)
		return n
	case SkeletonClone:
		n, _ := scene.CloneSkinned(src)
		if req.DeepClone {
			scene.CloneMaterials(n)
			scene.CloneMaterialTextures(n, skeletonTextureSlots...)
		}
		if req.CloneGeometry {
			scene.CloneGeometries(n)
		}
		return n
	default:
		n, _ := scene.CloneTree(src)
		return n
	}
}

// CloneTexture produces count clones of the source texture named name,
// registered as <name>Texture<ordinal> with ordinals starting at one. Each
// clone shares decoded pixels with the source but is its own GPU object.
func (r *Registry) CloneTexture(name string, count int) ([]*TextureEntry, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: clone count %d", ErrInvalidArgument, count)
	}
	rec, err := r.TextureRecord(name)
	if err != nil {
		return nil, err
	}
	if rec.state != Registered {
		return nil, fmt.Errorf("%w: texture %q is %s", ErrInvalidArgument, name, rec.state)
	}
	out := make([]*TextureEntry, 0, count)
	for i := 0; i < count; i++ {
		rec.CloneCount++
		key := TextureKey{Base: name, Clone: true, Ordinal: rec.CloneCount}
		cloneName := key.Name()
		tex := rec.Source.Texture.Clone()
		tex.Name = cloneName
		id, err := r.bind(cloneName, ref{category: CategoryTexture, base: name, clone: true, ordinal: key.Ordinal})
		if err != nil {
			return out, err
		}
		e := &TextureEntry{ID: id, Name: cloneName, Ordinal: key.Ordinal, Texture: tex}
		rec.clones[cloneName] = e
		r.owned[tex] = cloneName
		out = append(out, e)
		if err := r.checked(nil); err != nil {
			return out, err
		}
	}
	if count > 0 {
		r.log.WithFields(logrus.Fields{"asset": name, "count": count}).Debug("texture cloned")
	}
	return out, nil
}
