package registry

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"render-assets/animation"
	"render-assets/scene"
)

// Instance is a uniform view of a source model or one of its clones.
type Instance struct {
	ID       Identity
	Key      ModelKey
	Node     *scene.Node
	Playback *animation.Playback
}

func (i Instance) Name() string { return i.Key.Name() }

func sourceInstance(rec *ModelRecord) Instance {
	return Instance{
		ID:       rec.Source.ID,
		Key:      SourceKey(rec.Source.Name),
		Node:     rec.Source.Node,
		Playback: rec.Source.Playback,
	}
}

func cloneInstance(c *CloneRecord) Instance {
	return Instance{ID: c.ID, Key: c.Key(), Node: c.Node, Playback: c.Playback}
}

// SetModel registers a freshly decoded model as a new source record. When
// clips are present the source gets its own playback state.
func (r *Registry) SetModel(d ModelData) (*ModelRecord, error) {
	if d.Node == nil {
		return nil, fmt.Errorf("%w: model %q has no node", ErrInvalidArgument, d.Name)
	}
	id, err := r.bind(d.Name, ref{category: CategoryModel, base: d.Name})
	if err != nil {
		return nil, err
	}
	if d.Node.Name == "" {
		d.Node.Name = d.Name
	}
	rec := newModelRecord(SourceModel{
		ID:       id,
		Name:     d.Name,
		Node:     d.Node,
		Clips:    d.Clips,
		Playback: animation.NewPlayback(d.Node, d.Clips),
	})
	r.models[d.Name] = rec
	r.index.add(id, d.Node)
	r.log.WithFields(logrus.Fields{"asset": d.Name, "id": id, "clips": len(d.Clips)}).Debug("model registered")
	return rec, r.checked(nil)
}

// ModelRecord returns the record of the source model named name.
func (r *Registry) ModelRecord(name string) (*ModelRecord, error) {
	rec, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("%w: model %q", ErrNotFound, name)
	}
	return rec, nil
}

// Model resolves key to the source or the requested clone.
func (r *Registry) Model(key ModelKey) (Instance, error) {
	rec, err := r.ModelRecord(key.Base)
	if err != nil {
		return Instance{}, err
	}
	if !key.IsClone() {
		return sourceInstance(rec), nil
	}
	c, ok := rec.clones[key.Kind][key.Name()]
	if !ok {
		return Instance{}, fmt.Errorf("%w: clone %q of model %q", ErrNotFound, key.Name(), key.Base)
	}
	return cloneInstance(c), nil
}

// ModelByID resolves an identity bound to a model source or clone.
func (r *Registry) ModelByID(id Identity) (Instance, error) {
	name, ok := r.idToName[id]
	if !ok {
		return Instance{}, fmt.Errorf("%w: identity %d", ErrNotFound, id)
	}
	rf := r.refs[name]
	if rf.category != CategoryModel {
		return Instance{}, fmt.Errorf("%w: identity %d is a %s, not a model", ErrNotFound, id, rf.category)
	}
	return r.Model(ModelKey{Base: rf.base, Kind: rf.kind, Ordinal: rf.ordinal})
}

// ModelNames returns the names of every source model, sorted.
func (r *Registry) ModelNames() []string {
	return sortedKeys(r.models)
}

// Models returns every source model record, sorted by name.
func (r *Registry) Models() []*ModelRecord {
	out := make([]*ModelRecord, 0, len(r.models))
	for _, name := range sortedKeys(r.models) {
		out = append(out, r.models[name])
	}
	return out
}

// Reindex refreshes the usage index of a model source or clone after the
// application reassigned meshes, materials or geometry under it.
func (r *Registry) Reindex(key ModelKey) error {
	inst, err := r.Model(key)
	if err != nil {
		return err
	}
	r.index.remove(inst.ID)
	r.index.add(inst.ID, inst.Node)
	return nil
}
