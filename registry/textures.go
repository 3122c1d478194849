package registry

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"render-assets/scene"
)

// SetTexture registers tex as a new source texture named name.
func (r *Registry) SetTexture(name string, tex *scene.Texture) (*TextureRecord, error) {
	if tex == nil {
		return nil, fmt.Errorf("%w: texture %q is nil", ErrInvalidArgument, name)
	}
	id, err := r.bind(name, ref{category: CategoryTexture, base: name})
	if err != nil {
		return nil, err
	}
	rec := &TextureRecord{
		Source: TextureEntry{ID: id, Name: name, Texture: tex},
		clones: make(map[string]*TextureEntry),
	}
	r.textures[name] = rec
	r.owned[tex] = name
	r.log.WithFields(logrus.Fields{"asset": name, "id": id}).Debug("texture registered")
	return rec, r.checked(nil)
}

// TextureRecord returns the record of the source texture named name.
func (r *Registry) TextureRecord(name string) (*TextureRecord, error) {
	rec, ok := r.textures[name]
	if !ok {
		return nil, fmt.Errorf("%w: texture %q", ErrNotFound, name)
	}
	return rec, nil
}

// Texture resolves key to the source texture or the requested clone.
func (r *Registry) Texture(key TextureKey) (*TextureEntry, error) {
	rec, err := r.TextureRecord(key.Base)
	if err != nil {
		return nil, err
	}
	if !key.Clone {
		return &rec.Source, nil
	}
	c, ok := rec.clones[key.Name()]
	if !ok {
		return nil, fmt.Errorf("%w: clone %q of texture %q", ErrNotFound, key.Name(), key.Base)
	}
	return c, nil
}

// TextureByID resolves an identity bound to a texture source or clone.
func (r *Registry) TextureByID(id Identity) (*TextureEntry, error) {
	name, ok := r.idToName[id]
	if !ok {
		return nil, fmt.Errorf("%w: identity %d", ErrNotFound, id)
	}
	rf := r.refs[name]
	if rf.category != CategoryTexture {
		return nil, fmt.Errorf("%w: identity %d is a %s, not a texture", ErrNotFound, id, rf.category)
	}
	return r.Texture(TextureKey{Base: rf.base, Clone: rf.clone, Ordinal: rf.ordinal})
}

func (r *Registry) TextureNames() []string {
	return sortedKeys(r.textures)
}

// Textures returns every source texture record, sorted by name.
func (r *Registry) Textures() []*TextureRecord {
	out := make([]*TextureRecord, 0, len(r.textures))
	for _, name := range sortedKeys(r.textures) {
		out = append(out, r.textures[name])
	}
	return out
}

// Owns reports whether tex belongs to a texture, cube or HDRI record.
func (r *Registry) Owns(tex *scene.Texture) bool {
	_, ok := r.owned[tex]
	return ok
}
