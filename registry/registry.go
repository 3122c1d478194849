// Package registry tracks loaded render assets, their clones and their
// identities, and disposes them without leaving dangling GPU references.
//
// A Registry is confined to one goroutine, normally the render thread. It
// takes no locks; loaders decode elsewhere and register results on that
// goroutine.
package registry

import (
	"fmt"
	"maps"
	"slices"

	"github.com/sirupsen/logrus"

	"render-assets/audio"
	"render-assets/scene"
)

// Registry owns every asset map and the identity bindings between names
// and identities.
type Registry struct {
	log      logrus.FieldLogger
	ids      *IdentityGenerator
	releaser scene.Releaser
	strict   bool

	models      map[string]*ModelRecord
	textures    map[string]*TextureRecord
	cubeMaps    map[string]*CubeMapRecord
	hdrCubeMaps map[string]*CubeMapRecord
	hdris       map[string]*HDRIRecord
	fonts       map[string]*FontRecord
	audios      map[string]*AudioRecord

	idToName map[Identity]string
	nameToID map[string]Identity
	refs     map[string]ref

	index    *usageIndex
	owned    map[*scene.Texture]string
	scenes   []*scene.Scene
	listener *audio.Listener
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger routes registry logging to log.
func WithLogger(log logrus.FieldLogger) Option {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

// WithReleaser sets the GPU release backend.
func WithReleaser(rel scene.Releaser) Option {
	return func(r *Registry) {
		if rel != nil {
			r.releaser = rel
		}
	}
}

// WithIdentityGenerator replaces the default generator.
func WithIdentityGenerator(g *IdentityGenerator) Option {
	return func(r *Registry) {
		if g != nil {
			r.ids = g
		}
	}
}

// WithStrictInvariants makes every mutation verify the identity maps.
func WithStrictInvariants(strict bool) Option {
	return func(r *Registry) {
		r.strict = strict
	}
}

// WithListener shares an existing audio listener.
func WithListener(l *audio.Listener) Option {
	return func(r *Registry) {
		if l != nil {
			r.listener = l
		}
	}
}

func New(opts ...Option) *Registry {
	r := &Registry{
		log:         logrus.StandardLogger(),
		ids:         NewIdentityGenerator(),
		releaser:    scene.NopReleaser{},
		models:      make(map[string]*ModelRecord),
		textures:    make(map[string]*TextureRecord),
		cubeMaps:    make(map[string]*CubeMapRecord),
		hdrCubeMaps: make(map[string]*CubeMapRecord),
		hdris:       make(map[string]*HDRIRecord),
		fonts:       make(map[string]*FontRecord),
		audios:      make(map[string]*AudioRecord),
		idToName:    make(map[Identity]string),
		nameToID:    make(map[string]Identity),
		refs:        make(map[string]ref),
		index:       newUsageIndex(),
		owned:       make(map[*scene.Texture]string),
		listener:    audio.NewListener(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Logger returns the logger the registry writes to.
func (r *Registry) Logger() logrus.FieldLogger { return r.log }

// Releaser returns the GPU release backend.
func (r *Registry) Releaser() scene.Releaser { return r.releaser }

// Listener returns the audio listener shared by every audio record.
func (r *Registry) Listener() *audio.Listener { return r.listener }

// Len returns the number of bound names, clones included.
func (r *Registry) Len() int { return len(r.nameToID) }

// NameOf resolves an identity to its bound name.
func (r *Registry) NameOf(id Identity) (string, error) {
	name, ok := r.idToName[id]
	if !ok {
		return "", fmt.Errorf("%w: identity %d", ErrNotFound, id)
	}
	return name, nil
}

// IDOf resolves a bound name to its identity.
func (r *Registry) IDOf(name string) (Identity, error) {
	id, ok := r.nameToID[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return id, nil
}

// CategoryOf reports which family a bound name belongs to.
func (r *Registry) CategoryOf(name string) (Category, bool) {
	rf, ok := r.refs[name]
	return rf.category, ok
}

// reserve checks that name is free to bind.
func (r *Registry) reserve(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidArgument)
	}
	if _, ok := r.nameToID[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	return nil
}

// bind assigns a fresh identity to name.
func (r *Registry) bind(name string, rf ref) (Identity, error) {
	if err := r.reserve(name); err != nil {
		return 0, err
	}
	id := r.ids.Next()
	if other, ok := r.idToName[id]; ok {
		return 0, fmt.Errorf("%w: identity %d already bound to %q", ErrCorrupt, id, other)
	}
	r.idToName[id] = name
	r.nameToID[name] = id
	r.refs[name] = rf
	return id, nil
}

// unbind removes the pair (id, name), refusing mismatched pairs.
func (r *Registry) unbind(id Identity, name string) error {
	got, ok := r.idToName[id]
	if ok && got != name {
		return fmt.Errorf("%w: identity %d bound to %q, not %q", ErrCorrupt, id, got, name)
	}
	if back, ok := r.nameToID[name]; ok && back != id {
		return fmt.Errorf("%w: name %q bound to identity %d, not %d", ErrCorrupt, name, back, id)
	}
	delete(r.idToName, id)
	delete(r.nameToID, name)
	delete(r.refs, name)
	return nil
}

// Verify checks that both identity maps agree in both directions and that
// every bound name has a description.
func (r *Registry) Verify() error {
	if len(r.idToName) != len(r.nameToID) {
		return fmt.Errorf("%w: %d identities but %d names", ErrCorrupt, len(r.idToName), len(r.nameToID))
	}
	for id, name := range r.idToName {
		if back, ok := r.nameToID[name]; !ok || back != id {
			return fmt.Errorf("%w: identity %d -> %q does not map back", ErrCorrupt, id, name)
		}
		if _, ok := r.refs[name]; !ok {
			return fmt.Errorf("%w: %q has no category", ErrCorrupt, name)
		}
	}
	if len(r.refs) != len(r.nameToID) {
		return fmt.Errorf("%w: %d descriptions for %d names", ErrCorrupt, len(r.refs), len(r.nameToID))
	}
	return nil
}

// checked runs Verify after a mutation when strict checking is on.
func (r *Registry) checked(err error) error {
	if err != nil || !r.strict {
		return err
	}
	if verr := r.Verify(); verr != nil {
		r.log.WithError(verr).Error("identity maps disagree")
		return verr
	}
	return nil
}

// TrackScene registers s as live. Disposal consults tracked scenes before
// releasing a texture and clears their environment fields.
func (r *Registry) TrackScene(s *scene.Scene) {
	if s == nil || slices.Contains(r.scenes, s) {
		return
	}
	r.scenes = append(r.scenes, s)
}

// UntrackScene forgets s.
func (r *Registry) UntrackScene(s *scene.Scene) {
	r.scenes = slices.DeleteFunc(r.scenes, func(x *scene.Scene) bool { return x == s })
}

// Scenes returns the tracked scenes.
func (r *Registry) Scenes() []*scene.Scene {
	return slices.Clone(r.scenes)
}

// sortedKeys snapshots the keys of m so callers can delete while iterating.
func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
