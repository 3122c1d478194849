package registry

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/font/sfnt"

	"render-assets/audio"
	"render-assets/scene"
)

// lookup resolves name in one of the flat maps.
func lookup[V any](m map[string]V, c Category, name string) (V, error) {
	v, ok := m[name]
	if !ok {
		var zero V
		return zero, fmt.Errorf("%w: %s %q", ErrNotFound, c, name)
	}
	return v, nil
}

// lookupID resolves an identity through the identity maps into m.
func lookupID[V any](r *Registry, m map[string]V, c Category, id Identity) (V, error) {
	name, ok := r.idToName[id]
	if !ok || r.refs[name].category != c {
		var zero V
		return zero, fmt.Errorf("%w: %s identity %d", ErrNotFound, c, id)
	}
	return lookup(m, c, name)
}

func values[V any](m map[string]V) []V {
	out := make([]V, 0, len(m))
	for _, k := range sortedKeys(m) {
		out = append(out, m[k])
	}
	return out
}

func (r *Registry) registered(c Category, name string, id Identity) {
	r.log.WithFields(logrus.Fields{"asset": name, "id": id, "category": c}).Debug("asset registered")
}

// SetCubeMap registers a six-faced cube map.
func (r *Registry) SetCubeMap(name string, cube *scene.CubeTexture) (*CubeMapRecord, error) {
	return r.setCube(r.cubeMaps, CategoryCubeMap, name, cube)
}

// SetHDRCubeMap registers a six-faced HDR cube map.
func (r *Registry) SetHDRCubeMap(name string, cube *scene.CubeTexture) (*CubeMapRecord, error) {
	return r.setCube(r.hdrCubeMaps, CategoryHDRCubeMap, name, cube)
}

func (r *Registry) setCube(m map[string]*CubeMapRecord, c Category, name string, cube *scene.CubeTexture) (*CubeMapRecord, error) {
	if cube == nil {
		return nil, fmt.Errorf("%w: %s %q is nil", ErrInvalidArgument, c, name)
	}
	id, err := r.bind(name, ref{category: c, base: name})
	if err != nil {
		return nil, err
	}
	rec := &CubeMapRecord{ID: id, Name: name, Cube: cube}
	m[name] = rec
	for _, f := range cube.Faces {
		if f != nil {
			r.owned[f] = name
		}
	}
	r.registered(c, name, id)
	return rec, r.checked(nil)
}

func (r *Registry) CubeMap(name string) (*CubeMapRecord, error) {
	return lookup(r.cubeMaps, CategoryCubeMap, name)
}

func (r *Registry) CubeMapByID(id Identity) (*CubeMapRecord, error) {
	return lookupID(r, r.cubeMaps, CategoryCubeMap, id)
}

func (r *Registry) CubeMaps() []*CubeMapRecord { return values(r.cubeMaps) }

func (r *Registry) HDRCubeMap(name string) (*CubeMapRecord, error) {
	return lookup(r.hdrCubeMaps, CategoryHDRCubeMap, name)
}

func (r *Registry) HDRCubeMapByID(id Identity) (*CubeMapRecord, error) {
	return lookupID(r, r.hdrCubeMaps, CategoryHDRCubeMap, id)
}

func (r *Registry) HDRCubeMaps() []*CubeMapRecord { return values(r.hdrCubeMaps) }

// SetHDRI registers an equirectangular HDR image. env is the filtered map
// used for lighting, original the texture used as background; they may be
// the same texture.
func (r *Registry) SetHDRI(name string, env, original *scene.Texture) (*HDRIRecord, error) {
	if env == nil || original == nil {
		return nil, fmt.Errorf("%w: hdri %q needs both textures", ErrInvalidArgument, name)
	}
	id, err := r.bind(name, ref{category: CategoryHDRI, base: name})
	if err != nil {
		return nil, err
	}
	rec := &HDRIRecord{ID: id, Name: name, Environment: env, Original: original}
	r.hdris[name] = rec
	r.owned[env] = name
	r.owned[original] = name
	r.registered(CategoryHDRI, name, id)
	return rec, r.checked(nil)
}

func (r *Registry) HDRI(name string) (*HDRIRecord, error) {
	return lookup(r.hdris, CategoryHDRI, name)
}

func (r *Registry) HDRIByID(id Identity) (*HDRIRecord, error) {
	return lookupID(r, r.hdris, CategoryHDRI, id)
}

func (r *Registry) HDRIs() []*HDRIRecord { return values(r.hdris) }

// SetFont registers a parsed font.
func (r *Registry) SetFont(name string, f *sfnt.Font) (*FontRecord, error) {
	if f == nil {
		return nil, fmt.Errorf("%w: font %q is nil", ErrInvalidArgument, name)
	}
	id, err := r.bind(name, ref{category: CategoryFont, base: name})
	if err != nil {
		return nil, err
	}
	rec := &FontRecord{ID: id, Name: name, Font: f}
	r.fonts[name] = rec
	r.registered(CategoryFont, name, id)
	return rec, r.checked(nil)
}

func (r *Registry) Font(name string) (*FontRecord, error) {
	return lookup(r.fonts, CategoryFont, name)
}

func (r *Registry) FontByID(id Identity) (*FontRecord, error) {
	return lookupID(r, r.fonts, CategoryFont, id)
}

func (r *Registry) Fonts() []*FontRecord { return values(r.fonts) }

// SetAudio registers an audio source and binds it to the shared listener.
func (r *Registry) SetAudio(name string, src *audio.Source) (*AudioRecord, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: audio %q is nil", ErrInvalidArgument, name)
	}
	id, err := r.bind(name, ref{category: CategoryAudio, base: name})
	if err != nil {
		return nil, err
	}
	src.SetListener(r.listener)
	rec := &AudioRecord{ID: id, Name: name, Source: src}
	r.audios[name] = rec
	r.registered(CategoryAudio, name, id)
	return rec, r.checked(nil)
}

func (r *Registry) Audio(name string) (*AudioRecord, error) {
	return lookup(r.audios, CategoryAudio, name)
}

func (r *Registry) AudioByID(id Identity) (*AudioRecord, error) {
	return lookupID(r, r.audios, CategoryAudio, id)
}

func (r *Registry) Audios() []*AudioRecord { return values(r.audios) }

// AttachListener reparents the shared listener under target and points every
// positional audio source at it. It returns the number of sources updated.
func (r *Registry) AttachListener(target *scene.Node) int {
	r.listener.AttachTo(target)
	n := 0
	for _, rec := range r.audios {
		if !rec.Source.Positional {
			continue
		}
		rec.Source.SetListener(r.listener)
		rec.Source.UpdatePan()
		n++
	}
	r.log.WithField("sources", n).Debug("audio listener attached")
	return n
}
