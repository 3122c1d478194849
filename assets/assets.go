// Package assets is the application-facing view of the asset registry:
// name and id lookups across every category, bulk queries, snapshots and
// the disposal entry points.
package assets

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/font/sfnt"

	"render-assets/audio"
	"render-assets/registry"
	"render-assets/scene"
)

// Assets wraps a Registry. Like the registry it must only be used from the
// goroutine that owns the render loop.
type Assets struct {
	reg *registry.Registry
	log logrus.FieldLogger
}

func New(reg *registry.Registry) *Assets {
	return &Assets{reg: reg, log: reg.Logger().WithField("component", "assets")}
}

func (a *Assets) Registry() *registry.Registry { return a.reg }

// FetchModel resolves a model by name. Names ending in
// DeepClone<n>, ShallowClone<n> or SkeletonClone<n> are read as clone names;
// when no such clone exists but a source model carries the full name, that
// source is returned instead.
func (a *Assets) FetchModel(name string) (registry.Instance, error) {
	key := registry.ParseModelName(name)
	inst, err := a.reg.Model(key)
	if err == nil || !key.IsClone() || !errors.Is(err, registry.ErrNotFound) {
		return inst, err
	}
	if lit, lerr := a.reg.Model(registry.SourceKey(name)); lerr == nil {
		return lit, nil
	}
	return inst, err
}

func (a *Assets) FetchModelByID(id registry.Identity) (registry.Instance, error) {
	return a.reg.ModelByID(id)
}

// SourceModels returns every source model, sorted by name.
func (a *Assets) SourceModels() []registry.Instance {
	recs := a.reg.Models()
	out := make([]registry.Instance, 0, len(recs))
	for _, rec := range recs {
		inst, err := a.reg.Model(registry.SourceKey(rec.Source.Name))
		if err != nil {
			continue
		}
		out = append(out, inst)
	}
	return out
}

// Clones returns the clones of the named source model. With no kinds every
// kind is returned.
func (a *Assets) Clones(name string, kinds ...registry.CloneKind) ([]registry.Instance, error) {
	rec, err := a.reg.ModelRecord(name)
	if err != nil {
		return nil, err
	}
	var recs []*registry.CloneRecord
	if len(kinds) == 0 {
		recs = rec.AllClones()
	} else {
		for _, k := range kinds {
			recs = append(recs, rec.Clones(k)...)
		}
	}
	out := make([]registry.Instance, 0, len(recs))
	for _, c := range recs {
		out = append(out, registry.Instance{ID: c.ID, Key: c.Key(), Node: c.Node, Playback: c.Playback})
	}
	return out, nil
}

func (a *Assets) CloneModel(name string, req registry.CloneRequest) ([]registry.Instance, error) {
	recs, err := a.reg.CloneModel(name, req)
	out := make([]registry.Instance, 0, len(recs))
	for _, c := range recs {
		out = append(out, registry.Instance{ID: c.ID, Key: c.Key(), Node: c.Node, Playback: c.Playback})
	}
	return out, err
}

// UpdateAnimations advances every playback state, sources and clones.
func (a *Assets) UpdateAnimations(dt float32) {
	for _, rec := range a.reg.Models() {
		if rec.Source.Playback != nil {
			rec.Source.Playback.Update(dt)
		}
		for _, c := range rec.AllClones() {
			if c.Playback != nil {
				c.Playback.Update(dt)
			}
		}
	}
}

// FetchTexture resolves a source texture or a <name>Texture<n> clone.
func (a *Assets) FetchTexture(name string) (*scene.Texture, error) {
	key := registry.ParseTextureName(name)
	e, err := a.reg.Texture(key)
	if err != nil && key.Clone && errors.Is(err, registry.ErrNotFound) {
		if lit, lerr := a.reg.Texture(registry.TextureSourceKey(name)); lerr == nil {
			return lit.Texture, nil
		}
	}
	if err != nil {
		return nil, err
	}
	return e.Texture, nil
}

func (a *Assets) FetchTextureByID(id registry.Identity) (*scene.Texture, error) {
	e, err := a.reg.TextureByID(id)
	if err != nil {
		return nil, err
	}
	return e.Texture, nil
}

// SourceTextures returns every source texture, sorted by name.
func (a *Assets) SourceTextures() []*scene.Texture {
	recs := a.reg.Textures()
	out := make([]*scene.Texture, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.Source.Texture)
	}
	return out
}

// TextureClones returns the clones of the named source texture by ordinal.
func (a *Assets) TextureClones(name string) ([]*scene.Texture, error) {
	rec, err := a.reg.TextureRecord(name)
	if err != nil {
		return nil, err
	}
	clones := rec.Clones()
	out := make([]*scene.Texture, 0, len(clones))
	for _, c := range clones {
		out = append(out, c.Texture)
	}
	return out, nil
}

func (a *Assets) CloneTexture(name string, count int) ([]*scene.Texture, error) {
	entries, err := a.reg.CloneTexture(name, count)
	out := make([]*scene.Texture, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Texture)
	}
	return out, err
}

func (a *Assets) FetchCubeMap(name string) (*scene.CubeTexture, error) {
	rec, err := a.reg.CubeMap(name)
	if err != nil {
		return nil, err
	}
	return rec.Cube, nil
}

func (a *Assets) FetchCubeMapByID(id registry.Identity) (*scene.CubeTexture, error) {
	rec, err := a.reg.CubeMapByID(id)
	if err != nil {
		return nil, err
	}
	return rec.Cube, nil
}

func (a *Assets) FetchHDRCubeMap(name string) (*scene.CubeTexture, error) {
	rec, err := a.reg.HDRCubeMap(name)
	if err != nil {
		return nil, err
	}
	return rec.Cube, nil
}

func (a *Assets) FetchHDRCubeMapByID(id registry.Identity) (*scene.CubeTexture, error) {
	rec, err := a.reg.HDRCubeMapByID(id)
	if err != nil {
		return nil, err
	}
	return rec.Cube, nil
}

// FetchHDRI returns the record so callers can choose between the filtered
// environment and the original background texture.
func (a *Assets) FetchHDRI(name string) (*registry.HDRIRecord, error) {
	return a.reg.HDRI(name)
}

func (a *Assets) FetchHDRIByID(id registry.Identity) (*registry.HDRIRecord, error) {
	return a.reg.HDRIByID(id)
}

func (a *Assets) FetchFont(name string) (*sfnt.Font, error) {
	rec, err := a.reg.Font(name)
	if err != nil {
		return nil, err
	}
	return rec.Font, nil
}

func (a *Assets) FetchFontByID(id registry.Identity) (*sfnt.Font, error) {
	rec, err := a.reg.FontByID(id)
	if err != nil {
		return nil, err
	}
	return rec.Font, nil
}

func (a *Assets) FetchAudio(name string) (*audio.Source, error) {
	rec, err := a.reg.Audio(name)
	if err != nil {
		return nil, err
	}
	return rec.Source, nil
}

func (a *Assets) FetchAudioByID(id registry.Identity) (*audio.Source, error) {
	rec, err := a.reg.AudioByID(id)
	if err != nil {
		return nil, err
	}
	return rec.Source, nil
}

// ApplyEnvironment points s at a registered HDRI: the filtered texture for
// lighting and the original for the background. s is tracked so a later
// disposal clears it.
func (a *Assets) ApplyEnvironment(s *scene.Scene, hdri string) error {
	rec, err := a.reg.HDRI(hdri)
	if err != nil {
		return err
	}
	s.Environment = rec.Environment
	s.Background = rec.Original
	a.reg.TrackScene(s)
	a.log.WithField("asset", hdri).Debug("environment applied")
	return nil
}

// ApplyCubeEnvironment does the same for a cube map or HDR cube map.
func (a *Assets) ApplyCubeEnvironment(s *scene.Scene, name string) error {
	rec, err := a.reg.HDRCubeMap(name)
	if errors.Is(err, registry.ErrNotFound) {
		rec, err = a.reg.CubeMap(name)
	}
	if err != nil {
		return err
	}
	s.EnvironmentCube = rec.Cube
	s.BackgroundCube = rec.Cube
	a.reg.TrackScene(s)
	a.log.WithField("asset", name).Debug("cube environment applied")
	return nil
}

// SetCameraForPositionalAudio moves the shared listener under camera and
// rebinds every positional audio source to it.
func (a *Assets) SetCameraForPositionalAudio(camera *scene.Node) int {
	return a.reg.AttachListener(camera)
}

// DisposeModel disposes a clone when name is a clone name, otherwise the
// source model and all its clones.
func (a *Assets) DisposeModel(name string) error {
	key := registry.ParseModelName(name)
	if key.IsClone() {
		if _, err := a.reg.Model(key); err == nil {
			return a.reg.DisposeClone(name)
		}
	}
	return a.reg.DisposeSourceModel(name)
}

// DisposeTexture disposes a texture clone or a source texture family.
func (a *Assets) DisposeTexture(name string) error {
	key := registry.ParseTextureName(name)
	if key.Clone {
		if _, err := a.reg.Texture(key); err == nil {
			return a.reg.DisposeCloneTexture(name)
		}
	}
	return a.reg.DisposeSourceTexture(name)
}

func (a *Assets) DisposeAllTextures() error { return a.reg.DisposeAllTextures() }

func (a *Assets) DisposeCubeMap(name string) error    { return a.reg.DisposeCubeMap(name) }
func (a *Assets) DisposeHDRCubeMap(name string) error { return a.reg.DisposeHDRCubeMap(name) }
func (a *Assets) DisposeFont(name string) error       { return a.reg.DisposeFont(name) }
func (a *Assets) DisposeAudio(name string) error      { return a.reg.DisposeAudio(name) }

// DisposeHDRI releases an HDRI and clears s when it shows it. s may be nil.
func (a *Assets) DisposeHDRI(name string, s *scene.Scene) error {
	return a.reg.DisposeHDRI(name, s)
}

// DisposeByScene disposes the models attached under root and then the
// textures they, or anything else under root, used.
func (a *Assets) DisposeByScene(root *scene.Node) error {
	if err := a.reg.DisposeModelsByScene(root); err != nil {
		return fmt.Errorf("dispose by scene: %w", err)
	}
	return nil
}

// DisposeTexturesByScene disposes only the textures used under root.
func (a *Assets) DisposeTexturesByScene(root *scene.Node) error {
	return a.reg.DisposeTexturesByScene(root)
}

// DisposeEverything releases every asset. s may be nil.
func (a *Assets) DisposeEverything(s *scene.Scene) error {
	err := a.reg.DisposeEverything(s)
	if s != nil {
		a.reg.UntrackScene(s)
	}
	return err
}
