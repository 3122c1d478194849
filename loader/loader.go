// Package loader decodes the assets a manifest declares and registers them.
package loader

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"runtime"

	"github.com/faiface/beep"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/sync/errgroup"

	"render-assets/animation"
	"render-assets/registry"
	"render-assets/scene"
)

// Progress reports how many manifest entries have been registered.
type Progress struct {
	Loaded int
	Total  int
	Name   string
}

// Loader reads assets from a file system, decodes them concurrently and
// registers the results on the goroutine that called Load.
type Loader struct {
	fsys        fs.FS
	reg         *registry.Registry
	log         logrus.FieldLogger
	concurrency int
	filter      EnvironmentFilter
	onProgress  func(Progress)
}

type Option func(*Loader)

func WithLogger(log logrus.FieldLogger) Option {
	return func(l *Loader) {
		if log != nil {
			l.log = log
		}
	}
}

// WithConcurrency bounds the number of payloads decoded at once.
func WithConcurrency(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

func WithEnvironmentFilter(f EnvironmentFilter) Option {
	return func(l *Loader) {
		if f != nil {
			l.filter = f
		}
	}
}

// OnProgress installs a callback invoked after each entry is registered.
func OnProgress(fn func(Progress)) Option {
	return func(l *Loader) { l.onProgress = fn }
}

func New(reg *registry.Registry, fsys fs.FS, opts ...Option) *Loader {
	l := &Loader{
		fsys:        fsys,
		reg:         reg,
		log:         reg.Logger(),
		concurrency: runtime.NumCPU(),
		filter:      CopyFilter{},
	}
	for _, o := range opts {
		o(l)
	}
	l.log = l.log.WithField("component", "loader")
	return l
}

// decoded holds the payload of one manifest entry; exactly one group of
// fields is set.
type decoded struct {
	name     string
	register func(*Loader, *decoded) error

	model   *gltfModel
	texture *scene.Texture
	cube    *scene.CubeTexture
	env     *scene.Texture
	font    *sfnt.Font
	buffer  *beep.Buffer
}

type job struct {
	name   string
	decode func(*Loader) (*decoded, error)
}

// Load decodes every entry of m and registers the results in manifest
// order: models, textures, cube maps, HDR cube maps, HDR textures, fonts,
// audio. Clone requests run after all sources are registered. Nothing is
// registered when any decode fails.
func (l *Loader) Load(ctx context.Context, m *Manifest) error {
	if err := m.Validate(); err != nil {
		return err
	}
	jobs := l.jobs(m)
	results := make([]*decoded, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			d, err := j.decode(l)
			if err != nil {
				return fmt.Errorf("%s: %w", j.name, err)
			}
			d.name = j.name
			results[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		l.log.WithError(err).Error("asset decoding failed")
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for i, d := range results {
		if err := d.register(l, d); err != nil {
			return fmt.Errorf("register %s: %w", d.name, err)
		}
		if l.onProgress != nil {
			l.onProgress(Progress{Loaded: i + 1, Total: len(results), Name: d.name})
		}
	}
	if err := l.applyCloneRequests(m); err != nil {
		return err
	}
	l.log.WithField("assets", len(results)).Info("manifest loaded")
	return nil
}

func (l *Loader) jobs(m *Manifest) []job {
	var jobs []job
	for _, e := range m.Models {
		jobs = append(jobs, job{name: e.Name, decode: func(l *Loader) (*decoded, error) { return l.decodeModel(e) }})
	}
	for _, e := range m.Textures {
		jobs = append(jobs, job{name: e.Name, decode: func(l *Loader) (*decoded, error) { return l.decodeTexture(e) }})
	}
	for _, e := range m.CubeTextures {
		jobs = append(jobs, job{name: e.Name, decode: func(l *Loader) (*decoded, error) { return l.decodeCube(e) }})
	}
	for _, e := range m.HDRCubeTextures {
		jobs = append(jobs, job{name: e.Name, decode: func(l *Loader) (*decoded, error) { return l.decodeHDRCube(e) }})
	}
	for _, e := range m.HDRTextures {
		jobs = append(jobs, job{name: e.Name, decode: func(l *Loader) (*decoded, error) { return l.decodeHDRI(e) }})
	}
	for _, e := range m.Fonts {
		jobs = append(jobs, job{name: e.Name, decode: func(l *Loader) (*decoded, error) { return l.decodeFont(e) }})
	}
	for _, e := range m.Audios {
		jobs = append(jobs, job{name: e.Name, decode: func(l *Loader) (*decoded, error) { return l.decodeAudio(e) }})
	}
	return jobs
}

func (l *Loader) decodeModel(e ModelEntry) (*decoded, error) {
	data, ext, err := fetch(l.fsys, e.Path)
	if err != nil {
		return nil, err
	}
	dir := path.Dir(e.Path)
	var model *gltfModel
	switch ext {
	case ".glb", ".gltf":
		model, err = decodeGLTF(l.log, l.fsys, dir, e.Name, data)
	case ".obj":
		var root *scene.Node
		root, err = decodeOBJ(l.fsys, dir, e.Name, data)
		model = &gltfModel{Root: root}
	default:
		err = fmt.Errorf("%w: model %s: unsupported extension %q", ErrDecode, e.Name, ext)
	}
	if err != nil {
		return nil, err
	}
	model.Root.Name = e.Name
	if e.Scale != nil {
		model.Root.SetScale(mgl32.Vec3{e.Scale.X, e.Scale.Y, e.Scale.Z})
	}
	if e.Position != nil {
		model.Root.SetPosition(mgl32.Vec3{e.Position.X, e.Position.Y, e.Position.Z})
	}
	return &decoded{model: model, register: (*Loader).registerModel}, nil
}

func (l *Loader) registerModel(d *decoded) error {
	_, err := l.reg.SetModel(registry.ModelData{Name: d.name, Node: d.model.Root, Clips: d.model.Clips})
	return err
}

func (l *Loader) decodeTexture(e TextureEntry) (*decoded, error) {
	tex, err := l.readImage(e.Name, e.Path)
	if err != nil {
		return nil, err
	}
	return &decoded{texture: tex, register: (*Loader).registerTexture}, nil
}

func (l *Loader) registerTexture(d *decoded) error {
	_, err := l.reg.SetTexture(d.name, d.texture)
	return err
}

// readImage decodes an LDR image or, for .hdr files, a Radiance image.
func (l *Loader) readImage(name, p string) (*scene.Texture, error) {
	data, ext, err := fetch(l.fsys, p)
	if err != nil {
		return nil, err
	}
	if ext == ".hdr" {
		return decodeRGBE(name, data)
	}
	return decodeImage(name, data)
}

func (l *Loader) readFaces(name string, paths []string) (*scene.CubeTexture, error) {
	var faces [6]*scene.Texture
	for i, p := range paths {
		f, err := l.readImage(fmt.Sprintf("%s_%s", name, scene.CubeFace(i)), p)
		if err != nil {
			return nil, err
		}
		faces[i] = f
	}
	return scene.NewCubeTexture(name, faces), nil
}

func (l *Loader) decodeCube(e CubeEntry) (*decoded, error) {
	cube, err := l.readFaces(e.Name, e.Paths)
	if err != nil {
		return nil, err
	}
	return &decoded{cube: cube, register: (*Loader).registerCube}, nil
}

func (l *Loader) registerCube(d *decoded) error {
	_, err := l.reg.SetCubeMap(d.name, d.cube)
	return err
}

func (l *Loader) decodeHDRCube(e HDRCubeEntry) (*decoded, error) {
	cube, err := l.readFaces(e.Name, e.Paths)
	if err != nil {
		return nil, err
	}
	if e.PMREM {
		if cube, err = l.filter.FilterCube(cube); err != nil {
			return nil, fmt.Errorf("%w: filter %s: %w", ErrDecode, e.Name, err)
		}
		cube.Name = e.Name
	}
	return &decoded{cube: cube, register: (*Loader).registerHDRCube}, nil
}

func (l *Loader) registerHDRCube(d *decoded) error {
	_, err := l.reg.SetHDRCubeMap(d.name, d.cube)
	return err
}

func (l *Loader) decodeHDRI(e HDREntry) (*decoded, error) {
	orig, err := l.readImage(e.Name, e.Path)
	if err != nil {
		return nil, err
	}
	mapping, _ := ParseMapping(e.Mapping)
	orig.Mapping = mapping
	env, err := l.filter.FilterEquirect(orig)
	if err != nil {
		return nil, fmt.Errorf("%w: filter %s: %w", ErrDecode, e.Name, err)
	}
	return &decoded{texture: orig, env: env, register: (*Loader).registerHDRI}, nil
}

func (l *Loader) registerHDRI(d *decoded) error {
	_, err := l.reg.SetHDRI(d.name, d.env, d.texture)
	return err
}

func (l *Loader) decodeFont(e FontEntry) (*decoded, error) {
	data, _, err := fetch(l.fsys, e.Path)
	if err != nil {
		return nil, err
	}
	f, err := decodeFont(e.Name, data)
	if err != nil {
		return nil, err
	}
	return &decoded{font: f, register: (*Loader).registerFont}, nil
}

func (l *Loader) registerFont(d *decoded) error {
	_, err := l.reg.SetFont(d.name, d.font)
	return err
}

func (l *Loader) decodeAudio(e AudioEntry) (*decoded, error) {
	data, ext, err := fetch(l.fsys, e.Path)
	if err != nil {
		return nil, err
	}
	buf, err := decodeAudio(e.Name, ext, data)
	if err != nil {
		return nil, err
	}
	return &decoded{buffer: buf, register: func(l *Loader, d *decoded) error {
		_, err := l.reg.SetAudio(d.name, newAudioSource(e, d.buffer))
		return err
	}}, nil
}

func (l *Loader) applyCloneRequests(m *Manifest) error {
	for _, e := range m.Models {
		if e.CloneRequest == nil || !e.CloneRequest.Enabled {
			continue
		}
		req, err := e.CloneRequest.Request()
		if err != nil {
			return err
		}
		if _, err := l.reg.CloneModel(e.Name, req); err != nil {
			return fmt.Errorf("clone %s: %w", e.Name, err)
		}
	}
	for _, e := range m.Textures {
		if e.CloneRequest == nil || !e.CloneRequest.Enabled {
			continue
		}
		if _, err := l.reg.CloneTexture(e.Name, e.CloneRequest.Count); err != nil {
			return fmt.Errorf("clone %s: %w", e.Name, err)
		}
	}
	return nil
}

// DecodeModel decodes a glTF or OBJ file outside a manifest without
// registering it.
func (l *Loader) DecodeModel(name, p string) (*scene.Node, []*animation.Clip, error) {
	d, err := l.decodeModel(ModelEntry{Name: name, Path: p})
	if err != nil {
		return nil, nil, err
	}
	return d.model.Root, d.model.Clips, nil
}
