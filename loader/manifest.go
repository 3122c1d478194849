package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"render-assets/registry"
	"render-assets/scene"
)

// SupportedVersions is the manifest version range this loader reads.
const SupportedVersions = "^1"

// ErrManifest marks a manifest that cannot be parsed or fails validation.
var ErrManifest = errors.New("loader: invalid manifest")

type Vec3 struct {
	X float32 `yaml:"x"`
	Y float32 `yaml:"y"`
	Z float32 `yaml:"z"`
}

// ModelCloneRequest asks for clones of a model right after it is
// registered. DeepClone and CloneGeometry apply to SkeletonClone only.
type ModelCloneRequest struct {
	Enabled       bool   `yaml:"enabled"`
	Method        string `yaml:"method"`
	Count         int    `yaml:"count"`
	DeepClone     bool   `yaml:"deepClone,omitempty"`
	CloneGeometry bool   `yaml:"cloneGeometry,omitempty"`
}

// Request converts the manifest form into a registry request.
func (c ModelCloneRequest) Request() (registry.CloneRequest, error) {
	kind, ok := registry.ParseCloneKind(c.Method)
	if !ok || kind == registry.Source {
		return registry.CloneRequest{}, fmt.Errorf("%w: unknown clone method %q", ErrManifest, c.Method)
	}
	req := registry.CloneRequest{Kind: kind, Count: c.Count, DeepClone: c.DeepClone, CloneGeometry: c.CloneGeometry}
	if err := req.Validate(); err != nil {
		return registry.CloneRequest{}, fmt.Errorf("%w: %w", ErrManifest, err)
	}
	return req, nil
}

type TextureCloneRequest struct {
	Enabled bool `yaml:"enabled"`
	Count   int  `yaml:"count"`
}

type ModelEntry struct {
	Name         string             `yaml:"name"`
	Path         string             `yaml:"path"`
	Scale        *Vec3              `yaml:"scale,omitempty"`
	Position     *Vec3              `yaml:"position,omitempty"`
	CloneRequest *ModelCloneRequest `yaml:"cloneRequest,omitempty"`
}

type TextureEntry struct {
	Name         string               `yaml:"name"`
	Path         string               `yaml:"path"`
	CloneRequest *TextureCloneRequest `yaml:"cloneRequest,omitempty"`
}

// CubeEntry lists six faces in the order +X, -X, +Y, -Y, +Z, -Z.
type CubeEntry struct {
	Name  string   `yaml:"name"`
	Paths []string `yaml:"paths"`
}

type HDRCubeEntry struct {
	Name  string   `yaml:"name"`
	Paths []string `yaml:"paths"`
	PMREM bool     `yaml:"pmrem"`
}

type HDREntry struct {
	Name    string `yaml:"name"`
	Path    string `yaml:"path"`
	Mapping string `yaml:"mapping,omitempty"`
}

type FontEntry struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

type AudioEntry struct {
	Name       string   `yaml:"name"`
	Path       string   `yaml:"path"`
	Positional bool     `yaml:"positional"`
	Loop       bool     `yaml:"loop"`
	Volume     *float64 `yaml:"volume,omitempty"`
}

// Manifest declares every asset a Loader should fetch.
type Manifest struct {
	Version         string         `yaml:"version"`
	Models          []ModelEntry   `yaml:"models,omitempty"`
	Textures        []TextureEntry `yaml:"textures,omitempty"`
	CubeTextures    []CubeEntry    `yaml:"cubeTextures,omitempty"`
	HDRCubeTextures []HDRCubeEntry `yaml:"hdrCubeTextures,omitempty"`
	HDRTextures     []HDREntry     `yaml:"hdrTextures,omitempty"`
	Fonts           []FontEntry    `yaml:"fonts,omitempty"`
	Audios          []AudioEntry   `yaml:"audios,omitempty"`
}

// ParseManifest decodes and validates a YAML manifest.
func ParseManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifest, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// ReadManifest parses the manifest at path inside fsys.
func ReadManifest(fsys fs.FS, path string) (*Manifest, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return ParseManifest(bytes.NewReader(data))
}

// Len is the number of assets the manifest declares.
func (m *Manifest) Len() int {
	return len(m.Models) + len(m.Textures) + len(m.CubeTextures) +
		len(m.HDRCubeTextures) + len(m.HDRTextures) + len(m.Fonts) + len(m.Audios)
}

// Validate checks the version range, names and paths. Names must be unique
// across categories because the registry keys every asset by name.
func (m *Manifest) Validate() error {
	v, err := semver.NewVersion(m.Version)
	if err != nil {
		return fmt.Errorf("%w: version %q: %w", ErrManifest, m.Version, err)
	}
	c, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		return err
	}
	if !c.Check(v) {
		return fmt.Errorf("%w: version %s does not satisfy %s", ErrManifest, v, SupportedVersions)
	}

	seen := make(map[string]string)
	var errs []error
	name := func(category, n string) {
		switch {
		case n == "":
			errs = append(errs, fmt.Errorf("%w: %s entry without a name", ErrManifest, category))
		case seen[n] != "":
			errs = append(errs, fmt.Errorf("%w: %q declared as %s and %s", ErrManifest, n, seen[n], category))
		default:
			seen[n] = category
		}
	}
	path := func(n, p string) {
		if p == "" {
			errs = append(errs, fmt.Errorf("%w: %q has no path", ErrManifest, n))
		}
	}
	faces := func(n string, paths []string) {
		if len(paths) != 6 {
			errs = append(errs, fmt.Errorf("%w: %q needs 6 face paths, got %d", ErrManifest, n, len(paths)))
			return
		}
		for _, p := range paths {
			path(n, p)
		}
	}

	for _, e := range m.Models {
		name("model", e.Name)
		path(e.Name, e.Path)
		if e.CloneRequest != nil && e.CloneRequest.Enabled {
			if _, err := e.CloneRequest.Request(); err != nil {
				errs = append(errs, fmt.Errorf("model %q: %w", e.Name, err))
			}
		}
		if registry.LooksLikeClone(e.Name) {
			errs = append(errs, fmt.Errorf("%w: model name %q ends like a clone name", ErrManifest, e.Name))
		}
	}
	for _, e := range m.Textures {
		name("texture", e.Name)
		path(e.Name, e.Path)
		if e.CloneRequest != nil && e.CloneRequest.Count < 0 {
			errs = append(errs, fmt.Errorf("%w: texture %q clone count %d", ErrManifest, e.Name, e.CloneRequest.Count))
		}
	}
	for _, e := range m.CubeTextures {
		name("cube texture", e.Name)
		faces(e.Name, e.Paths)
	}
	for _, e := range m.HDRCubeTextures {
		name("hdr cube texture", e.Name)
		faces(e.Name, e.Paths)
	}
	for _, e := range m.HDRTextures {
		name("hdr texture", e.Name)
		path(e.Name, e.Path)
		if _, ok := ParseMapping(e.Mapping); !ok {
			errs = append(errs, fmt.Errorf("%w: hdr texture %q mapping %q", ErrManifest, e.Name, e.Mapping))
		}
	}
	for _, e := range m.Fonts {
		name("font", e.Name)
		path(e.Name, e.Path)
	}
	for _, e := range m.Audios {
		name("audio", e.Name)
		path(e.Name, e.Path)
		if e.Volume != nil && *e.Volume < 0 {
			errs = append(errs, fmt.Errorf("%w: audio %q volume %g", ErrManifest, e.Name, *e.Volume))
		}
	}
	return errors.Join(errs...)
}

// ParseMapping reads a mapping name. The empty string selects
// equirectangular reflection.
func ParseMapping(s string) (scene.Mapping, bool) {
	switch strings.ToLower(strings.TrimSuffix(s, "Mapping")) {
	case "", "equirectangularreflection":
		return scene.EquirectangularReflectionMapping, true
	case "equirectangularrefraction":
		return scene.EquirectangularRefractionMapping, true
	case "uv":
		return scene.UVMapping, true
	case "cubereflection":
		return scene.CubeReflectionMapping, true
	case "cuberefraction":
		return scene.CubeRefractionMapping, true
	}
	return 0, false
}

// Template is a commented starter manifest.
const Template = `# Asset manifest. Paths are relative to the asset root.
version: 1.0.0

models:
  - name: robot
    path: models/robot.glb
    scale: {x: 1, y: 1, z: 1}
    position: {x: 0, y: 0, z: 0}
    cloneRequest:
      enabled: false
      method: SkeletonClone   # DeepClone | ShallowClone | SkeletonClone
      count: 2
      deepClone: false        # SkeletonClone only
      cloneGeometry: false    # SkeletonClone only

textures:
  - name: ground
    path: textures/ground.png
    cloneRequest:
      enabled: false
      count: 1

cubeTextures:
  - name: sky
    paths: [sky/px.png, sky/nx.png, sky/py.png, sky/ny.png, sky/pz.png, sky/nz.png]

hdrCubeTextures: []

hdrTextures:
  - name: studio
    path: hdr/studio.hdr
    mapping: EquirectangularReflectionMapping

fonts:
  - name: body
    path: fonts/body.ttf

audios:
  - name: ambience
    path: audio/ambience.wav
    positional: false
    loop: true
    volume: 0.5
`
