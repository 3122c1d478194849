package loader

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"render-assets/registry"
	"render-assets/scene"
)

func TestTemplateParses(t *testing.T) {
	m, err := ParseManifest(strings.NewReader(Template))
	require.NoError(t, err)
	assert.Equal(t, "robot", m.Models[0].Name)
	assert.Equal(t, m.Len(), len(m.Models)+len(m.Textures)+len(m.CubeTextures)+len(m.HDRTextures)+len(m.Fonts)+len(m.Audios))
}

func TestReadManifest(t *testing.T) {
	fsys := fstest.MapFS{"assets.yaml": {Data: []byte(Template)}}
	m, err := ReadManifest(fsys, "assets.yaml")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", m.Version)

	_, err = ReadManifest(fsys, "missing.yaml")
	assert.Error(t, err)
}

func TestParseManifestRejectsUnknownFields(t *testing.T) {
	_, err := ParseManifest(strings.NewReader("version: 1.0.0\nmodels:\n  - name: a\n    path: a.obj\n    colour: red\n"))
	assert.ErrorIs(t, err, ErrManifest)
}

func TestValidate(t *testing.T) {
	vol := -1.0
	tests := []struct {
		name string
		m    Manifest
		want string
	}{
		{"bad version", Manifest{Version: "one"}, "version"},
		{"unsupported version", Manifest{Version: "2.0.0"}, "does not satisfy"},
		{"missing name", Manifest{Version: "1.0.0", Fonts: []FontEntry{{Path: "a.ttf"}}}, "without a name"},
		{"missing path", Manifest{Version: "1.0.0", Fonts: []FontEntry{{Name: "a"}}}, "has no path"},
		{
			"duplicate across categories",
			Manifest{
				Version:  "1.0.0",
				Models:   []ModelEntry{{Name: "rock", Path: "rock.obj"}},
				Textures: []TextureEntry{{Name: "rock", Path: "rock.png"}},
			},
			"declared as model and texture",
		},
		{"five faces", Manifest{Version: "1.0.0", CubeTextures: []CubeEntry{{Name: "sky", Paths: skyFaces()[:5]}}}, "6 face paths"},
		{
			"unknown clone method",
			Manifest{Version: "1.0.0", Models: []ModelEntry{{Name: "a", Path: "a.obj", CloneRequest: &ModelCloneRequest{Enabled: true, Method: "Mirror", Count: 1}}}},
			"unknown clone method",
		},
		{
			"skeleton options on shallow clone",
			Manifest{Version: "1.0.0", Models: []ModelEntry{{Name: "a", Path: "a.obj", CloneRequest: &ModelCloneRequest{Enabled: true, Method: "ShallowClone", Count: 1, DeepClone: true}}}},
			"only apply to",
		},
		{"clone-like model name", Manifest{Version: "1.0.0", Models: []ModelEntry{{Name: "carDeepClone0", Path: "a.obj"}}}, "ends like a clone name"},
		{"negative texture clones", Manifest{Version: "1.0.0", Textures: []TextureEntry{{Name: "t", Path: "t.png", CloneRequest: &TextureCloneRequest{Enabled: true, Count: -1}}}}, "clone count"},
		{"bad mapping", Manifest{Version: "1.0.0", HDRTextures: []HDREntry{{Name: "h", Path: "h.hdr", Mapping: "spherical"}}}, "mapping"},
		{"negative volume", Manifest{Version: "1.0.0", Audios: []AudioEntry{{Name: "a", Path: "a.wav", Volume: &vol}}}, "volume"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	m := Manifest{Version: "1.1.0", Fonts: []FontEntry{{Name: "a"}, {Name: "a", Path: "b.ttf"}}}
	err := m.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrManifest)
	assert.Contains(t, err.Error(), "has no path")
	assert.Contains(t, err.Error(), "declared as font and font")
}

func TestDisabledCloneRequestIsIgnored(t *testing.T) {
	m := Manifest{Version: "1.0.0", Models: []ModelEntry{{Name: "a", Path: "a.obj", CloneRequest: &ModelCloneRequest{Method: "Mirror"}}}}
	assert.NoError(t, m.Validate())
}

func TestCloneRequestMethods(t *testing.T) {
	for method, kind := range map[string]registry.CloneKind{
		"DeepClone":     registry.DeepClone,
		"shallowclone":  registry.ShallowClone,
		"Skeleton":      registry.SkeletonClone,
		"SKELETONCLONE": registry.SkeletonClone,
	} {
		req, err := ModelCloneRequest{Method: method, Count: 1}.Request()
		require.NoError(t, err, method)
		assert.Equal(t, kind, req.Kind, method)
	}
	_, err := ModelCloneRequest{Method: "Source"}.Request()
	assert.ErrorIs(t, err, ErrManifest)
	_, err = ModelCloneRequest{Method: "DeepClone", Count: -2}.Request()
	assert.ErrorIs(t, err, registry.ErrInvalidArgument)
}

func TestParseMapping(t *testing.T) {
	for in, want := range map[string]scene.Mapping{
		"":                                 scene.EquirectangularReflectionMapping,
		"EquirectangularRefractionMapping": scene.EquirectangularRefractionMapping,
		"uv":                               scene.UVMapping,
		"CubeReflection":                   scene.CubeReflectionMapping,
	} {
		got, ok := ParseMapping(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseMapping("spherical")
	assert.False(t, ok)
}
