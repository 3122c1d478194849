package loader

import (
	"bytes"
	"image/color"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"render-assets/scene"
)

func TestDecodeRGBEFlat(t *testing.T) {
	tex, err := decodeRGBE("studio", rgbeFlat(2, 1, [][4]byte{{128, 64, 0, 129}, {0, 0, 0, 0}}))
	require.NoError(t, err)
	assert.Equal(t, 2, tex.Width)
	assert.Equal(t, []float32{1, 0.5, 0, 1, 0, 0, 0, 1}, tex.Float)
	assert.Empty(t, tex.Pixels)
}

func TestDecodeRGBERunLength(t *testing.T) {
	var b bytes.Buffer
	b.WriteString("#?RADIANCE\nFORMAT=32-bit_rle_rgbe\n\n-Y 1 +X 8\n")
	b.Write([]byte{2, 2, 0, 8})
	// red, blue and exponent are runs, green is a literal
	b.Write([]byte{128 + 8, 128})
	b.Write([]byte{8, 0, 0, 0, 0, 64, 64, 64, 64})
	b.Write([]byte{128 + 8, 0})
	b.Write([]byte{128 + 8, 129})

	tex, err := decodeRGBE("rle", b.Bytes())
	require.NoError(t, err)
	require.Len(t, tex.Float, 32)
	assert.Equal(t, []float32{1, 0, 0, 1}, tex.Float[:4])
	assert.Equal(t, []float32{1, 0.5, 0, 1}, tex.Float[28:])
}

func TestDecodeRGBERejectsGarbage(t *testing.T) {
	for name, data := range map[string]string{
		"magic":      "P6\n",
		"format":     "#?RADIANCE\nFORMAT=32-bit_rle_xyze\n\n-Y 1 +X 1\n",
		"resolution": "#?RADIANCE\n\n+Y 1 -X 1\n",
		"truncated":  "#?RADIANCE\n\n-Y 2 +X 2\n\x80\x80\x80\x81",
	} {
		_, err := decodeRGBE(name, []byte(data))
		assert.ErrorIs(t, err, ErrDecode, name)
	}
}

func TestFetchInflatesLZ4(t *testing.T) {
	raw := pngBytes(t, 3, 2, color.RGBA{R: 9, A: 255})
	packed, err := Compress(raw)
	require.NoError(t, err)
	fsys := fstest.MapFS{"t/a.PNG.lz4": {Data: packed}, "t/b.png": {Data: raw}}

	data, ext, err := fetch(fsys, "t/a.PNG.lz4")
	require.NoError(t, err)
	assert.Equal(t, ".png", ext)
	assert.Equal(t, raw, data)

	_, ext, err = fetch(fsys, "t/b.png")
	require.NoError(t, err)
	assert.Equal(t, ".png", ext)

	_, _, err = fetch(fstest.MapFS{"x.lz4": {Data: []byte("not a frame")}}, "x.lz4")
	assert.ErrorIs(t, err, ErrDecode)
}

func TestSniffRejectsWrongClass(t *testing.T) {
	img := pngBytes(t, 1, 1, color.RGBA{A: 255})
	assert.NoError(t, sniff("a", img, classImage))
	assert.ErrorIs(t, sniff("a", img, classAudio), ErrDecode)
	assert.ErrorIs(t, sniff("a", wavBytes(4), classFont), ErrDecode)
	assert.NoError(t, sniff("a", []byte("plain text"), classFont))
}

func TestDecodeImageConvertsToRGBA(t *testing.T) {
	tex, err := decodeImage("wood", pngBytes(t, 2, 3, color.RGBA{R: 10, G: 20, B: 30, A: 255}))
	require.NoError(t, err)
	assert.Equal(t, 2, tex.Width)
	assert.Equal(t, 3, tex.Height)
	assert.Len(t, tex.Pixels, 2*3*4)
	assert.Equal(t, []byte{10, 20, 30, 255}, tex.Pixels[:4])

	_, err = decodeImage("junk", []byte("nope"))
	assert.ErrorIs(t, err, ErrDecode)
}

func TestDecodeAudio(t *testing.T) {
	buf, err := decodeAudio("step", ".wav", wavBytes(10))
	require.NoError(t, err)
	assert.Equal(t, 10, buf.Len())
	assert.Equal(t, 1, buf.Format().NumChannels)

	_, err = decodeAudio("step", ".ogg", wavBytes(10))
	assert.ErrorIs(t, err, ErrDecode)
}

func TestNewAudioSourceDefaults(t *testing.T) {
	buf, err := decodeAudio("step", ".wav", wavBytes(4))
	require.NoError(t, err)
	src := newAudioSource(AudioEntry{Name: "step"}, buf)
	assert.Equal(t, 1.0, src.Volume())
	assert.False(t, src.Loop())
	assert.False(t, src.Positional)
}

func TestDecodeOBJNegativeIndicesAndNormals(t *testing.T) {
	const tri = `o a
v 0 0 0
v 1 0 0
v 0 1 0
f -3 -2 -1
o b
v 0 0 1
v 1 0 1
v 0 1 1
f 4 5 6
`
	root, err := decodeOBJ(fstest.MapFS{}, ".", "pair", []byte(tri))
	require.NoError(t, err)
	require.Len(t, root.Children, 2)
	a := root.Children[0]
	assert.Equal(t, "a", a.Name)
	require.NotNil(t, a.Mesh)
	require.Len(t, a.Mesh.Geometry.Vertices, 3)
	assert.InDelta(t, 1.0, a.Mesh.Geometry.Vertices[0].Normal.Z(), 1e-6)
	assert.Equal(t, "b", root.Children[1].Name)
}

func TestDecodeOBJMissingMaterialLibrary(t *testing.T) {
	_, err := decodeOBJ(fstest.MapFS{}, "models", "crate", []byte(crateOBJ))
	assert.ErrorIs(t, err, ErrDecode)
}

func TestDecodeOBJWithoutFaces(t *testing.T) {
	_, err := decodeOBJ(fstest.MapFS{}, ".", "empty", []byte("v 0 0 0\n"))
	assert.ErrorIs(t, err, ErrDecode)
}

func TestCopyFilterKeepsSource(t *testing.T) {
	src := scene.NewFloatTexture("sky", 1, 1, []float32{2, 2, 2, 1})
	env, err := CopyFilter{}.FilterEquirect(src)
	require.NoError(t, err)
	assert.Equal(t, "skyEnv", env.Name)
	assert.NotEqual(t, src.UUID, env.UUID)
	assert.Equal(t, src.Float, env.Float)
}

func TestBoxFilterWrapsEquirectSeam(t *testing.T) {
	texels := []float32{
		3, 0, 0, 1,
		0, 0, 0, 1,
		0, 0, 0, 1,
	}
	src := scene.NewFloatTexture("sky", 3, 1, texels)
	env, err := BoxFilter{Radius: 1}.FilterEquirect(src)
	require.NoError(t, err)
	// every pixel sees all three columns once the seam wraps
	for x := 0; x < 3; x++ {
		assert.InDelta(t, 1.0, env.Float[x*4], 1e-6)
	}
	assert.Equal(t, float32(3), src.Float[0])

	ldr := scene.NewTexture("ldr", 1, 1, []byte{1, 2, 3, 4})
	out, err := BoxFilter{Radius: 2}.FilterEquirect(ldr)
	require.NoError(t, err)
	assert.Equal(t, ldr.Pixels, out.Pixels)
}

func TestBoxFilterCubeClampsEdges(t *testing.T) {
	var faces [6]*scene.Texture
	for i := range faces {
		faces[i] = scene.NewFloatTexture(scene.CubeFace(i).String(), 3, 1, []float32{
			3, 0, 0, 1,
			0, 0, 0, 1,
			0, 0, 0, 1,
		})
	}
	out, err := BoxFilter{Radius: 1}.FilterCube(scene.NewCubeTexture("env", faces))
	require.NoError(t, err)
	assert.Equal(t, "envEnv", out.Name)
	f := out.Faces[scene.FacePosX].Float
	assert.InDelta(t, 1.5, f[0], 1e-6)
	assert.InDelta(t, 1.0, f[4], 1e-6)
	assert.InDelta(t, 0.0, f[8], 1e-6)
}
