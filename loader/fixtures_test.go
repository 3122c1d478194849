package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"
	"testing/fstest"

	"github.com/go-fonts/latin-modern/lmroman10regular"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"render-assets/registry"
)

func pngBytes(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var b bytes.Buffer
	if err := png.Encode(&b, img); err != nil {
		t.Fatal(err)
	}
	return b.Bytes()
}

// wavBytes builds a mono 16-bit PCM file.
func wavBytes(samples int) []byte {
	le := binary.LittleEndian
	var b bytes.Buffer
	dataLen := uint32(samples * 2)
	b.WriteString("RIFF")
	binary.Write(&b, le, 36+dataLen)
	b.WriteString("WAVEfmt ")
	binary.Write(&b, le, uint32(16))
	binary.Write(&b, le, uint16(1))
	binary.Write(&b, le, uint16(1))
	binary.Write(&b, le, uint32(44100))
	binary.Write(&b, le, uint32(44100*2))
	binary.Write(&b, le, uint16(2))
	binary.Write(&b, le, uint16(16))
	b.WriteString("data")
	binary.Write(&b, le, dataLen)
	for i := 0; i < samples; i++ {
		binary.Write(&b, le, int16(i*100))
	}
	return b.Bytes()
}

// rgbeFlat builds an uncompressed Radiance image from RGBE quadruples.
func rgbeFlat(w, h int, pixels [][4]byte) []byte {
	var b bytes.Buffer
	b.WriteString("#?RADIANCE\nFORMAT=32-bit_rle_rgbe\n\n")
	b.WriteString("-Y " + itoa(h) + " +X " + itoa(w) + "\n")
	for _, p := range pixels {
		b.Write(p[:])
	}
	return b.Bytes()
}

func itoa(n int) string {
	out, _ := json.Marshal(n)
	return string(out)
}

func f32s(vs ...float32) []byte {
	b := make([]byte, 0, len(vs)*4)
	for _, v := range vs {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
	}
	return b
}

// walkerGLTF is a glTF document with one triangle under "body" and a clip
// moving "hip" from y=0 to y=1 over one second.
func walkerGLTF(t *testing.T) []byte {
	t.Helper()
	var buf []byte
	// positions 0..36, indices 36..42
	buf = append(buf, f32s(0, 0, 0, 1, 0, 0, 0, 1, 0)...)
	for _, i := range []uint16{0, 1, 2} {
		buf = binary.LittleEndian.AppendUint16(buf, i)
	}
	buf = append(buf, 0, 0)                      // pad to 44
	buf = append(buf, f32s(0, 1)...)             // 44..52 times
	buf = append(buf, f32s(0, 0, 0, 0, 1, 0)...) // 52..76 translations

	doc := map[string]any{
		"asset":  map[string]any{"version": "2.0"},
		"scene":  0,
		"scenes": []any{map[string]any{"nodes": []int{0}}},
		"nodes": []any{
			map[string]any{"name": "walker", "children": []int{1, 2}},
			map[string]any{"name": "hip"},
			map[string]any{"name": "body", "mesh": 0},
		},
		"meshes": []any{map[string]any{
			"name":       "tri",
			"primitives": []any{map[string]any{
				"attributes": map[string]int{"POSITION": 0},
				"indices":    1,
				"material":   0,
			}},
		}},
		"materials": []any{map[string]any{
			"name":                 "red",
			"pbrMetallicRoughness": map[string]any{
				"baseColorFactor": []float64{1, 0, 0, 1},
				"metallicFactor":  0.5,
				"roughnessFactor": 0.25,
			},
		}},
		"animations": []any{map[string]any{
			"name":     "walk",
			"channels": []any{map[string]any{"sampler": 0, "target": map[string]any{"node": 1, "path": "translation"}}},
			"samplers": []any{map[string]any{"input": 2, "output": 3, "interpolation": "LINEAR"}},
		}},
		"accessors": []any{
			map[string]any{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3", "min": []float64{0, 0, 0}, "max": []float64{1, 1, 0}},
			map[string]any{"bufferView": 1, "componentType": 5123, "count": 3, "type": "SCALAR"},
			map[string]any{"bufferView": 2, "componentType": 5126, "count": 2, "type": "SCALAR", "min": []float64{0}, "max": []float64{1}},
			map[string]any{"bufferView": 3, "componentType": 5126, "count": 2, "type": "VEC3"},
		},
		"bufferViews": []any{
			map[string]any{"buffer": 0, "byteOffset": 0, "byteLength": 36},
			map[string]any{"buffer": 0, "byteOffset": 36, "byteLength": 6},
			map[string]any{"buffer": 0, "byteOffset": 44, "byteLength": 8},
			map[string]any{"buffer": 0, "byteOffset": 52, "byteLength": 24},
		},
		"buffers": []any{map[string]any{
			"byteLength": len(buf),
			"uri":        "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(buf),
		}},
	}
	out, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

const crateOBJ = `mtllib crate.mtl
o crate
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
usemtl wood
f 1/1 2/2 3/3 4/4
`

const crateMTL = `newmtl wood
Kd 0.8 0.6 0.4
Ns 32
map_Kd wood.png
`

// assetFS holds one file of every supported kind.
func assetFS(t *testing.T) fstest.MapFS {
	t.Helper()
	ground, err := Compress(pngBytes(t, 4, 4, color.RGBA{G: 200, A: 255}))
	if err != nil {
		t.Fatal(err)
	}
	fsys := fstest.MapFS{
		"models/crate.obj":        {Data: []byte(crateOBJ)},
		"models/crate.mtl":        {Data: []byte(crateMTL)},
		"models/wood.png":         {Data: pngBytes(t, 2, 2, color.RGBA{R: 150, G: 100, B: 50, A: 255})},
		"models/walker.gltf":      {Data: walkerGLTF(t)},
		"textures/ground.png.lz4": {Data: ground},
		"hdr/studio.hdr":          {Data: rgbeFlat(2, 1, [][4]byte{{128, 128, 128, 129}, {0, 0, 0, 0}})},
		"fonts/serif.ttf":         {Data: lmroman10regular.TTF},
		"audio/step.wav":          {Data: wavBytes(64)},
	}
	for _, f := range []string{"px", "nx", "py", "ny", "pz", "nz"} {
		fsys["sky/"+f+".png"] = &fstest.MapFile{Data: pngBytes(t, 1, 1, color.RGBA{B: 255, A: 255})}
	}
	return fsys
}

func skyFaces() []string {
	return []string{"sky/px.png", "sky/nx.png", "sky/py.png", "sky/ny.png", "sky/pz.png", "sky/nz.png"}
}

func newRegistry(t *testing.T) (*registry.Registry, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return registry.New(registry.WithLogger(logger), registry.WithStrictInvariants(true)), hook
}
