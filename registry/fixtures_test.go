package registry

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"render-assets/animation"
	"render-assets/core"
	"render-assets/scene"
)

type releaseLog struct {
	textures   map[*scene.Texture]int
	geometries map[*scene.Geometry]int
	materials  map[*scene.Material]int
	cubes      map[*scene.CubeTexture]int
}

func newReleaseLog() *releaseLog {
	return &releaseLog{
		textures:   make(map[*scene.Texture]int),
		geometries: make(map[*scene.Geometry]int),
		materials:  make(map[*scene.Material]int),
		cubes:      make(map[*scene.CubeTexture]int),
	}
}

func (l *releaseLog) ReleaseGeometry(g *scene.Geometry)       { l.geometries[g]++ }
func (l *releaseLog) ReleaseMaterial(m *scene.Material)       { l.materials[m]++ }
func (l *releaseLog) ReleaseTexture(t *scene.Texture)         { l.textures[t]++ }
func (l *releaseLog) ReleaseCubeTexture(c *scene.CubeTexture) { l.cubes[c]++ }

type harness struct {
	reg  *Registry
	rel  *releaseLog
	hook *test.Hook
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	rel := newReleaseLog()
	reg := New(
		WithLogger(logger),
		WithReleaser(rel),
		WithIdentityGenerator(NewIdentityGeneratorFrom(1000)),
		WithStrictInvariants(true),
	)
	return &harness{reg: reg, rel: rel, hook: hook}
}

func (h *harness) warnings() int {
	n := 0
	for _, e := range h.hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			n++
		}
	}
	return n
}

// carNode builds car -> body (textured cube) + wheel (plain cube).
func carNode() (*scene.Node, *scene.Texture) {
	paint := scene.NewSolidTexture("paint", 200, 0, 0, 255)
	body := scene.NewNode("body")
	mat := scene.NewPBRMaterial("paint", core.ColorWhite, 0.8, 0.2)
	mat.SetTexture(scene.MapSlot, paint)
	body.Mesh = scene.CreateCube(2, mat)

	wheel := scene.NewNode("wheel")
	wheel.Mesh = scene.CreateCube(0.5, nil)

	car := scene.NewNode("car")
	car.AddChild(body)
	car.AddChild(wheel)
	return car, paint
}

func walkClip() *animation.Clip {
	return animation.NewClip("walk", []animation.Track{
		{NodeName: "hip", Path: animation.Translation, Times: []float32{0, 1}, Values: []float32{0, 0, 0, 0, 1, 0}},
	})
}

// characterNode builds a skinned character with one bone chain.
func characterNode() *scene.Node {
	root := scene.NewNode("hero")
	hip := scene.NewNode("hip")
	spine := scene.NewNode("spine")
	hip.AddChild(spine)
	root.AddChild(hip)

	mat := scene.NewMaterial("skin", core.ColorWhite)
	mat.SetTexture(scene.MapSlot, scene.NewSolidTexture("skinAlbedo", 255, 200, 180, 255))
	mat.SetTexture(scene.NormalMapSlot, scene.NewSolidTexture("skinNormal", 128, 128, 255, 255))
	mat.SetTexture(scene.RoughnessMapSlot, scene.NewSolidTexture("skinRough", 90, 90, 90, 255))

	body := scene.NewNode("body")
	body.Mesh = scene.CreateCube(1, mat)
	body.Mesh.Skeleton = scene.NewSkeleton([]*scene.Node{hip, spine}, nil)
	root.AddChild(body)
	return root
}

func (h *harness) mustCar(t *testing.T, name string) (*ModelRecord, *scene.Texture) {
	t.Helper()
	node, paint := carNode()
	rec, err := h.reg.SetModel(ModelData{Name: name, Node: node})
	if err != nil {
		t.Fatalf("SetModel(%q): %v", name, err)
	}
	return rec, paint
}

func (h *harness) mustHero(t *testing.T, name string) *ModelRecord {
	t.Helper()
	rec, err := h.reg.SetModel(ModelData{Name: name, Node: characterNode(), Clips: []*animation.Clip{walkClip()}})
	if err != nil {
		t.Fatalf("SetModel(%q): %v", name, err)
	}
	return rec
}

func materialOf(n *scene.Node, child string) *scene.Material {
	return n.Find(child).Mesh.Material()
}
