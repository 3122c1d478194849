package registry

import (
	"fmt"
	"testing"

	"github.com/go-fonts/latin-modern/lmroman10regular"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/sfnt"

	"render-assets/audio"
	"render-assets/scene"
)

func TestSetModelRejectsDuplicatesAndBadInput(t *testing.T) {
	h := newHarness(t)
	h.mustCar(t, "car")

	node, _ := carNode()
	_, err := h.reg.SetModel(ModelData{Name: "car", Node: node})
	assert.ErrorIs(t, err, ErrDuplicateName)

	_, err = h.reg.SetModel(ModelData{Name: "", Node: node})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = h.reg.SetModel(ModelData{Name: "ghost"})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	// names are unique across categories
	_, err = h.reg.SetTexture("car", scene.NewSolidTexture("x", 0, 0, 0, 0))
	assert.ErrorIs(t, err, ErrDuplicateName)
	require.NoError(t, h.reg.Verify())
}

func TestIdentityMapsAgree(t *testing.T) {
	h := newHarness(t)
	rec, _ := h.mustCar(t, "car")
	_, err := h.reg.CloneModel("car", CloneRequest{Kind: ShallowClone, Count: 2})
	require.NoError(t, err)
	_, err = h.reg.SetTexture("wall", scene.NewSolidTexture("wall", 1, 1, 1, 1))
	require.NoError(t, err)

	require.NoError(t, h.reg.Verify())
	assert.Equal(t, 4, h.reg.Len())

	name, err := h.reg.NameOf(rec.Source.ID)
	require.NoError(t, err)
	assert.Equal(t, "car", name)

	id, err := h.reg.IDOf("carShallowClone1")
	require.NoError(t, err)
	inst, err := h.reg.ModelByID(id)
	require.NoError(t, err)
	assert.Equal(t, ModelKey{Base: "car", Kind: ShallowClone, Ordinal: 1}, inst.Key)

	_, err = h.reg.NameOf(1)
	assert.ErrorIs(t, err, ErrNotFound)

	wallID, err := h.reg.IDOf("wall")
	require.NoError(t, err)
	_, err = h.reg.ModelByID(wallID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestShallowCloneScenario(t *testing.T) {
	h := newHarness(t)
	rec, _ := h.mustCar(t, "car")

	clones, err := h.reg.CloneModel("car", CloneRequest{Kind: ShallowClone, Count: 3})
	require.NoError(t, err)
	require.Len(t, clones, 3)

	for i, c := range clones {
		assert.Equal(t, fmt.Sprintf("carShallowClone%d", i), c.Name)
		assert.Equal(t, rec.Source.ID, c.ParentID)
		assert.Equal(t, "car", c.ParentName)
		assert.Nil(t, c.Playback)
		// shallow clones share material instances with the source
		assert.Same(t, materialOf(rec.Source.Node, "body"), materialOf(c.Node, "body"))
	}
	assert.Equal(t, 3, rec.ShallowCloneCount)
	assert.Equal(t, 3, rec.CloneCount(ShallowClone))

	inst, err := h.reg.Model(ParseModelName("carShallowClone2"))
	require.NoError(t, err)
	assert.Same(t, clones[2].Node, inst.Node)

	_, err = h.reg.Model(ModelKey{Base: "car", Kind: ShallowClone, Ordinal: 9})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = h.reg.Model(SourceKey("bike"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrdinalsNeverReused(t *testing.T) {
	h := newHarness(t)
	rec, _ := h.mustCar(t, "car")

	_, err := h.reg.CloneModel("car", CloneRequest{Kind: DeepClone, Count: 2})
	require.NoError(t, err)
	require.NoError(t, h.reg.DisposeClone("carDeepClone1"))

	more, err := h.reg.CloneModel("car", CloneRequest{Kind: DeepClone, Count: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, more[0].Ordinal)
	assert.Equal(t, 3, more[1].Ordinal)
	assert.Equal(t, 4, rec.DeepCloneCount)

	var names []string
	for _, c := range rec.Clones(DeepClone) {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"carDeepClone0", "carDeepClone2", "carDeepClone3"}, names)
}

func TestCloneCountEdgeCases(t *testing.T) {
	h := newHarness(t)
	rec, _ := h.mustCar(t, "car")

	clones, err := h.reg.CloneModel("car", CloneRequest{Kind: ShallowClone, Count: 0})
	require.NoError(t, err)
	assert.Empty(t, clones)
	assert.Zero(t, rec.ShallowCloneCount)

	_, err = h.reg.CloneModel("car", CloneRequest{Kind: ShallowClone, Count: -1})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = h.reg.CloneModel("car", CloneRequest{Kind: Source, Count: 1})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = h.reg.CloneModel("car", CloneRequest{Kind: DeepClone, Count: 1, CloneGeometry: true})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = h.reg.CloneModel("bike", CloneRequest{Kind: DeepClone, Count: 1})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeepCloneOwnsMaterials(t *testing.T) {
	h := newHarness(t)
	rec, paint := h.mustCar(t, "car")

	clones, err := h.reg.CloneModel("car", CloneRequest{Kind: DeepClone, Count: 2})
	require.NoError(t, err)

	src := materialOf(rec.Source.Node, "body")
	a, b := materialOf(clones[0].Node, "body"), materialOf(clones[1].Node, "body")
	assert.NotSame(t, src, a)
	assert.NotSame(t, a, b)
	assert.Same(t, paint, a.Texture(scene.MapSlot))
	assert.Same(t, rec.Source.Node.Find("body").Mesh.Geometry, clones[0].Node.Find("body").Mesh.Geometry)
	assert.Nil(t, clones[0].Playback)

	a.Metallic = 0
	assert.InDelta(t, 0.8, src.Metallic, 1e-6)
}

func TestSkeletonCloneGetsOwnPlayback(t *testing.T) {
	h := newHarness(t)
	rec := h.mustHero(t, "hero")
	require.NotNil(t, rec.Source.Playback)

	clones, err := h.reg.CloneModel("hero", CloneRequest{Kind: SkeletonClone, Count: 2})
	require.NoError(t, err)
	a, b := clones[0], clones[1]
	require.NotNil(t, a.Playback)
	require.NotNil(t, b.Playback)
	assert.NotSame(t, a.Playback.Mixer, b.Playback.Mixer)

	a.Playback.Play("walk")
	a.Playback.Update(0.5)
	assert.InDelta(t, 0.5, a.Node.Find("hip").Transform.Position.Y(), 1e-5)
	assert.Zero(t, b.Node.Find("hip").Transform.Position.Y())
	assert.Zero(t, rec.Source.Node.Find("hip").Transform.Position.Y())

	skel := a.Node.Find("body").Mesh.Skeleton
	assert.Same(t, a.Node.Find("hip"), skel.Bones[0])
	// plain skeleton clones keep materials and geometry shared
	assert.Same(t, materialOf(rec.Source.Node, "body"), materialOf(a.Node, "body"))
}

func TestSkeletonCloneOptions(t *testing.T) {
	h := newHarness(t)
	rec := h.mustHero(t, "hero")
	srcMat := materialOf(rec.Source.Node, "body")
	srcGeo := rec.Source.Node.Find("body").Mesh.Geometry

	clones, err := h.reg.CloneModel("hero", CloneRequest{Kind: SkeletonClone, Count: 1, DeepClone: true, CloneGeometry: true})
	require.NoError(t, err)
	c := clones[0]
	mat := materialOf(c.Node, "body")
	assert.NotSame(t, srcMat, mat)
	assert.NotSame(t, srcMat.Texture(scene.MapSlot), mat.Texture(scene.MapSlot))
	assert.NotSame(t, srcMat.Texture(scene.NormalMapSlot), mat.Texture(scene.NormalMapSlot))
	assert.Same(t, srcMat.Texture(scene.RoughnessMapSlot), mat.Texture(scene.RoughnessMapSlot))
	geo := c.Node.Find("body").Mesh.Geometry
	assert.NotSame(t, srcGeo, geo)
	assert.NotEqual(t, srcGeo.UUID, geo.UUID)
}

func TestTextureCloneScenario(t *testing.T) {
	h := newHarness(t)
	wall := scene.NewSolidTexture("wall", 10, 20, 30, 255)
	wall.GLID = 7
	_, err := h.reg.SetTexture("wall", wall)
	require.NoError(t, err)

	clones, err := h.reg.CloneTexture("wall", 2)
	require.NoError(t, err)
	require.Len(t, clones, 2)

	one, err := h.reg.Texture(ParseTextureName("wallTexture1"))
	require.NoError(t, err)
	two, err := h.reg.Texture(ParseTextureName("wallTexture2"))
	require.NoError(t, err)
	assert.NotSame(t, one.Texture, two.Texture)
	assert.NotSame(t, wall, one.Texture)
	assert.Zero(t, one.Texture.GLID)
	assert.Equal(t, wall.Pixels, two.Texture.Pixels)

	require.NoError(t, h.reg.DisposeCloneTexture("wallTexture1"))
	assert.True(t, one.Texture.Disposed())
	assert.False(t, two.Texture.Disposed())
	assert.False(t, wall.Disposed())

	require.NoError(t, h.reg.DisposeCloneTexture("wallTexture2"))
	src, err := h.reg.Texture(TextureSourceKey("wall"))
	require.NoError(t, err)
	assert.Same(t, wall, src.Texture)

	more, err := h.reg.CloneTexture("wall", 1)
	require.NoError(t, err)
	assert.Equal(t, "wallTexture3", more[0].Name)

	byID, err := h.reg.TextureByID(more[0].ID)
	require.NoError(t, err)
	assert.Same(t, more[0], byID)
}

func TestSingletonCategories(t *testing.T) {
	h := newHarness(t)

	faces := [6]*scene.Texture{}
	for i := range faces {
		faces[i] = scene.NewSolidTexture(fmt.Sprintf("f%d", i), 0, 0, 0, 255)
	}
	cube, err := h.reg.SetCubeMap("sky", scene.NewCubeTexture("sky", faces))
	require.NoError(t, err)
	got, err := h.reg.CubeMapByID(cube.ID)
	require.NoError(t, err)
	assert.Same(t, cube, got)
	_, err = h.reg.HDRCubeMap("sky")
	assert.ErrorIs(t, err, ErrNotFound)

	f, err := sfnt.Parse(lmroman10regular.TTF)
	require.NoError(t, err)
	_, err = h.reg.SetFont("serif", f)
	require.NoError(t, err)
	fr, err := h.reg.Font("serif")
	require.NoError(t, err)
	assert.Same(t, f, fr.Font)

	src := audio.NewSource("engine", nil, true)
	ar, err := h.reg.SetAudio("engine", src)
	require.NoError(t, err)
	assert.Same(t, h.reg.Listener(), ar.Source.Listener())

	_, err = h.reg.SetHDRI("studio", nil, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.Len(t, h.reg.CubeMaps(), 1)
	assert.Len(t, h.reg.Fonts(), 1)
	assert.Len(t, h.reg.Audios(), 1)
	c, ok := h.reg.CategoryOf("serif")
	assert.True(t, ok)
	assert.Equal(t, CategoryFont, c)
	require.NoError(t, h.reg.Verify())
}

func TestAttachListenerRebindsPositionalAudio(t *testing.T) {
	h := newHarness(t)
	stray := audio.NewListener()
	pos := audio.NewSource("steps", stray, true)
	flat := audio.NewSource("music", stray, false)
	_, err := h.reg.SetAudio("steps", pos)
	require.NoError(t, err)
	_, err = h.reg.SetAudio("music", flat)
	require.NoError(t, err)

	pos.SetListener(stray)
	camera := scene.NewNode("camera")
	assert.Equal(t, 1, h.reg.AttachListener(camera))
	assert.Same(t, h.reg.Listener(), pos.Listener())
	assert.Same(t, camera, h.reg.Listener().Node.Parent)

	other := scene.NewNode("camera2")
	h.reg.AttachListener(other)
	assert.Same(t, other, h.reg.Listener().Node.Parent)
	assert.Empty(t, camera.Children)
}

func TestTextureStillInUseFollowsMaterials(t *testing.T) {
	h := newHarness(t)
	rec, paint := h.mustCar(t, "car")
	assert.True(t, h.reg.TextureStillInUse(paint))

	extra := scene.NewSolidTexture("decal", 1, 1, 1, 1)
	assert.False(t, h.reg.TextureStillInUse(extra))
	mat := materialOf(rec.Source.Node, "wheel")
	mat.SetTexture(scene.AlphaMapSlot, extra)
	assert.True(t, h.reg.TextureStillInUse(extra))
	mat.SetTexture(scene.AlphaMapSlot, nil)
	assert.False(t, h.reg.TextureStillInUse(extra))

	_, err := h.reg.CloneModel("car", CloneRequest{Kind: ShallowClone, Count: 1})
	require.NoError(t, err)
	materialOf(rec.Source.Node, "body").SetTexture(scene.MapSlot, nil)
	assert.False(t, h.reg.TextureStillInUse(paint))
}

func TestReindexPicksUpReassignedMaterials(t *testing.T) {
	h := newHarness(t)
	rec, _ := h.mustCar(t, "car")

	tex := scene.NewSolidTexture("chrome", 1, 1, 1, 1)
	mat := scene.DefaultMaterial()
	mat.SetTexture(scene.MetalnessMapSlot, tex)
	rec.Source.Node.Find("wheel").Mesh.Materials[0] = mat
	assert.False(t, h.reg.TextureStillInUse(tex))

	require.NoError(t, h.reg.Reindex(SourceKey("car")))
	assert.True(t, h.reg.TextureStillInUse(tex))
	assert.ErrorIs(t, h.reg.Reindex(SourceKey("bike")), ErrNotFound)
}
