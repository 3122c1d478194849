package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"render-assets/core"
)

func buildRig() (root, hip, skinned *Node) {
	root = NewNode("rig")
	hip = NewNode("hip")
	knee := NewNode("knee")
	hip.AddChild(knee)
	root.AddChild(hip)

	mat := NewMaterial("skin", core.ColorWhite)
	mat.SetTexture(MapSlot, NewSolidTexture("albedo", 255, 0, 0, 255))
	mat.SetTexture(NormalMapSlot, NewSolidTexture("normal", 128, 128, 255, 255))

	skinned = NewNode("body")
	skinned.Mesh = CreateCube(1, mat)
	skinned.Mesh.Skeleton = NewSkeleton([]*Node{hip, knee}, nil)
	root.AddChild(skinned)
	return root, hip, skinned
}

func TestCloneTreeSharesResources(t *testing.T) {
	root, _, body := buildRig()

	clone, mapping := CloneTree(root)
	require.Len(t, mapping, 4)
	assert.Nil(t, clone.Parent)

	cbody := mapping[body]
	require.NotNil(t, cbody)
	assert.NotSame(t, body.Mesh, cbody.Mesh)
	assert.Same(t, body.Mesh.Geometry, cbody.Mesh.Geometry)
	assert.Same(t, body.Mesh.Material(), cbody.Mesh.Material())
	assert.Same(t, body.Mesh.Skeleton, cbody.Mesh.Skeleton)
	assert.NotEqual(t, body.Id, cbody.Id)
}

func TestCloneSkinnedRebindsBones(t *testing.T) {
	root, hip, body := buildRig()

	_, mapping := CloneSkinned(root)
	cbody := mapping[body]
	require.NotNil(t, cbody.Mesh.Skeleton)
	assert.NotSame(t, body.Mesh.Skeleton, cbody.Mesh.Skeleton)
	assert.Same(t, mapping[hip], cbody.Mesh.Skeleton.Bones[0])
	assert.Equal(t, body.Mesh.Skeleton.BoneInverses, cbody.Mesh.Skeleton.BoneInverses)

	// moving the copied bone must not move the source bone
	mapping[hip].SetPosition(mgl32.Vec3{1, 0, 0})
	assert.Equal(t, mgl32.Vec3{}, hip.WorldPosition())
}

func TestCloneMaterialsKeepsTexturesShared(t *testing.T) {
	root, _, body := buildRig()
	clone, mapping := CloneTree(root)

	CloneMaterials(clone)
	src, dst := body.Mesh.Material(), mapping[body].Mesh.Material()
	assert.NotSame(t, src, dst)
	assert.Same(t, src.Texture(MapSlot), dst.Texture(MapSlot))

	dst.Albedo = core.Color{R: 1, A: 1}
	assert.Equal(t, core.ColorWhite, src.Albedo)

	CloneMaterialTextures(clone, MapSlot, NormalMapSlot)
	assert.NotSame(t, src.Texture(MapSlot), dst.Texture(MapSlot))
	assert.Equal(t, src.Texture(MapSlot).Pixels, dst.Texture(MapSlot).Pixels)
	assert.NotEqual(t, src.Texture(MapSlot).UUID, dst.Texture(MapSlot).UUID)
}

func TestCloneGeometries(t *testing.T) {
	root, _, body := buildRig()
	clone, mapping := CloneTree(root)

	CloneGeometries(clone)
	g := mapping[body].Mesh.Geometry
	assert.NotSame(t, body.Mesh.Geometry, g)
	assert.NotEqual(t, body.Mesh.Geometry.UUID, g.UUID)
	assert.Equal(t, body.Mesh.Geometry.Indices, g.Indices)
}

func TestIsDescendantOf(t *testing.T) {
	root, hip, _ := buildRig()
	knee := root.Find("knee")
	require.NotNil(t, knee)

	assert.True(t, knee.IsDescendantOf(root))
	assert.True(t, knee.IsDescendantOf(hip))
	assert.False(t, root.IsDescendantOf(root))
	assert.False(t, hip.IsDescendantOf(knee))

	hip.RemoveFromParent()
	assert.False(t, knee.IsDescendantOf(root))
}

type recordingObserver struct {
	changes []TextureSlot
}

func (o *recordingObserver) TextureChanged(_ *Material, slot TextureSlot, _, _ *Texture) {
	o.changes = append(o.changes, slot)
}

func TestMaterialObserverAndClone(t *testing.T) {
	m := DefaultMaterial()
	obs := &recordingObserver{}
	m.Observe(obs)

	tex := NewSolidTexture("t", 1, 2, 3, 4)
	m.SetTexture(EmissiveMapSlot, tex)
	m.SetTexture(EmissiveMapSlot, tex)
	assert.Equal(t, []TextureSlot{EmissiveMapSlot}, obs.changes)
	assert.True(t, m.Uses(tex))

	c := m.Clone()
	assert.Nil(t, c.Observer())
	assert.Same(t, tex, c.Texture(EmissiveMapSlot))
	assert.Equal(t, m.Shininess, c.Shininess)
}

func TestSceneClearTexture(t *testing.T) {
	s := NewScene()
	env := NewFloatTexture("env", 1, 1, []float32{1, 1, 1, 1})
	s.Environment = env
	s.Background = env

	assert.True(t, s.UsesTexture(env))
	assert.True(t, s.ClearTexture(env))
	assert.Nil(t, s.Environment)
	assert.Nil(t, s.Background)
	assert.False(t, s.ClearTexture(env))
}

type countingReleaser struct {
	NopReleaser
	textures int
}

func (c *countingReleaser) ReleaseTexture(*Texture) { c.textures++ }

func TestTextureDisposeOnce(t *testing.T) {
	r := &countingReleaser{}
	tex := NewSolidTexture("t", 0, 0, 0, 0)
	clone := tex.Clone()

	tex.Dispose(r)
	tex.Dispose(r)
	assert.Equal(t, 1, r.textures)
	assert.True(t, tex.Disposed())
	assert.False(t, clone.Disposed())
}
