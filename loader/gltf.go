package loader

import (
	"bytes"
	"fmt"
	"io/fs"
	"path"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/sirupsen/logrus"

	"render-assets/animation"
	"render-assets/core"
	"render-assets/scene"
)

// gltfModel is a decoded glTF document: one root holding the default scene
// and every animation clip.
type gltfModel struct {
	Root  *scene.Node
	Clips []*animation.Clip
}

// decodeGLTF decodes a .gltf or .glb payload. External buffers and images
// are read from fsys relative to dir.
func decodeGLTF(log logrus.FieldLogger, fsys fs.FS, dir, name string, data []byte) (*gltfModel, error) {
	sub := fsys
	if dir != "." && dir != "" {
		var err error
		if sub, err = fs.Sub(fsys, dir); err != nil {
			return nil, fmt.Errorf("%w: gltf %s: %w", ErrDecode, name, err)
		}
	}
	doc := new(gltf.Document)
	if err := gltf.NewDecoderFS(bytes.NewReader(data), sub).Decode(doc); err != nil {
		return nil, fmt.Errorf("%w: gltf %s: %w", ErrDecode, name, err)
	}
	log = log.WithField("asset", name)

	// textures
	texCache := make([]*scene.Texture, len(doc.Textures))
	for i, gt := range doc.Textures {
		if gt.Source == nil || *gt.Source >= len(doc.Images) {
			continue
		}
		img := doc.Images[*gt.Source]
		texName := img.Name
		if texName == "" {
			texName = fmt.Sprintf("%s_image%d", name, *gt.Source)
		}
		raw, err := gltfImageBytes(doc, fsys, dir, img)
		if err != nil {
			log.WithError(err).Warnf("gltf: image %d skipped", *gt.Source)
			continue
		}
		tex, err := decodeImage(texName, raw)
		if err != nil {
			log.WithError(err).Warnf("gltf: image %d skipped", *gt.Source)
			continue
		}
		texCache[i] = tex
	}
	texAt := func(idx int) *scene.Texture {
		if idx >= 0 && idx < len(texCache) {
			return texCache[idx]
		}
		return nil
	}

	// materials
	matCache := make([]*scene.Material, len(doc.Materials))
	for i, gm := range doc.Materials {
		mat := scene.NewPBRMaterial(gm.Name, core.ColorWhite, 1, 1)
		if pbr := gm.PBRMetallicRoughness; pbr != nil {
			cf := pbr.BaseColorFactorOrDefault()
			mat.Albedo = core.Color{R: float32(cf[0]), G: float32(cf[1]), B: float32(cf[2]), A: float32(cf[3])}
			mat.Metallic = float32(pbr.MetallicFactorOrDefault())
			mat.Roughness = float32(pbr.RoughnessFactorOrDefault())
			if pbr.BaseColorTexture != nil {
				mat.SetTexture(scene.MapSlot, texAt(pbr.BaseColorTexture.Index))
			}
			if pbr.MetallicRoughnessTexture != nil {
				t := texAt(pbr.MetallicRoughnessTexture.Index)
				mat.SetTexture(scene.RoughnessMapSlot, t)
				mat.SetTexture(scene.MetalnessMapSlot, t)
			}
		}
		if gm.NormalTexture != nil && gm.NormalTexture.Index != nil {
			mat.SetTexture(scene.NormalMapSlot, texAt(*gm.NormalTexture.Index))
		}
		if gm.OcclusionTexture != nil && gm.OcclusionTexture.Index != nil {
			mat.SetTexture(scene.AOMapSlot, texAt(*gm.OcclusionTexture.Index))
		}
		if gm.EmissiveTexture != nil {
			mat.SetTexture(scene.EmissiveMapSlot, texAt(gm.EmissiveTexture.Index))
		}
		matCache[i] = mat
	}

	// mesh primitives, one scene.Mesh each
	meshPrims := make([][]*scene.Mesh, len(doc.Meshes))
	for mi, gm := range doc.Meshes {
		for pi, prim := range gm.Primitives {
			geom, err := gltfGeometry(doc, prim)
			if err != nil {
				return nil, fmt.Errorf("%w: gltf %s: mesh %d primitive %d: %w", ErrDecode, name, mi, pi, err)
			}
			var mat *scene.Material
			if prim.Material != nil && *prim.Material < len(matCache) {
				mat = matCache[*prim.Material]
			}
			meshName := gm.Name
			if meshName == "" {
				meshName = fmt.Sprintf("mesh%d", mi)
			}
			meshPrims[mi] = append(meshPrims[mi], scene.NewMesh(fmt.Sprintf("%s_p%d", meshName, pi), geom, mat))
		}
	}

	// nodes
	nodes := make([]*scene.Node, len(doc.Nodes))
	for i, gn := range doc.Nodes {
		nname := gn.Name
		if nname == "" {
			nname = fmt.Sprintf("node_%d", i)
		}
		n := scene.NewNode(nname)
		t := gn.TranslationOrDefault()
		n.SetPosition(mgl32.Vec3{float32(t[0]), float32(t[1]), float32(t[2])})
		s := gn.ScaleOrDefault()
		n.SetScale(mgl32.Vec3{float32(s[0]), float32(s[1]), float32(s[2])})
		r := gn.RotationOrDefault() // x, y, z, w
		n.SetRotation(mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}})
		nodes[i] = n
	}
	for i, gn := range doc.Nodes {
		for _, c := range gn.Children {
			if c < len(nodes) {
				nodes[i].AddChild(nodes[c])
			}
		}
	}

	// skins; bones must exist before meshes are bound to them
	skins := make([]*scene.Skeleton, len(doc.Skins))
	for i, sk := range doc.Skins {
		bones := make([]*scene.Node, 0, len(sk.Joints))
		for _, j := range sk.Joints {
			if j < len(nodes) {
				bones = append(bones, nodes[j])
			}
		}
		var inverses []mgl32.Mat4
		if sk.InverseBindMatrices != nil {
			mats, err := modeler.ReadAccessor(doc, doc.Accessors[*sk.InverseBindMatrices], nil)
			if err != nil {
				return nil, fmt.Errorf("%w: gltf %s: skin %d: %w", ErrDecode, name, i, err)
			}
			if m4, ok := mats.([][4][4]float32); ok {
				for _, m := range m4 {
					var out mgl32.Mat4
					for c := 0; c < 4; c++ {
						for r := 0; r < 4; r++ {
							out[c*4+r] = m[c][r]
						}
					}
					inverses = append(inverses, out)
				}
			}
		}
		if len(inverses) != len(bones) {
			inverses = nil
		}
		skins[i] = scene.NewSkeleton(bones, inverses)
	}

	for i, gn := range doc.Nodes {
		if gn.Mesh == nil || *gn.Mesh >= len(meshPrims) {
			continue
		}
		prims := meshPrims[*gn.Mesh]
		var skel *scene.Skeleton
		if gn.Skin != nil && *gn.Skin < len(skins) {
			skel = skins[*gn.Skin]
		}
		n := nodes[i]
		for pi, p := range prims {
			p.Skeleton = skel
			if len(prims) == 1 {
				n.Mesh = p
				break
			}
			child := scene.NewNode(fmt.Sprintf("%s_prim%d", n.Name, pi))
			child.Mesh = p
			n.AddChild(child)
		}
	}

	// roots
	root := scene.NewNode(name)
	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		for _, idx := range doc.Scenes[*doc.Scene].Nodes {
			if idx < len(nodes) {
				root.AddChild(nodes[idx])
			}
		}
	} else {
		for _, n := range nodes {
			if n.Parent == nil {
				root.AddChild(n)
			}
		}
	}

	clips, err := gltfClips(doc, nodes)
	if err != nil {
		return nil, fmt.Errorf("%w: gltf %s: %w", ErrDecode, name, err)
	}
	return &gltfModel{Root: root, Clips: clips}, nil
}

// gltfImageBytes returns the encoded bytes of img from a buffer view, a
// data URI or an external file.
func gltfImageBytes(doc *gltf.Document, fsys fs.FS, dir string, img *gltf.Image) ([]byte, error) {
	switch {
	case img.BufferView != nil:
		return modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
	case img.IsEmbeddedResource():
		return img.MarshalData()
	case img.URI != "":
		data, _, err := fetch(fsys, path.Join(dir, img.URI))
		return data, err
	}
	return nil, fmt.Errorf("image has no data")
}

func gltfGeometry(doc *gltf.Document, prim *gltf.Primitive) (*scene.Geometry, error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, fmt.Errorf("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}

	var normals [][3]float32
	var uvs [][2]float32
	var joints [][4]uint16
	var weights [][4]float32
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		normals, _ = modeler.ReadNormal(doc, doc.Accessors[idx], nil)
	}
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		uvs, _ = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil)
	}
	if idx, ok := prim.Attributes[gltf.JOINTS_0]; ok {
		joints, _ = modeler.ReadJoints(doc, doc.Accessors[idx], nil)
	}
	if idx, ok := prim.Attributes[gltf.WEIGHTS_0]; ok {
		weights, _ = modeler.ReadWeights(doc, doc.Accessors[idx], nil)
	}

	verts := make([]core.Vertex, len(positions))
	for i, p := range positions {
		v := core.Vertex{
			Position: mgl32.Vec3{p[0], p[1], p[2]},
			Normal:   mgl32.Vec3{0, 1, 0},
			Color:    core.ColorWhite,
		}
		if i < len(normals) {
			v.Normal = mgl32.Vec3(normals[i])
		}
		if i < len(uvs) {
			v.UV = mgl32.Vec2(uvs[i])
		}
		if i < len(joints) {
			v.Joints = joints[i]
		}
		if i < len(weights) {
			v.Weights = mgl32.Vec4(weights[i])
		}
		verts[i] = v
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
	}
	return scene.NewGeometry(verts, indices), nil
}

// gltfClips converts glTF animations into clips addressed by node name.
// Morph target weights are not supported and are skipped.
func gltfClips(doc *gltf.Document, nodes []*scene.Node) ([]*animation.Clip, error) {
	clips := make([]*animation.Clip, 0, len(doc.Animations))
	for ai, ga := range doc.Animations {
		var tracks []animation.Track
		for _, ch := range ga.Channels {
			if ch.Target.Node == nil || *ch.Target.Node >= len(nodes) || ch.Sampler >= len(ga.Samplers) {
				continue
			}
			var p animation.Path
			switch ch.Target.Path {
			case gltf.TRSTranslation:
				p = animation.Translation
			case gltf.TRSRotation:
				p = animation.Rotation
			case gltf.TRSScale:
				p = animation.Scale
			default:
				continue
			}
			s := ga.Samplers[ch.Sampler]
			in, err := modeler.ReadAccessor(doc, doc.Accessors[s.Input], nil)
			if err != nil {
				return nil, fmt.Errorf("animation %d input: %w", ai, err)
			}
			out, err := modeler.ReadAccessor(doc, doc.Accessors[s.Output], nil)
			if err != nil {
				return nil, fmt.Errorf("animation %d output: %w", ai, err)
			}
			times, ok := in.([]float32)
			if !ok {
				return nil, fmt.Errorf("animation %d: keyframe times are %T", ai, in)
			}
			var values []float32
			switch v := out.(type) {
			case [][3]float32:
				for _, e := range v {
					values = append(values, e[:]...)
				}
			case [][4]float32:
				for _, e := range v {
					values = append(values, e[:]...)
				}
			default:
				return nil, fmt.Errorf("animation %d: keyframe values are %T", ai, out)
			}
			tracks = append(tracks, animation.Track{
				NodeName: nodes[*ch.Target.Node].Name,
				Path:     p,
				Times:    times,
				Values:   values,
			})
		}
		name := ga.Name
		if name == "" {
			name = fmt.Sprintf("animation%d", ai)
		}
		clips = append(clips, animation.NewClip(name, tracks))
	}
	return clips, nil
}
