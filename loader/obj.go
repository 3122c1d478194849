package loader

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"math"
	"path"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"render-assets/core"
	"render-assets/scene"
)

// objFace is an already-triangulated face (three vertex references).
type objFace struct {
	vIdx, vtIdx, vnIdx [3]int // 0-based position / UV / normal indices (-1 = absent)
}

type objObject struct {
	name    string
	matName string
	faces   []objFace
}

// decodeOBJ parses a Wavefront .obj payload into a node with one child per
// object or group. A companion .mtl referenced through "mtllib" is read
// from fsys relative to dir.
func decodeOBJ(fsys fs.FS, dir, name string, data []byte) (*scene.Node, error) {
	var positions []mgl32.Vec3
	var normals []mgl32.Vec3
	var uvs []mgl32.Vec2

	materials := map[string]*scene.Material{}
	var objects []objObject
	cur := &objObject{name: "default"}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)

		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				continue
			}
			positions = append(positions, parseVec3(fields[1:4]))

		case "vn":
			if len(fields) < 4 {
				continue
			}
			normals = append(normals, parseVec3(fields[1:4]))

		case "vt":
			if len(fields) < 3 {
				continue
			}
			u, _ := strconv.ParseFloat(fields[1], 32)
			v, _ := strconv.ParseFloat(fields[2], 32)
			uvs = append(uvs, mgl32.Vec2{float32(u), float32(v)})

		case "o", "g":
			if len(cur.faces) > 0 {
				objects = append(objects, *cur)
			}
			oname := "default"
			if len(fields) > 1 {
				oname = fields[1]
			}
			cur = &objObject{name: oname, matName: cur.matName}

		case "usemtl":
			if len(fields) > 1 {
				cur.matName = fields[1]
			}

		case "mtllib":
			if len(fields) > 1 {
				loaded, err := decodeMTL(fsys, dir, path.Join(dir, fields[1]))
				if err != nil {
					return nil, err
				}
				for k, v := range loaded {
					materials[k] = v
				}
			}

		case "f":
			if len(fields) < 4 {
				continue
			}
			var fverts []faceVertex
			for _, tok := range fields[1:] {
				fverts = append(fverts, parseFaceVertex(tok, len(positions), len(uvs), len(normals)))
			}
			// fan triangulation: 0-1-2, 0-2-3, ...
			for i := 1; i+1 < len(fverts); i++ {
				f0, f1, f2 := fverts[0], fverts[i], fverts[i+1]
				cur.faces = append(cur.faces, objFace{
					vIdx:  [3]int{f0.v, f1.v, f2.v},
					vtIdx: [3]int{f0.vt, f1.vt, f2.vt},
					vnIdx: [3]int{f0.vn, f1.vn, f2.vn},
				})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: obj %s: %w", ErrDecode, name, err)
	}
	if len(cur.faces) > 0 {
		objects = append(objects, *cur)
	}
	if len(objects) == 0 {
		return nil, fmt.Errorf("%w: obj %s: no geometry", ErrDecode, name)
	}

	root := scene.NewNode(name)
	for _, obj := range objects {
		geom := buildOBJGeometry(obj.faces, positions, normals, uvs)
		mat, ok := materials[obj.matName]
		if !ok {
			mat = scene.DefaultMaterial()
		}
		n := scene.NewNode(obj.name)
		n.Mesh = scene.NewMesh(obj.name, geom, mat)
		root.AddChild(n)
	}
	return root, nil
}

func parseVec3(f []string) mgl32.Vec3 {
	x, _ := strconv.ParseFloat(f[0], 32)
	y, _ := strconv.ParseFloat(f[1], 32)
	z, _ := strconv.ParseFloat(f[2], 32)
	return mgl32.Vec3{float32(x), float32(y), float32(z)}
}

type faceVertex struct{ v, vt, vn int }

// parseFaceVertex parses "v", "v/vt", "v//vn" or "v/vt/vn" into 0-based
// indices (-1 if absent). Negative OBJ indices count back from the end of
// the pools read so far.
func parseFaceVertex(tok string, nv, nvt, nvn int) faceVertex {
	parseIdx := func(s string, n int) int {
		if s == "" {
			return -1
		}
		i, err := strconv.Atoi(s)
		switch {
		case err != nil || i == 0:
			return -1
		case i > 0:
			return i - 1
		default:
			return n + i
		}
	}
	parts := strings.Split(tok, "/")
	res := faceVertex{v: -1, vt: -1, vn: -1}
	res.v = parseIdx(parts[0], nv)
	if len(parts) > 1 {
		res.vt = parseIdx(parts[1], nvt)
	}
	if len(parts) > 2 {
		res.vn = parseIdx(parts[2], nvn)
	}
	return res
}

// buildOBJGeometry converts parsed faces into deduplicated geometry.
func buildOBJGeometry(faces []objFace, positions, normals []mgl32.Vec3, uvs []mgl32.Vec2) *scene.Geometry {
	type key struct{ v, vt, vn int }
	vertMap := map[key]uint32{}
	var vertices []core.Vertex
	var indices []uint32

	for _, face := range faces {
		for c := 0; c < 3; c++ {
			k := key{face.vIdx[c], face.vtIdx[c], face.vnIdx[c]}
			if idx, ok := vertMap[k]; ok {
				indices = append(indices, idx)
				continue
			}
			v := core.Vertex{Normal: mgl32.Vec3{0, 1, 0}, Color: core.ColorWhite}
			if k.v >= 0 && k.v < len(positions) {
				v.Position = positions[k.v]
			}
			if k.vn >= 0 && k.vn < len(normals) {
				v.Normal = normals[k.vn]
			}
			if k.vt >= 0 && k.vt < len(uvs) {
				v.UV = uvs[k.vt]
			}
			idx := uint32(len(vertices))
			vertices = append(vertices, v)
			vertMap[k] = idx
			indices = append(indices, idx)
		}
	}
	if len(normals) == 0 {
		generateNormals(vertices, indices)
	}
	return scene.NewGeometry(vertices, indices)
}

// generateNormals computes area-weighted smooth normals.
func generateNormals(vertices []core.Vertex, indices []uint32) {
	accum := make([]mgl32.Vec3, len(vertices))
	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		v0 := vertices[i0].Position
		n := vertices[i1].Position.Sub(v0).Cross(vertices[i2].Position.Sub(v0))
		accum[i0] = accum[i0].Add(n)
		accum[i1] = accum[i1].Add(n)
		accum[i2] = accum[i2].Add(n)
	}
	for i := range vertices {
		if accum[i].Len() > 0 {
			vertices[i].Normal = accum[i].Normalize()
		}
	}
}

func decodeMTL(fsys fs.FS, dir, p string) (map[string]*scene.Material, error) {
	data, _, err := fetch(fsys, p)
	if err != nil {
		return nil, err
	}
	return parseMTL(fsys, dir, bytes.NewReader(data))
}

func parseMTL(fsys fs.FS, dir string, r io.Reader) (map[string]*scene.Material, error) {
	mats := map[string]*scene.Material{}
	var cur *scene.Material

	texture := func(slot scene.TextureSlot, file string) error {
		data, _, err := fetch(fsys, path.Join(dir, file))
		if err != nil {
			return err
		}
		tex, err := decodeImage(file, data)
		if err != nil {
			return err
		}
		cur.SetTexture(slot, tex)
		return nil
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if fields[0] != "newmtl" && cur == nil {
			continue
		}

		switch fields[0] {
		case "newmtl":
			if len(fields) > 1 {
				cur = scene.DefaultMaterial()
				cur.Name = fields[1]
				mats[fields[1]] = cur
			}
		case "Kd":
			if len(fields) >= 4 {
				c := parseVec3(fields[1:4])
				cur.Albedo = core.Color{R: c.X(), G: c.Y(), B: c.Z(), A: 1}
			}
		case "Ks":
			if len(fields) >= 4 {
				c := parseVec3(fields[1:4])
				cur.Specular = core.Color{R: c.X(), G: c.Y(), B: c.Z(), A: 1}
			}
		case "Ns":
			if len(fields) >= 2 {
				ns, _ := strconv.ParseFloat(fields[1], 32)
				cur.Shininess = float32(math.Max(1, ns))
			}
		case "map_Kd":
			if len(fields) >= 2 {
				if err := texture(scene.MapSlot, fields[len(fields)-1]); err != nil {
					return nil, err
				}
			}
		case "map_Bump", "bump", "norm":
			if len(fields) >= 2 {
				if err := texture(scene.NormalMapSlot, fields[len(fields)-1]); err != nil {
					return nil, err
				}
			}
		case "map_d":
			if len(fields) >= 2 {
				if err := texture(scene.AlphaMapSlot, fields[len(fields)-1]); err != nil {
					return nil, err
				}
			}
		}
	}
	return mats, scanner.Err()
}
