package opengl

import (
	"fmt"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"render-assets/scene"
)

// UploadTexture uploads a scene.Texture to the GPU and sets its GLID field.
// Float textures are stored as RGBA32F without mipmaps. Call this with the
// GL context current. Uploading an already uploaded texture is a no-op.
func UploadTexture(tex *scene.Texture) error {
	if tex == nil {
		return fmt.Errorf("nil texture")
	}
	if tex.GLID != 0 {
		return nil
	}
	internal, format, typ, data, err := texelLayout(tex)
	if err != nil {
		return err
	}

	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)

	wrap := int32(gl.REPEAT)
	if tex.Mapping != scene.UVMapping {
		wrap = gl.CLAMP_TO_EDGE
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrap)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrap)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)

	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, int32(tex.Width), int32(tex.Height), 0, format, typ, data)
	if tex.IsHDR() {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	} else {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
		gl.GenerateMipmap(gl.TEXTURE_2D)
	}

	gl.BindTexture(gl.TEXTURE_2D, 0)

	tex.GLID = id
	return nil
}

// DeleteTexture frees a previously uploaded GPU texture and zeroes its GLID.
func DeleteTexture(tex *scene.Texture) {
	if tex == nil || tex.GLID == 0 {
		return
	}
	gl.DeleteTextures(1, &tex.GLID)
	tex.GLID = 0
}

// UploadCubeTexture uploads the six faces of c into one cube map object.
func UploadCubeTexture(c *scene.CubeTexture) error {
	if c == nil {
		return fmt.Errorf("nil cube texture")
	}
	if c.GLID != 0 {
		return nil
	}
	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, id)
	for i, face := range c.Faces {
		if face == nil {
			gl.DeleteTextures(1, &id)
			return fmt.Errorf("cube texture %q: missing face %s", c.Name, scene.CubeFace(i))
		}
		internal, format, typ, data, err := texelLayout(face)
		if err != nil {
			gl.DeleteTextures(1, &id)
			return fmt.Errorf("cube texture %q: %w", c.Name, err)
		}
		gl.TexImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(i), 0, internal,
			int32(face.Width), int32(face.Height), 0, format, typ, data)
	}
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_R, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, 0)

	c.GLID = id
	return nil
}

func DeleteCubeTexture(c *scene.CubeTexture) {
	if c == nil || c.GLID == 0 {
		return
	}
	gl.DeleteTextures(1, &c.GLID)
	c.GLID = 0
}

// texelLayout picks the GL formats for tex and returns a pointer to its data.
func texelLayout(tex *scene.Texture) (internal int32, format, typ uint32, data unsafe.Pointer, err error) {
	n := tex.Width * tex.Height * 4
	switch {
	case tex.IsHDR():
		if len(tex.Float) < n {
			return 0, 0, 0, nil, fmt.Errorf("texture %q: %d texels, want %d", tex.Name, len(tex.Float), n)
		}
		return gl.RGBA32F, gl.RGBA, gl.FLOAT, gl.Ptr(tex.Float), nil
	case len(tex.Pixels) == 0:
		return 0, 0, 0, nil, fmt.Errorf("texture %q has no pixel data", tex.Name)
	case len(tex.Pixels) < n:
		return 0, 0, 0, nil, fmt.Errorf("texture %q: %d bytes, want %d", tex.Name, len(tex.Pixels), n)
	}
	return gl.RGBA, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(tex.Pixels), nil
}
