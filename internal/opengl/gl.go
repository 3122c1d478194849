// Package opengl uploads scene resources to an OpenGL 4.1 core context and
// releases them again when assets are disposed.
package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
)

// Init loads the GL function pointers for the current context and returns
// the driver's version string.
func Init() (string, error) {
	if err := gl.Init(); err != nil {
		return "", fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	return gl.GoStr(gl.GetString(gl.VERSION)), nil
}
