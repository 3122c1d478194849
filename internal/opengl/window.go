package opengl

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func init() {
	// GL contexts are bound to the thread that created them.
	runtime.LockOSThread()
}

// Window owns a glfw window and its OpenGL 4.1 core context. Asset tools
// open it hidden just to have a context for uploads and releases.
type Window struct {
	handle *glfw.Window
}

type WindowConfig struct {
	Width   int
	Height  int
	Title   string
	Visible bool
	VSync   bool
}

func DefaultWindowConfig() WindowConfig {
	return WindowConfig{Width: 1280, Height: 720, Title: "Render Assets", Visible: true, VSync: true}
}

// NewWindow initialises glfw and makes the new window's context current on
// the calling thread.
func NewWindow(cfg WindowConfig) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}
	hints := map[glfw.Hint]int{
		glfw.ContextVersionMajor:     4,
		glfw.ContextVersionMinor:     1,
		glfw.OpenGLProfile:           glfw.OpenGLCoreProfile,
		glfw.OpenGLForwardCompatible: glfw.True,
		glfw.Visible:                 glfw.False,
	}
	if cfg.Visible {
		hints[glfw.Visible] = glfw.True
	}
	for h, v := range hints {
		glfw.WindowHint(h, v)
	}

	handle, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	handle.MakeContextCurrent()
	interval := 0
	if cfg.VSync {
		interval = 1
	}
	glfw.SwapInterval(interval)
	return &Window{handle: handle}, nil
}

// Size returns the current framebuffer size in pixels.
func (w *Window) Size() (int, int) { return w.handle.GetFramebufferSize() }

func (w *Window) ShouldClose() bool { return w.handle.ShouldClose() }

// Frame swaps buffers and processes pending window events.
func (w *Window) Frame() {
	w.handle.SwapBuffers()
	glfw.PollEvents()
}

func (w *Window) Destroy() {
	w.handle.Destroy()
	glfw.Terminate()
}
