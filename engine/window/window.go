// Package window opens the preview window and turns its input into engine callbacks. The
// framebuffer matches the simulated image so the sRGB result is presented without scaling.
package window

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// Window is a native window with a WebGPU-presentable surface.
//
// Callbacks run on the thread that calls ProcessMessages. Escape closes the window and is not
// reported as a key press.
type Window interface {
	// SurfaceDescriptor returns the platform surface descriptor for creating a WebGPU surface.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the descriptor, nil after Close
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// ProcessMessages polls window events until the window is closed, calling the update
	// callback once per poll.
	ProcessMessages()

	// IsRunning reports whether the window is open.
	IsRunning() bool

	// RequestClose makes ProcessMessages return. Safe to call from any goroutine.
	RequestClose()

	// Close destroys the window.
	//
	// Returns:
	//   - error: ErrClosed if the window was already closed
	Close() error

	// SetTitle replaces the title. Safe to call from any goroutine; the change is applied by
	// the next poll.
	SetTitle(title string)

	// Width and Height return the framebuffer size in pixels.
	Width() int
	Height() int

	SetUpdateCallback(callback func())
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback reports vertical wheel steps; positive values scroll up.
	SetScrollCallback(callback func(delta float32))

	// SetKeyDownCallback reports presses and key repeats as GLFW key codes, which match the
	// common key constants.
	SetKeyDownCallback(callback func(keyCode uint32))
	SetKeyUpCallback(callback func(keyCode uint32))

	// SetDragCallback reports cursor movement in pixels while the left button is held.
	SetDragCallback(callback func(dx, dy float32))

	// SetPanCallback reports cursor movement in pixels while the middle button is held.
	SetPanCallback(callback func(dx, dy float32))
}

// WindowBuilderOption configures a window before it is opened.
type WindowBuilderOption func(c *windowConfig)

type windowConfig struct {
	title     string
	width     int
	height    int
	resizable bool
}

func newWindowConfig(options ...WindowBuilderOption) windowConfig {
	c := windowConfig{title: "camsim", width: 640, height: 480}
	for _, opt := range options {
		opt(&c)
	}
	c.width = max(c.width, 1)
	c.height = max(c.height, 1)
	return c
}

// WithTitle sets the window title.
func WithTitle(title string) WindowBuilderOption {
	return func(c *windowConfig) { c.title = title }
}

// WithWidth sets the requested framebuffer width, usually the simulated image width.
func WithWidth(width int) WindowBuilderOption {
	return func(c *windowConfig) { c.width = width }
}

// WithHeight sets the requested framebuffer height, usually the simulated image height.
func WithHeight(height int) WindowBuilderOption {
	return func(c *windowConfig) { c.height = height }
}

// WithResizable lets the user resize the window. Windows have a fixed size by default because
// the simulated image does not follow the window size.
func WithResizable(resizable bool) WindowBuilderOption {
	return func(c *windowConfig) { c.resizable = resizable }
}

// NewWindow opens a window. The window must be used from the goroutine that created it, which is
// locked to its OS thread.
//
// Parameters:
//   - options: functional options configuring the window
//
// Returns:
//   - Window: the open window
//   - error: error if no window could be created, for example without a display
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w, err := openGLFWWindow(newWindowConfig(options...))
	if err != nil {
		return nil, err
	}
	return w, nil
}
