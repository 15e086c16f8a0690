package window

import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// ErrClosed is returned when closing a window twice.
var ErrClosed = errors.New("window: closed")

// glfwWindow implements Window on GLFW without an OpenGL context; WebGPU creates the surface
// from the native handle.
type glfwWindow struct {
	win    *glfw.Window
	width  int
	height int

	closed       bool
	pendingTitle atomic.Pointer[string]

	// cursor position of the last move event
	lastX, lastY float64

	onUpdate  func()
	onResize  func(width, height int)
	onScroll  func(delta float32)
	onKeyDown func(keyCode uint32)
	onKeyUp   func(keyCode uint32)
	onDrag    func(dx, dy float32)
	onPan     func(dx, dy float32)
}

var _ Window = &glfwWindow{}

func glfwBool(b bool) int {
	if b {
		return glfw.True
	}
	return glfw.False
}

func openGLFWWindow(c windowConfig) (*glfwWindow, error) {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("window: init glfw: %w", err)
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfwBool(c.resizable))

	win, err := glfw.CreateWindow(c.width, c.height, c.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("window: create %dx%d: %w", c.width, c.height, err)
	}
	w := &glfwWindow{win: win}
	// the framebuffer may be larger than requested on high-DPI displays
	w.width, w.height = win.GetFramebufferSize()
	w.lastX, w.lastY = win.GetCursorPos()

	win.SetKeyCallback(w.handleKey)
	win.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		if w.onScroll != nil {
			w.onScroll(float32(yoff))
		}
	})
	win.SetCursorPosCallback(w.handleCursor)
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.width, w.height = width, height
		if w.onResize != nil {
			w.onResize(width, height)
		}
	})
	return w, nil
}

func (w *glfwWindow) handleKey(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
	if key == glfw.KeyEscape && action == glfw.Press {
		w.win.SetShouldClose(true)
		return
	}
	switch {
	case action == glfw.Release && w.onKeyUp != nil:
		w.onKeyUp(uint32(key))
	case action != glfw.Release && w.onKeyDown != nil:
		w.onKeyDown(uint32(key))
	}
}

func (w *glfwWindow) handleCursor(_ *glfw.Window, x, y float64) {
	dx, dy := float32(x-w.lastX), float32(y-w.lastY)
	w.lastX, w.lastY = x, y
	if w.onDrag != nil && w.win.GetMouseButton(glfw.MouseButtonLeft) == glfw.Press {
		w.onDrag(dx, dy)
	}
	if w.onPan != nil && w.win.GetMouseButton(glfw.MouseButtonMiddle) == glfw.Press {
		w.onPan(dx, dy)
	}
}

func (w *glfwWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if w.closed {
		return nil
	}
	return wgpuglfw.GetSurfaceDescriptor(w.win)
}

func (w *glfwWindow) ProcessMessages() {
	for w.IsRunning() {
		glfw.PollEvents()
		if title := w.pendingTitle.Swap(nil); title != nil {
			w.win.SetTitle(*title)
		}
		if w.onUpdate != nil {
			w.onUpdate()
		}
		runtime.Gosched()
	}
}

func (w *glfwWindow) IsRunning() bool {
	return !w.closed && !w.win.ShouldClose()
}

// RequestClose relies on glfwSetWindowShouldClose being callable from any thread.
func (w *glfwWindow) RequestClose() {
	if !w.closed {
		w.win.SetShouldClose(true)
	}
}

func (w *glfwWindow) Close() error {
	if w.closed {
		return ErrClosed
	}
	w.closed = true
	w.win.Destroy()
	glfw.Terminate()
	return nil
}

func (w *glfwWindow) SetTitle(title string) {
	w.pendingTitle.Store(&title)
}

func (w *glfwWindow) Width() int  { return w.width }
func (w *glfwWindow) Height() int { return w.height }

func (w *glfwWindow) SetUpdateCallback(callback func())                  { w.onUpdate = callback }
func (w *glfwWindow) SetResizeCallback(callback func(width, height int)) { w.onResize = callback }
func (w *glfwWindow) SetScrollCallback(callback func(delta float32))     { w.onScroll = callback }
func (w *glfwWindow) SetKeyDownCallback(callback func(keyCode uint32))   { w.onKeyDown = callback }
func (w *glfwWindow) SetKeyUpCallback(callback func(keyCode uint32))     { w.onKeyUp = callback }
func (w *glfwWindow) SetDragCallback(callback func(dx, dy float32))      { w.onDrag = callback }
func (w *glfwWindow) SetPanCallback(callback func(dx, dy float32))       { w.onPan = callback }
