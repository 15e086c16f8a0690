package engine

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/camsim-go/common"
	"github.com/Carmen-Shannon/camsim-go/engine/camera"
	"github.com/Carmen-Shannon/camsim-go/engine/profiler"
	"github.com/Carmen-Shannon/camsim-go/engine/renderer"
	"github.com/Carmen-Shannon/camsim-go/engine/simulator"
	"github.com/Carmen-Shannon/camsim-go/engine/window"
)

// ErrNoWindow is returned by Run when the engine was built without a window.
var ErrNoWindow = errors.New("engine: no window")

// engine implements the Engine interface.
// Coordinates the input tick, simulate-and-present and window threads.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running atomic.Bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window     window.Window
	renderer   renderer.Renderer
	simulator  simulator.Simulator
	controller camera.CameraController

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	frameCallback  func(timestamp int64)
	keyCallback    func(keyCode uint32)

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	loop             bool
	paused           atomic.Bool

	startTimestamp    int64
	hasStartTimestamp bool

	keysMu   sync.Mutex
	heldKeys map[uint32]bool

	errMu sync.Mutex
	err   error
}

// Engine is the interactive preview of a simulator. It simulates frame after frame, presents the
// sRGB result in a window and maps keyboard and mouse input onto an orbit camera whose pose is
// set as the simulator's camera transformation.
//
// Controls: left drag or arrow keys orbit, middle drag or W/A/S/D/Q/E pan, scroll or +/- zoom,
// space pauses the animation, R reframes the scene and escape closes the window.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Simulator returns the simulator driven by the engine.
	//
	// Returns:
	//   - simulator.Simulator: the simulator
	Simulator() simulator.Simulator

	// CameraController returns the orbit camera controlled by the input.
	//
	// Returns:
	//   - camera.CameraController: the controller
	CameraController() camera.CameraController

	// Profiler returns the profiler recording simulate durations.
	//
	// Returns:
	//   - *profiler.Profiler: the profiler
	Profiler() *profiler.Profiler

	// EnableProfiler enables periodic performance output to the log.
	EnableProfiler()

	// DisableProfiler disables periodic performance output.
	DisableProfiler()

	// SetTickRate sets the input tick rate in ticks per second.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each input tick after held keys are applied.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetFrameCallback registers the function called after each simulated and presented frame.
	// It runs on the render goroutine, so simulator accessors are safe to use.
	//
	// Parameters:
	//   - callback: function receiving the simulated timestamp in microseconds
	SetFrameCallback(callback func(timestamp int64))

	// SetKeyCallback registers the function called for key presses the engine does not handle.
	//
	// Parameters:
	//   - callback: function receiving the virtual key code
	SetKeyCallback(callback func(keyCode uint32))

	// SetRenderFrameLimit sets an optional presentation rate cap in frames per second.
	//
	// Parameters:
	//   - fps: maximum frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Pause freezes the simulated timestamp. Camera input keeps updating the image.
	Pause()

	// Resume continues advancing the simulated timestamp.
	Resume()

	// Paused reports whether the simulated timestamp is frozen.
	//
	// Returns:
	//   - bool: true while paused
	Paused() bool

	// Run starts the preview and blocks until the window closes or a frame fails.
	//
	// Returns:
	//   - error: the failure of the render goroutine, or nil after a regular close
	Run() error

	// Quit signals all engine goroutines to stop and closes the window.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new preview Engine for a simulator.
//
// Parameters:
//   - r: the renderer the simulator runs on; it must present to the window surface
//   - sim: the simulator; its output must include sRGB
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(r renderer.Renderer, sim simulator.Simulator, options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		renderer:        r,
		simulator:       sim,
		profiler:        profiler.NewProfiler(),
		engineTickRate:  time.Second / 60,
		loop:            true,
		heldKeys:        make(map[uint32]bool),
	}
	for _, opt := range options {
		opt(e)
	}
	if e.controller == nil {
		e.controller = camera.NewCameraController()
		e.frameScene()
	}
	if e.window != nil {
		e.bindInput()
	}
	return e
}

// frameScene points the controller at the bounds of the simulated scene.
func (e *engine) frameScene() {
	sc := e.simulator.Scene()
	if sc == nil || len(sc.Objects()) == 0 {
		return
	}
	lo, hi := sc.Bounds()
	e.controller.FrameBounds(lo, hi, e.simulator.Projection().OpeningAngle())
}

func (e *engine) bindInput() {
	e.window.SetKeyDownCallback(func(keyCode uint32) {
		e.keysMu.Lock()
		e.heldKeys[keyCode] = true
		e.keysMu.Unlock()
		switch keyCode {
		case common.KeySpace:
			if e.paused.Load() {
				e.Resume()
			} else {
				e.Pause()
			}
		case common.KeyR:
			e.frameScene()
		default:
			if e.keyCallback != nil {
				e.keyCallback(keyCode)
			}
		}
	})
	e.window.SetKeyUpCallback(func(keyCode uint32) {
		e.keysMu.Lock()
		delete(e.heldKeys, keyCode)
		e.keysMu.Unlock()
	})
	e.window.SetScrollCallback(func(delta float32) {
		e.controller.Zoom(delta)
	})
	e.window.SetDragCallback(func(dx, dy float32) {
		e.controller.Drag(dx, dy)
	})
	e.window.SetPanCallback(func(dx, dy float32) {
		scale := e.controller.Radius() / float32(max(e.window.Height(), 1))
		e.controller.PanRight(-dx * scale)
		e.controller.PanUp(dy * scale)
	})
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Simulator() simulator.Simulator {
	return e.simulator
}

func (e *engine) CameraController() camera.CameraController {
	return e.controller
}

func (e *engine) Profiler() *profiler.Profiler {
	return e.profiler
}

func (e *engine) Run() error {
	if e.window == nil {
		return ErrNoWindow
	}
	e.running.Store(true)
	e.window.SetUpdateCallback(func() {
		select {
		case <-e.quitChannel:
			e.window.RequestClose()
		default:
		}
	})
	e.handle()
	e.window.ProcessMessages()
	e.signalQuit()
	e.wg.Wait()
	if err := e.window.Close(); err != nil {
		common.Logger().Warn("closing preview window", "err", err)
	}

	e.errMu.Lock()
	defer e.errMu.Unlock()
	return e.err
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running.Store(false)
		close(e.quitChannel)
	})
}

// fail records the first render goroutine error and stops the engine.
func (e *engine) fail(err error) {
	e.errMu.Lock()
	if e.err == nil {
		e.err = err
	}
	e.errMu.Unlock()
	e.signalQuit()
}

// handle launches the tick and render goroutines.
func (e *engine) handle() {
	e.wg.Add(2)
	go e.handleTick()
	go e.handleRender()
}

// handleTick runs the fixed-rate input loop. Held keys move the camera a fixed step per tick.
func (e *engine) handleTick() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()
	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now
			e.applyHeldKeys()
			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

func (e *engine) applyHeldKeys() {
	e.keysMu.Lock()
	held := make([]uint32, 0, len(e.heldKeys))
	for k := range e.heldKeys {
		held = append(held, k)
	}
	e.keysMu.Unlock()

	c := e.controller
	for _, k := range held {
		switch k {
		case common.KeyLeft:
			c.OrbitLeft()
		case common.KeyRight:
			c.OrbitRight()
		case common.KeyUp:
			c.OrbitUp()
		case common.KeyDown:
			c.OrbitDown()
		case common.KeyW:
			c.PanForward(1)
		case common.KeyS:
			c.PanForward(-1)
		case common.KeyA:
			c.PanRight(-1)
		case common.KeyD:
			c.PanRight(1)
		case common.KeyE:
			c.PanUp(1)
		case common.KeyQ:
			c.PanUp(-1)
		case common.KeyEqual, common.KeyKPAdd:
			c.Zoom(0.1)
		case common.KeyMinus, common.KeyKPSubtract:
			c.Zoom(-0.1)
		}
	}
}

// handleRender simulates and presents frames until quit. Simulate panics on configuration and
// render failures; the panic is recovered and returned from Run.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			if err, ok := r.(error); ok {
				e.fail(err)
				return
			}
			e.fail(fmt.Errorf("engine: %v", r))
		}
	}()

	sim := e.simulator
	t := e.firstTimestamp()
	warned := false
	for {
		select {
		case <-e.quitChannel:
			return
		default:
		}
		frameStart := time.Now()

		sim.SetCameraTransformation(e.controller.Transformation())
		e.profiler.Measure(func() { sim.Simulate(t) })

		if h, ok := sim.SRGBTarget(-1); ok {
			if err := e.renderer.Present(h); err != nil {
				e.fail(err)
				return
			}
		} else if !warned {
			common.Logger().Warn("preview has no sRGB output to present")
			warned = true
		}
		if e.frameCallback != nil {
			e.frameCallback(t)
		}
		if e.profilingEnabled && e.profiler.Tick() {
			e.window.SetTitle(fmt.Sprintf("camsim  t=%.3fs  %.1f sim fps", float64(t)/1e6, e.profiler.Stats().FramesPerSecond()))
		}

		if !e.paused.Load() {
			t = e.advance(t)
		}
		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - time.Since(frameStart); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

// firstTimestamp returns the timestamp playback starts at.
func (e *engine) firstTimestamp() int64 {
	start, end := e.simulator.StartTimestamp(), e.simulator.EndTimestamp()
	if !e.hasStartTimestamp {
		return start
	}
	return min(max(e.startTimestamp, start), end)
}

// advance returns the timestamp of the frame after t, wrapping to the start of the animation
// when looping.
func (e *engine) advance(t int64) int64 {
	start, end := e.simulator.StartTimestamp(), e.simulator.EndTimestamp()
	next := t + e.simulator.FrameDuration()
	if next > end && e.loop && end > start {
		return start
	}
	return next
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetTickRate sets the input tick rate in ticks per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	newRate := rateToPeriod(fps)
	if newRate <= 0 {
		newRate = time.Second / 60
	}

	if !e.running.Load() {
		e.engineTickRate = newRate
		return
	}
	// Non-blocking send - if channel is full, replace the pending value
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) SetFrameCallback(callback func(timestamp int64)) {
	e.frameCallback = callback
}

func (e *engine) SetKeyCallback(callback func(keyCode uint32)) {
	e.keyCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}

func (e *engine) Pause() {
	e.paused.Store(true)
}

func (e *engine) Resume() {
	e.paused.Store(false)
}

func (e *engine) Paused() bool {
	return e.paused.Load()
}
