package engine

import (
	"time"

	"github.com/Carmen-Shannon/camsim-go/engine/camera"
	"github.com/Carmen-Shannon/camsim-go/engine/window"
)

// EngineBuilderOption configures an Engine at construction.
type EngineBuilderOption func(*engine)

// rateToPeriod converts a rate in Hz to a period; non-positive rates yield zero.
func rateToPeriod(hz float64) time.Duration {
	if hz <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / hz)
}

// WithWindow sets the window the engine presents to and reads input from. Run fails without one.
//
// Parameters:
//   - w: the preview window
//
// Returns:
//   - EngineBuilderOption: option setting the window
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) { e.window = w }
}

// WithCameraController replaces the default controller, which orbits the center of the scene
// bounds.
//
// Parameters:
//   - c: the camera controller
//
// Returns:
//   - EngineBuilderOption: option setting the controller
func WithCameraController(c camera.CameraController) EngineBuilderOption {
	return func(e *engine) { e.controller = c }
}

// WithProfiling shows the simulated timestamp and simulation rate in the window title.
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) { e.profilingEnabled = enabled }
}

// WithLoop sets whether playback wraps to the start timestamp after the end of the animation.
// Looping is on by default. Without it the timestamp keeps advancing past the end.
func WithLoop(loop bool) EngineBuilderOption {
	return func(e *engine) { e.loop = loop }
}

// WithStartTimestamp starts playback at t microseconds instead of the first animation keyframe.
// Timestamps outside the animation range are clamped to it.
func WithStartTimestamp(t int64) EngineBuilderOption {
	return func(e *engine) {
		e.startTimestamp = t
		e.hasStartTimestamp = true
	}
}

// WithTickRate sets the rate in Hz at which held keys move the camera. The default is 60 Hz.
func WithTickRate(hz float64) EngineBuilderOption {
	return func(e *engine) {
		if p := rateToPeriod(hz); p > 0 {
			e.engineTickRate = p
		}
	}
}

// WithRenderFrameLimit caps the number of simulated frames per second. Zero leaves the render
// loop uncapped, which is the default.
func WithRenderFrameLimit(hz float64) EngineBuilderOption {
	return func(e *engine) { e.renderFrameLimit = rateToPeriod(hz) }
}
