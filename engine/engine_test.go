package engine

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/camsim-go/common"
	"github.com/Carmen-Shannon/camsim-go/engine/animation"
	"github.com/Carmen-Shannon/camsim-go/engine/config"
	"github.com/Carmen-Shannon/camsim-go/engine/light"
	"github.com/Carmen-Shannon/camsim-go/engine/model"
	"github.com/Carmen-Shannon/camsim-go/engine/renderer"
	"github.com/Carmen-Shannon/camsim-go/engine/scene"
	"github.com/Carmen-Shannon/camsim-go/engine/simulator"
	"github.com/go-gl/mathgl/mgl32"
)

func newTestEngine(t *testing.T, options ...EngineBuilderOption) *engine {
	t.Helper()
	r, err := renderer.NewRenderer(renderer.BackendTypeSoftware, renderer.WithWorkers(1))
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	t.Cleanup(r.Release)

	box := &model.Mesh{
		Positions: []mgl32.Vec3{{-1, 0, -1}, {1, 0, -1}, {1, 2, 1}},
		Indices:   []uint32{0, 1, 2},
	}
	anim := animation.NewAnimation(
		animation.Keyframe{Timestamp: 0, Transformation: animation.Identity()},
		animation.Keyframe{Timestamp: 100000, Transformation: animation.Identity()},
	)
	sc := scene.NewScene("test", scene.WithLights(light.NewLight(light.LightTypePoint)))
	sc.AddObject(model.NewObject(model.WithShape(box, 0)), anim)

	sim := simulator.NewSimulator(r,
		simulator.WithScene(sc),
		simulator.WithProjection(config.ProjectionFromOpeningAngle(8, 6, 60)),
		simulator.WithChipTiming(config.ChipTiming{ExposureTime: 0.02, ReadoutTime: 0.02}),
	)
	t.Cleanup(sim.Release)
	return NewEngine(r, sim, options...).(*engine)
}

func TestNewEngineFramesScene(t *testing.T) {
	e := newTestEngine(t)
	if got := e.CameraController().Target(); !got.ApproxEqual(mgl32.Vec3{0, 1, 0}) {
		t.Errorf("Target() = %v, want the scene center (0, 1, 0)", got)
	}
}

func TestAdvance(t *testing.T) {
	tests := []struct {
		name string
		loop bool
		t    int64
		want int64
	}{
		{"inside", true, 0, 40000},
		{"last frame", true, 80000, 0},
		{"no loop", false, 80000, 120000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, WithLoop(tt.loop))
			if got := e.advance(tt.t); got != tt.want {
				t.Errorf("advance(%d) = %d, want %d", tt.t, got, tt.want)
			}
		})
	}
}

func TestApplyHeldKeys(t *testing.T) {
	e := newTestEngine(t)
	c := e.CameraController()
	azimuth := c.Azimuth()
	target := c.Target()

	e.heldKeys[common.KeyRight] = true
	e.heldKeys[common.KeyD] = true
	e.applyHeldKeys()

	if c.Azimuth() <= azimuth {
		t.Errorf("Azimuth() = %v, want more than %v", c.Azimuth(), azimuth)
	}
	if c.Target().ApproxEqual(target) {
		t.Error("Target() unchanged while a pan key is held")
	}
}

func TestPauseResume(t *testing.T) {
	e := newTestEngine(t)
	e.Pause()
	if !e.Paused() {
		t.Error("Paused() = false after Pause")
	}
	e.Resume()
	if e.Paused() {
		t.Error("Paused() = true after Resume")
	}
}

func TestRunWithoutWindow(t *testing.T) {
	e := newTestEngine(t)
	if err := e.Run(); !errors.Is(err, ErrNoWindow) {
		t.Errorf("Run() error = %v, want %v", err, ErrNoWindow)
	}
}

func TestFirstTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		options []EngineBuilderOption
		want    int64
	}{
		{"animation start", nil, 0},
		{"inside", []EngineBuilderOption{WithStartTimestamp(40000)}, 40000},
		{"before start", []EngineBuilderOption{WithStartTimestamp(-5)}, 0},
		{"after end", []EngineBuilderOption{WithStartTimestamp(1e9)}, 100000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, tt.options...)
			if got := e.firstTimestamp(); got != tt.want {
				t.Errorf("firstTimestamp() = %d, want %d", got, tt.want)
			}
		})
	}
}
