package simulator

import (
	"math/rand"
	"sync"
	"time"

	"github.com/Carmen-Shannon/camsim-go/engine/animation"
	"github.com/Carmen-Shannon/camsim-go/engine/config"
	"github.com/Carmen-Shannon/camsim-go/engine/renderer"
	"github.com/Carmen-Shannon/camsim-go/engine/scene"
	"github.com/Carmen-Shannon/camsim-go/engine/texdata"
)

// SimulatorBuilderOption is a functional option for configuring a Simulator.
// Use the With* functions to create options that are applied directly to the simulator instance.
type SimulatorBuilderOption func(*simulator)

// NewSimulator creates a new Simulator rendering on r with the default configuration: an empty
// scene, default chip timing, PMD, projection and pipeline, and RGB output only.
//
// Parameters:
//   - r: the renderer the simulator allocates its targets and programs on
//   - options: variadic list of SimulatorBuilderOption functions to configure the Simulator
//
// Returns:
//   - Simulator: a new Simulator instance
func NewSimulator(r renderer.Renderer, options ...SimulatorBuilderOption) Simulator {
	s := &simulator{
		mu:                   &sync.Mutex{},
		r:                    r,
		cameraAnimation:      &animation.Animation{},
		cameraTransformation: animation.Identity(),
		scene:                scene.NewScene(""),
		chipTiming:           config.DefaultChipTiming(),
		pmd:                  config.DefaultPMD(),
		projection:           config.DefaultProjection(),
		pipeline:             config.DefaultPipeline(),
		output:               config.DefaultOutput(),
		customTransformation: animation.Identity(),
		timestampGen:         newGeneration(),
		programGen:           newGeneration(),
		outputGen:            newGeneration(),
		depthPingPong:        true,
		readback:             make(map[readbackKey]texdata.TexData),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s
}

// WithScene sets the scene to simulate during construction.
//
// Parameters:
//   - sc: the scene
//
// Returns:
//   - SimulatorBuilderOption: option function to apply
func WithScene(sc scene.Scene) SimulatorBuilderOption {
	return func(s *simulator) {
		if sc != nil {
			s.scene = sc
		}
	}
}

// WithCameraAnimation sets the camera animation during construction.
//
// Parameters:
//   - a: the camera animation
//
// Returns:
//   - SimulatorBuilderOption: option function to apply
func WithCameraAnimation(a *animation.Animation) SimulatorBuilderOption {
	return func(s *simulator) {
		if a != nil {
			s.cameraAnimation = a
		}
	}
}

// WithCameraTransformation sets the fixed transformation applied on top of the camera animation.
//
// Parameters:
//   - t: the fixed camera transformation
//
// Returns:
//   - SimulatorBuilderOption: option function to apply
func WithCameraTransformation(t animation.Transformation) SimulatorBuilderOption {
	return func(s *simulator) {
		s.cameraTransformation = t
	}
}

// WithChipTiming sets the sensor timing.
func WithChipTiming(c config.ChipTiming) SimulatorBuilderOption {
	return func(s *simulator) {
		s.chipTiming = c
	}
}

// WithPMD sets the time-of-flight sensor parameters.
func WithPMD(p config.PMD) SimulatorBuilderOption {
	return func(s *simulator) {
		s.pmd = p
	}
}

// WithProjection sets the camera projection.
func WithProjection(p config.Projection) SimulatorBuilderOption {
	return func(s *simulator) {
		s.projection = p
	}
}

// WithPipeline sets the pipeline configuration.
func WithPipeline(p config.Pipeline) SimulatorBuilderOption {
	return func(s *simulator) {
		s.pipeline = p.Clone()
	}
}

// WithOutput sets the output selection.
func WithOutput(o config.Output) SimulatorBuilderOption {
	return func(s *simulator) {
		s.output = o
	}
}

// WithRandomSource sets the source of the per-frame noise seeds. A fixed source makes noisy
// outputs reproducible.
//
// Parameters:
//   - src: the random source
//
// Returns:
//   - SimulatorBuilderOption: option function to apply
func WithRandomSource(src rand.Source) SimulatorBuilderOption {
	return func(s *simulator) {
		s.rng = rand.New(src)
	}
}
