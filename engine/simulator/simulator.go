// Package simulator drives the frame simulation: it derives the timestamp schedule, resolves the
// animated scene state per sub-frame and runs the render passes that produce the configured outputs.
package simulator

import (
	"math/rand"
	"sync"

	"github.com/Carmen-Shannon/camsim-go/engine/animation"
	"github.com/Carmen-Shannon/camsim-go/engine/config"
	"github.com/Carmen-Shannon/camsim-go/engine/renderer"
	"github.com/Carmen-Shannon/camsim-go/engine/scene"
	"github.com/Carmen-Shannon/camsim-go/engine/texdata"
)

// generation tracks one memoized resource. Setters bump want; a resolution copies want to have.
type generation struct {
	want, have uint64
}

func newGeneration() generation {
	return generation{want: 1}
}

func (g *generation) invalidate() {
	g.want++
}

func (g generation) stale() bool {
	return g.want != g.have
}

func (g *generation) resolved() {
	g.have = g.want
}

// simulator is the implementation of the Simulator interface.
type simulator struct {
	mu *sync.Mutex

	r   renderer.Renderer
	rng *rand.Rand

	cameraAnimation      *animation.Animation
	cameraTransformation animation.Transformation
	scene                scene.Scene
	chipTiming           config.ChipTiming
	pmd                  config.PMD
	projection           config.Projection
	pipeline             config.Pipeline
	output               config.Output
	customTransformation animation.Transformation

	timestampGen generation
	programGen   generation
	outputGen    generation

	startTimestamp int64
	endTimestamp   int64

	haveLastFrame      bool
	lastFrameTimestamp int64
	// depthPingPong selects which of the first two depth buffers receives the current frame
	// when a frame has a single sub-frame.
	depthPingPong bool

	programs     *programSet
	slots        lightSlots
	powerFactors []powerFactorState
	targets      *targetSet
	frame        frameState

	readback map[readbackKey]texdata.TexData
}

// Simulator defines the interface for the frame simulation orchestrator.
//
// Configuration setters only invalidate cached state; the programs, render targets and timestamp
// bounds are resolved at the start of the next Simulate call or timestamp query. A Simulator owns
// every target it allocates on its Renderer and must not be used from several goroutines at once.
type Simulator interface {
	// SetCameraAnimation sets the animation that moves the camera over time.
	//
	// Parameters:
	//   - a: the camera animation; nil is treated as an empty animation
	SetCameraAnimation(a *animation.Animation)

	// CameraAnimation retrieves the camera animation.
	//
	// Returns:
	//   - *animation.Animation: the camera animation
	CameraAnimation() *animation.Animation

	// SetCameraTransformation sets a fixed transformation applied on top of the camera animation,
	// e.g. the pose of a camera mounted on an animated rig.
	//
	// Parameters:
	//   - t: the fixed camera transformation
	SetCameraTransformation(t animation.Transformation)

	// SetScene sets the scene to simulate. A nil scene is replaced by an empty one.
	//
	// Parameters:
	//   - s: the scene
	SetScene(s scene.Scene)

	// Scene retrieves the simulated scene.
	//
	// Returns:
	//   - scene.Scene: the scene
	Scene() scene.Scene

	// SetChipTiming sets the sensor exposure and readout timing.
	//
	// Parameters:
	//   - c: the chip timing
	SetChipTiming(c config.ChipTiming)

	// ChipTiming retrieves the sensor timing.
	//
	// Returns:
	//   - config.ChipTiming: the chip timing
	ChipTiming() config.ChipTiming

	// SetPMD sets the time-of-flight sensor parameters.
	//
	// Parameters:
	//   - p: the PMD parameters
	SetPMD(p config.PMD)

	// PMDConfig retrieves the time-of-flight sensor parameters.
	//
	// Returns:
	//   - config.PMD: the PMD parameters
	PMDConfig() config.PMD

	// SetProjection sets the camera projection and image size.
	//
	// Parameters:
	//   - p: the projection
	SetProjection(p config.Projection)

	// Projection retrieves the camera projection.
	//
	// Returns:
	//   - config.Projection: the projection
	Projection() config.Projection

	// SetPipeline sets the simulation pipeline features.
	//
	// Parameters:
	//   - p: the pipeline configuration
	SetPipeline(p config.Pipeline)

	// Pipeline retrieves the pipeline configuration.
	//
	// Returns:
	//   - config.Pipeline: a copy of the pipeline configuration
	Pipeline() config.Pipeline

	// SetOutput selects the outputs to produce.
	//
	// Parameters:
	//   - o: the output selection
	SetOutput(o config.Output)

	// Output retrieves the output selection.
	//
	// Returns:
	//   - config.Output: the output selection
	Output() config.Output

	// SetCustomTransformation sets the transformation that defines the custom coordinate space
	// of the custom space position and normal outputs.
	//
	// Parameters:
	//   - t: the world to custom space transformation
	SetCustomTransformation(t animation.Transformation)

	// CustomTransformation retrieves the custom space transformation.
	//
	// Returns:
	//   - animation.Transformation: the custom space transformation
	CustomTransformation() animation.Transformation

	// StartTimestamp returns the earliest keyframe timestamp of the camera, light and object animations.
	//
	// Returns:
	//   - int64: the start timestamp in microseconds
	StartTimestamp() int64

	// EndTimestamp returns the latest keyframe timestamp of the camera, light and object animations.
	//
	// Returns:
	//   - int64: the end timestamp in microseconds
	EndTimestamp() int64

	// SubFrames returns the number of sub-frames per frame: four for PMD output, one otherwise.
	//
	// Returns:
	//   - int: the sub-frame count
	SubFrames() int

	// SubFrameDuration returns the exposure plus readout time of one sub-frame.
	//
	// Returns:
	//   - int64: the duration in microseconds
	SubFrameDuration() int64

	// FrameDuration returns the duration of all sub-frames of a frame plus the pause time.
	//
	// Returns:
	//   - int64: the duration in microseconds
	FrameDuration() int64

	// FramesPerSecond returns the frame rate implied by FrameDuration.
	//
	// Returns:
	//   - float64: frames per second
	FramesPerSecond() float64

	// NextFrameTimestamp returns the timestamp of the frame to simulate next: the start timestamp
	// if no frame was simulated since the last configuration change, else the last frame's
	// timestamp plus the frame duration.
	//
	// Returns:
	//   - int64: the timestamp in microseconds
	NextFrameTimestamp() int64

	// Simulate renders one frame at timestamp t. Invalid configurations panic with a *ConfigError
	// before any pass runs.
	//
	// Parameters:
	//   - t: the frame timestamp in microseconds
	Simulate(t int64)

	// HaveValidOutput reports whether results of sub-frame i are available. Index -1 denotes the
	// final result of the frame.
	//
	// Parameters:
	//   - i: the sub-frame index or -1
	//
	// Returns:
	//   - bool: true if a frame was simulated under the current configuration and i is in range
	HaveValidOutput(i int) bool

	// Timestamp returns the timestamp of sub-frame i of the last simulated frame.
	//
	// Parameters:
	//   - i: the sub-frame index, -1 selects sub-frame 0
	//
	// Returns:
	//   - int64: the timestamp in microseconds, 0 if no valid output exists
	Timestamp(i int) int64

	// CameraTransformation returns the interpolated camera animation pose of sub-frame i.
	//
	// Parameters:
	//   - i: the sub-frame index, -1 selects sub-frame 0
	//
	// Returns:
	//   - animation.Transformation: the pose, identity if no valid output exists
	CameraTransformation(i int) animation.Transformation

	// LightTransformation returns the interpolated pose of a light in sub-frame i.
	//
	// Parameters:
	//   - light: the light index
	//   - i: the sub-frame index, -1 selects sub-frame 0
	//
	// Returns:
	//   - animation.Transformation: the pose, identity if no valid output exists
	LightTransformation(light, i int) animation.Transformation

	// ObjectTransformation returns the interpolated pose of an object in sub-frame i.
	//
	// Parameters:
	//   - object: the object index
	//   - i: the sub-frame index, -1 selects sub-frame 0
	//
	// Returns:
	//   - animation.Transformation: the pose, identity if no valid output exists
	ObjectTransformation(object, i int) animation.Transformation

	// Depth returns the depth buffer of sub-frame i with one channel "gldepth". It is only
	// available when the light pass renders at image size or a geometry or flow output is enabled.
	Depth(i int) texdata.TexData

	// RGB returns the linear radiance image with channels r, g, b. Index -1 selects the frame result.
	RGB(i int) texdata.TexData

	// SRGB returns the 8-bit sRGB image with channels r, g, b. Index -1 selects the frame result.
	SRGB(i int) texdata.TexData

	// PMD returns the PMD result. Index -1 yields range, amplitude and intensity; a sub-frame index
	// yields the phase image digital numbers a_minus_b, a_plus_b, a, b.
	PMD(i int) texdata.TexData

	// PMDCoordinates returns the eye-space coordinates x, y, z derived from the PMD range. Only
	// index -1 is valid.
	PMDCoordinates(i int) texdata.TexData

	// EyeSpacePositions returns eye-space positions x, y, z of sub-frame i.
	EyeSpacePositions(i int) texdata.TexData

	// CustomSpacePositions returns custom-space positions x, y, z of sub-frame i.
	CustomSpacePositions(i int) texdata.TexData

	// EyeSpaceNormals returns eye-space normals nx, ny, nz of sub-frame i.
	EyeSpaceNormals(i int) texdata.TexData

	// CustomSpaceNormals returns custom-space normals nx, ny, nz of sub-frame i.
	CustomSpaceNormals(i int) texdata.TexData

	// DepthAndRange returns the eye-space depth and the range of sub-frame i.
	DepthAndRange(i int) texdata.TexData

	// Indices returns object_index, shape_index, triangle_index and material_index of sub-frame i.
	Indices(i int) texdata.TexData

	// ForwardFlow3D returns the 3D eye-space motion to the next sub-frame.
	ForwardFlow3D(i int) texdata.TexData

	// ForwardFlow2D returns the pixel motion to the next sub-frame.
	ForwardFlow2D(i int) texdata.TexData

	// BackwardFlow3D returns the 3D eye-space motion to the previous sub-frame.
	BackwardFlow3D(i int) texdata.TexData

	// BackwardFlow2D returns the pixel motion to the previous sub-frame.
	BackwardFlow2D(i int) texdata.TexData

	// ShadowMap returns the depth of one side of a light's shadow cube map in sub-frame i.
	//
	// Parameters:
	//   - light: the light index
	//   - side: the cube side in [0, 6)
	//   - i: the sub-frame index, -1 selects sub-frame 0
	//
	// Returns:
	//   - texdata.TexData: the depth, invalid if the light has no shadow map
	ShadowMap(light, side, i int) texdata.TexData

	// ReflectiveShadowMapPositions returns camera eye-space positions stored in one side of a
	// light's reflective shadow map.
	ReflectiveShadowMapPositions(light, side, i int) texdata.TexData

	// ReflectiveShadowMapNormals returns camera eye-space normals stored in one side of a light's
	// reflective shadow map.
	ReflectiveShadowMapNormals(light, side, i int) texdata.TexData

	// ReflectiveShadowMapRadiances returns the reflected flux stored in one side of a light's
	// reflective shadow map.
	ReflectiveShadowMapRadiances(light, side, i int) texdata.TexData

	// ReflectiveShadowMapBRDFDiffuseParameters returns the diffuse reflectance kdr, kdg, kdb.
	ReflectiveShadowMapBRDFDiffuseParameters(light, side, i int) texdata.TexData

	// ReflectiveShadowMapBRDFSpecularParameters returns ksr, ksg, ksb and the shininess.
	ReflectiveShadowMapBRDFSpecularParameters(light, side, i int) texdata.TexData

	// SRGBTarget returns the render target holding the sRGB image of sub-frame i, for presenting
	// it without a readback.
	//
	// Parameters:
	//   - i: the sub-frame index or -1
	//
	// Returns:
	//   - renderer.Handle: the target handle
	//   - bool: false if no valid sRGB output exists
	SRGBTarget(i int) (renderer.Handle, bool)

	// Release frees every render target owned by the simulator. The simulator can be used again
	// afterwards; targets are recreated on the next Simulate call.
	Release()
}

var _ Simulator = &simulator{}

func (s *simulator) SetCameraAnimation(a *animation.Animation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a == nil {
		a = &animation.Animation{}
	}
	s.cameraAnimation = a
	s.timestampGen.invalidate()
}

func (s *simulator) CameraAnimation() *animation.Animation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cameraAnimation
}

func (s *simulator) SetCameraTransformation(t animation.Transformation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cameraTransformation = t
}

func (s *simulator) SetScene(sc scene.Scene) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sc == nil {
		sc = scene.NewScene("")
	}
	s.scene = sc
	s.programGen.invalidate()
	s.timestampGen.invalidate()
	s.outputGen.invalidate()
}

func (s *simulator) Scene() scene.Scene {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scene
}

func (s *simulator) SetChipTiming(c config.ChipTiming) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chipTiming = c
	s.timestampGen.invalidate()
}

func (s *simulator) ChipTiming() config.ChipTiming {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chipTiming
}

func (s *simulator) SetPMD(p config.PMD) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pmd = p
}

func (s *simulator) PMDConfig() config.PMD {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pmd
}

func (s *simulator) SetProjection(p config.Projection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projection = p
	s.outputGen.invalidate()
}

func (s *simulator) Projection() config.Projection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projection
}

func (s *simulator) SetPipeline(p config.Pipeline) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pipeline = p.Clone()
	s.programGen.invalidate()
	s.outputGen.invalidate()
}

func (s *simulator) Pipeline() config.Pipeline {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pipeline.Clone()
}

func (s *simulator) SetOutput(o config.Output) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.output = o
	s.programGen.invalidate()
	s.outputGen.invalidate()
}

func (s *simulator) Output() config.Output {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.output
}

func (s *simulator) SetCustomTransformation(t animation.Transformation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customTransformation = t
}

func (s *simulator) CustomTransformation() animation.Transformation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.customTransformation
}

func (s *simulator) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.targets != nil {
		s.targets.release(s.r)
		s.targets = nil
	}
	s.outputGen.invalidate()
	s.haveLastFrame = false
	s.clearReadback()
}

// epochChanged forgets the last frame after programs, targets or timestamps were recreated.
func (s *simulator) epochChanged() {
	s.haveLastFrame = false
	s.depthPingPong = true
	s.clearReadback()
}
