package renderer

import (
	"github.com/Carmen-Shannon/camsim-go/engine/light"
	"github.com/Carmen-Shannon/camsim-go/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
)

// Program is a compiled program variant owned by a backend.
type Program interface {
	// Key retrieves the variant key the program is cached under.
	//
	// Returns:
	//   - string: the program key
	Key() string

	// Variant retrieves the variant the program implements.
	//
	// Returns:
	//   - shader.Variant: the variant
	Variant() shader.Variant
}

// DepthCompare selects the depth test of a scene pass.
type DepthCompare int

const (
	// DepthLess keeps fragments strictly closer than the stored depth.
	DepthLess DepthCompare = iota

	// DepthLessEqual keeps fragments at or in front of the stored depth. Used after a depth
	// prepass so that only the visible surface is shaded.
	DepthLessEqual
)

// ColorAttachment binds one layer of a target to a color output location.
type ColorAttachment struct {
	Target Handle
	Layer  int
}

// PassUniforms holds the per-pass parameters of scene passes. Matrices use OpenGL clip space
// conventions; the wgpu backend converts them on upload.
type PassUniforms struct {
	Projection   mgl32.Mat4
	InvertedView mgl32.Mat4
	Near, Far    float32

	NoiseSeeds mgl32.Vec4

	// Distortion holds k1, k2, p1, p2 of the preprocessing lens distortion.
	Distortion       mgl32.Vec4
	Focal            mgl32.Vec2
	Center           mgl32.Vec2
	ImageSize        mgl32.Vec2
	DistortionCorner mgl32.Vec2
	DistortionMargin float32

	TemporalSamples float32
	ExposureTime    float32
	ApertureRatio   float32
	PixelArea       float32
	FracModFreqC    float32
	Contrast        float32
	Tau             float32

	NoiseMean   float32
	NoiseStddev float32

	RSMSamples uint32
	SubFrame   uint32
}

// ObjectUniforms holds the matrices of one scene object for one pass.
type ObjectUniforms struct {
	ModelView     mgl32.Mat4
	MVP           mgl32.Mat4
	NormalMatrix  mgl32.Mat4
	LastModelView mgl32.Mat4
	NextModelView mgl32.Mat4
	Custom        mgl32.Mat4
	CustomNormal  mgl32.Mat4
}

// ScenePass draws every uploaded shape of the scene with one program.
type ScenePass struct {
	Label   string
	Program Program

	// Color lists the attachments in output location order.
	Color []ColorAttachment

	Depth      Handle
	DepthLayer int

	ClearColor   bool
	ClearDepth   bool
	DepthCompare DepthCompare
	DepthWrite   bool

	Uniforms PassUniforms

	// Objects is indexed by scene object index.
	Objects []ObjectUniforms
	Lights  []light.GPULight

	// Slots bound to lights through GPULight.ShadowIndex, RSMIndex and PFIndex. Unused
	// slots are NoTarget.
	ShadowMaps [shader.MaxShadowSlots]Handle
	RSMs       [shader.MaxRSMSlots]Handle

	// LastDepth is the depth target of the previous timestamp read by backward flow.
	LastDepth Handle
}

// NewScenePass returns a pass with every optional target set to NoTarget.
//
// Parameters:
//   - label: the pass label used in logs
//   - p: the program to draw with
//
// Returns:
//   - ScenePass: the pass
func NewScenePass(label string, p Program) ScenePass {
	sp := ScenePass{
		Label:     label,
		Program:   p,
		Depth:     NoTarget,
		LastDepth: NoTarget,
	}
	for i := range sp.ShadowMaps {
		sp.ShadowMaps[i] = NoTarget
	}
	for i := range sp.RSMs {
		sp.RSMs[i] = NoTarget
	}
	return sp
}

// FullscreenUniforms holds the parameters of fullscreen passes.
type FullscreenUniforms struct {
	FracCModFreq      float32
	PhotonEnergy      float32
	QuantumEfficiency float32
	MaxElectrons      float32
	NoiseSeeds        mgl32.Vec4
	Distortion        mgl32.Vec4
	Focal             mgl32.Vec2
	Center            mgl32.Vec2
}

// FullscreenPass runs a program once per pixel of its outputs. All outputs share one size.
type FullscreenPass struct {
	Label   string
	Program Program
	Inputs  []Handle
	Outputs []Handle

	// Blend adds the results to the outputs instead of replacing them.
	Blend bool

	Uniforms FullscreenUniforms

	// Weights is the row-major sample raster of an oversample reduction, top row first.
	Weights []float32
}
