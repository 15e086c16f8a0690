package renderer

import (
	"github.com/Carmen-Shannon/camsim-go/engine/light"
	"github.com/Carmen-Shannon/camsim-go/engine/renderer/shader"
	"github.com/Carmen-Shannon/camsim-go/engine/scene"
)

// RendererBackendType identifies the backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeSoftware selects the CPU reference backend. It needs no GPU and produces the
	// same results as the WGSL programs.
	BackendTypeSoftware RendererBackendType = iota

	// BackendTypeWGPU selects the WebGPU-based backend.
	BackendTypeWGPU
)

func (t RendererBackendType) String() string {
	switch t {
	case BackendTypeSoftware:
		return "software"
	case BackendTypeWGPU:
		return "wgpu"
	}
	return "unknown"
}

// ParseBackendType resolves a backend name as printed by RendererBackendType.String.
//
// Parameters:
//   - name: "software" or "wgpu"
//
// Returns:
//   - RendererBackendType: the backend type
//   - bool: false if the name is unknown
func ParseBackendType(name string) (RendererBackendType, bool) {
	switch name {
	case "software", "cpu":
		return BackendTypeSoftware, true
	case "wgpu", "gpu":
		return BackendTypeWGPU, true
	}
	return BackendTypeSoftware, false
}

// RendererBackend is the interface every backend implements. The Renderer serializes calls
// into it, so implementations need no locking of their own.
type RendererBackend interface {
	// Type retrieves the backend type.
	Type() RendererBackendType

	// CreateTarget allocates a render target.
	//
	// Parameters:
	//   - desc: the target descriptor, already validated
	//
	// Returns:
	//   - Handle: the new target handle
	//   - error: error if the allocation fails
	CreateTarget(desc TargetDescriptor) (Handle, error)

	// ReleaseTarget frees a target. Unknown handles are ignored.
	ReleaseTarget(h Handle)

	// TargetDescriptor retrieves the descriptor a target was created with.
	TargetDescriptor(h Handle) (TargetDescriptor, bool)

	// CompileProgram builds the program of a variant.
	//
	// Parameters:
	//   - v: the variant
	//
	// Returns:
	//   - Program: the compiled program
	//   - error: error if generation or validation fails
	CompileProgram(v shader.Variant) (Program, error)

	// UploadScene replaces the geometry and materials drawn by scene passes.
	//
	// Parameters:
	//   - s: the scene
	//
	// Returns:
	//   - error: error if an upload fails
	UploadScene(s scene.Scene) error

	// UploadPowerFactorMap replaces the power factor raster bound to a slot.
	//
	// Parameters:
	//   - slot: the slot index referenced by GPULight.PFIndex
	//   - m: the raster, first row at the bottom angle
	//
	// Returns:
	//   - error: error if the slot is out of range
	UploadPowerFactorMap(slot int, m light.PowerFactorMap) error

	// DrawScene executes a scene pass.
	DrawScene(pass ScenePass) error

	// DrawFullscreen executes a fullscreen pass.
	DrawFullscreen(pass FullscreenPass) error

	// CopyTarget copies all layers of src into dst. Both must have the same descriptor shape.
	CopyTarget(src, dst Handle) error

	// ReadTarget reads the first channels components of one layer, top row first.
	//
	// Parameters:
	//   - h: the target
	//   - layer: the layer index
	//   - channels: the number of leading components to return
	//
	// Returns:
	//   - []byte: packed components
	//   - error: error if the target is unknown or the read fails
	ReadTarget(h Handle, layer, channels int) ([]byte, error)

	// Present displays an RGBA8 target on the backend's surface.
	Present(h Handle) error

	// Release frees every resource of the backend.
	Release()
}
