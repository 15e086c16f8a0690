package renderer

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/camsim-go/common"
	"github.com/Carmen-Shannon/camsim-go/engine/light"
	"github.com/Carmen-Shannon/camsim-go/engine/renderer/shader"
	"github.com/Carmen-Shannon/camsim-go/engine/scene"
	"github.com/Carmen-Shannon/camsim-go/engine/texdata"
	"github.com/cogentcore/webgpu/wgpu"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	programCache map[string]Program

	backendType RendererBackendType
	backend     RendererBackend

	// Pre-creation config collected from builder options
	workers              int
	forceFallbackAdapter bool
	anisotropic          bool
	surface              *wgpu.SurfaceDescriptor
	surfaceWidth         int
	surfaceHeight        int
}

// Renderer defines the interface for the render pass system driven by the simulator.
//
// The Renderer owns render targets addressed by stable handles, caches compiled programs by
// variant key and executes scene and fullscreen passes on its backend. All methods are safe
// for concurrent use; passes execute in call order.
type Renderer interface {
	// Type retrieves the backend type the renderer runs on.
	//
	// Returns:
	//   - RendererBackendType: the backend type
	Type() RendererBackendType

	// CreateTarget allocates a render target.
	//
	// Parameters:
	//   - desc: the target descriptor
	//
	// Returns:
	//   - Handle: the target handle
	//   - error: error if the descriptor is invalid or the allocation fails
	CreateTarget(desc TargetDescriptor) (Handle, error)

	// ReleaseTarget frees a target. NoTarget and unknown handles are ignored.
	//
	// Parameters:
	//   - h: the target handle
	ReleaseTarget(h Handle)

	// Target retrieves the descriptor of a live target.
	//
	// Parameters:
	//   - h: the target handle
	//
	// Returns:
	//   - TargetDescriptor: the descriptor
	//   - bool: false if the handle is not live
	Target(h Handle) (TargetDescriptor, bool)

	// Program retrieves the compiled program of a variant, compiling and caching it on first use.
	//
	// Parameters:
	//   - v: the variant
	//
	// Returns:
	//   - Program: the compiled program
	//   - error: error if compilation fails
	Program(v shader.Variant) (Program, error)

	// Programs returns the keys of all cached programs.
	//
	// Returns:
	//   - []string: the cached program keys
	Programs() []string

	// ClearPrograms drops every cached program.
	ClearPrograms()

	// UploadScene replaces the geometry and materials drawn by scene passes.
	//
	// Parameters:
	//   - s: the scene
	//
	// Returns:
	//   - error: error if the upload fails
	UploadScene(s scene.Scene) error

	// UploadPowerFactorMap replaces the power factor raster bound to a slot.
	//
	// Parameters:
	//   - slot: the slot referenced by GPULight.PFIndex
	//   - m: the raster
	//
	// Returns:
	//   - error: error if the slot is out of range
	UploadPowerFactorMap(slot int, m light.PowerFactorMap) error

	// DrawScene executes a scene pass.
	//
	// Parameters:
	//   - pass: the pass description
	//
	// Returns:
	//   - error: error if a target is missing or the pass is inconsistent
	DrawScene(pass ScenePass) error

	// DrawFullscreen executes a fullscreen pass.
	//
	// Parameters:
	//   - pass: the pass description
	//
	// Returns:
	//   - error: error if a target is missing or the pass is inconsistent
	DrawFullscreen(pass FullscreenPass) error

	// CopyTarget copies the contents of src into dst.
	//
	// Parameters:
	//   - src: the source target
	//   - dst: the destination target with the same format, size and layer count
	//
	// Returns:
	//   - error: error if the targets are missing or incompatible
	CopyTarget(src, dst Handle) error

	// ReadTarget reads one layer of a target into a TexData, top row first.
	//
	// Parameters:
	//   - h: the target handle
	//   - layer: the layer index (cube side or array layer)
	//   - names: channel names; their count selects the leading channels returned
	//
	// Returns:
	//   - texdata.TexData: the pixel data
	//   - error: error if the target is missing or the read fails
	ReadTarget(h Handle, layer int, names ...string) (texdata.TexData, error)

	// Present displays an RGBA8 target on the surface configured with WithSurface.
	//
	// Parameters:
	//   - h: the target handle
	//
	// Returns:
	//   - error: error if the backend has no surface
	Present(h Handle) error

	// Release frees every target, program and backend resource.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer instance with the specified backend type.
//
// Parameters:
//   - backendType: the type of backend to use (software or WGPU)
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
//   - error: error if the backend cannot be created, e.g. no GPU adapter is available
func NewRenderer(backendType RendererBackendType, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:           &sync.Mutex{},
		programCache: make(map[string]Program),
		backendType:  backendType,
		workers:      runtime.NumCPU(),
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	switch backendType {
	case BackendTypeWGPU:
		b, err := newWGPURendererBackend(wgpuBackendConfig{
			forceFallbackAdapter: r.forceFallbackAdapter,
			anisotropic:          r.anisotropic,
			surface:              r.surface,
			surfaceWidth:         r.surfaceWidth,
			surfaceHeight:        r.surfaceHeight,
		})
		if err != nil {
			return nil, err
		}
		r.backend = b
	case BackendTypeSoftware:
		r.backend = newSoftwareRendererBackend(r.workers)
	default:
		return nil, fmt.Errorf("renderer: unknown backend type %d", backendType)
	}
	common.Logger().Info("renderer created", "backend", backendType.String(), "workers", r.workers)
	return r, nil
}

// newRendererWithBackend wraps an existing backend.
func newRendererWithBackend(b RendererBackend) *renderer {
	return &renderer{
		mu:           &sync.Mutex{},
		programCache: make(map[string]Program),
		backendType:  b.Type(),
		backend:      b,
	}
}

func (r *renderer) Type() RendererBackendType {
	return r.backendType
}

func (r *renderer) CreateTarget(desc TargetDescriptor) (Handle, error) {
	if err := desc.Validate(); err != nil {
		return NoTarget, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backend.CreateTarget(desc)
}

func (r *renderer) ReleaseTarget(h Handle) {
	if !h.IsValid() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend.ReleaseTarget(h)
}

func (r *renderer) Target(h Handle) (TargetDescriptor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backend.TargetDescriptor(h)
}

func (r *renderer) Program(v shader.Variant) (Program, error) {
	key := v.Key()
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.programCache[key]; ok {
		return p, nil
	}
	p, err := r.backend.CompileProgram(v)
	if err != nil {
		return nil, err
	}
	r.programCache[key] = p
	common.Logger().Debug("program compiled", "key", key)
	return p, nil
}

func (r *renderer) Programs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.programCache))
	for k := range r.programCache {
		keys = append(keys, k)
	}
	return keys
}

func (r *renderer) ClearPrograms() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.programCache = make(map[string]Program)
}

func (r *renderer) UploadScene(s scene.Scene) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backend.UploadScene(s)
}

func (r *renderer) UploadPowerFactorMap(slot int, m light.PowerFactorMap) error {
	if slot < 0 || slot >= shader.MaxPowerFactorSlots {
		return fmt.Errorf("renderer: power factor slot %d out of range [0, %d)", slot, shader.MaxPowerFactorSlots)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backend.UploadPowerFactorMap(slot, m)
}

func (r *renderer) DrawScene(pass ScenePass) error {
	if pass.Program == nil {
		return fmt.Errorf("renderer: scene pass %q has no program", pass.Label)
	}
	if !pass.Program.Variant().Pass.IsScenePass() {
		return fmt.Errorf("renderer: scene pass %q uses fullscreen program %s", pass.Label, pass.Program.Key())
	}
	if want := len(pass.Program.Variant().Outputs()); len(pass.Color) != want {
		return fmt.Errorf("renderer: scene pass %q binds %d color targets, program %s writes %d", pass.Label, len(pass.Color), pass.Program.Key(), want)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backend.DrawScene(pass)
}

func (r *renderer) DrawFullscreen(pass FullscreenPass) error {
	if pass.Program == nil {
		return fmt.Errorf("renderer: fullscreen pass %q has no program", pass.Label)
	}
	v := pass.Program.Variant()
	if v.Pass.IsScenePass() {
		return fmt.Errorf("renderer: fullscreen pass %q uses scene program %s", pass.Label, pass.Program.Key())
	}
	if len(pass.Inputs) != v.InputCount() {
		return fmt.Errorf("renderer: fullscreen pass %q binds %d inputs, program %s reads %d", pass.Label, len(pass.Inputs), pass.Program.Key(), v.InputCount())
	}
	if len(pass.Outputs) != len(v.Outputs()) {
		return fmt.Errorf("renderer: fullscreen pass %q binds %d outputs, program %s writes %d", pass.Label, len(pass.Outputs), pass.Program.Key(), len(v.Outputs()))
	}
	if v.Pass == shader.PassOversampleReduce && len(pass.Weights) != v.WeightsWidth*v.WeightsHeight {
		return fmt.Errorf("renderer: fullscreen pass %q has %d weights, want %d", pass.Label, len(pass.Weights), v.WeightsWidth*v.WeightsHeight)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backend.DrawFullscreen(pass)
}

func (r *renderer) CopyTarget(src, dst Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.backend.TargetDescriptor(src)
	if !ok {
		return fmt.Errorf("renderer: copy source %d is not a live target", src)
	}
	d, ok := r.backend.TargetDescriptor(dst)
	if !ok {
		return fmt.Errorf("renderer: copy destination %d is not a live target", dst)
	}
	if s.Format != d.Format || s.Width != d.Width || s.Height != d.Height || s.LayerCount() != d.LayerCount() {
		return fmt.Errorf("renderer: cannot copy %q into %q: incompatible targets", s.Label, d.Label)
	}
	return r.backend.CopyTarget(src, dst)
}

func (r *renderer) ReadTarget(h Handle, layer int, names ...string) (texdata.TexData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	desc, ok := r.backend.TargetDescriptor(h)
	if !ok {
		return texdata.TexData{}, fmt.Errorf("renderer: target %d is not live", h)
	}
	if layer < 0 || layer >= desc.LayerCount() {
		return texdata.TexData{}, fmt.Errorf("renderer: target %q has no layer %d", desc.Label, layer)
	}
	channels := len(names)
	if channels == 0 {
		channels = desc.Format.Channels()
	}
	if channels > desc.Format.Channels() {
		return texdata.TexData{}, fmt.Errorf("renderer: target %q has %d channels, %d requested", desc.Label, desc.Format.Channels(), channels)
	}
	data, err := r.backend.ReadTarget(h, layer, channels)
	if err != nil {
		return texdata.TexData{}, err
	}
	return texdata.NewTexData(desc.Width, desc.Height, channels, formatTexDataType(desc.Format), data, names...)
}

func (r *renderer) Present(h Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backend.Present(h)
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.programCache = make(map[string]Program)
	r.backend.Release()
}

// formatTexDataType returns the element type of a target format after readback.
func formatTexDataType(f TargetFormat) texdata.Type {
	switch f {
	case FormatRGBA8:
		return texdata.TypeUint8
	case FormatRGBA32UI:
		return texdata.TypeUint32
	}
	return texdata.TypeFloat32
}
