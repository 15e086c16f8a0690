package renderer

import (
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithWorkers sets the number of workers the software backend rasterizes with. Values below
// one select runtime.NumCPU().
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - RendererBuilderOption: a function that applies the worker option to a renderer
func WithWorkers(n int) RendererBuilderOption {
	return func(r *renderer) {
		if n < 1 {
			n = runtime.NumCPU()
		}
		r.workers = n
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}

// WithSurface makes the wgpu backend present to a window surface. Without it the wgpu
// backend renders offscreen only and Present returns an error.
//
// Parameters:
//   - desc: the platform surface descriptor, usually from window.Window.SurfaceDescriptor
//   - width: the surface width in pixels
//   - height: the surface height in pixels
//
// Returns:
//   - RendererBuilderOption: a function that applies the surface option to a renderer
func WithSurface(desc *wgpu.SurfaceDescriptor, width, height int) RendererBuilderOption {
	return func(r *renderer) {
		r.surface = desc
		r.surfaceWidth = width
		r.surfaceHeight = height
	}
}

// WithAnisotropicFiltering enables anisotropic filtering of material textures in the wgpu
// backend.
//
// Parameters:
//   - enabled: true to enable anisotropic filtering
//
// Returns:
//   - RendererBuilderOption: a function that applies the filtering option to a renderer
func WithAnisotropicFiltering(enabled bool) RendererBuilderOption {
	return func(r *renderer) {
		r.anisotropic = enabled
	}
}
