package shader

import (
	_ "embed"
	"fmt"
)

// PassUniformsSource is the WGSL definition of the per-pass uniform block of scene passes.
// Matches renderer.GPUPassUniforms exactly (272 bytes).
//
//go:embed assets/pass_uniforms.wgsl
var PassUniformsSource string

// ObjectUniformsSource is the WGSL definition of the per-object matrices of scene passes.
// Matches renderer.GPUObjectUniforms exactly (448 bytes).
//
//go:embed assets/object_uniforms.wgsl
var ObjectUniformsSource string

// DrawInfoSource is the WGSL definition of the per-draw lookup record (16 bytes).
//
//go:embed assets/draw_info.wgsl
var DrawInfoSource string

// FullscreenUniformsSource is the WGSL definition of the uniform block of fullscreen passes.
// Matches renderer.GPUFullscreenUniforms exactly (96 bytes).
//
//go:embed assets/fullscreen_uniforms.wgsl
var FullscreenUniformsSource string

//go:embed assets/common.wgsl
var commonSource string

//go:embed assets/scene_vertex.wgsl
var sceneVertexSource string

//go:embed assets/surface.wgsl
var surfaceSource string

//go:embed assets/light_model.wgsl
var lightModelSource string

//go:embed assets/fullscreen_vertex.wgsl
var fullscreenVertexSource string

//go:embed assets/depth.wgsl
var depthSource string

//go:embed assets/rsm.wgsl
var rsmSource string

//go:embed assets/light.wgsl
var lightSource string

//go:embed assets/geometry.wgsl
var geometrySource string

//go:embed assets/flow.wgsl
var flowSource string

//go:embed assets/reduce.wgsl
var reduceSource string

//go:embed assets/pmd_dignum.wgsl
var pmdDigNumSource string

//go:embed assets/rgb_result.wgsl
var rgbResultSource string

//go:embed assets/pmd_result.wgsl
var pmdResultSource string

//go:embed assets/srgb.wgsl
var srgbSource string

//go:embed assets/pmd_coordinates.wgsl
var pmdCoordinatesSource string

//go:embed assets/postproc.wgsl
var postprocSource string

// passSource returns the annotated WGSL template of a pass.
func passSource(k PassKind) (string, error) {
	switch k {
	case PassShadowMap, PassDepthPrepass:
		return depthSource, nil
	case PassReflectiveShadowMap:
		return rsmSource, nil
	case PassLight:
		return lightSource, nil
	case PassOversampleReduce:
		return reduceSource, nil
	case PassPMDDigNum:
		return pmdDigNumSource, nil
	case PassRGBResult:
		return rgbResultSource, nil
	case PassPMDResult:
		return pmdResultSource, nil
	case PassConvertSRGB:
		return srgbSource, nil
	case PassPMDCoordinates:
		return pmdCoordinatesSource, nil
	case PassGeometry:
		return geometrySource, nil
	case PassFlow:
		return flowSource, nil
	case PassPostprocDistortion:
		return postprocSource, nil
	}
	return "", fmt.Errorf("shader: no source for pass %v", k)
}
