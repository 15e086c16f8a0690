package shader

import (
	"fmt"
	"math/bits"
	"strings"
)

// PassKind identifies the render pass a program variant is built for.
type PassKind int

const (
	// PassShadowMap renders light-space depth into one face of a shadow cube.
	PassShadowMap PassKind = iota

	// PassReflectiveShadowMap renders positions, normals, radiances and BRDF parameters into
	// one face of a reflective shadow map.
	PassReflectiveShadowMap

	// PassDepthPrepass renders camera depth only, ahead of the light pass.
	PassDepthPrepass

	// PassLight shades the scene into the RGB and/or PMD energy targets.
	PassLight

	// PassOversampleReduce filters an oversampled light result down to the image size.
	PassOversampleReduce

	// PassPMDDigNum converts PMD energies into digital numbers.
	PassPMDDigNum

	// PassRGBResult combines the RGB sub-frames of a frame.
	PassRGBResult

	// PassPMDResult combines the four PMD phase images into range, amplitude and intensity.
	PassPMDResult

	// PassConvertSRGB converts linear RGB into 8-bit sRGB.
	PassConvertSRGB

	// PassPMDCoordinates turns PMD range into eye-space coordinates.
	PassPMDCoordinates

	// PassGeometry writes the geometry outputs (positions, normals, depth, indices).
	PassGeometry

	// PassFlow writes the forward and backward 2D/3D flow outputs.
	PassFlow

	// PassPostprocDistortion applies lens distortion to an already rendered image.
	PassPostprocDistortion

	passKindCount
)

var passKindNames = [passKindCount]string{
	"shadowmap", "rsm", "depthprepass", "light", "reduce", "pmddignum", "rgbresult",
	"pmdresult", "srgb", "pmdcoordinates", "geometry", "flow", "postproc",
}

// String returns the short name used in program keys and logs.
func (k PassKind) String() string {
	if k < 0 || k >= passKindCount {
		return fmt.Sprintf("pass(%d)", int(k))
	}
	return passKindNames[k]
}

// IsScenePass reports whether the pass rasterizes scene geometry rather than a fullscreen quad.
//
// Returns:
//   - bool: true for shadow map, RSM, depth prepass, light, geometry and flow passes
func (k PassKind) IsScenePass() bool {
	switch k {
	case PassShadowMap, PassReflectiveShadowMap, PassDepthPrepass, PassLight, PassGeometry, PassFlow:
		return true
	}
	return false
}

// Feature is a bit set of optional program capabilities. Each bit selects one code path of a
// pass; unused bits are ignored by passes that do not know them.
type Feature uint32

const (
	FeatureRGB Feature = 1 << iota
	FeaturePMD
	FeatureGaussianWhiteNoise
	FeatureNormalMapping
	FeatureShadowMaps
	FeatureShadowMapFiltering
	FeatureReflectiveShadowMaps
	FeaturePowerFactorMaps
	FeatureTransparency
	FeaturePreprocDistortion
	FeatureAmbientLight
	FeatureThinLensVignetting
	FeatureTwoInputs
	FeatureShotNoise
	FeatureEyeSpacePositions
	FeatureCustomSpacePositions
	FeatureEyeSpaceNormals
	FeatureCustomSpaceNormals
	FeatureDepthAndRange
	FeatureIndices
	FeatureForwardFlow3D
	FeatureForwardFlow2D
	FeatureBackwardFlow3D
	FeatureBackwardFlow2D

	featureCount = iota
)

var featureNames = [featureCount]string{
	"rgb", "pmd", "gwn", "normalmapping", "shadowmaps", "shadowfiltering", "rsm", "powerfactors",
	"transparency", "preproc", "ambient", "vignetting", "twoinputs", "shotnoise",
	"eyepos", "custompos", "eyenormals", "customnormals", "depthrange", "indices",
	"fwdflow3d", "fwdflow2d", "bwdflow3d", "bwdflow2d",
}

// Has reports whether every bit of x is set in f.
func (f Feature) Has(x Feature) bool {
	return f&x == x
}

// String returns the names of the set bits joined by '+', or "none".
func (f Feature) String() string {
	if f == 0 {
		return "none"
	}
	names := make([]string, 0, bits.OnesCount32(uint32(f)))
	for i := 0; i < featureCount; i++ {
		if f&(1<<i) != 0 {
			names = append(names, featureNames[i])
		}
	}
	return strings.Join(names, "+")
}

// FeatureByName resolves a feature name as printed by Feature.String.
//
// Parameters:
//   - name: the feature name, e.g. "shadowmaps"
//
// Returns:
//   - Feature: the single feature bit
//   - bool: false if the name is unknown
func FeatureByName(name string) (Feature, bool) {
	for i, n := range featureNames {
		if n == name {
			return 1 << i, true
		}
	}
	return 0, false
}

// OutputType is the component type a program writes to a color location.
type OutputType int

const (
	OutputFloat OutputType = iota
	OutputUint
)

// Output is one color location written by a program variant.
type Output struct {
	Name string
	Type OutputType
}

// Variant describes one program: the pass it implements, its feature bits and the few
// integer parameters that change generated code.
type Variant struct {
	Pass     PassKind
	Features Feature

	// Lights is the number of lights shaded by a light pass.
	Lights int

	// WeightsWidth and WeightsHeight give the sample raster of an oversample reduction.
	WeightsWidth, WeightsHeight int

	// Inputs is the number of sub-frame images combined by a result pass.
	Inputs int
}

// Has reports whether the variant enables feature f.
func (v Variant) Has(f Feature) bool {
	return v.Features.Has(f)
}

// Key returns a stable string identifying the compiled program. Two variants with the same
// key generate identical code.
//
// Returns:
//   - string: the program cache key
func (v Variant) Key() string {
	var b strings.Builder
	b.WriteString(v.Pass.String())
	b.WriteByte('|')
	b.WriteString(v.Features.String())
	switch v.Pass {
	case PassLight:
		fmt.Fprintf(&b, "|lights=%d", v.Lights)
	case PassOversampleReduce:
		fmt.Fprintf(&b, "|weights=%dx%d", v.WeightsWidth, v.WeightsHeight)
	case PassRGBResult, PassPMDResult:
		fmt.Fprintf(&b, "|inputs=%d", v.Inputs)
	}
	return b.String()
}

// String returns the program key.
func (v Variant) String() string {
	return v.Key()
}

var geometryOutputs = []struct {
	f    Feature
	name string
	typ  OutputType
}{
	{FeatureEyeSpacePositions, "eye_space_positions", OutputFloat},
	{FeatureCustomSpacePositions, "custom_space_positions", OutputFloat},
	{FeatureEyeSpaceNormals, "eye_space_normals", OutputFloat},
	{FeatureCustomSpaceNormals, "custom_space_normals", OutputFloat},
	{FeatureDepthAndRange, "depth_and_range", OutputFloat},
	{FeatureIndices, "indices", OutputUint},
}

var flowOutputs = []struct {
	f    Feature
	name string
}{
	{FeatureForwardFlow3D, "forward_flow3d"},
	{FeatureForwardFlow2D, "forward_flow2d"},
	{FeatureBackwardFlow3D, "backward_flow3d"},
	{FeatureBackwardFlow2D, "backward_flow2d"},
}

// Outputs returns the color locations the variant writes, in location order.
//
// Returns:
//   - []Output: location 0 first; empty for depth-only passes
func (v Variant) Outputs() []Output {
	var out []Output
	switch v.Pass {
	case PassShadowMap, PassDepthPrepass:
		return nil
	case PassReflectiveShadowMap:
		for _, n := range []string{"positions", "normals", "radiances", "brdf_diffuse", "brdf_specular"} {
			out = append(out, Output{Name: n})
		}
	case PassLight:
		if v.Has(FeatureRGB) {
			out = append(out, Output{Name: "rgb"})
		}
		if v.Has(FeaturePMD) {
			out = append(out, Output{Name: "pmd_energies"})
		}
	case PassOversampleReduce:
		out = append(out, Output{Name: "out0"})
		if v.Has(FeatureTwoInputs) {
			out = append(out, Output{Name: "out1"})
		}
	case PassGeometry:
		for _, g := range geometryOutputs {
			if v.Has(g.f) {
				out = append(out, Output{Name: g.name, Type: g.typ})
			}
		}
	case PassFlow:
		for _, g := range flowOutputs {
			if v.Has(g.f) {
				out = append(out, Output{Name: g.name})
			}
		}
	default:
		out = append(out, Output{Name: "result"})
	}
	return out
}

// InputCount returns the number of textures a fullscreen variant reads.
//
// Returns:
//   - int: zero for scene passes
func (v Variant) InputCount() int {
	switch v.Pass {
	case PassOversampleReduce:
		if v.Has(FeatureTwoInputs) {
			return 2
		}
		return 1
	case PassRGBResult, PassPMDResult:
		return max(v.Inputs, 1)
	case PassPMDDigNum, PassConvertSRGB, PassPMDCoordinates, PassPostprocDistortion:
		return 1
	}
	return 0
}
