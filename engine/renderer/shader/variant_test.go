package shader

import (
	"reflect"
	"testing"
)

func TestVariantKey(t *testing.T) {
	tests := []struct {
		name string
		v    Variant
		want string
	}{
		{"shadow", Variant{Pass: PassShadowMap}, "shadowmap|none"},
		{"light", Variant{Pass: PassLight, Features: FeatureRGB | FeatureShadowMaps, Lights: 3}, "light|rgb+shadowmaps|lights=3"},
		{"reduce", Variant{Pass: PassOversampleReduce, Features: FeatureTwoInputs, WeightsWidth: 3, WeightsHeight: 5}, "reduce|twoinputs|weights=3x5"},
		{"pmd result", Variant{Pass: PassPMDResult, Inputs: 4}, "pmdresult|none|inputs=4"},
		{"geometry", Variant{Pass: PassGeometry, Features: FeatureIndices | FeatureEyeSpacePositions}, "geometry|eyepos+indices"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Key(); got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVariantKeyIgnoresUnusedParameters(t *testing.T) {
	a := Variant{Pass: PassGeometry, Features: FeatureDepthAndRange}
	b := Variant{Pass: PassGeometry, Features: FeatureDepthAndRange, Lights: 7, Inputs: 2}
	if a.Key() != b.Key() {
		t.Errorf("Key() = %q and %q, want equal", a.Key(), b.Key())
	}
}

func TestFeatureByName(t *testing.T) {
	for i := 0; i < featureCount; i++ {
		f := Feature(1) << i
		got, ok := FeatureByName(f.String())
		if !ok || got != f {
			t.Errorf("FeatureByName(%q) = %v, %v, want %v, true", f.String(), got, ok, f)
		}
	}
	if _, ok := FeatureByName("bogus"); ok {
		t.Errorf("FeatureByName(bogus) ok = true, want false")
	}
}

func TestVariantOutputs(t *testing.T) {
	tests := []struct {
		name string
		v    Variant
		want []Output
	}{
		{"shadow", Variant{Pass: PassShadowMap}, nil},
		{"light pmd only", Variant{Pass: PassLight, Features: FeaturePMD}, []Output{{Name: "pmd_energies"}}},
		{"light both", Variant{Pass: PassLight, Features: FeaturePMD | FeatureRGB}, []Output{{Name: "rgb"}, {Name: "pmd_energies"}}},
		{"geometry order", Variant{Pass: PassGeometry, Features: FeatureIndices | FeatureDepthAndRange | FeatureEyeSpacePositions}, []Output{
			{Name: "eye_space_positions"}, {Name: "depth_and_range"}, {Name: "indices", Type: OutputUint},
		}},
		{"flow", Variant{Pass: PassFlow, Features: FeatureBackwardFlow2D | FeatureForwardFlow3D}, []Output{{Name: "forward_flow3d"}, {Name: "backward_flow2d"}}},
		{"reduce two", Variant{Pass: PassOversampleReduce, Features: FeatureTwoInputs}, []Output{{Name: "out0"}, {Name: "out1"}}},
		{"srgb", Variant{Pass: PassConvertSRGB}, []Output{{Name: "result"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Outputs(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Outputs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVariantInputCount(t *testing.T) {
	tests := []struct {
		v    Variant
		want int
	}{
		{Variant{Pass: PassLight}, 0},
		{Variant{Pass: PassOversampleReduce}, 1},
		{Variant{Pass: PassOversampleReduce, Features: FeatureTwoInputs}, 2},
		{Variant{Pass: PassRGBResult, Inputs: 4}, 4},
		{Variant{Pass: PassPMDResult}, 1},
		{Variant{Pass: PassPostprocDistortion}, 1},
	}
	for _, tt := range tests {
		if got := tt.v.InputCount(); got != tt.want {
			t.Errorf("%v.InputCount() = %d, want %d", tt.v, got, tt.want)
		}
	}
}
