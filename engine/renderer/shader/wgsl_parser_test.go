package shader

import (
	"testing"

	"github.com/Carmen-Shannon/camsim-go/engine/light"
	"github.com/Carmen-Shannon/camsim-go/engine/model"
	"github.com/cogentcore/webgpu/wgpu"
)

func TestStructLayoutMatchesGPUTypes(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   uint64
	}{
		{"PassUniforms", PassUniformsSource, 272},
		{"ObjectUniforms", ObjectUniformsSource, 448},
		{"FullscreenUniforms", FullscreenUniformsSource, 96},
		{"DrawInfo", DrawInfoSource, 16},
		{"Light", light.GPULightSource, uint64(new(light.GPULight).Size())},
		{"VertexInput", model.GPUVertexSource, uint64(new(model.GPUVertex).Size())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			size, _, ok := StructLayout(tt.source, tt.name)
			if !ok {
				t.Fatalf("StructLayout(%q) did not resolve", tt.name)
			}
			if size != tt.want {
				t.Errorf("StructLayout(%q) size = %d, want %d", tt.name, size, tt.want)
			}
		})
	}
}

func TestStructLayoutAlignment(t *testing.T) {
	src := `
struct Inner { a: vec3<f32>, b: f32 };
// comment: struct Ignored { x: f32 }
struct Outer {
    flag: u32,
    inner: Inner,
    values: array<vec2<f32>, 3>,
};`
	tests := []struct {
		name      string
		wantSize  uint64
		wantAlign uint64
	}{
		{"Inner", 16, 16},
		{"Outer", 64, 16},
	}
	for _, tt := range tests {
		size, align, ok := StructLayout(src, tt.name)
		if !ok || size != tt.wantSize || align != tt.wantAlign {
			t.Errorf("StructLayout(%q) = (%d, %d, %v), want (%d, %d, true)", tt.name, size, align, ok, tt.wantSize, tt.wantAlign)
		}
	}
	if _, _, ok := StructLayout(src, "Ignored"); ok {
		t.Error("StructLayout() resolved a struct declared in a comment")
	}
}

func TestParseVertexLayout(t *testing.T) {
	src := model.GPUVertexSource + `
struct VertexOutput {
    @builtin(position) clip_position: vec4<f32>,
    @location(0) uv: vec2<f32>,
};`
	layout, ok := parseVertexLayout(src)
	if !ok {
		t.Fatal("parseVertexLayout() found no vertex input")
	}
	if layout.ArrayStride != 48 {
		t.Errorf("ArrayStride = %d, want 48", layout.ArrayStride)
	}
	want := []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
		{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
		{Format: wgpu.VertexFormatFloat32x4, Offset: 32, ShaderLocation: 3},
	}
	if len(layout.Attributes) != len(want) {
		t.Fatalf("len(Attributes) = %d, want %d", len(layout.Attributes), len(want))
	}
	for i, a := range layout.Attributes {
		if a != want[i] {
			t.Errorf("Attributes[%d] = %+v, want %+v", i, a, want[i])
		}
	}

	if _, ok := parseVertexLayout(fullscreenVertexSource); ok {
		t.Error("parseVertexLayout() found a vertex input in the fullscreen vertex stage")
	}
}

func TestTypeLayouts(t *testing.T) {
	tests := []struct {
		typ       string
		wantSize  uint64
		wantAlign uint64
	}{
		{"f32", 4, 4},
		{"bool", 4, 4},
		{"vec3f", 12, 16},
		{"vec2<u32>", 8, 8},
		{"vec3h", 6, 8},
		{"mat4x4<f32>", 64, 16},
		{"mat3x3f", 48, 16},
		{"mat2x3<f32>", 32, 16},
		{"mat4x2f", 32, 8},
		{"array<vec3<f32>, 4>", 64, 16},
		{"array<f32>", 4, 4},
		{"atomic<u32>", 4, 4},
	}
	r := layoutResolver{}
	for _, tt := range tests {
		l, ok := r.resolve(tt.typ)
		if !ok || l.size != tt.wantSize || l.align != tt.wantAlign {
			t.Errorf("resolve(%q) = (%d, %d, %v), want (%d, %d, true)", tt.typ, l.size, l.align, ok, tt.wantSize, tt.wantAlign)
		}
	}
	if _, ok := r.resolve("texture_2d<f32>"); ok {
		t.Error("resolve(texture_2d<f32>) resolved a non host-shareable type")
	}
}

func TestStripCommentsNested(t *testing.T) {
	src := "a /* outer /* inner */ still outer */ b // tail\nc"
	if got, want := stripComments(src), "a  b \nc"; got != want {
		t.Errorf("stripComments() = %q, want %q", got, want)
	}
}
