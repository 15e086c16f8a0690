package renderer

import (
	"testing"

	"github.com/Carmen-Shannon/camsim-go/engine/light"
	"github.com/Carmen-Shannon/camsim-go/engine/renderer/shader"
)

// countingBackend counts program compilations of the wrapped backend.
type countingBackend struct {
	RendererBackend
	compiled int
}

func (b *countingBackend) CompileProgram(v shader.Variant) (Program, error) {
	b.compiled++
	return b.RendererBackend.CompileProgram(v)
}

func newTestRenderer(t *testing.T) *renderer {
	t.Helper()
	r := newRendererWithBackend(newSoftwareRendererBackend(2))
	t.Cleanup(r.Release)
	return r
}

func mustTarget(t *testing.T, r Renderer, desc TargetDescriptor) Handle {
	t.Helper()
	h, err := r.CreateTarget(desc)
	if err != nil {
		t.Fatalf("CreateTarget(%q) error = %v", desc.Label, err)
	}
	return h
}

func mustProgram(t *testing.T, r Renderer, v shader.Variant) Program {
	t.Helper()
	p, err := r.Program(v)
	if err != nil {
		t.Fatalf("Program(%s) error = %v", v.Key(), err)
	}
	return p
}

func TestRendererProgramCache(t *testing.T) {
	b := &countingBackend{RendererBackend: newSoftwareRendererBackend(1)}
	r := newRendererWithBackend(b)
	defer r.Release()

	v := shader.Variant{Pass: shader.PassLight, Features: shader.FeatureRGB, Lights: 2}
	p1 := mustProgram(t, r, v)
	p2 := mustProgram(t, r, v)
	if p1 != p2 {
		t.Errorf("Program() returned different programs for the same variant")
	}
	if b.compiled != 1 {
		t.Errorf("compiled = %d, want 1", b.compiled)
	}

	mustProgram(t, r, shader.Variant{Pass: shader.PassLight, Features: shader.FeatureRGB, Lights: 3})
	if got := len(r.Programs()); got != 2 {
		t.Errorf("len(Programs()) = %d, want 2", got)
	}

	r.ClearPrograms()
	if got := len(r.Programs()); got != 0 {
		t.Errorf("len(Programs()) after ClearPrograms = %d, want 0", got)
	}
	mustProgram(t, r, v)
	if b.compiled != 3 {
		t.Errorf("compiled after ClearPrograms = %d, want 3", b.compiled)
	}
}

func TestRendererCreateTargetRejectsInvalid(t *testing.T) {
	r := newTestRenderer(t)
	if _, err := r.CreateTarget(TargetDescriptor{Label: "bad", Width: 0, Height: 2}); err == nil {
		t.Errorf("CreateTarget(0x2) error = nil, want error")
	}
	h := mustTarget(t, r, TargetDescriptor{Label: "ok", Format: FormatRGBA32F, Width: 2, Height: 2})
	if desc, ok := r.Target(h); !ok || desc.Label != "ok" {
		t.Errorf("Target(%d) = %v, %v, want ok target", h, desc, ok)
	}
	r.ReleaseTarget(h)
	if _, ok := r.Target(h); ok {
		t.Errorf("Target(%d) after release ok = true, want false", h)
	}
	r.ReleaseTarget(NoTarget)
}

func TestRendererPassValidation(t *testing.T) {
	r := newTestRenderer(t)
	rgb := mustTarget(t, r, TargetDescriptor{Label: "rgb", Format: FormatRGBA32F, Width: 2, Height: 2})
	lightProg := mustProgram(t, r, shader.Variant{Pass: shader.PassLight, Features: shader.FeatureRGB | shader.FeaturePMD})
	reduce := mustProgram(t, r, shader.Variant{Pass: shader.PassOversampleReduce, WeightsWidth: 2, WeightsHeight: 2})
	srgb := mustProgram(t, r, shader.Variant{Pass: shader.PassConvertSRGB})

	tests := []struct {
		name string
		draw func() error
	}{
		{"scene without program", func() error {
			return r.DrawScene(NewScenePass("none", nil))
		}},
		{"scene with fullscreen program", func() error {
			p := NewScenePass("srgb", srgb)
			p.Color = []ColorAttachment{{Target: rgb}}
			return r.DrawScene(p)
		}},
		{"scene with too few colors", func() error {
			p := NewScenePass("light", lightProg)
			p.Color = []ColorAttachment{{Target: rgb}}
			return r.DrawScene(p)
		}},
		{"fullscreen with scene program", func() error {
			return r.DrawFullscreen(FullscreenPass{Label: "light", Program: lightProg, Inputs: []Handle{rgb}, Outputs: []Handle{rgb}})
		}},
		{"fullscreen with wrong weights", func() error {
			return r.DrawFullscreen(FullscreenPass{Label: "reduce", Program: reduce, Inputs: []Handle{rgb}, Outputs: []Handle{rgb}, Weights: []float32{1}})
		}},
		{"fullscreen with missing input", func() error {
			return r.DrawFullscreen(FullscreenPass{Label: "srgb", Program: srgb, Outputs: []Handle{rgb}})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.draw(); err == nil {
				t.Errorf("draw error = nil, want error")
			}
		})
	}
}

func TestRendererCopyTarget(t *testing.T) {
	r := newTestRenderer(t)
	src := mustTarget(t, r, TargetDescriptor{Label: "src", Format: FormatRG32F, Width: 3, Height: 2})
	dst := mustTarget(t, r, TargetDescriptor{Label: "dst", Format: FormatRG32F, Width: 3, Height: 2})
	other := mustTarget(t, r, TargetDescriptor{Label: "other", Format: FormatRGBA32F, Width: 3, Height: 2})
	fillTarget(t, r, src, func(x, y int) [4]float32 { return [4]float32{float32(x), float32(y), 0, 0} })

	if err := r.CopyTarget(src, other); err == nil {
		t.Errorf("CopyTarget(rg32f, rgba32f) error = nil, want error")
	}
	if err := r.CopyTarget(src, dst); err != nil {
		t.Fatalf("CopyTarget() error = %v", err)
	}
	td, err := r.ReadTarget(dst, 0, "x", "y")
	if err != nil {
		t.Fatalf("ReadTarget() error = %v", err)
	}
	if got := td.Float32(2, 1, 0); got != 2 {
		t.Errorf("dst(2,1).x = %v, want 2", got)
	}
	if got := td.Float32(2, 1, 1); got != 1 {
		t.Errorf("dst(2,1).y = %v, want 1", got)
	}
	if got := td.ChannelName(1); got != "y" {
		t.Errorf("ChannelName(1) = %q, want y", got)
	}
}

func TestRendererReadTarget(t *testing.T) {
	r := newTestRenderer(t)
	cube := mustTarget(t, r, TargetDescriptor{Label: "cube", Kind: TargetKindCube, Format: FormatDepth32F, Width: 2, Height: 2})
	if _, err := r.ReadTarget(cube, 6); err == nil {
		t.Errorf("ReadTarget(layer 6) error = nil, want error")
	}
	td, err := r.ReadTarget(cube, 5)
	if err != nil {
		t.Fatalf("ReadTarget(layer 5) error = %v", err)
	}
	if got := td.Float32(1, 1, 0); got != 1 {
		t.Errorf("cleared depth = %v, want 1", got)
	}

	rgba := mustTarget(t, r, TargetDescriptor{Label: "rgba8", Format: FormatRGBA8, Width: 1, Height: 1})
	fillTarget(t, r, rgba, func(x, y int) [4]float32 { return [4]float32{1, 0.5, 0, 1} })
	td, err = r.ReadTarget(rgba, 0, "r", "g", "b")
	if err != nil {
		t.Fatalf("ReadTarget(rgba8) error = %v", err)
	}
	if td.Channels() != 3 {
		t.Errorf("Channels() = %d, want 3", td.Channels())
	}
	if got := td.Uint8(0, 0, 1); got != 128 {
		t.Errorf("g = %d, want 128", got)
	}
	if _, err := r.ReadTarget(mustTarget(t, r, TargetDescriptor{Label: "r", Format: FormatR32F, Width: 1, Height: 1}), 0, "a", "b"); err == nil {
		t.Errorf("ReadTarget(2 channels of r32f) error = nil, want error")
	}
}

func TestRendererUploadPowerFactorMapSlots(t *testing.T) {
	r := newTestRenderer(t)
	m := light.PowerFactorMap{Width: 1, Height: 1, Factors: []float32{0.5}}
	if err := r.UploadPowerFactorMap(shader.MaxPowerFactorSlots, m); err == nil {
		t.Errorf("UploadPowerFactorMap(%d) error = nil, want error", shader.MaxPowerFactorSlots)
	}
	if err := r.UploadPowerFactorMap(0, m); err != nil {
		t.Errorf("UploadPowerFactorMap(0) error = %v", err)
	}
}

func TestRendererPresentWithoutSurface(t *testing.T) {
	r := newTestRenderer(t)
	h := mustTarget(t, r, TargetDescriptor{Label: "srgb", Format: FormatRGBA8, Width: 1, Height: 1})
	if err := r.Present(h); err != ErrNoSurface {
		t.Errorf("Present() error = %v, want ErrNoSurface", err)
	}
}

func TestParseBackendType(t *testing.T) {
	for _, want := range []RendererBackendType{BackendTypeSoftware, BackendTypeWGPU} {
		got, ok := ParseBackendType(want.String())
		if !ok || got != want {
			t.Errorf("ParseBackendType(%q) = %v, %v, want %v, true", want.String(), got, ok, want)
		}
	}
	if _, ok := ParseBackendType("vulkan"); ok {
		t.Errorf("ParseBackendType(vulkan) ok = true, want false")
	}
}
