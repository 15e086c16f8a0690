package renderer

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/camsim-go/engine/light"
	"github.com/Carmen-Shannon/camsim-go/engine/model"
	"github.com/Carmen-Shannon/camsim-go/engine/renderer/material"
	"github.com/Carmen-Shannon/camsim-go/engine/renderer/shader"
	"github.com/Carmen-Shannon/camsim-go/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

const eps = 1e-4

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) <= eps
}

// fillTarget writes every texel of every layer of a software target.
func fillTarget(t *testing.T, r *renderer, h Handle, fn func(x, y int) [4]float32) {
	t.Helper()
	st, ok := r.backend.(*softwareRendererBackend).targets.get(h)
	if !ok {
		t.Fatalf("target %d is not live", h)
	}
	for l := 0; l < st.desc.LayerCount(); l++ {
		for y := 0; y < st.desc.Height; y++ {
			for x := 0; x < st.desc.Width; x++ {
				v := fn(x, y)
				if st.desc.Format.IsDepth() {
					st.setDepth(l, x, y, v[0])
				} else {
					st.store(l, x, y, v)
				}
			}
		}
	}
}

func readFloats(t *testing.T, r Renderer, h Handle) func(x, y, c int) float32 {
	t.Helper()
	td, err := r.ReadTarget(h, 0)
	if err != nil {
		t.Fatalf("ReadTarget(%d) error = %v", h, err)
	}
	return td.Float32
}

// quadMesh is a square covering NDC [-1, 1]² at depth z, counter-clockwise seen from +z.
func quadMesh(z float32) *model.Mesh {
	return &model.Mesh{
		Positions: []mgl32.Vec3{{-1, -1, z}, {1, -1, z}, {1, 1, z}, {-1, 1, z}},
		Normals:   []mgl32.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		Indices:   []uint32{0, 1, 2, 0, 2, 3},
	}
}

func identityObject() ObjectUniforms {
	id := mgl32.Ident4()
	return ObjectUniforms{ModelView: id, MVP: id, NormalMatrix: id, LastModelView: id, NextModelView: id, Custom: id, CustomNormal: id}
}

func uploadQuads(t *testing.T, r Renderer, mats []material.Material, quads ...model.Object) {
	t.Helper()
	s := scene.NewScene("quads", scene.WithMaterials(mats...), scene.WithObjects(quads...))
	if err := r.UploadScene(s); err != nil {
		t.Fatalf("UploadScene() error = %v", err)
	}
}

func TestSoftwareDepthTest(t *testing.T) {
	r := newTestRenderer(t)
	red := material.NewMaterial(material.WithEmissive(1, 0, 0), material.WithDiffuse(0, 0, 0))
	green := material.NewMaterial(material.WithEmissive(0, 1, 0), material.WithDiffuse(0, 0, 0))
	// The far quad is uploaded last so that draw order alone would let it win.
	uploadQuads(t, r, []material.Material{red, green},
		model.NewObject(model.WithShape(quadMesh(-0.5), 1)),
		model.NewObject(model.WithShape(quadMesh(0.5), 0)),
	)

	rgb := mustTarget(t, r, TargetDescriptor{Label: "rgb", Format: FormatRGBA32F, Width: 4, Height: 4})
	depth := mustTarget(t, r, TargetDescriptor{Label: "depth", Format: FormatDepth32F, Width: 4, Height: 4})
	pass := NewScenePass("light", mustProgram(t, r, shader.Variant{Pass: shader.PassLight, Features: shader.FeatureRGB}))
	pass.Color = []ColorAttachment{{Target: rgb}}
	pass.Depth = depth
	pass.ClearColor, pass.ClearDepth, pass.DepthWrite = true, true, true
	pass.DepthCompare = DepthLess
	pass.Objects = []ObjectUniforms{identityObject(), identityObject()}
	if err := r.DrawScene(pass); err != nil {
		t.Fatalf("DrawScene() error = %v", err)
	}

	px := readFloats(t, r, rgb)
	for _, p := range [][2]int{{0, 0}, {3, 0}, {1, 2}, {3, 3}} {
		if got := [3]float32{px(p[0], p[1], 0), px(p[0], p[1], 1), px(p[0], p[1], 2)}; got != [3]float32{0, 1, 0} {
			t.Errorf("rgb%v = %v, want green", p, got)
		}
	}
	d := readFloats(t, r, depth)
	if got := d(2, 2, 0); !near(got, 0.25) {
		t.Errorf("depth = %v, want 0.25", got)
	}
}

func TestSoftwareDepthPrepassThenLessEqual(t *testing.T) {
	r := newTestRenderer(t)
	uploadQuads(t, r, []material.Material{material.NewMaterial(material.WithEmissive(0.5, 0.5, 0.5))},
		model.NewObject(model.WithShape(quadMesh(0), 0)),
	)
	rgb := mustTarget(t, r, TargetDescriptor{Label: "rgb", Format: FormatRGBA32F, Width: 2, Height: 2})
	depth := mustTarget(t, r, TargetDescriptor{Label: "depth", Format: FormatDepth32F, Width: 2, Height: 2})

	pre := NewScenePass("prepass", mustProgram(t, r, shader.Variant{Pass: shader.PassDepthPrepass}))
	pre.Depth, pre.ClearDepth, pre.DepthWrite = depth, true, true
	pre.Objects = []ObjectUniforms{identityObject()}
	if err := r.DrawScene(pre); err != nil {
		t.Fatalf("DrawScene(prepass) error = %v", err)
	}

	pass := NewScenePass("light", mustProgram(t, r, shader.Variant{Pass: shader.PassLight, Features: shader.FeatureRGB}))
	pass.Color = []ColorAttachment{{Target: rgb}}
	pass.ClearColor = true
	pass.Depth, pass.DepthCompare = depth, DepthLessEqual
	pass.Objects = pre.Objects
	if err := r.DrawScene(pass); err != nil {
		t.Fatalf("DrawScene(light) error = %v", err)
	}
	if got := readFloats(t, r, rgb)(1, 1, 0); got == 0 {
		t.Errorf("rgb after prepass = 0, want the surface to pass the less-equal test")
	}
}

func TestSoftwareBackFacesCulledUnlessTwoSided(t *testing.T) {
	back := &model.Mesh{
		Positions: []mgl32.Vec3{{-1, -1, 0}, {1, 1, 0}, {1, -1, 0}},
		Indices:   []uint32{0, 1, 2},
	}
	tests := []struct {
		name     string
		twoSided bool
		want     float32
	}{
		{"one sided", false, 0},
		{"two sided", true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRenderer(t)
			m := material.NewMaterial(material.WithEmissive(1, 1, 1), material.WithTwoSided(tt.twoSided))
			uploadQuads(t, r, []material.Material{m}, model.NewObject(model.WithShape(back, 0)))
			rgb := mustTarget(t, r, TargetDescriptor{Label: "rgb", Format: FormatRGBA32F, Width: 4, Height: 4})
			pass := NewScenePass("light", mustProgram(t, r, shader.Variant{Pass: shader.PassLight, Features: shader.FeatureRGB}))
			pass.Color = []ColorAttachment{{Target: rgb}}
			pass.Objects = []ObjectUniforms{identityObject()}
			if err := r.DrawScene(pass); err != nil {
				t.Fatalf("DrawScene() error = %v", err)
			}
			if got := readFloats(t, r, rgb)(3, 3, 3); got != tt.want {
				t.Errorf("coverage = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSoftwareGeometryPass(t *testing.T) {
	r := newTestRenderer(t)
	// Material index 3 does not exist and falls back to the default material.
	uploadQuads(t, r, nil, model.NewObject(model.WithShape(quadMesh(0), 3)))

	v := shader.Variant{Pass: shader.PassGeometry, Features: shader.FeatureEyeSpacePositions | shader.FeatureDepthAndRange | shader.FeatureIndices}
	pos := mustTarget(t, r, TargetDescriptor{Label: "positions", Format: FormatRGBA32F, Width: 4, Height: 4})
	dr := mustTarget(t, r, TargetDescriptor{Label: "depth and range", Format: FormatRG32F, Width: 4, Height: 4})
	idx := mustTarget(t, r, TargetDescriptor{Label: "indices", Format: FormatRGBA32UI, Width: 4, Height: 4})
	pass := NewScenePass("geometry", mustProgram(t, r, v))
	pass.Color = []ColorAttachment{{Target: pos}, {Target: dr}, {Target: idx}}
	pass.ClearColor = true
	pass.Objects = []ObjectUniforms{identityObject()}
	if err := r.DrawScene(pass); err != nil {
		t.Fatalf("DrawScene() error = %v", err)
	}

	p := readFloats(t, r, pos)
	if got := [3]float32{p(3, 3, 0), p(3, 3, 1), p(3, 3, 2)}; !near(got[0], 0.75) || !near(got[1], -0.75) || !near(got[2], 0) {
		t.Errorf("eye position at (3,3) = %v, want (0.75, -0.75, 0)", got)
	}
	d := readFloats(t, r, dr)
	if got, want := d(0, 0, 1), float32(math.Sqrt(2*0.75*0.75)); !near(got, want) {
		t.Errorf("range at (0,0) = %v, want %v", got, want)
	}

	td, err := r.ReadTarget(idx, 0)
	if err != nil {
		t.Fatalf("ReadTarget(indices) error = %v", err)
	}
	// The first triangle covers the lower right half of the image.
	tests := []struct {
		x, y int
		want [4]uint32
	}{
		{3, 3, [4]uint32{0, 0, 0, 3}},
		{0, 0, [4]uint32{0, 0, 1, 3}},
	}
	for _, tt := range tests {
		var got [4]uint32
		for c := range got {
			got[c] = td.Uint32(tt.x, tt.y, c)
		}
		if got != tt.want {
			t.Errorf("indices at (%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestSoftwareGeometryPassClearsIndicesToMax(t *testing.T) {
	r := newTestRenderer(t)
	small := &model.Mesh{
		Positions: []mgl32.Vec3{{-1, -1, 0}, {0, -1, 0}, {0, 0, 0}},
		Indices:   []uint32{0, 1, 2},
	}
	uploadQuads(t, r, nil, model.NewObject(model.WithShape(small, 0)))
	idx := mustTarget(t, r, TargetDescriptor{Label: "indices", Format: FormatRGBA32UI, Width: 4, Height: 4})
	pass := NewScenePass("geometry", mustProgram(t, r, shader.Variant{Pass: shader.PassGeometry, Features: shader.FeatureIndices}))
	pass.Color = []ColorAttachment{{Target: idx}}
	pass.ClearColor = true
	pass.Objects = []ObjectUniforms{identityObject()}
	if err := r.DrawScene(pass); err != nil {
		t.Fatalf("DrawScene() error = %v", err)
	}
	td, err := r.ReadTarget(idx, 0)
	if err != nil {
		t.Fatalf("ReadTarget() error = %v", err)
	}
	if got := td.Uint32(3, 0, 0); got != math.MaxUint32 {
		t.Errorf("uncovered object index = %d, want %d", got, uint32(math.MaxUint32))
	}
}

func TestSoftwareFlowPass(t *testing.T) {
	r := newTestRenderer(t)
	uploadQuads(t, r, nil, model.NewObject(model.WithShape(quadMesh(0), 0)))
	v := shader.Variant{Pass: shader.PassFlow, Features: shader.FeatureForwardFlow3D | shader.FeatureForwardFlow2D}
	f3 := mustTarget(t, r, TargetDescriptor{Label: "flow3d", Format: FormatRGBA32F, Width: 8, Height: 8})
	f2 := mustTarget(t, r, TargetDescriptor{Label: "flow2d", Format: FormatRGBA32F, Width: 8, Height: 8})
	pass := NewScenePass("flow", mustProgram(t, r, v))
	pass.Color = []ColorAttachment{{Target: f3}, {Target: f2}}
	pass.Uniforms.Projection = mgl32.Ident4()
	o := identityObject()
	o.NextModelView = mgl32.Translate3D(0.1, 0, 0)
	pass.Objects = []ObjectUniforms{o}
	if err := r.DrawScene(pass); err != nil {
		t.Fatalf("DrawScene() error = %v", err)
	}
	p3 := readFloats(t, r, f3)
	if got := [3]float32{p3(2, 5, 0), p3(2, 5, 1), p3(2, 5, 2)}; !near(got[0], 0.1) || !near(got[1], 0) || !near(got[2], 0) {
		t.Errorf("forward flow 3d = %v, want (0.1, 0, 0)", got)
	}
	p2 := readFloats(t, r, f2)
	if got := p2(2, 5, 0); !near(got, 0.4) {
		t.Errorf("forward flow 2d x = %v, want 0.4 pixels", got)
	}
}

func TestSoftwareShadowMapsDarken(t *testing.T) {
	tests := []struct {
		name    string
		depth   float32
		wantLit bool
	}{
		{"empty shadow map", 1, true},
		{"occluder at near plane", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRenderer(t)
			uploadQuads(t, r, []material.Material{material.NewMaterial()}, model.NewObject(model.WithShape(quadMesh(0), 0)))
			shadow := mustTarget(t, r, TargetDescriptor{Label: "shadow", Kind: TargetKindCube, Format: FormatDepth32F, Width: 8, Height: 8})
			fillTarget(t, r, shadow, func(x, y int) [4]float32 { return [4]float32{tt.depth} })
			rgb := mustTarget(t, r, TargetDescriptor{Label: "rgb", Format: FormatRGBA32F, Width: 4, Height: 4})

			v := shader.Variant{Pass: shader.PassLight, Features: shader.FeatureRGB | shader.FeatureShadowMaps, Lights: 1}
			pass := NewScenePass("light", mustProgram(t, r, v))
			pass.Color = []ColorAttachment{{Target: rgb}}
			pass.Uniforms.InvertedView = mgl32.Ident4()
			pass.Objects = []ObjectUniforms{identityObject()}
			pass.Lights = []light.GPULight{{
				Position:      [3]float32{0, 0, 1},
				WorldPosition: [3]float32{0, 0, 1},
				Color:         [3]float32{1, 1, 1},
				Attenuation:   [3]float32{1, 0, 0},
				ShadowIndex:   0,
				PFIndex:       -1,
				RSMIndex:      -1,
				ShadowNear:    0.1,
				ShadowFar:     10,
			}}
			pass.ShadowMaps[0] = shadow
			if err := r.DrawScene(pass); err != nil {
				t.Fatalf("DrawScene() error = %v", err)
			}
			got := readFloats(t, r, rgb)(1, 1, 0)
			if lit := got > 0; lit != tt.wantLit {
				t.Errorf("red = %v, lit = %v, want %v", got, lit, tt.wantLit)
			}
		})
	}
}

func TestSoftwareShadowSlotMustBeBound(t *testing.T) {
	r := newTestRenderer(t)
	uploadQuads(t, r, nil, model.NewObject(model.WithShape(quadMesh(0), 0)))
	rgb := mustTarget(t, r, TargetDescriptor{Label: "rgb", Format: FormatRGBA32F, Width: 2, Height: 2})
	pass := NewScenePass("light", mustProgram(t, r, shader.Variant{Pass: shader.PassLight, Features: shader.FeatureRGB | shader.FeatureShadowMaps, Lights: 1}))
	pass.Color = []ColorAttachment{{Target: rgb}}
	pass.Objects = []ObjectUniforms{identityObject()}
	pass.Lights = []light.GPULight{{ShadowIndex: 2, PFIndex: -1, RSMIndex: -1}}
	if err := r.DrawScene(pass); err == nil {
		t.Errorf("DrawScene() error = nil, want unbound shadow slot error")
	}
}

func TestSoftwareDirectionalLight(t *testing.T) {
	r := newTestRenderer(t)
	uploadQuads(t, r, []material.Material{material.NewMaterial(material.WithDiffuse(0.5, 0.25, 1))}, model.NewObject(model.WithShape(quadMesh(0), 0)))
	rgb := mustTarget(t, r, TargetDescriptor{Label: "rgb", Format: FormatRGBA32F, Width: 4, Height: 4})
	pass := NewScenePass("light", mustProgram(t, r, shader.Variant{Pass: shader.PassLight, Features: shader.FeatureRGB, Lights: 1}))
	pass.Color = []ColorAttachment{{Target: rgb}}
	pass.Uniforms.TemporalSamples = 2
	pass.Objects = []ObjectUniforms{identityObject()}
	pass.Lights = []light.GPULight{{
		LightType: lightTypeDirectional,
		Direction: [3]float32{0, 0, -1},
		Up:        [3]float32{0, 1, 0},
		Color:     [3]float32{1, 1, 1},
		PFIndex:   -1, RSMIndex: -1, ShadowIndex: -1,
	}}
	if err := r.DrawScene(pass); err != nil {
		t.Fatalf("DrawScene() error = %v", err)
	}
	px := readFloats(t, r, rgb)
	// Each temporal sample contributes its share so that their sum is the mean.
	want := [4]float32{0.25, 0.125, 0.5, 0.5}
	for c, w := range want {
		if got := px(1, 2, c); !near(got, w) {
			t.Errorf("rgb[%d] = %v, want %v", c, got, w)
		}
	}
}

func TestSoftwareReduce(t *testing.T) {
	tests := []struct {
		name  string
		blend bool
		want  float32
	}{
		{"store", false, 1},
		{"blend", true, 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRenderer(t)
			in := mustTarget(t, r, TargetDescriptor{Label: "oversampled", Format: FormatRGBA32F, Width: 4, Height: 2})
			out := mustTarget(t, r, TargetDescriptor{Label: "rgb", Format: FormatRGBA32F, Width: 2, Height: 1})
			fillTarget(t, r, in, func(x, y int) [4]float32 { return [4]float32{float32(x%2 + y), 0, 0, 1} })
			fillTarget(t, r, out, func(x, y int) [4]float32 { return [4]float32{10, 0, 0, 0} })

			p := mustProgram(t, r, shader.Variant{Pass: shader.PassOversampleReduce, WeightsWidth: 2, WeightsHeight: 2})
			pass := FullscreenPass{Label: "reduce", Program: p, Inputs: []Handle{in}, Outputs: []Handle{out}, Blend: tt.blend,
				Weights: []float32{0.25, 0.25, 0.25, 0.25}}
			if err := r.DrawFullscreen(pass); err != nil {
				t.Fatalf("DrawFullscreen() error = %v", err)
			}
			// Samples are 0, 1, 1, 2 in every block.
			if got := readFloats(t, r, out)(1, 0, 0); !near(got, tt.want) {
				t.Errorf("reduced = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSoftwareReduceRejectsWrongInputSize(t *testing.T) {
	r := newTestRenderer(t)
	in := mustTarget(t, r, TargetDescriptor{Label: "oversampled", Format: FormatRGBA32F, Width: 3, Height: 2})
	out := mustTarget(t, r, TargetDescriptor{Label: "rgb", Format: FormatRGBA32F, Width: 2, Height: 1})
	p := mustProgram(t, r, shader.Variant{Pass: shader.PassOversampleReduce, WeightsWidth: 2, WeightsHeight: 2})
	err := r.DrawFullscreen(FullscreenPass{Label: "reduce", Program: p, Inputs: []Handle{in}, Outputs: []Handle{out}, Weights: make([]float32, 4)})
	if err == nil {
		t.Errorf("DrawFullscreen() error = nil, want size error")
	}
}

func TestSoftwareDigNum(t *testing.T) {
	r := newTestRenderer(t)
	energies := mustTarget(t, r, TargetDescriptor{Label: "energies", Format: FormatRG32F, Width: 1, Height: 1})
	out := mustTarget(t, r, TargetDescriptor{Label: "dignum", Format: FormatRGBA32F, Width: 1, Height: 1})
	fillTarget(t, r, energies, func(x, y int) [4]float32 { return [4]float32{4, 2} })
	p := mustProgram(t, r, shader.Variant{Pass: shader.PassPMDDigNum})
	pass := FullscreenPass{Label: "dignum", Program: p, Inputs: []Handle{energies}, Outputs: []Handle{out},
		Uniforms: FullscreenUniforms{PhotonEnergy: 1, QuantumEfficiency: 1, MaxElectrons: 10}}
	if err := r.DrawFullscreen(pass); err != nil {
		t.Fatalf("DrawFullscreen() error = %v", err)
	}
	px := readFloats(t, r, out)
	for c, want := range []float32{0.2, 0.6, 0.4, 0.2} {
		if got := px(0, 0, c); !near(got, want) {
			t.Errorf("dignum[%d] = %v, want %v", c, got, want)
		}
	}
}

func TestSoftwarePMDResult(t *testing.T) {
	r := newTestRenderer(t)
	// Phase images for a quarter period of delay.
	dn := [][2]float32{{0.5, 1}, {0.7, 1}, {0.5, 1}, {0.3, 1}}
	inputs := make([]Handle, len(dn))
	for i, v := range dn {
		inputs[i] = mustTarget(t, r, TargetDescriptor{Label: "dignum", Format: FormatRGBA32F, Width: 1, Height: 1})
		fillTarget(t, r, inputs[i], func(x, y int) [4]float32 { return [4]float32{v[0], v[1]} })
	}
	out := mustTarget(t, r, TargetDescriptor{Label: "pmd", Format: FormatRGBA32F, Width: 1, Height: 1})
	p := mustProgram(t, r, shader.Variant{Pass: shader.PassPMDResult, Inputs: 4})
	pass := FullscreenPass{Label: "pmd result", Program: p, Inputs: inputs, Outputs: []Handle{out},
		Uniforms: FullscreenUniforms{FracCModFreq: 30}}
	if err := r.DrawFullscreen(pass); err != nil {
		t.Fatalf("DrawFullscreen() error = %v", err)
	}
	px := readFloats(t, r, out)
	// dy = q3 - q1 = -0.4, dx = 0: the phase is 3π/2.
	wantRange := float32(1.5 * math.Pi * 30 / (4 * math.Pi))
	if got := px(0, 0, 0); !near(got, wantRange) {
		t.Errorf("range = %v, want %v", got, wantRange)
	}
	if got := px(0, 0, 1); !near(got, 0.2) {
		t.Errorf("amplitude = %v, want 0.2", got)
	}
	if got := px(0, 0, 2); !near(got, 1) {
		t.Errorf("intensity = %v, want 1", got)
	}
}

func TestSoftwareRGBResultAndSRGB(t *testing.T) {
	r := newTestRenderer(t)
	a := mustTarget(t, r, TargetDescriptor{Label: "a", Format: FormatRGBA32F, Width: 1, Height: 1})
	b := mustTarget(t, r, TargetDescriptor{Label: "b", Format: FormatRGBA32F, Width: 1, Height: 1})
	fillTarget(t, r, a, func(x, y int) [4]float32 { return [4]float32{0.2, 0.4, 1, 1} })
	fillTarget(t, r, b, func(x, y int) [4]float32 { return [4]float32{0.4, 0.6, 0, 1} })
	mean := mustTarget(t, r, TargetDescriptor{Label: "mean", Format: FormatRGBA32F, Width: 1, Height: 1})
	p := mustProgram(t, r, shader.Variant{Pass: shader.PassRGBResult, Inputs: 2})
	if err := r.DrawFullscreen(FullscreenPass{Label: "rgb result", Program: p, Inputs: []Handle{a, b}, Outputs: []Handle{mean}}); err != nil {
		t.Fatalf("DrawFullscreen(rgb result) error = %v", err)
	}
	px := readFloats(t, r, mean)
	for c, want := range []float32{0.3, 0.5, 0.5, 1} {
		if got := px(0, 0, c); !near(got, want) {
			t.Errorf("mean[%d] = %v, want %v", c, got, want)
		}
	}

	srgb := mustTarget(t, r, TargetDescriptor{Label: "srgb", Format: FormatRGBA8, Width: 1, Height: 1})
	sp := mustProgram(t, r, shader.Variant{Pass: shader.PassConvertSRGB})
	if err := r.DrawFullscreen(FullscreenPass{Label: "srgb", Program: sp, Inputs: []Handle{mean}, Outputs: []Handle{srgb}}); err != nil {
		t.Fatalf("DrawFullscreen(srgb) error = %v", err)
	}
	td, err := r.ReadTarget(srgb, 0)
	if err != nil {
		t.Fatalf("ReadTarget() error = %v", err)
	}
	want := uint8(math.Round(float64(LinearToSRGB(0.5)) * 255))
	if got := td.Uint8(0, 0, 1); got != want {
		t.Errorf("srgb green = %d, want %d", got, want)
	}
	if got := td.Uint8(0, 0, 3); got != 255 {
		t.Errorf("srgb alpha = %d, want 255", got)
	}
}

func TestSoftwarePMDCoordinates(t *testing.T) {
	r := newTestRenderer(t)
	in := mustTarget(t, r, TargetDescriptor{Label: "range", Format: FormatRG32F, Width: 3, Height: 3})
	fillTarget(t, r, in, func(x, y int) [4]float32 { return [4]float32{2} })
	out := mustTarget(t, r, TargetDescriptor{Label: "coords", Format: FormatRGBA32F, Width: 3, Height: 3})
	p := mustProgram(t, r, shader.Variant{Pass: shader.PassPMDCoordinates})
	pass := FullscreenPass{Label: "coordinates", Program: p, Inputs: []Handle{in}, Outputs: []Handle{out},
		Uniforms: FullscreenUniforms{Focal: mgl32.Vec2{1, 1}, Center: mgl32.Vec2{1, 1}}}
	if err := r.DrawFullscreen(pass); err != nil {
		t.Fatalf("DrawFullscreen() error = %v", err)
	}
	px := readFloats(t, r, out)
	if got := [3]float32{px(1, 1, 0), px(1, 1, 1), px(1, 1, 2)}; got != [3]float32{0, 0, -2} {
		t.Errorf("center point = %v, want (0, 0, -2)", got)
	}
	// One pixel right of the center lies at 45 degrees.
	if got, want := px(2, 1, 0), float32(2/math.Sqrt2); !near(got, want) {
		t.Errorf("x = %v, want %v", got, want)
	}
}

func TestSoftwarePostprocWithoutDistortionIsIdentity(t *testing.T) {
	r := newTestRenderer(t)
	in := mustTarget(t, r, TargetDescriptor{Label: "rgb", Format: FormatRGBA32F, Width: 5, Height: 3})
	fillTarget(t, r, in, func(x, y int) [4]float32 { return [4]float32{float32(x), float32(y), 1, 1} })
	out := mustTarget(t, r, TargetDescriptor{Label: "scratch", Format: FormatRGBA32F, Width: 5, Height: 3})
	p := mustProgram(t, r, shader.Variant{Pass: shader.PassPostprocDistortion})
	pass := FullscreenPass{Label: "postproc", Program: p, Inputs: []Handle{in}, Outputs: []Handle{out},
		Uniforms: FullscreenUniforms{Focal: mgl32.Vec2{4, 4}, Center: mgl32.Vec2{2.5, 1.5}}}
	if err := r.DrawFullscreen(pass); err != nil {
		t.Fatalf("DrawFullscreen() error = %v", err)
	}
	px := readFloats(t, r, out)
	for y := 0; y < 3; y++ {
		for x := 0; x < 5; x++ {
			if gx, gy := px(x, y, 0), px(x, y, 1); !near(gx, float32(x)) || !near(gy, float32(y)) {
				t.Errorf("out(%d,%d) = (%v, %v), want input", x, y, gx, gy)
			}
		}
	}
}

func TestSoftwareCompileProgramRejectsEmptyWeights(t *testing.T) {
	b := newSoftwareRendererBackend(1)
	defer b.Release()
	if _, err := b.CompileProgram(shader.Variant{Pass: shader.PassOversampleReduce}); err == nil {
		t.Errorf("CompileProgram(reduce 0x0) error = nil, want error")
	}
}
