package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/camsim-go/engine/light"
	"github.com/Carmen-Shannon/camsim-go/engine/renderer/material"
	"github.com/Carmen-Shannon/camsim-go/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

func ptr[T any](v T) *T { return &v }

// gltfBuilder assembles small glTF documents with a single embedded buffer.
type gltfBuilder struct {
	doc gltfDocument
	buf []byte
}

func (b *gltfBuilder) accessor(typ string, componentType, count int, data []byte) int {
	for len(b.buf)%4 != 0 {
		b.buf = append(b.buf, 0)
	}
	b.doc.BufferViews = append(b.doc.BufferViews, gltfBufferView{ByteOffset: len(b.buf), ByteLength: len(data)})
	b.buf = append(b.buf, data...)
	b.doc.Accessors = append(b.doc.Accessors, gltfAccessor{
		BufferView:    ptr(len(b.doc.BufferViews) - 1),
		ComponentType: componentType,
		Count:         count,
		Type:          typ,
	})
	return len(b.doc.Accessors) - 1
}

func (b *gltfBuilder) floats(typ string, v ...float32) int {
	var data []byte
	for _, f := range v {
		data = binary.LittleEndian.AppendUint32(data, math.Float32bits(f))
	}
	return b.accessor(typ, gltfComponentTypeFloat, len(v)/gltfAccessorTypeComponentCount(typ), data)
}

// triangle adds a mesh with one triangle in the XY plane and returns its index.
func (b *gltfBuilder) triangle(materialIndex *int) int {
	pos := b.floats(gltfAccessorTypeVec3, 0, 0, 0, 1, 0, 0, 0, 1, 0)
	uv := b.floats(gltfAccessorTypeVec2, 0, 0, 1, 0, 0, 1)
	var idx []byte
	for _, i := range []uint16{0, 1, 2} {
		idx = binary.LittleEndian.AppendUint16(idx, i)
	}
	indices := b.accessor(gltfAccessorTypeScalar, gltfComponentTypeUnsignedShort, 3, idx)
	b.doc.Meshes = append(b.doc.Meshes, gltfMesh{Primitives: []gltfPrimitive{{
		Attributes: map[string]int{gltfAttributePosition: pos, gltfAttributeTexCoord: uv},
		Indices:    &indices,
		Material:   materialIndex,
	}}})
	return len(b.doc.Meshes) - 1
}

func (b *gltfBuilder) node(n gltfNode) int {
	b.doc.Nodes = append(b.doc.Nodes, n)
	return len(b.doc.Nodes) - 1
}

func (b *gltfBuilder) json(t *testing.T) []byte {
	t.Helper()
	b.doc.Asset.Version = "2.0"
	b.doc.Buffers = []gltfBuffer{{
		URI:        "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(b.buf),
		ByteLength: len(b.buf),
	}}
	data, err := json.Marshal(&b.doc)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	return data
}

func load(t *testing.T, b *gltfBuilder, options ...LoaderBuilderOption) *Result {
	t.Helper()
	r, err := NewLoader(options...).LoadReader("test", bytes.NewReader(b.json(t)), false)
	if err != nil {
		t.Fatalf("LoadReader() error = %v", err)
	}
	return r
}

func TestStaticNodeIsBaked(t *testing.T) {
	b := &gltfBuilder{}
	b.doc.Materials = []gltfMaterial{{
		Name:                 "red",
		DoubleSided:          true,
		PbrMetallicRoughness: &gltfPbrMetallicRoughness{BaseColorFactor: &[4]float32{1, 0, 0, 1}, MetallicFactor: ptr[float32](0)},
	}}
	mesh := b.triangle(ptr(0))
	b.node(gltfNode{Mesh: &mesh, Translation: &[3]float32{1, 2, 3}})

	r := load(t, b)
	if len(r.Objects) != 1 || len(r.ObjectAnimations) != 1 {
		t.Fatalf("got %d objects, %d animations, want 1 and 1", len(r.Objects), len(r.ObjectAnimations))
	}
	if !r.ObjectAnimations[0].IsEmpty() {
		t.Error("static object has a non-empty animation")
	}
	m := r.Objects[0].Shapes()[0].Mesh

	if got, want := m.Positions[1], (mgl32.Vec3{2, 2, 3}); !got.ApproxEqual(want) {
		t.Errorf("Positions[1] = %v, want %v", got, want)
	}
	if got, want := m.Normals[0], (mgl32.Vec3{0, 0, 1}); !got.ApproxEqual(want) {
		t.Errorf("Normals[0] = %v, want %v", got, want)
	}
	if got, want := m.TexCoords[0], (mgl32.Vec2{0, 1}); !got.ApproxEqual(want) {
		t.Errorf("TexCoords[0] = %v, want %v", got, want)
	}
	if len(m.Tangents) != 3 {
		t.Errorf("len(Tangents) = %d, want 3", len(m.Tangents))
	}

	mat := r.Materials[0]
	if mat.Name() != "red" || !mat.IsTwoSided() {
		t.Errorf("material = %q two-sided %v, want red two-sided", mat.Name(), mat.IsTwoSided())
	}
	if got, want := mat.Diffuse(), (mgl32.Vec3{1, 0, 0}); !got.ApproxEqual(want) {
		t.Errorf("Diffuse() = %v, want %v", got, want)
	}
	if got, want := mat.Specular(), (mgl32.Vec3{0.04, 0.04, 0.04}); !got.ApproxEqual(want) {
		t.Errorf("Specular() = %v, want %v", got, want)
	}
}

func TestAnimatedHierarchy(t *testing.T) {
	b := &gltfBuilder{}
	mesh := b.triangle(nil)
	child := b.node(gltfNode{Mesh: &mesh, Scale: &[3]float32{2, 2, 2}})
	parent := b.node(gltfNode{Children: []int{child}})
	b.doc.Scenes = []gltfScene{{Name: "anim", Nodes: []int{parent}}}
	b.doc.Scene = ptr(0)

	times := b.floats(gltfAccessorTypeScalar, 0, 1)
	values := b.floats(gltfAccessorTypeVec3, 0, 0, 0, 2, 0, 0)
	b.doc.Animations = []gltfAnimation{{
		Channels: []gltfAnimChannel{{Sampler: 0, Target: gltfAnimTarget{Node: &parent, Path: gltfAnimPathTranslation}}},
		Samplers: []gltfAnimSampler{{Input: times, Output: values}},
	}}

	r := load(t, b)
	if r.Name != "anim" {
		t.Errorf("Name = %q, want anim", r.Name)
	}
	if len(r.Objects) != 1 {
		t.Fatalf("got %d objects, want 1", len(r.Objects))
	}
	if got := r.Objects[0].Shapes()[0].Mesh.Positions[1]; !got.ApproxEqual(mgl32.Vec3{1, 0, 0}) {
		t.Errorf("animated mesh was transformed: Positions[1] = %v", got)
	}
	if got := r.Objects[0].Shapes()[0].MaterialIndex; got != 0 || len(r.Materials) != 1 || r.Materials[0].Name() != "default" {
		t.Errorf("MaterialIndex = %d with %d materials, want the default material", got, len(r.Materials))
	}

	anim := r.ObjectAnimations[0]
	if anim.Len() != 2 || anim.StartTime() != 0 || anim.EndTime() != 1000000 {
		t.Fatalf("animation has %d keyframes in [%d, %d], want 2 in [0, 1000000]", anim.Len(), anim.StartTime(), anim.EndTime())
	}
	mid := anim.Interpolate(500000)
	if !mid.Translation.ApproxEqual(mgl32.Vec3{1, 0, 0}) || !mid.Scale.ApproxEqual(mgl32.Vec3{2, 2, 2}) {
		t.Errorf("Interpolate(500000) = %+v, want translation (1, 0, 0) and scale 2", mid)
	}

	static := load(t, b, WithAnimationClip(-1))
	if !static.ObjectAnimations[0].IsEmpty() {
		t.Error("WithAnimationClip(-1) still imported an animation")
	}
}

func TestLightsAndCamera(t *testing.T) {
	b := &gltfBuilder{}
	b.doc.Extensions = &gltfDocumentExtensions{LightsPunctual: &gltfLightsPunctual{Lights: []gltfLight{{
		Type:      gltfLightTypeSpot,
		Color:     &[3]float32{1, 0.5, 0},
		Intensity: ptr[float32](luminousEfficacy),
		Spot:      &gltfLightSpot{OuterConeAngle: ptr[float32](math.Pi / 4)},
	}}}}
	b.doc.Cameras = []gltfCamera{{Type: "perspective", Perspective: &gltfCameraPerspective{YFov: math.Pi / 3, ZNear: 0.1}}}
	b.node(gltfNode{Translation: &[3]float32{0, 5, 0}, Extensions: &gltfNodeExtensions{LightsPunctual: &gltfNodeLight{Light: 0}}})
	b.node(gltfNode{Translation: &[3]float32{0, 0, 10}, Camera: ptr(0)})

	r := load(t, b, WithTransformation(mgl32.Translate3D(1, 0, 0)))
	if len(r.Lights) != 1 || len(r.LightAnimations) != 1 {
		t.Fatalf("got %d lights, want 1", len(r.Lights))
	}
	l := r.Lights[0]
	if l.Type() != light.LightTypeSpot || l.IsRelativeToCamera() {
		t.Errorf("light type %v relative %v, want a world-space spot light", l.Type(), l.IsRelativeToCamera())
	}
	if got, want := l.Position(), (mgl32.Vec3{1, 5, 0}); !got.ApproxEqual(want) {
		t.Errorf("Position() = %v, want %v", got, want)
	}
	if got, want := l.Direction(), (mgl32.Vec3{0, 0, -1}); !got.ApproxEqual(want) {
		t.Errorf("Direction() = %v, want %v", got, want)
	}
	if _, outer := l.ConeAngles(); math.Abs(float64(outer)-90) > 1e-3 {
		t.Errorf("outer cone angle = %v, want 90", outer)
	}
	if got, want := float64(l.Power()), 2*math.Pi*(1-math.Cos(math.Pi/4)); math.Abs(got-want) > 1e-4 {
		t.Errorf("Power() = %v, want %v", got, want)
	}

	if r.Camera == nil {
		t.Fatal("Camera = nil, want the perspective camera")
	}
	if math.Abs(float64(r.Camera.OpeningAngle)-60) > 1e-3 {
		t.Errorf("OpeningAngle = %v, want 60", r.Camera.OpeningAngle)
	}
	if got, want := r.Camera.Transformation.Translation, (mgl32.Vec3{1, 0, 10}); !got.ApproxEqual(want) {
		t.Errorf("camera translation = %v, want %v", got, want)
	}
	if !r.Camera.Animation.IsEmpty() {
		t.Error("static camera has a non-empty animation")
	}
}

func TestAddToSceneRebasesMaterials(t *testing.T) {
	b := &gltfBuilder{}
	b.doc.Materials = []gltfMaterial{{Name: "imported"}}
	mesh := b.triangle(ptr(0))
	b.node(gltfNode{Mesh: &mesh})
	r := load(t, b)

	s := scene.NewScene("s", scene.WithMaterials(material.NewMaterial(material.WithName("existing"))))
	r.AddToScene(s)

	if n := len(s.Materials()); n != 2 {
		t.Fatalf("len(Materials()) = %d, want 2", n)
	}
	if got := s.Objects()[0].Shapes()[0].MaterialIndex; got != 1 {
		t.Errorf("MaterialIndex = %d, want 1", got)
	}
	if got := r.Objects[0].Shapes()[0].MaterialIndex; got != 0 {
		t.Errorf("result MaterialIndex changed to %d", got)
	}
}

func TestLoadFileAndCache(t *testing.T) {
	b := &gltfBuilder{}
	mesh := b.triangle(nil)
	b.node(gltfNode{Mesh: &mesh})
	path := filepath.Join(t.TempDir(), "box.gltf")
	if err := os.WriteFile(path, b.json(t), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewLoader()
	first, err := l.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if first.Name != "box" {
		t.Errorf("Name = %q, want box", first.Name)
	}
	second, err := l.Load(path)
	if err != nil || second != first {
		t.Errorf("second Load() = %p, %v, want the cached %p", second, err, first)
	}
	if l.Get(path) != first || len(l.Results()) != 1 {
		t.Error("cache does not hold the loaded result")
	}

	if _, err := l.Load(filepath.Join(t.TempDir(), "scene.obj")); !errors.Is(err, ErrUnsupportedFile) {
		t.Errorf("Load(.obj) error = %v, want %v", err, ErrUnsupportedFile)
	}
}

func TestParserAccessors(t *testing.T) {
	b := &gltfBuilder{}
	uv := b.accessor(gltfAccessorTypeVec2, gltfComponentTypeUnsignedByte, 2, []byte{255, 0, 51, 255})
	b.doc.Accessors[uv].Normalized = true
	bad := b.floats(gltfAccessorTypeVec3, 0, 0, 0)
	b.doc.Accessors[bad].Count = 2

	p := newGLTFParser()
	if err := p.ParseReader(bytes.NewReader(b.json(t)), false); err != nil {
		t.Fatalf("ParseReader() error = %v", err)
	}

	got, err := p.ReadVec2Accessor(uv)
	if err != nil {
		t.Fatalf("ReadVec2Accessor() error = %v", err)
	}
	want := []mgl32.Vec2{{1, 0}, {0.2, 1}}
	for i := range want {
		if !got[i].ApproxEqual(want[i]) {
			t.Errorf("element %d = %v, want %v", i, got[i], want[i])
		}
	}
	if _, err := p.ReadVec3Accessor(uv); err == nil {
		t.Error("ReadVec3Accessor() on a VEC2 accessor succeeded")
	}
	if _, err := p.ReadVec3Accessor(bad); !errors.Is(err, errAccessorOutOfBounds) {
		t.Errorf("ReadVec3Accessor() error = %v, want %v", err, errAccessorOutOfBounds)
	}
}

func TestParserRejectsDocuments(t *testing.T) {
	tests := []struct {
		name string
		json string
		want error
	}{
		{"version", `{"asset":{"version":"1.0"}}`, errInvalidGLTFVersion},
		{"extension", `{"asset":{"version":"2.0"},"extensionsRequired":["KHR_draco_mesh_compression"]}`, errUnsupportedExtension},
		{"buffer uri", `{"asset":{"version":"2.0"},"buffers":[{"uri":"data:foo","byteLength":1}]}`, errInvalidBufferURI},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newGLTFParser().ParseReader(bytes.NewReader([]byte(tt.json)), false)
			if !errors.Is(err, tt.want) {
				t.Errorf("ParseReader() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTriangulate(t *testing.T) {
	tests := []struct {
		name string
		mode int
		in   []uint32
		want []uint32
	}{
		{"list", gltfPrimitiveModeTriangles, []uint32{0, 1, 2, 3}, []uint32{0, 1, 2}},
		{"strip", gltfPrimitiveModeTriangleStrip, []uint32{0, 1, 2, 3}, []uint32{0, 1, 2, 2, 1, 3}},
		{"fan", gltfPrimitiveModeTriangleFan, []uint32{0, 1, 2, 3}, []uint32{0, 1, 2, 0, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := gltfTriangulate(tt.in, tt.mode)
			if len(got) != len(tt.want) {
				t.Fatalf("gltfTriangulate() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("gltfTriangulate() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestPhongConversion(t *testing.T) {
	diffuse, specular := gltfPhongColors([4]float32{0.5, 0.5, 0.5, 1}, 1)
	if diffuse != [3]float32{} || specular != [3]float32{0.5, 0.5, 0.5} {
		t.Errorf("gltfPhongColors(metal) = %v, %v, want black diffuse and base color specular", diffuse, specular)
	}
	if got := gltfShininess(1); got != 1 {
		t.Errorf("gltfShininess(1) = %v, want 1", got)
	}
	if got := gltfShininess(0); got != 1000 {
		t.Errorf("gltfShininess(0) = %v, want 1000", got)
	}
}
