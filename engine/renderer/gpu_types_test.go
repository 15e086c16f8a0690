package renderer

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestGPUTypeSizes(t *testing.T) {
	pass := NewGPUPassUniforms(PassUniforms{}, mgl32.Vec2{4, 4}, 0, false)
	if got := pass.Size(); got != 272 {
		t.Errorf("GPUPassUniforms.Size() = %d, want 272", got)
	}
	if got := len(pass.Marshal()); got != 272 {
		t.Errorf("len(GPUPassUniforms.Marshal()) = %d, want 272", got)
	}
	obj := NewGPUObjectUniforms(ObjectUniforms{}, mgl32.Ident4())
	if got := obj.Size(); got != 448 {
		t.Errorf("GPUObjectUniforms.Size() = %d, want 448", got)
	}
	fs := NewGPUFullscreenUniforms(FullscreenUniforms{}, mgl32.Vec2{}, mgl32.Vec2{}, [2]uint32{1, 1}, 1)
	if got := fs.SizeBytes(); got != 96 {
		t.Errorf("GPUFullscreenUniforms.SizeBytes() = %d, want 96", got)
	}
	info := GPUDrawInfo{ObjectIndex: 1, ShapeIndex: 2, MaterialIndex: 3, Flags: 4}
	buf := info.Marshal()
	for i, want := range []uint32{1, 2, 3, 4} {
		if got := binary.LittleEndian.Uint32(buf[4*i:]); got != want {
			t.Errorf("GPUDrawInfo word %d = %d, want %d", i, got, want)
		}
	}
}

func TestGPUPassUniformsOffsets(t *testing.T) {
	u := PassUniforms{Near: 0.5, Far: 100, RSMSamples: 36, SubFrame: 3}
	g := NewGPUPassUniforms(u, mgl32.Vec2{640, 480}, 2, true)
	buf := g.Marshal()
	f32 := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])) }
	u32 := func(off int) uint32 { return binary.LittleEndian.Uint32(buf[off:]) }

	if got := f32(128); got != 640 {
		t.Errorf("viewport.x = %v, want 640", got)
	}
	if got := f32(136); got != 0.5 {
		t.Errorf("near = %v, want 0.5", got)
	}
	if got := f32(140); got != 100 {
		t.Errorf("far = %v, want 100", got)
	}
	if got := u32(208); got != 2 {
		t.Errorf("light count = %d, want 2", got)
	}
	if got := u32(252); got != 36 {
		t.Errorf("rsm samples = %d, want 36", got)
	}
	if got := u32(256); got != 1 {
		t.Errorf("has last depth = %d, want 1", got)
	}
	if got := u32(260); got != 3 {
		t.Errorf("sub frame = %d, want 3", got)
	}
}

func TestNewGPUObjectUniformsAppliesClip(t *testing.T) {
	mvp := mgl32.Translate3D(1, 2, 3)
	clip := mgl32.Scale3D(1, 1, 0.5)
	g := NewGPUObjectUniforms(ObjectUniforms{MVP: mvp, ModelView: mvp}, clip)
	if got, want := mgl32.Mat4(g.MVP), clip.Mul4(mvp); got != want {
		t.Errorf("MVP = %v, want %v", got, want)
	}
	if got := mgl32.Mat4(g.ModelView); got != mvp {
		t.Errorf("ModelView = %v, want unchanged %v", got, mvp)
	}
}

func TestMarshalBuffersNeverEmpty(t *testing.T) {
	if got := len(MarshalObjectBuffer(nil, mgl32.Ident4())); got != 448 {
		t.Errorf("len(MarshalObjectBuffer(nil)) = %d, want 448", got)
	}
	if got := len(MarshalObjectBuffer(make([]ObjectUniforms, 3), mgl32.Ident4())); got != 3*448 {
		t.Errorf("len(MarshalObjectBuffer(3 objects)) = %d, want %d", got, 3*448)
	}
	if got := len(MarshalWeights(nil)); got != 4 {
		t.Errorf("len(MarshalWeights(nil)) = %d, want 4", got)
	}
	w := MarshalWeights([]float32{0.25, 0.75})
	if got := math.Float32frombits(binary.LittleEndian.Uint32(w[4:])); got != 0.75 {
		t.Errorf("weight 1 = %v, want 0.75", got)
	}
}
