package scene

import (
	"testing"

	"github.com/Carmen-Shannon/camsim-go/engine/animation"
	"github.com/Carmen-Shannon/camsim-go/engine/light"
	"github.com/Carmen-Shannon/camsim-go/engine/model"
	"github.com/Carmen-Shannon/camsim-go/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
)

func TestAddKeepsAnimationsAligned(t *testing.T) {
	s := NewScene("test")
	if got := s.AddMaterial(material.NewMaterial()); got != 0 {
		t.Errorf("AddMaterial() = %d, want 0", got)
	}
	anim := animation.NewAnimation(animation.Keyframe{Timestamp: 5, Transformation: animation.Identity()})
	s.AddLight(light.NewLight(light.LightTypePoint))
	if got := s.AddLight(light.NewLight(light.LightTypeSpot), anim); got != 1 {
		t.Errorf("AddLight() = %d, want 1", got)
	}
	if got := len(s.LightAnimations()); got != 2 {
		t.Fatalf("len(LightAnimations()) = %d, want 2", got)
	}
	if !s.LightAnimations()[0].IsEmpty() || s.LightAnimations()[1].Len() != 1 {
		t.Errorf("LightAnimations() = %v, want [empty, 1 keyframe]", s.LightAnimations())
	}

	mesh := &model.Mesh{
		Positions: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 2, -1}},
		Indices:   []uint32{0, 1, 2},
	}
	s.AddObject(model.NewObject(model.WithShape(mesh, 0)))
	if got := len(s.ObjectAnimations()); got != 1 {
		t.Errorf("len(ObjectAnimations()) = %d, want 1", got)
	}
	lo, hi := s.Bounds()
	if lo != (mgl32.Vec3{0, 0, -1}) || hi != (mgl32.Vec3{1, 2, 0}) {
		t.Errorf("Bounds() = %v, %v, want (0,0,-1), (1,2,0)", lo, hi)
	}

	s.Clear()
	if len(s.Lights()) != 0 || len(s.Objects()) != 0 || len(s.Materials()) != 0 {
		t.Errorf("Clear() left entities behind")
	}
}

func TestAnimationListOptions(t *testing.T) {
	s := NewScene("mismatch",
		WithLights(light.NewLight(light.LightTypePoint), light.NewLight(light.LightTypePoint)),
		WithLightAnimations(&animation.Animation{}),
	)
	if len(s.Lights()) != 2 || len(s.LightAnimations()) != 1 {
		t.Errorf("lights = %d, animations = %d, want 2, 1", len(s.Lights()), len(s.LightAnimations()))
	}
}
