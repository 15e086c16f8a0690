package scene

import (
	"github.com/Carmen-Shannon/camsim-go/engine/animation"
	"github.com/Carmen-Shannon/camsim-go/engine/light"
	"github.com/Carmen-Shannon/camsim-go/engine/model"
	"github.com/Carmen-Shannon/camsim-go/engine/renderer/material"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithMaterials appends materials to the scene.
//
// Parameters:
//   - materials: the materials to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithMaterials(materials ...material.Material) SceneBuilderOption {
	return func(s *scene) {
		s.materials = append(s.materials, materials...)
	}
}

// WithLights appends lights to the scene, each with an empty animation.
//
// Parameters:
//   - lights: the lights to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLights(lights ...light.Light) SceneBuilderOption {
	return func(s *scene) {
		for _, l := range lights {
			s.lights = append(s.lights, l)
			s.lightAnimations = append(s.lightAnimations, &animation.Animation{})
		}
	}
}

// WithObjects appends objects to the scene, each with an empty animation.
//
// Parameters:
//   - objects: the objects to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithObjects(objects ...model.Object) SceneBuilderOption {
	return func(s *scene) {
		for _, o := range objects {
			s.objects = append(s.objects, o)
			s.objectAnimations = append(s.objectAnimations, &animation.Animation{})
		}
	}
}

// WithLightAnimations replaces the light animation list. The list is taken as is, so a
// length that differs from the light count is reported by the simulator as a configuration error.
//
// Parameters:
//   - anims: one animation per light
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLightAnimations(anims ...*animation.Animation) SceneBuilderOption {
	return func(s *scene) {
		s.lightAnimations = append([]*animation.Animation(nil), anims...)
	}
}

// WithObjectAnimations replaces the object animation list. The list is taken as is, so a
// length that differs from the object count is reported by the simulator as a configuration error.
//
// Parameters:
//   - anims: one animation per object
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithObjectAnimations(anims ...*animation.Animation) SceneBuilderOption {
	return func(s *scene) {
		s.objectAnimations = append([]*animation.Animation(nil), anims...)
	}
}
