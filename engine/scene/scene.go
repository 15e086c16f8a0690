// Package scene aggregates the materials, lights, objects and animations that a simulator renders.
package scene

import (
	"sync"

	"github.com/Carmen-Shannon/camsim-go/engine/animation"
	"github.com/Carmen-Shannon/camsim-go/engine/light"
	"github.com/Carmen-Shannon/camsim-go/engine/model"
	"github.com/Carmen-Shannon/camsim-go/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
)

// Scene holds everything the simulator draws. The i-th light is moved by the i-th light
// animation and the i-th object by the i-th object animation; an empty animation leaves the
// entity at its identity transformation.
// Thread-safe for concurrent access. Accessors return copies of the internal lists.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// AddMaterial appends a material to the scene.
	//
	// Parameters:
	//   - m: the material
	//
	// Returns:
	//   - int: the material index used by model.Shape.MaterialIndex
	AddMaterial(m material.Material) int

	// Materials returns the material list.
	Materials() []material.Material

	// AddLight appends a light and its animation. Omitting the animation registers an empty one.
	//
	// Parameters:
	//   - l: the light
	//   - anim: optional animation, only the first one is used
	//
	// Returns:
	//   - int: the light index
	AddLight(l light.Light, anim ...*animation.Animation) int

	// Lights returns the light list.
	Lights() []light.Light

	// LightAnimations returns the light animation list.
	LightAnimations() []*animation.Animation

	// SetLightAnimation replaces the animation of a light. Out of range indices are ignored.
	//
	// Parameters:
	//   - i: the light index
	//   - anim: the new animation
	SetLightAnimation(i int, anim *animation.Animation)

	// AddObject appends an object and its animation. Omitting the animation registers an empty one.
	//
	// Parameters:
	//   - o: the object
	//   - anim: optional animation, only the first one is used
	//
	// Returns:
	//   - int: the object index, also written to the indices output
	AddObject(o model.Object, anim ...*animation.Animation) int

	// Objects returns the object list.
	Objects() []model.Object

	// ObjectAnimations returns the object animation list.
	ObjectAnimations() []*animation.Animation

	// SetObjectAnimation replaces the animation of an object. Out of range indices are ignored.
	//
	// Parameters:
	//   - i: the object index
	//   - anim: the new animation
	SetObjectAnimation(i int, anim *animation.Animation)

	// Bounds returns the world-space bounding box of all objects at their identity pose.
	//
	// Returns:
	//   - lo: minimum corner
	//   - hi: maximum corner
	Bounds() (lo, hi mgl32.Vec3)

	// Clear removes all materials, lights, objects and animations.
	Clear()
}

// scene is the implementation of the Scene interface.
type scene struct {
	name             string
	materials        []material.Material
	lights           []light.Light
	lightAnimations  []*animation.Animation
	objects          []model.Object
	objectAnimations []*animation.Animation

	mu *sync.RWMutex
}

var _ Scene = &scene{}

// NewScene creates a new empty Scene with the given options applied.
//
// Parameters:
//   - name: the scene identifier
//   - options: variadic list of SceneBuilderOption functions
//
// Returns:
//   - Scene: the new scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	s := &scene{
		name: name,
		mu:   &sync.RWMutex{},
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) AddMaterial(m material.Material) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.materials = append(s.materials, m)
	return len(s.materials) - 1
}

func (s *scene) Materials() []material.Material {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]material.Material(nil), s.materials...)
}

func (s *scene) AddLight(l light.Light, anim ...*animation.Animation) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lights = append(s.lights, l)
	s.lightAnimations = append(s.lightAnimations, firstOrEmpty(anim))
	return len(s.lights) - 1
}

func (s *scene) Lights() []light.Light {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]light.Light(nil), s.lights...)
}

func (s *scene) LightAnimations() []*animation.Animation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*animation.Animation(nil), s.lightAnimations...)
}

func (s *scene) SetLightAnimation(i int, anim *animation.Animation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i >= 0 && i < len(s.lightAnimations) {
		s.lightAnimations[i] = anim
	}
}

func (s *scene) AddObject(o model.Object, anim ...*animation.Animation) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects = append(s.objects, o)
	s.objectAnimations = append(s.objectAnimations, firstOrEmpty(anim))
	return len(s.objects) - 1
}

func (s *scene) Objects() []model.Object {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Object(nil), s.objects...)
}

func (s *scene) ObjectAnimations() []*animation.Animation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*animation.Animation(nil), s.objectAnimations...)
}

func (s *scene) SetObjectAnimation(i int, anim *animation.Animation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i >= 0 && i < len(s.objectAnimations) {
		s.objectAnimations[i] = anim
	}
}

func (s *scene) Bounds() (mgl32.Vec3, mgl32.Vec3) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var lo, hi mgl32.Vec3
	first := true
	for _, o := range s.objects {
		if o.TriangleCount() == 0 {
			continue
		}
		l, h := o.Bounds()
		if first {
			lo, hi, first = l, h, false
			continue
		}
		for k := 0; k < 3; k++ {
			lo[k] = min(lo[k], l[k])
			hi[k] = max(hi[k], h[k])
		}
	}
	return lo, hi
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.materials = nil
	s.lights = nil
	s.lightAnimations = nil
	s.objects = nil
	s.objectAnimations = nil
}

func firstOrEmpty(anim []*animation.Animation) *animation.Animation {
	if len(anim) > 0 {
		return anim[0]
	}
	return &animation.Animation{}
}
