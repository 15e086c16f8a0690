// Package model holds the geometry of simulated scenes: meshes, shapes and objects.
package model

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Shape is a mesh drawn with one material.
type Shape struct {
	// MaterialIndex indexes the scene's material list.
	MaterialIndex int
	Mesh          *Mesh
}

// object is the implementation of the Object interface.
type object struct {
	name   string
	shapes []Shape
}

// Object defines the interface for a rigid scene entity made of one or more shapes.
// Objects are immutable once constructed; the scene's object animation moves them.
type Object interface {
	// Name retrieves the object identifier.
	//
	// Returns:
	//   - string: the object name
	Name() string

	// Shapes retrieves the shapes of the object.
	//
	// Returns:
	//   - []Shape: the shapes in draw order
	Shapes() []Shape

	// Bounds returns the axis-aligned bounding box over all shapes in object space.
	//
	// Returns:
	//   - lo: minimum corner
	//   - hi: maximum corner
	Bounds() (lo, hi mgl32.Vec3)

	// TriangleCount returns the total number of triangles.
	//
	// Returns:
	//   - int: the triangle count
	TriangleCount() int
}

var _ Object = &object{}

// NewObject creates a new Object with the provided options applied.
//
// Parameters:
//   - opts: variadic list of ObjectBuilderOption functions to configure the object
//
// Returns:
//   - Object: a new Object instance
func NewObject(opts ...ObjectBuilderOption) Object {
	o := &object{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *object) Name() string {
	return o.name
}

func (o *object) Shapes() []Shape {
	return o.shapes
}

func (o *object) Bounds() (mgl32.Vec3, mgl32.Vec3) {
	var lo, hi mgl32.Vec3
	first := true
	for _, s := range o.shapes {
		if s.Mesh == nil || len(s.Mesh.Positions) == 0 {
			continue
		}
		l, h := s.Mesh.Bounds()
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

func (o *object) TriangleCount() int {
	n := 0
	for _, s := range o.shapes {
		if s.Mesh != nil {
			n += s.Mesh.TriangleCount()
		}
	}
	return n
}
