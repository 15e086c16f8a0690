package model

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func quad() *Mesh {
	return &Mesh{
		Positions: []mgl32.Vec3{{-1, -1, 0}, {1, -1, 0}, {1, 1, 0}, {-1, 1, 0}},
		TexCoords: []mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
		Indices:   []uint32{0, 1, 2, 0, 2, 3},
	}
}

func TestComputeNormalsAndTangents(t *testing.T) {
	m := quad()
	m.ComputeNormals()
	m.ComputeTangents()
	for i := range m.Positions {
		if !m.Normals[i].ApproxEqual(mgl32.Vec3{0, 0, 1}) {
			t.Errorf("normal %d = %v, want +Z", i, m.Normals[i])
		}
		if !m.Tangents[i].ApproxEqual(mgl32.Vec4{1, 0, 0, 1}) {
			t.Errorf("tangent %d = %v, want (1, 0, 0, 1)", i, m.Tangents[i])
		}
	}
}

func TestTransformAndBounds(t *testing.T) {
	m := quad()
	m.ComputeNormals()
	m.Transform(mgl32.Translate3D(0, 0, -2).Mul4(mgl32.Scale3D(2, 1, 1)))
	lo, hi := m.Bounds()
	if !lo.ApproxEqual(mgl32.Vec3{-2, -1, -2}) || !hi.ApproxEqual(mgl32.Vec3{2, 1, -2}) {
		t.Errorf("Bounds() = %v, %v, want (-2,-1,-2), (2,1,-2)", lo, hi)
	}
	if !m.Normals[0].ApproxEqual(mgl32.Vec3{0, 0, 1}) {
		t.Errorf("normal after transform = %v, want +Z", m.Normals[0])
	}
}

func TestObject(t *testing.T) {
	o := NewObject(WithName("pair"), WithShape(quad(), 0), WithShape(quad(), 1))
	if o.TriangleCount() != 4 {
		t.Errorf("TriangleCount() = %d, want 4", o.TriangleCount())
	}
	if got := len(MarshalVertices(o.Shapes()[0].Mesh)); got != 4*48 {
		t.Errorf("len(MarshalVertices) = %d, want %d", got, 4*48)
	}
}
