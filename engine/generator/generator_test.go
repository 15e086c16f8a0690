package generator

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/camsim-go/engine/animation"
	"github.com/Carmen-Shannon/camsim-go/engine/model"
	"github.com/Carmen-Shannon/camsim-go/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

func approx(a, b mgl32.Vec3) bool {
	return a.ApproxEqualThreshold(b, 1e-5)
}

func TestPrimitives(t *testing.T) {
	tests := []struct {
		name     string
		mesh     *model.Mesh
		vertices int
		indices  int
		lo, hi   mgl32.Vec3
	}{
		{"quad", Quad(4), 25, 96, mgl32.Vec3{-1, -1, 0}, mgl32.Vec3{1, 1, 0}},
		{"cube", Cube(2), 54, 144, mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1}},
		{"disk", Disk(0.2, 8), 18, 48, mgl32.Vec3{-1, -1, 0}, mgl32.Vec3{1, 1, 0}},
		{"sphere", Sphere(8, 4), 45, 192, mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1}},
		{"cylinder", Cylinder(8), 18, 48, mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1}},
		{"cone", Cone(8, 2), 27, 96, mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1}},
		{"torus", Torus(0.4, 8, 8), 81, 384, mgl32.Vec3{-1, -1, -0.3}, mgl32.Vec3{1, 1, 0.3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.mesh
			if len(m.Positions) != tt.vertices {
				t.Errorf("len(Positions) = %d, want %d", len(m.Positions), tt.vertices)
			}
			if len(m.Normals) != tt.vertices || len(m.TexCoords) != tt.vertices || len(m.Tangents) != tt.vertices {
				t.Errorf("attribute lengths = %d/%d/%d, want %d", len(m.Normals), len(m.TexCoords), len(m.Tangents), tt.vertices)
			}
			if len(m.Indices) != tt.indices {
				t.Errorf("len(Indices) = %d, want %d", len(m.Indices), tt.indices)
			}
			for _, i := range m.Indices {
				if int(i) >= len(m.Positions) {
					t.Fatalf("index %d out of range", i)
				}
			}
			lo, hi := m.Bounds()
			if !approx(lo, tt.lo) || !approx(hi, tt.hi) {
				t.Errorf("Bounds() = %v, %v, want %v, %v", lo, hi, tt.lo, tt.hi)
			}
			for i, n := range m.Normals {
				if l := n.Len(); math.Abs(float64(l)-1) > 1e-4 {
					t.Errorf("normal %d has length %v", i, l)
					break
				}
			}
			for i, uv := range m.TexCoords {
				if uv[0] < 0 || uv[0] > 1 || uv[1] < 0 || uv[1] > 1 {
					t.Errorf("texcoord %d = %v, want in [0,1]", i, uv)
					break
				}
			}
		})
	}
}

func TestWindingMatchesNormals(t *testing.T) {
	meshes := map[string]*model.Mesh{
		"quad":     Quad(3),
		"cube":     Cube(3),
		"disk":     Disk(0, 12),
		"sphere":   Sphere(12, 6),
		"cylinder": Cylinder(12),
		"cone":     Cone(12, 3),
		"torus":    Torus(0.5, 12, 12),
	}
	for name, m := range meshes {
		t.Run(name, func(t *testing.T) {
			for k := 0; k < len(m.Indices); k += 3 {
				a, b, c := m.Indices[k], m.Indices[k+1], m.Indices[k+2]
				face := m.Positions[b].Sub(m.Positions[a]).Cross(m.Positions[c].Sub(m.Positions[a]))
				if face.Len() < 1e-6 {
					continue
				}
				n := m.Normals[a].Add(m.Normals[b]).Add(m.Normals[c])
				if face.Dot(n) <= 0 {
					t.Fatalf("triangle %d winds against its normals", k/3)
				}
			}
		})
	}
}

func TestOutwardNormals(t *testing.T) {
	m := Sphere(8, 4)
	for i, p := range m.Positions {
		if !approx(m.Normals[i], p) {
			t.Errorf("sphere normal %d = %v, want %v", i, m.Normals[i], p)
		}
	}
	q := Quad(1)
	for i, tan := range q.Tangents {
		if !tan.ApproxEqual(mgl32.Vec4{1, 0, 0, 1}) {
			t.Errorf("quad tangent %d = %v, want (1, 0, 0, 1)", i, tan)
		}
	}
}

func TestAddToScene(t *testing.T) {
	s := scene.NewScene("generated")
	tr := animation.NewTransformation(mgl32.Vec3{0, 0, -5}, mgl32.QuatIdent(), mgl32.Vec3{2, 2, 2})
	anim := animation.NewAnimation(animation.Keyframe{Timestamp: 0, Transformation: animation.Identity()})

	AddCubeToScene(s, 0, animation.Identity())
	if got := AddSphereToScene(s, 1, tr, anim); got != 1 {
		t.Errorf("AddSphereToScene() = %d, want 1", got)
	}

	objs := s.Objects()
	if len(objs) != 2 {
		t.Fatalf("len(Objects()) = %d, want 2", len(objs))
	}
	if objs[1].Name() != "sphere" {
		t.Errorf("Name() = %q, want %q", objs[1].Name(), "sphere")
	}
	if got := objs[1].Shapes()[0].MaterialIndex; got != 1 {
		t.Errorf("MaterialIndex = %d, want 1", got)
	}
	lo, hi := objs[1].Bounds()
	if !approx(lo, mgl32.Vec3{-2, -2, -7}) || !approx(hi, mgl32.Vec3{2, 2, -3}) {
		t.Errorf("Bounds() = %v, %v, want (-2,-2,-7), (2,2,-3)", lo, hi)
	}
	if s.ObjectAnimations()[0].Len() != 0 || s.ObjectAnimations()[1] != anim {
		t.Errorf("ObjectAnimations() not aligned with objects")
	}
}

func TestInvalidParametersPanic(t *testing.T) {
	tests := map[string]func(){
		"sphere slices": func() { Sphere(3, 2) },
		"cone stacks":   func() { Cone(4, 1) },
		"disk radius":   func() { Disk(1.5, 8) },
		"torus radius":  func() { Torus(1, 8, 8) },
		"quad slices":   func() { Quad(0) },
	}
	for name, fn := range tests {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("%s did not panic", name)
				}
			}()
			fn()
		})
	}
}
