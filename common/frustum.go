package common

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Plane represents a plane in 3D space using the equation: ax + by + cz + d = 0
// where (a, b, c) is the normal and d is the distance from origin.
type Plane struct {
	Normal   mgl32.Vec3
	Distance float32
}

// Frustum represents the six planes of a view frustum for culling.
// Planes are oriented so that positive half-space is inside the frustum.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

// FrustumPlane indices for clarity
const (
	FrustumLeft   = 0
	FrustumRight  = 1
	FrustumBottom = 2
	FrustumTop    = 3
	FrustumNear   = 4
	FrustumFar    = 5
)

// ExtractFrustumFromMatrix extracts frustum planes from a clip matrix (projection * model-view).
// Uses the Gribb/Hartmann method for plane extraction with OpenGL clip depth [-1, 1].
//
// Reference: https://www8.cs.umu.se/kurser/5DV051/HT12/lab/plane_extraction.pdf
//
// Parameters:
//   - m: the combined clip matrix
//
// Returns:
//   - Frustum: the extracted frustum with normalized planes
func ExtractFrustumFromMatrix(m mgl32.Mat4) Frustum {
	var f Frustum
	r0, r1, r2, r3 := m.Rows()

	set := func(i int, v mgl32.Vec4) {
		n := v.Vec3()
		l := n.Len()
		if l > 0 {
			f.Planes[i] = Plane{Normal: n.Mul(1 / l), Distance: v[3] / l}
			return
		}
		f.Planes[i] = Plane{Normal: n, Distance: v[3]}
	}

	set(FrustumLeft, r3.Add(r0))
	set(FrustumRight, r3.Sub(r0))
	set(FrustumBottom, r3.Add(r1))
	set(FrustumTop, r3.Sub(r1))
	set(FrustumNear, r3.Add(r2))
	set(FrustumFar, r3.Sub(r2))

	return f
}

// IntersectsBox reports whether the axis-aligned box [lo, hi] is at least partially inside the frustum.
// The test is conservative: boxes outside near a frustum corner may still be reported as visible.
//
// Parameters:
//   - lo: minimum corner of the box
//   - hi: maximum corner of the box
//
// Returns:
//   - bool: false only if the box lies entirely outside one plane
func (f Frustum) IntersectsBox(lo, hi mgl32.Vec3) bool {
	for _, p := range f.Planes {
		// positive vertex: the box corner furthest along the plane normal
		var v mgl32.Vec3
		for k := 0; k < 3; k++ {
			if p.Normal[k] >= 0 {
				v[k] = hi[k]
			} else {
				v[k] = lo[k]
			}
		}
		if p.Normal.Dot(v)+p.Distance < 0 {
			return false
		}
	}
	return true
}
