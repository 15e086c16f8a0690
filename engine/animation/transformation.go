// Package animation holds rigid-body poses and keyframe animations sampled in microseconds.
package animation

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Transformation is an affine pose built from translation, rotation and scale.
// The zero value is not the identity; use Identity or NewTransformation.
type Transformation struct {
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3
}

// Identity returns the transformation that leaves every point unchanged.
//
// Returns:
//   - Transformation: zero translation, identity rotation, unit scale
func Identity() Transformation {
	return Transformation{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// NewTransformation builds a transformation from its components.
// The rotation is normalized.
//
// Parameters:
//   - translation: position offset
//   - rotation: orientation quaternion
//   - scale: per-axis scale factors
//
// Returns:
//   - Transformation: the composed pose
func NewTransformation(translation mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) Transformation {
	return Transformation{Translation: translation, Rotation: rotation.Normalize(), Scale: scale}
}

// Matrix returns the 4x4 matrix T * R * S.
//
// Returns:
//   - mgl32.Mat4: the column-major transformation matrix
func (t Transformation) Matrix() mgl32.Mat4 {
	m := mgl32.Translate3D(t.Translation[0], t.Translation[1], t.Translation[2])
	m = m.Mul4(t.Rotation.Mat4())
	return m.Mul4(mgl32.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2]))
}

// Mul returns the transformation equivalent to applying o first and then t.
// Non-uniform scales combined with rotation cannot be represented exactly and are approximated
// by reconstructing from the product matrix.
func (t Transformation) Mul(o Transformation) Transformation {
	return FromMatrix(t.Matrix().Mul4(o.Matrix()))
}

// FromMatrix decomposes an affine matrix into translation, rotation and scale.
// Negative scale factors are not recovered; the result is only meaningful for positive scales.
//
// Parameters:
//   - m: an affine matrix without shear
//
// Returns:
//   - Transformation: the decomposed pose
func FromMatrix(m mgl32.Mat4) Transformation {
	translation := m.Col(3).Vec3()
	c0, c1, c2 := m.Col(0).Vec3(), m.Col(1).Vec3(), m.Col(2).Vec3()
	scale := mgl32.Vec3{c0.Len(), c1.Len(), c2.Len()}

	rotation := mgl32.QuatIdent()
	if scale[0] > 0 && scale[1] > 0 && scale[2] > 0 {
		r := mgl32.Mat3FromCols(c0.Mul(1/scale[0]), c1.Mul(1/scale[1]), c2.Mul(1/scale[2]))
		rotation = mgl32.Mat4ToQuat(r.Mat4()).Normalize()
	}
	return Transformation{Translation: translation, Rotation: rotation, Scale: scale}
}

// Interpolate blends a and b. Translation and scale are interpolated linearly, rotation
// spherically along the shortest arc.
//
// Parameters:
//   - a: pose at alpha = 0
//   - b: pose at alpha = 1
//   - alpha: blend factor in [0, 1]
//
// Returns:
//   - Transformation: the blended pose
func Interpolate(a, b Transformation, alpha float32) Transformation {
	return Transformation{
		Translation: a.Translation.Add(b.Translation.Sub(a.Translation).Mul(alpha)),
		Rotation:    mgl32.QuatSlerp(a.Rotation, b.Rotation, alpha),
		Scale:       a.Scale.Add(b.Scale.Sub(a.Scale).Mul(alpha)),
	}
}

// ApproxEqual reports whether two poses match within a small tolerance.
// Rotations are compared as orientations, so q and -q are equal.
func (t Transformation) ApproxEqual(o Transformation) bool {
	const eps = 1e-4
	return vecNear(t.Translation, o.Translation, eps) &&
		vecNear(t.Scale, o.Scale, eps) &&
		t.Rotation.OrientationEqualThreshold(o.Rotation, eps)
}

// vecNear compares component-wise against an absolute tolerance. mgl32's relative
// comparison squares the threshold when either operand is zero.
func vecNear(a, b mgl32.Vec3, eps float32) bool {
	for i := range a {
		if mgl32.Abs(a[i]-b[i]) > eps {
			return false
		}
	}
	return true
}
