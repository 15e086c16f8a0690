package config

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Projection is a pinhole camera model with optional lens distortion.
// The frustum extents l, r, b, t are given at unit distance from the pinhole.
type Projection struct {
	width, height  int
	l, r, b, t     float32
	k1, k2, p1, p2 float32
}

// DefaultProjection returns a 640x480 image with a vertical opening angle of 70 degrees.
func DefaultProjection() Projection {
	return ProjectionFromOpeningAngle(640, 480, 70)
}

// ProjectionFromFrustum creates a projection from frustum extents at unit distance.
func ProjectionFromFrustum(width, height int, l, r, b, t float32) Projection {
	return Projection{width: width, height: height, l: l, r: r, b: b, t: t}
}

// ProjectionFromOpeningAngle creates a symmetric projection with the given vertical opening angle.
//
// Parameters:
//   - width: image width in pixels
//   - height: image height in pixels
//   - fovyDegrees: vertical opening angle in degrees
//
// Returns:
//   - Projection: the symmetric projection
func ProjectionFromOpeningAngle(width, height int, fovyDegrees float32) Projection {
	t := float32(math.Tan(float64(mgl32.DegToRad(fovyDegrees / 2))))
	r := t * float32(width) / float32(height)
	return ProjectionFromFrustum(width, height, -r, r, -t, t)
}

// ProjectionFromIntrinsics creates a projection from pinhole intrinsics in pixels.
//
// Parameters:
//   - width, height: image size in pixels
//   - centerX, centerY: principal point in pixels
//   - focalLengthX, focalLengthY: focal lengths in pixels
//
// Returns:
//   - Projection: the projection reproducing the intrinsics
func ProjectionFromIntrinsics(width, height int, centerX, centerY, focalLengthX, focalLengthY float32) Projection {
	rml := float32(width) / focalLengthX
	l := -(centerX + 0.5) * rml / float32(width)
	tmb := float32(height) / focalLengthY
	b := -(centerY + 0.5) * tmb / float32(height)
	return ProjectionFromFrustum(width, height, l, rml+l, b, tmb+b)
}

// Width returns the image width in pixels.
func (p Projection) Width() int { return p.width }

// Height returns the image height in pixels.
func (p Projection) Height() int { return p.height }

// Frustum returns the frustum extents at unit distance.
func (p Projection) Frustum() (l, r, b, t float32) { return p.l, p.r, p.b, p.t }

// Matrix returns the OpenGL-style projection matrix for the given clipping planes.
func (p Projection) Matrix(near, far float32) mgl32.Mat4 {
	return mgl32.Frustum(p.l*near, p.r*near, p.b*near, p.t*near, near, far)
}

// OpeningAngle returns the vertical opening angle in degrees.
func (p Projection) OpeningAngle() float32 {
	return mgl32.RadToDeg(float32(math.Atan(float64(p.t)) - math.Atan(float64(p.b))))
}

// CenterPixel returns the principal point in pixels.
func (p Projection) CenterPixel() mgl32.Vec2 {
	return mgl32.Vec2{
		p.r/(p.r-p.l)*float32(p.width) - 0.5,
		p.t/(p.t-p.b)*float32(p.height) - 0.5,
	}
}

// FocalLengths returns the focal lengths in pixels.
func (p Projection) FocalLengths() mgl32.Vec2 {
	return mgl32.Vec2{
		float32(p.width) / (p.r - p.l),
		float32(p.height) / (p.t - p.b),
	}
}

// SetDistortion sets the radial (k1, k2) and tangential (p1, p2) distortion coefficients.
func (p *Projection) SetDistortion(k1, k2, p1, p2 float32) {
	p.k1, p.k2, p.p1, p.p2 = k1, k2, p1, p2
}

// Distortion returns the radial and tangential distortion coefficients.
func (p Projection) Distortion() (k1, k2, p1, p2 float32) {
	return p.k1, p.k2, p.p1, p.p2
}

// Scaled returns the same frustum rendered at an integer multiple of the image size.
// It is used for spatially oversampled intermediate targets.
func (p Projection) Scaled(sx, sy int) Projection {
	q := p
	q.width *= sx
	q.height *= sy
	return q
}
