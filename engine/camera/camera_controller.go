// Package camera implements the interactive camera used by the preview window. The controller
// orbits a pivot point and reports its pose as the camera transformation of the simulator, so a
// scene can be inspected with the same projection and sensor pipeline that the export uses.
package camera

import (
	"github.com/Carmen-Shannon/camsim-go/engine/animation"
	"github.com/go-gl/mathgl/mgl32"
)

// CameraController is an orbit camera around a target point. The pose is kept in spherical
// coordinates relative to the target; panning moves target and camera together. All methods are
// safe for concurrent use by the input and render goroutines.
type CameraController interface {
	// Transformation returns the camera pose. The camera looks at the target along its local -Z
	// axis with +Y up, matching the simulator camera convention.
	//
	// Returns:
	//   - animation.Transformation: the camera-to-world transformation
	Transformation() animation.Transformation

	// Position returns the world-space camera position.
	Position() mgl32.Vec3

	// Target returns the world-space pivot point.
	Target() mgl32.Vec3

	// SetTarget moves the pivot point and keeps the spherical coordinates.
	SetTarget(target mgl32.Vec3)

	// FrameBounds centers the target on a bounding box and picks the radius at which the box
	// fits into the vertical opening angle.
	//
	// Parameters:
	//   - lo: minimum corner of the box
	//   - hi: maximum corner of the box
	//   - fovy: vertical opening angle in degrees
	FrameBounds(lo, hi mgl32.Vec3, fovy float32)

	Radius() float32
	Azimuth() float32
	Elevation() float32

	// SetRadius sets the distance to the target within the radius limits.
	SetRadius(radius float32)

	// Zoom scales the radius; positive values move closer.
	Zoom(delta float32)

	// Drag orbits by a cursor movement in pixels.
	Drag(dx, dy float32)

	// OrbitLeft, OrbitRight, OrbitUp and OrbitDown step the orbit by the orbit speed. Elevation
	// stays within its limits.
	OrbitLeft()
	OrbitRight()
	OrbitUp()
	OrbitDown()

	// PanRight, PanUp and PanForward translate along the local camera axes.
	PanRight(delta float32)
	PanUp(delta float32)
	PanForward(delta float32)
}
