package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// CameraControllerOption configures a CameraController at construction.
type CameraControllerOption func(*cameraControllerImpl)

// WithOrbit places the camera on a sphere around a target.
//
// Parameters:
//   - target: the world-space pivot point
//   - radius: distance from the target in meters
//   - azimuth: angle around the Y axis in radians, 0 looks down -Z from +Z
//   - elevation: angle above the XZ plane in radians
//
// Returns:
//   - CameraControllerOption: option setting the orbit
func WithOrbit(target mgl32.Vec3, radius, azimuth, elevation float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.target = target
		cc.radius = radius
		cc.azimuth = azimuth
		cc.elevation = elevation
	}
}

// WithEye derives the orbit from a camera position and the point it looks at, so a preview can
// start at the pose of a simulation setup. A coincident eye and target keeps the default orbit
// around the target.
//
// Parameters:
//   - eye: the world-space camera position
//   - target: the world-space pivot point
//
// Returns:
//   - CameraControllerOption: option setting the orbit
func WithEye(eye, target mgl32.Vec3) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.target = target
		d := eye.Sub(target)
		r := d.Len()
		if r < 1e-8 {
			return
		}
		cc.radius = r
		cc.elevation = float32(math.Asin(float64(mgl32.Clamp(d.Y()/r, -1, 1))))
		cc.azimuth = float32(math.Atan2(float64(d.X()), float64(d.Z())))
	}
}

// WithLimits bounds the orbit radius and elevation.
func WithLimits(minRadius, maxRadius, minElevation, maxElevation float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.minRadius, cc.maxRadius = minRadius, maxRadius
		cc.minElevation, cc.maxElevation = minElevation, maxElevation
	}
}

// WithSpeeds scales the controller input. Orbit is radians per key step, drag is radians per
// pixel, zoom is the fraction of the radius per wheel step and pan is meters per unit of input.
// Non-positive values keep the defaults.
func WithSpeeds(orbit, drag, zoom, pan float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		for _, s := range []struct {
			dst *float32
			v   float32
		}{{&cc.orbitSpeed, orbit}, {&cc.mouseSensitivity, drag}, {&cc.zoomSpeed, zoom}, {&cc.panSpeed, pan}} {
			if s.v > 0 {
				*s.dst = s.v
			}
		}
	}
}
