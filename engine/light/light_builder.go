package light

import "github.com/go-gl/mathgl/mgl32"

// LightBuilderOption is a function that configures a Light instance during construction.
type LightBuilderOption func(*lightImpl)

// WithPosition is an option builder that sets the position of the light.
//
// Parameters:
//   - x: the x position component
//   - y: the y position component
//   - z: the z position component
//
// Returns:
//   - LightBuilderOption: a function that applies the position option to a lightImpl
func WithPosition(x, y, z float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.position = mgl32.Vec3{x, y, z}
	}
}

// WithDirection is an option builder that sets the direction of the light.
// The direction is normalized before storing.
//
// Parameters:
//   - x: the x direction component
//   - y: the y direction component
//   - z: the z direction component
//
// Returns:
//   - LightBuilderOption: a function that applies the direction option to a lightImpl
func WithDirection(x, y, z float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.direction = normalize(mgl32.Vec3{x, y, z})
	}
}

// WithUp is an option builder that sets the up vector of the light.
func WithUp(x, y, z float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.up = normalize(mgl32.Vec3{x, y, z})
	}
}

// WithColor is an option builder that sets the RGB color of the light.
//
// Parameters:
//   - r: the red color component
//   - g: the green color component
//   - b: the blue color component
//
// Returns:
//   - LightBuilderOption: a function that applies the color option to a lightImpl
func WithColor(r, g, b float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.color = mgl32.Vec3{r, g, b}
	}
}

// WithPower is an option builder that sets the radiant power in watts.
func WithPower(watts float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.power = watts
	}
}

// WithConeAngles is an option builder that sets the full inner and outer cone opening angles of a spot light.
//
// Parameters:
//   - innerDeg: inner cone angle in degrees
//   - outerDeg: outer cone angle in degrees
//
// Returns:
//   - LightBuilderOption: a function that applies the cone option to a lightImpl
func WithConeAngles(innerDeg, outerDeg float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.innerConeAngle = innerDeg
		l.outerConeAngle = outerDeg
	}
}

// WithAttenuation is an option builder that sets the constant, linear and quadratic attenuation.
func WithAttenuation(constant, linear, quadratic float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.attenuation = [3]float32{constant, linear, quadratic}
	}
}

// WithRelativeToCamera is an option builder that attaches the light to the camera or to the world.
func WithRelativeToCamera(relative bool) LightBuilderOption {
	return func(l *lightImpl) {
		l.relativeToCamera = relative
	}
}

// WithShadowMap is an option builder that configures the light's shadow cube map.
//
// Parameters:
//   - enabled: whether the light requests a shadow map
//   - size: cube face resolution in texels
//   - depthBias: bias applied to shadow comparisons
//
// Returns:
//   - LightBuilderOption: a function that applies the shadow map option to a lightImpl
func WithShadowMap(enabled bool, size int, depthBias float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.shadowMap = enabled
		l.shadowMapSize = size
		l.shadowMapDepthBias = depthBias
	}
}

// WithReflectiveShadowMap is an option builder that configures the light's reflective shadow map.
func WithReflectiveShadowMap(enabled bool, size int) LightBuilderOption {
	return func(l *lightImpl) {
		l.rsm = enabled
		l.rsmSize = size
	}
}

// WithPowerFactorMap is an option builder that sets a static angular power factor map.
func WithPowerFactorMap(m PowerFactorMap) LightBuilderOption {
	return func(l *lightImpl) {
		l.powerFactorMap = m
	}
}

// WithRadianceProvider is an option builder that sets a provider which regenerates the
// power factor map for each simulated timestamp.
func WithRadianceProvider(p AngularRadianceProvider) LightBuilderOption {
	return func(l *lightImpl) {
		l.radianceProvider = p
	}
}
