package light

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypePoint represents a light that emits in all directions from a position.
	LightTypePoint LightType = iota

	// LightTypeSpot represents a light that emits in a cone from a position along a direction,
	// limited by the inner and outer cone angles.
	LightTypeSpot

	// LightTypeDirectional represents a light with no position, only direction.
	// It receives no distance attenuation.
	LightTypeDirectional
)

// String returns the lower-case name of the light type.
func (t LightType) String() string {
	switch t {
	case LightTypePoint:
		return "point"
	case LightTypeSpot:
		return "spot"
	case LightTypeDirectional:
		return "directional"
	}
	return "unknown"
}

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	lightType          LightType
	relativeToCamera   bool
	position           mgl32.Vec3
	direction          mgl32.Vec3
	up                 mgl32.Vec3
	innerConeAngle     float32 // degrees
	outerConeAngle     float32 // degrees
	color              mgl32.Vec3
	power              float32
	attenuation        [3]float32
	shadowMap          bool
	shadowMapSize      int
	shadowMapDepthBias float32
	rsm                bool
	rsmSize            int
	powerFactorMap     PowerFactorMap
	radianceProvider   AngularRadianceProvider
}

// Light defines the interface for a light source in a simulated scene.
//
// The position, direction and up vectors are given in the light's local frame; the light's
// animation transforms them into world space, or into eye space when the light is relative
// to the camera.
type Light interface {
	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: point, spot or directional
	Type() LightType

	// IsRelativeToCamera returns whether the light moves with the camera.
	// When true, position and direction are interpreted in eye space.
	//
	// Returns:
	//   - bool: true if the light is attached to the camera
	IsRelativeToCamera() bool

	// Position returns the light position. Meaningless for directional lights.
	//
	// Returns:
	//   - mgl32.Vec3: position as (x, y, z)
	Position() mgl32.Vec3

	// Direction returns the normalized emission direction of spot and directional lights.
	//
	// Returns:
	//   - mgl32.Vec3: normalized direction
	Direction() mgl32.Vec3

	// Up returns the up vector that fixes the orientation of power factor maps.
	//
	// Returns:
	//   - mgl32.Vec3: normalized up vector
	Up() mgl32.Vec3

	// ConeAngles returns the inner and outer cone opening angles of a spot light in degrees.
	// The full opening angle is given, not the half angle.
	//
	// Returns:
	//   - inner: angle of full intensity
	//   - outer: angle beyond which intensity is zero
	ConeAngles() (inner, outer float32)

	// Color returns the RGB color used by the radiance (RGB) simulation.
	//
	// Returns:
	//   - mgl32.Vec3: color as (r, g, b)
	Color() mgl32.Vec3

	// Power returns the radiant power in watts used by the time-of-flight simulation.
	//
	// Returns:
	//   - float32: power in watts
	Power() float32

	// Attenuation returns the constant, linear and quadratic distance attenuation coefficients.
	//
	// Returns:
	//   - [3]float32: (constant, linear, quadratic)
	Attenuation() [3]float32

	// ShadowMap returns whether a shadow cube map is rendered for this light and its parameters.
	//
	// Returns:
	//   - enabled: true if the light requests a shadow map
	//   - size: cube face resolution in texels
	//   - depthBias: bias subtracted from distances before the shadow comparison
	ShadowMap() (enabled bool, size int, depthBias float32)

	// ReflectiveShadowMap returns whether a reflective shadow map is rendered for this light.
	//
	// Returns:
	//   - enabled: true if the light requests a reflective shadow map
	//   - size: cube face resolution in texels
	ReflectiveShadowMap() (enabled bool, size int)

	// PowerFactorMap returns the static angular power distribution of the light.
	//
	// Returns:
	//   - PowerFactorMap: the map, empty if none is set
	PowerFactorMap() PowerFactorMap

	// RadianceProvider returns the provider that regenerates the power factor map over time.
	//
	// Returns:
	//   - AngularRadianceProvider: the provider, or nil
	RadianceProvider() AngularRadianceProvider

	// SetPosition sets the light position.
	//
	// Parameters:
	//   - p: the position
	SetPosition(p mgl32.Vec3)

	// SetDirection sets and normalizes the emission direction.
	//
	// Parameters:
	//   - d: the direction
	SetDirection(d mgl32.Vec3)

	// SetColor sets the RGB color.
	//
	// Parameters:
	//   - c: the color
	SetColor(c mgl32.Vec3)

	// SetPower sets the radiant power in watts.
	//
	// Parameters:
	//   - watts: the power
	SetPower(watts float32)

	// SetPowerFactorMap replaces the static power factor map.
	//
	// Parameters:
	//   - m: the new map
	SetPowerFactorMap(m PowerFactorMap)
}

var _ Light = &lightImpl{}

// NewLight creates a new Light of the specified type with the default parameters and
// any provided options applied. The defaults describe a camera-attached light pointing
// along -Z with shadow and reflective shadow maps requested.
//
// Parameters:
//   - lightType: the kind of light to create (point, spot or directional)
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: a new Light instance
func NewLight(lightType LightType, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		lightType:          lightType,
		relativeToCamera:   true,
		position:           mgl32.Vec3{0, 0, 0},
		direction:          mgl32.Vec3{0, 0, -1},
		up:                 mgl32.Vec3{0, 1, 0},
		innerConeAngle:     20,
		outerConeAngle:     30,
		color:              mgl32.Vec3{1, 1, 1},
		power:              0.2,
		attenuation:        [3]float32{1, 0, 1},
		shadowMap:          true,
		shadowMapSize:      DefaultShadowMapSize,
		shadowMapDepthBias: DefaultShadowMapDepthBias,
		rsm:                true,
		rsmSize:            DefaultReflectiveShadowMapSize,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) IsRelativeToCamera() bool {
	return l.relativeToCamera
}

func (l *lightImpl) Position() mgl32.Vec3 {
	return l.position
}

func (l *lightImpl) Direction() mgl32.Vec3 {
	return l.direction
}

func (l *lightImpl) Up() mgl32.Vec3 {
	return l.up
}

func (l *lightImpl) ConeAngles() (float32, float32) {
	return l.innerConeAngle, l.outerConeAngle
}

func (l *lightImpl) Color() mgl32.Vec3 {
	return l.color
}

func (l *lightImpl) Power() float32 {
	return l.power
}

func (l *lightImpl) Attenuation() [3]float32 {
	return l.attenuation
}

func (l *lightImpl) ShadowMap() (bool, int, float32) {
	return l.shadowMap, l.shadowMapSize, l.shadowMapDepthBias
}

func (l *lightImpl) ReflectiveShadowMap() (bool, int) {
	return l.rsm, l.rsmSize
}

func (l *lightImpl) PowerFactorMap() PowerFactorMap {
	return l.powerFactorMap
}

func (l *lightImpl) RadianceProvider() AngularRadianceProvider {
	return l.radianceProvider
}

func (l *lightImpl) SetPosition(p mgl32.Vec3) {
	l.position = p
}

func (l *lightImpl) SetDirection(d mgl32.Vec3) {
	l.direction = normalize(d)
}

func (l *lightImpl) SetColor(c mgl32.Vec3) {
	l.color = c
}

func (l *lightImpl) SetPower(watts float32) {
	l.power = watts
}

func (l *lightImpl) SetPowerFactorMap(m PowerFactorMap) {
	l.powerFactorMap = m
}

// HasPowerFactorMap reports whether the light carries a static power factor map or a provider.
//
// Parameters:
//   - l: the light
//
// Returns:
//   - bool: true if power factors apply to the light
func HasPowerFactorMap(l Light) bool {
	return !l.PowerFactorMap().IsEmpty() || l.RadianceProvider() != nil
}

// Intensity returns the radiant intensity in milliwatts per steradian of a light of the given power.
// Spot lights spread their power over the spherical cap of the outer cone, other lights over the
// full sphere.
//
// Parameters:
//   - l: the light
//
// Returns:
//   - float64: radiant intensity in mW/sr
func Intensity(l Light) float64 {
	mw := float64(l.Power()) * 1e3
	if l.Type() == LightTypeSpot {
		_, outer := l.ConeAngles()
		half := float64(mgl32.DegToRad(outer)) / 2
		return mw / (2 * math.Pi * (1 - math.Cos(half)))
	}
	return mw / (4 * math.Pi)
}

func normalize(v mgl32.Vec3) mgl32.Vec3 {
	if v.Len() == 0 {
		return v
	}
	return v.Normalize()
}
