package light

import "github.com/go-gl/mathgl/mgl32"

// DefaultShadowMapSize is the default cube face resolution in texels of a light's shadow map.
const DefaultShadowMapSize = 256

// DefaultShadowMapDepthBias is the default bias in meters subtracted from the fragment distance
// before it is compared against the shadow map.
const DefaultShadowMapDepthBias float32 = 0.15

// DefaultReflectiveShadowMapSize is the default cube face resolution of a reflective shadow map.
const DefaultReflectiveShadowMapSize = 64

// ReflectiveShadowMapLayers is the number of attributes stored per reflective shadow map face:
// positions, normals, radiances, diffuse and specular BRDF parameters.
const ReflectiveShadowMapLayers = 5

// CubeFace describes the view used to render one side of a cube map.
type CubeFace struct {
	Direction mgl32.Vec3
	Up        mgl32.Vec3
}

// CubeFaces lists the six cube map sides in the order +X, -X, +Y, -Y, +Z, -Z.
// The up vectors follow the cube map texel orientation, which is the negation of the
// conventional up for the four horizontal sides. Keep this table as is: shadow lookups
// depend on it.
var CubeFaces = [6]CubeFace{
	{Direction: mgl32.Vec3{+1, 0, 0}, Up: mgl32.Vec3{0, -1, 0}},
	{Direction: mgl32.Vec3{-1, 0, 0}, Up: mgl32.Vec3{0, -1, 0}},
	{Direction: mgl32.Vec3{0, +1, 0}, Up: mgl32.Vec3{0, 0, +1}},
	{Direction: mgl32.Vec3{0, -1, 0}, Up: mgl32.Vec3{0, 0, -1}},
	{Direction: mgl32.Vec3{0, 0, +1}, Up: mgl32.Vec3{0, -1, 0}},
	{Direction: mgl32.Vec3{0, 0, -1}, Up: mgl32.Vec3{0, -1, 0}},
}

// CubeFaceView returns the view matrix of a cube face seen from a light at position p.
//
// Parameters:
//   - p: light position in world space
//   - side: cube side index in [0, 6)
//
// Returns:
//   - mgl32.Mat4: the world to face view matrix
func CubeFaceView(p mgl32.Vec3, side int) mgl32.Mat4 {
	f := CubeFaces[side]
	return mgl32.LookAtV(p, p.Add(f.Direction), f.Up)
}

// CubeFaceProjection returns the 90 degree square projection used for every cube face.
func CubeFaceProjection(near, far float32) mgl32.Mat4 {
	return mgl32.Frustum(-near, near, -near, near, near, far)
}

// CubeSide selects the cube side and face coordinate for a direction, following the face
// orientation in CubeFaces. The coordinate is the face's normalized device position mapped
// to [0, 1], with v growing upwards as in the rendered face image.
//
// Parameters:
//   - d: direction from the cube center, need not be normalized
//
// Returns:
//   - side: cube side index in [0, 6)
//   - u, v: face coordinates in [0, 1]
func CubeSide(d mgl32.Vec3) (side int, u, v float32) {
	ax, ay, az := abs(d[0]), abs(d[1]), abs(d[2])
	var sc, tc, ma float32
	switch {
	case ax >= ay && ax >= az:
		ma = ax
		if d[0] > 0 {
			side, sc, tc = 0, -d[2], -d[1]
		} else {
			side, sc, tc = 1, d[2], -d[1]
		}
	case ay >= az:
		ma = ay
		if d[1] > 0 {
			side, sc, tc = 2, d[0], d[2]
		} else {
			side, sc, tc = 3, d[0], -d[2]
		}
	default:
		ma = az
		if d[2] > 0 {
			side, sc, tc = 4, d[0], -d[1]
		} else {
			side, sc, tc = 5, -d[0], -d[1]
		}
	}
	if ma == 0 {
		return 4, 0.5, 0.5
	}
	return side, (sc/ma + 1) / 2, (tc/ma + 1) / 2
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
