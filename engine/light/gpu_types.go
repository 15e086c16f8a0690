package light

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// MaxGPULights is the maximum number of lights marshaled into the light storage buffer
// of the GPU backend.
const MaxGPULights = 64

// GPULightSource is the canonical WGSL definition of the Light struct.
// Matches GPULight layout exactly (128 bytes, std430 aligned).
//
//go:embed assets/light.wgsl
var GPULightSource string

// GPULight is the GPU-aligned per-frame state of a single light in eye space.
// Matches the WGSL Light struct layout exactly (see GPULightSource).
// Size: 128 bytes (std430 / WGSL aligned).
type GPULight struct {
	Position      [3]float32 // offset   0: eye-space position
	LightType     uint32     // offset  12: 0 = point, 1 = spot, 2 = directional
	Direction     [3]float32 // offset  16: eye-space emission direction
	InnerCos      float32    // offset  28: cos(inner cone angle / 2)
	Up            [3]float32 // offset  32: eye-space up vector
	OuterCos      float32    // offset  44: cos(outer cone angle / 2)
	Color         [3]float32 // offset  48: RGB color
	Intensity     float32    // offset  60: radiant intensity in mW/sr
	Attenuation   [3]float32 // offset  64: constant, linear, quadratic
	ShadowBias    float32    // offset  76: shadow map depth bias
	WorldPosition [3]float32 // offset  80: world-space position for cube map lookups
	ShadowIndex   int32      // offset  92: shadow cube slot, -1 if none
	PFAngles      [4]float32 // offset  96: power factor map angles left, right, bottom, top
	PFIndex       int32      // offset 112: power factor map slot, -1 if none
	RSMIndex      int32      // offset 116: reflective shadow map slot, -1 if none
	ShadowNear    float32    // offset 120: near plane of the shadow cube faces
	ShadowFar     float32    // offset 124: far plane of the shadow cube faces
}

// Size returns the size of the GPULight struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (128)
func (g *GPULight) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPULight struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 128-byte buffer ready for GPU upload
func (g *GPULight) Marshal() []byte {
	buf := make([]byte, 128)
	putVec3(buf[0:], g.Position)
	binary.LittleEndian.PutUint32(buf[12:16], g.LightType)
	putVec3(buf[16:], g.Direction)
	putF32(buf[28:], g.InnerCos)
	putVec3(buf[32:], g.Up)
	putF32(buf[44:], g.OuterCos)
	putVec3(buf[48:], g.Color)
	putF32(buf[60:], g.Intensity)
	putVec3(buf[64:], g.Attenuation)
	putF32(buf[76:], g.ShadowBias)
	putVec3(buf[80:], g.WorldPosition)
	binary.LittleEndian.PutUint32(buf[92:96], uint32(g.ShadowIndex))
	for i, a := range g.PFAngles {
		putF32(buf[96+4*i:], a)
	}
	binary.LittleEndian.PutUint32(buf[112:116], uint32(g.PFIndex))
	binary.LittleEndian.PutUint32(buf[116:120], uint32(g.RSMIndex))
	putF32(buf[120:], g.ShadowNear)
	putF32(buf[124:], g.ShadowFar)
	return buf
}

// MarshalLightBuffer serializes up to MaxGPULights lights into one storage buffer.
// An empty list produces a single zeroed entry because WGSL storage arrays cannot be empty.
//
// Parameters:
//   - lights: per-frame light states
//
// Returns:
//   - []byte: the concatenated light structs
func MarshalLightBuffer(lights []GPULight) []byte {
	n := min(len(lights), MaxGPULights)
	if n == 0 {
		return make([]byte, 128)
	}
	buf := make([]byte, 0, n*128)
	for i := 0; i < n; i++ {
		buf = append(buf, lights[i].Marshal()...)
	}
	return buf
}

func putF32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b[0:4], math.Float32bits(v))
}

func putVec3(b []byte, v [3]float32) {
	putF32(b[0:], v[0])
	putF32(b[4:], v[1])
	putF32(b[8:], v[2])
}
