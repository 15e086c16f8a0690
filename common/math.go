package common

import (
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// ClipSpaceGLToWebGPU maps OpenGL clip space depth [-1, 1] to the WebGPU convention [0, 1].
// Premultiply a GL-style projection matrix with it before handing it to a WebGPU pipeline.
var ClipSpaceGLToWebGPU = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), int(size)*len(data))
}

// StructToBytes reinterprets a pointer to a struct as a raw byte slice using unsafe.
//
// Parameters:
//   - v: pointer to the struct to reinterpret
//
// Returns:
//   - []byte: byte slice view of the struct's memory
func StructToBytes[T any](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), int(unsafe.Sizeof(*v)))
}

// NormalMatrix returns the inverse transpose of the upper 3x3 part of m, as a 4x4 matrix.
//
// Parameters:
//   - m: model or model-view matrix
//
// Returns:
//   - mgl32.Mat4: the normal matrix, or identity if m is singular
func NormalMatrix(m mgl32.Mat4) mgl32.Mat4 {
	n := m.Mat3()
	if n.Det() == 0 {
		return mgl32.Ident4()
	}
	return n.Inv().Transpose().Mat4()
}

// Smoothstep is the Hermite interpolation between edge0 and edge1.
func Smoothstep(edge0, edge1, x float32) float32 {
	if edge0 == edge1 {
		if x < edge0 {
			return 0
		}
		return 1
	}
	t := Clamp((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}

// Clamp limits v to [lo, hi].
func Clamp[T ~int | ~int32 | ~int64 | ~float32 | ~float64](v, lo, hi T) T {
	return min(max(v, lo), hi)
}

// Length3 returns the Euclidean length of v in float64 precision.
func Length3(v mgl32.Vec3) float64 {
	return math.Sqrt(float64(v[0])*float64(v[0]) + float64(v[1])*float64(v[1]) + float64(v[2])*float64(v[2]))
}
