package model

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUVertexSource is the canonical WGSL definition of the VertexInput struct for mesh pipelines.
// Matches GPUVertex layout exactly (48 bytes).
//
//go:embed assets/vertex.wgsl
var GPUVertexSource string

// GPUVertex is the GPU-aligned representation of a single mesh vertex.
// Matches the WGSL VertexInput struct layout exactly (see GPUVertexSource).
// Size: 48 bytes (tightly packed vertex attributes).
type GPUVertex struct {
	Position [3]float32 // offset  0: vertex position in object space (12 bytes)
	Normal   [3]float32 // offset 12: vertex normal (12 bytes)
	TexCoord [2]float32 // offset 24: texture coordinate (8 bytes)
	Tangent  [4]float32 // offset 32: tangent (xyz) + handedness (w) (16 bytes)
}

// Size returns the size of the GPUVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 48-byte buffer ready for GPU upload.
func (g *GPUVertex) Marshal() []byte {
	buf := make([]byte, 48)
	vals := [12]float32{
		g.Position[0], g.Position[1], g.Position[2],
		g.Normal[0], g.Normal[1], g.Normal[2],
		g.TexCoord[0], g.TexCoord[1],
		g.Tangent[0], g.Tangent[1], g.Tangent[2], g.Tangent[3],
	}
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], math.Float32bits(v))
	}
	return buf
}

// MarshalVertices interleaves a mesh's attributes into a vertex buffer.
// Missing normals, texture coordinates or tangents are written as zero.
//
// Parameters:
//   - m: the mesh
//
// Returns:
//   - []byte: len(m.Positions) * 48 bytes
func MarshalVertices(m *Mesh) []byte {
	buf := make([]byte, 0, len(m.Positions)*48)
	for i, p := range m.Positions {
		v := GPUVertex{Position: p}
		if i < len(m.Normals) {
			v.Normal = m.Normals[i]
		}
		if i < len(m.TexCoords) {
			v.TexCoord = m.TexCoords[i]
		}
		if i < len(m.Tangents) {
			v.Tangent = m.Tangents[i]
		}
		buf = append(buf, v.Marshal()...)
	}
	return buf
}

// MarshalIndices packs the mesh's indices as little-endian uint32 values.
func MarshalIndices(m *Mesh) []byte {
	buf := make([]byte, len(m.Indices)*4)
	for i, idx := range m.Indices {
		binary.LittleEndian.PutUint32(buf[i*4:], idx)
	}
	return buf
}
