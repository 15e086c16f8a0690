package material

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// Texture presence bits stored in GPUMaterial.Flags.
const (
	FlagTwoSided uint32 = 1 << iota
	FlagDiffuseTexture
	FlagSpecularTexture
	FlagNormalTexture
	FlagOpacityTexture
)

// GPUMaterialSource is the canonical WGSL definition of the Material struct.
// Matches GPUMaterial layout exactly (64 bytes).
//
//go:embed assets/material.wgsl
var GPUMaterialSource string

// GPUMaterial is the GPU-aligned uniform representation of a Material.
// Size: 64 bytes (four vec4<f32>, std430 aligned).
type GPUMaterial struct {
	Ambient     [3]float32 // offset  0
	Opacity     float32    // offset 12
	Diffuse     [3]float32 // offset 16
	Shininess   float32    // offset 28
	Specular    [3]float32 // offset 32
	BumpScaling float32    // offset 44
	Emissive    [3]float32 // offset 48
	Flags       uint32     // offset 60
}

// ToGPUMaterial converts a Material into its uniform representation.
//
// Parameters:
//   - m: the material
//
// Returns:
//   - GPUMaterial: the packed uniform
func ToGPUMaterial(m Material) GPUMaterial {
	g := GPUMaterial{
		Ambient:     m.Ambient(),
		Opacity:     m.Opacity(),
		Diffuse:     m.Diffuse(),
		Shininess:   m.Shininess(),
		Specular:    m.Specular(),
		BumpScaling: m.BumpScaling(),
		Emissive:    m.Emissive(),
	}
	if m.IsTwoSided() {
		g.Flags |= FlagTwoSided
	}
	if m.Texture(TextureDiffuse) != nil {
		g.Flags |= FlagDiffuseTexture
	}
	if m.Texture(TextureSpecular) != nil {
		g.Flags |= FlagSpecularTexture
	}
	if m.Texture(TextureNormal) != nil {
		g.Flags |= FlagNormalTexture
	}
	if m.Texture(TextureOpacity) != nil {
		g.Flags |= FlagOpacityTexture
	}
	return g
}

// Size returns the size of the GPUMaterial struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUMaterial) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUMaterial struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload.
func (g *GPUMaterial) Marshal() []byte {
	buf := make([]byte, 64)
	put := func(off int, v float32) {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(v))
	}
	for i := 0; i < 3; i++ {
		put(0+4*i, g.Ambient[i])
		put(16+4*i, g.Diffuse[i])
		put(32+4*i, g.Specular[i])
		put(48+4*i, g.Emissive[i])
	}
	put(12, g.Opacity)
	put(28, g.Shininess)
	put(44, g.BumpScaling)
	binary.LittleEndian.PutUint32(buf[60:64], g.Flags)
	return buf
}
