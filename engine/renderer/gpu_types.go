package renderer

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/camsim-go/common"
	"github.com/go-gl/mathgl/mgl32"
)

// GPUPassUniforms is the GPU-aligned form of PassUniforms.
// Matches the WGSL PassUniforms struct layout exactly (see shader.PassUniformsSource).
// Size: 272 bytes.
type GPUPassUniforms struct {
	Projection       [16]float32 // offset   0
	InvertedView     [16]float32 // offset  64
	Viewport         [2]float32  // offset 128
	Near             float32     // offset 136
	Far              float32     // offset 140
	NoiseSeeds       [4]float32  // offset 144
	Distortion       [4]float32  // offset 160
	Focal            [2]float32  // offset 176
	Center           [2]float32  // offset 184
	ImageSize        [2]float32  // offset 192
	DistortionCorner [2]float32  // offset 200
	LightCount       uint32      // offset 208
	TemporalSamples  float32     // offset 212
	ExposureTime     float32     // offset 216
	ApertureRatio    float32     // offset 220
	PixelArea        float32     // offset 224
	FracModFreqC     float32     // offset 228
	Contrast         float32     // offset 232
	Tau              float32     // offset 236
	NoiseMean        float32     // offset 240
	NoiseStddev      float32     // offset 244
	DistortionMargin float32     // offset 248
	RSMSamples       uint32      // offset 252
	HasLastDepth     uint32      // offset 256
	SubFrame         uint32      // offset 260
	_                [2]uint32   // offset 264
}

// NewGPUPassUniforms packs pass uniforms for a viewport.
//
// Parameters:
//   - u: the pass uniforms
//   - viewport: the color or depth target size in pixels
//   - lightCount: the number of lights bound to the pass
//   - hasLastDepth: whether a last depth target is bound
//
// Returns:
//   - GPUPassUniforms: the packed uniforms
func NewGPUPassUniforms(u PassUniforms, viewport mgl32.Vec2, lightCount int, hasLastDepth bool) GPUPassUniforms {
	g := GPUPassUniforms{
		Projection:       u.Projection,
		InvertedView:     u.InvertedView,
		Viewport:         viewport,
		Near:             u.Near,
		Far:              u.Far,
		NoiseSeeds:       u.NoiseSeeds,
		Distortion:       u.Distortion,
		Focal:            u.Focal,
		Center:           u.Center,
		ImageSize:        u.ImageSize,
		DistortionCorner: u.DistortionCorner,
		LightCount:       uint32(lightCount),
		TemporalSamples:  max(u.TemporalSamples, 1),
		ExposureTime:     u.ExposureTime,
		ApertureRatio:    u.ApertureRatio,
		PixelArea:        u.PixelArea,
		FracModFreqC:     u.FracModFreqC,
		Contrast:         u.Contrast,
		Tau:              u.Tau,
		NoiseMean:        u.NoiseMean,
		NoiseStddev:      u.NoiseStddev,
		DistortionMargin: u.DistortionMargin,
		RSMSamples:       u.RSMSamples,
		SubFrame:         u.SubFrame,
	}
	if hasLastDepth {
		g.HasLastDepth = 1
	}
	return g
}

// Size returns the size of the GPUPassUniforms struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes (272)
func (g *GPUPassUniforms) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the uniforms into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 272-byte buffer
func (g *GPUPassUniforms) Marshal() []byte {
	return common.StructToBytes(g)
}

// GPUObjectUniforms is the GPU-aligned form of ObjectUniforms.
// Size: 448 bytes (seven mat4x4<f32>).
type GPUObjectUniforms struct {
	ModelView     [16]float32 // offset   0
	MVP           [16]float32 // offset  64
	NormalMatrix  [16]float32 // offset 128
	LastModelView [16]float32 // offset 192
	NextModelView [16]float32 // offset 256
	Custom        [16]float32 // offset 320
	CustomNormal  [16]float32 // offset 384
}

// NewGPUObjectUniforms packs object uniforms, premultiplying a clip space conversion onto
// the model-view-projection matrix.
//
// Parameters:
//   - o: the object uniforms
//   - clip: the clip space conversion, mgl32.Ident4() for OpenGL conventions
//
// Returns:
//   - GPUObjectUniforms: the packed uniforms
func NewGPUObjectUniforms(o ObjectUniforms, clip mgl32.Mat4) GPUObjectUniforms {
	return GPUObjectUniforms{
		ModelView:     o.ModelView,
		MVP:           clip.Mul4(o.MVP),
		NormalMatrix:  o.NormalMatrix,
		LastModelView: o.LastModelView,
		NextModelView: o.NextModelView,
		Custom:        o.Custom,
		CustomNormal:  o.CustomNormal,
	}
}

// Size returns the size of the GPUObjectUniforms struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes (448)
func (g *GPUObjectUniforms) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the uniforms into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 448-byte buffer
func (g *GPUObjectUniforms) Marshal() []byte {
	return common.StructToBytes(g)
}

// MarshalObjectBuffer serializes per-object uniforms into one storage buffer. An empty list
// produces a single zeroed entry because WGSL storage arrays cannot be empty.
//
// Parameters:
//   - objects: the object uniforms in scene order
//   - clip: the clip space conversion applied to every MVP
//
// Returns:
//   - []byte: the concatenated structs
func MarshalObjectBuffer(objects []ObjectUniforms, clip mgl32.Mat4) []byte {
	if len(objects) == 0 {
		return make([]byte, 448)
	}
	buf := make([]byte, 0, len(objects)*448)
	for _, o := range objects {
		g := NewGPUObjectUniforms(o, clip)
		buf = append(buf, g.Marshal()...)
	}
	return buf
}

// GPUDrawInfo identifies the object, shape and material of one draw.
// Size: 16 bytes.
type GPUDrawInfo struct {
	ObjectIndex   uint32 // offset  0
	ShapeIndex    uint32 // offset  4
	MaterialIndex uint32 // offset  8
	Flags         uint32 // offset 12
}

// Marshal serializes the draw info into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer
func (g *GPUDrawInfo) Marshal() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:], g.ObjectIndex)
	binary.LittleEndian.PutUint32(buf[4:], g.ShapeIndex)
	binary.LittleEndian.PutUint32(buf[8:], g.MaterialIndex)
	binary.LittleEndian.PutUint32(buf[12:], g.Flags)
	return buf
}

// GPUFullscreenUniforms is the GPU-aligned form of FullscreenUniforms.
// Matches the WGSL FullscreenUniforms struct layout exactly (see shader.FullscreenUniformsSource).
// Size: 96 bytes.
type GPUFullscreenUniforms struct {
	Size              [2]float32 // offset  0
	InputSize         [2]float32 // offset  8
	WeightsSize       [2]uint32  // offset 16
	FracCModFreq      float32    // offset 24
	PhotonEnergy      float32    // offset 28
	QuantumEfficiency float32    // offset 32
	MaxElectrons      float32    // offset 36
	InputCount        uint32     // offset 40
	_                 uint32     // offset 44
	NoiseSeeds        [4]float32 // offset 48
	Distortion        [4]float32 // offset 64
	Focal             [2]float32 // offset 80
	Center            [2]float32 // offset 88
}

// NewGPUFullscreenUniforms packs fullscreen uniforms.
//
// Parameters:
//   - u: the uniforms
//   - size: the output size in pixels
//   - inputSize: the size of the first input in pixels
//   - weights: the weights raster size
//   - inputs: the number of bound inputs
//
// Returns:
//   - GPUFullscreenUniforms: the packed uniforms
func NewGPUFullscreenUniforms(u FullscreenUniforms, size, inputSize mgl32.Vec2, weights [2]uint32, inputs int) GPUFullscreenUniforms {
	return GPUFullscreenUniforms{
		Size:              size,
		InputSize:         inputSize,
		WeightsSize:       weights,
		FracCModFreq:      u.FracCModFreq,
		PhotonEnergy:      u.PhotonEnergy,
		QuantumEfficiency: u.QuantumEfficiency,
		MaxElectrons:      u.MaxElectrons,
		InputCount:        uint32(inputs),
		NoiseSeeds:        u.NoiseSeeds,
		Distortion:        u.Distortion,
		Focal:             u.Focal,
		Center:            u.Center,
	}
}

// SizeBytes returns the size of the GPUFullscreenUniforms struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes (96)
func (g *GPUFullscreenUniforms) SizeBytes() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the uniforms into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 96-byte buffer
func (g *GPUFullscreenUniforms) Marshal() []byte {
	return common.StructToBytes(g)
}

// MarshalWeights serializes the reduction weights. An empty list produces one zero weight.
func MarshalWeights(w []float32) []byte {
	if len(w) == 0 {
		return make([]byte, 4)
	}
	buf := make([]byte, 4*len(w))
	for i, v := range w {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}
