package material

import (
	"github.com/Carmen-Shannon/camsim-go/common"
	"github.com/go-gl/mathgl/mgl32"
)

// TextureSlot names the material property a texture modulates.
type TextureSlot int

const (
	TextureAmbient TextureSlot = iota
	TextureDiffuse
	TextureSpecular
	TextureEmissive
	TextureShininess
	TextureLightness
	TextureBump
	TextureNormal
	TextureOpacity
	textureSlotCount
)

// material is the implementation of the Material interface.
type material struct {
	name        string
	twoSided    bool
	opacity     float32
	ambient     mgl32.Vec3
	diffuse     mgl32.Vec3
	specular    mgl32.Vec3
	emissive    mgl32.Vec3
	shininess   float32
	bumpScaling float32
	textures    [textureSlotCount]*common.ImportedTexture
}

// Material defines the interface for a Phong surface description used by the light pass.
//
// Colors are reflectances in [0, 1]. Each color property may be modulated by a texture,
// in which case the texture value replaces the constant (opacity and lightness multiply).
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// IsTwoSided reports whether back faces are shaded with the flipped normal instead of culled.
	//
	// Returns:
	//   - bool: true if two-sided
	IsTwoSided() bool

	// Opacity retrieves the opacity in [0, 1]. Only used when transparency is enabled.
	//
	// Returns:
	//   - float32: the opacity
	Opacity() float32

	// Ambient retrieves the ambient reflectance.
	//
	// Returns:
	//   - mgl32.Vec3: the ambient color
	Ambient() mgl32.Vec3

	// Diffuse retrieves the diffuse reflectance.
	//
	// Returns:
	//   - mgl32.Vec3: the diffuse color
	Diffuse() mgl32.Vec3

	// Specular retrieves the specular reflectance.
	//
	// Returns:
	//   - mgl32.Vec3: the specular color
	Specular() mgl32.Vec3

	// Emissive retrieves the emitted color.
	//
	// Returns:
	//   - mgl32.Vec3: the emissive color
	Emissive() mgl32.Vec3

	// Shininess retrieves the Phong specular exponent.
	//
	// Returns:
	//   - float32: the exponent
	Shininess() float32

	// BumpScaling retrieves the scale applied to bump map gradients.
	//
	// Returns:
	//   - float32: the bump scale
	BumpScaling() float32

	// Texture retrieves the texture bound to a slot, or nil if none is set.
	//
	// Parameters:
	//   - slot: the texture slot
	//
	// Returns:
	//   - *common.ImportedTexture: the texture, or nil
	Texture(slot TextureSlot) *common.ImportedTexture
}

var _ Material = &material{}

// NewMaterial creates a Material with the default Phong parameters (diffuse 0.7, specular 0.3,
// shininess 100) and any provided options applied.
//
// Parameters:
//   - opts: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(opts ...MaterialBuilderOption) Material {
	m := &material{
		opacity:     1,
		diffuse:     mgl32.Vec3{0.7, 0.7, 0.7},
		specular:    mgl32.Vec3{0.3, 0.3, 0.3},
		shininess:   100,
		bumpScaling: 8,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) IsTwoSided() bool {
	return m.twoSided
}

func (m *material) Opacity() float32 {
	return m.opacity
}

func (m *material) Ambient() mgl32.Vec3 {
	return m.ambient
}

func (m *material) Diffuse() mgl32.Vec3 {
	return m.diffuse
}

func (m *material) Specular() mgl32.Vec3 {
	return m.specular
}

func (m *material) Emissive() mgl32.Vec3 {
	return m.emissive
}

func (m *material) Shininess() float32 {
	return m.shininess
}

func (m *material) BumpScaling() float32 {
	return m.bumpScaling
}

func (m *material) Texture(slot TextureSlot) *common.ImportedTexture {
	if slot < 0 || slot >= textureSlotCount {
		return nil
	}
	return m.textures[slot]
}
