package material

import (
	"github.com/Carmen-Shannon/camsim-go/common"
	"github.com/go-gl/mathgl/mgl32"
)

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithDiffuse is an option builder that sets the diffuse reflectance.
//
// Parameters:
//   - r, g, b: reflectance per channel
//
// Returns:
//   - MaterialBuilderOption: a function that applies the diffuse option to a material
func WithDiffuse(r, g, b float32) MaterialBuilderOption {
	return func(m *material) {
		m.diffuse = mgl32.Vec3{r, g, b}
	}
}

// WithSpecular is an option builder that sets the specular reflectance.
func WithSpecular(r, g, b float32) MaterialBuilderOption {
	return func(m *material) {
		m.specular = mgl32.Vec3{r, g, b}
	}
}

// WithAmbient is an option builder that sets the ambient reflectance.
func WithAmbient(r, g, b float32) MaterialBuilderOption {
	return func(m *material) {
		m.ambient = mgl32.Vec3{r, g, b}
	}
}

// WithEmissive is an option builder that sets the emitted color.
func WithEmissive(r, g, b float32) MaterialBuilderOption {
	return func(m *material) {
		m.emissive = mgl32.Vec3{r, g, b}
	}
}

// WithShininess is an option builder that sets the Phong exponent.
func WithShininess(shininess float32) MaterialBuilderOption {
	return func(m *material) {
		m.shininess = shininess
	}
}

// WithTwoSided is an option builder that marks the material as two-sided.
func WithTwoSided(twoSided bool) MaterialBuilderOption {
	return func(m *material) {
		m.twoSided = twoSided
	}
}

// WithOpacity is an option builder that sets the opacity.
func WithOpacity(opacity float32) MaterialBuilderOption {
	return func(m *material) {
		m.opacity = opacity
	}
}

// WithBumpScaling is an option builder that sets the bump map scale.
func WithBumpScaling(scale float32) MaterialBuilderOption {
	return func(m *material) {
		m.bumpScaling = scale
	}
}

// WithTexture is an option builder that binds a texture to a slot.
//
// Parameters:
//   - slot: the property the texture modulates
//   - tex: the texture data reference
//
// Returns:
//   - MaterialBuilderOption: a function that applies the texture option to a material
func WithTexture(slot TextureSlot, tex *common.ImportedTexture) MaterialBuilderOption {
	return func(m *material) {
		if slot >= 0 && slot < textureSlotCount {
			m.textures[slot] = tex
		}
	}
}
