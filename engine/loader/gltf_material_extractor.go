package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/camsim-go/common"
	"github.com/Carmen-Shannon/camsim-go/engine/renderer/material"
)

// gltfMaterialExtractorImpl is the implementation of the gltfMaterialExtractor interface.
type gltfMaterialExtractorImpl struct {
	parser   gltfParser
	textures map[int]*common.ImportedTexture
}

// gltfMaterialExtractor maps glTF metallic-roughness materials onto Phong materials.
//
// The base color becomes the diffuse reflectance of dielectrics and the specular
// reflectance of metals, roughness becomes the specular exponent, and blended alpha
// becomes the opacity.
type gltfMaterialExtractor interface {
	// ExtractMaterial extracts a single material by index, including loading any referenced texture data.
	//
	// Parameters:
	//   - materialIndex: the index of the material in the document
	//
	// Returns:
	//   - material.Material: the converted material
	//   - error: error if extraction fails
	ExtractMaterial(materialIndex int) (material.Material, error)

	// ExtractAllMaterials extracts all materials from the document in document order.
	//
	// Returns:
	//   - []material.Material: all extracted materials
	//   - error: error if extraction fails
	ExtractAllMaterials() ([]material.Material, error)
}

var _ gltfMaterialExtractor = &gltfMaterialExtractorImpl{}

// newGLTFMaterialExtractor creates a new material extractor for a parsed document.
//
// Parameters:
//   - parser: the parser containing a loaded document
//
// Returns:
//   - gltfMaterialExtractor: the material extractor
func newGLTFMaterialExtractor(parser gltfParser) gltfMaterialExtractor {
	return &gltfMaterialExtractorImpl{
		parser:   parser,
		textures: make(map[int]*common.ImportedTexture),
	}
}

func (e *gltfMaterialExtractorImpl) ExtractMaterial(materialIndex int) (material.Material, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}
	if materialIndex < 0 || materialIndex >= len(doc.Materials) {
		return nil, fmt.Errorf("material index %d out of range", materialIndex)
	}
	mat := &doc.Materials[materialIndex]

	baseColor := [4]float32{1, 1, 1, 1}
	metallic, roughness := float32(1), float32(1)
	opts := []material.MaterialBuilderOption{
		material.WithName(mat.Name),
		material.WithTwoSided(mat.DoubleSided),
	}

	if pbr := mat.PbrMetallicRoughness; pbr != nil {
		if pbr.BaseColorFactor != nil {
			baseColor = *pbr.BaseColorFactor
		}
		if pbr.MetallicFactor != nil {
			metallic = common.Clamp(*pbr.MetallicFactor, 0, 1)
		}
		if pbr.RoughnessFactor != nil {
			roughness = common.Clamp(*pbr.RoughnessFactor, 0, 1)
		}
		if pbr.BaseColorTexture != nil {
			tex, err := e.loadTexture(pbr.BaseColorTexture.Index)
			if err != nil {
				return nil, fmt.Errorf("material %q: base color texture: %w", mat.Name, err)
			}
			if tex != nil {
				opts = append(opts, material.WithTexture(material.TextureDiffuse, tex))
			}
		}
	}

	diffuse, specular := gltfPhongColors(baseColor, metallic)
	opts = append(opts,
		material.WithDiffuse(diffuse[0], diffuse[1], diffuse[2]),
		material.WithAmbient(diffuse[0], diffuse[1], diffuse[2]),
		material.WithSpecular(specular[0], specular[1], specular[2]),
		material.WithShininess(gltfShininess(roughness)),
	)
	if mat.AlphaMode == gltfAlphaModeBlend {
		opts = append(opts, material.WithOpacity(common.Clamp(baseColor[3], 0, 1)))
	}

	if mat.EmissiveFactor != nil {
		em := *mat.EmissiveFactor
		opts = append(opts, material.WithEmissive(em[0], em[1], em[2]))
	}
	if mat.EmissiveTexture != nil {
		tex, err := e.loadTexture(mat.EmissiveTexture.Index)
		if err != nil {
			return nil, fmt.Errorf("material %q: emissive texture: %w", mat.Name, err)
		}
		if tex != nil {
			opts = append(opts, material.WithTexture(material.TextureEmissive, tex))
		}
	}

	if mat.NormalTexture != nil {
		tex, err := e.loadTexture(mat.NormalTexture.Index)
		if err != nil {
			return nil, fmt.Errorf("material %q: normal texture: %w", mat.Name, err)
		}
		if tex != nil {
			opts = append(opts, material.WithTexture(material.TextureNormal, tex))
		}
	}

	return material.NewMaterial(opts...), nil
}

func (e *gltfMaterialExtractorImpl) ExtractAllMaterials() ([]material.Material, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}

	materials := make([]material.Material, len(doc.Materials))
	for i := range doc.Materials {
		mat, err := e.ExtractMaterial(i)
		if err != nil {
			return nil, fmt.Errorf("material %d: %w", i, err)
		}
		materials[i] = mat
	}
	return materials, nil
}

// loadTexture resolves a glTF texture index into an ImportedTexture. Images are shared
// between materials that reference the same source.
func (e *gltfMaterialExtractorImpl) loadTexture(textureIndex int) (*common.ImportedTexture, error) {
	doc := e.parser.Document()
	if textureIndex < 0 || textureIndex >= len(doc.Textures) {
		return nil, fmt.Errorf("texture index %d out of range", textureIndex)
	}
	src := doc.Textures[textureIndex].Source
	if src == nil {
		return nil, nil
	}
	imageIndex := *src
	if imageIndex < 0 || imageIndex >= len(doc.Images) {
		return nil, fmt.Errorf("image index %d out of range", imageIndex)
	}
	if tex, ok := e.textures[imageIndex]; ok {
		return tex, nil
	}

	img := &doc.Images[imageIndex]
	result := &common.ImportedTexture{
		Name:     img.Name,
		MimeType: img.MimeType,
	}

	switch {
	case img.BufferView != nil:
		data, err := e.parser.ReadBufferView(*img.BufferView)
		if err != nil {
			return nil, fmt.Errorf("failed to read image buffer view: %w", err)
		}
		result.Data = data
	case strings.HasPrefix(img.URI, "data:"):
		data, mimeType, err := gltfDecodeDataURI(img.URI)
		if err != nil {
			return nil, fmt.Errorf("failed to decode image data URI: %w", err)
		}
		result.Data = data
		result.MimeType = common.Coalesce(result.MimeType, mimeType)
	case img.URI != "":
		result.Path = filepath.Join(e.parser.BaseDir(), filepath.FromSlash(img.URI))
		if _, err := os.Stat(result.Path); err != nil {
			common.Logger().Warn("loader: cannot load texture, ignoring it", "path", result.Path, "err", err)
			return nil, nil
		}
	default:
		return nil, nil
	}

	e.textures[imageIndex] = result
	return result, nil
}

// gltfPhongColors splits a metallic-roughness base color into diffuse and specular
// reflectance. Dielectrics reflect 4% specularly.
func gltfPhongColors(baseColor [4]float32, metallic float32) (diffuse, specular [3]float32) {
	for i := 0; i < 3; i++ {
		diffuse[i] = baseColor[i] * (1 - metallic)
		specular[i] = 0.04*(1-metallic) + baseColor[i]*metallic
	}
	return diffuse, specular
}

// gltfShininess converts a perceptual roughness to a Phong exponent using the
// Beckmann approximation n = 2/α² - 2 with α = roughness².
func gltfShininess(roughness float32) float32 {
	alpha := float64(roughness) * float64(roughness)
	if alpha < 1e-3 {
		return 1000
	}
	return float32(common.Clamp(2/(alpha*alpha)-2, 1, 1000))
}

