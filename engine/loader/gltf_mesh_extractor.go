package loader

import (
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/camsim-go/common"
	"github.com/Carmen-Shannon/camsim-go/engine/model"
)

// gltfShape is one triangle primitive of a glTF mesh together with its material index.
// Material is -1 when the primitive does not reference a material.
type gltfShape struct {
	Mesh     *model.Mesh
	Material int
}

// gltfMeshExtractorImpl is the implementation of the gltfMeshExtractor interface.
type gltfMeshExtractorImpl struct {
	parser gltfParser
	cache  map[int][]gltfShape
}

// gltfMeshExtractor converts glTF mesh primitives into indexed triangle meshes.
// Texture coordinates are converted to a bottom-left origin and missing normals
// or tangents are derived from the geometry.
type gltfMeshExtractor interface {
	// ExtractMesh extracts all triangle primitives of a mesh. The returned meshes are
	// fresh copies that the caller may transform in place.
	//
	// Parameters:
	//   - meshIndex: the index of the mesh in the document
	//
	// Returns:
	//   - []gltfShape: one shape per triangle primitive
	//   - error: error if extraction fails
	ExtractMesh(meshIndex int) ([]gltfShape, error)
}

var _ gltfMeshExtractor = &gltfMeshExtractorImpl{}

// newGLTFMeshExtractor creates a new mesh extractor for a parsed document.
//
// Parameters:
//   - parser: the parser containing a loaded document
//
// Returns:
//   - gltfMeshExtractor: the mesh extractor
func newGLTFMeshExtractor(parser gltfParser) gltfMeshExtractor {
	return &gltfMeshExtractorImpl{
		parser: parser,
		cache:  make(map[int][]gltfShape),
	}
}

func (e *gltfMeshExtractorImpl) ExtractMesh(meshIndex int) ([]gltfShape, error) {
	shapes, ok := e.cache[meshIndex]
	if !ok {
		var err error
		shapes, err = e.extract(meshIndex)
		if err != nil {
			return nil, err
		}
		e.cache[meshIndex] = shapes
	}

	out := make([]gltfShape, len(shapes))
	for i, s := range shapes {
		out[i] = gltfShape{Mesh: cloneMesh(s.Mesh), Material: s.Material}
	}
	return out, nil
}

func (e *gltfMeshExtractorImpl) extract(meshIndex int) ([]gltfShape, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}
	if meshIndex < 0 || meshIndex >= len(doc.Meshes) {
		return nil, fmt.Errorf("mesh index %d out of range", meshIndex)
	}
	mesh := &doc.Meshes[meshIndex]

	var shapes []gltfShape
	for i := range mesh.Primitives {
		prim := &mesh.Primitives[i]
		m, err := e.extractPrimitive(prim)
		if err != nil {
			return nil, fmt.Errorf("mesh %q primitive %d: %w", mesh.Name, i, err)
		}
		if m == nil {
			continue
		}
		material := -1
		if prim.Material != nil {
			material = *prim.Material
		}
		shapes = append(shapes, gltfShape{Mesh: m, Material: material})
	}
	return shapes, nil
}

// extractPrimitive returns nil for primitives that are not made of triangles.
func (e *gltfMeshExtractorImpl) extractPrimitive(prim *gltfPrimitive) (*model.Mesh, error) {
	mode := gltfPrimitiveModeTriangles
	if prim.Mode != nil {
		mode = *prim.Mode
	}
	if mode != gltfPrimitiveModeTriangles && mode != gltfPrimitiveModeTriangleStrip && mode != gltfPrimitiveModeTriangleFan {
		common.Logger().Warn("loader: skipping non-triangle primitive", "mode", mode)
		return nil, nil
	}

	posIdx, ok := prim.Attributes[gltfAttributePosition]
	if !ok {
		return nil, fmt.Errorf("primitive has no %s attribute", gltfAttributePosition)
	}
	positions, err := e.parser.ReadVec3Accessor(posIdx)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}
	m := &model.Mesh{Positions: positions}
	n := len(positions)

	if idx, ok := prim.Attributes[gltfAttributeNormal]; ok {
		if m.Normals, err = e.parser.ReadVec3Accessor(idx); err != nil {
			return nil, fmt.Errorf("normals: %w", err)
		}
	}
	if idx, ok := prim.Attributes[gltfAttributeTexCoord]; ok {
		if m.TexCoords, err = e.parser.ReadVec2Accessor(idx); err != nil {
			return nil, fmt.Errorf("texcoords: %w", err)
		}
		// glTF puts the texture origin at the top left
		for i := range m.TexCoords {
			m.TexCoords[i][1] = 1 - m.TexCoords[i][1]
		}
	}
	if idx, ok := prim.Attributes[gltfAttributeTangent]; ok {
		if m.Tangents, err = e.parser.ReadVec4Accessor(idx); err != nil {
			return nil, fmt.Errorf("tangents: %w", err)
		}
		// flipping v mirrors the bitangent
		for i := range m.Tangents {
			m.Tangents[i][3] = -m.Tangents[i][3]
		}
	}
	for name, l := range map[string]int{gltfAttributeNormal: len(m.Normals), gltfAttributeTexCoord: len(m.TexCoords), gltfAttributeTangent: len(m.Tangents)} {
		if l != 0 && l != n {
			return nil, fmt.Errorf("%s has %d entries, want %d", name, l, n)
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		if indices, err = e.parser.ReadIndicesAccessor(*prim.Indices); err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
	} else {
		indices = make([]uint32, n)
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	for _, idx := range indices {
		if int(idx) >= n {
			return nil, fmt.Errorf("index %d out of range for %d vertices", idx, n)
		}
	}
	m.Indices = gltfTriangulate(indices, mode)

	if len(m.Normals) == 0 {
		m.ComputeNormals()
	}
	if len(m.Tangents) == 0 && len(m.TexCoords) > 0 {
		m.ComputeTangents()
	}
	return m, nil
}

// gltfTriangulate converts strip and fan index lists into a plain triangle list.
func gltfTriangulate(indices []uint32, mode int) []uint32 {
	switch mode {
	case gltfPrimitiveModeTriangleStrip:
		var out []uint32
		for i := 0; i+2 < len(indices); i++ {
			if i%2 == 0 {
				out = append(out, indices[i], indices[i+1], indices[i+2])
			} else {
				out = append(out, indices[i+1], indices[i], indices[i+2])
			}
		}
		return out
	case gltfPrimitiveModeTriangleFan:
		var out []uint32
		for i := 1; i+1 < len(indices); i++ {
			out = append(out, indices[0], indices[i], indices[i+1])
		}
		return out
	}
	return indices[:len(indices)/3*3]
}

func cloneMesh(m *model.Mesh) *model.Mesh {
	return &model.Mesh{
		Positions: slices.Clone(m.Positions),
		Normals:   slices.Clone(m.Normals),
		TexCoords: slices.Clone(m.TexCoords),
		Tangents:  slices.Clone(m.Tangents),
		Indices:   slices.Clone(m.Indices),
	}
}
