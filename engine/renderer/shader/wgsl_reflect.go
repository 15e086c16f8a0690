package shader

import (
	"fmt"
	"sort"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/naga/ir"
)

// reflectBindGroupLayouts builds bind group layout descriptors from the resource globals of a
// lowered module.
//
// Sampled float textures are filterable only when their group also declares a sampler; all other
// float textures are read with textureLoad and bound as unfilterable so 32-bit float targets can
// be used without the float32-filterable device feature.
//
// Parameters:
//   - module: the lowered and validated module
//   - visibility: the shader stages every entry is visible to
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
//   - map[int]map[int]string: variable names keyed by group and binding
func reflectBindGroupLayouts(module *ir.Module, visibility wgpu.ShaderStage) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string) {
	entries := make(map[int][]wgpu.BindGroupLayoutEntry)
	names := make(map[int]map[int]string)
	hasSampler := make(map[int]bool)

	for _, gv := range module.GlobalVariables {
		if gv.Binding == nil || int(gv.Type) >= len(module.Types) {
			continue
		}
		if _, ok := module.Types[gv.Type].Inner.(ir.SamplerType); ok {
			hasSampler[int(gv.Binding.Group)] = true
		}
	}

	for _, gv := range module.GlobalVariables {
		if gv.Binding == nil || int(gv.Type) >= len(module.Types) {
			continue
		}
		group := int(gv.Binding.Group)
		entry := wgpu.BindGroupLayoutEntry{
			Binding:    gv.Binding.Binding,
			Visibility: visibility,
		}
		switch gv.Space {
		case ir.SpaceUniform:
			entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		case ir.SpaceStorage:
			if gv.Access == ir.StorageRead {
				entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
			} else {
				entry.Buffer.Type = wgpu.BufferBindingTypeStorage
			}
		case ir.SpaceHandle:
			switch inner := module.Types[gv.Type].Inner.(type) {
			case ir.SamplerType:
				if inner.Comparison {
					entry.Sampler.Type = wgpu.SamplerBindingTypeComparison
				} else {
					entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
				}
			case ir.ImageType:
				classifyImage(inner, hasSampler[group], &entry)
			default:
				continue
			}
		default:
			continue
		}
		entries[group] = append(entries[group], entry)
		if names[group] == nil {
			names[group] = make(map[int]string)
		}
		names[group][int(gv.Binding.Binding)] = gv.Name
	}

	descriptors := make(map[int]wgpu.BindGroupLayoutDescriptor, len(entries))
	for group, e := range entries {
		sort.Slice(e, func(i, j int) bool { return e[i].Binding < e[j].Binding })
		descriptors[group] = wgpu.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("group%d", group),
			Entries: e,
		}
	}
	return descriptors, names
}

// classifyImage populates the texture layout fields of an entry from a naga image type.
func classifyImage(img ir.ImageType, filterable bool, entry *wgpu.BindGroupLayoutEntry) {
	entry.Texture.Multisampled = img.Multisampled
	switch img.Dim {
	case ir.Dim1D:
		entry.Texture.ViewDimension = wgpu.TextureViewDimension1D
	case ir.Dim3D:
		entry.Texture.ViewDimension = wgpu.TextureViewDimension3D
	case ir.DimCube:
		entry.Texture.ViewDimension = wgpu.TextureViewDimensionCube
		if img.Arrayed {
			entry.Texture.ViewDimension = wgpu.TextureViewDimensionCubeArray
		}
	default:
		entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
		if img.Arrayed {
			entry.Texture.ViewDimension = wgpu.TextureViewDimension2DArray
		}
	}
	switch {
	case img.Class == ir.ImageClassDepth:
		entry.Texture.SampleType = wgpu.TextureSampleTypeDepth
	case img.SampledKind == ir.ScalarUint:
		entry.Texture.SampleType = wgpu.TextureSampleTypeUint
	case img.SampledKind == ir.ScalarSint:
		entry.Texture.SampleType = wgpu.TextureSampleTypeSint
	case filterable:
		entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
	default:
		entry.Texture.SampleType = wgpu.TextureSampleTypeUnfilterableFloat
	}
}
