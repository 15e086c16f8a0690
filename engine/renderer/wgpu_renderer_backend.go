package renderer

import (
	"encoding/binary"
	"fmt"
	"math"
	"runtime"
	"sort"

	"github.com/Carmen-Shannon/camsim-go/common"
	"github.com/Carmen-Shannon/camsim-go/engine/light"
	"github.com/Carmen-Shannon/camsim-go/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/camsim-go/engine/renderer/material"
	"github.com/Carmen-Shannon/camsim-go/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/camsim-go/engine/renderer/shader"
	"github.com/Carmen-Shannon/camsim-go/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// wgpuClip maps OpenGL clip space (z in [-w, w]) to WebGPU clip space (z in [0, w]). Window
// depth values are the same under both conventions.
var wgpuClip = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// accumulateSource adds two images. It emulates additive blending, which 32-bit float targets
// do not support without an optional device feature.
const accumulateSource = `
@group(0) @binding(0) var previous: texture_2d<f32>;
@group(0) @binding(1) var current: texture_2d<f32>;

@vertex
fn vs_main(@builtin(vertex_index) vertex: u32) -> @builtin(position) vec4<f32> {
    let uv = vec2<f32>(f32((vertex << 1u) & 2u), f32(vertex & 2u));
    return vec4<f32>(uv * 2.0 - 1.0, 0.0, 1.0);
}

@fragment
fn fs_main(@builtin(position) position: vec4<f32>) -> @location(0) vec4<f32> {
    let p = vec2<i32>(position.xy);
    return textureLoad(previous, p, 0) + textureLoad(current, p, 0);
}
`

// blitSource scales an image onto the presentation surface with nearest filtering.
const blitSource = `
@group(0) @binding(0) var image: texture_2d<f32>;
@group(0) @binding(1) var<uniform> surface_size: vec4<f32>;

@vertex
fn vs_main(@builtin(vertex_index) vertex: u32) -> @builtin(position) vec4<f32> {
    let uv = vec2<f32>(f32((vertex << 1u) & 2u), f32(vertex & 2u));
    return vec4<f32>(uv * 2.0 - 1.0, 0.0, 1.0);
}

@fragment
fn fs_main(@builtin(position) position: vec4<f32>) -> @location(0) vec4<f32> {
    let size = vec2<f32>(textureDimensions(image));
    let p = vec2<i32>(position.xy / surface_size.xy * size);
    return textureLoad(image, p, 0);
}
`

// wgpuBackendConfig collects the builder options that must be known before the device exists.
type wgpuBackendConfig struct {
	forceFallbackAdapter bool
	anisotropic          bool
	surface              *wgpu.SurfaceDescriptor
	surfaceWidth         int
	surfaceHeight        int
}

// wgpuTarget is one render target texture with a sampling view and one view per layer.
type wgpuTarget struct {
	desc       TargetDescriptor
	texture    *wgpu.Texture
	view       *wgpu.TextureView
	layerViews []*wgpu.TextureView
}

func (t *wgpuTarget) release() {
	for _, v := range t.layerViews {
		v.Release()
	}
	t.view.Release()
	t.texture.Release()
}

// wgpuProgram is a compiled variant with its shader module, pipeline layout and the render
// pipelines created for the attachment configurations it was drawn with.
type wgpuProgram struct {
	shader.Program
	module           *wgpu.ShaderModule
	bindGroupLayouts []*wgpu.BindGroupLayout
	layout           *wgpu.PipelineLayout
	pipelines        map[string]pipeline.Pipeline
}

// wgpuDraw is one uploaded shape; its provider owns the non-indexed vertex buffer.
type wgpuDraw struct {
	shape    bind_group_provider.BindGroupProvider
	material int
}

// wgpuRendererBackend is the WebGPU implementation of RendererBackend.
type wgpuRendererBackend struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	surface       *wgpu.Surface
	surfaceFormat wgpu.TextureFormat
	surfaceWidth  int
	surfaceHeight int

	targets  arena[*wgpuTarget]
	programs []*wgpuProgram

	// scene resources
	draws          []wgpuDraw
	drawInfos      *wgpu.Buffer
	materials      *wgpu.Buffer
	materialGroups []bind_group_provider.BindGroupProvider
	materialLayout *wgpu.BindGroupLayout
	sampler        *wgpu.Sampler

	powerFactors [shader.MaxPowerFactorSlots]*wgpuTarget

	// placeholders bound to unused slots
	white        *wgpuTarget
	dummyDepth   *wgpuTarget
	dummyDepthA  *wgpuTarget
	dummyRSM     *wgpuTarget
	dummyFactors *wgpuTarget

	accumulate        *wgpuProgram
	accumulateScratch map[string][2]*wgpuTarget
	blit              *wgpuProgram
}

var _ RendererBackend = &wgpuRendererBackend{}

// newWGPURendererBackend requests an adapter and a device and prepares the shared resources.
//
// Parameters:
//   - cfg: the pre-creation configuration
//
// Returns:
//   - *wgpuRendererBackend: the backend
//   - error: error if no adapter or device is available
func newWGPURendererBackend(cfg wgpuBackendConfig) (*wgpuRendererBackend, error) {
	runtime.LockOSThread()
	b := &wgpuRendererBackend{
		instance:          wgpu.CreateInstance(nil),
		accumulateScratch: make(map[string][2]*wgpuTarget),
	}
	if cfg.surface != nil {
		b.surface = b.instance.CreateSurface(cfg.surface)
	}

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: cfg.forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("renderer: no wgpu adapter: %w", err)
	}
	b.adapter = a

	// Geometry and reflective shadow map passes write up to six 16-byte color outputs, so
	// request everything the adapter supports instead of the WebGPU default limits.
	supported := a.GetLimits()
	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "camsim device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: supported.Limits,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("renderer: no wgpu device: %w", err)
	}
	b.device = d
	b.queue = d.GetQueue()

	if b.surface != nil {
		b.configureSurface(cfg.surfaceWidth, cfg.surfaceHeight)
	}
	if err := b.initShared(cfg.anisotropic); err != nil {
		b.Release()
		return nil, err
	}
	return b, nil
}

func (b *wgpuRendererBackend) configureSurface(width, height int) {
	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = capabilities.Formats[0]
	for _, f := range capabilities.Formats {
		if f == wgpu.TextureFormatBGRA8Unorm || f == wgpu.TextureFormatRGBA8Unorm {
			b.surfaceFormat = f
			break
		}
	}
	b.surfaceWidth, b.surfaceHeight = width, height
	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   capabilities.AlphaModes[0],
	})
}

func (b *wgpuRendererBackend) initShared(anisotropic bool) error {
	var err error
	maxAnisotropy := uint16(1)
	if anisotropic {
		maxAnisotropy = 16
	}
	b.sampler, err = b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "material sampler",
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeRepeat,
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: maxAnisotropy,
	})
	if err != nil {
		return fmt.Errorf("renderer: material sampler: %w", err)
	}

	visibility := wgpu.ShaderStageVertex | wgpu.ShaderStageFragment
	entries := make([]wgpu.BindGroupLayoutEntry, 0, 5)
	for i := 0; i < 4; i++ {
		entries = append(entries, wgpu.BindGroupLayoutEntry{
			Binding:    uint32(i),
			Visibility: visibility,
			Texture: wgpu.TextureBindingLayout{
				SampleType:    wgpu.TextureSampleTypeFloat,
				ViewDimension: wgpu.TextureViewDimension2D,
			},
		})
	}
	entries = append(entries, wgpu.BindGroupLayoutEntry{
		Binding:    4,
		Visibility: visibility,
		Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering},
	})
	b.materialLayout, err = b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   "material group",
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("renderer: material layout: %w", err)
	}

	placeholder := func(label string, kind TargetKind, format TargetFormat) (*wgpuTarget, error) {
		return b.newTarget(TargetDescriptor{Label: label, Kind: kind, Format: format, Width: 1, Height: 1, Layers: 1})
	}
	if b.white, err = placeholder("white", TargetKind2D, FormatRGBA8); err != nil {
		return err
	}
	b.writeTexture(b.white.texture, 0, []byte{255, 255, 255, 255}, 1, 1, 4)
	if b.dummyDepth, err = placeholder("no last depth", TargetKind2D, FormatDepth32F); err != nil {
		return err
	}
	if b.dummyDepthA, err = placeholder("no shadow map", TargetKind2DArray, FormatDepth32F); err != nil {
		return err
	}
	if b.dummyRSM, err = placeholder("no reflective shadow map", TargetKind2DArray, FormatRGBA32F); err != nil {
		return err
	}
	if b.dummyFactors, err = placeholder("no power factors", TargetKind2D, FormatR32F); err != nil {
		return err
	}
	b.writeTexture(b.dummyFactors.texture, 0, float32Bytes([]float32{1}), 1, 1, 4)

	b.accumulate, err = b.compileInternal("accumulate", accumulateSource, []wgpu.BindGroupLayoutEntry{
		unfilterableTextureEntry(0),
		unfilterableTextureEntry(1),
	})
	if err != nil {
		return err
	}
	if b.surface != nil {
		b.blit, err = b.compileInternal("blit", blitSource, []wgpu.BindGroupLayoutEntry{
			unfilterableTextureEntry(0),
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform},
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func unfilterableTextureEntry(binding int) wgpu.BindGroupLayoutEntry {
	return wgpu.BindGroupLayoutEntry{
		Binding:    uint32(binding),
		Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
		Texture: wgpu.TextureBindingLayout{
			SampleType:    wgpu.TextureSampleTypeUnfilterableFloat,
			ViewDimension: wgpu.TextureViewDimension2D,
		},
	}
}

// compileInternal builds a backend-owned fullscreen program with a single bind group.
func (b *wgpuRendererBackend) compileInternal(label, source string, entries []wgpu.BindGroupLayoutEntry) (*wgpuProgram, error) {
	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: source},
	})
	if err != nil {
		return nil, fmt.Errorf("renderer: %s module: %w", label, err)
	}
	bgl, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{Label: label, Entries: entries})
	if err != nil {
		return nil, fmt.Errorf("renderer: %s layout: %w", label, err)
	}
	layout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: []*wgpu.BindGroupLayout{bgl},
	})
	if err != nil {
		return nil, fmt.Errorf("renderer: %s pipeline layout: %w", label, err)
	}
	return &wgpuProgram{
		module:           module,
		bindGroupLayouts: []*wgpu.BindGroupLayout{bgl},
		layout:           layout,
		pipelines:        make(map[string]pipeline.Pipeline),
	}, nil
}

func (b *wgpuRendererBackend) Type() RendererBackendType {
	return BackendTypeWGPU
}

func wgpuFormat(f TargetFormat) wgpu.TextureFormat {
	switch f {
	case FormatRGBA8:
		return wgpu.TextureFormatRGBA8Unorm
	case FormatRGBA32F:
		return wgpu.TextureFormatRGBA32Float
	case FormatRG32F:
		return wgpu.TextureFormatRG32Float
	case FormatR32F:
		return wgpu.TextureFormatR32Float
	case FormatRGBA32UI:
		return wgpu.TextureFormatRGBA32Uint
	}
	return wgpu.TextureFormatDepth32Float
}

// texelSize returns the bytes per texel of a format.
func texelSize(f TargetFormat) int {
	switch f {
	case FormatRGBA8, FormatR32F, FormatDepth32F:
		return 4
	case FormatRG32F:
		return 8
	}
	return 16
}

func (b *wgpuRendererBackend) newTarget(desc TargetDescriptor) (*wgpuTarget, error) {
	layers := desc.LayerCount()
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: desc.Label,
		Size: wgpu.Extent3D{
			Width:              uint32(desc.Width),
			Height:             uint32(desc.Height),
			DepthOrArrayLayers: uint32(layers),
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpuFormat(desc.Format),
		Usage: wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding |
			wgpu.TextureUsageCopySrc | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("renderer: create target %q: %w", desc.Label, err)
	}
	t := &wgpuTarget{desc: desc, texture: tex}

	dim := wgpu.TextureViewDimension2D
	if desc.Kind != TargetKind2D {
		dim = wgpu.TextureViewDimension2DArray
	}
	t.view, err = tex.CreateView(&wgpu.TextureViewDescriptor{
		Label:           desc.Label,
		Format:          wgpuFormat(desc.Format),
		Dimension:       dim,
		MipLevelCount:   1,
		ArrayLayerCount: uint32(layers),
		Aspect:          wgpu.TextureAspectAll,
	})
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("renderer: view of target %q: %w", desc.Label, err)
	}
	for l := 0; l < layers; l++ {
		v, err := tex.CreateView(&wgpu.TextureViewDescriptor{
			Label:           fmt.Sprintf("%s layer %d", desc.Label, l),
			Format:          wgpuFormat(desc.Format),
			Dimension:       wgpu.TextureViewDimension2D,
			MipLevelCount:   1,
			BaseArrayLayer:  uint32(l),
			ArrayLayerCount: 1,
			Aspect:          wgpu.TextureAspectAll,
		})
		if err != nil {
			t.release()
			return nil, fmt.Errorf("renderer: layer view of target %q: %w", desc.Label, err)
		}
		t.layerViews = append(t.layerViews, v)
	}
	return t, nil
}

func (b *wgpuRendererBackend) writeTexture(tex *wgpu.Texture, layer int, data []byte, width, height, bytesPerTexel int) {
	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{Z: uint32(layer)},
			Aspect:   wgpu.TextureAspectAll,
		},
		data,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(width * bytesPerTexel),
			RowsPerImage: uint32(height),
		},
		&wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
	)
}

func (b *wgpuRendererBackend) CreateTarget(desc TargetDescriptor) (Handle, error) {
	t, err := b.newTarget(desc)
	if err != nil {
		return NoTarget, err
	}
	return b.targets.insert(t), nil
}

func (b *wgpuRendererBackend) ReleaseTarget(h Handle) {
	if t, ok := b.targets.remove(h); ok {
		t.release()
	}
}

func (b *wgpuRendererBackend) TargetDescriptor(h Handle) (TargetDescriptor, bool) {
	t, ok := b.targets.get(h)
	if !ok {
		return TargetDescriptor{}, false
	}
	return t.desc, true
}

func (b *wgpuRendererBackend) target(h Handle, what string) (*wgpuTarget, error) {
	t, ok := b.targets.get(h)
	if !ok {
		return nil, fmt.Errorf("renderer: %s target %d is not live", what, h)
	}
	return t, nil
}

func (b *wgpuRendererBackend) CompileProgram(v shader.Variant) (Program, error) {
	sp, err := shader.NewProgram(v)
	if err != nil {
		return nil, err
	}
	module, err := b.device.CreateShaderModule(sp.Module())
	if err != nil {
		return nil, fmt.Errorf("renderer: %s: %w", v.Key(), err)
	}

	descriptors := sp.BindGroupLayoutDescriptors()
	maxGroup := -1
	for g := range descriptors {
		maxGroup = max(maxGroup, g)
	}
	layouts := make([]*wgpu.BindGroupLayout, maxGroup+1)
	for g := 0; g <= maxGroup; g++ {
		if g == shader.GroupMaterial && v.Pass.IsScenePass() {
			layouts[g] = b.materialLayout
			continue
		}
		desc, ok := descriptors[g]
		if !ok {
			desc = wgpu.BindGroupLayoutDescriptor{Label: fmt.Sprintf("group%d", g)}
		}
		layout, err := b.device.CreateBindGroupLayout(&desc)
		if err != nil {
			return nil, fmt.Errorf("renderer: %s: bind group layout %d: %w", v.Key(), g, err)
		}
		layouts[g] = layout
	}
	pl, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            v.Key(),
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return nil, fmt.Errorf("renderer: %s: pipeline layout: %w", v.Key(), err)
	}
	p := &wgpuProgram{
		Program:          sp,
		module:           module,
		bindGroupLayouts: layouts,
		layout:           pl,
		pipelines:        make(map[string]pipeline.Pipeline),
	}
	b.programs = append(b.programs, p)
	common.Logger().Info("wgpu program compiled", "key", v.Key(), "groups", len(layouts))
	return p, nil
}

// pipelineKey identifies the fixed-function state a render pipeline was created for.
type pipelineKey struct {
	colors     []TargetFormat
	depth      bool
	compare    DepthCompare
	depthWrite bool
	vertices   bool
}

func (b *wgpuRendererBackend) pipeline(p *wgpuProgram, label string, k pipelineKey) (*wgpu.RenderPipeline, error) {
	formats := make([]wgpu.TextureFormat, len(k.colors))
	for i, f := range k.colors {
		formats[i] = wgpuFormat(f)
	}
	opts := []pipeline.PipelineBuilderOption{pipeline.WithColorFormats(formats...)}
	if k.vertices {
		vl, ok := p.VertexLayout()
		if !ok {
			return nil, fmt.Errorf("renderer: pipeline %s: program has no vertex layout", label)
		}
		opts = append(opts, pipeline.WithVertexLayout(vl))
	}
	if k.depth {
		compare := wgpu.CompareFunctionLess
		if k.compare == DepthLessEqual {
			compare = wgpu.CompareFunctionLessEqual
		}
		opts = append(opts, pipeline.WithDepth(compare, k.depthWrite))
	}
	return b.initPipeline(p, pipeline.NewPipeline(label, opts...))
}

// initPipeline returns the cached pipeline of p with the state of pl, creating it on first use.
func (b *wgpuRendererBackend) initPipeline(p *wgpuProgram, pl pipeline.Pipeline) (*wgpu.RenderPipeline, error) {
	if cached, ok := p.pipelines[pl.Key()]; ok {
		return cached.RenderPipeline(), nil
	}
	if err := pl.Init(b.device, p.module, p.layout); err != nil {
		return nil, fmt.Errorf("renderer: %w", err)
	}
	p.pipelines[pl.Key()] = pl
	return pl.RenderPipeline(), nil
}

func (b *wgpuRendererBackend) releaseScene() {
	for _, d := range b.draws {
		d.shape.Release()
	}
	b.draws = nil
	for _, g := range b.materialGroups {
		g.Release()
	}
	b.materialGroups = nil
	if b.drawInfos != nil {
		b.drawInfos.Release()
		b.drawInfos = nil
	}
	if b.materials != nil {
		b.materials.Release()
		b.materials = nil
	}
}

func (b *wgpuRendererBackend) UploadScene(s scene.Scene) error {
	b.releaseScene()

	mats := append(s.Materials(), material.NewMaterial())
	var infos []byte
	for oi, o := range s.Objects() {
		for si, sh := range o.Shapes() {
			if sh.Mesh == nil {
				continue
			}
			m := sh.Mesh
			buf := make([]byte, 0, len(m.Indices)*48)
			for _, idx := range m.Indices {
				if int(idx) >= len(m.Positions) {
					return fmt.Errorf("renderer: object %d shape %d: index %d out of range", oi, si, idx)
				}
				var v [12]float32
				copy(v[0:3], m.Positions[idx][:])
				if int(idx) < len(m.Normals) {
					copy(v[3:6], m.Normals[idx][:])
				}
				if int(idx) < len(m.TexCoords) {
					copy(v[6:8], m.TexCoords[idx][:])
				}
				if int(idx) < len(m.Tangents) {
					copy(v[8:12], m.Tangents[idx][:])
				}
				buf = append(buf, float32Bytes(v[:])...)
			}
			if len(buf) == 0 {
				continue
			}
			label := fmt.Sprintf("object %d shape %d", oi, si)
			vb, err := b.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
				Label:    label,
				Contents: buf,
				Usage:    wgpu.BufferUsageVertex,
			})
			if err != nil {
				return fmt.Errorf("renderer: vertex buffer: %w", err)
			}
			mi := sh.MaterialIndex
			if mi < 0 || mi >= len(mats)-1 {
				mi = len(mats) - 1
			}
			b.draws = append(b.draws, wgpuDraw{
				shape:    bind_group_provider.NewBindGroupProvider(label, bind_group_provider.WithVertexBuffer(vb, len(m.Indices))),
				material: mi,
			})
			info := GPUDrawInfo{ObjectIndex: uint32(oi), ShapeIndex: uint32(si), MaterialIndex: uint32(sh.MaterialIndex)}
			infos = append(infos, info.Marshal()...)
		}
	}
	if len(infos) == 0 {
		infos = make([]byte, 16)
	}
	var err error
	b.drawInfos, err = b.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "draw infos",
		Contents: infos,
		Usage:    wgpu.BufferUsageStorage,
	})
	if err != nil {
		return fmt.Errorf("renderer: draw info buffer: %w", err)
	}

	var matBytes []byte
	for _, m := range mats {
		g := material.ToGPUMaterial(m)
		matBytes = append(matBytes, g.Marshal()...)
		group := bind_group_provider.NewBindGroupProvider(m.Name())
		b.materialGroups = append(b.materialGroups, group)
		if err := b.materialGroup(group, m); err != nil {
			return err
		}
	}
	b.materials, err = b.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "materials",
		Contents: matBytes,
		Usage:    wgpu.BufferUsageStorage,
	})
	if err != nil {
		return fmt.Errorf("renderer: material buffer: %w", err)
	}
	common.Logger().Debug("wgpu scene uploaded", "draws", len(b.draws), "materials", len(mats))
	return nil
}

// materialGroup uploads the textures of a material into its provider. Missing textures bind a
// white texel owned by the backend.
func (b *wgpuRendererBackend) materialGroup(group bind_group_provider.BindGroupProvider, m material.Material) error {
	slots := []material.TextureSlot{material.TextureDiffuse, material.TextureSpecular, material.TextureNormal, material.TextureOpacity}
	shared := []wgpu.BindGroupEntry{{Binding: uint32(len(slots)), Sampler: b.sampler}}
	for i, slot := range slots {
		shared = append(shared, wgpu.BindGroupEntry{Binding: uint32(i), TextureView: b.white.view})
		if tex := m.Texture(slot); tex != nil {
			pix, w, h, err := tex.Decode()
			if err != nil {
				common.Logger().Warn("material texture not decodable", "material", m.Name(), "slot", slot, "err", err)
			} else {
				t, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
					Label:         m.Name(),
					Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
					Dimension:     wgpu.TextureDimension2D,
					Size:          wgpu.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
					Format:        wgpu.TextureFormatRGBA8Unorm,
					MipLevelCount: 1,
					SampleCount:   1,
				})
				if err != nil {
					return fmt.Errorf("renderer: material texture: %w", err)
				}
				b.writeTexture(t, 0, pix, int(w), int(h), 4)
				view, err := t.CreateView(nil)
				if err != nil {
					t.Release()
					return fmt.Errorf("renderer: material texture view: %w", err)
				}
				group.SetTexture(i, t, view)
			}
		}
	}
	bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   group.Label(),
		Layout:  b.materialLayout,
		Entries: group.Entries(shared...),
	})
	if err != nil {
		return fmt.Errorf("renderer: material bind group: %w", err)
	}
	group.SetBindGroup(bg)
	return nil
}

func (b *wgpuRendererBackend) UploadPowerFactorMap(slot int, m light.PowerFactorMap) error {
	if slot < 0 || slot >= len(b.powerFactors) {
		return fmt.Errorf("renderer: power factor slot %d out of range", slot)
	}
	w, h, factors := m.Width, m.Height, m.Factors
	if m.IsEmpty() {
		w, h, factors = 1, 1, []float32{1}
	}
	cur := b.powerFactors[slot]
	if cur == nil || cur.desc.Width != w || cur.desc.Height != h {
		if cur != nil {
			cur.release()
		}
		t, err := b.newTarget(TargetDescriptor{Label: fmt.Sprintf("power factors %d", slot), Kind: TargetKind2D, Format: FormatR32F, Width: w, Height: h})
		if err != nil {
			return err
		}
		b.powerFactors[slot] = t
		cur = t
	}
	b.writeTexture(cur.texture, 0, float32Bytes(factors[:w*h]), w, h, 4)
	return nil
}

// groupEntries binds the named resources to the entries of a reflected layout.
func groupEntries(p *wgpuProgram, group int, resolve func(name string) (wgpu.BindGroupEntry, bool)) ([]wgpu.BindGroupEntry, error) {
	desc, ok := p.BindGroupLayoutDescriptors()[group]
	if !ok {
		return nil, nil
	}
	entries := make([]wgpu.BindGroupEntry, 0, len(desc.Entries))
	for _, le := range desc.Entries {
		name := p.BindGroupVarName(group, int(le.Binding))
		e, ok := resolve(name)
		if !ok {
			return nil, fmt.Errorf("renderer: %s: nothing to bind to %q", p.Key(), name)
		}
		e.Binding = le.Binding
		entries = append(entries, e)
	}
	return entries, nil
}

func bufferEntry(buf *wgpu.Buffer) wgpu.BindGroupEntry {
	return wgpu.BindGroupEntry{Buffer: buf, Offset: 0, Size: wgpu.WholeSize}
}

// frame collects per-pass transient resources released after submission.
type frame struct {
	buffers []*wgpu.Buffer
	groups  []*wgpu.BindGroup
}

func (f *frame) release() {
	for _, g := range f.groups {
		g.Release()
	}
	for _, buf := range f.buffers {
		buf.Release()
	}
}

func (b *wgpuRendererBackend) buffer(f *frame, label string, data []byte, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	buf, err := b.device.CreateBufferInit(&wgpu.BufferInitDescriptor{Label: label, Contents: data, Usage: usage})
	if err != nil {
		return nil, fmt.Errorf("renderer: buffer %s: %w", label, err)
	}
	f.buffers = append(f.buffers, buf)
	return buf, nil
}

func (b *wgpuRendererBackend) bindGroup(f *frame, p *wgpuProgram, group int, entries []wgpu.BindGroupEntry) (*wgpu.BindGroup, error) {
	g, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   fmt.Sprintf("%s group %d", p.Key(), group),
		Layout:  p.bindGroupLayouts[group],
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("renderer: %s: bind group %d: %w", p.Key(), group, err)
	}
	f.groups = append(f.groups, g)
	return g, nil
}

func (b *wgpuRendererBackend) submit(label string, encode func(enc *wgpu.CommandEncoder) error) error {
	enc, err := b.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return fmt.Errorf("renderer: %s: %w", label, err)
	}
	defer enc.Release()
	if err := encode(enc); err != nil {
		return err
	}
	cmd, err := enc.Finish(nil)
	if err != nil {
		return fmt.Errorf("renderer: %s: %w", label, err)
	}
	defer cmd.Release()
	b.queue.Submit(cmd)
	return nil
}

func (b *wgpuRendererBackend) DrawScene(pass ScenePass) error {
	p, ok := pass.Program.(*wgpuProgram)
	if !ok {
		return fmt.Errorf("renderer: scene pass %q: program %s was not compiled by the wgpu backend", pass.Label, pass.Program.Key())
	}
	v := p.Variant()

	key := pipelineKey{depth: pass.Depth.IsValid(), compare: pass.DepthCompare, depthWrite: pass.DepthWrite, vertices: true}
	colors := make([]wgpu.RenderPassColorAttachment, len(pass.Color))
	width, height := 0, 0
	for i, a := range pass.Color {
		t, err := b.target(a.Target, "color")
		if err != nil {
			return fmt.Errorf("%w (pass %q)", err, pass.Label)
		}
		if a.Layer < 0 || a.Layer >= len(t.layerViews) {
			return fmt.Errorf("renderer: scene pass %q: target %q has no layer %d", pass.Label, t.desc.Label, a.Layer)
		}
		key.colors = append(key.colors, t.desc.Format)
		width, height = t.desc.Width, t.desc.Height
		colors[i] = wgpu.RenderPassColorAttachment{
			View:       t.layerViews[a.Layer],
			LoadOp:     loadOp(pass.ClearColor),
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: clearColor(t.desc.Format),
		}
	}
	var depth *wgpu.RenderPassDepthStencilAttachment
	if pass.Depth.IsValid() {
		t, err := b.target(pass.Depth, "depth")
		if err != nil {
			return fmt.Errorf("%w (pass %q)", err, pass.Label)
		}
		width, height = t.desc.Width, t.desc.Height
		depth = &wgpu.RenderPassDepthStencilAttachment{
			View:            t.layerViews[pass.DepthLayer],
			DepthLoadOp:     loadOp(pass.ClearDepth),
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1,
		}
	}
	rp, err := b.pipeline(p, pass.Label, key)
	if err != nil {
		return err
	}

	var f frame
	defer f.release()
	uniforms := NewGPUPassUniforms(pass.Uniforms, mgl32.Vec2{float32(width), float32(height)}, len(pass.Lights), pass.LastDepth.IsValid())
	ub, err := b.buffer(&f, "pass uniforms", uniforms.Marshal(), wgpu.BufferUsageUniform)
	if err != nil {
		return err
	}
	ob, err := b.buffer(&f, "objects", MarshalObjectBuffer(pass.Objects, wgpuClip), wgpu.BufferUsageStorage)
	if err != nil {
		return err
	}
	lb, err := b.buffer(&f, "lights", light.MarshalLightBuffer(pass.Lights), wgpu.BufferUsageStorage)
	if err != nil {
		return err
	}
	entries, err := groupEntries(p, shader.GroupPass, func(name string) (wgpu.BindGroupEntry, bool) {
		switch name {
		case "scene_pass":
			return bufferEntry(ub), true
		case "objects":
			return bufferEntry(ob), true
		case "draw_infos":
			return bufferEntry(b.drawInfos), b.drawInfos != nil
		case "materials":
			return bufferEntry(b.materials), b.materials != nil
		case "lights":
			return bufferEntry(lb), true
		}
		return wgpu.BindGroupEntry{}, false
	})
	if err != nil {
		return err
	}
	g0, err := b.bindGroup(&f, p, shader.GroupPass, entries)
	if err != nil {
		return err
	}
	var g2 *wgpu.BindGroup
	if _, ok := p.BindGroupLayoutDescriptors()[shader.GroupSlots]; ok {
		entries, err := groupEntries(p, shader.GroupSlots, func(name string) (wgpu.BindGroupEntry, bool) {
			return b.slotEntry(&pass, name)
		})
		if err != nil {
			return err
		}
		if g2, err = b.bindGroup(&f, p, shader.GroupSlots, entries); err != nil {
			return err
		}
	}
	common.Logger().Debug("wgpu scene pass", "pass", pass.Label, "program", v.Key(), "draws", len(b.draws))

	return b.submit(pass.Label, func(enc *wgpu.CommandEncoder) error {
		rpass := enc.BeginRenderPass(&wgpu.RenderPassDescriptor{
			Label:                  pass.Label,
			ColorAttachments:       colors,
			DepthStencilAttachment: depth,
		})
		rpass.SetPipeline(rp)
		rpass.SetBindGroup(shader.GroupPass, g0, nil)
		if g2 != nil {
			rpass.SetBindGroup(shader.GroupSlots, g2, nil)
		}
		for i, d := range b.draws {
			rpass.SetBindGroup(shader.GroupMaterial, b.materialGroups[d.material].BindGroup(), nil)
			rpass.SetVertexBuffer(0, d.shape.VertexBuffer(), 0, wgpu.WholeSize)
			rpass.Draw(uint32(d.shape.VertexCount()), 1, 0, uint32(i))
		}
		rpass.End()
		rpass.Release()
		return nil
	})
}

// slotEntry resolves a slot texture name generated by the pre-processor.
func (b *wgpuRendererBackend) slotEntry(pass *ScenePass, name string) (wgpu.BindGroupEntry, bool) {
	var slot int
	switch {
	case name == "last_depth":
		if t, ok := b.targets.get(pass.LastDepth); ok {
			return wgpu.BindGroupEntry{TextureView: t.layerViews[0]}, true
		}
		return wgpu.BindGroupEntry{TextureView: b.dummyDepth.view}, true
	case scanSlot(name, "shadow_map_%d", &slot):
		if t, ok := b.targets.get(pass.ShadowMaps[slot]); ok {
			return wgpu.BindGroupEntry{TextureView: t.view}, true
		}
		return wgpu.BindGroupEntry{TextureView: b.dummyDepthA.view}, true
	case scanSlot(name, "rsm_%d", &slot):
		if t, ok := b.targets.get(pass.RSMs[slot]); ok {
			return wgpu.BindGroupEntry{TextureView: t.view}, true
		}
		return wgpu.BindGroupEntry{TextureView: b.dummyRSM.view}, true
	case scanSlot(name, "power_factor_%d", &slot):
		if t := b.powerFactors[slot]; t != nil {
			return wgpu.BindGroupEntry{TextureView: t.view}, true
		}
		return wgpu.BindGroupEntry{TextureView: b.dummyFactors.view}, true
	}
	return wgpu.BindGroupEntry{}, false
}

func scanSlot(name, format string, slot *int) bool {
	n, err := fmt.Sscanf(name, format, slot)
	return err == nil && n == 1 && *slot >= 0
}

func loadOp(clear bool) wgpu.LoadOp {
	if clear {
		return wgpu.LoadOpClear
	}
	return wgpu.LoadOpLoad
}

func clearColor(f TargetFormat) wgpu.Color {
	if f.IsUint() {
		return wgpu.Color{R: math.MaxUint32, G: math.MaxUint32, B: math.MaxUint32, A: math.MaxUint32}
	}
	return wgpu.Color{}
}

func (b *wgpuRendererBackend) DrawFullscreen(pass FullscreenPass) error {
	p, ok := pass.Program.(*wgpuProgram)
	if !ok {
		return fmt.Errorf("renderer: fullscreen pass %q: program %s was not compiled by the wgpu backend", pass.Label, pass.Program.Key())
	}
	v := p.Variant()
	outputs := make([]*wgpuTarget, len(pass.Outputs))
	for i, h := range pass.Outputs {
		t, err := b.target(h, "output")
		if err != nil {
			return fmt.Errorf("%w (pass %q)", err, pass.Label)
		}
		outputs[i] = t
	}
	inputs := make([]*wgpuTarget, len(pass.Inputs))
	for i, h := range pass.Inputs {
		t, err := b.target(h, "input")
		if err != nil {
			return fmt.Errorf("%w (pass %q)", err, pass.Label)
		}
		inputs[i] = t
	}
	if len(outputs) == 0 || len(inputs) == 0 {
		return fmt.Errorf("renderer: fullscreen pass %q needs inputs and outputs", pass.Label)
	}

	// Blending renders into scratch targets that are then added onto the outputs.
	dst := outputs
	if pass.Blend {
		dst = make([]*wgpuTarget, len(outputs))
		for i, o := range outputs {
			if o.desc.Format.IsUint() {
				return fmt.Errorf("renderer: fullscreen pass %q cannot blend into %q", pass.Label, o.desc.Label)
			}
			s, err := b.scratch(o.desc, i)
			if err != nil {
				return err
			}
			dst[i] = s[1]
		}
	}

	key := pipelineKey{}
	colors := make([]wgpu.RenderPassColorAttachment, len(dst))
	for i, t := range dst {
		key.colors = append(key.colors, t.desc.Format)
		colors[i] = wgpu.RenderPassColorAttachment{
			View:       t.layerViews[0],
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: clearColor(t.desc.Format),
		}
	}
	rp, err := b.pipeline(p, pass.Label, key)
	if err != nil {
		return err
	}

	var f frame
	defer f.release()
	size := mgl32.Vec2{float32(dst[0].desc.Width), float32(dst[0].desc.Height)}
	inSize := mgl32.Vec2{float32(inputs[0].desc.Width), float32(inputs[0].desc.Height)}
	uniforms := NewGPUFullscreenUniforms(pass.Uniforms, size, inSize, [2]uint32{uint32(v.WeightsWidth), uint32(v.WeightsHeight)}, len(inputs))
	ub, err := b.buffer(&f, "fullscreen uniforms", uniforms.Marshal(), wgpu.BufferUsageUniform)
	if err != nil {
		return err
	}
	wb, err := b.buffer(&f, "weights", MarshalWeights(pass.Weights), wgpu.BufferUsageStorage)
	if err != nil {
		return err
	}
	e0, err := groupEntries(p, shader.GroupPass, func(name string) (wgpu.BindGroupEntry, bool) {
		switch name {
		case "fs":
			return bufferEntry(ub), true
		case "weights":
			return bufferEntry(wb), true
		}
		return wgpu.BindGroupEntry{}, false
	})
	if err != nil {
		return err
	}
	g0, err := b.bindGroup(&f, p, shader.GroupPass, e0)
	if err != nil {
		return err
	}
	e1, err := groupEntries(p, shader.GroupInputs, func(name string) (wgpu.BindGroupEntry, bool) {
		var i int
		if !scanSlot(name, "input_%d", &i) || i >= len(inputs) {
			return wgpu.BindGroupEntry{}, false
		}
		return wgpu.BindGroupEntry{TextureView: inputs[i].layerViews[0]}, true
	})
	if err != nil {
		return err
	}
	g1, err := b.bindGroup(&f, p, shader.GroupInputs, e1)
	if err != nil {
		return err
	}
	common.Logger().Debug("wgpu fullscreen pass", "pass", pass.Label, "program", v.Key(), "blend", pass.Blend)

	return b.submit(pass.Label, func(enc *wgpu.CommandEncoder) error {
		rpass := enc.BeginRenderPass(&wgpu.RenderPassDescriptor{Label: pass.Label, ColorAttachments: colors})
		rpass.SetPipeline(rp)
		rpass.SetBindGroup(shader.GroupPass, g0, nil)
		rpass.SetBindGroup(shader.GroupInputs, g1, nil)
		rpass.Draw(3, 1, 0, 0)
		rpass.End()
		rpass.Release()
		if !pass.Blend {
			return nil
		}
		for i, o := range outputs {
			if err := b.encodeAccumulate(enc, &f, o, i); err != nil {
				return err
			}
		}
		return nil
	})
}

// scratch returns the previous-value and current-value targets used to blend into the
// output-th target of a pass.
func (b *wgpuRendererBackend) scratch(desc TargetDescriptor, output int) ([2]*wgpuTarget, error) {
	key := fmt.Sprintf("%v|%dx%d|%d", desc.Format, desc.Width, desc.Height, output)
	if s, ok := b.accumulateScratch[key]; ok {
		return s, nil
	}
	var s [2]*wgpuTarget
	for i := range s {
		t, err := b.newTarget(TargetDescriptor{Label: "blend scratch " + key, Kind: TargetKind2D, Format: desc.Format, Width: desc.Width, Height: desc.Height})
		if err != nil {
			return s, err
		}
		s[i] = t
	}
	b.accumulateScratch[key] = s
	return s, nil
}

// encodeAccumulate copies out into the previous-value scratch and writes previous + current
// back into out.
func (b *wgpuRendererBackend) encodeAccumulate(enc *wgpu.CommandEncoder, f *frame, out *wgpuTarget, output int) error {
	s, err := b.scratch(out.desc, output)
	if err != nil {
		return err
	}
	previous, current := s[0], s[1]
	extent := wgpu.Extent3D{Width: uint32(out.desc.Width), Height: uint32(out.desc.Height), DepthOrArrayLayers: 1}
	enc.CopyTextureToTexture(
		&wgpu.ImageCopyTexture{Texture: out.texture, Aspect: wgpu.TextureAspectAll},
		&wgpu.ImageCopyTexture{Texture: previous.texture, Aspect: wgpu.TextureAspectAll},
		&extent,
	)
	rp, err := b.pipeline(b.accumulate, "accumulate", pipelineKey{colors: []TargetFormat{out.desc.Format}})
	if err != nil {
		return err
	}
	g, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "accumulate",
		Layout: b.accumulate.bindGroupLayouts[0],
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: previous.layerViews[0]},
			{Binding: 1, TextureView: current.layerViews[0]},
		},
	})
	if err != nil {
		return fmt.Errorf("renderer: accumulate bind group: %w", err)
	}
	f.groups = append(f.groups, g)
	rpass := enc.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "accumulate",
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:    out.layerViews[0],
			LoadOp:  wgpu.LoadOpClear,
			StoreOp: wgpu.StoreOpStore,
		}},
	})
	rpass.SetPipeline(rp)
	rpass.SetBindGroup(0, g, nil)
	rpass.Draw(3, 1, 0, 0)
	rpass.End()
	rpass.Release()
	return nil
}

func (b *wgpuRendererBackend) CopyTarget(src, dst Handle) error {
	s, err := b.target(src, "copy source")
	if err != nil {
		return err
	}
	d, err := b.target(dst, "copy destination")
	if err != nil {
		return err
	}
	return b.submit("copy "+s.desc.Label, func(enc *wgpu.CommandEncoder) error {
		enc.CopyTextureToTexture(
			&wgpu.ImageCopyTexture{Texture: s.texture, Aspect: wgpu.TextureAspectAll},
			&wgpu.ImageCopyTexture{Texture: d.texture, Aspect: wgpu.TextureAspectAll},
			&wgpu.Extent3D{Width: uint32(s.desc.Width), Height: uint32(s.desc.Height), DepthOrArrayLayers: uint32(s.desc.LayerCount())},
		)
		return nil
	})
}

// ReadTarget copies a layer into a mapped buffer. Buffer rows are padded to 256 bytes as
// required by texture to buffer copies.
func (b *wgpuRendererBackend) ReadTarget(h Handle, layer, channels int) ([]byte, error) {
	t, err := b.target(h, "read")
	if err != nil {
		return nil, err
	}
	w, ht := t.desc.Width, t.desc.Height
	texel := texelSize(t.desc.Format)
	rowBytes := w * texel
	stride := (rowBytes + 255) &^ 255
	size := uint64(stride * ht)

	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "readback " + t.desc.Label,
		Size:  size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("renderer: readback buffer: %w", err)
	}
	defer buf.Release()

	err = b.submit("readback "+t.desc.Label, func(enc *wgpu.CommandEncoder) error {
		enc.CopyTextureToBuffer(
			&wgpu.ImageCopyTexture{Texture: t.texture, Origin: wgpu.Origin3D{Z: uint32(layer)}, Aspect: wgpu.TextureAspectAll},
			&wgpu.ImageCopyBuffer{Buffer: buf, Layout: wgpu.TextureDataLayout{BytesPerRow: uint32(stride), RowsPerImage: uint32(ht)}},
			&wgpu.Extent3D{Width: uint32(w), Height: uint32(ht), DepthOrArrayLayers: 1},
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	status := wgpu.BufferMapAsyncStatusUnknown
	buf.MapAsync(wgpu.MapModeRead, 0, size, func(s wgpu.BufferMapAsyncStatus) {
		status = s
	})
	b.device.Poll(true, nil)
	if status != wgpu.BufferMapAsyncStatusSuccess {
		return nil, fmt.Errorf("renderer: mapping readback of %q failed: %v", t.desc.Label, status)
	}
	mapped := buf.GetMappedRange(0, uint(size))
	defer buf.Unmap()

	compBytes := texel / t.desc.Format.Channels()
	out := make([]byte, 0, w*ht*channels*compBytes)
	for y := 0; y < ht; y++ {
		row := mapped[y*stride : y*stride+rowBytes]
		for x := 0; x < w; x++ {
			out = append(out, row[x*texel:x*texel+channels*compBytes]...)
		}
	}
	return out, nil
}

func (b *wgpuRendererBackend) Present(h Handle) error {
	if b.surface == nil || b.blit == nil {
		return ErrNoSurface
	}
	t, err := b.target(h, "present")
	if err != nil {
		return err
	}
	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("renderer: surface texture: %w", err)
	}
	defer surfaceTexture.Release()
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		return fmt.Errorf("renderer: surface view: %w", err)
	}
	defer view.Release()

	var f frame
	defer f.release()
	sizeBytes := float32Bytes([]float32{float32(b.surfaceWidth), float32(b.surfaceHeight), 0, 0})
	ub, err := b.buffer(&f, "surface size", sizeBytes, wgpu.BufferUsageUniform)
	if err != nil {
		return err
	}
	g, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "blit",
		Layout: b.blit.bindGroupLayouts[0],
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: t.layerViews[0]},
			{Binding: 1, Buffer: ub, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return fmt.Errorf("renderer: blit bind group: %w", err)
	}
	f.groups = append(f.groups, g)

	rp, err := b.initPipeline(b.blit, pipeline.NewPipeline("blit", pipeline.WithColorFormats(b.surfaceFormat)))
	if err != nil {
		return err
	}

	err = b.submit("present", func(enc *wgpu.CommandEncoder) error {
		rpass := enc.BeginRenderPass(&wgpu.RenderPassDescriptor{
			Label: "present",
			ColorAttachments: []wgpu.RenderPassColorAttachment{{
				View:    view,
				LoadOp:  wgpu.LoadOpClear,
				StoreOp: wgpu.StoreOpStore,
			}},
		})
		rpass.SetPipeline(rp)
		rpass.SetBindGroup(0, g, nil)
		rpass.Draw(3, 1, 0, 0)
		rpass.End()
		rpass.Release()
		return nil
	})
	if err != nil {
		return err
	}
	b.surface.Present()
	return nil
}

func (b *wgpuRendererBackend) Release() {
	b.releaseScene()
	b.targets.each(func(h Handle, t *wgpuTarget) {
		b.targets.remove(h)
		t.release()
	})
	for i, t := range b.powerFactors {
		if t != nil {
			t.release()
			b.powerFactors[i] = nil
		}
	}
	keys := make([]string, 0, len(b.accumulateScratch))
	for k := range b.accumulateScratch {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, t := range b.accumulateScratch[k] {
			if t != nil {
				t.release()
			}
		}
	}
	b.accumulateScratch = make(map[string][2]*wgpuTarget)
	for _, t := range []*wgpuTarget{b.white, b.dummyDepth, b.dummyDepthA, b.dummyRSM, b.dummyFactors} {
		if t != nil {
			t.release()
		}
	}
	b.white, b.dummyDepth, b.dummyDepthA, b.dummyRSM, b.dummyFactors = nil, nil, nil, nil, nil
	for _, p := range append(b.programs, b.accumulate, b.blit) {
		if p == nil {
			continue
		}
		for _, pl := range p.pipelines {
			pl.Release()
		}
		for _, l := range p.bindGroupLayouts {
			if l != b.materialLayout {
				l.Release()
			}
		}
		p.layout.Release()
		p.module.Release()
	}
	b.programs = nil
	b.accumulate, b.blit = nil, nil
	if b.materialLayout != nil {
		b.materialLayout.Release()
		b.materialLayout = nil
	}
	if b.sampler != nil {
		b.sampler.Release()
		b.sampler = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

func float32Bytes(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}
