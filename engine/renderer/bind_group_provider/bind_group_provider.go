package bind_group_provider

import (
	"sort"

	"github.com/cogentcore/webgpu/wgpu"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	// The following fields are GPU allocated resources owned by the provider and released with it.

	// bindGroup is the GPU bind group created from the provider's entries, or nil until set.
	bindGroup *wgpu.BindGroup
	// buffers holds the GPU buffers owned by this provider, keyed by binding index.
	buffers map[int]*wgpu.Buffer
	// textures holds the GPU textures owned by this provider, keyed by binding index.
	textures map[int]*wgpu.Texture
	// textureViews holds the views of the owned textures, keyed by binding index.
	textureViews map[int]*wgpu.TextureView

	// vertexBuffer is the non-indexed vertex buffer of a mesh shape, or nil for material providers.
	vertexBuffer *wgpu.Buffer
	// vertexCount is the number of vertices drawn from vertexBuffer.
	vertexCount int
}

// BindGroupProvider defines the interface for the GPU resources of one scene entity. The wgpu
// backend creates one provider per material (textures and their bind group) and one per mesh
// shape (vertex buffer). Shared resources such as samplers, placeholder textures and layouts are
// passed in as extra entries and are never owned, so releasing a provider leaves them alive.
//
// Usage pattern:
//  1. Backend creates a provider with NewBindGroupProvider(label)
//  2. Backend uploads the entity data and stores the resources with the setters
//  3. Backend creates the bind group from Entries(shared...) and stores it with SetBindGroup
//  4. Draw calls read BindGroup() and VertexBuffer()
//  5. Release() drops every owned resource when the scene is replaced
type BindGroupProvider interface {
	// Release releases every GPU resource owned by this provider.
	Release()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// BindGroup returns the bind group created for this provider.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group or nil
	BindGroup() *wgpu.BindGroup

	// SetBindGroup stores the bind group, releasing a previous one.
	//
	// Parameters:
	//   - bg: the bind group built from Entries
	SetBindGroup(bg *wgpu.BindGroup)

	// Buffer returns the buffer bound at a binding index.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(binding int) *wgpu.Buffer

	// SetBuffer stores an owned buffer for a binding index.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the buffer
	SetBuffer(binding int, buf *wgpu.Buffer)

	// Texture returns the texture bound at a binding index.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Texture: the texture or nil
	Texture(binding int) *wgpu.Texture

	// TextureView returns the view bound at a binding index.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.TextureView: the texture view or nil
	TextureView(binding int) *wgpu.TextureView

	// SetTexture stores an owned texture and its view for a binding index.
	//
	// Parameters:
	//   - binding: the binding index
	//   - tex: the texture
	//   - view: the view bound to the shader
	SetTexture(binding int, tex *wgpu.Texture, view *wgpu.TextureView)

	// VertexBuffer returns the vertex buffer of a mesh shape.
	//
	// Returns:
	//   - *wgpu.Buffer: the vertex buffer or nil
	VertexBuffer() *wgpu.Buffer

	// VertexCount returns the number of vertices in the vertex buffer.
	//
	// Returns:
	//   - int: the vertex count
	VertexCount() int

	// SetVertexBuffer stores an owned vertex buffer.
	//
	// Parameters:
	//   - buf: the vertex buffer
	//   - count: the number of vertices it holds
	SetVertexBuffer(buf *wgpu.Buffer, count int)

	// Entries returns the bind group entries of the owned buffers and texture views merged with
	// the shared entries, sorted by binding index. An owned resource wins over a shared entry
	// with the same binding.
	//
	// Parameters:
	//   - shared: entries for resources the provider does not own
	//
	// Returns:
	//   - []wgpu.BindGroupEntry: the entries ready for CreateBindGroup
	Entries(shared ...wgpu.BindGroupEntry) []wgpu.BindGroupEntry
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates an empty provider.
//
// Parameters:
//   - label: the debug label of the provider
//   - options: functional options applied after construction
//
// Returns:
//   - BindGroupProvider: the provider
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:        label,
		buffers:      make(map[int]*wgpu.Buffer),
		textures:     make(map[int]*wgpu.Texture),
		textureViews: make(map[int]*wgpu.TextureView),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup) {
	if p.bindGroup != nil && p.bindGroup != bg {
		p.bindGroup.Release()
	}
	p.bindGroup = bg
}

func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer) {
	p.buffers[binding] = buf
}

func (p *bindGroupProvider) Texture(binding int) *wgpu.Texture {
	return p.textures[binding]
}

func (p *bindGroupProvider) TextureView(binding int) *wgpu.TextureView {
	return p.textureViews[binding]
}

func (p *bindGroupProvider) SetTexture(binding int, tex *wgpu.Texture, view *wgpu.TextureView) {
	p.textures[binding] = tex
	p.textureViews[binding] = view
}

func (p *bindGroupProvider) VertexBuffer() *wgpu.Buffer {
	return p.vertexBuffer
}

func (p *bindGroupProvider) VertexCount() int {
	return p.vertexCount
}

func (p *bindGroupProvider) SetVertexBuffer(buf *wgpu.Buffer, count int) {
	p.vertexBuffer = buf
	p.vertexCount = count
}

func (p *bindGroupProvider) Entries(shared ...wgpu.BindGroupEntry) []wgpu.BindGroupEntry {
	byBinding := make(map[uint32]wgpu.BindGroupEntry, len(shared)+len(p.buffers)+len(p.textureViews))
	for _, e := range shared {
		byBinding[e.Binding] = e
	}
	for b, buf := range p.buffers {
		byBinding[uint32(b)] = wgpu.BindGroupEntry{Binding: uint32(b), Buffer: buf, Size: wgpu.WholeSize}
	}
	for b, view := range p.textureViews {
		byBinding[uint32(b)] = wgpu.BindGroupEntry{Binding: uint32(b), TextureView: view}
	}
	entries := make([]wgpu.BindGroupEntry, 0, len(byBinding))
	for _, e := range byBinding {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Binding < entries[j].Binding })
	return entries
}

func (p *bindGroupProvider) Release() {
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	for i, tv := range p.textureViews {
		if tv != nil {
			tv.Release()
		}
		delete(p.textureViews, i)
	}
	for i, t := range p.textures {
		if t != nil {
			t.Release()
		}
		delete(p.textures, i)
	}
	for i, buf := range p.buffers {
		if buf != nil {
			buf.Release()
		}
		delete(p.buffers, i)
	}
	if p.vertexBuffer != nil {
		p.vertexBuffer.Release()
		p.vertexBuffer = nil
	}
	p.vertexCount = 0
}
