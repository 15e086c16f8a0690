package bind_group_provider

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

func TestEntriesMergeSharedAndOwned(t *testing.T) {
	white := &wgpu.TextureView{}
	diffuse := &wgpu.TextureView{}
	sampler := &wgpu.Sampler{}

	p := NewBindGroupProvider("material", WithTexture(0, &wgpu.Texture{}, diffuse))
	entries := p.Entries(
		wgpu.BindGroupEntry{Binding: 4, Sampler: sampler},
		wgpu.BindGroupEntry{Binding: 0, TextureView: white},
		wgpu.BindGroupEntry{Binding: 1, TextureView: white},
	)

	if len(entries) != 3 {
		t.Fatalf("len(Entries) = %d, want 3", len(entries))
	}
	for i, want := range []uint32{0, 1, 4} {
		if entries[i].Binding != want {
			t.Errorf("entries[%d].Binding = %d, want %d", i, entries[i].Binding, want)
		}
	}
	if entries[0].TextureView != diffuse {
		t.Error("entries[0] binds the shared view, want the owned texture view")
	}
	if entries[1].TextureView != white {
		t.Error("entries[1] does not bind the shared view")
	}
	if entries[2].Sampler != sampler {
		t.Error("entries[2] does not bind the shared sampler")
	}
}

func TestEntriesBuffers(t *testing.T) {
	buf := &wgpu.Buffer{}
	p := NewBindGroupProvider("uniforms")
	p.SetBuffer(2, buf)

	entries := p.Entries()
	if len(entries) != 1 {
		t.Fatalf("len(Entries) = %d, want 1", len(entries))
	}
	if entries[0].Binding != 2 || entries[0].Buffer != buf || entries[0].Size != wgpu.WholeSize {
		t.Errorf("Entries()[0] = %+v, want whole buffer at binding 2", entries[0])
	}
	if p.Buffer(2) != buf {
		t.Error("Buffer(2) does not return the stored buffer")
	}
}

func TestVertexBuffer(t *testing.T) {
	vb := &wgpu.Buffer{}
	p := NewBindGroupProvider("shape", WithVertexBuffer(vb, 36))
	if p.VertexBuffer() != vb {
		t.Error("VertexBuffer() does not return the stored buffer")
	}
	if p.VertexCount() != 36 {
		t.Errorf("VertexCount() = %d, want 36", p.VertexCount())
	}
	if p.Label() != "shape" {
		t.Errorf("Label() = %q, want %q", p.Label(), "shape")
	}
	if len(p.Entries()) != 0 {
		t.Error("vertex buffers appear in the bind group entries")
	}
}
