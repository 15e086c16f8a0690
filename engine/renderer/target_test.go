package renderer

import "testing"

func TestTargetDescriptorValidate(t *testing.T) {
	tests := []struct {
		name    string
		desc    TargetDescriptor
		wantErr bool
	}{
		{"2d", TargetDescriptor{Kind: TargetKind2D, Format: FormatRGBA8, Width: 4, Height: 3}, false},
		{"zero width", TargetDescriptor{Kind: TargetKind2D, Width: 0, Height: 3}, true},
		{"negative height", TargetDescriptor{Kind: TargetKind2D, Width: 4, Height: -1}, true},
		{"square cube", TargetDescriptor{Kind: TargetKindCube, Format: FormatDepth32F, Width: 8, Height: 8}, false},
		{"rectangular cube", TargetDescriptor{Kind: TargetKindCube, Width: 8, Height: 4}, true},
		{"array", TargetDescriptor{Kind: TargetKind2DArray, Width: 8, Height: 8, Layers: 30}, false},
		{"empty array", TargetDescriptor{Kind: TargetKind2DArray, Width: 8, Height: 8}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.desc.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTargetDescriptorLayerCount(t *testing.T) {
	tests := []struct {
		desc TargetDescriptor
		want int
	}{
		{TargetDescriptor{Kind: TargetKind2D, Layers: 5}, 1},
		{TargetDescriptor{Kind: TargetKindCube}, 6},
		{TargetDescriptor{Kind: TargetKind2DArray, Layers: 30}, 30},
	}
	for _, tt := range tests {
		if got := tt.desc.LayerCount(); got != tt.want {
			t.Errorf("LayerCount(%v) = %d, want %d", tt.desc.Kind, got, tt.want)
		}
	}
}

func TestTargetFormat(t *testing.T) {
	tests := []struct {
		f        TargetFormat
		name     string
		channels int
		depth    bool
		uint     bool
	}{
		{FormatRGBA8, "rgba8", 4, false, false},
		{FormatRGBA32F, "rgba32f", 4, false, false},
		{FormatRG32F, "rg32f", 2, false, false},
		{FormatR32F, "r32f", 1, false, false},
		{FormatRGBA32UI, "rgba32ui", 4, false, true},
		{FormatDepth32F, "depth32f", 1, true, false},
	}
	for _, tt := range tests {
		if got := tt.f.String(); got != tt.name {
			t.Errorf("String() = %q, want %q", got, tt.name)
		}
		if got := tt.f.Channels(); got != tt.channels {
			t.Errorf("%v.Channels() = %d, want %d", tt.f, got, tt.channels)
		}
		if got := tt.f.IsDepth(); got != tt.depth {
			t.Errorf("%v.IsDepth() = %v, want %v", tt.f, got, tt.depth)
		}
		if got := tt.f.IsUint(); got != tt.uint {
			t.Errorf("%v.IsUint() = %v, want %v", tt.f, got, tt.uint)
		}
	}
}

func TestArena(t *testing.T) {
	var a arena[string]
	h0 := a.insert("a")
	h1 := a.insert("b")
	if h0 == h1 {
		t.Fatalf("insert returned the same handle %d twice", h0)
	}
	if v, ok := a.get(h1); !ok || v != "b" {
		t.Errorf("get(%d) = %q, %v, want b, true", h1, v, ok)
	}
	if v, ok := a.remove(h0); !ok || v != "a" {
		t.Errorf("remove(%d) = %q, %v, want a, true", h0, v, ok)
	}
	if _, ok := a.get(h0); ok {
		t.Errorf("get(%d) after remove ok = true, want false", h0)
	}
	if _, ok := a.remove(h0); ok {
		t.Errorf("second remove(%d) ok = true, want false", h0)
	}
	if got := a.len(); got != 1 {
		t.Errorf("len() = %d, want 1", got)
	}
	if h := a.insert("c"); h != h0 {
		t.Errorf("insert after remove = %d, want recycled handle %d", h, h0)
	}
	if _, ok := a.get(NoTarget); ok {
		t.Errorf("get(NoTarget) ok = true, want false")
	}

	seen := map[Handle]string{}
	a.each(func(h Handle, v string) { seen[h] = v })
	if len(seen) != 2 || seen[h0] != "c" || seen[h1] != "b" {
		t.Errorf("each visited %v, want {%d:c %d:b}", seen, h0, h1)
	}
}
