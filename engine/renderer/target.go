package renderer

import (
	"fmt"
	"sync"
)

// TargetKind describes the layer structure of a render target.
type TargetKind int

const (
	// TargetKind2D is a single image.
	TargetKind2D TargetKind = iota

	// TargetKindCube is a cube map stored as six layers in the order +X, -X, +Y, -Y, +Z, -Z.
	TargetKindCube

	// TargetKind2DArray is an array of images with an explicit layer count.
	TargetKind2DArray
)

// TargetFormat is the texel format of a render target.
type TargetFormat int

const (
	FormatRGBA8 TargetFormat = iota
	FormatRGBA32F
	FormatRG32F
	FormatR32F
	FormatRGBA32UI
	FormatDepth32F
)

var targetFormatNames = [...]string{"rgba8", "rgba32f", "rg32f", "r32f", "rgba32ui", "depth32f"}

func (f TargetFormat) String() string {
	if f < 0 || int(f) >= len(targetFormatNames) {
		return fmt.Sprintf("format(%d)", int(f))
	}
	return targetFormatNames[f]
}

// Channels returns the number of components stored per texel.
func (f TargetFormat) Channels() int {
	switch f {
	case FormatRG32F:
		return 2
	case FormatR32F, FormatDepth32F:
		return 1
	}
	return 4
}

// IsDepth reports whether the format holds depth values.
func (f TargetFormat) IsDepth() bool {
	return f == FormatDepth32F
}

// IsUint reports whether the format holds unsigned integer components.
func (f TargetFormat) IsUint() bool {
	return f == FormatRGBA32UI
}

// TargetDescriptor describes a render target to allocate.
type TargetDescriptor struct {
	Label  string
	Kind   TargetKind
	Format TargetFormat
	Width  int
	Height int

	// Layers is the layer count of 2D array targets. It is ignored for 2D (1) and cube (6) targets.
	Layers int
}

// LayerCount returns the number of layers the target holds.
func (d TargetDescriptor) LayerCount() int {
	switch d.Kind {
	case TargetKindCube:
		return 6
	case TargetKind2DArray:
		return max(d.Layers, 1)
	}
	return 1
}

// Validate reports whether the descriptor can be allocated.
func (d TargetDescriptor) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("renderer: target %q: invalid size %dx%d", d.Label, d.Width, d.Height)
	}
	if d.Kind == TargetKindCube && d.Width != d.Height {
		return fmt.Errorf("renderer: target %q: cube faces must be square, got %dx%d", d.Label, d.Width, d.Height)
	}
	if d.Kind == TargetKind2DArray && d.Layers <= 0 {
		return fmt.Errorf("renderer: target %q: array target needs at least one layer", d.Label)
	}
	return nil
}

// Handle identifies a render target owned by a renderer. Handles stay valid until released
// and are never reused while alive.
type Handle int

// NoTarget is the handle of an absent target.
const NoTarget Handle = -1

// IsValid reports whether h may refer to a target.
func (h Handle) IsValid() bool {
	return h >= 0
}

// arena stores values addressed by stable integer handles. Released slots are recycled
// through a free list.
type arena[T any] struct {
	mu    sync.Mutex
	items []T
	live  []bool
	free  []Handle
}

func (a *arena[T]) insert(v T) Handle {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n := len(a.free); n > 0 {
		h := a.free[n-1]
		a.free = a.free[:n-1]
		a.items[h] = v
		a.live[h] = true
		return h
	}
	a.items = append(a.items, v)
	a.live = append(a.live, true)
	return Handle(len(a.items) - 1)
}

func (a *arena[T]) get(h Handle) (T, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var zero T
	if h < 0 || int(h) >= len(a.items) || !a.live[h] {
		return zero, false
	}
	return a.items[h], true
}

func (a *arena[T]) remove(h Handle) (T, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var zero T
	if h < 0 || int(h) >= len(a.items) || !a.live[h] {
		return zero, false
	}
	v := a.items[h]
	a.items[h] = zero
	a.live[h] = false
	a.free = append(a.free, h)
	return v, true
}

// each calls fn for every live value.
func (a *arena[T]) each(fn func(Handle, T)) {
	a.mu.Lock()
	items := append([]T(nil), a.items...)
	live := append([]bool(nil), a.live...)
	a.mu.Unlock()
	for i, v := range items {
		if live[i] {
			fn(Handle(i), v)
		}
	}
}

func (a *arena[T]) len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.items) - len(a.free)
}
