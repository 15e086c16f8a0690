// Package texdata provides typed views of simulator output buffers.
package texdata

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/camsim-go/common"
)

// Type is the element type of a TexData buffer.
type Type int

const (
	TypeInvalid Type = iota
	TypeUint8
	TypeUint32
	TypeFloat32
)

// Size returns the size of one element in bytes.
func (t Type) Size() int {
	switch t {
	case TypeUint8:
		return 1
	case TypeUint32, TypeFloat32:
		return 4
	}
	return 0
}

func (t Type) String() string {
	switch t {
	case TypeUint8:
		return "uint8"
	case TypeUint32:
		return "uint32"
	case TypeFloat32:
		return "float32"
	}
	return "invalid"
}

// TexData is a packed, row-major image with up to four channels stored top row first.
// The zero value is an invalid TexData; accessors return it when the requested output
// does not exist. Multi-byte elements are little-endian.
type TexData struct {
	width, height int
	channels      int
	typ           Type
	names         [4]string
	packed        []byte
}

// NewTexData wraps packed pixel data.
//
// Parameters:
//   - width, height: image size in pixels
//   - channels: number of channels per pixel (1 to 4)
//   - typ: the element type
//   - packed: width*height*channels*typ.Size() bytes, top row first
//   - names: optional channel names
//
// Returns:
//   - TexData: the view
//   - error: error if the size or channel count does not match the data
func NewTexData(width, height, channels int, typ Type, packed []byte, names ...string) (TexData, error) {
	if channels < 1 || channels > 4 {
		return TexData{}, fmt.Errorf("texdata: invalid channel count %d", channels)
	}
	if typ.Size() == 0 {
		return TexData{}, fmt.Errorf("texdata: invalid type %v", typ)
	}
	if want := width * height * channels * typ.Size(); len(packed) != want {
		return TexData{}, fmt.Errorf("texdata: got %d bytes, want %d", len(packed), want)
	}
	td := TexData{width: width, height: height, channels: channels, typ: typ, packed: packed}
	for i := 0; i < min(channels, len(names)); i++ {
		td.names[i] = names[i]
	}
	return td, nil
}

// FromFloat32 packs float values into a TexData.
func FromFloat32(width, height, channels int, values []float32, names ...string) (TexData, error) {
	return NewTexData(width, height, channels, TypeFloat32, common.SliceToBytes(values), names...)
}

// FromUint32 packs uint32 values into a TexData.
func FromUint32(width, height, channels int, values []uint32, names ...string) (TexData, error) {
	return NewTexData(width, height, channels, TypeUint32, common.SliceToBytes(values), names...)
}

// IsValid reports whether the TexData holds any data.
func (t TexData) IsValid() bool {
	return t.typ != TypeInvalid && t.width > 0 && t.height > 0
}

func (t TexData) Width() int {
	return t.width
}

func (t TexData) Height() int {
	return t.height
}

func (t TexData) Channels() int {
	return t.channels
}

func (t TexData) Type() Type {
	return t.typ
}

func (t TexData) TypeSize() int {
	return t.typ.Size()
}

func (t TexData) PackedData() []byte {
	return t.packed
}

// ChannelName returns the name of a channel, or the empty string.
func (t TexData) ChannelName(c int) string {
	if c < 0 || c >= 4 {
		return ""
	}
	return t.names[c]
}

// ChannelNames returns the names of all channels.
func (t TexData) ChannelNames() []string {
	return append([]string(nil), t.names[:t.channels]...)
}

// WithNames returns a copy that shares the pixel data but carries new channel names.
func (t TexData) WithNames(names ...string) TexData {
	t.names = [4]string{}
	for i := 0; i < min(t.channels, len(names)); i++ {
		t.names[i] = names[i]
	}
	return t
}

// Clone returns a copy with its own pixel data.
func (t TexData) Clone() TexData {
	t.packed = append([]byte(nil), t.packed...)
	return t
}

// PackedElementSize returns the size of one pixel in bytes.
func (t TexData) PackedElementSize() int {
	return t.typ.Size() * t.channels
}

// PackedLineSize returns the size of one row in bytes.
func (t TexData) PackedLineSize() int {
	return t.PackedElementSize() * t.width
}

// Element returns the bytes of channel c of pixel (x, y), with y = 0 the top row.
func (t TexData) Element(x, y, c int) []byte {
	off := y*t.PackedLineSize() + x*t.PackedElementSize() + c*t.typ.Size()
	return t.packed[off : off+t.typ.Size()]
}

// Float32 returns channel c of pixel (x, y) as a float. Integer types are converted.
func (t TexData) Float32(x, y, c int) float32 {
	e := t.Element(x, y, c)
	switch t.typ {
	case TypeFloat32:
		return math.Float32frombits(binary.LittleEndian.Uint32(e))
	case TypeUint32:
		return float32(binary.LittleEndian.Uint32(e))
	case TypeUint8:
		return float32(e[0]) / 255
	}
	return 0
}

// Uint32 returns channel c of pixel (x, y) of a uint32 buffer.
func (t TexData) Uint32(x, y, c int) uint32 {
	if t.typ == TypeUint8 {
		return uint32(t.Element(x, y, c)[0])
	}
	return binary.LittleEndian.Uint32(t.Element(x, y, c))
}

// Uint8 returns channel c of pixel (x, y) of a uint8 buffer.
func (t TexData) Uint8(x, y, c int) uint8 {
	return t.Element(x, y, c)[0]
}

// PlanarData returns the values of one channel, row by row.
//
// Parameters:
//   - c: the channel index
//
// Returns:
//   - []byte: width*height*TypeSize() bytes
func (t TexData) PlanarData(c int) []byte {
	ts := t.typ.Size()
	out := make([]byte, t.width*t.height*ts)
	for y := 0; y < t.height; y++ {
		for x := 0; x < t.width; x++ {
			copy(out[(y*t.width+x)*ts:], t.Element(x, y, c))
		}
	}
	return out
}

// TransposedPlanarData returns the values of one channel, column by column.
//
// Parameters:
//   - c: the channel index
//
// Returns:
//   - []byte: width*height*TypeSize() bytes
func (t TexData) TransposedPlanarData(c int) []byte {
	ts := t.typ.Size()
	out := make([]byte, t.width*t.height*ts)
	for y := 0; y < t.height; y++ {
		for x := 0; x < t.width; x++ {
			copy(out[(x*t.height+y)*ts:], t.Element(x, y, c))
		}
	}
	return out
}
