// package common contains small helpers and plain data types shared by the camsim packages.
package common

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"sync"
)

// ImportedTexture represents texture data referenced by a material.
// For embedded textures (GLB), the Data field contains raw image bytes.
// For external textures, the Path field contains the file path.
type ImportedTexture struct {
	// Name is an identifier for this texture (e.g., "diffuse", "normal").
	Name string

	// Path is the file path for external textures (empty for embedded).
	Path string

	// Data contains raw image bytes for embedded textures (PNG/JPEG).
	Data []byte

	// MimeType indicates the image format (e.g., "image/png", "image/jpeg").
	MimeType string

	// Width is the texture width in pixels (populated after Decode).
	Width int

	// Height is the texture height in pixels (populated after Decode).
	Height int

	once sync.Once
	pix  []byte
	err  error
}

// Decode decodes the texture to raw RGBA pixel data. The result is cached, so repeated calls are cheap.
// Uses either embedded Data bytes or loads from Path on disk.
// Supports PNG and JPEG formats.
//
// Returns:
//   - []byte: raw RGBA pixel data (4 bytes per pixel, row-major order, top row first)
//   - uint32: texture width in pixels
//   - uint32: texture height in pixels
//   - error: error if decoding fails
func (t *ImportedTexture) Decode() ([]byte, uint32, uint32, error) {
	if t == nil {
		return nil, 0, 0, fmt.Errorf("texture is nil")
	}
	t.once.Do(func() {
		t.pix, t.err = t.decode()
	})
	return t.pix, uint32(t.Width), uint32(t.Height), t.err
}

func (t *ImportedTexture) decode() ([]byte, error) {
	var img image.Image
	var err error

	if len(t.Data) > 0 {
		img, _, err = image.Decode(bytes.NewReader(t.Data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode embedded image: %w", err)
		}
	} else if t.Path != "" {
		file, fileErr := os.Open(t.Path)
		if fileErr != nil {
			return nil, fmt.Errorf("failed to open texture file %s: %w", t.Path, fileErr)
		}
		defer file.Close()

		img, _, err = image.Decode(file)
		if err != nil {
			return nil, fmt.Errorf("failed to decode texture file %s: %w", t.Path, err)
		}
	} else {
		return nil, fmt.Errorf("texture has neither data nor path")
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	t.Width = bounds.Dx()
	t.Height = bounds.Dy()
	return rgba.Pix, nil
}

// Sample returns the bilinearly filtered RGBA value at texture coordinate (u, v) with repeat wrapping.
// The v axis points up, so v = 0 addresses the bottom row. Components are in [0, 1].
// A texture that fails to decode samples as opaque white.
//
// Parameters:
//   - u: horizontal texture coordinate
//   - v: vertical texture coordinate
//
// Returns:
//   - [4]float32: the filtered RGBA value
func (t *ImportedTexture) Sample(u, v float32) [4]float32 {
	pix, w, h, err := t.Decode()
	if err != nil || w == 0 || h == 0 {
		return [4]float32{1, 1, 1, 1}
	}
	x := wrap(u)*float32(w) - 0.5
	y := (1-wrap(v))*float32(h) - 0.5
	x0 := int(math.Floor(float64(x)))
	y0 := int(math.Floor(float64(y)))
	fx := x - float32(x0)
	fy := y - float32(y0)

	texel := func(ix, iy int) [4]float32 {
		ix = ((ix % int(w)) + int(w)) % int(w)
		iy = ((iy % int(h)) + int(h)) % int(h)
		o := (iy*int(w) + ix) * 4
		return [4]float32{float32(pix[o]) / 255, float32(pix[o+1]) / 255, float32(pix[o+2]) / 255, float32(pix[o+3]) / 255}
	}
	a, b, c, d := texel(x0, y0), texel(x0+1, y0), texel(x0, y0+1), texel(x0+1, y0+1)
	var out [4]float32
	for i := range out {
		top := a[i]*(1-fx) + b[i]*fx
		bottom := c[i]*(1-fx) + d[i]*fx
		out[i] = top*(1-fy) + bottom*fy
	}
	return out
}

func wrap(x float32) float32 {
	return x - float32(math.Floor(float64(x)))
}
