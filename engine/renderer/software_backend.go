package renderer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/camsim-go/common"
	"github.com/Carmen-Shannon/camsim-go/engine/light"
	"github.com/Carmen-Shannon/camsim-go/engine/renderer/material"
	"github.com/Carmen-Shannon/camsim-go/engine/renderer/shader"
	"github.com/Carmen-Shannon/camsim-go/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrNoSurface is returned by Present on backends without a presentation surface.
var ErrNoSurface = errors.New("renderer: backend has no surface")

// softwareTarget stores the layers of a target in host memory, top row first. Float and depth
// formats keep float32 components; RGBA8 values are quantized on store.
type softwareTarget struct {
	desc     TargetDescriptor
	channels int
	floats   [][]float32
	uints    [][]uint32
}

func newSoftwareTarget(desc TargetDescriptor) *softwareTarget {
	t := &softwareTarget{desc: desc, channels: desc.Format.Channels()}
	n := desc.Width * desc.Height * t.channels
	for l := 0; l < desc.LayerCount(); l++ {
		if desc.Format.IsUint() {
			t.uints = append(t.uints, make([]uint32, n))
		} else {
			t.floats = append(t.floats, make([]float32, n))
		}
		t.clear(l)
	}
	return t
}

func (t *softwareTarget) clear(layer int) {
	switch {
	case t.desc.Format.IsUint():
		buf := t.uints[layer]
		for i := range buf {
			buf[i] = math.MaxUint32
		}
	case t.desc.Format.IsDepth():
		buf := t.floats[layer]
		for i := range buf {
			buf[i] = 1
		}
	default:
		clear(t.floats[layer])
	}
}

func (t *softwareTarget) offset(x, y int) int {
	return (y*t.desc.Width + x) * t.channels
}

// load returns a texel as textureLoad would: missing components read as zero, a missing alpha
// as one.
func (t *softwareTarget) load(layer, x, y int) [4]float32 {
	v := [4]float32{0, 0, 0, 1}
	if t.desc.Format.IsUint() {
		o := t.offset(x, y)
		for c := 0; c < 4; c++ {
			v[c] = float32(t.uints[layer][o+c])
		}
		return v
	}
	o := t.offset(x, y)
	copy(v[:t.channels], t.floats[layer][o:o+t.channels])
	return v
}

func (t *softwareTarget) store(layer, x, y int, v [4]float32) {
	o := t.offset(x, y)
	buf := t.floats[layer][o : o+t.channels]
	if t.desc.Format == FormatRGBA8 {
		for c := range buf {
			buf[c] = float32(math.Round(float64(common.Clamp(v[c], 0, 1)*255))) / 255
		}
		return
	}
	copy(buf, v[:t.channels])
}

func (t *softwareTarget) add(layer, x, y int, v [4]float32) {
	cur := t.load(layer, x, y)
	for c := range cur {
		cur[c] += v[c]
	}
	t.store(layer, x, y, cur)
}

func (t *softwareTarget) storeUint(layer, x, y int, v [4]uint32) {
	o := t.offset(x, y)
	copy(t.uints[layer][o:o+4], v[:])
}

func (t *softwareTarget) depth(layer, x, y int) float32 {
	return t.floats[layer][y*t.desc.Width+x]
}

func (t *softwareTarget) setDepth(layer, x, y int, d float32) {
	t.floats[layer][y*t.desc.Width+x] = d
}

// softwareProgram is the implementation of the Program interface for the software backend.
// The variant alone selects the shading code path.
type softwareProgram struct {
	key     string
	variant shader.Variant
}

func (p *softwareProgram) Key() string {
	return p.key
}

func (p *softwareProgram) Variant() shader.Variant {
	return p.variant
}

// softwareVertex is one corner of a triangle of an uploaded shape.
type softwareVertex struct {
	position mgl32.Vec3
	normal   mgl32.Vec3
	uv       mgl32.Vec2
	tangent  mgl32.Vec4
}

// softwareDraw is one shape of one object, expanded into a triangle list. material indexes
// the uploaded materials; materialIndex is the shape's own index reported by the indices output.
type softwareDraw struct {
	object        int
	shape         int
	material      int
	materialIndex int
	vertices      []softwareVertex
	lo, hi        mgl32.Vec3
}

type softwareMaterial struct {
	gpu      material.GPUMaterial
	diffuse  *common.ImportedTexture
	specular *common.ImportedTexture
	normal   *common.ImportedTexture
	opacity  *common.ImportedTexture
}

// softwareRendererBackend is the CPU implementation of RendererBackend. Passes are split into
// row bands that run on a worker pool.
type softwareRendererBackend struct {
	targets      arena[*softwareTarget]
	draws        []softwareDraw
	materials    []softwareMaterial
	powerFactors [shader.MaxPowerFactorSlots]light.PowerFactorMap

	workers int
	pool    worker.DynamicWorkerPool
}

var _ RendererBackend = &softwareRendererBackend{}

// newSoftwareRendererBackend creates a software backend rasterizing with the given number of workers.
func newSoftwareRendererBackend(workers int) *softwareRendererBackend {
	workers = max(workers, 1)
	return &softwareRendererBackend{
		workers: workers,
		pool:    worker.NewDynamicWorkerPool(workers, 256, 1*time.Second),
	}
}

func (b *softwareRendererBackend) Type() RendererBackendType {
	return BackendTypeSoftware
}

func (b *softwareRendererBackend) CreateTarget(desc TargetDescriptor) (Handle, error) {
	return b.targets.insert(newSoftwareTarget(desc)), nil
}

func (b *softwareRendererBackend) ReleaseTarget(h Handle) {
	b.targets.remove(h)
}

func (b *softwareRendererBackend) TargetDescriptor(h Handle) (TargetDescriptor, bool) {
	t, ok := b.targets.get(h)
	if !ok {
		return TargetDescriptor{}, false
	}
	return t.desc, true
}

func (b *softwareRendererBackend) CompileProgram(v shader.Variant) (Program, error) {
	if v.Pass < 0 || v.Pass > shader.PassPostprocDistortion {
		return nil, fmt.Errorf("renderer: unknown pass %v", v.Pass)
	}
	if v.Pass == shader.PassOversampleReduce && (v.WeightsWidth < 1 || v.WeightsHeight < 1) {
		return nil, fmt.Errorf("renderer: %s: empty weights raster", v.Key())
	}
	return &softwareProgram{key: v.Key(), variant: v}, nil
}

func (b *softwareRendererBackend) UploadScene(s scene.Scene) error {
	b.draws = b.draws[:0]
	for oi, o := range s.Objects() {
		for si, sh := range o.Shapes() {
			if sh.Mesh == nil {
				continue
			}
			m := sh.Mesh
			d := softwareDraw{object: oi, shape: si, material: sh.MaterialIndex, materialIndex: sh.MaterialIndex}
			d.vertices = make([]softwareVertex, 0, len(m.Indices))
			for _, idx := range m.Indices {
				if int(idx) >= len(m.Positions) {
					return fmt.Errorf("renderer: object %d shape %d: index %d out of range", oi, si, idx)
				}
				v := softwareVertex{position: m.Positions[idx]}
				if int(idx) < len(m.Normals) {
					v.normal = m.Normals[idx]
				}
				if int(idx) < len(m.TexCoords) {
					v.uv = m.TexCoords[idx]
				}
				if int(idx) < len(m.Tangents) {
					v.tangent = m.Tangents[idx]
				}
				d.vertices = append(d.vertices, v)
			}
			d.lo, d.hi = m.Bounds()
			b.draws = append(b.draws, d)
		}
	}

	// The last entry is a default material for shapes whose index is out of range.
	mats := append(s.Materials(), material.NewMaterial())
	b.materials = make([]softwareMaterial, len(mats))
	for i, m := range mats {
		b.materials[i] = softwareMaterial{
			gpu:      material.ToGPUMaterial(m),
			diffuse:  m.Texture(material.TextureDiffuse),
			specular: m.Texture(material.TextureSpecular),
			normal:   m.Texture(material.TextureNormal),
			opacity:  m.Texture(material.TextureOpacity),
		}
	}
	for i := range b.draws {
		if b.draws[i].material < 0 || b.draws[i].material >= len(mats)-1 {
			b.draws[i].material = len(mats) - 1
		}
	}
	common.Logger().Debug("software scene uploaded", "draws", len(b.draws), "materials", len(b.materials))
	return nil
}

func (b *softwareRendererBackend) UploadPowerFactorMap(slot int, m light.PowerFactorMap) error {
	if slot < 0 || slot >= len(b.powerFactors) {
		return fmt.Errorf("renderer: power factor slot %d out of range", slot)
	}
	m.Factors = append([]float32(nil), m.Factors...)
	b.powerFactors[slot] = m
	return nil
}

func (b *softwareRendererBackend) CopyTarget(src, dst Handle) error {
	s, ok := b.targets.get(src)
	if !ok {
		return fmt.Errorf("renderer: copy source %d is not live", src)
	}
	d, ok := b.targets.get(dst)
	if !ok {
		return fmt.Errorf("renderer: copy destination %d is not live", dst)
	}
	for l := range s.floats {
		copy(d.floats[l], s.floats[l])
	}
	for l := range s.uints {
		copy(d.uints[l], s.uints[l])
	}
	return nil
}

func (b *softwareRendererBackend) ReadTarget(h Handle, layer, channels int) ([]byte, error) {
	t, ok := b.targets.get(h)
	if !ok {
		return nil, fmt.Errorf("renderer: target %d is not live", h)
	}
	w, ht := t.desc.Width, t.desc.Height
	switch {
	case t.desc.Format == FormatRGBA8:
		out := make([]byte, w*ht*channels)
		src := t.floats[layer]
		for p := 0; p < w*ht; p++ {
			for c := 0; c < channels; c++ {
				out[p*channels+c] = uint8(math.Round(float64(common.Clamp(src[p*t.channels+c], 0, 1) * 255)))
			}
		}
		return out, nil
	case t.desc.Format.IsUint():
		out := make([]byte, w*ht*channels*4)
		src := t.uints[layer]
		for p := 0; p < w*ht; p++ {
			for c := 0; c < channels; c++ {
				binary.LittleEndian.PutUint32(out[(p*channels+c)*4:], src[p*t.channels+c])
			}
		}
		return out, nil
	default:
		out := make([]byte, w*ht*channels*4)
		src := t.floats[layer]
		for p := 0; p < w*ht; p++ {
			for c := 0; c < channels; c++ {
				binary.LittleEndian.PutUint32(out[(p*channels+c)*4:], math.Float32bits(src[p*t.channels+c]))
			}
		}
		return out, nil
	}
}

func (b *softwareRendererBackend) Present(Handle) error {
	return ErrNoSurface
}

func (b *softwareRendererBackend) Release() {
	b.targets.each(func(h Handle, _ *softwareTarget) {
		b.targets.remove(h)
	})
	b.draws = nil
	b.materials = nil
	b.pool.Stop()
}

// parallelRows runs fn over disjoint row bands of [0, height) on the worker pool and returns
// once every band is done.
//
// A WaitGroup provides the barrier since pool.Wait() waits for the whole pool to go idle.
func (b *softwareRendererBackend) parallelRows(height int, fn func(y0, y1 int)) {
	if height <= 0 {
		return
	}
	bands := min(b.workers*4, height)
	if bands <= 1 {
		fn(0, height)
		return
	}
	var wg sync.WaitGroup
	for i := 0; i < bands; i++ {
		y0 := i * height / bands
		y1 := (i + 1) * height / bands
		wg.Add(1)
		b.pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				fn(y0, y1)
				return nil, nil
			},
		})
	}
	wg.Wait()
}

// target resolves a handle or returns a descriptive error.
func (b *softwareRendererBackend) target(h Handle, what string) (*softwareTarget, error) {
	t, ok := b.targets.get(h)
	if !ok {
		return nil, fmt.Errorf("renderer: %s target %d is not live", what, h)
	}
	return t, nil
}
