package simulator

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/camsim-go/engine/light"
	"github.com/Carmen-Shannon/camsim-go/engine/renderer"
	"github.com/Carmen-Shannon/camsim-go/engine/renderer/shader"
	"github.com/Carmen-Shannon/camsim-go/engine/scene"
	"github.com/Carmen-Shannon/camsim-go/engine/texdata"
)

type fakeProgram struct {
	v shader.Variant
}

func (p fakeProgram) Key() string             { return p.v.Key() }
func (p fakeProgram) Variant() shader.Variant { return p.v }

// fakeRenderer records the calls of the simulator without drawing anything.
type fakeRenderer struct {
	next     renderer.Handle
	targets  map[renderer.Handle]renderer.TargetDescriptor
	compiled []string
	uploads  int
	pfSlots  []int
	scenes   []renderer.ScenePass
	screens  []renderer.FullscreenPass
	copies   int
	reads    int
	failDraw bool
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{targets: make(map[renderer.Handle]renderer.TargetDescriptor)}
}

var _ renderer.Renderer = &fakeRenderer{}

func (f *fakeRenderer) Type() renderer.RendererBackendType { return renderer.BackendTypeSoftware }

func (f *fakeRenderer) CreateTarget(desc renderer.TargetDescriptor) (renderer.Handle, error) {
	if err := desc.Validate(); err != nil {
		return renderer.NoTarget, err
	}
	h := f.next
	f.next++
	f.targets[h] = desc
	return h, nil
}

func (f *fakeRenderer) ReleaseTarget(h renderer.Handle) { delete(f.targets, h) }

func (f *fakeRenderer) Target(h renderer.Handle) (renderer.TargetDescriptor, bool) {
	d, ok := f.targets[h]
	return d, ok
}

func (f *fakeRenderer) Program(v shader.Variant) (renderer.Program, error) {
	f.compiled = append(f.compiled, v.Key())
	return fakeProgram{v: v}, nil
}

func (f *fakeRenderer) Programs() []string { return f.compiled }
func (f *fakeRenderer) ClearPrograms()     { f.compiled = nil }

func (f *fakeRenderer) UploadScene(scene.Scene) error {
	f.uploads++
	return nil
}

func (f *fakeRenderer) UploadPowerFactorMap(slot int, _ light.PowerFactorMap) error {
	f.pfSlots = append(f.pfSlots, slot)
	return nil
}

func (f *fakeRenderer) DrawScene(pass renderer.ScenePass) error {
	if f.failDraw {
		return errors.New("device lost")
	}
	if want := len(pass.Program.Variant().Outputs()); len(pass.Color) != want {
		return fmt.Errorf("pass %q binds %d outputs, want %d", pass.Label, len(pass.Color), want)
	}
	f.scenes = append(f.scenes, pass)
	return nil
}

func (f *fakeRenderer) DrawFullscreen(pass renderer.FullscreenPass) error {
	v := pass.Program.Variant()
	if len(pass.Inputs) != v.InputCount() || len(pass.Outputs) != len(v.Outputs()) {
		return fmt.Errorf("pass %q binds %d inputs and %d outputs", pass.Label, len(pass.Inputs), len(pass.Outputs))
	}
	f.screens = append(f.screens, pass)
	return nil
}

func (f *fakeRenderer) CopyTarget(src, dst renderer.Handle) error {
	f.copies++
	return nil
}

func (f *fakeRenderer) ReadTarget(h renderer.Handle, layer int, names ...string) (texdata.TexData, error) {
	d, ok := f.targets[h]
	if !ok {
		return texdata.TexData{}, fmt.Errorf("target %d is not live", h)
	}
	f.reads++
	n := max(len(names), 1)
	return texdata.FromFloat32(d.Width, d.Height, n, make([]float32, d.Width*d.Height*n), names...)
}

func (f *fakeRenderer) Present(renderer.Handle) error { return nil }
func (f *fakeRenderer) Release()                      {}

// scenePasses returns the recorded scene passes drawn with programs of the given pass kind.
func (f *fakeRenderer) scenePasses(kind shader.PassKind) []renderer.ScenePass {
	var out []renderer.ScenePass
	for _, p := range f.scenes {
		if p.Program.Variant().Pass == kind {
			out = append(out, p)
		}
	}
	return out
}

func (f *fakeRenderer) fullscreenPasses(kind shader.PassKind) []renderer.FullscreenPass {
	var out []renderer.FullscreenPass
	for _, p := range f.screens {
		if p.Program.Variant().Pass == kind {
			out = append(out, p)
		}
	}
	return out
}

func (f *fakeRenderer) reset() {
	f.scenes, f.screens, f.copies = nil, nil, 0
}
