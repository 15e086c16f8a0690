package simulator

import (
	"fmt"

	"github.com/Carmen-Shannon/camsim-go/common"
	"github.com/Carmen-Shannon/camsim-go/engine/config"
	"github.com/Carmen-Shannon/camsim-go/engine/light"
	"github.com/Carmen-Shannon/camsim-go/engine/renderer"
)

// targetSet holds the render targets of one output configuration. Per sub-frame slices have one
// entry per sub-frame plus, when a frame has several sub-frames, one for the combined result.
// Entries of disabled outputs are renderer.NoTarget.
type targetSet struct {
	owned []renderer.Handle

	// depth has one buffer per sub-frame plus one. With a single sub-frame the first two
	// buffers alternate between frames.
	depth []renderer.Handle

	rgb            []renderer.Handle
	srgb           []renderer.Handle
	pmdDigNum      []renderer.Handle
	pmdEnergy      renderer.Handle
	pmdCoordinates renderer.Handle

	eyePositions    []renderer.Handle
	customPositions []renderer.Handle
	eyeNormals      []renderer.Handle
	customNormals   []renderer.Handle
	depthAndRange   []renderer.Handle
	indices         []renderer.Handle

	forwardFlow3D  []renderer.Handle
	forwardFlow2D  []renderer.Handle
	backwardFlow3D []renderer.Handle
	backwardFlow2D []renderer.Handle

	oversampledRGB   renderer.Handle
	oversampledPMD   renderer.Handle
	oversampledDepth renderer.Handle
	postprocScratch  renderer.Handle

	// Light targets are indexed [sub-frame][light].
	shadowMaps [][]renderer.Handle
	rsmDepth   [][]renderer.Handle
	rsm        [][]renderer.Handle
}

// targetBuilder allocates the targets of a targetSet and records them for release.
type targetBuilder struct {
	r   renderer.Renderer
	set *targetSet
}

func (b *targetBuilder) create(label string, kind renderer.TargetKind, format renderer.TargetFormat, w, h, layers int) renderer.Handle {
	handle, err := b.r.CreateTarget(renderer.TargetDescriptor{
		Label:  label,
		Kind:   kind,
		Format: format,
		Width:  w,
		Height: h,
		Layers: layers,
	})
	if err != nil {
		b.set.release(b.r)
		panic(fmt.Errorf("simulator: cannot create target %q: %w", label, err))
	}
	b.set.owned = append(b.set.owned, handle)
	return handle
}

func (b *targetBuilder) image(label string, format renderer.TargetFormat, w, h int) renderer.Handle {
	return b.create(label, renderer.TargetKind2D, format, w, h, 1)
}

// images creates n images when on is set and returns n NoTarget entries otherwise.
func (b *targetBuilder) images(on bool, n int, label string, format renderer.TargetFormat, w, h int) []renderer.Handle {
	hs := make([]renderer.Handle, n)
	for i := range hs {
		hs[i] = renderer.NoTarget
		if on {
			hs[i] = b.image(fmt.Sprintf("%s %d", label, i), format, w, h)
		}
	}
	return hs
}

// newTargetSet allocates every target the configuration writes. Allocation failures release the
// partial set and panic.
func newTargetSet(r renderer.Renderer, lights []light.Light, proj config.Projection, p config.Pipeline, o config.Output) *targetSet {
	set := &targetSet{
		pmdEnergy:        renderer.NoTarget,
		pmdCoordinates:   renderer.NoTarget,
		oversampledRGB:   renderer.NoTarget,
		oversampledPMD:   renderer.NoTarget,
		oversampledDepth: renderer.NoTarget,
		postprocScratch:  renderer.NoTarget,
	}
	b := &targetBuilder{r: r, set: set}
	w, h := proj.Width(), proj.Height()
	subFrames := o.SubFrames()
	results := subFrames
	if subFrames > 1 {
		results++
	}
	lit := o.Light()

	set.depth = b.images(true, subFrames+1, "depth", renderer.FormatDepth32F, w, h)
	set.rgb = b.images(lit && o.RGB, results, "rgb", renderer.FormatRGBA32F, w, h)
	set.srgb = b.images(lit && o.RGB && o.SRGB, results, "srgb", renderer.FormatRGBA8, w, h)
	set.pmdDigNum = b.images(lit && o.PMD, results, "pmd", renderer.FormatRGBA32F, w, h)
	if lit && o.PMD {
		set.pmdEnergy = b.image("pmd energies", renderer.FormatRG32F, w, h)
		if o.PMDCoordinates {
			set.pmdCoordinates = b.image("pmd coordinates", renderer.FormatRGBA32F, w, h)
		}
	}

	depthAndRange := renderer.FormatRG32F
	if p.PostprocLensDistortion {
		depthAndRange = renderer.FormatRGBA32F
	}
	set.eyePositions = b.images(o.EyeSpacePositions, subFrames, "eye space positions", renderer.FormatRGBA32F, w, h)
	set.customPositions = b.images(o.CustomSpacePositions, subFrames, "custom space positions", renderer.FormatRGBA32F, w, h)
	set.eyeNormals = b.images(o.EyeSpaceNormals, subFrames, "eye space normals", renderer.FormatRGBA32F, w, h)
	set.customNormals = b.images(o.CustomSpaceNormals, subFrames, "custom space normals", renderer.FormatRGBA32F, w, h)
	set.depthAndRange = b.images(o.DepthAndRange, subFrames, "depth and range", depthAndRange, w, h)
	set.indices = b.images(o.Indices, subFrames, "indices", renderer.FormatRGBA32UI, w, h)

	set.forwardFlow3D = b.images(o.ForwardFlow3D, results, "forward flow 3d", renderer.FormatRGBA32F, w, h)
	set.forwardFlow2D = b.images(o.ForwardFlow2D, results, "forward flow 2d", renderer.FormatRG32F, w, h)
	set.backwardFlow3D = b.images(o.BackwardFlow3D, results, "backward flow 3d", renderer.FormatRGBA32F, w, h)
	set.backwardFlow2D = b.images(o.BackwardFlow2D, results, "backward flow 2d", renderer.FormatRG32F, w, h)

	if lit && p.Oversampling() {
		ow, oh := w*p.SpatialSamples[0], h*p.SpatialSamples[1]
		if o.RGB {
			set.oversampledRGB = b.image("oversampled rgb", renderer.FormatRGBA32F, ow, oh)
		}
		if o.PMD {
			set.oversampledPMD = b.image("oversampled pmd energies", renderer.FormatRG32F, ow, oh)
		}
		set.oversampledDepth = b.image("oversampled depth", renderer.FormatDepth32F, ow, oh)
	}
	if p.PostprocLensDistortion {
		set.postprocScratch = b.image("postprocessing", renderer.FormatRGBA32F, w, h)
	}

	set.shadowMaps = make([][]renderer.Handle, subFrames)
	set.rsmDepth = make([][]renderer.Handle, subFrames)
	set.rsm = make([][]renderer.Handle, subFrames)
	for sf := 0; sf < subFrames; sf++ {
		set.shadowMaps[sf] = make([]renderer.Handle, len(lights))
		set.rsmDepth[sf] = make([]renderer.Handle, len(lights))
		set.rsm[sf] = make([]renderer.Handle, len(lights))
		for i, l := range lights {
			set.shadowMaps[sf][i], set.rsmDepth[sf][i], set.rsm[sf][i] = renderer.NoTarget, renderer.NoTarget, renderer.NoTarget
			if !lit {
				continue
			}
			if on, size, _ := l.ShadowMap(); on && p.ShadowMaps {
				set.shadowMaps[sf][i] = b.create(fmt.Sprintf("shadow map %d/%d", sf, i), renderer.TargetKindCube, renderer.FormatDepth32F, size, size, 6)
			}
			if on, size := l.ReflectiveShadowMap(); on && p.ReflectiveShadowMaps {
				set.rsmDepth[sf][i] = b.create(fmt.Sprintf("rsm depth %d/%d", sf, i), renderer.TargetKindCube, renderer.FormatDepth32F, size, size, 6)
				set.rsm[sf][i] = b.create(fmt.Sprintf("rsm %d/%d", sf, i), renderer.TargetKind2DArray, renderer.FormatRGBA32F, size, size, 6*light.ReflectiveShadowMapLayers)
			}
		}
	}
	return set
}

func (t *targetSet) release(r renderer.Renderer) {
	for _, h := range t.owned {
		r.ReleaseTarget(h)
	}
	t.owned = nil
}

// result returns the entry of sub-frame i, or the frame result for -1.
func result(hs []renderer.Handle, i int) renderer.Handle {
	if i < 0 {
		i = len(hs) - 1
	}
	if i >= len(hs) {
		return renderer.NoTarget
	}
	return hs[i]
}

// resolveOutputs recreates the render targets after a scene, projection, pipeline or output change.
func (s *simulator) resolveOutputs() {
	if !s.outputGen.stale() && s.targets != nil {
		return
	}
	if s.targets != nil {
		s.targets.release(s.r)
		s.targets = nil
	}
	s.targets = newTargetSet(s.r, s.scene.Lights(), s.projection, s.pipeline, s.output)
	s.outputGen.resolved()
	s.epochChanged()
	common.Logger().Info("render targets resolved", "targets", len(s.targets.owned),
		"width", s.projection.Width(), "height", s.projection.Height(), "subframes", s.output.SubFrames())
}
