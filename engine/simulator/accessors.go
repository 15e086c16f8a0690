package simulator

import (
	"strings"

	"github.com/Carmen-Shannon/camsim-go/common"
	"github.com/Carmen-Shannon/camsim-go/engine/animation"
	"github.com/Carmen-Shannon/camsim-go/engine/light"
	"github.com/Carmen-Shannon/camsim-go/engine/renderer"
	"github.com/Carmen-Shannon/camsim-go/engine/texdata"
)

// readbackKey identifies one cached target readback.
type readbackKey struct {
	h     renderer.Handle
	layer int
	names string
}

func (s *simulator) clearReadback() {
	clear(s.readback)
}

// read returns layer of target h with the given channel names, reading it back at most once per
// frame. Every call returns its own copy of the pixels. Failures yield the invalid TexData.
func (s *simulator) read(h renderer.Handle, layer int, names ...string) texdata.TexData {
	if !h.IsValid() {
		return texdata.TexData{}
	}
	key := readbackKey{h: h, layer: layer, names: strings.Join(names, ",")}
	if td, ok := s.readback[key]; ok {
		return td.Clone()
	}
	td, err := s.r.ReadTarget(h, layer, names...)
	if err != nil {
		common.Logger().Error("readback failed", "target", int(h), "layer", layer, "error", err)
		return texdata.TexData{}
	}
	s.readback[key] = td
	return td.Clone()
}

func (s *simulator) haveValidOutput(i int) bool {
	return !s.outputGen.stale() && s.targets != nil && s.haveLastFrame && i >= -1 && i < s.output.SubFrames()
}

func (s *simulator) HaveValidOutput(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.haveValidOutput(i)
}

// first maps -1 to sub-frame 0.
func first(i int) int {
	return max(i, 0)
}

func (s *simulator) Timestamp(i int) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.haveValidOutput(i) {
		return 0
	}
	return s.frame.timestamps[first(i)]
}

func (s *simulator) CameraTransformation(i int) animation.Transformation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.haveValidOutput(i) {
		return animation.Identity()
	}
	return s.frame.poses[first(i)].camera
}

func (s *simulator) LightTransformation(l, i int) animation.Transformation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.haveValidOutput(i) {
		return animation.Identity()
	}
	p := s.frame.poses[first(i)]
	if l < 0 || l >= len(p.lights) {
		return animation.Identity()
	}
	return p.lights[l]
}

func (s *simulator) ObjectTransformation(o, i int) animation.Transformation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.haveValidOutput(i) {
		return animation.Identity()
	}
	p := s.frame.poses[first(i)]
	if o < 0 || o >= len(p.objects) {
		return animation.Identity()
	}
	return p.objects[o]
}

func (s *simulator) Depth(i int) texdata.TexData {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.output
	if !s.haveValidOutput(i) || (s.pipeline.Oversampling() && !o.Geometry() && !o.Flow()) {
		return texdata.TexData{}
	}
	return s.read(s.frame.depth[first(i)], 0, "gldepth")
}

func (s *simulator) RGB(i int) texdata.TexData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameResult(s.output.RGB, func(t *targetSet) []renderer.Handle { return t.rgb }, i, "r", "g", "b")
}

func (s *simulator) SRGB(i int) texdata.TexData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameResult(s.output.RGB && s.output.SRGB, func(t *targetSet) []renderer.Handle { return t.srgb }, i, "r", "g", "b")
}

func (s *simulator) PMD(i int) texdata.TexData {
	s.mu.Lock()
	defer s.mu.Unlock()
	pmd := func(t *targetSet) []renderer.Handle { return t.pmdDigNum }
	if i == -1 && s.output.SubFrames() > 1 {
		return s.frameResult(s.output.PMD, pmd, i, "range", "amplitude", "intensity")
	}
	return s.frameResult(s.output.PMD, pmd, i, "a_minus_b", "a_plus_b", "a", "b")
}

func (s *simulator) PMDCoordinates(i int) texdata.TexData {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.output.PMD || !s.output.PMDCoordinates || i != -1 || !s.haveValidOutput(i) {
		return texdata.TexData{}
	}
	return s.read(s.targets.pmdCoordinates, 0, "x", "y", "z")
}

// subFrameResult reads a per sub-frame output, where -1 selects sub-frame 0.
func (s *simulator) subFrameResult(on bool, pick func(*targetSet) []renderer.Handle, i int, names ...string) texdata.TexData {
	if !on || !s.haveValidOutput(i) {
		return texdata.TexData{}
	}
	return s.read(pick(s.targets)[first(i)], 0, names...)
}

func (s *simulator) EyeSpacePositions(i int) texdata.TexData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subFrameResult(s.output.EyeSpacePositions, func(t *targetSet) []renderer.Handle { return t.eyePositions }, i, "x", "y", "z")
}

func (s *simulator) CustomSpacePositions(i int) texdata.TexData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subFrameResult(s.output.CustomSpacePositions, func(t *targetSet) []renderer.Handle { return t.customPositions }, i, "x", "y", "z")
}

func (s *simulator) EyeSpaceNormals(i int) texdata.TexData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subFrameResult(s.output.EyeSpaceNormals, func(t *targetSet) []renderer.Handle { return t.eyeNormals }, i, "nx", "ny", "nz")
}

func (s *simulator) CustomSpaceNormals(i int) texdata.TexData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subFrameResult(s.output.CustomSpaceNormals, func(t *targetSet) []renderer.Handle { return t.customNormals }, i, "nx", "ny", "nz")
}

func (s *simulator) DepthAndRange(i int) texdata.TexData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subFrameResult(s.output.DepthAndRange, func(t *targetSet) []renderer.Handle { return t.depthAndRange }, i, "depth", "range")
}

func (s *simulator) Indices(i int) texdata.TexData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subFrameResult(s.output.Indices, func(t *targetSet) []renderer.Handle { return t.indices }, i,
		"object_index", "shape_index", "triangle_index", "material_index")
}

// frameResult reads an output that has a combined frame result, selected by -1.
func (s *simulator) frameResult(on bool, pick func(*targetSet) []renderer.Handle, i int, names ...string) texdata.TexData {
	if !on || !s.haveValidOutput(i) {
		return texdata.TexData{}
	}
	return s.read(result(pick(s.targets), i), 0, names...)
}

func (s *simulator) ForwardFlow3D(i int) texdata.TexData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameResult(s.output.ForwardFlow3D, func(t *targetSet) []renderer.Handle { return t.forwardFlow3D }, i, "flow3d_x", "flow3d_y", "flow3d_z")
}

func (s *simulator) ForwardFlow2D(i int) texdata.TexData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameResult(s.output.ForwardFlow2D, func(t *targetSet) []renderer.Handle { return t.forwardFlow2D }, i, "flow2d_x", "flow2d_y")
}

func (s *simulator) BackwardFlow3D(i int) texdata.TexData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameResult(s.output.BackwardFlow3D, func(t *targetSet) []renderer.Handle { return t.backwardFlow3D }, i, "flow3d_x", "flow3d_y", "flow3d_z")
}

func (s *simulator) BackwardFlow2D(i int) texdata.TexData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameResult(s.output.BackwardFlow2D, func(t *targetSet) []renderer.Handle { return t.backwardFlow2D }, i, "flow2d_x", "flow2d_y")
}

func (s *simulator) ShadowMap(l, side, i int) texdata.TexData {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pipeline.ShadowMaps || !s.haveValidOutput(i) || side < 0 || side >= 6 {
		return texdata.TexData{}
	}
	maps := s.targets.shadowMaps[first(i)]
	if l < 0 || l >= len(maps) {
		return texdata.TexData{}
	}
	return s.read(maps[l], side, "gldepth")
}

// reflectiveShadowMap reads attribute layer k of one side of a light's reflective shadow map.
func (s *simulator) reflectiveShadowMap(l, side, i, k int, names ...string) texdata.TexData {
	if !s.pipeline.ReflectiveShadowMaps || !s.haveValidOutput(i) || side < 0 || side >= 6 {
		return texdata.TexData{}
	}
	maps := s.targets.rsm[first(i)]
	if l < 0 || l >= len(maps) || k >= light.ReflectiveShadowMapLayers {
		return texdata.TexData{}
	}
	return s.read(maps[l], 6*k+side, names...)
}

func (s *simulator) ReflectiveShadowMapPositions(l, side, i int) texdata.TexData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reflectiveShadowMap(l, side, i, 0, "x", "y", "z")
}

func (s *simulator) ReflectiveShadowMapNormals(l, side, i int) texdata.TexData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reflectiveShadowMap(l, side, i, 1, "nx", "ny", "nz")
}

func (s *simulator) ReflectiveShadowMapRadiances(l, side, i int) texdata.TexData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reflectiveShadowMap(l, side, i, 2, "r", "g", "b", "radiance")
}

func (s *simulator) ReflectiveShadowMapBRDFDiffuseParameters(l, side, i int) texdata.TexData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reflectiveShadowMap(l, side, i, 3, "kdr", "kdg", "kdb")
}

func (s *simulator) ReflectiveShadowMapBRDFSpecularParameters(l, side, i int) texdata.TexData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reflectiveShadowMap(l, side, i, 4, "ksr", "ksg", "ksb", "shininess")
}

func (s *simulator) SRGBTarget(i int) (renderer.Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.output.RGB || !s.output.SRGB || !s.haveValidOutput(i) {
		return renderer.NoTarget, false
	}
	h := result(s.targets.srgb, i)
	return h, h.IsValid()
}
