package simulator

import (
	"fmt"

	"github.com/Carmen-Shannon/camsim-go/common"
	"github.com/Carmen-Shannon/camsim-go/engine/config"
	"github.com/Carmen-Shannon/camsim-go/engine/light"
	"github.com/Carmen-Shannon/camsim-go/engine/renderer"
	"github.com/Carmen-Shannon/camsim-go/engine/renderer/shader"
)

// programSet holds the compiled programs of one configuration. Programs of passes that the
// configuration does not run are nil.
type programSet struct {
	shadowMap      renderer.Program
	rsm            renderer.Program
	depthPrepass   renderer.Program
	light          renderer.Program
	reduce         renderer.Program
	pmdDigNum      renderer.Program
	rgbResult      renderer.Program
	pmdResult      renderer.Program
	srgb           renderer.Program
	pmdCoordinates renderer.Program
	geometry       renderer.Program
	flow           renderer.Program
	postproc       renderer.Program

	// weights is the row-major spatial sample raster of the oversample reduction.
	weights []float32
}

func (ps *programSet) set(p renderer.Program) {
	switch p.Variant().Pass {
	case shader.PassShadowMap:
		ps.shadowMap = p
	case shader.PassReflectiveShadowMap:
		ps.rsm = p
	case shader.PassDepthPrepass:
		ps.depthPrepass = p
	case shader.PassLight:
		ps.light = p
	case shader.PassOversampleReduce:
		ps.reduce = p
	case shader.PassPMDDigNum:
		ps.pmdDigNum = p
	case shader.PassRGBResult:
		ps.rgbResult = p
	case shader.PassPMDResult:
		ps.pmdResult = p
	case shader.PassConvertSRGB:
		ps.srgb = p
	case shader.PassPMDCoordinates:
		ps.pmdCoordinates = p
	case shader.PassGeometry:
		ps.geometry = p
	case shader.PassFlow:
		ps.flow = p
	case shader.PassPostprocDistortion:
		ps.postproc = p
	}
}

// usesPowerFactors reports whether any light's emission is shaped by a power factor map.
func usesPowerFactors(lights []light.Light, p config.Pipeline) bool {
	if !p.LightPowerFactorMaps {
		return false
	}
	for _, l := range lights {
		if light.HasPowerFactorMap(l) {
			return true
		}
	}
	return false
}

// selectVariants returns the program variants needed to simulate the given configuration, in
// pass execution order.
func selectVariants(lights []light.Light, p config.Pipeline, o config.Output) []shader.Variant {
	var vs []shader.Variant
	subFrames := o.SubFrames()

	var surface shader.Feature
	if p.Transparency {
		surface |= shader.FeatureTransparency
	}
	var preproc shader.Feature
	if p.PreprocLensDistortion {
		preproc = shader.FeaturePreprocDistortion
	}
	var powerFactors shader.Feature
	if usesPowerFactors(lights, p) {
		powerFactors = shader.FeaturePowerFactorMaps
	}

	if o.Light() {
		if p.ShadowMaps {
			vs = append(vs, shader.Variant{Pass: shader.PassShadowMap, Features: surface | powerFactors})
		}
		if p.ReflectiveShadowMaps {
			vs = append(vs, shader.Variant{Pass: shader.PassReflectiveShadowMap, Features: surface | powerFactors})
		}
		if p.Oversampling() {
			vs = append(vs, shader.Variant{Pass: shader.PassDepthPrepass, Features: surface | preproc})
		}

		f := surface | preproc | powerFactors
		if o.RGB {
			f |= shader.FeatureRGB
			if p.GaussianWhiteNoise {
				f |= shader.FeatureGaussianWhiteNoise
			}
		}
		if o.PMD {
			f |= shader.FeaturePMD
		}
		if p.NormalMapping {
			f |= shader.FeatureNormalMapping
		}
		if p.ShadowMaps {
			f |= shader.FeatureShadowMaps
			if p.ShadowMapFiltering {
				f |= shader.FeatureShadowMapFiltering
			}
		}
		if p.ReflectiveShadowMaps {
			f |= shader.FeatureReflectiveShadowMaps
		}
		if p.AmbientLight {
			f |= shader.FeatureAmbientLight
		}
		if p.ThinLensVignetting {
			f |= shader.FeatureThinLensVignetting
		}
		vs = append(vs, shader.Variant{Pass: shader.PassLight, Features: f, Lights: len(lights)})

		if p.Oversampling() {
			var two shader.Feature
			if o.RGB && o.PMD {
				two = shader.FeatureTwoInputs
			}
			vs = append(vs, shader.Variant{
				Pass:          shader.PassOversampleReduce,
				Features:      two,
				WeightsWidth:  p.SpatialSamples[0],
				WeightsHeight: p.SpatialSamples[1],
			})
		}
		if o.PMD {
			var shot shader.Feature
			if p.ShotNoise {
				shot = shader.FeatureShotNoise
			}
			vs = append(vs, shader.Variant{Pass: shader.PassPMDDigNum, Features: shot})
		}
		if o.RGB && o.SRGB {
			vs = append(vs, shader.Variant{Pass: shader.PassConvertSRGB})
		}
		if subFrames > 1 {
			if o.RGB {
				vs = append(vs, shader.Variant{Pass: shader.PassRGBResult, Inputs: subFrames})
			}
			if o.PMD {
				vs = append(vs, shader.Variant{Pass: shader.PassPMDResult, Inputs: subFrames})
			}
		}
		if o.PMD && o.PMDCoordinates {
			vs = append(vs, shader.Variant{Pass: shader.PassPMDCoordinates})
		}
	}

	if o.Geometry() {
		f := surface | preproc
		if p.NormalMapping {
			f |= shader.FeatureNormalMapping
		}
		for _, g := range []struct {
			on bool
			f  shader.Feature
		}{
			{o.EyeSpacePositions, shader.FeatureEyeSpacePositions},
			{o.CustomSpacePositions, shader.FeatureCustomSpacePositions},
			{o.EyeSpaceNormals, shader.FeatureEyeSpaceNormals},
			{o.CustomSpaceNormals, shader.FeatureCustomSpaceNormals},
			{o.DepthAndRange, shader.FeatureDepthAndRange},
			{o.Indices, shader.FeatureIndices},
		} {
			if g.on {
				f |= g.f
			}
		}
		vs = append(vs, shader.Variant{Pass: shader.PassGeometry, Features: f})
	}

	if o.Flow() {
		f := surface | preproc
		if p.NormalMapping {
			f |= shader.FeatureNormalMapping
		}
		for _, g := range []struct {
			on bool
			f  shader.Feature
		}{
			{o.ForwardFlow3D, shader.FeatureForwardFlow3D},
			{o.ForwardFlow2D, shader.FeatureForwardFlow2D},
			{o.BackwardFlow3D, shader.FeatureBackwardFlow3D},
			{o.BackwardFlow2D, shader.FeatureBackwardFlow2D},
		} {
			if g.on {
				f |= g.f
			}
		}
		vs = append(vs, shader.Variant{Pass: shader.PassFlow, Features: f})
	}

	if p.PostprocLensDistortion {
		vs = append(vs, shader.Variant{Pass: shader.PassPostprocDistortion})
	}
	return vs
}

// reductionWeights returns the configured spatial sample weights, or uniform weights summing to one.
func reductionWeights(p config.Pipeline) []float32 {
	if len(p.SpatialSampleWeights) > 0 {
		return append([]float32(nil), p.SpatialSampleWeights...)
	}
	n := p.SpatialSamples[0] * p.SpatialSamples[1]
	w := make([]float32, n)
	for i := range w {
		w[i] = 1 / float32(n)
	}
	return w
}

// lightSlots maps lights to the shadow, reflective shadow and power factor map slots of the
// light pass. Lights without a slot hold -1.
type lightSlots struct {
	shadow      []int
	rsm         []int
	powerFactor []int
}

// assignSlots hands out slots in light order until each kind runs out.
func assignSlots(lights []light.Light, p config.Pipeline) lightSlots {
	ls := lightSlots{
		shadow:      make([]int, len(lights)),
		rsm:         make([]int, len(lights)),
		powerFactor: make([]int, len(lights)),
	}
	next := func(used *int, limit int, kind string, i int) int {
		if *used >= limit {
			common.Logger().Warn("light exceeds slot limit, feature disabled for it", "kind", kind, "light", i, "limit", limit)
			return -1
		}
		*used++
		return *used - 1
	}
	var shadows, rsms, pfs int
	for i, l := range lights {
		ls.shadow[i], ls.rsm[i], ls.powerFactor[i] = -1, -1, -1
		if on, _, _ := l.ShadowMap(); on && p.ShadowMaps {
			ls.shadow[i] = next(&shadows, shader.MaxShadowSlots, "shadow map", i)
		}
		if on, _ := l.ReflectiveShadowMap(); on && p.ReflectiveShadowMaps {
			ls.rsm[i] = next(&rsms, shader.MaxRSMSlots, "reflective shadow map", i)
		}
		if p.LightPowerFactorMaps && light.HasPowerFactorMap(l) {
			ls.powerFactor[i] = next(&pfs, shader.MaxPowerFactorSlots, "power factor map", i)
		}
	}
	return ls
}

// powerFactorState is the current power factor map of one light.
type powerFactorState struct {
	m        light.PowerFactorMap
	provider light.AngularRadianceProvider
	dirty    bool
}

// resolvePrograms validates the configuration and compiles its programs after a scene, pipeline
// or output change. The scene is uploaded at the same time.
func (s *simulator) resolvePrograms() {
	if !s.programGen.stale() {
		return
	}
	validate(s.scene, s.pipeline, s.output)
	lights := s.scene.Lights()

	variants := selectVariants(lights, s.pipeline, s.output)
	ps := &programSet{}
	for _, v := range variants {
		p, err := s.r.Program(v)
		if err != nil {
			configPanic("cannot compile %s program: %v", v.Key(), err)
		}
		ps.set(p)
	}
	if ps.reduce != nil {
		ps.weights = reductionWeights(s.pipeline)
	}
	if err := s.r.UploadScene(s.scene); err != nil {
		panic(fmt.Errorf("simulator: cannot upload scene: %w", err))
	}

	s.programs = ps
	s.slots = assignSlots(lights, s.pipeline)
	s.powerFactors = make([]powerFactorState, len(lights))
	if s.pipeline.LightPowerFactorMaps {
		for i, l := range lights {
			s.powerFactors[i] = powerFactorState{m: l.PowerFactorMap(), provider: l.RadianceProvider(), dirty: true}
		}
	}
	s.programGen.resolved()
	s.epochChanged()
	common.Logger().Info("programs resolved", "variants", len(variants), "lights", len(lights))
}

// updatePowerFactors polls the radiance providers at timestamp t and uploads changed maps.
func (s *simulator) updatePowerFactors(t int64) {
	for i := range s.powerFactors {
		st := &s.powerFactors[i]
		if st.provider != nil {
			if m, changed := st.provider.Update(t); changed {
				st.m = m
				st.dirty = true
			}
		}
		slot := s.slots.powerFactor[i]
		if !st.dirty || slot < 0 {
			continue
		}
		must(s.r.UploadPowerFactorMap(slot, st.m))
		st.dirty = false
	}
}
