package simulator

import (
	"fmt"
	"time"

	"github.com/Carmen-Shannon/camsim-go/common"
	"github.com/Carmen-Shannon/camsim-go/engine/light"
	"github.com/Carmen-Shannon/camsim-go/engine/renderer"
	"github.com/go-gl/mathgl/mgl32"
)

// frameState is what the accessors know about the last simulated frame.
type frameState struct {
	timestamps []int64
	poses      []pose
	// depth is the depth buffer each sub-frame rendered into.
	depth []renderer.Handle
}

// frameContext carries the per-frame inputs shared by the passes of one Simulate call.
type frameContext struct {
	t         int64
	subFrames int
	sfd, fd   int64
	lights    []light.Light
	anims     animations
	proj      mgl32.Mat4
}

// must aborts the frame on a render failure.
func must(err error) {
	if err != nil {
		panic(fmt.Errorf("simulator: %w", err))
	}
}

func (s *simulator) Simulate(t int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()

	s.resolvePrograms()
	s.resolveOutputs()
	s.resolveTimestamps()
	s.clearReadback()

	fc := &frameContext{
		t:         t,
		subFrames: s.output.SubFrames(),
		sfd:       s.chipTiming.SubFrameDuration(),
		fd:        s.frameDuration(),
		lights:    s.scene.Lights(),
		anims: animations{
			camera:  s.cameraAnimation,
			lights:  s.scene.LightAnimations(),
			objects: s.scene.ObjectAnimations(),
		},
		proj: s.projection.Matrix(s.pipeline.NearClippingPlane, s.pipeline.FarClippingPlane),
	}

	s.frame = frameState{
		timestamps: s.subFrameTimestamps(t),
		poses:      make([]pose, fc.subFrames),
		depth:      make([]renderer.Handle, fc.subFrames),
	}
	for sf, ts := range s.frame.timestamps {
		s.frame.poses[sf] = fc.anims.at(ts)
	}

	for sf := 0; sf < fc.subFrames; sf++ {
		s.simulateSubFrame(fc, sf)
	}
	if fc.subFrames > 1 {
		s.combineSubFrames(fc)
	}

	s.lastFrameTimestamp = t
	s.haveLastFrame = true
	common.Logger().Debug("frame simulated", "timestamp", t, "subframes", fc.subFrames, "elapsed", time.Since(start))
}

// depthBuffers returns the depth buffer sub-frame sf renders into and the one holding the depth
// of the previous timestamp. It must be called once per sub-frame, in order. Single sub-frame
// frames only alternate buffers when a flow output needs the previous depth.
func (s *simulator) depthBuffers(sf, subFrames int) (cur, last renderer.Handle) {
	db := s.targets.depth
	if subFrames == 1 {
		if !s.haveLastFrame || !s.output.Flow() {
			return db[0], renderer.NoTarget
		}
		if s.depthPingPong {
			cur, last = db[1], db[0]
		} else {
			cur, last = db[0], db[1]
		}
		s.depthPingPong = !s.depthPingPong
		return cur, last
	}
	switch {
	case sf > 0:
		return db[sf], db[sf-1]
	case s.haveLastFrame:
		return db[0], db[subFrames-1]
	}
	return db[0], renderer.NoTarget
}

func (s *simulator) simulateSubFrame(fc *frameContext, sf int) {
	tg := s.targets
	cur, lastDepth := s.depthBuffers(sf, fc.subFrames)
	s.frame.depth[sf] = cur
	p := s.frame.poses[sf]

	if s.output.Light() {
		samples := s.pipeline.TemporalSamples
		tsd := fc.sfd / int64(samples)
		for k := 0; k < samples; k++ {
			sample := p
			if k > 0 {
				sample = fc.anims.at(p.t + int64(k)*tsd)
			}
			if s.pipeline.LightPowerFactorMaps {
				s.updatePowerFactors(sample.t)
			}
			s.renderLightMaps(fc, sf, sample)
			s.renderLight(fc, sf, k, sample, cur)
		}
		if s.output.PMD {
			must(s.r.DrawFullscreen(renderer.FullscreenPass{
				Label:    "pmd digital numbers",
				Program:  s.programs.pmdDigNum,
				Inputs:   []renderer.Handle{tg.pmdEnergy},
				Outputs:  []renderer.Handle{tg.pmdDigNum[sf]},
				Uniforms: s.fullscreenUniforms(),
			}))
		}
		if s.pipeline.PostprocLensDistortion {
			if s.output.RGB {
				s.postprocess(tg.rgb[sf])
			}
			if s.output.PMD {
				s.postprocess(tg.pmdDigNum[sf])
			}
		}
		if s.output.RGB && s.output.SRGB {
			s.convertSRGB(tg.rgb[sf], tg.srgb[sf])
		}
	}

	if s.output.Geometry() {
		s.renderGeometry(fc, sf, p, cur)
	}

	if s.output.Flow() {
		lastT := p.t
		switch {
		case sf > 0:
			lastT = s.frame.timestamps[sf-1]
		case s.haveLastFrame:
			lastT = s.lastFrameTimestamp
			if s.pipeline.SubFrameTemporalSampling {
				lastT += int64(fc.subFrames-1) * fc.sfd
			}
		}
		nextT := fc.t + fc.fd
		if sf < fc.subFrames-1 {
			nextT = s.frame.timestamps[sf+1]
		}
		s.renderFlow(fc, sf, sf, p, lastT, nextT, cur, lastDepth)
	}
}

// combineSubFrames computes the frame results from the sub-frame results.
func (s *simulator) combineSubFrames(fc *frameContext) {
	tg := s.targets
	n := fc.subFrames
	if s.output.Light() && s.output.RGB {
		must(s.r.DrawFullscreen(renderer.FullscreenPass{
			Label:    "rgb result",
			Program:  s.programs.rgbResult,
			Inputs:   tg.rgb[:n],
			Outputs:  []renderer.Handle{tg.rgb[n]},
			Uniforms: s.fullscreenUniforms(),
		}))
		if s.output.SRGB {
			s.convertSRGB(tg.rgb[n], tg.srgb[n])
		}
	}
	if s.output.Light() && s.output.PMD {
		must(s.r.DrawFullscreen(renderer.FullscreenPass{
			Label:    "pmd result",
			Program:  s.programs.pmdResult,
			Inputs:   tg.pmdDigNum[:n],
			Outputs:  []renderer.Handle{tg.pmdDigNum[n]},
			Uniforms: s.fullscreenUniforms(),
		}))
		if s.output.PMDCoordinates {
			must(s.r.DrawFullscreen(renderer.FullscreenPass{
				Label:    "pmd coordinates",
				Program:  s.programs.pmdCoordinates,
				Inputs:   []renderer.Handle{tg.pmdDigNum[n]},
				Outputs:  []renderer.Handle{tg.pmdCoordinates},
				Uniforms: s.fullscreenUniforms(),
			}))
		}
	}
	if s.output.Flow() {
		lastDepth := renderer.NoTarget
		if s.haveLastFrame {
			lastDepth = tg.depth[0]
		}
		s.renderFlow(fc, 0, n, s.frame.poses[0], fc.t-fc.fd, fc.t+fc.fd, tg.depth[n], lastDepth)
	}
}

func (s *simulator) convertSRGB(src, dst renderer.Handle) {
	must(s.r.DrawFullscreen(renderer.FullscreenPass{
		Label:   "srgb",
		Program: s.programs.srgb,
		Inputs:  []renderer.Handle{src},
		Outputs: []renderer.Handle{dst},
	}))
}

// postprocess applies the lens distortion to h in place.
func (s *simulator) postprocess(h renderer.Handle) {
	must(s.r.DrawFullscreen(renderer.FullscreenPass{
		Label:    "postprocessing lens distortion",
		Program:  s.programs.postproc,
		Inputs:   []renderer.Handle{h},
		Outputs:  []renderer.Handle{s.targets.postprocScratch},
		Uniforms: s.fullscreenUniforms(),
	}))
	must(s.r.CopyTarget(s.targets.postprocScratch, h))
}

// renderLightMaps renders the shadow and reflective shadow cube maps of every light with a slot.
func (s *simulator) renderLightMaps(fc *frameContext, sf int, p pose) {
	if !s.pipeline.ShadowMaps && !s.pipeline.ReflectiveShadowMaps {
		return
	}
	cam := s.cameraMatrix(p)
	view := cam.Inv()
	faceProj := light.CubeFaceProjection(s.pipeline.NearClippingPlane, s.pipeline.FarClippingPlane)
	uniforms := renderer.PassUniforms{
		Projection:   faceProj,
		InvertedView: cam,
		Near:         s.pipeline.NearClippingPlane,
		Far:          s.pipeline.FarClippingPlane,
		NoiseSeeds:   s.noiseSeeds(),
	}

	for i, l := range fc.lights {
		shadow := s.slots.shadow[i] >= 0
		rsm := s.slots.rsm[i] >= 0
		if !shadow && !rsm {
			continue
		}
		g := s.gpuLight(i, l, p.lights[i], view, cam)
		world := mgl32.Vec3(g.WorldPosition)

		for side := 0; side < 6; side++ {
			faceView := light.CubeFaceView(world, side)
			if shadow {
				pass := renderer.NewScenePass(fmt.Sprintf("shadow map %d side %d", i, side), s.programs.shadowMap)
				pass.Depth = s.targets.shadowMaps[sf][i]
				pass.DepthLayer = side
				pass.ClearDepth = true
				pass.DepthCompare = renderer.DepthLess
				pass.DepthWrite = true
				pass.Uniforms = uniforms
				pass.Objects = staticView(faceProj, faceView, p, s.customTransformation.Matrix()).objects()
				must(s.r.DrawScene(pass))
			}
			if rsm {
				rl := g
				rl.ShadowIndex, rl.RSMIndex = -1, -1
				pass := renderer.NewScenePass(fmt.Sprintf("reflective shadow map %d side %d", i, side), s.programs.rsm)
				for k := 0; k < light.ReflectiveShadowMapLayers; k++ {
					pass.Color = append(pass.Color, renderer.ColorAttachment{Target: s.targets.rsm[sf][i], Layer: 6*k + side})
				}
				pass.Depth = s.targets.rsmDepth[sf][i]
				pass.DepthLayer = side
				pass.ClearColor = true
				pass.ClearDepth = true
				pass.DepthCompare = renderer.DepthLess
				pass.DepthWrite = true
				pass.Uniforms = uniforms
				pass.Lights = []light.GPULight{rl}
				// Reflective shadow maps store camera eye-space geometry in their custom space.
				pass.Objects = staticView(faceProj, faceView, p, view).objects()
				must(s.r.DrawScene(pass))
			}
		}
	}
}

// renderLight runs temporal sample k of the light pass of sub-frame sf. Oversampled passes render
// into the enlarged scratch targets and are reduced into the sub-frame targets, accumulating over
// the temporal samples.
func (s *simulator) renderLight(fc *frameContext, sf, k int, p pose, depth renderer.Handle) {
	tg := s.targets
	cam := s.cameraMatrix(p)
	view := cam.Inv()
	uniforms := s.passUniforms(sf, fc.proj, cam)
	objects := staticView(fc.proj, view, p, s.customTransformation.Matrix()).objects()
	common.Logger().Debug("light pass", "subframe", sf, "sample", k)

	pass := renderer.NewScenePass("light", s.programs.light)
	pass.Uniforms = uniforms
	pass.Objects = objects
	pass.Lights = s.gpuLights(fc.lights, p, view, cam)
	s.bindLightMaps(&pass, sf)
	pass.ClearColor = true

	if !s.pipeline.Oversampling() {
		if s.output.RGB {
			pass.Color = append(pass.Color, renderer.ColorAttachment{Target: tg.rgb[sf]})
		}
		if s.output.PMD {
			pass.Color = append(pass.Color, renderer.ColorAttachment{Target: tg.pmdEnergy})
		}
		pass.Depth = depth
		pass.ClearDepth = true
		pass.DepthCompare = renderer.DepthLess
		pass.DepthWrite = true
		must(s.r.DrawScene(pass))
		return
	}

	pre := renderer.NewScenePass("depth prepass", s.programs.depthPrepass)
	pre.Depth = tg.oversampledDepth
	pre.ClearDepth = true
	pre.DepthCompare = renderer.DepthLess
	pre.DepthWrite = true
	pre.Uniforms = uniforms
	pre.Objects = objects
	must(s.r.DrawScene(pre))

	var inputs, outputs []renderer.Handle
	if s.output.RGB {
		pass.Color = append(pass.Color, renderer.ColorAttachment{Target: tg.oversampledRGB})
		inputs = append(inputs, tg.oversampledRGB)
		outputs = append(outputs, tg.rgb[sf])
	}
	if s.output.PMD {
		pass.Color = append(pass.Color, renderer.ColorAttachment{Target: tg.oversampledPMD})
		inputs = append(inputs, tg.oversampledPMD)
		outputs = append(outputs, tg.pmdEnergy)
	}
	pass.Depth = tg.oversampledDepth
	pass.DepthCompare = renderer.DepthLessEqual
	pass.DepthWrite = false
	must(s.r.DrawScene(pass))

	must(s.r.DrawFullscreen(renderer.FullscreenPass{
		Label:    "oversample reduction",
		Program:  s.programs.reduce,
		Inputs:   inputs,
		Outputs:  outputs,
		Blend:    k > 0,
		Uniforms: s.fullscreenUniforms(),
		Weights:  s.programs.weights,
	}))
}

func (s *simulator) renderGeometry(fc *frameContext, sf int, p pose, depth renderer.Handle) {
	tg := s.targets
	cam := s.cameraMatrix(p)
	pass := renderer.NewScenePass("geometry", s.programs.geometry)
	outputs := []struct {
		on       bool
		h        renderer.Handle
		postproc bool
	}{
		{s.output.EyeSpacePositions, tg.eyePositions[sf], true},
		{s.output.CustomSpacePositions, tg.customPositions[sf], true},
		{s.output.EyeSpaceNormals, tg.eyeNormals[sf], true},
		{s.output.CustomSpaceNormals, tg.customNormals[sf], true},
		{s.output.DepthAndRange, tg.depthAndRange[sf], true},
		{s.output.Indices, tg.indices[sf], false},
	}
	for _, o := range outputs {
		if o.on {
			pass.Color = append(pass.Color, renderer.ColorAttachment{Target: o.h})
		}
	}
	pass.Depth = depth
	pass.ClearColor = true
	pass.ClearDepth = true
	pass.DepthCompare = renderer.DepthLess
	pass.DepthWrite = true
	pass.Uniforms = s.passUniforms(sf, fc.proj, cam)
	pass.Objects = staticView(fc.proj, cam.Inv(), p, s.customTransformation.Matrix()).objects()
	common.Logger().Debug("geometry pass", "subframe", sf)
	must(s.r.DrawScene(pass))

	if s.pipeline.PostprocLensDistortion {
		for _, o := range outputs {
			if o.on && o.postproc {
				s.postprocess(o.h)
			}
		}
	}
}

// renderFlow renders the flow outputs into slot out of the flow targets. The last and next
// timestamps define the motion the backward and forward flow measure.
func (s *simulator) renderFlow(fc *frameContext, sf, out int, p pose, lastT, nextT int64, depth, lastDepth renderer.Handle) {
	tg := s.targets
	last, next := p, p
	if lastT != p.t {
		last = fc.anims.at(lastT)
	}
	if nextT != p.t {
		next = fc.anims.at(nextT)
	}
	cam := s.cameraMatrix(p)
	v := staticView(fc.proj, cam.Inv(), p, s.customTransformation.Matrix())
	v.last, v.lastView = last, s.cameraMatrix(last).Inv()
	v.next, v.nextView = next, s.cameraMatrix(next).Inv()

	pass := renderer.NewScenePass("flow", s.programs.flow)
	for _, o := range []struct {
		on bool
		h  renderer.Handle
	}{
		{s.output.ForwardFlow3D, tg.forwardFlow3D[out]},
		{s.output.ForwardFlow2D, tg.forwardFlow2D[out]},
		{s.output.BackwardFlow3D, tg.backwardFlow3D[out]},
		{s.output.BackwardFlow2D, tg.backwardFlow2D[out]},
	} {
		if o.on {
			pass.Color = append(pass.Color, renderer.ColorAttachment{Target: o.h})
		}
	}
	pass.Depth = depth
	pass.LastDepth = lastDepth
	pass.ClearColor = true
	pass.ClearDepth = true
	pass.DepthCompare = renderer.DepthLess
	pass.DepthWrite = true
	pass.Uniforms = s.passUniforms(sf, fc.proj, cam)
	pass.Objects = v.objects()
	common.Logger().Debug("flow pass", "subframe", sf, "last", lastT, "next", nextT)
	must(s.r.DrawScene(pass))
}
