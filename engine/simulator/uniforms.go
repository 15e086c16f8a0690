package simulator

import (
	"math"

	"github.com/Carmen-Shannon/camsim-go/common"
	"github.com/Carmen-Shannon/camsim-go/engine/animation"
	"github.com/Carmen-Shannon/camsim-go/engine/config"
	"github.com/Carmen-Shannon/camsim-go/engine/light"
	"github.com/Carmen-Shannon/camsim-go/engine/renderer"
	"github.com/go-gl/mathgl/mgl32"
)

// pose is the animated state of the camera, the lights and the objects at one timestamp.
type pose struct {
	t       int64
	camera  animation.Transformation
	lights  []animation.Transformation
	objects []animation.Transformation
}

// animations are the animations of one frame, fetched once from the scene.
type animations struct {
	camera  *animation.Animation
	lights  []*animation.Animation
	objects []*animation.Animation
}

func (a animations) at(t int64) pose {
	p := pose{
		t:       t,
		camera:  a.camera.Interpolate(t),
		lights:  make([]animation.Transformation, len(a.lights)),
		objects: make([]animation.Transformation, len(a.objects)),
	}
	for i, la := range a.lights {
		p.lights[i] = la.Interpolate(t)
	}
	for i, oa := range a.objects {
		p.objects[i] = oa.Interpolate(t)
	}
	return p
}

// cameraMatrix returns the camera to world matrix of a pose.
func (s *simulator) cameraMatrix(p pose) mgl32.Mat4 {
	return s.cameraTransformation.Matrix().Mul4(p.camera.Matrix())
}

// sceneView holds the matrices one scene pass draws the objects with. last and next feed the
// flow outputs and equal the current pose elsewhere.
type sceneView struct {
	proj mgl32.Mat4
	view mgl32.Mat4
	cur  pose

	lastView, nextView mgl32.Mat4
	last, next         pose

	// custom maps world space to the custom space of the geometry outputs.
	custom mgl32.Mat4
}

func staticView(proj, view mgl32.Mat4, p pose, custom mgl32.Mat4) sceneView {
	return sceneView{
		proj:     proj,
		view:     view,
		cur:      p,
		lastView: view,
		nextView: view,
		last:     p,
		next:     p,
		custom:   custom,
	}
}

func (v sceneView) objects() []renderer.ObjectUniforms {
	out := make([]renderer.ObjectUniforms, len(v.cur.objects))
	for i, tr := range v.cur.objects {
		model := tr.Matrix()
		mv := v.view.Mul4(model)
		custom := v.custom.Mul4(model)
		out[i] = renderer.ObjectUniforms{
			ModelView:     mv,
			MVP:           v.proj.Mul4(mv),
			NormalMatrix:  common.NormalMatrix(mv),
			LastModelView: v.lastView.Mul4(v.last.objects[i].Matrix()),
			NextModelView: v.nextView.Mul4(v.next.objects[i].Matrix()),
			Custom:        custom,
			CustomNormal:  common.NormalMatrix(custom),
		}
	}
	return out
}

func (s *simulator) noiseSeeds() mgl32.Vec4 {
	return mgl32.Vec4{
		s.rng.Float32() * 1000,
		s.rng.Float32() * 1000,
		s.rng.Float32() * 1000,
		s.rng.Float32() * 1000,
	}
}

func (s *simulator) distortion() mgl32.Vec4 {
	k1, k2, p1, p2 := s.projection.Distortion()
	return mgl32.Vec4{k1, k2, p1, p2}
}

func (s *simulator) imageSize() mgl32.Vec2 {
	return mgl32.Vec2{float32(s.projection.Width()), float32(s.projection.Height())}
}

// distortionCorner returns the extent in normalized device coordinates of the region whose
// vertices land inside the image after distortion.
func (s *simulator) distortionCorner() mgl32.Vec2 {
	if !s.pipeline.PreprocLensDistortion {
		return mgl32.Vec2{1, 1}
	}
	k, focal, center, size := s.distortion(), s.projection.FocalLengths(), s.projection.CenterPixel(), s.imageSize()
	var corner mgl32.Vec2
	for _, c := range []mgl32.Vec2{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}} {
		u := renderer.UndistortPoint(c, k, focal, center, size)
		corner[0] = max(corner[0], float32(math.Abs(float64(u[0]))))
		corner[1] = max(corner[1], float32(math.Abs(float64(u[1]))))
	}
	return corner
}

// rsmSamples returns the number of hemisphere samples taken from reflective shadow maps, derived
// from the largest enabled map.
func (s *simulator) rsmSamples() uint32 {
	var n uint32
	if !s.pipeline.ReflectiveShadowMaps {
		return 0
	}
	for i, l := range s.scene.Lights() {
		if on, size := l.ReflectiveShadowMap(); on && s.slots.rsm[i] >= 0 {
			n = max(n, uint32(math.Sqrt(3)*float64(size)))
		}
	}
	return n
}

// passUniforms returns the uniforms of a camera scene pass of sub-frame sf.
func (s *simulator) passUniforms(sf int, proj, cameraMatrix mgl32.Mat4) renderer.PassUniforms {
	p := s.pipeline
	return renderer.PassUniforms{
		Projection:       proj,
		InvertedView:     cameraMatrix,
		Near:             p.NearClippingPlane,
		Far:              p.FarClippingPlane,
		NoiseSeeds:       s.noiseSeeds(),
		Distortion:       s.distortion(),
		Focal:            s.projection.FocalLengths(),
		Center:           s.projection.CenterPixel(),
		ImageSize:        s.imageSize(),
		DistortionCorner: s.distortionCorner(),
		DistortionMargin: p.PreprocLensDistortionMargin,
		TemporalSamples:  float32(p.TemporalSamples),
		ExposureTime:     float32(s.chipTiming.ExposureTime),
		ApertureRatio:    p.ThinLensApertureDiameter / p.ThinLensFocalLength,
		PixelArea:        float32(s.pmd.PixelSize * 1e-12),
		FracModFreqC:     float32(s.pmd.ModulationFrequency / config.SpeedOfLight),
		Contrast:         float32(s.pmd.PixelContrast),
		Tau:              float32(sf) * math.Pi / 2,
		NoiseMean:        p.GaussianWhiteNoiseMean,
		NoiseStddev:      p.GaussianWhiteNoiseStddev,
		RSMSamples:       s.rsmSamples(),
		SubFrame:         uint32(sf),
	}
}

func (s *simulator) fullscreenUniforms() renderer.FullscreenUniforms {
	return renderer.FullscreenUniforms{
		FracCModFreq:      float32(config.SpeedOfLight / s.pmd.ModulationFrequency),
		PhotonEnergy:      float32(s.pmd.PhotonEnergy()),
		QuantumEfficiency: float32(s.pmd.QuantumEfficiency),
		MaxElectrons:      float32(s.pmd.MaxElectrons),
		NoiseSeeds:        s.noiseSeeds(),
		Distortion:        s.distortion(),
		Focal:             s.projection.FocalLengths(),
		Center:            s.projection.CenterPixel(),
	}
}

func coneCos(deg float32) float32 {
	return float32(math.Cos(float64(mgl32.DegToRad(deg)) / 2))
}

// gpuLight returns light i in the eye space of view. Lights relative to the camera are already
// given in eye space; their world position is recovered through the camera matrix.
func (s *simulator) gpuLight(i int, l light.Light, tr animation.Transformation, view, cameraMatrix mgl32.Mat4) light.GPULight {
	pos := tr.Translation.Add(l.Position())
	dir := tr.Rotation.Rotate(l.Direction())
	up := tr.Rotation.Rotate(l.Up())
	world := pos
	if l.IsRelativeToCamera() {
		world = cameraMatrix.Mul4x1(pos.Vec4(1)).Vec3()
	} else {
		pos = view.Mul4x1(pos.Vec4(1)).Vec3()
		dir = view.Mul4x1(dir.Vec4(0)).Vec3()
		up = view.Mul4x1(up.Vec4(0)).Vec3()
	}
	inner, outer := l.ConeAngles()
	_, _, bias := l.ShadowMap()
	g := light.GPULight{
		Position:      pos,
		LightType:     uint32(l.Type()),
		Direction:     dir,
		InnerCos:      coneCos(inner),
		Up:            up,
		OuterCos:      coneCos(outer),
		Color:         l.Color(),
		Intensity:     float32(light.Intensity(l)),
		Attenuation:   l.Attenuation(),
		ShadowBias:    bias,
		WorldPosition: world,
		ShadowIndex:   int32(s.slots.shadow[i]),
		PFIndex:       int32(s.slots.powerFactor[i]),
		RSMIndex:      int32(s.slots.rsm[i]),
		ShadowNear:    s.pipeline.NearClippingPlane,
		ShadowFar:     s.pipeline.FarClippingPlane,
	}
	if g.PFIndex >= 0 {
		m := s.powerFactors[i].m
		g.PFAngles = [4]float32{m.AngleLeft, m.AngleRight, m.AngleBottom, m.AngleTop}
	}
	return g
}

func (s *simulator) gpuLights(lights []light.Light, p pose, view, cameraMatrix mgl32.Mat4) []light.GPULight {
	out := make([]light.GPULight, len(lights))
	for i, l := range lights {
		out[i] = s.gpuLight(i, l, p.lights[i], view, cameraMatrix)
	}
	return out
}

// bindLightMaps binds the shadow and reflective shadow maps of sub-frame sf to their slots.
func (s *simulator) bindLightMaps(pass *renderer.ScenePass, sf int) {
	for i := range s.slots.shadow {
		if slot := s.slots.shadow[i]; slot >= 0 {
			pass.ShadowMaps[slot] = s.targets.shadowMaps[sf][i]
		}
		if slot := s.slots.rsm[i]; slot >= 0 {
			pass.RSMs[slot] = s.targets.rsm[sf][i]
		}
	}
}
