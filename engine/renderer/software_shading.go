package renderer

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/camsim-go/common"
	"github.com/Carmen-Shannon/camsim-go/engine/light"
	"github.com/Carmen-Shannon/camsim-go/engine/renderer/material"
	"github.com/Carmen-Shannon/camsim-go/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	lightTypeSpot        = uint32(light.LightTypeSpot)
	lightTypeDirectional = uint32(light.LightTypeDirectional)
)

// PCGHash is the 32-bit PCG output permutation used by every noise source.
func PCGHash(v uint32) uint32 {
	state := v*747796405 + 2891336453
	word := ((state >> ((state >> 28) + 4)) ^ state) * 277803737
	return (word >> 22) ^ word
}

// RandomUniform returns a uniform number in (0, 1) for a pixel, a per-frame seed and a stream.
// The same inputs give the same number on every backend.
//
// Parameters:
//   - x, y: the pixel
//   - seed: the per-frame seed
//   - stream: the stream index, so one pixel can draw several numbers
//
// Returns:
//   - float32: the number
func RandomUniform(x, y uint32, seed float32, stream uint32) float32 {
	h := PCGHash(x ^ PCGHash(y^PCGHash(math.Float32bits(seed)^stream)))
	return (float32(h>>8) + 0.5) / 16777216
}

// RandomGaussian returns a standard normal number built from streams 2*stream and 2*stream+1
// with the Box-Muller transform.
func RandomGaussian(x, y uint32, seed float32, stream uint32) float32 {
	u1 := RandomUniform(x, y, seed, 2*stream)
	u2 := RandomUniform(x, y, seed, 2*stream+1)
	return float32(math.Sqrt(-2*math.Log(float64(u1))) * math.Cos(2*math.Pi*float64(u2)))
}

// LinearDepth converts a window depth of a perspective projection into the eye-space distance
// along the view axis.
func LinearDepth(d, near, far float32) float32 {
	ndc := 2*d - 1
	return 2 * far * near / (far + near - ndc*(far-near))
}

// NDCToPixel maps normalized device coordinates to top-origin pixel coordinates.
func NDCToPixel(ndc, size mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{(ndc[0]*0.5 + 0.5) * size[0], (0.5 - ndc[1]*0.5) * size[1]}
}

// PixelToNDC is the inverse of NDCToPixel.
func PixelToNDC(p, size mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{p[0]/size[0]*2 - 1, 1 - p[1]/size[1]*2}
}

// DistortPoint applies the Brown-Conrady model to a point in normalized device coordinates.
//
// Parameters:
//   - ndc: the undistorted point
//   - k: the coefficients k1, k2, p1, p2
//   - focal: the focal lengths in pixels
//   - center: the principal point in top-origin pixels
//   - size: the image size in pixels
//
// Returns:
//   - mgl32.Vec2: the distorted point in normalized device coordinates
func DistortPoint(ndc mgl32.Vec2, k mgl32.Vec4, focal, center, size mgl32.Vec2) mgl32.Vec2 {
	p := NDCToPixel(ndc, size)
	x := (p[0] - center[0]) / focal[0]
	y := (p[1] - center[1]) / focal[1]
	r2 := x*x + y*y
	r4 := r2 * r2
	radial := 1 + k[0]*r2 + k[1]*r4
	xd := x*radial + 2*k[2]*x*y + k[3]*(r2+2*x*x)
	yd := y*radial + k[2]*(r2+2*y*y) + 2*k[3]*x*y
	return PixelToNDC(mgl32.Vec2{xd*focal[0] + center[0], yd*focal[1] + center[1]}, size)
}

// UndistortPoint inverts DistortPoint with a single Newton step. Parameters match DistortPoint.
func UndistortPoint(ndc mgl32.Vec2, k mgl32.Vec4, focal, center, size mgl32.Vec2) mgl32.Vec2 {
	p := NDCToPixel(ndc, size)
	x := (p[0] - center[0]) / focal[0]
	y := (p[1] - center[1]) / focal[1]
	r2 := x*x + y*y
	r4 := r2 * r2
	inv := 1 / (4*k[0]*r2 + 6*k[1]*r4 + 8*k[2]*y + 8*k[3]*x + 1)
	dx := x*(k[0]*r2+k[1]*r4) + 2*k[2]*x*y + k[3]*(r2+2*x*x)
	dy := y*(k[0]*r2+k[1]*r4) + k[2]*(r2+2*y*y) + 2*k[3]*x*y
	x -= inv * dx
	y -= inv * dy
	return PixelToNDC(mgl32.Vec2{x*focal[0] + center[0], y*focal[1] + center[1]}, size)
}

// LinearToSRGB applies the sRGB transfer curve to a linear value clamped to [0, 1].
func LinearToSRGB(c float32) float32 {
	x := common.Clamp(c, 0, 1)
	if x <= 0.0031308 {
		return 12.92 * x
	}
	return 1.055*float32(math.Pow(float64(x), 1/2.4)) - 0.055
}

// surface is the resolved material of a fragment.
type surface struct {
	ambient, diffuse, specular, emissive mgl32.Vec3
	shininess, opacity                   float32
	normal, customNormal                 mgl32.Vec3
	visible                              bool
}

// lightSample is the light arriving at a point.
type lightSample struct {
	toLight     mgl32.Vec3
	attenuation float32
	emission    float32
	distance    float32
}

// shadingContext holds the resolved bindings of one scene pass.
type shadingContext struct {
	b         *softwareRendererBackend
	pass      *ScenePass
	u         *PassUniforms
	viewport  mgl32.Vec2
	shadows   [shader.MaxShadowSlots]*softwareTarget
	rsms      [shader.MaxRSMSlots]*softwareTarget
	lastDepth *softwareTarget
}

func (b *softwareRendererBackend) newShadingContext(pass *ScenePass, width, height int) (*shadingContext, error) {
	ctx := &shadingContext{
		b:        b,
		pass:     pass,
		u:        &pass.Uniforms,
		viewport: mgl32.Vec2{float32(width), float32(height)},
	}
	for i, h := range pass.ShadowMaps {
		if !h.IsValid() {
			continue
		}
		t, err := b.target(h, "shadow map")
		if err != nil {
			return nil, fmt.Errorf("%w (pass %q)", err, pass.Label)
		}
		ctx.shadows[i] = t
	}
	for i, h := range pass.RSMs {
		if !h.IsValid() {
			continue
		}
		t, err := b.target(h, "reflective shadow map")
		if err != nil {
			return nil, fmt.Errorf("%w (pass %q)", err, pass.Label)
		}
		ctx.rsms[i] = t
	}
	if pass.LastDepth.IsValid() {
		t, err := b.target(pass.LastDepth, "last depth")
		if err != nil {
			return nil, fmt.Errorf("%w (pass %q)", err, pass.Label)
		}
		ctx.lastDepth = t
	}
	for _, l := range pass.Lights {
		if l.ShadowIndex >= 0 && (int(l.ShadowIndex) >= len(ctx.shadows) || ctx.shadows[l.ShadowIndex] == nil) && pass.Program.Variant().Has(shader.FeatureShadowMaps) {
			return nil, fmt.Errorf("renderer: scene pass %q: shadow slot %d is not bound", pass.Label, l.ShadowIndex)
		}
		if l.RSMIndex >= 0 && (int(l.RSMIndex) >= len(ctx.rsms) || ctx.rsms[l.RSMIndex] == nil) && pass.Program.Variant().Has(shader.FeatureReflectiveShadowMaps) {
			return nil, fmt.Errorf("renderer: scene pass %q: reflective shadow map slot %d is not bound", pass.Label, l.RSMIndex)
		}
	}
	return ctx, nil
}

// program selects the fragment code of a variant.
func (ctx *shadingContext) program(v shader.Variant) fragmentProgram {
	switch v.Pass {
	case shader.PassShadowMap, shader.PassDepthPrepass:
		return func(f *fragment) bool {
			return ctx.surface(f, v).visible
		}
	case shader.PassReflectiveShadowMap:
		return func(f *fragment) bool { return ctx.shadeRSM(f, v) }
	case shader.PassLight:
		return func(f *fragment) bool { return ctx.shadeLight(f, v) }
	case shader.PassGeometry:
		return func(f *fragment) bool { return ctx.shadeGeometry(f, v) }
	case shader.PassFlow:
		return func(f *fragment) bool { return ctx.shadeFlow(f, v) }
	}
	return func(*fragment) bool { return false }
}

func (ctx *shadingContext) surface(f *fragment, v shader.Variant) surface {
	m := &ctx.b.materials[f.draw.material]
	g := &m.gpu
	s := surface{
		visible:   f.frontFacing || g.Flags&material.FlagTwoSided != 0,
		ambient:   g.Ambient,
		diffuse:   g.Diffuse,
		specular:  g.Specular,
		emissive:  g.Emissive,
		shininess: g.Shininess,
		opacity:   g.Opacity,
	}
	u, tv := f.v[varUV], f.v[varUV+1]
	if g.Flags&material.FlagDiffuseTexture != 0 && m.diffuse != nil {
		t := m.diffuse.Sample(u, tv)
		s.diffuse = mgl32.Vec3{s.diffuse[0] * t[0], s.diffuse[1] * t[1], s.diffuse[2] * t[2]}
		s.opacity *= t[3]
	}
	if g.Flags&material.FlagSpecularTexture != 0 && m.specular != nil {
		t := m.specular.Sample(u, tv)
		s.specular = mgl32.Vec3{s.specular[0] * t[0], s.specular[1] * t[1], s.specular[2] * t[2]}
	}
	if g.Flags&material.FlagOpacityTexture != 0 && m.opacity != nil {
		s.opacity *= m.opacity.Sample(u, tv)[0]
	}
	n := safeNormalize(f.v.vec3(varEyeNormal))
	cn := safeNormalize(f.v.vec3(varCustomNormal))
	if !f.frontFacing {
		n = n.Mul(-1)
		cn = cn.Mul(-1)
	}
	tangent := mgl32.Vec3{f.v[varEyeTangent], f.v[varEyeTangent+1], f.v[varEyeTangent+2]}
	if v.Has(shader.FeatureNormalMapping) && g.Flags&material.FlagNormalTexture != 0 && m.normal != nil && tangent.Dot(tangent) > 0 {
		t := tangent.Normalize()
		b := n.Cross(t).Mul(f.v[varEyeTangent+3])
		nt := m.normal.Sample(u, tv)
		n = safeNormalize(t.Mul(nt[0]*2 - 1).Add(b.Mul(nt[1]*2 - 1)).Add(n.Mul(nt[2]*2 - 1)))
	}
	s.normal = n
	s.customNormal = cn
	if v.Has(shader.FeatureTransparency) && s.opacity < 0.5 {
		s.visible = false
	}
	return s
}

func (ctx *shadingContext) lightFrameDirection(l *light.GPULight, d mgl32.Vec3) mgl32.Vec3 {
	back := mgl32.Vec3(l.Direction).Normalize().Mul(-1)
	right := safeNormalize(mgl32.Vec3(l.Up).Cross(back))
	up := back.Cross(right)
	return mgl32.Vec3{d.Dot(right), d.Dot(up), d.Dot(back)}
}

func (ctx *shadingContext) sampleLight(l *light.GPULight, p mgl32.Vec3, v shader.Variant) lightSample {
	s := lightSample{attenuation: 1, emission: 1}
	if l.LightType == lightTypeDirectional {
		s.toLight = mgl32.Vec3(l.Direction).Normalize().Mul(-1)
		s.distance = p.Len()
	} else {
		d := p.Sub(l.Position)
		dist := max(d.Len(), 1e-6)
		s.toLight = d.Mul(-1 / dist)
		s.distance = dist
		s.attenuation = 1 / (l.Attenuation[0] + l.Attenuation[1]*dist + l.Attenuation[2]*dist*dist)
		if l.LightType == lightTypeSpot {
			s.emission = common.Smoothstep(l.OuterCos, l.InnerCos, s.toLight.Mul(-1).Dot(mgl32.Vec3(l.Direction).Normalize()))
		}
	}
	if v.Has(shader.FeaturePowerFactorMaps) && l.PFIndex >= 0 && int(l.PFIndex) < len(ctx.b.powerFactors) {
		s.emission *= ctx.b.powerFactors[l.PFIndex].Lookup(ctx.lightFrameDirection(l, s.toLight.Mul(-1)))
	}
	return s
}

func gray(c mgl32.Vec3) float32 {
	return c.Dot(mgl32.Vec3{0.2126, 0.7152, 0.0722})
}

func maxAbs(d mgl32.Vec3) float32 {
	return max(abs32(d[0]), abs32(d[1]), abs32(d[2]))
}

func (ctx *shadingContext) shadowFactor(l *light.GPULight, worldP, worldN mgl32.Vec3, v shader.Variant) float32 {
	if l.ShadowIndex < 0 {
		return 1
	}
	t := ctx.shadows[l.ShadowIndex]
	size := t.desc.Width
	fsize := float32(size)
	d0 := worldP.Sub(l.WorldPosition)
	m0 := maxAbs(d0)
	d := d0.Add(worldN.Mul(3 * m0 / fsize))
	m := maxAbs(d)
	side, cu, cv := light.CubeSide(d)
	cx, cy := int(cu*fsize), int((1-cv)*fsize)
	bias := l.ShadowBias * 2 * m / fsize
	test := func(x, y int) float32 {
		x = common.Clamp(x, 0, size-1)
		y = common.Clamp(y, 0, size-1)
		stored := LinearDepth(t.depth(side, x, y), l.ShadowNear, l.ShadowFar)
		if m > stored+bias {
			return 0
		}
		return 1
	}
	if !v.Has(shader.FeatureShadowMapFiltering) {
		return test(cx, cy)
	}
	var lit float32
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			lit += test(cx+dx, cy+dy)
		}
	}
	return lit / 9
}

func (ctx *shadingContext) rsmBounce(p mgl32.Vec3, s *surface, x, y uint32) mgl32.Vec3 {
	var sum mgl32.Vec3
	perFace := max(ctx.u.RSMSamples/6, 1)
	grid := max(uint32(math.Sqrt(float64(perFace))), 1)
	seed := ctx.u.NoiseSeeds[2]
	for i := range ctx.pass.Lights {
		l := &ctx.pass.Lights[i]
		if l.RSMIndex < 0 {
			continue
		}
		t := ctx.rsms[l.RSMIndex]
		size := t.desc.Width
		weight := float32(size*size) / float32(grid*grid)
		stream := uint32(0)
		for side := 0; side < 6; side++ {
			for gy := uint32(0); gy < grid; gy++ {
				for gx := uint32(0); gx < grid; gx++ {
					jx := RandomUniform(x, y, seed, stream)
					jy := RandomUniform(x, y, seed, stream+1)
					stream += 2
					tx := min(int((float32(gx)+jx)/float32(grid)*float32(size)), size-1)
					ty := min(int((float32(gy)+jy)/float32(grid)*float32(size)), size-1)
					xp := t.load(side, tx, ty)
					np := t.load(6+side, tx, ty)
					flux := t.load(12+side, tx, ty)
					d := p.Sub(mgl32.Vec3{xp[0], xp[1], xp[2]})
					r2 := d.Dot(d)
					if r2 <= 0 {
						continue
					}
					dir := d.Mul(1 / float32(math.Sqrt(float64(r2))))
					cosP := max(mgl32.Vec3{np[0], np[1], np[2]}.Dot(dir), 0)
					cosV := max(s.normal.Dot(dir.Mul(-1)), 0)
					k := cosV * cosP / max(r2, 0.01) * weight / math.Pi
					sum = sum.Add(mgl32.Vec3{s.diffuse[0] * flux[0] * k, s.diffuse[1] * flux[1] * k, s.diffuse[2] * flux[2] * k})
				}
			}
		}
	}
	return sum
}

func (ctx *shadingContext) pmdEnergies(l *light.GPULight, ls *lightSample, factor float32, s *surface, p mgl32.Vec3) (float32, float32) {
	u := ctx.u
	irradiance := l.Intensity * 0.001 * factor
	radiance := gray(s.diffuse) * irradiance / math.Pi
	power := radiance * u.PixelArea * math.Pi / 4 * u.ApertureRatio * u.ApertureRatio
	energy := power * u.ExposureTime / max(u.TemporalSamples, 1)
	travel := ls.distance + p.Len()
	phase := 2*math.Pi*travel*u.FracModFreqC + u.Tau
	c := u.Contrast * float32(math.Cos(float64(phase)))
	return energy * (1 + c) * 0.5, energy * (1 - c) * 0.5
}

func (ctx *shadingContext) shadeLight(f *fragment, v shader.Variant) bool {
	s := ctx.surface(f, v)
	if !s.visible {
		return false
	}
	u := ctx.u
	p := f.v.vec3(varEyePosition)
	view := safeNormalize(p.Mul(-1))
	px, py := uint32(f.x), uint32(f.y)
	worldP := u.InvertedView.Mul4x1(p.Vec4(1)).Vec3()
	worldN := safeNormalize(u.InvertedView.Mul4x1(s.normal.Vec4(0)).Vec3())

	rgb := s.emissive
	if v.Has(shader.FeatureAmbientLight) {
		rgb = rgb.Add(s.ambient)
	}
	var pa, pb float32
	for i := 0; i < min(v.Lights, len(ctx.pass.Lights)); i++ {
		l := &ctx.pass.Lights[i]
		ls := ctx.sampleLight(l, p, v)
		nDotL := s.normal.Dot(ls.toLight)
		if nDotL <= 0 {
			continue
		}
		shadow := float32(1)
		if v.Has(shader.FeatureShadowMaps) {
			shadow = ctx.shadowFactor(l, worldP, worldN, v)
		}
		fac := ls.attenuation * ls.emission * shadow
		if v.Has(shader.FeatureRGB) {
			r := reflect(ls.toLight.Mul(-1), s.normal)
			spec := float32(math.Pow(float64(max(r.Dot(view), 0)), float64(s.shininess)))
			for c := 0; c < 3; c++ {
				rgb[c] += l.Color[c] * (s.diffuse[c]*nDotL + s.specular[c]*spec) * fac
			}
		}
		if v.Has(shader.FeaturePMD) {
			a, b := ctx.pmdEnergies(l, &ls, fac*nDotL, &s, p)
			pa += a
			pb += b
		}
	}
	if v.Has(shader.FeatureReflectiveShadowMaps) && v.Has(shader.FeatureRGB) {
		rgb = rgb.Add(ctx.rsmBounce(p, &s, px, py))
	}
	if v.Has(shader.FeatureGaussianWhiteNoise) {
		seed := u.NoiseSeeds[0]
		for c := 0; c < 3; c++ {
			rgb[c] += RandomGaussian(px, py, seed, uint32(c))*u.NoiseStddev + u.NoiseMean
		}
	}
	if v.Has(shader.FeatureThinLensVignetting) {
		cos := -p[2] / p.Len()
		vig := cos * cos * cos * cos
		rgb = rgb.Mul(vig)
		pa *= vig
		pb *= vig
	}
	w := 1 / max(u.TemporalSamples, 1)
	o := 0
	if v.Has(shader.FeatureRGB) {
		f.out[o].f = [4]float32{rgb[0] * w, rgb[1] * w, rgb[2] * w, w}
		o++
	}
	if v.Has(shader.FeaturePMD) {
		f.out[o].f = [4]float32{pa, pb, 0, 0}
	}
	return true
}

func (ctx *shadingContext) shadeRSM(f *fragment, v shader.Variant) bool {
	s := ctx.surface(f, v)
	if !s.visible {
		return false
	}
	if len(ctx.pass.Lights) == 0 {
		return false
	}
	l := &ctx.pass.Lights[0]
	cp := f.v.vec3(varCustomPosition)
	ls := ctx.sampleLight(l, cp, v)
	eye := f.v.vec3(varEyePosition)
	d := eye.Mul(1 / max(-eye[2], 1e-6))
	dl := d.Len()
	texel := 2 / ctx.viewport[0]
	solidAngle := texel * texel / (dl * dl * dl)
	k := ls.emission * solidAngle
	f.out[0].f = [4]float32{cp[0], cp[1], cp[2], 1}
	f.out[1].f = [4]float32{s.customNormal[0], s.customNormal[1], s.customNormal[2], 0}
	f.out[2].f = [4]float32{s.diffuse[0] * l.Color[0] * k, s.diffuse[1] * l.Color[1] * k, s.diffuse[2] * l.Color[2] * k, 1}
	f.out[3].f = [4]float32{s.diffuse[0], s.diffuse[1], s.diffuse[2], 1}
	f.out[4].f = [4]float32{s.specular[0], s.specular[1], s.specular[2], s.shininess}
	return true
}

func (ctx *shadingContext) shadeGeometry(f *fragment, v shader.Variant) bool {
	s := ctx.surface(f, v)
	if !s.visible {
		return false
	}
	p := f.v.vec3(varEyePosition)
	o := 0
	if v.Has(shader.FeatureEyeSpacePositions) {
		f.out[o].f = [4]float32{p[0], p[1], p[2], 1}
		o++
	}
	if v.Has(shader.FeatureCustomSpacePositions) {
		cp := f.v.vec3(varCustomPosition)
		f.out[o].f = [4]float32{cp[0], cp[1], cp[2], 1}
		o++
	}
	if v.Has(shader.FeatureEyeSpaceNormals) {
		f.out[o].f = [4]float32{s.normal[0], s.normal[1], s.normal[2], 0}
		o++
	}
	if v.Has(shader.FeatureCustomSpaceNormals) {
		f.out[o].f = [4]float32{s.customNormal[0], s.customNormal[1], s.customNormal[2], 0}
		o++
	}
	if v.Has(shader.FeatureDepthAndRange) {
		f.out[o].f = [4]float32{-p[2], p.Len(), 0, 0}
		o++
	}
	if v.Has(shader.FeatureIndices) {
		f.out[o].u = [4]uint32{uint32(f.draw.object), uint32(f.draw.shape), f.triangle, uint32(f.draw.materialIndex)}
	}
	return true
}

// projectPixel returns the top-origin pixel position of an eye-space point.
func (ctx *shadingContext) projectPixel(p mgl32.Vec3, v shader.Variant) mgl32.Vec2 {
	c := ctx.u.Projection.Mul4x1(p.Vec4(1))
	if v.Has(shader.FeaturePreprocDistortion) {
		c = distortClip(c, ctx.u)
	}
	return NDCToPixel(mgl32.Vec2{c[0] / c[3], c[1] / c[3]}, ctx.viewport)
}

func (ctx *shadingContext) occludedLast(last mgl32.Vec3, v shader.Variant) bool {
	if !v.Has(shader.FeatureBackwardFlow3D) && !v.Has(shader.FeatureBackwardFlow2D) {
		return false
	}
	if ctx.lastDepth == nil || last[2] >= 0 {
		return false
	}
	px := ctx.projectPixel(last, v)
	if px[0] < 0 || px[1] < 0 || px[0] >= ctx.viewport[0] || px[1] >= ctx.viewport[1] {
		return false
	}
	x, y := int(px[0]), int(px[1])
	x = min(x, ctx.lastDepth.desc.Width-1)
	y = min(y, ctx.lastDepth.desc.Height-1)
	stored := LinearDepth(ctx.lastDepth.depth(0, x, y), ctx.u.Near, ctx.u.Far)
	return -last[2] > stored*1.01+0.01
}

var nan32 = math.Float32frombits(0x7fc00000)

func (ctx *shadingContext) shadeFlow(f *fragment, v shader.Variant) bool {
	s := ctx.surface(f, v)
	if !s.visible {
		return false
	}
	p := f.v.vec3(varEyePosition)
	last := f.v.vec3(varLastEyePosition)
	next := f.v.vec3(varNextEyePosition)
	here := ctx.projectPixel(p, v)
	hidden := ctx.occludedLast(last, v)
	o := 0
	if v.Has(shader.FeatureForwardFlow3D) {
		d := next.Sub(p)
		f.out[o].f = [4]float32{d[0], d[1], d[2], 0}
		o++
	}
	if v.Has(shader.FeatureForwardFlow2D) {
		d := ctx.projectPixel(next, v).Sub(here)
		f.out[o].f = [4]float32{d[0], d[1], 0, 0}
		o++
	}
	if v.Has(shader.FeatureBackwardFlow3D) {
		d := last.Sub(p)
		f.out[o].f = [4]float32{d[0], d[1], d[2], 0}
		if hidden {
			f.out[o].f = [4]float32{nan32, nan32, nan32, 0}
		}
		o++
	}
	if v.Has(shader.FeatureBackwardFlow2D) {
		d := ctx.projectPixel(last, v).Sub(here)
		f.out[o].f = [4]float32{d[0], d[1], 0, 0}
		if hidden {
			f.out[o].f = [4]float32{nan32, nan32, 0, 0}
		}
	}
	return true
}

func reflect(i, n mgl32.Vec3) mgl32.Vec3 {
	return i.Sub(n.Mul(2 * n.Dot(i)))
}

// safeNormalize returns the zero vector for zero input, where mgl32 would produce NaNs.
func safeNormalize(v mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Mul(1 / l)
}
