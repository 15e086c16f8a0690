package renderer

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/camsim-go/common"
	"github.com/Carmen-Shannon/camsim-go/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
)

// Offsets of the interpolated vertex outputs in a varying vector.
const (
	varEyePosition     = 0
	varEyeNormal       = 3
	varUV              = 6
	varEyeTangent      = 8
	varCustomPosition  = 12
	varCustomNormal    = 15
	varLastEyePosition = 18
	varNextEyePosition = 21
	varyingCount       = 24
)

type varyings [varyingCount]float32

func (v *varyings) vec3(o int) mgl32.Vec3 {
	return mgl32.Vec3{v[o], v[o+1], v[o+2]}
}

func (v *varyings) setVec3(o int, x mgl32.Vec3) {
	v[o], v[o+1], v[o+2] = x[0], x[1], x[2]
}

// clipVertex is a vertex shader output.
type clipVertex struct {
	clip mgl32.Vec4
	v    varyings
}

// screenVertex is a clipped vertex after the viewport transform.
type screenVertex struct {
	x, y, z float32
	invW    float32
	v       varyings
}

// rasterTriangle is a screen-space triangle ready for scan conversion.
type rasterTriangle struct {
	s           [3]screenVertex
	area        float32
	frontFacing bool
	draw        int
	triangle    uint32
	minY, maxY  int
	minX, maxX  int
}

// fragmentValue is one color output of a fragment. Uint targets take u, all others f.
type fragmentValue struct {
	f [4]float32
	u [4]uint32
}

// fragment is the input of a software fragment program.
type fragment struct {
	x, y        int
	frontFacing bool
	draw        *softwareDraw
	triangle    uint32
	v           varyings
	out         [maxColorOutputs]fragmentValue
}

// maxColorOutputs is the largest number of color outputs of any pass.
const maxColorOutputs = 6

// vertexShader transforms one vertex like scene_vertex.wgsl.
func vertexShader(vtx softwareVertex, o *ObjectUniforms, u *PassUniforms, preproc bool) clipVertex {
	p := vtx.position.Vec4(1)
	var out clipVertex
	out.clip = o.MVP.Mul4x1(p)
	out.v.setVec3(varEyePosition, o.ModelView.Mul4x1(p).Vec3())
	out.v.setVec3(varEyeNormal, o.NormalMatrix.Mul4x1(vtx.normal.Vec4(0)).Vec3())
	out.v[varUV], out.v[varUV+1] = vtx.uv[0], vtx.uv[1]
	t := o.ModelView.Mul4x1(vtx.tangent.Vec3().Vec4(0)).Vec3()
	out.v[varEyeTangent], out.v[varEyeTangent+1], out.v[varEyeTangent+2], out.v[varEyeTangent+3] = t[0], t[1], t[2], vtx.tangent[3]
	out.v.setVec3(varCustomPosition, o.Custom.Mul4x1(p).Vec3())
	out.v.setVec3(varCustomNormal, o.CustomNormal.Mul4x1(vtx.normal.Vec4(0)).Vec3())
	out.v.setVec3(varLastEyePosition, o.LastModelView.Mul4x1(p).Vec3())
	out.v.setVec3(varNextEyePosition, o.NextModelView.Mul4x1(p).Vec3())
	if preproc {
		out.clip = distortClip(out.clip, u)
	}
	return out
}

// distortClip applies the preprocessing lens distortion to a clip position. Vertices outside
// the widened corner of the undistorted image are left alone.
func distortClip(c mgl32.Vec4, u *PassUniforms) mgl32.Vec4 {
	if c[3] <= 0 {
		return c
	}
	ndc := mgl32.Vec2{c[0] / c[3], c[1] / c[3]}
	lx := u.DistortionCorner[0] * (1 + u.DistortionMargin)
	ly := u.DistortionCorner[1] * (1 + u.DistortionMargin)
	if abs32(ndc[0]) > lx || abs32(ndc[1]) > ly {
		return c
	}
	d := DistortPoint(ndc, u.Distortion, u.Focal, u.Center, u.ImageSize)
	return mgl32.Vec4{d[0] * c[3], d[1] * c[3], c[2], c[3]}
}

// clipNear clips a triangle against the near plane z >= -w. The result has zero, three or
// four vertices.
func clipNear(tri [3]clipVertex) []clipVertex {
	dist := func(c clipVertex) float32 { return c.clip[2] + c.clip[3] }
	d0, d1, d2 := dist(tri[0]), dist(tri[1]), dist(tri[2])
	if d0 >= 0 && d1 >= 0 && d2 >= 0 {
		return tri[:]
	}
	if d0 < 0 && d1 < 0 && d2 < 0 {
		return nil
	}
	out := make([]clipVertex, 0, 4)
	for i := 0; i < 3; i++ {
		a, b := tri[i], tri[(i+1)%3]
		da, db := dist(a), dist(b)
		if da >= 0 {
			out = append(out, a)
		}
		if (da >= 0) != (db >= 0) {
			t := da / (da - db)
			var c clipVertex
			c.clip = a.clip.Add(b.clip.Sub(a.clip).Mul(t))
			for k := range c.v {
				c.v[k] = a.v[k] + (b.v[k]-a.v[k])*t
			}
			out = append(out, c)
		}
	}
	return out
}

// toScreen applies the perspective divide and the viewport transform. Pixel rows grow
// downwards, so NDC y = 1 is row 0.
func toScreen(c clipVertex, width, height float32) screenVertex {
	invW := 1 / c.clip[3]
	return screenVertex{
		x:    (c.clip[0]*invW*0.5 + 0.5) * width,
		y:    (0.5 - c.clip[1]*invW*0.5) * height,
		z:    c.clip[2]*invW*0.5 + 0.5,
		invW: invW,
		v:    c.v,
	}
}

func edge(a, b screenVertex, px, py float32) float32 {
	return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
}

// setupTriangles runs the vertex stage over every uploaded shape and returns the clipped
// screen-space triangles in draw order.
func (b *softwareRendererBackend) setupTriangles(pass *ScenePass, width, height int, preproc bool) []rasterTriangle {
	var tris []rasterTriangle
	fw, fh := float32(width), float32(height)
	for di := range b.draws {
		d := &b.draws[di]
		if d.object < 0 || d.object >= len(pass.Objects) {
			continue
		}
		o := &pass.Objects[d.object]
		// distortion moves vertices across the frustum planes
		if !preproc && !common.ExtractFrustumFromMatrix(o.MVP).IntersectsBox(d.lo, d.hi) {
			continue
		}
		for t := 0; t+2 < len(d.vertices); t += 3 {
			var cv [3]clipVertex
			for k := 0; k < 3; k++ {
				cv[k] = vertexShader(d.vertices[t+k], o, &pass.Uniforms, preproc)
			}
			poly := clipNear(cv)
			for k := 1; k+1 < len(poly); k++ {
				s := [3]screenVertex{toScreen(poly[0], fw, fh), toScreen(poly[k], fw, fh), toScreen(poly[k+1], fw, fh)}
				area := edge(s[0], s[1], s[2].x, s[2].y)
				if area == 0 || math.IsNaN(float64(area)) {
					continue
				}
				rt := rasterTriangle{
					s:           s,
					area:        area,
					frontFacing: area < 0,
					draw:        di,
					triangle:    uint32(t / 3),
				}
				minX := min(s[0].x, s[1].x, s[2].x)
				maxX := max(s[0].x, s[1].x, s[2].x)
				minY := min(s[0].y, s[1].y, s[2].y)
				maxY := max(s[0].y, s[1].y, s[2].y)
				rt.minX = max(int(math.Floor(float64(minX-0.5))), 0)
				rt.maxX = min(int(math.Ceil(float64(maxX-0.5))), width-1)
				rt.minY = max(int(math.Floor(float64(minY-0.5))), 0)
				rt.maxY = min(int(math.Ceil(float64(maxY-0.5))), height-1)
				if rt.minX > rt.maxX || rt.minY > rt.maxY {
					continue
				}
				tris = append(tris, rt)
			}
		}
	}
	return tris
}

// fragmentProgram shades one fragment into f.out and reports whether it is kept.
type fragmentProgram func(f *fragment) bool

// DrawScene rasterizes every uploaded shape with the program of the pass.
func (b *softwareRendererBackend) DrawScene(pass ScenePass) error {
	v := pass.Program.Variant()
	outputs := v.Outputs()

	colors := make([]*softwareTarget, len(pass.Color))
	width, height := -1, -1
	checkSize := func(t *softwareTarget) error {
		if width < 0 {
			width, height = t.desc.Width, t.desc.Height
			return nil
		}
		if t.desc.Width != width || t.desc.Height != height {
			return fmt.Errorf("renderer: scene pass %q: attachment %q is %dx%d, want %dx%d", pass.Label, t.desc.Label, t.desc.Width, t.desc.Height, width, height)
		}
		return nil
	}
	for i, a := range pass.Color {
		t, err := b.target(a.Target, "color")
		if err != nil {
			return fmt.Errorf("%w (pass %q)", err, pass.Label)
		}
		if a.Layer < 0 || a.Layer >= t.desc.LayerCount() {
			return fmt.Errorf("renderer: scene pass %q: target %q has no layer %d", pass.Label, t.desc.Label, a.Layer)
		}
		if (outputs[i].Type == shader.OutputUint) != t.desc.Format.IsUint() {
			return fmt.Errorf("renderer: scene pass %q: output %s does not match target %q format %v", pass.Label, outputs[i].Name, t.desc.Label, t.desc.Format)
		}
		if err := checkSize(t); err != nil {
			return err
		}
		colors[i] = t
	}
	var depth *softwareTarget
	if pass.Depth.IsValid() {
		t, err := b.target(pass.Depth, "depth")
		if err != nil {
			return fmt.Errorf("%w (pass %q)", err, pass.Label)
		}
		if !t.desc.Format.IsDepth() {
			return fmt.Errorf("renderer: scene pass %q: %q is not a depth target", pass.Label, t.desc.Label)
		}
		if err := checkSize(t); err != nil {
			return err
		}
		depth = t
	}
	if width < 0 {
		return fmt.Errorf("renderer: scene pass %q has no attachments", pass.Label)
	}

	if pass.ClearColor {
		for i, a := range pass.Color {
			colors[i].clear(a.Layer)
		}
	}
	if pass.ClearDepth && depth != nil {
		depth.clear(pass.DepthLayer)
	}

	ctx, err := b.newShadingContext(&pass, width, height)
	if err != nil {
		return err
	}
	program := ctx.program(v)
	tris := b.setupTriangles(&pass, width, height, v.Has(shader.FeaturePreprocDistortion))
	common.Logger().Debug("software scene pass", "pass", pass.Label, "program", v.Key(), "triangles", len(tris))

	b.parallelRows(height, func(y0, y1 int) {
		var f fragment
		for ti := range tris {
			t := &tris[ti]
			if t.maxY < y0 || t.minY >= y1 {
				continue
			}
			ys, ye := max(t.minY, y0), min(t.maxY, y1-1)
			for y := ys; y <= ye; y++ {
				py := float32(y) + 0.5
				for x := t.minX; x <= t.maxX; x++ {
					px := float32(x) + 0.5
					w0 := edge(t.s[1], t.s[2], px, py)
					w1 := edge(t.s[2], t.s[0], px, py)
					w2 := edge(t.s[0], t.s[1], px, py)
					if t.area > 0 {
						if w0 < 0 || w1 < 0 || w2 < 0 {
							continue
						}
					} else if w0 > 0 || w1 > 0 || w2 > 0 {
						continue
					}
					l0, l1, l2 := w0/t.area, w1/t.area, w2/t.area
					z := l0*t.s[0].z + l1*t.s[1].z + l2*t.s[2].z
					if z < 0 || z > 1 {
						continue
					}
					if depth != nil {
						stored := depth.depth(pass.DepthLayer, x, y)
						if pass.DepthCompare == DepthLess && !(z < stored) {
							continue
						}
						if pass.DepthCompare == DepthLessEqual && !(z <= stored) {
							continue
						}
					}

					p0, p1, p2 := l0*t.s[0].invW, l1*t.s[1].invW, l2*t.s[2].invW
					norm := 1 / (p0 + p1 + p2)
					for k := range f.v {
						f.v[k] = (p0*t.s[0].v[k] + p1*t.s[1].v[k] + p2*t.s[2].v[k]) * norm
					}
					f.x, f.y = x, y
					f.frontFacing = t.frontFacing
					f.draw = &b.draws[t.draw]
					f.triangle = t.triangle
					if !program(&f) {
						continue
					}
					if depth != nil && pass.DepthWrite {
						depth.setDepth(pass.DepthLayer, x, y, z)
					}
					for i, c := range colors {
						if c.desc.Format.IsUint() {
							c.storeUint(pass.Color[i].Layer, x, y, f.out[i].u)
						} else {
							c.store(pass.Color[i].Layer, x, y, f.out[i].f)
						}
					}
				}
			}
		}
	})
	return nil
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
