package renderer

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/camsim-go/common"
	"github.com/Carmen-Shannon/camsim-go/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
)

// fullscreenProgram computes the outputs of one pixel.
type fullscreenProgram func(x, y int, out *[2][4]float32)

// DrawFullscreen runs a fullscreen program over every pixel of the pass outputs.
func (b *softwareRendererBackend) DrawFullscreen(pass FullscreenPass) error {
	v := pass.Program.Variant()
	inputs := make([]*softwareTarget, len(pass.Inputs))
	for i, h := range pass.Inputs {
		t, err := b.target(h, "input")
		if err != nil {
			return fmt.Errorf("%w (pass %q)", err, pass.Label)
		}
		inputs[i] = t
	}
	outputs := make([]*softwareTarget, len(pass.Outputs))
	for i, h := range pass.Outputs {
		t, err := b.target(h, "output")
		if err != nil {
			return fmt.Errorf("%w (pass %q)", err, pass.Label)
		}
		if i > 0 && (t.desc.Width != outputs[0].desc.Width || t.desc.Height != outputs[0].desc.Height) {
			return fmt.Errorf("renderer: fullscreen pass %q: outputs differ in size", pass.Label)
		}
		outputs[i] = t
	}
	if len(outputs) == 0 || len(outputs) > 2 {
		return fmt.Errorf("renderer: fullscreen pass %q needs one or two outputs, got %d", pass.Label, len(outputs))
	}
	width, height := outputs[0].desc.Width, outputs[0].desc.Height

	program, err := b.fullscreenProgram(v, &pass, inputs, width, height)
	if err != nil {
		return err
	}
	common.Logger().Debug("software fullscreen pass", "pass", pass.Label, "program", v.Key(), "blend", pass.Blend)

	b.parallelRows(height, func(y0, y1 int) {
		var out [2][4]float32
		for y := y0; y < y1; y++ {
			for x := 0; x < width; x++ {
				program(x, y, &out)
				for i, t := range outputs {
					if pass.Blend {
						t.add(0, x, y, out[i])
					} else {
						t.store(0, x, y, out[i])
					}
				}
			}
		}
	})
	return nil
}

func (b *softwareRendererBackend) fullscreenProgram(v shader.Variant, pass *FullscreenPass, inputs []*softwareTarget, width, height int) (fullscreenProgram, error) {
	u := &pass.Uniforms
	sameSize := func() error {
		for _, in := range inputs {
			if in.desc.Width != width || in.desc.Height != height {
				return fmt.Errorf("renderer: fullscreen pass %q: input %q is %dx%d, want %dx%d", pass.Label, in.desc.Label, in.desc.Width, in.desc.Height, width, height)
			}
		}
		return nil
	}

	switch v.Pass {
	case shader.PassOversampleReduce:
		ww, wh := v.WeightsWidth, v.WeightsHeight
		for _, in := range inputs {
			if in.desc.Width != width*ww || in.desc.Height != height*wh {
				return nil, fmt.Errorf("renderer: fullscreen pass %q: input %q is %dx%d, want %dx%d", pass.Label, in.desc.Label, in.desc.Width, in.desc.Height, width*ww, height*wh)
			}
		}
		weights := pass.Weights
		return func(x, y int, out *[2][4]float32) {
			*out = [2][4]float32{}
			bx, by := x*ww, y*wh
			for j := 0; j < wh; j++ {
				for i := 0; i < ww; i++ {
					w := weights[j*ww+i]
					for k, in := range inputs {
						t := in.load(0, bx+i, by+j)
						for c := range t {
							out[k][c] += w * t[c]
						}
					}
				}
			}
		}, nil

	case shader.PassPMDDigNum:
		if err := sameSize(); err != nil {
			return nil, err
		}
		shotNoise := v.Has(shader.FeatureShotNoise)
		return func(x, y int, out *[2][4]float32) {
			e := inputs[0].load(0, x, y)
			ea := max(e[0]/u.PhotonEnergy*u.QuantumEfficiency, 0)
			eb := max(e[1]/u.PhotonEnergy*u.QuantumEfficiency, 0)
			if shotNoise {
				px, py := uint32(x), uint32(y)
				ea += RandomGaussian(px, py, u.NoiseSeeds[0], 0) * float32(math.Sqrt(float64(ea)))
				eb += RandomGaussian(px, py, u.NoiseSeeds[0], 1) * float32(math.Sqrt(float64(eb)))
			}
			dx := common.Clamp(ea/u.MaxElectrons, 0, 1)
			dy := common.Clamp(eb/u.MaxElectrons, 0, 1)
			out[0] = [4]float32{dx - dy, dx + dy, dx, dy}
		}, nil

	case shader.PassRGBResult:
		if err := sameSize(); err != nil {
			return nil, err
		}
		n := float32(len(inputs))
		return func(x, y int, out *[2][4]float32) {
			var sum [4]float32
			for _, in := range inputs {
				t := in.load(0, x, y)
				for c := range sum {
					sum[c] += t[c]
				}
			}
			for c := range sum {
				sum[c] /= n
			}
			out[0] = sum
		}, nil

	case shader.PassPMDResult:
		if err := sameSize(); err != nil {
			return nil, err
		}
		return func(x, y int, out *[2][4]float32) {
			var q [4]float32
			var intensity float32
			for i := 0; i < min(len(inputs), 4); i++ {
				dn := inputs[i].load(0, x, y)
				q[i] = dn[0]
				intensity += dn[1]
			}
			dy := q[3] - q[1]
			dx := q[0] - q[2]
			phase := float32(math.Atan2(float64(dy), float64(dx)))
			if phase < 0 {
				phase += 2 * math.Pi
			}
			out[0] = [4]float32{
				phase * u.FracCModFreq / (4 * math.Pi),
				float32(math.Sqrt(float64(dx*dx+dy*dy))) * 0.5,
				intensity * 0.25,
				0,
			}
		}, nil

	case shader.PassConvertSRGB:
		if err := sameSize(); err != nil {
			return nil, err
		}
		return func(x, y int, out *[2][4]float32) {
			c := inputs[0].load(0, x, y)
			out[0] = [4]float32{LinearToSRGB(c[0]), LinearToSRGB(c[1]), LinearToSRGB(c[2]), 1}
		}, nil

	case shader.PassPMDCoordinates:
		if err := sameSize(); err != nil {
			return nil, err
		}
		return func(x, y int, out *[2][4]float32) {
			r := inputs[0].load(0, x, y)[0]
			dir := mgl32.Vec3{
				(float32(x) - u.Center[0]) / u.Focal[0],
				-(float32(y) - u.Center[1]) / u.Focal[1],
				-1,
			}.Normalize().Mul(r)
			out[0] = [4]float32{dir[0], dir[1], dir[2], 1}
		}, nil

	case shader.PassPostprocDistortion:
		in := inputs[0]
		size := mgl32.Vec2{float32(width), float32(height)}
		inSize := mgl32.Vec2{float32(in.desc.Width), float32(in.desc.Height)}
		at := func(x, y int) [4]float32 {
			if x < 0 || y < 0 || x >= in.desc.Width || y >= in.desc.Height {
				return [4]float32{}
			}
			return in.load(0, x, y)
		}
		return func(x, y int, out *[2][4]float32) {
			ndc := PixelToNDC(mgl32.Vec2{float32(x) + 0.5, float32(y) + 0.5}, size)
			src := UndistortPoint(ndc, u.Distortion, u.Focal, u.Center, size)
			s := NDCToPixel(src, inSize).Sub(mgl32.Vec2{0.5, 0.5})
			fx, fy := math.Floor(float64(s[0])), math.Floor(float64(s[1]))
			x0, y0 := int(fx), int(fy)
			ax, ay := s[0]-float32(fx), s[1]-float32(fy)
			t00, t10 := at(x0, y0), at(x0+1, y0)
			t01, t11 := at(x0, y0+1), at(x0+1, y0+1)
			for c := 0; c < 4; c++ {
				top := t00[c]*(1-ax) + t10[c]*ax
				bottom := t01[c]*(1-ax) + t11[c]*ax
				out[0][c] = top*(1-ay) + bottom*ay
			}
		}, nil
	}
	return nil, fmt.Errorf("renderer: %s is not a fullscreen program", v.Key())
}
