package renderer

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestRandomUniform(t *testing.T) {
	seen := map[float32]bool{}
	for y := uint32(0); y < 16; y++ {
		for x := uint32(0); x < 16; x++ {
			u := RandomUniform(x, y, 0.25, 0)
			if u <= 0 || u >= 1 {
				t.Fatalf("RandomUniform(%d, %d) = %v, want in (0, 1)", x, y, u)
			}
			seen[u] = true
		}
	}
	if len(seen) < 250 {
		t.Errorf("RandomUniform produced %d distinct values over 256 pixels, want at least 250", len(seen))
	}
	if a, b := RandomUniform(3, 4, 0.5, 1), RandomUniform(3, 4, 0.5, 1); a != b {
		t.Errorf("RandomUniform is not deterministic: %v != %v", a, b)
	}
	if a, b := RandomUniform(3, 4, 0.5, 1), RandomUniform(3, 4, 0.75, 1); a == b {
		t.Errorf("RandomUniform ignores the seed: %v == %v", a, b)
	}
}

func TestRandomGaussianMoments(t *testing.T) {
	var sum, sum2 float64
	n := 0
	for y := uint32(0); y < 64; y++ {
		for x := uint32(0); x < 64; x++ {
			g := float64(RandomGaussian(x, y, 0.125, 0))
			sum += g
			sum2 += g * g
			n++
		}
	}
	mean := sum / float64(n)
	variance := sum2/float64(n) - mean*mean
	if math.Abs(mean) > 0.1 {
		t.Errorf("mean = %v, want about 0", mean)
	}
	if math.Abs(variance-1) > 0.1 {
		t.Errorf("variance = %v, want about 1", variance)
	}
}

func TestLinearDepth(t *testing.T) {
	tests := []struct {
		d, want float32
	}{
		{0, 0.5},
		{1, 100},
	}
	for _, tt := range tests {
		if got := LinearDepth(tt.d, 0.5, 100); !near(got, tt.want) {
			t.Errorf("LinearDepth(%v) = %v, want %v", tt.d, got, tt.want)
		}
	}
}

func TestPixelNDCRoundTrip(t *testing.T) {
	size := mgl32.Vec2{640, 480}
	tests := []struct {
		px, ndc mgl32.Vec2
	}{
		{mgl32.Vec2{0, 0}, mgl32.Vec2{-1, 1}},
		{mgl32.Vec2{640, 480}, mgl32.Vec2{1, -1}},
		{mgl32.Vec2{320, 240}, mgl32.Vec2{0, 0}},
	}
	for _, tt := range tests {
		if got := PixelToNDC(tt.px, size); got != tt.ndc {
			t.Errorf("PixelToNDC(%v) = %v, want %v", tt.px, got, tt.ndc)
		}
		if got := NDCToPixel(tt.ndc, size); got != tt.px {
			t.Errorf("NDCToPixel(%v) = %v, want %v", tt.ndc, got, tt.px)
		}
	}
}

func TestDistortUndistort(t *testing.T) {
	size := mgl32.Vec2{640, 480}
	focal := mgl32.Vec2{500, 500}
	center := mgl32.Vec2{320, 240}

	p := mgl32.Vec2{0.3, -0.2}
	if got := DistortPoint(p, mgl32.Vec4{}, focal, center, size); !near(got[0], p[0]) || !near(got[1], p[1]) {
		t.Errorf("DistortPoint(no distortion) = %v, want %v", got, p)
	}

	k := mgl32.Vec4{-0.05, 0.01, 0.001, -0.001}
	d := DistortPoint(p, k, focal, center, size)
	if d == p {
		t.Fatalf("DistortPoint(%v) did not move the point", p)
	}
	u := UndistortPoint(d, k, focal, center, size)
	if math.Abs(float64(u[0]-p[0])) > 1e-3 || math.Abs(float64(u[1]-p[1])) > 1e-3 {
		t.Errorf("UndistortPoint(DistortPoint(%v)) = %v", p, u)
	}
	if c := DistortPoint(mgl32.Vec2{}, k, focal, center, size); !near(c[0], 0) || !near(c[1], 0) {
		t.Errorf("DistortPoint(principal point) = %v, want (0, 0)", c)
	}
}

func TestLinearToSRGB(t *testing.T) {
	tests := []struct {
		in, want float32
	}{
		{-1, 0},
		{0, 0},
		{0.002, 0.02584},
		{0.5, 0.73536},
		{1, 1},
		{3, 1},
	}
	for _, tt := range tests {
		if got := LinearToSRGB(tt.in); !near(got, tt.want) {
			t.Errorf("LinearToSRGB(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestClipNear(t *testing.T) {
	v := func(x, y, z, w float32) clipVertex { return clipVertex{clip: mgl32.Vec4{x, y, z, w}} }
	tests := []struct {
		name string
		tri  [3]clipVertex
		want int
	}{
		{"inside", [3]clipVertex{v(0, 0, 0, 1), v(1, 0, 0, 1), v(0, 1, 0, 1)}, 3},
		{"behind", [3]clipVertex{v(0, 0, -2, 1), v(1, 0, -2, 1), v(0, 1, -2, 1)}, 0},
		{"one behind", [3]clipVertex{v(0, 0, -2, 1), v(1, 0, 0, 1), v(0, 1, 0, 1)}, 4},
		{"two behind", [3]clipVertex{v(0, 0, -2, 1), v(1, 0, -2, 1), v(0, 1, 0, 1)}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := clipNear(tt.tri)
			if len(got) != tt.want {
				t.Fatalf("len(clipNear()) = %d, want %d", len(got), tt.want)
			}
			for _, c := range got {
				if c.clip[2]+c.clip[3] < -1e-6 {
					t.Errorf("clipped vertex %v lies behind the near plane", c.clip)
				}
			}
		})
	}
}
