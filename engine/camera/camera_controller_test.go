package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func near3(a, b mgl32.Vec3, eps float32) bool {
	return a.Sub(b).Len() <= eps
}

func TestTransformationLooksAtTarget(t *testing.T) {
	tests := []struct {
		name      string
		azimuth   float32
		elevation float32
	}{
		{"front", 0, 0},
		{"side", math.Pi / 2, 0},
		{"above", 0.3, 1.0},
		{"below", -2.0, -0.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := mgl32.Vec3{1, 2, 3}
			cc := NewCameraController(WithOrbit(target, 4, tt.azimuth, tt.elevation))
			tr := cc.Transformation()

			if !near3(tr.Translation, cc.Position(), 1e-4) {
				t.Errorf("Translation = %v, want %v", tr.Translation, cc.Position())
			}
			forward := tr.Rotation.Rotate(mgl32.Vec3{0, 0, -1})
			want := target.Sub(cc.Position()).Normalize()
			if !near3(forward, want, 1e-4) {
				t.Errorf("view direction = %v, want %v", forward, want)
			}
			if d := cc.Position().Sub(target).Len(); math.Abs(float64(d-4)) > 1e-4 {
				t.Errorf("distance to target = %v, want 4", d)
			}
		})
	}
}

func TestZoomAndElevationClamp(t *testing.T) {
	cc := NewCameraController(WithOrbit(mgl32.Vec3{}, 1, 0, 0), WithLimits(0.5, 2, -0.5, 0.5))
	for range 100 {
		cc.Zoom(1)
		cc.OrbitUp()
	}
	if cc.Radius() != 0.5 {
		t.Errorf("Radius() = %v, want 0.5", cc.Radius())
	}
	if cc.Elevation() != 0.5 {
		t.Errorf("Elevation() = %v, want 0.5", cc.Elevation())
	}
	cc.SetRadius(10)
	if cc.Radius() != 2 {
		t.Errorf("Radius() = %v, want 2", cc.Radius())
	}
}

func TestPanKeepsOrbit(t *testing.T) {
	cc := NewCameraController(WithOrbit(mgl32.Vec3{}, 3, 0.4, 0.2))
	before := cc.Position().Sub(cc.Target())
	cc.PanRight(2)
	cc.PanUp(-1)
	cc.PanForward(0.5)
	after := cc.Position().Sub(cc.Target())
	if !near3(after, before, 1e-5) {
		t.Errorf("offset after pan = %v, want %v", after, before)
	}
	if cc.Target().ApproxEqual(mgl32.Vec3{}) {
		t.Error("Target() unchanged by panning")
	}
}

func TestFrameBounds(t *testing.T) {
	cc := NewCameraController()
	cc.FrameBounds(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 3, 1}, 60)
	if !cc.Target().ApproxEqual(mgl32.Vec3{0, 1, 0}) {
		t.Errorf("Target() = %v, want (0, 1, 0)", cc.Target())
	}
	// half diagonal sqrt(6) over sin(30°)
	want := float32(2 * math.Sqrt(6))
	if math.Abs(float64(cc.Radius()-want)) > 1e-4 {
		t.Errorf("Radius() = %v, want %v", cc.Radius(), want)
	}
}

func TestWithEye(t *testing.T) {
	tests := []struct {
		name   string
		eye    mgl32.Vec3
		target mgl32.Vec3
	}{
		{"front", mgl32.Vec3{0, 0, 3}, mgl32.Vec3{}},
		{"offset", mgl32.Vec3{2, 1.5, -1}, mgl32.Vec3{0, 0.5, 0}},
		{"cornell", mgl32.Vec3{0, 1, 3.2}, mgl32.Vec3{0, 1, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cc := NewCameraController(WithEye(tt.eye, tt.target))
			if !near3(cc.Position(), tt.eye, 1e-4) {
				t.Errorf("Position() = %v, want %v", cc.Position(), tt.eye)
			}
			if cc.Target() != tt.target {
				t.Errorf("Target() = %v, want %v", cc.Target(), tt.target)
			}
		})
	}
}

func TestWithSpeedsKeepsDefaults(t *testing.T) {
	cc := NewCameraController(WithOrbit(mgl32.Vec3{}, 2, 0, 0), WithSpeeds(0.5, 0, -1, 0))
	cc.OrbitRight()
	if got := cc.Azimuth(); math.Abs(float64(got-0.5)) > 1e-6 {
		t.Errorf("Azimuth() = %v, want 0.5", got)
	}
	cc.Zoom(1)
	if got := cc.Radius(); math.Abs(float64(got-1.5)) > 1e-5 {
		t.Errorf("Radius() = %v, want 1.5 with the default zoom speed", got)
	}
}
