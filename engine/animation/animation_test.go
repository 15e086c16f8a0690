package animation

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func pose(x float32, angle float32, s float32) Transformation {
	return NewTransformation(
		mgl32.Vec3{x, 0, 0},
		mgl32.QuatRotate(mgl32.DegToRad(angle), mgl32.Vec3{0, 1, 0}),
		mgl32.Vec3{s, s, s},
	)
}

func TestEmptyAnimationIsIdentity(t *testing.T) {
	var a Animation
	for _, ts := range []int64{-100, 0, 1e9} {
		if got := a.Interpolate(ts); !got.ApproxEqual(Identity()) {
			t.Errorf("Interpolate(%d) = %v, want identity", ts, got)
		}
	}
	if a.StartTime() != 0 || a.EndTime() != 0 {
		t.Errorf("StartTime, EndTime = %d, %d, want 0, 0", a.StartTime(), a.EndTime())
	}
}

func TestAddKeyframeKeepsOrder(t *testing.T) {
	a := NewAnimation()
	for _, ts := range []int64{50, 10, 90, 30, 70, 10} {
		a.AddKeyframe(ts, pose(float32(ts), 0, 1))
	}
	want := []int64{10, 30, 50, 70, 90}
	kfs := a.Keyframes()
	if len(kfs) != len(want) {
		t.Fatalf("Len() = %d, want %d", len(kfs), len(want))
	}
	for i, kf := range kfs {
		if kf.Timestamp != want[i] {
			t.Errorf("keyframe %d timestamp = %d, want %d", i, kf.Timestamp, want[i])
		}
	}
}

func TestAddKeyframeOverwrites(t *testing.T) {
	a := NewAnimation()
	a.AddKeyframe(0, pose(0, 0, 1))
	a.AddKeyframe(100, pose(1, 0, 1))
	a.AddKeyframe(200, pose(2, 0, 1))
	a.AddKeyframe(100, pose(5, 0, 1))

	if a.Len() != 3 {
		t.Errorf("Len() = %d, want 3", a.Len())
	}
	if got := a.Interpolate(100).Translation[0]; got != 5 {
		t.Errorf("Interpolate(100).Translation.X = %v, want 5", got)
	}
}

func TestInterpolate(t *testing.T) {
	a := NewAnimation(
		Keyframe{Timestamp: 1000, Transformation: pose(0, 0, 1)},
		Keyframe{Timestamp: 3000, Transformation: pose(4, 90, 3)},
	)

	tests := []struct {
		name string
		t    int64
		want Transformation
	}{
		{"before start clamps", -5000, pose(0, 0, 1)},
		{"at start", 1000, pose(0, 0, 1)},
		{"midpoint", 2000, pose(2, 45, 2)},
		{"quarter", 1500, pose(1, 22.5, 1.5)},
		{"at end", 3000, pose(4, 90, 3)},
		{"after end clamps", 9000, pose(4, 90, 3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Interpolate(tt.t); !got.ApproxEqual(tt.want) {
				t.Errorf("Interpolate(%d) = %+v, want %+v", tt.t, got, tt.want)
			}
		})
	}
}

func TestInterpolateExactKeyframeIsUnblended(t *testing.T) {
	mid := pose(7, 33, 2)
	a := NewAnimation(
		Keyframe{Timestamp: 0, Transformation: pose(0, 0, 1)},
		Keyframe{Timestamp: 10, Transformation: mid},
		Keyframe{Timestamp: 20, Transformation: pose(1, 0, 1)},
	)
	if got := a.Interpolate(10); got != mid {
		t.Errorf("Interpolate(10) = %+v, want %+v", got, mid)
	}
}

func TestTransformationMatrixRoundTrip(t *testing.T) {
	tr := NewTransformation(
		mgl32.Vec3{1, -2, 3},
		mgl32.QuatRotate(0.7, mgl32.Vec3{1, 1, 0}.Normalize()),
		mgl32.Vec3{2, 0.5, 1.5},
	)
	if got := FromMatrix(tr.Matrix()); !got.ApproxEqual(tr) {
		t.Errorf("FromMatrix(Matrix()) = %+v, want %+v", got, tr)
	}
}

func TestIdentityMatrix(t *testing.T) {
	if got := Identity().Matrix(); !got.ApproxEqual(mgl32.Ident4()) {
		t.Errorf("Identity().Matrix() = %v, want identity", got)
	}
}

func TestLoad(t *testing.T) {
	src := `# camera path
time 0 pos:cart 0 0 1
time 1.5 pos:cart 2 0 1 scale 2 2 2

time 3 pos:cyl 1 90 0.5 rot:axisangle 90 0 1 0
`
	var a Animation
	if err := a.Load(strings.NewReader(src)); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if a.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", a.Len())
	}
	kfs := a.Keyframes()
	if kfs[1].Timestamp != 1500000 {
		t.Errorf("keyframe 1 timestamp = %d, want 1500000", kfs[1].Timestamp)
	}
	if want := (mgl32.Vec3{2, 2, 2}); !kfs[1].Transformation.Scale.ApproxEqual(want) {
		t.Errorf("keyframe 1 scale = %v, want %v", kfs[1].Transformation.Scale, want)
	}
	if want := (mgl32.Vec3{-1, 0.5, 0}); !vecNear(kfs[2].Transformation.Translation, want, 1e-5) {
		t.Errorf("keyframe 2 translation = %v, want %v", kfs[2].Transformation.Translation, want)
	}
	wantRot := mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0})
	if !kfs[2].Transformation.Rotation.OrientationEqualThreshold(wantRot, 1e-5) {
		t.Errorf("keyframe 2 rotation = %v, want %v", kfs[2].Transformation.Rotation, wantRot)
	}
}

func TestLoadInvalidTokenRestoresKeyframes(t *testing.T) {
	a := NewAnimation(Keyframe{Timestamp: 42, Transformation: Identity()})
	err := a.Load(strings.NewReader("time 0 pos:cart 1 2 3\ntime 1 wobble 3\n"))
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Load() error = %v, want ErrInvalidToken", err)
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("Load() error = %q, want line number", err)
	}
	if a.Len() != 1 || a.StartTime() != 42 {
		t.Errorf("keyframes after failed load = %v, want original", a.Keyframes())
	}
}

func TestLoadMissingArguments(t *testing.T) {
	var a Animation
	if err := a.Load(strings.NewReader("time 0 scale 1 2")); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Load() error = %v, want ErrInvalidToken", err)
	}
}

func TestQuatFromDirection(t *testing.T) {
	q := QuatFromDirection(mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0})
	if got := q.Rotate(mgl32.Vec3{0, 0, 1}); !vecNear(got, mgl32.Vec3{1, 0, 0}, 1e-5) {
		t.Errorf("rotated +Z = %v, want +X", got)
	}
	if got := q.Rotate(mgl32.Vec3{0, 1, 0}); !vecNear(got, mgl32.Vec3{0, 1, 0}, 1e-5) {
		t.Errorf("rotated +Y = %v, want +Y", got)
	}
}

func TestTransformationApproxEqualNearZero(t *testing.T) {
	a := NewTransformation(mgl32.Vec3{-1, 0.5, 0}, mgl32.QuatIdent(), mgl32.Vec3{1, 1, 1})
	b := NewTransformation(mgl32.Vec3{-1, 0.5, 4.371139e-08}, mgl32.QuatIdent(), mgl32.Vec3{1, 1, 1})
	if !a.ApproxEqual(b) {
		t.Errorf("ApproxEqual(%v, %v) = false, want true", a.Translation, b.Translation)
	}
	b.Translation[2] = 1e-3
	if a.ApproxEqual(b) {
		t.Errorf("ApproxEqual(%v, %v) = true, want false", a.Translation, b.Translation)
	}
}
