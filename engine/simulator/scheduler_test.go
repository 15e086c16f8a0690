package simulator

import (
	"testing"

	"github.com/Carmen-Shannon/camsim-go/engine/animation"
	"github.com/Carmen-Shannon/camsim-go/engine/config"
	"github.com/Carmen-Shannon/camsim-go/engine/light"
	"github.com/Carmen-Shannon/camsim-go/engine/model"
	"github.com/Carmen-Shannon/camsim-go/engine/scene"
)

func keyframes(ts ...int64) *animation.Animation {
	a := &animation.Animation{}
	for _, t := range ts {
		a.AddKeyframe(t, animation.Identity())
	}
	return a
}

func TestTimestampBounds(t *testing.T) {
	tests := []struct {
		name      string
		camera    *animation.Animation
		light     *animation.Animation
		object    *animation.Animation
		wantStart int64
		wantEnd   int64
	}{
		{"all empty", nil, keyframes(), keyframes(), 0, 0},
		{"camera only", keyframes(100, 900), keyframes(), keyframes(), 0, 900},
		{"all animated", keyframes(100, 900), keyframes(50, 300), keyframes(200, 1200), 50, 1200},
		{"negative start", keyframes(-500, 10), keyframes(0), keyframes(0), -500, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := scene.NewScene("s",
				scene.WithLights(light.NewLight(light.LightTypePoint)),
				scene.WithLightAnimations(tt.light),
			)
			sc.AddObject(model.NewObject(), tt.object)
			s, _ := newFakeSimulator(WithScene(sc), WithCameraAnimation(tt.camera))
			if got := s.StartTimestamp(); got != tt.wantStart {
				t.Errorf("StartTimestamp() = %d, want %d", got, tt.wantStart)
			}
			if got := s.EndTimestamp(); got != tt.wantEnd {
				t.Errorf("EndTimestamp() = %d, want %d", got, tt.wantEnd)
			}
		})
	}
}

func TestTimestampBoundsFollowSetters(t *testing.T) {
	s, _ := newFakeSimulator(WithCameraAnimation(keyframes(0, 1000)))
	if got := s.EndTimestamp(); got != 1000 {
		t.Fatalf("EndTimestamp() = %d, want 1000", got)
	}
	s.SetCameraAnimation(keyframes(0, 5000))
	if got := s.EndTimestamp(); got != 5000 {
		t.Errorf("EndTimestamp() = %d after SetCameraAnimation, want 5000", got)
	}
	s.SetCameraAnimation(nil)
	if got := s.EndTimestamp(); got != 0 {
		t.Errorf("EndTimestamp() = %d after clearing the animation, want 0", got)
	}
	if s.CameraAnimation() == nil {
		t.Error("CameraAnimation() = nil, want an empty animation")
	}
}

func TestFrameTiming(t *testing.T) {
	timing := config.ChipTiming{ExposureTime: 0.001, ReadoutTime: 0.004, PauseTime: 0.01}
	tests := []struct {
		name         string
		output       config.Output
		wantSub      int
		wantDuration int64
	}{
		{"rgb", config.Output{RGB: true}, 1, 15000},
		{"pmd", config.Output{PMD: true}, 4, 30000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newFakeSimulator(WithChipTiming(timing), WithOutput(tt.output))
			if got := s.SubFrames(); got != tt.wantSub {
				t.Errorf("SubFrames() = %d, want %d", got, tt.wantSub)
			}
			if got := s.SubFrameDuration(); got != 5000 {
				t.Errorf("SubFrameDuration() = %d, want 5000", got)
			}
			if got := s.FrameDuration(); got != tt.wantDuration {
				t.Errorf("FrameDuration() = %d, want %d", got, tt.wantDuration)
			}
			if got, want := s.FramesPerSecond(), 1e6/float64(tt.wantDuration); got != want {
				t.Errorf("FramesPerSecond() = %v, want %v", got, want)
			}
		})
	}
}

func TestSubFrameTimestamps(t *testing.T) {
	timing := config.ChipTiming{ExposureTime: 0.001, ReadoutTime: 0.001}
	tests := []struct {
		name     string
		temporal bool
		want     []int64
	}{
		{"temporal sampling", true, []int64{100, 2100, 4100, 6100}},
		{"shared timestamp", false, []int64{100, 100, 100, 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := config.DefaultPipeline()
			p.SubFrameTemporalSampling = tt.temporal
			s, _ := newFakeSimulator(WithChipTiming(timing), WithPipeline(p), WithOutput(config.Output{PMD: true}))
			s.Simulate(100)
			for i, want := range tt.want {
				if got := s.Timestamp(i); got != want {
					t.Errorf("Timestamp(%d) = %d, want %d", i, got, want)
				}
			}
			if got := s.Timestamp(-1); got != 100 {
				t.Errorf("Timestamp(-1) = %d, want 100", got)
			}
			if got := s.Timestamp(4); got != 0 {
				t.Errorf("Timestamp(4) = %d, want 0", got)
			}
		})
	}
}
