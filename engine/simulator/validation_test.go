package simulator

import (
	"strings"
	"testing"

	"github.com/Carmen-Shannon/camsim-go/engine/animation"
	"github.com/Carmen-Shannon/camsim-go/engine/config"
	"github.com/Carmen-Shannon/camsim-go/engine/light"
	"github.com/Carmen-Shannon/camsim-go/engine/scene"
)

// configErrorOf runs fn and returns the *ConfigError it panics with, or nil.
func configErrorOf(t *testing.T, fn func()) (err *ConfigError) {
	t.Helper()
	defer func() {
		if r := recover(); r != nil {
			ce, ok := r.(*ConfigError)
			if !ok {
				t.Fatalf("panic value = %v (%T), want *ConfigError", r, r)
			}
			err = ce
		}
	}()
	fn()
	return nil
}

func TestSimulateRejectsInvalidConfiguration(t *testing.T) {
	withPipeline := func(edit func(*config.Pipeline)) SimulatorBuilderOption {
		p := config.DefaultPipeline()
		edit(&p)
		return WithPipeline(p)
	}
	tests := []struct {
		name    string
		options []SimulatorBuilderOption
		reason  string
	}{
		{
			name:    "no lights",
			options: []SimulatorBuilderOption{WithScene(scene.NewScene("dark"))},
			reason:  "no lights",
		},
		{
			name: "light animation count",
			options: []SimulatorBuilderOption{WithScene(scene.NewScene("s",
				scene.WithLights(light.NewLight(light.LightTypePoint)),
				scene.WithLightAnimations(&animation.Animation{}, &animation.Animation{})))},
			reason: "light animations",
		},
		{
			name:    "even spatial samples",
			options: []SimulatorBuilderOption{withPipeline(func(p *config.Pipeline) { p.SpatialSamples = [2]int{2, 1} })},
			reason:  "positive odd",
		},
		{
			name: "weight count",
			options: []SimulatorBuilderOption{withPipeline(func(p *config.Pipeline) {
				p.SpatialSamples = [2]int{3, 3}
				p.SpatialSampleWeights = []float32{1, 2, 3}
			})},
			reason: "weights",
		},
		{
			name:    "temporal samples",
			options: []SimulatorBuilderOption{withPipeline(func(p *config.Pipeline) { p.TemporalSamples = 0 })},
			reason:  "temporal samples",
		},
		{
			name: "both distortions",
			options: []SimulatorBuilderOption{withPipeline(func(p *config.Pipeline) {
				p.PreprocLensDistortion = true
				p.PostprocLensDistortion = true
			})},
			reason: "mutually exclusive",
		},
		{
			name: "postprocessed flow",
			options: []SimulatorBuilderOption{
				withPipeline(func(p *config.Pipeline) { p.PostprocLensDistortion = true }),
				WithOutput(config.Output{RGB: true, ForwardFlow2D: true}),
			},
			reason: "indices or flow",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, f := newFakeSimulator(tt.options...)
			err := configErrorOf(t, func() { s.Simulate(0) })
			if err == nil {
				t.Fatal("Simulate() did not panic")
			}
			if !strings.Contains(err.Error(), tt.reason) {
				t.Errorf("error = %q, want it to mention %q", err.Error(), tt.reason)
			}
			if len(f.scenes) != 0 || len(f.screens) != 0 {
				t.Errorf("%d passes ran before the configuration error", len(f.scenes)+len(f.screens))
			}
		})
	}
}

func TestSimulateAcceptsDefaultConfiguration(t *testing.T) {
	s, _ := newFakeSimulator()
	if err := configErrorOf(t, func() { s.Simulate(0) }); err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}
}
