package simulator

import (
	"fmt"

	"github.com/Carmen-Shannon/camsim-go/engine/config"
	"github.com/Carmen-Shannon/camsim-go/engine/scene"
)

// ConfigError is the panic value raised by Simulate when the configuration cannot be simulated.
// Such errors are caller misuse and are detected before any pass runs.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "simulator: " + e.Reason
}

func configPanic(format string, args ...any) {
	panic(&ConfigError{Reason: fmt.Sprintf(format, args...)})
}

// validate panics with a *ConfigError on the first fatal configuration problem.
func validate(s scene.Scene, p config.Pipeline, o config.Output) {
	lights := s.Lights()
	if len(lights) == 0 {
		configPanic("scene has no lights")
	}
	if n := len(s.LightAnimations()); n != len(lights) {
		configPanic("scene has %d lights but %d light animations", len(lights), n)
	}
	objects := s.Objects()
	if n := len(s.ObjectAnimations()); n != len(objects) {
		configPanic("scene has %d objects but %d object animations", len(objects), n)
	}
	sw, sh := p.SpatialSamples[0], p.SpatialSamples[1]
	if sw < 1 || sh < 1 || sw%2 == 0 || sh%2 == 0 {
		configPanic("spatial samples %dx%d are not positive odd numbers", sw, sh)
	}
	if n := len(p.SpatialSampleWeights); n > 0 && n != sw*sh {
		configPanic("%d spatial sample weights given for %dx%d samples", n, sw, sh)
	}
	if p.TemporalSamples < 1 {
		configPanic("temporal samples %d < 1", p.TemporalSamples)
	}
	if p.PreprocLensDistortion && p.PostprocLensDistortion {
		configPanic("preprocessing and postprocessing lens distortion are mutually exclusive")
	}
	if p.PostprocLensDistortion && (o.Indices || o.Flow()) {
		configPanic("postprocessing lens distortion cannot be applied to indices or flow outputs")
	}
}
