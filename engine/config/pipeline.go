package config

// Pipeline holds the feature toggles and numeric parameters of the simulation pipeline.
// Changing any field invalidates compiled programs and allocated targets.
type Pipeline struct {
	// NearClippingPlane and FarClippingPlane bound the rendered depth range in meters.
	NearClippingPlane float32
	FarClippingPlane  float32

	// Mipmapping enables mipmapped texture sampling.
	Mipmapping bool
	// AnisotropicFiltering enables anisotropic texture filtering.
	AnisotropicFiltering bool
	// Transparency discards fragments of materials with opacity below one half.
	Transparency bool
	// NormalMapping applies material bump and normal maps.
	NormalMapping bool
	// AmbientLight adds the materials' ambient term.
	AmbientLight bool

	// ThinLensVignetting attenuates irradiance by cos^4 of the angle to the optical axis.
	ThinLensVignetting bool
	// ThinLensApertureDiameter in millimeters.
	ThinLensApertureDiameter float32
	// ThinLensFocalLength in millimeters.
	ThinLensFocalLength float32

	// ShotNoise adds Poisson-like electron noise to PMD digital numbers.
	ShotNoise bool
	// GaussianWhiteNoise adds normally distributed noise to the RGB result.
	GaussianWhiteNoise       bool
	GaussianWhiteNoiseMean   float32
	GaussianWhiteNoiseStddev float32

	// PreprocLensDistortion distorts geometry per vertex.
	PreprocLensDistortion bool
	// PreprocLensDistortionMargin enlarges the region in which vertices are distorted, relative to the image.
	PreprocLensDistortionMargin float32
	// PostprocLensDistortion resamples the finished images per pixel.
	PostprocLensDistortion bool

	// ShadowMaps enables cube shadow maps for lights that request them.
	ShadowMaps bool
	// ShadowMapFiltering enables percentage closer filtering of shadow lookups.
	ShadowMapFiltering bool
	// ReflectiveShadowMaps enables a single indirect bounce from reflective shadow maps.
	ReflectiveShadowMaps bool
	// LightPowerFactorMaps enables angular power factor maps of lights.
	LightPowerFactorMaps bool

	// SubFrameTemporalSampling gives each sub-frame its own timestamp.
	SubFrameTemporalSampling bool

	// SpatialSamples is the number of samples per pixel in x and y. Both must be odd.
	SpatialSamples [2]int
	// SpatialSampleWeights optionally weights the spatial samples; empty means uniform.
	SpatialSampleWeights []float32
	// TemporalSamples is the number of time samples accumulated per sub-frame.
	TemporalSamples int
}

// DefaultPipeline returns the pipeline defaults: most quality features on, noise,
// distortion and shadows off, no oversampling.
func DefaultPipeline() Pipeline {
	return Pipeline{
		NearClippingPlane:        0.1,
		FarClippingPlane:         100,
		Mipmapping:               true,
		AnisotropicFiltering:     true,
		NormalMapping:            true,
		ThinLensApertureDiameter: 8.89,
		ThinLensFocalLength:      16,
		GaussianWhiteNoiseMean:   0,
		GaussianWhiteNoiseStddev: 0.05,
		ShadowMapFiltering:       true,
		SubFrameTemporalSampling: true,
		SpatialSamples:           [2]int{1, 1},
		TemporalSamples:          1,
	}
}

// SpatialOversampling reports whether more than one sample per pixel is taken.
func (p Pipeline) SpatialOversampling() bool {
	return p.SpatialSamples[0] != 1 || p.SpatialSamples[1] != 1
}

// TemporalOversampling reports whether more than one time sample is accumulated.
func (p Pipeline) TemporalOversampling() bool {
	return p.TemporalSamples > 1
}

// Oversampling reports whether either spatial or temporal oversampling is active.
func (p Pipeline) Oversampling() bool {
	return p.SpatialOversampling() || p.TemporalOversampling()
}

// Clone returns a copy that does not share the weights slice.
func (p Pipeline) Clone() Pipeline {
	q := p
	q.SpatialSampleWeights = append([]float32(nil), p.SpatialSampleWeights...)
	return q
}
