package config

// Physical constants used by the time-of-flight sensor model.
const (
	// SpeedOfLight in meters per second.
	SpeedOfLight = 299792458.0
	// PlanckConstant in joule seconds.
	PlanckConstant = 6.62607015e-34
)

// PMD holds the parameters of a photonic mixer device (time-of-flight) sensor.
type PMD struct {
	// PixelSize is the light-sensitive pixel area in square micrometers.
	PixelSize float64
	// PixelContrast is the demodulation contrast in [0, 1].
	PixelContrast float64
	// ModulationFrequency of the light source in Hz.
	ModulationFrequency float64
	// Wavelength of the light source in nanometers.
	Wavelength float64
	// QuantumEfficiency is the fraction of photons that produce an electron.
	QuantumEfficiency float64
	// MaxElectrons is the pixel well capacity; it maps to digital number 1.
	MaxElectrons int
}

// DefaultPMD returns a 12x12 µm pixel at 10 MHz modulation and 880 nm.
func DefaultPMD() PMD {
	return PMD{
		PixelSize:           12.0 * 12.0,
		PixelContrast:       0.75,
		ModulationFrequency: 10e6,
		Wavelength:          880.0,
		QuantumEfficiency:   0.8,
		MaxElectrons:        100000,
	}
}

// MaxRange returns the unambiguous range of the modulation frequency in meters.
func (p PMD) MaxRange() float64 {
	return SpeedOfLight / (2 * p.ModulationFrequency)
}

// PhotonEnergy returns the energy of one photon at the configured wavelength in joules.
func (p PMD) PhotonEnergy() float64 {
	return PlanckConstant * SpeedOfLight / (p.Wavelength * 1e-9)
}
