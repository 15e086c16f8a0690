// Package config holds the camera, sensor, pipeline and output settings consumed by the simulator.
package config

import "math"

// ChipTiming describes how long the sensor exposes and reads out each sub-frame, in seconds.
type ChipTiming struct {
	// ExposureTime is the integration time of one sub-frame.
	ExposureTime float64
	// ReadoutTime is the time needed to read out one sub-frame.
	ReadoutTime float64
	// PauseTime is the idle time after the last sub-frame of a frame.
	PauseTime float64
}

// DefaultChipTiming returns exposure and readout of 1/60 s each and no pause.
func DefaultChipTiming() ChipTiming {
	return ChipTiming{
		ExposureTime: 1.0 / 60.0,
		ReadoutTime:  1.0 / 60.0,
		PauseTime:    0,
	}
}

// ChipTimingFromSubFramesPerSecond returns a timing with zero exposure and a readout
// time matching the requested sub-frame rate.
//
// Parameters:
//   - sfps: sub-frames per second, must be positive
//
// Returns:
//   - ChipTiming: the derived timing
func ChipTimingFromSubFramesPerSecond(sfps float64) ChipTiming {
	return ChipTiming{
		ExposureTime: 0,
		ReadoutTime:  1.0 / sfps,
		PauseTime:    0,
	}
}

// SubFrameDuration returns exposure plus readout time in microseconds.
func (c ChipTiming) SubFrameDuration() int64 {
	return int64(math.Round((c.ExposureTime + c.ReadoutTime) * 1e6))
}

// FrameDuration returns the duration of a frame made of the given number of sub-frames, in microseconds.
//
// Parameters:
//   - subFrames: number of sub-frames per frame
//
// Returns:
//   - int64: subFrames * SubFrameDuration + pause, in microseconds
func (c ChipTiming) FrameDuration(subFrames int) int64 {
	return c.SubFrameDuration()*int64(subFrames) + int64(math.Round(c.PauseTime*1e6))
}

// FramesPerSecond returns the frame rate implied by FrameDuration.
func (c ChipTiming) FramesPerSecond(subFrames int) float64 {
	d := c.FrameDuration(subFrames)
	if d <= 0 {
		return 0
	}
	return 1e6 / float64(d)
}
