package simulator

import (
	"github.com/Carmen-Shannon/camsim-go/common"
)

// resolveTimestamps recomputes the animation bounds after an animation-affecting setter.
func (s *simulator) resolveTimestamps() {
	if !s.timestampGen.stale() {
		return
	}
	start, end := s.cameraAnimation.StartTime(), s.cameraAnimation.EndTime()
	for _, a := range s.scene.LightAnimations() {
		start = min(start, a.StartTime())
		end = max(end, a.EndTime())
	}
	for _, a := range s.scene.ObjectAnimations() {
		start = min(start, a.StartTime())
		end = max(end, a.EndTime())
	}
	s.startTimestamp, s.endTimestamp = start, end
	s.timestampGen.resolved()
	s.epochChanged()
	common.Logger().Debug("timestamps resolved", "start", start, "end", end)
}

func (s *simulator) StartTimestamp() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolveTimestamps()
	return s.startTimestamp
}

func (s *simulator) EndTimestamp() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolveTimestamps()
	return s.endTimestamp
}

func (s *simulator) SubFrames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.output.SubFrames()
}

func (s *simulator) SubFrameDuration() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chipTiming.SubFrameDuration()
}

func (s *simulator) FrameDuration() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameDuration()
}

func (s *simulator) FramesPerSecond() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chipTiming.FramesPerSecond(s.output.SubFrames())
}

func (s *simulator) NextFrameTimestamp() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolveTimestamps()
	if s.haveLastFrame {
		return s.lastFrameTimestamp + s.frameDuration()
	}
	return s.startTimestamp
}

func (s *simulator) frameDuration() int64 {
	return s.chipTiming.FrameDuration(s.output.SubFrames())
}

// subFrameTimestamps returns the timestamp grid of a frame starting at t.
func (s *simulator) subFrameTimestamps(t int64) []int64 {
	n := s.output.SubFrames()
	ts := make([]int64, n)
	sfd := s.chipTiming.SubFrameDuration()
	for i := range ts {
		ts[i] = t
		if s.pipeline.SubFrameTemporalSampling {
			ts[i] += int64(i) * sfd
		}
	}
	return ts
}
