package profiler

import (
	"testing"
	"time"
)

func TestRecord(t *testing.T) {
	p := NewProfiler()
	for _, d := range []time.Duration{30 * time.Millisecond, 10 * time.Millisecond, 20 * time.Millisecond} {
		p.Record(d)
	}
	s := p.Stats()

	tests := []struct {
		name      string
		got, want time.Duration
	}{
		{"Min", s.Min, 10 * time.Millisecond},
		{"Max", s.Max, 30 * time.Millisecond},
		{"Avg", s.Avg, 20 * time.Millisecond},
		{"Total", s.Total, 60 * time.Millisecond},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
	if s.Frames != 3 {
		t.Errorf("Frames = %d, want 3", s.Frames)
	}
	if fps := s.FramesPerSecond(); fps != 50 {
		t.Errorf("FramesPerSecond() = %v, want 50", fps)
	}

	p.Reset()
	if s := p.Stats(); s.Frames != 0 || s.FramesPerSecond() != 0 {
		t.Errorf("Stats() after Reset = %+v, want zero", s)
	}
}

func TestMeasure(t *testing.T) {
	p := NewProfiler()
	called := false
	d := p.Measure(func() { called = true })
	if !called {
		t.Fatal("Measure did not run the function")
	}
	if s := p.Stats(); s.Frames != 1 || s.Total != d {
		t.Errorf("Stats() = %+v, want one frame of %v", s, d)
	}
}

func TestTickWaitsForInterval(t *testing.T) {
	p := NewProfiler()
	p.updateInterval = time.Hour
	if p.Tick() {
		t.Error("Tick() = true before the update interval elapsed")
	}
	p.updateInterval = 0
	if !p.Tick() {
		t.Error("Tick() = false after the update interval elapsed")
	}
}
