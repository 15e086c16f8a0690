package profiler

import (
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/camsim-go/common"
)

// Stats summarizes the simulate durations recorded by a Profiler.
type Stats struct {
	Frames int
	Min    time.Duration
	Max    time.Duration
	Avg    time.Duration
	Total  time.Duration
}

// FramesPerSecond returns the number of frames simulated per second of wall time.
func (s Stats) FramesPerSecond() float64 {
	if s.Total <= 0 {
		return 0
	}
	return float64(s.Frames) / s.Total.Seconds()
}

// Profiler tracks simulate durations and memory statistics. Record accumulates per-frame
// durations for a run summary; Tick logs a rate and memory report at a fixed interval.
type Profiler struct {
	mu sync.Mutex

	stats Stats

	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler() *Profiler {
	return &Profiler{
		lastTime:       time.Now(),
		updateInterval: time.Second,
	}
}

// Measure runs fn and records its duration.
//
// Parameters:
//   - fn: the work to time, usually one Simulate call
//
// Returns:
//   - time.Duration: the measured duration
func (p *Profiler) Measure(fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	p.Record(d)
	return d
}

// Record adds one frame duration to the statistics.
//
// Parameters:
//   - d: the duration of the frame
func (p *Profiler) Record(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stats.Frames == 0 || d < p.stats.Min {
		p.stats.Min = d
	}
	if d > p.stats.Max {
		p.stats.Max = d
	}
	p.stats.Frames++
	p.stats.Total += d
	p.stats.Avg = p.stats.Total / time.Duration(p.stats.Frames)
}

// Stats returns a snapshot of the recorded durations.
//
// Returns:
//   - Stats: the statistics
func (p *Profiler) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// Reset drops the recorded durations.
func (p *Profiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats = Stats{}
}

// Tick should be called once per presented frame.
// Logs the frame rate and memory statistics when the update interval has elapsed.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frameCount++
	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()
	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024
	allocRateMB := float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	var maxPauseUs uint64
	// PauseNs is a circular buffer of the last 256 GC pauses
	startIdx := p.lastGCCount
	if gcCount-startIdx > 256 {
		startIdx = gcCount - 256
	}
	for i := startIdx; i < gcCount; i++ {
		maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
	}

	common.Logger().Info("profiler",
		"fps", fps,
		"avg_simulate", p.stats.Avg,
		"heap_mb", allocMB,
		"alloc_rate_mb_s", allocRateMB,
		"gc", gcCount,
		"max_pause_us", maxPauseUs,
		"sys_mb", sysMB)

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
