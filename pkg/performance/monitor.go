package performance

import (
	"sync"
	"time"
)

// Monitor tracks per-frame decode cost during playback or scrubbing.
type Monitor struct {
	decodeTimes   *RollingAverage
	skippedFrames int
	totalFrames   int
	startTime     time.Time
	mu            sync.RWMutex
}

// Report contains aggregated decode metrics over the rolling window.
type Report struct {
	AvgDecodeMs   float64 // Average decode time in milliseconds
	SkipRate      float64 // Percentage of frames skipped instead of decoded
	TotalFrames   int
	SkippedFrames int
	IsHealthy     bool // True when decode cost leaves real-time headroom
	UptimeSeconds int64
}

// NewMonitor creates a decode monitor. windowSize determines how many frames
// to average (120 = 2 seconds at 60fps).
func NewMonitor(windowSize int) *Monitor {
	return &Monitor{
		decodeTimes: NewRollingAverage(windowSize),
		startTime:   time.Now(),
	}
}

// RecordDecode records the time a single frame took to decode and convert.
func (m *Monitor) RecordDecode(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.decodeTimes.Add(duration)
	m.totalFrames++
}

// RecordSkipped increments the skipped-frame counter.
func (m *Monitor) RecordSkipped() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.skippedFrames++
	m.totalFrames++
}

// GetReport generates a report with current metrics.
func (m *Monitor) GetReport() Report {
	m.mu.RLock()
	defer m.mu.RUnlock()

	avgDecode := m.decodeTimes.Average()

	skipRate := 0.0
	if m.totalFrames > 0 {
		skipRate = (float64(m.skippedFrames) / float64(m.totalFrames)) * 100.0
	}

	return Report{
		AvgDecodeMs:   float64(avgDecode.Microseconds()) / 1000.0,
		SkipRate:      skipRate,
		TotalFrames:   m.totalFrames,
		SkippedFrames: m.skippedFrames,
		IsHealthy:     skipRate < 1.0 && avgDecode.Milliseconds() < 33,
		UptimeSeconds: int64(time.Since(m.startTime).Seconds()),
	}
}

// Reset clears all counters, e.g. when switching sources.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.decodeTimes.Reset()
	m.skippedFrames = 0
	m.totalFrames = 0
	m.startTime = time.Now()
}
