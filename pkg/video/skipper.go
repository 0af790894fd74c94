package video

import (
	"log"
	"sync"
	"time"

	"frame-reel/pkg/performance"
)

// SkipMode represents the current frame skipping strategy
type SkipMode int

const (
	ModeNormal SkipMode = iota // Decode every frame
	ModeSkip2                  // Decode every 2nd frame
	ModeSkip3                  // Decode every 3rd frame
)

// String returns human-readable mode name
func (m SkipMode) String() string {
	switch m {
	case ModeNormal:
		return "Normal"
	case ModeSkip2:
		return "Skip2"
	case ModeSkip3:
		return "Skip3"
	default:
		return "Unknown"
	}
}

// Stride returns how far the playhead advances per presented frame.
func (m SkipMode) Stride() int {
	switch m {
	case ModeSkip2:
		return 2
	case ModeSkip3:
		return 3
	default:
		return 1
	}
}

// Skipper adapts the decode stride to measured decode cost so playback keeps
// real-time pace on sources that are too slow to decode frame-by-frame. It
// trades smoothness for pace: in Skip2 the playhead advances two source
// frames per presented frame.
type Skipper struct {
	mode            SkipMode
	consecutiveSlow int
	consecutiveGood int

	// Thresholds for performance classification
	slowThreshold time.Duration
	goodThreshold time.Duration

	// Hysteresis counters to prevent mode thrashing
	enterSkip2After   int
	enterSkip3After   int
	exitToNormalAfter int
	exitToSkip2After  int

	mu sync.Mutex
}

// NewSkipper creates an adaptive skipper whose defaults count an average
// decode above 30ms as slow and below 20ms as good.
func NewSkipper() *Skipper {
	return &Skipper{
		mode:          ModeNormal,
		slowThreshold: 30 * time.Millisecond,
		goodThreshold: 20 * time.Millisecond,

		enterSkip2After:   3,
		enterSkip3After:   5,
		exitToNormalAfter: 60,
		exitToSkip2After:  30,
	}
}

// Observe folds the latest decode metrics into the mode state machine and
// returns the active mode. Call once per presented frame.
func (s *Skipper) Observe(report performance.Report) SkipMode {
	s.mu.Lock()
	defer s.mu.Unlock()

	avgDecode := time.Duration(report.AvgDecodeMs * float64(time.Millisecond))

	if avgDecode > s.slowThreshold {
		s.consecutiveSlow++
		s.consecutiveGood = 0
	} else if avgDecode < s.goodThreshold {
		s.consecutiveGood++
		s.consecutiveSlow = 0
	} else {
		// Middle zone: hold the current mode.
		s.consecutiveSlow = 0
		s.consecutiveGood = 0
	}

	switch s.mode {
	case ModeNormal:
		if s.consecutiveSlow >= s.enterSkip2After {
			s.mode = ModeSkip2
			s.consecutiveSlow = 0
			log.Printf("Skipper: decode too slow, entering Skip2 (every 2nd frame)")
		}

	case ModeSkip2:
		if s.consecutiveSlow >= s.enterSkip3After {
			s.mode = ModeSkip3
			s.consecutiveSlow = 0
			log.Printf("Skipper: still too slow, entering Skip3 (every 3rd frame)")
		} else if s.consecutiveGood >= s.exitToNormalAfter {
			s.mode = ModeNormal
			s.consecutiveGood = 0
			log.Printf("Skipper: decode recovered, returning to Normal")
		}

	case ModeSkip3:
		if s.consecutiveGood >= s.exitToSkip2After {
			s.mode = ModeSkip2
			s.consecutiveGood = 0
			log.Printf("Skipper: decode improving, upgrading to Skip2")
		}
	}

	return s.mode
}

// Next returns the next frame index to request from the reader given the
// current playhead and direction (+1 forward, -1 backward).
func (s *Skipper) Next(current, direction int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return current + direction*s.mode.Stride()
}

// Mode returns the current skip mode.
func (s *Skipper) Mode() SkipMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Reset returns the skipper to Normal mode, e.g. when switching sources.
func (s *Skipper) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModeNormal {
		log.Printf("Skipper: reset to Normal mode")
	}
	s.mode = ModeNormal
	s.consecutiveSlow = 0
	s.consecutiveGood = 0
}

// SetThresholds allows customizing performance thresholds for different
// hardware.
func (s *Skipper) SetThresholds(slow, good time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.slowThreshold = slow
	s.goodThreshold = good
}
