package main

import (
	"time"

	"frame-reel/pkg/performance"
	"frame-reel/pkg/reader"
	"frame-reel/pkg/video"
)

// playback drives a random-access reader along a timeline: forward, looping,
// or bouncing (forward then backward, frame by frame, through the same
// random-access path).
type playback struct {
	r      *reader.Reader
	frames int
	fps    float64

	rate    float64
	playing bool
	loop    bool
	bounce  bool

	current   int // last presented frame
	direction int // +1 forward, -1 backward (bounce)

	// playback timing
	acc      float64   // accumulated fractional frames
	lastTime time.Time // last wall-clock timestamp

	skipper *video.Skipper
	monitor *performance.Monitor
}

func newPlayback(r *reader.Reader, frames int, fps float64) *playback {
	return &playback{
		r:         r,
		frames:    frames,
		fps:       fps,
		rate:      1.0,
		playing:   true,
		loop:      true,
		direction: 1,
		lastTime:  time.Now(),
		skipper:   video.NewSkipper(),
		monitor:   performance.NewMonitor(120),
	}
}

// step decodes one frame off the playhead in either direction, outside the
// wall-clock pacing. Used for arrow-key scrubbing.
func (p *playback) step(delta int) error {
	target := p.current + delta
	if err := p.r.Decode(target, true, 1); err != nil {
		return err
	}
	p.current = clamp(target, 0, p.frames-1)
	p.acc = 0
	return nil
}

// seekTo jumps the playhead to an absolute frame.
func (p *playback) seekTo(frame int) error {
	if err := p.r.Decode(frame, true, 1); err != nil {
		return err
	}
	p.current = clamp(frame, 0, p.frames-1)
	p.acc = 0
	return nil
}

// update advances the playhead according to wall-clock time and decodes the
// frame now due. It reports whether the texture needs a refresh.
func (p *playback) update() (bool, error) {
	now := time.Now()
	if p.lastTime.IsZero() {
		p.lastTime = now
	}
	dt := now.Sub(p.lastTime).Seconds()
	p.lastTime = now

	if !p.playing {
		return false, nil
	}

	p.acc += dt * p.rate * p.fps
	steps := int(p.acc)
	if steps == 0 {
		return false, nil // not time for the next frame yet
	}
	p.acc -= float64(steps)

	p.skipper.Observe(p.monitor.GetReport())

	// Collapse the due steps into a single random access; the reader's
	// cursors make the sequential case cheap anyway.
	target := p.current
	for i := 0; i < steps; i++ {
		target = p.skipper.Next(target, p.direction)
	}
	if p.skipper.Mode() != video.ModeNormal {
		p.monitor.RecordSkipped()
	}

	switch {
	case target >= p.frames:
		if p.bounce {
			p.direction = -1
			target = clamp(2*(p.frames-1)-target, 0, p.frames-1)
		} else if p.loop {
			target = target % p.frames
		} else {
			target = p.frames - 1
			p.playing = false
		}
	case target < 0:
		if p.bounce {
			p.direction = 1
			target = clamp(-target, 0, p.frames-1)
		} else {
			target = 0
		}
	}

	start := time.Now()
	if err := p.r.Decode(target, true, 1); err != nil {
		return false, err
	}
	p.monitor.RecordDecode(time.Since(start))

	p.current = target
	return true, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
