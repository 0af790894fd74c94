package reader

/*
#cgo pkg-config: libavformat libavcodec libavutil libswscale

#include <libavformat/avformat.h>
#include <libavcodec/avcodec.h>
*/
import "C"

import (
	"errors"
	"fmt"
)

// Decode reads the given 0-based frame into the shared output buffer.
//
// When loadNearest is true an out-of-range frame is clamped into
// [0, frames); otherwise it fails with a missing-frame error. maxRetries
// bounds how many times a stalled decode is restarted (effective minimum 1).
//
// On failure the next call starts with a fresh seek; the reader never wedges
// short of an open failure.
func (r *Reader) Decode(frame int, loadNearest bool, maxRetries int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.invalid {
		return errors.New(r.errMsg)
	}
	if len(r.streams) == 0 {
		return errors.New("unable to find video stream")
	}
	s := r.streams[0]

	requested := frame
	if frame < 0 || frame >= s.frames {
		if !loadNearest || s.frames <= 0 {
			return r.decodeFailed(s, fmt.Sprintf("missing frame %d", requested))
		}
		frame = clampInt(frame, 0, s.frames-1)
	}

	retries := maxRetries
	if retries < 1 {
		retries = 1
	}

	pkt := C.av_packet_alloc()
	if pkt == nil {
		return r.decodeFailed(s, "failed to allocate packet")
	}
	defer C.av_packet_free(&pkt)

	// Anything but a strict continuation of the last decode needs a seek and
	// a resynchronization against the landing timestamp.
	seeking := false
	lastSeeked := -1
	emittedSinceSeek := false

	if s.decodeNextFrameOut < 0 || frame != s.decodeNextFrameOut {
		lastSeeked = frame
		seeking = true
		if err := s.seekToFrame(frame); err != nil {
			return r.decodeFailed(s, err.Error())
		}
	}

	for {
		var (
			got     bool
			drained bool
			derr    error
		)
		fedPacket := false

		readRet := C.av_read_frame(r.fmtCtx, pkt)
		switch {
		case readRet >= 0 && int(pkt.stream_index) != s.index:
			// Audio, subtitles, other video: not ours.
			C.av_packet_unref(pkt)
			continue

		case readRet >= 0:
			if seeking {
				ts := s.packetTimestamp(pkt)
				landing := -1
				if ts != noPts {
					landing = s.frameAt(ts)
				}
				if ts == noPts || landing > lastSeeked {
					// No usable timestamp, or the container index
					// overshot the request: walk one frame back.
					C.av_packet_unref(pkt)
					if err := r.reseekEarlier(s, &lastSeeked, frame); err != nil {
						return err
					}
					emittedSinceSeek = false
					continue
				}
				s.decodeNextFrameIn = landing
				s.decodeNextFrameOut = landing
				seeking = false
			}

			if int64(pkt.pts) != noPts {
				s.ptsSeen = true
			}
			fedPacket = true
			got, drained, derr = s.decodePacket(pkt)
			C.av_packet_unref(pkt)

		case isEOF(readRet):
			if seeking {
				// Ran off the end without a landing; same walk-back as an
				// invalid timestamp.
				if err := r.reseekEarlier(s, &lastSeeked, frame); err != nil {
					return err
				}
				emittedSinceSeek = false
				continue
			}

			// The container advertised more frames than it holds.
			if s.decodeNextFrameIn >= 0 && s.decodeNextFrameIn < s.frames {
				s.frames = s.decodeNextFrameIn
			}
			if frame >= s.frames {
				if !loadNearest || s.frames <= 0 {
					return r.decodeFailed(s, fmt.Sprintf("missing frame %d", requested))
				}
				frame = s.frames - 1
				lastSeeked = frame
				seeking = true
				emittedSinceSeek = false
				if err := s.seekToFrame(frame); err != nil {
					return r.decodeFailed(s, err.Error())
				}
				continue
			}

			// Drain frames the decoder still holds.
			got, drained, derr = s.decodePacket(nil)

		default:
			return r.decodeFailed(s, fmt.Sprintf("failed to read frame: %s", avErrString(readRet)))
		}

		if derr != nil {
			return r.decodeFailed(s, derr.Error())
		}
		if fedPacket {
			s.decodeNextFrameIn++
		}

		if got {
			emittedSinceSeek = true
			s.accumDecodeLatency = 0

			if s.decodeNextFrameOut == frame {
				err := s.convert(r.data)
				C.av_frame_unref(s.frame)
				if err != nil {
					return r.decodeFailed(s, err.Error())
				}
				s.decodeNextFrameOut++
				r.errMsg = ""
				return nil
			}
			// An earlier frame on the way to the target.
			C.av_frame_unref(s.frame)
			s.decodeNextFrameOut++
			continue
		}

		// Fed without output.
		s.accumDecodeLatency++
		if drained {
			// Empty decoder: nothing more will come without a seek.
			s.accumDecodeLatency = s.codecDelay() + 1
		}
		if s.accumDecodeLatency <= s.codecDelay() {
			continue
		}

		// Stall. A post-seek stall above frame 0 walks backward looking for
		// an earlier valid decode start; everything else burns a retry on a
		// reseek to the requested frame.
		if !emittedSinceSeek && s.decodeNextFrameOut > 0 {
			lastSeeked = s.decodeNextFrameOut - 1
		} else {
			msg := "detected decoding stall"
			if !emittedSinceSeek {
				msg = "failed to find decode reference frame"
			}
			if retries <= 0 {
				return r.decodeFailed(s, msg)
			}
			retries--
			lastSeeked = frame
		}
		seeking = true
		emittedSinceSeek = false
		if err := s.seekToFrame(lastSeeked); err != nil {
			return r.decodeFailed(s, err.Error())
		}
	}
}

// reseekEarlier steps the resynchronization target one frame back and
// reseeks. When the walk hits frame 0 it switches the timestamp source from
// PTS to DTS once (for files that never carry PTS) and restarts from the
// requested frame; a second exhaustion means the file has no usable timing.
func (r *Reader) reseekEarlier(s *stream, lastSeeked *int, frame int) error {
	*lastSeeked -= 1
	if *lastSeeked < 0 {
		if s.tsField == fieldPts && !s.ptsSeen {
			s.tsField = fieldDts
			*lastSeeked = frame
		} else {
			return r.decodeFailed(s, "failed to find timing reference frame")
		}
	}
	if err := s.seekToFrame(*lastSeeked); err != nil {
		return r.decodeFailed(s, err.Error())
	}
	return nil
}

// decodeFailed records the error and forces the next Decode to reseek.
func (r *Reader) decodeFailed(s *stream, msg string) error {
	s.decodeNextFrameOut = -1
	s.accumDecodeLatency = 0
	r.errMsg = msg
	return errors.New(msg)
}
