package reader

/*
#cgo pkg-config: libavformat libavcodec libavutil libswscale

#include <libavformat/avformat.h>
#include <libavcodec/avcodec.h>
#include <libavutil/pixdesc.h>
#include <libswscale/swscale.h>
*/
import "C"

import (
	"fmt"
)

// ColorMatrix overrides the YUV→RGB coefficient set used during conversion.
type ColorMatrix int

const (
	ColorMatrixAuto ColorMatrix = iota // pick from the stream's own tag
	ColorMatrixRec709
	ColorMatrixRec601
)

// timestampField selects which packet timestamp drives frame mapping.
type timestampField int

const (
	fieldPts timestampField = iota
	fieldDts
)

// stream is the per-video-stream decode state. It is owned by a Reader and
// never escapes it; all access happens under the reader's mutex.
type stream struct {
	index int

	fmtCtx   *C.AVFormatContext // borrowed from the reader
	st       *C.AVStream
	codec    *C.AVCodec
	codecCtx *C.AVCodecContext
	frame    *C.AVFrame

	width, height int
	aspect        float64
	bitDepth      int
	numComponents int
	outputFmt     C.enum_AVPixelFormat

	frameTiming
	frames int

	// Decode cursors. -1 means unknown (fresh seek or failed decode).
	decodeNextFrameIn  int
	decodeNextFrameOut int
	accumDecodeLatency int

	tsField timestampField
	ptsSeen bool

	// Reported by the codec at open; direct rendering / lowres variants
	// used to require edge emulation, which libavcodec now handles itself.
	directRendering bool

	colorMatrix ColorMatrix
	resetScaler bool
	sws         *C.struct_SwsContext
	swsSrcFmt   C.enum_AVPixelFormat
	swsSrcW     int
	swsSrcH     int
}

// newStream populates a descriptor for an already-opened decoder context.
// It infers the output layout, frame rate, aspect, start PTS and frame count.
func newStream(fmtCtx *C.AVFormatContext, st *C.AVStream, codec *C.AVCodec, codecCtx *C.AVCodecContext) *stream {
	s := &stream{
		index:              int(st.index),
		fmtCtx:             fmtCtx,
		st:                 st,
		codec:              codec,
		codecCtx:           codecCtx,
		frame:              C.av_frame_alloc(),
		width:              int(codecCtx.width),
		height:             int(codecCtx.height),
		decodeNextFrameIn:  -1,
		decodeNextFrameOut: -1,
	}

	s.bitDepth, s.numComponents = pixelLayout(codecCtx)
	s.outputFmt = outputFormatFor(s.bitDepth, s.numComponents)

	s.fpsNum, s.fpsDen = 1, 1
	fps := C.av_guess_frame_rate(fmtCtx, st, nil)
	if fps.num > 0 && fps.den > 0 {
		s.fpsNum, s.fpsDen = int(fps.num), int(fps.den)
	}

	s.tbNum, s.tbDen = int(st.time_base.num), int(st.time_base.den)
	if s.tbNum == 0 || s.tbDen == 0 {
		s.tbNum, s.tbDen = 1, avTimeBaseInt
	}

	s.aspect = 1.0
	if st.sample_aspect_ratio.num != 0 && st.sample_aspect_ratio.den != 0 {
		s.aspect = float64(st.sample_aspect_ratio.num) / float64(st.sample_aspect_ratio.den)
	} else if codecCtx.sample_aspect_ratio.num != 0 && codecCtx.sample_aspect_ratio.den != 0 {
		s.aspect = float64(codecCtx.sample_aspect_ratio.num) / float64(codecCtx.sample_aspect_ratio.den)
	}

	s.startPts = s.findStartPts()
	s.frames = s.findTotalFrames()

	return s
}

const avTimeBaseInt = int(avTimeBase)

// pixelLayout derives (bitDepth, numComponents) from the codec's pixel
// format, falling back to bits-per-pixel when the format is unreported.
func pixelLayout(codecCtx *C.AVCodecContext) (int, int) {
	depth, comps := 0, 0
	if desc := C.av_pix_fmt_desc_get(codecCtx.pix_fmt); desc != nil {
		comps = int(desc.nb_components)
		depth = int(desc.comp[0].depth)
	}
	comps = promoteComponents(comps)
	if depth == 0 {
		if bpp := int(codecCtx.bits_per_coded_sample); bpp > 0 {
			depth = bpp / comps
		}
	}
	if depth == 0 {
		depth = 8
	}
	return depth, comps
}

// outputFormatFor is fixed for the lifetime of the descriptor.
func outputFormatFor(bitDepth, numComponents int) C.enum_AVPixelFormat {
	switch {
	case bitDepth > 8 && numComponents == 4:
		return C.AV_PIX_FMT_RGBA64LE
	case bitDepth > 8:
		return C.AV_PIX_FMT_RGB48LE
	case numComponents == 4:
		return C.AV_PIX_FMT_RGBA
	default:
		return C.AV_PIX_FMT_RGB24
	}
}

func (s *stream) rowSize() int {
	return rowBytes(s.width, s.numComponents, s.bitDepth)
}

func (s *stream) bufferSize() int {
	return s.rowSize() * s.height
}

// packetTimestamp extracts the selected timestamp field from a packet.
func (s *stream) packetTimestamp(pkt *C.AVPacket) int64 {
	if s.tsField == fieldDts {
		return int64(pkt.dts)
	}
	return int64(pkt.pts)
}

// codecDelay is the number of packets the decoder may hold before emitting a
// frame. has_b_frames grows mid-stream when B-frames are discovered, and
// frame threading buffers up to one packet per thread.
func (s *stream) codecDelay() int {
	return int(s.codecCtx.delay) + int(s.codecCtx.has_b_frames) + int(s.codecCtx.thread_count)
}

// findStartPts resolves the presentation timestamp of frame 0. The container
// report wins; otherwise the stream is probed for the first timestamped
// packet; otherwise 0.
func (s *stream) findStartPts() int64 {
	if ts := int64(s.st.start_time); ts != noPts {
		return ts
	}

	start := int64(0)
	if C.av_seek_frame(s.fmtCtx, C.int(s.index), 0, C.AVSEEK_FLAG_BACKWARD) >= 0 {
		pkt := C.av_packet_alloc()
		defer C.av_packet_free(&pkt)
		for C.av_read_frame(s.fmtCtx, pkt) >= 0 {
			match := int(pkt.stream_index) == s.index && int64(pkt.pts) != noPts
			if match {
				start = int64(pkt.pts)
			}
			C.av_packet_unref(pkt)
			if match {
				break
			}
		}
		C.av_seek_frame(s.fmtCtx, C.int(s.index), 0, C.AVSEEK_FLAG_BACKWARD)
	}
	return start
}

// findTotalFrames resolves the caller-visible frame count, preferring the
// container duration, then the stream's own report, then the stream duration,
// and finally measuring by reading to the end of the container.
func (s *stream) findTotalFrames() int {
	streamFrames := int64(s.st.nb_frames)

	if dur := int64(s.fmtCtx.duration); dur != noPts && dur > 0 {
		return framesFromDuration(dur, s.fpsNum, s.fpsDen, streamFrames)
	}
	if streamFrames > 0 {
		return int(streamFrames)
	}
	if dur := int64(s.st.duration); dur != noPts && dur > 0 {
		return framesFromStreamDuration(dur, s.fpsNum, s.fpsDen, s.tbNum, s.tbDen)
	}
	return s.measureTotalFrames()
}

// measureTotalFrames seeks past the end of the stream and scans remaining
// packets for the highest timestamp.
func (s *stream) measureTotalFrames() int {
	const farBeyondEnd = int64(1) << 60
	if C.av_seek_frame(s.fmtCtx, C.int(s.index), C.int64_t(farBeyondEnd), C.AVSEEK_FLAG_BACKWARD) < 0 {
		return 0
	}

	maxTs := noPts
	pkt := C.av_packet_alloc()
	for C.av_read_frame(s.fmtCtx, pkt) >= 0 {
		if int(pkt.stream_index) == s.index {
			if ts := s.packetTimestamp(pkt); ts != noPts && (maxTs == noPts || ts > maxTs) {
				maxTs = ts
			}
		}
		C.av_packet_unref(pkt)
	}
	C.av_packet_free(&pkt)

	C.av_seek_frame(s.fmtCtx, C.int(s.index), 0, C.AVSEEK_FLAG_BACKWARD)

	if maxTs == noPts {
		return 0
	}
	return 1 + s.frameAt(maxTs)
}

// seekToFrame flushes the decoder and submits a backward seek toward the
// given frame. Both cursors become unknown until resynchronization.
func (s *stream) seekToFrame(frame int) error {
	C.avcodec_flush_buffers(s.codecCtx)
	ts := s.ptsOf(frame)
	if ret := C.av_seek_frame(s.fmtCtx, C.int(s.index), C.int64_t(ts), C.AVSEEK_FLAG_BACKWARD); ret < 0 {
		return fmt.Errorf("failed to seek frame %d: %s", frame, avErrString(ret))
	}
	s.decodeNextFrameIn = -1
	s.decodeNextFrameOut = -1
	s.accumDecodeLatency = 0
	return nil
}

// decodePacket feeds one packet (nil to drain) and reports whether a decoded
// frame landed in s.frame. drained is set once the decoder has given back
// everything it held.
func (s *stream) decodePacket(pkt *C.AVPacket) (got, drained bool, err error) {
	for {
		ret := C.avcodec_send_packet(s.codecCtx, pkt)
		if ret >= 0 || isEOF(ret) {
			break
		}
		if !isAgain(ret) {
			return false, false, fmt.Errorf("failed to decode frame: %s", avErrString(ret))
		}
		// Decoder is full; pull a frame out before resubmitting.
		rret := C.avcodec_receive_frame(s.codecCtx, s.frame)
		if rret == 0 {
			got = true
			continue
		}
		if isEOF(rret) {
			return got, true, nil
		}
		return got, false, fmt.Errorf("failed to decode frame: %s", avErrString(rret))
	}

	if !got {
		rret := C.avcodec_receive_frame(s.codecCtx, s.frame)
		switch {
		case rret == 0:
			got = true
		case isEOF(rret):
			drained = true
		case !isAgain(rret):
			return false, false, fmt.Errorf("failed to decode frame: %s", avErrString(rret))
		}
	}
	return got, drained, nil
}

// close releases everything the descriptor owns.
func (s *stream) close() {
	if s.sws != nil {
		C.sws_freeContext(s.sws)
		s.sws = nil
	}
	if s.frame != nil {
		C.av_frame_free(&s.frame)
	}
	if s.codecCtx != nil {
		C.avcodec_free_context(&s.codecCtx)
	}
}
