// Package reader exposes a frame-indexed view of a video container: any
// frame number can be requested and comes back decoded, color-converted and
// packed into a fixed RGB(A) layout. Decoding is frame accurate; seeks into
// the compressed stream are resynchronized against whatever timestamp the
// container actually lands on.
package reader

/*
#cgo pkg-config: libavformat libavcodec libavutil libswscale

#include <stdlib.h>
#include <libavformat/avformat.h>
#include <libavcodec/avcodec.h>
*/
import "C"

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"unsafe"
)

// Info describes the first usable video stream.
type Info struct {
	Width  int
	Height int
	Aspect float64 // pixel aspect ratio
	Frames int
}

// metadataEntry is one container-level metadata pair.
type metadataEntry struct {
	Key   string
	Value string
}

// Reader decodes frames from a single container. All methods are safe for
// use from multiple goroutines; calls on the same reader are serialized.
type Reader struct {
	mu sync.Mutex

	filename string
	fmtCtx   *C.AVFormatContext
	streams  []*stream
	data     []byte

	invalid bool
	errMsg  string

	closeOnce sync.Once
}

// New opens the container at filename and prepares its first usable video
// stream for decoding. It never returns nil: open failures leave the reader
// invalid (see IsInvalid and Err) but safely closeable.
func New(filename string) *Reader {
	r := &Reader{filename: filename}
	if filename == "" {
		r.setInvalid("no filename specified")
		return r
	}
	r.open()
	return r
}

func (r *Reader) setInvalid(msg string) {
	r.invalid = true
	r.errMsg = msg
}

func (r *Reader) open() {
	cName := C.CString(r.filename)
	defer C.free(unsafe.Pointer(cName))

	if ret := C.avformat_open_input(&r.fmtCtx, cName, nil, nil); ret < 0 {
		r.setInvalid(fmt.Sprintf("failed to open file: %s", avErrString(ret)))
		return
	}
	if ret := C.avformat_find_stream_info(r.fmtCtx, nil); ret < 0 {
		r.setInvalid(fmt.Sprintf("failed to find stream info: %s", avErrString(ret)))
		return
	}

	sawVideo := false
	for i := 0; i < int(r.fmtCtx.nb_streams); i++ {
		st := streamAt(r.fmtCtx, i)
		par := st.codecpar
		if par == nil || par.codec_id == C.AV_CODEC_ID_NONE {
			continue
		}
		if par.codec_type != C.AVMEDIA_TYPE_VIDEO {
			continue
		}
		sawVideo = true

		codec := C.avcodec_find_decoder(par.codec_id)
		if codec == nil {
			continue
		}

		codecCtx := C.avcodec_alloc_context3(codec)
		if codecCtx == nil {
			continue
		}
		if C.avcodec_parameters_to_context(codecCtx, par) < 0 {
			C.avcodec_free_context(&codecCtx)
			continue
		}

		// Thread count must be in place before the decoder opens.
		codecCtx.thread_count = C.int(clampInt(runtime.NumCPU(), 1, 16))

		directRendering := codec.capabilities&C.AV_CODEC_CAP_DR1 != 0 || codec.max_lowres > 0

		if C.avcodec_open2(codecCtx, codec, nil) < 0 {
			C.avcodec_free_context(&codecCtx)
			continue
		}

		s := newStream(r.fmtCtx, st, codec, codecCtx)
		s.directRendering = directRendering
		r.streams = append(r.streams, s)

		if r.data == nil {
			r.data = make([]byte, s.bufferSize())
		}
	}

	if len(r.streams) == 0 {
		if sawVideo {
			r.setInvalid("unsupported codec")
		} else {
			r.setInvalid("unable to find video stream")
		}
	}
}

// Close releases the container and every stream descriptor. It is safe to
// call more than once and on invalid readers.
func (r *Reader) Close() {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for _, s := range r.streams {
			s.close()
		}
		r.streams = nil
		if r.fmtCtx != nil {
			C.avformat_close_input(&r.fmtCtx)
		}
	})
}

// IsInvalid reports whether the reader failed to open. Invalid readers
// refuse all decode calls.
func (r *Reader) IsInvalid() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.invalid
}

// Err returns the last error message, or the empty string.
func (r *Reader) Err() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errMsg
}

func (r *Reader) streamFor(idx int) (*stream, error) {
	if r.invalid {
		return nil, errors.New(r.errMsg)
	}
	if idx < 0 || idx >= len(r.streams) {
		return nil, fmt.Errorf("no video stream %d", idx)
	}
	return r.streams[idx], nil
}

// Info returns the dimensions, pixel aspect and frame count of a stream.
func (r *Reader) Info(streamIdx int) (Info, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.streamFor(streamIdx)
	if err != nil {
		return Info{}, err
	}
	return Info{Width: s.width, Height: s.height, Aspect: s.aspect, Frames: s.frames}, nil
}

// FPS returns a stream's frame rate.
func (r *Reader) FPS(streamIdx int) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.streamFor(streamIdx)
	if err != nil {
		return 0, err
	}
	return float64(s.fpsNum) / float64(s.fpsDen), nil
}

// Codec returns the active decoder's name for the first usable stream.
func (r *Reader) Codec() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.invalid || len(r.streams) == 0 {
		return ""
	}
	return C.GoString(r.streams[0].codec.name)
}

// BitDepth returns the per-component bit depth of the first usable stream.
func (r *Reader) BitDepth() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.streams) == 0 {
		return 0
	}
	return r.streams[0].bitDepth
}

// NumComponents returns 3 or 4; monochrome sources are promoted to 3. It
// returns 0 when the reader has no open stream.
func (r *Reader) NumComponents() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.streams) == 0 {
		return 0
	}
	return r.streams[0].numComponents
}

// RowSize returns the packed output stride in bytes.
func (r *Reader) RowSize() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.streams) == 0 {
		return 0
	}
	return r.streams[0].rowSize()
}

// BufferSize returns the size of the shared output buffer in bytes.
func (r *Reader) BufferSize() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.streams) == 0 {
		return 0
	}
	return r.streams[0].bufferSize()
}

// Data returns the shared output buffer. It is overwritten by every
// successful Decode; copy it out before the next call on the same reader.
func (r *Reader) Data() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.data
}

// SetColorMatrix overrides the YUV→RGB coefficient selection. The cached
// converter is rebuilt on the next decode.
func (r *Reader) SetColorMatrix(m ColorMatrix) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.streams {
		if s.colorMatrix != m {
			s.colorMatrix = m
			s.resetScaler = true
		}
	}
}

// Colorspace names the source colorspace from container metadata, falling
// back to a gamma guess by pixel family. The caller maps the name onto its
// own color pipeline.
func (r *Reader) Colorspace() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	rgb := false
	if !r.invalid && len(r.streams) > 0 {
		rgb = isRGBFormat(r.streams[0].codecCtx.pix_fmt)
	}
	var entries []metadataEntry
	if r.fmtCtx != nil {
		entries = dictEntries(r.fmtCtx.metadata)
	}
	return colorspaceName(entries, rgb)
}
