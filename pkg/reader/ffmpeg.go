package reader

/*
#cgo pkg-config: libavformat libavcodec libavutil libswscale

#include <stdlib.h>
#include <libavformat/avformat.h>
#include <libavcodec/avcodec.h>
#include <libavutil/avutil.h>
#include <libavutil/dict.h>
#include <libavutil/error.h>
#include <libavutil/pixdesc.h>
#include <libswscale/swscale.h>

// Macro values that cgo cannot evaluate directly (they expand to casts).
static const int64_t frNoPts = AV_NOPTS_VALUE;

static int frIsAgain(int ret) { return ret == AVERROR(EAGAIN); }
static int frIsEOF(int ret)   { return ret == AVERROR_EOF; }

static AVStream *frStreamAt(AVFormatContext *c, int i) { return c->streams[i]; }
*/
import "C"

import (
	"bytes"
	"unsafe"
)

// noPts is AV_NOPTS_VALUE: the library's "no timestamp" sentinel.
var noPts = int64(C.frNoPts)

// avTimeBase is the container-level timestamp resolution (ticks per second).
const avTimeBase = int64(C.AV_TIME_BASE)

func isAgain(ret C.int) bool { return C.frIsAgain(C.int(ret)) != 0 }
func isEOF(ret C.int) bool   { return C.frIsEOF(C.int(ret)) != 0 }

// avErrString renders a libav error code as text.
func avErrString(code C.int) string {
	buf := make([]byte, C.AV_ERROR_MAX_STRING_SIZE)
	C.av_strerror(code, (*C.char)(unsafe.Pointer(&buf[0])), C.size_t(len(buf)))
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	return string(buf)
}

func streamAt(c *C.AVFormatContext, i int) *C.AVStream {
	return C.frStreamAt(c, C.int(i))
}

// dictEntries flattens an AVDictionary into key/value pairs.
func dictEntries(d *C.AVDictionary) []metadataEntry {
	if d == nil {
		return nil
	}
	empty := C.CString("")
	defer C.free(unsafe.Pointer(empty))

	var out []metadataEntry
	var e *C.AVDictionaryEntry
	for {
		e = C.av_dict_get(d, empty, e, C.AV_DICT_IGNORE_SUFFIX)
		if e == nil {
			return out
		}
		out = append(out, metadataEntry{
			Key:   C.GoString(e.key),
			Value: C.GoString(e.value),
		})
	}
}

// isRGBFormat reports whether a pixel format carries RGB-family data.
func isRGBFormat(f C.enum_AVPixelFormat) bool {
	desc := C.av_pix_fmt_desc_get(f)
	if desc == nil {
		return false
	}
	return desc.flags&C.AV_PIX_FMT_FLAG_RGB != 0
}

// normalizeJpegRange maps the deprecated full-range YUV formats onto their
// modern equivalents; the quantization range travels separately.
func normalizeJpegRange(f C.enum_AVPixelFormat) C.enum_AVPixelFormat {
	switch f {
	case C.AV_PIX_FMT_YUVJ420P:
		return C.AV_PIX_FMT_YUV420P
	case C.AV_PIX_FMT_YUVJ422P:
		return C.AV_PIX_FMT_YUV422P
	case C.AV_PIX_FMT_YUVJ444P:
		return C.AV_PIX_FMT_YUV444P
	case C.AV_PIX_FMT_YUVJ440P:
		return C.AV_PIX_FMT_YUV440P
	}
	return f
}
