package reader

/*
#cgo pkg-config: libavformat libavcodec libavutil libswscale

#include <libavcodec/avcodec.h>
#include <libavutil/pixdesc.h>
#include <libswscale/swscale.h>
*/
import "C"

import (
	"errors"
	"unsafe"
)

// converter returns the cached scaler for the current source geometry and
// color semantics, building and configuring it on first use. The handle is
// owned by the descriptor; callers must not free it.
func (s *stream) converter(srcFmt C.enum_AVPixelFormat, srcW, srcH int, srcRange C.enum_AVColorRange) (*C.struct_SwsContext, error) {
	if s.resetScaler {
		if s.sws != nil {
			C.sws_freeContext(s.sws)
			s.sws = nil
		}
		s.resetScaler = false
	}

	srcFmt = normalizeJpegRange(srcFmt)

	// The cached handle is only valid for the geometry it was built for.
	if s.sws != nil && (srcFmt != s.swsSrcFmt || srcW != s.swsSrcW || srcH != s.swsSrcH) {
		C.sws_freeContext(s.sws)
		s.sws = nil
	}

	if s.sws == nil {
		s.sws = C.sws_getContext(
			C.int(srcW), C.int(srcH), srcFmt,
			C.int(s.width), C.int(s.height), s.outputFmt,
			C.SWS_BICUBIC, nil, nil, nil)
		if s.sws == nil {
			return nil, errors.New("failed to create pixel format converter")
		}
		s.swsSrcFmt, s.swsSrcW, s.swsSrcH = srcFmt, srcW, srcH
	}

	// RGB sources need no coefficient setup.
	if isRGBFormat(srcFmt) {
		return s.sws, nil
	}

	coeffs := C.int(C.SWS_CS_ITU601)
	if s.codecCtx.colorspace == C.AVCOL_SPC_BT709 {
		coeffs = C.SWS_CS_ITU709
	}
	switch s.colorMatrix {
	case ColorMatrixRec709:
		coeffs = C.SWS_CS_ITU709
	case ColorMatrixRec601:
		coeffs = C.SWS_CS_ITU601
	}

	srcFullRange := quantizationRange(srcRange, srcFmt)

	// Output is always full-range with default coefficients and neutral
	// brightness/contrast/saturation.
	ret := C.sws_setColorspaceDetails(s.sws,
		C.sws_getCoefficients(coeffs), C.int(srcFullRange),
		C.sws_getCoefficients(C.SWS_CS_DEFAULT), 1,
		0, 1<<16, 1<<16)
	if ret < 0 {
		C.sws_freeContext(s.sws)
		s.sws = nil
		return nil, errors.New("failed to configure pixel format converter")
	}
	return s.sws, nil
}

// quantizationRange maps the codec-reported color range to the scaler's
// full-range flag: MPEG (16-235) is 0, JPEG (0-255) is 1, and unspecified
// defaults by format family.
func quantizationRange(r C.enum_AVColorRange, f C.enum_AVPixelFormat) int {
	switch r {
	case C.AVCOL_RANGE_MPEG:
		return 0
	case C.AVCOL_RANGE_JPEG:
		return 1
	}
	if isRGBFormat(f) {
		return 1
	}
	return 0
}

// convert runs the decoded frame through the scaler into dst, which must be
// bufferSize() bytes of packed output rows.
func (s *stream) convert(dst []byte) error {
	sws, err := s.converter(s.codecCtx.pix_fmt, int(s.frame.width), int(s.frame.height), s.codecCtx.color_range)
	if err != nil {
		return err
	}

	var dstData [4]*C.uint8_t
	var dstStride [4]C.int
	dstData[0] = (*C.uint8_t)(unsafe.Pointer(&dst[0]))
	dstStride[0] = C.int(s.rowSize())

	C.sws_scale(sws,
		(**C.uint8_t)(unsafe.Pointer(&s.frame.data[0])), &s.frame.linesize[0],
		0, C.int(s.frame.height),
		&dstData[0], &dstStride[0])
	return nil
}
