package video

import (
	"testing"

	"go.viam.com/test"
)

func TestDetectCodecType(t *testing.T) {
	test.That(t, DetectCodecType("h264"), test.ShouldEqual, CodecTypeH264)
	test.That(t, DetectCodecType("libx264"), test.ShouldEqual, CodecTypeH264)
	test.That(t, DetectCodecType("hevc"), test.ShouldEqual, CodecTypeHEVC)
	test.That(t, DetectCodecType("prores"), test.ShouldEqual, CodecTypeProRes)
	test.That(t, DetectCodecType("mpeg2video"), test.ShouldEqual, CodecTypeMPEG2)
	test.That(t, DetectCodecType("vp9"), test.ShouldEqual, CodecTypeVP9)
	test.That(t, DetectCodecType("libaom-av1"), test.ShouldEqual, CodecTypeAV1)
	test.That(t, DetectCodecType("ffv1"), test.ShouldEqual, CodecTypeUnknown)
}

func TestRecommend(t *testing.T) {
	rec := Recommend("prores", 1920, 1080)
	test.That(t, rec.ScrubFriendly, test.ShouldBeTrue)
	test.That(t, rec.ReencodingCommand, test.ShouldEqual, "")

	rec = Recommend("h264", 1280, 720)
	test.That(t, rec.ScrubFriendly, test.ShouldBeTrue)

	rec = Recommend("h264", 3840, 2160)
	test.That(t, rec.ScrubFriendly, test.ShouldBeFalse)
	test.That(t, rec.ReencodingCommand, test.ShouldContainSubstring, "libx264")

	rec = Recommend("hevc", 3840, 2160)
	test.That(t, rec.ScrubFriendly, test.ShouldBeFalse)
	test.That(t, rec.ReencodingCommand, test.ShouldContainSubstring, "prores_ks")
	test.That(t, rec.ReencodingCommand, test.ShouldContainSubstring, "scale=-2:1080")
}
