package reader

import (
	"testing"

	"go.viam.com/test"
)

func TestFrameTimingRoundTrip(t *testing.T) {
	cases := []frameTiming{
		{fpsNum: 24, fpsDen: 1, tbNum: 1, tbDen: 90000, startPts: 0},
		{fpsNum: 24, fpsDen: 1, tbNum: 1, tbDen: 600, startPts: 1200},
		{fpsNum: 25, fpsDen: 1, tbNum: 1, tbDen: 90000, startPts: 3600},
		{fpsNum: 30000, fpsDen: 1001, tbNum: 1, tbDen: 90000, startPts: 0},
		{fpsNum: 1, fpsDen: 1, tbNum: 1, tbDen: 1000000, startPts: 0},
	}
	for _, ft := range cases {
		for f := 0; f < 500; f++ {
			test.That(t, ft.frameAt(ft.ptsOf(f)), test.ShouldEqual, f)
		}
	}
}

func TestFrameAtTruncates(t *testing.T) {
	ft := frameTiming{fpsNum: 24, fpsDen: 1, tbNum: 1, tbDen: 90000}
	// 3750 ticks per frame at 24 fps in 1/90000.
	test.That(t, ft.frameAt(3749), test.ShouldEqual, 0)
	test.That(t, ft.frameAt(3750), test.ShouldEqual, 1)
	test.That(t, ft.frameAt(7499), test.ShouldEqual, 1)
}

func TestFrameAtHonorsStartPts(t *testing.T) {
	ft := frameTiming{fpsNum: 25, fpsDen: 1, tbNum: 1, tbDen: 90000, startPts: 7200}
	test.That(t, ft.frameAt(7200), test.ShouldEqual, 0)
	test.That(t, ft.ptsOf(0), test.ShouldEqual, int64(7200))
	test.That(t, ft.frameAt(7200+3600*3), test.ShouldEqual, 3)
}

func TestFramesFromDuration(t *testing.T) {
	// 10 frames at 24 fps: 416667 µs.
	test.That(t, framesFromDuration(416667, 24, 1, 0), test.ShouldEqual, 10)

	// A container reporting 5.0042 s at 24 fps rounds up to 121 derived
	// frames; a stream count within one of that wins.
	test.That(t, framesFromDuration(5004200, 24, 1, 0), test.ShouldEqual, 121)
	test.That(t, framesFromDuration(5004200, 24, 1, 120), test.ShouldEqual, 120)
	test.That(t, framesFromDuration(5004200, 24, 1, 122), test.ShouldEqual, 122)
	test.That(t, framesFromDuration(5004200, 24, 1, 200), test.ShouldEqual, 121)
	test.That(t, framesFromDuration(5004200, 24, 1, 5), test.ShouldEqual, 121)
}

func TestFramesFromStreamDuration(t *testing.T) {
	// 240 frames at 24 fps in a 1/90000 timebase: 10 s = 900000 ticks.
	test.That(t, framesFromStreamDuration(900000, 24, 1, 1, 90000), test.ShouldEqual, 240)
	test.That(t, framesFromStreamDuration(90000, 25, 1, 1, 90000), test.ShouldEqual, 25)
}

func TestPromoteComponents(t *testing.T) {
	test.That(t, promoteComponents(1), test.ShouldEqual, 3) // monochrome
	test.That(t, promoteComponents(2), test.ShouldEqual, 3)
	test.That(t, promoteComponents(3), test.ShouldEqual, 3)
	test.That(t, promoteComponents(4), test.ShouldEqual, 4)
	test.That(t, promoteComponents(5), test.ShouldEqual, 4)
}

func TestRowBytes(t *testing.T) {
	test.That(t, sampleSize(8), test.ShouldEqual, 1)
	test.That(t, sampleSize(10), test.ShouldEqual, 2)
	test.That(t, sampleSize(16), test.ShouldEqual, 2)

	test.That(t, rowBytes(320, 3, 8), test.ShouldEqual, 960)
	test.That(t, rowBytes(320, 4, 8), test.ShouldEqual, 1280)
	test.That(t, rowBytes(320, 3, 10), test.ShouldEqual, 1920)
	test.That(t, rowBytes(1920, 4, 12), test.ShouldEqual, 15360)
}

func TestClampInt(t *testing.T) {
	test.That(t, clampInt(0, 1, 16), test.ShouldEqual, 1)
	test.That(t, clampInt(8, 1, 16), test.ShouldEqual, 8)
	test.That(t, clampInt(64, 1, 16), test.ShouldEqual, 16)
}
