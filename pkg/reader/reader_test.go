package reader

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func TestEmptyFilenameIsInvalid(t *testing.T) {
	r := New("")
	defer r.Close()

	test.That(t, r.IsInvalid(), test.ShouldBeTrue)
	test.That(t, r.Err(), test.ShouldContainSubstring, "no filename")

	err := r.Decode(0, true, 1)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = r.Info(0)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = r.FPS(0)
	test.That(t, err, test.ShouldNotBeNil)

	// No method panics on an invalid reader.
	test.That(t, r.BitDepth(), test.ShouldEqual, 0)
	test.That(t, r.NumComponents(), test.ShouldEqual, 0)
	test.That(t, r.RowSize(), test.ShouldEqual, 0)
	test.That(t, r.BufferSize(), test.ShouldEqual, 0)
	test.That(t, r.Codec(), test.ShouldEqual, "")
	test.That(t, r.Colorspace(), test.ShouldEqual, "Gamma2.2")
}

func TestMissingFileIsInvalid(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "does-not-exist.mov"))
	defer r.Close()

	test.That(t, r.IsInvalid(), test.ShouldBeTrue)
	test.That(t, r.Err(), test.ShouldContainSubstring, "failed to open file")
}

func TestCloseIsIdempotent(t *testing.T) {
	r := New("")
	r.Close()
	r.Close()
}

// testClip returns the path of the sample clip under testdata (10 frames,
// 320x240, 8-bit) or skips the test when it is not present.
func testClip(t *testing.T) string {
	t.Helper()
	path := filepath.Join("testdata", "counter-10f-320x240.mp4")
	if _, err := os.Stat(path); err != nil {
		t.Skipf("sample clip not present: %v", err)
	}
	return path
}

func decodeCopy(t *testing.T, r *Reader, frame int, loadNearest bool) []byte {
	t.Helper()
	err := r.Decode(frame, loadNearest, 1)
	test.That(t, err, test.ShouldBeNil)
	out := make([]byte, len(r.Data()))
	copy(out, r.Data())
	return out
}

func TestSequentialRead(t *testing.T) {
	r := New(testClip(t))
	defer r.Close()
	test.That(t, r.IsInvalid(), test.ShouldBeFalse)

	info, err := r.Info(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, info.Frames, test.ShouldEqual, 10)
	test.That(t, info.Width, test.ShouldEqual, 320)
	test.That(t, info.Height, test.ShouldEqual, 240)

	test.That(t, r.BufferSize(), test.ShouldEqual, r.RowSize()*info.Height)
	test.That(t, r.RowSize(), test.ShouldEqual, r.NumComponents()*info.Width*((r.BitDepth()+7)/8))

	for f := 0; f < info.Frames; f++ {
		err := r.Decode(f, false, 1)
		test.That(t, err, test.ShouldBeNil)
	}
}

func TestRandomAccessMatchesSequential(t *testing.T) {
	path := testClip(t)

	seq := New(path)
	defer seq.Close()
	var want [][]byte
	for f := 0; f < 10; f++ {
		want = append(want, decodeCopy(t, seq, f, false))
	}

	r := New(path)
	defer r.Close()
	for _, f := range []int{7, 2, 9, 0, 5, 5} {
		got := decodeCopy(t, r, f, false)
		test.That(t, bytes.Equal(got, want[f]), test.ShouldBeTrue)
	}
}

func TestDecodeIdempotent(t *testing.T) {
	r := New(testClip(t))
	defer r.Close()

	a := decodeCopy(t, r, 4, false)
	b := decodeCopy(t, r, 4, false)
	test.That(t, bytes.Equal(a, b), test.ShouldBeTrue)
}

func TestClampedRead(t *testing.T) {
	r := New(testClip(t))
	defer r.Close()

	first := decodeCopy(t, r, 0, false)
	last := decodeCopy(t, r, 9, false)

	test.That(t, bytes.Equal(decodeCopy(t, r, -5, true), first), test.ShouldBeTrue)
	test.That(t, bytes.Equal(decodeCopy(t, r, 100, true), last), test.ShouldBeTrue)
}

func TestOutOfRangeWithoutClamping(t *testing.T) {
	r := New(testClip(t))
	defer r.Close()

	err := r.Decode(-1, false, 1)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "missing frame")

	err = r.Decode(10, false, 1)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "missing frame")
	test.That(t, r.Err(), test.ShouldContainSubstring, "missing frame")
}

func TestFailedDecodeSelfHeals(t *testing.T) {
	r := New(testClip(t))
	defer r.Close()

	err := r.Decode(10, false, 1)
	test.That(t, err, test.ShouldNotBeNil)

	// A failed call forces a reseek, never a wedged reader.
	err = r.Decode(3, false, 1)
	test.That(t, err, test.ShouldBeNil)
}

func TestColorMatrixOverrideRebuildsConverter(t *testing.T) {
	r := New(testClip(t))
	defer r.Close()

	a := decodeCopy(t, r, 2, false)
	r.SetColorMatrix(ColorMatrixRec709)
	b := decodeCopy(t, r, 2, false)
	r.SetColorMatrix(ColorMatrixAuto)
	c := decodeCopy(t, r, 2, false)

	test.That(t, len(a), test.ShouldEqual, len(b))
	test.That(t, bytes.Equal(a, c), test.ShouldBeTrue)
}
