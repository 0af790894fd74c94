package reader

import (
	"testing"

	"go.viam.com/test"
)

func TestIsImageFile(t *testing.T) {
	for _, name := range []string{
		"still.png", "STILL.PNG", "shot.0001.exr", "plate.dpx",
		"/some/dir/frame.jpeg", "scan.tiff", "texture.tga", "out.rgba",
	} {
		test.That(t, IsImageFile(name), test.ShouldBeTrue)
	}

	for _, name := range []string{
		"clip.mov", "clip.mp4", "clip.avi", "clip.mkv", "clip.mpg",
		"noext", "weird.", "frame.png.mov",
	} {
		test.That(t, IsImageFile(name), test.ShouldBeFalse)
	}

	// The table is reproduced as given; hdr/pic/psd are host policy.
	test.That(t, IsImageFile("radiance.hdr"), test.ShouldBeFalse)
	test.That(t, IsImageFile("layers.psd"), test.ShouldBeFalse)
}
