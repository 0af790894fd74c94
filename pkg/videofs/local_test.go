package videofs

import (
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func TestListLocal(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"clip-a.mov", "clip-b.MP4", "loop.mpg",
		"still.png", "plate.dpx", // image files are diverted
		"notes.txt", "sidecar.xml", // unknown extensions are skipped
	} {
		test.That(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644), test.ShouldBeNil)
	}
	test.That(t, os.Mkdir(filepath.Join(dir, "sub.mov"), 0o755), test.ShouldBeNil)

	media, err := ListLocal(dir)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(media), test.ShouldEqual, 3)
	for _, m := range media {
		test.That(t, filepath.Dir(m), test.ShouldEqual, dir)
	}
}

func TestListLocalMissingDir(t *testing.T) {
	media, err := ListLocal(filepath.Join(t.TempDir(), "nope"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(media), test.ShouldEqual, 0)
}
