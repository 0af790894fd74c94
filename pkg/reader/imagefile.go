package reader

import (
	"path/filepath"
	"strings"
)

// Still-image extensions the enclosing host should divert to a different
// code path instead of handing to the reader.
var imageFileExtensions = map[string]bool{
	"bmp":  true,
	"pix":  true,
	"dpx":  true,
	"exr":  true,
	"jpeg": true,
	"jpg":  true,
	"png":  true,
	"ppm":  true,
	"ptx":  true,
	"tiff": true,
	"tga":  true,
	"rgba": true,
	"rgb":  true,
}

// IsImageFile reports whether the name looks like a single-frame image file
// rather than a video container. The reader itself does not require this
// check; it exists so callers can reject stills up front.
func IsImageFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	return imageFileExtensions[ext[1:]]
}
