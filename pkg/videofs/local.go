package videofs

import (
	"log"
	"path/filepath"
	"strings"

	"frame-reel/pkg/reader"

	"os"
)

// Container extensions the preview tool will hand to the reader.
var mediaExtensions = map[string]bool{
	".mov":  true,
	".mp4":  true,
	".m4v":  true,
	".avi":  true,
	".mkv":  true,
	".webm": true,
	".mpg":  true,
	".mpeg": true,
	".mxf":  true,
}

// ListLocal scans the given directories for playable media. Single-frame
// image files are diverted (the reader is not the right code path for them)
// and unknown extensions are skipped.
func ListLocal(dirs ...string) ([]string, error) {
	var media []string

	scanDir := func(dirPath string) {
		entries, err := os.ReadDir(dirPath)
		if err != nil {
			log.Printf("ListLocal: error reading %s: %v", dirPath, err)
			return
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			name := entry.Name()
			if reader.IsImageFile(name) {
				log.Printf("ListLocal: diverting image file %s", name)
				continue
			}
			if !mediaExtensions[strings.ToLower(filepath.Ext(name))] {
				continue
			}
			media = append(media, filepath.Join(dirPath, name))
		}
	}

	for _, dir := range dirs {
		scanDir(dir)
	}

	log.Printf("ListLocal completed | found=%d media file(s)", len(media))
	return media, nil
}
