package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// videoExtensions lists the file types the backend accepts for upload.
var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
	".flv":  true,
}

// expandUploads resolves an upload glob to video file paths. Supports ** for
// recursive matching. Non-video matches are skipped so "footage/**" patterns
// don't sweep up thumbnails and subtitle files.
func expandUploads(pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(filepath.ToSlash(pattern)) {
		return nil, fmt.Errorf("invalid glob pattern: %s", pattern)
	}
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("match %s: %w", pattern, err)
	}

	var paths []string
	for _, m := range matches {
		if videoExtensions[strings.ToLower(filepath.Ext(m))] {
			paths = append(paths, m)
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no video files match %s", pattern)
	}
	return paths, nil
}

// titleFromPath derives a human title from a file name:
// "launch_day-take2.mp4" becomes "launch day take2".
func titleFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ReplaceAll(base, "_", " ")
	base = strings.ReplaceAll(base, "-", " ")
	return strings.Join(strings.Fields(base), " ")
}
