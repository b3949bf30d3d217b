package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SupportedExtensions lists the container formats accepted as sources.
var SupportedExtensions = []string{".mp4", ".mov", ".avi", ".mkv", ".wmv"}

// SupportedSource reports whether the path has a recognised video extension.
func SupportedSource(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, candidate := range SupportedExtensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

// ExpandFolder lists the supported video files directly inside dir, sorted by
// name. Subdirectories are not descended into.
func ExpandFolder(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read folder: %w", err)
	}
	var sources []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if SupportedSource(entry.Name()) {
			sources = append(sources, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(sources)
	return sources, nil
}

// OutputPath derives the destination file for a source: the source's stem
// plus the suffix, always in an MP4 container. With an empty outputDir the
// file lands next to the source.
func OutputPath(source, outputDir, suffix string) string {
	base := filepath.Base(source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	dir := outputDir
	if dir == "" {
		dir = filepath.Dir(source)
	}
	return filepath.Join(dir, stem+suffix+".mp4")
}
