package archive

import (
	"path/filepath"
	"slices"
	"strings"
)

// MaterialSuffix marks a compiled material, either as an archive entry or as
// a file given directly on the command line.
const MaterialSuffix = ".material.bin"

// archiveExtensions are always recognised as zip containers.
var archiveExtensions = []string{".zip", ".mcpack"}

// IsMaterial reports whether name is a compiled material.
func IsMaterial(name string) bool {
	return strings.HasSuffix(name, MaterialSuffix) && !strings.HasSuffix(name, "/")
}

// IsArchive reports whether path names a zip container, by extension and
// ignoring case. extra holds additional extensions including the leading dot.
func IsArchive(path string, extra []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	return slices.Contains(archiveExtensions, ext) || slices.Contains(extra, ext)
}
