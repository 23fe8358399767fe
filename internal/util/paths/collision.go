// Package paths provides utilities for local destination path handling in
// downloads.
package paths

import (
	"fmt"
	"path/filepath"
)

// DownloadTarget pairs a remote source with its planned local destination.
// Both the interactive browser and the non-interactive get command build
// these before submitting a batch, so collision handling behaves the same
// from every entry point.
type DownloadTarget struct {
	RemotePath string // Full remote source path
	Name       string // Remote base name
	LocalPath  string // Full local destination path
	Size       int64  // File size in bytes, -1 if unknown
}

// ResolveCollisions takes a list of targets and ensures all LocalPaths are
// unique. When multiple remote files map to the same LocalPath (same base
// name pulled from different directories), each colliding target gets an
// ordinal appended before the extension.
//
// Example: two files named "report.txt" become:
//   - report_1.txt
//   - report_2.txt
//
// This prevents concurrent downloads from corrupting each other by writing
// to the same destination.
//
// Returns the modified list (same slice, modified in place) and the count of
// targets that were involved in collisions.
func ResolveCollisions(targets []DownloadTarget) ([]DownloadTarget, int) {
	if len(targets) == 0 {
		return targets, 0
	}

	// Group targets by their LocalPath
	pathToIndices := make(map[string][]int)
	for i, tgt := range targets {
		pathToIndices[tgt.LocalPath] = append(pathToIndices[tgt.LocalPath], i)
	}

	collisionCount := 0
	for path, indices := range pathToIndices {
		if len(indices) <= 1 {
			continue // No collision for this path
		}

		collisionCount += len(indices)
		ext := filepath.Ext(path)
		base := path[:len(path)-len(ext)]
		for ord, idx := range indices {
			// Insert ordinal before extension: "report.txt" -> "report_1.txt"
			targets[idx].LocalPath = fmt.Sprintf("%s_%d%s", base, ord+1, ext)
		}
	}

	return targets, collisionCount
}
