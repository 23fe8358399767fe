// Package diskspace provides free-space preflight checks for downloads.
// Remote file sizes are known before any bytes move, so running out of local
// disk mid-batch is an avoidable failure mode.
package diskspace

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
)

// InsufficientSpaceError indicates that there is not enough disk space available.
type InsufficientSpaceError struct {
	Path           string
	RequiredBytes  int64
	AvailableBytes int64
}

func (e *InsufficientSpaceError) Error() string {
	return fmt.Sprintf("insufficient disk space for %s: need %s, have %s available",
		e.Path,
		humanize.IBytes(uint64(e.RequiredBytes)),
		humanize.IBytes(uint64(e.AvailableBytes)))
}

// CheckAvailableSpace checks if there is sufficient disk space for a file
// about to be written at targetPath. The check runs against the filesystem
// holding the target's parent directory, which must exist.
//
// safetyMargin is a multiplier on requiredBytes (e.g. 1.1 for a 10% buffer)
// covering filesystem overhead and concurrent writers in the same batch.
//
// Returns an InsufficientSpaceError if there is not enough space. If the
// filesystem cannot be queried (network mounts, FUSE oddities), the check
// passes and the write is left to fail naturally.
func CheckAvailableSpace(targetPath string, requiredBytes int64, safetyMargin float64) error {
	dir := filepath.Dir(targetPath)

	availableBytes := availableSpace(dir)
	if availableBytes <= 0 {
		return nil
	}

	requiredWithMargin := int64(float64(requiredBytes) * safetyMargin)

	if availableBytes < requiredWithMargin {
		return &InsufficientSpaceError{
			Path:           targetPath,
			RequiredBytes:  requiredWithMargin,
			AvailableBytes: availableBytes,
		}
	}

	return nil
}

// GetAvailableSpace returns the available space in bytes for the filesystem
// containing the given path. Returns 0 if unable to determine.
func GetAvailableSpace(path string) int64 {
	return availableSpace(filepath.Dir(path))
}

// IsInsufficientSpaceError checks if an error is an InsufficientSpaceError.
func IsInsufficientSpaceError(err error) bool {
	_, ok := err.(*InsufficientSpaceError)
	return ok
}
