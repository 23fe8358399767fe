// Package validation provides input validation for names and paths that
// cross the trust boundary from the remote side.
package validation

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidateFilename validates a filename (not a full path) to prevent path
// traversal. Remote listings are untrusted input: a server (or a tree
// created by someone else on it) can contain entry names crafted to escape
// the local destination directory when joined with filepath.Join.
//
// Returns an error if the filename:
//   - Is empty
//   - Contains path separators (/ or \)
//   - Is the ".." component
//   - Contains null bytes
func ValidateFilename(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	if strings.ContainsRune(filename, 0) {
		return fmt.Errorf("filename contains null byte: %s", filename)
	}

	// Reject path separators (both Unix and Windows style)
	if strings.ContainsRune(filename, '/') || strings.ContainsRune(filename, '\\') {
		return fmt.Errorf("filename cannot contain path separators: %s", filename)
	}

	// Reject the literal ".." component. Since separators are already
	// rejected, names like "foo..bar.txt" remain legal.
	if filename == ".." {
		return fmt.Errorf("filename cannot be '..': %s", filename)
	}

	return nil
}

// ValidatePathInDirectory validates that a path, when resolved, stays within
// baseDir. Used for download destinations built from remote-supplied names
// and for sync fallback targets.
//
// Both path and baseDir are cleaned and made absolute before comparison.
func ValidatePathInDirectory(path string, baseDir string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if baseDir == "" {
		return fmt.Errorf("base directory cannot be empty")
	}

	cleanPath := filepath.Clean(path)
	cleanBase := filepath.Clean(baseDir)

	var err error
	if !filepath.IsAbs(cleanBase) {
		cleanBase, err = filepath.Abs(cleanBase)
		if err != nil {
			return fmt.Errorf("failed to resolve base directory: %w", err)
		}
	}

	var resolvedPath string
	if filepath.IsAbs(cleanPath) {
		resolvedPath = cleanPath
	} else {
		resolvedPath = filepath.Join(cleanBase, cleanPath)
	}
	resolvedPath = filepath.Clean(resolvedPath)

	relPath, err := filepath.Rel(cleanBase, resolvedPath)
	if err != nil {
		return fmt.Errorf("failed to compute relative path: %w", err)
	}

	// If the relative path starts with "..", it's outside the base directory
	if strings.HasPrefix(relPath, ".."+string(filepath.Separator)) || relPath == ".." {
		return fmt.Errorf("path escapes base directory: %s (base: %s)", path, baseDir)
	}

	return nil
}

// ValidateRemotePath checks a remote path typed by the operator for the
// change-path command. Only syntax is judged here; existence is the
// transport's business.
func ValidateRemotePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("remote path cannot be empty")
	}
	if strings.ContainsRune(path, 0) {
		return fmt.Errorf("remote path contains null byte")
	}
	return nil
}
