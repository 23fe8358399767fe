// Package filter provides reusable path filtering for synchronization scans.
// Include/exclude rules are applied identically to the local walk and the
// remote walk so both sides of a sync plan see the same universe of paths.
package filter

import (
	"path/filepath"
	"strings"
)

// Config holds filter configuration.
type Config struct {
	// Include patterns (glob-style), matched against the relative path and
	// its base name. Empty means include all.
	// Example: []string{"*.dat", "*.txt"}
	Include []string

	// Exclude patterns (glob-style). Takes precedence over Include.
	// Example: []string{".git/**", "*.tmp"}
	Exclude []string
}

// Empty reports whether the configuration filters nothing.
func (c Config) Empty() bool {
	return len(c.Include) == 0 && len(c.Exclude) == 0
}

// Match reports whether a slash-separated relative path passes the filter.
func (c Config) Match(relPath string) bool {
	relPath = filepath.ToSlash(relPath)

	// 1. Exclude patterns first (highest priority)
	for _, pattern := range c.Exclude {
		if matchPattern(relPath, pattern) {
			return false
		}
		if matched, _ := filepath.Match(pattern, baseName(relPath)); matched {
			return false
		}
	}

	// 2. Include patterns
	if len(c.Include) > 0 {
		for _, pattern := range c.Include {
			if matchPattern(relPath, pattern) {
				return true
			}
			if matched, _ := filepath.Match(pattern, baseName(relPath)); matched {
				return true
			}
		}
		return false
	}

	return true
}

// Apply filters a slice of relative paths, preserving order.
func (c Config) Apply(relPaths []string) []string {
	if c.Empty() {
		return relPaths
	}
	filtered := make([]string, 0, len(relPaths))
	for _, p := range relPaths {
		if c.Match(p) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

func baseName(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}

// matchPattern matches a single path against a pattern.
// Supports standard glob patterns plus ** for recursive directory matching.
func matchPattern(path, pattern string) bool {
	pattern = filepath.ToSlash(pattern)
	if strings.Contains(pattern, "**") {
		return matchDoubleStarPattern(path, pattern)
	}

	matched, err := filepath.Match(pattern, path)
	if err != nil {
		return false
	}
	return matched
}

// matchDoubleStarPattern handles ** glob patterns for multi-directory matching.
// Examples:
//   - "**/foo.txt" matches "foo.txt", "a/foo.txt", "a/b/c/foo.txt"
//   - "build/**" matches "build/anything", "build/a/b/c/file.txt"
func matchDoubleStarPattern(path, pattern string) bool {
	// Pattern starts with **/ (match any prefix)
	if strings.HasPrefix(pattern, "**/") {
		suffix := pattern[3:]
		if matchPattern(path, suffix) {
			return true
		}
		parts := strings.Split(path, "/")
		for i := range parts {
			if matchPattern(strings.Join(parts[i:], "/"), suffix) {
				return true
			}
		}
		return false
	}

	// Pattern ends with /** (match any suffix)
	if strings.HasSuffix(pattern, "/**") {
		prefix := pattern[:len(pattern)-3]
		if strings.HasPrefix(path, prefix+"/") || path == prefix {
			return true
		}
		parts := strings.Split(path, "/")
		for i := 1; i <= len(parts); i++ {
			if matched, _ := filepath.Match(prefix, strings.Join(parts[:i], "/")); matched {
				return true
			}
		}
		return false
	}

	// ** in the middle (e.g., "runs/**/result.dat")
	if doubleStar := strings.Index(pattern, "/**/"); doubleStar != -1 {
		prefix := pattern[:doubleStar]
		suffix := pattern[doubleStar+4:]

		parts := strings.Split(path, "/")
		for i := 1; i < len(parts); i++ {
			if matched, _ := filepath.Match(prefix, strings.Join(parts[:i], "/")); matched {
				for j := i; j <= len(parts); j++ {
					if matchPattern(strings.Join(parts[j:], "/"), suffix) {
						return true
					}
				}
			}
		}
		return false
	}

	if pattern == "**" {
		return true
	}

	// Fallback: treat ** as * (match any single segment)
	matched, _ := filepath.Match(strings.ReplaceAll(pattern, "**", "*"), path)
	return matched
}

// ParsePatternList parses a comma-separated list of patterns into a slice.
// Example: "*.dat,*.txt" -> []string{"*.dat", "*.txt"}
func ParsePatternList(patternStr string) []string {
	if patternStr == "" {
		return nil
	}
	parts := strings.Split(patternStr, ",")
	patterns := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			patterns = append(patterns, trimmed)
		}
	}
	return patterns
}
