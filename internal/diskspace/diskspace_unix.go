//go:build !windows

package diskspace

import (
	"golang.org/x/sys/unix"
)

// availableSpace returns bytes available to non-root users on the filesystem
// holding dir, or 0 when the filesystem cannot be queried.
func availableSpace(dir string) int64 {
	var stat unix.Statfs_t
	if err := unix.Statfs(dir, &stat); err != nil {
		return 0
	}
	// Bavail = blocks available to unprivileged users
	return int64(stat.Bavail) * int64(stat.Bsize)
}
