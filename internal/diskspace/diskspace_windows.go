//go:build windows

package diskspace

import (
	"golang.org/x/sys/windows"
)

// availableSpace returns bytes available to the calling user on the volume
// holding dir, or 0 when the volume cannot be queried.
func availableSpace(dir string) int64 {
	pathPtr, err := windows.UTF16PtrFromString(dir)
	if err != nil {
		return 0
	}

	var freeBytesAvailable, totalBytes, totalFreeBytes uint64
	err = windows.GetDiskFreeSpaceEx(pathPtr, &freeBytesAvailable, &totalBytes, &totalFreeBytes)
	if err != nil {
		return 0
	}

	return int64(freeBytesAvailable)
}
