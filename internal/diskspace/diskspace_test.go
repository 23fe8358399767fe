package diskspace

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestCheckAvailableSpace(t *testing.T) {
	target := filepath.Join(t.TempDir(), "incoming.bin")

	t.Run("small file passes", func(t *testing.T) {
		if err := CheckAvailableSpace(target, 1024, 1.1); err != nil {
			t.Errorf("expected no error for 1KB, got: %v", err)
		}
	})

	t.Run("absurd requirement fails", func(t *testing.T) {
		// 1 PB should exceed any CI disk
		err := CheckAvailableSpace(target, 1<<50, 1.0)
		if err == nil {
			t.Skip("filesystem reports no usable statistics")
		}
		var ise *InsufficientSpaceError
		if !errors.As(err, &ise) {
			t.Fatalf("expected InsufficientSpaceError, got %T", err)
		}
		if ise.Path != target {
			t.Errorf("error path = %q, want %q", ise.Path, target)
		}
		if !IsInsufficientSpaceError(err) {
			t.Error("IsInsufficientSpaceError returned false")
		}
	})

	t.Run("margin is applied", func(t *testing.T) {
		avail := GetAvailableSpace(target)
		if avail <= 0 {
			t.Skip("filesystem reports no usable statistics")
		}
		// Just under available, but margin pushes it over.
		err := CheckAvailableSpace(target, avail-1, 2.0)
		if err == nil {
			t.Error("expected margin to trigger insufficient space")
		}
	})
}

func TestInsufficientSpaceErrorMessage(t *testing.T) {
	err := &InsufficientSpaceError{
		Path:           "/dest/big.iso",
		RequiredBytes:  2 * 1024 * 1024 * 1024,
		AvailableBytes: 512 * 1024 * 1024,
	}
	msg := err.Error()
	for _, want := range []string{"/dest/big.iso", "2.0 GiB", "512 MiB"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error message %q missing %q", msg, want)
		}
	}
}
