package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"

	"github.com/pkg/sftp"
)

// Sentinel errors forming the transport failure taxonomy. Callers match with
// errors.Is; the browser loop treats all of them as recoverable and only
// ErrConnectionLost ends a batch early.
var (
	ErrNotFound         = errors.New("not found")
	ErrNotADirectory    = errors.New("not a directory")
	ErrPermissionDenied = errors.New("permission denied")
	ErrConnectionLost   = errors.New("connection lost")
	ErrTimeout          = errors.New("operation timed out")
)

// Error wraps a low-level failure with the operation and remote path it hit,
// so every surfaced failure names what was being done to what.
type Error struct {
	Op   string // "list", "stat", "upload", "download", "preview"
	Path string // Remote path the operation targeted
	Err  error  // Classified cause, matches the sentinels above
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrapErr classifies err and attaches op/path context. Returns nil for nil.
func wrapErr(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Path: path, Err: classify(err)}
}

// classify maps sftp status codes, ssh connection failures, and local
// filesystem errors onto the sentinel taxonomy. Errors that already match a
// sentinel pass through unchanged; anything unrecognized is returned as-is so
// its original message survives.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrNotADirectory),
		errors.Is(err, ErrPermissionDenied),
		errors.Is(err, ErrConnectionLost),
		errors.Is(err, ErrTimeout):
		return err
	}

	// Context outcomes: deadline means a timed-out operation, cancellation
	// is reported as-is so the orchestrator can distinguish operator
	// interrupts from transport failures.
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	// SFTP status responses carry the server-side failure class.
	var status *sftp.StatusError
	if errors.As(err, &status) {
		switch status.FxCode() {
		case sftp.ErrSSHFxNoSuchFile:
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		case sftp.ErrSSHFxPermissionDenied:
			return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		case sftp.ErrSSHFxConnectionLost, sftp.ErrSSHFxNoConnection:
			return fmt.Errorf("%w: %v", ErrConnectionLost, err)
		}
		return err
	}

	// Local filesystem side of a transfer.
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}

	// Dead SSH connections surface as EOF, closed pipes, or net timeouts
	// depending on where the teardown was noticed.
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) || errors.Is(err, os.ErrClosed) ||
		errors.Is(err, sftp.ErrSSHFxConnectionLost) {
		return fmt.Errorf("%w: %v", ErrConnectionLost, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrConnectionLost, err)
	}

	return err
}

// IsConnectionLost reports whether err indicates the remote session is gone,
// meaning remaining batch work cannot be attempted.
func IsConnectionLost(err error) bool {
	return errors.Is(err, ErrConnectionLost)
}
