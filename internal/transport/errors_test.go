package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"testing"
)

type fakeNetError struct{ timeout bool }

func (e *fakeNetError) Error() string   { return "fake net error" }
func (e *fakeNetError) Timeout() bool   { return e.timeout }
func (e *fakeNetError) Temporary() bool { return false }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"already classified", fmt.Errorf("list /x: %w", ErrNotFound), ErrNotFound},
		{"fs not exist", fs.ErrNotExist, ErrNotFound},
		{"fs permission", fs.ErrPermission, ErrPermissionDenied},
		{"eof is connection lost", io.EOF, ErrConnectionLost},
		{"unexpected eof is connection lost", io.ErrUnexpectedEOF, ErrConnectionLost},
		{"deadline is timeout", context.DeadlineExceeded, ErrTimeout},
		{"net timeout", &fakeNetError{timeout: true}, ErrTimeout},
		{"net failure", &fakeNetError{}, ErrConnectionLost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.in)
			if tt.want == nil {
				if got != nil {
					t.Fatalf("classify(%v) = %v, want nil", tt.in, got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Errorf("classify(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestClassifyKeepsCancellation(t *testing.T) {
	got := classify(context.Canceled)
	if !errors.Is(got, context.Canceled) {
		t.Fatalf("classify(context.Canceled) = %v", got)
	}
	for _, sentinel := range []error{ErrNotFound, ErrConnectionLost, ErrTimeout} {
		if errors.Is(got, sentinel) {
			t.Errorf("cancellation must not classify as %v", sentinel)
		}
	}
}

func TestClassifyPassesUnknownThrough(t *testing.T) {
	odd := errors.New("quota exceeded")
	if got := classify(odd); got != odd {
		t.Errorf("classify(%v) = %v, want same error", odd, got)
	}
}

func TestWrapErrNamesOpAndPath(t *testing.T) {
	err := wrapErr("download", "/srv/data.bin", fs.ErrNotExist)

	var terr *Error
	if !errors.As(err, &terr) {
		t.Fatalf("wrapErr returned %T", err)
	}
	if terr.Op != "download" || terr.Path != "/srv/data.bin" {
		t.Errorf("got op=%q path=%q", terr.Op, terr.Path)
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("wrapped error lost its class: %v", err)
	}
	if wrapErr("stat", "/x", nil) != nil {
		t.Error("wrapErr(nil) must be nil")
	}
}

func TestIsConnectionLost(t *testing.T) {
	if !IsConnectionLost(wrapErr("list", "/", io.EOF)) {
		t.Error("EOF through wrapErr should read as connection lost")
	}
	if IsConnectionLost(wrapErr("list", "/", fs.ErrNotExist)) {
		t.Error("not-found must not read as connection lost")
	}
}
