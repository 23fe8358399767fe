package transfer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/farview/sshfm/internal/transport"
)

// fakeTransport scripts per-path outcomes and records the order of transport
// calls, so tests can assert both accounting and that no calls happen after
// a stop condition.
type fakeTransport struct {
	mu       sync.Mutex
	calls    []string
	failures map[string]error // source path -> forced error
	delay    time.Duration
	dead     atomic.Bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{failures: make(map[string]error)}
}

func (f *fakeTransport) record(source string) {
	f.mu.Lock()
	f.calls = append(f.calls, source)
	f.mu.Unlock()
}

func (f *fakeTransport) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeTransport) transferErr(ctx context.Context, source string) error {
	f.record(source)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err, ok := f.failures[source]; ok {
		if transport.IsConnectionLost(err) {
			f.dead.Store(true)
		}
		return err
	}
	return nil
}

func (f *fakeTransport) Upload(ctx context.Context, localPath, remotePath string, opts transport.TransferOptions) error {
	return f.transferErr(ctx, localPath)
}

func (f *fakeTransport) Download(ctx context.Context, remotePath, localPath string, opts transport.TransferOptions) error {
	return f.transferErr(ctx, remotePath)
}

func (f *fakeTransport) List(ctx context.Context, path string) ([]transport.Entry, error) {
	return nil, nil
}

func (f *fakeTransport) Stat(ctx context.Context, path string) (transport.Entry, error) {
	return transport.Entry{}, nil
}

func (f *fakeTransport) ReadPreview(ctx context.Context, path string, maxBytes int64) ([]byte, error) {
	return nil, nil
}

func (f *fakeTransport) Alive() bool { return !f.dead.Load() }

func (f *fakeTransport) Close() error { return nil }

func makeBatch(n int) Batch {
	b := Batch{Label: "test"}
	for i := 1; i <= n; i++ {
		b.Tasks = append(b.Tasks, Task{
			Kind:   Download,
			Name:   fmt.Sprintf("file%d.txt", i),
			Source: fmt.Sprintf("/remote/file%d.txt", i),
			Dest:   fmt.Sprintf("/local/file%d.txt", i),
			Size:   100,
		})
	}
	return b
}

func TestRunAllSucceed(t *testing.T) {
	ft := newFakeTransport()
	o := NewOrchestrator(ft, WithWorkers(3))

	result := o.Run(context.Background(), makeBatch(5))

	if result.Succeeded != 5 || result.Failed != 0 || result.Attempted != 5 {
		t.Fatalf("got %d/%d succeeded, %d failed", result.Succeeded, result.Attempted, result.Failed)
	}
	if !result.AllSucceeded() {
		t.Error("AllSucceeded should be true")
	}
	if result.Bytes != 500 {
		t.Errorf("Bytes = %d, want 500", result.Bytes)
	}
}

func TestRunResultsInSubmissionOrder(t *testing.T) {
	ft := newFakeTransport()
	ft.delay = 5 * time.Millisecond // Overlap workers so completion order scrambles
	o := NewOrchestrator(ft, WithWorkers(4))

	batch := makeBatch(12)
	result := o.Run(context.Background(), batch)

	if len(result.Outcomes) != len(batch.Tasks) {
		t.Fatalf("got %d outcomes, want %d", len(result.Outcomes), len(batch.Tasks))
	}
	for i, outcome := range result.Outcomes {
		if outcome.Task.Source != batch.Tasks[i].Source {
			t.Errorf("outcome %d is for %s, want %s", i, outcome.Task.Source, batch.Tasks[i].Source)
		}
	}
}

func TestRunFailuresDoNotAbortBatch(t *testing.T) {
	ft := newFakeTransport()
	ft.failures["/remote/file2.txt"] = errors.New("disk full")
	ft.failures["/remote/file4.txt"] = fmt.Errorf("%w: open", transport.ErrPermissionDenied)
	o := NewOrchestrator(ft, WithWorkers(1))

	result := o.Run(context.Background(), makeBatch(5))

	if result.Succeeded+result.Failed != result.Attempted {
		t.Fatalf("succeeded %d + failed %d != attempted %d", result.Succeeded, result.Failed, result.Attempted)
	}
	if result.Succeeded != 3 || result.Failed != 2 {
		t.Fatalf("got %d succeeded, %d failed", result.Succeeded, result.Failed)
	}

	failures := result.Failures()
	if len(failures) != 2 {
		t.Fatalf("got %d failures, want 2", len(failures))
	}
	if failures[0].Task.Name != "file2.txt" || failures[1].Task.Name != "file4.txt" {
		t.Errorf("failures out of order: %s, %s", failures[0].Task.Name, failures[1].Task.Name)
	}
	if ft.callCount() != 5 {
		t.Errorf("all 5 tasks should have been attempted, got %d calls", ft.callCount())
	}
}

func TestRunCancellationMidBatch(t *testing.T) {
	ft := newFakeTransport()
	ctx, cancel := context.WithCancel(context.Background())

	// Task 3 triggers the interrupt as it starts; with a single worker,
	// tasks 1 and 2 have already succeeded and 4 and 5 never started.
	wrapped := &cancellingTransport{
		fakeTransport: ft,
		cancelOn:      "/remote/file3.txt",
		cancel:        cancel,
	}

	result := NewOrchestrator(wrapped, WithWorkers(1)).Run(ctx, makeBatch(5))

	if result.Succeeded != 2 {
		t.Fatalf("got %d succeeded, want 2", result.Succeeded)
	}
	if result.Failed != 3 {
		t.Fatalf("got %d failed, want 3", result.Failed)
	}
	for _, f := range result.Failures() {
		if !errors.Is(f.Err, ErrCancelled) {
			t.Errorf("%s failed with %v, want cancelled", f.Task.Name, f.Err)
		}
	}
	// Tasks 4 and 5 must never reach the transport.
	if got := ft.callCount(); got != 3 {
		t.Errorf("transport saw %d calls after cancellation, want 3", got)
	}
}

// cancellingTransport triggers ctx cancellation when a given source starts,
// then reports the task as cancelled.
type cancellingTransport struct {
	*fakeTransport
	cancelOn string
	cancel   context.CancelFunc
}

func (c *cancellingTransport) Download(ctx context.Context, remotePath, localPath string, opts transport.TransferOptions) error {
	if remotePath == c.cancelOn {
		c.record(remotePath)
		c.cancel()
		return context.Canceled
	}
	return c.fakeTransport.Download(ctx, remotePath, localPath, opts)
}

func TestRunConnectionLostFailsRemaining(t *testing.T) {
	ft := newFakeTransport()
	ft.failures["/remote/file2.txt"] = fmt.Errorf("%w: broken pipe", transport.ErrConnectionLost)
	o := NewOrchestrator(ft, WithWorkers(1))

	result := o.Run(context.Background(), makeBatch(5))

	if result.Succeeded != 1 {
		t.Fatalf("got %d succeeded, want 1", result.Succeeded)
	}
	if result.Failed != 4 {
		t.Fatalf("got %d failed, want 4", result.Failed)
	}
	for _, f := range result.Failures() {
		if !transport.IsConnectionLost(f.Err) {
			t.Errorf("%s failed with %v, want connection lost", f.Task.Name, f.Err)
		}
	}
	// Tasks 3-5 are failed without being attempted.
	if got := ft.callCount(); got != 2 {
		t.Errorf("transport saw %d calls, want 2", got)
	}
}

func TestRunEmptyBatch(t *testing.T) {
	o := NewOrchestrator(newFakeTransport())
	result := o.Run(context.Background(), Batch{})
	if result.Attempted != 0 || len(result.Outcomes) != 0 {
		t.Errorf("empty batch produced %+v", result)
	}
	if result.AllSucceeded() {
		t.Error("empty batch is not a success")
	}
}

func TestSummary(t *testing.T) {
	r := Result{Attempted: 5, Succeeded: 3, Failed: 2}
	if got := r.Summary(); got != "3/5 files transferred" {
		t.Errorf("Summary() = %q", got)
	}
}
