package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"

	"github.com/farview/sshfm/internal/constants"
)

// BatchUI renders one progress bar per file in a multi-file batch. In a
// terminal it uses mpb with EWMA speed/ETA decorators; piped output degrades
// to one start line and one completion line per file.
type BatchUI struct {
	progress   *mpb.Progress
	isTerminal bool
	totalFiles int
	completed  int32
	mu         sync.Mutex
}

// NewBatchUI creates the UI for a batch of totalFiles transfers.
func NewBatchUI(totalFiles int) *BatchUI {
	isTerminal := term.IsTerminal(int(os.Stderr.Fd()))

	var p *mpb.Progress
	if isTerminal {
		enableWindowsANSI(os.Stderr)
		p = mpb.New(
			mpb.WithOutput(os.Stderr),
			mpb.WithRefreshRate(constants.ProgressBarThrottle),
			mpb.WithWidth(100),
		)
	} else {
		p = mpb.New(mpb.WithOutput(io.Discard))
	}

	return &BatchUI{
		progress:   p,
		isTerminal: isTerminal,
		totalFiles: totalFiles,
	}
}

// FileBar is the per-file reporter handed to the transfer orchestrator. It
// implements Reporter; the bar appears on Start (when the size is known) and
// is removed on successful completion, leaving failures visible.
type FileBar struct {
	ui         *BatchUI
	bar        *mpb.Bar
	index      int    // 1-based position in the batch
	name       string // Display name
	arrow      string // "→" upload, "←" download
	size       int64
	startTime  time.Time
	lastUpdate time.Time
	lastBytes  int64
	failed     atomic.Bool
}

// AddFileBar registers a bar for one file. index is 1-based; arrow is the
// direction glyph shown between the name and the remote side.
func (u *BatchUI) AddFileBar(index int, name, arrow string, size int64) *FileBar {
	fb := &FileBar{
		ui:         u,
		index:      index,
		name:       name,
		arrow:      arrow,
		size:       size,
		startTime:  time.Now(),
		lastUpdate: time.Now(),
	}

	if u.isTerminal {
		fb.bar = u.progress.New(size,
			mpb.BarStyle().Lbound("[").Filler("█").Tip("█").Padding("░").Rbound("]"),
			mpb.PrependDecorators(
				decor.Name(fmt.Sprintf("[%d/%d] %s %s", index, u.totalFiles, name, arrow), decor.WCSyncSpaceR),
			),
			mpb.AppendDecorators(
				decor.CountersKibiByte("% .1f / % .1f", decor.WCSyncSpace),
				decor.Name("  "),
				decor.Percentage(decor.WCSyncSpace),
				decor.Name("  "),
				decor.EwmaSpeed(decor.SizeB1024(0), "% .1f", 60, decor.WCSyncSpace),
				decor.Name("  ETA "),
				decor.EwmaETA(decor.ET_STYLE_GO, 60),
			),
			mpb.BarRemoveOnComplete(),
		)
	} else {
		fmt.Fprintf(os.Stderr, "[%d/%d] %s %s (%s)\n",
			index, u.totalFiles, name, arrow, formatMiB(size))
	}
	return fb
}

// Start implements Reporter. The bar total is corrected when the transport
// stats a different size than the listing promised.
func (f *FileBar) Start(total int64, description string) {
	if f.bar != nil && total > 0 && total != f.size {
		f.size = total
		f.bar.SetTotal(total, false)
	}
	f.startTime = time.Now()
	f.lastUpdate = f.startTime
}

// Update implements Reporter. Increments are throttled and fed through
// EwmaIncrBy so mpb's speed and ETA decorators see real elapsed time.
func (f *FileBar) Update(current int64) {
	if f.bar == nil {
		return
	}
	now := time.Now()
	elapsed := now.Sub(f.lastUpdate)
	if elapsed < constants.ProgressBarThrottle && current < f.size {
		return
	}
	f.bar.EwmaIncrBy(int(current-f.lastBytes), elapsed)
	f.lastBytes = current
	f.lastUpdate = now
}

// Finish implements Reporter. A failed transfer keeps its bar on screen;
// the failure line comes from the batch summary.
func (f *FileBar) Finish() {
	if f.bar == nil {
		atomic.AddInt32(&f.ui.completed, 1)
		return
	}
	if f.failed.Load() {
		f.bar.Abort(false)
	} else {
		f.bar.SetCurrent(f.size)
		f.bar.SetTotal(f.size, true)
	}
	atomic.AddInt32(&f.ui.completed, 1)
}

// Error implements Reporter, marking the bar as failed before Finish runs.
func (f *FileBar) Error(err error) {
	if err != nil {
		f.failed.Store(true)
	}
}

// SetDescription implements Reporter. Bar labels are fixed at creation;
// mid-transfer description changes only matter for the single-bar reporter.
func (f *FileBar) SetDescription(desc string) {}

// Done prints the per-file completion line through mpb's writer so it lands
// above the live bars instead of tearing them.
func (f *FileBar) Done(err error) {
	elapsed := time.Since(f.startTime)
	var msg string
	if err == nil {
		speed := float64(f.size) / elapsed.Seconds() / (1024 * 1024)
		msg = fmt.Sprintf("✓ [%d/%d] %s %s (%s, %s, %.1f MiB/s)\n",
			f.index, f.ui.totalFiles, f.name, f.arrow,
			formatMiB(f.size), elapsed.Round(time.Second), speed)
	} else {
		f.failed.Store(true)
		msg = fmt.Sprintf("✗ [%d/%d] %s %s: %v\n",
			f.index, f.ui.totalFiles, f.name, f.arrow, err)
	}
	f.ui.write(msg)
}

// write routes a line above the bars in terminal mode, to stderr otherwise.
func (u *BatchUI) write(msg string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.isTerminal && u.progress != nil {
		u.progress.Write([]byte(msg))
		return
	}
	fmt.Fprint(os.Stderr, strings.TrimRight(msg, "\n")+"\n")
}

// Wait blocks until every bar has completed or aborted.
func (u *BatchUI) Wait() {
	if u.progress != nil {
		u.progress.Wait()
	}
}

// Writer returns a writer that prints safely above the bars.
func (u *BatchUI) Writer() io.Writer {
	if u.isTerminal && u.progress != nil {
		return u.progress
	}
	return os.Stderr
}

// IsTerminal reports whether live bars are being rendered.
func (u *BatchUI) IsTerminal() bool {
	return u.isTerminal
}

// Completed returns how many file bars have finished.
func (u *BatchUI) Completed() int {
	return int(atomic.LoadInt32(&u.completed))
}

func formatMiB(size int64) string {
	return fmt.Sprintf("%.1f MiB", float64(size)/(1024*1024))
}
