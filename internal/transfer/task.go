// Package transfer executes batches of single-file transfers against the
// remote transport, tracking per-file outcomes and aggregate results. It is
// indifferent to where the file list came from: a single selection and a
// multi-selection submit the same Batch shape.
package transfer

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
)

// Kind indicates the direction of a task.
type Kind int

const (
	Upload Kind = iota
	Download
)

func (k Kind) String() string {
	if k == Upload {
		return "upload"
	}
	return "download"
}

// State is the lifecycle position of a task. Tasks move Created ->
// InProgress -> Succeeded | Failed; terminal states are never revisited and
// the orchestrator never retries on its own.
type State int

const (
	Created State = iota
	InProgress
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case InProgress:
		return "in progress"
	case Succeeded:
		return "succeeded"
	default:
		return "failed"
	}
}

// ErrCancelled marks tasks stopped by an operator interrupt rather than a
// transfer failure.
var ErrCancelled = errors.New("cancelled")

// Task is one file transfer. Source and Dest are full paths on their
// respective sides: local source and remote dest for an upload, remote
// source and local dest for a download.
type Task struct {
	Kind   Kind
	Name   string // Display name, usually the source base name
	Source string
	Dest   string
	Size   int64 // Expected bytes, -1 when unknown
}

// Batch is an ordered set of tasks sharing one operator command. Order is
// significant: execution may overlap, but results always report in this
// order, and destination collisions resolve in favor of earlier tasks.
type Batch struct {
	Label string // Short description for logs and the summary line
	Tasks []Task
}

// Outcome is the terminal record for one task.
type Outcome struct {
	Task  Task
	State State
	Err   error // Failure reason, nil iff State == Succeeded
}

// Result is the aggregate of a completed batch. Every task appears exactly
// once in Outcomes, in submission order, in a terminal state.
type Result struct {
	Attempted int // Total tasks in the batch
	Succeeded int
	Failed    int
	Outcomes  []Outcome
	Bytes     int64 // Bytes moved by succeeded tasks, where sizes were known
}

// Failures returns only the failed outcomes, in submission order.
func (r Result) Failures() []Outcome {
	var failures []Outcome
	for _, o := range r.Outcomes {
		if o.State == Failed {
			failures = append(failures, o)
		}
	}
	return failures
}

// AllSucceeded reports whether every task in the batch succeeded.
func (r Result) AllSucceeded() bool {
	return r.Failed == 0 && r.Attempted > 0
}

// Summary renders the one-line pass/fail count shown after every batch.
func (r Result) Summary() string {
	s := fmt.Sprintf("%d/%d files transferred", r.Succeeded, r.Attempted)
	if r.Bytes > 0 {
		s += fmt.Sprintf(" (%s)", humanize.IBytes(uint64(r.Bytes)))
	}
	return s
}
