package transfer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/farview/sshfm/internal/constants"
	"github.com/farview/sshfm/internal/logging"
	"github.com/farview/sshfm/internal/progress"
	"github.com/farview/sshfm/internal/transport"
)

// ReporterFactory supplies a progress reporter for one task. index is the
// 0-based submission position; the batch UI uses it to label bars. A nil
// factory or nil return disables per-task progress.
type ReporterFactory func(index int, task Task) progress.Reporter

// Orchestrator runs batches against one transport. Tasks may execute
// concurrently up to the worker bound, but results are accumulated and
// reported strictly in submission order. One failing file never aborts the
// batch; only a dead connection or an operator interrupt stops early, and
// both leave every task in a terminal state.
type Orchestrator struct {
	transport transport.Transport
	workers   int
	reporters ReporterFactory
	logger    *logging.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithWorkers bounds concurrent transfers. Values are clamped to the
// supported range; 1 means strictly sequential.
func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n < constants.MinMaxConcurrent {
			n = constants.MinMaxConcurrent
		}
		if n > constants.MaxMaxConcurrent {
			n = constants.MaxMaxConcurrent
		}
		o.workers = n
	}
}

// WithReporters installs the per-task progress factory.
func WithReporters(f ReporterFactory) Option {
	return func(o *Orchestrator) { o.reporters = f }
}

// WithLogger routes orchestrator debug output.
func WithLogger(l *logging.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// NewOrchestrator creates an orchestrator over t with the default worker
// count.
func NewOrchestrator(t transport.Transport, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		transport: t,
		workers:   constants.DefaultMaxConcurrent,
		logger:    logging.NewDefaultCLILogger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes every task in the batch and returns the aggregate result.
// Cancellation via ctx marks in-flight and un-started tasks
// Failed(cancelled); a lost connection marks un-started tasks
// Failed(connection lost) without attempting them. Already-succeeded tasks
// keep their status in both cases.
func (o *Orchestrator) Run(ctx context.Context, batch Batch) Result {
	n := len(batch.Tasks)
	outcomes := make([]Outcome, n)
	for i, t := range batch.Tasks {
		outcomes[i] = Outcome{Task: t, State: Created}
	}
	if n == 0 {
		return Result{Outcomes: outcomes}
	}

	workers := o.workers
	if workers > n {
		workers = n
	}

	// connLost stops the feeder the moment any worker observes a dead
	// connection, so no further transport calls are issued.
	var connLost atomic.Bool

	indices := make(chan int)
	go func() {
		defer close(indices)
		for i := 0; i < n; i++ {
			if connLost.Load() {
				return
			}
			select {
			case indices <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				outcomes[i] = o.runTask(ctx, i, batch.Tasks[i])
				if transport.IsConnectionLost(outcomes[i].Err) {
					connLost.Store(true)
				}
			}
		}()
	}
	wg.Wait()

	// Whatever never reached a worker still needs a terminal state.
	for i := range outcomes {
		if outcomes[i].State == Succeeded || outcomes[i].State == Failed {
			continue
		}
		outcomes[i].State = Failed
		if ctx.Err() != nil {
			outcomes[i].Err = ErrCancelled
		} else {
			outcomes[i].Err = transport.ErrConnectionLost
		}
	}

	return tally(outcomes)
}

// runTask executes one transfer and returns its terminal outcome.
func (o *Orchestrator) runTask(ctx context.Context, index int, task Task) Outcome {
	outcome := Outcome{Task: task, State: InProgress}

	// A connection already known dead fails the task without a transport
	// call; attempting it would just hang until a timeout.
	if !o.transport.Alive() {
		outcome.State = Failed
		outcome.Err = transport.ErrConnectionLost
		return outcome
	}
	if err := ctx.Err(); err != nil {
		outcome.State = Failed
		outcome.Err = ErrCancelled
		return outcome
	}

	opts := transport.TransferOptions{ExpectedSize: task.Size}
	if o.reporters != nil {
		opts.Reporter = o.reporters(index, task)
	}

	o.logger.Debug().
		Str("kind", task.Kind.String()).
		Str("source", task.Source).
		Str("dest", task.Dest).
		Msg("starting transfer")

	var err error
	switch task.Kind {
	case Upload:
		err = o.transport.Upload(ctx, task.Source, task.Dest, opts)
	case Download:
		err = o.transport.Download(ctx, task.Source, task.Dest, opts)
	}

	if err != nil {
		outcome.State = Failed
		if errors.Is(err, context.Canceled) {
			outcome.Err = ErrCancelled
		} else {
			outcome.Err = err
		}
		return outcome
	}

	outcome.State = Succeeded
	return outcome
}

// tally folds terminal outcomes into the batch result.
func tally(outcomes []Outcome) Result {
	r := Result{Attempted: len(outcomes), Outcomes: outcomes}
	for _, o := range outcomes {
		if o.State == Succeeded {
			r.Succeeded++
			if o.Task.Size > 0 {
				r.Bytes += o.Task.Size
			}
		} else {
			r.Failed++
		}
	}
	return r
}
