package sync

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/farview/sshfm/internal/logging"
	"github.com/farview/sshfm/internal/transfer"
	"github.com/farview/sshfm/internal/transport"
)

// Executor moves the bytes a Plan calls for. When the bulk-sync tool is
// available it handles each direction in one invocation, which beats
// per-file round trips on large trees; otherwise every planned item becomes
// a task for the transfer orchestrator. Both paths produce the same Result
// shape, with one outcome per planned item in plan order (uploads first).
type Executor struct {
	orch   *transfer.Orchestrator
	bulk   transport.BulkSyncer
	logger *logging.Logger
}

// NewExecutor creates an executor. bulk may be nil to force the per-file
// path.
func NewExecutor(orch *transfer.Orchestrator, bulk transport.BulkSyncer, logger *logging.Logger) *Executor {
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return &Executor{orch: orch, bulk: bulk, logger: logger}
}

// Execute runs the plan. Synchronization is not transactional: a failure
// partway leaves both trees individually consistent (each completed file is
// atomic) and the result names exactly which relative paths did not
// complete.
func (e *Executor) Execute(ctx context.Context, plan *Plan) transfer.Result {
	if plan.Empty() {
		return transfer.Result{}
	}

	if e.bulk != nil && e.bulk.Available() {
		return e.executeBulk(ctx, plan)
	}
	e.logger.Debug().Msg("bulk-sync tool unavailable, falling back to per-file transfers")
	return e.orch.Run(ctx, planBatch(plan))
}

// executeBulk drives one rsync invocation per direction, restricted to the
// planner's chosen paths so the tool cannot overrule a skipped conflict.
func (e *Executor) executeBulk(ctx context.Context, plan *Plan) transfer.Result {
	batch := planBatch(plan)
	outcomes := make([]transfer.Outcome, len(batch.Tasks))
	for i, t := range batch.Tasks {
		outcomes[i] = transfer.Outcome{Task: t, State: transfer.Created}
	}

	uploadErr := e.syncDirection(ctx, plan, transport.LocalToRemote, relPaths(plan.ToUpload))
	downloadErr := error(nil)
	if uploadErr == nil || !errors.Is(uploadErr, context.Canceled) {
		downloadErr = e.syncDirection(ctx, plan, transport.RemoteToLocal, relPaths(plan.ToDownload))
	} else {
		downloadErr = transfer.ErrCancelled
	}

	// The tool reports per-direction, not per-file: a failed direction
	// fails all of its items, since which of them completed is unknown.
	for i := range outcomes {
		var err error
		if outcomes[i].Task.Kind == transfer.Upload {
			err = uploadErr
		} else {
			err = downloadErr
		}
		if err != nil {
			outcomes[i].State = transfer.Failed
			if errors.Is(err, context.Canceled) {
				outcomes[i].Err = transfer.ErrCancelled
			} else {
				outcomes[i].Err = err
			}
		} else {
			outcomes[i].State = transfer.Succeeded
		}
	}
	return tallyOutcomes(outcomes)
}

// syncDirection invokes the bulk tool for one direction, skipping empty
// directions.
func (e *Executor) syncDirection(ctx context.Context, plan *Plan, dir transport.Direction, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	e.logger.Debug().
		Str("direction", dir.String()).
		Int("files", len(paths)).
		Msg("running bulk sync")
	return e.bulk.Sync(ctx, plan.LocalRoot, plan.RemoteRoot, dir, paths)
}

// planBatch converts a plan into an orchestrator batch, uploads first, each
// direction in the planner's deterministic path order.
func planBatch(plan *Plan) transfer.Batch {
	batch := transfer.Batch{Label: "sync"}
	for _, item := range plan.ToUpload {
		batch.Tasks = append(batch.Tasks, transfer.Task{
			Kind:   transfer.Upload,
			Name:   item.RelPath,
			Source: filepath.Join(plan.LocalRoot, filepath.FromSlash(item.RelPath)),
			Dest:   transport.Join(plan.RemoteRoot, item.RelPath),
			Size:   item.Size,
		})
	}
	for _, item := range plan.ToDownload {
		batch.Tasks = append(batch.Tasks, transfer.Task{
			Kind:   transfer.Download,
			Name:   item.RelPath,
			Source: transport.Join(plan.RemoteRoot, item.RelPath),
			Dest:   filepath.Join(plan.LocalRoot, filepath.FromSlash(item.RelPath)),
			Size:   item.Size,
		})
	}
	return batch
}

func relPaths(items []Item) []string {
	paths := make([]string, len(items))
	for i, item := range items {
		paths[i] = item.RelPath
	}
	return paths
}

// tallyOutcomes mirrors the orchestrator's result accounting for the bulk
// path.
func tallyOutcomes(outcomes []transfer.Outcome) transfer.Result {
	r := transfer.Result{Attempted: len(outcomes), Outcomes: outcomes}
	for _, o := range outcomes {
		if o.State == transfer.Succeeded {
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
