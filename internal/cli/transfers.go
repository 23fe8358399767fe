package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/farview/sshfm/internal/config"
	"github.com/farview/sshfm/internal/constants"
	"github.com/farview/sshfm/internal/diskspace"
	"github.com/farview/sshfm/internal/progress"
	"github.com/farview/sshfm/internal/transfer"
	"github.com/farview/sshfm/internal/transport"
	"github.com/farview/sshfm/internal/util/paths"
	"github.com/farview/sshfm/internal/validation"
)

// buildDownloadBatch turns selected remote entries into a batch targeting
// destDir. Remote names are validated before they are joined into local
// paths, and colliding base names get ordinals so concurrent workers never
// write the same file.
func buildDownloadBatch(remoteDir string, entries []transport.Entry, destDir string) (transfer.Batch, error) {
	targets := make([]paths.DownloadTarget, 0, len(entries))
	for _, e := range entries {
		if err := validation.ValidateFilename(e.Name); err != nil {
			return transfer.Batch{}, fmt.Errorf("unsafe remote name %q: %w", e.Name, err)
		}
		targets = append(targets, paths.DownloadTarget{
			RemotePath: transport.Join(remoteDir, e.Name),
			Name:       e.Name,
			LocalPath:  filepath.Join(destDir, e.Name),
			Size:       e.Size,
		})
	}
	targets, collisions := paths.ResolveCollisions(targets)
	if collisions > 0 {
		fmt.Printf("Renamed %d colliding destination(s).\n", collisions)
	}

	batch := transfer.Batch{Label: "download"}
	for _, t := range targets {
		batch.Tasks = append(batch.Tasks, transfer.Task{
			Kind:   transfer.Download,
			Name:   t.Name,
			Source: t.RemotePath,
			Dest:   t.LocalPath,
			Size:   t.Size,
		})
	}
	return batch, nil
}

// checkDownloadSpace verifies destDir has room for the batch plus the
// safety margin before any transfer starts.
func checkDownloadSpace(destDir string, batch transfer.Batch) error {
	var total int64
	for _, t := range batch.Tasks {
		if t.Size > 0 {
			total += t.Size
		}
	}
	if total == 0 {
		return nil
	}
	return diskspace.CheckAvailableSpace(destDir, total, constants.DiskSpaceBufferPercent)
}

// runBatch executes a batch with per-file progress bars and prints the
// summary. The direction arrow only affects presentation.
func runBatch(ctx context.Context, client transport.Transport, settings config.Settings, batch transfer.Batch) transfer.Result {
	if len(batch.Tasks) == 0 {
		return transfer.Result{}
	}

	ui := progress.NewBatchUI(len(batch.Tasks))
	bars := make([]*progress.FileBar, len(batch.Tasks))

	orch := transfer.NewOrchestrator(client,
		transfer.WithWorkers(settings.Workers),
		transfer.WithLogger(GetLogger()),
		transfer.WithReporters(func(index int, task transfer.Task) progress.Reporter {
			bars[index] = ui.AddFileBar(index+1, task.Name, arrowFor(task.Kind), task.Size)
			return bars[index]
		}),
	)

	result := orch.Run(ctx, batch)

	for i, outcome := range result.Outcomes {
		if bars[i] != nil {
			bars[i].Done(outcome.Err)
		}
	}
	ui.Wait()

	printResult(result)
	return result
}

func arrowFor(kind transfer.Kind) string {
	if kind == transfer.Upload {
		return "→"
	}
	return "←"
}

// printResult prints the batch summary and one line per failure.
func printResult(result transfer.Result) {
	if result.Attempted == 0 {
		return
	}
	line := result.Summary()
	if result.Bytes > 0 {
		line += fmt.Sprintf(" (%s)", humanize.IBytes(uint64(result.Bytes)))
	}
	fmt.Println(line)
	for _, f := range result.Failures() {
		fmt.Printf("  ✗ %s: %v\n", f.Task.Name, f.Err)
	}
}

// ensureLocalDir verifies the destination directory exists and is a
// directory.
func ensureLocalDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("destination %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("destination %s is not a directory", dir)
	}
	return nil
}
