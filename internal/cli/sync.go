package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/farview/sshfm/internal/browser"
	"github.com/farview/sshfm/internal/config"
	"github.com/farview/sshfm/internal/pathutil"
	syncpkg "github.com/farview/sshfm/internal/sync"
	"github.com/farview/sshfm/internal/transfer"
	"github.com/farview/sshfm/internal/transport"
	"github.com/farview/sshfm/internal/util/filter"
)

func newSyncCmd() *cobra.Command {
	var (
		dryRun   bool
		noRsync  bool
		includes string
		excludes string
	)

	syncCmd := &cobra.Command{
		Use:   "sync <host> <local-dir> <remote-dir>",
		Short: "Two-way sync between a local and a remote directory",
		Long: `Compare both trees by size and modification time and copy each
changed file toward the side with the older copy. Files with equal
timestamps but differing sizes are left untouched and reported.

When rsync is available on PATH it handles the bulk copy; otherwise
files go one by one over SFTP.`,
		Example: `  sshfm sync myserver ./site /var/www/site
  sshfm sync myserver ./data /srv/data --exclude "*.tmp,.git/**" --dry-run`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := GetContext()
			settings := loadSettings()

			localRoot, err := pathutil.ResolveAbsolutePath(args[1])
			if err != nil {
				return err
			}
			if err := ensureLocalDir(localRoot); err != nil {
				return err
			}

			client, err := openTransport(ctx, args[0], settings)
			if err != nil {
				return err
			}
			defer client.Close()

			f := filter.Config{
				Include: filter.ParsePatternList(includes),
				Exclude: filter.ParsePatternList(excludes),
			}
			return runSync(ctx, client, settings, localRoot, args[2], f, dryRun, noRsync)
		},
	}

	syncCmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Show the plan without transferring anything")
	syncCmd.Flags().BoolVar(&noRsync, "no-rsync", false, "Force per-file SFTP transfers even when rsync is available")
	syncCmd.Flags().StringVar(&includes, "include", "", "Comma-separated include globs (default: everything)")
	syncCmd.Flags().StringVar(&excludes, "exclude", "", "Comma-separated exclude globs")
	return syncCmd
}

// syncFlow is the in-browser s command: sync a local directory against the
// current remote directory after showing the plan.
func syncFlow(ctx context.Context, machine *browser.Machine, client *transport.Client, settings config.Settings, localDir string) (string, error) {
	localRoot, err := pathutil.ResolveAbsolutePath(localDir)
	if err != nil {
		return "", err
	}
	if err := ensureLocalDir(localRoot); err != nil {
		return "", err
	}

	if err := runSync(ctx, client, settings, localRoot, machine.Path(), filter.Config{}, false, false); err != nil {
		return "", err
	}
	machine.Invalidate()
	return "", nil
}

// runSync plans, confirms, and executes one sync.
func runSync(ctx context.Context, client *transport.Client, settings config.Settings, localRoot, remoteRoot string, f filter.Config, dryRun, noRsync bool) error {
	planner := syncpkg.NewPlanner(client, syncpkg.Options{
		Filter:        f,
		IncludeHidden: settings.ShowHidden,
	})

	plan, err := planner.Plan(ctx, localRoot, remoteRoot)
	if err != nil {
		return fmt.Errorf("planning sync: %w", err)
	}

	printPlan(plan)
	if plan.Empty() {
		return nil
	}
	if dryRun {
		return nil
	}
	if !confirm("Apply") {
		return nil
	}

	orch := transfer.NewOrchestrator(client,
		transfer.WithWorkers(settings.Workers),
		transfer.WithLogger(GetLogger()),
	)
	var bulk transport.BulkSyncer
	if !noRsync {
		bulk = transport.NewRsyncRunner(client.Profile(), settings.RsyncPath, settings.RsyncArgs, settings.BandwidthLimit, os.Stderr)
	}

	result := syncpkg.NewExecutor(orch, bulk, GetLogger()).Execute(ctx, plan)
	printResult(result)
	return nil
}

// printPlan summarizes what a sync would do, including skipped conflicts.
func printPlan(plan *syncpkg.Plan) {
	if plan.Empty() && len(plan.Skipped) == 0 {
		fmt.Println("Already in sync.")
		return
	}
	for _, item := range plan.ToUpload {
		fmt.Printf("  → %s\n", item.RelPath)
	}
	for _, item := range plan.ToDownload {
		fmt.Printf("  ← %s\n", item.RelPath)
	}
	for _, c := range plan.Skipped {
		fmt.Printf("  ! conflict, skipped: %s\n", c)
	}
	fmt.Printf("%d to upload, %d to download, %d skipped.\n",
		len(plan.ToUpload), len(plan.ToDownload), len(plan.Skipped))
}
