package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/farview/sshfm/internal/pathutil"
	"github.com/farview/sshfm/internal/transfer"
	"github.com/farview/sshfm/internal/transport"
	"github.com/farview/sshfm/internal/util/paths"
	"github.com/farview/sshfm/internal/validation"
)

func newGetCmd() *cobra.Command {
	var outputDir string

	getCmd := &cobra.Command{
		Use:   "get <host> <remote-path>...",
		Short: "Download remote files",
		Example: `  sshfm get myserver /var/log/app.log
  sshfm get myserver /srv/a.dat /srv/b.dat -o ~/Downloads`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := GetContext()
			settings := loadSettings()

			destDir, err := pathutil.ResolveAbsolutePath(outputDir)
			if err != nil {
				return err
			}
			if err := ensureLocalDir(destDir); err != nil {
				return err
			}

			client, err := openTransport(ctx, args[0], settings)
			if err != nil {
				return err
			}
			defer client.Close()

			// Stat everything up front so sizes drive the progress bars and
			// the disk-space preflight, and directories are rejected before
			// anything transfers.
			batch := transfer.Batch{Label: "download"}
			targets := make([]paths.DownloadTarget, 0, len(args)-1)
			for _, remotePath := range args[1:] {
				if err := validation.ValidateRemotePath(remotePath); err != nil {
					return err
				}
				entry, err := client.Stat(ctx, remotePath)
				if err != nil {
					return err
				}
				if entry.IsDir() {
					return fmt.Errorf("%s is a directory; use sshfm sync for directories", remotePath)
				}
				targets = append(targets, paths.DownloadTarget{
					RemotePath: remotePath,
					Name:       entry.Name,
					LocalPath:  filepath.Join(destDir, entry.Name),
					Size:       entry.Size,
				})
			}
			targets, _ = paths.ResolveCollisions(targets)
			for _, t := range targets {
				batch.Tasks = append(batch.Tasks, transfer.Task{
					Kind:   transfer.Download,
					Name:   t.Name,
					Source: t.RemotePath,
					Dest:   t.LocalPath,
					Size:   t.Size,
				})
			}

			if err := checkDownloadSpace(destDir, batch); err != nil {
				return err
			}

			result := runBatch(ctx, client, settings, batch)
			if !client.Alive() {
				return transport.ErrConnectionLost
			}
			if result.Succeeded == 0 && result.Failed > 0 {
				return fmt.Errorf("no files transferred")
			}
			return nil
		},
	}

	getCmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Local destination directory")
	return getCmd
}
