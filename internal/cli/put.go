package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/farview/sshfm/internal/pathutil"
	"github.com/farview/sshfm/internal/transfer"
	"github.com/farview/sshfm/internal/transport"
)

func newPutCmd() *cobra.Command {
	var remoteDir string

	putCmd := &cobra.Command{
		Use:   "put <host> <local-file>...",
		Short: "Upload local files",
		Example: `  sshfm put myserver report.pdf
  sshfm put myserver a.dat b.dat --dest /srv/incoming`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := GetContext()
			settings := loadSettings()

			batch := transfer.Batch{Label: "upload"}
			for _, localPath := range args[1:] {
				localPath, err := pathutil.ResolveAbsolutePath(localPath)
				if err != nil {
					return err
				}
				info, err := os.Stat(localPath)
				if err != nil {
					return err
				}
				if info.IsDir() {
					return fmt.Errorf("%s is a directory; use sshfm sync for directories", localPath)
				}
				name := filepath.Base(localPath)
				batch.Tasks = append(batch.Tasks, transfer.Task{
					Kind:   transfer.Upload,
					Name:   name,
					Source: localPath,
					Dest:   transport.Join(remoteDir, name),
					Size:   info.Size(),
				})
			}

			client, err := openTransport(ctx, args[0], settings)
			if err != nil {
				return err
			}
			defer client.Close()

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

	putCmd.Flags().StringVarP(&remoteDir, "dest", "d", ".", "Remote destination directory")
	return putCmd
}
