package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/farview/sshfm/internal/browser"
	"github.com/farview/sshfm/internal/config"
	"github.com/farview/sshfm/internal/localfs"
	"github.com/farview/sshfm/internal/pathutil"
	"github.com/farview/sshfm/internal/profile"
	"github.com/farview/sshfm/internal/transfer"
	"github.com/farview/sshfm/internal/transport"
)

const browseHelp = `Commands:
  <n>          open entry n (0 = parent); files open the action menu
  d <sel>      download selected files, e.g. "d 1,3-5"
  u            upload local files into this directory
  s <dir>      sync a local directory with this directory
  cd <path>    jump to an absolute remote path
  r            refresh the listing
  h            this help
  q            quit`

func newBrowseCmd() *cobra.Command {
	var startPath string

	browseCmd := &cobra.Command{
		Use:   "browse <host>",
		Short: "Browse a remote filesystem interactively",
		Long: `Open the interactive browser on a configured host.

Entries are numbered; type a number to open it. Multi-file downloads
take a selection like "1,3-5".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prof, err := lookupProfile(args[0])
			if err != nil {
				return err
			}
			return browseHost(GetContext(), prof, loadSettings(), startPath)
		},
	}

	browseCmd.Flags().StringVarP(&startPath, "path", "p", "", "Remote directory to start in (default: remote home)")
	return browseCmd
}

// browseHost connects and runs the browser loop until quit or a dead
// connection.
func browseHost(ctx context.Context, prof profile.Profile, settings config.Settings, startPath string) error {
	client, err := connectTransport(ctx, prof, settings)
	if err != nil {
		return err
	}
	defer client.Close()

	if startPath == "" {
		startPath, err = client.Getwd(ctx)
		if err != nil {
			startPath = "/"
		}
	}

	machine := browser.NewMachine(client, startPath)
	if err := machine.Start(ctx); err != nil {
		return fmt.Errorf("listing %s: %w", startPath, err)
	}

	fmt.Printf("Connected to %s. Type h for help.\n", prof.Target())
	return browserLoop(ctx, machine, client, settings)
}

// browserLoop renders and dispatches until the machine exits. Command
// failures become the result line of the next render; only a lost
// connection or EOF ends the loop early.
func browserLoop(ctx context.Context, machine *browser.Machine, client *transport.Client, settings config.Settings) error {
	lastResult := ""

	for machine.State() == browser.Browsing && ctx.Err() == nil {
		listing, err := machine.Listing(ctx)
		if err != nil {
			if transport.IsConnectionLost(err) {
				return fmt.Errorf("connection lost: %w", err)
			}
			lastResult = err.Error()
		}
		fmt.Print(browser.Render(machine.Path(), listing, lastResult))
		lastResult = ""

		line, err := readLine("sshfm> ")
		if err != nil {
			machine.Quit()
			break
		}

		lastResult, err = dispatch(ctx, machine, client, settings, line)
		if err != nil {
			if transport.IsConnectionLost(err) {
				return fmt.Errorf("connection lost: %w", err)
			}
			lastResult = err.Error()
		}
	}
	return nil
}

// dispatch applies one operator command and returns the result line for
// the next render. User errors come back as errors and never end the loop.
func dispatch(ctx context.Context, machine *browser.Machine, client *transport.Client, settings config.Settings, line string) (string, error) {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "":
		return "", nil
	case "q", "quit", "exit":
		machine.Quit()
		return "", nil
	case "h", "help", "?":
		return browseHelp, nil
	case "r", "refresh":
		_, err := machine.Refresh(ctx)
		return "", err
	case "cd":
		if arg == "" {
			return "", fmt.Errorf("usage: cd <absolute path>")
		}
		return "", machine.ChangePath(ctx, arg)
	case "d", "dl", "download":
		if arg == "" {
			return "", fmt.Errorf("usage: d <selection>, e.g. d 1,3-5")
		}
		return downloadSelection(ctx, machine, client, settings, arg)
	case "u", "upload":
		return uploadFlow(ctx, machine, client, settings)
	case "s", "sync":
		if arg == "" {
			return "", fmt.Errorf("usage: s <local directory>")
		}
		return syncFlow(ctx, machine, client, settings, arg)
	default:
		n, err := strconv.Atoi(cmd)
		if err != nil {
			return "", fmt.Errorf("unknown command %q (h for help)", line)
		}
		return navigate(ctx, machine, client, settings, n)
	}
}

// navigate opens an entry by index. Files get the single-file action menu.
func navigate(ctx context.Context, machine *browser.Machine, client *transport.Client, settings config.Settings, index int) (string, error) {
	result, err := machine.Navigate(ctx, index)
	if err != nil {
		return "", err
	}
	if result.Descended {
		return "", nil
	}
	return fileActions(ctx, machine, client, settings, result)
}

// fileActions is the sub-flow for a selected file: info, preview, download.
func fileActions(ctx context.Context, machine *browser.Machine, client *transport.Client, settings config.Settings, nav browser.NavResult) (string, error) {
	for {
		line, err := readLine(fmt.Sprintf("%s: [i]nfo, [p]review, [d]ownload, enter to go back: ", nav.File.Name))
		if err != nil {
			return "", nil
		}
		switch strings.ToLower(line) {
		case "":
			return "", nil
		case "i", "info":
			entry, err := client.Stat(ctx, nav.FilePath)
			if err != nil {
				return "", err
			}
			fmt.Print(browser.RenderEntryInfo(nav.FilePath, entry))
		case "p", "preview":
			text, err := browser.Preview(ctx, client, nav.FilePath, settings.PreviewLines, settings.PreviewBytes)
			if err != nil {
				if errors.Is(err, browser.ErrBinaryContent) {
					fmt.Println("File looks binary, not previewing.")
					continue
				}
				return "", err
			}
			fmt.Println(text)
		case "d", "download":
			return downloadEntries(ctx, machine, client, settings, []transport.Entry{nav.File})
		default:
			fmt.Printf("Unknown action %q.\n", line)
		}
	}
}

// downloadSelection resolves a selection expression against the current
// listing and downloads the chosen files.
func downloadSelection(ctx context.Context, machine *browser.Machine, client *transport.Client, settings config.Settings, expr string) (string, error) {
	listing, err := machine.Listing(ctx)
	if err != nil {
		return "", err
	}
	_, entries, err := listing.Select(expr)
	if err != nil {
		return "", err
	}

	files := make([]transport.Entry, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			return "", fmt.Errorf("%s is a directory; use s to sync directories", e.Name)
		}
		files = append(files, e)
	}
	return downloadEntries(ctx, machine, client, settings, files)
}

// downloadEntries asks for a destination and runs the download batch.
func downloadEntries(ctx context.Context, machine *browser.Machine, client *transport.Client, settings config.Settings, entries []transport.Entry) (string, error) {
	destDir, ok, err := chooseDestination(settings)
	if err != nil {
		return "", err
	}
	if !ok {
		return "cancelled", nil
	}

	batch, err := buildDownloadBatch(machine.Path(), entries, destDir)
	if err != nil {
		return "", err
	}
	if err := checkDownloadSpace(destDir, batch); err != nil {
		return "", err
	}

	result := runBatch(ctx, client, settings, batch)
	return result.Summary(), nil
}

// chooseDestination offers the standard download destinations plus a custom
// path. ok=false means the operator cancelled.
func chooseDestination(settings config.Settings) (dir string, ok bool, err error) {
	defaultDir := settings.DownloadDir
	if defaultDir == "" {
		defaultDir, _ = os.Getwd()
	}

	fmt.Println("Download to:")
	fmt.Printf("  1) %s\n", defaultDir)
	fmt.Println("  2) ~/Desktop")
	fmt.Println("  3) ~/Downloads")
	fmt.Println("  4) custom path")

	n, picked := promptNumber("Destination", 4)
	if !picked {
		return "", false, nil
	}

	switch n {
	case 1:
		dir = defaultDir
	case 2:
		dir = "~/Desktop"
	case 3:
		dir = "~/Downloads"
	case 4:
		dir, err = readLineDefault("Path", "")
		if err != nil || dir == "" {
			return "", false, err
		}
	}

	dir, err = pathutil.ResolveAbsolutePath(dir)
	if err != nil {
		return "", false, err
	}
	if err := ensureLocalDir(dir); err != nil {
		return "", false, err
	}
	return dir, true, nil
}

// uploadFlow walks the local filesystem with a numbered pick list and
// uploads the selected files into the current remote directory.
func uploadFlow(ctx context.Context, machine *browser.Machine, client *transport.Client, settings config.Settings) (string, error) {
	files, ok, err := pickLocalFiles(ctx, settings)
	if err != nil || !ok {
		return "cancelled", err
	}

	batch := transfer.Batch{Label: "upload"}
	for _, f := range files {
		batch.Tasks = append(batch.Tasks, transfer.Task{
			Kind:   transfer.Upload,
			Name:   f.Name,
			Source: f.Path,
			Dest:   transport.Join(machine.Path(), f.Name),
			Size:   f.Size,
		})
	}

	result := runBatch(ctx, client, settings, batch)

	// Fresh indices next render: the listing now contains the uploads.
	machine.Invalidate()
	return result.Summary(), nil
}

// pickLocalFiles is the local-side pick list: directories navigable by
// number, files chosen with a selection expression.
func pickLocalFiles(ctx context.Context, settings config.Settings) ([]localfs.FileEntry, bool, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, false, err
	}

	for {
		entries, err := localfs.ListDirectory(ctx, dir, localfs.ListOptions{IncludeHidden: settings.ShowHidden})
		if err != nil {
			return nil, false, err
		}

		fmt.Printf("\nLocal: %s\n", dir)
		fmt.Println("   0) ../")
		for i, e := range entries {
			if e.IsDir {
				fmt.Printf("  %2d) %s/\n", i+1, e.Name)
			} else {
				fmt.Printf("  %2d) %-40s %10s\n", i+1, e.Name, humanize.IBytes(uint64(e.Size)))
			}
		}

		line, err := readLine("upload> number to open dir, s <sel> to select files, q to cancel: ")
		if err != nil {
			return nil, false, nil
		}
		cmd, arg, _ := strings.Cut(line, " ")
		switch strings.ToLower(cmd) {
		case "q", "":
			return nil, false, nil
		case "s", "select":
			files, err := selectLocalFiles(entries, strings.TrimSpace(arg))
			if err != nil {
				fmt.Println(err)
				continue
			}
			return files, true, nil
		default:
			n, err := strconv.Atoi(cmd)
			if err != nil || n < 0 || n > len(entries) {
				fmt.Printf("Invalid choice %q.\n", line)
				continue
			}
			if n == 0 {
				dir = filepath.Dir(dir)
				continue
			}
			if !entries[n-1].IsDir {
				// A bare number on a file is a natural way to pick just it.
				return []localfs.FileEntry{entries[n-1]}, true, nil
			}
			dir = entries[n-1].Path
		}
	}
}

// selectLocalFiles resolves a selection expression against the pick list,
// accepting files only.
func selectLocalFiles(entries []localfs.FileEntry, expr string) ([]localfs.FileEntry, error) {
	if expr == "" {
		return nil, fmt.Errorf("usage: s <selection>, e.g. s 1,3-5")
	}
	listing := &browser.Listing{Entries: make([]transport.Entry, len(entries))}
	for i, e := range entries {
		kind := transport.KindFile
		if e.IsDir {
			kind = transport.KindDir
		}
		listing.Entries[i] = transport.Entry{Name: e.Name, Kind: kind, Size: e.Size}
	}
	sel, _, err := listing.Select(expr)
	if err != nil {
		return nil, err
	}

	files := make([]localfs.FileEntry, 0, len(sel))
	for _, idx := range sel {
		e := entries[idx-1]
		if e.IsDir {
			return nil, fmt.Errorf("%s is a directory; only files can be uploaded here", e.Name)
		}
		files = append(files, e)
	}
	return files, nil
}
