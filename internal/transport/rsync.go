package transport

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/farview/sshfm/internal/profile"
)

// RsyncRunner invokes the system rsync binary as the bulk-sync collaborator.
// It is deliberately dumb: the sync planner decides which relative paths
// move in which direction, and the runner just moves them efficiently.
type RsyncRunner struct {
	prof      profile.Profile
	binary    string    // rsync executable, "rsync" resolved via PATH
	extraArgs []string  // Operator-configured additional flags
	bwLimitKB int64     // --bwlimit in KiB/s, 0 = unlimited
	output    io.Writer // rsync's own progress passthrough, nil = discard
}

// NewRsyncRunner builds a runner for the given host profile. binary may be
// empty to use "rsync" from PATH.
func NewRsyncRunner(prof profile.Profile, binary string, extraArgs []string, bwLimitBytesPerSec int64, output io.Writer) *RsyncRunner {
	if binary == "" {
		binary = "rsync"
	}
	if output == nil {
		output = io.Discard
	}
	return &RsyncRunner{
		prof:      prof,
		binary:    binary,
		extraArgs: extraArgs,
		bwLimitKB: bwLimitBytesPerSec / 1024,
		output:    output,
	}
}

// Available implements BulkSyncer. A missing rsync binary is not an error;
// the sync executor falls back to per-file transfers.
func (r *RsyncRunner) Available() bool {
	_, err := exec.LookPath(r.binary)
	return err == nil
}

// Sync implements BulkSyncer. relPaths limits the run to the planner's
// chosen files via --files-from; empty means the whole tree.
func (r *RsyncRunner) Sync(ctx context.Context, localRoot, remoteRoot string, dir Direction, relPaths []string) error {
	args := r.args(localRoot, remoteRoot, dir, relPaths)

	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Stdout = r.output
	cmd.Stderr = r.output
	if len(relPaths) > 0 {
		cmd.Stdin = strings.NewReader(strings.Join(relPaths, "\n") + "\n")
	}

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("rsync %s: %w", dir, err)
	}
	return nil
}

// args assembles the rsync invocation. Trailing slashes on both roots make
// rsync treat them as directory contents rather than the directories
// themselves, which is what a tree sync wants.
func (r *RsyncRunner) args(localRoot, remoteRoot string, dir Direction, relPaths []string) []string {
	args := []string{"-az", "--progress"}
	if r.bwLimitKB > 0 {
		args = append(args, "--bwlimit="+strconv.FormatInt(r.bwLimitKB, 10))
	}
	if len(relPaths) > 0 {
		args = append(args, "--files-from=-")
	}
	args = append(args, "-e", r.remoteShell())
	args = append(args, r.extraArgs...)

	local := strings.TrimSuffix(localRoot, "/") + "/"
	remote := fmt.Sprintf("%s:%s/", r.prof.Target(), strings.TrimSuffix(remoteRoot, "/"))
	if dir == LocalToRemote {
		return append(args, local, remote)
	}
	return append(args, remote, local)
}

// remoteShell renders the -e argument so rsync connects with the profile's
// port and identity instead of whatever ssh would pick by default.
func (r *RsyncRunner) remoteShell() string {
	parts := []string{"ssh", "-p", strconv.Itoa(r.prof.EffectivePort())}
	if r.prof.AuthMethod == profile.AuthKey && r.prof.IdentityFile != "" {
		parts = append(parts, "-i", r.prof.IdentityFile)
	}
	return strings.Join(parts, " ")
}
