package sync

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/farview/sshfm/internal/transport"
)

// fakeRemote is an in-memory remote tree keyed by relative path.
type fakeRemote struct {
	files map[string]transport.Entry
}

func (f *fakeRemote) WalkFiles(ctx context.Context, root string, fn func(string, transport.Entry) error) error {
	for rel, entry := range f.files {
		if err := fn(rel, entry); err != nil {
			return err
		}
	}
	return nil
}

func writeLocal(t *testing.T, root, rel, content string, mtime time.Time) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	require.NoError(t, os.Chtimes(full, mtime, mtime))
}

func remoteFile(size int64, mtime time.Time) transport.Entry {
	return transport.Entry{Kind: transport.KindFile, Size: size, ModTime: mtime}
}

func uploadPaths(p *Plan) []string { return relPaths(p.ToUpload) }

func downloadPaths(p *Plan) []string { return relPaths(p.ToDownload) }

func TestPlanDirections(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	older := now.Add(-time.Hour)

	local := t.TempDir()
	writeLocal(t, local, "only-local.txt", "aaaa", now)
	writeLocal(t, local, "newer-local.txt", "bbbb", now)
	writeLocal(t, local, "newer-remote.txt", "cc", older)
	writeLocal(t, local, "unchanged.txt", "dd", now)

	remote := &fakeRemote{files: map[string]transport.Entry{
		"only-remote.txt":  remoteFile(10, now),
		"newer-local.txt":  remoteFile(99, older),
		"newer-remote.txt": remoteFile(7, now),
		"unchanged.txt":    remoteFile(2, now),
	}}

	plan, err := NewPlanner(remote, Options{}).Plan(context.Background(), local, "/srv/data")
	require.NoError(t, err)

	require.Equal(t, []string{"newer-local.txt", "only-local.txt"}, uploadPaths(plan))
	require.Equal(t, []string{"newer-remote.txt", "only-remote.txt"}, downloadPaths(plan))
	require.Empty(t, plan.Skipped)
}

func TestPlanTimestampWinsOverSize(t *testing.T) {
	// Local file is newer but smaller: the newer side still wins.
	now := time.Now().Truncate(time.Second)
	local := t.TempDir()
	writeLocal(t, local, "report.csv", "x", now)

	remote := &fakeRemote{files: map[string]transport.Entry{
		"report.csv": remoteFile(100000, now.Add(-time.Minute)),
	}}

	plan, err := NewPlanner(remote, Options{}).Plan(context.Background(), local, "/srv")
	require.NoError(t, err)
	require.Equal(t, []string{"report.csv"}, uploadPaths(plan))
	require.Empty(t, plan.ToDownload)
	require.Empty(t, plan.Skipped)
}

func TestPlanEqualTimestampDifferingSizeIsConflict(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	local := t.TempDir()
	writeLocal(t, local, "db.bin", "12345", now)

	remote := &fakeRemote{files: map[string]transport.Entry{
		"db.bin": remoteFile(999, now),
	}}

	plan, err := NewPlanner(remote, Options{}).Plan(context.Background(), local, "/srv")
	require.NoError(t, err)

	require.Empty(t, plan.ToUpload)
	require.Empty(t, plan.ToDownload)
	require.Len(t, plan.Skipped, 1)
	require.Equal(t, "db.bin", plan.Skipped[0].RelPath)
	require.Equal(t, int64(5), plan.Skipped[0].LocalSize)
	require.Equal(t, int64(999), plan.Skipped[0].RemoteSize)
}

func TestPlanIdempotent(t *testing.T) {
	// With both sides identical, the plan is empty: running a sync twice
	// with no intervening changes moves nothing the second time.
	now := time.Now().Truncate(time.Second)
	local := t.TempDir()
	writeLocal(t, local, "a.txt", "hello", now)
	writeLocal(t, local, "sub/b.txt", "world", now)

	remote := &fakeRemote{files: map[string]transport.Entry{
		"a.txt":     remoteFile(5, now),
		"sub/b.txt": remoteFile(5, now),
	}}

	planner := NewPlanner(remote, Options{})
	plan, err := planner.Plan(context.Background(), local, "/srv")
	require.NoError(t, err)
	require.True(t, plan.Empty())

	again, err := planner.Plan(context.Background(), local, "/srv")
	require.NoError(t, err)
	require.True(t, again.Empty())
}

func TestPlanHiddenFilesExcludedByDefault(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	local := t.TempDir()
	writeLocal(t, local, ".env", "secret", now)
	writeLocal(t, local, "visible.txt", "ok", now)

	remote := &fakeRemote{files: map[string]transport.Entry{
		".git/config": remoteFile(10, now),
	}}

	plan, err := NewPlanner(remote, Options{}).Plan(context.Background(), local, "/srv")
	require.NoError(t, err)
	require.Equal(t, []string{"visible.txt"}, uploadPaths(plan))
	require.Empty(t, plan.ToDownload)
}
