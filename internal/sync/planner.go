// Package sync computes and executes incremental two-way synchronization
// between a local and a remote directory tree. The planner compares size and
// modification-time fingerprints per relative path; the executor moves bytes
// through the external bulk-sync tool when present, or per-file transfers
// otherwise.
package sync

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/farview/sshfm/internal/localfs"
	"github.com/farview/sshfm/internal/transport"
	"github.com/farview/sshfm/internal/util/filter"
)

// Fingerprint is the comparison key for one file. Modification times are
// compared at second granularity, since that is the finest resolution both
// sides are guaranteed to preserve.
type Fingerprint struct {
	Size    int64
	ModTime time.Time
}

// Item is one planned transfer within a sync run.
type Item struct {
	RelPath string // Slash-separated path relative to both roots
	Size    int64  // Size on the side being copied from
}

// Conflict records a path the planner refused to resolve: identical
// modification times with differing sizes give no safe winner, so the file
// is left untouched on both sides and reported.
type Conflict struct {
	RelPath    string
	LocalSize  int64
	RemoteSize int64
	ModTime    time.Time
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s: same mtime, local %d bytes vs remote %d bytes", c.RelPath, c.LocalSize, c.RemoteSize)
}

// Plan is the computed set of per-path transfer directions for one
// (localRoot, remoteRoot) pair. A given relative path appears in at most one
// of ToUpload and ToDownload; conflicted paths appear only in Skipped.
type Plan struct {
	LocalRoot  string
	RemoteRoot string
	ToUpload   []Item // Local side newer or missing remotely
	ToDownload []Item // Remote side newer or missing locally
	Skipped    []Conflict
}

// Empty reports whether the plan moves nothing. Running Plan again
// immediately after a completed Execute yields an empty plan.
func (p *Plan) Empty() bool {
	return len(p.ToUpload) == 0 && len(p.ToDownload) == 0
}

// RemoteWalker is the part of the transport the planner needs: visiting
// every regular file under a remote root.
type RemoteWalker interface {
	WalkFiles(ctx context.Context, root string, fn func(relPath string, entry transport.Entry) error) error
}

// Options tunes a planner.
type Options struct {
	Filter        filter.Config // Include/exclude globs on relative paths
	IncludeHidden bool          // Whether dotfiles participate in the sync
}

// Planner computes sync plans against one remote tree.
type Planner struct {
	remote RemoteWalker
	opts   Options
}

// NewPlanner creates a planner over the given remote walker.
func NewPlanner(remote RemoteWalker, opts Options) *Planner {
	return &Planner{remote: remote, opts: opts}
}

// Plan fingerprints both trees and computes the minimal transfer set.
// Policy per relative path:
//   - present one side only: copy to the other side
//   - both present, one side strictly newer: newer side wins
//   - same mtime, same size: in sync, nothing to do
//   - same mtime, different size: Conflict, skipped and reported
func (p *Planner) Plan(ctx context.Context, localRoot, remoteRoot string) (*Plan, error) {
	local, err := p.scanLocal(ctx, localRoot)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", localRoot, err)
	}
	remote, err := p.scanRemote(ctx, remoteRoot)
	if err != nil {
		return nil, fmt.Errorf("scanning remote %s: %w", remoteRoot, err)
	}

	plan := &Plan{LocalRoot: localRoot, RemoteRoot: remoteRoot}
	for _, rel := range sortedUnion(local, remote) {
		lf, hasLocal := local[rel]
		rf, hasRemote := remote[rel]

		switch {
		case hasLocal && !hasRemote:
			plan.ToUpload = append(plan.ToUpload, Item{RelPath: rel, Size: lf.Size})
		case !hasLocal && hasRemote:
			plan.ToDownload = append(plan.ToDownload, Item{RelPath: rel, Size: rf.Size})
		case lf.ModTime.After(rf.ModTime):
			plan.ToUpload = append(plan.ToUpload, Item{RelPath: rel, Size: lf.Size})
		case rf.ModTime.After(lf.ModTime):
			plan.ToDownload = append(plan.ToDownload, Item{RelPath: rel, Size: rf.Size})
		case lf.Size != rf.Size:
			plan.Skipped = append(plan.Skipped, Conflict{
				RelPath:    rel,
				LocalSize:  lf.Size,
				RemoteSize: rf.Size,
				ModTime:    lf.ModTime,
			})
		}
	}
	return plan, nil
}

// scanLocal builds the fingerprint map of the local tree.
func (p *Planner) scanLocal(ctx context.Context, root string) (map[string]Fingerprint, error) {
	files := make(map[string]Fingerprint)
	opts := localfs.WalkOptions{
		IncludeHidden:  p.opts.IncludeHidden,
		SkipHiddenDirs: !p.opts.IncludeHidden,
	}
	err := localfs.WalkFiles(ctx, root, opts, func(entry localfs.FileEntry) error {
		rel, err := filepath.Rel(root, entry.Path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if !p.opts.Filter.Match(rel) {
			return nil
		}
		files[rel] = Fingerprint{Size: entry.Size, ModTime: entry.ModTime.Truncate(time.Second)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// scanRemote builds the fingerprint map of the remote tree.
func (p *Planner) scanRemote(ctx context.Context, root string) (map[string]Fingerprint, error) {
	files := make(map[string]Fingerprint)
	err := p.remote.WalkFiles(ctx, root, func(rel string, entry transport.Entry) error {
		if !p.opts.IncludeHidden && isHiddenRel(rel) {
			return nil
		}
		if !p.opts.Filter.Match(rel) {
			return nil
		}
		files[rel] = Fingerprint{Size: entry.Size, ModTime: entry.ModTime.Truncate(time.Second)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// isHiddenRel reports whether any component of a relative path is a dotfile.
func isHiddenRel(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if localfs.IsHiddenName(part) {
			return true
		}
	}
	return false
}

// sortedUnion returns every relative path present on either side, sorted,
// so plan ordering is deterministic across runs.
func sortedUnion(a, b map[string]Fingerprint) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		seen[k] = struct{}{}
	}
	for k := range b {
		seen[k] = struct{}{}
	}
	union := make([]string, 0, len(seen))
	for k := range seen {
		union = append(union, k)
	}
	sort.Strings(union)
	return union
}
