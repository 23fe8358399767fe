// Package transport provides the remote side of the browser: directory
// listings, file metadata, and streaming transfers over SSH/SFTP, plus an
// rsync runner for tree-level bulk sync. Everything above this package talks
// to the Transport and BulkSyncer interfaces, so tests substitute in-memory
// fakes and a future native rsync replacement would not touch the core.
package transport

import (
	"context"
	"io/fs"
	"time"

	"github.com/farview/sshfm/internal/progress"
)

// EntryKind classifies a remote directory entry.
type EntryKind int

const (
	KindFile EntryKind = iota
	KindDir
	KindSymlink
	KindOther
)

// String returns the single-word kind name used in listings and info views.
func (k EntryKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "directory"
	case KindSymlink:
		return "symlink"
	default:
		return "other"
	}
}

// Entry is one immutable item in a remote directory listing.
type Entry struct {
	Name    string      // Base name, never contains a path separator
	Kind    EntryKind   // file, directory, symlink, other
	Size    int64       // Bytes, meaningful for files only
	ModTime time.Time   // Zero when the server does not supply one
	Mode    fs.FileMode // Permission bits for the info view
}

// IsDir reports whether the entry can be navigated into.
func (e Entry) IsDir() bool {
	return e.Kind == KindDir
}

// HasModTime reports whether the server supplied a modification time.
func (e Entry) HasModTime() bool {
	return !e.ModTime.IsZero()
}

// TransferOptions tunes a single upload or download.
type TransferOptions struct {
	// Reporter receives byte-level progress. Nil means no reporting; the
	// transfer still runs with start/end semantics only.
	Reporter progress.Reporter

	// ExpectedSize seeds the progress total when the caller already knows
	// it (listings carry sizes). Zero or negative means stat first.
	ExpectedSize int64
}

// Transport is the remote filesystem capability the browser, orchestrator,
// and sync planner operate against. Implementations must be safe for the
// orchestrator's bounded concurrent workers: each in-flight transfer runs on
// its own protocol session, never interleaved on a shared one.
type Transport interface {
	// List returns the entries of a remote directory, directories first,
	// each group sorted case-insensitively. Fails with ErrNotFound or
	// ErrNotADirectory for a missing or non-directory path.
	List(ctx context.Context, path string) ([]Entry, error)

	// Stat returns metadata for one remote path.
	Stat(ctx context.Context, path string) (Entry, error)

	// Upload streams a local file to remotePath, creating or truncating it.
	Upload(ctx context.Context, localPath, remotePath string, opts TransferOptions) error

	// Download streams remotePath into localPath, creating or truncating it.
	Download(ctx context.Context, remotePath, localPath string, opts TransferOptions) error

	// ReadPreview returns up to maxBytes of leading file content.
	ReadPreview(ctx context.Context, path string, maxBytes int64) ([]byte, error)

	// Alive reports whether the underlying connection is still usable.
	// Once false it never becomes true again; callers reconnect instead.
	Alive() bool

	// Close tears down the connection and all pooled sessions.
	Close() error
}

// Direction selects which way a bulk sync moves bytes.
type Direction int

const (
	// LocalToRemote pushes local files to the remote tree.
	LocalToRemote Direction = iota

	// RemoteToLocal pulls remote files into the local tree.
	RemoteToLocal
)

func (d Direction) String() string {
	if d == LocalToRemote {
		return "local->remote"
	}
	return "remote->local"
}

// BulkSyncer is the external tree-level sync collaborator. The sync executor
// prefers it for large trees and falls back to per-file transfers when
// Available reports false.
type BulkSyncer interface {
	// Available reports whether the bulk-sync tool can be invoked at all.
	Available() bool

	// Sync transfers the named relative paths under the two roots in the
	// given direction. An empty relPaths syncs the whole tree.
	Sync(ctx context.Context, localRoot, remoteRoot string, dir Direction, relPaths []string) error
}
