package localfs

// ListOptions configures the behavior of ListDirectory.
type ListOptions struct {
	// IncludeHidden includes hidden files (starting with .) in results.
	// Default is false (hidden files excluded).
	IncludeHidden bool

	// FilesOnly drops directories from the result. Used by the upload pick
	// list when only files are selectable.
	FilesOnly bool
}

// WalkOptions configures the behavior of Walk.
type WalkOptions struct {
	// IncludeHidden includes hidden files and directories in the walk.
	// Default is false (hidden items excluded).
	IncludeHidden bool

	// SkipHiddenDirs skips descending into hidden directories entirely.
	// Only meaningful when IncludeHidden is false.
	// Default is true (hidden directories are skipped).
	SkipHiddenDirs bool

	// FollowSymlinks descends into symlinked directories. Default is false;
	// the sync scanner treats symlinks as opaque entries to avoid cycles.
	FollowSymlinks bool
}
