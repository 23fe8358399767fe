package transport

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/farview/sshfm/internal/progress"
	"github.com/farview/sshfm/internal/util/buffers"
)

// List implements Transport. Entries come back directories first, each group
// sorted case-insensitively, which fixes the 1-based indices the operator
// references in selections.
func (c *Client) List(ctx context.Context, dirPath string) ([]Entry, error) {
	s, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}

	info, err := s.Stat(dirPath)
	if err != nil {
		c.noteErr(err)
		c.discard(s)
		return nil, wrapErr("list", dirPath, err)
	}
	if !info.IsDir() {
		c.release(s)
		return nil, &Error{Op: "list", Path: dirPath, Err: ErrNotADirectory}
	}

	infos, err := s.ReadDir(dirPath)
	if err != nil {
		c.noteErr(err)
		c.discard(s)
		return nil, wrapErr("list", dirPath, err)
	}
	c.release(s)

	entries := make([]Entry, 0, len(infos))
	for _, fi := range infos {
		entries = append(entries, entryFromInfo(fi))
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})
	return entries, nil
}

// Getwd returns the remote working directory, which SFTP servers resolve
// to the login user's home. The browser starts there when no explicit path
// is given.
func (c *Client) Getwd(ctx context.Context) (string, error) {
	s, err := c.acquire(ctx)
	if err != nil {
		return "", err
	}

	wd, err := s.Getwd()
	if err != nil {
		c.noteErr(err)
		c.discard(s)
		return "", wrapErr("getwd", ".", err)
	}
	c.release(s)
	return wd, nil
}

// Stat implements Transport.
func (c *Client) Stat(ctx context.Context, remotePath string) (Entry, error) {
	s, err := c.acquire(ctx)
	if err != nil {
		return Entry{}, err
	}

	info, err := s.Stat(remotePath)
	if err != nil {
		c.noteErr(err)
		c.discard(s)
		return Entry{}, wrapErr("stat", remotePath, err)
	}
	c.release(s)

	entry := entryFromInfo(info)
	entry.Name = path.Base(remotePath)
	return entry, nil
}

// Upload implements Transport. The destination is created or truncated; a
// partial upload is removed so a failed task never leaves a half file the
// sync planner would mistake for a complete one.
func (c *Client) Upload(ctx context.Context, localPath, remotePath string, opts TransferOptions) error {
	src, err := os.Open(localPath)
	if err != nil {
		return wrapErr("upload", localPath, err)
	}
	defer src.Close()

	size := opts.ExpectedSize
	if size <= 0 {
		if fi, err := src.Stat(); err == nil {
			size = fi.Size()
		}
	}

	s, err := c.acquire(ctx)
	if err != nil {
		return err
	}

	dst, err := s.Create(remotePath)
	if err != nil {
		c.noteErr(err)
		c.discard(s)
		return wrapErr("upload", remotePath, err)
	}

	err = c.copyStream(ctx, dst, src, size, opts.Reporter)
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		c.noteErr(err)
		s.Remove(remotePath)
		c.discard(s)
		return wrapErr("upload", remotePath, err)
	}
	c.release(s)
	return nil
}

// Download implements Transport. The local file is written via a temporary
// sibling and renamed into place, so an interrupted download never leaves a
// truncated file under the final name.
func (c *Client) Download(ctx context.Context, remotePath, localPath string, opts TransferOptions) error {
	s, err := c.acquire(ctx)
	if err != nil {
		return err
	}

	src, err := s.Open(remotePath)
	if err != nil {
		c.noteErr(err)
		c.discard(s)
		return wrapErr("download", remotePath, err)
	}

	size := opts.ExpectedSize
	if size <= 0 {
		if fi, err := src.Stat(); err == nil {
			size = fi.Size()
		}
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		src.Close()
		c.release(s)
		return wrapErr("download", localPath, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(localPath), "."+filepath.Base(localPath)+".part*")
	if err != nil {
		src.Close()
		c.release(s)
		return wrapErr("download", localPath, err)
	}
	tmpName := tmp.Name()

	err = c.copyStream(ctx, tmp, src, size, opts.Reporter)
	srcErr := src.Close()
	closeErr := tmp.Close()
	if err == nil {
		err = srcErr
	}
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpName)
		c.noteErr(err)
		c.discard(s)
		return wrapErr("download", remotePath, err)
	}
	c.release(s)

	if err := os.Rename(tmpName, localPath); err != nil {
		os.Remove(tmpName)
		return wrapErr("download", localPath, err)
	}
	return nil
}

// ReadPreview implements Transport, returning up to maxBytes of leading
// content for the browser's preview action.
func (c *Client) ReadPreview(ctx context.Context, remotePath string, maxBytes int64) ([]byte, error) {
	s, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}

	f, err := s.Open(remotePath)
	if err != nil {
		c.noteErr(err)
		c.discard(s)
		return nil, wrapErr("preview", remotePath, err)
	}

	data, err := io.ReadAll(io.LimitReader(f, maxBytes))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		c.noteErr(err)
		c.discard(s)
		return nil, wrapErr("preview", remotePath, err)
	}
	c.release(s)
	return data, nil
}

// copyStream moves bytes between the local and remote side with a pooled
// buffer, feeding the progress reporter and honoring both cancellation and
// the shared bandwidth limiter.
func (c *Client) copyStream(ctx context.Context, dst io.Writer, src io.Reader, size int64, reporter progress.Reporter) error {
	if reporter == nil {
		reporter = progress.NewNoOpProgress()
	}
	reporter.Start(size, "")
	defer reporter.Finish()

	reader := c.limiter.Reader(ctx, src)

	buf := buffers.GetCopyBuffer()
	defer buffers.PutCopyBuffer(buf)

	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, rerr := reader.Read(*buf)
		if n > 0 {
			wn, werr := dst.Write((*buf)[:n])
			written += int64(wn)
			reporter.Update(written)
			if werr != nil {
				return werr
			}
			if wn < n {
				return io.ErrShortWrite
			}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return rerr
		}
	}
}

// entryFromInfo converts an sftp FileInfo into a listing entry.
func entryFromInfo(fi os.FileInfo) Entry {
	kind := KindOther
	mode := fi.Mode()
	switch {
	case mode.IsDir():
		kind = KindDir
	case mode&fs.ModeSymlink != 0:
		kind = KindSymlink
	case mode.IsRegular():
		kind = KindFile
	}

	size := fi.Size()
	if kind != KindFile {
		size = 0
	}

	entry := Entry{
		Name: fi.Name(),
		Kind: kind,
		Size: size,
		Mode: mode,
	}
	if mt := fi.ModTime(); mt.Unix() > 0 {
		entry.ModTime = mt
	}
	return entry
}

// WalkFiles visits every regular file under root, calling fn with the path
// relative to root and its entry. The sync planner uses this to fingerprint
// the remote tree. Directories the server refuses to list are skipped, same
// as the local walker's policy.
func (c *Client) WalkFiles(ctx context.Context, root string, fn func(relPath string, entry Entry) error) error {
	s, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	defer c.release(s)

	walker := s.Walk(root)
	for walker.Step() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walker.Err() != nil {
			continue
		}
		fi := walker.Stat()
		if fi == nil || !fi.Mode().IsRegular() {
			continue
		}
		rel, err := relativeTo(root, walker.Path())
		if err != nil {
			continue
		}
		if err := fn(rel, entryFromInfo(fi)); err != nil {
			return err
		}
	}
	return nil
}

// relativeTo computes a slash-separated relative path under root.
func relativeTo(root, full string) (string, error) {
	root = path.Clean(root)
	full = path.Clean(full)
	if full == root {
		return ".", nil
	}
	prefix := root
	if prefix != "/" {
		prefix += "/"
	}
	if !strings.HasPrefix(full, prefix) {
		return "", fmt.Errorf("%s is outside %s", full, root)
	}
	return strings.TrimPrefix(full, prefix), nil
}

// Join joins remote path elements with forward slashes regardless of the
// local OS separator.
func Join(elem ...string) string {
	return path.Join(elem...)
}

// ParentDir returns the remote parent of p, staying at "/" for the root.
func ParentDir(p string) string {
	parent := path.Dir(path.Clean(p))
	if parent == "" {
		return "/"
	}
	return parent
}
