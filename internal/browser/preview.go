package browser

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/farview/sshfm/internal/constants"
	"github.com/farview/sshfm/internal/transport"
)

// ErrBinaryContent reports a preview refused because the file looks binary.
var ErrBinaryContent = fmt.Errorf("content appears to be binary")

// Previewer is the slice of the transport the preview action needs.
type Previewer interface {
	ReadPreview(ctx context.Context, path string, maxBytes int64) ([]byte, error)
}

// Preview fetches the head of a remote file for display: at most maxLines
// lines and maxBytes bytes, whichever is hit first. Content with a NUL in
// its leading bytes is refused as binary rather than dumped to the
// terminal.
func Preview(ctx context.Context, t Previewer, remotePath string, maxLines int, maxBytes int64) (string, error) {
	if maxLines <= 0 {
		maxLines = constants.PreviewMaxLines
	}
	if maxBytes <= 0 {
		maxBytes = constants.PreviewMaxBytes
	}

	data, err := t.ReadPreview(ctx, remotePath, maxBytes)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "(empty file)", nil
	}

	sniff := data
	if len(sniff) > constants.PreviewBinarySniffLen {
		sniff = sniff[:constants.PreviewBinarySniffLen]
	}
	if bytes.IndexByte(sniff, 0) >= 0 {
		return "", fmt.Errorf("%w: %s", ErrBinaryContent, remotePath)
	}

	lines := strings.Split(string(data), "\n")
	truncated := false
	if len(lines) > maxLines {
		lines = lines[:maxLines]
		truncated = true
	}
	out := strings.Join(lines, "\n")
	if truncated || int64(len(data)) == maxBytes {
		out = strings.TrimRight(out, "\n") + "\n... (truncated)"
	}
	return out, nil
}

var _ Previewer = transport.Transport(nil)
