package browser

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/farview/sshfm/internal/constants"
	"github.com/farview/sshfm/internal/transport"
	"github.com/farview/sshfm/internal/util/sanitize"
	stringutil "github.com/farview/sshfm/internal/util/strings"
)

// Render produces the listing screen for one render cycle: header, indexed
// entries, and the result line from the previous command. Pure function of
// its inputs; all state lives in the Machine.
func Render(path string, listing *Listing, lastResult string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "\n%s\n", path)
	fmt.Fprintf(&b, "%s\n", strings.Repeat("─", min(len(path), 72)))

	if listing == nil || listing.Len() == 0 {
		b.WriteString("  (empty directory)\n")
	} else {
		width := indexWidth(listing.Len())
		if path != "/" {
			fmt.Fprintf(&b, "  %*d  %s\n", width, 0, "../")
		}
		for i, entry := range listing.Entries {
			fmt.Fprintf(&b, "  %*d  %s\n", width, i+1, renderEntry(entry))
		}
		fmt.Fprintf(&b, "\n  %d %s\n", listing.Len(), stringutil.Pluralize("item", int64(listing.Len())))
	}

	if lastResult != "" {
		fmt.Fprintf(&b, "\n%s\n", lastResult)
	}
	return b.String()
}

// renderEntry formats one listing line: sanitized name padded to the name
// column, kind marker, size, and modification time when known.
func renderEntry(entry transport.Entry) string {
	name := sanitize.DisplayName(entry.Name)
	switch entry.Kind {
	case transport.KindDir:
		name += "/"
	case transport.KindSymlink:
		name += "@"
	}
	name = stringutil.Truncate(name, constants.ListingNameWidth)

	line := fmt.Sprintf("%-*s", constants.ListingNameWidth, name)
	if entry.Kind == transport.KindFile {
		line += fmt.Sprintf("  %10s", humanize.IBytes(uint64(entry.Size)))
	} else {
		line += fmt.Sprintf("  %10s", "-")
	}
	if entry.HasModTime() {
		line += "  " + entry.ModTime.Format("2006-01-02 15:04")
	}
	return line
}

// RenderEntryInfo formats the detail view for the single-file info action.
func RenderEntryInfo(remotePath string, entry transport.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Path:     %s\n", remotePath)
	fmt.Fprintf(&b, "Name:     %s\n", sanitize.DisplayName(entry.Name))
	fmt.Fprintf(&b, "Kind:     %s\n", entry.Kind)
	if entry.Kind == transport.KindFile {
		fmt.Fprintf(&b, "Size:     %s (%d bytes)\n", humanize.IBytes(uint64(entry.Size)), entry.Size)
	}
	if entry.HasModTime() {
		fmt.Fprintf(&b, "Modified: %s (%s)\n",
			entry.ModTime.Format("2006-01-02 15:04:05"),
			humanize.Time(entry.ModTime))
	}
	if entry.Mode != 0 {
		fmt.Fprintf(&b, "Mode:     %s\n", entry.Mode)
	}
	return b.String()
}

// indexWidth returns the digits needed for the largest index so columns
// stay aligned on long listings.
func indexWidth(n int) int {
	width := 1
	for n >= 10 {
		n /= 10
		width++
	}
	return width
}
