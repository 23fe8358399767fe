// Package browser implements the interactive remote filesystem browser: the
// navigation state machine, the listing cache with 1-based operator indices,
// and the stateless listing renderer. It issues commands against the remote
// transport and hands batches to the transfer orchestrator; all terminal
// interaction stays in the CLI layer.
package browser

import (
	"context"
	"fmt"

	"github.com/farview/sshfm/internal/selector"
	"github.com/farview/sshfm/internal/transport"
)

// ErrInvalidIndex reports an operator-typed index outside the current
// listing. Always a user error, never fatal to the browser loop.
var ErrInvalidIndex = fmt.Errorf("no such entry")

// Listing is an ordered snapshot of one remote directory. Its order defines
// the 1-based indices the operator references; the mapping is valid only
// until the next fetch.
type Listing struct {
	Path    string
	Entries []transport.Entry
}

// Len returns the number of entries.
func (l *Listing) Len() int {
	return len(l.Entries)
}

// Entry resolves a 1-based index. Index 0 and out-of-range values fail with
// ErrInvalidIndex.
func (l *Listing) Entry(index int) (transport.Entry, error) {
	if index < 1 || index > len(l.Entries) {
		return transport.Entry{}, fmt.Errorf("%w: %d (listing has %d entries)", ErrInvalidIndex, index, len(l.Entries))
	}
	return l.Entries[index-1], nil
}

// Select resolves a selection expression against this listing, returning
// the chosen entries in ascending index order.
func (l *Listing) Select(expr string) (selector.Selection, []transport.Entry, error) {
	sel, err := selector.Parse(expr, len(l.Entries))
	if err != nil {
		return nil, nil, err
	}
	entries := make([]transport.Entry, len(sel))
	for i, idx := range sel {
		entries[i] = l.Entries[idx-1]
	}
	return sel, entries, nil
}

// Lister is the slice of the transport the cache needs.
type Lister interface {
	List(ctx context.Context, path string) ([]transport.Entry, error)
}

// Cache holds the most recently fetched listing. A successful Fetch
// replaces it wholesale; Invalidate drops it so the next render re-fetches
// instead of showing stale indices.
type Cache struct {
	lister  Lister
	listing *Listing
}

// NewCache creates an empty cache over the given lister.
func NewCache(lister Lister) *Cache {
	return &Cache{lister: lister}
}

// Fetch lists path and replaces the cached listing. On failure the previous
// listing is kept untouched, so a failed navigation leaves the browser
// where it was.
func (c *Cache) Fetch(ctx context.Context, path string) (*Listing, error) {
	entries, err := c.lister.List(ctx, path)
	if err != nil {
		return nil, err
	}
	c.listing = &Listing{Path: path, Entries: entries}
	return c.listing, nil
}

// Current returns the cached listing, or nil when invalidated or never
// fetched.
func (c *Cache) Current() *Listing {
	return c.listing
}

// Invalidate drops the cached listing. Called after any mutating transfer
// targeting the listed directory.
func (c *Cache) Invalidate() {
	c.listing = nil
}
