package browser

import (
	"context"
	"fmt"

	"github.com/farview/sshfm/internal/transport"
)

// State is the browser's lifecycle position. There are exactly two: the
// machine is either browsing a directory or done.
type State int

const (
	Browsing State = iota
	Exited
)

// NavResult reports what Navigate resolved to. Descending into a directory
// updates the machine; selecting a file leaves the machine in place and
// hands the entry back for the single-file action sub-flow.
type NavResult struct {
	Descended bool
	File      transport.Entry // Set when a file was selected
	FilePath  string          // Full remote path of the selected file
}

// Machine owns the current remote path and listing, and applies operator
// commands. Every command handler is synchronous and leaves the machine
// Browsing (possibly at a new path) or Exited; command errors are surfaced
// to the operator and never change state beyond what succeeded.
type Machine struct {
	transport transport.Transport
	cache     *Cache
	path      string
	state     State
}

// NewMachine creates a machine rooted at startPath. No listing is fetched
// until Start runs.
func NewMachine(t transport.Transport, startPath string) *Machine {
	return &Machine{
		transport: t,
		cache:     NewCache(t),
		path:      startPath,
		state:     Browsing,
	}
}

// Start fetches the initial listing. Failure here is fatal to the browse
// session: there is nothing to show.
func (m *Machine) Start(ctx context.Context) error {
	_, err := m.cache.Fetch(ctx, m.path)
	return err
}

// Path returns the current remote directory.
func (m *Machine) Path() string {
	return m.path
}

// State returns Browsing or Exited.
func (m *Machine) State() State {
	return m.state
}

// Listing returns the current listing, re-fetching when the cache was
// invalidated by a mutating operation.
func (m *Machine) Listing(ctx context.Context) (*Listing, error) {
	if l := m.cache.Current(); l != nil {
		return l, nil
	}
	return m.cache.Fetch(ctx, m.path)
}

// Refresh forces a re-fetch of the current directory.
func (m *Machine) Refresh(ctx context.Context) (*Listing, error) {
	return m.cache.Fetch(ctx, m.path)
}

// Navigate resolves a 1-based index. Index 0 is the ".." pseudo-entry and
// moves to the parent. Directories become the new current path (listing
// fetched before the path moves, so a failed fetch leaves the machine
// unchanged); files are returned for the single-file action sub-flow.
func (m *Machine) Navigate(ctx context.Context, index int) (NavResult, error) {
	if index == 0 {
		return NavResult{Descended: true}, m.changeTo(ctx, transport.ParentDir(m.path))
	}

	listing, err := m.Listing(ctx)
	if err != nil {
		return NavResult{}, err
	}
	entry, err := listing.Entry(index)
	if err != nil {
		return NavResult{}, err
	}

	target := transport.Join(m.path, entry.Name)
	if entry.IsDir() {
		return NavResult{Descended: true}, m.changeTo(ctx, target)
	}
	return NavResult{File: entry, FilePath: target}, nil
}

// ChangePath jumps to an operator-typed absolute path. On fetch failure the
// current path and listing stay as they were.
func (m *Machine) ChangePath(ctx context.Context, newPath string) error {
	if newPath == "" {
		return fmt.Errorf("empty path")
	}
	return m.changeTo(ctx, newPath)
}

// changeTo fetches the target listing first and only then moves the path.
func (m *Machine) changeTo(ctx context.Context, target string) error {
	if _, err := m.cache.Fetch(ctx, target); err != nil {
		// The failed fetch must not clobber the current listing; re-fetch
		// lazily on the next render.
		m.cache.Invalidate()
		return err
	}
	m.path = target
	return nil
}

// Invalidate drops the cached listing after a mutating transfer into the
// current directory, so the next render shows fresh indices.
func (m *Machine) Invalidate() {
	m.cache.Invalidate()
}

// Quit moves the machine to Exited. The transport session is owned by the
// caller and torn down there.
func (m *Machine) Quit() {
	m.state = Exited
}
