package profile

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Store reads and writes host profiles in one ssh config file.
// All mutating operations take an exclusive advisory lock on a sibling
// .lock file, then replace the config atomically via tmp+rename, so a
// crashed process can never leave a half-written config and two instances
// can't interleave writes.
type Store struct {
	path     string
	lockPath string
}

// DefaultConfigPath returns ~/.ssh/config.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".ssh", "config"), nil
}

// NewStore creates a store over the given config path. An empty path selects
// DefaultConfigPath. The file itself may not exist yet.
func NewStore(path string) (*Store, error) {
	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return nil, err
		}
	}
	return &Store{
		path:     path,
		lockPath: path + ".lock",
	}, nil
}

// Path returns the config file location this store operates on.
func (s *Store) Path() string {
	return s.path
}

// List returns all managed profiles in file order.
func (s *Store) List() ([]Profile, error) {
	cfg, err := s.load()
	if err != nil {
		return nil, err
	}
	return cfg.profiles(), nil
}

// Get returns the profile for name, or ErrNotFound.
func (s *Store) Get(name string) (Profile, error) {
	cfg, err := s.load()
	if err != nil {
		return Profile{}, err
	}
	if i := cfg.find(name); i >= 0 {
		return cfg.blocks[i].profile, nil
	}
	return Profile{}, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Upsert validates p and creates or replaces its config block.
func (s *Store) Upsert(p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return s.mutate(func(cfg *configFile) error {
		cfg.upsert(p)
		return nil
	})
}

// Delete removes the profile for name, or returns ErrNotFound.
func (s *Store) Delete(name string) error {
	return s.mutate(func(cfg *configFile) error {
		if !cfg.remove(name) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil
	})
}

// Rename moves a profile to a new alias, keeping its position and settings.
// Fails with ErrNotFound if oldName is absent; renaming onto an existing
// managed name replaces that entry.
func (s *Store) Rename(oldName, newName string) error {
	return s.mutate(func(cfg *configFile) error {
		i := cfg.find(oldName)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, oldName)
		}
		renamed := cfg.blocks[i].profile
		renamed.Name = newName
		if err := renamed.Validate(); err != nil {
			return err
		}
		if j := cfg.find(newName); j >= 0 && j != i {
			cfg.blocks = append(cfg.blocks[:j], cfg.blocks[j+1:]...)
			if j < i {
				i--
			}
		}
		cfg.blocks[i].profile = renamed
		return nil
	})
}

// load parses the config file. A missing file is an empty config, not an
// error: first use of the tool starts from nothing.
func (s *Store) load() (*configFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &configFile{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	return parseConfig(bytes.NewReader(data))
}

// mutate applies fn to the parsed config under the file lock and writes the
// result back atomically.
func (s *Store) mutate(fn func(*configFile) error) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	lock := flock.New(s.lockPath)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("locking %s: %w", s.lockPath, err)
	}
	defer lock.Unlock()

	cfg, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(cfg); err != nil {
		return err
	}
	return s.save(cfg)
}

// save renders cfg to a temp file beside the config and renames it into
// place. 0600 matches what ssh itself expects of its config.
func (s *Store) save(cfg *configFile) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".config.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp config: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := cfg.render(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp config: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("setting config permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp config: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	return nil
}
