package profile

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DiscoverKeys returns candidate private key files under ~/.ssh, for the
// numbered pick list shown when creating a key-auth profile.
func DiscoverKeys() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return DiscoverKeysIn(filepath.Join(home, ".ssh"))
}

// DiscoverKeysIn lists private keys in dir: id_* files minus their .pub
// halves. Sorted for stable menu numbering.
func DiscoverKeysIn(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "id_*"))
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(matches))
	for _, m := range matches {
		if strings.HasSuffix(m, ".pub") {
			continue
		}
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		keys = append(keys, m)
	}
	sort.Strings(keys)
	return keys, nil
}
