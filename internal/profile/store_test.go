package profile

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "config"))
	require.NoError(t, err)
	return store
}

func TestStoreUpsertGet(t *testing.T) {
	store := newTestStore(t)

	p := Profile{
		Name:         "web1",
		Address:      "198.51.100.7",
		Port:         2222,
		User:         "deploy",
		AuthMethod:   AuthKey,
		IdentityFile: "~/.ssh/id_ed25519",
	}
	require.NoError(t, store.Upsert(p))

	got, err := store.Get("web1")
	require.NoError(t, err)
	require.Equal(t, p, got)

	// Replacing updates in place
	p.User = "admin"
	require.NoError(t, store.Upsert(p))
	got, err = store.Get("web1")
	require.NoError(t, err)
	require.Equal(t, "admin", got.User)

	list, err := store.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestStoreFilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	store := newTestStore(t)
	require.NoError(t, store.Upsert(Profile{
		Name: "h", Address: "203.0.113.1", User: "u", AuthMethod: AuthPassword,
	}))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestStoreRendersCanonicalForm(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Upsert(Profile{
		Name:         "build",
		Address:      "build.internal",
		User:         "ci",
		AuthMethod:   AuthKey,
		IdentityFile: "/home/ci/.ssh/id_rsa",
	}))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	text := string(data)

	require.Contains(t, text, "Host build\n")
	require.Contains(t, text, "    HostName build.internal\n")
	require.Contains(t, text, "    Port 22\n")
	require.Contains(t, text, "    User ci\n")
	require.Contains(t, text, "    IdentityFile /home/ci/.ssh/id_rsa\n")
	require.Contains(t, text, "    IdentitiesOnly yes\n")

	// Keep-alive defaults appended for the whole config
	require.Contains(t, text, "Host *\n")
	require.Contains(t, text, "ServerAliveInterval 60")
	require.Contains(t, text, "ServerAliveCountMax 3")
}

func TestStorePasswordAuthRendering(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Upsert(Profile{
		Name: "legacy", Address: "203.0.113.9", User: "root", AuthMethod: AuthPassword,
	}))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	require.Contains(t, string(data), "PasswordAuthentication yes")
	require.NotContains(t, string(data), "IdentitiesOnly")

	got, err := store.Get("legacy")
	require.NoError(t, err)
	require.Equal(t, AuthPassword, got.AuthMethod)
}

func TestStoreParsesHandWrittenConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")
	handWritten := strings.Join([]string{
		"# personal hosts",
		"host mixedcase",
		"  hostname = example.org",
		"  USER alice",
		"  port 2200",
		"",
		"Host bare",
		"    User bob",
	}, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(handWritten), 0600))

	store, err := NewStore(path)
	require.NoError(t, err)

	got, err := store.Get("mixedcase")
	require.NoError(t, err)
	require.Equal(t, "example.org", got.Address)
	require.Equal(t, "alice", got.User)
	require.Equal(t, 2200, got.Port)
	require.Equal(t, AuthKey, got.AuthMethod)

	// HostName defaults to the alias when absent
	bare, err := store.Get("bare")
	require.NoError(t, err)
	require.Equal(t, "bare", bare.Address)
	require.Equal(t, 22, bare.EffectivePort())
}

func TestStorePreservesUnmanagedBlocks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")
	unmanaged := strings.Join([]string{
		"Host bastion",
		"    HostName bastion.corp",
		"    User jump",
		"    ProxyJump outer.corp",
		"",
		"Host *.corp",
		"    ForwardAgent yes",
	}, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(unmanaged), 0600))

	store, err := NewStore(path)
	require.NoError(t, err)

	// bastion has an unmanaged directive, so it is invisible to List
	list, err := store.List()
	require.NoError(t, err)
	require.Empty(t, list)

	require.NoError(t, store.Upsert(Profile{
		Name: "new", Address: "10.0.0.5", User: "me", AuthMethod: AuthPassword,
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	// Unmanaged content survives the rewrite verbatim
	require.Contains(t, text, "    ProxyJump outer.corp")
	require.Contains(t, text, "Host *.corp")
	require.Contains(t, text, "    ForwardAgent yes")
	require.Contains(t, text, "Host new")

	// Second rewrite is stable (no accumulating blank lines)
	require.NoError(t, store.Upsert(Profile{
		Name: "new", Address: "10.0.0.5", User: "me2", AuthMethod: AuthPassword,
	}))
	again, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(again), "\n\n\n")
}

func TestStoreNoDuplicateKeepAlive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")
	existing := "Host *\n    ServerAliveInterval 30\n"
	require.NoError(t, os.WriteFile(path, []byte(existing), 0600))

	store, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Upsert(Profile{
		Name: "a", Address: "192.0.2.1", User: "x", AuthMethod: AuthPassword,
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, 1, strings.Count(string(data), "Host *"))
	require.Contains(t, string(data), "ServerAliveInterval 30")
}

func TestStoreDelete(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Upsert(Profile{
		Name: "gone", Address: "192.0.2.2", User: "u", AuthMethod: AuthPassword,
	}))

	require.NoError(t, store.Delete("gone"))
	_, err := store.Get("gone")
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, store.Delete("gone"), ErrNotFound)
}

func TestStoreRename(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Upsert(Profile{
		Name: "first", Address: "192.0.2.3", User: "u", AuthMethod: AuthPassword,
	}))
	require.NoError(t, store.Upsert(Profile{
		Name: "second", Address: "192.0.2.4", User: "u", AuthMethod: AuthPassword,
	}))

	require.NoError(t, store.Rename("first", "primary"))

	list, err := store.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	// Position is preserved
	require.Equal(t, "primary", list[0].Name)
	require.Equal(t, "192.0.2.3", list[0].Address)

	require.ErrorIs(t, store.Rename("missing", "x"), ErrNotFound)
}

func TestStoreMissingFileIsEmpty(t *testing.T) {
	store := newTestStore(t)
	list, err := store.List()
	require.NoError(t, err)
	require.Empty(t, list)

	_, err = store.Get("any")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestProfileValidate(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		wantErr bool
	}{
		{"valid key", Profile{Name: "a", Address: "h", User: "u", AuthMethod: AuthKey}, false},
		{"valid password", Profile{Name: "a", Address: "h", User: "u", AuthMethod: AuthPassword}, false},
		{"missing name", Profile{Address: "h", User: "u", AuthMethod: AuthKey}, true},
		{"wildcard name", Profile{Name: "a*", Address: "h", User: "u", AuthMethod: AuthKey}, true},
		{"name with space", Profile{Name: "a b", Address: "h", User: "u", AuthMethod: AuthKey}, true},
		{"missing address", Profile{Name: "a", User: "u", AuthMethod: AuthKey}, true},
		{"missing user", Profile{Name: "a", Address: "h", AuthMethod: AuthKey}, true},
		{"missing auth", Profile{Name: "a", Address: "h", User: "u"}, true},
		{"bad auth", Profile{Name: "a", Address: "h", User: "u", AuthMethod: "pigeon"}, true},
		{"bad port", Profile{Name: "a", Address: "h", User: "u", AuthMethod: AuthKey, Port: 70000}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalid)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestDiscoverKeysIn(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"id_rsa", "id_rsa.pub", "id_ed25519", "id_ed25519.pub", "known_hosts", "config"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("x"), 0600))
	}

	keys, err := DiscoverKeysIn(dir)
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "id_ed25519"),
		filepath.Join(dir, "id_rsa"),
	}, keys)
}
