package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/farview/sshfm/internal/profile"
)

// runMainMenu is the interactive loop behind the bare sshfm invocation:
// numbered host list, connect or browse a host, and profile management.
func runMainMenu(ctx context.Context) error {
	store, err := openStore()
	if err != nil {
		return fmt.Errorf("opening host store: %w", err)
	}

	for ctx.Err() == nil {
		profiles, err := store.List()
		if err != nil {
			return fmt.Errorf("reading host profiles: %w", err)
		}

		printHostList(profiles)
		fmt.Println("\n  a) add host   e) edit host   r) remove host   q) quit")

		line, err := readLine("> ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		switch strings.ToLower(line) {
		case "":
			continue
		case "q", "quit", "exit":
			return nil
		case "a", "add":
			if err := addProfileInteractive(store); err != nil {
				fmt.Printf("Add failed: %v\n", err)
			}
		case "e", "edit":
			if n, ok := pickHost(profiles, "Edit which host"); ok {
				if err := editProfileInteractive(store, profiles[n-1]); err != nil {
					fmt.Printf("Edit failed: %v\n", err)
				}
			}
		case "r", "remove":
			if n, ok := pickHost(profiles, "Remove which host"); ok {
				name := profiles[n-1].Name
				if confirm(fmt.Sprintf("Remove host %q", name)) {
					if err := store.Delete(name); err != nil {
						fmt.Printf("Remove failed: %v\n", err)
					}
				}
			}
		default:
			n, err := strconv.Atoi(line)
			if err != nil || n < 1 || n > len(profiles) {
				fmt.Printf("Unknown command %q.\n", line)
				continue
			}
			hostActions(ctx, profiles[n-1])
		}
	}
	return ctx.Err()
}

func printHostList(profiles []profile.Profile) {
	fmt.Println("\nHosts (~/.ssh/config):")
	if len(profiles) == 0 {
		fmt.Println("  (none configured - use 'a' to add one)")
		return
	}
	for i, p := range profiles {
		auth := string(p.AuthMethod)
		if auth == "" {
			auth = "key"
		}
		fmt.Printf("  %2d) %-20s %s:%d (%s)\n", i+1, p.Name, p.Target(), p.EffectivePort(), auth)
	}
}

func pickHost(profiles []profile.Profile, prompt string) (int, bool) {
	if len(profiles) == 0 {
		fmt.Println("No hosts configured.")
		return 0, false
	}
	return promptNumber(prompt, len(profiles))
}

// hostActions offers what to do with a selected host: open the file
// browser or drop into an interactive shell.
func hostActions(ctx context.Context, prof profile.Profile) {
	line, err := readLine(fmt.Sprintf("%s: [b]rowse files, [s]hell, enter to cancel: ", prof.Name))
	if err != nil {
		return
	}
	switch strings.ToLower(line) {
	case "b", "browse":
		if err := browseHost(ctx, prof, loadSettings(), ""); err != nil {
			fmt.Printf("Browse failed: %v\n", err)
		}
	case "s", "shell", "ssh":
		if err := openShell(ctx, prof); err != nil {
			fmt.Printf("Shell exited: %v\n", err)
		}
	}
}

// openShell launches the system ssh binary for an interactive session.
// Profiles live in ~/.ssh/config, so the alias alone is enough.
func openShell(ctx context.Context, prof profile.Profile) error {
	sshPath, err := exec.LookPath("ssh")
	if err != nil {
		return fmt.Errorf("ssh binary not found: %w", err)
	}
	cmd := exec.CommandContext(ctx, sshPath, prof.Name)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// addProfileInteractive walks through the fields for a new host profile.
func addProfileInteractive(store *profile.Store) error {
	name, err := readLineDefault("Host alias", "")
	if err != nil || name == "" {
		return err
	}
	if _, err := store.Get(name); err == nil {
		return fmt.Errorf("host %q already exists", name)
	}
	return fillProfile(store, profile.Profile{Name: name})
}

// editProfileInteractive re-prompts every field with the current values as
// defaults.
func editProfileInteractive(store *profile.Store, prof profile.Profile) error {
	return fillProfile(store, prof)
}

func fillProfile(store *profile.Store, prof profile.Profile) error {
	var err error
	if prof.Address, err = readLineDefault("Address (IP or DNS name)", prof.Address); err != nil {
		return err
	}
	portStr, err := readLineDefault("Port", strconv.Itoa(prof.EffectivePort()))
	if err != nil {
		return err
	}
	if prof.Port, err = strconv.Atoi(portStr); err != nil {
		return fmt.Errorf("invalid port %q", portStr)
	}
	if prof.User, err = readLineDefault("User", prof.User); err != nil {
		return err
	}

	authDefault := "1"
	if prof.AuthMethod == profile.AuthPassword {
		authDefault = "2"
	}
	authStr, err := readLineDefault("Auth method: 1) key  2) password", authDefault)
	if err != nil {
		return err
	}
	switch authStr {
	case "1":
		prof.AuthMethod = profile.AuthKey
		if prof.IdentityFile, err = pickIdentityFile(prof.IdentityFile); err != nil {
			return err
		}
	case "2":
		prof.AuthMethod = profile.AuthPassword
		prof.IdentityFile = ""
	default:
		return fmt.Errorf("invalid auth method %q", authStr)
	}

	if err := prof.Validate(); err != nil {
		return err
	}
	if err := store.Upsert(prof); err != nil {
		return err
	}
	fmt.Printf("Saved host %q.\n", prof.Name)
	return nil
}

// pickIdentityFile offers the discovered ~/.ssh keys as a numbered list,
// plus agent/default and a custom path.
func pickIdentityFile(current string) (string, error) {
	keys, err := profile.DiscoverKeys()
	if err != nil {
		keys = nil
	}

	fmt.Println("Identity file:")
	fmt.Println("   0) agent / default identities")
	for i, k := range keys {
		fmt.Printf("  %2d) %s\n", i+1, filepath.Base(k))
	}
	fmt.Printf("  %2d) custom path\n", len(keys)+1)

	line, err := readLineDefault("Choose", identityDefault(current, keys))
	if err != nil {
		return "", err
	}
	n, err := strconv.Atoi(line)
	if err != nil || n < 0 || n > len(keys)+1 {
		return "", fmt.Errorf("invalid choice %q", line)
	}
	switch {
	case n == 0:
		return "", nil
	case n <= len(keys):
		return keys[n-1], nil
	default:
		return readLineDefault("Key path", current)
	}
}

func identityDefault(current string, keys []string) string {
	for i, k := range keys {
		if k == current {
			return strconv.Itoa(i + 1)
		}
	}
	return "0"
}

// newHostsCmd exposes profile management non-interactively.
func newHostsCmd() *cobra.Command {
	hostsCmd := &cobra.Command{
		Use:   "hosts",
		Short: "Manage host profiles in ~/.ssh/config",
	}

	hostsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List configured hosts",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			profiles, err := store.List()
			if err != nil {
				return err
			}
			printHostList(profiles)
			return nil
		},
	})

	hostsCmd.AddCommand(&cobra.Command{
		Use:   "add",
		Short: "Add a host profile interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			return addProfileInteractive(store)
		},
	})

	hostsCmd.AddCommand(&cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a host profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			return store.Delete(args[0])
		},
	})

	hostsCmd.AddCommand(&cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a host profile",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			return store.Rename(args[0], args[1])
		},
	})

	return hostsCmd
}
