// Package profile persists host connection profiles in OpenSSH client
// config format, so entries managed here remain usable by plain ssh and
// entries written by hand remain usable here.
package profile

import (
	"errors"
	"fmt"
	"strings"
)

// AuthMethod selects how the transport authenticates for a host.
type AuthMethod string

const (
	// AuthKey - public key authentication. An empty IdentityFile means the
	// agent and default identity files are tried.
	AuthKey AuthMethod = "key"

	// AuthPassword - keyboard password authentication.
	AuthPassword AuthMethod = "password"
)

// Sentinel errors for store operations.
var (
	ErrNotFound = errors.New("host profile not found")
	ErrInvalid  = errors.New("invalid host profile")
)

// DefaultPort is the SSH port assumed when a profile doesn't name one.
const DefaultPort = 22

// Profile holds the connection parameters for one remote host.
type Profile struct {
	Name         string     // Host alias (config block name)
	Address      string     // HostName: IP or DNS name
	Port         int        // TCP port, DefaultPort when unset
	User         string     // Login user
	AuthMethod   AuthMethod // key or password
	IdentityFile string     // Private key path, key auth only
}

// Validate checks the profile for the fields the transport requires.
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if strings.ContainsAny(p.Name, " \t*?!") {
		return fmt.Errorf("%w: name %q must be a single alias without wildcards", ErrInvalid, p.Name)
	}
	if strings.TrimSpace(p.Address) == "" {
		return fmt.Errorf("%w: address is required for %q", ErrInvalid, p.Name)
	}
	if p.Port < 0 || p.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range for %q", ErrInvalid, p.Port, p.Name)
	}
	if strings.TrimSpace(p.User) == "" {
		return fmt.Errorf("%w: user is required for %q", ErrInvalid, p.Name)
	}
	switch p.AuthMethod {
	case AuthKey, AuthPassword:
	case "":
		return fmt.Errorf("%w: auth method is required for %q", ErrInvalid, p.Name)
	default:
		return fmt.Errorf("%w: unknown auth method %q for %q", ErrInvalid, p.AuthMethod, p.Name)
	}
	return nil
}

// EffectivePort returns the port to dial, applying the default.
func (p *Profile) EffectivePort() int {
	if p.Port == 0 {
		return DefaultPort
	}
	return p.Port
}

// Target renders the user@address form used in messages and rsync remotes.
func (p *Profile) Target() string {
	return fmt.Sprintf("%s@%s", p.User, p.Address)
}
