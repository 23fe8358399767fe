package cli

import (
	"context"
	"fmt"

	"github.com/farview/sshfm/internal/config"
	"github.com/farview/sshfm/internal/profile"
	"github.com/farview/sshfm/internal/ratelimit"
	"github.com/farview/sshfm/internal/transport"
)

// openStore opens the host profile store over ~/.ssh/config.
func openStore() (*profile.Store, error) {
	path, err := profile.DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return profile.NewStore(path)
}

// lookupProfile resolves a host name through the profile store.
func lookupProfile(name string) (profile.Profile, error) {
	store, err := openStore()
	if err != nil {
		return profile.Profile{}, err
	}
	return store.Get(name)
}

// openTransport connects to the named host with the current settings. The
// returned client is ready for concurrent batch workers; the caller owns
// Close.
func openTransport(ctx context.Context, name string, settings config.Settings) (*transport.Client, error) {
	prof, err := lookupProfile(name)
	if err != nil {
		return nil, err
	}
	return connectTransport(ctx, prof, settings)
}

// connectTransport dials an already-resolved profile.
func connectTransport(ctx context.Context, prof profile.Profile, settings config.Settings) (*transport.Client, error) {
	var limiter *ratelimit.Limiter
	if settings.BandwidthLimit > 0 {
		limiter = ratelimit.NewLimiter(settings.BandwidthLimit)
	}

	client, err := transport.Connect(ctx, prof, transport.Options{
		Prompter:       newTerminalPrompter(),
		HostKeys:       transport.HostKeyPolicy(settings.HostKeyPolicy),
		KnownHostsPath: settings.KnownHostsPath,
		SOCKS5Proxy:    settings.SOCKS5Proxy,
		Limiter:        limiter,
		PoolSize:       settings.Workers,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", prof.Target(), err)
	}
	return client, nil
}
