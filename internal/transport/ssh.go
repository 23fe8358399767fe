package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
	"golang.org/x/net/proxy"

	"github.com/farview/sshfm/internal/constants"
	"github.com/farview/sshfm/internal/profile"
	"github.com/farview/sshfm/internal/ratelimit"
)

// HostKeyPolicy selects how unknown host keys are treated at connect time.
type HostKeyPolicy string

const (
	// HostKeyStrict - reject hosts not present in known_hosts.
	HostKeyStrict HostKeyPolicy = "strict"

	// HostKeyAcceptNew - record first-seen keys, reject changed ones.
	HostKeyAcceptNew HostKeyPolicy = "accept-new"

	// HostKeyInsecure - accept any key. Test environments only.
	HostKeyInsecure HostKeyPolicy = "insecure"
)

// Prompter supplies interactive secrets during connection setup. The CLI
// backs this with a terminal password prompt; tests use canned values.
type Prompter interface {
	// Password reads a secret without echoing it. The prompt names what
	// is being asked for ("password for user@host", "passphrase for key").
	Password(prompt string) (string, error)
}

// Options configures a Client beyond what the host profile carries.
type Options struct {
	Prompter       Prompter           // Required for password auth and encrypted keys
	HostKeys       HostKeyPolicy      // Defaults to HostKeyAcceptNew
	KnownHostsPath string             // Defaults to ~/.ssh/known_hosts
	SOCKS5Proxy    string             // Optional host:port to dial through
	Limiter        *ratelimit.Limiter // Optional shared bandwidth cap, nil = unlimited
	PoolSize       int                // SFTP sessions for concurrent workers, defaults to constants.DefaultMaxConcurrent
}

// Client is the SFTP-backed Transport over one SSH connection. Concurrent
// transfer workers each borrow a dedicated SFTP session from an internal
// pool, so protocol requests are never interleaved on a shared session.
type Client struct {
	prof    profile.Profile
	conn    *ssh.Client
	limiter *ratelimit.Limiter

	mu       sync.Mutex
	sessions chan *sftp.Client // Idle pooled sessions
	created  int               // Sessions opened so far
	poolSize int
	closed   bool

	lost atomic.Bool // Set once the connection is known dead

	stopKeepAlive chan struct{}
}

// Connect dials the host described by prof and returns a ready Client.
// An unreachable or unauthenticated host is a hard failure here; once
// connected, later failures degrade to per-operation transport errors.
func Connect(ctx context.Context, prof profile.Profile, opts Options) (*Client, error) {
	if err := prof.Validate(); err != nil {
		return nil, err
	}

	auth, err := authMethods(prof, opts.Prompter)
	if err != nil {
		return nil, err
	}
	hostKeyCallback, err := hostKeyCallback(opts)
	if err != nil {
		return nil, err
	}

	cfg := &ssh.ClientConfig{
		User:            prof.User,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         constants.DialTimeout,
	}

	addr := net.JoinHostPort(prof.Address, fmt.Sprintf("%d", prof.EffectivePort()))
	netConn, err := dial(ctx, addr, opts.SOCKS5Proxy)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(netConn, addr, cfg)
	if err != nil {
		netConn.Close()
		return nil, fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}

	poolSize := opts.PoolSize
	if poolSize <= 0 {
		poolSize = constants.DefaultMaxConcurrent
	}
	if poolSize > constants.MaxMaxConcurrent {
		poolSize = constants.MaxMaxConcurrent
	}

	c := &Client{
		prof:          prof,
		conn:          ssh.NewClient(sshConn, chans, reqs),
		limiter:       opts.Limiter,
		sessions:      make(chan *sftp.Client, poolSize),
		poolSize:      poolSize,
		stopKeepAlive: make(chan struct{}),
	}
	go c.keepAlive()
	return c, nil
}

// dial opens the TCP connection, through a SOCKS5 proxy when one is
// configured (the jump-host setup some operators run for restricted
// networks).
func dial(ctx context.Context, addr, socks5 string) (net.Conn, error) {
	d := &net.Dialer{Timeout: constants.DialTimeout}
	if socks5 == "" {
		return d.DialContext(ctx, "tcp", addr)
	}

	proxyDialer, err := proxy.SOCKS5("tcp", socks5, nil, d)
	if err != nil {
		return nil, fmt.Errorf("socks5 proxy %s: %w", socks5, err)
	}
	if cd, ok := proxyDialer.(proxy.ContextDialer); ok {
		return cd.DialContext(ctx, "tcp", addr)
	}
	return proxyDialer.Dial("tcp", addr)
}

// authMethods builds the SSH auth chain for a profile. Key auth tries the
// running agent first, then the explicit identity file (prompting for a
// passphrase when the key is encrypted). Password auth defers the prompt
// until the server actually asks, so a cancelled connect never reads one.
func authMethods(prof profile.Profile, prompter Prompter) ([]ssh.AuthMethod, error) {
	switch prof.AuthMethod {
	case profile.AuthPassword:
		if prompter == nil {
			return nil, fmt.Errorf("password auth for %s requires an interactive terminal", prof.Name)
		}
		return []ssh.AuthMethod{
			ssh.PasswordCallback(func() (string, error) {
				return prompter.Password(fmt.Sprintf("password for %s", prof.Target()))
			}),
		}, nil

	case profile.AuthKey:
		var methods []ssh.AuthMethod
		if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
			if agentConn, err := net.Dial("unix", sock); err == nil {
				methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(agentConn).Signers))
			}
		}
		if prof.IdentityFile != "" {
			signer, err := loadSigner(prof.IdentityFile, prompter)
			if err != nil {
				return nil, err
			}
			methods = append(methods, ssh.PublicKeys(signer))
		}
		if len(methods) == 0 {
			return nil, fmt.Errorf("no usable key for %s: no agent and no identity file", prof.Name)
		}
		return methods, nil
	}
	return nil, fmt.Errorf("unknown auth method %q for %s", prof.AuthMethod, prof.Name)
}

// loadSigner parses a private key file, prompting for its passphrase when
// the key is encrypted.
func loadSigner(path string, prompter Prompter) (ssh.Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading identity file: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(data)
	if err == nil {
		return signer, nil
	}

	var missing *ssh.PassphraseMissingError
	if !errors.As(err, &missing) {
		return nil, fmt.Errorf("parsing identity file %s: %w", path, err)
	}
	if prompter == nil {
		return nil, fmt.Errorf("identity file %s is encrypted and no terminal is available", path)
	}

	passphrase, err := prompter.Password(fmt.Sprintf("passphrase for %s", path))
	if err != nil {
		return nil, err
	}
	signer, err = ssh.ParsePrivateKeyWithPassphrase(data, []byte(passphrase))
	if err != nil {
		return nil, fmt.Errorf("decrypting identity file %s: %w", path, err)
	}
	return signer, nil
}

// hostKeyCallback builds the verification callback for the configured
// policy against the known_hosts file.
func hostKeyCallback(opts Options) (ssh.HostKeyCallback, error) {
	policy := opts.HostKeys
	if policy == "" {
		policy = HostKeyAcceptNew
	}
	if policy == HostKeyInsecure {
		return ssh.InsecureIgnoreHostKey(), nil
	}

	path := opts.KnownHostsPath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		path = filepath.Join(home, ".ssh", "known_hosts")
	}
	if err := ensureKnownHosts(path); err != nil {
		return nil, err
	}

	check, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("loading known hosts %s: %w", path, err)
	}
	if policy == HostKeyStrict {
		return check, nil
	}

	// accept-new: record keys for hosts we have never seen, still reject
	// a key that conflicts with a recorded one.
	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		err := check(hostname, remote, key)
		if err == nil {
			return nil
		}
		var keyErr *knownhosts.KeyError
		if !errors.As(err, &keyErr) || len(keyErr.Want) > 0 {
			return err
		}
		return appendKnownHost(path, hostname, remote, key)
	}, nil
}

// ensureKnownHosts creates an empty known_hosts file (and .ssh directory)
// when none exists, since knownhosts.New refuses to open a missing file.
func ensureKnownHosts(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	return f.Close()
}

// appendKnownHost records a first-seen host key.
func appendKnownHost(path, hostname string, remote net.Addr, key ssh.PublicKey) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("recording host key: %w", err)
	}
	defer f.Close()

	line := knownhosts.Line([]string{knownhosts.Normalize(hostname)}, key)
	if _, err := fmt.Fprintln(f, line); err != nil {
		return fmt.Errorf("recording host key: %w", err)
	}
	return nil
}

// keepAlive sends periodic requests so NAT/firewall state stays warm and a
// dead connection is noticed between operator commands.
func (c *Client) keepAlive() {
	ticker := time.NewTicker(constants.KeepAliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopKeepAlive:
			return
		case <-ticker.C:
			if _, _, err := c.conn.SendRequest("keepalive@openssh.com", true, nil); err != nil {
				c.lost.Store(true)
				return
			}
		}
	}
}

// Alive reports whether the connection is still usable.
func (c *Client) Alive() bool {
	return !c.lost.Load()
}

// Profile returns the host profile this client is connected as.
func (c *Client) Profile() profile.Profile {
	return c.prof
}

// acquire returns an idle SFTP session, opening a new one while the pool is
// below capacity. Blocks when all sessions are busy, which is what bounds
// worker concurrency at the protocol level.
func (c *Client) acquire(ctx context.Context) (*sftp.Client, error) {
	if c.lost.Load() {
		return nil, &Error{Op: "session", Path: c.prof.Name, Err: ErrConnectionLost}
	}

	select {
	case s := <-c.sessions:
		return s, nil
	default:
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, &Error{Op: "session", Path: c.prof.Name, Err: ErrConnectionLost}
	}
	if c.created < c.poolSize {
		c.created++
		c.mu.Unlock()
		s, err := sftp.NewClient(c.conn,
			sftp.UseConcurrentReads(true),
			sftp.UseConcurrentWrites(true))
		if err != nil {
			c.mu.Lock()
			c.created--
			c.mu.Unlock()
			c.noteErr(err)
			return nil, wrapErr("session", c.prof.Name, err)
		}
		return s, nil
	}
	c.mu.Unlock()

	select {
	case s := <-c.sessions:
		return s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// release returns a session to the pool, closing it instead when the client
// has been torn down in the meantime.
func (c *Client) release(s *sftp.Client) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed || c.lost.Load() {
		s.Close()
		return
	}
	select {
	case c.sessions <- s:
	default:
		s.Close()
	}
}

// discard closes a session that hit an error rather than pooling it, since
// a failed session may have undrained protocol state.
func (c *Client) discard(s *sftp.Client) {
	c.mu.Lock()
	if c.created > 0 {
		c.created--
	}
	c.mu.Unlock()
	s.Close()
}

// noteErr marks the connection dead when err indicates it is gone.
func (c *Client) noteErr(err error) {
	if IsConnectionLost(classify(err)) {
		c.lost.Store(true)
	}
}

// Close tears down all pooled sessions and the SSH connection.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.stopKeepAlive)
	c.mu.Unlock()

	for {
		select {
		case s := <-c.sessions:
			s.Close()
		default:
			return c.conn.Close()
		}
	}
}
