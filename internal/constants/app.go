package constants

import (
	"time"
)

// Transfer concurrency limits
const (
	// DefaultMaxConcurrent - default concurrent file transfers per batch
	DefaultMaxConcurrent = 4

	// MinMaxConcurrent - minimum concurrent transfers (sequential mode)
	MinMaxConcurrent = 1

	// MaxMaxConcurrent - maximum concurrent transfers allowed.
	// Each worker holds its own SFTP session on the shared connection;
	// OpenSSH servers default to 10 sessions per connection (MaxSessions).
	MaxMaxConcurrent = 8
)

// Streaming buffers
const (
	// CopyBufferSize - size of pooled buffers used for SFTP streaming (128 KB)
	// Matches the sftp package's maximum write packet payload so a full
	// buffer drains in whole packets.
	CopyBufferSize = 128 * 1024

	// StatusLineBufferSize - size of pooled buffers for short status lines (4 KB)
	StatusLineBufferSize = 4 * 1024
)

// Timeouts
const (
	// DialTimeout - timeout for establishing the SSH connection (15 seconds)
	DialTimeout = 15 * time.Second

	// ListTimeout - timeout for a single remote directory listing (30 seconds)
	// Prevents the browser loop from hanging on a dead connection.
	ListTimeout = 30 * time.Second

	// KeepAliveInterval - interval between SSH keep-alive requests (60 seconds)
	KeepAliveInterval = 60 * time.Second
)

// File preview
const (
	// PreviewMaxLines - default number of lines shown by the preview action
	PreviewMaxLines = 50

	// PreviewMaxBytes - hard cap on bytes fetched for a preview (10 KiB)
	// A preview never downloads more than this regardless of line count.
	PreviewMaxBytes = 10 * 1024

	// PreviewBinarySniffLen - leading bytes inspected for NUL when deciding
	// whether content is binary (preview refuses binary files)
	PreviewBinarySniffLen = 512
)

// Disk space safety margin
const (
	// DiskSpaceBufferPercent - additional space to require beyond file size (10%)
	// Accounts for filesystem overhead and concurrent writers.
	DiskSpaceBufferPercent = 0.10
)

// Progress UI
const (
	// ProgressUpdateInterval - interval for progress bar updates (250ms)
	// Balances responsiveness with terminal redraw cost.
	ProgressUpdateInterval = 250 * time.Millisecond

	// ProgressBarThrottle - minimum time between EWMA bar increments (300ms)
	ProgressBarThrottle = 300 * time.Millisecond

	// SpeedSmoothingFactor - EMA smoothing factor for transfer speed estimates.
	// Higher values react faster to rate changes, lower values are steadier.
	SpeedSmoothingFactor = 0.25
)

// Listing render
const (
	// ListingNameWidth - column width reserved for entry names
	ListingNameWidth = 40

	// MaxRenderEntries - listings longer than this are still rendered in full,
	// but the index column widens; kept as a named constant so render and
	// selector agree on no artificial truncation.
	MaxRenderEntries = 10000
)

// Bandwidth limiting
const (
	// BandwidthBurstFactor - token bucket burst capacity as a multiple of the
	// per-second byte rate. One second of burst keeps short transfers snappy
	// without breaching the sustained limit.
	BandwidthBurstFactor = 1.0

	// BandwidthMinChunk - smallest token request the throttle will make (4 KB)
	// Avoids pathological per-byte waits at very low limits.
	BandwidthMinChunk = 4 * 1024
)
