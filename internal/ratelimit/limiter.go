// Package ratelimit provides byte-rate limiting for transfers using a token
// bucket algorithm, where one token is one byte. The throttle applies to the
// streaming copy loops in the transport, so a configured bandwidth cap holds
// across all concurrent workers sharing one Limiter.
package ratelimit

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/farview/sshfm/internal/constants"
)

// Limiter implements a token bucket byte-rate limiter.
// It allows bursts up to burstBytes, then refills at bytesPerSec.
// A nil *Limiter is valid and means unlimited.
type Limiter struct {
	tokens     float64   // Current bytes available
	maxTokens  float64   // Maximum bucket capacity
	refillRate float64   // Bytes added per second
	lastRefill time.Time // Last time tokens were refilled
	mu         sync.Mutex
}

// NewLimiter creates a byte-rate limiter capped at bytesPerSec, with burst
// capacity scaled by constants.BandwidthBurstFactor. Returns nil (unlimited)
// when bytesPerSec <= 0.
func NewLimiter(bytesPerSec int64) *Limiter {
	if bytesPerSec <= 0 {
		return nil
	}
	burst := float64(bytesPerSec) * constants.BandwidthBurstFactor
	return &Limiter{
		tokens:     burst, // Start with a full bucket
		maxTokens:  burst,
		refillRate: float64(bytesPerSec),
		lastRefill: time.Now(),
	}
}

// WaitN blocks until n bytes of budget are available or ctx is cancelled.
// Requests larger than the bucket are satisfied in bucket-sized pieces, so a
// single huge write cannot deadlock against a small cap.
func (l *Limiter) WaitN(ctx context.Context, n int) error {
	if l == nil || n <= 0 {
		return nil
	}

	remaining := float64(n)
	for remaining > 0 {
		chunk := remaining
		if chunk > l.maxTokens {
			chunk = l.maxTokens
		}

		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			if l.tryAcquire(chunk) {
				break
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(l.timeUntilAvailable(chunk)):
			}
		}
		remaining -= chunk
	}
	return nil
}

// tryAcquire attempts to take n bytes from the bucket without blocking.
func (l *Limiter) tryAcquire(n float64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Refill tokens based on elapsed time
	now := time.Now()
	elapsed := now.Sub(l.lastRefill).Seconds()
	l.tokens += elapsed * l.refillRate
	if l.tokens > l.maxTokens {
		l.tokens = l.maxTokens
	}
	l.lastRefill = now

	if l.tokens >= n {
		l.tokens -= n
		return true
	}
	return false
}

// timeUntilAvailable calculates how long to wait until n bytes of budget
// will have accumulated.
func (l *Limiter) timeUntilAvailable(n float64) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	needed := n - l.tokens
	if needed <= 0 {
		return 0
	}
	return time.Duration(needed / l.refillRate * float64(time.Second))
}

// currentTokens returns the refreshed bucket level (for tests).
func (l *Limiter) currentTokens() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	tokens := l.tokens + now.Sub(l.lastRefill).Seconds()*l.refillRate
	if tokens > l.maxTokens {
		tokens = l.maxTokens
	}
	return tokens
}

// Reader wraps r so that reads consume limiter budget. A nil limiter
// passes reads through untouched.
func (l *Limiter) Reader(ctx context.Context, r io.Reader) io.Reader {
	if l == nil {
		return r
	}
	return &limitedReader{ctx: ctx, limiter: l, r: r}
}

type limitedReader struct {
	ctx     context.Context
	limiter *Limiter
	r       io.Reader
}

func (lr *limitedReader) Read(p []byte) (int, error) {
	// Cap the request so refill waits stay short and cancellation is
	// observed promptly at low limits.
	if len(p) > int(lr.limiter.maxTokens) && int(lr.limiter.maxTokens) >= constants.BandwidthMinChunk {
		p = p[:int(lr.limiter.maxTokens)]
	}

	n, err := lr.r.Read(p)
	if n > 0 {
		if werr := lr.limiter.WaitN(lr.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}
