package buffers

import (
	"sync"
	"sync/atomic"

	"github.com/farview/sshfm/internal/constants"
)

// Pool provides reusable byte buffers to reduce heap allocations during
// streaming transfers. Every concurrent worker copies through one of these,
// so without pooling a large batch churns the GC with short-lived 128KB
// allocations.

// Pool monitoring counters
var (
	copyAllocations int64 // Total copy buffer allocations (new creates)
	lineAllocations int64 // Total line buffer allocations
)

var (
	// copyPool provides buffers sized to the SFTP write packet payload,
	// used by upload/download streaming loops.
	copyPool = &sync.Pool{
		New: func() interface{} {
			atomic.AddInt64(&copyAllocations, 1)
			buf := make([]byte, constants.CopyBufferSize)
			return &buf
		},
	}

	// linePool provides small buffers for preview reads and status lines.
	linePool = &sync.Pool{
		New: func() interface{} {
			atomic.AddInt64(&lineAllocations, 1)
			buf := make([]byte, constants.StatusLineBufferSize)
			return &buf
		},
	}
)

// GetCopyBuffer retrieves a streaming copy buffer from the pool.
// The buffer must be returned with PutCopyBuffer when done.
//
// Usage:
//
//	buf := buffers.GetCopyBuffer()
//	defer buffers.PutCopyBuffer(buf)
//	n, err := io.CopyBuffer(dst, src, *buf)
func GetCopyBuffer() *[]byte {
	return copyPool.Get().(*[]byte)
}

// PutCopyBuffer returns a buffer to the pool for reuse.
// The buffer should not be used after calling this function.
// Only buffers of the correct size are pooled.
func PutCopyBuffer(buf *[]byte) {
	if buf != nil && len(*buf) == constants.CopyBufferSize {
		copyPool.Put(buf)
	}
}

// GetLineBuffer retrieves a small buffer suitable for preview reads.
func GetLineBuffer() *[]byte {
	return linePool.Get().(*[]byte)
}

// PutLineBuffer returns a small buffer to the pool for reuse.
// Only buffers of the correct size are pooled.
func PutLineBuffer(buf *[]byte) {
	if buf != nil && len(*buf) == constants.StatusLineBufferSize {
		linePool.Put(buf)
	}
}

// Stats reports pool allocation counters, useful when tuning worker counts.
type Stats struct {
	CopyBufferSize  int   // Size of copy buffers (bytes)
	LineBufferSize  int   // Size of line buffers (bytes)
	CopyAllocations int64 // Total copy buffer allocations (new creates)
	LineAllocations int64 // Total line buffer allocations (new creates)
}

// GetStats returns current buffer pool statistics.
func GetStats() Stats {
	return Stats{
		CopyBufferSize:  constants.CopyBufferSize,
		LineBufferSize:  constants.StatusLineBufferSize,
		CopyAllocations: atomic.LoadInt64(&copyAllocations),
		LineAllocations: atomic.LoadInt64(&lineAllocations),
	}
}
