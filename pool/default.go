// File: pool/default.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import "sync"

// DefaultClass matches the largest payload the engine frames (1 KiB).
const DefaultClass = 1024

var (
	defaultOnce sync.Once
	defaultPool *BytePool
)

// Default returns the process-wide pool so every component recycles
// the same slabs instead of fragmenting a small heap.
func Default() *BytePool {
	defaultOnce.Do(func() {
		defaultPool = NewBytePool(DefaultClass)
	})
	return defaultPool
}
