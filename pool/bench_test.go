package pool_test

import (
	"testing"

	"github.com/momentics/embedded-ws/pool"
)

// BenchmarkBytePoolAllocation measures slab reuse across goroutines.
func BenchmarkBytePoolAllocation(b *testing.B) {
	p := pool.NewBytePool(1024)
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			p.Get(512).Release()
		}
	})
}
