// control/platform.go
// Author: momentics <momentics@gmail.com>
//
// Runtime probes relevant to a memory-constrained host.

package control

import "runtime"

// RegisterPlatformProbes adds goroutine and heap probes.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.goroutines", func() any {
		return runtime.NumGoroutine()
	})
	dp.RegisterProbe("platform.heap_alloc", func() any {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		return ms.HeapAlloc
	})
}
