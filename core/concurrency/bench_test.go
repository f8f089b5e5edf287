package concurrency

import "testing"

// BenchmarkBoundedQueueThroughput pushes and pops under contention.
func BenchmarkBoundedQueueThroughput(b *testing.B) {
	q, err := NewBoundedQueue[int](10)
	if err != nil {
		b.Fatal(err)
	}
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			if !q.TryPush(i) {
				q.TryPop()
			}
			i++
		}
	})
}
