// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error definitions for concurrency module.

package concurrency

import "errors"

var (
	// ErrQueueFull indicates a zero-wait push found no free capacity
	ErrQueueFull = errors.New("queue is full")

	// ErrInvalidCapacity indicates a non-positive queue bound
	ErrInvalidCapacity = errors.New("invalid queue capacity")
)
