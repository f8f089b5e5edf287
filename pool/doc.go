// Package pool
// Author: momentics <momentics@gmail.com>
//
// Memory layer for embedded-ws.
// Payload buffers come from a single size class sized to the largest frame
// the engine accepts, so the steady-state heap stays bounded. Every Buffer has
// exactly one owner; ownership moves with the work item that carries it and
// the final holder calls Release.
package pool
