// Package session
// Author: momentics <momentics@gmail.com>
//
// Fixed-capacity connection table for embedded-ws.
//
// The table is an arena of N pre-allocated slots addressed by index. A slot is
// free exactly when it holds no TCP connection. The listener claims slots under
// the table lock; afterwards each slot is driven by its own receive worker,
// the single send worker (which only confirms OPENING -> OPEN) and its close
// timer (which only forces the socket shut).
package session
