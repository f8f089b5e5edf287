// Package transport
// Author: momentics <momentics@gmail.com>
//
// TCP endpoint for embedded-ws: a listener with SO_REUSEADDR so the device can
// rebind immediately after a restart, and optional per-connection kernel
// buffer caps to keep socket memory inside a fixed budget.
package transport
