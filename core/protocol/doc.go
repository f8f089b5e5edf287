// Package protocol
// Author: momentics <momentics@gmail.com>
//
// Implements the WebSocket wire logic (RFC 6455) for embedded-ws.
//
// Includes:
//   - Frame header decoding with 7/16-bit lengths and a 1 KiB ceiling
//   - Unmasked server frame encoding into caller-owned scratch buffers
//   - Opening handshake validation and Sec-WebSocket-Accept derivation
//   - Close status codes and error-to-status mapping
//
// The package holds no state; every function is safe for concurrent use.
package protocol
