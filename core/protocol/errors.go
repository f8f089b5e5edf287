// File: core/protocol/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

import "errors"

// Frame and handshake errors. Each frame error maps onto the close status
// sent to the peer through CloseCodeFor.
var (
	ErrShortHeader       = errors.New("websocket: frame header incomplete")
	ErrTruncated         = errors.New("websocket: frame payload incomplete")
	ErrFragmented        = errors.New("websocket: fragmented messages are not supported")
	ErrUnsupportedLength = errors.New("websocket: 64-bit payload length not supported")
	ErrMessageTooBig     = errors.New("websocket: payload exceeds maximum length")
	ErrControlTooLong    = errors.New("websocket: control frame payload over 125 bytes")
	ErrPayloadTooLarge   = errors.New("websocket: payload too large to frame")
	ErrLengthMismatch    = errors.New("websocket: received more bytes than declared")
	ErrInvalidOpcode     = errors.New("websocket: invalid opcode")
	ErrBadHandshake      = errors.New("websocket: bad handshake request")
)

// CloseCodeFor returns the close status reported to the peer for err.
func CloseCodeFor(err error) uint16 {
	switch {
	case err == nil:
		return CloseNormalClosure
	case errors.Is(err, ErrFragmented):
		return CloseUnsupportedData
	case errors.Is(err, ErrUnsupportedLength), errors.Is(err, ErrMessageTooBig):
		return CloseMessageTooBig
	case errors.Is(err, ErrLengthMismatch):
		return CloseInternalServerErr
	case errors.Is(err, ErrInvalidOpcode):
		return ClosePolicyViolation
	case errors.Is(err, ErrControlTooLong):
		return CloseProtocolError
	default:
		return CloseProtocolError
	}
}
