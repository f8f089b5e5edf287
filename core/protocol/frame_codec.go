// File: core/protocol/frame_codec.go
// Package protocol implements the RFC 6455 frame codec with a fixed size ceiling.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Decoding accepts the 7-bit and 16-bit length forms only; the 64-bit form is
// rejected outright. Encoding writes unmasked server frames with FIN set and
// refuses payloads above MaxPayloadLen instead of truncating them.

package protocol

import "encoding/binary"

// Header is a decoded frame header.
type Header struct {
	Fin    bool
	Rsv    byte // RSV1..RSV3 as the high nibble bits 0x70
	Opcode byte
	Masked bool
	Length int     // payload length in bytes
	Key    [4]byte // valid when Masked
	Size   int     // bytes occupied by the header itself
}

// IsControl reports whether the opcode is a control opcode.
func (h Header) IsControl() bool {
	return h.Opcode&0x08 != 0
}

// DecodeHeader parses the frame header at the start of raw.
//
// Fragmented frames (FIN clear) yield ErrFragmented, the 64-bit length escape
// yields ErrUnsupportedLength and a 16-bit length above MaxPayloadLen yields
// ErrMessageTooBig. A control frame that announces more than
// MaxShortPayloadLen bytes yields ErrControlTooLong. ErrShortHeader means raw
// ends inside the header.
func DecodeHeader(raw []byte) (Header, error) {
	var h Header
	if len(raw) < 1 {
		return h, ErrShortHeader
	}
	h.Fin = raw[0]&FinBit != 0
	h.Rsv = raw[0] & RsvBits
	h.Opcode = raw[0] & OpcodeBits
	if !h.Fin {
		return h, ErrFragmented
	}
	if len(raw) < MinFrameHeaderLen {
		return h, ErrShortHeader
	}
	h.Masked = raw[1]&MaskBit != 0
	length := int(raw[1] & LenBits)
	offset := MinFrameHeaderLen
	if h.IsControl() && length > MaxShortPayloadLen {
		return h, ErrControlTooLong
	}

	switch length {
	case lenExtended16:
		if len(raw) < offset+2 {
			return h, ErrShortHeader
		}
		length = int(binary.BigEndian.Uint16(raw[offset:]))
		offset += 2
		if length > MaxPayloadLen {
			h.Length = length
			return h, ErrMessageTooBig
		}
	case lenExtended64:
		return h, ErrUnsupportedLength
	}
	h.Length = length

	if h.Masked {
		if len(raw) < offset+MaskKeyLen {
			return h, ErrShortHeader
		}
		copy(h.Key[:], raw[offset:offset+MaskKeyLen])
		offset += MaskKeyLen
	}
	h.Size = offset
	return h, nil
}

// DecodeFrame decodes one complete frame from raw and unmasks its payload
// in place. The returned payload aliases raw.
func DecodeFrame(raw []byte) (Header, []byte, error) {
	h, err := DecodeHeader(raw)
	if err != nil {
		return h, nil, err
	}
	if len(raw) < h.Size+h.Length {
		return h, nil, ErrTruncated
	}
	payload := raw[h.Size : h.Size+h.Length]
	if h.Masked {
		Unmask(payload, h.Key)
	}
	return h, payload, nil
}

// Unmask XORs buf with key in place. Applying it twice restores the input.
func Unmask(buf []byte, key [4]byte) {
	for i := range buf {
		buf[i] ^= key[i%4]
	}
}

// HeaderLen returns the server header size for an n-byte payload,
// or 0 if n cannot be framed.
func HeaderLen(n int) int {
	switch {
	case n < 0 || n > MaxPayloadLen:
		return 0
	case n <= MaxShortPayloadLen:
		return MinFrameHeaderLen
	default:
		return MaxServerHeaderLen
	}
}

// AppendFrame appends a FIN frame carrying payload to dst and returns the
// extended slice. Payloads above MaxPayloadLen are rejected with a nil
// result and ErrPayloadTooLarge.
func AppendFrame(dst []byte, opcode byte, payload []byte) ([]byte, error) {
	n := len(payload)
	if HeaderLen(n) == 0 {
		return nil, ErrPayloadTooLarge
	}
	b0 := byte(FinBit) | (opcode & OpcodeBits)
	if n <= MaxShortPayloadLen {
		dst = append(dst, b0, byte(n))
	} else {
		dst = append(dst, b0, lenExtended16, byte(n>>8), byte(n))
	}
	return append(dst, payload...), nil
}
