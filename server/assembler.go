// File: server/assembler.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Reassembles one frame from consecutive reads. A header cut short by the
// read boundary is held back until the rest arrives; the payload is copied
// into a pooled buffer sized from the declared length.

package server

import (
	"errors"

	"github.com/momentics/embedded-ws/core/protocol"
	"github.com/momentics/embedded-ws/pool"
)

// frame is a fully received, unmasked frame. The payload is owned by the
// caller.
type frame struct {
	hdr     protocol.Header
	payload *pool.Buffer
}

type assembler struct {
	pool *pool.BytePool

	partial []byte // incomplete header bytes
	hdr     protocol.Header
	payload *pool.Buffer
	filled  int
}

func newAssembler(p *pool.BytePool) *assembler {
	return &assembler{
		pool:    p,
		partial: make([]byte, 0, protocol.MaxFrameHeaderLen),
	}
}

// feed consumes one read. It returns ok once the frame is complete. Bytes
// beyond the declared length yield ErrLengthMismatch and drop the partial
// frame.
func (a *assembler) feed(data []byte) (frame, bool, error) {
	if a.payload == nil {
		raw := data
		if len(a.partial) > 0 {
			raw = append(append(make([]byte, 0, len(a.partial)+len(data)), a.partial...), data...)
			a.partial = a.partial[:0]
		}
		h, err := protocol.DecodeHeader(raw)
		if errors.Is(err, protocol.ErrShortHeader) {
			a.partial = append(a.partial, raw...)
			return frame{}, false, nil
		}
		if err != nil {
			return frame{}, false, err
		}
		body := raw[h.Size:]
		if len(body) > h.Length {
			return frame{}, false, protocol.ErrLengthMismatch
		}
		a.hdr = h
		a.payload = a.pool.Get(h.Length)
		a.filled = copy(a.payload.Bytes(), body)
	} else {
		if a.filled+len(data) > a.hdr.Length {
			a.reset()
			return frame{}, false, protocol.ErrLengthMismatch
		}
		a.filled += copy(a.payload.Bytes()[a.filled:], data)
	}

	if a.filled < a.hdr.Length {
		return frame{}, false, nil
	}
	f := frame{hdr: a.hdr, payload: a.payload}
	if f.hdr.Masked {
		protocol.Unmask(f.payload.Bytes(), f.hdr.Key)
	}
	a.payload = nil
	a.filled = 0
	return f, true, nil
}

// pending reports whether a frame is partially received.
func (a *assembler) pending() bool {
	return a.payload != nil || len(a.partial) > 0
}

// reset drops any partial frame and releases its buffer.
func (a *assembler) reset() {
	if a.payload != nil {
		a.payload.Release()
		a.payload = nil
	}
	a.filled = 0
	a.partial = a.partial[:0]
}
