// File: api/item.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Work items moved through the inbound and outbound queues.

package api

import "github.com/momentics/embedded-ws/pool"

// Item is one unit of queued work. The Payload buffer is owned by whoever
// currently holds the Item; the consumer that takes it off a queue is
// responsible for releasing it exactly once.
type Item struct {
	Payload *pool.Buffer
	Target  int // slot index, or BroadcastTarget
	// Generation pins a targeted item to one connection of the slot. Zero
	// means whichever connection is open when the item is written.
	Generation uint64
	Opcode     byte // frame opcode for outbound items
	Raw        bool // write Payload as-is without a frame header
	Text       bool // inbound only: text (true) or binary (false) message
}

// NewItem copies payload into a buffer from the default pool and returns a
// framed item addressed to target.
func NewItem(target int, opcode byte, payload []byte) *Item {
	return &Item{
		Payload: pool.Default().Copy(payload),
		Target:  target,
		Opcode:  opcode,
	}
}

// Len returns the payload length.
func (it *Item) Len() int {
	return it.Payload.Len()
}

// Bytes returns the payload contents.
func (it *Item) Bytes() []byte {
	return it.Payload.Bytes()
}

// Release frees the payload. Safe to call on a nil Item.
func (it *Item) Release() {
	if it == nil {
		return
	}
	it.Payload.Release()
}
