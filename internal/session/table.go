// File: internal/session/table.go
// Package session
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package session

import (
	"net"
	"sync"

	"github.com/momentics/embedded-ws/api"
)

// Table is the fixed-capacity connection registry.
type Table struct {
	mu    sync.Mutex
	slots []*Slot
}

// NewTable pre-allocates capacity slots.
func NewTable(capacity int) (*Table, error) {
	if capacity <= 0 {
		return nil, api.ErrInvalidArgument
	}
	t := &Table{slots: make([]*Slot, capacity)}
	for i := range t.slots {
		t.slots[i] = newSlot(i)
	}
	return t, nil
}

// Claim scans for a free slot and attaches conn to it. When every slot is
// occupied it returns ErrResourceExhausted and leaves the table untouched.
func (t *Table) Claim(conn net.Conn) (*Slot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range t.slots {
		if s.claim(conn) {
			return s, nil
		}
	}
	return nil, api.ErrResourceExhausted
}

// Get returns the slot at index, or nil when out of range.
func (t *Table) Get(index int) *Slot {
	if index < 0 || index >= len(t.slots) {
		return nil
	}
	return t.slots[index]
}

// Len returns the table capacity.
func (t *Table) Len() int {
	return len(t.slots)
}

// Range calls fn for every slot in index order.
func (t *Table) Range(fn func(*Slot)) {
	for _, s := range t.slots {
		fn(s)
	}
}

// Active counts slots with an attached connection.
func (t *Table) Active() int {
	n := 0
	for _, s := range t.slots {
		if s.InUse() {
			n++
		}
	}
	return n
}

// Snapshot returns the state of every slot.
func (t *Table) Snapshot() []api.SlotInfo {
	out := make([]api.SlotInfo, len(t.slots))
	for i, s := range t.slots {
		out[i] = s.Info()
	}
	return out
}
