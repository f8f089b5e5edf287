// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Shared API-level type declarations and constants.

package api

// ConnState enumerates the protocol state of a connection slot.
type ConnState int32

const (
	StateClosed ConnState = iota
	StateOpening
	StateOpen
	StateClosing
)

func (s ConnState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpening:
		return "opening"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// BroadcastTarget addresses every slot currently in StateOpen.
const BroadcastTarget = -1

// SlotInfo is a point-in-time view of one connection slot.
type SlotInfo struct {
	Index      int
	Generation uint64 // connection identity within the slot
	State      ConnState
	Running    bool
	InUse      bool // a TCP connection is attached
	Pings      uint32
	Pongs      uint32
	Remote     string
}
