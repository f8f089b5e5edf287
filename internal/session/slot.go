// File: internal/session/slot.go
// Package session
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Per-connection slot state: protocol state, run flag, keep-alive counters,
// the owned TCP connection and its close-timeout timer.

package session

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/momentics/embedded-ws/api"
)

// Slot is one entry of the connection table.
type Slot struct {
	index int

	gen     atomic.Uint64 // bumped on every claim, never 0 once claimed
	state   atomic.Int32
	running atomic.Bool
	pings   atomic.Uint32
	pongs   atomic.Uint32

	// mu guards the handle fields below; conn == nil means the slot is free.
	mu     sync.Mutex
	conn   net.Conn
	timer  *time.Timer
	remote string
	opened chan struct{}
	done   chan struct{}
}

func newSlot(index int) *Slot {
	s := &Slot{index: index}
	s.opened = make(chan struct{})
	s.done = make(chan struct{})
	close(s.done)
	return s
}

// claim attaches conn and resets the slot. Caller holds the table lock.
func (s *Slot) claim(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return false
	}
	s.conn = conn
	s.gen.Add(1)
	s.remote = ""
	if ra := conn.RemoteAddr(); ra != nil {
		s.remote = ra.String()
	}
	s.timer = nil
	s.opened = make(chan struct{})
	s.done = make(chan struct{})
	s.pings.Store(0)
	s.pongs.Store(0)
	s.state.Store(int32(api.StateClosed))
	s.running.Store(true)
	return true
}

// Index returns the immutable slot position.
func (s *Slot) Index() int {
	return s.index
}

// State returns the protocol state.
func (s *Slot) State() api.ConnState {
	return api.ConnState(s.state.Load())
}

// SetState stores a new protocol state.
func (s *Slot) SetState(st api.ConnState) {
	s.state.Store(int32(st))
}

// Generation identifies the connection currently attached. Items stamped
// with an older generation belong to a connection that is gone.
func (s *Slot) Generation() uint64 {
	return s.gen.Load()
}

// MarkOpen confirms the handshake write of connection gen: OPENING -> OPEN.
// Receivers waiting on Opened are released.
func (s *Slot) MarkOpen(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil || gen != s.gen.Load() {
		return false
	}
	if !s.state.CompareAndSwap(int32(api.StateOpening), int32(api.StateOpen)) {
		return false
	}
	close(s.opened)
	return true
}

// Opened is closed once the handshake response has been written.
func (s *Slot) Opened() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened
}

// Running reports the run flag.
func (s *Slot) Running() bool {
	return s.running.Load()
}

// Stop clears the run flag; the receive worker exits after its current read.
func (s *Slot) Stop() {
	s.running.Store(false)
}

// Conn returns the attached connection or nil.
func (s *Slot) Conn() net.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

// ConnFor returns the attached connection when it is still connection gen.
// Zero matches any attached connection.
func (s *Slot) ConnFor(gen uint64) net.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != 0 && gen != s.gen.Load() {
		return nil
	}
	return s.conn
}

// InUse reports whether a connection is attached.
func (s *Slot) InUse() bool {
	return s.Conn() != nil
}

// IncPings bumps the ping counter and returns the new value.
func (s *Slot) IncPings() uint32 { return s.pings.Add(1) }

// IncPongs bumps the pong counter and returns the new value.
func (s *Slot) IncPongs() uint32 { return s.pongs.Add(1) }

// Pings returns the number of pings received on the current connection.
func (s *Slot) Pings() uint32 { return s.pings.Load() }

// Pongs returns the number of pongs received on the current connection.
func (s *Slot) Pongs() uint32 { return s.pongs.Load() }

// ArmTimer starts the one-shot close timer. When it fires while the same
// connection is still attached, the slot is force-closed and fired is
// called. A slot owns at most one timer; if one is already pending the
// call is a no-op and returns false.
func (s *Slot) ArmTimer(d time.Duration, fired func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil || s.timer != nil {
		return false
	}
	conn := s.conn
	s.timer = time.AfterFunc(d, func() {
		if s.closeIfAttached(conn) && fired != nil {
			fired()
		}
	})
	return true
}

// closeIfAttached force-closes conn unless the slot has moved on to
// another connection.
func (s *Slot) closeIfAttached(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != conn {
		return false
	}
	s.running.Store(false)
	conn.Close()
	return true
}

// TimerPending reports whether a close timer is armed.
func (s *Slot) TimerPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// ForceClose clears the run flag and shuts the socket, which unblocks a
// pending read in the receive worker. The slot itself is released by the
// worker on its way out.
func (s *Slot) ForceClose() error {
	s.Stop()
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

// Release tears the slot down after its receive worker finished: the timer
// is stopped, the socket closed, state reset to CLOSED and the connection
// handle cleared last so the listener never reuses a half-released slot.
func (s *Slot) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.conn != nil {
		s.conn.Close()
	}
	s.state.Store(int32(api.StateClosed))
	s.running.Store(false)
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	s.conn = nil
}

// Done is closed when the slot's receive worker has released it.
func (s *Slot) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Info snapshots the slot.
func (s *Slot) Info() api.SlotInfo {
	s.mu.Lock()
	inUse, remote := s.conn != nil, s.remote
	s.mu.Unlock()
	return api.SlotInfo{
		Index:      s.index,
		Generation: s.Generation(),
		State:      s.State(),
		Running:    s.Running(),
		InUse:      inUse,
		Pings:      s.Pings(),
		Pongs:      s.Pongs(),
		Remote:     remote,
	}
}
