// File: server/sender.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Send worker: the only goroutine that writes to client sockets. There is
// exactly one, so the frame scratch buffer needs no locking.

package server

import (
	"time"

	"github.com/momentics/embedded-ws/api"
	"github.com/momentics/embedded-ws/core/protocol"
	"github.com/momentics/embedded-ws/internal/session"
)

type sender struct {
	srv     *Server
	scratch []byte
}

func newSender(s *Server) *sender {
	return &sender{
		srv:     s,
		scratch: make([]byte, 0, protocol.MaxPayloadLen+protocol.MaxServerHeaderLen),
	}
}

func (s *Server) sendLoop() {
	defer s.workers.Done()
	w := newSender(s)
	for {
		it, err := s.outbound.Pop(s.ctx)
		if err != nil {
			return
		}
		w.dispatch(it)
	}
}

// dispatch writes one item and always releases its payload.
func (w *sender) dispatch(it *api.Item) {
	defer it.Release()

	wire := it.Bytes()
	if !it.Raw {
		frame, err := protocol.AppendFrame(w.scratch[:0], it.Opcode, wire)
		if err != nil {
			w.srv.ctrl.Metrics().Add("errors.encode", 1)
			w.srv.log.Warn("cannot frame payload", "slot", it.Target, "len", it.Len(), "err", err)
			return
		}
		wire = frame
	}

	if it.Target == api.BroadcastTarget {
		w.srv.table.Range(func(slot *session.Slot) {
			if slot.State() == api.StateOpen {
				w.write(slot, 0, wire)
			}
		})
		return
	}

	slot := w.srv.table.Get(it.Target)
	if slot == nil {
		w.srv.log.Warn("no such slot", "slot", it.Target)
		return
	}
	if it.Generation != 0 && it.Generation != slot.Generation() {
		w.srv.ctrl.Metrics().Add("frames.stale", 1)
		w.srv.log.Debug("connection replaced, dropped", "slot", it.Target, "gen", it.Generation)
		return
	}
	switch st := slot.State(); {
	case st == api.StateOpen, st == api.StateClosing:
	case st == api.StateOpening && it.Raw && it.Generation != 0:
		// only the connection's own handshake response
	default:
		w.srv.log.Debug("target not connected, dropped", "slot", it.Target, "state", st.String())
		return
	}
	if w.write(slot, it.Generation, wire) == nil && it.Raw && it.Generation != 0 && slot.MarkOpen(it.Generation) {
		w.srv.log.Debug("connection open", "slot", slot.Index())
	}
}

// write sends wire to one slot, provided it still holds connection gen.
// Failures are logged and returned but never abort a broadcast.
func (w *sender) write(slot *session.Slot, gen uint64, wire []byte) error {
	conn := slot.ConnFor(gen)
	if conn == nil {
		return api.ErrTransportClosed
	}
	if d := w.srv.cfg.WriteTimeout; d > 0 {
		conn.SetWriteDeadline(time.Now().Add(d))
	}
	if _, err := conn.Write(wire); err != nil {
		e := api.TransportError("write", slot.Index(), err).WithContext("bytes", len(wire))
		w.srv.ctrl.Metrics().Add("errors.write", 1)
		w.srv.log.Warn("write failed", "slot", slot.Index(), "err", e)
		return e
	}
	w.srv.ctrl.Metrics().Add("frames.out", 1)
	return nil
}
