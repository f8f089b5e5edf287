// File: server/closer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Close handshake. The receive worker moves OPEN -> CLOSING, queues a close
// frame and arms the slot timer; either the peer's close echo or the timer
// ends the connection.

package server

import (
	"encoding/binary"

	"github.com/momentics/embedded-ws/api"
	"github.com/momentics/embedded-ws/core/protocol"
)

// peerClose handles a close frame from the peer.
func (r *receiver) peerClose(code uint16) {
	if r.slot.State() == api.StateClosing {
		r.log.Info("close handshake complete", "code", code)
		r.srv.ctrl.Metrics().Add("close.graceful", 1)
		r.slot.Stop()
		return
	}
	r.log.Info("peer requested close", "code", code)
	r.beginClose(code)
}

// fail degrades a protocol error into the close handshake. A second error
// while already closing just stops the worker.
func (r *receiver) fail(err error) {
	code := protocol.CloseCodeFor(err)
	r.srv.ctrl.Metrics().Add("errors.protocol", 1)
	r.log.Warn("protocol error", "err", api.ProtocolError(r.slot.Index(), err).WithContext("close_code", code))
	if r.slot.State() == api.StateClosing {
		r.slot.Stop()
		return
	}
	r.asm.reset()
	r.beginClose(code)
}

func (r *receiver) beginClose(code uint16) {
	r.slot.SetState(api.StateClosing)
	if err := r.queueClose(code); err != nil {
		r.slot.Stop()
		return
	}
	r.slot.ArmTimer(r.srv.cfg.CloseTimeout, func() {
		r.srv.ctrl.Metrics().Add("close.timeout", 1)
		r.log.Warn("close timeout, forcing connection closed", "after", r.srv.cfg.CloseTimeout)
	})
}

func (r *receiver) queueClose(code uint16) error {
	var status [2]byte
	binary.BigEndian.PutUint16(status[:], code)
	it := &api.Item{
		Payload:    r.srv.pool.Copy(status[:]),
		Target:     r.slot.Index(),
		Generation: r.gen,
		Opcode:     protocol.OpcodeClose,
	}
	if err := r.srv.outbound.Push(r.srv.ctx, it); err != nil {
		it.Release()
		return err
	}
	return nil
}
