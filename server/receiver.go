// File: server/receiver.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Receive worker: one goroutine per connection slot. Before the upgrade it
// accumulates the HTTP request; afterwards every read belongs to one frame.

package server

import (
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/momentics/embedded-ws/api"
	"github.com/momentics/embedded-ws/core/protocol"
	"github.com/momentics/embedded-ws/internal/session"
)

const readBufferSize = protocol.MaxHandshakeSize

type receiver struct {
	srv  *Server
	slot *session.Slot
	conn net.Conn
	gen  uint64
	log  *slog.Logger

	request []byte
	asm     *assembler
}

func (s *Server) receive(slot *session.Slot, conn net.Conn) {
	defer s.workers.Done()
	r := &receiver{
		srv:  s,
		slot: slot,
		conn: conn,
		gen:  slot.Generation(),
		log:  s.log.With("slot", slot.Index()),
		asm:  newAssembler(s.pool),
	}
	r.run()
}

func (r *receiver) run() {
	defer r.finish()
	if d := r.srv.cfg.HandshakeTimeout; d > 0 {
		r.conn.SetReadDeadline(time.Now().Add(d))
	}
	buf := make([]byte, readBufferSize)
	for r.slot.Running() {
		n, err := r.conn.Read(buf)
		if n > 0 {
			r.handle(buf[:n])
		}
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) && r.slot.State() == api.StateClosed {
				r.srv.ctrl.Metrics().Add("handshake.timeout", 1)
				r.log.Warn("no upgrade request in time", "after", r.srv.cfg.HandshakeTimeout)
				return
			}
			if r.slot.Running() && !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				r.srv.ctrl.Metrics().Add("errors.read", 1)
				r.log.Warn("read failed", "err", api.TransportError("read", r.slot.Index(), err))
			}
			return
		}
	}
}

// finish releases everything the worker owns. It runs on every exit path.
func (r *receiver) finish() {
	if r.asm.pending() {
		r.log.Debug("dropping partial frame")
	}
	r.asm.reset()
	state := r.slot.State()
	r.slot.Release()
	r.srv.ctrl.Metrics().Add("conn.closed", 1)
	r.log.Info("connection closed", "state", state.String())
}

func (r *receiver) handle(data []byte) {
	switch r.slot.State() {
	case api.StateClosed:
		r.handshake(data)
	case api.StateOpening:
		if !r.awaitOpen() {
			r.log.Warn("frame before handshake completed, dropped", "bytes", len(data))
			return
		}
		r.frames(data)
	case api.StateOpen, api.StateClosing:
		r.frames(data)
	}
}

// awaitOpen waits, bounded by the close timeout, for the send worker to
// confirm the handshake response.
func (r *receiver) awaitOpen() bool {
	t := time.NewTimer(r.srv.cfg.CloseTimeout)
	defer t.Stop()
	select {
	case <-r.slot.Opened():
		return true
	case <-r.srv.ctx.Done():
		return false
	case <-t.C:
		return false
	}
}

func (r *receiver) handshake(data []byte) {
	path := r.srv.cfg.Path
	if len(r.request)+len(data) > protocol.MaxHandshakeSize {
		r.reject("request too large", nil)
		return
	}
	r.request = append(r.request, data...)
	if len(r.request) > len("GET "+path) && !protocol.IsUpgradeLine(r.request, path) {
		r.reject("not an upgrade request", nil)
		return
	}
	end := protocol.RequestComplete(r.request)
	if end < 0 {
		return
	}
	key, err := protocol.ParseUpgrade(r.request[:end], path)
	if err != nil {
		r.reject("bad handshake", err)
		return
	}
	rest := r.request[end:]
	r.request = nil

	resp := protocol.AppendHandshakeResponse(make([]byte, 0, 160), key)
	it := &api.Item{
		Payload:    r.srv.pool.Copy(resp),
		Target:     r.slot.Index(),
		Generation: r.gen,
		Raw:        true,
	}
	r.slot.SetState(api.StateOpening)
	if err := r.srv.outbound.Push(r.srv.ctx, it); err != nil {
		it.Release()
		r.slot.Stop()
		return
	}
	if r.srv.cfg.HandshakeTimeout > 0 {
		r.conn.SetReadDeadline(time.Time{})
	}
	r.srv.ctrl.Metrics().Add("handshake.ok", 1)
	r.log.Debug("handshake accepted")

	if len(rest) > 0 {
		r.handle(rest)
	}
}

// reject stops the worker without a close handshake.
func (r *receiver) reject(reason string, err error) {
	r.srv.ctrl.Metrics().Add("handshake.rejected", 1)
	if err != nil {
		r.log.Warn(reason, "err", err)
	} else {
		r.log.Warn(reason)
	}
	r.request = nil
	r.slot.Stop()
}

func (r *receiver) frames(data []byte) {
	f, ok, err := r.asm.feed(data)
	if err != nil {
		r.fail(err)
		return
	}
	if ok {
		r.dispatch(f)
	}
}

func (r *receiver) dispatch(f frame) {
	metrics := r.srv.ctrl.Metrics()
	metrics.Add("frames.in", 1)
	r.log.Debug("frame", "opcode", protocol.OpcodeName(f.hdr.Opcode), "len", f.hdr.Length)

	switch f.hdr.Opcode {
	case protocol.OpcodeText, protocol.OpcodeBinary:
		it := &api.Item{
			Payload:    f.payload,
			Target:     r.slot.Index(),
			Generation: r.gen,
			Opcode:     f.hdr.Opcode,
			Text:       f.hdr.Opcode == protocol.OpcodeText,
		}
		if err := r.srv.inbound.Push(r.srv.ctx, it); err != nil {
			it.Release()
			return
		}
		metrics.Add("messages.in", 1)

	case protocol.OpcodeClose:
		code := uint16(protocol.CloseNormalClosure)
		if f.payload.Len() >= 2 {
			code = binary.BigEndian.Uint16(f.payload.Bytes())
		}
		f.payload.Release()
		r.peerClose(code)

	case protocol.OpcodePing:
		r.slot.IncPings()
		pong := &api.Item{
			Payload:    f.payload,
			Target:     r.slot.Index(),
			Generation: r.gen,
			Opcode:     protocol.OpcodePong,
		}
		if err := r.srv.outbound.Push(r.srv.ctx, pong); err != nil {
			pong.Release()
		}

	case protocol.OpcodePong:
		r.slot.IncPongs()
		f.payload.Release()

	default:
		f.payload.Release()
		r.fail(protocol.ErrInvalidOpcode)
	}
}
