// File: server/listener.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Accept loop: claims a slot per connection or turns the client away with
// a 503 when the table is full.

package server

import (
	"errors"
	"net"
	"time"

	"github.com/momentics/embedded-ws/core/protocol"
	"github.com/momentics/embedded-ws/internal/transport"
)

const (
	acceptRetryDelay = 50 * time.Millisecond
	busyWriteTimeout = time.Second
)

var busyResponse = []byte(protocol.BusyResponse)

func (s *Server) acceptLoop(ln *transport.Listener) {
	defer s.acceptWG.Done()
	metrics := s.ctrl.Metrics()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, transport.ErrListenerClosed) {
				return
			}
			metrics.Add("errors.accept", 1)
			s.log.Warn("accept failed", "err", err)
			time.Sleep(acceptRetryDelay)
			continue
		}

		slot, err := s.table.Claim(conn)
		if err != nil {
			metrics.Add("conn.rejected", 1)
			s.log.Warn("no free slot, rejecting", "remote", conn.RemoteAddr().String())
			rejectBusy(conn)
			continue
		}
		metrics.Add("conn.accepted", 1)
		s.log.Info("connection accepted", "slot", slot.Index(), "remote", conn.RemoteAddr().String())

		s.workers.Add(1)
		go s.receive(slot, conn)
	}
}

func rejectBusy(conn net.Conn) {
	conn.SetWriteDeadline(time.Now().Add(busyWriteTimeout))
	conn.Write(busyResponse)
	conn.Close()
}
