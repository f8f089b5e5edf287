// File: server/server.go
// Package server
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Server ties the connection table, the two bounded queues, the listener and
// the send worker into one lifecycle object.

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/momentics/embedded-ws/api"
	"github.com/momentics/embedded-ws/control"
	"github.com/momentics/embedded-ws/core/concurrency"
	"github.com/momentics/embedded-ws/core/protocol"
	"github.com/momentics/embedded-ws/internal/session"
	"github.com/momentics/embedded-ws/internal/transport"
	"github.com/momentics/embedded-ws/pool"
)

type runState int

const (
	stateNew runState = iota
	stateRunning
	stateShutdown // listener stopped, connections still served
	stateClosed
)

// Server is an embedded WebSocket server with a fixed connection table.
type Server struct {
	cfg  *Config
	log  *slog.Logger
	ctrl *control.Control
	pool *pool.BytePool

	table    *session.Table
	inbound  *concurrency.BoundedQueue[*api.Item]
	outbound *concurrency.BoundedQueue[*api.Item]

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	state    runState
	listener *transport.Listener

	acceptWG sync.WaitGroup // listener goroutine
	workers  sync.WaitGroup // send worker and receive workers
}

// NewServer allocates the table, queues and buffer pool. Nothing is bound
// until Start.
func NewServer(cfg *Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := *cfg
	s := &Server{
		cfg: &c,
		log: slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	if err := s.cfg.validate(); err != nil {
		return nil, err
	}
	if s.ctrl == nil {
		s.ctrl = control.New()
	}
	if s.pool == nil {
		s.pool = pool.NewBytePool(protocol.MaxPayloadLen)
	}

	var err error
	if s.table, err = session.NewTable(s.cfg.MaxConnections); err != nil {
		return nil, err
	}
	if s.inbound, err = concurrency.NewBoundedQueue[*api.Item](s.cfg.InboundQueueSize); err != nil {
		return nil, fmt.Errorf("inbound queue: %w", err)
	}
	if s.outbound, err = concurrency.NewBoundedQueue[*api.Item](s.cfg.OutboundQueueSize); err != nil {
		return nil, fmt.Errorf("outbound queue: %w", err)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.registerProbes()
	return s, nil
}

// Init creates and starts a server in one step.
func Init(cfg *Config, opts ...Option) (*Server, error) {
	s, err := NewServer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	if err := s.Start(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Start binds the listening socket and launches the listener and the send
// worker.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case stateRunning, stateShutdown:
		return api.ErrServerRunning
	case stateClosed:
		return api.ErrServerStopped
	}

	ln, err := transport.Listen(s.ctx, s.cfg.Host, s.cfg.Port, transport.Options{
		SocketBufferSize: s.cfg.SocketBufferSize,
	})
	if err != nil {
		return api.TransportError("listen", -1, err).WithContext("port", s.cfg.Port)
	}
	s.listener = ln
	s.state = stateRunning

	s.workers.Add(1)
	go s.sendLoop()
	s.acceptWG.Add(1)
	go s.acceptLoop(ln)

	s.ctrl.SetConfig(s.cfg.values())
	s.log.Info("websocket server started", "addr", ln.Addr().String(), "path", s.cfg.Path,
		"slots", s.cfg.MaxConnections)
	return nil
}

// Shutdown closes the listening endpoint and waits for the listener to
// exit. Connections that are already open keep being served; use Close to
// tear them down as well.
func (s *Server) Shutdown() error {
	s.mu.Lock()
	if s.state != stateRunning {
		s.mu.Unlock()
		return nil
	}
	s.state = stateShutdown
	err := s.listener.Close()
	s.mu.Unlock()

	s.acceptWG.Wait()
	s.log.Info("listener stopped", "active", s.table.Active())
	return err
}

// Close stops accepting, force-closes every slot, stops the send worker and
// waits for all workers. Items still queued are released.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.state == stateClosed {
		s.mu.Unlock()
		return nil
	}
	prev := s.state
	s.state = stateClosed
	var err error
	if prev == stateRunning {
		err = s.listener.Close()
	}
	s.mu.Unlock()

	s.acceptWG.Wait()
	s.cancel()
	s.table.Range(func(slot *session.Slot) {
		slot.ForceClose()
	})
	s.workers.Wait()

	drain(s.outbound)
	drain(s.inbound)
	s.log.Info("websocket server closed")
	return err
}

func drain(q *concurrency.BoundedQueue[*api.Item]) {
	for {
		it, ok := q.TryPop()
		if !ok {
			return
		}
		it.Release()
	}
}

// Addr returns the bound listening address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Config returns a copy of the effective configuration.
func (s *Server) Config() Config {
	return *s.cfg
}

// Send enqueues an outbound item, waiting at most timeout for queue space.
// A zero timeout never waits. On success the server owns item's payload;
// on error the caller still does.
func (s *Server) Send(it *api.Item, timeout time.Duration) error {
	if err := s.checkItem(it); err != nil {
		return err
	}
	if err := s.outbound.PushTimeout(it, timeout); err != nil {
		s.ctrl.Metrics().Add("queue.outbound.rejected", 1)
		return fmt.Errorf("%w: outbound queue: %w", api.ErrOperationTimeout, err)
	}
	return nil
}

// SendContext enqueues an outbound item, blocking until there is room or
// ctx is done. Ownership follows the same rules as Send.
func (s *Server) SendContext(ctx context.Context, it *api.Item) error {
	if err := s.checkItem(it); err != nil {
		return err
	}
	if err := s.outbound.Push(ctx, it); err != nil {
		s.ctrl.Metrics().Add("queue.outbound.rejected", 1)
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: outbound queue: %w", api.ErrOperationTimeout, err)
		}
		return err
	}
	return nil
}

func (s *Server) checkItem(it *api.Item) error {
	if it == nil {
		return fmt.Errorf("%w: nil item", api.ErrInvalidArgument)
	}
	if it.Target < api.BroadcastTarget || it.Target >= s.table.Len() {
		return fmt.Errorf("%w: target %d", api.ErrInvalidArgument, it.Target)
	}
	if !it.Raw && it.Len() > protocol.MaxPayloadLen {
		return fmt.Errorf("%w: %w", api.ErrInvalidArgument, protocol.ErrPayloadTooLarge)
	}
	s.mu.Lock()
	closed := s.state == stateClosed
	s.mu.Unlock()
	if closed {
		return api.ErrServerStopped
	}
	return nil
}

// Broadcast queues text for every open connection, waiting up to
// WriteTimeout for queue space.
func (s *Server) Broadcast(text string) error {
	it := &api.Item{
		Payload: s.pool.Copy([]byte(text)),
		Target:  api.BroadcastTarget,
		Opcode:  protocol.OpcodeText,
	}
	if err := s.Send(it, s.cfg.WriteTimeout); err != nil {
		it.Release()
		return err
	}
	return nil
}

// Inbound exposes the queue of received text and binary messages. The
// consumer releases each item's payload.
func (s *Server) Inbound() *concurrency.BoundedQueue[*api.Item] {
	return s.inbound
}

// Receive pops the next inbound message.
func (s *Server) Receive(ctx context.Context) (*api.Item, error) {
	return s.inbound.Pop(ctx)
}

// Slots returns a snapshot of every connection slot.
func (s *Server) Slots() []api.SlotInfo {
	return s.table.Snapshot()
}

// Stats merges counters, effective config and debug probes.
func (s *Server) Stats() map[string]any {
	return s.ctrl.Stats()
}

// Control exposes the runtime control surface.
func (s *Server) Control() *control.Control {
	return s.ctrl
}

func (s *Server) registerProbes() {
	s.ctrl.RegisterDebugProbe("slots.active", func() any { return s.table.Active() })
	s.ctrl.RegisterDebugProbe("slots.capacity", func() any { return s.table.Len() })
	s.ctrl.RegisterDebugProbe("queue.inbound.len", func() any { return s.inbound.Len() })
	s.ctrl.RegisterDebugProbe("queue.outbound.len", func() any { return s.outbound.Len() })
	s.ctrl.RegisterDebugProbe("pool.in_use", func() any { return s.pool.Stats().InUse })
	s.ctrl.RegisterDebugProbe("pool.double_frees", func() any { return s.pool.Stats().DoubleFrees })
	s.ctrl.RegisterDebugProbe("slots.pings", func() any {
		var n uint32
		s.table.Range(func(sl *session.Slot) { n += sl.Pings() })
		return n
	})
}
