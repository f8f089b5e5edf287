// File: server/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"log/slog"
	"time"

	"github.com/momentics/embedded-ws/control"
	"github.com/momentics/embedded-ws/pool"
)

// Option customizes server initialization.
type Option func(*Server)

// WithLogger sets the structured logger. Nil keeps slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithControl shares an existing control surface instead of a private one.
func WithControl(c *control.Control) Option {
	return func(s *Server) {
		if c != nil {
			s.ctrl = c
		}
	}
}

// WithBufferPool overrides the payload buffer pool.
func WithBufferPool(p *pool.BytePool) Option {
	return func(s *Server) {
		if p != nil {
			s.pool = p
		}
	}
}

// WithCloseTimeout overrides Config.CloseTimeout.
func WithCloseTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.cfg.CloseTimeout = d
	}
}

// WithMaxConnections overrides Config.MaxConnections.
func WithMaxConnections(n int) Option {
	return func(s *Server) {
		s.cfg.MaxConnections = n
	}
}
