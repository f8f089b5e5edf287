// File: server/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/momentics/embedded-ws/api"
)

// Config holds all server-side configuration parameters.
type Config struct {
	Port              uint16        // TCP port, 0 picks an ephemeral one
	Host              string        // bind host, empty = all interfaces
	Path              string        // upgrade request path
	MaxConnections    int           // connection table capacity
	InboundQueueSize  int           // depth of the inbound message queue
	OutboundQueueSize int           // depth of the outbound work queue
	CloseTimeout      time.Duration // wait for the peer's close echo
	WriteTimeout      time.Duration // per-write deadline in the send worker
	HandshakeTimeout  time.Duration // deadline for the upgrade request, 0 = none
	SocketBufferSize  int           // SO_RCVBUF/SO_SNDBUF of accepted conns, 0 = OS default
}

// DefaultConfig returns the embedded defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:              80,
		Path:              "/",
		MaxConnections:    5,
		InboundQueueSize:  10,
		OutboundQueueSize: 10,
		CloseTimeout:      2000 * time.Millisecond,
		WriteTimeout:      5 * time.Second,
		HandshakeTimeout:  5 * time.Second,
	}
}

func (c *Config) validate() error {
	switch {
	case c.MaxConnections <= 0:
		return fmt.Errorf("%w: MaxConnections %d", api.ErrInvalidArgument, c.MaxConnections)
	case c.InboundQueueSize <= 0:
		return fmt.Errorf("%w: InboundQueueSize %d", api.ErrInvalidArgument, c.InboundQueueSize)
	case c.OutboundQueueSize <= 0:
		return fmt.Errorf("%w: OutboundQueueSize %d", api.ErrInvalidArgument, c.OutboundQueueSize)
	case c.CloseTimeout <= 0:
		return fmt.Errorf("%w: CloseTimeout %s", api.ErrInvalidArgument, c.CloseTimeout)
	case c.HandshakeTimeout < 0:
		return fmt.Errorf("%w: HandshakeTimeout %s", api.ErrInvalidArgument, c.HandshakeTimeout)
	case !strings.HasPrefix(c.Path, "/"):
		return fmt.Errorf("%w: Path %q", api.ErrInvalidArgument, c.Path)
	case c.SocketBufferSize < 0:
		return fmt.Errorf("%w: SocketBufferSize %d", api.ErrInvalidArgument, c.SocketBufferSize)
	}
	return nil
}

// values flattens the config for the control registry.
func (c *Config) values() map[string]any {
	return map[string]any{
		"port":                c.Port,
		"host":                c.Host,
		"path":                c.Path,
		"max_connections":     c.MaxConnections,
		"inbound_queue_size":  c.InboundQueueSize,
		"outbound_queue_size": c.OutboundQueueSize,
		"close_timeout":       c.CloseTimeout.String(),
		"write_timeout":       c.WriteTimeout.String(),
		"handshake_timeout":   c.HandshakeTimeout.String(),
		"socket_buffer_size":  c.SocketBufferSize,
	}
}
