// File: internal/transport/listener.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
)

// ErrListenerClosed is returned by Accept when the listener has been closed.
var ErrListenerClosed = errors.New("listener closed")

// Options tunes the listening socket and accepted connections.
type Options struct {
	// SocketBufferSize caps SO_RCVBUF/SO_SNDBUF of accepted connections.
	// Zero keeps the OS defaults.
	SocketBufferSize int
}

// Listener accepts raw TCP connections.
type Listener struct {
	ln   net.Listener
	opts Options
}

// Listen binds host:port. Port 0 picks an ephemeral port.
func Listen(ctx context.Context, host string, port uint16, opts Options) (*Listener, error) {
	lc := net.ListenConfig{Control: controlListener}
	addr := net.JoinHostPort(host, strconv.Itoa(int(port)))
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	return &Listener{ln: ln, opts: opts}, nil
}

// Accept waits for the next connection and applies the socket options.
func (l *Listener) Accept() (net.Conn, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		if errors.Is(err, net.ErrClosed) {
			return nil, ErrListenerClosed
		}
		return nil, fmt.Errorf("accept connection: %w", err)
	}
	if l.opts.SocketBufferSize > 0 {
		if tc, ok := conn.(*net.TCPConn); ok {
			if err := setSocketBuffers(tc, l.opts.SocketBufferSize); err != nil {
				conn.Close()
				return nil, fmt.Errorf("socket buffers: %w", err)
			}
		}
	}
	return conn, nil
}

// Close shuts down the listener; a blocked Accept returns ErrListenerClosed.
func (l *Listener) Close() error {
	return l.ln.Close()
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}
