// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake implementations for testing and development.
// Conn is a scripted net.Conn: every queued chunk is returned by exactly one
// Read, which lets tests control read boundaries precisely.

package fake

import (
	"bytes"
	"io"
	"net"
	"os"
	"sync"
	"time"
)

// Conn is a fake net.Conn driven by the test.
type Conn struct {
	reads chan []byte

	mu      sync.Mutex
	written bytes.Buffer
	writes  int
	closed  bool
	done    chan struct{}
	wrote   chan struct{}
	failErr error

	readDeadline time.Time
}

// NewConn creates a Conn that can buffer up to depth pending chunks.
func NewConn(depth int) *Conn {
	return &Conn{
		reads: make(chan []byte, depth),
		done:  make(chan struct{}),
		wrote: make(chan struct{}, 1),
	}
}

// Feed queues one chunk for a future Read.
func (c *Conn) Feed(chunk []byte) {
	c.reads <- append([]byte(nil), chunk...)
}

// FailWrites makes every later Write return err.
func (c *Conn) FailWrites(err error) {
	c.mu.Lock()
	c.failErr = err
	c.mu.Unlock()
}

// Read returns the next fed chunk whole, io.EOF once closed, or
// os.ErrDeadlineExceeded when the read deadline passes first.
func (c *Conn) Read(p []byte) (int, error) {
	c.mu.Lock()
	deadline := c.readDeadline
	c.mu.Unlock()

	var expired <-chan time.Time
	if !deadline.IsZero() {
		d := time.Until(deadline)
		if d <= 0 {
			return 0, os.ErrDeadlineExceeded
		}
		t := time.NewTimer(d)
		defer t.Stop()
		expired = t.C
	}
	select {
	case chunk := <-c.reads:
		return copy(p, chunk), nil
	case <-c.done:
		return 0, io.EOF
	case <-expired:
		return 0, os.ErrDeadlineExceeded
	}
}

// Write records p.
func (c *Conn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, net.ErrClosed
	}
	if c.failErr != nil {
		return 0, c.failErr
	}
	c.written.Write(p)
	c.writes++
	select {
	case c.wrote <- struct{}{}:
	default:
	}
	return len(p), nil
}

// Written returns a copy of everything written so far.
func (c *Conn) Written() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.written.Bytes()...)
}

// Writes returns the number of successful Write calls.
func (c *Conn) Writes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

// WaitWritten blocks until at least n bytes were written or d elapses.
func (c *Conn) WaitWritten(n int, d time.Duration) bool {
	deadline := time.After(d)
	for {
		c.mu.Lock()
		have := c.written.Len()
		c.mu.Unlock()
		if have >= n {
			return true
		}
		select {
		case <-c.wrote:
		case <-deadline:
			return false
		}
	}
}

// Close unblocks pending reads.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.done)
	}
	return nil
}

// Closed reports whether Close was called.
func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Conn) LocalAddr() net.Addr  { return fakeAddr("fake-local") }
func (c *Conn) RemoteAddr() net.Addr { return fakeAddr("fake-remote") }

// SetDeadline only affects reads; writes never block.
func (c *Conn) SetDeadline(t time.Time) error { return c.SetReadDeadline(t) }

// SetReadDeadline applies to Reads started after the call.
func (c *Conn) SetReadDeadline(t time.Time) error {
	c.mu.Lock()
	c.readDeadline = t
	c.mu.Unlock()
	return nil
}

func (c *Conn) SetWriteDeadline(time.Time) error { return nil }

type fakeAddr string

func (a fakeAddr) Network() string { return "fake" }
func (a fakeAddr) String() string  { return string(a) }
