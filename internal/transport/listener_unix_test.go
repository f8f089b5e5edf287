//go:build unix

package transport

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"
)

func TestListenerSocketOptions(t *testing.T) {
	l, err := Listen(context.Background(), "127.0.0.1", 0, Options{SocketBufferSize: 8192})
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	on, err := reuseAddrEnabled(l)
	if err != nil {
		t.Fatal(err)
	}
	if !on {
		t.Error("SO_REUSEADDR not set on listener")
	}

	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := l.Accept()
		if err != nil {
			t.Error(err)
			close(accepted)
			return
		}
		accepted <- c
	}()

	client, err := net.Dial("tcp", l.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	select {
	case c, ok := <-accepted:
		if !ok {
			t.Fatal("accept failed")
		}
		defer c.Close()
		rcv, snd, err := socketBuffers(c.(*net.TCPConn))
		if err != nil {
			t.Fatal(err)
		}
		// Linux doubles the requested value; other kernels round it.
		if rcv <= 0 || snd <= 0 || rcv > 4*8192 || snd > 4*8192 {
			t.Errorf("buffers rcv=%d snd=%d not capped near 8192", rcv, snd)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("accept timed out")
	}
}

func TestListenerCloseUnblocksAccept(t *testing.T) {
	l, err := Listen(context.Background(), "127.0.0.1", 0, Options{})
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan error, 1)
	go func() {
		_, err := l.Accept()
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)
	l.Close()
	select {
	case err := <-done:
		if !errors.Is(err, ErrListenerClosed) {
			t.Fatalf("Accept = %v, want ErrListenerClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Accept not unblocked by Close")
	}
}
