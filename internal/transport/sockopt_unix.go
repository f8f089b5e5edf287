//go:build unix

// File: internal/transport/sockopt_unix.go
// Author: momentics <momentics@gmail.com>
//
// Socket options through golang.org/x/sys/unix.

package transport

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// controlListener enables SO_REUSEADDR before bind.
func controlListener(_, _ string, c syscall.RawConn) error {
	var serr error
	err := c.Control(func(fd uintptr) {
		serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return serr
}

func setSocketBuffers(tc *net.TCPConn, size int) error {
	raw, err := tc.SyscallConn()
	if err != nil {
		return err
	}
	var serr error
	err = raw.Control(func(fd uintptr) {
		if serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, size); serr != nil {
			return
		}
		serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF, size)
	})
	if err != nil {
		return err
	}
	return serr
}

// socketBuffers reports the kernel's effective SO_RCVBUF and SO_SNDBUF.
func socketBuffers(tc *net.TCPConn) (rcv, snd int, err error) {
	raw, err := tc.SyscallConn()
	if err != nil {
		return 0, 0, err
	}
	var serr error
	err = raw.Control(func(fd uintptr) {
		if rcv, serr = unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF); serr != nil {
			return
		}
		snd, serr = unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF)
	})
	if err != nil {
		return 0, 0, err
	}
	return rcv, snd, serr
}

// reuseAddrEnabled reports whether SO_REUSEADDR is set on the listener.
func reuseAddrEnabled(l *Listener) (bool, error) {
	tl, ok := l.ln.(*net.TCPListener)
	if !ok {
		return false, nil
	}
	raw, err := tl.SyscallConn()
	if err != nil {
		return false, err
	}
	var v int
	var serr error
	err = raw.Control(func(fd uintptr) {
		v, serr = unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR)
	})
	if err != nil {
		return false, err
	}
	return v != 0, serr
}
