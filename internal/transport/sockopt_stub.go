//go:build !unix

// File: internal/transport/sockopt_stub.go
// Author: momentics <momentics@gmail.com>
//
// Fallback for platforms without golang.org/x/sys/unix.

package transport

import (
	"net"
	"syscall"
)

func controlListener(_, _ string, _ syscall.RawConn) error {
	return nil
}

func setSocketBuffers(tc *net.TCPConn, size int) error {
	if err := tc.SetReadBuffer(size); err != nil {
		return err
	}
	return tc.SetWriteBuffer(size)
}
