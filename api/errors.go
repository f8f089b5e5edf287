// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for embedded-ws.

package api

import (
	"errors"
	"fmt"
)

// Common errors used across the library.
var (
	ErrTransportClosed   = errors.New("transport is closed")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrResourceExhausted = errors.New("resource exhausted")
	ErrOperationTimeout  = errors.New("operation timeout")
	ErrServerRunning     = errors.New("server already running")
	ErrServerStopped     = errors.New("server stopped")
)

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeTransport ErrorCode = iota + 1 // socket read or write failed
	ErrCodeProtocol                       // peer violated the framing rules
)

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = msg + ": " + e.Cause.Error()
	}
	if len(e.Context) == 0 {
		return msg
	}
	return fmt.Sprintf("%s (context: %+v)", msg, e.Context)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// TransportError wraps a read/write failure on a connection slot.
func TransportError(op string, slot int, cause error) *Error {
	e := NewError(ErrCodeTransport, op)
	e.Cause = cause
	return e.WithContext("slot", slot)
}

// ProtocolError wraps a framing violation that ends in a close handshake.
func ProtocolError(slot int, cause error) *Error {
	e := NewError(ErrCodeProtocol, "protocol")
	e.Cause = cause
	return e.WithContext("slot", slot)
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}
