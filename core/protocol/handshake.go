// File: core/protocol/handshake.go
// Package protocol implements the server side of the RFC 6455 opening handshake.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Validates a raw HTTP/1.1 upgrade request, derives Sec-WebSocket-Accept and
// renders the 101 response the send worker writes unframed.

package protocol

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

// Constants used for handshake processing.
const (
	WebSocketGUID            = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"
	HeaderConnection         = "Connection"
	HeaderUpgrade            = "Upgrade"
	HeaderSecWebSocketKey    = "Sec-WebSocket-Key"
	HeaderSecWebSocketVer    = "Sec-WebSocket-Version"
	RequiredWebSocketVersion = "13"
	MaxHandshakeSize         = 2048

	// BusyResponse is written to connections that find no free slot.
	BusyResponse = "HTTP/1.1 503 Service Unavailable\r\n\r\n"

	switchingProtocols = "HTTP/1.1 101 Switching Protocols\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Accept: "
)

var headerTerminator = []byte("\r\n\r\n")

// RequestComplete returns the length of the HTTP request head in raw
// (through the blank line), or -1 if the head has not fully arrived.
func RequestComplete(raw []byte) int {
	i := bytes.Index(raw, headerTerminator)
	if i < 0 {
		return -1
	}
	return i + len(headerTerminator)
}

// IsUpgradeLine reports whether raw starts with "GET <path>" followed by a
// space or a query string. Anything else is not worth parsing further.
func IsUpgradeLine(raw []byte, path string) bool {
	prefix := "GET " + path
	if !bytes.HasPrefix(raw, []byte(prefix)) || len(raw) == len(prefix) {
		return false
	}
	next := raw[len(prefix)]
	return next == ' ' || next == '?'
}

// ParseUpgrade validates the request head in raw against path and returns
// the client's Sec-WebSocket-Key. All failures wrap ErrBadHandshake.
func ParseUpgrade(raw []byte, path string) (string, error) {
	req, err := http.ReadRequest(bufio.NewReader(bytes.NewReader(raw)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadHandshake, err)
	}
	if req.Method != http.MethodGet {
		return "", fmt.Errorf("%w: method %s", ErrBadHandshake, req.Method)
	}
	if req.URL.Path != path {
		return "", fmt.Errorf("%w: path %q", ErrBadHandshake, req.URL.Path)
	}
	if !req.ProtoAtLeast(1, 1) {
		return "", fmt.Errorf("%w: protocol %s", ErrBadHandshake, req.Proto)
	}
	if !headerContainsToken(req.Header, HeaderUpgrade, "websocket") {
		return "", fmt.Errorf("%w: missing Upgrade: websocket", ErrBadHandshake)
	}
	if !headerContainsToken(req.Header, HeaderConnection, "Upgrade") {
		return "", fmt.Errorf("%w: missing Connection: Upgrade", ErrBadHandshake)
	}
	if v := req.Header.Get(HeaderSecWebSocketVer); v != RequiredWebSocketVersion {
		return "", fmt.Errorf("%w: version %q", ErrBadHandshake, v)
	}
	key := strings.TrimSpace(req.Header.Get(HeaderSecWebSocketKey))
	if key == "" {
		return "", fmt.Errorf("%w: missing %s", ErrBadHandshake, HeaderSecWebSocketKey)
	}
	return key, nil
}

// AcceptKey computes base64(SHA-1(key + GUID)).
func AcceptKey(key string) string {
	h := sha1.New()
	h.Write([]byte(key))
	h.Write([]byte(WebSocketGUID))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// AppendHandshakeResponse appends the 101 response for key to dst.
func AppendHandshakeResponse(dst []byte, key string) []byte {
	dst = append(dst, switchingProtocols...)
	dst = append(dst, AcceptKey(key)...)
	return append(dst, "\r\n\r\n"...)
}

// headerContainsToken checks if headerName contains the given token (case-insensitive).
func headerContainsToken(h http.Header, headerName, token string) bool {
	for _, v := range h.Values(headerName) {
		for _, part := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(part), token) {
				return true
			}
		}
	}
	return false
}
