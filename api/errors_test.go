package api_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/momentics/embedded-ws/api"
)

func TestTransportErrorWrapsCause(t *testing.T) {
	err := api.TransportError("write", 3, io.ErrClosedPipe).WithContext("bytes", 12)
	if err.Code != api.ErrCodeTransport {
		t.Errorf("code = %d", err.Code)
	}
	if !errors.Is(err, io.ErrClosedPipe) {
		t.Error("cause not reachable through errors.Is")
	}
	msg := err.Error()
	if !strings.HasPrefix(msg, "write: io: read/write on closed pipe") || !strings.Contains(msg, "slot:3") {
		t.Errorf("message = %q", msg)
	}
}

func TestProtocolErrorCarriesSlot(t *testing.T) {
	cause := errors.New("bad frame")
	err := api.ProtocolError(1, cause)
	var coded *api.Error
	if !errors.As(error(err), &coded) || coded.Code != api.ErrCodeProtocol {
		t.Fatalf("errors.As = %+v", coded)
	}
	if coded.Context["slot"] != 1 {
		t.Errorf("context = %v", coded.Context)
	}
	if !errors.Is(err, cause) {
		t.Error("cause lost")
	}
}
