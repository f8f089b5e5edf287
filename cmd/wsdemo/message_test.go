package main

import (
	"testing"

	"github.com/momentics/embedded-ws/core/protocol"
)

func TestSensorMessage(t *testing.T) {
	got, err := sensorMessage("counter", 7)
	if err != nil {
		t.Fatalf("sensorMessage: %v", err)
	}
	want := `{"type":"message","data":{"sensor":"counter","value":7}}`
	if string(got) != want {
		t.Errorf("got %s, want %s", got, want)
	}
	if len(got) > protocol.MaxPayloadLen {
		t.Error("sensor message does not fit one frame")
	}
}

func TestDescribe(t *testing.T) {
	cases := map[string]string{
		`{"type":"command","data":{}}`: "json:command",
		`{"data":1}`:                   "text",
		`hello`:                        "text",
	}
	for in, want := range cases {
		if got := describe([]byte(in)); got != want {
			t.Errorf("describe(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOpcodeFor(t *testing.T) {
	if opcodeFor(true) != protocol.OpcodeText || opcodeFor(false) != protocol.OpcodeBinary {
		t.Error("opcode mapping")
	}
}
