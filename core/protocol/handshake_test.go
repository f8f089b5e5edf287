package protocol_test

import (
	"bufio"
	"bytes"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/momentics/embedded-ws/core/protocol"
)

const sampleKey = "dGhlIHNhbXBsZSBub25jZQ=="

func upgradeRequest(path string, extra ...string) []byte {
	lines := []string{
		"GET " + path + " HTTP/1.1",
		"Host: esp32-ws.local:8080",
		"Upgrade: websocket",
		"Connection: Upgrade",
		"Sec-WebSocket-Key: " + sampleKey,
		"Sec-WebSocket-Version: 13",
	}
	lines = append(lines, extra...)
	return []byte(strings.Join(lines, "\r\n") + "\r\n\r\n")
}

func TestAcceptKeyRFCSample(t *testing.T) {
	if got := protocol.AcceptKey(sampleKey); got != "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=" {
		t.Fatalf("AcceptKey = %q", got)
	}
}

func TestParseUpgradeValid(t *testing.T) {
	key, err := protocol.ParseUpgrade(upgradeRequest("/"), "/")
	if err != nil {
		t.Fatal(err)
	}
	if key != sampleKey {
		t.Errorf("key = %q", key)
	}
}

func TestParseUpgradeKeepAliveConnection(t *testing.T) {
	raw := bytes.Replace(upgradeRequest("/"), []byte("Connection: Upgrade"),
		[]byte("Connection: keep-alive, Upgrade"), 1)
	if _, err := protocol.ParseUpgrade(raw, "/"); err != nil {
		t.Fatalf("keep-alive, Upgrade rejected: %v", err)
	}
}

func TestParseUpgradeRejects(t *testing.T) {
	cases := map[string][]byte{
		"missing upgrade": bytes.Replace(upgradeRequest("/"), []byte("Upgrade: websocket\r\n"), nil, 1),
		"missing connection": bytes.Replace(upgradeRequest("/"), []byte("Connection: Upgrade\r\n"),
			[]byte("Connection: keep-alive\r\n"), 1),
		"wrong version": bytes.Replace(upgradeRequest("/"), []byte("Version: 13"), []byte("Version: 8"), 1),
		"missing key":   bytes.Replace(upgradeRequest("/"), []byte("Sec-WebSocket-Key: "+sampleKey+"\r\n"), nil, 1),
		"wrong path":    upgradeRequest("/other"),
		"post":          bytes.Replace(upgradeRequest("/"), []byte("GET"), []byte("POST"), 1),
		"http/1.0":      bytes.Replace(upgradeRequest("/"), []byte("HTTP/1.1"), []byte("HTTP/1.0"), 1),
		"garbage":       []byte("\x16\x03\x01 not http\r\n\r\n"),
	}
	for name, raw := range cases {
		if _, err := protocol.ParseUpgrade(raw, "/"); !errors.Is(err, protocol.ErrBadHandshake) {
			t.Errorf("%s: err = %v, want ErrBadHandshake", name, err)
		}
	}
}

func TestHandshakeResponseParses(t *testing.T) {
	resp := protocol.AppendHandshakeResponse(nil, sampleKey)
	r, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(resp)), nil)
	if err != nil {
		t.Fatal(err)
	}
	if r.StatusCode != http.StatusSwitchingProtocols {
		t.Errorf("status = %d", r.StatusCode)
	}
	if got := r.Header.Get("Sec-WebSocket-Accept"); got != "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=" {
		t.Errorf("accept = %q", got)
	}
	if !strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		t.Errorf("upgrade = %q", r.Header.Get("Upgrade"))
	}
	if !bytes.HasSuffix(resp, []byte("\r\n\r\n")) {
		t.Error("response head not terminated by a blank line")
	}
}

func TestRequestComplete(t *testing.T) {
	raw := upgradeRequest("/")
	if n := protocol.RequestComplete(raw); n != len(raw) {
		t.Errorf("RequestComplete = %d, want %d", n, len(raw))
	}
	if n := protocol.RequestComplete(raw[:len(raw)-1]); n != -1 {
		t.Errorf("partial head reported complete at %d", n)
	}
}

func TestIsUpgradeLine(t *testing.T) {
	cases := map[string]bool{
		"GET / HTTP/1.1":         true,
		"GET /?token=1 HTTP/1.1": true,
		"GET /ws HTTP/1.1":       false,
		"POST / HTTP/1.1":        false,
		"GET /":                  false,
		"":                       false,
	}
	for line, want := range cases {
		if got := protocol.IsUpgradeLine([]byte(line), "/"); got != want {
			t.Errorf("IsUpgradeLine(%q) = %v, want %v", line, got, want)
		}
	}
}
