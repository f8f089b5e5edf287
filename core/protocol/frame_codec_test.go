package protocol_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gobwas/ws"

	"github.com/momentics/embedded-ws/core/protocol"
)

func payloadOf(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte('a' + i%26)
	}
	return p
}

func TestAppendFrameHeaderSizes(t *testing.T) {
	cases := []struct {
		n      int
		header int
		reject bool
	}{
		{0, 2, false},
		{1, 2, false},
		{125, 2, false},
		{126, 4, false},
		{512, 4, false},
		{1024, 4, false},
		{1025, 0, true},
		{65535, 0, true},
	}
	for _, c := range cases {
		out, err := protocol.AppendFrame(nil, protocol.OpcodeText, payloadOf(c.n))
		if c.reject {
			if out != nil || !errors.Is(err, protocol.ErrPayloadTooLarge) {
				t.Errorf("n=%d: got %d bytes, err %v; want rejection", c.n, len(out), err)
			}
			if protocol.HeaderLen(c.n) != 0 {
				t.Errorf("n=%d: HeaderLen should be 0", c.n)
			}
			continue
		}
		if err != nil {
			t.Fatalf("n=%d: %v", c.n, err)
		}
		if got := len(out) - c.n; got != c.header {
			t.Errorf("n=%d: header %d bytes, want %d", c.n, got, c.header)
		}
		if protocol.HeaderLen(c.n) != c.header {
			t.Errorf("n=%d: HeaderLen = %d", c.n, protocol.HeaderLen(c.n))
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, n := range []int{0, 7, 125, 126, 127, 300, 1023, 1024} {
		payload := payloadOf(n)
		frame, err := protocol.AppendFrame(nil, protocol.OpcodeBinary, payload)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		h, got, err := protocol.DecodeFrame(frame)
		if err != nil {
			t.Fatalf("n=%d: decode: %v", n, err)
		}
		if h.Opcode != protocol.OpcodeBinary || !h.Fin || h.Masked {
			t.Errorf("n=%d: unexpected header %+v", n, h)
		}
		if !bytes.Equal(got, payload) {
			t.Errorf("n=%d: payload mismatch", n)
		}
	}
}

func TestAppendFrameReusesScratch(t *testing.T) {
	scratch := make([]byte, 0, protocol.MaxPayloadLen+protocol.MaxServerHeaderLen)
	out, err := protocol.AppendFrame(scratch[:0], protocol.OpcodeText, payloadOf(protocol.MaxPayloadLen))
	if err != nil {
		t.Fatal(err)
	}
	if &out[0] != &scratch[:1][0] {
		t.Error("AppendFrame reallocated a scratch buffer that was large enough")
	}
}

func TestServerFrameReadableByGobwas(t *testing.T) {
	for _, n := range []int{5, 200} {
		payload := payloadOf(n)
		frame, _ := protocol.AppendFrame(nil, protocol.OpcodePong, payload)
		r := bytes.NewReader(frame)
		h, err := ws.ReadHeader(r)
		if err != nil {
			t.Fatalf("n=%d: gobwas ReadHeader: %v", n, err)
		}
		if h.OpCode != ws.OpPong || !h.Fin || h.Masked || h.Length != int64(n) {
			t.Errorf("n=%d: gobwas header %+v", n, h)
		}
		if r.Len() != n {
			t.Errorf("n=%d: %d payload bytes remain, want %d", n, r.Len(), n)
		}
	}
}

func maskedClientFrame(t *testing.T, op ws.OpCode, fin bool, payload []byte) []byte {
	t.Helper()
	h := ws.Header{
		Fin:    fin,
		OpCode: op,
		Masked: true,
		Mask:   ws.NewMask(),
		Length: int64(len(payload)),
	}
	var buf bytes.Buffer
	if err := ws.WriteHeader(&buf, h); err != nil {
		t.Fatal(err)
	}
	body := append([]byte(nil), payload...)
	ws.Cipher(body, h.Mask, 0)
	buf.Write(body)
	return buf.Bytes()
}

func TestDecodeMaskedClientFrame(t *testing.T) {
	for _, n := range []int{0, 3, 125, 126, 1024} {
		payload := payloadOf(n)
		raw := maskedClientFrame(t, ws.OpText, true, payload)
		h, got, err := protocol.DecodeFrame(raw)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		if !h.Masked || h.Length != n {
			t.Errorf("n=%d: header %+v", n, h)
		}
		wantSize := 2 + 4
		if n > 125 {
			wantSize = 4 + 4
		}
		if h.Size != wantSize {
			t.Errorf("n=%d: header size %d, want %d", n, h.Size, wantSize)
		}
		if !bytes.Equal(got, payload) {
			t.Errorf("n=%d: unmasked payload mismatch", n)
		}
	}
}

func TestUnmaskInvolution(t *testing.T) {
	keys := [][4]byte{{0, 0, 0, 0}, {1, 2, 3, 4}, {0xFF, 0x00, 0xAA, 0x55}, ws.NewMask()}
	for _, k := range keys {
		for _, n := range []int{0, 1, 3, 4, 5, 127, 1024} {
			orig := payloadOf(n)
			buf := append([]byte(nil), orig...)
			protocol.Unmask(buf, k)
			protocol.Unmask(buf, k)
			if !bytes.Equal(buf, orig) {
				t.Errorf("key %v n=%d: mask twice did not restore payload", k, n)
			}
		}
	}
}

func TestDecodeRejectsFragmentation(t *testing.T) {
	for _, payload := range [][]byte{nil, []byte("x"), payloadOf(300)} {
		raw := maskedClientFrame(t, ws.OpText, false, payload)
		_, err := protocol.DecodeHeader(raw)
		if !errors.Is(err, protocol.ErrFragmented) {
			t.Fatalf("err = %v, want ErrFragmented", err)
		}
		if code := protocol.CloseCodeFor(err); code != protocol.CloseUnsupportedData {
			t.Errorf("close code %d, want %d", code, protocol.CloseUnsupportedData)
		}
	}
	// continuation frames carry FIN=0 in practice as well
	if _, err := protocol.DecodeHeader([]byte{0x00}); !errors.Is(err, protocol.ErrFragmented) {
		t.Errorf("bare continuation: %v", err)
	}
}

func TestDecodeRejects64BitLength(t *testing.T) {
	h := ws.Header{Fin: true, OpCode: ws.OpBinary, Masked: true, Mask: ws.NewMask(), Length: 70000}
	var buf bytes.Buffer
	if err := ws.WriteHeader(&buf, h); err != nil {
		t.Fatal(err)
	}
	_, err := protocol.DecodeHeader(buf.Bytes())
	if !errors.Is(err, protocol.ErrUnsupportedLength) {
		t.Fatalf("err = %v, want ErrUnsupportedLength", err)
	}
	if code := protocol.CloseCodeFor(err); code != protocol.CloseMessageTooBig {
		t.Errorf("close code %d, want %d", code, protocol.CloseMessageTooBig)
	}
}

func TestDecodeRejectsOversized16BitLength(t *testing.T) {
	raw := []byte{0x82, 0x80 | 126, 0x04, 0x01} // 1025 bytes declared
	h, err := protocol.DecodeHeader(raw)
	if !errors.Is(err, protocol.ErrMessageTooBig) {
		t.Fatalf("err = %v, want ErrMessageTooBig", err)
	}
	if h.Length != 1025 {
		t.Errorf("Length = %d", h.Length)
	}
}

func TestDecodeRejectsLongControlFrames(t *testing.T) {
	for _, op := range []ws.OpCode{ws.OpPing, ws.OpPong, ws.OpClose} {
		raw := maskedClientFrame(t, op, true, payloadOf(protocol.MaxShortPayloadLen+1))
		if _, err := protocol.DecodeHeader(raw); !errors.Is(err, protocol.ErrControlTooLong) {
			t.Errorf("opcode %#x: err = %v, want ErrControlTooLong", op, err)
		}
	}
	ping := maskedClientFrame(t, ws.OpPing, true, payloadOf(protocol.MaxShortPayloadLen))
	if _, payload, err := protocol.DecodeFrame(ping); err != nil || len(payload) != protocol.MaxShortPayloadLen {
		t.Errorf("125-byte ping: len %d, err %v", len(payload), err)
	}
	if _, err := protocol.DecodeHeader(maskedClientFrame(t, ws.OpBinary, true, payloadOf(200))); err != nil {
		t.Errorf("data frame rejected: %v", err)
	}
}

func TestDecodeShortHeader(t *testing.T) {
	full := maskedClientFrame(t, ws.OpBinary, true, payloadOf(200))
	for cut := 0; cut < 8; cut++ {
		_, err := protocol.DecodeHeader(full[:cut])
		if !errors.Is(err, protocol.ErrShortHeader) {
			t.Errorf("cut=%d: err = %v, want ErrShortHeader", cut, err)
		}
	}
	if _, err := protocol.DecodeHeader(full[:8]); err != nil {
		t.Errorf("complete header rejected: %v", err)
	}
	if _, _, err := protocol.DecodeFrame(full[:20]); !errors.Is(err, protocol.ErrTruncated) {
		t.Errorf("DecodeFrame on partial payload: %v", err)
	}
}

func TestCloseCodeFor(t *testing.T) {
	cases := map[error]uint16{
		nil:                           protocol.CloseNormalClosure,
		protocol.ErrFragmented:        protocol.CloseUnsupportedData,
		protocol.ErrUnsupportedLength: protocol.CloseMessageTooBig,
		protocol.ErrMessageTooBig:     protocol.CloseMessageTooBig,
		protocol.ErrLengthMismatch:    protocol.CloseInternalServerErr,
		protocol.ErrInvalidOpcode:     protocol.ClosePolicyViolation,
		protocol.ErrControlTooLong:    protocol.CloseProtocolError,
		errors.New("something else"):  protocol.CloseProtocolError,
	}
	for err, want := range cases {
		if got := protocol.CloseCodeFor(err); got != want {
			t.Errorf("CloseCodeFor(%v) = %d, want %d", err, got, want)
		}
	}
}
