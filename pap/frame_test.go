package pap

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func payload(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*31 + i/256)
	}
	return b
}

func header(n uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], n)
	return b[:]
}

type countingWriter struct {
	bytes.Buffer
	writes int
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.writes++
	return w.Buffer.Write(p)
}

func TestFrameRoundTrip(t *testing.T) {
	codec := NewCodec(MaxFrameLength)

	for _, n := range []int{1, 2, 255, 256, 1000, 4095, 4096} {
		var buf bytes.Buffer
		want := payload(n)
		if err := codec.WriteFrame(&buf, want); err != nil {
			t.Fatalf("WriteFrame(%d bytes): %v", n, err)
		}
		if buf.Len() != n+4 {
			t.Fatalf("encoded %d bytes, want %d", buf.Len(), n+4)
		}
		if got := binary.BigEndian.Uint32(buf.Bytes()[:4]); got != uint32(n) {
			t.Fatalf("length prefix %d, want %d", got, n)
		}

		got, err := codec.ReadFrame(&buf)
		if err != nil {
			t.Fatalf("ReadFrame(%d bytes): %v", n, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("round trip of %d bytes altered the payload", n)
		}
		if buf.Len() != 0 {
			t.Errorf("%d bytes left unread", buf.Len())
		}
	}
}

func TestWriteFrameRejectsInvalidLength(t *testing.T) {
	codec := NewCodec(MaxFrameLength)

	for _, n := range []int{0, 4097, 10000} {
		w := &countingWriter{}
		err := codec.WriteFrame(w, payload(n))
		if !IsInvalidFrameLength(err) {
			t.Errorf("WriteFrame(%d bytes) error = %v, want invalid frame length", n, err)
		}
		if w.writes != 0 || w.Len() != 0 {
			t.Errorf("WriteFrame(%d bytes) wrote %d bytes before rejecting", n, w.Len())
		}
	}
}

func TestWriteFrameIsSingleWrite(t *testing.T) {
	w := &countingWriter{}
	if err := NewCodec(MaxFrameLength).WriteFrame(w, []byte("remote/path.txt")); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if w.writes != 1 {
		t.Errorf("frame written in %d calls, want 1", w.writes)
	}
}

func TestReadFrameRejectsInvalidLength(t *testing.T) {
	codec := NewCodec(MaxFrameLength)

	tests := []struct {
		name string
		wire []byte
	}{
		{"zero", header(0)},
		{"too long", append(header(4097), payload(4097)...)},
		{"huge", header(0xFFFFFFFF)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.ReadFrame(bytes.NewReader(tt.wire))
			if !IsInvalidFrameLength(err) {
				t.Errorf("ReadFrame error = %v, want invalid frame length", err)
			}
		})
	}
}

func TestReadEntrySentinel(t *testing.T) {
	codec := NewCodec(MaxFrameLength)
	wire := append(header(3), "abc"...)
	wire = append(wire, header(0)...)
	r := bytes.NewReader(wire)

	first, err := codec.ReadEntry(r)
	if err != nil || string(first) != "abc" {
		t.Fatalf("ReadEntry = %q, %v; want \"abc\"", first, err)
	}
	sentinel, err := codec.ReadEntry(r)
	if err != nil {
		t.Fatalf("ReadEntry sentinel: %v", err)
	}
	if len(sentinel) != 0 {
		t.Errorf("sentinel payload = %q, want empty", sentinel)
	}
}

func TestReadFrameTruncated(t *testing.T) {
	codec := NewCodec(MaxFrameLength)

	tests := []struct {
		name string
		wire []byte
	}{
		{"empty", nil},
		{"partial length", []byte{0, 0}},
		{"partial payload", append(header(10), "abc"...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.ReadFrame(bytes.NewReader(tt.wire))
			if !IsConnectionClosed(err) {
				t.Errorf("ReadFrame error = %v, want connection closed", err)
			}
		})
	}
}

func TestCodecMaxLength(t *testing.T) {
	codec := NewCodec(16)
	if err := codec.WriteFrame(&bytes.Buffer{}, payload(17)); !IsInvalidFrameLength(err) {
		t.Errorf("17 bytes with max 16: error = %v", err)
	}
	if err := codec.WriteFrame(&bytes.Buffer{}, payload(16)); err != nil {
		t.Errorf("16 bytes with max 16: %v", err)
	}

	if got := NewCodec(0).MaxLength(); got != MaxFrameLength {
		t.Errorf("NewCodec(0).MaxLength() = %d, want %d", got, MaxFrameLength)
	}
	if got := NewCodec(MaxFrameLength + 1).MaxLength(); got != MaxFrameLength {
		t.Errorf("NewCodec(4097).MaxLength() = %d, want %d", got, MaxFrameLength)
	}
}

func TestWriteSentinel(t *testing.T) {
	var buf bytes.Buffer
	if err := NewCodec(MaxFrameLength).WriteSentinel(&buf); err != nil {
		t.Fatalf("WriteSentinel: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), []byte{0, 0, 0, 0}) {
		t.Errorf("sentinel = %x, want 00000000", buf.Bytes())
	}
}
