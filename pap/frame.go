package pap

import (
	"encoding/binary"
	"io"
)

// Codec encodes and decodes length-prefixed frames.
// A frame is a 4-byte big-endian length followed by that many payload
// bytes. Only directory listings may carry a zero-length frame, and only
// as their end-of-list sentinel.
type Codec struct {
	maxLength int
}

// NewCodec creates a codec accepting payloads up to maxLength bytes.
// Values outside [1, MaxFrameLength] fall back to MaxFrameLength.
func NewCodec(maxLength int) *Codec {
	if maxLength < 1 || maxLength > MaxFrameLength {
		maxLength = MaxFrameLength
	}
	return &Codec{maxLength: maxLength}
}

// MaxLength returns the largest accepted payload.
func (c *Codec) MaxLength() int {
	return c.maxLength
}

// CheckLength validates a payload length without touching the wire.
func (c *Codec) CheckLength(op string, n int) error {
	if n < 1 || n > c.maxLength {
		return frameLengthError(op, n, c.maxLength)
	}
	return nil
}

// WriteFrame writes payload as a single frame. The length prefix and the
// payload go out in one Write so nothing can interleave between them.
// Invalid lengths are rejected before any byte is written.
func (c *Codec) WriteFrame(w io.Writer, payload []byte) error {
	if err := c.CheckLength("write frame", len(payload)); err != nil {
		return err
	}

	buf := make([]byte, frameHeaderLen+len(payload))
	binary.BigEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[frameHeaderLen:], payload)

	if _, err := w.Write(buf); err != nil {
		return ioError("write frame", err)
	}
	return nil
}

// WriteSentinel writes the zero-length frame that ends a listing.
func (c *Codec) WriteSentinel(w io.Writer) error {
	var buf [frameHeaderLen]byte
	if _, err := w.Write(buf[:]); err != nil {
		return ioError("write sentinel", err)
	}
	return nil
}

// ReadFrame reads one frame whose payload must be 1..MaxLength bytes.
func (c *Codec) ReadFrame(r io.Reader) ([]byte, error) {
	return c.readFrame(r, false)
}

// ReadEntry reads one listing frame. A zero-length result is the
// end-of-list sentinel.
func (c *Codec) ReadEntry(r io.Reader) ([]byte, error) {
	return c.readFrame(r, true)
}

func (c *Codec) readFrame(r io.Reader, allowSentinel bool) ([]byte, error) {
	hdr, err := readExact(r, frameHeaderLen, "read frame length")
	if err != nil {
		return nil, err
	}

	n := binary.BigEndian.Uint32(hdr)
	if n == 0 && allowSentinel {
		return []byte{}, nil
	}
	if n == 0 || n > uint32(c.maxLength) {
		return nil, frameLengthError("read frame", int(n), c.maxLength)
	}

	return readExact(r, int(n), "read frame payload")
}

// readExact reads exactly n bytes or fails. A peer closing before n bytes
// arrive is reported as ErrConnectionClosed.
func readExact(r io.Reader, n int, op string) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, ioError(op, err)
	}
	return buf, nil
}
