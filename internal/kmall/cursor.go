package kmall

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrMalformedHeader reports a leading/trailing length mismatch or an
	// implausible header.
	ErrMalformedHeader = errors.New("malformed datagram header")
	// ErrTruncatedRecord reports a body read past the declared record
	// length.
	ErrTruncatedRecord = errors.New("truncated datagram")
	// ErrTruncatedStream reports a declared record length extending past
	// the end of the file.
	ErrTruncatedStream = errors.New("truncated stream")
	// ErrUnsupportedLevel reports decompression input without a
	// recognized synthetic tag or level marker.
	ErrUnsupportedLevel = errors.New("unsupported compression level")
	// ErrCorruptCompressedStream reports a quantized field decoding to an
	// out-of-range value.
	ErrCorruptCompressedStream = errors.New("corrupt compressed stream")
)

// cursor walks a datagram body with explicit bounds checks. Reads past
// the buffer set a sticky ErrTruncatedRecord; subsequent reads return
// zero values so decoders can check the error once per struct.
type cursor struct {
	buf []byte
	off int
	err error
}

func newCursor(buf []byte) *cursor {
	return &cursor{buf: buf}
}

func (c *cursor) Err() error { return c.err }

func (c *cursor) pos() int { return c.off }

func (c *cursor) remaining() int {
	if c.err != nil || c.off > len(c.buf) {
		return 0
	}
	return len(c.buf) - c.off
}

func (c *cursor) take(n int) []byte {
	if c.err != nil {
		return nil
	}
	if n < 0 || c.off+n > len(c.buf) {
		c.err = fmt.Errorf("%w: read of %d bytes at offset %d exceeds %d", ErrTruncatedRecord, n, c.off, len(c.buf))
		return nil
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b
}

// skip advances without reading. Negative counts are rejected.
func (c *cursor) skip(n int) {
	if c.err != nil {
		return
	}
	if n < 0 {
		c.err = fmt.Errorf("%w: negative skip %d at offset %d", ErrTruncatedRecord, n, c.off)
		return
	}
	c.take(n)
}

// seek moves to an absolute body offset. Used to honor the size fields
// that sub-structs carry, so unknown trailing fields of newer datagram
// versions are stepped over.
func (c *cursor) seek(off int) {
	if c.err != nil {
		return
	}
	if off < 0 || off > len(c.buf) {
		c.err = fmt.Errorf("%w: seek to %d exceeds %d", ErrTruncatedRecord, off, len(c.buf))
		return
	}
	c.off = off
}

func (c *cursor) u8() uint8 {
	b := c.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (c *cursor) i8() int8 { return int8(c.u8()) }

func (c *cursor) u16() uint16 {
	b := c.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (c *cursor) i16() int16 { return int16(c.u16()) }

func (c *cursor) u32() uint32 {
	b := c.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (c *cursor) i32() int32 { return int32(c.u32()) }

func (c *cursor) u64() uint64 {
	b := c.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (c *cursor) i64() int64 { return int64(c.u64()) }

func (c *cursor) f32() float32 {
	return math.Float32frombits(c.u32())
}

func (c *cursor) f64() float64 {
	return math.Float64frombits(c.u64())
}

// bytes returns an owned copy of the next n bytes.
func (c *cursor) bytes(n int) []byte {
	b := c.take(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

func (c *cursor) tag4() [4]byte {
	var t [4]byte
	b := c.take(4)
	if b != nil {
		copy(t[:], b)
	}
	return t
}
