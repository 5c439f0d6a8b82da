package kmall

import (
	"errors"
	"testing"
)

func TestCursorReads(t *testing.T) {
	buf := []byte{
		0x01,
		0x02, 0x03,
		0x04, 0x05, 0x06, 0x07,
		0x00, 0x00, 0x80, 0x3f, // float32(1.0)
	}
	c := newCursor(buf)
	if got := c.u8(); got != 0x01 {
		t.Fatalf("u8 = %#x, want 0x01", got)
	}
	if got := c.u16(); got != 0x0302 {
		t.Fatalf("u16 = %#x, want 0x0302", got)
	}
	if got := c.u32(); got != 0x07060504 {
		t.Fatalf("u32 = %#x, want 0x07060504", got)
	}
	if got := c.f32(); got != 1.0 {
		t.Fatalf("f32 = %v, want 1.0", got)
	}
	if err := c.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.remaining() != 0 {
		t.Fatalf("remaining = %d, want 0", c.remaining())
	}
}

func TestCursorStickyError(t *testing.T) {
	c := newCursor([]byte{0x01, 0x02})
	c.u32()
	if !errors.Is(c.Err(), ErrTruncatedRecord) {
		t.Fatalf("err = %v, want ErrTruncatedRecord", c.Err())
	}
	// Further reads keep the first error and return zero values.
	if got := c.u8(); got != 0 {
		t.Fatalf("u8 after error = %#x, want 0", got)
	}
	if !errors.Is(c.Err(), ErrTruncatedRecord) {
		t.Fatalf("err changed after failed read: %v", c.Err())
	}
}

func TestCursorSeekAndSkip(t *testing.T) {
	c := newCursor([]byte{0, 1, 2, 3, 4, 5})
	c.skip(4)
	if got := c.u8(); got != 4 {
		t.Fatalf("u8 after skip = %d, want 4", got)
	}
	c.seek(1)
	if got := c.u8(); got != 1 {
		t.Fatalf("u8 after seek = %d, want 1", got)
	}
	c.seek(7)
	if !errors.Is(c.Err(), ErrTruncatedRecord) {
		t.Fatalf("seek past end: err = %v, want ErrTruncatedRecord", c.Err())
	}
}

func TestCursorBytesOwned(t *testing.T) {
	src := []byte{9, 8, 7}
	c := newCursor(src)
	got := c.bytes(3)
	src[0] = 0
	if got[0] != 9 {
		t.Fatal("bytes returned a view into the source buffer")
	}
}

func TestStructEnd(t *testing.T) {
	c := newCursor([]byte{0, 1, 2, 3, 4, 5, 6, 7})
	start := c.pos()
	c.u16()
	c.structEnd(start, 6)
	if got := c.u8(); got != 6 {
		t.Fatalf("u8 after structEnd = %d, want 6", got)
	}

	c = newCursor([]byte{0, 1, 2, 3})
	start = c.pos()
	c.u32()
	c.structEnd(start, 2)
	if !errors.Is(c.Err(), ErrTruncatedRecord) {
		t.Fatalf("declared size below parsed bytes: err = %v", c.Err())
	}
}
