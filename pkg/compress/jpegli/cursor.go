package jpegli

import "fmt"

// cursor reads big-endian fields from an immutable buffer. Every read is bounds
// checked; nothing is ever padded.
type cursor struct {
	buf []byte
	pos int
}

func newCursor(buf []byte) *cursor {
	return &cursor{buf: buf}
}

// Offset is the position of the next unread byte.
func (c *cursor) Offset() int {
	return c.pos
}

// Len returns the number of unread bytes.
func (c *cursor) Len() int {
	return len(c.buf) - c.pos
}

func (c *cursor) need(n int) error {
	if n < 0 || c.Len() < n {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrOutOfBounds, n, c.pos, c.Len())
	}
	return nil
}

// ReadUint8 reads a single byte
func (c *cursor) ReadUint8() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	v := c.buf[c.pos]
	c.pos++
	return v, nil
}

// ReadUint16 reads a big-endian uint16
func (c *cursor) ReadUint16() (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	v := uint16(c.buf[c.pos])<<8 | uint16(c.buf[c.pos+1])
	c.pos += 2
	return v, nil
}

// PeekUint8 returns the next byte without consuming it
func (c *cursor) PeekUint8() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	return c.buf[c.pos], nil
}

// ReadBytes returns a copy of the next n bytes
func (c *cursor) ReadBytes(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	data := make([]byte, n)
	copy(data, c.buf[c.pos:c.pos+n])
	c.pos += n
	return data, nil
}

// Skip discards n bytes
func (c *cursor) Skip(n int) error {
	if err := c.need(n); err != nil {
		return err
	}
	c.pos += n
	return nil
}
