package jpegli

import "bytes"

// Segment locates one marker segment or entropy-coded span in the buffer.
type Segment struct {
	Marker   Marker `json:"marker"`             // 0 for entropy-coded data
	Offset   int    `json:"offset"`             // offset of the marker, or of the first data byte
	Length   int    `json:"length"`             // bytes following the marker, length field included
	Restarts int    `json:"restarts,omitempty"` // RSTn markers inside entropy-coded data
}

// skipEntropy advances over entropy-coded data. FF 00 is a stuffed 0xFF and
// FF D0-D7 are restart markers; both belong to the data. Any other FF stops the
// scan with the cursor on it, so fill bytes and the next marker are left for the
// dispatch loop.
func (c *cursor) skipEntropy() (length, restarts int) {
	start := c.pos
	i := start
	for i < len(c.buf) {
		if c.buf[i] != 0xFF {
			i++
			continue
		}
		if i+1 >= len(c.buf) {
			break
		}
		next := c.buf[i+1]
		if next == 0x00 {
			i += 2
			continue
		}
		if Marker(0xFF00 | uint16(next)).IsRestart() {
			restarts++
			i += 2
			continue
		}
		break
	}
	c.pos = i
	return i - start, restarts
}

// Unstuff undoes byte stuffing in entropy-coded data: FF 00 becomes FF and
// restart markers are dropped.
func Unstuff(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		b := data[i]
		if b == 0xFF && i+1 < len(data) {
			next := data[i+1]
			if next == 0x00 {
				out = append(out, 0xFF)
				i++
				continue
			}
			if Marker(0xFF00 | uint16(next)).IsRestart() {
				i++
				continue
			}
		}
		out = append(out, b)
	}
	return out
}

var losslessHeader = []byte{0xFF, 0xD8, 0xFF, 0xC3}

// Locate returns the offset of the first SOI immediately followed by SOF3, or -1.
// It finds lossless streams embedded in containers such as DICOM pixel data.
func Locate(buf []byte) int {
	return bytes.Index(buf, losslessHeader)
}
