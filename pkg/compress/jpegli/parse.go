package jpegli

import (
	"context"
	"fmt"
)

// Parser parses lossless JPEG bitstreams. The zero value reports to slog.Default().
type Parser struct {
	// Reporter receives non-fatal diagnostics and the parsed frame.
	Reporter Reporter
	// Strict turns a malformed Huffman table into a fatal error.
	Strict bool
	// SkipSegments skips the declared payload of unrecognized markers that carry
	// a length, instead of walking it as filler.
	SkipSegments bool
}

// Result is a successful parse.
type Result struct {
	Frame       *Frame       `json:"frame"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
	Segments    []Segment    `json:"segments"`
}

// Parse parses buf with the default Parser.
func Parse(buf []byte) (*Frame, error) {
	res, err := (&Parser{}).Parse(context.Background(), buf)
	if err != nil {
		return nil, err
	}
	return res.Frame, nil
}

// Parse checks the SOI and SOF3 markers and reads the frame through EOI.
// On error no partial frame is returned.
func (p *Parser) Parse(ctx context.Context, buf []byte) (*Result, error) {
	c := newCursor(buf)

	soi, err := c.ReadUint16()
	if err != nil {
		return nil, &MarkerError{Op: "SOI", Offset: 0, Err: fmt.Errorf("%w: %w", ErrNotAnImage, err)}
	}
	if Marker(soi) != MarkerSOI {
		return nil, &MarkerError{Op: "SOI", Marker: Marker(soi), Offset: 0, Err: ErrNotAnImage}
	}

	sofOffset := c.Offset()
	sof, err := c.ReadUint16()
	if err != nil {
		return nil, &MarkerError{Op: "SOF", Offset: sofOffset, Err: err}
	}
	if Marker(sof) != MarkerSOF3 {
		return nil, &MarkerError{Op: "SOF", Marker: Marker(sof), Offset: sofOffset, Err: ErrUnsupportedEncoding}
	}

	res := &Result{Segments: []Segment{{Marker: MarkerSOI, Offset: 0}}}
	r := &frameReader{ctx: ctx, p: p, c: c, res: res}
	frame, err := r.readFrame(sofOffset)
	if err != nil {
		return nil, err
	}
	res.Frame = frame
	p.reporter().Frame(ctx, frame)
	return res, nil
}

func (p *Parser) reporter() Reporter {
	if p.Reporter == nil {
		return SlogReporter{}
	}
	return p.Reporter
}

// EntropyData returns the unstuffed entropy-coded data following scan i.
// buf must be the buffer that produced r.
func (r *Result) EntropyData(buf []byte, i int) ([]byte, error) {
	n := 0
	for _, s := range r.Segments {
		if s.Marker != 0 {
			continue
		}
		if n == i {
			if s.Offset+s.Length > len(buf) {
				return nil, fmt.Errorf("%w: scan %d spans [%d,%d), buffer has %d bytes", ErrOutOfBounds, i, s.Offset, s.Offset+s.Length, len(buf))
			}
			return Unstuff(buf[s.Offset : s.Offset+s.Length]), nil
		}
		n++
	}
	return nil, fmt.Errorf("jpegli: scan %d not found, %d scan(s) parsed", i, n)
}
