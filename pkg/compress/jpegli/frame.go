package jpegli

import (
	"context"
	"fmt"
	"log/slog"
)

// frameReader holds the state of one parse after SOI and SOF3 were accepted.
type frameReader struct {
	ctx context.Context
	p   *Parser
	c   *cursor
	res *Result
}

// readFrame reads the SOF3 fields, then dispatches on markers until EOI.
func (r *frameReader) readFrame(sofOffset int) (*Frame, error) {
	fail := func(err error) error {
		return &MarkerError{Op: "SOF3", Marker: MarkerSOF3, Offset: sofOffset, Err: err}
	}

	// length is not needed, the component count fixes the layout
	if _, err := r.c.ReadUint16(); err != nil {
		return nil, fail(err)
	}
	frame := &Frame{Tables: make(map[uint8]HuffmanTable)}
	var err error
	if frame.Precision, err = r.c.ReadUint8(); err != nil {
		return nil, fail(err)
	}
	if frame.Height, err = r.c.ReadUint16(); err != nil {
		return nil, fail(err)
	}
	if frame.Width, err = r.c.ReadUint16(); err != nil {
		return nil, fail(err)
	}
	numComponents, err := r.c.ReadUint8()
	if err != nil {
		return nil, fail(err)
	}
	frame.Components = make([]Component, 0, numComponents)
	for i := 0; i < int(numComponents); i++ {
		var raw [3]uint8
		for j := range raw {
			if raw[j], err = r.c.ReadUint8(); err != nil {
				return nil, fail(err)
			}
		}
		frame.Components = append(frame.Components, Component{
			ID:        raw[0],
			HSampling: raw[1] >> 4,
			VSampling: raw[1] & 0x0F,
			QTable:    raw[2],
		})
	}
	r.segment(MarkerSOF3, sofOffset)

	slog.DebugContext(r.ctx, "jpegli: SOF3 parsed",
		slog.Int("precision", int(frame.Precision)),
		slog.Int("width", int(frame.Width)),
		slog.Int("height", int(frame.Height)),
		slog.Int("components", len(frame.Components)))

	for {
		offset := r.c.Offset()
		value, err := r.c.ReadUint16()
		if err != nil {
			return nil, &MarkerError{Op: "marker", Offset: offset, Err: err}
		}
		marker := Marker(value)

		switch {
		case marker == MarkerEOI:
			r.segment(MarkerEOI, offset)
			return frame, nil

		case marker == MarkerDHT:
			ht, err := readHuffmanTable(r.c)
			if err != nil {
				return nil, &MarkerError{Op: "DHT", Marker: marker, Offset: offset, Err: err}
			}
			r.segment(MarkerDHT, offset)
			if err := ht.Validate(); err != nil {
				if r.p.Strict {
					return nil, &MarkerError{Op: "DHT", Marker: marker, Offset: offset, Err: err}
				}
				r.diagnose(Diagnostic{Kind: DiagMalformedTable, Marker: marker, Offset: offset, Message: err.Error()})
			}
			// lossless scans select DC tables only
			if ht.Class == 0 {
				frame.Tables[ht.Destination] = ht
			}

			slog.DebugContext(r.ctx, "jpegli: DHT parsed",
				slog.Int("class", int(ht.Class)),
				slog.Int("destination", int(ht.Destination)),
				slog.Int("totalCodes", ht.NumCodes()),
				slog.Int("values", len(ht.Values)))

		case marker == MarkerSOS:
			scan, err := readScan(r.c)
			if err != nil {
				return nil, &MarkerError{Op: "SOS", Marker: marker, Offset: offset, Err: err}
			}
			r.segment(MarkerSOS, offset)
			r.checkScan(frame, scan, offset)
			frame.Scans = append(frame.Scans, scan)

			start := r.c.Offset()
			length, restarts := r.c.skipEntropy()
			r.res.Segments = append(r.res.Segments, Segment{Offset: start, Length: length, Restarts: restarts})

			slog.DebugContext(r.ctx, "jpegli: SOS parsed",
				slog.Int("predictor", int(scan.Predictor)),
				slog.Int("pointTrans", int(scan.PointTransform)),
				slog.Int("numComponents", len(scan.Selectors)),
				slog.Int("entropyBytes", length))

		case marker.IsMarker():
			r.diagnose(Diagnostic{
				Kind:    DiagUnrecognizedMarker,
				Marker:  marker,
				Offset:  offset,
				Message: fmt.Sprintf("unknown marker 0x%04X", value),
			})
			if r.p.SkipSegments && marker.HasLength() {
				if err := r.skipSegment(marker, offset); err != nil {
					return nil, err
				}
			}
			r.segment(marker, offset)

		default:
			// filler; a trailing 0xFF may begin the next marker
			if value&0xFF == 0xFF {
				r.c.pos--
			}
		}
	}
}

// checkScan reports scan references the frame cannot satisfy.
func (r *frameReader) checkScan(frame *Frame, scan Scan, offset int) {
	for _, id := range scan.ComponentIDs() {
		if _, ok := frame.Component(id); !ok {
			r.diagnose(Diagnostic{Kind: DiagUndeclaredComponent, Marker: MarkerSOS, Offset: offset,
				Message: fmt.Sprintf("component %d not declared in SOF3", id)})
		}
		if _, ok := frame.Tables[scan.Selectors[id]]; !ok {
			r.diagnose(Diagnostic{Kind: DiagUndefinedTable, Marker: MarkerSOS, Offset: offset,
				Message: fmt.Sprintf("component %d selects undefined table %d", id, scan.Selectors[id])})
		}
	}
	if scan.Predictor < 1 || scan.Predictor > 7 {
		r.diagnose(Diagnostic{Kind: DiagPredictorRange, Marker: MarkerSOS, Offset: offset,
			Message: fmt.Sprintf("predictor %d outside 1-7", scan.Predictor)})
	}
}

// skipSegment moves past the declared payload of marker. A declared length
// below 2 cannot cover its own field, so the cursor is left after the marker
// and the bytes are walked as filler.
func (r *frameReader) skipSegment(marker Marker, offset int) error {
	length, err := r.c.ReadUint16()
	if err != nil {
		return &MarkerError{Op: marker.String(), Marker: marker, Offset: offset, Err: err}
	}
	if length < 2 {
		r.c.pos = offset + 2
		return nil
	}
	if err := r.c.Skip(int(length) - 2); err != nil {
		return &MarkerError{Op: marker.String(), Marker: marker, Offset: offset, Err: err}
	}
	return nil
}

// segment records the marker at offset, spanning up to the cursor.
func (r *frameReader) segment(marker Marker, offset int) {
	r.res.Segments = append(r.res.Segments, Segment{Marker: marker, Offset: offset, Length: r.c.Offset() - offset - 2})
}

func (r *frameReader) diagnose(d Diagnostic) {
	r.res.Diagnostics = append(r.res.Diagnostics, d)
	r.p.reporter().Diagnostic(r.ctx, d)
}
