package jpegli

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrNotAnImage          = errors.New("jpegli: not a JPEG image")
	ErrUnsupportedEncoding = errors.New("jpegli: not a lossless (SOF3) JPEG")
	ErrOutOfBounds         = errors.New("jpegli: read past end of buffer")
	ErrMalformedTable      = errors.New("jpegli: malformed Huffman table")
	ErrUnrecognizedMarker  = errors.New("jpegli: unrecognized marker")
)

// MarkerError reports which structural expectation failed and at which marker.
type MarkerError struct {
	Op     string // segment being read, e.g. "SOF3"
	Marker Marker // offending or enclosing marker
	Offset int    // byte offset of the marker
	Err    error
}

func (e *MarkerError) Error() string {
	return fmt.Sprintf("%s at offset %d (marker 0x%04X): %v", e.Op, e.Offset, uint16(e.Marker), e.Err)
}

func (e *MarkerError) Unwrap() error {
	return e.Err
}

// DiagnosticKind classifies non-fatal findings.
type DiagnosticKind int

const (
	DiagUnrecognizedMarker DiagnosticKind = iota
	DiagMalformedTable
	DiagUndeclaredComponent
	DiagUndefinedTable
	DiagPredictorRange
)

func (k DiagnosticKind) String() string {
	switch k {
	case DiagUnrecognizedMarker:
		return "UnrecognizedMarker"
	case DiagMalformedTable:
		return "MalformedTable"
	case DiagUndeclaredComponent:
		return "UndeclaredComponent"
	case DiagUndefinedTable:
		return "UndefinedTable"
	case DiagPredictorRange:
		return "PredictorRange"
	default:
		return "Unknown"
	}
}

// Diagnostic is a non-fatal observation made while parsing; parsing continued.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Marker  Marker         `json:"marker"`
	Offset  int            `json:"offset"`
	Message string         `json:"message"`
}

// Err maps the diagnostic onto the package's sentinel errors where one exists.
func (d Diagnostic) Err() error {
	switch d.Kind {
	case DiagUnrecognizedMarker:
		return ErrUnrecognizedMarker
	case DiagMalformedTable:
		return ErrMalformedTable
	}
	return nil
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %s@%d: %s", d.Kind, d.Marker, d.Offset, d.Message)
}
