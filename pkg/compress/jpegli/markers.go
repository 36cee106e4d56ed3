// Package jpegli parses the marker structure of JPEG Lossless (ITU-T T.81 Annex H,
// SOF3) bitstreams: the frame header, its Huffman table definitions and scan headers.
// This is the encapsulation used by DICOM Transfer Syntax 1.2.840.10008.1.2.4.70.
package jpegli

import "fmt"

// Marker is a two byte big-endian tag starting with 0xFF.
type Marker uint16

// JPEG markers
const (
	MarkerSOI  Marker = 0xFFD8 // Start of Image
	MarkerEOI  Marker = 0xFFD9 // End of Image
	MarkerSOF0 Marker = 0xFFC0 // Baseline DCT
	MarkerSOF3 Marker = 0xFFC3 // Lossless (Huffman)
	MarkerDHT  Marker = 0xFFC4 // Define Huffman Table
	MarkerJPG  Marker = 0xFFC8 // Reserved for JPEG extensions
	MarkerDAC  Marker = 0xFFCC // Define Arithmetic Coding
	MarkerRST0 Marker = 0xFFD0 // Restart 0
	MarkerRST7 Marker = 0xFFD7 // Restart 7
	MarkerSOS  Marker = 0xFFDA // Start of Scan
	MarkerDQT  Marker = 0xFFDB // Define Quantization Table (not used in lossless)
	MarkerDNL  Marker = 0xFFDC // Define Number of Lines
	MarkerDRI  Marker = 0xFFDD // Define Restart Interval
	MarkerAPP0 Marker = 0xFFE0 // JFIF APP0
	MarkerAPPF Marker = 0xFFEF
	MarkerCOM  Marker = 0xFFFE // Comment

	// byte stuffing sentinels, never reported
	markerFill    Marker = 0xFFFF
	markerStuffed Marker = 0xFF00
)

var markerNames = map[Marker]string{
	MarkerSOI:  "SOI",
	MarkerEOI:  "EOI",
	MarkerSOF3: "SOF3",
	MarkerDHT:  "DHT",
	MarkerJPG:  "JPG",
	MarkerDAC:  "DAC",
	MarkerSOS:  "SOS",
	MarkerDQT:  "DQT",
	MarkerDNL:  "DNL",
	MarkerDRI:  "DRI",
	MarkerCOM:  "COM",
}

// String returns the mnemonic for well known markers and the hex value otherwise.
func (m Marker) String() string {
	if name, ok := markerNames[m]; ok {
		return name
	}
	switch {
	case m == 0:
		return "ECS"
	case m >= MarkerAPP0 && m <= MarkerAPPF:
		return fmt.Sprintf("APP%d", m-MarkerAPP0)
	case m.IsRestart():
		return fmt.Sprintf("RST%d", m-MarkerRST0)
	case m >= MarkerSOF0 && m <= 0xFFCF:
		return fmt.Sprintf("SOF%d", m-MarkerSOF0)
	}
	return fmt.Sprintf("0x%04X", uint16(m))
}

// IsMarker reports whether m has the 0xFF prefix and is not a stuffing sentinel.
func (m Marker) IsMarker() bool {
	return m>>8 == 0xFF && m != markerFill && m != markerStuffed
}

// IsRestart reports whether m is one of RST0-RST7.
func (m Marker) IsRestart() bool {
	return m >= MarkerRST0 && m <= MarkerRST7
}

// HasLength reports whether m is followed by a 2 byte length and payload.
// SOI, EOI, RSTn and TEM stand alone.
func (m Marker) HasLength() bool {
	if !m.IsMarker() {
		return false
	}
	switch {
	case m == MarkerSOI, m == MarkerEOI, m.IsRestart(), m == 0xFF01:
		return false
	}
	return true
}

// MarshalText renders the marker mnemonic.
func (m Marker) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}
