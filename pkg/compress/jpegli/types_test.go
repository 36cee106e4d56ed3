package jpegli

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHuffmanTable_Validate(t *testing.T) {
	tests := []struct {
		name    string
		table   HuffmanTable
		wantErr bool
	}{
		{"lossless default", losslessTable(), false},
		{"single code", HuffmanTable{Counts: [16]uint8{1}, Values: []byte{0}}, false},
		{"full length 1", HuffmanTable{Counts: [16]uint8{2}, Values: []byte{0, 1}}, false},
		{"overfull length 1", HuffmanTable{Counts: [16]uint8{3}, Values: []byte{0, 1, 2}}, true},
		{"overfull length 2", HuffmanTable{Counts: [16]uint8{1, 3}, Values: []byte{0, 1, 2, 3}}, true},
		{"count mismatch", HuffmanTable{Counts: [16]uint8{0, 2}, Values: []byte{0}}, true},
		{"ac class", HuffmanTable{Class: 1, Counts: [16]uint8{1}, Values: []byte{0}}, true},
		{"destination 4", HuffmanTable{Destination: 4, Counts: [16]uint8{1}, Values: []byte{0}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.table.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedTable)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHuffmanTable_Codes(t *testing.T) {
	codes, sizes := losslessTable().Codes()
	require.Len(t, codes, 17)
	require.Len(t, sizes, 17)

	// 00, 010, 011, 100, 101, 110, 1110, 11110, ...
	assert.Equal(t, []uint16{0b00, 0b010, 0b011, 0b100, 0b101, 0b110, 0b1110, 0b11110}, codes[:8])
	assert.Equal(t, []int{2, 3, 3, 3, 3, 3, 4, 5}, sizes[:8])
	assert.Equal(t, 14, sizes[16])
	assert.Equal(t, uint16(1<<14-2), codes[16])
}

func TestMarker_String(t *testing.T) {
	tests := []struct {
		marker Marker
		want   string
	}{
		{MarkerSOI, "SOI"},
		{MarkerSOF3, "SOF3"},
		{MarkerSOF0, "SOF0"},
		{0xFFC2, "SOF2"},
		{MarkerDHT, "DHT"},
		{MarkerAPP0, "APP0"},
		{0xFFE1, "APP1"},
		{0xFFD3, "RST3"},
		{0, "ECS"},
		{0xFF01, "0xFF01"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.marker.String())
	}
}

func TestMarker_Classes(t *testing.T) {
	assert.True(t, MarkerAPP0.IsMarker())
	assert.False(t, Marker(0xFFFF).IsMarker())
	assert.False(t, Marker(0xFF00).IsMarker())
	assert.False(t, Marker(0x12FF).IsMarker())

	assert.True(t, MarkerCOM.HasLength())
	assert.True(t, MarkerDRI.HasLength())
	assert.False(t, MarkerEOI.HasLength())
	assert.False(t, Marker(0xFFD5).HasLength())
	assert.False(t, Marker(0xFF01).HasLength())
}

func TestFrame_Reporting(t *testing.T) {
	f, err := Parse(minimalStream())
	require.NoError(t, err)

	s := f.String()
	assert.Contains(t, s, "Frame: 1x1, 8 bit, 1 component(s)")
	assert.Contains(t, s, "component 1 -> table 0")

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	SlogReporter{Logger: logger}.Frame(t.Context(), f)
	SlogReporter{Logger: logger}.Diagnostic(t.Context(), Diagnostic{Kind: DiagUnrecognizedMarker, Marker: MarkerAPP0, Offset: 37})

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &rec))
	frame := rec["frame"].(map[string]any)
	assert.Equal(t, float64(8), frame["precision"])
	assert.Equal(t, float64(1), frame["scans"])

	require.NoError(t, json.Unmarshal(lines[1], &rec))
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "APP0", rec["marker"])
}

func TestResult_JSON(t *testing.T) {
	res, err := (&Parser{Reporter: NopReporter{}}).Parse(t.Context(), minimalStream())
	require.NoError(t, err)
	raw, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"marker":"SOF3"`)
	assert.Contains(t, string(raw), `"predictor":1`)

	raw, err = json.Marshal(HuffmanTable{Counts: [16]uint8{0, 2}, Values: []byte{0x05, 0xFF}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"class":0,"destination":0,"counts":[0,2,0,0,0,0,0,0,0,0,0,0,0,0,0,0],"values":[5,255]}`, string(raw))
}
