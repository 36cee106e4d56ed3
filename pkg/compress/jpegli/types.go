package jpegli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Frame is the parsed description of one lossless image.
type Frame struct {
	Precision  uint8                  `json:"precision"` // bits per sample, typically 2-16
	Height     uint16                 `json:"height"`
	Width      uint16                 `json:"width"`
	Components []Component            `json:"components"`
	Tables     map[uint8]HuffmanTable `json:"tables"` // keyed by destination, last DHT wins
	Scans      []Scan                 `json:"scans"`  // in encounter order
}

// Component is one sample plane declared in the SOF3 header.
type Component struct {
	ID        uint8 `json:"id"`
	HSampling uint8 `json:"h"`
	VSampling uint8 `json:"v"`
	QTable    uint8 `json:"tq"` // unused in lossless mode
}

// HuffmanTable is one DHT table: the code length histogram and the symbol values
// in code order. The code tree itself is not assembled.
type HuffmanTable struct {
	Class       uint8     `json:"class"` // 0 = DC, the only class used by lossless
	Destination uint8     `json:"destination"`
	Counts      [16]uint8 `json:"counts"` // Counts[i] codes of bit length i+1
	Values      []byte    `json:"values"`
}

// Scan is one SOS header. The entropy-coded data that follows it is not decoded.
type Scan struct {
	Selectors      map[uint8]uint8 `json:"selectors"` // component id -> table destination
	Predictor      uint8           `json:"predictor"` // 1-7
	PointTransform uint8           `json:"pointTransform"`
}

// Component returns the component declared with id.
func (f *Frame) Component(id uint8) (Component, bool) {
	for _, c := range f.Components {
		if c.ID == id {
			return c, true
		}
	}
	return Component{}, false
}

// Destinations returns the defined table destinations in ascending order.
func (f *Frame) Destinations() []uint8 {
	dests := make([]uint8, 0, len(f.Tables))
	for d := range f.Tables {
		dests = append(dests, d)
	}
	sort.Slice(dests, func(i, j int) bool { return dests[i] < dests[j] })
	return dests
}

// ComponentIDs returns the scan's component ids in ascending order.
func (s Scan) ComponentIDs() []uint8 {
	ids := make([]uint8, 0, len(s.Selectors))
	for id := range s.Selectors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// MarshalJSON writes Values as numbers like Counts rather than base64.
func (h HuffmanTable) MarshalJSON() ([]byte, error) {
	type table HuffmanTable
	values := make([]int, len(h.Values))
	for i, v := range h.Values {
		values[i] = int(v)
	}
	return json.Marshal(struct {
		table
		Values []int `json:"values"`
	}{table(h), values})
}

// NumCodes is the total number of codes declared by the histogram.
func (h HuffmanTable) NumCodes() int {
	total := 0
	for _, n := range h.Counts {
		total += int(n)
	}
	return total
}

// Validate checks the table against the constraints of a lossless DHT.
func (h HuffmanTable) Validate() error {
	if h.Class != 0 {
		return fmt.Errorf("%w: table class %d in a lossless stream", ErrMalformedTable, h.Class)
	}
	if h.Destination > 3 {
		return fmt.Errorf("%w: destination %d out of range 0-3", ErrMalformedTable, h.Destination)
	}
	if n := h.NumCodes(); n != len(h.Values) {
		return fmt.Errorf("%w: counts sum to %d, segment carries %d values", ErrMalformedTable, n, len(h.Values))
	}
	// Kraft: the codes of each length must fit in the space left by shorter ones
	space := 1
	for i, n := range h.Counts {
		space <<= 1
		space -= int(n)
		if space < 0 {
			return fmt.Errorf("%w: too many codes of length %d", ErrMalformedTable, i+1)
		}
	}
	return nil
}

// Codes derives the canonical code words and their sizes, one per value.
// The table must be valid.
func (h HuffmanTable) Codes() (codes []uint16, sizes []int) {
	total := h.NumCodes()
	codes = make([]uint16, 0, total)
	sizes = make([]int, 0, total)
	code := uint16(0)
	for i, n := range h.Counts {
		for j := 0; j < int(n); j++ {
			codes = append(codes, code)
			sizes = append(sizes, i+1)
			code++
		}
		code <<= 1
	}
	return codes, sizes
}

// LogValue renders the frame for structured logs.
func (f *Frame) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("precision", int(f.Precision)),
		slog.Int("width", int(f.Width)),
		slog.Int("height", int(f.Height)),
		slog.Int("components", len(f.Components)),
		slog.Int("tables", len(f.Tables)),
		slog.Int("scans", len(f.Scans)),
	}
	for i, s := range f.Scans {
		attrs = append(attrs, slog.Group(fmt.Sprintf("scan%d", i),
			slog.Int("predictor", int(s.Predictor)),
			slog.Int("pointTransform", int(s.PointTransform)),
			slog.Any("selectors", s.Selectors)))
	}
	return slog.GroupValue(attrs...)
}

// String dumps the frame in a readable multi-line form.
func (f *Frame) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Frame: %dx%d, %d bit, %d component(s)\n", f.Width, f.Height, f.Precision, len(f.Components))
	for _, c := range f.Components {
		fmt.Fprintf(&sb, "  Component %d: sampling %dx%d, Tq %d\n", c.ID, c.HSampling, c.VSampling, c.QTable)
	}
	for _, d := range f.Destinations() {
		t := f.Tables[d]
		fmt.Fprintf(&sb, "  Huffman table %d (class %d): counts %v, %d value(s) % X\n",
			d, t.Class, t.Counts, len(t.Values), t.Values)
	}
	for i, s := range f.Scans {
		fmt.Fprintf(&sb, "  Scan %d: predictor %d, point transform %d\n", i, s.Predictor, s.PointTransform)
		for _, id := range s.ComponentIDs() {
			fmt.Fprintf(&sb, "    component %d -> table %d\n", id, s.Selectors[id])
		}
	}
	return sb.String()
}
