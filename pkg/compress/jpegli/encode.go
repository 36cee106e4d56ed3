package jpegli

import (
	"errors"
	"fmt"
	"image"
	"io"
	"math"

	"github.com/bluenviron/mediacommon/v2/pkg/codecs/jpeg"
)

// Marshal writes f in the marker layout Parse reads: SOI, SOF3, one DHT per
// destination, one SOS header per scan (without entropy-coded data) and EOI.
func Marshal(f *Frame) ([]byte, error) {
	buf := jpeg.StartOfImage{}.Marshal(nil)
	buf, err := appendSOF3(buf, f)
	if err != nil {
		return nil, err
	}
	for _, d := range f.Destinations() {
		if buf, err = appendDHT(buf, f.Tables[d]); err != nil {
			return nil, err
		}
	}
	for _, s := range f.Scans {
		if buf, err = appendSOS(buf, s); err != nil {
			return nil, err
		}
	}
	return append(buf, 0xFF, jpeg.MarkerEndOfImage), nil
}

func appendSOF3(buf []byte, f *Frame) ([]byte, error) {
	if len(f.Components) > math.MaxUint8 {
		return nil, fmt.Errorf("jpegli: %d components, at most %d fit in SOF3", len(f.Components), math.MaxUint8)
	}
	// Length = 2 + 1 + 2 + 2 + 1 + 3*components
	length := 8 + 3*len(f.Components)
	buf = append(buf, 0xFF, byte(MarkerSOF3&0xFF),
		byte(length>>8), byte(length),
		f.Precision,
		byte(f.Height>>8), byte(f.Height),
		byte(f.Width>>8), byte(f.Width),
		byte(len(f.Components)))
	for _, c := range f.Components {
		buf = append(buf, c.ID, c.HSampling<<4|c.VSampling&0x0F, c.QTable)
	}
	return buf, nil
}

func appendDHT(buf []byte, ht HuffmanTable) ([]byte, error) {
	if len(ht.Values) > math.MaxUint16-dhtHeaderLength {
		return nil, fmt.Errorf("jpegli: %d Huffman values do not fit in one DHT segment", len(ht.Values))
	}
	dht := jpeg.DefineHuffmanTable{
		Codes:       ht.Counts[:],
		Symbols:     ht.Values,
		TableNumber: int(ht.Destination),
		TableClass:  int(ht.Class),
	}
	return dht.Marshal(buf), nil
}

func appendSOS(buf []byte, s Scan) ([]byte, error) {
	if len(s.Selectors) > math.MaxUint8 {
		return nil, fmt.Errorf("jpegli: %d scan components, at most %d fit in SOS", len(s.Selectors), math.MaxUint8)
	}
	// Length = 2 + 1 + 2*components + 3
	length := 6 + 2*len(s.Selectors)
	buf = append(buf, 0xFF, jpeg.MarkerStartOfScan,
		byte(length>>8), byte(length),
		byte(len(s.Selectors)))
	for _, id := range s.ComponentIDs() {
		buf = append(buf, id, s.Selectors[id]<<4)
	}
	return append(buf, s.Predictor, 0, s.PointTransform), nil
}

// Encoder configures Encode.
type Encoder struct {
	// Predictor selection (1-7, default 1)
	Predictor int
	// Point transform, low order bits dropped before prediction (0 for lossless)
	PointTransform int
	// Precision in bits, 0 derives it from the image type
	Precision int
}

// Encode writes img to w as a single component JPEG Lossless stream with one
// Huffman table and one scan. Only *image.Gray and *image.Gray16 are accepted.
func Encode(w io.Writer, img image.Image, opts *Encoder) error {
	enc := &encoder{img: img, predictor: 1}
	switch img.(type) {
	case *image.Gray16:
		enc.precision = 16
	case *image.Gray:
		enc.precision = 8
	default:
		return errors.New("jpegli: unsupported image type (only Gray/Gray16)")
	}
	if opts != nil {
		if opts.Predictor >= 1 && opts.Predictor <= 7 {
			enc.predictor = opts.Predictor
		}
		if opts.Precision >= 2 && opts.Precision <= enc.precision {
			enc.precision = opts.Precision
		}
		enc.pointTrans = opts.PointTransform
	}
	if enc.pointTrans < 0 || enc.pointTrans >= enc.precision {
		return fmt.Errorf("jpegli: point transform %d invalid for %d bit samples", enc.pointTrans, enc.precision)
	}
	bounds := img.Bounds()
	enc.width, enc.height = bounds.Dx(), bounds.Dy()
	if enc.width <= 0 || enc.height <= 0 || enc.width > math.MaxUint16 || enc.height > math.MaxUint16 {
		return fmt.Errorf("jpegli: invalid image dimensions %dx%d", enc.width, enc.height)
	}
	return enc.encode(w)
}

type encoder struct {
	img        image.Image
	predictor  int
	pointTrans int
	precision  int
	width      int
	height     int
}

// losslessTable covers all 17 SSSS categories of up to 16 bit differences.
func losslessTable() HuffmanTable {
	return HuffmanTable{
		Counts: [16]uint8{0, 1, 5, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0, 0},
		Values: []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
	}
}

// Frame describes the stream encode writes.
func (e *encoder) Frame() *Frame {
	return &Frame{
		Precision:  uint8(e.precision),
		Height:     uint16(e.height),
		Width:      uint16(e.width),
		Components: []Component{{ID: 1, HSampling: 1, VSampling: 1}},
		Tables:     map[uint8]HuffmanTable{0: losslessTable()},
		Scans: []Scan{{
			Selectors:      map[uint8]uint8{1: 0},
			Predictor:      uint8(e.predictor),
			PointTransform: uint8(e.pointTrans),
		}},
	}
}

func (e *encoder) encode(w io.Writer) error {
	f := e.Frame()
	buf := jpeg.StartOfImage{}.Marshal(nil)
	buf, err := appendSOF3(buf, f)
	if err != nil {
		return err
	}
	ht := f.Tables[0]
	if buf, err = appendDHT(buf, ht); err != nil {
		return err
	}
	if buf, err = appendSOS(buf, f.Scans[0]); err != nil {
		return err
	}
	if _, err := w.Write(buf); err != nil {
		return err
	}

	bw := &bitWriter{w: w}
	e.encodeScan(bw, ht)
	if err := bw.flush(); err != nil {
		return err
	}
	_, err = w.Write([]byte{0xFF, jpeg.MarkerEndOfImage})
	return err
}

func (e *encoder) encodeScan(bw *bitWriter, ht HuffmanTable) {
	codes, sizes := ht.Codes()
	code := make(map[int]int, len(ht.Values))
	for i, v := range ht.Values {
		code[int(v)] = i
	}

	prevRow := make([]int, e.width)
	currRow := make([]int, e.width)
	modulo := 1 << e.precision
	bounds := e.img.Bounds()

	for y := 0; y < e.height; y++ {
		for x := 0; x < e.width; x++ {
			val := e.sample(bounds.Min.X+x, bounds.Min.Y+y)
			currRow[x] = val
			pred := e.predict(currRow, prevRow, x, y)

			// difference modulo 2^precision, as a signed value
			diff := (val - pred) % modulo
			if diff >= modulo/2 {
				diff -= modulo
			} else if diff < -modulo/2 {
				diff += modulo
			}

			ssss := categorize(diff)
			i := code[ssss]
			bw.writeBits(int(codes[i]), sizes[i])
			// SSSS 16 carries no additional bits
			if ssss > 0 && ssss < 16 {
				if diff < 0 {
					diff += (1 << ssss) - 1
				}
				bw.writeBits(diff, ssss)
			}
		}
		prevRow, currRow = currRow, prevRow
	}
}

func (e *encoder) sample(x, y int) int {
	var v int
	switch g := e.img.(type) {
	case *image.Gray16:
		v = int(g.Gray16At(x, y).Y)
	case *image.Gray:
		v = int(g.GrayAt(x, y).Y)
	}
	v &= (1 << e.precision) - 1
	return v >> e.pointTrans
}

// predict computes the prediction for (x, y); first row and column follow H.1.2.1
func (e *encoder) predict(currRow, prevRow []int, x, y int) int {
	switch {
	case x == 0 && y == 0:
		return 1 << (e.precision - e.pointTrans - 1)
	case y == 0:
		return currRow[x-1]
	case x == 0:
		return prevRow[x]
	}
	ra, rb, rc := currRow[x-1], prevRow[x], prevRow[x-1]
	switch e.predictor {
	case 2:
		return rb
	case 3:
		return rc
	case 4:
		return ra + rb - rc
	case 5:
		return ra + (rb-rc)>>1
	case 6:
		return rb + (ra-rc)>>1
	case 7:
		return (ra + rb) >> 1
	default:
		return ra
	}
}

// categorize returns the SSSS category for a difference value
func categorize(diff int) int {
	if diff < 0 {
		diff = -diff
	}
	ssss := 0
	for diff > 0 {
		diff >>= 1
		ssss++
	}
	return ssss
}

// bitWriter writes bits MSB first with byte stuffing, keeping the first error.
type bitWriter struct {
	w    io.Writer
	buf  uint32
	bits int
	err  error
}

func (b *bitWriter) writeBits(val, n int) {
	b.buf = b.buf<<n | uint32(val&(1<<n-1))
	b.bits += n
	for b.bits >= 8 {
		b.bits -= 8
		b.writeByte(byte(b.buf >> b.bits))
	}
}

func (b *bitWriter) writeByte(c byte) {
	if b.err != nil {
		return
	}
	if c == 0xFF {
		_, b.err = b.w.Write([]byte{0xFF, 0x00})
		return
	}
	_, b.err = b.w.Write([]byte{c})
}

// flush pads the last byte with 1s
func (b *bitWriter) flush() error {
	if b.bits > 0 {
		pad := 8 - b.bits
		b.writeBits(1<<pad-1, pad)
	}
	return b.err
}
