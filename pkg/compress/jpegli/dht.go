package jpegli

import "fmt"

// dhtHeaderLength is the length field, table class/destination and 16 counts.
const dhtHeaderLength = 2 + 1 + 16

// readHuffmanTable reads one DHT segment. The number of values follows the
// declared segment length, not the sum of the counts; Validate compares the two.
func readHuffmanTable(c *cursor) (HuffmanTable, error) {
	length, err := c.ReadUint16()
	if err != nil {
		return HuffmanTable{}, err
	}
	if length < dhtHeaderLength {
		return HuffmanTable{}, fmt.Errorf("%w: segment length %d shorter than %d", ErrMalformedTable, length, dhtHeaderLength)
	}

	tableInfo, err := c.ReadUint8()
	if err != nil {
		return HuffmanTable{}, err
	}
	ht := HuffmanTable{
		Class:       tableInfo >> 4,
		Destination: tableInfo & 0x0F,
	}
	for i := range ht.Counts {
		if ht.Counts[i], err = c.ReadUint8(); err != nil {
			return HuffmanTable{}, err
		}
	}
	if ht.Values, err = c.ReadBytes(int(length) - dhtHeaderLength); err != nil {
		return HuffmanTable{}, err
	}
	return ht, nil
}
