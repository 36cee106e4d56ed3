package jpegli

// readScan reads one SOS header and leaves the cursor on the first byte of
// entropy-coded data.
func readScan(c *cursor) (Scan, error) {
	// length is framing only, the layout is fixed by the component count
	if _, err := c.ReadUint16(); err != nil {
		return Scan{}, err
	}
	numComponents, err := c.ReadUint8()
	if err != nil {
		return Scan{}, err
	}

	s := Scan{Selectors: make(map[uint8]uint8, numComponents)}
	for i := 0; i < int(numComponents); i++ {
		id, err := c.ReadUint8()
		if err != nil {
			return Scan{}, err
		}
		tables, err := c.ReadUint8()
		if err != nil {
			return Scan{}, err
		}
		s.Selectors[id] = tables >> 4
	}

	// Ss carries the predictor in lossless mode
	if s.Predictor, err = c.ReadUint8(); err != nil {
		return Scan{}, err
	}
	// Se is always 0
	if err := c.Skip(1); err != nil {
		return Scan{}, err
	}
	if s.PointTransform, err = c.ReadUint8(); err != nil {
		return Scan{}, err
	}
	return s, nil
}
