package nomenclature

import "fmt"

// DecodeParsed returns the sheet named by p. The center of the last
// labelled cell is re-encoded, so the result always matches Encode.
func DecodeParsed(p Parsed) (Sheet, error) {
	if !p.Scale.Valid() {
		return Sheet{}, fmt.Errorf("%w: %d", ErrUnknownScale, int(p.Scale))
	}
	if len(p.Tokens) == 1 && p.Tokens[0] == polarLetter && p.Scale == Scale1M {
		lat := 89.0
		if p.South {
			lat = -lat
		}
		return encode(Point{Lon: 0, Lat: lat}, Scale1M)
	}

	chain := chains[p.Scale]
	if len(p.Tokens) != len(chain)+1 {
		return Sheet{}, fmt.Errorf("%w: %d tokens for scale %s", ErrUnparseable, len(p.Tokens), p.Scale)
	}
	row, err := rowIndex(p.Tokens[0])
	if err != nil {
		return Sheet{}, err
	}
	col, err := columnIndex(p.Tokens[1])
	if err != nil {
		return Sheet{}, err
	}

	c := world.child(row, col, worldRows, worldCols)
	for i, sc := range chain[1:] {
		a := levels[sc].alpha
		r, cc, err := a.positionOf(p.Tokens[i+2], p.South)
		if err != nil {
			return Sheet{}, err
		}
		c = c.child(r, cc, a.rows, a.cols)
	}

	x, y := c.center()
	if p.South {
		y = -y
	}
	return encode(Point{Lon: x, Lat: y}, p.Scale)
}

// Decode parses text, detecting its scale, and returns the sheet.
func Decode(text string) (Sheet, error) {
	p, err := Parse(text)
	if err != nil {
		return Sheet{}, err
	}
	return DecodeParsed(p)
}

// DecodeAt is Decode with the scale fixed by the caller.
func DecodeAt(text string, s Scale) (Sheet, error) {
	p, err := ParseAt(text, s)
	if err != nil {
		return Sheet{}, err
	}
	return DecodeParsed(p)
}
