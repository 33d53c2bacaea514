package nomenclature

import "fmt"

// Band classifies absolute latitude for sheet merging.
type Band int

const (
	BandNormal  Band = iota // [0, 60)
	BandDouble              // [60, 76)
	BandExtreme             // [76, 88)
	BandPolar               // [88, 90], 1:1 000 000 only
)

func (b Band) String() string {
	switch b {
	case BandNormal:
		return "normal"
	case BandDouble:
		return "double"
	case BandExtreme:
		return "extreme"
	case BandPolar:
		return "polar"
	}
	return fmt.Sprintf("Band(%d)", int(b))
}

func (b Band) MarshalText() ([]byte, error) {
	if b < BandNormal || b > BandPolar {
		return nil, fmt.Errorf("unknown band %d", int(b))
	}
	return []byte(b.String()), nil
}

func (b *Band) UnmarshalText(text []byte) error {
	for c := BandNormal; c <= BandPolar; c++ {
		if c.String() == string(text) {
			*b = c
			return nil
		}
	}
	return fmt.Errorf("unknown band %q", text)
}

// BandFor returns the band of a latitude, sign ignored.
func BandFor(lat float64) Band {
	if lat < 0 {
		lat = -lat
	}
	switch {
	case lat >= 88:
		return BandPolar
	case lat >= 76:
		return BandExtreme
	case lat >= 60:
		return BandDouble
	}
	return BandNormal
}

// mergeFactor returns how many adjacent cells of scale s are joined along
// longitude at absolute latitude absLat.
func mergeFactor(s Scale, absLat float64) (Band, int, error) {
	b := BandFor(absLat)
	switch b {
	case BandNormal:
		return b, 1, nil
	case BandDouble:
		if s == Scale2K {
			// the whole 3-cell row of the 1:5 000 parent
			return b, 3, nil
		}
		return b, 2, nil
	case BandExtreme:
		switch s {
		case Scale200K:
			return b, 3, nil
		case Scale2K:
			return b, 0, fmt.Errorf("%w: scale %s above 76 degrees", ErrUnsupportedMerge, s)
		}
		return b, 4, nil
	default:
		if s == Scale1M {
			return b, 1, nil
		}
		return b, 0, fmt.Errorf("%w: |lat| %.6f >= 88 at scale %s", ErrLatitudeOutOfDomain, absLat, s)
	}
}

// expandMerge returns the first and last column of the factor-aligned block
// holding col.
func expandMerge(col, factor int) (first, last int) {
	first = col / factor * factor
	return first, first + factor - 1
}
