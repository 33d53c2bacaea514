package nomenclature

import (
	"fmt"
	"strconv"
	"strings"
)

// Scale is one of the nine standard map scales, coarsest first.
type Scale int

const (
	Scale1M Scale = iota
	Scale500K
	Scale200K
	Scale100K
	Scale50K
	Scale25K
	Scale10K
	Scale5K
	Scale2K
)

var scaleNames = [...]string{"1m", "500k", "200k", "100k", "50k", "25k", "10k", "5k", "2k"}

var scaleDenominators = [...]int{1_000_000, 500_000, 200_000, 100_000, 50_000, 25_000, 10_000, 5_000, 2_000}

// Scales returns every scale from 1:1,000,000 down to 1:2,000.
func Scales() []Scale {
	return []Scale{Scale1M, Scale500K, Scale200K, Scale100K, Scale50K, Scale25K, Scale10K, Scale5K, Scale2K}
}

func (s Scale) Valid() bool { return s >= Scale1M && s <= Scale2K }

func (s Scale) String() string {
	if !s.Valid() {
		return "Scale(" + strconv.Itoa(int(s)) + ")"
	}
	return scaleNames[s]
}

// Denominator returns N of the 1:N map scale.
func (s Scale) Denominator() int {
	if !s.Valid() {
		return 0
	}
	return scaleDenominators[s]
}

func (s Scale) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownScale, int(s))
	}
	return []byte(s.String()), nil
}

func (s *Scale) UnmarshalText(b []byte) error {
	v, err := ParseScale(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseScale accepts "100k", "1M", "1:100000", "100000" and "1:100 000".
func ParseScale(v string) (Scale, error) {
	norm := strings.ToLower(strings.Join(strings.Fields(v), ""))
	norm = strings.ReplaceAll(norm, "_", "")
	norm = strings.TrimPrefix(norm, "1:")
	if norm == "" {
		return 0, fmt.Errorf("%w: empty", ErrUnknownScale)
	}
	for i, name := range scaleNames {
		if norm == name {
			return Scale(i), nil
		}
	}
	if n, err := strconv.Atoi(norm); err == nil {
		for i, d := range scaleDenominators {
			if n == d {
				return Scale(i), nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownScale, v)
}

// CellSize returns the width and height in degrees of an unmerged sheet.
func (s Scale) CellSize() (w, h float64) {
	if !s.Valid() {
		return 0, 0
	}
	c := world
	for _, sc := range chains[s] {
		rows, cols := gridOf(sc)
		c = c.child(0, 0, rows, cols)
	}
	return c.w, c.h
}
