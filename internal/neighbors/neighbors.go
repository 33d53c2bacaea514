// Package neighbors enumerates sheets adjacent to, or covering, an area.
package neighbors

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/mohammed-shakir/topo-nomenclature/internal/core/model"
	"github.com/mohammed-shakir/topo-nomenclature/internal/nomenclature"
)

var (
	ErrTooManySheets = errors.New("too many sheets")
	ErrInvalidBBox   = errors.New("invalid bbox")
)

// Codec is the part of the nomenclature codec the enumerators need.
type Codec interface {
	Encode(p nomenclature.Point, s nomenclature.Scale) (nomenclature.Sheet, error)
	DecodeAt(text string, s nomenclature.Scale) (nomenclature.Sheet, error)
}

// Around returns the sorted names of the sheets touching the named sheet,
// diagonals included.
func Around(ctx context.Context, c Codec, text string, s nomenclature.Scale) ([]string, error) {
	return AroundAll(ctx, c, []string{text}, s)
}

// AroundAll returns the sheets touching any of texts, without the inputs.
func AroundAll(ctx context.Context, c Codec, texts []string, s nomenclature.Scale) ([]string, error) {
	self := make(map[string]struct{}, len(texts))
	sheets := make([]nomenclature.Sheet, 0, len(texts))
	for _, t := range texts {
		sh, err := c.DecodeAt(t, s)
		if err != nil {
			return nil, err
		}
		self[sh.Nomenclature] = struct{}{}
		sheets = append(sheets, sh)
	}

	seen := make(map[string]struct{})
	var out []string
	for _, sh := range sheets {
		for _, p := range ring(sh, s) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			n, err := c.Encode(p, s)
			if skippable(err) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("probe %v: %w", p, err)
			}
			if _, ok := self[n.Nomenclature]; ok {
				continue
			}
			if _, ok := seen[n.Nomenclature]; ok {
				continue
			}
			seen[n.Nomenclature] = struct{}{}
			out = append(out, n.Nomenclature)
		}
	}
	sort.Strings(out)
	return out, nil
}

// ring returns probe points half an unmerged cell outside the sheet: both
// side neighbors plus every cell-width step along the rows above and below,
// so narrower sheets across a band boundary are not missed.
func ring(sh nomenclature.Sheet, s nomenclature.Scale) []nomenclature.Point {
	w, h := s.CellSize()
	b := sh.BBox
	_, cy := b.Center()

	pts := []nomenclature.Point{
		{Lon: wrap(b.X1 - w/2), Lat: cy},
		{Lon: wrap(b.X2 + w/2), Lat: cy},
	}
	n := int(math.Round(b.Width()/w)) + 2
	for _, y := range []float64{b.Y1 - h/2, b.Y2 + h/2} {
		if y < -90 || y > 90 {
			continue
		}
		for i := 0; i < n; i++ {
			pts = append(pts, nomenclature.Point{Lon: wrap(b.X1 - w/2 + float64(i)*w), Lat: y})
		}
	}
	return pts
}

// Cover returns every sheet of scale s intersecting bb, sorted by name.
func Cover(ctx context.Context, c Codec, bb model.BBox, s nomenclature.Scale, limit int) ([]nomenclature.Sheet, error) {
	if bb.X1 > bb.X2 || bb.Y1 > bb.Y2 || bb.X1 < -180 || bb.X2 > 180 || bb.Y1 < -90 || bb.Y2 > 90 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidBBox, bb)
	}
	w, h := s.CellSize()
	if w == 0 {
		return nil, fmt.Errorf("%w: %d", nomenclature.ErrUnknownScale, int(s))
	}

	c0, c1 := span((bb.X1+180)/w, (bb.X2+180)/w)
	c1 = min(c1, int(math.Round(360/w))-1)
	r0, r1 := span(bb.Y1/h, bb.Y2/h)
	// a merged sheet holds at most four cells
	if limit > 0 && (c1-c0+1)*(r1-r0+1) > 4*limit {
		return nil, fmt.Errorf("%w: %s at %s exceeds %d", ErrTooManySheets, bb, s, limit)
	}

	seen := make(map[string]struct{})
	var out []nomenclature.Sheet
	for r := r0; r <= r1; r++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		y := (float64(r) + 0.5) * h
		if y < -90 || y > 90 {
			continue
		}
		for col := c0; col <= c1; col++ {
			p := nomenclature.Point{Lon: -180 + (float64(col)+0.5)*w, Lat: y}
			sh, err := c.Encode(p, s)
			if skippable(err) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("probe %v: %w", p, err)
			}
			if _, ok := seen[sh.Nomenclature]; ok {
				continue
			}
			seen[sh.Nomenclature] = struct{}{}
			out = append(out, sh)
			if limit > 0 && len(out) > limit {
				return nil, fmt.Errorf("%w: %s at %s exceeds %d", ErrTooManySheets, bb, s, limit)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nomenclature < out[j].Nomenclature })
	return out, nil
}

// span returns the integer cell range covering [lo, hi]. Edges within
// snap of a grid line count as on it.
func span(lo, hi float64) (int, int) {
	const snap = 1e-9
	a, b := int(math.Floor(lo+snap)), int(math.Ceil(hi-snap))-1
	if b < a {
		b = a
	}
	return a, b
}

func wrap(lon float64) float64 {
	switch {
	case lon < -180:
		return lon + 360
	case lon > 180:
		return lon - 360
	}
	return lon
}

// skippable reports probe failures that only mean "no sheet there".
func skippable(err error) bool {
	return errors.Is(err, nomenclature.ErrLatitudeOutOfDomain) || errors.Is(err, nomenclature.ErrUnsupportedMerge)
}
