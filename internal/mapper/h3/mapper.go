package h3mapper

import (
	"errors"
	"fmt"
	"math"
	"sort"

	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/topo-nomenclature/internal/core/model"
	"github.com/mohammed-shakir/topo-nomenclature/internal/mapper"
)

var _ mapper.Interface = (*Mapper)(nil)

// maxStrip keeps every loop edge well under 180 degrees of longitude, so
// H3 never reads a wide sheet as crossing the antimeridian.
const maxStrip = 90.0

// maxLat keeps loop vertices off the poles, where every longitude meets.
const maxLat = 89.999999

type Mapper struct{}

func New() *Mapper { return &Mapper{} }

// CellsForBBox returns the sorted cells whose centers fall inside bb. A
// box smaller than one cell yields the cell holding its center.
func (m *Mapper) CellsForBBox(bb model.BBox, res int) (model.Cells, error) {
	if err := validateRes(res); err != nil {
		return nil, err
	}
	if bb.X2 <= bb.X1 || bb.Y2 <= bb.Y1 {
		return nil, fmt.Errorf("empty bbox %s", bb)
	}

	y1, y2 := math.Max(bb.Y1, -maxLat), math.Min(bb.Y2, maxLat)

	seen := make(map[string]struct{})
	var out []string
	strips := int(math.Ceil(bb.Width() / maxStrip))
	step := bb.Width() / float64(strips)
	for i := 0; i < strips; i++ {
		x1 := bb.X1 + float64(i)*step
		x2 := x1 + step
		if i == strips-1 {
			x2 = bb.X2
		}
		// rectangular loop in degrees
		outer := h3.GeoLoop{
			{Lat: y1, Lng: x1},
			{Lat: y1, Lng: x2},
			{Lat: y2, Lng: x2},
			{Lat: y2, Lng: x1},
		}
		cells, err := polyfillOne(outer, nil, res)
		if err != nil {
			return nil, err
		}
		for _, c := range cells {
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				out = append(out, c)
			}
		}
	}

	if len(out) == 0 {
		x, y := bb.Center()
		c, err := h3.LatLngToCell(h3.LatLng{Lat: y, Lng: x}, res)
		if err != nil {
			return nil, fmt.Errorf("h3 cell: %w", err)
		}
		return model.Cells{c.String()}, nil
	}
	sort.Strings(out)
	return out, nil
}

func validateRes(res int) error {
	if res < 0 || res > 15 {
		return fmt.Errorf("invalid H3 resolution %d (must be 0..15)", res)
	}
	return nil
}

// polyfillOne computes unique cells and returns them sorted for determinism.
func polyfillOne(outer h3.GeoLoop, holes []h3.GeoLoop, res int) (model.Cells, error) {
	if len(outer) < 4 {
		return nil, errors.New("outer ring has < 4 vertices")
	}
	poly := h3.GeoPolygon{
		GeoLoop: outer,
		Holes:   holes,
	}

	indexes, err := h3.PolygonToCells(poly, res)
	if err != nil {
		return nil, fmt.Errorf("h3 polyfill: %w", err)
	}

	out := make([]string, 0, len(indexes))
	seen := make(map[string]struct{}, len(indexes))
	for _, idx := range indexes {
		s := idx.String()
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}
