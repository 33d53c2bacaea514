package nomenclature

import (
	"fmt"
	"math"

	"github.com/mohammed-shakir/topo-nomenclature/internal/core/model"
)

// Point is a geographic coordinate in degrees.
type Point struct {
	Lon float64
	Lat float64
}

// Validate checks the point against [-180,180] x [-90,90].
func (p Point) Validate() error {
	if math.IsNaN(p.Lon) || p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("%w: %v not in [-180,180]", ErrLongitudeOutOfDomain, p.Lon)
	}
	if math.IsNaN(p.Lat) || p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: %v not in [-90,90]", ErrLatitudeOutOfDomain, p.Lat)
	}
	return nil
}

// Sheet is one map sheet: its name, scale and extent.
type Sheet struct {
	Nomenclature string     `json:"nomenclature"`
	Scale        Scale      `json:"scale"`
	Band         Band       `json:"band"`
	BBox         model.BBox `json:"bbox"`
	South        bool       `json:"south"`
}

// Center returns the midpoint of the sheet.
func (s Sheet) Center() Point {
	x, y := s.BBox.Center()
	return Point{Lon: x, Lat: y}
}

// extent is a bbox in the absolute-latitude frame.
type extent struct {
	x1, x2 float64
	y1, y2 float64
}

var polarExtent = extent{x1: -180, x2: 180, y1: worldRows * 4, y2: 90}

// spanOf joins two cells of the same row into one extent.
func spanOf(first, last cell) extent {
	return extent{x1: first.x, x2: last.x + last.w, y1: first.y, y2: first.y + first.h}
}

func (e extent) bbox(south bool) model.BBox {
	if south {
		return model.BBox{X1: e.x1, Y1: -e.y2, X2: e.x2, Y2: -e.y1, SRID: model.SRID4326}
	}
	return model.BBox{X1: e.x1, Y1: e.y1, X2: e.x2, Y2: e.y2, SRID: model.SRID4326}
}
