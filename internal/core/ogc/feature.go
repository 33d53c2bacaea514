package ogc

import (
	"github.com/mohammed-shakir/topo-nomenclature/internal/core/model"
	"github.com/mohammed-shakir/topo-nomenclature/internal/nomenclature"
)

type Geometry struct {
	Type        string         `json:"type"`
	Coordinates [][][2]float64 `json:"coordinates"`
}

type Properties struct {
	Nomenclature string `json:"nomenclature"`
	Scale        string `json:"scale"`
	Denominator  int    `json:"denominator"`
	Band         string `json:"band"`
	South        bool   `json:"south"`
}

type Feature struct {
	Type       string     `json:"type"`
	ID         string     `json:"id,omitempty"`
	BBox       [4]float64 `json:"bbox"`
	Geometry   Geometry   `json:"geometry"`
	Properties Properties `json:"properties"`
}

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// BBoxPolygon is the GeoJSON ring of bb, counter-clockwise per RFC 7946.
func BBoxPolygon(bb model.BBox) Geometry {
	return Geometry{
		Type: "Polygon",
		Coordinates: [][][2]float64{{
			{bb.X1, bb.Y1}, {bb.X2, bb.Y1}, {bb.X2, bb.Y2}, {bb.X1, bb.Y2}, {bb.X1, bb.Y1},
		}},
	}
}

func SheetFeature(s nomenclature.Sheet) Feature {
	return Feature{
		Type:     "Feature",
		ID:       s.Nomenclature,
		BBox:     [4]float64{s.BBox.X1, s.BBox.Y1, s.BBox.X2, s.BBox.Y2},
		Geometry: BBoxPolygon(s.BBox),
		Properties: Properties{
			Nomenclature: s.Nomenclature,
			Scale:        s.Scale.String(),
			Denominator:  s.Scale.Denominator(),
			Band:         s.Band.String(),
			South:        s.South,
		},
	}
}

// SheetCollection never encodes features as null.
func SheetCollection(sheets []nomenclature.Sheet) FeatureCollection {
	fc := FeatureCollection{Type: "FeatureCollection", Features: make([]Feature, 0, len(sheets))}
	for _, s := range sheets {
		fc.Features = append(fc.Features, SheetFeature(s))
	}
	return fc
}
