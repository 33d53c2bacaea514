// Package model defines core domain types shared across the service.
package model

import "fmt"

// SRID4326 is the only reference system the service speaks.
const SRID4326 = "EPSG:4326"

// BBox is a closed lon/lat rectangle: X1<=X2 and Y1<=Y2.
type BBox struct {
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
	X2   float64 `json:"x2"`
	Y2   float64 `json:"y2"`
	SRID string  `json:"srid"`
}

// String representation matching wfs/wms bbox format
func (b BBox) String() string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f,%s", b.X1, b.Y1, b.X2, b.Y2, b.SRID)
}

func (b BBox) Width() float64  { return b.X2 - b.X1 }
func (b BBox) Height() float64 { return b.Y2 - b.Y1 }

// Center returns the midpoint as (lon, lat).
func (b BBox) Center() (float64, float64) {
	return b.X1 + b.Width()/2, b.Y1 + b.Height()/2
}

// Contains reports whether (x, y) lies inside the closed rectangle.
func (b BBox) Contains(x, y float64) bool {
	return x >= b.X1 && x <= b.X2 && y >= b.Y1 && y <= b.Y2
}

// Intersects reports whether the two rectangles share any area.
func (b BBox) Intersects(o BBox) bool {
	return b.X1 < o.X2 && o.X1 < b.X2 && b.Y1 < o.Y2 && o.Y1 < b.Y2
}

type Cells []string
