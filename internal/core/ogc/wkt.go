// Package ogc renders sheets as WKT and GeoJSON.
package ogc

import (
	"strconv"
	"strings"

	"github.com/mohammed-shakir/topo-nomenclature/internal/core/model"
)

// BBoxToWKT writes the ring starting at the lower-left corner and going
// up the western edge first.
func BBoxToWKT(bb model.BBox) string {
	ring := [5][2]float64{
		{bb.X1, bb.Y1}, {bb.X1, bb.Y2}, {bb.X2, bb.Y2}, {bb.X2, bb.Y1}, {bb.X1, bb.Y1},
	}
	var b strings.Builder
	b.WriteString("POLYGON((")
	for i, p := range ring {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(num(p[0]))
		b.WriteByte(' ')
		b.WriteString(num(p[1]))
	}
	b.WriteString("))")
	return b.String()
}

// num prints the shortest form that round-trips.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
