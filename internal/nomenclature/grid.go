package nomenclature

import "math"

// cell is a rectangle in the absolute-latitude frame: x is signed
// longitude, y is latitude magnitude.
type cell struct {
	x, y float64 // south-west corner
	w, h float64
}

// world is the 1:1 000 000 root: 60 x 22 sheets of 6 x 4 degrees.
var world = cell{x: -180, y: 0, w: 360, h: worldRows * 4}

// locate finds the child holding (x, y) in a rows x cols subdivision.
// Indices are clamped so points on the upper edges stay in range.
func (c cell) locate(x, y float64, rows, cols int) (row, col int, child cell) {
	w, h := c.w/float64(cols), c.h/float64(rows)
	col = clamp(int(math.Floor((x-c.x)/w)), 0, cols-1)
	row = clamp(int(math.Floor((y-c.y)/h)), 0, rows-1)
	return row, col, c.child(row, col, rows, cols)
}

func (c cell) child(row, col, rows, cols int) cell {
	w, h := c.w/float64(cols), c.h/float64(rows)
	return cell{x: c.x + float64(col)*w, y: c.y + float64(row)*h, w: w, h: h}
}

func (c cell) center() (float64, float64) {
	return c.x + c.w/2, c.y + c.h/2
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
