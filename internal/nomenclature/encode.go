package nomenclature

import (
	"fmt"
	"math"
	"strings"
)

// level is one subdivision below 1:1 000 000.
type level struct {
	alpha *alphabet
	paren bool // 1:5 000 labels are written "(064)"
}

var levels = [...]level{
	Scale500K: {alpha: &cyrUpper},
	Scale200K: {alpha: &roman},
	Scale100K: {alpha: &num144},
	Scale50K:  {alpha: &cyrUpper},
	Scale25K:  {alpha: &cyrLower},
	Scale10K:  {alpha: &num4},
	Scale5K:   {alpha: &num256, paren: true},
	Scale2K:   {alpha: &cyrNine},
}

// chains lists the ancestry of every scale, 1:1 000 000 first.
var chains = [...][]Scale{
	Scale1M:   {Scale1M},
	Scale500K: {Scale1M, Scale500K},
	Scale200K: {Scale1M, Scale200K},
	Scale100K: {Scale1M, Scale100K},
	Scale50K:  {Scale1M, Scale100K, Scale50K},
	Scale25K:  {Scale1M, Scale100K, Scale50K, Scale25K},
	Scale10K:  {Scale1M, Scale100K, Scale50K, Scale25K, Scale10K},
	Scale5K:   {Scale1M, Scale100K, Scale5K},
	Scale2K:   {Scale1M, Scale100K, Scale5K, Scale2K},
}

func gridOf(s Scale) (rows, cols int) {
	if s == Scale1M {
		return worldRows, worldCols
	}
	a := levels[s].alpha
	return a.rows, a.cols
}

// step is the position of a point at one level of the chain.
type step struct {
	scale      Scale
	row, col   int
	rows, cols int
	parent     cell
	cell       cell
}

func descend(x, y float64, s Scale) []step {
	chain := chains[s]
	out := make([]step, 0, len(chain))
	parent := world
	for _, sc := range chain {
		rows, cols := gridOf(sc)
		r, c, child := parent.locate(x, y, rows, cols)
		out = append(out, step{scale: sc, row: r, col: c, rows: rows, cols: cols, parent: parent, cell: child})
		parent = child
	}
	return out
}

// sibling is the cell in the same row of the same parent at column col.
func (st step) sibling(col int) cell {
	return st.parent.child(st.row, col, st.rows, st.cols)
}

func (st step) label(col int, south bool) string {
	if st.scale == Scale1M {
		return columnNumber(col)
	}
	return levels[st.scale].alpha.labelAt(st.row, col, south)
}

func (st step) group(labels []string) string {
	s := strings.Join(labels, ",")
	if st.scale != Scale1M && levels[st.scale].paren {
		return "(" + s + ")"
	}
	return s
}

func (st step) segment(south bool) string {
	return st.group([]string{st.label(st.col, south)})
}

// span returns the labels and extent of the factor-aligned block of
// columns holding the step.
func (st step) span(factor int, south bool) ([]string, extent) {
	first, last := expandMerge(st.col, factor)
	labels := make([]string, 0, factor)
	for c := first; c <= last; c++ {
		labels = append(labels, st.label(c, south))
	}
	return labels, spanOf(st.sibling(first), st.sibling(last))
}

// Encode returns the sheet of scale s covering p.
func Encode(p Point, s Scale) (Sheet, error) {
	if err := p.Validate(); err != nil {
		return Sheet{}, err
	}
	if !s.Valid() {
		return Sheet{}, fmt.Errorf("%w: %d", ErrUnknownScale, int(s))
	}
	return encode(p, s)
}

func encode(p Point, s Scale) (Sheet, error) {
	south := p.Lat < 0
	absLat := math.Abs(p.Lat)

	band, factor, err := mergeFactor(s, absLat)
	if err != nil {
		return Sheet{}, err
	}
	if band == BandPolar {
		name := polarLetter
		if south {
			name += SouthSuffix
		}
		return Sheet{Nomenclature: name, Scale: s, Band: band, BBox: polarExtent.bbox(south), South: south}, nil
	}

	steps := descend(p.Lon, absLat, s)
	own := steps[len(steps)-1]

	segs := make([]string, 0, len(steps)+1)
	segs = append(segs, rowLetter(steps[0].row))

	var frag string
	var ext extent
	if s == Scale1M {
		labels, e := own.span(factor, south)
		frag, ext = own.group(labels), e
	} else {
		for _, st := range steps[:len(steps)-2] {
			segs = append(segs, st.segment(south))
		}
		frag, ext = fragment(steps[len(steps)-2], own, factor, south)
	}
	segs = append(segs, frag)

	name := strings.Join(segs, "-")
	if south {
		name += SouthSuffix
	}
	return Sheet{Nomenclature: name, Scale: s, Band: band, BBox: ext.bbox(south), South: south}, nil
}

// fragment renders the parent label plus the own (possibly merged) labels.
// A block wider than the parent spans adjacent parents, each written with
// the full row of its children: "47-В,Г,48-В,Г".
func fragment(parent, own step, factor int, south bool) (string, extent) {
	if factor <= own.cols {
		labels, ext := own.span(factor, south)
		return parent.segment(south) + "-" + own.group(labels), ext
	}

	row := make([]string, 0, own.cols)
	for c := 0; c < own.cols; c++ {
		row = append(row, own.label(c, south))
	}
	first, last := expandMerge(parent.col, factor/own.cols)
	parts := make([]string, 0, last-first+1)
	for pc := first; pc <= last; pc++ {
		parts = append(parts, parent.group([]string{parent.label(pc, south)})+"-"+own.group(row))
	}
	west := parent.sibling(first).child(own.row, 0, own.rows, own.cols)
	east := parent.sibling(last).child(own.row, own.cols-1, own.rows, own.cols)
	return strings.Join(parts, ","), spanOf(west, east)
}
