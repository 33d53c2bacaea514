// Package mapper converts between geographic extents and H3 cells.
package mapper

import (
	"github.com/mohammed-shakir/topo-nomenclature/internal/core/model"
)

type Interface interface {
	CellsForBBox(bb model.BBox, res int) (model.Cells, error)
	ToParents(cells model.Cells, res int) (model.Cells, error)
}
