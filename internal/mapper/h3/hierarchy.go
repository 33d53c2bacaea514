package h3mapper

import (
	"fmt"
	"sort"

	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/topo-nomenclature/internal/core/model"
)

func parseCell(s string) (h3.Cell, error) {
	var c h3.Cell
	if err := c.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("parse cell %q: %w", s, err)
	}
	if !c.IsValid() {
		return 0, fmt.Errorf("invalid h3 cell %q", s)
	}
	return c, nil
}

// ToParent returns the ancestor of cell at res; res may equal the cell's own.
func (m *Mapper) ToParent(cell string, res int) (string, error) {
	if err := validateRes(res); err != nil {
		return "", err
	}
	c, err := parseCell(cell)
	if err != nil {
		return "", err
	}
	switch own := c.Resolution(); {
	case res > own:
		return "", fmt.Errorf("parent resolution %d is finer than cell resolution %d", res, own)
	case res == own:
		return cell, nil
	}
	p, err := c.Parent(res)
	if err != nil {
		return "", fmt.Errorf("h3 parent: %w", err)
	}
	return p.String(), nil
}

// ToParents rolls cells up to res, sorted and without duplicates.
func (m *Mapper) ToParents(cells model.Cells, res int) (model.Cells, error) {
	seen := make(map[string]struct{}, len(cells))
	out := make(model.Cells, 0, len(cells))
	for _, cell := range cells {
		p, err := m.ToParent(cell, res)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}
