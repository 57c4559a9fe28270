package ledger

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/qaanalytics/qaanalytics/loader/internal/layout"
	"github.com/qaanalytics/qaanalytics/pkg/types"
)

// daysInLongestMonth is the number of day columns a template carries.
const daysInLongestMonth = 31

// BlueprintRange describes one range block of a template.
type BlueprintRange struct {
	Name string
	// Bounds are the boundary values in tier order (Max first).
	Bounds [types.TierCount]float64
	// Format is the number format of the boundary cells, e.g. "0.0".
	Format string
}

// Blueprint is the content of a template workbook: one sheet per element,
// each holding every range block once per machine.
type Blueprint struct {
	Elements []string
	Ranges   []BlueprintRange
	Machines int
}

// DefaultBlueprint matches the embedded default configuration.
func DefaultBlueprint() Blueprint {
	return Blueprint{
		Elements: []string{"GLU", "CHOL", "TRIG"},
		Ranges: []BlueprintRange{
			{Name: "Level 1", Bounds: [types.TierCount]float64{110, 105, 100, 95, 90}, Format: "0.0"},
			{Name: "Level 2", Bounds: [types.TierCount]float64{230, 220, 210, 200, 190}, Format: "0.0"},
			{Name: "Level 3", Bounds: [types.TierCount]float64{330, 315, 300, 285, 270}, Format: "0"},
		},
		Machines: 2,
	}
}

// BuildTemplate lays out bp with geometry g in a new workbook.
// Range blocks follow each other at g.RowsPerRange rows; machine replicas
// follow each other at RowsPerRange*len(bp.Ranges) rows.
func BuildTemplate(g layout.Geometry, bp Blueprint) (*Workbook, error) {
	if len(bp.Elements) == 0 {
		return nil, fmt.Errorf("ledger: blueprint has no elements")
	}
	machines := bp.Machines
	if machines < 1 {
		machines = 1
	}

	f := excelize.NewFile()
	first := f.GetSheetName(0)
	if err := f.SetSheetName(first, bp.Elements[0]); err != nil {
		return nil, fmt.Errorf("ledger: rename sheet: %w", err)
	}
	for _, el := range bp.Elements[1:] {
		if _, err := f.NewSheet(el); err != nil {
			return nil, fmt.Errorf("ledger: new sheet %q: %w", el, err)
		}
	}

	w := wrap(f)
	section := g.RowsPerRange * len(bp.Ranges)
	for _, el := range bp.Elements {
		if err := w.layoutSheet(el, g, bp, machines, section); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func (w *Workbook) layoutSheet(sheet string, g layout.Geometry, bp Blueprint, machines, section int) error {
	if header := g.FirstRow - 1; header >= 1 {
		if err := w.setText(sheet, header, g.RangesColumn, sheet, RoleHeader); err != nil {
			return err
		}
		for day := 1; day <= daysInLongestMonth; day++ {
			if err := w.setText(sheet, header, g.DayColumn(day), fmt.Sprint(day), RoleHeader); err != nil {
				return err
			}
		}
	}

	for m := 0; m < machines; m++ {
		for k, rng := range bp.Ranges {
			top := g.FirstRow + m*section + k*g.RowsPerRange
			if err := w.setText(sheet, top+g.NameRow, g.RangesColumn, rng.Name, RoleValue); err != nil {
				return err
			}
			for _, t := range types.Tiers {
				row := g.TierRow(top, t)
				if err := w.writeFloat(sheet, row, g.BoundaryColumn(), rng.Bounds[t], RoleBoundary, rng.Format); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
