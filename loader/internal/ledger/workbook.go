package ledger

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/qaanalytics/qaanalytics/loader/internal/classify"
	"github.com/qaanalytics/qaanalytics/loader/internal/precision"
	"github.com/qaanalytics/qaanalytics/pkg/types"
)

// FlagMarker is written into the flag cell next to an alarmed boundary.
const FlagMarker = "!"

// Workbook is an open output document. It is not safe for concurrent use.
type Workbook struct {
	f      *excelize.File
	styles *Styles
	sheets map[string]struct{}
}

// Open opens the workbook at path.
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("ledger: open %s: %w", path, err)
	}
	return wrap(f), nil
}

func wrap(f *excelize.File) *Workbook {
	w := &Workbook{f: f, styles: newStyles(f), sheets: make(map[string]struct{})}
	for _, s := range f.GetSheetList() {
		w.sheets[s] = struct{}{}
	}
	return w
}

// Close releases the workbook.
func (w *Workbook) Close() error {
	return w.f.Close()
}

// SaveAs writes the workbook to path.
func (w *Workbook) SaveAs(path string) error {
	if err := w.f.SaveAs(path); err != nil {
		return fmt.Errorf("ledger: save %s: %w", path, err)
	}
	return nil
}

// Styles returns the workbook's style cache.
func (w *Workbook) Styles() *Styles { return w.styles }

// Sheets returns the sheet names in workbook order.
func (w *Workbook) Sheets() []string {
	return w.f.GetSheetList()
}

// HasSheet reports whether a sheet named name exists.
func (w *Workbook) HasSheet(name string) bool {
	_, ok := w.sheets[name]
	return ok
}

// RowCount returns the index of the last non-empty row of sheet.
func (w *Workbook) RowCount(sheet string) (int, error) {
	rows, err := w.f.GetRows(sheet)
	if err != nil {
		return 0, fmt.Errorf("ledger: rows of %q: %w", sheet, err)
	}
	return len(rows), nil
}

// Text returns the raw text of a cell.
func (w *Workbook) Text(sheet string, row, col int) (string, error) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", fmt.Errorf("ledger: %w", err)
	}
	v, err := w.f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	if err != nil {
		return "", fmt.Errorf("ledger: read %s!%s: %w", sheet, cell, err)
	}
	return v, nil
}

// NumberFormat returns the number format string declared on a cell, or ""
// for General and text formats.
func (w *Workbook) NumberFormat(sheet string, row, col int) (string, error) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", fmt.Errorf("ledger: %w", err)
	}
	id, err := w.f.GetCellStyle(sheet, cell)
	if err != nil {
		return "", fmt.Errorf("ledger: style of %s!%s: %w", sheet, cell, err)
	}
	st, err := w.f.GetStyle(id)
	if err != nil {
		return "", fmt.Errorf("ledger: style %d: %w", id, err)
	}
	return formatCode(st), nil
}

// Boundary reads one boundary cell. A cell without a numeric value counts as
// zero and a cell without a numeric format compares by exact equality; both
// degradations are logged, not returned.
func (w *Workbook) Boundary(sheet string, row, col int) (classify.Boundary, error) {
	raw, err := w.Text(sheet, row, col)
	if err != nil {
		return classify.Boundary{}, err
	}
	format, err := w.NumberFormat(sheet, row, col)
	if err != nil {
		return classify.Boundary{}, err
	}

	var b classify.Boundary
	if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
		b.Value = v
	} else {
		slog.Warn("ledger: boundary has no numeric value, using 0",
			"sheet", sheet, "row", row, "col", col, "text", raw)
	}
	b.Spec = precision.Parse(format)
	if !b.Spec.Parsed {
		slog.Warn("ledger: boundary format is not numeric, comparing exactly",
			"sheet", sheet, "row", row, "col", col, "format", format)
	}
	return b, nil
}

// Range reads the five boundary cells of the block starting at top.
func (w *Workbook) Range(sheet string, top, col int) (classify.Range, error) {
	var r classify.Range
	for _, t := range types.Tiers {
		b, err := w.Boundary(sheet, top+int(t), col)
		if err != nil {
			return classify.Range{}, err
		}
		r[t] = b
	}
	return r, nil
}

// WriteValue writes an in-range reading with the boundary's number format.
func (w *Workbook) WriteValue(sheet string, row, col int, v float64, format string) error {
	return w.writeFloat(sheet, row, col, v, RoleValue, format)
}

// WriteAlarm writes a best-effort out-of-range reading with the alarm style.
func (w *Workbook) WriteAlarm(sheet string, row, col int, v float64, format string) error {
	return w.writeFloat(sheet, row, col, v, RoleAlarm, format)
}

// Flag marks the flag cell at (row, col) with the alert marker.
func (w *Workbook) Flag(sheet string, row, col int) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("ledger: %w", err)
	}
	if err := w.f.SetCellStr(sheet, cell, FlagMarker); err != nil {
		return fmt.Errorf("ledger: flag %s!%s: %w", sheet, cell, err)
	}
	return w.style(sheet, cell, RoleFlag, "")
}

func (w *Workbook) writeFloat(sheet string, row, col int, v float64, role Role, format string) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("ledger: %w", err)
	}
	if err := w.f.SetCellFloat(sheet, cell, v, -1, 64); err != nil {
		return fmt.Errorf("ledger: write %s!%s: %w", sheet, cell, err)
	}
	return w.style(sheet, cell, role, format)
}

func (w *Workbook) setText(sheet string, row, col int, s string, role Role) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("ledger: %w", err)
	}
	if err := w.f.SetCellStr(sheet, cell, s); err != nil {
		return fmt.Errorf("ledger: write %s!%s: %w", sheet, cell, err)
	}
	return w.style(sheet, cell, role, "")
}

func (w *Workbook) style(sheet, cell string, role Role, format string) error {
	id, err := w.styles.ID(role, format)
	if err != nil {
		return err
	}
	if err := w.f.SetCellStyle(sheet, cell, cell, id); err != nil {
		return fmt.Errorf("ledger: style %s!%s: %w", sheet, cell, err)
	}
	return nil
}
