package layout

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/qaanalytics/qaanalytics/loader/internal/config"
	"github.com/qaanalytics/qaanalytics/pkg/types"
)

// ErrMapping is returned when a mapped range name has no row in the template.
var ErrMapping = errors.New("range has no layout row")

// Geometry is the fixed layout of one machine section. Rows and columns are
// 1-based, as in the config document.
type Geometry struct {
	FirstRow     int
	NameRow      int
	RowsPerRange int
	Day1Column   int
	RangesColumn int
}

// NewGeometry builds a Geometry from the Template config section.
func NewGeometry(t config.Template) Geometry {
	return Geometry{
		FirstRow:     t.FirstRow,
		NameRow:      t.NameRow,
		RowsPerRange: t.NumRows,
		Day1Column:   t.Day1Column,
		RangesColumn: t.RangesColumn,
	}
}

// BoundaryColumn holds the five boundary values of each block.
func (g Geometry) BoundaryColumn() int { return g.RangesColumn + 1 }

// FlagColumn holds the alarm markers next to the Max and Min boundaries.
func (g Geometry) FlagColumn() int { return g.RangesColumn + 2 }

// DayColumn returns the value column for day (1-based).
func (g Geometry) DayColumn(day int) int { return g.Day1Column + day - 1 }

// TierRow returns the row of tier t inside the block starting at top.
func (g Geometry) TierRow(top int, t types.Tier) int { return top + int(t) }

// FirstNameRow is the row holding the name of the first range block.
func (g Geometry) FirstNameRow() int { return g.FirstRow + g.NameRow }

// NameReader returns the text in the ranges column at row.
type NameReader func(row int) (string, error)

// Discover scans the ranges column from the first name row at a stride of
// RowsPerRange and records the top row of each expected range the first time
// its name is found. Scanning stops when every range is located or lastRow is
// passed. Ranges that are never found are simply absent from the result.
func Discover(g Geometry, ranges []string, lastRow int, read NameReader) (map[string]int, error) {
	want := make(map[string]struct{}, len(ranges))
	for _, r := range ranges {
		want[r] = struct{}{}
	}
	tops := make(map[string]int, len(ranges))

	for row := g.FirstNameRow(); row <= lastRow && len(tops) < len(want); row += g.RowsPerRange {
		name, err := read(row)
		if err != nil {
			return nil, fmt.Errorf("layout: read range name at row %d: %w", row, err)
		}
		name = strings.TrimSpace(name)
		if _, ok := want[name]; !ok {
			continue
		}
		if _, seen := tops[name]; seen {
			continue
		}
		tops[name] = row - g.NameRow
		slog.Debug("layout: range located", "range", name, "top_row", row-g.NameRow)
	}

	for _, r := range ranges {
		if _, ok := tops[r]; !ok {
			slog.Warn("layout: range not found in template", "range", r)
		}
	}
	return tops, nil
}

// Locator resolves sample names to block top rows.
type Locator struct {
	mappings    map[string]string
	tops        map[string]int
	sectionSize int
}

// NewLocator returns a Locator for the given sample→range mapping and the
// range top rows found by Discover. The machine section size is the rows per
// range times the number of distinct mapped ranges.
func NewLocator(g Geometry, mappings map[string]string, tops map[string]int) *Locator {
	distinct := make(map[string]struct{}, len(mappings))
	for _, r := range mappings {
		distinct[r] = struct{}{}
	}
	return &Locator{
		mappings:    mappings,
		tops:        tops,
		sectionSize: g.RowsPerRange * len(distinct),
	}
}

// SectionSize is the row stride between machine replicas.
func (l *Locator) SectionSize() int { return l.sectionSize }

// TopRow returns the top row of sample's range block for machine (1-based).
// ok is false when the sample is not mapped, which marks an informational
// record rather than a classified sample. A mapped sample whose range has no
// template row yields an error wrapping ErrMapping.
func (l *Locator) TopRow(sample string, machine int) (row int, ok bool, err error) {
	rng, mapped := l.mappings[sample]
	if !mapped {
		return 0, false, nil
	}
	top, found := l.tops[rng]
	if !found {
		return 0, false, fmt.Errorf("layout: sample %q: range %q: %w", sample, rng, ErrMapping)
	}
	return top + (machine-1)*l.sectionSize, true, nil
}
