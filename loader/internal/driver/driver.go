package driver

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/qaanalytics/qaanalytics/loader/internal/classify"
	"github.com/qaanalytics/qaanalytics/loader/internal/config"
	"github.com/qaanalytics/qaanalytics/loader/internal/feed"
	"github.com/qaanalytics/qaanalytics/loader/internal/layout"
	"github.com/qaanalytics/qaanalytics/loader/internal/tracker"
	"github.com/qaanalytics/qaanalytics/pkg/types"
)

// Ledger is the output workbook: boundaries are read from it and
// classified readings are written into it. Sheets are named after elements.
type Ledger interface {
	HasSheet(name string) bool
	Range(sheet string, top, col int) (classify.Range, error)
	WriteValue(sheet string, row, col int, v float64, format string) error
	WriteAlarm(sheet string, row, col int, v float64, format string) error
	Flag(sheet string, row, col int) error
}

// Groups is a stream of sample groups; *feed.Reader satisfies it.
type Groups interface {
	Next() (*feed.Group, error)
	Close() error
}

// OpenFunc opens the feed of machine (1-based) for date. A missing feed must
// yield an error wrapping fs.ErrNotExist.
type OpenFunc func(machine int, date time.Time) (Groups, error)

// MachineDir returns the directory holding machine's feeds.
func MachineDir(workDir string, g config.General, machine int) string {
	return filepath.Join(workDir, g.SampleDir, fmt.Sprintf("%s%d", g.MachineBaseName, machine))
}

// FileOpener opens feeds from the sample directory tree under workDir.
func FileOpener(workDir string, g config.General) OpenFunc {
	opts := []feed.Option{feed.WithMarker(g.SampleMarker), feed.WithComma(g.SampleDelimiter)}
	return func(machine int, date time.Time) (Groups, error) {
		name := feed.FileName(int(date.Month()), date.Day(), date.Year(), g.SampleExt)
		r, err := feed.Open(filepath.Join(MachineDir(workDir, g, machine), name), opts...)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
}

// Driver runs reporting periods against one ledger.
type Driver struct {
	cfg      *config.Config
	geo      layout.Geometry
	loc      *layout.Locator
	out      Ledger
	open     OpenFunc
	expected []string

	// missingSheets remembers elements already reported as having no sheet.
	missingSheets map[string]struct{}
}

// New returns a Driver. loc must be built from the same config and the
// ledger's discovered range rows.
func New(cfg *config.Config, loc *layout.Locator, out Ledger, open OpenFunc) *Driver {
	return &Driver{
		cfg:           cfg,
		geo:           layout.NewGeometry(cfg.Template),
		loc:           loc,
		out:           out,
		open:          open,
		expected:      cfg.SampleNames(),
		missingSheets: make(map[string]struct{}),
	}
}

// Run processes every machine and day of p in order.
func (d *Driver) Run(p Period) (Summary, error) {
	sum := Summary{Period: p, Machines: d.cfg.General.MachineCount}
	start := time.Now()

	for m := 1; m <= d.cfg.General.MachineCount; m++ {
		for day := 1; day <= p.Days(); day++ {
			ds, err := d.RunDay(m, p.Date(day))
			if err != nil {
				return sum, fmt.Errorf("driver: machine %d, %s: %w", m, p.Date(day).Format("2006-01-02"), err)
			}
			sum.add(ds)
		}
	}

	slog.Info("driver: period complete",
		"period", p.String(),
		"machines", sum.Machines,
		"days_read", sum.DaysRead,
		"days_missing", sum.DaysMissing,
		"groups", sum.Groups,
		"values", sum.Values(),
		"alarms", sum.Alarms,
		"duration", time.Since(start).String(),
	)
	return sum, nil
}

// RunDay processes the feed of one machine and date.
func (d *Driver) RunDay(machine int, date time.Time) (Summary, error) {
	var sum Summary

	src, err := d.open(machine, date)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("driver: no feed", "machine", machine, "date", date.Format("2006-01-02"))
			sum.DaysMissing++
			return sum, nil
		}
		return sum, err
	}
	defer src.Close()
	sum.DaysRead++

	day := tracker.NewDay()
	tops := make(map[string]int)
	col := d.geo.DayColumn(date.Day())
	maxTries := d.cfg.General.MaxTries

	for {
		if day.AllDone(d.expected) {
			sum.EarlyExits++
			slog.Debug("driver: every sample settled, skipping rest of feed",
				"machine", machine, "date", date.Format("2006-01-02"))
			break
		}

		g, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return sum, err
		}
		sum.Groups++

		top, mapped, err := d.loc.TopRow(g.Sample, machine)
		if err != nil {
			return sum, err
		}
		if !mapped {
			sum.Ignored++
			continue
		}

		if _, seen := day.Lookup(g.Sample); !seen {
			sum.Checks++
		}
		chk := day.Check(g.Sample)
		if !chk.Begin(maxTries) {
			sum.Exhausted++
			continue
		}
		tops[g.Sample] = top
		sum.Attempts++
		first := chk.First()

		for _, el := range g.Elements {
			if !first && !chk.IsOutOfRange(el.Name) {
				continue
			}
			if err := d.evaluate(chk, el, top, col, &sum); err != nil {
				return sum, err
			}
		}
		chk.Settle(maxTries)
	}

	for _, chk := range day.Unresolved() {
		if err := d.flush(chk, tops[chk.Sample], col, &sum); err != nil {
			return sum, err
		}
	}
	return sum, nil
}

// evaluate classifies one element reading of an attempt.
func (d *Driver) evaluate(chk *tracker.Check, el feed.Element, top, col int, sum *Summary) error {
	raw := strings.TrimSpace(el.Raw)
	if raw == "" {
		return nil
	}
	if !d.sheet(el.Name) {
		return nil
	}

	rng, err := d.out.Range(el.Name, top, d.geo.BoundaryColumn())
	if err != nil {
		return err
	}
	out, err := classify.Classify(rng, raw)
	if err != nil {
		sum.Unreadable++
		slog.Warn("driver: unreadable reading",
			"sample", chk.Sample, "element", el.Name, "raw", raw, "err", err)
		return nil
	}

	if out.Pending {
		chk.Record(el.Name, rng.At(types.TierMax).Value, rng.At(types.TierMin).Value, out.Value)
		slog.Debug("driver: reading out of range",
			"sample", chk.Sample, "element", el.Name, "value", out.Value,
			"direction", out.Direction.String(), "attempt", chk.Attempts())
		return nil
	}

	chk.Clear(el.Name)
	format := rng.At(out.Tier).Spec.Format
	if err := d.out.WriteValue(el.Name, d.geo.TierRow(top, out.Tier), col, out.Value, format); err != nil {
		return err
	}
	sum.Written[out.Tier]++
	return nil
}

// flush writes the closest out-of-range value of every outstanding element
// of chk and flags the boundary it escaped.
func (d *Driver) flush(chk *tracker.Check, top, col int, sum *Summary) error {
	for _, el := range chk.Outstanding() {
		dev, _ := chk.Best(el)
		limit := types.TierMin
		if dev.Excursion.Direction() == types.Above {
			limit = types.TierMax
		}

		rng, err := d.out.Range(el, top, d.geo.BoundaryColumn())
		if err != nil {
			return err
		}
		row := d.geo.TierRow(top, limit)
		if err := d.out.WriteAlarm(el, row, col, dev.Value, rng.At(limit).Spec.Format); err != nil {
			return err
		}
		if err := d.out.Flag(el, row, d.geo.FlagColumn()); err != nil {
			return err
		}
		sum.Alarms++
		slog.Info("driver: out-of-range reading flagged",
			"sample", chk.Sample, "element", el, "value", dev.Value,
			"tier", limit.String(), "attempts", chk.Attempts())
	}
	return nil
}

// sheet reports whether the ledger has a sheet for element, warning once per
// missing element.
func (d *Driver) sheet(element string) bool {
	if d.out.HasSheet(element) {
		return true
	}
	if _, warned := d.missingSheets[element]; !warned {
		d.missingSheets[element] = struct{}{}
		slog.Warn("driver: no sheet for element, readings skipped", "element", element)
	}
	return false
}
