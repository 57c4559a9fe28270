package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/qaanalytics/qaanalytics/loader/internal/driver"
	"github.com/qaanalytics/qaanalytics/pkg/types"
)

// Metric names.
const (
	MetricDays       = "qaloader_days"
	MetricGroups     = "qaloader_sample_groups"
	MetricChecks     = "qaloader_checks"
	MetricAttempts   = "qaloader_attempts"
	MetricValues     = "qaloader_values_written"
	MetricAlarms     = "qaloader_alarms"
	MetricUnreadable = "qaloader_unreadable_readings"
	MetricEarlyExits = "qaloader_early_exits"
	MetricLastRun    = "qaloader_last_run_timestamp_seconds"
)

// series is one labelled value inside a family.
type series struct {
	labels [][2]string
	value  float64
}

// Families converts s into gauge families, sorted by name. finished is the
// time stamped into MetricLastRun.
func Families(s driver.Summary, finished time.Time) []*dto.MetricFamily {
	period := [][2]string{
		{"month", strconv.Itoa(s.Period.Month)},
		{"year", strconv.Itoa(s.Period.Year)},
	}
	with := func(k, v string) [][2]string {
		return append([][2]string{{k, v}}, period...)
	}

	tiers := make([]series, 0, types.TierCount)
	for _, t := range types.Tiers {
		tiers = append(tiers, series{with("tier", t.String()), float64(s.Written[t])})
	}

	return []*dto.MetricFamily{
		gauge(MetricAlarms, "Out-of-range readings written with the alarm style.",
			series{period, float64(s.Alarms)}),
		gauge(MetricAttempts, "Sample occurrences processed against their check.",
			series{period, float64(s.Attempts)}),
		gauge(MetricChecks, "Distinct (sample, machine, day) checks opened.",
			series{period, float64(s.Checks)}),
		gauge(MetricDays, "Machine-days by feed status.",
			series{with("status", "read"), float64(s.DaysRead)},
			series{with("status", "missing"), float64(s.DaysMissing)}),
		gauge(MetricEarlyExits, "Feeds abandoned once every sample was settled.",
			series{period, float64(s.EarlyExits)}),
		gauge(MetricLastRun, "Unix time the run finished.",
			series{period, float64(finished.Unix())}),
		gauge(MetricGroups, "Sample groups read from feeds by outcome.",
			series{with("outcome", "read"), float64(s.Groups)},
			series{with("outcome", "unmapped"), float64(s.Ignored)},
			series{with("outcome", "exhausted"), float64(s.Exhausted)}),
		gauge(MetricUnreadable, "Element readings that were not numeric.",
			series{period, float64(s.Unreadable)}),
		gauge(MetricValues, "In-range readings written by tier.", tiers...),
	}
}

func gauge(name, help string, ss ...series) *dto.MetricFamily {
	mf := &dto.MetricFamily{
		Name: ptr(name),
		Help: ptr(help),
		Type: dto.MetricType_GAUGE.Enum(),
	}
	for _, s := range ss {
		m := &dto.Metric{Gauge: &dto.Gauge{Value: ptr(s.value)}}
		for _, l := range s.labels {
			m.Label = append(m.Label, &dto.LabelPair{Name: ptr(l[0]), Value: ptr(l[1])})
		}
		mf.Metric = append(mf.Metric, m)
	}
	return mf
}

func ptr[T any](v T) *T { return &v }

// Write renders s to w in the text exposition format.
func Write(w io.Writer, s driver.Summary, finished time.Time) error {
	for _, mf := range Families(s, finished) {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("report: encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// WriteTextfile writes s to path. The file is written next to path and
// renamed into place so a collector never reads a partial exposition.
func WriteTextfile(path string, s driver.Summary, finished time.Time) error {
	var buf bytes.Buffer
	if err := Write(&buf, s, finished); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("report: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("report: write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("report: close %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("report: chmod %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("report: rename to %s: %w", path, err)
	}
	return nil
}

// ReadTextfile parses the exposition previously written to path. A missing
// file yields an error wrapping fs.ErrNotExist.
func ReadTextfile(path string) (map[string]*dto.MetricFamily, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("report: open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Changes returns, per metric name, how much s moved from the series of the
// same period in prev. Unchanged metrics and the run timestamp are omitted.
func Changes(prev map[string]*dto.MetricFamily, s driver.Summary) map[string]float64 {
	period := map[string]string{
		"month": strconv.Itoa(s.Period.Month),
		"year":  strconv.Itoa(s.Period.Year),
	}
	out := make(map[string]float64)
	for _, mf := range Families(s, time.Time{}) {
		name := mf.GetName()
		if name == MetricLastRun {
			continue
		}
		if d := Sum(mf, period) - Sum(prev[name], period); d != 0 {
			out[name] = d
		}
	}
	return out
}

// Parse decodes a text exposition from r into metric families.
// A partial result with a non-fatal parse warning is still returned successfully.
func Parse(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("report: parse prometheus text: %w", err)
	}
	return mfs, nil
}

// Sum adds up the gauge values of mf whose labels include every pair in match.
// Returns 0 if mf is nil.
func Sum(mf *dto.MetricFamily, match map[string]string) float64 {
	if mf == nil {
		return 0
	}
	var total float64
	for _, m := range mf.GetMetric() {
		if !matches(m, match) {
			continue
		}
		switch {
		case m.Gauge != nil:
			total += m.Gauge.GetValue()
		case m.Untyped != nil:
			total += m.Untyped.GetValue()
		}
	}
	return total
}

func matches(m *dto.Metric, match map[string]string) bool {
	for k, v := range match {
		found := false
		for _, lp := range m.GetLabel() {
			if lp.GetName() == k && lp.GetValue() == v {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
