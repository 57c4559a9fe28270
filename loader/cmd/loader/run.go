package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os/signal"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/qaanalytics/qaanalytics/loader/internal/config"
	"github.com/qaanalytics/qaanalytics/loader/internal/driver"
	"github.com/qaanalytics/qaanalytics/loader/internal/feed"
	"github.com/qaanalytics/qaanalytics/loader/internal/layout"
	"github.com/qaanalytics/qaanalytics/loader/internal/ledger"
	"github.com/qaanalytics/qaanalytics/loader/internal/report"
)

// rerunDelay coalesces bursts of file events into one rerun.
const rerunDelay = 500 * time.Millisecond

type runOptions struct {
	month      int
	year       int
	dir        string
	configPath string
	metrics    string
	watch      bool
}

func newRunCmd() *cobra.Command {
	now := time.Now()
	opts := runOptions{month: int(now.Month()), year: now.Year()}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fill the workbook for one month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoader(cmd.Context(), opts)
		},
	}
	f := cmd.Flags()
	f.IntVar(&opts.month, "month", opts.month, "month to process (1-12)")
	f.IntVar(&opts.year, "year", opts.year, fmt.Sprintf("year to process (%d or later)", driver.FirstYear))
	f.StringVar(&opts.dir, "dir", ".", "working directory holding the template and sample directories")
	f.StringVar(&opts.configPath, "config", "loader.yaml", "path to the config file, relative to --dir unless absolute")
	f.StringVar(&opts.metrics, "metrics", "", "write a Prometheus textfile with the run summary to this path")
	f.BoolVar(&opts.watch, "watch", false, "rerun whenever a feed or the config changes")
	return cmd
}

func (o runOptions) resolvedConfig() string {
	if filepath.IsAbs(o.configPath) {
		return o.configPath
	}
	return filepath.Join(o.dir, o.configPath)
}

// OutputPath returns the workbook path for p: the template's stem with the
// period appended, next to the template.
func OutputPath(templatePath string, p driver.Period) string {
	ext := filepath.Ext(templatePath)
	stem := strings.TrimSuffix(templatePath, ext)
	if ext == "" {
		ext = ".xlsx"
	}
	return fmt.Sprintf("%s-%04d-%02d%s", stem, p.Year, p.Month, ext)
}

func runLoader(ctx context.Context, opts runOptions) error {
	p := driver.Period{Month: opts.month, Year: opts.year}
	if err := p.Validate(time.Now()); err != nil {
		return err
	}

	cfgPath := opts.resolvedConfig()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"path", cfgPath,
		"mappings", len(cfg.Mappings),
		"machines", cfg.General.MachineCount,
		"max_tries", cfg.General.MaxTries,
	)

	if _, err := runPeriod(cfg, p, opts.dir, opts.metrics); err != nil {
		return err
	}
	if !opts.watch {
		return nil
	}
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return watchPeriod(ctx, cfg, cfgPath, p, opts)
}

// runPeriod fills one month: the template is opened, filled and saved under
// the period's output name, leaving the template itself untouched.
func runPeriod(cfg *config.Config, p driver.Period, dir, metricsPath string) (driver.Summary, error) {
	templatePath := filepath.Join(dir, cfg.General.OutputTemplate)
	wb, err := ledger.Open(templatePath)
	if err != nil {
		return driver.Summary{}, err
	}
	defer wb.Close()

	g := layout.NewGeometry(cfg.Template)
	tops, err := discover(wb, g, cfg.RangeNames())
	if err != nil {
		return driver.Summary{}, err
	}

	d := driver.New(cfg, layout.NewLocator(g, cfg.Mappings, tops), wb, driver.FileOpener(dir, cfg.General))
	sum, err := d.Run(p)
	if err != nil {
		return sum, err
	}

	out := OutputPath(templatePath, p)
	if err := wb.SaveAs(out); err != nil {
		return sum, err
	}
	slog.Info("workbook written", "path", out, "values", sum.Values(), "alarms", sum.Alarms)

	if metricsPath != "" {
		if err := writeMetrics(metricsPath, sum); err != nil {
			return sum, err
		}
	}
	return sum, nil
}

// writeMetrics replaces the textfile at path with sum, logging what changed
// since the summary the file held before.
func writeMetrics(path string, sum driver.Summary) error {
	prev, err := report.ReadTextfile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		slog.Warn("previous metrics unreadable, not comparing", "path", path, "err", err)
	default:
		if changes := report.Changes(prev, sum); len(changes) > 0 {
			attrs := make([]any, 0, 2*len(changes)+2)
			attrs = append(attrs, "period", sum.Period.String())
			for _, name := range sortedKeys(changes) {
				attrs = append(attrs, name, changes[name])
			}
			slog.Info("summary changed since previous run", attrs...)
		}
	}
	return report.WriteTextfile(path, sum, time.Now())
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// discover locates the range blocks on the first sheet; every element sheet
// shares that layout.
func discover(wb *ledger.Workbook, g layout.Geometry, ranges []string) (map[string]int, error) {
	sheets := wb.Sheets()
	if len(sheets) == 0 {
		return nil, errors.New("template has no sheets")
	}
	first := sheets[0]
	rows, err := wb.RowCount(first)
	if err != nil {
		return nil, err
	}
	return layout.Discover(g, ranges, rows, func(row int) (string, error) {
		return wb.Text(first, row, g.RangesColumn)
	})
}

// watchPeriod reruns p whenever a feed file or the config changes, until ctx
// is cancelled. Runs are sequential; events arriving during a run schedule
// one more run. A reload that moves the feeds retargets the feed watcher.
func watchPeriod(ctx context.Context, cfg *config.Config, cfgPath string, p driver.Period, opts runOptions) error {
	trigger := make(chan struct{}, 1)
	poke := func() {
		select {
		case trigger <- struct{}{}:
		default:
		}
	}

	reloads := make(chan *config.Config)
	go func() {
		if err := config.Watch(ctx, cfgPath, func(updated *config.Config) {
			select {
			case reloads <- updated:
			case <-ctx.Done():
			}
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	fw := &feedWatch{dir: opts.dir, poke: poke}
	fw.retarget(ctx, cfg.General)
	defer fw.stop()

	current := cfg
	for {
		select {
		case <-ctx.Done():
			slog.Info("loader shutting down")
			return nil
		case current = <-reloads:
			if fw.retarget(ctx, current.General) {
				slog.Info("feed watch retargeted", "dirs", len(fw.dirs), "ext", fw.suffix)
			}
			poke()
			continue
		case <-trigger:
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(rerunDelay):
		}

		if _, err := runPeriod(current, p, opts.dir, opts.metrics); err != nil {
			slog.Error("rerun failed", "period", p.String(), "err", err)
		}
	}
}

// feedWatch runs feed.WatchDirs over the machine directories of one config
// and restarts it when those directories or the feed extension change.
type feedWatch struct {
	dir  string
	poke func()

	dirs   []string
	suffix string
	cancel context.CancelFunc
	done   chan struct{}
}

// retarget points the watcher at g's feeds. It reports whether the watcher
// was (re)started.
func (w *feedWatch) retarget(ctx context.Context, g config.General) bool {
	dirs := make([]string, 0, g.MachineCount)
	for m := 1; m <= g.MachineCount; m++ {
		dirs = append(dirs, driver.MachineDir(w.dir, g, m))
	}
	suffix := "." + g.SampleExt
	if w.cancel != nil && slices.Equal(dirs, w.dirs) && suffix == w.suffix {
		return false
	}
	w.stop()

	wctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := feed.WatchDirs(wctx, dirs, func(name string) bool {
			return strings.HasSuffix(name, suffix)
		}, func(string) { w.poke() }); err != nil {
			slog.Error("feed watcher stopped", "err", err)
		}
	}()
	w.dirs, w.suffix, w.cancel, w.done = dirs, suffix, cancel, done
	return true
}

// stop ends the running watcher, if any, and waits for it to exit.
func (w *feedWatch) stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
	w.cancel, w.done = nil, nil
}
