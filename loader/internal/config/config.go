package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// ErrConfiguration is returned (wrapped) when a required key is missing or malformed.
var ErrConfiguration = errors.New("configuration error")

// Default values applied when optional keys are absent from the config file.
const (
	DefaultSampleExt      = "rep"
	DefaultSampleMarker   = "*"
	DefaultDelimiter      = ","
	DefaultOutputTemplate = "QCTemplate.xlsx"
)

// Section key names as they appear in the config document.
const (
	KeyFirstRow     = "section.firstRow"
	KeyNameRow      = "section.nameRow"
	KeyNumRows      = "section.numRows"
	KeyDay1Column   = "column.day1"
	KeyRangesColumn = "column.ranges"

	KeySampleDir       = "sample.dir"
	KeySampleTry       = "sample.try"
	KeyMachineCount    = "machine.count"
	KeyMachineBaseName = "machine.base.name"
	KeySampleExt       = "sample.ext"
	KeySampleMarker    = "sample.marker"
	KeySampleDelimiter = "sample.delimiter"
	KeyOutputTemplate  = "output.template"
)

// minRowsPerRange is the number of tier rows every range block must hold.
const minRowsPerRange = 5

// DefaultDocument is the configuration written by the template command.
//
//go:embed default.yaml
var DefaultDocument []byte

// Config is the immutable run configuration. It is loaded once per run.
type Config struct {
	// Mappings maps a sample name (as it appears in the feed) to a range name
	// (as it appears in the ranges column of the output template).
	Mappings map[string]string

	Template Template
	General  General
}

// Template holds the layout geometry of the output workbook.
// Rows and columns are 1-based.
type Template struct {
	// FirstRow is the top row of the first range block of machine 1.
	FirstRow int
	// NameRow is the offset of the range name row inside a range block.
	NameRow int
	// NumRows is the number of rows occupied by one range block.
	NumRows int
	// Day1Column is the column holding day 1 values; day n is Day1Column+n-1.
	Day1Column int
	// RangesColumn holds range names; boundaries sit one column to its right
	// and alarm flags two columns to its right.
	RangesColumn int
}

// General holds sample feed and machine settings.
type General struct {
	SampleDir       string
	MaxTries        int
	MachineCount    int
	MachineBaseName string
	SampleExt       string
	SampleMarker    string
	SampleDelimiter rune
	OutputTemplate  string
}

// document mirrors the on-disk section layout. Values stay untyped until
// validation so that both `4` and `"4"` are accepted.
type document struct {
	Mappings map[string]any `yaml:"Mappings"`
	Template map[string]any `yaml:"Template"`
	General  map[string]any `yaml:"General"`
}

// Load reads and parses the config document at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a config document.
func Parse(data []byte) (*Config, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w: %v", ErrConfiguration, err)
	}
	cfg, err := build(&doc)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// RangeNames returns the distinct range names referenced by Mappings, sorted.
func (c *Config) RangeNames() []string {
	seen := make(map[string]struct{}, len(c.Mappings))
	out := make([]string, 0, len(c.Mappings))
	for _, r := range c.Mappings {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// SampleNames returns every mapped sample name, sorted.
func (c *Config) SampleNames() []string {
	out := make([]string, 0, len(c.Mappings))
	for s := range c.Mappings {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func build(doc *document) (*Config, error) {
	cfg := &Config{Mappings: make(map[string]string, len(doc.Mappings))}

	if len(doc.Mappings) == 0 {
		return nil, fmt.Errorf("%w: Mappings section is empty", ErrConfiguration)
	}
	for sample, v := range doc.Mappings {
		name := strings.TrimSpace(scalar(v))
		if strings.TrimSpace(sample) == "" || name == "" {
			return nil, fmt.Errorf("%w: Mappings: %q has no range name", ErrConfiguration, sample)
		}
		cfg.Mappings[strings.TrimSpace(sample)] = name
	}

	t := section{name: "Template", values: doc.Template}
	cfg.Template = Template{
		FirstRow:     t.integer(KeyFirstRow),
		NameRow:      t.integer(KeyNameRow),
		NumRows:      t.integer(KeyNumRows),
		Day1Column:   t.column(KeyDay1Column),
		RangesColumn: t.column(KeyRangesColumn),
	}
	if t.err != nil {
		return nil, t.err
	}

	g := section{name: "General", values: doc.General}
	cfg.General = General{
		SampleDir:       g.text(KeySampleDir),
		MaxTries:        g.integer(KeySampleTry),
		MachineCount:    g.integer(KeyMachineCount),
		MachineBaseName: g.text(KeyMachineBaseName),
		SampleExt:       strings.TrimPrefix(g.optional(KeySampleExt, DefaultSampleExt), "."),
		SampleMarker:    g.optional(KeySampleMarker, DefaultSampleMarker),
		SampleDelimiter: g.delimiter(KeySampleDelimiter),
		OutputTemplate:  g.optional(KeyOutputTemplate, DefaultOutputTemplate),
	}
	if g.err != nil {
		return nil, g.err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks structural constraints between already-parsed keys.
func validate(cfg *Config) error {
	t := cfg.Template
	if t.FirstRow < 1 {
		return fmt.Errorf("%w: Template.%s must be >= 1", ErrConfiguration, KeyFirstRow)
	}
	if t.NumRows < minRowsPerRange {
		return fmt.Errorf("%w: Template.%s must be >= %d", ErrConfiguration, KeyNumRows, minRowsPerRange)
	}
	if t.NameRow < 0 || t.NameRow >= t.NumRows {
		return fmt.Errorf("%w: Template.%s must lie in [0, %d)", ErrConfiguration, KeyNameRow, t.NumRows)
	}
	if t.Day1Column <= t.RangesColumn+2 {
		return fmt.Errorf("%w: Template.%s must be right of the boundary and flag columns", ErrConfiguration, KeyDay1Column)
	}
	g := cfg.General
	if g.MaxTries < 1 {
		return fmt.Errorf("%w: General.%s must be >= 1", ErrConfiguration, KeySampleTry)
	}
	if g.MachineCount < 1 {
		return fmt.Errorf("%w: General.%s must be >= 1", ErrConfiguration, KeyMachineCount)
	}
	if g.SampleMarker == "" {
		return fmt.Errorf("%w: General.%s must not be empty", ErrConfiguration, KeySampleMarker)
	}
	if !validDelimiter(g.SampleDelimiter) {
		return fmt.Errorf("%w: General.%s %q cannot separate feed fields", ErrConfiguration, KeySampleDelimiter, g.SampleDelimiter)
	}
	return nil
}

// validDelimiter mirrors the field separators encoding/csv accepts.
func validDelimiter(r rune) bool {
	return r != 0 && r != '"' && r != '\r' && r != '\n' && utf8.ValidRune(r) && r != utf8.RuneError
}

// section converts raw section values, remembering the first failure so that
// callers can read every key and check once.
type section struct {
	name   string
	values map[string]any
	err    error
}

func (s *section) fail(key, format string, args ...any) {
	if s.err == nil {
		s.err = fmt.Errorf("%w: %s.%s %s", ErrConfiguration, s.name, key, fmt.Sprintf(format, args...))
	}
}

func (s *section) lookup(key string) (string, bool) {
	v, ok := s.values[key]
	if !ok || v == nil {
		return "", false
	}
	return strings.TrimSpace(scalar(v)), true
}

func (s *section) integer(key string) int {
	raw, ok := s.lookup(key)
	if !ok || raw == "" {
		s.fail(key, "is required")
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		s.fail(key, "is not numeric: %q", raw)
		return 0
	}
	return n
}

func (s *section) column(key string) int {
	raw, ok := s.lookup(key)
	if !ok || raw == "" {
		s.fail(key, "is required")
		return 0
	}
	n, err := excelize.ColumnNameToNumber(raw)
	if err != nil {
		s.fail(key, "is not a column letter: %q", raw)
		return 0
	}
	return n
}

func (s *section) text(key string) string {
	raw, ok := s.lookup(key)
	if !ok || raw == "" {
		s.fail(key, "is required")
	}
	return raw
}

func (s *section) optional(key, def string) string {
	raw, ok := s.lookup(key)
	if !ok || raw == "" {
		return def
	}
	return raw
}

func (s *section) delimiter(key string) rune {
	v, ok := s.values[key]
	if !ok || v == nil {
		return rune(DefaultDelimiter[0])
	}
	// Tabs must survive, so the value is not trimmed.
	raw := scalar(v)
	if raw == `\t` {
		raw = "\t"
	}
	r := []rune(raw)
	if len(r) != 1 {
		s.fail(key, "must be a single character: %q", raw)
		return 0
	}
	return r[0]
}

func scalar(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
