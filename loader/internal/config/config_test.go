package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validDoc = `
Mappings:
  QC Level 1: Level 1
  QC Level 2: Level 2
  QC Level 2b: Level 2
Template:
  section.firstRow: 3
  section.nameRow: "2"
  section.numRows: 6
  column.day1: D
  column.ranges: A
General:
  sample.dir: samples
  sample.try: 3
  machine.count: 2
  machine.base.name: analyzer
`

func TestLoad_Valid(t *testing.T) {
	cfg := loadFromString(t, validDoc)

	if got := cfg.Mappings["QC Level 2b"]; got != "Level 2" {
		t.Errorf("mapping: got %q", got)
	}
	tpl := cfg.Template
	if tpl.FirstRow != 3 || tpl.NameRow != 2 || tpl.NumRows != 6 {
		t.Errorf("rows: got %+v", tpl)
	}
	if tpl.Day1Column != 4 {
		t.Errorf("column.day1: got %d, want 4", tpl.Day1Column)
	}
	if tpl.RangesColumn != 1 {
		t.Errorf("column.ranges: got %d, want 1", tpl.RangesColumn)
	}
	if cfg.General.MaxTries != 3 {
		t.Errorf("sample.try: got %d", cfg.General.MaxTries)
	}
	if cfg.General.MachineCount != 2 || cfg.General.MachineBaseName != "analyzer" {
		t.Errorf("machines: got %d %q", cfg.General.MachineCount, cfg.General.MachineBaseName)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := loadFromString(t, validDoc)

	if cfg.General.SampleExt != DefaultSampleExt {
		t.Errorf("default sample.ext: got %q, want %q", cfg.General.SampleExt, DefaultSampleExt)
	}
	if cfg.General.SampleMarker != DefaultSampleMarker {
		t.Errorf("default sample.marker: got %q", cfg.General.SampleMarker)
	}
	if cfg.General.SampleDelimiter != ',' {
		t.Errorf("default sample.delimiter: got %q", cfg.General.SampleDelimiter)
	}
	if cfg.General.OutputTemplate != DefaultOutputTemplate {
		t.Errorf("default output.template: got %q", cfg.General.OutputTemplate)
	}
}

func TestLoad_TabDelimiter(t *testing.T) {
	doc := validDoc + "  sample.delimiter: '\\t'\n  sample.ext: .csv\n"
	cfg := loadFromString(t, doc)
	if cfg.General.SampleDelimiter != '\t' {
		t.Errorf("sample.delimiter: got %q, want tab", cfg.General.SampleDelimiter)
	}
	if cfg.General.SampleExt != "csv" {
		t.Errorf("sample.ext: got %q, want csv", cfg.General.SampleExt)
	}
}

func TestLoad_RangeAndSampleNames(t *testing.T) {
	cfg := loadFromString(t, validDoc)

	ranges := cfg.RangeNames()
	if strings.Join(ranges, "|") != "Level 1|Level 2" {
		t.Errorf("RangeNames() = %v", ranges)
	}
	if n := len(cfg.SampleNames()); n != 3 {
		t.Errorf("SampleNames() len = %d, want 3", n)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		replace [2]string
	}{
		{"missing firstRow", [2]string{"section.firstRow: 3", ""}},
		{"non-numeric numRows", [2]string{"section.numRows: 6", "section.numRows: six"}},
		{"bad column letter", [2]string{"column.day1: D", "column.day1: 4x"}},
		{"missing ranges column", [2]string{"column.ranges: A", ""}},
		{"non-numeric try", [2]string{"sample.try: 3", "sample.try: often"}},
		{"missing machine count", [2]string{"machine.count: 2", ""}},
		{"missing base name", [2]string{"machine.base.name: analyzer", ""}},
		{"too few rows", [2]string{"section.numRows: 6", "section.numRows: 4"}},
		{"name row outside block", [2]string{`section.nameRow: "2"`, "section.nameRow: 6"}},
		{"day column overlaps flags", [2]string{"column.day1: D", "column.day1: C"}},
		{"zero retries", [2]string{"sample.try: 3", "sample.try: 0"}},
		{"quote delimiter", [2]string{"machine.count: 2", "machine.count: 2\n  sample.delimiter: '\"'"}},
		{"newline delimiter", [2]string{"machine.count: 2", "machine.count: 2\n  sample.delimiter: \"\\n\""}},
		{"carriage return delimiter", [2]string{"machine.count: 2", "machine.count: 2\n  sample.delimiter: \"\\r\""}},
		{"replacement char delimiter", [2]string{"machine.count: 2", "machine.count: 2\n  sample.delimiter: \"\\uFFFD\""}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc := strings.Replace(validDoc, tc.replace[0], tc.replace[1], 1)
			_, err := loadStringErr(t, doc)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrConfiguration) {
				t.Errorf("error %v does not wrap ErrConfiguration", err)
			}
		})
	}
}

func TestLoad_EmptyMappings(t *testing.T) {
	doc := strings.Replace(validDoc, "Mappings:\n  QC Level 1: Level 1\n  QC Level 2: Level 2\n  QC Level 2b: Level 2\n", "", 1)
	if _, err := loadStringErr(t, doc); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error %v does not wrap os.ErrNotExist", err)
	}
}

func TestParse_DefaultDocument(t *testing.T) {
	cfg, err := Parse(DefaultDocument)
	if err != nil {
		t.Fatalf("default document does not parse: %v", err)
	}
	if len(cfg.RangeNames()) != 3 {
		t.Errorf("default ranges: got %v", cfg.RangeNames())
	}
}

// loadFromString writes yaml to a temp file and calls Load, failing on error.
func loadFromString(t *testing.T, content string) *Config {
	t.Helper()
	cfg, err := loadStringErr(t, content)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	return cfg
}

// loadStringErr writes yaml to a temp file and calls Load, returning any error.
func loadStringErr(t *testing.T, content string) (*Config, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "loader.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return Load(path)
}
