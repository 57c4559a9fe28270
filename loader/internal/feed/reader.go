package feed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// ErrCorrupt marks a feed that exists but cannot be parsed.
var ErrCorrupt = errors.New("corrupt sample feed")

// Column positions inside an element record.
const (
	colMarker  = 0
	colElement = 1
	colRaw     = 4
)

const (
	defaultMarker = "*"
	defaultComma  = ','
)

// dateLayouts are tried in order against the first token of a date record.
var dateLayouts = []string{
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"1/2/06",
	"2006-01-02",
	"01-02-2006",
}

// Element is one element reading inside a sample group.
type Element struct {
	Name string
	// Raw is the unparsed reading; empty means no value this attempt.
	Raw string
}

// Group is one occurrence of a sample in the feed.
type Group struct {
	Sample   string
	Date     time.Time
	Elements []Element
	// Line is the 1-based line of the group's name record.
	Line int
}

// Option configures a Reader.
type Option func(*Reader)

// WithMarker sets the column-0 prefix of element records.
func WithMarker(m string) Option {
	return func(r *Reader) { r.marker = m }
}

// WithComma sets the field delimiter.
func WithComma(c rune) Option {
	return func(r *Reader) { r.csv.Comma = c }
}

// Reader streams sample groups out of a feed.
type Reader struct {
	csv    *csv.Reader
	closer io.Closer
	marker string

	// pending is a record read ahead that starts the next group.
	pending     []string
	pendingLine int
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader, opts ...Option) *Reader {
	cr := csv.NewReader(r)
	// Fields are trimmed individually; TrimLeadingSpace would swallow empty
	// fields when the delimiter is a tab.
	cr.FieldsPerRecord = -1
	cr.Comma = defaultComma

	fr := &Reader{csv: cr, marker: defaultMarker}
	for _, o := range opts {
		o(fr)
	}
	return fr
}

// Open opens the feed file at path.
func Open(path string, opts ...Option) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("feed: open: %w", err)
	}
	r := NewReader(f, opts...)
	r.closer = f
	return r, nil
}

// Close releases the underlying file, if any.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// FileName returns the feed file name for a date: MMDDYY.<ext>.
func FileName(month, day, year int, ext string) string {
	return fmt.Sprintf("%02d%02d%02d.%s", month, day, year%100, ext)
}

// Next returns the next sample group, or io.EOF when the feed is exhausted.
func (r *Reader) Next() (*Group, error) {
	rec, line, err := r.nextNonEmpty()
	if err != nil {
		return nil, err
	}
	if r.isElement(rec) {
		return nil, fmt.Errorf("feed: line %d: element record outside a sample group: %w", line, ErrCorrupt)
	}
	g := &Group{Sample: strings.TrimSpace(rec[0]), Line: line}

	dateRec, dateLine, err := r.read()
	if err == io.EOF {
		return nil, fmt.Errorf("feed: line %d: sample %q has no date record: %w", line, g.Sample, ErrCorrupt)
	}
	if err != nil {
		return nil, err
	}
	if g.Date, err = parseDate(dateRec); err != nil {
		return nil, fmt.Errorf("feed: line %d: sample %q: %v: %w", dateLine, g.Sample, err, ErrCorrupt)
	}

	for {
		rec, line, err := r.read()
		if err == io.EOF {
			return g, nil
		}
		if err != nil {
			return nil, err
		}
		if !r.isElement(rec) {
			if !blank(rec) {
				r.pending, r.pendingLine = rec, line
			}
			return g, nil
		}
		if len(rec) <= colElement || strings.TrimSpace(rec[colElement]) == "" {
			return nil, fmt.Errorf("feed: line %d: element record without a name: %w", line, ErrCorrupt)
		}
		el := Element{Name: strings.TrimSpace(rec[colElement])}
		if len(rec) > colRaw {
			el.Raw = strings.TrimSpace(rec[colRaw])
		}
		g.Elements = append(g.Elements, el)
	}
}

// read returns the pending record if any, otherwise the next CSV record.
func (r *Reader) read() ([]string, int, error) {
	if r.pending != nil {
		rec, line := r.pending, r.pendingLine
		r.pending = nil
		return rec, line, nil
	}
	rec, err := r.csv.Read()
	if err == io.EOF {
		return nil, 0, io.EOF
	}
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, pe.StartLine, fmt.Errorf("feed: %v: %w", err, ErrCorrupt)
		}
		return nil, 0, fmt.Errorf("feed: read: %w", err)
	}
	line, _ := r.csv.FieldPos(0)
	return rec, line, nil
}

// nextNonEmpty skips records whose fields are all blank.
func (r *Reader) nextNonEmpty() ([]string, int, error) {
	for {
		rec, line, err := r.read()
		if err != nil {
			return nil, line, err
		}
		if !blank(rec) {
			return rec, line, nil
		}
	}
}

func (r *Reader) isElement(rec []string) bool {
	return len(rec) > colMarker && strings.TrimSpace(rec[colMarker]) == r.marker
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func parseDate(rec []string) (time.Time, error) {
	if len(rec) == 0 {
		return time.Time{}, errors.New("empty date record")
	}
	fields := strings.Fields(rec[0])
	if len(fields) == 0 {
		return time.Time{}, errors.New("empty date record")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, fields[0]); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable date %q", rec[0])
}
