package ledger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/qaanalytics/qaanalytics/loader/internal/layout"
	"github.com/qaanalytics/qaanalytics/pkg/types"
)

var testGeometry = layout.Geometry{
	FirstRow:     3,
	NameRow:      2,
	RowsPerRange: 6,
	Day1Column:   4,
	RangesColumn: 1,
}

// savedTemplate builds the default blueprint, saves it and reopens it so the
// tests read what a user's template file would contain.
func savedTemplate(t *testing.T) (*Workbook, string) {
	t.Helper()
	tpl, err := BuildTemplate(testGeometry, DefaultBlueprint())
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "QCTemplate.xlsx")
	require.NoError(t, tpl.SaveAs(path))
	require.NoError(t, tpl.Close())

	w, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w, path
}

func TestBuildTemplate_Layout(t *testing.T) {
	w, _ := savedTemplate(t)

	assert.Equal(t, []string{"GLU", "CHOL", "TRIG"}, w.Sheets())
	assert.True(t, w.HasSheet("CHOL"))
	assert.False(t, w.HasSheet("ALB"))

	// Level 2 of machine 2 sits one section (6 rows x 3 ranges) below machine 1.
	name, err := w.Text("GLU", 9+18+2, 1)
	require.NoError(t, err)
	assert.Equal(t, "Level 2", name)

	header, err := w.Text("GLU", 2, testGeometry.DayColumn(31))
	require.NoError(t, err)
	assert.Equal(t, "31", header)

	rows, err := w.RowCount("GLU")
	require.NoError(t, err)
	// Last tier row of Level 3, machine 2: top 33, Min at 37.
	assert.Equal(t, 37, rows)
}

func TestWorkbook_Range(t *testing.T) {
	w, _ := savedTemplate(t)

	r, err := w.Range("GLU", 3, testGeometry.BoundaryColumn())
	require.NoError(t, err)

	want := [types.TierCount]float64{110, 105, 100, 95, 90}
	for _, tier := range types.Tiers {
		b := r.At(tier)
		assert.Equal(t, want[tier], b.Value, "tier %v", tier)
		assert.True(t, b.Spec.Parsed, "tier %v", tier)
		assert.Equal(t, 1, b.Spec.Decimals, "tier %v", tier)
		assert.InDelta(t, 0.1, b.Spec.Epsilon, 1e-12, "tier %v", tier)
	}

	r3, err := w.Range("TRIG", 15, testGeometry.BoundaryColumn())
	require.NoError(t, err)
	assert.Equal(t, 300.0, r3.At(types.TierMedian).Value)
	assert.Equal(t, 0, r3.At(types.TierMedian).Spec.Decimals)
	assert.True(t, r3.At(types.TierMedian).Spec.Parsed)
}

func TestWorkbook_BoundaryDegrades(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellStr("Sheet1", "B3", "n/a"))
	require.NoError(t, f.SetCellFloat("Sheet1", "B4", 12.5, -1, 64))
	w := wrap(f)
	defer w.Close()

	b, err := w.Boundary("Sheet1", 3, 2)
	require.NoError(t, err)
	assert.Equal(t, 0.0, b.Value)

	b, err = w.Boundary("Sheet1", 4, 2)
	require.NoError(t, err)
	assert.Equal(t, 12.5, b.Value)
	assert.False(t, b.Spec.Parsed, "General format must fall back to exact comparison")
}

func TestWorkbook_WritesAndStyleReuse(t *testing.T) {
	w, _ := savedTemplate(t)
	col := testGeometry.DayColumn(14)

	for row := 3; row < 3+18; row++ {
		require.NoError(t, w.WriteValue("GLU", row, col, 100.5, "0.0"))
		require.NoError(t, w.WriteValue("CHOL", row, col, 210, "0.0"))
	}
	require.NoError(t, w.WriteAlarm("GLU", 3, col, 112.3, "0.0"))
	require.NoError(t, w.WriteAlarm("CHOL", 7, col, 80.1, "0.0"))
	require.NoError(t, w.Flag("GLU", 3, testGeometry.FlagColumn()))
	require.NoError(t, w.Flag("CHOL", 7, testGeometry.FlagColumn()))
	require.NoError(t, w.WriteValue("TRIG", 17, col, 301, "0"))

	// value/0.0, alarm/0.0, flag, value/0
	assert.Equal(t, 4, w.Styles().Len())

	got, err := w.Text("GLU", 3, col)
	require.NoError(t, err)
	assert.Equal(t, "112.3", got)

	flag, err := w.Text("CHOL", 7, testGeometry.FlagColumn())
	require.NoError(t, err)
	assert.Equal(t, FlagMarker, flag)

	format, err := w.NumberFormat("GLU", 3, col)
	require.NoError(t, err)
	assert.Equal(t, "0.0", format)
}

func TestWorkbook_SaveReopen(t *testing.T) {
	w, path := savedTemplate(t)
	col := testGeometry.DayColumn(1)
	require.NoError(t, w.WriteValue("GLU", 5, col, 99.9, "0.0"))

	out := filepath.Join(filepath.Dir(path), "QCTemplate-2019-03.xlsx")
	require.NoError(t, w.SaveAs(out))

	re, err := Open(out)
	require.NoError(t, err)
	defer re.Close()
	got, err := re.Text("GLU", 5, col)
	require.NoError(t, err)
	assert.Equal(t, "99.9", got)
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.xlsx"))
	assert.Error(t, err)
}

func TestBuildTemplate_NoElements(t *testing.T) {
	_, err := BuildTemplate(testGeometry, Blueprint{})
	assert.Error(t, err)
}
