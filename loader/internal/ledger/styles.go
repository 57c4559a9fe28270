package ledger

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Role is the visual purpose of a styled cell.
type Role int

const (
	RoleValue Role = iota
	RoleAlarm
	RoleFlag
	RoleBoundary
	RoleHeader
)

func (r Role) String() string {
	switch r {
	case RoleValue:
		return "value"
	case RoleAlarm:
		return "alarm"
	case RoleFlag:
		return "flag"
	case RoleBoundary:
		return "boundary"
	case RoleHeader:
		return "header"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Alarm colours.
const (
	alarmFill  = "FFC7CE"
	alarmFont  = "9C0006"
	headerFill = "D9E1F2"
)

type styleKey struct {
	role   Role
	format string
}

// Styles interns style IDs per (role, number format) for one excelize file.
type Styles struct {
	f   *excelize.File
	ids map[styleKey]int
}

func newStyles(f *excelize.File) *Styles {
	return &Styles{f: f, ids: make(map[styleKey]int)}
}

// ID returns the style for role and format, creating it on first use.
func (s *Styles) ID(role Role, format string) (int, error) {
	key := styleKey{role: role, format: format}
	if id, ok := s.ids[key]; ok {
		return id, nil
	}
	id, err := s.f.NewStyle(styleFor(role, format))
	if err != nil {
		return 0, fmt.Errorf("ledger: new %s style %q: %w", role, format, err)
	}
	s.ids[key] = id
	return id, nil
}

// Len returns the number of distinct styles created so far.
func (s *Styles) Len() int { return len(s.ids) }

func styleFor(role Role, format string) *excelize.Style {
	st := &excelize.Style{}
	if format != "" {
		code := format
		st.CustomNumFmt = &code
	}
	switch role {
	case RoleAlarm:
		st.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{alarmFill}}
		st.Font = &excelize.Font{Bold: true, Color: alarmFont}
	case RoleFlag:
		st.Font = &excelize.Font{Bold: true, Color: alarmFont}
		st.Alignment = &excelize.Alignment{Horizontal: "center"}
	case RoleBoundary:
		st.Border = []excelize.Border{
			{Type: "left", Color: "808080", Style: 1},
			{Type: "right", Color: "808080", Style: 1},
		}
	case RoleHeader:
		st.Font = &excelize.Font{Bold: true}
		st.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFill}}
	}
	return st
}
