package ledger

import "github.com/xuri/excelize/v2"

// builtinFormats are the predefined xlsx number formats that carry digits.
var builtinFormats = map[int]string{
	1:  "0",
	2:  "0.00",
	3:  "#,##0",
	4:  "#,##0.00",
	9:  "0%",
	10: "0.00%",
	11: "0.00E+00",
	37: "#,##0 ;(#,##0)",
	38: "#,##0 ;[Red](#,##0)",
	39: "#,##0.00;(#,##0.00)",
	40: "#,##0.00;[Red](#,##0.00)",
	48: "##0.0E+0",
}

// formatCode returns the number format string declared by st, or "" when the
// cell uses General or a non-numeric format.
func formatCode(st *excelize.Style) string {
	if st == nil {
		return ""
	}
	if st.CustomNumFmt != nil && *st.CustomNumFmt != "" {
		return *st.CustomNumFmt
	}
	return builtinFormats[st.NumFmt]
}
