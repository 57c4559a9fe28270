// Package ledger adapts the monthly output workbook (xlsx, via excelize).
//
// A Workbook has one sheet per monitored element. Each range block holds five
// boundary cells whose number formats drive rounding and tolerance; the
// loader writes readings into day columns next to them and marks unresolved
// out-of-range readings with an alarm style and a flag cell.
//
// Cell styles are interned in a Styles cache keyed by (role, number format)
// because the xlsx format caps the number of distinct cell formats a workbook
// may hold. The cache belongs to the Workbook it was created for.
//
// BuildTemplate lays out a conforming template from a Blueprint; the template
// command and the tests use it.
package ledger
