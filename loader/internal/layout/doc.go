// Package layout addresses range blocks in the output workbook.
//
// Geometry turns the Template section of the config into row and column
// arithmetic. Discover walks the ranges column once, at a fixed stride, to
// find the top row of every configured range. Locator then maps a sample to
// the top row of its range block for a given machine replica:
//
//	top = rangeTop + (machine-1) * rowsPerRange * distinctRanges
package layout
