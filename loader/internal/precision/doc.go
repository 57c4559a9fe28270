// Package precision derives rounding precision and comparison tolerance from
// a boundary cell's declared number format, and applies them to readings.
//
// Parse("0.00") yields two decimals and an epsilon of 0.01. Formats without
// any digit placeholder (General, text) cannot be parsed; comparisons then
// fall back to exact equality and callers log the degradation.
package precision
