// Package types defines shared Go types used across the loader packages.
// These are the canonical in-memory representations of classification
// results, separate from the spreadsheet cells they are written to.
package types
