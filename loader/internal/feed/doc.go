// Package feed reads per-day sample feed files.
//
// A feed is delimited text made of sample groups:
//
//	QC Level 1                    <- name record, column 0
//	03/14/2019 08:15              <- date record
//	*,GLU,,,101.4                 <- element records: marker, name, raw value in column 4
//	*,CHOL,,,187
//	QC Level 2                    <- next group starts at the first unmarked record
//
// Reader returns one Group per Next call and never reads past the group it
// returns, so callers may stop early without touching the rest of the file.
// Structural problems are reported as errors wrapping ErrCorrupt. Open on a
// missing file returns an error matching fs.ErrNotExist.
//
// WatchDirs notifies when feed files appear or change in machine directories.
package feed
