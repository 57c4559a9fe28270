// Package config loads and watches the loader configuration document.
//
// The document is YAML with three sections:
//   - Mappings: sample name → range name, any number of entries
//   - Template: section.firstRow, section.nameRow, section.numRows,
//     column.day1 and column.ranges (spreadsheet column letters)
//   - General: sample.dir, sample.try (retry limit), machine.count,
//     machine.base.name, plus optional sample.ext, sample.marker,
//     sample.delimiter and output.template
//
// Load(path) reads the file, converts every key and validates the layout
// geometry. Any absent or non-numeric required key yields an error wrapping
// ErrConfiguration; the run must not start in that case.
//
// Watch(ctx, path, onChange) uses fsnotify to detect file changes and calls
// onChange with the newly parsed Config. A failed reload is logged and the
// previous Config stays in effect.
package config
