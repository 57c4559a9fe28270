// Package driver runs one reporting period: every machine, every day, every
// sample group of that day's feed.
//
// For each (machine, day) the driver creates a fresh tracker.Day, resolves
// each group's range block with the layout.Locator, and classifies the
// group's elements. The first occurrence of a sample evaluates every element;
// later occurrences only re-evaluate elements still out of range, until the
// check settles or the retry limit is reached. Once every mapped sample of the
// day is settled the rest of the feed is not read.
//
// After the feed, unresolved out-of-range elements are flushed: the closest
// value seen goes into the Max or Min row with the alarm style and the flag
// cell beside the boundary is marked.
//
// A missing feed skips the day. Any other error aborts the run.
package driver
