// Package classify places a reading into one of the five tiers of a range
// block, or reports it as out of range.
//
// Classify is a pure function of the block's boundaries and the raw reading.
// The median is compared first; readings above it are checked against Max and
// then split between UpperMid and Max, readings below it mirror that with Min
// and LowerMid. A reading beyond Max or Min (outside tolerance) is Pending and
// carries the direction it escaped in; the caller records it with the
// tracker.
package classify
