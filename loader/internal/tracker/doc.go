// Package tracker keeps the bounded-retry state of every check in one day's
// feed.
//
// A Check is created the first time a sample appears in a feed and is
// revisited each time the same sample group repeats. It counts attempts,
// freezes once done, and for each element that is still out of range keeps
// the least extreme deviation seen so far. The deviation is a tagged union
// (AboveMax or BelowMin) so that a direction flip between attempts can never
// be confused with a sign change.
//
// A Day owns the checks of one (machine, day) iteration. Drivers create a
// fresh Day per iteration and drop it afterwards; nothing is shared between
// days.
package tracker
