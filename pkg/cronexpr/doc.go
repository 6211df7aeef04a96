// Package cronexpr parses cron expressions and computes their next occurrence.
//
// An expression has 5 fields (minute hour day-of-month month day-of-week) or 6
// (a leading seconds field). Besides the usual lists, ranges and steps it
// accepts:
//   - "?" in day-of-month or day-of-week (same as "*", no step allowed)
//   - "L" and "L-n" in day-of-month (last day of the month, n days before it)
//   - "W" after a single day-of-month value (nearest weekday, never crossing months)
//   - "L" and "#n" after day-of-week (last / nth occurrence in the month)
//   - wraparound ranges such as "50-10" or "FRI-MON"
//
// Parse is all-or-nothing and returns an immutable *Schedule that can be
// queried from many goroutines. Next searches on wall-clock readings only;
// NextInZone applies a *time.Location and resolves DST gaps and overlaps:
//   - a match inside a spring-forward gap fires once, at the transition
//   - a match inside a fall-back overlap fires at both occurrences for interval
//     schedules (seconds, minutes and hours all "*"-based) and only at the
//     earlier one otherwise
package cronexpr
