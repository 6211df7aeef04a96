// Package storage keeps the fire history of the trigger service.
//
// Two drivers are supported:
//   - "file": JSON lines, compacted to the most recent records
//   - "sqlite": a SQLite database (modernc.org/sqlite, no cgo)
//
// The history answers "when did this schedule last fire", which the daemon
// uses on start to report occurrences missed while it was down.
package storage
