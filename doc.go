// Package sqlitesink is a local, durable, batched log-event sink backed
// by a single-file SQLite database.
//
// Producers hand events to Emit, which never blocks on disk: events pass
// through a bounded in-memory queue to a single worker goroutine that
// groups them into size- or time-triggered batches and commits each
// batch in one transaction. Background maintenance keeps the file
// bounded - aged rows are purged on a periodic sweep, and when the
// database hits its size cap the file is archived to a timestamped
// sibling and the live table emptied (or the batch dropped, if rollover
// is disabled).
//
// Write-path failures are reported on the sink's diagnostic logger and
// never reach the producer; only construction errors propagate.
package sqlitesink
