// Package store owns the SQLite database file behind the sink.
//
// It opens and configures the single connection (in-memory journaling,
// NORMAL synchronous mode, 4 KiB pages, a hard page-count cap derived
// from the configured maximum size), bootstraps the log table, and
// provides the three write paths the sink needs: transactional batch
// insert, age-based deletion, and size-triggered rollover.
//
// The package never reads rows back - the sink is write-only by design.
// Callers are responsible for serialising access; a Store assumes one
// logical actor touches the connection at a time.
package store
