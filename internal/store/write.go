package store

import (
	"context"
	"fmt"
	"time"
)

// Row is one event bound for the log table. Message and Properties are
// pre-rendered by the caller; the store only formats the timestamp.
type Row struct {
	Timestamp  time.Time
	Level      string
	Exception  string
	Message    string
	Properties string
}

// InsertBatch writes all rows in a single transaction with one prepared
// statement. Either every row commits or none do: any failure rolls the
// transaction back and returns the error wrapped with %w so the caller
// can still classify it (SQLITE_FULL triggers rollover).
func (s *Store) InsertBatch(ctx context.Context, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert batch: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s
		(Timestamp, Level, Exception, RenderedMessage, Properties)
		VALUES (?, ?, ?, ?, ?)
	`, s.table))
	if err != nil {
		return fmt.Errorf("insert batch: prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		_, err := stmt.ExecContext(ctx,
			s.FormatTimestamp(r.Timestamp),
			r.Level,
			r.Exception,
			r.Message,
			r.Properties,
		)
		if err != nil {
			return fmt.Errorf("insert batch: exec: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert batch: commit: %w", err)
	}

	return nil
}
