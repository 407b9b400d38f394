package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// rolloverStamp names archived database files. Local time, 12-hour clock
// with hundredths - the pattern matches archives produced by earlier
// releases, so it stays even though a 24-hour clock would be unambiguous.
const rolloverStamp = "20060102_030405.00"

// DeleteOlderThan removes rows whose Timestamp predates the cut-off and
// returns how many were deleted. The cut-off is formatted exactly like
// inserted timestamps; the comparison is textual.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE Timestamp < ?", s.table),
		s.FormatTimestamp(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("delete aged rows: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete aged rows: rows affected: %w", err)
	}
	return n, nil
}

// Rollover archives the current database file to a timestamped sibling
// and empties the live table in place. The connection and file identity
// are preserved; only the rows move. Returns the archive path.
func (s *Store) Rollover(ctx context.Context, now time.Time) (string, error) {
	archive := RolloverPath(s.path, now)

	if err := copyFile(s.path, archive); err != nil {
		return "", fmt.Errorf("rollover: archive database: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", s.table)); err != nil {
		return "", fmt.Errorf("rollover: truncate table: %w", err)
	}

	return archive, nil
}

// RolloverPath derives the archive sibling name for a database path:
// <stem>-<stamp><ext> next to the live file.
func RolloverPath(path string, now time.Time) string {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	return stem + "-" + now.Format(rolloverStamp) + ext
}

// copyFile duplicates src to dst, replacing dst if it exists.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
