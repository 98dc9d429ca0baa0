package store

import (
	"context"
	"fmt"
)

// Reclaim deletes archived receipt rows, then truncates the WAL and vacuums
// the database file. Rows not yet archived are never touched, so running it
// twice is harmless.
func (s *Store) Reclaim(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM receipts WHERE archived_at IS NOT NULL`); err != nil {
		return fmt.Errorf("reclaim: delete archived: %w", err)
	}
	// VACUUM cannot run inside a transaction; with a single connection these
	// execute in autocommit mode.
	for _, stmt := range []string{"PRAGMA wal_checkpoint(TRUNCATE)", "VACUUM"} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("reclaim: %s: %w", stmt, err)
		}
	}
	return nil
}
