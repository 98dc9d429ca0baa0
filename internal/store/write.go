package store

import (
	"context"
	"fmt"

	"github.com/roach88/glyph/internal/receipt"
)

// WriteReceipt inserts a stamped receipt. Uses ON CONFLICT DO NOTHING for
// idempotency: a receipt already present (same receipt_id or content_hash)
// is silently skipped and inserted reports false. A receipt that was sealed
// and later reclaimed still has its batch leaf, so it also counts as present.
//
// The body is stored in the canonical wire form so re-reading it reproduces
// the same content hash.
func (s *Store) WriteReceipt(ctx context.Context, r receipt.Receipt) (inserted bool, err error) {
	body, err := receipt.Marshal(r)
	if err != nil {
		return false, fmt.Errorf("write receipt: %w", err)
	}
	ts, ok := receipt.Int64(r[receipt.FieldTimestamp])
	if !ok {
		return false, fmt.Errorf("write receipt: timestamp is not an integer")
	}
	emittedBy, _ := r.StringField(receipt.FieldEmittedBy)

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO receipts
		(receipt_id, content_hash, tenant_id, receipt_type, emitted_by, timestamp, body)
		SELECT ?, ?, ?, ?, ?, ?, ?
		WHERE NOT EXISTS (
			SELECT 1 FROM batch_leaves WHERE receipt_id = ? OR content_hash = ?
		)
		ON CONFLICT DO NOTHING
	`,
		r.ID(),
		r.StoredHash(),
		r.TenantID(),
		string(r.Type()),
		emittedBy,
		ts,
		string(body),
		r.ID(),
		r.StoredHash(),
	)
	if err != nil {
		return false, fmt.Errorf("write receipt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write receipt: %w", err)
	}
	return n == 1, nil
}

// MarkArchived stamps archived_at on the given receipts in one transaction.
// Receipts already archived keep their first archived_at.
func (s *Store) MarkArchived(ctx context.Context, receiptIDs []string, at int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("mark archived: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE receipts SET archived_at = ?
		WHERE receipt_id = ? AND archived_at IS NULL
	`)
	if err != nil {
		return fmt.Errorf("mark archived: %w", err)
	}
	defer stmt.Close()

	for _, id := range receiptIDs {
		if _, err := stmt.ExecContext(ctx, at, id); err != nil {
			return fmt.Errorf("mark archived %s: %w", id, err)
		}
	}
	return tx.Commit()
}
