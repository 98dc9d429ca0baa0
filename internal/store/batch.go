package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrAlreadyBatched is returned when sealing a receipt that already belongs
// to a batch or does not exist.
var ErrAlreadyBatched = errors.New("store: receipt already batched or missing")

// Batch is a sealed Merkle batch.
type Batch struct {
	ID            string
	Seq           int64
	Root          string
	RootSignature string
	LeafCount     int
	SealedAt      int64
}

// Leaf is one position of a batch's ordered leaf list.
type Leaf struct {
	Index       int
	ReceiptID   string
	ContentHash string
}

// SealBatch records b and assigns the leaves' receipts to it, all in one
// transaction. Leaves must be in Merkle order; b.Seq is assigned here.
func (s *Store) SealBatch(ctx context.Context, b Batch, leaves []Leaf) (Batch, error) {
	if len(leaves) == 0 || len(leaves) != b.LeafCount {
		return Batch{}, fmt.Errorf("seal batch: %d leaves for leaf_count %d", len(leaves), b.LeafCount)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Batch{}, fmt.Errorf("seal batch: %w", err)
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM batches`).Scan(&b.Seq); err != nil {
		return Batch{}, fmt.Errorf("seal batch: next seq: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO batches (id, seq, root, root_signature, leaf_count, sealed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, b.ID, b.Seq, b.Root, b.RootSignature, b.LeafCount, b.SealedAt)
	if err != nil {
		return Batch{}, fmt.Errorf("seal batch: insert batch: %w", err)
	}

	for _, leaf := range leaves {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO batch_leaves (batch_id, leaf_index, receipt_id, content_hash)
			VALUES (?, ?, ?, ?)
		`, b.ID, leaf.Index, leaf.ReceiptID, leaf.ContentHash)
		if err != nil {
			return Batch{}, fmt.Errorf("seal batch: leaf %d: %w", leaf.Index, err)
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE receipts SET batch_id = ?
			WHERE receipt_id = ? AND batch_id IS NULL
		`, b.ID, leaf.ReceiptID)
		if err != nil {
			return Batch{}, fmt.Errorf("seal batch: assign %s: %w", leaf.ReceiptID, err)
		}
		if n, err := res.RowsAffected(); err != nil || n != 1 {
			return Batch{}, fmt.Errorf("seal batch: %s: %w", leaf.ReceiptID, ErrAlreadyBatched)
		}
	}

	if err := tx.Commit(); err != nil {
		return Batch{}, fmt.Errorf("seal batch: commit: %w", err)
	}
	return b, nil
}

// GetBatch returns the batch with id, or ErrNotFound.
func (s *Store) GetBatch(ctx context.Context, id string) (Batch, error) {
	var b Batch
	err := s.db.QueryRowContext(ctx, `
		SELECT id, seq, root, root_signature, leaf_count, sealed_at
		FROM batches WHERE id = ?
	`, id).Scan(&b.ID, &b.Seq, &b.Root, &b.RootSignature, &b.LeafCount, &b.SealedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Batch{}, fmt.Errorf("batch %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Batch{}, fmt.Errorf("get batch: %w", err)
	}
	return b, nil
}

// BatchLeaves returns the leaves of a batch ordered by leaf index.
func (s *Store) BatchLeaves(ctx context.Context, batchID string) ([]Leaf, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT leaf_index, receipt_id, content_hash
		FROM batch_leaves WHERE batch_id = ?
		ORDER BY leaf_index ASC
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("query batch leaves: %w", err)
	}
	defer rows.Close()

	leaves := []Leaf{}
	for rows.Next() {
		var l Leaf
		if err := rows.Scan(&l.Index, &l.ReceiptID, &l.ContentHash); err != nil {
			return nil, fmt.Errorf("scan batch leaf: %w", err)
		}
		leaves = append(leaves, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batch leaves: %w", err)
	}
	return leaves, nil
}

// LeafLocation returns the batch and leaf index holding receiptID, or
// ErrNotFound when the receipt was never sealed.
func (s *Store) LeafLocation(ctx context.Context, receiptID string) (batchID string, index int, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT batch_id, leaf_index FROM batch_leaves WHERE receipt_id = ?
	`, receiptID).Scan(&batchID, &index)
	if errors.Is(err, sql.ErrNoRows) {
		return "", 0, fmt.Errorf("leaf for %s: %w", receiptID, ErrNotFound)
	}
	if err != nil {
		return "", 0, fmt.Errorf("leaf location: %w", err)
	}
	return batchID, index, nil
}
