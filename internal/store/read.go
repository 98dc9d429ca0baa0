package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/glyph/internal/receipt"
)

// Record is a stored receipt row.
type Record struct {
	Seq         int64
	ReceiptID   string
	ContentHash string
	TenantID    string
	Type        string
	EmittedBy   string
	Timestamp   int64
	Body        []byte

	// BatchID is empty until the receipt is sealed.
	BatchID string

	// ArchivedAt is zero until the receipt is copied to the cold store.
	ArchivedAt int64
}

// Receipt decodes the stored body.
func (r Record) Receipt() (receipt.Receipt, error) {
	return receipt.Parse(r.Body)
}

const recordColumns = `seq, receipt_id, content_hash, tenant_id, receipt_type, emitted_by, timestamp, body, batch_id, archived_at`

// GetReceipt returns the receipt row for receiptID, or ErrNotFound.
func (s *Store) GetReceipt(ctx context.Context, receiptID string) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM receipts WHERE receipt_id = ?`, receiptID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("receipt %s: %w", receiptID, ErrNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("get receipt: %w", err)
	}
	return rec, nil
}

// ListUnbatched returns receipts not yet sealed into a batch, in insertion
// order. Returns an empty slice (not nil) when there are none.
func (s *Store) ListUnbatched(ctx context.Context) ([]Record, error) {
	return s.listRecords(ctx, `WHERE batch_id IS NULL`)
}

// ListArchivable returns sealed receipts not yet archived, in insertion order.
func (s *Store) ListArchivable(ctx context.Context) ([]Record, error) {
	return s.listRecords(ctx, `WHERE batch_id IS NOT NULL AND archived_at IS NULL`)
}

func (s *Store) listRecords(ctx context.Context, where string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM receipts `+where+` ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query receipts: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate receipts: %w", err)
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec      Record
		body     string
		batchID  sql.NullString
		archived sql.NullInt64
	)
	err := row.Scan(
		&rec.Seq,
		&rec.ReceiptID,
		&rec.ContentHash,
		&rec.TenantID,
		&rec.Type,
		&rec.EmittedBy,
		&rec.Timestamp,
		&body,
		&batchID,
		&archived,
	)
	if err != nil {
		return Record{}, err
	}
	rec.Body = []byte(body)
	rec.BatchID = batchID.String
	rec.ArchivedAt = archived.Int64
	return rec, nil
}
