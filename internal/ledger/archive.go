package ledger

import (
	"context"
	"fmt"
)

// ColdWriter is the cold store side of Archive.
type ColdWriter interface {
	PutBatch(ctx context.Context, bodies map[string][]byte) error
}

// Archive copies sealed, unarchived receipts to cold and then marks them
// archived in the hot store. The copy lands before the mark, so a failure
// in between only repeats work on the next call. Returns the number of
// receipts archived.
func (l *Ledger) Archive(ctx context.Context, cold ColdWriter) (int, error) {
	l.store.Lock()
	defer l.store.Unlock()

	records, err := l.store.ListArchivable(ctx)
	if err != nil {
		return 0, fmt.Errorf("archive: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}

	bodies := make(map[string][]byte, len(records))
	receiptIDs := make([]string, len(records))
	for i, rec := range records {
		bodies[rec.ContentHash] = rec.Body
		receiptIDs[i] = rec.ReceiptID
	}

	if err := cold.PutBatch(ctx, bodies); err != nil {
		return 0, fmt.Errorf("archive: cold store: %w", err)
	}
	if err := l.store.MarkArchived(ctx, receiptIDs, l.now().Unix()); err != nil {
		return 0, fmt.Errorf("archive: %w", err)
	}

	l.logger.Info("receipts archived", "count", len(records))
	return len(records), nil
}
