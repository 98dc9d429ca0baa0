// Package coldstore is the cold, append-only receipt archive. It is a Pebble
// LSM keyed by content hash; archived receipts are written once and read
// back only for audits.
package coldstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
)

const keyPrefix = "receipt/"

// keyLimit is the exclusive upper bound of the receipt key range:
// '0' follows '/' in byte order.
var keyLimit = []byte("receipt0")

// ErrNotFound is returned by Get for an unknown content hash.
var ErrNotFound = errors.New("coldstore: not found")

// Archive is an open cold store.
type Archive struct {
	db *pebble.DB
	mu sync.Mutex
}

// Open opens or creates the archive directory at dir.
func Open(dir string) (*Archive, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open cold store: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close flushes and closes the archive.
func (a *Archive) Close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

// Lock acquires the archive's workflow lock.
func (a *Archive) Lock() { a.mu.Lock() }

// Unlock releases the archive's workflow lock.
func (a *Archive) Unlock() { a.mu.Unlock() }

func receiptKey(contentHash string) []byte {
	return []byte(keyPrefix + contentHash)
}

// Put stores a receipt body under its content hash. Writing the same hash
// again overwrites it with the same bytes.
func (a *Archive) Put(ctx context.Context, contentHash string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := a.db.Set(receiptKey(contentHash), body, pebble.Sync); err != nil {
		return fmt.Errorf("cold put %s: %w", contentHash, err)
	}
	return nil
}

// PutBatch stores several receipts atomically.
func (a *Archive) PutBatch(ctx context.Context, bodies map[string][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b := a.db.NewBatch()
	defer b.Close()
	for hash, body := range bodies {
		if err := b.Set(receiptKey(hash), body, nil); err != nil {
			return fmt.Errorf("cold batch %s: %w", hash, err)
		}
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("cold batch commit: %w", err)
	}
	return nil
}

// Get returns the archived body for contentHash.
func (a *Archive) Get(ctx context.Context, contentHash string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	value, closer, err := a.db.Get(receiptKey(contentHash))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("receipt %s: %w", contentHash, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("cold get %s: %w", contentHash, err)
	}
	defer closer.Close()
	return append([]byte(nil), value...), nil
}

// Count returns the number of archived receipts.
func (a *Archive) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	iter, err := a.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: keyLimit,
	})
	if err != nil {
		return 0, fmt.Errorf("cold count: %w", err)
	}
	n := 0
	for iter.First(); iter.Valid(); iter.Next() {
		n++
	}
	if err := iter.Close(); err != nil {
		return 0, fmt.Errorf("cold count: %w", err)
	}
	return n, nil
}

// EstimateLiveBytes estimates the on-disk size of the receipt range. The
// memtable is flushed first so recent writes are counted. known is false
// when the engine cannot produce an estimate; that is not an error.
func (a *Archive) EstimateLiveBytes(ctx context.Context) (bytes uint64, known bool, err error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	if err := a.db.Flush(); err != nil {
		return 0, false, fmt.Errorf("cold flush: %w", err)
	}
	size, err := a.db.EstimateDiskUsage([]byte(keyPrefix), keyLimit)
	if err != nil {
		return 0, false, nil
	}
	return size, true, nil
}

// CompactAll flushes the memtable and compacts the whole receipt range,
// dropping shadowed versions.
func (a *Archive) CompactAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := a.db.Flush(); err != nil {
		return fmt.Errorf("cold flush: %w", err)
	}
	if err := a.db.Compact([]byte(keyPrefix), keyLimit, true); err != nil {
		return fmt.Errorf("cold compact: %w", err)
	}
	return nil
}
