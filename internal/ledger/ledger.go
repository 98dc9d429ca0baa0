package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/glyph/internal/ids"
	"github.com/roach88/glyph/internal/receipt"
	"github.com/roach88/glyph/internal/schema"
	"github.com/roach88/glyph/internal/signature"
	"github.com/roach88/glyph/internal/store"
)

// Ledger runs the receipt pipeline for one hot store.
type Ledger struct {
	store     *store.Store
	signer    signature.Signer
	validator *schema.Validator
	tenantID  string
	now       func() time.Time
	batchIDs  ids.Generator
	logger    *slog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock sets the time source for sealed_at and archived_at.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithBatchIDs sets the batch id generator. Default: UUIDv7.
func WithBatchIDs(gen ids.Generator) Option {
	return func(l *Ledger) { l.batchIDs = gen }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// New returns a Ledger. tenantID is the tenant batch roots are signed for.
func New(s *store.Store, signer signature.Signer, validator *schema.Validator, tenantID string, opts ...Option) *Ledger {
	l := &Ledger{
		store:     s,
		signer:    signer,
		validator: validator,
		tenantID:  tenantID,
		now:       time.Now,
		batchIDs:  ids.UUIDv7Generator{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// TenantID returns the tenant batch roots are signed for.
func (l *Ledger) TenantID() string {
	return l.tenantID
}

// Submit checks r and writes it to the hot store. Every failure, including
// a store write error, is returned as a *Rejection. inserted is false when
// the receipt was already present.
func (l *Ledger) Submit(ctx context.Context, r receipt.Receipt) (inserted bool, err error) {
	reject := func(err error) (bool, error) {
		l.logger.Debug("receipt rejected", "receipt_id", r.ID(), "error", err)
		return false, &Rejection{ReceiptID: r.ID(), Err: err}
	}

	if err := receipt.VerifyIntegrity(r); err != nil {
		return reject(err)
	}
	if !receipt.VerifySignature(r, l.signer) {
		return reject(ErrBadSignature)
	}
	if err := l.validator.Validate(r); err != nil {
		return reject(err)
	}

	l.store.Lock()
	defer l.store.Unlock()

	inserted, err = l.store.WriteReceipt(ctx, r)
	if err != nil {
		return reject(err)
	}
	if !inserted {
		l.logger.Debug("receipt already present", "receipt_id", r.ID())
	}
	return inserted, nil
}

// Report summarizes a SubmitAll call.
type Report struct {
	// Accepted lists receipt ids newly written, in input order.
	Accepted []string

	// Duplicates lists receipt ids that passed every check but were
	// already stored.
	Duplicates []string

	Rejected []*Rejection
}

// OK reports whether no receipt was rejected.
func (r Report) OK() bool {
	return len(r.Rejected) == 0
}

// SubmitAll submits each receipt independently. Only context cancellation
// stops it early.
func (l *Ledger) SubmitAll(ctx context.Context, rs []receipt.Receipt) (Report, error) {
	report := Report{Accepted: []string{}, Duplicates: []string{}, Rejected: []*Rejection{}}
	for _, r := range rs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		inserted, err := l.Submit(ctx, r)
		switch {
		case err != nil:
			report.Rejected = append(report.Rejected, err.(*Rejection))
		case inserted:
			report.Accepted = append(report.Accepted, r.ID())
		default:
			report.Duplicates = append(report.Duplicates, r.ID())
		}
	}
	l.logger.Info("receipts submitted",
		"accepted", len(report.Accepted),
		"duplicates", len(report.Duplicates),
		"rejected", len(report.Rejected),
	)
	return report, nil
}
