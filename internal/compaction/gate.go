package compaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"reflect"
	"sync"
	"time"

	"github.com/roach88/glyph/internal/ids"
	"github.com/roach88/glyph/internal/receipt"
	"github.com/roach88/glyph/internal/schema"
	"github.com/roach88/glyph/internal/signature"
)

// Defaults applied when Config leaves a field zero.
const (
	DefaultTenantID       = "xai-memphis-01"
	DefaultHealthMetric   = 1.0
	DefaultDeathThreshold = 0.90
)

// HotStore is the row-oriented store. Reclaim must be idempotent.
type HotStore interface {
	RowCount(ctx context.Context) (int64, error)
	Reclaim(ctx context.Context) error
}

// ColdStore is the append-only store. EstimateLiveBytes reports known=false
// when the engine cannot estimate.
type ColdStore interface {
	EstimateLiveBytes(ctx context.Context) (bytes uint64, known bool, err error)
	CompactAll(ctx context.Context) error
}

// Config is the per-run input. It is passed explicitly; the gate never reads
// the environment.
type Config struct {
	TenantID string

	// HealthMetric is the transitivity score checked against DeathThreshold.
	// Nil selects DefaultHealthMetric.
	HealthMetric *float64

	// DeathThreshold: zero selects DefaultDeathThreshold.
	DeathThreshold float64
}

func (c Config) withDefaults() (Config, float64, error) {
	if c.TenantID == "" {
		c.TenantID = DefaultTenantID
	}
	if c.DeathThreshold == 0 {
		c.DeathThreshold = DefaultDeathThreshold
	}
	health := DefaultHealthMetric
	if c.HealthMetric != nil {
		health = *c.HealthMetric
	}
	if !finite(health) || !finite(c.DeathThreshold) || c.DeathThreshold < 0 {
		return c, 0, fmt.Errorf("%w: health %v, threshold %v", ErrInvalidConfig, health, c.DeathThreshold)
	}
	return c, health, nil
}

// Result is the outcome of one run.
type Result struct {
	RunID string

	// Hot store row counts; nil when the hot phase failed.
	RowsBefore *int64
	RowsAfter  *int64

	// Cold store live-byte estimates; nil when unknown or failed.
	ColdBytesBefore *uint64
	ColdBytesAfter  *uint64

	HotReductionPercent  float64
	ColdReductionPercent float64
	ReductionPercent     float64

	HealthMetric   float64
	DeathThreshold float64
	DeathTriggered bool

	HotErr  error
	ColdErr error

	// Receipt is the stamped compaction_complete receipt.
	Receipt receipt.Receipt
}

// Option configures a Gate.
type Option func(*Gate)

// WithClock sets the time source for receipt timestamps.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// WithRunIDs sets the run id generator.
func WithRunIDs(gen ids.Generator) Option {
	return func(g *Gate) { g.runIDs = gen }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) { g.logger = logger }
}

// WithValidator sets the validator the emitted receipt must pass.
func WithValidator(v *schema.Validator) Option {
	return func(g *Gate) { g.validator = v }
}

// Gate orchestrates compaction runs over one hot and one cold store.
type Gate struct {
	hot       HotStore
	cold      ColdStore
	signer    signature.Signer
	validator *schema.Validator
	now       func() time.Time
	runIDs    ids.Generator
	logger    *slog.Logger
}

// NewGate returns a Gate. Either store may be nil, in which case that phase
// is reported as failed.
func NewGate(hot HotStore, cold ColdStore, signer signature.Signer, opts ...Option) *Gate {
	g := &Gate{
		hot:    hot,
		cold:   cold,
		signer: signer,
		now:    time.Now,
		runIDs: ids.UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

var errNoStore = errors.New("store not configured")

// Run executes one compaction run. It returns an error only for invalid
// configuration, when both stores fail, or when the receipt cannot be
// built. Death criteria are reported in the Result, not as an error.
func (g *Gate) Run(ctx context.Context, cfg Config) (*Result, error) {
	cfg, health, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	if g.validator != nil && !g.validator.AcceptsProducer(receipt.ProducerDraxMetrics) {
		return nil, fmt.Errorf("%w: producer %q is not accepted", ErrInvalidConfig, receipt.ProducerDraxMetrics)
	}

	res := &Result{
		RunID:          g.runIDs.Generate(),
		HealthMetric:   health,
		DeathThreshold: cfg.DeathThreshold,
		DeathTriggered: health < cfg.DeathThreshold,
	}
	logger := g.logger.With("run_id", res.RunID, "tenant_id", cfg.TenantID)
	logger.Info("compaction started")

	g.runHot(ctx, res)
	if res.HotErr != nil {
		logger.Warn("hot store phase failed", "error", res.HotErr)
	}
	g.runCold(ctx, res)
	if res.ColdErr != nil {
		logger.Warn("cold store phase failed", "error", res.ColdErr)
	}
	if res.HotErr != nil && res.ColdErr != nil {
		return nil, fmt.Errorf("compaction aborted: %w", errors.Join(res.HotErr, res.ColdErr))
	}

	res.ReductionPercent = max(res.HotReductionPercent, res.ColdReductionPercent)

	r, err := g.buildReceipt(cfg.TenantID, res)
	if err != nil {
		return nil, err
	}
	res.Receipt = r

	logger.Info("compaction finished",
		"reduction_percent", round2(res.ReductionPercent),
		"health_metric", health,
		"death_triggered", res.DeathTriggered,
	)
	return res, nil
}

func (g *Gate) runHot(ctx context.Context, res *Result) {
	if g.hot == nil {
		res.HotErr = &StoreError{Store: StoreHot, Op: "open", Err: errNoStore}
		return
	}
	unlock := lockStore(g.hot)
	defer unlock()

	before, err := g.hot.RowCount(ctx)
	if err != nil {
		res.HotErr = &StoreError{Store: StoreHot, Op: "count", Err: err}
		return
	}
	if err := g.hot.Reclaim(ctx); err != nil {
		res.HotErr = &StoreError{Store: StoreHot, Op: "reclaim", Err: err}
		return
	}
	after, err := g.hot.RowCount(ctx)
	if err != nil {
		res.HotErr = &StoreError{Store: StoreHot, Op: "count", Err: err}
		return
	}

	res.RowsBefore, res.RowsAfter = &before, &after
	res.HotReductionPercent = reduction(float64(before), float64(after))
}

func (g *Gate) runCold(ctx context.Context, res *Result) {
	if g.cold == nil {
		res.ColdErr = &StoreError{Store: StoreCold, Op: "open", Err: errNoStore}
		return
	}
	unlock := lockStore(g.cold)
	defer unlock()

	before, beforeKnown, err := g.cold.EstimateLiveBytes(ctx)
	if err != nil {
		res.ColdErr = &StoreError{Store: StoreCold, Op: "estimate", Err: err}
		return
	}
	if err := g.cold.CompactAll(ctx); err != nil {
		res.ColdErr = &StoreError{Store: StoreCold, Op: "compact", Err: err}
		return
	}
	after, afterKnown, err := g.cold.EstimateLiveBytes(ctx)
	if err != nil {
		res.ColdErr = &StoreError{Store: StoreCold, Op: "estimate", Err: err}
		return
	}

	if beforeKnown {
		res.ColdBytesBefore = &before
	}
	if afterKnown {
		res.ColdBytesAfter = &after
	}
	if beforeKnown && afterKnown {
		res.ColdReductionPercent = reduction(float64(before), float64(after))
	}
}

// reduction is the percentage drop from before to after. No data before
// means no reduction; growth clamps to zero.
func reduction(before, after float64) float64 {
	if before <= 0 {
		return 0
	}
	return max((before-after)/before*100, 0)
}

// runLocks serializes runs per pointer-typed store that does not implement
// sync.Locker. Entries are never removed.
var runLocks sync.Map

// lockStore locks store for one phase. Stores that are neither a sync.Locker
// nor a pointer are not serialized.
func lockStore(store any) (unlock func()) {
	if l, ok := store.(sync.Locker); ok {
		l.Lock()
		return l.Unlock
	}
	if reflect.TypeOf(store).Kind() != reflect.Pointer {
		return func() {}
	}
	m, _ := runLocks.LoadOrStore(store, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10_000) / 10_000
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
