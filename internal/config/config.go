// Package config loads the glyph TOML configuration.
//
// A missing file yields Default(). Environment overrides are applied by
// Load through an injected getenv so the core packages never read the
// environment themselves.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/pelletier/go-toml/v2"

	"github.com/roach88/glyph/internal/receipt"
	"github.com/roach88/glyph/internal/signature"
)

// DefaultPath is the config file used when --config is not given.
const DefaultPath = "config/glyph.toml"

// Environment variables read by Load.
const (
	EnvTenantID        = "TENANT_ID"
	EnvPCETransitivity = "PCE_TRANSITIVITY"
)

// Defaults.
const (
	DefaultTenantID            = "xai-memphis-01"
	DefaultHotPath             = "data/ledger.sqlite"
	DefaultColdPath            = "data/ledger.pebble"
	DefaultPCETransitivity     = 1.0
	DefaultDeathThreshold      = 0.90
	DefaultDivergenceThreshold = 0.05
)

// Config is the full configuration.
type Config struct {
	TenantID  string            `toml:"tenant_id"`
	Producers []string          `toml:"producers"`
	Ledger    Ledger            `toml:"ledger"`
	SLO       SLO               `toml:"slo"`
	Signature Signature         `toml:"signature"`
	Metrics   Metrics           `toml:"metrics"`
	Tenants   map[string]Tenant `toml:"tenants"`
}

// Ledger locates the two stores.
type Ledger struct {
	Hot  StorePath `toml:"hot"`
	Cold StorePath `toml:"cold"`
}

// StorePath is one store location. Relative paths are resolved against the
// config file's directory.
type StorePath struct {
	Path string `toml:"path"`
}

// SLO holds the global health thresholds.
type SLO struct {
	PCETransitivity     float64 `toml:"pce_transitivity"`
	DeathThreshold      float64 `toml:"death_threshold"`
	DivergenceThreshold float64 `toml:"divergence_threshold"`
}

// Signature configures the stub signer.
type Signature struct {
	Tag string `toml:"tag"`
}

// Metrics configures the optional Prometheus textfile export.
type Metrics struct {
	Textfile string `toml:"textfile"`
}

// Tenant holds per-tenant threshold overrides. Nil means inherit.
type Tenant struct {
	DeathThreshold      *float64 `toml:"death_threshold"`
	DivergenceThreshold *float64 `toml:"divergence_threshold"`
}

// Thresholds are the effective thresholds for one tenant.
type Thresholds struct {
	Death      float64
	Divergence float64
}

// Error is a configuration failure. It is fatal before any store is opened.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		TenantID:  DefaultTenantID,
		Producers: append([]string(nil), receipt.DefaultProducers...),
		Ledger: Ledger{
			Hot:  StorePath{Path: DefaultHotPath},
			Cold: StorePath{Path: DefaultColdPath},
		},
		SLO: SLO{
			PCETransitivity:     DefaultPCETransitivity,
			DeathThreshold:      DefaultDeathThreshold,
			DivergenceThreshold: DefaultDivergenceThreshold,
		},
		Signature: Signature{Tag: signature.DefaultTag},
		Tenants:   map[string]Tenant{},
	}
}

// Load reads path over Default, resolves store paths and applies the
// environment overrides. getenv may be nil.
func Load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Defaults only.
	case err != nil:
		return Config{}, &Error{Path: path, Err: err}
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, &Error{Path: path, Err: err}
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, &Error{Path: path, Err: err}
	}

	dir := filepath.Dir(path)
	cfg.Ledger.Hot.Path = resolve(dir, cfg.Ledger.Hot.Path)
	cfg.Ledger.Cold.Path = resolve(dir, cfg.Ledger.Cold.Path)
	if cfg.Metrics.Textfile != "" {
		cfg.Metrics.Textfile = resolve(dir, cfg.Metrics.Textfile)
	}

	if getenv != nil {
		cfg.applyEnv(getenv)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.TenantID == "" {
		return errors.New("tenant_id must not be empty")
	}
	if len(c.Producers) == 0 {
		return errors.New("producers must not be empty")
	}
	if !slices.Contains(c.Producers, receipt.ProducerDraxMetrics) {
		return fmt.Errorf("producers must include %q, the compaction receipt producer", receipt.ProducerDraxMetrics)
	}
	if c.Ledger.Hot.Path == "" || c.Ledger.Cold.Path == "" {
		return errors.New("ledger.hot.path and ledger.cold.path are required")
	}
	if v := c.SLO.PCETransitivity; !finite(v) || v < 0 {
		return fmt.Errorf("slo.pce_transitivity must be a finite non-negative number, got %v", v)
	}
	// Thresholds must be positive: zero is how callers ask for the default.
	for name, v := range map[string]float64{
		"slo.death_threshold":      c.SLO.DeathThreshold,
		"slo.divergence_threshold": c.SLO.DivergenceThreshold,
	} {
		if !finite(v) || v <= 0 {
			return fmt.Errorf("%s must be a finite positive number, got %v", name, v)
		}
	}
	for tenant, t := range c.Tenants {
		for name, v := range map[string]*float64{
			"death_threshold":      t.DeathThreshold,
			"divergence_threshold": t.DivergenceThreshold,
		} {
			if v != nil && (!finite(*v) || *v <= 0) {
				return fmt.Errorf("tenants.%q.%s must be a finite positive number, got %v", tenant, name, *v)
			}
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// applyEnv applies TENANT_ID and PCE_TRANSITIVITY. An unparseable or
// non-finite PCE_TRANSITIVITY is ignored.
func (c *Config) applyEnv(getenv func(string) string) {
	if tenant := getenv(EnvTenantID); tenant != "" {
		c.TenantID = tenant
	}
	if raw := getenv(EnvPCETransitivity); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && finite(v) {
			c.SLO.PCETransitivity = v
		}
	}
}

// Thresholds returns the effective thresholds for tenant: the tenant's
// override, else the global value, else the built-in default.
func (c Config) Thresholds(tenant string) Thresholds {
	th := Thresholds{
		Death:      orDefault(c.SLO.DeathThreshold, DefaultDeathThreshold),
		Divergence: orDefault(c.SLO.DivergenceThreshold, DefaultDivergenceThreshold),
	}
	if t, ok := c.Tenants[tenant]; ok {
		if t.DeathThreshold != nil {
			th.Death = *t.DeathThreshold
		}
		if t.DivergenceThreshold != nil {
			th.Divergence = *t.DivergenceThreshold
		}
	}
	return th
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
