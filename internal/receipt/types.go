package receipt

import (
	"encoding/json"
	"math"
	"slices"
	"strconv"
)

// Version is the only receipt schema version.
const Version = "1.0"

// IDPrefix prefixes every receipt_id.
const IDPrefix = "receipt-"

// Base field names present on every receipt.
const (
	FieldVersion     = "version"
	FieldReceiptID   = "receipt_id"
	FieldTimestamp   = "timestamp"
	FieldTenantID    = "tenant_id"
	FieldType        = "receipt_type"
	FieldEmittedBy   = "emitted_by"
	FieldContentHash = "content_hash"
	FieldSignature   = "signature"
)

// volatileFields are excluded from the canonical form.
var volatileFields = []string{FieldContentHash, FieldSignature, FieldReceiptID}

// IsVolatile reports whether key is excluded from the canonical form.
func IsVolatile(key string) bool {
	return slices.Contains(volatileFields, key)
}

// Type is the receipt_type enum.
type Type string

// Receipt types.
const (
	TypeBoreProgress           Type = "bore_progress"
	TypeOrbitalTelemetry       Type = "orbital_telemetry"
	TypeZKAnomalyProof         Type = "zk_anomaly_proof"
	TypeEntanglementPrediction Type = "entanglement_prediction"
	TypeAnomalyDetected        Type = "anomaly_detected"
	TypePhaseTransition        Type = "phase_transition"
	TypeSwarmVote              Type = "swarm_vote"
	TypeCompactionComplete     Type = "compaction_complete"
	TypeVoicePageSent          Type = "voice_page_sent"
)

// KnownTypes lists every accepted receipt_type.
var KnownTypes = []Type{
	TypeBoreProgress,
	TypeOrbitalTelemetry,
	TypeZKAnomalyProof,
	TypeEntanglementPrediction,
	TypeAnomalyDetected,
	TypePhaseTransition,
	TypeSwarmVote,
	TypeCompactionComplete,
	TypeVoicePageSent,
}

// Known reports whether t is one of KnownTypes.
func (t Type) Known() bool {
	return slices.Contains(KnownTypes, t)
}

// Producer names shipped as the default emitted_by set.
const (
	ProducerRocketEngine         = "rocket-engine"
	ProducerNebulaGuard          = "nebula-guard"
	ProducerDigitalTwin          = "digital-twin-groot"
	ProducerDraxMetrics          = "drax-metrics"
	ProducerMantisCommunity      = "mantis-community"
	ProducerStarLordOrchestrator = "star-lord-orchestrator"
	ProducerGrootSwarm           = "groot-swarm"
	ProducerLedgerExplorer       = "ledger-explorer"
)

// DefaultProducers is used when configuration does not name a producer set.
var DefaultProducers = []string{
	ProducerRocketEngine,
	ProducerNebulaGuard,
	ProducerDigitalTwin,
	ProducerDraxMetrics,
	ProducerMantisCommunity,
	ProducerStarLordOrchestrator,
	ProducerGrootSwarm,
	ProducerLedgerExplorer,
}

// Receipt is a decoded receipt object. Values are string, json.Number, bool,
// nil, map[string]any or []any; Go numeric types are accepted when building
// receipts in code.
type Receipt map[string]any

// New builds an unstamped receipt with the base fields set.
func New(typ Type, emittedBy, tenantID string, timestamp int64, fields map[string]any) Receipt {
	r := make(Receipt, len(fields)+8)
	for k, v := range fields {
		r[k] = v
	}
	r[FieldVersion] = Version
	r[FieldTimestamp] = timestamp
	r[FieldTenantID] = tenantID
	r[FieldType] = string(typ)
	r[FieldEmittedBy] = emittedBy
	return r
}

// StringField returns r[key] if it is a string.
func (r Receipt) StringField(key string) (string, bool) {
	s, ok := r[key].(string)
	return s, ok
}

// Type returns the receipt_type, or "" when absent.
func (r Receipt) Type() Type {
	s, _ := r.StringField(FieldType)
	return Type(s)
}

// ID returns the receipt_id, or "" when absent.
func (r Receipt) ID() string {
	s, _ := r.StringField(FieldReceiptID)
	return s
}

// TenantID returns the tenant_id, or "" when absent.
func (r Receipt) TenantID() string {
	s, _ := r.StringField(FieldTenantID)
	return s
}

// StoredHash returns the stored content_hash, or "" when absent.
func (r Receipt) StoredHash() string {
	s, _ := r.StringField(FieldContentHash)
	return s
}

// Signature returns the stored signature, or "" when absent.
func (r Receipt) Signature() string {
	s, _ := r.StringField(FieldSignature)
	return s
}

// Clone returns a deep copy; stamped receipts never alias their input.
func (r Receipt) Clone() Receipt {
	out := make(Receipt, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, e := range val {
			m[k] = cloneValue(e)
		}
		return m
	case Receipt:
		return map[string]any(val.Clone())
	case []any:
		arr := make([]any, len(val))
		for i, e := range val {
			arr[i] = cloneValue(e)
		}
		return arr
	default:
		return v
	}
}

// Int64 converts a decoded numeric value to int64. It fails for non-integral
// or out-of-range values and for non-numbers.
func Int64(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := strconv.ParseInt(string(n), 10, 64)
		return i, err == nil
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float64:
		if n != math.Trunc(n) || math.Abs(n) > 1<<53 {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}

// Float64 converts a decoded numeric value to float64.
func Float64(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := strconv.ParseFloat(string(n), 64)
		return f, err == nil
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
