// Package schema validates receipts: the base fields every receipt carries,
// then the fields required by its receipt_type.
//
// Base checks run in Go in a fixed order so the first failure reported is
// stable. Type-specific rules live in receipt_types.cue and are checked by
// unifying the receipt with its CUE definition.
package schema

import (
	_ "embed"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"

	"github.com/roach88/glyph/internal/hashing"
	"github.com/roach88/glyph/internal/receipt"
)

//go:embed receipt_types.cue
var typeDefinitions []byte

// Validator checks receipts against the base and per-type rules.
// Safe for concurrent use.
type Validator struct {
	producers []string

	mu    sync.Mutex
	ctx   *cue.Context
	types cue.Value
}

// New returns a Validator accepting the given emitted_by names. An empty list
// selects receipt.DefaultProducers.
func New(producers []string) (*Validator, error) {
	if len(producers) == 0 {
		producers = receipt.DefaultProducers
	}
	ctx := cuecontext.New()
	types := ctx.CompileBytes(typeDefinitions, cue.Filename("receipt_types.cue"))
	if err := types.Err(); err != nil {
		return nil, fmt.Errorf("compile receipt type definitions: %w", err)
	}
	return &Validator{
		producers: slices.Clone(producers),
		ctx:       ctx,
		types:     types,
	}, nil
}

// Producers returns the accepted emitted_by names.
func (v *Validator) Producers() []string {
	return slices.Clone(v.producers)
}

// AcceptsProducer reports whether name is an accepted emitted_by value.
func (v *Validator) AcceptsProducer(name string) bool {
	return slices.Contains(v.producers, name)
}

// Validate returns nil when r is structurally valid, otherwise a
// *ValidationError naming the first offending field.
func (v *Validator) Validate(r receipt.Receipt) error {
	if err := v.validateBase(r); err != nil {
		return err
	}
	return v.validateType(r)
}

func (v *Validator) validateBase(r receipt.Receipt) error {
	if s, _ := r.StringField(receipt.FieldVersion); s != receipt.Version {
		return invalid(receipt.FieldVersion, "must be %q", receipt.Version)
	}

	id, _ := r.StringField(receipt.FieldReceiptID)
	suffix, ok := strings.CutPrefix(id, receipt.IDPrefix)
	if !ok || len(suffix) != 32 || !hashing.IsLowerHex(suffix) {
		return invalid(receipt.FieldReceiptID, "must be %q followed by 32 lowercase hex chars", receipt.IDPrefix)
	}

	raw, present := r[receipt.FieldTimestamp]
	if !present {
		return invalid(receipt.FieldTimestamp, "is required")
	}
	if ts, ok := receipt.Int64(raw); !ok || ts < 0 {
		return invalid(receipt.FieldTimestamp, "must be a non-negative integer")
	}

	if s, _ := r.StringField(receipt.FieldTenantID); s == "" {
		return invalid(receipt.FieldTenantID, "must be a non-empty string")
	}

	typ, _ := r.StringField(receipt.FieldType)
	if !receipt.Type(typ).Known() {
		return invalid(receipt.FieldType, "unknown receipt type %q", typ)
	}

	producer, _ := r.StringField(receipt.FieldEmittedBy)
	if !slices.Contains(v.producers, producer) {
		return invalid(receipt.FieldEmittedBy, "unknown producer %q", producer)
	}

	hash, _ := r.StringField(receipt.FieldContentHash)
	if len(hash) != hashing.HexSize || !hashing.IsLowerHex(hash) {
		return invalid(receipt.FieldContentHash, "must be %d lowercase hex chars", hashing.HexSize)
	}

	sig, _ := r.StringField(receipt.FieldSignature)
	if len(sig) < hashing.HexSize || !hashing.IsLowerHex(sig) {
		return invalid(receipt.FieldSignature, "must be at least %d lowercase hex chars", hashing.HexSize)
	}
	return nil
}

func (v *Validator) validateType(r receipt.Receipt) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	def := v.types.LookupPath(cue.ParsePath("#" + string(r.Type())))
	if !def.Exists() {
		return nil
	}

	data, err := receipt.Marshal(r)
	if err != nil {
		return invalid("", "encode: %v", err)
	}
	doc := v.ctx.CompileBytes(data, cue.Filename(r.ID()+".json"))
	if err := doc.Err(); err != nil {
		return invalid("", "decode: %v", err)
	}

	unified := def.Unify(doc)
	iter, err := def.Fields()
	if err != nil {
		return invalid("", "definition: %v", err)
	}
	for iter.Next() {
		sel := iter.Selector()
		field := unified.LookupPath(cue.MakePath(sel))
		if err := field.Validate(cue.Concrete(true)); err != nil {
			return cueFailure(sel.String(), err)
		}
	}
	return nil
}

// cueFailure converts the first CUE error into a ValidationError. Missing
// fields surface as incomplete values.
func cueFailure(label string, err error) *ValidationError {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return invalid(label, "%v", err)
	}
	first := errs[0]

	field := label
	if path := first.Path(); len(path) > 0 && path[0] == label {
		// Report the field, not a list element inside it.
		end := len(path)
		for i, p := range path {
			if _, err := strconv.Atoi(p); err == nil {
				end = i
				break
			}
		}
		field = strings.Join(path[:end], ".")
	}
	format, args := first.Msg()
	reason := fmt.Sprintf(format, args...)
	if strings.HasPrefix(reason, "incomplete value") {
		reason = "is required"
	}
	return invalid(field, "%s", reason)
}
