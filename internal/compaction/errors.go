package compaction

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned before any store is touched.
var ErrInvalidConfig = errors.New("compaction: invalid config")

// Store names used in StoreError and receipt fields.
const (
	StoreHot  = "hot"
	StoreCold = "cold"
)

// StoreError is a failure of one store's phase.
type StoreError struct {
	Store string
	Op    string
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s store %s: %v", e.Store, e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
