package types

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotImplemented marks a live-mode handler that has no real
	// implementation yet. Callers can match on it without string checks.
	ErrNotImplemented = errors.New("operation not implemented")

	// ErrPriceFetch marks a failed pool quote or token metadata lookup.
	// The scheduler aborts the whole cycle when it sees this.
	ErrPriceFetch = errors.New("price fetch failed")

	// ErrArithmeticDomain marks a division by zero price or a malformed
	// sqrt-price input. It is signaled instead of letting NaN or Inf
	// propagate downstream.
	ErrArithmeticDomain = errors.New("arithmetic domain error")
)

// StageError reports a pipeline leg that failed after retries were
// exhausted, including the amount stranded at that point. The pipeline
// does not attempt recovery or compensation.
type StageError struct {
	Stage    string
	Stranded decimal.Decimal
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline stage %s failed with %s stranded: %v", e.Stage, e.Stranded, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
