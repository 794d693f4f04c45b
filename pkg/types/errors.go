package types

import (
	"errors"
	"fmt"
)

var (
	// ErrInvariantViolation marks inputs that break a data-model invariant.
	// It is never corrected silently.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrOverflow marks arithmetic that would leave the supported range.
	ErrOverflow = errors.New("numeric overflow")

	// ErrPoolNotResolved is returned when settling a pool that is still active.
	ErrPoolNotResolved = fmt.Errorf("pool not resolved: %w", ErrInvariantViolation)

	// ErrPoolNotActive is returned when previewing a stake on a resolved pool.
	ErrPoolNotActive = errors.New("pool not active")

	// ErrClaimNotIndexed is returned when a pool's claim is missing from the
	// caller-supplied claim index.
	ErrClaimNotIndexed = fmt.Errorf("claim not indexed: %w", ErrInvariantViolation)
)

// Error kinds used by SettlementError and as metric labels.
const (
	KindInvariant = "invariant_violation"
	KindOverflow  = "overflow"
	KindState     = "invalid_state"
)

// SettlementError describes a failed settlement or scoring computation.
type SettlementError struct {
	Kind   string // one of the Kind* constants
	Op     string // operation that failed, e.g. "calculate"
	PoolID uint64 // zero when not pool-specific
	Detail string
	Err    error // sentinel, matched with errors.Is
}

func (e *SettlementError) Error() string {
	if e.PoolID != 0 {
		return fmt.Sprintf("%s pool %d: %s: %v", e.Op, e.PoolID, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Detail, e.Err)
}

func (e *SettlementError) Unwrap() error {
	return e.Err
}

// Invariant builds an invariant-violation error.
func Invariant(op string, poolID uint64, format string, args ...any) error {
	return &SettlementError{
		Kind:   KindInvariant,
		Op:     op,
		PoolID: poolID,
		Detail: fmt.Sprintf(format, args...),
		Err:    ErrInvariantViolation,
	}
}

// Overflow builds an overflow error.
func Overflow(op string, poolID uint64, format string, args ...any) error {
	return &SettlementError{
		Kind:   KindOverflow,
		Op:     op,
		PoolID: poolID,
		Detail: fmt.Sprintf(format, args...),
		Err:    ErrOverflow,
	}
}

// ErrorKind classifies err for metrics and HTTP status mapping.
func ErrorKind(err error) string {
	var se *SettlementError
	if errors.As(err, &se) {
		return se.Kind
	}
	switch {
	case errors.Is(err, ErrOverflow):
		return KindOverflow
	case errors.Is(err, ErrInvariantViolation):
		return KindInvariant
	case errors.Is(err, ErrPoolNotActive):
		return KindState
	default:
		return "unknown"
	}
}
