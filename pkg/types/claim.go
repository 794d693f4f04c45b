package types

import "time"

// ClaimState is the lifecycle state of a published claim.
type ClaimState string

const (
	ClaimStateActive   ClaimState = "active"
	ClaimStateResolved ClaimState = "resolved"
)

// Outcome is the binary result of a resolved claim.
type Outcome string

const (
	OutcomeYes Outcome = "yes"
	OutcomeNo  Outcome = "no"
)

// Claim is a published predictive statement ("NEWS"). It is owned by the
// ledger and consumed read-only.
type Claim struct {
	ID         uint64     `json:"id"`
	State      ClaimState `json:"state"`
	Outcome    *Outcome   `json:"outcome,omitempty"` // set once resolved
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// IsResolved reports whether the claim has a final outcome.
func (c *Claim) IsResolved() bool {
	return c.State == ClaimStateResolved
}

// ClaimIndex joins pools to their claims. Callers build it from a ledger
// snapshot and pass it in explicitly.
type ClaimIndex map[uint64]Claim
