package types

import "github.com/ethereum/go-ethereum/common"

// PoolState is the lifecycle state of an analysis pool.
type PoolState string

const (
	PoolStateActive   PoolState = "active"
	PoolStateResolved PoolState = "resolved"
)

// AnalysisPool is an analysis attached to a claim with a directional stance
// and a creator stake. All amounts are in the smallest currency unit.
type AnalysisPool struct {
	ID            uint64         `json:"id"`
	ClaimID       uint64         `json:"claim_id"`
	Creator       common.Address `json:"creator"`
	Stance        Stance         `json:"stance"`
	CreatorStake  int64          `json:"creator_stake"`
	AgreeTotal    int64          `json:"agree_total"`
	DisagreeTotal int64          `json:"disagree_total"`
	TotalStaked   int64          `json:"total_staked"` // as separately recorded by the ledger
	State         PoolState      `json:"state"`

	// CreatorWasCorrect is only meaningful once State is PoolStateResolved.
	CreatorWasCorrect bool `json:"creator_was_correct"`
}

// IsResolved reports whether the pool has been settled by the ledger.
func (p *AnalysisPool) IsResolved() bool {
	return p.State == PoolStateResolved
}

// SideTotal returns the aggregate amount staked on the given choice.
func (p *AnalysisPool) SideTotal(c Choice) int64 {
	if c == ChoiceAgree {
		return p.AgreeTotal
	}
	return p.DisagreeTotal
}
