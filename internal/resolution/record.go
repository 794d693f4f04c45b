package resolution

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/mselser95/claimpool/internal/reward"
	"github.com/mselser95/claimpool/pkg/types"
)

// SettlementRecord is the audit entry written once per resolved pool.
type SettlementRecord struct {
	ID          string            `json:"id"`
	PoolID      uint64            `json:"pool_id"`
	ClaimID     uint64            `json:"claim_id"`
	Creator     common.Address    `json:"creator"`
	BlockNumber uint64            `json:"block_number"`
	Breakdown   *reward.Breakdown `json:"breakdown"`
	SettledAt   time.Time         `json:"settled_at"`
}

// NewSettlementRecord wraps a computed breakdown with a fresh id.
func NewSettlementRecord(pool types.AnalysisPool, blockNumber uint64, breakdown *reward.Breakdown) *SettlementRecord {
	return &SettlementRecord{
		ID:          uuid.New().String(),
		PoolID:      pool.ID,
		ClaimID:     pool.ClaimID,
		Creator:     pool.Creator,
		BlockNumber: blockNumber,
		Breakdown:   breakdown,
		SettledAt:   time.Now().UTC(),
	}
}

// Storage persists settlements and reputation records.
type Storage interface {
	// HasSettlement reports whether poolID was already settled.
	HasSettlement(ctx context.Context, poolID uint64) (bool, error)

	// CommitSettlement stores the settlement and the creator's updated
	// reputation atomically.
	CommitSettlement(ctx context.Context, record *SettlementRecord, reputation types.ReputationRecord) error

	// LoadReputation returns the stored record, or false when none exists.
	LoadReputation(ctx context.Context, participant common.Address) (types.ReputationRecord, bool, error)

	// Close releases the storage.
	Close() error
}
