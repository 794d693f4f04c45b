package types

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ParticipantStake is one participant's stake on a pool. It is immutable
// once created except for Withdrawn, which the ledger sets after settlement.
type ParticipantStake struct {
	ID          uint64         `json:"id"`
	PoolID      uint64         `json:"pool_id"`
	Participant common.Address `json:"participant"`
	Amount      int64          `json:"amount"`
	Choice      Choice         `json:"choice"`
	CreatedAt   time.Time      `json:"created_at"`
	Withdrawn   bool           `json:"withdrawn"`
}
