package testutil

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/claimpool/pkg/types"
)

// Well-known participant addresses for tests.
var (
	Creator = common.HexToAddress("0x000000000000000000000000000000000000c0de")
	Alice   = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	Bob     = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	Carol   = common.HexToAddress("0x00000000000000000000000000000000000ca401")
	Dave    = common.HexToAddress("0x0000000000000000000000000000000000000da7")
)

// CreateTestPool creates an active pool owned by Creator with consistent totals.
func CreateTestPool(id uint64, stance types.Stance, creatorStake, agree, disagree int64) types.AnalysisPool {
	return types.AnalysisPool{
		ID:            id,
		ClaimID:       id + 100,
		Creator:       Creator,
		Stance:        stance,
		CreatorStake:  creatorStake,
		AgreeTotal:    agree,
		DisagreeTotal: disagree,
		TotalStaked:   creatorStake + agree + disagree,
		State:         types.PoolStateActive,
	}
}

// CreateResolvedPool creates a resolved pool owned by Creator.
func CreateResolvedPool(id uint64, stance types.Stance, creatorStake, agree, disagree int64, correct bool) types.AnalysisPool {
	pool := CreateTestPool(id, stance, creatorStake, agree, disagree)
	pool.State = types.PoolStateResolved
	pool.CreatorWasCorrect = correct
	return pool
}

// CreateTestStake creates a stake on poolID.
func CreateTestStake(id, poolID uint64, who common.Address, choice types.Choice, amount int64) types.ParticipantStake {
	return types.ParticipantStake{
		ID:          id,
		PoolID:      poolID,
		Participant: who,
		Amount:      amount,
		Choice:      choice,
		CreatedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// CreateResolvedClaim creates a resolved claim with the given outcome.
func CreateResolvedClaim(id uint64, outcome types.Outcome) types.Claim {
	resolvedAt := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	return types.Claim{
		ID:         id,
		State:      types.ClaimStateResolved,
		Outcome:    &outcome,
		ResolvedAt: &resolvedAt,
	}
}

// CreateScenarioPool returns the reference pool used across tests: creator
// 500, agree 500 (Alice 300, Bob 200), disagree 3200 (Carol 2000, Dave 1200).
func CreateScenarioPool(id uint64, correct bool) (types.AnalysisPool, []types.ParticipantStake) {
	pool := CreateResolvedPool(id, types.StanceAffirmative, 500, 500, 3200, correct)
	stakes := []types.ParticipantStake{
		CreateTestStake(id*10+1, id, Alice, types.ChoiceAgree, 300),
		CreateTestStake(id*10+2, id, Bob, types.ChoiceAgree, 200),
		CreateTestStake(id*10+3, id, Carol, types.ChoiceDisagree, 2000),
		CreateTestStake(id*10+4, id, Dave, types.ChoiceDisagree, 1200),
	}
	return pool, stakes
}
