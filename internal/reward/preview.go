package reward

import (
	"fmt"

	"github.com/mselser95/claimpool/pkg/types"
)

// Preview is a non-binding estimate for a stake that has not been placed yet.
// It must never be presented as a settled amount.
type Preview struct {
	PoolID            uint64       `json:"pool_id"`
	Choice            types.Choice `json:"choice"`
	Amount            int64        `json:"amount"`
	CreatorWasCorrect bool         `json:"creator_was_correct"` // hypothetical outcome
	Split
	Reward     int64 `json:"reward"`
	NonBinding bool  `json:"non_binding"`
}

// PreviewStake estimates what a new stake of amount on choice would receive
// if the pool resolved with the given hypothetical outcome. The stake is
// added to the current totals before splitting.
func PreviewStake(pool types.AnalysisPool, choice types.Choice, amount int64, creatorCorrect bool) (*Preview, error) {
	const op = "preview"

	if pool.State != types.PoolStateActive {
		return nil, &types.SettlementError{
			Kind:   types.KindState,
			Op:     op,
			PoolID: pool.ID,
			Detail: "pool state is " + string(pool.State),
			Err:    types.ErrPoolNotActive,
		}
	}

	err := ValidatePool(op, pool)
	if err != nil {
		return nil, err
	}

	if !choice.Valid() {
		return nil, types.Invariant(op, pool.ID, "invalid choice %d", uint8(choice))
	}
	if amount <= 0 {
		return nil, types.Invariant(op, pool.ID, "stake amount must be positive, got %d", amount)
	}

	agree, disagree := pool.AgreeTotal, pool.DisagreeTotal
	var ok bool
	if choice == types.ChoiceAgree {
		agree, ok = addChecked(agree, amount)
	} else {
		disagree, ok = addChecked(disagree, amount)
	}
	if !ok {
		return nil, types.Overflow(op, pool.ID, "hypothetical side total exceeds int64")
	}

	split, err := splitPool(op, pool.ID, pool.CreatorStake, agree, disagree, creatorCorrect)
	if err != nil {
		return nil, err
	}

	reward, err := ShareOf(split, choice, amount)
	if err != nil {
		return nil, fmt.Errorf("preview share: %w", err)
	}

	return &Preview{
		PoolID:            pool.ID,
		Choice:            choice,
		Amount:            amount,
		CreatorWasCorrect: creatorCorrect,
		Split:             split,
		Reward:            reward,
		NonBinding:        true,
	}, nil
}
