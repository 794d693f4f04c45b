// Package reward computes settlement amounts for resolved analysis pools and
// non-binding previews for active ones. Everything here is pure integer
// arithmetic on the smallest currency unit and must match the ledger's own
// settlement bit for bit.
package reward

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/claimpool/pkg/types"
)

// Constants hard-coded in the ledger contract. Changing any of them requires a
// synchronized contract upgrade.
const (
	FeeBPS          = 200 // protocol fee, 2%
	BPSDenominator  = 10_000
	CreatorSharePct = 20 // of the distributable pool when the creator was right
	PctDenominator  = 100
)

// Split is the pool-level distribution: who gets what before it is divided
// among individual stakes.
type Split struct {
	TotalPool     int64        `json:"total_pool"`
	ProtocolFee   int64        `json:"protocol_fee"`
	Distributable int64        `json:"distributable"`
	CreatorShare  int64        `json:"creator_share"` // floor(20%) or 0
	StakerPool    int64        `json:"staker_pool"`
	WinningChoice types.Choice `json:"winning_choice"`
	WinningTotal  int64        `json:"winning_total"`

	// StakerPoolAccruedToCreator is set when nobody staked on the winning
	// side. The staker pool then accrues to the creator instead of vanishing.
	StakerPoolAccruedToCreator bool `json:"staker_pool_accrued_to_creator"`
}

// CreatorReward is the creator's full payout, including any accrued staker pool.
func (s Split) CreatorReward() int64 {
	if s.StakerPoolAccruedToCreator {
		return s.CreatorShare + s.StakerPool
	}
	return s.CreatorShare
}

// Payout is one stake's settlement. Losing stakes carry a zero reward; their
// forfeiture is implicit.
type Payout struct {
	StakeID     uint64         `json:"stake_id"`
	Participant common.Address `json:"participant"`
	Choice      types.Choice   `json:"choice"`
	Amount      int64          `json:"amount"`
	Reward      int64          `json:"reward"`
	Won         bool           `json:"won"`
}

// Breakdown is the full settlement of a resolved pool.
//
// Conservation: CreatorReward + DistributedToStakers + ProtocolFee + Remainder == TotalPool.
type Breakdown struct {
	PoolID            uint64 `json:"pool_id"`
	CreatorWasCorrect bool   `json:"creator_was_correct"`
	Split
	CreatorRewardTotal   int64    `json:"creator_reward"`
	Payouts              []Payout `json:"payouts"`
	DistributedToStakers int64    `json:"distributed_to_stakers"`
	Remainder            int64    `json:"remainder"` // floor dust left in the staker pool
}

// Conserved reports whether every unit of the pool is accounted for.
func (b *Breakdown) Conserved() bool {
	return b.CreatorRewardTotal+b.DistributedToStakers+b.ProtocolFee+b.Remainder == b.TotalPool
}

// Calculate settles a resolved pool. stakes must be the complete stake list
// for the pool; their per-choice sums must equal the pool's recorded totals.
func Calculate(pool types.AnalysisPool, stakes []types.ParticipantStake) (*Breakdown, error) {
	const op = "calculate"

	if !pool.IsResolved() {
		return nil, &types.SettlementError{
			Kind:   types.KindInvariant,
			Op:     op,
			PoolID: pool.ID,
			Detail: "pool state is " + string(pool.State),
			Err:    types.ErrPoolNotResolved,
		}
	}

	err := ValidatePool(op, pool)
	if err != nil {
		return nil, err
	}

	err = validateStakes(op, pool, stakes)
	if err != nil {
		return nil, err
	}

	split, err := splitPool(op, pool.ID, pool.CreatorStake, pool.AgreeTotal, pool.DisagreeTotal, pool.CreatorWasCorrect)
	if err != nil {
		return nil, err
	}

	breakdown := &Breakdown{
		PoolID:             pool.ID,
		CreatorWasCorrect:  pool.CreatorWasCorrect,
		Split:              split,
		CreatorRewardTotal: split.CreatorReward(),
		Payouts:            make([]Payout, 0, len(stakes)),
	}

	for _, stake := range stakes {
		payout := Payout{
			StakeID:     stake.ID,
			Participant: stake.Participant,
			Choice:      stake.Choice,
			Amount:      stake.Amount,
			Won:         stake.Choice == split.WinningChoice,
		}

		if payout.Won {
			payout.Reward, err = ShareOf(split, stake.Choice, stake.Amount)
			if err != nil {
				return nil, err
			}
			breakdown.DistributedToStakers += payout.Reward
		}

		breakdown.Payouts = append(breakdown.Payouts, payout)
	}

	if !split.StakerPoolAccruedToCreator {
		breakdown.Remainder = split.StakerPool - breakdown.DistributedToStakers
	}

	if breakdown.Remainder < 0 || !breakdown.Conserved() {
		return nil, types.Invariant(op, pool.ID, "distribution not conserved: creator=%d stakers=%d fee=%d remainder=%d total=%d",
			breakdown.CreatorRewardTotal, breakdown.DistributedToStakers, breakdown.ProtocolFee, breakdown.Remainder, breakdown.TotalPool)
	}

	return breakdown, nil
}

// ShareOf returns the reward a stake of amount on choice receives from split.
// It is zero for the losing side and when the staker pool accrued to the
// creator; it never divides by a zero winning total.
func ShareOf(split Split, choice types.Choice, amount int64) (int64, error) {
	const op = "share"

	if amount <= 0 {
		return 0, types.Invariant(op, 0, "stake amount must be positive, got %d", amount)
	}
	if choice != split.WinningChoice || split.StakerPoolAccruedToCreator {
		return 0, nil
	}
	if amount > split.WinningTotal {
		return 0, types.Invariant(op, 0, "stake %d exceeds winning total %d", amount, split.WinningTotal)
	}

	share, ok := mulDiv(split.StakerPool, amount, split.WinningTotal)
	if !ok {
		return 0, types.Overflow(op, 0, "%d * %d / %d", split.StakerPool, amount, split.WinningTotal)
	}
	return share, nil
}

// ValidatePool checks the recorded totals of a pool snapshot.
func ValidatePool(op string, pool types.AnalysisPool) error {
	if !pool.Stance.Valid() {
		return types.Invariant(op, pool.ID, "invalid stance %d", uint8(pool.Stance))
	}
	if pool.CreatorStake < 0 || pool.AgreeTotal < 0 || pool.DisagreeTotal < 0 || pool.TotalStaked < 0 {
		return types.Invariant(op, pool.ID, "negative stake total: creator=%d agree=%d disagree=%d total=%d",
			pool.CreatorStake, pool.AgreeTotal, pool.DisagreeTotal, pool.TotalStaked)
	}

	sum, err := poolTotal(op, pool.ID, pool.CreatorStake, pool.AgreeTotal, pool.DisagreeTotal)
	if err != nil {
		return err
	}
	if sum != pool.TotalStaked {
		return types.Invariant(op, pool.ID, "creator %d + agree %d + disagree %d = %d, recorded total %d",
			pool.CreatorStake, pool.AgreeTotal, pool.DisagreeTotal, sum, pool.TotalStaked)
	}
	return nil
}

func validateStakes(op string, pool types.AnalysisPool, stakes []types.ParticipantStake) error {
	seen := make(map[uint64]struct{}, len(stakes))
	var agree, disagree int64
	var ok bool

	for _, stake := range stakes {
		if _, dup := seen[stake.ID]; dup {
			return types.Invariant(op, pool.ID, "duplicate stake %d", stake.ID)
		}
		seen[stake.ID] = struct{}{}

		if stake.PoolID != pool.ID {
			return types.Invariant(op, pool.ID, "stake %d belongs to pool %d", stake.ID, stake.PoolID)
		}
		if stake.Amount <= 0 {
			return types.Invariant(op, pool.ID, "stake %d has non-positive amount %d", stake.ID, stake.Amount)
		}

		switch stake.Choice {
		case types.ChoiceAgree:
			agree, ok = addChecked(agree, stake.Amount)
		case types.ChoiceDisagree:
			disagree, ok = addChecked(disagree, stake.Amount)
		default:
			return types.Invariant(op, pool.ID, "stake %d has invalid choice %d", stake.ID, uint8(stake.Choice))
		}
		if !ok {
			return types.Overflow(op, pool.ID, "stake sum exceeds int64")
		}
	}

	if agree != pool.AgreeTotal || disagree != pool.DisagreeTotal {
		return types.Invariant(op, pool.ID, "stakes sum to agree=%d disagree=%d, pool records agree=%d disagree=%d",
			agree, disagree, pool.AgreeTotal, pool.DisagreeTotal)
	}
	return nil
}

func poolTotal(op string, poolID uint64, creatorStake, agreeTotal, disagreeTotal int64) (int64, error) {
	sum, ok := addChecked(creatorStake, agreeTotal)
	if ok {
		sum, ok = addChecked(sum, disagreeTotal)
	}
	if !ok {
		return 0, types.Overflow(op, poolID, "pool total exceeds int64")
	}
	return sum, nil
}

// splitPool applies the fee and the creator/staker split for one outcome.
func splitPool(op string, poolID uint64, creatorStake, agreeTotal, disagreeTotal int64, creatorCorrect bool) (Split, error) {
	total, err := poolTotal(op, poolID, creatorStake, agreeTotal, disagreeTotal)
	if err != nil {
		return Split{}, err
	}

	fee, ok := mulDiv(total, FeeBPS, BPSDenominator)
	if !ok {
		return Split{}, types.Overflow(op, poolID, "protocol fee on %d", total)
	}

	split := Split{
		TotalPool:     total,
		ProtocolFee:   fee,
		Distributable: total - fee,
	}

	if creatorCorrect {
		split.CreatorShare, ok = mulDiv(split.Distributable, CreatorSharePct, PctDenominator)
		if !ok {
			return Split{}, types.Overflow(op, poolID, "creator share on %d", split.Distributable)
		}
		// Remainder, not a flat 80%: rounding from the creator floor goes to stakers.
		split.StakerPool = split.Distributable - split.CreatorShare
		split.WinningChoice = types.ChoiceAgree
		split.WinningTotal = agreeTotal
	} else {
		split.StakerPool = split.Distributable
		split.WinningChoice = types.ChoiceDisagree
		split.WinningTotal = disagreeTotal
	}

	split.StakerPoolAccruedToCreator = split.WinningTotal == 0
	return split, nil
}
