// Package settlement is the read-only facade used by profile pages and pool
// cards. It composes the position codec, the reward calculator and the
// reputation accumulator, owns no state and performs no irreversible action.
package settlement

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/claimpool/internal/position"
	"github.com/mselser95/claimpool/internal/reputation"
	"github.com/mselser95/claimpool/internal/reward"
	"github.com/mselser95/claimpool/pkg/types"
)

// StakePreview is what a prospective staker is shown before staking. Both
// fields are estimates; the final amount depends on stakes placed later.
type StakePreview struct {
	PoolID          uint64                `json:"pool_id"`
	Choice          types.Choice          `json:"choice"`
	EffectiveStance types.EffectiveStance `json:"effective_stance"`
	Amount          int64                 `json:"amount"`
	MaxReward       int64                 `json:"max_reward"`
	MaxLoss         int64                 `json:"max_loss"`

	// Per-outcome detail behind MaxReward.
	IfCreatorCorrect *reward.Preview `json:"if_creator_correct"`
	IfCreatorWrong   *reward.Preview `json:"if_creator_wrong"`

	NonBinding bool `json:"non_binding"`
}

// ParticipantPayout aggregates every stake one participant holds in a
// settled pool, plus the creator reward when the participant created it.
type ParticipantPayout struct {
	PoolID        uint64         `json:"pool_id"`
	Participant   common.Address `json:"participant"`
	Stakes        int            `json:"stakes"`
	Staked        int64          `json:"staked"`
	StakerReward  int64          `json:"staker_reward"`
	CreatorReward int64          `json:"creator_reward"`
	Total         int64          `json:"total"`
}

// View answers "what would this participant receive or have received". It is
// safe for concurrent use.
type View struct {
	acc *reputation.Accumulator
}

// NewView creates a view scoring reputation with acc.
func NewView(acc *reputation.Accumulator) *View {
	if acc == nil {
		acc = reputation.New(1)
	}
	return &View{acc: acc}
}

// Accumulator returns the reputation accumulator the view scores with.
func (v *View) Accumulator() *reputation.Accumulator {
	return v.acc
}

// PreviewStake previews a hypothetical stake under both outcomes and returns
// the favorable reward and the downside, which is always the full stake.
func (v *View) PreviewStake(pool types.AnalysisPool, choice types.Choice, amount int64) (*StakePreview, error) {
	const op = "preview_stake"
	ViewCallsTotal.WithLabelValues(op).Inc()

	correct, err := reward.PreviewStake(pool, choice, amount, true)
	if err != nil {
		return nil, observe(op, err)
	}
	wrong, err := reward.PreviewStake(pool, choice, amount, false)
	if err != nil {
		return nil, observe(op, err)
	}

	maxReward := correct.Reward
	if wrong.Reward > maxReward {
		maxReward = wrong.Reward
	}

	return &StakePreview{
		PoolID:           pool.ID,
		Choice:           choice,
		EffectiveStance:  position.ResolveEffectiveStance(pool.Stance, choice),
		Amount:           amount,
		MaxReward:        maxReward,
		MaxLoss:          amount,
		IfCreatorCorrect: correct,
		IfCreatorWrong:   wrong,
		NonBinding:       true,
	}, nil
}

// Settle computes the full settlement of a resolved pool.
func (v *View) Settle(pool types.AnalysisPool, stakes []types.ParticipantStake) (*reward.Breakdown, error) {
	const op = "settle"
	ViewCallsTotal.WithLabelValues(op).Inc()

	breakdown, err := reward.Calculate(pool, stakes)
	if err != nil {
		return nil, observe(op, err)
	}
	if breakdown.StakerPoolAccruedToCreator {
		ZeroWinnerPoolsTotal.Inc()
	}
	return breakdown, nil
}

// ParticipantPayout settles the pool and sums everything owed to participant.
// A participant with no stake and no creator role gets a zero payout.
func (v *View) ParticipantPayout(pool types.AnalysisPool, stakes []types.ParticipantStake, participant common.Address) (*ParticipantPayout, error) {
	breakdown, err := v.Settle(pool, stakes)
	if err != nil {
		return nil, err
	}

	payout := &ParticipantPayout{PoolID: pool.ID, Participant: participant}
	for _, p := range breakdown.Payouts {
		if p.Participant != participant {
			continue
		}
		payout.Stakes++
		payout.Staked += p.Amount
		payout.StakerReward += p.Reward
	}
	if pool.Creator == participant {
		payout.CreatorReward = breakdown.CreatorRewardTotal
	}
	payout.Total = payout.StakerReward + payout.CreatorReward

	return payout, nil
}

// Summarize folds a participant's resolved creator history into a record.
func (v *View) Summarize(participant common.Address, history []reputation.Entry) (types.ReputationRecord, error) {
	const op = "summarize"
	ViewCallsTotal.WithLabelValues(op).Inc()

	record, err := v.acc.Summarize(participant, history)
	if err != nil {
		return types.ReputationRecord{}, observe(op, err)
	}
	return record, nil
}

// History builds creator's reputation history from a pool snapshot joined
// against claims. Active pools are skipped. The result is ordered by pool ID.
func (v *View) History(creator common.Address, pools []types.AnalysisPool, claims types.ClaimIndex) ([]reputation.Entry, error) {
	const op = "history"
	ViewCallsTotal.WithLabelValues(op).Inc()

	history := make([]reputation.Entry, 0, len(pools))
	for _, pool := range pools {
		if pool.Creator != creator || !pool.IsResolved() {
			continue
		}

		claim, ok := claims[pool.ClaimID]
		if !ok {
			return nil, observe(op, &types.SettlementError{
				Kind:   types.KindInvariant,
				Op:     op,
				PoolID: pool.ID,
				Detail: fmt.Sprintf("claim %d", pool.ClaimID),
				Err:    types.ErrClaimNotIndexed,
			})
		}
		if !claim.IsResolved() {
			return nil, observe(op, types.Invariant(op, pool.ID, "pool resolved but claim %d is %s", claim.ID, claim.State))
		}

		history = append(history, reputation.Entry{
			PoolID:            pool.ID,
			CreatorStake:      pool.CreatorStake,
			CreatorWasCorrect: pool.CreatorWasCorrect,
		})
	}

	sort.Slice(history, func(i, j int) bool { return history[i].PoolID < history[j].PoolID })
	return history, nil
}

// CreatorReputation is History followed by Summarize.
func (v *View) CreatorReputation(creator common.Address, pools []types.AnalysisPool, claims types.ClaimIndex) (types.ReputationRecord, error) {
	history, err := v.History(creator, pools, claims)
	if err != nil {
		return types.ReputationRecord{}, err
	}
	return v.Summarize(creator, history)
}

func observe(op string, err error) error {
	ViewErrorsTotal.WithLabelValues(op, types.ErrorKind(err)).Inc()
	return err
}
