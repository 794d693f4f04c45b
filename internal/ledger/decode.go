package ledger

import (
	"fmt"
	"time"

	"github.com/mselser95/claimpool/internal/position"
	"github.com/mselser95/claimpool/pkg/types"
)

// Positional layouts of the contract's view functions.
const (
	poolTupleLen  = 9
	stakeTupleLen = 6
	claimTupleLen = 3
)

// DecodePoolOutput unpacks getPool return data.
func DecodePoolOutput(poolID uint64, data []byte) (types.AnalysisPool, error) {
	values, err := PoolContractABI.Methods[MethodGetPool].Outputs.Unpack(data)
	if err != nil {
		return types.AnalysisPool{}, fmt.Errorf("unpack %s: %w", MethodGetPool, err)
	}
	return PoolFromTuple(poolID, values)
}

// DecodeStakeOutput unpacks getStake return data. poolStance is needed to
// turn the stored position boolean back into a choice.
func DecodeStakeOutput(stakeID uint64, data []byte, poolStance types.Stance) (types.ParticipantStake, error) {
	values, err := PoolContractABI.Methods[MethodGetStake].Outputs.Unpack(data)
	if err != nil {
		return types.ParticipantStake{}, fmt.Errorf("unpack %s: %w", MethodGetStake, err)
	}
	return StakeFromTuple(stakeID, values, poolStance)
}

// DecodeClaimOutput unpacks getClaim return data.
func DecodeClaimOutput(claimID uint64, data []byte) (types.Claim, error) {
	values, err := PoolContractABI.Methods[MethodGetClaim].Outputs.Unpack(data)
	if err != nil {
		return types.Claim{}, fmt.Errorf("unpack %s: %w", MethodGetClaim, err)
	}
	if len(values) != claimTupleLen {
		return types.Claim{}, types.Invariant(opDecode, 0, "claim %d tuple has %d fields, want %d", claimID, len(values), claimTupleLen)
	}
	return claimFrom(claimID, values[0], values[1], values[2])
}

// PoolFromTuple normalises the positional getPool shape.
func PoolFromTuple(poolID uint64, tuple []any) (types.AnalysisPool, error) {
	if len(tuple) != poolTupleLen {
		return types.AnalysisPool{}, types.Invariant(opDecode, poolID, "pool tuple has %d fields, want %d", len(tuple), poolTupleLen)
	}
	return poolFrom(poolID, poolFields{
		claimID:           tuple[0],
		creator:           tuple[1],
		stance:            tuple[2],
		creatorStake:      tuple[3],
		agreeTotal:        tuple[4],
		disagreeTotal:     tuple[5],
		totalStaked:       tuple[6],
		resolved:          tuple[7],
		creatorWasCorrect: tuple[8],
	})
}

// PoolFromFields normalises the named-object shape. The object must carry
// its own id.
func PoolFromFields(fields map[string]any) (types.AnalysisPool, error) {
	poolID, err := toID(0, "id", fields["id"])
	if err != nil {
		return types.AnalysisPool{}, err
	}

	resolved := fields["resolved"]
	if state, ok := fields["state"].(string); ok && resolved == nil {
		resolved = state == string(types.PoolStateResolved)
	}
	correct := fields["creatorWasCorrect"]
	if correct == nil {
		correct = false
	}

	return poolFrom(poolID, poolFields{
		claimID:           fields["claimId"],
		creator:           fields["creator"],
		stance:            fields["stance"],
		creatorStake:      fields["creatorStake"],
		agreeTotal:        fields["agreeTotal"],
		disagreeTotal:     fields["disagreeTotal"],
		totalStaked:       fields["totalStaked"],
		resolved:          resolved,
		creatorWasCorrect: correct,
	})
}

type poolFields struct {
	claimID           any
	creator           any
	stance            any
	creatorStake      any
	agreeTotal        any
	disagreeTotal     any
	totalStaked       any
	resolved          any
	creatorWasCorrect any
}

func poolFrom(poolID uint64, f poolFields) (types.AnalysisPool, error) {
	pool := types.AnalysisPool{ID: poolID, State: types.PoolStateActive}
	var err error

	if pool.ClaimID, err = toID(poolID, "claimId", f.claimID); err != nil {
		return types.AnalysisPool{}, err
	}
	if pool.Creator, err = toAddress(poolID, "creator", f.creator); err != nil {
		return types.AnalysisPool{}, err
	}
	if pool.Stance, err = toStance(poolID, "stance", f.stance); err != nil {
		return types.AnalysisPool{}, err
	}
	if pool.CreatorStake, err = toAmount(poolID, "creatorStake", f.creatorStake); err != nil {
		return types.AnalysisPool{}, err
	}
	if pool.AgreeTotal, err = toAmount(poolID, "agreeTotal", f.agreeTotal); err != nil {
		return types.AnalysisPool{}, err
	}
	if pool.DisagreeTotal, err = toAmount(poolID, "disagreeTotal", f.disagreeTotal); err != nil {
		return types.AnalysisPool{}, err
	}
	if pool.TotalStaked, err = toAmount(poolID, "totalStaked", f.totalStaked); err != nil {
		return types.AnalysisPool{}, err
	}

	resolved, err := toBool(poolID, "resolved", f.resolved)
	if err != nil {
		return types.AnalysisPool{}, err
	}
	if resolved {
		pool.State = types.PoolStateResolved
		if pool.CreatorWasCorrect, err = toBool(poolID, "creatorWasCorrect", f.creatorWasCorrect); err != nil {
			return types.AnalysisPool{}, err
		}
	}

	return pool, nil
}

// StakeFromTuple normalises the positional getStake shape.
func StakeFromTuple(stakeID uint64, tuple []any, poolStance types.Stance) (types.ParticipantStake, error) {
	if len(tuple) != stakeTupleLen {
		return types.ParticipantStake{}, types.Invariant(opDecode, 0, "stake %d tuple has %d fields, want %d", stakeID, len(tuple), stakeTupleLen)
	}
	return stakeFrom(stakeID, poolStance, stakeFields{
		poolID:    tuple[0],
		staker:    tuple[1],
		amount:    tuple[2],
		position:  tuple[3],
		createdAt: tuple[4],
		withdrawn: tuple[5],
	})
}

// StakeFromFields normalises the named-object shape.
func StakeFromFields(fields map[string]any, poolStance types.Stance) (types.ParticipantStake, error) {
	stakeID, err := toID(0, "id", fields["id"])
	if err != nil {
		return types.ParticipantStake{}, err
	}

	withdrawn := fields["withdrawn"]
	if withdrawn == nil {
		withdrawn = false
	}
	createdAt := fields["createdAt"]
	if createdAt == nil {
		createdAt = int64(0)
	}

	return stakeFrom(stakeID, poolStance, stakeFields{
		poolID:    fields["poolId"],
		staker:    fields["staker"],
		amount:    fields["amount"],
		position:  fields["position"],
		createdAt: createdAt,
		withdrawn: withdrawn,
	})
}

type stakeFields struct {
	poolID, staker, amount, position, createdAt, withdrawn any
}

func stakeFrom(stakeID uint64, poolStance types.Stance, f stakeFields) (types.ParticipantStake, error) {
	if !poolStance.Valid() {
		return types.ParticipantStake{}, types.Invariant(opDecode, 0, "stake %d decoded against invalid stance %d", stakeID, uint8(poolStance))
	}

	stake := types.ParticipantStake{ID: stakeID}
	var err error

	if stake.PoolID, err = toID(0, "poolId", f.poolID); err != nil {
		return types.ParticipantStake{}, err
	}
	if stake.Participant, err = toAddress(stake.PoolID, "staker", f.staker); err != nil {
		return types.ParticipantStake{}, err
	}
	if stake.Amount, err = toAmount(stake.PoolID, "amount", f.amount); err != nil {
		return types.ParticipantStake{}, err
	}

	encoded, err := toBool(stake.PoolID, "position", f.position)
	if err != nil {
		return types.ParticipantStake{}, err
	}
	stake.Choice = position.FromLedger(encoded, poolStance)

	created, err := toAmount(stake.PoolID, "createdAt", f.createdAt)
	if err != nil {
		return types.ParticipantStake{}, err
	}
	if created > 0 {
		stake.CreatedAt = time.Unix(created, 0).UTC()
	}

	if stake.Withdrawn, err = toBool(stake.PoolID, "withdrawn", f.withdrawn); err != nil {
		return types.ParticipantStake{}, err
	}

	return stake, nil
}

// ClaimFromFields normalises a named claim object. outcome may be "yes"/"no"
// or the contract's boolean (true is yes).
func ClaimFromFields(fields map[string]any) (types.Claim, error) {
	claimID, err := toID(0, "id", fields["id"])
	if err != nil {
		return types.Claim{}, err
	}

	resolved := fields["resolved"]
	if state, ok := fields["state"].(string); ok && resolved == nil {
		resolved = state == string(types.ClaimStateResolved)
	}
	resolvedAt := fields["resolvedAt"]
	if resolvedAt == nil {
		resolvedAt = int64(0)
	}

	return claimFrom(claimID, resolved, fields["outcome"], resolvedAt)
}

func claimFrom(claimID uint64, resolvedV, outcomeV, resolvedAtV any) (types.Claim, error) {
	claim := types.Claim{ID: claimID, State: types.ClaimStateActive}

	resolved, err := toBool(0, "resolved", resolvedV)
	if err != nil {
		return types.Claim{}, err
	}
	if !resolved {
		return claim, nil
	}
	claim.State = types.ClaimStateResolved

	var outcome types.Outcome
	switch v := outcomeV.(type) {
	case string:
		switch types.Outcome(v) {
		case types.OutcomeYes, types.OutcomeNo:
			outcome = types.Outcome(v)
		default:
			return types.Claim{}, types.Invariant(opDecode, 0, "claim %d has unknown outcome %q", claimID, v)
		}
	default:
		yes, err := toBool(0, "outcome", v)
		if err != nil {
			return types.Claim{}, err
		}
		outcome = types.OutcomeNo
		if yes {
			outcome = types.OutcomeYes
		}
	}
	claim.Outcome = &outcome

	at, err := toAmount(0, "resolvedAt", resolvedAtV)
	if err != nil {
		return types.Claim{}, err
	}
	if at > 0 {
		ts := time.Unix(at, 0).UTC()
		claim.ResolvedAt = &ts
	}

	return claim, nil
}
