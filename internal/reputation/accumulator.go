// Package reputation turns a participant's history of resolved pools, as pool
// creator, into cumulative points and a tier.
package reputation

import (
	"math"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/claimpool/pkg/types"
)

// Point bases per resolved pool. Being wrong costs less than being right
// earns.
const (
	CorrectBase = 100
	WrongBase   = -30
)

// multiplierTenths is the stake multiplier table in tenths, keyed by the
// lower bound of each stake range in whole tokens.
var multiplierTenths = []struct {
	minStake int64
	tenths   int64
}{
	{5_000, 30},
	{1_000, 25},
	{500, 20},
	{100, 15},
	{0, 10},
}

// Entry is one resolved pool created by the participant.
type Entry struct {
	PoolID            uint64 `json:"pool_id"`
	CreatorStake      int64  `json:"creator_stake"`
	CreatorWasCorrect bool   `json:"creator_was_correct"`
}

// Accumulator scores creator outcomes. The zero value is not usable; use New.
type Accumulator struct {
	// UnitsPerToken converts smallest-unit stakes into the whole-token
	// amounts the multiplier table is keyed on.
	UnitsPerToken int64
}

// New returns an Accumulator. unitsPerToken below 1 is treated as 1.
func New(unitsPerToken int64) *Accumulator {
	if unitsPerToken < 1 {
		unitsPerToken = 1
	}
	return &Accumulator{UnitsPerToken: unitsPerToken}
}

// MultiplierTenths returns the stake multiplier for a creator stake, in tenths.
func (a *Accumulator) MultiplierTenths(stake int64) int64 {
	tokens := stake / a.UnitsPerToken
	for _, row := range multiplierTenths {
		if tokens >= row.minStake {
			return row.tenths
		}
	}
	return 10
}

// PointsForPool returns round(base * multiplier) for one resolved pool.
func (a *Accumulator) PointsForPool(stake int64, correct bool) int64 {
	base := int64(WrongBase)
	if correct {
		base = CorrectBase
	}
	return roundTenths(base * a.MultiplierTenths(stake))
}

// Apply folds one newly resolved pool into record and returns the updated
// copy. record is not modified.
func (a *Accumulator) Apply(record types.ReputationRecord, entry Entry) (types.ReputationRecord, error) {
	const op = "apply"

	if entry.CreatorStake < 0 {
		return record, types.Invariant(op, entry.PoolID, "negative creator stake %d", entry.CreatorStake)
	}

	delta := a.PointsForPool(entry.CreatorStake, entry.CreatorWasCorrect)
	if (delta > 0 && record.Points > math.MaxInt64-delta) || (delta < 0 && record.Points < math.MinInt64-delta) {
		return record, types.Overflow(op, entry.PoolID, "points %d + %d", record.Points, delta)
	}

	record.Points += delta
	record.TotalPools++
	if entry.CreatorWasCorrect {
		record.CorrectPools++
	} else {
		record.WrongPools++
	}
	record.Tier = TierFor(record.Points, record.TotalPools)
	record.Accuracy = Accuracy(record.CorrectPools, record.WrongPools)

	return record, nil
}

// Summarize folds a participant's full resolved history into a record.
// Recomputing from the same history always yields the same record.
func (a *Accumulator) Summarize(participant common.Address, history []Entry) (types.ReputationRecord, error) {
	record := types.ReputationRecord{Participant: participant, Tier: types.TierNovice}

	seen := make(map[uint64]struct{}, len(history))
	for _, entry := range history {
		if _, dup := seen[entry.PoolID]; dup {
			return types.ReputationRecord{}, types.Invariant("summarize", entry.PoolID, "pool counted twice")
		}
		seen[entry.PoolID] = struct{}{}

		var err error
		record, err = a.Apply(record, entry)
		if err != nil {
			return types.ReputationRecord{}, err
		}
	}

	return record, nil
}

// roundTenths divides by ten rounding half away from zero.
func roundTenths(v int64) int64 {
	if v >= 0 {
		return (v + 5) / 10
	}
	return -((-v + 5) / 10)
}
