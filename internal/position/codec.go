// Package position translates between the three position representations
// used across the system: the pool creator's stance, a staker's agree or
// disagree choice, and the boolean persisted by the ledger per stake.
package position

import "github.com/mselser95/claimpool/pkg/types"

// LedgerPositionInverted records that the ledger's stake entry point expects
// the negation of "participant agrees with the pool creator". ToLedger and
// FromLedger are the only functions that read it. If the contract is ever
// fixed, flip this constant and the frozen-direction test together.
const LedgerPositionInverted = true

// ResolveEffectiveStance returns the staker's absolute direction on the claim.
// It is total: every (stance, choice) pair maps to a stance.
func ResolveEffectiveStance(poolStance types.Stance, choice types.Choice) types.EffectiveStance {
	if (poolStance == types.StanceAffirmative) == (choice == types.ChoiceAgree) {
		return types.StanceAffirmative
	}
	return types.StanceNegative
}

// ChoiceFor is the inverse of ResolveEffectiveStance for a given pool stance.
func ChoiceFor(effective types.EffectiveStance, poolStance types.Stance) types.Choice {
	if effective == poolStance {
		return types.ChoiceAgree
	}
	return types.ChoiceDisagree
}

// ToLedger produces the boolean the ledger's stake entry point expects.
func ToLedger(effective types.EffectiveStance, poolStance types.Stance) bool {
	agreesWithCreator := effective == poolStance
	return agreesWithCreator != LedgerPositionInverted
}

// FromLedger decodes a stored position boolean back into the staker's choice.
func FromLedger(encoded bool, poolStance types.Stance) types.Choice {
	agreesWithCreator := encoded != LedgerPositionInverted
	if agreesWithCreator {
		return types.ChoiceAgree
	}
	return types.ChoiceDisagree
}

// Encode is the composition used at the ledger write boundary.
func Encode(poolStance types.Stance, choice types.Choice) bool {
	return ToLedger(ResolveEffectiveStance(poolStance, choice), poolStance)
}
