package position

import (
	"testing"

	"github.com/mselser95/claimpool/pkg/types"
	"github.com/stretchr/testify/assert"
)

var (
	allStances = []types.Stance{types.StanceAffirmative, types.StanceNegative}
	allChoices = []types.Choice{types.ChoiceAgree, types.ChoiceDisagree}
)

func TestResolveEffectiveStance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		stance types.Stance
		choice types.Choice
		want   types.EffectiveStance
	}{
		{"affirmative-agree", types.StanceAffirmative, types.ChoiceAgree, types.StanceAffirmative},
		{"affirmative-disagree", types.StanceAffirmative, types.ChoiceDisagree, types.StanceNegative},
		{"negative-agree", types.StanceNegative, types.ChoiceAgree, types.StanceNegative},
		{"negative-disagree", types.StanceNegative, types.ChoiceDisagree, types.StanceAffirmative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveEffectiveStance(tt.stance, tt.choice))
		})
	}
}

// The ledger expects NOT(agrees with creator). This test pins the direction
// of the flip so a contract fix shows up as a deliberate change here.
func TestToLedger_FrozenFlipDirection(t *testing.T) {
	t.Parallel()

	assert.True(t, LedgerPositionInverted)

	for _, stance := range allStances {
		assert.False(t, Encode(stance, types.ChoiceAgree), "agree on %s pool", stance)
		assert.True(t, Encode(stance, types.ChoiceDisagree), "disagree on %s pool", stance)
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	for _, stance := range allStances {
		for _, choice := range allChoices {
			effective := ResolveEffectiveStance(stance, choice)
			encoded := ToLedger(effective, stance)
			assert.Equal(t, choice, FromLedger(encoded, stance), "stance=%s choice=%s", stance, choice)
			assert.Equal(t, choice, ChoiceFor(effective, stance))
		}
	}
}

func TestNegativePoolAgreeScenario(t *testing.T) {
	t.Parallel()

	effective := ResolveEffectiveStance(types.StanceNegative, types.ChoiceAgree)
	assert.Equal(t, types.StanceNegative, effective)

	encoded := ToLedger(effective, types.StanceNegative)
	assert.False(t, encoded, "ledger wants the negation of agrees-with-creator")
	assert.Equal(t, types.ChoiceAgree, FromLedger(encoded, types.StanceNegative))
}
