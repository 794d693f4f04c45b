package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Tier is a discrete reputation level.
type Tier uint8

const (
	TierNovice Tier = iota
	TierAnalyst
	TierExpert
	TierMaster
	TierLegend
)

var tierNames = [...]string{"Novice", "Analyst", "Expert", "Master", "Legend"}

func (t Tier) String() string {
	if int(t) < len(tierNames) {
		return tierNames[t]
	}
	return fmt.Sprintf("tier(%d)", uint8(t))
}

// MarshalText encodes the tier by name.
func (t Tier) MarshalText() ([]byte, error) {
	if int(t) >= len(tierNames) {
		return nil, fmt.Errorf("invalid tier %d", uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText decodes a tier name.
func (t *Tier) UnmarshalText(text []byte) error {
	for i, name := range tierNames {
		if name == string(text) {
			*t = Tier(i)
			return nil
		}
	}
	return fmt.Errorf("unknown tier %q", string(text))
}

// ReputationRecord is a participant's accumulated creator reputation. There
// is at most one record per participant.
type ReputationRecord struct {
	Participant  common.Address `json:"participant"`
	Points       int64          `json:"points"` // may be negative
	TotalPools   int64          `json:"total_pools"`
	CorrectPools int64          `json:"correct_pools"`
	WrongPools   int64          `json:"wrong_pools"`
	Tier         Tier           `json:"tier"`
	Accuracy     int64          `json:"accuracy"` // percent, informational only
}
