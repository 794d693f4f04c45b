package types

import "fmt"

// Stance is the pool creator's declared direction on a claim.
type Stance uint8

const (
	// StanceAffirmative means "the claim will happen".
	StanceAffirmative Stance = iota + 1
	// StanceNegative means "the claim will not happen".
	StanceNegative
)

// EffectiveStance is a staker's absolute direction once their Choice is
// resolved against the pool's Stance. It shares the Stance value space.
type EffectiveStance = Stance

// Choice is a staker's position relative to the pool creator, not to the
// claim's eventual outcome.
type Choice uint8

const (
	ChoiceAgree Choice = iota + 1
	ChoiceDisagree
)

// Valid reports whether s is a known stance.
func (s Stance) Valid() bool {
	return s == StanceAffirmative || s == StanceNegative
}

// Opposite returns the other stance.
func (s Stance) Opposite() Stance {
	if s == StanceAffirmative {
		return StanceNegative
	}
	return StanceAffirmative
}

func (s Stance) String() string {
	switch s {
	case StanceAffirmative:
		return "affirmative"
	case StanceNegative:
		return "negative"
	default:
		return fmt.Sprintf("stance(%d)", uint8(s))
	}
}

// MarshalText encodes the stance as its lowercase name.
func (s Stance) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid stance %d", uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText accepts "affirmative"/"negative" and the YES/NO aliases used
// by the web client.
func (s *Stance) UnmarshalText(text []byte) error {
	parsed, err := ParseStance(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStance parses a stance name.
func ParseStance(value string) (Stance, error) {
	switch value {
	case "affirmative", "AFFIRMATIVE", "yes", "YES":
		return StanceAffirmative, nil
	case "negative", "NEGATIVE", "no", "NO":
		return StanceNegative, nil
	default:
		return 0, fmt.Errorf("unknown stance %q", value)
	}
}

// Valid reports whether c is a known choice.
func (c Choice) Valid() bool {
	return c == ChoiceAgree || c == ChoiceDisagree
}

func (c Choice) String() string {
	switch c {
	case ChoiceAgree:
		return "agree"
	case ChoiceDisagree:
		return "disagree"
	default:
		return fmt.Sprintf("choice(%d)", uint8(c))
	}
}

// MarshalText encodes the choice as its lowercase name.
func (c Choice) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid choice %d", uint8(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText accepts "agree" or "disagree".
func (c *Choice) UnmarshalText(text []byte) error {
	parsed, err := ParseChoice(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseChoice parses a choice name.
func ParseChoice(value string) (Choice, error) {
	switch value {
	case "agree", "AGREE":
		return ChoiceAgree, nil
	case "disagree", "DISAGREE":
		return ChoiceDisagree, nil
	default:
		return 0, fmt.Errorf("unknown choice %q", value)
	}
}
