package ledger

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/mselser95/claimpool/pkg/types"
)

// EventPoolResolved is the indexer message type for a settled pool.
const EventPoolResolved = "pool_resolved"

// ErrUnexpectedEvent is returned for messages that are not pool resolutions.
var ErrUnexpectedEvent = errors.New("unexpected ledger event")

// ResolutionEvent is a consistent snapshot of a pool at resolution: the pool
// with its final totals and outcome, its claim and every stake on it.
type ResolutionEvent struct {
	PoolID      uint64                   `json:"pool_id"`
	BlockNumber uint64                   `json:"block_number"`
	Pool        types.AnalysisPool       `json:"pool"`
	Claim       types.Claim              `json:"claim"`
	Stakes      []types.ParticipantStake `json:"stakes"`
	ReceivedAt  time.Time                `json:"received_at"`
}

type rawEvent struct {
	Type        string         `json:"type"`
	PoolID      json.Number    `json:"poolId"`
	BlockNumber json.Number    `json:"blockNumber"`
	Pool        any            `json:"pool"`
	Claim       map[string]any `json:"claim"`
	Stakes      []any          `json:"stakes"`
}

// DecodeResolutionEvent decodes an indexer message. The pool may arrive as a
// getPool tuple or a named object; positional stakes carry their id first,
// followed by the getStake tuple.
func DecodeResolutionEvent(data []byte) (*ResolutionEvent, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw rawEvent
	err := dec.Decode(&raw)
	if err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	if raw.Type != EventPoolResolved {
		return nil, fmt.Errorf("%w: %q", ErrUnexpectedEvent, raw.Type)
	}

	poolID, err := toID(0, "poolId", raw.PoolID)
	if err != nil {
		return nil, err
	}
	event := &ResolutionEvent{PoolID: poolID, ReceivedAt: time.Now().UTC()}

	if raw.BlockNumber != "" {
		event.BlockNumber, err = toID(poolID, "blockNumber", raw.BlockNumber)
		if err != nil {
			return nil, err
		}
	}

	switch p := raw.Pool.(type) {
	case []any:
		event.Pool, err = PoolFromTuple(poolID, p)
	case map[string]any:
		if _, ok := p["id"]; !ok {
			p["id"] = raw.PoolID
		}
		event.Pool, err = PoolFromFields(p)
	default:
		err = types.Invariant(opDecode, poolID, "pool payload has unsupported type %T", raw.Pool)
	}
	if err != nil {
		return nil, err
	}

	if raw.Claim == nil {
		return nil, types.Invariant(opDecode, poolID, "missing claim")
	}
	event.Claim, err = ClaimFromFields(raw.Claim)
	if err != nil {
		return nil, err
	}

	event.Stakes = make([]types.ParticipantStake, 0, len(raw.Stakes))
	for i, s := range raw.Stakes {
		stake, err := decodeEventStake(poolID, s, event.Pool.Stance)
		if err != nil {
			return nil, fmt.Errorf("stake %d: %w", i, err)
		}
		event.Stakes = append(event.Stakes, stake)
	}

	return event, nil
}

func decodeEventStake(poolID uint64, raw any, stance types.Stance) (types.ParticipantStake, error) {
	switch s := raw.(type) {
	case []any:
		if len(s) == 0 {
			return types.ParticipantStake{}, types.Invariant(opDecode, poolID, "empty stake tuple")
		}
		stakeID, err := toID(poolID, "id", s[0])
		if err != nil {
			return types.ParticipantStake{}, err
		}
		return StakeFromTuple(stakeID, s[1:], stance)
	case map[string]any:
		return StakeFromFields(s, stance)
	default:
		return types.ParticipantStake{}, types.Invariant(opDecode, poolID, "stake payload has unsupported type %T", raw)
	}
}

// CheckSnapshot verifies the event is a consistent resolution snapshot: a
// resolved pool on a resolved claim, an outcome flag that agrees with the
// claim outcome, and stakes that all belong to the pool.
func (e *ResolutionEvent) CheckSnapshot() error {
	const op = "snapshot"
	pool := e.Pool

	if pool.ID != e.PoolID {
		return types.Invariant(op, e.PoolID, "payload describes pool %d", pool.ID)
	}
	if !pool.IsResolved() {
		return &types.SettlementError{
			Kind:   types.KindInvariant,
			Op:     op,
			PoolID: pool.ID,
			Detail: "resolution event for unresolved pool",
			Err:    types.ErrPoolNotResolved,
		}
	}
	if e.Claim.ID != pool.ClaimID {
		return types.Invariant(op, pool.ID, "claim %d does not match pool claim %d", e.Claim.ID, pool.ClaimID)
	}
	if !e.Claim.IsResolved() || e.Claim.Outcome == nil {
		return types.Invariant(op, pool.ID, "pool resolved but claim %d is %s", e.Claim.ID, e.Claim.State)
	}

	expected := (*e.Claim.Outcome == types.OutcomeYes) == (pool.Stance == types.StanceAffirmative)
	if pool.CreatorWasCorrect != expected {
		return types.Invariant(op, pool.ID, "creatorWasCorrect=%t contradicts %s outcome for %s stance",
			pool.CreatorWasCorrect, *e.Claim.Outcome, pool.Stance)
	}

	for _, stake := range e.Stakes {
		if stake.PoolID != pool.ID {
			return types.Invariant(op, pool.ID, "stake %d belongs to pool %d", stake.ID, stake.PoolID)
		}
	}
	return nil
}
