package resolution

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/claimpool/internal/ledger"
	"github.com/mselser95/claimpool/internal/reputation"
	"github.com/mselser95/claimpool/internal/testutil"
	"github.com/mselser95/claimpool/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordingInvalidator struct {
	mu   sync.Mutex
	seen []common.Address
}

func (r *recordingInvalidator) InvalidateParticipant(participant common.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, participant)
}

func scenarioEvent(poolID uint64, correct bool) *ledger.ResolutionEvent {
	pool, stakes := testutil.CreateScenarioPool(poolID, correct)
	outcome := types.OutcomeYes
	if !correct {
		outcome = types.OutcomeNo
	}
	return &ledger.ResolutionEvent{
		PoolID:      poolID,
		BlockNumber: 19_000_000 + poolID,
		Pool:        pool,
		Claim:       testutil.CreateResolvedClaim(pool.ClaimID, outcome),
		Stakes:      stakes,
	}
}

func newProcessor(t *testing.T, storage Storage, inv Invalidator) *Processor {
	return New(Config{
		Accumulator: reputation.New(1),
		Invalidator: inv,
		Logger:      zaptest.NewLogger(t),
	}, storage)
}

func TestProcess_SettlesAndScores(t *testing.T) {
	storage := NewMockStorage()
	inv := &recordingInvalidator{}
	p := newProcessor(t, storage, inv)

	record, err := p.Process(context.Background(), scenarioEvent(7, true))
	require.NoError(t, err)

	assert.NotEmpty(t, record.ID)
	assert.Equal(t, uint64(7), record.PoolID)
	assert.Equal(t, uint64(107), record.ClaimID)
	assert.Equal(t, uint64(19_000_007), record.BlockNumber)
	assert.Equal(t, int64(823), record.Breakdown.CreatorRewardTotal)
	assert.True(t, record.Breakdown.Conserved())

	rep, found, err := storage.LoadReputation(context.Background(), testutil.Creator)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(200), rep.Points) // stake 500 -> 2.0x
	assert.Equal(t, int64(1), rep.TotalPools)
	assert.Equal(t, types.TierAnalyst, rep.Tier)

	assert.Equal(t, []common.Address{testutil.Creator}, inv.seen)
}

func TestProcess_Idempotent(t *testing.T) {
	storage := NewMockStorage()
	p := newProcessor(t, storage, nil)

	_, err := p.Process(context.Background(), scenarioEvent(7, false))
	require.NoError(t, err)

	_, err = p.Process(context.Background(), scenarioEvent(7, false))
	assert.ErrorIs(t, err, ErrAlreadySettled)

	assert.Equal(t, 1, storage.SettlementCount())
	rep, _, _ := storage.LoadReputation(context.Background(), testutil.Creator)
	assert.Equal(t, int64(-60), rep.Points)
	assert.Equal(t, int64(1), rep.WrongPools)
}

func TestProcess_AccumulatesAcrossPools(t *testing.T) {
	storage := NewMockStorage()
	p := newProcessor(t, storage, nil)

	for id := uint64(1); id <= 3; id++ {
		_, err := p.Process(context.Background(), scenarioEvent(id, id != 2))
		require.NoError(t, err)
	}

	rep, _, _ := storage.LoadReputation(context.Background(), testutil.Creator)
	assert.Equal(t, int64(200+200-60), rep.Points)
	assert.Equal(t, int64(2), rep.CorrectPools)
	assert.Equal(t, int64(1), rep.WrongPools)
	assert.Equal(t, int64(67), rep.Accuracy)

	history := []reputation.Entry{
		{PoolID: 1, CreatorStake: 500, CreatorWasCorrect: true},
		{PoolID: 2, CreatorStake: 500, CreatorWasCorrect: false},
		{PoolID: 3, CreatorStake: 500, CreatorWasCorrect: true},
	}
	summary, err := reputation.New(1).Summarize(testutil.Creator, history)
	require.NoError(t, err)
	assert.Equal(t, summary, rep)
}

func TestProcess_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(e *ledger.ResolutionEvent)
		target error
	}{
		{"inconsistent-outcome", func(e *ledger.ResolutionEvent) { e.Pool.CreatorWasCorrect = false }, types.ErrInvariantViolation},
		{"unresolved-pool", func(e *ledger.ResolutionEvent) { e.Pool.State = types.PoolStateActive }, types.ErrPoolNotResolved},
		{"stake-sum-mismatch", func(e *ledger.ResolutionEvent) { e.Stakes = e.Stakes[1:] }, types.ErrInvariantViolation},
		{"total-mismatch", func(e *ledger.ResolutionEvent) { e.Pool.TotalStaked++ }, types.ErrInvariantViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := NewMockStorage()
			p := newProcessor(t, storage, nil)

			event := scenarioEvent(7, true)
			tt.mutate(event)

			_, err := p.Process(context.Background(), event)
			assert.ErrorIs(t, err, tt.target)
			assert.Zero(t, storage.SettlementCount())
			assert.Empty(t, storage.Reputation)
		})
	}
}

func TestProcess_CommitFailureLeavesNoTrace(t *testing.T) {
	storage := NewMockStorage()
	storage.CommitErr = errors.New("connection reset")
	inv := &recordingInvalidator{}
	p := newProcessor(t, storage, inv)

	_, err := p.Process(context.Background(), scenarioEvent(7, true))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit settlement")
	assert.Empty(t, inv.seen)

	storage.CommitErr = nil
	_, err = p.Process(context.Background(), scenarioEvent(7, true))
	assert.NoError(t, err)
}

func TestProcessor_LoopContinuesPastFailures(t *testing.T) {
	storage := NewMockStorage()
	p := newProcessor(t, storage, nil)

	bad := scenarioEvent(2, true)
	bad.Stakes = nil

	events := make(chan *ledger.ResolutionEvent, 4)
	events <- scenarioEvent(1, true)
	events <- bad
	events <- nil
	events <- scenarioEvent(3, false)
	close(events)

	p.Start(context.Background(), events)
	p.Wait()

	assert.Equal(t, 2, storage.SettlementCount())
}

func TestProcessor_StopsOnContextCancel(t *testing.T) {
	p := newProcessor(t, NewMockStorage(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx, make(chan *ledger.ResolutionEvent))
	cancel()
	p.Wait()
}
