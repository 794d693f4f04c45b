// Package resolution settles pools as the ledger resolves them: it computes
// the reward breakdown, records it, and folds the outcome into the creator's
// reputation exactly once per pool.
package resolution

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/claimpool/internal/ledger"
	"github.com/mselser95/claimpool/internal/reputation"
	"github.com/mselser95/claimpool/internal/reward"
	"github.com/mselser95/claimpool/pkg/types"
	"go.uber.org/zap"
)

// ErrAlreadySettled is returned by Process for a pool that was settled before.
var ErrAlreadySettled = errors.New("pool already settled")

// Invalidator drops cached views of a participant's reputation.
type Invalidator interface {
	InvalidateParticipant(participant common.Address)
}

// Config holds processor configuration.
type Config struct {
	Accumulator *reputation.Accumulator
	Invalidator Invalidator // optional
	Logger      *zap.Logger
}

// Processor consumes resolution events. Process may be called directly;
// Start runs it over a channel until the channel closes or ctx is done.
type Processor struct {
	storage     Storage
	acc         *reputation.Accumulator
	invalidator Invalidator
	logger      *zap.Logger

	// mu serialises Process so the load-apply-commit sequence for a
	// creator never interleaves.
	mu sync.Mutex
	wg sync.WaitGroup
}

// New creates a processor.
func New(cfg Config, storage Storage) *Processor {
	acc := cfg.Accumulator
	if acc == nil {
		acc = reputation.New(1)
	}
	return &Processor{
		storage:     storage,
		acc:         acc,
		invalidator: cfg.Invalidator,
		logger:      cfg.Logger,
	}
}

// Start consumes events in the background.
func (p *Processor) Start(ctx context.Context, events <-chan *ledger.ResolutionEvent) {
	p.logger.Info("resolution-processor-starting")

	p.wg.Add(1)
	go p.loop(ctx, events)
}

// Wait blocks until the background loop has exited.
func (p *Processor) Wait() {
	p.wg.Wait()
}

func (p *Processor) loop(ctx context.Context, events <-chan *ledger.ResolutionEvent) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("resolution-processor-stopping")
			return
		case event, ok := <-events:
			if !ok {
				p.logger.Info("resolution-feed-closed")
				return
			}
			// Process logs and counts its own failures; one bad pool never
			// stops the loop.
			_, err := p.Process(ctx, event)
			if err != nil {
				p.logger.Debug("resolution-skipped", zap.Error(err))
			}
		}
	}
}

// Process settles one resolved pool. It returns ErrAlreadySettled when the
// pool was recorded before, leaving storage untouched.
func (p *Processor) Process(ctx context.Context, event *ledger.ResolutionEvent) (*SettlementRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	defer func() { ProcessingDurationSeconds.Observe(time.Since(start).Seconds()) }()

	if event == nil {
		return nil, p.reject(0, types.Invariant("process", 0, "nil resolution event"))
	}

	err := event.CheckSnapshot()
	if err != nil {
		return nil, p.reject(event.PoolID, err)
	}
	pool := event.Pool

	settled, err := p.storage.HasSettlement(ctx, pool.ID)
	if err != nil {
		EventsProcessedTotal.WithLabelValues("storage_error").Inc()
		p.logger.Error("settlement-lookup-failed", zap.Uint64("pool-id", pool.ID), zap.Error(err))
		return nil, fmt.Errorf("check settlement: %w", err)
	}
	if settled {
		EventsProcessedTotal.WithLabelValues("duplicate").Inc()
		p.logger.Debug("pool-already-settled", zap.Uint64("pool-id", pool.ID))
		return nil, ErrAlreadySettled
	}

	breakdown, err := reward.Calculate(pool, event.Stakes)
	if err != nil {
		return nil, p.reject(pool.ID, err)
	}

	current, found, err := p.storage.LoadReputation(ctx, pool.Creator)
	if err != nil {
		EventsProcessedTotal.WithLabelValues("storage_error").Inc()
		p.logger.Error("reputation-load-failed", zap.String("participant", pool.Creator.Hex()), zap.Error(err))
		return nil, fmt.Errorf("load reputation: %w", err)
	}
	if !found {
		current = types.ReputationRecord{Participant: pool.Creator, Tier: types.TierNovice}
	}

	updated, err := p.acc.Apply(current, reputation.Entry{
		PoolID:            pool.ID,
		CreatorStake:      pool.CreatorStake,
		CreatorWasCorrect: pool.CreatorWasCorrect,
	})
	if err != nil {
		return nil, p.reject(pool.ID, err)
	}

	record := NewSettlementRecord(pool, event.BlockNumber, breakdown)
	err = p.storage.CommitSettlement(ctx, record, updated)
	if errors.Is(err, ErrAlreadySettled) {
		EventsProcessedTotal.WithLabelValues("duplicate").Inc()
		return nil, ErrAlreadySettled
	}
	if err != nil {
		EventsProcessedTotal.WithLabelValues("storage_error").Inc()
		p.logger.Error("settlement-commit-failed", zap.Uint64("pool-id", pool.ID), zap.Error(err))
		return nil, fmt.Errorf("commit settlement: %w", err)
	}

	if p.invalidator != nil {
		p.invalidator.InvalidateParticipant(pool.Creator)
	}

	EventsProcessedTotal.WithLabelValues("settled").Inc()
	DistributedUnitsTotal.WithLabelValues("creator").Add(float64(breakdown.CreatorRewardTotal))
	DistributedUnitsTotal.WithLabelValues("stakers").Add(float64(breakdown.DistributedToStakers))
	DistributedUnitsTotal.WithLabelValues("protocol").Add(float64(breakdown.ProtocolFee))

	p.logger.Info("pool-settled",
		zap.String("settlement-id", record.ID),
		zap.Uint64("pool-id", pool.ID),
		zap.Bool("creator-was-correct", pool.CreatorWasCorrect),
		zap.Int64("total-pool", breakdown.TotalPool),
		zap.Int64("creator-reward", breakdown.CreatorRewardTotal),
		zap.Int64("remainder", breakdown.Remainder),
		zap.Bool("staker-pool-accrued-to-creator", breakdown.StakerPoolAccruedToCreator),
		zap.Int64("creator-points", updated.Points),
		zap.Stringer("creator-tier", updated.Tier))

	return record, nil
}

func (p *Processor) reject(poolID uint64, err error) error {
	kind := types.ErrorKind(err)
	EventsProcessedTotal.WithLabelValues("rejected").Inc()
	RejectedTotal.WithLabelValues(kind).Inc()

	p.logger.Error("pool-resolution-failed",
		zap.Uint64("pool-id", poolID),
		zap.String("kind", kind),
		zap.Error(err))
	return err
}
