package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/claimpool/internal/resolution"
	"github.com/mselser95/claimpool/pkg/types"
	"go.uber.org/zap"
)

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// ConsoleStorage pretty-prints settlements and keeps state in memory. It is
// meant for local runs; nothing survives a restart.
type ConsoleStorage struct {
	logger      *zap.Logger
	out         io.Writer
	mu          sync.RWMutex
	settlements map[uint64]*resolution.SettlementRecord
	reputation  map[common.Address]types.ReputationRecord
}

// NewConsoleStorage creates a console storage printing to stdout.
func NewConsoleStorage(logger *zap.Logger) *ConsoleStorage {
	return NewConsoleStorageWriter(logger, os.Stdout)
}

// NewConsoleStorageWriter creates a console storage printing to out.
func NewConsoleStorageWriter(logger *zap.Logger, out io.Writer) *ConsoleStorage {
	logger.Info("console-storage-initialized")
	return &ConsoleStorage{
		logger:      logger,
		out:         out,
		settlements: make(map[uint64]*resolution.SettlementRecord),
		reputation:  make(map[common.Address]types.ReputationRecord),
	}
}

// HasSettlement reports whether poolID was settled during this run.
func (c *ConsoleStorage) HasSettlement(_ context.Context, poolID uint64) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.settlements[poolID]
	return ok, nil
}

// CommitSettlement stores both records and prints the settlement.
func (c *ConsoleStorage) CommitSettlement(_ context.Context, record *resolution.SettlementRecord, rep types.ReputationRecord) error {
	c.mu.Lock()
	if _, ok := c.settlements[record.PoolID]; ok {
		c.mu.Unlock()
		return fmt.Errorf("pool %d: %w", record.PoolID, resolution.ErrAlreadySettled)
	}
	c.settlements[record.PoolID] = record
	c.reputation[rep.Participant] = rep
	c.mu.Unlock()

	c.print(record, rep)
	return nil
}

func (c *ConsoleStorage) print(record *resolution.SettlementRecord, rep types.ReputationRecord) {
	b := record.Breakdown
	var sb strings.Builder

	fmt.Fprintln(&sb, "\n"+rule)
	fmt.Fprintf(&sb, "POOL SETTLED\n")
	fmt.Fprintln(&sb, rule)
	fmt.Fprintf(&sb, "ID:       %s\n", record.ID[:8])
	fmt.Fprintf(&sb, "Pool:     %d (claim %d, block %d)\n", record.PoolID, record.ClaimID, record.BlockNumber)
	fmt.Fprintf(&sb, "Creator:  %s (correct: %t)\n", record.Creator.Hex(), b.CreatorWasCorrect)
	fmt.Fprintf(&sb, "Time:     %s\n", record.SettledAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintln(&sb, rule)
	fmt.Fprintf(&sb, "DISTRIBUTION\n")
	fmt.Fprintf(&sb, "  Total pool:      %d\n", b.TotalPool)
	fmt.Fprintf(&sb, "  Protocol fee:    %d\n", b.ProtocolFee)
	fmt.Fprintf(&sb, "  Creator reward:  %d\n", b.CreatorRewardTotal)
	fmt.Fprintf(&sb, "  To stakers:      %d across %d stakes (%s won)\n", b.DistributedToStakers, len(b.Payouts), b.WinningChoice)
	fmt.Fprintf(&sb, "  Remainder:       %d\n", b.Remainder)
	if b.StakerPoolAccruedToCreator {
		fmt.Fprintf(&sb, "  No winning stakes: staker pool accrued to creator\n")
	}
	fmt.Fprintln(&sb, rule)
	fmt.Fprintf(&sb, "CREATOR REPUTATION\n")
	fmt.Fprintf(&sb, "  Points:   %d over %d pools\n", rep.Points, rep.TotalPools)
	fmt.Fprintf(&sb, "  Tier:     %s\n", rep.Tier)
	fmt.Fprintf(&sb, "  Accuracy: %d%%\n", rep.Accuracy)
	fmt.Fprintln(&sb, rule)

	_, err := io.WriteString(c.out, sb.String())
	if err != nil {
		c.logger.Warn("console-write-failed", zap.Error(err))
	}
}

// LoadReputation returns the in-memory record for participant.
func (c *ConsoleStorage) LoadReputation(_ context.Context, participant common.Address) (types.ReputationRecord, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, ok := c.reputation[participant]
	return rec, ok, nil
}

// LoadSettlement returns the in-memory settlement for poolID.
func (c *ConsoleStorage) LoadSettlement(_ context.Context, poolID uint64) (*resolution.SettlementRecord, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, ok := c.settlements[poolID]
	return rec, ok, nil
}

// Check always succeeds.
func (c *ConsoleStorage) Check(context.Context) error {
	return nil
}

// Close is a no-op for console storage.
func (c *ConsoleStorage) Close() error {
	c.logger.Info("closing-console-storage")
	return nil
}
