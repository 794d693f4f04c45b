package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/mselser95/claimpool/pkg/types"
	"go.uber.org/zap"
)

// ContractCaller executes read-only contract calls. *ethclient.Client
// satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Reader fetches pool, stake and claim state from the pool contract. It
// never signs or submits transactions.
type Reader struct {
	caller   ContractCaller
	contract common.Address
	logger   *zap.Logger
}

// NewReader creates a reader over an existing caller.
func NewReader(caller ContractCaller, contract common.Address, logger *zap.Logger) (*Reader, error) {
	if caller == nil {
		return nil, errors.New("caller cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Reader{caller: caller, contract: contract, logger: logger}, nil
}

// DialReader connects to rpcURL. The returned close function releases the
// RPC connection.
func DialReader(ctx context.Context, rpcURL string, contract common.Address, logger *zap.Logger) (*Reader, func(), error) {
	if rpcURL == "" {
		return nil, nil, errors.New("rpcURL cannot be empty")
	}

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, nil, fmt.Errorf("dial RPC: %w", err)
	}

	reader, err := NewReader(client, contract, logger)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return reader, client.Close, nil
}

// Pool fetches a pool by id.
func (r *Reader) Pool(ctx context.Context, poolID uint64) (types.AnalysisPool, error) {
	out, err := r.call(ctx, MethodGetPool, poolID)
	if err != nil {
		return types.AnalysisPool{}, err
	}
	return DecodePoolOutput(poolID, out)
}

// Stake fetches a stake by id and decodes its position against poolStance.
func (r *Reader) Stake(ctx context.Context, stakeID uint64, poolStance types.Stance) (types.ParticipantStake, error) {
	out, err := r.call(ctx, MethodGetStake, stakeID)
	if err != nil {
		return types.ParticipantStake{}, err
	}
	return DecodeStakeOutput(stakeID, out, poolStance)
}

// Claim fetches a claim by id.
func (r *Reader) Claim(ctx context.Context, claimID uint64) (types.Claim, error) {
	out, err := r.call(ctx, MethodGetClaim, claimID)
	if err != nil {
		return types.Claim{}, err
	}
	return DecodeClaimOutput(claimID, out)
}

// Snapshot reads a pool, its claim and the given stakes into one event. The
// calls are pinned to the same block so the snapshot is consistent.
func (r *Reader) Snapshot(ctx context.Context, poolID uint64, stakeIDs []uint64, block *big.Int) (*ResolutionEvent, error) {
	pinned := &Reader{caller: pinnedCaller{r.caller, block}, contract: r.contract, logger: r.logger}

	pool, err := pinned.Pool(ctx, poolID)
	if err != nil {
		return nil, fmt.Errorf("read pool %d: %w", poolID, err)
	}

	claim, err := pinned.Claim(ctx, pool.ClaimID)
	if err != nil {
		return nil, fmt.Errorf("read claim %d: %w", pool.ClaimID, err)
	}

	stakes := make([]types.ParticipantStake, 0, len(stakeIDs))
	for _, id := range stakeIDs {
		stake, err := pinned.Stake(ctx, id, pool.Stance)
		if err != nil {
			return nil, fmt.Errorf("read stake %d: %w", id, err)
		}
		stakes = append(stakes, stake)
	}

	event := &ResolutionEvent{
		PoolID:     poolID,
		Pool:       pool,
		Claim:      claim,
		Stakes:     stakes,
		ReceivedAt: time.Now().UTC(),
	}
	if block != nil && block.IsUint64() {
		event.BlockNumber = block.Uint64()
	}

	r.logger.Debug("ledger-snapshot-read",
		zap.Uint64("pool-id", poolID),
		zap.Int("stakes", len(stakes)),
		zap.String("state", string(pool.State)))

	return event, nil
}

func (r *Reader) call(ctx context.Context, method string, id uint64) ([]byte, error) {
	data, err := packView(method, id)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &r.contract, Data: data}, nil)
	ContractCallDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		ContractCallsTotal.WithLabelValues(method, "error").Inc()
		r.logger.Warn("ledger-call-failed",
			zap.String("method", method),
			zap.Uint64("id", id),
			zap.Error(err))
		return nil, fmt.Errorf("call %s(%d): %w", method, id, err)
	}

	ContractCallsTotal.WithLabelValues(method, "success").Inc()
	return out, nil
}

// pinnedCaller forces every call to a fixed block.
type pinnedCaller struct {
	ContractCaller
	block *big.Int
}

func (p pinnedCaller) CallContract(ctx context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	return p.ContractCaller.CallContract(ctx, msg, p.block)
}
