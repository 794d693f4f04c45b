package ledger

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/claimpool/internal/position"
	"github.com/mselser95/claimpool/pkg/types"
)

// StakeCall is an unsigned stake transaction payload. Signing and submission
// happen in the wallet, never here.
type StakeCall struct {
	To       common.Address `json:"to"`
	Data     []byte         `json:"data"`
	Value    *big.Int       `json:"value"`
	Position bool           `json:"position"` // encoded ledger boolean
}

// PackStake builds calldata for stake(poolId, position). The position
// boolean is produced by the position codec.
func PackStake(contract common.Address, poolID uint64, poolStance types.Stance, choice types.Choice, amount int64) (*StakeCall, error) {
	const op = "pack_stake"

	if !poolStance.Valid() {
		return nil, types.Invariant(op, poolID, "invalid stance %d", uint8(poolStance))
	}
	if !choice.Valid() {
		return nil, types.Invariant(op, poolID, "invalid choice %d", uint8(choice))
	}
	if amount <= 0 {
		return nil, types.Invariant(op, poolID, "stake amount must be positive, got %d", amount)
	}

	encoded := position.Encode(poolStance, choice)
	data, err := PoolContractABI.Pack(MethodStake, new(big.Int).SetUint64(poolID), encoded)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", MethodStake, err)
	}

	return &StakeCall{
		To:       contract,
		Data:     data,
		Value:    big.NewInt(amount),
		Position: encoded,
	}, nil
}

func packView(method string, id uint64) ([]byte, error) {
	data, err := PoolContractABI.Pack(method, new(big.Int).SetUint64(id))
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	return data, nil
}
