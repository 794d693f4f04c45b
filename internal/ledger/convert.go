package ledger

import (
	"math"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	json "github.com/goccy/go-json"
	"github.com/mselser95/claimpool/pkg/types"
)

const opDecode = "decode"

// toBig converts any numeric shape the ledger or the feed produces.
func toBig(id uint64, field string, v any) (*big.Int, error) {
	switch n := v.(type) {
	case nil:
		return nil, types.Invariant(opDecode, id, "missing field %s", field)
	case *big.Int:
		if n == nil {
			return nil, types.Invariant(opDecode, id, "missing field %s", field)
		}
		return n, nil
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	case int64:
		return big.NewInt(n), nil
	case int:
		return big.NewInt(int64(n)), nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) {
			return nil, types.Invariant(opDecode, id, "field %s is not an integer: %v", field, n)
		}
		out, _ := new(big.Float).SetFloat64(n).Int(nil)
		return out, nil
	case json.Number:
		return parseBig(id, field, n.String())
	case string:
		return parseBig(id, field, n)
	default:
		return nil, types.Invariant(opDecode, id, "field %s has unsupported type %T", field, v)
	}
}

func parseBig(id uint64, field, s string) (*big.Int, error) {
	out, ok := new(big.Int).SetString(strings.TrimSpace(s), 0)
	if !ok {
		return nil, types.Invariant(opDecode, id, "field %s is not an integer: %q", field, s)
	}
	return out, nil
}

// toAmount converts to a non-negative int64 amount.
func toAmount(id uint64, field string, v any) (int64, error) {
	n, err := toBig(id, field, v)
	if err != nil {
		return 0, err
	}
	if n.Sign() < 0 {
		return 0, types.Invariant(opDecode, id, "field %s is negative: %s", field, n)
	}
	if !n.IsInt64() {
		return 0, types.Overflow(opDecode, id, "field %s exceeds int64: %s", field, n)
	}
	return n.Int64(), nil
}

func toID(id uint64, field string, v any) (uint64, error) {
	n, err := toBig(id, field, v)
	if err != nil {
		return 0, err
	}
	if n.Sign() < 0 {
		return 0, types.Invariant(opDecode, id, "field %s is negative: %s", field, n)
	}
	if !n.IsUint64() {
		return 0, types.Overflow(opDecode, id, "field %s exceeds uint64: %s", field, n)
	}
	return n.Uint64(), nil
}

func toBool(id uint64, field string, v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		switch strings.ToLower(b) {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
	case nil:
		return false, types.Invariant(opDecode, id, "missing field %s", field)
	}
	return false, types.Invariant(opDecode, id, "field %s is not a boolean: %v", field, v)
}

func toAddress(id uint64, field string, v any) (common.Address, error) {
	switch a := v.(type) {
	case common.Address:
		return a, nil
	case [20]byte:
		return common.Address(a), nil
	case string:
		if common.IsHexAddress(a) {
			return common.HexToAddress(a), nil
		}
		return common.Address{}, types.Invariant(opDecode, id, "field %s is not an address: %q", field, a)
	case nil:
		return common.Address{}, types.Invariant(opDecode, id, "missing field %s", field)
	}
	return common.Address{}, types.Invariant(opDecode, id, "field %s has unsupported type %T", field, v)
}

// toStance decodes the contract's uint8 stance (0 affirmative, 1 negative)
// or a stance name.
func toStance(id uint64, field string, v any) (types.Stance, error) {
	if name, ok := v.(string); ok {
		if stance, err := types.ParseStance(name); err == nil {
			return stance, nil
		}
	}

	n, err := toBig(id, field, v)
	if err != nil {
		return 0, err
	}
	switch {
	case n.IsInt64() && n.Int64() == 0:
		return types.StanceAffirmative, nil
	case n.IsInt64() && n.Int64() == 1:
		return types.StanceNegative, nil
	default:
		return 0, types.Invariant(opDecode, id, "field %s is not a stance: %s", field, n)
	}
}

// stanceToLedger is the inverse of toStance.
func stanceToLedger(s types.Stance) uint8 {
	if s == types.StanceNegative {
		return 1
	}
	return 0
}
