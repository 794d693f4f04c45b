// Package ledger is the boundary to the on-chain pool contract. Raw contract
// data arrives either as positional tuples (ABI return values) or as named
// objects (indexer feed); both are normalised here into pkg/types entities so
// nothing past this package ever sees a raw payload.
package ledger

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Contract method names.
const (
	MethodGetPool  = "getPool"
	MethodGetStake = "getStake"
	MethodGetClaim = "getClaim"
	MethodStake    = "stake"
)

const poolContractABI = `[
  {"type":"function","name":"getPool","stateMutability":"view",
   "inputs":[{"name":"poolId","type":"uint256"}],
   "outputs":[
     {"name":"claimId","type":"uint256"},
     {"name":"creator","type":"address"},
     {"name":"stance","type":"uint8"},
     {"name":"creatorStake","type":"uint256"},
     {"name":"agreeTotal","type":"uint256"},
     {"name":"disagreeTotal","type":"uint256"},
     {"name":"totalStaked","type":"uint256"},
     {"name":"resolved","type":"bool"},
     {"name":"creatorWasCorrect","type":"bool"}]},
  {"type":"function","name":"getStake","stateMutability":"view",
   "inputs":[{"name":"stakeId","type":"uint256"}],
   "outputs":[
     {"name":"poolId","type":"uint256"},
     {"name":"staker","type":"address"},
     {"name":"amount","type":"uint256"},
     {"name":"position","type":"bool"},
     {"name":"createdAt","type":"uint64"},
     {"name":"withdrawn","type":"bool"}]},
  {"type":"function","name":"getClaim","stateMutability":"view",
   "inputs":[{"name":"claimId","type":"uint256"}],
   "outputs":[
     {"name":"resolved","type":"bool"},
     {"name":"outcome","type":"bool"},
     {"name":"resolvedAt","type":"uint64"}]},
  {"type":"function","name":"stake","stateMutability":"payable",
   "inputs":[{"name":"poolId","type":"uint256"},{"name":"position","type":"bool"}],
   "outputs":[]}
]`

// PoolContractABI is the parsed contract interface.
var PoolContractABI = mustParseABI(poolContractABI)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("parse pool contract ABI: %v", err))
	}
	return parsed
}
