package reward

import (
	"math"

	"github.com/holiman/uint256"
)

// addChecked adds non-negative amounts and reports overflow of int64.
func addChecked(a, b int64) (int64, bool) {
	if a > math.MaxInt64-b {
		return 0, false
	}
	return a + b, true
}

// mulDiv computes floor(x*y/d) for non-negative x, y and positive d using a
// 256-bit intermediate, so the product never wraps. ok is false when the
// quotient does not fit in int64.
func mulDiv(x, y, d int64) (int64, bool) {
	if x < 0 || y < 0 || d <= 0 {
		return 0, false
	}
	z, overflow := new(uint256.Int).MulDivOverflow(
		uint256.NewInt(uint64(x)),
		uint256.NewInt(uint64(y)),
		uint256.NewInt(uint64(d)),
	)
	if overflow || !z.IsUint64() || z.Uint64() > math.MaxInt64 {
		return 0, false
	}
	return int64(z.Uint64()), true
}
