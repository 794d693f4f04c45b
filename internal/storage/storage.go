package storage

import (
	"context"

	"github.com/mselser95/claimpool/internal/resolution"
)

// Storage persists settlements and reputation. It extends the processor's
// view with the read paths used by the HTTP API and health checks.
type Storage interface {
	resolution.Storage

	// LoadSettlement returns the settlement recorded for poolID, or false.
	LoadSettlement(ctx context.Context, poolID uint64) (*resolution.SettlementRecord, bool, error)

	// Check reports whether the backing store is reachable.
	Check(ctx context.Context) error
}
