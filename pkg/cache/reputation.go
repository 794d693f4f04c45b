package cache

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mselser95/claimpool/pkg/types"
)

const (
	nsRecord  = "record"
	nsSummary = "summary"
)

// ReputationCache memoises stored reputation records and summaries of
// caller-supplied histories.
type ReputationCache struct {
	cache Cache
	ttl   time.Duration
}

// NewReputationCache wraps c. Entries expire after ttl.
func NewReputationCache(c Cache, ttl time.Duration) *ReputationCache {
	return &ReputationCache{cache: c, ttl: ttl}
}

func recordKey(participant common.Address) string {
	return nsRecord + ":" + participant.Hex()
}

// SummaryKey derives a cache key from the participant and the canonical
// encoding of the history being summarised.
func SummaryKey(participant common.Address, history []byte) string {
	return nsSummary + ":" + crypto.Keccak256Hash(participant.Bytes(), history).Hex()
}

// Record returns the cached stored record for participant.
func (r *ReputationCache) Record(participant common.Address) (types.ReputationRecord, bool) {
	return r.get(recordKey(participant))
}

// SetRecord caches a stored record.
func (r *ReputationCache) SetRecord(rec types.ReputationRecord) {
	r.cache.Set(recordKey(rec.Participant), rec, r.ttl)
}

// Summary returns a cached summary by key.
func (r *ReputationCache) Summary(key string) (types.ReputationRecord, bool) {
	return r.get(key)
}

// SetSummary caches a summary. Summaries are pure functions of their key
// and never need invalidation.
func (r *ReputationCache) SetSummary(key string, rec types.ReputationRecord) {
	r.cache.Set(key, rec, r.ttl)
}

// InvalidateParticipant drops the cached stored record after a settlement
// changes it.
func (r *ReputationCache) InvalidateParticipant(participant common.Address) {
	r.cache.Delete(recordKey(participant))
	InvalidationsTotal.Inc()
}

func (r *ReputationCache) get(key string) (types.ReputationRecord, bool) {
	v, ok := r.cache.Get(key)
	if !ok {
		return types.ReputationRecord{}, false
	}
	rec, ok := v.(types.ReputationRecord)
	return rec, ok
}
