package resolution

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/claimpool/pkg/types"
)

// MockStorage is an in-memory Storage for tests. It lives here to avoid
// import cycles with the storage package.
type MockStorage struct {
	mu          sync.Mutex
	Settlements []*SettlementRecord
	Reputation  map[common.Address]types.ReputationRecord
	CommitErr   error
}

// NewMockStorage creates an empty mock storage.
func NewMockStorage() *MockStorage {
	return &MockStorage{Reputation: make(map[common.Address]types.ReputationRecord)}
}

// HasSettlement reports whether a settlement for poolID was committed.
func (m *MockStorage) HasSettlement(_ context.Context, poolID uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.Settlements {
		if s.PoolID == poolID {
			return true, nil
		}
	}
	return false, nil
}

// CommitSettlement records both writes, or neither when CommitErr is set.
func (m *MockStorage) CommitSettlement(_ context.Context, record *SettlementRecord, rep types.ReputationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CommitErr != nil {
		return m.CommitErr
	}
	m.Settlements = append(m.Settlements, record)
	m.Reputation[rep.Participant] = rep
	return nil
}

// LoadReputation returns the stored record for participant.
func (m *MockStorage) LoadReputation(_ context.Context, participant common.Address) (types.ReputationRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.Reputation[participant]
	return rec, ok, nil
}

// Close is a no-op.
func (m *MockStorage) Close() error {
	return nil
}

// SettlementCount returns how many settlements were committed.
func (m *MockStorage) SettlementCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.Settlements)
}
