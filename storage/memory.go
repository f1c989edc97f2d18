package storage

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cyphera/spend-permission-manager/types"
)

// MemoryStore is the process-wide in-memory implementation of Store. State is
// shared across all callers; authorization is enforced by the services through
// caller-identity checks, not by partitioning storage.
type MemoryStore struct {
	mu          sync.RWMutex
	approvals   map[common.Hash]Flag
	revocations map[common.Hash]Flag
	periods     map[common.Hash]types.PeriodSpend
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		approvals:   make(map[common.Hash]Flag),
		revocations: make(map[common.Hash]Flag),
		periods:     make(map[common.Hash]types.PeriodSpend),
	}
}

// Approval returns the approval flag for a permission hash.
func (s *MemoryStore) Approval(hash common.Hash) Flag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.approvals[hash]
}

// SetApproved flips the approval flag to set. There is no way back.
func (s *MemoryStore) SetApproved(hash common.Hash) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.approvals[hash] = FlagSet
}

// Revocation returns the revocation flag for a permission hash.
func (s *MemoryStore) Revocation(hash common.Hash) Flag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revocations[hash]
}

// SetRevoked flips the revocation flag to set. There is no way back.
func (s *MemoryStore) SetRevoked(hash common.Hash) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revocations[hash] = FlagSet
}

// LastPeriod returns the most recently persisted spend period for a
// permission hash, if any.
func (s *MemoryStore) LastPeriod(hash common.Hash) (types.PeriodSpend, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	period, ok := s.periods[hash]
	if !ok {
		return types.PeriodSpend{}, false
	}
	// Copy the amount so callers cannot mutate stored state in place.
	period.Spend = new(big.Int).Set(spendOrZero(period.Spend))
	return period, true
}

// SetLastPeriod persists the given period as the latest for the hash,
// replacing any previous record.
func (s *MemoryStore) SetLastPeriod(hash common.Hash, period types.PeriodSpend) {
	s.mu.Lock()
	defer s.mu.Unlock()
	period.Spend = new(big.Int).Set(spendOrZero(period.Spend))
	s.periods[hash] = period
}

func spendOrZero(spend *big.Int) *big.Int {
	if spend == nil {
		return new(big.Int)
	}
	return spend
}
