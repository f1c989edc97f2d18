package services

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cyphera/spend-permission-manager/storage"
	"github.com/cyphera/spend-permission-manager/types"
)

// PeriodService computes the accounting window a spend at a given time falls
// into. Windows are anchored to the permission's start, not to wall-clock
// epoch boundaries, so they are reproducible regardless of when they are
// first queried. Read-only: never writes the store.
type PeriodService struct {
	store  storage.Store
	hasher *HashService
}

// NewPeriodService creates a period service over the given store and hasher.
func NewPeriodService(store storage.Store, hasher *HashService) *PeriodService {
	return &PeriodService{
		store:  store,
		hasher: hasher,
	}
}

// CurrentPeriod returns the active accounting window for the permission at
// the given time. If the persisted window is still current and has usage, it
// is returned unchanged; otherwise a fresh zero-spend window is computed.
func (s *PeriodService) CurrentPeriod(permission *types.Permission, now time.Time) (types.PeriodSpend, error) {
	hash, err := s.hasher.PermissionHash(permission)
	if err != nil {
		return types.PeriodSpend{}, err
	}
	return s.currentPeriod(hash, permission, now)
}

func (s *PeriodService) currentPeriod(hash common.Hash, permission *types.Permission, now time.Time) (types.PeriodSpend, error) {
	timestamp := uint64(now.Unix())
	if timestamp < permission.Start {
		return types.PeriodSpend{}, fmt.Errorf("%w: start %d, current %d", ErrBeforePermissionStart, permission.Start, timestamp)
	}
	if timestamp >= permission.End {
		return types.PeriodSpend{}, fmt.Errorf("%w: end %d, current %d", ErrAfterPermissionEnd, permission.End, timestamp)
	}

	// A persisted window with usage that has not elapsed yet is still the
	// current one.
	if last, ok := s.store.LastPeriod(hash); ok {
		if last.Spend != nil && last.Spend.Sign() > 0 && timestamp < last.End {
			return last, nil
		}
	}

	// Fresh window, aligned to the permission's start.
	progress := (timestamp - permission.Start) % permission.Period
	start := timestamp - progress
	end := start + permission.Period
	if end > permission.End {
		// The last window is truncated by the permission's overall end.
		end = permission.End
	}

	return types.PeriodSpend{
		Start: start,
		End:   end,
		Spend: big.NewInt(0),
	}, nil
}
