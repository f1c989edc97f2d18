package services_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyphera/spend-permission-manager/services"
	"github.com/cyphera/spend-permission-manager/storage"
	"github.com/cyphera/spend-permission-manager/types"
)

func TestPeriodService_CurrentPeriod_Bounds(t *testing.T) {
	store := storage.NewMemoryStore()
	hasher := services.NewHashService(testChainID, testManagerAddress)
	periods := services.NewPeriodService(store, hasher)
	permission := testPermission()

	tests := []struct {
		name    string
		now     uint64
		wantErr error
	}{
		{"before start", permission.Start - 1, services.ErrBeforePermissionStart},
		{"at end", permission.End, services.ErrAfterPermissionEnd},
		{"after end", permission.End + 100, services.ErrAfterPermissionEnd},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := periods.CurrentPeriod(permission, time.Unix(int64(tt.now), 0))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPeriodService_CurrentPeriod_FreshWindows(t *testing.T) {
	store := storage.NewMemoryStore()
	hasher := services.NewHashService(testChainID, testManagerAddress)
	periods := services.NewPeriodService(store, hasher)
	permission := testPermission()

	tests := []struct {
		name      string
		now       uint64
		wantStart uint64
		wantEnd   uint64
	}{
		{"at permission start", permission.Start, permission.Start, permission.Start + permission.Period},
		{"mid first window", permission.Start + 100, permission.Start, permission.Start + permission.Period},
		{"just before rollover", permission.Start + permission.Period - 1, permission.Start, permission.Start + permission.Period},
		{"rolled over", permission.Start + permission.Period + 5, permission.Start + permission.Period, permission.Start + 2*permission.Period},
		{"deep into schedule", permission.Start + 10*permission.Period + 7, permission.Start + 10*permission.Period, permission.Start + 11*permission.Period},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			period, err := periods.CurrentPeriod(permission, time.Unix(int64(tt.now), 0))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, period.Start)
			assert.Equal(t, tt.wantEnd, period.End)
			assert.Zero(t, period.Spend.Sign())
		})
	}
}

func TestPeriodService_CurrentPeriod_TruncatedByEnd(t *testing.T) {
	store := storage.NewMemoryStore()
	hasher := services.NewHashService(testChainID, testManagerAddress)
	periods := services.NewPeriodService(store, hasher)

	permission := testPermission()
	// End mid-window: the last window is truncated.
	permission.End = permission.Start + permission.Period + permission.Period/2

	period, err := periods.CurrentPeriod(permission, time.Unix(int64(permission.Start+permission.Period+1), 0))
	require.NoError(t, err)
	assert.Equal(t, permission.Start+permission.Period, period.Start)
	assert.Equal(t, permission.End, period.End)
}

func TestPeriodService_CurrentPeriod_PersistedWindow(t *testing.T) {
	store := storage.NewMemoryStore()
	hasher := services.NewHashService(testChainID, testManagerAddress)
	periods := services.NewPeriodService(store, hasher)
	permission := testPermission()

	hash, err := hasher.PermissionHash(permission)
	require.NoError(t, err)

	stored := types.PeriodSpend{
		Start: permission.Start,
		End:   permission.Start + permission.Period,
		Spend: big.NewInt(500),
	}
	store.SetLastPeriod(hash, stored)

	t.Run("still current with usage", func(t *testing.T) {
		period, err := periods.CurrentPeriod(permission, time.Unix(int64(permission.Start+permission.Period-10), 0))
		require.NoError(t, err)
		assert.True(t, period.Equal(stored))
	})

	t.Run("elapsed window yields fresh one", func(t *testing.T) {
		period, err := periods.CurrentPeriod(permission, time.Unix(int64(permission.Start+permission.Period+1), 0))
		require.NoError(t, err)
		assert.Equal(t, permission.Start+permission.Period, period.Start)
		assert.Zero(t, period.Spend.Sign())
	})

	t.Run("zero-spend record is recomputed", func(t *testing.T) {
		store.SetLastPeriod(hash, types.PeriodSpend{
			Start: permission.Start,
			End:   permission.Start + permission.Period,
			Spend: big.NewInt(0),
		})
		period, err := periods.CurrentPeriod(permission, time.Unix(int64(permission.Start+5), 0))
		require.NoError(t, err)
		assert.Equal(t, permission.Start, period.Start)
		assert.Zero(t, period.Spend.Sign())
	})
}

func TestPeriodService_CurrentPeriod_ReadOnly(t *testing.T) {
	store := storage.NewMemoryStore()
	hasher := services.NewHashService(testChainID, testManagerAddress)
	periods := services.NewPeriodService(store, hasher)
	permission := testPermission()

	_, err := periods.CurrentPeriod(permission, time.Unix(int64(permission.Start+5), 0))
	require.NoError(t, err)

	hash, err := hasher.PermissionHash(permission)
	require.NoError(t, err)
	_, persisted := store.LastPeriod(hash)
	assert.False(t, persisted, "accountant must not write the store")
}
