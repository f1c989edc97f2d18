package services_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/cyphera/spend-permission-manager/helpers"
	"github.com/cyphera/spend-permission-manager/interfaces"
	"github.com/cyphera/spend-permission-manager/mocks"
	"github.com/cyphera/spend-permission-manager/services"
	"github.com/cyphera/spend-permission-manager/storage"
	"github.com/cyphera/spend-permission-manager/types"
)

var testFundingAddress = common.HexToAddress("0x011A61C07DbF256A68256B1cB51A5e246730aB92")

type spendFixture struct {
	store       *storage.MemoryStore
	hasher      *services.HashService
	periods     *services.PeriodService
	permissions *services.PermissionService
	execution   *mocks.MockExecutionClient
	assets      *mocks.MockAssetClient
	emitter     *mocks.MockEventEmitter
	service     *services.SpendService
}

func newSpendFixture(t *testing.T) *spendFixture {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	store := storage.NewMemoryStore()
	hasher := services.NewHashService(testChainID, testManagerAddress)
	probe := mocks.NewMockTokenProbe(ctrl)
	probe.EXPECT().SupportsInterface(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, nil).AnyTimes()
	execution := mocks.NewMockExecutionClient(ctrl)
	assets := mocks.NewMockAssetClient(ctrl)
	emitter := mocks.NewMockEventEmitter(ctrl)
	emitter.EXPECT().PermissionApproved(gomock.Any()).AnyTimes()
	emitter.EXPECT().PermissionRevoked(gomock.Any()).AnyTimes()

	periods := services.NewPeriodService(store, hasher)
	permissions := services.NewPermissionService(store, hasher, probe, emitter)
	service := services.NewSpendService(store, hasher, periods, permissions, execution, assets, emitter, testManagerAddress, testFundingAddress)

	return &spendFixture{
		store:       store,
		hasher:      hasher,
		periods:     periods,
		permissions: permissions,
		execution:   execution,
		assets:      assets,
		emitter:     emitter,
		service:     service,
	}
}

func (f *spendFixture) approve(t *testing.T, permission *types.Permission) {
	t.Helper()
	approved, err := f.permissions.Approve(context.Background(), permission.Account, permission)
	require.NoError(t, err)
	require.True(t, approved)
}

func (f *spendFixture) freezeTime(at uint64) {
	f.service.SetNow(func() time.Time { return time.Unix(int64(at), 0) })
}

func (f *spendFixture) lastSpend(t *testing.T, permission *types.Permission) *big.Int {
	t.Helper()
	hash, err := f.hasher.PermissionHash(permission)
	require.NoError(t, err)
	period, ok := f.store.LastPeriod(hash)
	if !ok {
		return big.NewInt(0)
	}
	return period.Spend
}

func TestSpendService_Spend_Preconditions(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects wrong caller", func(t *testing.T) {
		f := newSpendFixture(t)
		permission := testPermission()
		err := f.service.Spend(ctx, permission.Account, permission, big.NewInt(1))
		assert.ErrorIs(t, err, services.ErrInvalidSender)
	})

	t.Run("rejects zero value", func(t *testing.T) {
		f := newSpendFixture(t)
		permission := testPermission()
		err := f.service.Spend(ctx, permission.Spender, permission, big.NewInt(0))
		assert.ErrorIs(t, err, services.ErrZeroValue)
	})

	t.Run("rejects unapproved permission", func(t *testing.T) {
		f := newSpendFixture(t)
		permission := testPermission()
		f.freezeTime(permission.Start + 10)
		err := f.service.Spend(ctx, permission.Spender, permission, big.NewInt(1))
		assert.ErrorIs(t, err, services.ErrUnauthorizedSpendPermission)
	})

	t.Run("rejects revoked permission", func(t *testing.T) {
		f := newSpendFixture(t)
		permission := testPermission()
		f.approve(t, permission)
		require.NoError(t, f.permissions.Revoke(ctx, permission.Account, permission))
		f.freezeTime(permission.Start + 10)

		err := f.service.Spend(ctx, permission.Spender, permission, big.NewInt(1))
		assert.ErrorIs(t, err, services.ErrUnauthorizedSpendPermission)
	})

	t.Run("rejects spend outside active range", func(t *testing.T) {
		f := newSpendFixture(t)
		permission := testPermission()
		f.approve(t, permission)
		f.freezeTime(permission.Start - 1)

		err := f.service.Spend(ctx, permission.Spender, permission, big.NewInt(1))
		assert.ErrorIs(t, err, services.ErrBeforePermissionStart)
	})
}

func TestSpendService_Spend_TokenPath(t *testing.T) {
	ctx := context.Background()

	t.Run("grants allowance then pulls tokens", func(t *testing.T) {
		f := newSpendFixture(t)
		permission := testPermission()
		f.approve(t, permission)
		f.freezeTime(permission.Start + 10)
		value := big.NewInt(250)

		approveCalldata, err := helpers.ERC20ApproveCalldata(testManagerAddress, value)
		require.NoError(t, err)

		f.emitter.EXPECT().SpendPermissionUsed(gomock.Any()).Do(func(event types.SpendPermissionUsedEvent) {
			assert.Equal(t, value, event.Value)
			assert.Equal(t, permission.Account, event.Account)
			assert.Equal(t, permission.Spender, event.Spender)
			assert.Equal(t, permission.Token, event.Token)
			assert.Equal(t, permission.Start, event.Period.Start)
		}).Times(1)

		gomock.InOrder(
			f.execution.EXPECT().Execute(ctx, permission.Account, gomock.Any()).DoAndReturn(
				func(_ context.Context, _ common.Address, call interfaces.Call) error {
					assert.Equal(t, permission.Token, call.Target)
					assert.Zero(t, call.Value.Sign())
					assert.Equal(t, approveCalldata, call.Data)
					return nil
				}),
			f.assets.EXPECT().TransferFrom(ctx, permission.Token, permission.Account, permission.Spender, value).Return(nil),
		)

		require.NoError(t, f.service.Spend(ctx, permission.Spender, permission, value))
		assert.Zero(t, f.lastSpend(t, permission).Cmp(value))
	})

	t.Run("accumulates within one window and enforces the cap", func(t *testing.T) {
		f := newSpendFixture(t)
		permission := testPermission()
		permission.Allowance = big.NewInt(100)
		f.approve(t, permission)
		f.freezeTime(permission.Start + 10)

		f.emitter.EXPECT().SpendPermissionUsed(gomock.Any()).Times(2)
		f.execution.EXPECT().Execute(gomock.Any(), permission.Account, gomock.Any()).Return(nil).Times(2)
		f.assets.EXPECT().TransferFrom(gomock.Any(), permission.Token, permission.Account, permission.Spender, gomock.Any()).Return(nil).Times(2)

		require.NoError(t, f.service.Spend(ctx, permission.Spender, permission, big.NewInt(60)))
		require.NoError(t, f.service.Spend(ctx, permission.Spender, permission, big.NewInt(40)))
		assert.Zero(t, f.lastSpend(t, permission).Cmp(big.NewInt(100)))

		err := f.service.Spend(ctx, permission.Spender, permission, big.NewInt(1))
		assert.ErrorIs(t, err, services.ErrExceededSpendPermission)
		assert.Zero(t, f.lastSpend(t, permission).Cmp(big.NewInt(100)), "failed spend must not change accounting")
	})

	t.Run("window rollover restores headroom", func(t *testing.T) {
		f := newSpendFixture(t)
		permission := testPermission()
		permission.Allowance = big.NewInt(100)
		f.approve(t, permission)

		f.emitter.EXPECT().SpendPermissionUsed(gomock.Any()).Times(2)
		f.execution.EXPECT().Execute(gomock.Any(), permission.Account, gomock.Any()).Return(nil).Times(2)
		f.assets.EXPECT().TransferFrom(gomock.Any(), permission.Token, permission.Account, permission.Spender, gomock.Any()).Return(nil).Times(2)

		f.freezeTime(permission.Start + 10)
		require.NoError(t, f.service.Spend(ctx, permission.Spender, permission, big.NewInt(100)))

		err := f.service.Spend(ctx, permission.Spender, permission, big.NewInt(1))
		assert.ErrorIs(t, err, services.ErrExceededSpendPermission)

		f.freezeTime(permission.Start + permission.Period + 5)
		require.NoError(t, f.service.Spend(ctx, permission.Spender, permission, big.NewInt(100)))
		assert.Zero(t, f.lastSpend(t, permission).Cmp(big.NewInt(100)))
	})

	t.Run("rejects accounting overflow", func(t *testing.T) {
		f := newSpendFixture(t)
		permission := testPermission()
		permission.Allowance = new(big.Int).Set(types.MaxAllowance)
		f.approve(t, permission)
		f.freezeTime(permission.Start + 10)

		hash, err := f.hasher.PermissionHash(permission)
		require.NoError(t, err)
		f.store.SetLastPeriod(hash, types.PeriodSpend{
			Start: permission.Start,
			End:   permission.Start + permission.Period,
			Spend: new(big.Int).Sub(types.MaxAllowance, big.NewInt(1)),
		})

		err = f.service.Spend(ctx, permission.Spender, permission, big.NewInt(2))
		assert.ErrorIs(t, err, services.ErrSpendValueOverflow)
	})

	t.Run("rolls back accounting when the transfer fails", func(t *testing.T) {
		f := newSpendFixture(t)
		permission := testPermission()
		f.approve(t, permission)
		f.freezeTime(permission.Start + 10)

		f.emitter.EXPECT().SpendPermissionUsed(gomock.Any()).Times(1)
		f.execution.EXPECT().Execute(gomock.Any(), permission.Account, gomock.Any()).Return(nil)
		f.assets.EXPECT().TransferFrom(gomock.Any(), permission.Token, permission.Account, permission.Spender, gomock.Any()).
			Return(errors.New("transfer reverted"))

		err := f.service.Spend(ctx, permission.Spender, permission, big.NewInt(10))
		require.Error(t, err)
		assert.Zero(t, f.lastSpend(t, permission).Sign(), "failed spend must leave no accounting behind")
	})

	t.Run("rolls back accounting when the allowance grant fails", func(t *testing.T) {
		f := newSpendFixture(t)
		permission := testPermission()
		f.approve(t, permission)
		f.freezeTime(permission.Start + 10)

		f.emitter.EXPECT().SpendPermissionUsed(gomock.Any()).Times(1)
		f.execution.EXPECT().Execute(gomock.Any(), permission.Account, gomock.Any()).Return(errors.New("account rejected call"))

		err := f.service.Spend(ctx, permission.Spender, permission, big.NewInt(10))
		require.Error(t, err)
		assert.Zero(t, f.lastSpend(t, permission).Sign())
	})
}

func TestSpendService_Spend_NativePath(t *testing.T) {
	ctx := context.Background()

	nativePermission := func() *types.Permission {
		p := testPermission()
		p.Token = types.NativeTokenAddress
		return p
	}

	t.Run("round trips through the manager", func(t *testing.T) {
		f := newSpendFixture(t)
		permission := nativePermission()
		f.approve(t, permission)
		f.freezeTime(permission.Start + 10)
		value := big.NewInt(1_000)

		f.emitter.EXPECT().SpendPermissionUsed(gomock.Any()).Times(1)
		gomock.InOrder(
			f.execution.EXPECT().Execute(ctx, permission.Account, gomock.Any()).DoAndReturn(
				func(_ context.Context, _ common.Address, call interfaces.Call) error {
					assert.Equal(t, testManagerAddress, call.Target)
					assert.Zero(t, call.Value.Cmp(value))
					assert.Empty(t, call.Data)
					// The account delivers the native value to the manager.
					return f.service.ReceiveNative(call.Value)
				}),
			f.assets.EXPECT().TransferNative(ctx, permission.Spender, value).Return(nil),
		)

		require.NoError(t, f.service.Spend(ctx, permission.Spender, permission, value))
		assert.Zero(t, f.lastSpend(t, permission).Cmp(value))
	})

	t.Run("fails when the value never arrives", func(t *testing.T) {
		f := newSpendFixture(t)
		permission := nativePermission()
		f.approve(t, permission)
		f.freezeTime(permission.Start + 10)

		f.emitter.EXPECT().SpendPermissionUsed(gomock.Any()).Times(1)
		f.execution.EXPECT().Execute(gomock.Any(), permission.Account, gomock.Any()).Return(nil)

		err := f.service.Spend(ctx, permission.Spender, permission, big.NewInt(5))
		assert.ErrorIs(t, err, services.ErrNativeTransferNotReceived)
		assert.Zero(t, f.lastSpend(t, permission).Sign())
	})

	t.Run("rejects mismatched inbound amount", func(t *testing.T) {
		f := newSpendFixture(t)
		permission := nativePermission()
		f.approve(t, permission)
		f.freezeTime(permission.Start + 10)

		f.emitter.EXPECT().SpendPermissionUsed(gomock.Any()).Times(1)
		f.execution.EXPECT().Execute(gomock.Any(), permission.Account, gomock.Any()).DoAndReturn(
			func(_ context.Context, _ common.Address, call interfaces.Call) error {
				return f.service.ReceiveNative(new(big.Int).Add(call.Value, big.NewInt(1)))
			})

		err := f.service.Spend(ctx, permission.Spender, permission, big.NewInt(5))
		require.Error(t, err)
	})

	t.Run("rejects unsolicited inbound transfers", func(t *testing.T) {
		f := newSpendFixture(t)
		err := f.service.ReceiveNative(big.NewInt(7))
		assert.ErrorIs(t, err, services.ErrUnexpectedReceiveAmount)
	})

	t.Run("expected amount is one-shot", func(t *testing.T) {
		f := newSpendFixture(t)
		permission := nativePermission()
		f.approve(t, permission)
		f.freezeTime(permission.Start + 10)
		value := big.NewInt(9)

		f.emitter.EXPECT().SpendPermissionUsed(gomock.Any()).Times(1)
		f.execution.EXPECT().Execute(gomock.Any(), permission.Account, gomock.Any()).DoAndReturn(
			func(_ context.Context, _ common.Address, call interfaces.Call) error {
				require.NoError(t, f.service.ReceiveNative(call.Value))
				// A second delivery inside the same spend must be rejected.
				return f.service.ReceiveNative(call.Value)
			})

		err := f.service.Spend(ctx, permission.Spender, permission, value)
		require.Error(t, err)
	})
}

func TestSpendService_SpendWithWithdraw(t *testing.T) {
	ctx := context.Background()

	withdrawFor := func(f *spendFixture, t *testing.T, permission *types.Permission, amount *big.Int) types.WithdrawRequest {
		t.Helper()
		hash, err := f.hasher.PermissionHash(permission)
		require.NoError(t, err)
		asset := permission.Token
		if permission.IsNativeToken() {
			asset = types.WithdrawNativeAddress
		}
		return types.WithdrawRequest{
			Asset:     asset,
			Amount:    amount,
			Nonce:     new(big.Int).SetBytes(hash[16:]),
			Expiry:    permission.End,
			Signature: []byte{0x01},
		}
	}

	t.Run("funds the account before transferring", func(t *testing.T) {
		f := newSpendFixture(t)
		permission := testPermission()
		f.approve(t, permission)
		f.freezeTime(permission.Start + 10)
		value := big.NewInt(500)
		request := withdrawFor(f, t, permission, value)

		withdrawCalldata, err := helpers.WithdrawCalldata(request)
		require.NoError(t, err)

		f.emitter.EXPECT().SpendPermissionUsed(gomock.Any()).Times(1)
		gomock.InOrder(
			f.execution.EXPECT().Execute(ctx, permission.Account, gomock.Any()).DoAndReturn(
				func(_ context.Context, _ common.Address, call interfaces.Call) error {
					assert.Equal(t, testFundingAddress, call.Target)
					assert.Equal(t, withdrawCalldata, call.Data)
					return nil
				}),
			f.execution.EXPECT().Execute(ctx, permission.Account, gomock.Any()).DoAndReturn(
				func(_ context.Context, _ common.Address, call interfaces.Call) error {
					assert.Equal(t, permission.Token, call.Target)
					return nil
				}),
			f.assets.EXPECT().TransferFrom(ctx, permission.Token, permission.Account, permission.Spender, value).Return(nil),
		)

		require.NoError(t, f.service.SpendWithWithdraw(ctx, permission.Spender, permission, value, request))
		assert.Zero(t, f.lastSpend(t, permission).Cmp(value))
	})

	t.Run("accepts native sentinel against zero withdraw asset", func(t *testing.T) {
		f := newSpendFixture(t)
		permission := testPermission()
		permission.Token = types.NativeTokenAddress
		f.approve(t, permission)
		f.freezeTime(permission.Start + 10)
		value := big.NewInt(50)
		request := withdrawFor(f, t, permission, value)
		require.Equal(t, types.WithdrawNativeAddress, request.Asset)

		f.emitter.EXPECT().SpendPermissionUsed(gomock.Any()).Times(1)
		gomock.InOrder(
			f.execution.EXPECT().Execute(ctx, permission.Account, gomock.Any()).DoAndReturn(
				func(_ context.Context, _ common.Address, call interfaces.Call) error {
					assert.Equal(t, testFundingAddress, call.Target)
					return nil
				}),
			f.execution.EXPECT().Execute(ctx, permission.Account, gomock.Any()).DoAndReturn(
				func(_ context.Context, _ common.Address, call interfaces.Call) error {
					return f.service.ReceiveNative(call.Value)
				}),
			f.assets.EXPECT().TransferNative(ctx, permission.Spender, value).Return(nil),
		)

		require.NoError(t, f.service.SpendWithWithdraw(ctx, permission.Spender, permission, value, request))
	})

	t.Run("rejects asset mismatch", func(t *testing.T) {
		f := newSpendFixture(t)
		permission := testPermission()
		f.approve(t, permission)
		f.freezeTime(permission.Start + 10)
		request := withdrawFor(f, t, permission, big.NewInt(5))
		request.Asset = common.HexToAddress("0x7777777777777777777777777777777777777777")

		err := f.service.SpendWithWithdraw(ctx, permission.Spender, permission, big.NewInt(5), request)
		assert.ErrorIs(t, err, services.ErrSpendTokenWithdrawAssetMismatch)
	})

	t.Run("rejects withdraw amount above spend value", func(t *testing.T) {
		f := newSpendFixture(t)
		permission := testPermission()
		f.approve(t, permission)
		f.freezeTime(permission.Start + 10)
		request := withdrawFor(f, t, permission, big.NewInt(10))

		err := f.service.SpendWithWithdraw(ctx, permission.Spender, permission, big.NewInt(5), request)
		assert.ErrorIs(t, err, services.ErrSpendValueWithdrawAmountMismatch)
	})

	t.Run("rejects nonce bound to another permission", func(t *testing.T) {
		f := newSpendFixture(t)
		permission := testPermission()
		f.approve(t, permission)
		f.freezeTime(permission.Start + 10)
		request := withdrawFor(f, t, permission, big.NewInt(5))
		request.Nonce = new(big.Int).Add(request.Nonce, big.NewInt(1))

		err := f.service.SpendWithWithdraw(ctx, permission.Spender, permission, big.NewInt(5), request)
		assert.ErrorIs(t, err, services.ErrInvalidWithdrawRequestNonce)
	})

	t.Run("rolls back accounting when funding fails", func(t *testing.T) {
		f := newSpendFixture(t)
		permission := testPermission()
		f.approve(t, permission)
		f.freezeTime(permission.Start + 10)
		value := big.NewInt(5)
		request := withdrawFor(f, t, permission, value)

		f.emitter.EXPECT().SpendPermissionUsed(gomock.Any()).Times(1)
		f.execution.EXPECT().Execute(gomock.Any(), permission.Account, gomock.Any()).Return(errors.New("withdraw rejected"))

		err := f.service.SpendWithWithdraw(ctx, permission.Spender, permission, value, request)
		require.Error(t, err)
		assert.Zero(t, f.lastSpend(t, permission).Sign())
	})
}
