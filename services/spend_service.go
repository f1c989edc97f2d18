package services

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cyphera/spend-permission-manager/helpers"
	"github.com/cyphera/spend-permission-manager/interfaces"
	"github.com/cyphera/spend-permission-manager/logger"
	"github.com/cyphera/spend-permission-manager/storage"
	"github.com/cyphera/spend-permission-manager/types"
)

// SpendService validates and executes spends against approved permissions:
// it checks lifecycle state, charges the current period's allowance, then
// drives the asset transfer through the account's execution capability.
//
// Accounting is persisted before the external transfer call. A reentrant
// spend attempt triggered from inside the transfer therefore sees the already
// updated period and cannot double-spend the same window. Do not reorder.
type SpendService struct {
	store       storage.Store
	hasher      *HashService
	periods     *PeriodService
	permissions *PermissionService
	execution   interfaces.ExecutionClient
	assets      interfaces.AssetClient
	emitter     interfaces.EventEmitter
	logger      *zap.Logger

	// managerAddress is the manager's own identity: the transient recipient
	// of native spends and the grantee of exact ERC-20 allowances.
	managerAddress common.Address
	// fundingAddress is the external funding-advance service reachable only
	// through the account's execution path.
	fundingAddress common.Address

	now func() time.Time

	// expectedReceive is the one-shot expected inbound native amount for the
	// spend currently in progress, nil otherwise.
	receiveMu       sync.Mutex
	expectedReceive *big.Int
}

// NewSpendService creates the spend executor.
func NewSpendService(
	store storage.Store,
	hasher *HashService,
	periods *PeriodService,
	permissions *PermissionService,
	execution interfaces.ExecutionClient,
	assets interfaces.AssetClient,
	emitter interfaces.EventEmitter,
	managerAddress common.Address,
	fundingAddress common.Address,
) *SpendService {
	return &SpendService{
		store:          store,
		hasher:         hasher,
		periods:        periods,
		permissions:    permissions,
		execution:      execution,
		assets:         assets,
		emitter:        emitter,
		logger:         logger.Log,
		managerAddress: managerAddress,
		fundingAddress: fundingAddress,
		now:            time.Now,
	}
}

// SetNow overrides the time source.
func (s *SpendService) SetNow(now func() time.Time) {
	s.now = now
}

// Spend moves value of the permission's token from the account to the
// spender, charged against the current period's allowance. Caller must be
// the permission's spender.
func (s *SpendService) Spend(ctx context.Context, caller common.Address, permission *types.Permission, value *big.Int) error {
	if caller != permission.Spender {
		return fmt.Errorf("%w: caller %s is not spender %s", ErrInvalidSender, caller.Hex(), permission.Spender.Hex())
	}

	_, restore, err := s.useSpendPermission(ctx, permission, value)
	if err != nil {
		return err
	}

	if err := s.transfer(ctx, permission, value); err != nil {
		restore()
		return err
	}
	return nil
}

// SpendWithWithdraw is Spend with a just-in-time funding step: the account
// first executes a withdrawal from the funding-advance service, then the
// transfer proceeds as usual. The withdraw request must fund the same asset,
// must not exceed the spend value, and its nonce must be bound to this
// permission's hash so it cannot be replayed against another permission.
func (s *SpendService) SpendWithWithdraw(ctx context.Context, caller common.Address, permission *types.Permission, value *big.Int, withdrawRequest types.WithdrawRequest) error {
	if caller != permission.Spender {
		return fmt.Errorf("%w: caller %s is not spender %s", ErrInvalidSender, caller.Hex(), permission.Spender.Hex())
	}

	hash, err := s.hasher.PermissionHash(permission)
	if err != nil {
		return err
	}

	if err := validateWithdrawRequest(permission, hash, value, withdrawRequest); err != nil {
		return err
	}

	_, restore, err := s.useSpendPermission(ctx, permission, value)
	if err != nil {
		return err
	}

	// The funding advance must land in the account before any transfer out
	// of it. Skipping this call would let the transfer run unfunded.
	calldata, err := helpers.WithdrawCalldata(withdrawRequest)
	if err != nil {
		restore()
		return err
	}
	if err := s.execution.Execute(ctx, permission.Account, interfaces.Call{
		Target: s.fundingAddress,
		Value:  new(big.Int),
		Data:   calldata,
	}); err != nil {
		restore()
		return fmt.Errorf("funding withdrawal failed: %w", err)
	}

	if err := s.transfer(ctx, permission, value); err != nil {
		restore()
		return err
	}
	return nil
}

// ReceiveNative accepts inbound native currency on the manager's behalf.
// Only the exact amount expected by the spend in progress is accepted, once;
// anything else is rejected.
func (s *SpendService) ReceiveNative(amount *big.Int) error {
	s.receiveMu.Lock()
	defer s.receiveMu.Unlock()
	if s.expectedReceive == nil || amount == nil || s.expectedReceive.Cmp(amount) != 0 {
		return fmt.Errorf("%w: %v", ErrUnexpectedReceiveAmount, amount)
	}
	s.expectedReceive = nil
	return nil
}

// useSpendPermission checks that the permission is live and has headroom in
// the current period, then persists the updated period and emits the usage
// event. The returned restore function undoes the period update so a failed
// transfer leaves no partial accounting behind.
func (s *SpendService) useSpendPermission(ctx context.Context, permission *types.Permission, value *big.Int) (common.Hash, func(), error) {
	if value == nil || value.Sign() == 0 {
		return common.Hash{}, nil, ErrZeroValue
	}

	hash, err := s.hasher.PermissionHash(permission)
	if err != nil {
		return common.Hash{}, nil, err
	}

	if !s.permissions.isValid(hash) {
		return common.Hash{}, nil, fmt.Errorf("%w: %s", ErrUnauthorizedSpendPermission, hash.Hex())
	}

	period, err := s.periods.currentPeriod(hash, permission, s.now())
	if err != nil {
		return common.Hash{}, nil, err
	}

	// The sum is computed in arbitrary precision; both operands fit uint160
	// but the total may not.
	total := new(big.Int).Add(period.Spend, value)
	if total.Cmp(types.MaxAllowance) > 0 {
		return common.Hash{}, nil, fmt.Errorf("%w: total %s", ErrSpendValueOverflow, total.String())
	}
	if total.Cmp(permission.Allowance) > 0 {
		return common.Hash{}, nil, fmt.Errorf("%w: spend %s, total %s, allowance %s",
			ErrExceededSpendPermission, value.String(), total.String(), permission.Allowance.String())
	}

	previous, hadPrevious := s.store.LastPeriod(hash)
	period.Spend = total
	s.store.SetLastPeriod(hash, period)

	s.emitter.SpendPermissionUsed(types.SpendPermissionUsedEvent{
		ID:             uuid.New(),
		PermissionHash: hash,
		Account:        permission.Account,
		Spender:        permission.Spender,
		Token:          permission.Token,
		Period:         period,
		Value:          new(big.Int).Set(value),
	})

	restore := func() {
		if hadPrevious {
			s.store.SetLastPeriod(hash, previous)
		} else {
			s.store.SetLastPeriod(hash, types.PeriodSpend{})
		}
		s.logger.Warn("spend accounting rolled back after transfer failure",
			zap.String("permission_hash", hash.Hex()),
			zap.String("value", value.String()))
	}
	return hash, restore, nil
}

// transfer moves the spent value from the account to the spender.
func (s *SpendService) transfer(ctx context.Context, permission *types.Permission, value *big.Int) error {
	if permission.IsNativeToken() {
		return s.transferNative(ctx, permission, value)
	}
	return s.transferToken(ctx, permission, value)
}

// transferNative routes native currency through the manager: the account
// sends exactly value to the manager, gated by the one-shot expected-receive
// flag, and the manager forwards it to the spender.
func (s *SpendService) transferNative(ctx context.Context, permission *types.Permission, value *big.Int) error {
	s.receiveMu.Lock()
	s.expectedReceive = new(big.Int).Set(value)
	s.receiveMu.Unlock()

	err := s.execution.Execute(ctx, permission.Account, interfaces.Call{
		Target: s.managerAddress,
		Value:  new(big.Int).Set(value),
	})

	s.receiveMu.Lock()
	received := s.expectedReceive == nil
	s.expectedReceive = nil
	s.receiveMu.Unlock()

	if err != nil {
		return fmt.Errorf("native transfer from account failed: %w", err)
	}
	if !received {
		return fmt.Errorf("%w: %s", ErrNativeTransferNotReceived, value.String())
	}

	return s.assets.TransferNative(ctx, permission.Spender, value)
}

// transferToken has the account grant the manager an exact allowance, then
// pulls the tokens straight to the spender. A failing token transfer is a
// hard error.
func (s *SpendService) transferToken(ctx context.Context, permission *types.Permission, value *big.Int) error {
	calldata, err := helpers.ERC20ApproveCalldata(s.managerAddress, value)
	if err != nil {
		return err
	}
	if err := s.execution.Execute(ctx, permission.Account, interfaces.Call{
		Target: permission.Token,
		Value:  new(big.Int),
		Data:   calldata,
	}); err != nil {
		return fmt.Errorf("allowance grant failed: %w", err)
	}
	return s.assets.TransferFrom(ctx, permission.Token, permission.Account, permission.Spender, value)
}

// validateWithdrawRequest binds a funding withdrawal to one specific spend.
func validateWithdrawRequest(permission *types.Permission, hash common.Hash, value *big.Int, request types.WithdrawRequest) error {
	expectedAsset := permission.Token
	if permission.IsNativeToken() {
		expectedAsset = types.WithdrawNativeAddress
	}
	if request.Asset != expectedAsset {
		return fmt.Errorf("%w: withdraw asset %s, permission token %s",
			ErrSpendTokenWithdrawAssetMismatch, request.Asset.Hex(), permission.Token.Hex())
	}

	if value != nil && request.Amount != nil && request.Amount.Cmp(value) > 0 {
		return fmt.Errorf("%w: withdraw amount %s, spend value %s",
			ErrSpendValueWithdrawAmountMismatch, request.Amount.String(), value.String())
	}

	// The nonce's low 128 bits must equal the permission hash's low 128
	// bits, so a withdraw request signed for this permission cannot be
	// replayed against another one.
	nonce := request.Nonce
	if nonce == nil {
		nonce = new(big.Int)
	}
	maxUint128 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	nonceLow := new(big.Int).And(nonce, maxUint128)
	hashLow := new(big.Int).SetBytes(hash[16:])
	if nonceLow.Cmp(hashLow) != 0 {
		return fmt.Errorf("%w: nonce low bits %s, hash low bits %s",
			ErrInvalidWithdrawRequestNonce, nonceLow.Text(16), hashLow.Text(16))
	}
	return nil
}
