package services

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cyphera/spend-permission-manager/helpers"
	"github.com/cyphera/spend-permission-manager/interfaces"
	"github.com/cyphera/spend-permission-manager/logger"
	"github.com/cyphera/spend-permission-manager/storage"
	"github.com/cyphera/spend-permission-manager/types"
)

// PermissionService is the permission lifecycle state machine. Each
// permission hash moves through two independent write-once flags: approved
// and revoked. A permission is usable iff approved and not revoked, and a
// revocation is permanent.
type PermissionService struct {
	store   storage.Store
	hasher  *HashService
	probe   interfaces.TokenProbe
	emitter interfaces.EventEmitter
	logger  *zap.Logger
}

// NewPermissionService creates the lifecycle service.
func NewPermissionService(store storage.Store, hasher *HashService, probe interfaces.TokenProbe, emitter interfaces.EventEmitter) *PermissionService {
	return &PermissionService{
		store:   store,
		hasher:  hasher,
		probe:   probe,
		emitter: emitter,
		logger:  logger.Log,
	}
}

// Approve marks a permission as approved by its account. Returns whether the
// permission is approved after the call: false when it was already revoked,
// true otherwise. Only the first transition emits an approval event.
func (s *PermissionService) Approve(ctx context.Context, caller common.Address, permission *types.Permission) (bool, error) {
	if caller != permission.Account {
		return false, fmt.Errorf("%w: caller %s is not account %s", ErrInvalidSender, caller.Hex(), permission.Account.Hex())
	}
	return s.approveWithValidation(ctx, permission)
}

// Revoke permanently revokes a permission on behalf of its account.
// Idempotent: re-revoking succeeds without re-emitting.
func (s *PermissionService) Revoke(ctx context.Context, caller common.Address, permission *types.Permission) error {
	if caller != permission.Account {
		return fmt.Errorf("%w: caller %s is not account %s", ErrInvalidSender, caller.Hex(), permission.Account.Hex())
	}
	hash, err := s.hasher.PermissionHash(permission)
	if err != nil {
		return err
	}
	s.revoke(hash, permission)
	return nil
}

// RevokeAsSpender lets the spender opt out of a permission granted to it.
func (s *PermissionService) RevokeAsSpender(ctx context.Context, caller common.Address, permission *types.Permission) error {
	if caller != permission.Spender {
		return fmt.Errorf("%w: caller %s is not spender %s", ErrInvalidSender, caller.Hex(), permission.Spender.Hex())
	}
	hash, err := s.hasher.PermissionHash(permission)
	if err != nil {
		return err
	}
	s.revoke(hash, permission)
	return nil
}

// ApproveWithRevoke atomically revokes one permission and approves its
// replacement, but only if the revoked permission's last updated period still
// matches the snapshot the caller observed. A spend landing between snapshot
// and replacement makes the call fail with the actual period, so the account
// never unknowingly resets a partially used allowance.
func (s *PermissionService) ApproveWithRevoke(ctx context.Context, caller common.Address, toApprove, toRevoke *types.Permission, expectedLastPeriod types.PeriodSpend) (bool, error) {
	if toApprove.Account != toRevoke.Account {
		return false, fmt.Errorf("%w: %s vs %s", ErrMismatchedAccounts, toApprove.Account.Hex(), toRevoke.Account.Hex())
	}
	if caller != toApprove.Account {
		return false, fmt.Errorf("%w: caller %s is not account %s", ErrInvalidSender, caller.Hex(), toApprove.Account.Hex())
	}
	if err := s.validatePermission(ctx, toApprove); err != nil {
		return false, err
	}

	approveHash, err := s.hasher.PermissionHash(toApprove)
	if err != nil {
		return false, err
	}
	revokeHash, err := s.hasher.PermissionHash(toRevoke)
	if err != nil {
		return false, err
	}

	lastPeriod, _ := s.store.LastPeriod(revokeHash)
	if !lastPeriod.Equal(expectedLastPeriod) {
		return false, fmt.Errorf("%w: expected [%d, %d) spend %v, actual [%d, %d) spend %v",
			ErrInvalidLastUpdatedPeriod,
			expectedLastPeriod.Start, expectedLastPeriod.End, expectedLastPeriod.Spend,
			lastPeriod.Start, lastPeriod.End, lastPeriod.Spend)
	}

	s.revoke(revokeHash, toRevoke)
	return s.approve(approveHash, toApprove), nil
}

// IsApproved reports whether the approval flag is set, regardless of
// revocation.
func (s *PermissionService) IsApproved(permission *types.Permission) (bool, error) {
	hash, err := s.hasher.PermissionHash(permission)
	if err != nil {
		return false, err
	}
	return s.store.Approval(hash) == storage.FlagSet, nil
}

// IsRevoked reports whether the revocation flag is set.
func (s *PermissionService) IsRevoked(permission *types.Permission) (bool, error) {
	hash, err := s.hasher.PermissionHash(permission)
	if err != nil {
		return false, err
	}
	return s.store.Revocation(hash) == storage.FlagSet, nil
}

// IsValid reports whether a permission is live: approved and not revoked.
func (s *PermissionService) IsValid(permission *types.Permission) (bool, error) {
	hash, err := s.hasher.PermissionHash(permission)
	if err != nil {
		return false, err
	}
	return s.isValid(hash), nil
}

func (s *PermissionService) isValid(hash common.Hash) bool {
	return s.store.Approval(hash) == storage.FlagSet && s.store.Revocation(hash) != storage.FlagSet
}

// approveWithValidation is the shared approval path behind the direct-call
// and signature-based entry points. The caller-identity or signature gate
// must already have passed.
func (s *PermissionService) approveWithValidation(ctx context.Context, permission *types.Permission) (bool, error) {
	if err := s.validatePermission(ctx, permission); err != nil {
		return false, err
	}
	hash, err := s.hasher.PermissionHash(permission)
	if err != nil {
		return false, err
	}
	return s.approve(hash, permission), nil
}

// approve flips the approval flag. Returns the resulting approval status:
// false if the permission was already revoked (idempotent rejection), true
// otherwise. Emits only on the unset-to-set transition.
func (s *PermissionService) approve(hash common.Hash, permission *types.Permission) bool {
	if s.store.Revocation(hash) == storage.FlagSet {
		s.logger.Debug("approval skipped for revoked permission",
			zap.String("permission_hash", hash.Hex()))
		return false
	}
	if s.store.Approval(hash) == storage.FlagSet {
		return true
	}
	s.store.SetApproved(hash)
	s.emitter.PermissionApproved(types.PermissionApprovedEvent{
		ID:             uuid.New(),
		PermissionHash: hash,
		Permission:     *permission,
	})
	return true
}

// revoke flips the revocation flag, emitting only on the unset-to-set
// transition.
func (s *PermissionService) revoke(hash common.Hash, permission *types.Permission) {
	if s.store.Revocation(hash) == storage.FlagSet {
		return
	}
	s.store.SetRevoked(hash)
	s.emitter.PermissionRevoked(types.PermissionRevokedEvent{
		ID:             uuid.New(),
		PermissionHash: hash,
		Permission:     *permission,
	})
}

// validatePermission checks static well-formedness before any approval.
func (s *PermissionService) validatePermission(ctx context.Context, permission *types.Permission) error {
	if permission.Token == (common.Address{}) {
		return ErrZeroToken
	}
	if !permission.IsNativeToken() {
		// NFT contracts are not spendable assets. A token that does not
		// implement ERC-165 at all fails the probe and passes the check.
		supported, err := s.probe.SupportsInterface(ctx, permission.Token, helpers.ERC721InterfaceID)
		if err != nil {
			s.logger.Debug("ERC-165 probe failed, treating token as fungible",
				zap.String("token", permission.Token.Hex()),
				zap.Error(err))
		} else if supported {
			return fmt.Errorf("%w: %s", ErrERC721Token, permission.Token.Hex())
		}
	}
	if permission.Spender == (common.Address{}) {
		return ErrZeroSpender
	}
	if permission.Period == 0 {
		return ErrZeroPeriod
	}
	if permission.Period > types.MaxTimestamp {
		return fmt.Errorf("%w: period %d", ErrTimestampOverflow, permission.Period)
	}
	if permission.Allowance == nil || permission.Allowance.Sign() == 0 {
		return ErrZeroAllowance
	}
	if permission.Allowance.Cmp(types.MaxAllowance) > 0 {
		return fmt.Errorf("%w: allowance %s", ErrAllowanceOverflow, permission.Allowance.String())
	}
	if permission.Start > types.MaxTimestamp || permission.End > types.MaxTimestamp {
		return fmt.Errorf("%w: start %d, end %d", ErrTimestampOverflow, permission.Start, permission.End)
	}
	if permission.Start >= permission.End {
		return fmt.Errorf("%w: start %d, end %d", ErrInvalidStartEnd, permission.Start, permission.End)
	}
	return nil
}
