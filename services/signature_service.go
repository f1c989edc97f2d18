package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cyphera/spend-permission-manager/interfaces"
	"github.com/cyphera/spend-permission-manager/logger"
	"github.com/cyphera/spend-permission-manager/types"
)

// SignatureService is the signature-backed entry point into the lifecycle:
// it lets anyone holding an account's signature over a permission (or batch)
// hash submit the approval on the account's behalf.
type SignatureService struct {
	hasher      *HashService
	validator   interfaces.SignatureValidator
	permissions *PermissionService
	logger      *zap.Logger
}

// NewSignatureService creates the signature gateway.
func NewSignatureService(hasher *HashService, validator interfaces.SignatureValidator, permissions *PermissionService) *SignatureService {
	return &SignatureService{
		hasher:      hasher,
		validator:   validator,
		permissions: permissions,
		logger:      logger.Log,
	}
}

// ApproveWithSignature approves a permission backed by the account's
// signature over the permission hash. The validator may deploy or prepare
// accounts that do not exist yet as part of the check.
func (s *SignatureService) ApproveWithSignature(ctx context.Context, permission *types.Permission, signature []byte) (bool, error) {
	hash, err := s.hasher.PermissionHash(permission)
	if err != nil {
		return false, err
	}

	valid, err := s.validator.IsValidSignature(ctx, permission.Account, hash, signature)
	if err != nil {
		return false, fmt.Errorf("signature validation failed: %w", err)
	}
	if !valid {
		return false, fmt.Errorf("%w: account %s, hash %s", ErrInvalidSignature, permission.Account.Hex(), hash.Hex())
	}

	return s.permissions.approveWithValidation(ctx, permission)
}

// ApproveBatchWithSignature approves every member of a batch under a single
// signature over the batch hash. Returns whether all members ended up
// approved; members that were already revoked contribute false without
// aborting the rest.
func (s *SignatureService) ApproveBatchWithSignature(ctx context.Context, batch *types.PermissionBatch, signature []byte) (bool, error) {
	batchHash, err := s.hasher.BatchHash(batch)
	if err != nil {
		return false, err
	}

	valid, err := s.validator.IsValidSignature(ctx, batch.Account, batchHash, signature)
	if err != nil {
		return false, fmt.Errorf("signature validation failed: %w", err)
	}
	if !valid {
		return false, fmt.Errorf("%w: account %s, hash %s", ErrInvalidSignature, batch.Account.Hex(), batchHash.Hex())
	}

	allApproved := true
	permissions := batch.Expand()
	for i := range permissions {
		approved, err := s.permissions.approveWithValidation(ctx, &permissions[i])
		if err != nil {
			return false, fmt.Errorf("batch member %d: %w", i, err)
		}
		if !approved {
			s.logger.Debug("batch member not approved",
				zap.Int("member", i),
				zap.String("batch_hash", batchHash.Hex()))
			allApproved = false
		}
	}
	return allApproved, nil
}
