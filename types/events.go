package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// PermissionApprovedEvent is emitted exactly once when a permission first
// becomes approved. Idempotent re-approvals do not re-emit.
type PermissionApprovedEvent struct {
	ID             uuid.UUID   `json:"id"`
	PermissionHash common.Hash `json:"permission_hash"`
	Permission     Permission  `json:"permission"`
}

// PermissionRevokedEvent is emitted exactly once when a permission first
// becomes revoked.
type PermissionRevokedEvent struct {
	ID             uuid.UUID   `json:"id"`
	PermissionHash common.Hash `json:"permission_hash"`
	Permission     Permission  `json:"permission"`
}

// SpendPermissionUsedEvent is emitted on every successful spend. Value is the
// incremental amount of this spend, not the cumulative period total.
type SpendPermissionUsedEvent struct {
	ID             uuid.UUID      `json:"id"`
	PermissionHash common.Hash    `json:"permission_hash"`
	Account        common.Address `json:"account"`
	Spender        common.Address `json:"spender"`
	Token          common.Address `json:"token"`
	Period         PeriodSpend    `json:"period"`
	Value          *big.Int       `json:"value"`
}
