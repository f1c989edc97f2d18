package interfaces

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cyphera/spend-permission-manager/types"
)

// Call is a single call the account is asked to perform on the manager's
// behalf: target contract, attached native value, and calldata.
type Call struct {
	Target common.Address
	Value  *big.Int
	Data   []byte
}

// ExecutionClient drives the account's call-execution capability. The account
// trusts the manager's authority and performs exactly the requested call;
// any failure of that call fails the whole operation.
type ExecutionClient interface {
	Execute(ctx context.Context, account common.Address, call Call) error
}

// AssetClient performs the transfers the manager issues on its own authority:
// pulling ERC-20 tokens via a previously granted allowance, and forwarding
// native currency out of the manager's balance. Implementations must return
// an error when a token transfer fails rather than swallowing it.
type AssetClient interface {
	TransferFrom(ctx context.Context, token, from, to common.Address, amount *big.Int) error
	TransferNative(ctx context.Context, to common.Address, amount *big.Int) error
}

// TokenProbe checks whether a contract advertises an interface via ERC-165.
// Used to reject NFT contracts posing as spendable assets.
type TokenProbe interface {
	SupportsInterface(ctx context.Context, token common.Address, interfaceID [4]byte) (bool, error)
}

// SignatureValidator decides whether a signature over a message hash
// authorizes an account. Implementations may deploy or otherwise prepare
// accounts that do not exist yet as a side effect of the first validation.
type SignatureValidator interface {
	IsValidSignature(ctx context.Context, account common.Address, hash common.Hash, signature []byte) (bool, error)
}

// EventEmitter receives one notification per state-changing transition.
// Idempotent no-op calls never reach the emitter.
type EventEmitter interface {
	PermissionApproved(event types.PermissionApprovedEvent)
	PermissionRevoked(event types.PermissionRevokedEvent)
	SpendPermissionUsed(event types.SpendPermissionUsedEvent)
}
