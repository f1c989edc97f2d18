package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// NativeTokenAddress is the sentinel address used to denote the chain's
	// native currency (ERC-7528 convention). Any other token value is treated
	// as an ERC-20 contract address.
	NativeTokenAddress = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

	// WithdrawNativeAddress is the zero address used by the funding-advance
	// service to denote native currency on the withdraw side.
	WithdrawNativeAddress = common.Address{}

	// MaxAllowance is the largest amount representable in the uint160 range
	// shared by allowances and cumulative period spend.
	MaxAllowance = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 160), big.NewInt(1))

	// MaxTimestamp is the largest uint48 value, the upper bound for period
	// lengths and start/end timestamps.
	MaxTimestamp = uint64(1)<<48 - 1
)

// Permission authorizes a spender to transfer up to Allowance of Token out of
// Account per rolling period of Period seconds, between Start (inclusive) and
// End (exclusive).
type Permission struct {
	// Account is the owner the funds move out of.
	Account common.Address `json:"account"`
	// Spender is the third party allowed to trigger transfers.
	Spender common.Address `json:"spender"`
	// Token is the asset address, or NativeTokenAddress for native currency.
	Token common.Address `json:"token"`
	// Allowance is the spend cap per period, a uint160 amount.
	Allowance *big.Int `json:"allowance"`
	// Period is the rolling window length in seconds (uint48).
	Period uint64 `json:"period"`
	// Start is the unix timestamp the permission becomes active (uint48).
	Start uint64 `json:"start"`
	// End is the unix timestamp the permission expires, exclusive (uint48).
	End uint64 `json:"end"`
	// Salt disambiguates otherwise-identical permissions (uint256).
	Salt *big.Int `json:"salt"`
	// ExtraData is opaque to the manager and available to the spender.
	ExtraData []byte `json:"extra_data"`
}

// IsNativeToken reports whether the permission moves native currency rather
// than an ERC-20 token.
func (p *Permission) IsNativeToken() bool {
	return p.Token == NativeTokenAddress
}

// PermissionDetails is the per-member portion of a batch: everything a
// Permission carries except the fields shared across the batch.
type PermissionDetails struct {
	Spender   common.Address `json:"spender"`
	Token     common.Address `json:"token"`
	Allowance *big.Int       `json:"allowance"`
	Salt      *big.Int       `json:"salt"`
	ExtraData []byte         `json:"extra_data"`
}

// PermissionBatch groups permissions sharing one account and time window so a
// single signature can cover all of them. No batch-level state is ever
// persisted; the batch is expanded before entering the lifecycle.
type PermissionBatch struct {
	Account     common.Address      `json:"account"`
	Period      uint64              `json:"period"`
	Start       uint64              `json:"start"`
	End         uint64              `json:"end"`
	Permissions []PermissionDetails `json:"permissions"`
}

// Expand materializes the batch members into standalone permissions.
func (b *PermissionBatch) Expand() []Permission {
	permissions := make([]Permission, 0, len(b.Permissions))
	for _, details := range b.Permissions {
		permissions = append(permissions, Permission{
			Account:   b.Account,
			Spender:   details.Spender,
			Token:     details.Token,
			Allowance: details.Allowance,
			Period:    b.Period,
			Start:     b.Start,
			End:       b.End,
			Salt:      details.Salt,
			ExtraData: details.ExtraData,
		})
	}
	return permissions
}

// PeriodSpend records cumulative usage within one accounting window
// [Start, End). Only the most recently touched window is persisted per
// permission hash.
type PeriodSpend struct {
	Start uint64   `json:"start"`
	End   uint64   `json:"end"`
	Spend *big.Int `json:"spend"`
}

// Equal reports whether two period records match in all of start, end and
// spend. Used for the optimistic snapshot check in approve-with-revoke.
func (p PeriodSpend) Equal(other PeriodSpend) bool {
	if p.Start != other.Start || p.End != other.End {
		return false
	}
	a, b := p.Spend, other.Spend
	if a == nil {
		a = new(big.Int)
	}
	if b == nil {
		b = new(big.Int)
	}
	return a.Cmp(b) == 0
}

// WithdrawRequest asks the external funding-advance service to move funds
// into the account just in time for a spend. The manager never calls the
// funding service directly; the request is executed through the account.
type WithdrawRequest struct {
	Asset     common.Address `json:"asset"`
	Amount    *big.Int       `json:"amount"`
	Nonce     *big.Int       `json:"nonce"`
	Expiry    uint64         `json:"expiry"`
	Signature []byte         `json:"signature"`
}
