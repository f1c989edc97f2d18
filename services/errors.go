package services

import "errors"

// Every failure mode gets its own sentinel so callers can distinguish them
// with errors.Is. Idempotent no-ops (re-approving an approved permission,
// re-revoking a revoked one) are deliberately not errors.
var (
	// ErrInvalidSender means the caller is not authorized to perform the
	// requested operation on this permission.
	ErrInvalidSender = errors.New("invalid sender for permission operation")

	// ErrInvalidSignature means the signature does not authorize the account.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrEmptyBatch means a permission batch contained no members.
	ErrEmptyBatch = errors.New("empty spend permission batch")

	// ErrZeroToken means the permission's token address is zero.
	ErrZeroToken = errors.New("permission token is the zero address")

	// ErrZeroSpender means the permission's spender address is zero.
	ErrZeroSpender = errors.New("permission spender is the zero address")

	// ErrZeroAllowance means the permission's allowance is zero.
	ErrZeroAllowance = errors.New("permission allowance is zero")

	// ErrZeroPeriod means the permission's period length is zero.
	ErrZeroPeriod = errors.New("permission period is zero")

	// ErrAllowanceOverflow means the allowance exceeds the uint160 range.
	ErrAllowanceOverflow = errors.New("permission allowance exceeds uint160 range")

	// ErrTimestampOverflow means a period/start/end value exceeds the uint48
	// range.
	ErrTimestampOverflow = errors.New("permission timestamp exceeds uint48 range")

	// ErrInvalidStartEnd means start is not strictly before end.
	ErrInvalidStartEnd = errors.New("permission start must be before end")

	// ErrERC721Token means the token contract identifies as an NFT.
	ErrERC721Token = errors.New("permission token is an ERC-721 contract")

	// ErrUnauthorizedSpendPermission means the permission is not live
	// (not approved, or revoked).
	ErrUnauthorizedSpendPermission = errors.New("spend permission is not approved")

	// ErrZeroValue means a spend of zero was attempted.
	ErrZeroValue = errors.New("spend value is zero")

	// ErrBeforePermissionStart means the current time is before the
	// permission becomes active.
	ErrBeforePermissionStart = errors.New("current time is before permission start")

	// ErrAfterPermissionEnd means the permission has expired.
	ErrAfterPermissionEnd = errors.New("current time is at or after permission end")

	// ErrSpendValueOverflow means cumulative period spend would exceed the
	// uint160 range.
	ErrSpendValueOverflow = errors.New("cumulative spend exceeds uint160 range")

	// ErrExceededSpendPermission means cumulative period spend would exceed
	// the allowance.
	ErrExceededSpendPermission = errors.New("spend exceeds permission allowance for current period")

	// ErrMismatchedAccounts means the two permissions in an atomic
	// approve-with-revoke belong to different accounts.
	ErrMismatchedAccounts = errors.New("permissions belong to different accounts")

	// ErrInvalidLastUpdatedPeriod means the expected period snapshot in an
	// atomic approve-with-revoke is stale.
	ErrInvalidLastUpdatedPeriod = errors.New("last updated period does not match expected period")

	// ErrSpendTokenWithdrawAssetMismatch means the withdraw request funds a
	// different asset than the permission spends.
	ErrSpendTokenWithdrawAssetMismatch = errors.New("withdraw asset does not match permission token")

	// ErrSpendValueWithdrawAmountMismatch means the withdraw amount exceeds
	// the spend value.
	ErrSpendValueWithdrawAmountMismatch = errors.New("withdraw amount exceeds spend value")

	// ErrInvalidWithdrawRequestNonce means the withdraw nonce is not bound to
	// this permission's hash.
	ErrInvalidWithdrawRequestNonce = errors.New("withdraw request nonce does not match permission hash")

	// ErrUnexpectedReceiveAmount means native currency arrived outside a
	// spend in progress, or with the wrong amount.
	ErrUnexpectedReceiveAmount = errors.New("unexpected native receive amount")

	// ErrNativeTransferNotReceived means the account's execution completed
	// without delivering the expected native value to the manager.
	ErrNativeTransferNotReceived = errors.New("expected native transfer was not received")
)
