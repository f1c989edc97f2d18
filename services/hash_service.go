package services

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/cyphera/spend-permission-manager/types"
)

const (
	// DomainName and DomainVersion identify the EIP-712 signing domain. The
	// permission hash doubles as the signed message, so identity and
	// signature cover exactly the same bytes.
	DomainName    = "Spend Permission Manager"
	DomainVersion = "1"
)

var typedDataTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	"SpendPermission": {
		{Name: "account", Type: "address"},
		{Name: "spender", Type: "address"},
		{Name: "token", Type: "address"},
		{Name: "allowance", Type: "uint160"},
		{Name: "period", Type: "uint48"},
		{Name: "start", Type: "uint48"},
		{Name: "end", Type: "uint48"},
		{Name: "salt", Type: "uint256"},
		{Name: "extraData", Type: "bytes"},
	},
	"SpendPermissionBatch": {
		{Name: "account", Type: "address"},
		{Name: "period", Type: "uint48"},
		{Name: "start", Type: "uint48"},
		{Name: "end", Type: "uint48"},
		{Name: "permissions", Type: "PermissionDetails[]"},
	},
	"PermissionDetails": {
		{Name: "spender", Type: "address"},
		{Name: "token", Type: "address"},
		{Name: "allowance", Type: "uint160"},
		{Name: "salt", Type: "uint256"},
		{Name: "extraData", Type: "bytes"},
	},
}

// HashService derives the canonical 256-bit identity of permissions and
// batches: the full EIP-712 digest over the signing domain. A pure function
// of the inputs and the configured domain.
type HashService struct {
	chainID           *math.HexOrDecimal256
	verifyingContract common.Address
}

// NewHashService creates a hash service bound to one chain and one deployed
// manager identity.
func NewHashService(chainID uint64, verifyingContract common.Address) *HashService {
	return &HashService{
		chainID:           math.NewHexOrDecimal256(int64(chainID)),
		verifyingContract: verifyingContract,
	}
}

func (s *HashService) domain() apitypes.TypedDataDomain {
	return apitypes.TypedDataDomain{
		Name:              DomainName,
		Version:           DomainVersion,
		ChainId:           s.chainID,
		VerifyingContract: s.verifyingContract.Hex(),
	}
}

// PermissionHash returns the EIP-712 digest identifying a permission.
// Identical field tuples always hash identically; any field difference
// changes the hash.
func (s *HashService) PermissionHash(permission *types.Permission) (common.Hash, error) {
	typedData := apitypes.TypedData{
		Types:       typedDataTypes,
		PrimaryType: "SpendPermission",
		Domain:      s.domain(),
		Message: apitypes.TypedDataMessage{
			"account":   permission.Account.Hex(),
			"spender":   permission.Spender.Hex(),
			"token":     permission.Token.Hex(),
			"allowance": hexOrDecimal(permission.Allowance),
			"period":    math.NewHexOrDecimal256(int64(permission.Period)),
			"start":     math.NewHexOrDecimal256(int64(permission.Start)),
			"end":       math.NewHexOrDecimal256(int64(permission.End)),
			"salt":      hexOrDecimal(permission.Salt),
			"extraData": hexutil.Encode(permission.ExtraData),
		},
	}

	digest, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to hash spend permission: %w", err)
	}
	return common.BytesToHash(digest), nil
}

// BatchHash returns the EIP-712 digest identifying a batch: each member's
// details struct is hashed individually, the array of member hashes is folded
// into the batch struct together with the shared fields.
func (s *HashService) BatchHash(batch *types.PermissionBatch) (common.Hash, error) {
	if len(batch.Permissions) == 0 {
		return common.Hash{}, ErrEmptyBatch
	}

	members := make([]interface{}, 0, len(batch.Permissions))
	for _, details := range batch.Permissions {
		members = append(members, map[string]interface{}{
			"spender":   details.Spender.Hex(),
			"token":     details.Token.Hex(),
			"allowance": hexOrDecimal(details.Allowance),
			"salt":      hexOrDecimal(details.Salt),
			"extraData": hexutil.Encode(details.ExtraData),
		})
	}

	typedData := apitypes.TypedData{
		Types:       typedDataTypes,
		PrimaryType: "SpendPermissionBatch",
		Domain:      s.domain(),
		Message: apitypes.TypedDataMessage{
			"account":     batch.Account.Hex(),
			"period":      math.NewHexOrDecimal256(int64(batch.Period)),
			"start":       math.NewHexOrDecimal256(int64(batch.Start)),
			"end":         math.NewHexOrDecimal256(int64(batch.End)),
			"permissions": members,
		},
	}

	digest, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to hash spend permission batch: %w", err)
	}
	return common.BytesToHash(digest), nil
}

func hexOrDecimal(value *big.Int) *math.HexOrDecimal256 {
	if value == nil {
		return math.NewHexOrDecimal256(0)
	}
	return (*math.HexOrDecimal256)(value)
}
