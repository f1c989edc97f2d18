package helpers

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/cyphera/spend-permission-manager/types"
)

// ERC721InterfaceID is the ERC-165 interface identifier for ERC-721,
// used to detect NFT contracts posing as spendable tokens.
var ERC721InterfaceID = [4]byte{0x80, 0xac, 0x58, 0xcd}

// ERC1271MagicValue is the bytes4 value a contract account returns from
// isValidSignature when the signature is valid.
var ERC1271MagicValue = [4]byte{0x16, 0x26, 0xba, 0x7e}

const erc20JSON = `[
	{"name":"approve","type":"function","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"name":"transferFrom","type":"function","inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
]`

const erc165JSON = `[
	{"name":"supportsInterface","type":"function","stateMutability":"view","inputs":[{"name":"interfaceId","type":"bytes4"}],"outputs":[{"name":"","type":"bool"}]}
]`

const erc1271JSON = `[
	{"name":"isValidSignature","type":"function","stateMutability":"view","inputs":[{"name":"hash","type":"bytes32"},{"name":"signature","type":"bytes"}],"outputs":[{"name":"","type":"bytes4"}]}
]`

const accountJSON = `[
	{"name":"execute","type":"function","inputs":[{"name":"target","type":"address"},{"name":"value","type":"uint256"},{"name":"data","type":"bytes"}],"outputs":[]}
]`

const withdrawJSON = `[
	{"name":"withdraw","type":"function","inputs":[{"name":"withdrawRequest","type":"tuple","components":[{"name":"signature","type":"bytes"},{"name":"asset","type":"address"},{"name":"amount","type":"uint256"},{"name":"nonce","type":"uint256"},{"name":"expiry","type":"uint48"}]}],"outputs":[]}
]`

var (
	erc20ABI    = mustParseABI(erc20JSON)
	erc165ABI   = mustParseABI(erc165JSON)
	erc1271ABI  = mustParseABI(erc1271JSON)
	accountABI  = mustParseABI(accountJSON)
	withdrawABI = mustParseABI(withdrawJSON)
)

func mustParseABI(definition string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic("invalid ABI definition: " + err.Error())
	}
	return parsed
}

// ERC20ApproveCalldata builds calldata granting spender an exact ERC-20
// allowance.
func ERC20ApproveCalldata(spender common.Address, amount *big.Int) ([]byte, error) {
	data, err := erc20ABI.Pack("approve", spender, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to pack approve calldata: %w", err)
	}
	return data, nil
}

// ERC20TransferFromCalldata builds calldata pulling tokens from a previously
// granted allowance.
func ERC20TransferFromCalldata(from, to common.Address, amount *big.Int) ([]byte, error) {
	data, err := erc20ABI.Pack("transferFrom", from, to, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to pack transferFrom calldata: %w", err)
	}
	return data, nil
}

// SupportsInterfaceCalldata builds the ERC-165 capability probe calldata.
func SupportsInterfaceCalldata(interfaceID [4]byte) ([]byte, error) {
	data, err := erc165ABI.Pack("supportsInterface", interfaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to pack supportsInterface calldata: %w", err)
	}
	return data, nil
}

// UnpackSupportsInterfaceResult decodes the ERC-165 probe return value.
func UnpackSupportsInterfaceResult(output []byte) (bool, error) {
	values, err := erc165ABI.Unpack("supportsInterface", output)
	if err != nil {
		return false, fmt.Errorf("failed to unpack supportsInterface result: %w", err)
	}
	supported, ok := values[0].(bool)
	if !ok {
		return false, fmt.Errorf("unexpected supportsInterface result type %T", values[0])
	}
	return supported, nil
}

// ERC1271IsValidSignatureCalldata builds the contract-account signature check
// calldata.
func ERC1271IsValidSignatureCalldata(hash common.Hash, signature []byte) ([]byte, error) {
	data, err := erc1271ABI.Pack("isValidSignature", hash, signature)
	if err != nil {
		return nil, fmt.Errorf("failed to pack isValidSignature calldata: %w", err)
	}
	return data, nil
}

// UnpackIsValidSignatureResult reports whether the contract returned the
// ERC-1271 magic value.
func UnpackIsValidSignatureResult(output []byte) (bool, error) {
	values, err := erc1271ABI.Unpack("isValidSignature", output)
	if err != nil {
		return false, fmt.Errorf("failed to unpack isValidSignature result: %w", err)
	}
	magic, ok := values[0].([4]byte)
	if !ok {
		return false, fmt.Errorf("unexpected isValidSignature result type %T", values[0])
	}
	return magic == ERC1271MagicValue, nil
}

// AccountExecuteCalldata builds the smart-account execute call wrapping an
// inner (target, value, data) call.
func AccountExecuteCalldata(target common.Address, value *big.Int, data []byte) ([]byte, error) {
	if value == nil {
		value = new(big.Int)
	}
	if data == nil {
		data = []byte{}
	}
	packed, err := accountABI.Pack("execute", target, value, data)
	if err != nil {
		return nil, fmt.Errorf("failed to pack execute calldata: %w", err)
	}
	return packed, nil
}

// WithdrawCalldata builds the funding-advance withdrawal calldata the account
// executes just in time before a spend.
func WithdrawCalldata(request types.WithdrawRequest) ([]byte, error) {
	arg := struct {
		Signature []byte
		Asset     common.Address
		Amount    *big.Int
		Nonce     *big.Int
		Expiry    *big.Int
	}{
		Signature: request.Signature,
		Asset:     request.Asset,
		Amount:    request.Amount,
		Nonce:     request.Nonce,
		Expiry:    new(big.Int).SetUint64(request.Expiry),
	}
	data, err := withdrawABI.Pack("withdraw", arg)
	if err != nil {
		return nil, fmt.Errorf("failed to pack withdraw calldata: %w", err)
	}
	return data, nil
}
