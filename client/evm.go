package client

import (
	"context"
	"crypto/ecdsa"
	"math/big"

	"github.com/cenkalti/backoff/v4"
	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/cyphera/spend-permission-manager/helpers"
	"github.com/cyphera/spend-permission-manager/interfaces"
	"github.com/cyphera/spend-permission-manager/logger"
)

const maxCallRetries = 3

// EvmClient backs the manager's collaborator interfaces with a real EVM node:
// ERC-165 capability probing, EOA/ERC-1271 signature validation, and the
// manager's own token and native transfers.
type EvmClient struct {
	eth     *ethclient.Client
	chainID *big.Int
	key     *ecdsa.PrivateKey
	from    common.Address
	logger  *zap.Logger
}

// NewEvmClient dials the RPC endpoint and, when an operator key is supplied,
// enables the transfer methods. With an empty key the client is read-only.
func NewEvmClient(ctx context.Context, rpcURL, operatorKeyHex string) (*EvmClient, error) {
	eth, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to RPC")
	}

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		eth.Close()
		return nil, errors.Wrap(err, "failed to fetch chain ID")
	}

	c := &EvmClient{
		eth:     eth,
		chainID: chainID,
		logger:  logger.Log,
	}

	if operatorKeyHex != "" {
		key, err := crypto.HexToECDSA(operatorKeyHex)
		if err != nil {
			eth.Close()
			return nil, errors.Wrap(err, "invalid operator key")
		}
		c.key = key
		c.from = crypto.PubkeyToAddress(key.PublicKey)
	}

	c.logger.Info("connected to EVM RPC",
		zap.String("chain_id", chainID.String()),
		zap.Bool("read_only", c.key == nil),
	)
	return c, nil
}

// Close releases the RPC connection.
func (c *EvmClient) Close() {
	c.eth.Close()
}

// SupportsInterface performs the ERC-165 capability probe. Contracts without
// ERC-165 revert the call, which surfaces as an error.
func (c *EvmClient) SupportsInterface(ctx context.Context, token common.Address, interfaceID [4]byte) (bool, error) {
	calldata, err := helpers.SupportsInterfaceCalldata(interfaceID)
	if err != nil {
		return false, err
	}

	output, err := c.callWithRetry(ctx, ethereum.CallMsg{To: &token, Data: calldata})
	if err != nil {
		return false, errors.Wrap(err, "supportsInterface call failed")
	}
	return helpers.UnpackSupportsInterfaceResult(output)
}

// IsValidSignature checks whether the signature over the hash authorizes the
// account. Deployed contract accounts are asked via ERC-1271; everything else
// is treated as an ECDSA key, which also covers accounts whose deployment is
// still pending.
func (c *EvmClient) IsValidSignature(ctx context.Context, account common.Address, hash common.Hash, signature []byte) (bool, error) {
	code, err := c.eth.CodeAt(ctx, account, nil)
	if err != nil {
		return false, errors.Wrap(err, "failed to check account code")
	}

	if len(code) == 0 {
		return recoverMatches(account, hash, signature)
	}

	calldata, err := helpers.ERC1271IsValidSignatureCalldata(hash, signature)
	if err != nil {
		return false, err
	}
	output, err := c.callWithRetry(ctx, ethereum.CallMsg{To: &account, Data: calldata})
	if err != nil {
		return false, errors.Wrap(err, "isValidSignature call failed")
	}
	return helpers.UnpackIsValidSignatureResult(output)
}

// Execute asks a smart account to perform one call on the manager's behalf
// via the account's execute entry point. The operator key must be an
// authorized caller of the account.
func (c *EvmClient) Execute(ctx context.Context, account common.Address, call interfaces.Call) error {
	calldata, err := helpers.AccountExecuteCalldata(call.Target, call.Value, call.Data)
	if err != nil {
		return err
	}
	return c.sendTransaction(ctx, account, new(big.Int), calldata)
}

// TransferFrom pulls tokens from a previously granted exact allowance and
// fails loudly when the transfer does not succeed.
func (c *EvmClient) TransferFrom(ctx context.Context, token, from, to common.Address, amount *big.Int) error {
	calldata, err := helpers.ERC20TransferFromCalldata(from, to, amount)
	if err != nil {
		return err
	}
	return c.sendTransaction(ctx, token, new(big.Int), calldata)
}

// TransferNative sends native currency out of the operator balance.
func (c *EvmClient) TransferNative(ctx context.Context, to common.Address, amount *big.Int) error {
	return c.sendTransaction(ctx, to, amount, nil)
}

func (c *EvmClient) callWithRetry(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	var output []byte
	operation := func() error {
		var err error
		output, err = c.eth.CallContract(ctx, msg, nil)
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxCallRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return output, nil
}

func (c *EvmClient) sendTransaction(ctx context.Context, to common.Address, value *big.Int, data []byte) error {
	if c.key == nil {
		return errors.New("client is read-only: no operator key configured")
	}

	nonce, err := c.eth.PendingNonceAt(ctx, c.from)
	if err != nil {
		return errors.Wrap(err, "failed to fetch nonce")
	}
	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to fetch gas price")
	}
	gasLimit, err := c.eth.EstimateGas(ctx, ethereum.CallMsg{
		From:  c.from,
		To:    &to,
		Value: value,
		Data:  data,
	})
	if err != nil {
		return errors.Wrap(err, "failed to estimate gas")
	}

	tx := types.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), c.key)
	if err != nil {
		return errors.Wrap(err, "failed to sign transaction")
	}
	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return errors.Wrap(err, "failed to send transaction")
	}

	receipt, err := bind.WaitMined(ctx, c.eth, signed)
	if err != nil {
		return errors.Wrap(err, "failed waiting for transaction")
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return errors.Errorf("transaction %s reverted", signed.Hash().Hex())
	}

	c.logger.Debug("transaction mined",
		zap.String("tx_hash", signed.Hash().Hex()),
		zap.String("to", to.Hex()),
		zap.Uint64("gas_used", receipt.GasUsed),
	)
	return nil
}

// recoverMatches verifies a plain ECDSA signature over the digest.
func recoverMatches(account common.Address, hash common.Hash, signature []byte) (bool, error) {
	if len(signature) != crypto.SignatureLength {
		return false, errors.Errorf("invalid signature length %d", len(signature))
	}
	sig := make([]byte, crypto.SignatureLength)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	pubkey, err := crypto.SigToPub(hash.Bytes(), sig)
	if err != nil {
		return false, errors.Wrap(err, "failed to recover signer")
	}
	return crypto.PubkeyToAddress(*pubkey) == account, nil
}
