package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"

	"signalshub/internal/apperr"
)

const (
	ModeOff    = "off"
	ModeFormat = "format"
	ModeRPC    = "rpc"
)

// weiPerETH is the decimal exponent between ETH and wei.
const weiPerETH = 18

// FormatVerifier only checks that the hash looks like a 32-byte hex hash.
type FormatVerifier struct{}

func (FormatVerifier) VerifyPayment(_ context.Context, txHash string, _ decimal.Decimal) error {
	return checkHash(txHash)
}

func checkHash(txHash string) error {
	txHash = strings.TrimSpace(txHash)
	if txHash == "" {
		return fmt.Errorf("%w: transactionHash is required", apperr.ErrInvalidInput)
	}
	raw, err := hexutil.Decode(txHash)
	if err != nil || len(raw) != common.HashLength {
		return fmt.Errorf("%w: transactionHash %q is not a 32-byte hex hash", apperr.ErrInvalidInput, txHash)
	}
	return nil
}

// TxReader is the subset of ethclient.Client the RPC verifier uses.
type TxReader interface {
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error)
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// RPCVerifier confirms the transaction on chain: mined, successful, paying at
// least the purchase amount, and sent to Payee when one is configured.
type RPCVerifier struct {
	Client TxReader
	Payee  *common.Address
}

func NewRPCVerifier(ctx context.Context, rpcURL, payee string) (*RPCVerifier, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	v := &RPCVerifier{Client: client}
	if payee = strings.TrimSpace(payee); payee != "" {
		if !common.IsHexAddress(payee) {
			return nil, fmt.Errorf("invalid payee address %q", payee)
		}
		addr := common.HexToAddress(payee)
		v.Payee = &addr
	}
	return v, nil
}

func (v *RPCVerifier) VerifyPayment(ctx context.Context, txHash string, amount decimal.Decimal) error {
	if err := checkHash(txHash); err != nil {
		return err
	}
	hash := common.HexToHash(txHash)
	tx, pending, err := v.Client.TransactionByHash(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return fmt.Errorf("%w: transaction %s not found", apperr.ErrInvalidInput, txHash)
	}
	if err != nil {
		return fmt.Errorf("fetch transaction: %w", err)
	}
	if pending {
		return fmt.Errorf("%w: transaction %s is still pending", apperr.ErrInvalidInput, txHash)
	}
	receipt, err := v.Client.TransactionReceipt(ctx, hash)
	if err != nil {
		return fmt.Errorf("fetch receipt: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("%w: transaction %s reverted", apperr.ErrInvalidInput, txHash)
	}
	if v.Payee != nil {
		if tx.To() == nil || *tx.To() != *v.Payee {
			return fmt.Errorf("%w: transaction %s does not pay the marketplace", apperr.ErrInvalidInput, txHash)
		}
	}
	if tx.Value().Cmp(toWei(amount)) < 0 {
		return fmt.Errorf("%w: transaction %s pays less than %s ETH", apperr.ErrInvalidInput, txHash, amount)
	}
	return nil
}

func toWei(amount decimal.Decimal) *big.Int {
	return amount.Shift(weiPerETH).BigInt()
}
