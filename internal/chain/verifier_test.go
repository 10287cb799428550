package chain

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"

	"signalshub/internal/apperr"
)

var validHash = "0x" + strings.Repeat("ab", 32)

func TestFormatVerifier(t *testing.T) {
	cases := []struct {
		hash string
		ok   bool
	}{
		{validHash, true},
		{"", false},
		{"0x1234", false},
		{strings.Repeat("ab", 32), false},
		{"0x" + strings.Repeat("zz", 32), false},
	}
	for _, tc := range cases {
		err := FormatVerifier{}.VerifyPayment(context.Background(), tc.hash, decimal.NewFromInt(1))
		if tc.ok && err != nil {
			t.Fatalf("hash=%q err=%v want nil", tc.hash, err)
		}
		if !tc.ok && !errors.Is(err, apperr.ErrInvalidInput) {
			t.Fatalf("hash=%q err=%v want invalid input", tc.hash, err)
		}
	}
}

type fakeReader struct {
	tx      *types.Transaction
	pending bool
	status  uint64
}

func (f fakeReader) TransactionByHash(context.Context, common.Hash) (*types.Transaction, bool, error) {
	return f.tx, f.pending, nil
}

func (f fakeReader) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	return &types.Receipt{Status: f.status}, nil
}

func transfer(to common.Address, wei *big.Int) *types.Transaction {
	return types.NewTx(&types.LegacyTx{To: &to, Value: wei, Gas: 21000, GasPrice: big.NewInt(1)})
}

func TestRPCVerifier(t *testing.T) {
	payee := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	other := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	amount := decimal.RequireFromString("0.02")
	enough := toWei(amount)

	cases := []struct {
		name   string
		reader fakeReader
		ok     bool
	}{
		{"paid", fakeReader{tx: transfer(payee, enough), status: types.ReceiptStatusSuccessful}, true},
		{"underpaid", fakeReader{tx: transfer(payee, big.NewInt(1)), status: types.ReceiptStatusSuccessful}, false},
		{"wrong payee", fakeReader{tx: transfer(other, enough), status: types.ReceiptStatusSuccessful}, false},
		{"reverted", fakeReader{tx: transfer(payee, enough), status: types.ReceiptStatusFailed}, false},
		{"pending", fakeReader{tx: transfer(payee, enough), pending: true}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := &RPCVerifier{Client: tc.reader, Payee: &payee}
			err := v.VerifyPayment(context.Background(), validHash, amount)
			if tc.ok && err != nil {
				t.Fatalf("err=%v want nil", err)
			}
			if !tc.ok && !errors.Is(err, apperr.ErrInvalidInput) {
				t.Fatalf("err=%v want invalid input", err)
			}
		})
	}
}

func TestToWei(t *testing.T) {
	if got := toWei(decimal.RequireFromString("0.02")).String(); got != "20000000000000000" {
		t.Fatalf("wei=%s", got)
	}
}
