package vault

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	sellout "github.com/sellout-xyz/sellout/go"
	"github.com/sellout-xyz/sellout/go/contracts/contractstest"
)

const (
	proxy     = "0x00000000000000000000000000000000000000d1"
	recipient = "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"
)

func TestReads(t *testing.T) {
	token := common.HexToAddress("0x036CbD53842c5426634e7929541eC2318f3dCF7e")
	actor := contractstest.NewActor().
		Returns("getBalance", big.NewInt(9000)).
		Returns("paymentToken", token).
		Returns("isLocked", true)
	c, err := NewReader(actor, proxy)
	require.NoError(t, err)
	ctx := context.Background()

	balance, err := c.GetBalance(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(9000), balance.Int64())

	got, err := c.GetPaymentToken(ctx)
	require.NoError(t, err)
	require.Equal(t, token, got)

	locked, err := c.IsLocked(ctx)
	require.NoError(t, err)
	require.True(t, locked)
	require.Equal(t, common.HexToAddress(proxy), actor.LastRead().To)
}

func TestTransfers(t *testing.T) {
	actor := contractstest.NewActor()
	c, err := New(actor, proxy)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = c.Withdraw(ctx, TransferInput{Recipient: recipient, Amount: "100"})
	require.NoError(t, err)
	require.Equal(t, "withdraw", actor.LastExecuted().Method)

	_, err = c.Refund(ctx, TransferInput{Recipient: recipient, Amount: "0x64"})
	require.NoError(t, err)
	req := actor.LastExecuted()
	require.Equal(t, "refund", req.Method)
	require.Equal(t, int64(100), req.Args[1].(*big.Int).Int64())
}

func TestTransferValidation(t *testing.T) {
	actor := contractstest.NewActor()
	c, err := New(actor, proxy)
	require.NoError(t, err)

	_, err = c.Withdraw(context.Background(), TransferInput{Recipient: recipient})
	var verr *sellout.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "vault.withdraw", verr.Operation)
	require.Equal(t, "amount", verr.Field)
	require.Zero(t, actor.Calls())

	_, err = New(actor, "vault")
	require.ErrorIs(t, err, sellout.ErrValidation)
}

func TestOperationsValidateBeforeCalling(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		call func(c *Contract) error
	}{
		{"withdraw", func(c *Contract) error { _, err := c.Withdraw(ctx, TransferInput{}); return err }},
		{"refund", func(c *Contract) error { _, err := c.Refund(ctx, TransferInput{}); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor := contractstest.NewActor()
			c, err := New(actor, proxy)
			require.NoError(t, err)
			require.ErrorIs(t, tt.call(c), sellout.ErrValidation)
			require.Zero(t, actor.Calls())
		})
	}
}
