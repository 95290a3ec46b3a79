package boxoffice

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	sellout "github.com/sellout-xyz/sellout/go"
	"github.com/sellout-xyz/sellout/go/contracts/contractstest"
	"github.com/sellout-xyz/sellout/go/evm"
)

const showID = "0x0000000000000000000000000000000000000000000000000000000000000001"

func newContract(t *testing.T, actor *contractstest.Actor) *Contract {
	t.Helper()
	chain, err := evm.NewResolver(nil).Resolve(evm.ChainIDSepolia)
	require.NoError(t, err)
	c, err := New(actor, chain)
	require.NoError(t, err)
	return c
}

func TestPurchaseTicketsComputesValue(t *testing.T) {
	actor := contractstest.NewActor().Returns("calculateTotalPrice", big.NewInt(2100))
	c := newContract(t, actor)

	res, err := c.PurchaseTickets(context.Background(), PurchaseInput{
		ShowID:      showID,
		TicketPrice: "1000",
		Amount:      "2",
	})
	require.NoError(t, err)
	require.Equal(t, sellout.StatusSuccess, res.Receipt.Status)

	require.Len(t, actor.Reads, 1)
	req := actor.LastExecuted()
	require.Equal(t, "purchaseTickets", req.Method)
	require.Equal(t, int64(2100), req.Value.Int64())
	require.Equal(t, common.Address{}, req.Args[3])
}

func TestPurchaseTicketsExplicitValue(t *testing.T) {
	actor := contractstest.NewActor()
	c := newContract(t, actor)

	_, err := c.PurchaseTickets(context.Background(), PurchaseInput{
		ShowID:      showID,
		TicketPrice: "0x3e8",
		Amount:      "1",
		Referrer:    "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
		Value:       "1000",
	})
	require.NoError(t, err)
	require.Empty(t, actor.Reads)

	req := actor.LastExecuted()
	require.Equal(t, int64(1000), req.Args[1].(*big.Int).Int64())
	require.Equal(t, int64(1000), req.Value.Int64())
	require.Equal(t, common.HexToAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"), req.Args[3])
}

func TestPurchaseTicketsValidation(t *testing.T) {
	tests := []struct {
		name  string
		in    PurchaseInput
		field string
	}{
		{"missing show", PurchaseInput{TicketPrice: "1", Amount: "1"}, "showId"},
		{"missing price", PurchaseInput{ShowID: showID, Amount: "1"}, "ticketPrice"},
		{"missing amount", PurchaseInput{ShowID: showID, TicketPrice: "1"}, "amount"},
		{"negative amount", PurchaseInput{ShowID: showID, TicketPrice: "1", Amount: "-1"}, "amount"},
		{"bad referrer", PurchaseInput{ShowID: showID, TicketPrice: "1", Amount: "1", Referrer: "bob"}, "referrer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor := contractstest.NewActor()
			c := newContract(t, actor)

			_, err := c.PurchaseTickets(context.Background(), tt.in)
			var verr *sellout.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			require.Equal(t, tt.field, verr.Field)
			require.Zero(t, actor.Calls())
		})
	}
}

func TestReads(t *testing.T) {
	actor := contractstest.NewActor().
		Returns("calculateTotalPrice", big.NewInt(3150)).
		Returns("getPendingPayout", big.NewInt(77)).
		Returns("isRefundable", true)
	c := newContract(t, actor)
	ctx := context.Background()

	total, err := c.CalculateTotalPrice(ctx, PriceInput{TicketPrice: "1000", Amount: "3"})
	require.NoError(t, err)
	require.Equal(t, int64(3150), total.Int64())

	payout, err := c.GetPendingPayout(ctx, PayoutInput{ShowID: showID, Payee: "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"})
	require.NoError(t, err)
	require.Equal(t, int64(77), payout.Int64())

	refundable, err := c.IsRefundable(ctx, TicketInput{ShowID: showID, TicketID: "4"})
	require.NoError(t, err)
	require.True(t, refundable)

	_, err = c.IsRefundable(ctx, TicketInput{ShowID: showID})
	require.ErrorIs(t, err, sellout.ErrValidation)
	require.Len(t, actor.Reads, 3)
}

func TestRefundAndClaim(t *testing.T) {
	actor := contractstest.NewActor()
	c := newContract(t, actor)
	ctx := context.Background()

	first, err := c.RefundTicket(ctx, TicketInput{ShowID: showID, TicketID: "4"})
	require.NoError(t, err)
	require.Equal(t, "refundTicket", actor.LastExecuted().Method)

	second, err := c.ClaimPayout(ctx, showID)
	require.NoError(t, err)
	require.Equal(t, "claimPayout", actor.LastExecuted().Method)
	require.NotEqual(t, first.Hash, second.Hash)

	_, err = c.ClaimPayout(ctx, "xyz")
	require.ErrorIs(t, err, sellout.ErrValidation)
}

func TestOperationsValidateBeforeCalling(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		call func(c *Contract) error
	}{
		{"calculateTotalPrice", func(c *Contract) error { _, err := c.CalculateTotalPrice(ctx, PriceInput{}); return err }},
		{"getPendingPayout", func(c *Contract) error { _, err := c.GetPendingPayout(ctx, PayoutInput{}); return err }},
		{"isRefundable", func(c *Contract) error { _, err := c.IsRefundable(ctx, TicketInput{}); return err }},
		{"purchaseTickets", func(c *Contract) error { _, err := c.PurchaseTickets(ctx, PurchaseInput{}); return err }},
		{"refundTicket", func(c *Contract) error { _, err := c.RefundTicket(ctx, TicketInput{}); return err }},
		{"claimPayout", func(c *Contract) error { _, err := c.ClaimPayout(ctx, ""); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor := contractstest.NewActor()
			err := tt.call(newContract(t, actor))
			require.ErrorIs(t, err, sellout.ErrValidation)
			require.Zero(t, actor.Calls())
		})
	}
}
