package show

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

const (
	showID = "0x00000000000000000000000000000000000000000000000000000000008f3c1a"
	artist = "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"
)

func newContract(t *testing.T, actor *contractstest.Actor) *Contract {
	t.Helper()
	chain, err := evm.NewResolver(nil).Resolve(evm.ChainIDBaseSepolia)
	require.NoError(t, err)
	c, err := New(actor, chain)
	require.NoError(t, err)
	return c
}

func validProposal() ProposeShowInput {
	return ProposeShowInput{
		Name:             "Night One",
		Description:      "Two sets and an encore",
		Artists:          []string{artist},
		Coordinates:      &CoordinatesInput{Latitude: "40712776", Longitude: "-74005974"},
		Radius:           "25",
		SellOutThreshold: 80,
		TotalCapacity:    "500",
		TicketPrice:      &PriceInput{Min: "10000000000000000", Max: "50000000000000000"},
		Split:            []string{"50", "30", "20"},
	}
}

func TestGetShowStatus(t *testing.T) {
	actor := contractstest.NewActor().Returns("getShowStatus", uint8(Upcoming))
	c := newContract(t, actor)

	status, err := c.GetShowStatus(context.Background(), showID)
	require.NoError(t, err)
	require.Equal(t, Upcoming, status)
	require.Equal(t, "upcoming", status.String())

	req := actor.LastRead()
	require.Equal(t, c.Address, req.To)
	id := req.Args[0].([32]byte)
	require.Equal(t, common.FromHex("0x8f3c1a"), id[29:])
}

func TestStatusString(t *testing.T) {
	require.Equal(t, "expired", Expired.String())
	require.Equal(t, "unknown(9)", Status(9).String())
	text, err := Cancelled.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "cancelled", string(text))
}

func TestReads(t *testing.T) {
	organizer := common.HexToAddress("0x00000000000000000000000000000000000000e0")
	ticketProxy := common.HexToAddress("0x00000000000000000000000000000000000000c1")
	actor := contractstest.NewActor().
		Returns("getOrganizer", organizer).
		Returns("isOrganizer", true).
		Returns("isArtist", false).
		Returns("getSellOutThreshold", big.NewInt(80)).
		Returns("getTotalCapacity", big.NewInt(500)).
		Returns("getTotalTicketsSold", big.NewInt(120)).
		Returns("getTicketPrice", big.NewInt(1), big.NewInt(5)).
		Returns("getTicketProxy", ticketProxy).
		Returns("getVaultProxy", common.Address{})
	c := newContract(t, actor)
	ctx := context.Background()

	got, err := c.GetOrganizer(ctx, showID)
	require.NoError(t, err)
	require.Equal(t, organizer, got)

	ok, err := c.IsOrganizer(ctx, showID, organizer.Hex())
	require.NoError(t, err)
	require.True(t, ok)
	// the contract takes the user first
	require.Equal(t, organizer, actor.LastRead().Args[0])

	ok, err = c.IsArtist(ctx, showID, artist)
	require.NoError(t, err)
	require.False(t, ok)

	threshold, err := c.GetSellOutThreshold(ctx, showID)
	require.NoError(t, err)
	require.Equal(t, int64(80), threshold.Int64())

	capacity, err := c.GetTotalCapacity(ctx, showID)
	require.NoError(t, err)
	require.Equal(t, int64(500), capacity.Int64())

	sold, err := c.GetTotalTicketsSold(ctx, showID)
	require.NoError(t, err)
	require.Equal(t, int64(120), sold.Int64())

	prices, err := c.GetTicketPrice(ctx, showID)
	require.NoError(t, err)
	require.Equal(t, int64(1), prices.MinPrice.Int64())
	require.Equal(t, int64(5), prices.MaxPrice.Int64())

	proxy, err := c.GetTicketProxy(ctx, showID)
	require.NoError(t, err)
	require.Equal(t, ticketProxy, proxy)

	vault, err := c.GetVaultProxy(ctx, showID)
	require.NoError(t, err)
	require.Equal(t, common.Address{}, vault)
}

func TestReadFailureIsReadError(t *testing.T) {
	actor := contractstest.NewActor().Fails("getOrganizer", errors.New("connection refused"))
	c := newContract(t, actor)

	_, err := c.GetOrganizer(context.Background(), showID)
	require.ErrorIs(t, err, sellout.ErrRead)
}

func TestProposeShow(t *testing.T) {
	actor := contractstest.NewActor()
	c := newContract(t, actor)

	res, err := c.ProposeShow(context.Background(), validProposal())
	require.NoError(t, err)
	require.Equal(t, sellout.StatusSuccess, res.Receipt.Status)

	req := actor.LastExecuted()
	require.Equal(t, "proposeShow", req.Method)
	require.Equal(t, []common.Address{common.HexToAddress(artist)}, req.Args[2])
	coords := req.Args[3].(Coordinates)
	require.Equal(t, int64(-74005974), coords.Longitude.Int64())
	require.Equal(t, uint8(80), req.Args[5])
	require.Len(t, req.Args[8], 3)
	require.Equal(t, common.Address{}, req.Args[9])
}

func TestProposeShowValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *ProposeShowInput)
		field  string
	}{
		{"missing name", func(in *ProposeShowInput) { in.Name = "" }, "name"},
		{"no artists", func(in *ProposeShowInput) { in.Artists = nil }, "artists"},
		{"bad artist", func(in *ProposeShowInput) { in.Artists = []string{artist, "0x12"} }, "artists.1"},
		{"missing coordinates", func(in *ProposeShowInput) { in.Coordinates = nil }, "coordinates"},
		{"bad longitude", func(in *ProposeShowInput) { in.Coordinates.Longitude = "west" }, "coordinates.longitude"},
		{"threshold too high", func(in *ProposeShowInput) { in.SellOutThreshold = 101 }, "sellOutThreshold"},
		{"missing max price", func(in *ProposeShowInput) { in.TicketPrice = &PriceInput{Min: "1"} }, "ticketPrice.max"},
		{"split of two", func(in *ProposeShowInput) { in.Split = []string{"50", "50"} }, "split"},
		{"bad payment token", func(in *ProposeShowInput) { in.PaymentToken = "usdc" }, "paymentToken"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor := contractstest.NewActor()
			c := newContract(t, actor)

			in := validProposal()
			tt.mutate(&in)
			_, err := c.ProposeShow(context.Background(), in)

			var verr *sellout.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			require.Equal(t, "show.proposeShow", verr.Operation)
			require.Equal(t, tt.field, verr.Field)
			require.Zero(t, actor.Calls())
		})
	}
}

func TestTransitions(t *testing.T) {
	tests := []struct {
		name   string
		call   func(c *Contract, ctx context.Context, showID string) (*sellout.MutationResult, error)
		method string
	}{
		{"cancel", (*Contract).CancelShow, "cancelShow"},
		{"complete", (*Contract).CompleteShow, "completeShow"},
		{"expire", (*Contract).ExpireShow, "updateExpiredStatus"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor := contractstest.NewActor()
			c := newContract(t, actor)

			res, err := tt.call(c, context.Background(), showID)
			require.NoError(t, err)
			require.NotEmpty(t, res.Hash)
			require.Equal(t, tt.method, actor.LastExecuted().Method)

			before := actor.Calls()
			_, err = tt.call(c, context.Background(), "")
			require.ErrorIs(t, err, sellout.ErrValidation)
			require.Equal(t, before, actor.Calls())
		})
	}
}

func TestRevertedTransitionIsAResult(t *testing.T) {
	actor := contractstest.NewActor().Reverts()
	c := newContract(t, actor)

	res, err := c.CancelShow(context.Background(), showID)
	require.NoError(t, err)
	require.Equal(t, sellout.StatusReverted, res.Receipt.Status)
}

func TestSimulationRejection(t *testing.T) {
	actor := contractstest.NewActor().Fails("completeShow", errors.New("InvalidStatus(0)"))
	c := newContract(t, actor)

	_, err := c.CompleteShow(context.Background(), showID)
	var execErr *sellout.ExecutionError
	require.True(t, errors.As(err, &execErr))
	require.Equal(t, sellout.StageSimulate, execErr.Stage)
	require.Equal(t, "InvalidStatus(0)", execErr.Reason)
	require.Empty(t, actor.Executed)
}

func TestOperationsValidateBeforeCalling(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		call func(c *Contract) error
	}{
		{"getShowStatus", func(c *Contract) error { _, err := c.GetShowStatus(ctx, ""); return err }},
		{"getOrganizer", func(c *Contract) error { _, err := c.GetOrganizer(ctx, ""); return err }},
		{"isOrganizer", func(c *Contract) error { _, err := c.IsOrganizer(ctx, "", ""); return err }},
		{"isArtist", func(c *Contract) error { _, err := c.IsArtist(ctx, "", ""); return err }},
		{"getSellOutThreshold", func(c *Contract) error { _, err := c.GetSellOutThreshold(ctx, ""); return err }},
		{"getTotalCapacity", func(c *Contract) error { _, err := c.GetTotalCapacity(ctx, ""); return err }},
		{"getTotalTicketsSold", func(c *Contract) error { _, err := c.GetTotalTicketsSold(ctx, ""); return err }},
		{"getTicketPrice", func(c *Contract) error { _, err := c.GetTicketPrice(ctx, ""); return err }},
		{"getTicketProxy", func(c *Contract) error { _, err := c.GetTicketProxy(ctx, ""); return err }},
		{"getVaultProxy", func(c *Contract) error { _, err := c.GetVaultProxy(ctx, ""); return err }},
		{"proposeShow", func(c *Contract) error { _, err := c.ProposeShow(ctx, ProposeShowInput{}); return err }},
		{"cancelShow", func(c *Contract) error { _, err := c.CancelShow(ctx, ""); return err }},
		{"completeShow", func(c *Contract) error { _, err := c.CompleteShow(ctx, ""); return err }},
		{"expireShow", func(c *Contract) error { _, err := c.ExpireShow(ctx, ""); return err }},
		{"short show id read", func(c *Contract) error { _, err := c.GetShowStatus(ctx, "0x8f3c1a"); return err }},
		{"short show id write", func(c *Contract) error { _, err := c.CancelShow(ctx, "0x8f3c1a"); return err }},
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
