/*
Package boxoffice provides a wrapper for the BoxOffice contract: ticket sales,
refunds and payouts to the show's payees.
*/
package boxoffice

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	sellout "github.com/sellout-xyz/sellout/go"
	"github.com/sellout-xyz/sellout/go/contracts"
	"github.com/sellout-xyz/sellout/go/contracts/unwrap"
	"github.com/sellout-xyz/sellout/go/evm"
	"github.com/sellout-xyz/sellout/go/evm/abis"
	"github.com/sellout-xyz/sellout/go/validation"
)

// ContractReader represents safe methods of BoxOffice
type ContractReader struct {
	contracts.Binding

	invoker contracts.Invoker
}

// Contract provides the full BoxOffice interface
type Contract struct {
	ContractReader

	actor contracts.Actor
}

// NewReader creates a ContractReader for the BoxOffice deployment on chain
func NewReader(invoker contracts.Invoker, chain *evm.ChainContext) (*ContractReader, error) {
	b, err := contracts.Bind(chain, evm.ContractBoxOffice, abis.BoxOffice())
	if err != nil {
		return nil, err
	}
	return &ContractReader{Binding: b, invoker: invoker}, nil
}

// New creates a Contract for the BoxOffice deployment on chain
func New(actor contracts.Actor, chain *evm.ChainContext) (*Contract, error) {
	r, err := NewReader(actor, chain)
	if err != nil {
		return nil, err
	}
	return &Contract{ContractReader: *r, actor: actor}, nil
}

// PriceInput is the input of CalculateTotalPrice
type PriceInput struct {
	TicketPrice string `json:"ticketPrice,omitempty"`
	Amount      string `json:"amount,omitempty"`
}

// CalculateTotalPrice returns what amount tickets at ticketPrice cost,
// fees included
func (c *ContractReader) CalculateTotalPrice(ctx context.Context, in PriceInput) (*big.Int, error) {
	var price, amount *big.Int
	err := contracts.Prepare("boxoffice.calculateTotalPrice", in, func(co *validation.Coercer) {
		price = co.BigInt("ticketPrice", in.TicketPrice)
		amount = co.BigInt("amount", in.Amount)
	})
	if err != nil {
		return nil, err
	}
	return c.totalPrice(ctx, price, amount)
}

func (c *ContractReader) totalPrice(ctx context.Context, price, amount *big.Int) (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Read(ctx, c.Request("calculateTotalPrice", price, amount)))
}

// PayoutInput is the input of GetPendingPayout
type PayoutInput struct {
	ShowID string `json:"showId,omitempty"`
	Payee  string `json:"payee,omitempty"`
}

// GetPendingPayout returns what payee can claim from the show
func (c *ContractReader) GetPendingPayout(ctx context.Context, in PayoutInput) (*big.Int, error) {
	var (
		id    [32]byte
		payee common.Address
	)
	err := contracts.Prepare("boxoffice.getPendingPayout", in, func(co *validation.Coercer) {
		id = co.Bytes32("showId", in.ShowID)
		payee = co.Address("payee", in.Payee)
	})
	if err != nil {
		return nil, err
	}
	return unwrap.BigInt(c.invoker.Read(ctx, c.Request("getPendingPayout", id, payee)))
}

// TicketInput identifies one ticket of a show
type TicketInput struct {
	ShowID   string `json:"showId,omitempty"`
	TicketID string `json:"ticketId,omitempty"`
}

func (in TicketInput) prepare(operation string) ([32]byte, *big.Int, error) {
	var (
		id       [32]byte
		ticketID *big.Int
	)
	err := contracts.Prepare(operation, in, func(co *validation.Coercer) {
		id = co.Bytes32("showId", in.ShowID)
		ticketID = co.BigInt("ticketId", in.TicketID)
	})
	return id, ticketID, err
}

// IsRefundable reports whether a ticket can be refunded now
func (c *ContractReader) IsRefundable(ctx context.Context, in TicketInput) (bool, error) {
	id, ticketID, err := in.prepare("boxoffice.isRefundable")
	if err != nil {
		return false, err
	}
	return unwrap.Bool(c.invoker.Read(ctx, c.Request("isRefundable", id, ticketID)))
}

// PurchaseInput buys Amount tickets at TicketPrice. Value is the native
// amount to attach; when empty it is read from CalculateTotalPrice. An empty
// Referrer means no referral.
type PurchaseInput struct {
	ShowID      string `json:"showId,omitempty"`
	TicketPrice string `json:"ticketPrice,omitempty"`
	Amount      string `json:"amount,omitempty"`
	Referrer    string `json:"referrer,omitempty"`
	Value       string `json:"value,omitempty"`
}

// PurchaseTickets buys tickets for the sender
func (c *Contract) PurchaseTickets(ctx context.Context, in PurchaseInput) (*sellout.MutationResult, error) {
	var (
		id       [32]byte
		price    *big.Int
		amount   *big.Int
		referrer common.Address
		value    *big.Int
	)
	err := contracts.Prepare("boxoffice.purchaseTickets", in, func(co *validation.Coercer) {
		id = co.Bytes32("showId", in.ShowID)
		price = co.BigInt("ticketPrice", in.TicketPrice)
		amount = co.BigInt("amount", in.Amount)
		referrer = co.OptionalAddress("referrer", in.Referrer)
		value = co.OptionalBigInt("value", in.Value)
	})
	if err != nil {
		return nil, err
	}

	if value == nil {
		value, err = c.totalPrice(ctx, price, amount)
		if err != nil {
			return nil, err
		}
	}

	req := c.Request("purchaseTickets", id, price, amount, referrer).WithValue(value)
	return contracts.Mutate(ctx, c.actor, req)
}

// RefundTicket refunds a ticket of a cancelled or expired show to its owner
func (c *Contract) RefundTicket(ctx context.Context, in TicketInput) (*sellout.MutationResult, error) {
	id, ticketID, err := in.prepare("boxoffice.refundTicket")
	if err != nil {
		return nil, err
	}
	return contracts.Mutate(ctx, c.actor, c.Request("refundTicket", id, ticketID))
}

// ClaimPayout pays the sender's share of a completed show
func (c *Contract) ClaimPayout(ctx context.Context, showID string) (*sellout.MutationResult, error) {
	id, err := contracts.PrepareShowID("boxoffice.claimPayout", showID)
	if err != nil {
		return nil, err
	}
	return contracts.Mutate(ctx, c.actor, c.Request("claimPayout", id))
}
