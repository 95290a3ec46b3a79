/*
Package ticket provides a wrapper for a show's ticket proxy, an ERC-1155
token where each id is one ticket.

The proxy differs per show, so the wrapper is built on a caller-supplied
address (see show.ContractReader.GetTicketProxy).
*/
package ticket

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	sellout "github.com/sellout-xyz/sellout/go"
	"github.com/sellout-xyz/sellout/go/contracts"
	"github.com/sellout-xyz/sellout/go/contracts/unwrap"
	"github.com/sellout-xyz/sellout/go/evm/abis"
	"github.com/sellout-xyz/sellout/go/validation"
)

// ContractReader represents safe methods of a ticket proxy
type ContractReader struct {
	contracts.Binding

	invoker contracts.Invoker
}

// Contract provides the full ticket proxy interface
type Contract struct {
	ContractReader

	actor contracts.Actor
}

// NewReader creates a ContractReader for the ticket proxy at proxy
func NewReader(invoker contracts.Invoker, proxy string) (*ContractReader, error) {
	b, err := contracts.BindProxy(proxy, abis.Ticket())
	if err != nil {
		return nil, err
	}
	return &ContractReader{Binding: b, invoker: invoker}, nil
}

// New creates a Contract for the ticket proxy at proxy
func New(actor contracts.Actor, proxy string) (*Contract, error) {
	r, err := NewReader(actor, proxy)
	if err != nil {
		return nil, err
	}
	return &Contract{ContractReader: *r, actor: actor}, nil
}

// BalanceInput is the input of BalanceOf
type BalanceInput struct {
	Account string `json:"account,omitempty"`
	ID      string `json:"id,omitempty"`
}

// BalanceOf returns how many of token id account holds
func (c *ContractReader) BalanceOf(ctx context.Context, in BalanceInput) (*big.Int, error) {
	var (
		account common.Address
		id      *big.Int
	)
	err := contracts.Prepare("ticket.balanceOf", in, func(co *validation.Coercer) {
		account = co.Address("account", in.Account)
		id = co.BigInt("id", in.ID)
	})
	if err != nil {
		return nil, err
	}
	return unwrap.BigInt(c.invoker.Read(ctx, c.Request("balanceOf", account, id)))
}

// OwnerInput is the input of IsTicketOwner
type OwnerInput struct {
	Owner    string `json:"owner,omitempty"`
	ShowID   string `json:"showId,omitempty"`
	TicketID string `json:"ticketId,omitempty"`
}

// IsTicketOwner reports whether owner holds ticketID of the show
func (c *ContractReader) IsTicketOwner(ctx context.Context, in OwnerInput) (bool, error) {
	var (
		owner    common.Address
		showID   [32]byte
		ticketID *big.Int
	)
	err := contracts.Prepare("ticket.isTicketOwner", in, func(co *validation.Coercer) {
		owner = co.Address("owner", in.Owner)
		showID = co.Bytes32("showId", in.ShowID)
		ticketID = co.BigInt("ticketId", in.TicketID)
	})
	if err != nil {
		return false, err
	}
	return unwrap.Bool(c.invoker.Read(ctx, c.Request("isTicketOwner", owner, showID, ticketID)))
}

// TicketShowID returns the show a ticket belongs to
func (c *ContractReader) TicketShowID(ctx context.Context, ticketID string) ([32]byte, error) {
	input := struct {
		TicketID string `json:"ticketId,omitempty"`
	}{ticketID}

	var id *big.Int
	err := contracts.Prepare("ticket.ticketShowId", input, func(co *validation.Coercer) {
		id = co.BigInt("ticketId", ticketID)
	})
	if err != nil {
		return [32]byte{}, err
	}
	return unwrap.Bytes32(c.invoker.Read(ctx, c.Request("ticketIdToShowId", id)))
}

// URI returns the metadata URI of token id
func (c *ContractReader) URI(ctx context.Context, id string) (string, error) {
	input := struct {
		ID string `json:"id,omitempty"`
	}{id}

	var tokenID *big.Int
	err := contracts.Prepare("ticket.uri", input, func(co *validation.Coercer) {
		tokenID = co.BigInt("id", id)
	})
	if err != nil {
		return "", err
	}
	return unwrap.String(c.invoker.Read(ctx, c.Request("uri", tokenID)))
}

// PricePaidInput is the input of GetTicketPricePaid
type PricePaidInput struct {
	ShowID   string `json:"showId,omitempty"`
	TicketID string `json:"ticketId,omitempty"`
}

// GetTicketPricePaid returns what the ticket was bought for, the amount a
// refund returns
func (c *ContractReader) GetTicketPricePaid(ctx context.Context, in PricePaidInput) (*big.Int, error) {
	var (
		showID   [32]byte
		ticketID *big.Int
	)
	err := contracts.Prepare("ticket.getTicketPricePaid", in, func(co *validation.Coercer) {
		showID = co.Bytes32("showId", in.ShowID)
		ticketID = co.BigInt("ticketId", in.TicketID)
	})
	if err != nil {
		return nil, err
	}
	return unwrap.BigInt(c.invoker.Read(ctx, c.Request("getTicketPricePaid", showID, ticketID)))
}

// TransferInput moves Amount of token ID from From to To. Data is passed to
// the receiver hook and may be empty.
type TransferInput struct {
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	ID     string `json:"id,omitempty"`
	Amount string `json:"amount,omitempty"`
	Data   string `json:"data,omitempty"`
}

// SafeTransferFrom transfers tickets. The sender must own them or be an
// approved operator.
func (c *Contract) SafeTransferFrom(ctx context.Context, in TransferInput) (*sellout.MutationResult, error) {
	var args []interface{}
	err := contracts.Prepare("ticket.safeTransferFrom", in, func(co *validation.Coercer) {
		args = []interface{}{
			co.Address("from", in.From),
			co.Address("to", in.To),
			co.BigInt("id", in.ID),
			co.BigInt("amount", in.Amount),
			co.Bytes("data", in.Data),
		}
	})
	if err != nil {
		return nil, err
	}
	return contracts.Mutate(ctx, c.actor, c.Request("safeTransferFrom", args...))
}

// ApprovalInput is the input of SetApprovalForAll
type ApprovalInput struct {
	Operator string `json:"operator,omitempty"`
	Approved bool   `json:"approved,omitempty"`
}

// SetApprovalForAll lets operator move all of the sender's tickets, or
// revokes it
func (c *Contract) SetApprovalForAll(ctx context.Context, in ApprovalInput) (*sellout.MutationResult, error) {
	var operator common.Address
	err := contracts.Prepare("ticket.setApprovalForAll", in, func(co *validation.Coercer) {
		operator = co.Address("operator", in.Operator)
	})
	if err != nil {
		return nil, err
	}
	return contracts.Mutate(ctx, c.actor, c.Request("setApprovalForAll", operator, in.Approved))
}

// SetURI replaces the metadata URI template
func (c *Contract) SetURI(ctx context.Context, uri string) (*sellout.MutationResult, error) {
	input := struct {
		URI string `json:"uri,omitempty"`
	}{uri}

	if err := contracts.Prepare("ticket.setURI", input, nil); err != nil {
		return nil, err
	}
	return contracts.Mutate(ctx, c.actor, c.Request("setURI", uri))
}
