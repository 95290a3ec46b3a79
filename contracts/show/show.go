/*
Package show provides a wrapper for the Show contract, which owns the
lifecycle of a show from proposal through completion, cancellation or expiry.

Safe methods are encapsulated into ContractReader structure while Contract
provides the state-changing ones.
*/
package show

import (
	"context"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	sellout "github.com/sellout-xyz/sellout/go"
	"github.com/sellout-xyz/sellout/go/contracts"
	"github.com/sellout-xyz/sellout/go/contracts/unwrap"
	"github.com/sellout-xyz/sellout/go/evm"
	"github.com/sellout-xyz/sellout/go/evm/abis"
	"github.com/sellout-xyz/sellout/go/validation"
)

// Status is the lifecycle state of a show
type Status uint8

// Show states in contract order
const (
	Proposed Status = iota
	Upcoming
	Cancelled
	Completed
	Refunded
	Expired
)

var statusNames = [...]string{"proposed", "upcoming", "cancelled", "completed", "refunded", "expired"}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown(" + strconv.Itoa(int(s)) + ")"
}

// MarshalText implements encoding.TextMarshaler
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Coordinates is the location tuple of a show, in fixed point degrees
type Coordinates struct {
	Latitude  *big.Int
	Longitude *big.Int
}

// PriceRange is the ticket price tuple of a show
type PriceRange struct {
	MinPrice *big.Int
	MaxPrice *big.Int
}

// ContractReader represents safe (read-only) methods of Show
type ContractReader struct {
	contracts.Binding

	invoker contracts.Invoker
}

// Contract provides the full Show interface, both safe and state-changing
// methods
type Contract struct {
	ContractReader

	actor contracts.Actor
}

// NewReader creates a ContractReader for the Show deployment on chain
func NewReader(invoker contracts.Invoker, chain *evm.ChainContext) (*ContractReader, error) {
	b, err := contracts.Bind(chain, evm.ContractShow, abis.Show())
	if err != nil {
		return nil, err
	}
	return &ContractReader{Binding: b, invoker: invoker}, nil
}

// New creates a Contract for the Show deployment on chain
func New(actor contracts.Actor, chain *evm.ChainContext) (*Contract, error) {
	r, err := NewReader(actor, chain)
	if err != nil {
		return nil, err
	}
	return &Contract{ContractReader: *r, actor: actor}, nil
}

// UserInput is the input of per-user role checks
type UserInput struct {
	ShowID string `json:"showId,omitempty"`
	User   string `json:"user,omitempty"`
}

// GetShowStatus returns the lifecycle state of a show
func (c *ContractReader) GetShowStatus(ctx context.Context, showID string) (Status, error) {
	id, err := contracts.PrepareShowID("show.getShowStatus", showID)
	if err != nil {
		return 0, err
	}
	status, err := unwrap.Uint8(c.invoker.Read(ctx, c.Request("getShowStatus", id)))
	return Status(status), err
}

// GetOrganizer returns the organizer of a show
func (c *ContractReader) GetOrganizer(ctx context.Context, showID string) (common.Address, error) {
	id, err := contracts.PrepareShowID("show.getOrganizer", showID)
	if err != nil {
		return common.Address{}, err
	}
	return unwrap.Address(c.invoker.Read(ctx, c.Request("getOrganizer", id)))
}

// IsOrganizer reports whether user organizes the show
func (c *ContractReader) IsOrganizer(ctx context.Context, showID, user string) (bool, error) {
	return c.userCheck(ctx, "show.isOrganizer", "isOrganizer", UserInput{ShowID: showID, User: user})
}

// IsArtist reports whether user performs at the show
func (c *ContractReader) IsArtist(ctx context.Context, showID, user string) (bool, error) {
	return c.userCheck(ctx, "show.isArtist", "isArtist", UserInput{ShowID: showID, User: user})
}

func (c *ContractReader) userCheck(ctx context.Context, operation, method string, in UserInput) (bool, error) {
	var (
		id   [32]byte
		user common.Address
	)
	err := contracts.Prepare(operation, in, func(co *validation.Coercer) {
		id = co.Bytes32("showId", in.ShowID)
		user = co.Address("user", in.User)
	})
	if err != nil {
		return false, err
	}
	return unwrap.Bool(c.invoker.Read(ctx, c.Request(method, user, id)))
}

// GetSellOutThreshold returns the percentage of capacity that must sell for
// the show to go ahead
func (c *ContractReader) GetSellOutThreshold(ctx context.Context, showID string) (*big.Int, error) {
	return c.bigIntOf(ctx, "show.getSellOutThreshold", "getSellOutThreshold", showID)
}

// GetTotalCapacity returns the number of tickets the show can sell
func (c *ContractReader) GetTotalCapacity(ctx context.Context, showID string) (*big.Int, error) {
	return c.bigIntOf(ctx, "show.getTotalCapacity", "getTotalCapacity", showID)
}

// GetTotalTicketsSold returns the number of tickets sold so far
func (c *ContractReader) GetTotalTicketsSold(ctx context.Context, showID string) (*big.Int, error) {
	return c.bigIntOf(ctx, "show.getTotalTicketsSold", "getTotalTicketsSold", showID)
}

func (c *ContractReader) bigIntOf(ctx context.Context, operation, method, showID string) (*big.Int, error) {
	id, err := contracts.PrepareShowID(operation, showID)
	if err != nil {
		return nil, err
	}
	return unwrap.BigInt(c.invoker.Read(ctx, c.Request(method, id)))
}

// GetTicketPrice returns the allowed ticket price range
func (c *ContractReader) GetTicketPrice(ctx context.Context, showID string) (*PriceRange, error) {
	id, err := contracts.PrepareShowID("show.getTicketPrice", showID)
	if err != nil {
		return nil, err
	}
	raw, rerr := c.invoker.Read(ctx, c.Request("getTicketPrice", id))
	prices, err := unwrap.BigInts(raw, rerr, 2)
	if err != nil {
		return nil, err
	}
	return &PriceRange{MinPrice: prices[0], MaxPrice: prices[1]}, nil
}

// GetTicketProxy returns the show's ticket proxy, the address to build a
// ticket.Contract on
func (c *ContractReader) GetTicketProxy(ctx context.Context, showID string) (common.Address, error) {
	id, err := contracts.PrepareShowID("show.getTicketProxy", showID)
	if err != nil {
		return common.Address{}, err
	}
	return unwrap.Address(c.invoker.Read(ctx, c.Request("getTicketProxy", id)))
}

// GetVaultProxy returns the show's vault proxy, the address to build a
// vault.Contract on
func (c *ContractReader) GetVaultProxy(ctx context.Context, showID string) (common.Address, error) {
	id, err := contracts.PrepareShowID("show.getVaultProxy", showID)
	if err != nil {
		return common.Address{}, err
	}
	return unwrap.Address(c.invoker.Read(ctx, c.Request("getVaultProxy", id)))
}

// CoordinatesInput is the location of a proposed show
type CoordinatesInput struct {
	Latitude  string `json:"latitude,omitempty"`
	Longitude string `json:"longitude,omitempty"`
}

// PriceInput is the ticket price range of a proposed show
type PriceInput struct {
	Min string `json:"min,omitempty"`
	Max string `json:"max,omitempty"`
}

// ProposeShowInput describes a new show. Split holds the artist, organizer
// and venue shares of revenue. An empty PaymentToken means the native
// currency.
type ProposeShowInput struct {
	Name             string            `json:"name,omitempty"`
	Description      string            `json:"description,omitempty"`
	Artists          []string          `json:"artists,omitempty"`
	Coordinates      *CoordinatesInput `json:"coordinates,omitempty"`
	Radius           string            `json:"radius,omitempty"`
	SellOutThreshold int               `json:"sellOutThreshold,omitempty"`
	TotalCapacity    string            `json:"totalCapacity,omitempty"`
	TicketPrice      *PriceInput       `json:"ticketPrice,omitempty"`
	Split            []string          `json:"split,omitempty"`
	PaymentToken     string            `json:"paymentToken,omitempty"`
}

// ProposeShow proposes a new show organized by the sender
func (c *Contract) ProposeShow(ctx context.Context, in ProposeShowInput) (*sellout.MutationResult, error) {
	var args []interface{}
	err := contracts.Prepare("show.proposeShow", in, func(co *validation.Coercer) {
		args = []interface{}{
			in.Name,
			in.Description,
			co.Addresses("artists", in.Artists),
			Coordinates{
				Latitude:  co.SignedBigInt("coordinates.latitude", in.Coordinates.Latitude),
				Longitude: co.SignedBigInt("coordinates.longitude", in.Coordinates.Longitude),
			},
			co.BigInt("radius", in.Radius),
			co.Uint8("sellOutThreshold", in.SellOutThreshold),
			co.BigInt("totalCapacity", in.TotalCapacity),
			PriceRange{
				MinPrice: co.BigInt("ticketPrice.min", in.TicketPrice.Min),
				MaxPrice: co.BigInt("ticketPrice.max", in.TicketPrice.Max),
			},
			co.BigInts("split", in.Split),
			co.OptionalAddress("paymentToken", in.PaymentToken),
		}
	})
	if err != nil {
		return nil, err
	}
	return contracts.Mutate(ctx, c.actor, c.Request("proposeShow", args...))
}

// CancelShow cancels a show, opening refunds
func (c *Contract) CancelShow(ctx context.Context, showID string) (*sellout.MutationResult, error) {
	return c.transition(ctx, "show.cancelShow", "cancelShow", showID)
}

// CompleteShow marks a show as performed, releasing payouts
func (c *Contract) CompleteShow(ctx context.Context, showID string) (*sellout.MutationResult, error) {
	return c.transition(ctx, "show.completeShow", "completeShow", showID)
}

// ExpireShow moves a show past its sell-out deadline to Expired
func (c *Contract) ExpireShow(ctx context.Context, showID string) (*sellout.MutationResult, error) {
	return c.transition(ctx, "show.expireShow", "updateExpiredStatus", showID)
}

func (c *Contract) transition(ctx context.Context, operation, method, showID string) (*sellout.MutationResult, error) {
	id, err := contracts.PrepareShowID(operation, showID)
	if err != nil {
		return nil, err
	}
	return contracts.Mutate(ctx, c.actor, c.Request(method, id))
}
