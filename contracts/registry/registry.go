/*
Package registry provides a wrapper for the three role registries (artists,
organizers and venues). They share one nomination flow: a registered member
nominates an account, which then accepts with its public profile.

The registries differ only in contract and in the role-specific function
names, so one wrapper serves all of them, parametrized by Role.
*/
package registry

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	sellout "github.com/sellout-xyz/sellout/go"
	"github.com/sellout-xyz/sellout/go/contracts"
	"github.com/sellout-xyz/sellout/go/contracts/unwrap"
	"github.com/sellout-xyz/sellout/go/evm"
	"github.com/sellout-xyz/sellout/go/evm/abis"
	"github.com/sellout-xyz/sellout/go/validation"
)

// Role selects a registry
type Role string

// Registry roles
const (
	Artist    Role = "Artist"
	Organizer Role = "Organizer"
	Venue     Role = "Venue"
)

// Roles lists every role
var Roles = []Role{Artist, Organizer, Venue}

// Contract returns the logical contract name of the role's registry
func (r Role) Contract() evm.ContractName {
	return evm.ContractName(string(r) + "Registry")
}

func (r Role) abi() (*abi.ABI, error) {
	switch r {
	case Artist:
		return abis.ArtistRegistry(), nil
	case Organizer:
		return abis.OrganizerRegistry(), nil
	case Venue:
		return abis.VenueRegistry(), nil
	default:
		return nil, fmt.Errorf("unknown registry role %q", string(r))
	}
}

func (r Role) getter() string       { return "get" + string(r) }
func (r Role) registered() string   { return "is" + string(r) + "Registered" }
func (r Role) updater() string      { return "update" + string(r) }
func (r Role) deregisterer() string { return "deregister" + string(r) }

// Profile is a registered member
type Profile struct {
	Wallet    common.Address `json:"wallet"`
	Name      string         `json:"name"`
	Biography string         `json:"biography"`
	Payout    *big.Int       `json:"payout"`
}

// ContractReader represents safe methods of a role registry
type ContractReader struct {
	contracts.Binding

	role    Role
	invoker contracts.Invoker
}

// Contract provides the full role registry interface
type Contract struct {
	ContractReader

	actor contracts.Actor
}

// NewReader creates a ContractReader for the registry of role on chain
func NewReader(invoker contracts.Invoker, chain *evm.ChainContext, role Role) (*ContractReader, error) {
	contractABI, err := role.abi()
	if err != nil {
		return nil, err
	}
	b, err := contracts.Bind(chain, role.Contract(), contractABI)
	if err != nil {
		return nil, err
	}
	return &ContractReader{Binding: b, role: role, invoker: invoker}, nil
}

// New creates a Contract for the registry of role on chain
func New(actor contracts.Actor, chain *evm.ChainContext, role Role) (*Contract, error) {
	r, err := NewReader(actor, chain, role)
	if err != nil {
		return nil, err
	}
	return &Contract{ContractReader: *r, actor: actor}, nil
}

// Role returns the registry's role
func (c *ContractReader) Role() Role {
	return c.role
}

func (c *ContractReader) account(operation, account string) (common.Address, error) {
	input := struct {
		Account string `json:"account,omitempty"`
	}{account}

	var addr common.Address
	err := contracts.Prepare(operation, input, func(co *validation.Coercer) {
		addr = co.Address("account", account)
	})
	return addr, err
}

// GetProfile returns the registered profile of account. An unregistered
// account yields a zero profile.
func (c *ContractReader) GetProfile(ctx context.Context, account string) (*Profile, error) {
	addr, err := c.account("registry.getProfile", account)
	if err != nil {
		return nil, err
	}
	return unwrap.Tuple[Profile](c.invoker.Read(ctx, c.Request(c.role.getter(), addr)))
}

// IsRegistered reports whether account holds the role
func (c *ContractReader) IsRegistered(ctx context.Context, account string) (bool, error) {
	addr, err := c.account("registry.isRegistered", account)
	if err != nil {
		return false, err
	}
	return unwrap.Bool(c.invoker.Read(ctx, c.Request(c.role.registered(), addr)))
}

// IsNominated reports whether account has a pending nomination
func (c *ContractReader) IsNominated(ctx context.Context, account string) (bool, error) {
	addr, err := c.account("registry.isNominated", account)
	if err != nil {
		return false, err
	}
	return unwrap.Bool(c.invoker.Read(ctx, c.Request("isNominated", addr)))
}

// Nominate nominates nominee for the role. The sender must hold it.
func (c *Contract) Nominate(ctx context.Context, nominee string) (*sellout.MutationResult, error) {
	input := struct {
		Nominee string `json:"nominee,omitempty"`
	}{nominee}

	var addr common.Address
	err := contracts.Prepare("registry.nominate", input, func(co *validation.Coercer) {
		addr = co.Address("nominee", nominee)
	})
	if err != nil {
		return nil, err
	}
	return contracts.Mutate(ctx, c.actor, c.Request("nominate", addr))
}

// ProfileInput is the public profile a member registers with
type ProfileInput struct {
	Name      string `json:"name,omitempty"`
	Biography string `json:"biography,omitempty"`
}

// AcceptNomination registers the nominated sender with a profile
func (c *Contract) AcceptNomination(ctx context.Context, in ProfileInput) (*sellout.MutationResult, error) {
	if err := contracts.Prepare("registry.acceptNomination", in, nil); err != nil {
		return nil, err
	}
	return contracts.Mutate(ctx, c.actor, c.Request("acceptNomination", in.Name, in.Biography))
}

// Update replaces the sender's profile
func (c *Contract) Update(ctx context.Context, in ProfileInput) (*sellout.MutationResult, error) {
	if err := contracts.Prepare("registry.update", in, nil); err != nil {
		return nil, err
	}
	return contracts.Mutate(ctx, c.actor, c.Request(c.role.updater(), in.Name, in.Biography))
}

// Deregister gives up the sender's role
func (c *Contract) Deregister(ctx context.Context) (*sellout.MutationResult, error) {
	return contracts.Mutate(ctx, c.actor, c.Request(c.role.deregisterer()))
}
