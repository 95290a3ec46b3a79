/*
Package referral provides a wrapper for the ReferralModule contract, which
tracks the referral credits an account earns per role. Only accounts with
credit control may change credits.
*/
package referral

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

// Credits are the referral credits of one account
type Credits struct {
	Artist    *big.Int `json:"artist"`
	Organizer *big.Int `json:"organizer"`
	Venue     *big.Int `json:"venue"`
}

// ContractReader represents safe methods of ReferralModule
type ContractReader struct {
	contracts.Binding

	invoker contracts.Invoker
}

// Contract provides the full ReferralModule interface
type Contract struct {
	ContractReader

	actor contracts.Actor
}

// NewReader creates a ContractReader for the ReferralModule deployment on chain
func NewReader(invoker contracts.Invoker, chain *evm.ChainContext) (*ContractReader, error) {
	b, err := contracts.Bind(chain, evm.ContractReferralModule, abis.ReferralModule())
	if err != nil {
		return nil, err
	}
	return &ContractReader{Binding: b, invoker: invoker}, nil
}

// New creates a Contract for the ReferralModule deployment on chain
func New(actor contracts.Actor, chain *evm.ChainContext) (*Contract, error) {
	r, err := NewReader(actor, chain)
	if err != nil {
		return nil, err
	}
	return &Contract{ContractReader: *r, actor: actor}, nil
}

// GetReferralCredits returns the credits of user
func (c *ContractReader) GetReferralCredits(ctx context.Context, user string) (*Credits, error) {
	input := struct {
		User string `json:"user,omitempty"`
	}{user}

	var addr common.Address
	err := contracts.Prepare("referral.getReferralCredits", input, func(co *validation.Coercer) {
		addr = co.Address("user", user)
	})
	if err != nil {
		return nil, err
	}
	raw, rerr := c.invoker.Read(ctx, c.Request("getReferralCredits", addr))
	credits, err := unwrap.BigInts(raw, rerr, 3)
	if err != nil {
		return nil, err
	}
	return &Credits{Artist: credits[0], Organizer: credits[1], Venue: credits[2]}, nil
}

// HasCreditControl reports whether account may change credits
func (c *ContractReader) HasCreditControl(ctx context.Context, account string) (bool, error) {
	input := struct {
		Account string `json:"account,omitempty"`
	}{account}

	var addr common.Address
	err := contracts.Prepare("referral.hasCreditControl", input, func(co *validation.Coercer) {
		addr = co.Address("account", account)
	})
	if err != nil {
		return false, err
	}
	return unwrap.Bool(c.invoker.Read(ctx, c.Request("creditControlPermissions", addr)))
}

// PermissionInput grants or revokes credit control
type PermissionInput struct {
	Account    string `json:"account,omitempty"`
	Permission bool   `json:"permission,omitempty"`
}

// SetCreditControlPermission grants or revokes credit control of account
func (c *Contract) SetCreditControlPermission(ctx context.Context, in PermissionInput) (*sellout.MutationResult, error) {
	var addr common.Address
	err := contracts.Prepare("referral.setCreditControlPermission", in, func(co *validation.Coercer) {
		addr = co.Address("account", in.Account)
	})
	if err != nil {
		return nil, err
	}
	return contracts.Mutate(ctx, c.actor, c.Request("setCreditControlPermission", addr, in.Permission))
}

// CreditsInput selects which of the referrer's role credits change
type CreditsInput struct {
	Referrer  string `json:"referrer,omitempty"`
	Artist    bool   `json:"artist,omitempty"`
	Organizer bool   `json:"organizer,omitempty"`
	Venue     bool   `json:"venue,omitempty"`
}

// IncrementCredits adds one credit for each selected role
func (c *Contract) IncrementCredits(ctx context.Context, in CreditsInput) (*sellout.MutationResult, error) {
	return c.changeCredits(ctx, "referral.incrementCredits", "incrementReferralCredits", in)
}

// DecrementCredits removes one credit for each selected role
func (c *Contract) DecrementCredits(ctx context.Context, in CreditsInput) (*sellout.MutationResult, error) {
	return c.changeCredits(ctx, "referral.decrementCredits", "decrementReferralCredits", in)
}

func (c *Contract) changeCredits(ctx context.Context, operation, method string, in CreditsInput) (*sellout.MutationResult, error) {
	var referrer common.Address
	err := contracts.Prepare(operation, in, func(co *validation.Coercer) {
		referrer = co.Address("referrer", in.Referrer)
	})
	if err != nil {
		return nil, err
	}
	return contracts.Mutate(ctx, c.actor, c.Request(method, referrer, in.Artist, in.Organizer, in.Venue))
}
