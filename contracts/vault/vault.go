/*
Package vault provides a wrapper for a show's vault proxy, which escrows
ticket revenue until the show completes or is refunded.

Like tickets, vaults are per-show proxies, so the wrapper is built on a
caller-supplied address (see show.ContractReader.GetVaultProxy).
*/
package vault

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

// ContractReader represents safe methods of a vault proxy
type ContractReader struct {
	contracts.Binding

	invoker contracts.Invoker
}

// Contract provides the full vault proxy interface
type Contract struct {
	ContractReader

	actor contracts.Actor
}

// NewReader creates a ContractReader for the vault proxy at proxy
func NewReader(invoker contracts.Invoker, proxy string) (*ContractReader, error) {
	b, err := contracts.BindProxy(proxy, abis.Vault())
	if err != nil {
		return nil, err
	}
	return &ContractReader{Binding: b, invoker: invoker}, nil
}

// New creates a Contract for the vault proxy at proxy
func New(actor contracts.Actor, proxy string) (*Contract, error) {
	r, err := NewReader(actor, proxy)
	if err != nil {
		return nil, err
	}
	return &Contract{ContractReader: *r, actor: actor}, nil
}

// GetBalance returns the escrowed balance
func (c *ContractReader) GetBalance(ctx context.Context) (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Read(ctx, c.Request("getBalance")))
}

// GetPaymentToken returns the token held in escrow, zero for the native
// currency
func (c *ContractReader) GetPaymentToken(ctx context.Context) (common.Address, error) {
	return unwrap.Address(c.invoker.Read(ctx, c.Request("paymentToken")))
}

// IsLocked reports whether withdrawals are blocked
func (c *ContractReader) IsLocked(ctx context.Context) (bool, error) {
	return unwrap.Bool(c.invoker.Read(ctx, c.Request("isLocked")))
}

// TransferInput moves Amount out of the vault to Recipient
type TransferInput struct {
	Recipient string `json:"recipient,omitempty"`
	Amount    string `json:"amount,omitempty"`
}

// Withdraw pays out of the vault
func (c *Contract) Withdraw(ctx context.Context, in TransferInput) (*sellout.MutationResult, error) {
	return c.transfer(ctx, "vault.withdraw", "withdraw", in)
}

// Refund returns funds from the vault to a ticket buyer
func (c *Contract) Refund(ctx context.Context, in TransferInput) (*sellout.MutationResult, error) {
	return c.transfer(ctx, "vault.refund", "refund", in)
}

func (c *Contract) transfer(ctx context.Context, operation, method string, in TransferInput) (*sellout.MutationResult, error) {
	var (
		recipient common.Address
		amount    *big.Int
	)
	err := contracts.Prepare(operation, in, func(co *validation.Coercer) {
		recipient = co.Address("recipient", in.Recipient)
		amount = co.BigInt("amount", in.Amount)
	})
	if err != nil {
		return nil, err
	}
	return contracts.Mutate(ctx, c.actor, c.Request(method, recipient, amount))
}
