/*
Package contracts holds the plumbing shared by the operation wrappers.

Every wrapper package follows the same sequence: the caller's input is checked
against the operation's schema and coerced into ABI arguments (Prepare), then
the call is either read through an Invoker or simulated and executed through
an Actor (Mutate). Safe methods live in a ContractReader, state-changing ones
in a Contract that embeds it.
*/
package contracts

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	sellout "github.com/sellout-xyz/sellout/go"
	"github.com/sellout-xyz/sellout/go/evm"
	"github.com/sellout-xyz/sellout/go/validation"
)

// Invoker is used by readers to perform stateless calls. *adapter.Adapter and
// *adapter.Session satisfy it.
type Invoker interface {
	Read(ctx context.Context, req evm.CallRequest) ([]interface{}, error)
}

// Actor is used by contracts to simulate and submit state-changing calls.
// *adapter.Session satisfies it.
type Actor interface {
	Invoker

	Simulate(ctx context.Context, req evm.CallRequest) (evm.CallRequest, error)
	Execute(ctx context.Context, req evm.CallRequest) (*sellout.ExecutionResult, error)
	Sender() common.Address
}

// Binding is a deployed contract: its address and the interface calls are
// encoded against
type Binding struct {
	Address common.Address
	ABI     *abi.ABI
}

// Bind resolves the logical contract name on chain
func Bind(chain *evm.ChainContext, name evm.ContractName, contractABI *abi.ABI) (Binding, error) {
	addr, err := chain.Address(name)
	if err != nil {
		return Binding{}, err
	}
	return Binding{Address: addr, ABI: contractABI}, nil
}

// BindProxy binds a caller-supplied proxy address, such as the per-show
// ticket or vault proxy
func BindProxy(proxy string, contractABI *abi.ABI) (Binding, error) {
	const operation = "contract.proxy"

	input := struct {
		Proxy string `json:"proxy,omitempty"`
	}{proxy}

	var addr common.Address
	err := Prepare(operation, input, func(c *validation.Coercer) {
		addr = c.Address("proxy", proxy)
	})
	if err != nil {
		return Binding{}, err
	}
	return Binding{Address: addr, ABI: contractABI}, nil
}

// Request builds a call of method on the bound contract
func (b Binding) Request(method string, args ...interface{}) evm.CallRequest {
	return evm.NewCallRequest(b.Address, b.ABI, method, args...)
}

// Prepare validates input against the schema of operation, then lets coerce
// turn the checked strings into ABI values. It never touches the network.
func Prepare(operation string, input interface{}, coerce func(c *validation.Coercer)) error {
	if err := validation.Validate(operation, input); err != nil {
		return err
	}
	if coerce == nil {
		return nil
	}
	c := validation.Coerce(operation)
	coerce(c)
	return c.Err()
}

// Mutate simulates req as the actor's sender, submits the prepared request
// and wraps the normalized receipt. A simulation rejection is returned before
// anything is submitted.
func Mutate(ctx context.Context, actor Actor, req evm.CallRequest) (*sellout.MutationResult, error) {
	prepared, err := actor.Simulate(ctx, req)
	if err != nil {
		return nil, err
	}
	res, err := actor.Execute(ctx, prepared)
	if err != nil {
		return nil, err
	}
	return sellout.NewMutationResult(res), nil
}

// ShowID is the input of every operation keyed by show alone
type ShowID struct {
	ShowID string `json:"showId,omitempty"`
}

// PrepareShowID validates and coerces a show id for operation
func PrepareShowID(operation, showID string) ([32]byte, error) {
	var id [32]byte
	err := Prepare(operation, ShowID{ShowID: showID}, func(c *validation.Coercer) {
		id = c.Bytes32("showId", showID)
	})
	if err != nil {
		return [32]byte{}, err
	}
	return id, nil
}
