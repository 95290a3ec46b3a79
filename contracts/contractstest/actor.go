// Package contractstest provides an in-memory Actor for testing the
// operation wrappers without a chain.
package contractstest

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	sellout "github.com/sellout-xyz/sellout/go"
	"github.com/sellout-xyz/sellout/go/evm"
)

// DefaultSender is the address the Actor writes as unless configured
var DefaultSender = common.HexToAddress("0x00000000000000000000000000000000000000e0")

// SimulatedGas is the gas every simulated request is prepared with
const SimulatedGas = 100000

// Actor records every call. Read results are packed with the method's
// outputs and decoded again, so wrappers see exactly what a node would give
// them.
type Actor struct {
	mu sync.Mutex

	sender   common.Address
	results  map[string][]interface{}
	failures map[string]error
	status   sellout.Status

	Reads     []evm.CallRequest
	Simulated []evm.CallRequest
	Executed  []evm.CallRequest
}

// NewActor creates an Actor that succeeds every write
func NewActor() *Actor {
	return &Actor{
		sender:   DefaultSender,
		results:  make(map[string][]interface{}),
		failures: make(map[string]error),
		status:   sellout.StatusSuccess,
	}
}

// Returns scripts the return values of method
func (a *Actor) Returns(method string, values ...interface{}) *Actor {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.results[method] = values
	return a
}

// Fails makes every read or simulation of method fail with err
func (a *Actor) Fails(method string, err error) *Actor {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failures[method] = err
	return a
}

// Reverts makes executions land with a reverted receipt
func (a *Actor) Reverts() *Actor {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status = sellout.StatusReverted
	return a
}

// Calls returns the number of network calls made so far
func (a *Actor) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.Reads) + len(a.Simulated) + len(a.Executed)
}

// LastRead returns the most recent read request
func (a *Actor) LastRead() evm.CallRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Reads[len(a.Reads)-1]
}

// LastExecuted returns the most recent executed request
func (a *Actor) LastExecuted() evm.CallRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Executed[len(a.Executed)-1]
}

// Read implements contracts.Invoker
func (a *Actor) Read(ctx context.Context, req evm.CallRequest) ([]interface{}, error) {
	a.mu.Lock()
	a.Reads = append(a.Reads, req)
	values, scripted := a.results[req.Method]
	failure := a.failures[req.Method]
	a.mu.Unlock()

	if _, err := req.Calldata(); err != nil {
		return nil, sellout.NewReadError(req.To.Hex(), req.Method, err)
	}
	if failure != nil {
		return nil, sellout.NewReadError(req.To.Hex(), req.Method, failure)
	}
	if !scripted {
		return nil, sellout.NewReadError(req.To.Hex(), req.Method, fmt.Errorf("no result scripted for %s", req.Method))
	}

	method, ok := req.ABI.Methods[req.Method]
	if !ok {
		return nil, fmt.Errorf("method %s not in ABI", req.Method)
	}
	raw, err := method.Outputs.Pack(values...)
	if err != nil {
		return nil, fmt.Errorf("scripted result of %s does not match its outputs: %w", req.Method, err)
	}
	return req.Unpack(raw)
}

// Simulate implements contracts.Actor
func (a *Actor) Simulate(ctx context.Context, req evm.CallRequest) (evm.CallRequest, error) {
	a.mu.Lock()
	a.Simulated = append(a.Simulated, req)
	failure := a.failures[req.Method]
	a.mu.Unlock()

	data, err := req.Calldata()
	if err != nil {
		return req, err
	}
	if failure != nil {
		execErr := sellout.NewExecutionError(sellout.StageSimulate, sellout.StrategyDirect, req.To.Hex(), req.Method, failure)
		execErr.Reason = failure.Error()
		return req, execErr
	}

	req.From = a.sender
	req.Data = data
	req.Gas = SimulatedGas
	return req, nil
}

// Execute implements contracts.Actor. Every call gets a fresh hash.
func (a *Actor) Execute(ctx context.Context, req evm.CallRequest) (*sellout.ExecutionResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Executed = append(a.Executed, req)
	n := len(a.Executed)
	return &sellout.ExecutionResult{
		TxHash:      crypto.Keccak256Hash([]byte(fmt.Sprintf("tx-%d", n))).Hex(),
		BlockNumber: uint64(n),
		Status:      a.status,
	}, nil
}

// Sender implements contracts.Actor
func (a *Actor) Sender() common.Address {
	return a.sender
}
