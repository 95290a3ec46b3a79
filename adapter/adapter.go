// Package adapter submits contract calls to the chain. It exposes one read
// path and one write path; writes go out either from an externally owned
// account or through a smart-account relay, fixed when the Adapter is built.
package adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	sellout "github.com/sellout-xyz/sellout/go"
	"github.com/sellout-xyz/sellout/go/evm"
)

// ErrNoAccount is wrapped by the ExecutionError returned when a direct adapter
// has no account to send from
var ErrNoAccount = errors.New("no account configured")

// Backend is the chain access shared by reads and receipt polling
type Backend interface {
	// CallContract executes a stateless call against the latest state
	CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)

	// WaitForTransactionReceipt blocks until the transaction is mined or ctx ends
	WaitForTransactionReceipt(ctx context.Context, txHash string) (*evm.TransactionReceipt, error)
}

// Account submits transactions from an externally owned account
type Account interface {
	Address() common.Address
	SendTransaction(ctx context.Context, req evm.CallRequest) (string, error)
}

// Relay submits calls on behalf of a smart contract account and reports the
// transaction that carried them and whether the inner call succeeded
type Relay interface {
	Address() common.Address
	SendCall(ctx context.Context, req evm.CallRequest) (*evm.RelayedCall, error)
}

// Strategy is the closed set of ways a write can be submitted:
// DirectAccount or RelayedSmartAccount
type Strategy interface {
	Name() string
	sender() common.Address
}

// DirectAccount sends transactions signed by Account
type DirectAccount struct {
	Account Account
}

// Name implements Strategy
func (DirectAccount) Name() string { return sellout.StrategyDirect }

func (s DirectAccount) sender() common.Address {
	if s.Account == nil {
		return common.Address{}
	}
	return s.Account.Address()
}

// RelayedSmartAccount hands calls to Relay
type RelayedSmartAccount struct {
	Relay Relay
}

// Name implements Strategy
func (RelayedSmartAccount) Name() string { return sellout.StrategyRelayed }

func (s RelayedSmartAccount) sender() common.Address { return s.Relay.Address() }

type options struct {
	logger    *zap.Logger
	errorABIs []*abi.ABI
}

// Option configures an Adapter or a Simulator
type Option func(*options)

// WithLogger sets the logger failures are reported to. Defaults to a no-op
// logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithErrorABIs adds interfaces whose custom errors are used to decode
// reverts raised by nested calls
func WithErrorABIs(abis ...*abi.ABI) Option {
	return func(o *options) {
		o.errorABIs = append(o.errorABIs, abis...)
	}
}

func newOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Adapter reads contract state and executes state-changing calls. It holds no
// mutable state; concurrent calls are independent and are not serialized.
type Adapter struct {
	backend  Backend
	strategy Strategy
	logger   *zap.Logger
}

// New creates an Adapter. A non-nil relay selects RelayedSmartAccount,
// otherwise writes go out from account.
func New(backend Backend, account Account, relay Relay, opts ...Option) *Adapter {
	o := newOptions(opts)

	var strategy Strategy = DirectAccount{Account: account}
	if relay != nil {
		strategy = RelayedSmartAccount{Relay: relay}
	}

	return &Adapter{
		backend:  backend,
		strategy: strategy,
		logger:   o.logger.Named("adapter").With(zap.String("strategy", strategy.Name())),
	}
}

// Strategy returns the execution strategy chosen at construction
func (a *Adapter) Strategy() Strategy {
	return a.strategy
}

// Sender returns the account writes are attributed to: the EOA for direct
// execution, the smart account for relayed execution
func (a *Adapter) Sender() common.Address {
	return a.strategy.sender()
}

// Read performs a stateless call and decodes its return values. Failures are
// returned as *sellout.ReadError and never retried.
func (a *Adapter) Read(ctx context.Context, req evm.CallRequest) ([]interface{}, error) {
	target := req.To.Hex()

	data, err := req.Calldata()
	if err != nil {
		return nil, a.readFailed(target, req.Method, err)
	}

	raw, err := a.backend.CallContract(ctx, ethereum.CallMsg{
		From: req.From,
		To:   &req.To,
		Data: data,
	})
	if err != nil {
		if evm.IsRevert(err) {
			err = fmt.Errorf("%w: %s", err, evm.DecodeRevert(err, req.ABI))
		}
		return nil, a.readFailed(target, req.Method, err)
	}

	if len(raw) == 0 && hasOutputs(req) {
		return nil, a.readFailed(target, req.Method, errors.New("empty response, no contract at address?"))
	}

	values, err := req.Unpack(raw)
	if err != nil {
		return nil, a.readFailed(target, req.Method, err)
	}
	return values, nil
}

func (a *Adapter) readFailed(target, method string, err error) error {
	a.logger.Warn("read failed",
		zap.String("target", target),
		zap.String("method", method),
		zap.Error(err))
	return sellout.NewReadError(target, method, err)
}

func hasOutputs(req evm.CallRequest) bool {
	if req.ABI == nil {
		return false
	}
	method, ok := req.ABI.Methods[req.Method]
	return ok && len(method.Outputs) > 0
}

// Execute submits req with the adapter's strategy, waits for the receipt and
// normalizes it. A reverted receipt is a result, not an error. A relayed call
// whose inner call reverted is reported as reverted even though the bundle
// transaction carrying it succeeded.
//
// Execute is not idempotent: every call submits a new transaction. There is
// no timeout besides ctx and no retry.
func (a *Adapter) Execute(ctx context.Context, req evm.CallRequest) (*sellout.ExecutionResult, error) {
	var (
		txHash        string
		stage         string
		innerReverted bool
		err           error
	)

	switch s := a.strategy.(type) {
	case DirectAccount:
		stage = sellout.StageSubmit
		if s.Account == nil {
			err = ErrNoAccount
			break
		}
		txHash, err = s.Account.SendTransaction(ctx, req)
	case RelayedSmartAccount:
		stage = sellout.StageRelay
		var relayed *evm.RelayedCall
		relayed, err = s.Relay.SendCall(ctx, req)
		if err == nil {
			txHash = relayed.TxHash
			innerReverted = !relayed.Success
		}
	default:
		panic(fmt.Sprintf("adapter: unknown strategy %T", a.strategy))
	}
	if err != nil {
		return nil, a.executeFailed(stage, req, "", err)
	}

	a.logger.Debug("transaction submitted",
		zap.String("target", req.To.Hex()),
		zap.String("method", req.Method),
		zap.String("txHash", txHash))

	receipt, err := a.backend.WaitForTransactionReceipt(ctx, txHash)
	if err != nil {
		return nil, a.executeFailed(sellout.StageReceipt, req, txHash, err)
	}

	result := &sellout.ExecutionResult{
		TxHash:      txHash,
		BlockNumber: receipt.BlockNumber,
		Status:      normalizeStatus(receipt.Status),
	}
	if innerReverted {
		result.Status = sellout.StatusReverted
	}
	if result.Status == sellout.StatusReverted {
		a.logger.Warn("transaction reverted",
			zap.String("target", req.To.Hex()),
			zap.String("method", req.Method),
			zap.String("txHash", txHash),
			zap.Uint64("blockNumber", receipt.BlockNumber))
	}
	return result, nil
}

func (a *Adapter) executeFailed(stage string, req evm.CallRequest, txHash string, err error) error {
	a.logger.Error("execution failed",
		zap.String("stage", stage),
		zap.String("target", req.To.Hex()),
		zap.String("method", req.Method),
		zap.String("txHash", txHash),
		zap.Error(err))
	execErr := sellout.NewExecutionError(stage, a.strategy.Name(), req.To.Hex(), req.Method, err)
	execErr.TxHash = txHash
	return execErr
}

// normalizeStatus maps a receipt status onto {success, reverted}
func normalizeStatus(status uint64) sellout.Status {
	if status == evm.TxStatusSuccess {
		return sellout.StatusSuccess
	}
	return sellout.StatusReverted
}
