package adapter

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	sellout "github.com/sellout-xyz/sellout/go"
	"github.com/sellout-xyz/sellout/go/evm"
)

// SimulationBackend is the chain access needed to dry-run a call
type SimulationBackend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
}

// Simulator dry-runs state-changing calls against current state. It surfaces
// revert reasons before anything is submitted and produces the exact request
// that Execute should replay.
type Simulator struct {
	backend   SimulationBackend
	errorABIs []*abi.ABI
	logger    *zap.Logger
}

// NewSimulator creates a Simulator
func NewSimulator(backend SimulationBackend, opts ...Option) *Simulator {
	o := newOptions(opts)
	return &Simulator{
		backend:   backend,
		errorABIs: o.errorABIs,
		logger:    o.logger.Named("simulator"),
	}
}

// Simulate packs req, runs it as an eth_call from the given sender and
// estimates its gas with GasBufferPercent headroom. The returned request
// carries From, Data, Value and Gas. A rejected call is returned as an
// *sellout.ExecutionError at the simulate stage with the decoded reason.
func (s *Simulator) Simulate(ctx context.Context, from common.Address, req evm.CallRequest) (evm.CallRequest, error) {
	data, err := req.Calldata()
	if err != nil {
		return req, s.rejected(req, "", err)
	}

	value := new(big.Int).Set(req.NativeValue())
	msg := ethereum.CallMsg{
		From:  from,
		To:    &req.To,
		Data:  data,
		Value: value,
	}

	if _, err := s.backend.CallContract(ctx, msg); err != nil {
		return req, s.rejected(req, s.reason(req, err), err)
	}

	gas, err := s.backend.EstimateGas(ctx, msg)
	switch {
	case err != nil && evm.IsRevert(err):
		return req, s.rejected(req, s.reason(req, err), err)
	case err != nil:
		s.logger.Warn("gas estimation failed, using default limit",
			zap.String("method", req.Method),
			zap.Uint64("gas", evm.DefaultGasLimit),
			zap.Error(err))
		gas = evm.DefaultGasLimit
	default:
		gas = gas * evm.GasBufferPercent / 100
	}

	prepared := req
	prepared.From = from
	prepared.Data = data
	prepared.Value = value
	prepared.Gas = gas
	return prepared, nil
}

func (s *Simulator) reason(req evm.CallRequest, err error) string {
	if !evm.IsRevert(err) {
		return ""
	}
	abis := make([]*abi.ABI, 0, len(s.errorABIs)+1)
	abis = append(abis, req.ABI)
	abis = append(abis, s.errorABIs...)
	return evm.DecodeRevert(err, abis...)
}

func (s *Simulator) rejected(req evm.CallRequest, reason string, err error) error {
	s.logger.Warn("simulation rejected",
		zap.String("target", req.To.Hex()),
		zap.String("method", req.Method),
		zap.String("reason", reason),
		zap.Error(err))
	execErr := sellout.NewExecutionError(sellout.StageSimulate, "", req.To.Hex(), req.Method, err)
	execErr.Reason = reason
	return execErr
}
