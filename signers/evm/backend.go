// Package evm connects the SDK to an EVM node through go-ethereum's client.
// Backend covers stateless calls and receipt polling; Signer adds an
// externally owned account on top of it.
package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	selloutevm "github.com/sellout-xyz/sellout/go/evm"
)

// DefaultPollInterval is how often receipts are polled
const DefaultPollInterval = 2 * time.Second

// ChainClient is the subset of go-ethereum's client the SDK uses. It is
// satisfied by *ethclient.Client and by the simulated backend's client.
type ChainClient interface {
	ChainID(ctx context.Context) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Option configures a Backend
type Option func(*Backend)

// WithPollInterval sets the receipt polling interval
func WithPollInterval(d time.Duration) Option {
	return func(b *Backend) {
		if d > 0 {
			b.pollInterval = d
		}
	}
}

// WithLogger sets the backend's logger
func WithLogger(logger *zap.Logger) Option {
	return func(b *Backend) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// Backend is the read side of the chain connection
type Backend struct {
	client       ChainClient
	pollInterval time.Duration
	logger       *zap.Logger
}

// NewBackend wraps an existing client
func NewBackend(client ChainClient, opts ...Option) *Backend {
	b := &Backend{
		client:       client,
		pollInterval: DefaultPollInterval,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.Named("backend")
	return b
}

// Dial connects to an RPC endpoint
func Dial(ctx context.Context, rpcURL string, opts ...Option) (*Backend, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}
	return NewBackend(client, opts...), nil
}

// Client returns the underlying client
func (b *Backend) Client() ChainClient {
	return b.client
}

// ChainID returns the connected network's chain id
func (b *Backend) ChainID(ctx context.Context) (*big.Int, error) {
	return b.client.ChainID(ctx)
}

// CallContract executes msg against the latest state
func (b *Backend) CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	return b.client.CallContract(ctx, msg, nil)
}

// EstimateGas estimates the gas msg needs
func (b *Backend) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	return b.client.EstimateGas(ctx, msg)
}

// CodeAt returns the code deployed at account
func (b *Backend) CodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return b.client.CodeAt(ctx, account, nil)
}

// Read packs req, calls it and unpacks the result
func (b *Backend) Read(ctx context.Context, req selloutevm.CallRequest) ([]interface{}, error) {
	data, err := req.Calldata()
	if err != nil {
		return nil, err
	}
	out, err := b.CallContract(ctx, ethereum.CallMsg{
		From: req.From,
		To:   &req.To,
		Data: data,
	})
	if err != nil {
		return nil, err
	}
	return req.Unpack(out)
}

// Fees is a fee suggestion. Legacy networks only set GasPrice.
type Fees struct {
	GasTipCap *big.Int
	GasFeeCap *big.Int
	GasPrice  *big.Int
}

// Legacy reports whether the network has no base fee
func (f Fees) Legacy() bool {
	return f.GasFeeCap == nil
}

// SuggestFees returns EIP-1559 fees (tip plus twice the base fee), or a
// legacy gas price when the latest header has no base fee
func (b *Backend) SuggestFees(ctx context.Context) (Fees, error) {
	header, err := b.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return Fees{}, fmt.Errorf("failed to get latest header: %w", err)
	}

	if header.BaseFee == nil {
		gasPrice, err := b.client.SuggestGasPrice(ctx)
		if err != nil {
			return Fees{}, fmt.Errorf("failed to get gas price: %w", err)
		}
		return Fees{GasPrice: gasPrice}, nil
	}

	tip, err := b.client.SuggestGasTipCap(ctx)
	if err != nil {
		return Fees{}, fmt.Errorf("failed to get gas tip: %w", err)
	}
	feeCap := new(big.Int).Mul(header.BaseFee, big.NewInt(2))
	feeCap.Add(feeCap, tip)
	return Fees{GasTipCap: tip, GasFeeCap: feeCap}, nil
}

// WaitForTransactionReceipt polls until the transaction is mined or ctx is
// done. There is no other bound.
func (b *Backend) WaitForTransactionReceipt(ctx context.Context, txHash string) (*selloutevm.TransactionReceipt, error) {
	hash := common.HexToHash(txHash)

	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := b.client.TransactionReceipt(ctx, hash)
		switch {
		case err == nil:
			return &selloutevm.TransactionReceipt{
				Status:      receipt.Status,
				BlockNumber: receipt.BlockNumber.Uint64(),
				TxHash:      receipt.TxHash.Hex(),
			}, nil
		case !errors.Is(err, ethereum.NotFound):
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
