// Package bundler relays contract calls through an ERC-4337 bundler. Calls
// are wrapped into the smart account's execute function, signed by the
// account owner and submitted as user operations against EntryPoint v0.6.
package bundler

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	sellout "github.com/sellout-xyz/sellout/go"
	"github.com/sellout-xyz/sellout/go/evm"
	evmsigner "github.com/sellout-xyz/sellout/go/signers/evm"
)

// EntryPointV06 is the canonical EntryPoint v0.6 deployment
var EntryPointV06 = common.HexToAddress("0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789")

// DefaultPollInterval is how often user operation receipts are polled
const DefaultPollInterval = 2 * time.Second

// dummySignature has the shape of an owner signature so that validation gas
// can be estimated before signing
var dummySignature = common.FromHex("0xfffffffffffffffffffffffffffffff0000000000000000000000000000000007aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa1c")

const entryPointABIJSON = `[{
	"type": "function",
	"name": "getNonce",
	"stateMutability": "view",
	"inputs": [{"name": "sender", "type": "address"}, {"name": "key", "type": "uint192"}],
	"outputs": [{"name": "nonce", "type": "uint256"}]
}]`

const simpleAccountABIJSON = `[{
	"type": "function",
	"name": "execute",
	"stateMutability": "nonpayable",
	"inputs": [{"name": "dest", "type": "address"}, {"name": "value", "type": "uint256"}, {"name": "func", "type": "bytes"}],
	"outputs": []
}]`

const accountFactoryABIJSON = `[{
	"type": "function",
	"name": "createAccount",
	"stateMutability": "nonpayable",
	"inputs": [{"name": "owner", "type": "address"}, {"name": "salt", "type": "uint256"}],
	"outputs": [{"name": "ret", "type": "address"}]
}, {
	"type": "function",
	"name": "getAddress",
	"stateMutability": "view",
	"inputs": [{"name": "owner", "type": "address"}, {"name": "salt", "type": "uint256"}],
	"outputs": [{"name": "", "type": "address"}]
}]`

var (
	entryPointABI     = mustParseABI(entryPointABIJSON)
	simpleAccountABI  = mustParseABI(simpleAccountABIJSON)
	accountFactoryABI = mustParseABI(accountFactoryABIJSON)
)

func mustParseABI(definition string) *abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic(err)
	}
	return &parsed
}

// Chain is the node access the relay needs for nonces, fees and deployment
// checks. *evmsigner.Backend satisfies it.
type Chain interface {
	evm.ContractReader
	evm.CodeReader
	SuggestFees(ctx context.Context) (evmsigner.Fees, error)
}

// Owner signs user operation hashes. *evmsigner.Signer satisfies it.
type Owner interface {
	Address() common.Address
	SignMessage(ctx context.Context, msg []byte) ([]byte, error)
}

// Config configures a bundler client
type Config struct {
	// URL of the bundler's JSON-RPC endpoint
	URL string

	// EntryPoint defaults to EntryPointV06
	EntryPoint common.Address

	// Account is the smart account. When zero it is derived from Factory
	// and Salt.
	Account common.Address

	// Factory deploys the account on its first operation if set
	Factory common.Address
	Salt    *big.Int

	ChainID *big.Int

	// Sponsor requests paymaster sponsorship with pm_sponsorUserOperation
	Sponsor bool

	PollInterval time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithLogger sets the client's logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRPCClient uses an existing JSON-RPC client instead of dialing Config.URL
func WithRPCClient(client *rpc.Client) Option {
	return func(c *Client) {
		c.rpc = client
	}
}

// Client submits calls as user operations
type Client struct {
	rpc     *rpc.Client
	chain   Chain
	owner   Owner
	cfg     Config
	account common.Address
	logger  *zap.Logger
}

// New creates a relay client. It checks that the bundler serves the
// configured EntryPoint and resolves the account address.
func New(ctx context.Context, cfg Config, chain Chain, owner Owner, opts ...Option) (*Client, error) {
	if cfg.EntryPoint == (common.Address{}) {
		cfg.EntryPoint = EntryPointV06
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Salt == nil {
		cfg.Salt = new(big.Int)
	}
	if cfg.ChainID == nil {
		return nil, errors.New("bundler: chain id is required")
	}
	if owner == nil {
		return nil, errors.New("bundler: owner is required")
	}

	c := &Client{
		chain:  chain,
		owner:  owner,
		cfg:    cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("bundler")

	if c.rpc == nil {
		client, err := rpc.DialOptions(ctx, cfg.URL, rpc.WithHeader("User-Agent", sellout.UserAgent))
		if err != nil {
			return nil, fmt.Errorf("bundler: failed to connect: %w", err)
		}
		c.rpc = client
	}

	var entryPoints []common.Address
	if err := c.rpc.CallContext(ctx, &entryPoints, "eth_supportedEntryPoints"); err != nil {
		return nil, fmt.Errorf("bundler: eth_supportedEntryPoints: %w", err)
	}
	if !containsAddress(entryPoints, cfg.EntryPoint) {
		return nil, fmt.Errorf("bundler: entry point %s not supported", cfg.EntryPoint.Hex())
	}

	c.account = cfg.Account
	if c.account == (common.Address{}) {
		if cfg.Factory == (common.Address{}) {
			return nil, errors.New("bundler: either account or factory is required")
		}
		out, err := chain.Read(ctx, evm.NewCallRequest(cfg.Factory, accountFactoryABI, "getAddress", owner.Address(), cfg.Salt))
		if err != nil {
			return nil, fmt.Errorf("bundler: failed to derive account address: %w", err)
		}
		addr, ok := out[0].(common.Address)
		if !ok {
			return nil, fmt.Errorf("bundler: unexpected getAddress result %T", out[0])
		}
		c.account = addr
	}

	c.logger.Info("relay ready",
		zap.String("account", c.account.Hex()),
		zap.String("entryPoint", cfg.EntryPoint.Hex()),
		zap.Bool("sponsored", cfg.Sponsor))
	return c, nil
}

func containsAddress(list []common.Address, addr common.Address) bool {
	for _, a := range list {
		if a == addr {
			return true
		}
	}
	return false
}

// Address returns the smart account the calls are made from
func (c *Client) Address() common.Address {
	return c.account
}

// Close closes the JSON-RPC connection
func (c *Client) Close() {
	c.rpc.Close()
}

// SendCall relays req and returns the bundle transaction that included it
// along with the outcome of the inner call. It blocks until the bundler
// reports a receipt or ctx ends.
func (c *Client) SendCall(ctx context.Context, req evm.CallRequest) (*evm.RelayedCall, error) {
	op, err := c.buildUserOperation(ctx, req)
	if err != nil {
		return nil, err
	}

	userOpHash, err := op.Hash(c.cfg.EntryPoint, c.cfg.ChainID)
	if err != nil {
		return nil, fmt.Errorf("failed to hash user operation: %w", err)
	}
	signature, err := c.owner.SignMessage(ctx, userOpHash.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to sign user operation: %w", err)
	}
	op.Signature = signature

	var submitted common.Hash
	if err := c.rpc.CallContext(ctx, &submitted, "eth_sendUserOperation", op, c.cfg.EntryPoint); err != nil {
		return nil, fmt.Errorf("eth_sendUserOperation: %w", err)
	}
	if submitted != userOpHash {
		c.logger.Warn("bundler returned a different user operation hash",
			zap.String("expected", userOpHash.Hex()),
			zap.String("got", submitted.Hex()))
	}

	receipt, err := c.WaitForUserOperation(ctx, submitted)
	if err != nil {
		return nil, err
	}
	txHash := receipt.Receipt.TransactionHash.Hex()
	if receipt.Success {
		c.logger.Debug("user operation included",
			zap.String("userOpHash", submitted.Hex()),
			zap.String("txHash", txHash))
	} else {
		c.logger.Warn("user operation reverted",
			zap.String("userOpHash", submitted.Hex()),
			zap.String("txHash", txHash),
			zap.String("target", req.To.Hex()),
			zap.String("method", req.Method))
	}
	return &evm.RelayedCall{TxHash: txHash, Success: receipt.Success}, nil
}

func (c *Client) buildUserOperation(ctx context.Context, req evm.CallRequest) (*UserOperation, error) {
	data, err := req.Calldata()
	if err != nil {
		return nil, err
	}
	callData, err := simpleAccountABI.Pack("execute", req.To, req.NativeValue(), data)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap call: %w", err)
	}

	nonce, err := c.nonce(ctx)
	if err != nil {
		return nil, err
	}

	initCode, err := c.initCode(ctx)
	if err != nil {
		return nil, err
	}

	fees, err := c.chain.SuggestFees(ctx)
	if err != nil {
		return nil, err
	}
	maxFee, tip := fees.GasFeeCap, fees.GasTipCap
	if fees.Legacy() {
		maxFee, tip = fees.GasPrice, fees.GasPrice
	}

	op := &UserOperation{
		Sender:               c.account,
		Nonce:                hexBig(nonce),
		InitCode:             initCode,
		CallData:             callData,
		CallGasLimit:         hexBig(nil),
		VerificationGasLimit: hexBig(nil),
		PreVerificationGas:   hexBig(nil),
		MaxFeePerGas:         hexBig(maxFee),
		MaxPriorityFeePerGas: hexBig(tip),
		PaymasterAndData:     []byte{},
		Signature:            dummySignature,
	}

	if c.cfg.Sponsor {
		var sponsorship Sponsorship
		if err := c.rpc.CallContext(ctx, &sponsorship, "pm_sponsorUserOperation", op, c.cfg.EntryPoint); err != nil {
			return nil, fmt.Errorf("pm_sponsorUserOperation: %w", err)
		}
		op.PaymasterAndData = sponsorship.PaymasterAndData
		op.PreVerificationGas = sponsorship.PreVerificationGas
		op.VerificationGasLimit = sponsorship.VerificationGasLimit
		op.CallGasLimit = sponsorship.CallGasLimit
	} else {
		var estimate GasEstimate
		if err := c.rpc.CallContext(ctx, &estimate, "eth_estimateUserOperationGas", op, c.cfg.EntryPoint); err != nil {
			return nil, fmt.Errorf("eth_estimateUserOperationGas: %w", err)
		}
		op.PreVerificationGas = estimate.PreVerificationGas
		op.VerificationGasLimit = estimate.VerificationGasLimit
		op.CallGasLimit = estimate.CallGasLimit
	}

	// A simulated request already knows what the inner call needs
	if req.Gas > 0 && bigOf(op.CallGasLimit).Uint64() < req.Gas {
		op.CallGasLimit = hexBig(new(big.Int).SetUint64(req.Gas))
	}
	return op, nil
}

func (c *Client) nonce(ctx context.Context) (*big.Int, error) {
	out, err := c.chain.Read(ctx, evm.NewCallRequest(c.cfg.EntryPoint, entryPointABI, "getNonce", c.account, new(big.Int)))
	if err != nil {
		return nil, fmt.Errorf("failed to read account nonce: %w", err)
	}
	nonce, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected nonce type %T", out[0])
	}
	return nonce, nil
}

// initCode returns the factory call deploying the account, or nothing if the
// account exists or no factory is configured
func (c *Client) initCode(ctx context.Context) ([]byte, error) {
	if c.cfg.Factory == (common.Address{}) {
		return []byte{}, nil
	}
	code, err := c.chain.CodeAt(ctx, c.account)
	if err != nil {
		return nil, fmt.Errorf("failed to check account deployment: %w", err)
	}
	if len(code) > 0 {
		return []byte{}, nil
	}
	create, err := accountFactoryABI.Pack("createAccount", c.owner.Address(), c.cfg.Salt)
	if err != nil {
		return nil, err
	}
	return append(c.cfg.Factory.Bytes(), create...), nil
}

// WaitForUserOperation polls eth_getUserOperationReceipt until the operation
// is included or ctx is done
func (c *Client) WaitForUserOperation(ctx context.Context, userOpHash common.Hash) (*UserOperationReceipt, error) {
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		var receipt *UserOperationReceipt
		if err := c.rpc.CallContext(ctx, &receipt, "eth_getUserOperationReceipt", userOpHash); err != nil {
			return nil, fmt.Errorf("eth_getUserOperationReceipt: %w", err)
		}
		if receipt != nil {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
