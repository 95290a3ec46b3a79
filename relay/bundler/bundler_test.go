package bundler

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sellout-xyz/sellout/go/evm"
	"github.com/sellout-xyz/sellout/go/evm/abis"
	evmsigner "github.com/sellout-xyz/sellout/go/signers/evm"
)

var (
	testChainID  = big.NewInt(84532)
	smartAccount = common.HexToAddress("0x00000000000000000000000000000000000000a0")
	factoryAddr  = common.HexToAddress("0x9406Cc6185a346906296840746125a0E44976454")
	showAddr     = common.HexToAddress("0x2a816684212cbbdf8f8e3b09e0de725274f0d186")
	bundleTxHash = common.HexToHash("0xbb00000000000000000000000000000000000000000000000000000000000001")
)

// fakeChain answers the EntryPoint and factory reads
type fakeChain struct {
	nonce   int64
	code    []byte
	derived common.Address
	reads   []string
}

func (c *fakeChain) Read(ctx context.Context, req evm.CallRequest) ([]interface{}, error) {
	c.reads = append(c.reads, req.Method)
	switch req.Method {
	case "getNonce":
		return []interface{}{big.NewInt(c.nonce)}, nil
	case "getAddress":
		return []interface{}{c.derived}, nil
	}
	return nil, nil
}

func (c *fakeChain) CodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return c.code, nil
}

func (c *fakeChain) SuggestFees(ctx context.Context) (evmsigner.Fees, error) {
	return evmsigner.Fees{GasTipCap: big.NewInt(1e9), GasFeeCap: big.NewInt(3e9)}, nil
}

// ethService is the bundler side of the eth namespace
type ethService struct {
	mu          sync.Mutex
	entryPoints []common.Address
	estimates   int
	sent        []UserOperation
	pending     int
	callGas     int64
	reverted    bool
}

func (s *ethService) SupportedEntryPoints() []common.Address {
	return s.entryPoints
}

func (s *ethService) EstimateUserOperationGas(op UserOperation, entryPoint common.Address) (*GasEstimate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.estimates++
	return &GasEstimate{
		PreVerificationGas:   (*hexutil.Big)(big.NewInt(50000)),
		VerificationGasLimit: (*hexutil.Big)(big.NewInt(100000)),
		CallGasLimit:         (*hexutil.Big)(big.NewInt(s.callGas)),
	}, nil
}

func (s *ethService) SendUserOperation(op UserOperation, entryPoint common.Address) (common.Hash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, op)
	return op.Hash(entryPoint, testChainID)
}

func (s *ethService) GetUserOperationReceipt(hash common.Hash) (*UserOperationReceipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending > 0 {
		s.pending--
		return nil, nil
	}
	receipt := &UserOperationReceipt{UserOpHash: hash, Sender: smartAccount, Success: !s.reverted}
	receipt.Receipt.TransactionHash = bundleTxHash
	receipt.Receipt.BlockNumber = (*hexutil.Big)(big.NewInt(12))
	receipt.Receipt.Status = 1
	return receipt, nil
}

// pmService is a paymaster that sponsors everything
type pmService struct {
	sponsored int
}

func (p *pmService) SponsorUserOperation(op UserOperation, entryPoint common.Address) (*Sponsorship, error) {
	p.sponsored++
	return &Sponsorship{
		PaymasterAndData:     hexutil.Bytes(common.FromHex("0x00000000000000000000000000000000000000ff")),
		PreVerificationGas:   (*hexutil.Big)(big.NewInt(60000)),
		VerificationGasLimit: (*hexutil.Big)(big.NewInt(150000)),
		CallGasLimit:         (*hexutil.Big)(big.NewInt(90000)),
	}, nil
}

type harness struct {
	eth    *ethService
	pm     *pmService
	chain  *fakeChain
	owner  *evmsigner.Signer
	client *rpc.Client
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	eth := &ethService{entryPoints: []common.Address{EntryPointV06}, pending: 2, callGas: 80000}
	pm := &pmService{}
	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("eth", eth))
	require.NoError(t, server.RegisterName("pm", pm))
	t.Cleanup(server.Stop)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	return &harness{
		eth:    eth,
		pm:     pm,
		chain:  &fakeChain{nonce: 7, code: []byte{0x60}},
		owner:  evmsigner.NewSigner(key, nil),
		client: rpc.DialInProc(server),
	}
}

func (h *harness) newClient(t *testing.T, cfg Config) *Client {
	t.Helper()
	cfg.ChainID = testChainID
	cfg.PollInterval = 5 * time.Millisecond
	c, err := New(context.Background(), cfg, h.chain, h.owner, WithRPCClient(h.client), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return c
}

func cancelShow() evm.CallRequest {
	return evm.NewCallRequest(showAddr, abis.Show(), "cancelShow", [32]byte{0x01})
}

func TestSendCall(t *testing.T) {
	h := newHarness(t)
	c := h.newClient(t, Config{Account: smartAccount})
	require.Equal(t, smartAccount, c.Address())

	sent, err := c.SendCall(context.Background(), cancelShow())
	require.NoError(t, err)
	require.Equal(t, bundleTxHash.Hex(), sent.TxHash)
	require.True(t, sent.Success)
	require.Equal(t, 0, h.eth.pending, "receipt must be polled until included")
	require.Equal(t, 1, h.eth.estimates)
	require.Len(t, h.eth.sent, 1)

	op := h.eth.sent[0]
	require.Equal(t, smartAccount, op.Sender)
	require.Equal(t, int64(7), op.Nonce.ToInt().Int64())
	require.Empty(t, op.InitCode)
	require.Empty(t, op.PaymasterAndData)
	require.Equal(t, int64(80000), op.CallGasLimit.ToInt().Int64())
	require.Equal(t, int64(3e9), op.MaxFeePerGas.ToInt().Int64())
	require.Equal(t, int64(1e9), op.MaxPriorityFeePerGas.ToInt().Int64())

	// callData is execute(dest, value, func) around the original call
	execute := simpleAccountABI.Methods["execute"]
	require.Equal(t, execute.ID, []byte(op.CallData[:4]))
	args, err := execute.Inputs.Unpack(op.CallData[4:])
	require.NoError(t, err)
	inner, err := cancelShow().Calldata()
	require.NoError(t, err)
	require.Equal(t, showAddr, args[0])
	require.Zero(t, args[1].(*big.Int).Sign())
	require.Equal(t, inner, args[2])

	// the owner signed the user operation hash as a personal message
	userOpHash, err := op.Hash(EntryPointV06, testChainID)
	require.NoError(t, err)
	sig := append([]byte(nil), op.Signature...)
	sig[64] -= 27
	pub, err := crypto.SigToPub(accounts.TextHash(userOpHash.Bytes()), sig)
	require.NoError(t, err)
	require.Equal(t, h.owner.Address(), crypto.PubkeyToAddress(*pub))
}

func TestSendCallReportsInnerRevert(t *testing.T) {
	h := newHarness(t)
	h.eth.reverted = true
	c := h.newClient(t, Config{Account: smartAccount})

	sent, err := c.SendCall(context.Background(), cancelShow())
	require.NoError(t, err)
	require.Equal(t, bundleTxHash.Hex(), sent.TxHash)
	require.False(t, sent.Success)
}

func TestSendCallSponsored(t *testing.T) {
	h := newHarness(t)
	c := h.newClient(t, Config{Account: smartAccount, Sponsor: true})

	_, err := c.SendCall(context.Background(), cancelShow())
	require.NoError(t, err)
	require.Equal(t, 1, h.pm.sponsored)
	require.Zero(t, h.eth.estimates)

	op := h.eth.sent[0]
	require.Equal(t, common.FromHex("0x00000000000000000000000000000000000000ff"), []byte(op.PaymasterAndData))
	require.Equal(t, int64(90000), op.CallGasLimit.ToInt().Int64())
	require.Equal(t, int64(150000), op.VerificationGasLimit.ToInt().Int64())
}

func TestSendCallKeepsSimulatedGas(t *testing.T) {
	h := newHarness(t)
	c := h.newClient(t, Config{Account: smartAccount})

	req := cancelShow()
	req.Gas = 250000
	_, err := c.SendCall(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, int64(250000), h.eth.sent[0].CallGasLimit.ToInt().Int64())
}

func TestUndeployedAccountIsCreatedByFactory(t *testing.T) {
	h := newHarness(t)
	h.chain.code = nil
	h.chain.derived = smartAccount
	c := h.newClient(t, Config{Factory: factoryAddr, Salt: big.NewInt(3)})
	require.Equal(t, smartAccount, c.Address())

	_, err := c.SendCall(context.Background(), cancelShow())
	require.NoError(t, err)

	initCode := []byte(h.eth.sent[0].InitCode)
	require.Equal(t, factoryAddr.Bytes(), initCode[:20])
	create := accountFactoryABI.Methods["createAccount"]
	require.Equal(t, create.ID, initCode[20:24])
	args, err := create.Inputs.Unpack(initCode[24:])
	require.NoError(t, err)
	require.Equal(t, h.owner.Address(), args[0])
	require.Equal(t, int64(3), args[1].(*big.Int).Int64())
	require.Equal(t, []string{"getAddress", "getNonce"}, h.chain.reads)
}

func TestNewRejectsUnsupportedEntryPoint(t *testing.T) {
	h := newHarness(t)
	h.eth.entryPoints = []common.Address{common.HexToAddress("0x0000000071727De22E5E9d8BAf0edAc6f37da032")}

	_, err := New(context.Background(), Config{Account: smartAccount, ChainID: testChainID}, h.chain, h.owner, WithRPCClient(h.client))
	require.ErrorContains(t, err, "not supported")
}

func TestNewRequiresAccountOrFactory(t *testing.T) {
	h := newHarness(t)
	_, err := New(context.Background(), Config{ChainID: testChainID}, h.chain, h.owner, WithRPCClient(h.client))
	require.ErrorContains(t, err, "either account or factory")
}

func TestWaitForUserOperationHonoursContext(t *testing.T) {
	h := newHarness(t)
	h.eth.pending = 1 << 20
	c := h.newClient(t, Config{Account: smartAccount})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := c.WaitForUserOperation(ctx, common.Hash{0x01})
	require.Error(t, err)
}

func TestUserOperationHashIgnoresSignature(t *testing.T) {
	op := &UserOperation{
		Sender:   smartAccount,
		Nonce:    hexBig(big.NewInt(1)),
		CallData: []byte{0x01},
	}
	first, err := op.Hash(EntryPointV06, testChainID)
	require.NoError(t, err)

	op.Signature = []byte{0xff}
	second, err := op.Hash(EntryPointV06, testChainID)
	require.NoError(t, err)
	require.Equal(t, first, second)

	other, err := op.Hash(EntryPointV06, big.NewInt(1))
	require.NoError(t, err)
	require.NotEqual(t, first, other)
}
