package client

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	sellout "github.com/sellout-xyz/sellout/go"
	"github.com/sellout-xyz/sellout/go/adapter"
	"github.com/sellout-xyz/sellout/go/evm"
	"github.com/sellout-xyz/sellout/go/evm/abis"
)

// fakeBackend answers every eth_call with out and mines every transaction
type fakeBackend struct {
	mu     sync.Mutex
	out    []byte
	status uint64
	calls  []ethereum.CallMsg
}

func (b *fakeBackend) CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, msg)
	return b.out, nil
}

func (b *fakeBackend) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	return 50000, nil
}

func (b *fakeBackend) CodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return nil, nil
}

func (b *fakeBackend) WaitForTransactionReceipt(ctx context.Context, txHash string) (*evm.TransactionReceipt, error) {
	return &evm.TransactionReceipt{Status: b.status, BlockNumber: 100, TxHash: txHash}, nil
}

type fakeAccount struct {
	addr common.Address
	sent []evm.CallRequest
}

func (a *fakeAccount) Address() common.Address { return a.addr }

func (a *fakeAccount) SendTransaction(ctx context.Context, req evm.CallRequest) (string, error) {
	a.sent = append(a.sent, req)
	return crypto.Keccak256Hash([]byte{byte(len(a.sent))}).Hex(), nil
}

type fakeRelay struct{ addr common.Address }

func (r *fakeRelay) Address() common.Address { return r.addr }

func (r *fakeRelay) SendCall(ctx context.Context, req evm.CallRequest) (*evm.RelayedCall, error) {
	return &evm.RelayedCall{TxHash: common.Hash{0x01}.Hex(), Success: true}, nil
}

var organizer = common.HexToAddress("0x00000000000000000000000000000000000000e0")

const showID = "0x0000000000000000000000000000000000000000000000000000000000000001"

func newClient(t *testing.T, backend *fakeBackend, account adapter.Account, relay adapter.Relay) *Client {
	t.Helper()
	c, err := New(Config{
		ChainID: evm.ChainIDSepolia,
		Backend: backend,
		Account: account,
		Relay:   relay,
		Logger:  zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	return c
}

func TestNewResolvesNetwork(t *testing.T) {
	c := newClient(t, &fakeBackend{}, &fakeAccount{addr: organizer}, nil)
	require.Equal(t, uint64(evm.ChainIDSepolia), c.Chain().ChainID())
	require.Equal(t, organizer, c.Sender())
	require.Equal(t, sellout.StrategyDirect, c.Session().Strategy().Name())

	_, err := New(Config{ChainID: 999999, Backend: &fakeBackend{}})
	require.ErrorIs(t, err, sellout.ErrUnsupportedNetwork)

	_, err = New(Config{ChainID: evm.ChainIDSepolia})
	require.Error(t, err)
}

func TestNewWithCustomDeployment(t *testing.T) {
	show := common.HexToAddress("0x00000000000000000000000000000000000005a0")
	anvil := evm.Deployment{
		ChainID:   31337,
		Name:      "anvil",
		Contracts: map[evm.ContractName]common.Address{},
	}
	for i, name := range evm.ContractNames {
		anvil.Contracts[name] = common.BigToAddress(big.NewInt(int64(0x5a0 + i)))
	}

	c, err := New(Config{
		ChainID:     31337,
		Backend:     &fakeBackend{},
		Deployments: evm.Deployments{31337: anvil},
	})
	require.NoError(t, err)
	require.Equal(t, "anvil", c.Chain().Name())

	s, err := c.Show()
	require.NoError(t, err)
	require.Equal(t, show, s.Address)
	_, err = c.BoxOffice()
	require.NoError(t, err)

	partial := evm.Deployment{
		ChainID:   31337,
		Contracts: map[evm.ContractName]common.Address{evm.ContractShow: show},
	}
	_, err = New(Config{
		ChainID:     31337,
		Backend:     &fakeBackend{},
		Deployments: evm.Deployments{31337: partial},
	})
	var unsupported *sellout.UnsupportedNetworkError
	require.ErrorAs(t, err, &unsupported)
	require.Contains(t, unsupported.Missing, "BoxOffice")
}

func TestRelaySelectsSmartAccount(t *testing.T) {
	smart := common.HexToAddress("0x00000000000000000000000000000000000000a0")
	c := newClient(t, &fakeBackend{}, &fakeAccount{addr: organizer}, &fakeRelay{addr: smart})
	require.Equal(t, smart, c.Sender())
	require.Equal(t, sellout.StrategyRelayed, c.Session().Strategy().Name())
}

func TestReadThroughWrapper(t *testing.T) {
	out, err := abis.Show().Methods["isOrganizer"].Outputs.Pack(true)
	require.NoError(t, err)
	backend := &fakeBackend{out: out}
	c := newClient(t, backend, &fakeAccount{addr: organizer}, nil)

	s, err := c.Show()
	require.NoError(t, err)
	ok, err := s.IsOrganizer(context.Background(), showID, organizer.Hex())
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, backend.calls, 1)
	require.Equal(t, s.Address, *backend.calls[0].To)
}

func TestMutationThroughWrapper(t *testing.T) {
	backend := &fakeBackend{status: evm.TxStatusSuccess}
	account := &fakeAccount{addr: organizer}
	c := newClient(t, backend, account, nil)

	s, err := c.Show()
	require.NoError(t, err)
	res, err := s.CancelShow(context.Background(), showID)
	require.NoError(t, err)
	require.Equal(t, sellout.StatusSuccess, res.Receipt.Status)
	require.Equal(t, res.Hash, res.Receipt.TxHash)
	require.Equal(t, uint64(100), res.Receipt.BlockNumber)

	// the simulated request is what gets sent
	require.Len(t, account.sent, 1)
	require.Equal(t, organizer, account.sent[0].From)
	require.Equal(t, uint64(60000), account.sent[0].Gas)

	backend.status = evm.TxStatusFailed
	res, err = s.CancelShow(context.Background(), showID)
	require.NoError(t, err)
	require.Equal(t, sellout.StatusReverted, res.Receipt.Status)
}

func TestMutationWithoutAccount(t *testing.T) {
	c := newClient(t, &fakeBackend{status: evm.TxStatusSuccess}, nil, nil)

	s, err := c.Show()
	require.NoError(t, err)
	_, err = s.CancelShow(context.Background(), showID)

	var execErr *sellout.ExecutionError
	require.True(t, errors.As(err, &execErr))
	require.Equal(t, sellout.StageSubmit, execErr.Stage)
	require.ErrorIs(t, err, adapter.ErrNoAccount)
}

func TestProxyWrappers(t *testing.T) {
	c := newClient(t, &fakeBackend{}, &fakeAccount{addr: organizer}, nil)

	_, err := c.Ticket("")
	require.ErrorIs(t, err, sellout.ErrValidation)
	_, err = c.Vault("0x12")
	require.ErrorIs(t, err, sellout.ErrValidation)

	tk, err := c.Ticket("0x00000000000000000000000000000000000000c1")
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress("0xc1"), tk.Address)

	v, err := c.CheckIn("0x00000000000000000000000000000000000000c1")
	require.NoError(t, err)
	require.Equal(t, tk.Address.Hex(), v.Domain().VerifyingContract)

	for _, get := range []func() error{
		func() error { _, err := c.BoxOffice(); return err },
		func() error { _, err := c.Venue(); return err },
		func() error { _, err := c.Artists(); return err },
		func() error { _, err := c.Organizers(); return err },
		func() error { _, err := c.Venues(); return err },
		func() error { _, err := c.Referral(); return err },
	} {
		require.NoError(t, get())
	}
}
