// Package client assembles the SDK for one network: it resolves the
// deployment, builds the adapter and simulator, and hands out the operation
// wrappers bound to them.
package client

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/sellout-xyz/sellout/go/adapter"
	"github.com/sellout-xyz/sellout/go/checkin"
	"github.com/sellout-xyz/sellout/go/contracts/boxoffice"
	"github.com/sellout-xyz/sellout/go/contracts/referral"
	"github.com/sellout-xyz/sellout/go/contracts/registry"
	"github.com/sellout-xyz/sellout/go/contracts/show"
	"github.com/sellout-xyz/sellout/go/contracts/ticket"
	"github.com/sellout-xyz/sellout/go/contracts/vault"
	"github.com/sellout-xyz/sellout/go/contracts/venue"
	"github.com/sellout-xyz/sellout/go/evm"
	"github.com/sellout-xyz/sellout/go/evm/abis"
)

// Backend is the chain access the SDK needs. *evmsigner.Backend satisfies it.
type Backend interface {
	adapter.Backend
	adapter.SimulationBackend
	evm.CodeReader
}

// Config configures a Client
type Config struct {
	// ChainID selects the network; it must have a deployment table
	ChainID uint64

	// Deployments overrides or extends evm.DefaultDeployments
	Deployments evm.Deployments

	Backend Backend

	// Account sends transactions directly. Ignored when Relay is set.
	Account adapter.Account

	// Relay sends calls through a smart account
	Relay adapter.Relay

	Logger *zap.Logger
}

// Client is the SDK bound to one network
type Client struct {
	chain   *evm.ChainContext
	backend Backend
	session *adapter.Session
	logger  *zap.Logger
}

// New resolves the network and builds the client. An unknown chain id fails
// with *sellout.UnsupportedNetworkError.
func New(cfg Config) (*Client, error) {
	if cfg.Backend == nil {
		return nil, errors.New("client: backend is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	deployments := evm.DefaultDeployments.Merge(cfg.Deployments)
	chain, err := evm.NewResolver(deployments).Resolve(cfg.ChainID)
	if err != nil {
		return nil, err
	}

	opts := []adapter.Option{
		adapter.WithLogger(logger),
		adapter.WithErrorABIs(abis.All()...),
	}
	a := adapter.New(cfg.Backend, cfg.Account, cfg.Relay, opts...)
	session := adapter.NewSession(a, adapter.NewSimulator(cfg.Backend, opts...))

	logger.Info("client ready",
		zap.Uint64("chainId", chain.ChainID()),
		zap.String("network", chain.Name()),
		zap.String("strategy", a.Strategy().Name()),
		zap.String("sender", a.Sender().Hex()))

	return &Client{
		chain:   chain,
		backend: cfg.Backend,
		session: session,
		logger:  logger,
	}, nil
}

// Chain returns the resolved network
func (c *Client) Chain() *evm.ChainContext {
	return c.chain
}

// Session returns the adapter and simulator the wrappers run on
func (c *Client) Session() *adapter.Session {
	return c.session
}

// Sender returns the account writes are attributed to
func (c *Client) Sender() common.Address {
	return c.session.Sender()
}

// Show returns the Show contract
func (c *Client) Show() (*show.Contract, error) {
	return show.New(c.session, c.chain)
}

// BoxOffice returns the BoxOffice contract
func (c *Client) BoxOffice() (*boxoffice.Contract, error) {
	return boxoffice.New(c.session, c.chain)
}

// Venue returns the venue governance contract
func (c *Client) Venue() (*venue.Contract, error) {
	return venue.New(c.session, c.chain)
}

// Registry returns the registry of role
func (c *Client) Registry(role registry.Role) (*registry.Contract, error) {
	return registry.New(c.session, c.chain, role)
}

// Artists returns the artist registry
func (c *Client) Artists() (*registry.Contract, error) {
	return c.Registry(registry.Artist)
}

// Organizers returns the organizer registry
func (c *Client) Organizers() (*registry.Contract, error) {
	return c.Registry(registry.Organizer)
}

// Venues returns the venue registry
func (c *Client) Venues() (*registry.Contract, error) {
	return c.Registry(registry.Venue)
}

// Referral returns the referral module
func (c *Client) Referral() (*referral.Contract, error) {
	return referral.New(c.session, c.chain)
}

// Ticket returns the ticket proxy of a show
func (c *Client) Ticket(proxy string) (*ticket.Contract, error) {
	return ticket.New(c.session, proxy)
}

// Vault returns the vault proxy of a show
func (c *Client) Vault(proxy string) (*vault.Contract, error) {
	return vault.New(c.session, proxy)
}

// CheckIn returns a check-in verifier for the ticket proxy of a show
func (c *Client) CheckIn(proxy string, opts ...checkin.Option) (*checkin.Verifier, error) {
	opts = append([]checkin.Option{checkin.WithLogger(c.logger)}, opts...)
	return checkin.NewVerifier(c.session, c.backend, c.chain, proxy, opts...)
}
