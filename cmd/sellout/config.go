package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/sellout-xyz/sellout/go/adapter"
	"github.com/sellout-xyz/sellout/go/client"
	"github.com/sellout-xyz/sellout/go/evm"
	"github.com/sellout-xyz/sellout/go/relay/bundler"
	evmsigner "github.com/sellout-xyz/sellout/go/signers/evm"
)

// Config is read from the environment, after the env file is loaded
type Config struct {
	RPCURL     string `env:"SELLOUT_RPC_URL"`
	ChainID    uint64 `env:"SELLOUT_CHAIN_ID,default=11155111"`
	PrivateKey string `env:"SELLOUT_PRIVATE_KEY"`

	// relayed execution through an ERC-4337 bundler
	BundlerURL     string `env:"SELLOUT_BUNDLER_URL"`
	SmartAccount   string `env:"SELLOUT_SMART_ACCOUNT"`
	AccountFactory string `env:"SELLOUT_ACCOUNT_FACTORY"`
	Sponsor        bool   `env:"SELLOUT_SPONSOR,default=false"`

	// YAML file layered over the built-in deployments
	Deployments string `env:"SELLOUT_DEPLOYMENTS"`

	LogLevel   string `env:"SELLOUT_LOG_LEVEL,default=info"`
	ListenAddr string `env:"SELLOUT_LISTEN_ADDR,default=:8080"`
}

type flags struct {
	envFile     string
	chain       string
	deployments string
}

type app struct {
	flags  flags
	cfg    Config
	logger *zap.Logger
}

// load resolves the configuration: env file, then environment, then flags
func (a *app) load() error {
	if err := godotenv.Load(a.flags.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", a.flags.envFile, err)
	}

	a.cfg = Config{}
	if err := envdecode.Decode(&a.cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return fmt.Errorf("failed to decode environment: %w", err)
	}

	if a.flags.chain != "" {
		id, err := evm.ParseChainID(a.flags.chain)
		if err != nil {
			return err
		}
		a.cfg.ChainID = id
	}
	if a.flags.deployments != "" {
		a.cfg.Deployments = a.flags.deployments
	}

	level, err := zap.ParseAtomicLevel(a.cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", a.cfg.LogLevel, err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = level
	a.logger, err = zcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	return nil
}

func (a *app) deployments() (evm.Deployments, error) {
	if a.cfg.Deployments == "" {
		return nil, nil
	}
	f, err := os.Open(a.cfg.Deployments)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return evm.LoadDeployments(f)
}

func (a *app) resolver() (*evm.Resolver, error) {
	deployments, err := a.deployments()
	if err != nil {
		return nil, err
	}
	merged := evm.DefaultDeployments.Merge(deployments)
	if err := merged.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", a.cfg.Deployments, err)
	}
	return evm.NewResolver(merged), nil
}

// client connects to the node and assembles the SDK. Writes need
// SELLOUT_PRIVATE_KEY; SELLOUT_BUNDLER_URL routes them through a smart
// account owned by that key.
func (a *app) client(ctx context.Context) (*client.Client, error) {
	if a.cfg.RPCURL == "" {
		return nil, errors.New("SELLOUT_RPC_URL is required")
	}
	deployments, err := a.deployments()
	if err != nil {
		return nil, err
	}

	backend, err := evmsigner.Dial(ctx, a.cfg.RPCURL, evmsigner.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}
	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain id: %w", err)
	}
	if !chainID.IsUint64() || chainID.Uint64() != a.cfg.ChainID {
		return nil, fmt.Errorf("node serves chain %s, configured chain is %d", chainID, a.cfg.ChainID)
	}

	var (
		account adapter.Account
		relay   adapter.Relay
	)
	if a.cfg.PrivateKey != "" {
		signer, err := evmsigner.NewSignerFromPrivateKey(a.cfg.PrivateKey, backend)
		if err != nil {
			return nil, err
		}
		account = signer

		if a.cfg.BundlerURL != "" {
			r, err := bundler.New(ctx, bundler.Config{
				URL:     a.cfg.BundlerURL,
				Account: common.HexToAddress(a.cfg.SmartAccount),
				Factory: common.HexToAddress(a.cfg.AccountFactory),
				ChainID: new(big.Int).SetUint64(a.cfg.ChainID),
				Sponsor: a.cfg.Sponsor,
			}, backend, signer, bundler.WithLogger(a.logger))
			if err != nil {
				return nil, err
			}
			relay = r
		}
	} else if a.cfg.BundlerURL != "" {
		return nil, errors.New("SELLOUT_BUNDLER_URL needs SELLOUT_PRIVATE_KEY to sign user operations")
	}

	return client.New(client.Config{
		ChainID:     a.cfg.ChainID,
		Deployments: deployments,
		Backend:     backend,
		Account:     account,
		Relay:       relay,
		Logger:      a.logger,
	})
}
