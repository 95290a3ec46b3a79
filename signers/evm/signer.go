package evm

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	selloutevm "github.com/sellout-xyz/sellout/go/evm"
)

// Signer is an externally owned account bound to a Backend. It submits
// transactions and signs messages and typed data with its private key.
type Signer struct {
	*Backend
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// NewSigner creates a Signer from a private key
func NewSigner(privateKey *ecdsa.PrivateKey, backend *Backend) *Signer {
	return &Signer{
		Backend:    backend,
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
	}
}

// NewSignerFromPrivateKey creates a Signer from a hex-encoded private key,
// with or without the 0x prefix
func NewSignerFromPrivateKey(privateKeyHex string, backend *Backend) (*Signer, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return NewSigner(privateKey, backend), nil
}

// Address returns the account address
func (s *Signer) Address() common.Address {
	return s.address
}

// SendTransaction signs and submits req and returns the transaction hash. A
// simulated request is replayed as is; a request without Gas is estimated
// here with the same buffer and fallback the simulator uses.
func (s *Signer) SendTransaction(ctx context.Context, req selloutevm.CallRequest) (string, error) {
	if s.Backend == nil {
		return "", fmt.Errorf("RPC client not configured")
	}

	data, err := req.Calldata()
	if err != nil {
		return "", err
	}

	chainID, err := s.client.ChainID(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get chain ID: %w", err)
	}

	nonce, err := s.client.PendingNonceAt(ctx, s.address)
	if err != nil {
		return "", fmt.Errorf("failed to get nonce: %w", err)
	}

	gasLimit := req.Gas
	if gasLimit == 0 {
		gasLimit, err = s.client.EstimateGas(ctx, ethereum.CallMsg{
			From:  s.address,
			To:    &req.To,
			Data:  data,
			Value: req.NativeValue(),
		})
		if err != nil {
			s.logger.Warn("gas estimation failed, using default limit", zap.Error(err))
			gasLimit = selloutevm.DefaultGasLimit
		} else {
			gasLimit = gasLimit * selloutevm.GasBufferPercent / 100
		}
	}

	fees, err := s.SuggestFees(ctx)
	if err != nil {
		return "", err
	}

	to := req.To
	var txData types.TxData
	if fees.Legacy() {
		txData = &types.LegacyTx{
			Nonce:    nonce,
			GasPrice: fees.GasPrice,
			Gas:      gasLimit,
			To:       &to,
			Value:    req.NativeValue(),
			Data:     data,
		}
	} else {
		txData = &types.DynamicFeeTx{
			ChainID:   chainID,
			Nonce:     nonce,
			GasTipCap: fees.GasTipCap,
			GasFeeCap: fees.GasFeeCap,
			Gas:       gasLimit,
			To:        &to,
			Value:     req.NativeValue(),
			Data:      data,
		}
	}

	signedTx, err := types.SignTx(types.NewTx(txData), types.LatestSignerForChainID(chainID), s.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := s.client.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}

	s.logger.Debug("transaction sent",
		zap.String("txHash", signedTx.Hash().Hex()),
		zap.Uint64("nonce", nonce),
		zap.Uint64("gas", gasLimit))
	return signedTx.Hash().Hex(), nil
}

// SignTypedData signs EIP-712 typed data. The signature is [R || S || V]
// with V in {27, 28}.
func (s *Signer) SignTypedData(
	ctx context.Context,
	domain selloutevm.TypedDataDomain,
	types map[string][]selloutevm.TypedDataField,
	primaryType string,
	message map[string]interface{},
) ([]byte, error) {
	digest, err := selloutevm.HashTypedData(domain, types, primaryType, message)
	if err != nil {
		return nil, err
	}
	return s.sign(digest)
}

// SignMessage signs msg as an EIP-191 personal message
func (s *Signer) SignMessage(ctx context.Context, msg []byte) ([]byte, error) {
	return s.sign(accounts.TextHash(msg))
}

func (s *Signer) sign(digest []byte) ([]byte, error) {
	signature, err := crypto.Sign(digest, s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}
	signature[64] += 27
	return signature, nil
}
