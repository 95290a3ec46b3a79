package evm

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

// VerifyUniversalSignature verifies signatures from EOA, EIP-1271 and
// ERC-6492 sources.
//
// A bare 65-byte signature is checked by ECDSA recovery without touching the
// chain. Anything else looks up the signer's code: deployed accounts go
// through EIP-1271, undeployed accounts with ERC-6492 deployment info are
// accepted only when allowUndeployed is set, and undeployed accounts without
// it fall back to ECDSA recovery.
func VerifyUniversalSignature(
	ctx context.Context,
	backend SignatureBackend,
	signer common.Address,
	hash [32]byte,
	signature []byte,
	allowUndeployed bool,
) (bool, *ERC6492SignatureData, error) {
	sigData, err := ParseERC6492Signature(signature)
	if err != nil {
		return false, nil, err
	}

	if len(sigData.InnerSignature) == 65 && sigData.Factory == (common.Address{}) {
		valid, err := VerifyEOASignature(hash[:], sigData.InnerSignature, signer)
		return valid, sigData, err
	}

	code, err := backend.CodeAt(ctx, signer)
	if err != nil {
		return false, nil, err
	}

	if len(code) == 0 {
		if sigData.HasDeploymentInfo() {
			if !allowUndeployed {
				return false, nil, errors.New(ErrUndeployedSmartWallet + ": undeployed not allowed")
			}
			return true, sigData, nil
		}

		valid, err := VerifyEOASignature(hash[:], sigData.InnerSignature, signer)
		return valid, sigData, err
	}

	valid, err := VerifyEIP1271Signature(ctx, backend, signer, hash, sigData.InnerSignature)
	return valid, sigData, err
}
