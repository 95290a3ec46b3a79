package evm

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// RecoverSigner returns the address that produced a 65-byte [R || S || V]
// signature over hash. V may be 0/1 or 27/28.
func RecoverSigner(hash []byte, signature []byte) (common.Address, error) {
	if len(signature) != 65 {
		return common.Address{}, errors.New("invalid EOA signature length: expected 65 bytes")
	}

	// Work on a copy, the caller's signature stays untouched
	sig := make([]byte, 65)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	pubKey, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(*pubKey), nil
}

// VerifyEOASignature verifies an ECDSA signature from an externally owned account
func VerifyEOASignature(
	hash []byte,
	signature []byte,
	expectedAddress common.Address,
) (bool, error) {
	recovered, err := RecoverSigner(hash, signature)
	if err != nil {
		return false, err
	}
	return recovered == expectedAddress, nil
}
