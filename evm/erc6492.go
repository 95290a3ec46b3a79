package evm

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// erc6492MagicBytes is the 32-byte suffix of ERC-6492 wrapped signatures
var erc6492MagicBytes = common.FromHex(ERC6492MagicValue)

// erc6492Arguments is the (address factory, bytes factoryCalldata, bytes signature)
// tuple that precedes the magic suffix
var erc6492Arguments = func() abi.Arguments {
	addressTy, _ := abi.NewType("address", "", nil)
	bytesTy, _ := abi.NewType("bytes", "", nil)
	return abi.Arguments{
		{Type: addressTy},
		{Type: bytesTy},
		{Type: bytesTy},
	}
}()

// HasDeploymentInfo reports whether the signature carries a factory call for
// a counterfactual wallet
func (d *ERC6492SignatureData) HasDeploymentInfo() bool {
	return d.Factory != (common.Address{}) && len(d.FactoryCalldata) > 0
}

// IsERC6492Signature checks if a signature ends with the ERC-6492 magic value
func IsERC6492Signature(sig []byte) bool {
	if len(sig) < 32 {
		return false
	}
	return bytes.Equal(sig[len(sig)-32:], erc6492MagicBytes)
}

// WrapERC6492Signature wraps an inner signature with deployment information:
//
//	abi.encode(factory, factoryCalldata, signature) ++ magicBytes
func WrapERC6492Signature(factory common.Address, factoryCalldata, signature []byte) ([]byte, error) {
	payload, err := erc6492Arguments.Pack(factory, factoryCalldata, signature)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ERC-6492 signature: %w", err)
	}
	return append(payload, erc6492MagicBytes...), nil
}

// ParseERC6492Signature unwraps an ERC-6492 signature. A signature without
// the magic suffix is returned as the inner signature with no factory.
func ParseERC6492Signature(sig []byte) (*ERC6492SignatureData, error) {
	if !IsERC6492Signature(sig) {
		return &ERC6492SignatureData{
			InnerSignature: sig,
		}, nil
	}

	unpacked, err := erc6492Arguments.Unpack(sig[:len(sig)-32])
	if err != nil {
		return nil, err
	}
	if len(unpacked) != 3 {
		return nil, fmt.Errorf("invalid ERC-6492 signature: expected 3 fields, got %d", len(unpacked))
	}

	factory, ok := unpacked[0].(common.Address)
	if !ok {
		return nil, fmt.Errorf("invalid ERC-6492 signature: factory is not an address")
	}
	factoryCalldata, ok := unpacked[1].([]byte)
	if !ok {
		return nil, fmt.Errorf("invalid ERC-6492 signature: factoryCalldata is not bytes")
	}
	innerSignature, ok := unpacked[2].([]byte)
	if !ok {
		return nil, fmt.Errorf("invalid ERC-6492 signature: innerSignature is not bytes")
	}

	return &ERC6492SignatureData{
		Factory:         factory,
		FactoryCalldata: factoryCalldata,
		InnerSignature:  innerSignature,
	}, nil
}
