package evm

import (
	"context"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// eip1271ABI is the minimal ABI for EIP-1271's isValidSignature function
const eip1271ABI = `[{
	"inputs": [
		{"type": "bytes32", "name": "hash"},
		{"type": "bytes", "name": "signature"}
	],
	"name": "isValidSignature",
	"outputs": [{"type": "bytes4", "name": "magicValue"}],
	"stateMutability": "view",
	"type": "function"
}]`

var eip1271 = mustParseABI(eip1271ABI)

// eip1271MagicValue is bytes4(keccak256("isValidSignature(bytes32,bytes)"))
var eip1271MagicValue = [4]byte{0x16, 0x26, 0xba, 0x7e}

func mustParseABI(definition string) *abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic(err)
	}
	return &parsed
}

// VerifyEIP1271Signature calls isValidSignature(bytes32,bytes) on a smart
// contract wallet and checks for the magic value 0x1626ba7e
func VerifyEIP1271Signature(
	ctx context.Context,
	reader ContractReader,
	wallet common.Address,
	hash [32]byte,
	signature []byte,
) (bool, error) {
	result, err := reader.Read(ctx, NewCallRequest(wallet, eip1271, "isValidSignature", hash, signature))
	if err != nil {
		return false, err
	}
	if len(result) == 0 {
		return false, errors.New("empty return from isValidSignature")
	}

	var returned [4]byte
	switch v := result[0].(type) {
	case [4]byte:
		returned = v
	case []byte:
		if len(v) < 4 {
			return false, errors.New("invalid return value from isValidSignature: too short")
		}
		copy(returned[:], v[:4])
	default:
		return false, errors.New("invalid return type from isValidSignature: expected bytes4")
	}

	return returned == eip1271MagicValue, nil
}
