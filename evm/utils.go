package evm

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// CreateNonce generates a random 32-byte nonce
func CreateNonce() (*big.Int, error) {
	nonce := make([]byte, 32)
	_, err := rand.Read(nonce)
	if err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return new(big.Int).SetBytes(nonce), nil
}

// IsValidAddress checks if a string is a valid Ethereum address.
// The 0x prefix is optional.
func IsValidAddress(address string) bool {
	addr := strings.TrimPrefix(strings.TrimPrefix(address, "0x"), "0X")

	// 40 hex characters
	if len(addr) != 40 {
		return false
	}

	_, err := hex.DecodeString(addr)
	return err == nil
}

// HexToBytes converts a hex string to bytes
func HexToBytes(hexStr string) ([]byte, error) {
	cleaned := strings.TrimPrefix(strings.TrimPrefix(hexStr, "0x"), "0X")
	return hex.DecodeString(cleaned)
}

// HexToBytes32 converts a hex string of exactly 32 bytes to a bytes32 value
func HexToBytes32(hexStr string) ([32]byte, error) {
	var out [32]byte
	b, err := HexToBytes(hexStr)
	if err != nil {
		return out, err
	}
	if len(b) != 32 {
		return out, fmt.Errorf("want 32 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}
