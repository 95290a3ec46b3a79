package validation

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	sellout "github.com/sellout-xyz/sellout/go"
	"github.com/sellout-xyz/sellout/go/evm"
)

var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// Coercer converts schema-checked strings into ABI values. The first failure
// sticks, later calls return zero values, and Err reports it.
type Coercer struct {
	operation string
	err       error
}

// Coerce starts a coercion pass for operation
func Coerce(operation string) *Coercer {
	return &Coercer{operation: operation}
}

// Err returns the first coercion failure as a *sellout.ValidationError
func (c *Coercer) Err() error {
	return c.err
}

func (c *Coercer) fail(field, reason string) {
	if c.err == nil {
		c.err = sellout.NewValidationError(c.operation, field, reason)
	}
}

// Address returns the checksummed form of a loose address string
func (c *Coercer) Address(field, s string) common.Address {
	if c.err != nil {
		return common.Address{}
	}
	if !evm.IsValidAddress(s) {
		c.fail(field, fmt.Sprintf("invalid address %q", s))
		return common.Address{}
	}
	return common.HexToAddress(s)
}

// OptionalAddress is Address with an empty string meaning the zero address
func (c *Coercer) OptionalAddress(field, s string) common.Address {
	if s == "" {
		return common.Address{}
	}
	return c.Address(field, s)
}

// Addresses coerces a list, reporting failures as field.<index>
func (c *Coercer) Addresses(field string, in []string) []common.Address {
	out := make([]common.Address, len(in))
	for i, s := range in {
		out[i] = c.Address(field+"."+strconv.Itoa(i), s)
	}
	return out
}

// BigInt parses a decimal or 0x-prefixed unsigned integer that fits in a uint256
func (c *Coercer) BigInt(field, s string) *big.Int {
	if c.err != nil {
		return new(big.Int)
	}
	v, ok := parseBig(s)
	if !ok || v.Sign() < 0 {
		c.fail(field, fmt.Sprintf("invalid unsigned integer %q", s))
		return new(big.Int)
	}
	if v.Cmp(maxUint256) > 0 {
		c.fail(field, "value exceeds uint256")
		return new(big.Int)
	}
	return v
}

// OptionalBigInt is BigInt with an empty string meaning nil
func (c *Coercer) OptionalBigInt(field, s string) *big.Int {
	if s == "" {
		return nil
	}
	return c.BigInt(field, s)
}

// SignedBigInt parses a decimal int256
func (c *Coercer) SignedBigInt(field, s string) *big.Int {
	if c.err != nil {
		return new(big.Int)
	}
	v, ok := parseBig(s)
	if !ok || v.BitLen() > 255 {
		c.fail(field, fmt.Sprintf("invalid signed integer %q", s))
		return new(big.Int)
	}
	return v
}

// BigInts coerces a list of unsigned integers
func (c *Coercer) BigInts(field string, in []string) []*big.Int {
	out := make([]*big.Int, len(in))
	for i, s := range in {
		out[i] = c.BigInt(field+"."+strconv.Itoa(i), s)
	}
	return out
}

// Bytes32 parses exactly 32 bytes of hex
func (c *Coercer) Bytes32(field, s string) [32]byte {
	if c.err != nil {
		return [32]byte{}
	}
	out, err := evm.HexToBytes32(s)
	if err != nil || s == "" {
		c.fail(field, fmt.Sprintf("invalid bytes32 %q", s))
		return [32]byte{}
	}
	return out
}

// Bytes parses arbitrary hex. An empty string is empty bytes.
func (c *Coercer) Bytes(field, s string) []byte {
	if c.err != nil {
		return nil
	}
	out, err := evm.HexToBytes(s)
	if err != nil {
		c.fail(field, fmt.Sprintf("invalid hex %q", s))
		return nil
	}
	return out
}

// Uint8 range-checks v
func (c *Coercer) Uint8(field string, v int) uint8 {
	if c.err != nil {
		return 0
	}
	if v < 0 || v > 255 {
		c.fail(field, fmt.Sprintf("%d out of uint8 range", v))
		return 0
	}
	return uint8(v)
}

func parseBig(s string) (*big.Int, bool) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return new(big.Int).SetString(s[2:], 16)
	}
	return new(big.Int).SetString(s, 10)
}
