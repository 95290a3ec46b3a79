/*
Package unwrap provides typed accessors for the decoded results of contract
reads. Every function takes the ([]interface{}, error) pair returned by
Invoker.Read directly, so that

	owner, err := unwrap.Bool(invoker.Read(ctx, req))

reads naturally. An error from the read itself is returned unchanged;
results of the wrong shape fail with a *sellout.ReadError.
*/
package unwrap

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	sellout "github.com/sellout-xyz/sellout/go"
)

func decodeError(format string, args ...interface{}) error {
	return sellout.NewReadError("", "", fmt.Errorf(format, args...))
}

// Item expects exactly one return value and returns it
func Item(out []interface{}, err error) (interface{}, error) {
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, decodeError("expected one return value, got %d", len(out))
	}
	return out[0], nil
}

// Values expects exactly n return values
func Values(out []interface{}, err error, n int) ([]interface{}, error) {
	if err != nil {
		return nil, err
	}
	if len(out) != n {
		return nil, decodeError("expected %d return values, got %d", n, len(out))
	}
	return out, nil
}

// As converts one decoded value to T
func As[T any](v interface{}) (T, error) {
	res, ok := v.(T)
	if !ok {
		var zero T
		return zero, decodeError("unexpected return type %T, want %T", v, zero)
	}
	return res, nil
}

func single[T any](out []interface{}, err error) (T, error) {
	v, err := Item(out, err)
	if err != nil {
		var zero T
		return zero, err
	}
	return As[T](v)
}

// Bool expects a single bool
func Bool(out []interface{}, err error) (bool, error) {
	return single[bool](out, err)
}

// BigInt expects a single uint256 or int256
func BigInt(out []interface{}, err error) (*big.Int, error) {
	return single[*big.Int](out, err)
}

// Uint8 expects a single uint8
func Uint8(out []interface{}, err error) (uint8, error) {
	return single[uint8](out, err)
}

// Address expects a single address
func Address(out []interface{}, err error) (common.Address, error) {
	return single[common.Address](out, err)
}

// Bytes32 expects a single bytes32
func Bytes32(out []interface{}, err error) ([32]byte, error) {
	return single[[32]byte](out, err)
}

// String expects a single string
func String(out []interface{}, err error) (string, error) {
	return single[string](out, err)
}

// BigInts expects n uint256 values, as returned by functions with several
// numeric outputs
func BigInts(out []interface{}, err error, n int) ([]*big.Int, error) {
	values, err := Values(out, err, n)
	if err != nil {
		return nil, err
	}
	res := make([]*big.Int, n)
	for i, v := range values {
		if res[i], err = As[*big.Int](v); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Tuple expects a single tuple and copies it into a new T whose fields match
// the tuple components by name
func Tuple[T any](out []interface{}, err error) (res *T, tupleErr error) {
	v, err := Item(out, err)
	if err != nil {
		return nil, err
	}
	// abi.ConvertType panics on a shape mismatch
	defer func() {
		if r := recover(); r != nil {
			res = nil
			tupleErr = decodeError("cannot decode %T into %T: %v", v, new(T), r)
		}
	}()
	return abi.ConvertType(v, new(T)).(*T), nil
}
