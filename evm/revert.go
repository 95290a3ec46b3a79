package evm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// RevertData extracts the raw revert payload carried by a JSON-RPC error
func RevertData(err error) []byte {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return nil
	}
	switch v := dataErr.ErrorData().(type) {
	case string:
		data, decodeErr := hexutil.Decode(v)
		if decodeErr != nil {
			return nil
		}
		return data
	case []byte:
		return v
	}
	return nil
}

// DecodeRevertData turns a revert payload into a readable reason. Error(string)
// and Panic(uint256) are decoded natively, custom errors are looked up in the
// given interfaces. ok is false if nothing matched.
func DecodeRevertData(data []byte, abis ...*abi.ABI) (string, bool) {
	if len(data) < 4 {
		return "", false
	}
	if reason, err := abi.UnpackRevert(data); err == nil {
		return reason, true
	}

	var selector [4]byte
	copy(selector[:], data[:4])
	for _, contractABI := range abis {
		if contractABI == nil {
			continue
		}
		customErr, err := contractABI.ErrorByID(selector)
		if err != nil {
			continue
		}
		values, err := customErr.Unpack(data)
		if err != nil {
			return customErr.Name, true
		}
		return formatCustomError(customErr.Name, values), true
	}
	return "", false
}

// DecodeRevert returns a readable reason for a failed call. It falls back to
// the node's message when the payload is missing or unknown.
func DecodeRevert(err error, abis ...*abi.ABI) string {
	if err == nil {
		return ""
	}
	if data := RevertData(err); data != nil {
		if reason, ok := DecodeRevertData(data, abis...); ok {
			return reason
		}
		return fmt.Sprintf("unknown error %s", hexutil.Encode(data[:min(len(data), 4)]))
	}
	msg := err.Error()
	if i := strings.Index(msg, "execution reverted: "); i >= 0 {
		return msg[i+len("execution reverted: "):]
	}
	return msg
}

// IsRevert reports whether err is an EVM revert rather than a transport failure
func IsRevert(err error) bool {
	if err == nil {
		return false
	}
	if RevertData(err) != nil {
		return true
	}
	return strings.Contains(err.Error(), "execution reverted")
}

func formatCustomError(name string, values interface{}) string {
	args, ok := values.([]interface{})
	if !ok || len(args) == 0 {
		return name + "()"
	}
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = fmt.Sprintf("%v", arg)
	}
	return name + "(" + strings.Join(parts, ", ") + ")"
}
