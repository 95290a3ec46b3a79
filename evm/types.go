package evm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// CallRequest describes one contract call: the target, the interface it is
// encoded against, the function and its positional arguments. Simulation
// fills in From, Data and Gas so that execution can replay the exact request.
type CallRequest struct {
	To     common.Address
	ABI    *abi.ABI
	Method string
	Args   []interface{}
	Value  *big.Int

	From common.Address
	Data []byte
	Gas  uint64
}

// NewCallRequest creates a CallRequest for method on the contract at to
func NewCallRequest(to common.Address, contractABI *abi.ABI, method string, args ...interface{}) CallRequest {
	return CallRequest{
		To:     to,
		ABI:    contractABI,
		Method: method,
		Args:   args,
	}
}

// WithValue returns a copy of the request carrying a native value
func (r CallRequest) WithValue(value *big.Int) CallRequest {
	if value != nil {
		r.Value = new(big.Int).Set(value)
	}
	return r
}

// Calldata returns the packed call data, packing the arguments if the request
// has not been prepared yet
func (r CallRequest) Calldata() ([]byte, error) {
	if r.Data != nil {
		return r.Data, nil
	}
	if r.ABI == nil {
		return nil, fmt.Errorf("no ABI for method %s", r.Method)
	}
	data, err := r.ABI.Pack(r.Method, r.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", r.Method, err)
	}
	return data, nil
}

// NativeValue returns the value to attach, never nil
func (r CallRequest) NativeValue() *big.Int {
	if r.Value == nil {
		return new(big.Int)
	}
	return r.Value
}

// Unpack decodes return data of the request's method
func (r CallRequest) Unpack(data []byte) ([]interface{}, error) {
	if r.ABI == nil {
		return nil, fmt.Errorf("no ABI for method %s", r.Method)
	}
	out, err := r.ABI.Unpack(r.Method, data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", r.Method, err)
	}
	return out, nil
}

// TransactionReceipt represents the receipt of a mined transaction
type TransactionReceipt struct {
	Status      uint64 `json:"status"`
	BlockNumber uint64 `json:"blockNumber"`
	TxHash      string `json:"transactionHash"`
}

// RelayedCall is the outcome of a call relayed through a smart account. TxHash
// is the bundle transaction that carried it; Success reports whether the
// inner call itself succeeded.
type RelayedCall struct {
	TxHash  string
	Success bool
}

// ContractReader defines the interface for reading from a smart contract
type ContractReader interface {
	Read(ctx context.Context, req CallRequest) ([]interface{}, error)
}

// CodeReader returns the bytecode deployed at an address.
// Empty code means an EOA or an undeployed account.
type CodeReader interface {
	CodeAt(ctx context.Context, account common.Address) ([]byte, error)
}

// SignatureBackend is what universal signature verification needs from the chain
type SignatureBackend interface {
	ContractReader
	CodeReader
}

// TypedDataSigner signs EIP-712 typed data on behalf of an account
type TypedDataSigner interface {
	// Address returns the signing account
	Address() common.Address

	// SignTypedData signs EIP-712 typed data
	SignTypedData(ctx context.Context, domain TypedDataDomain, types map[string][]TypedDataField, primaryType string, message map[string]interface{}) ([]byte, error)
}

// TypedDataDomain represents the EIP-712 domain separator
type TypedDataDomain struct {
	Name              string   `json:"name"`
	Version           string   `json:"version"`
	ChainID           *big.Int `json:"chainId"`
	VerifyingContract string   `json:"verifyingContract"`
}

// TypedDataField represents a field in EIP-712 typed data
type TypedDataField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ERC6492SignatureData represents the parsed components of an ERC-6492 signature.
// ERC-6492 lets undeployed smart accounts sign by wrapping the signature with
// the factory call that would deploy them.
type ERC6492SignatureData struct {
	Factory         common.Address // zero if not ERC-6492
	FactoryCalldata []byte
	InnerSignature  []byte // EIP-1271 or EOA signature
}
