package bundler

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// UserOperation is an ERC-4337 (EntryPoint v0.6) user operation in its
// JSON-RPC form
type UserOperation struct {
	Sender               common.Address `json:"sender"`
	Nonce                *hexutil.Big   `json:"nonce"`
	InitCode             hexutil.Bytes  `json:"initCode"`
	CallData             hexutil.Bytes  `json:"callData"`
	CallGasLimit         *hexutil.Big   `json:"callGasLimit"`
	VerificationGasLimit *hexutil.Big   `json:"verificationGasLimit"`
	PreVerificationGas   *hexutil.Big   `json:"preVerificationGas"`
	MaxFeePerGas         *hexutil.Big   `json:"maxFeePerGas"`
	MaxPriorityFeePerGas *hexutil.Big   `json:"maxPriorityFeePerGas"`
	PaymasterAndData     hexutil.Bytes  `json:"paymasterAndData"`
	Signature            hexutil.Bytes  `json:"signature"`
}

// GasEstimate is the result of eth_estimateUserOperationGas
type GasEstimate struct {
	PreVerificationGas   *hexutil.Big `json:"preVerificationGas"`
	VerificationGasLimit *hexutil.Big `json:"verificationGasLimit"`
	CallGasLimit         *hexutil.Big `json:"callGasLimit"`
}

// Sponsorship is the result of pm_sponsorUserOperation
type Sponsorship struct {
	PaymasterAndData     hexutil.Bytes `json:"paymasterAndData"`
	PreVerificationGas   *hexutil.Big  `json:"preVerificationGas"`
	VerificationGasLimit *hexutil.Big  `json:"verificationGasLimit"`
	CallGasLimit         *hexutil.Big  `json:"callGasLimit"`
}

// UserOperationReceipt is the result of eth_getUserOperationReceipt
type UserOperationReceipt struct {
	UserOpHash common.Hash    `json:"userOpHash"`
	Sender     common.Address `json:"sender"`
	Success    bool           `json:"success"`
	Reason     string         `json:"reason,omitempty"`
	Receipt    struct {
		TransactionHash common.Hash    `json:"transactionHash"`
		BlockNumber     *hexutil.Big   `json:"blockNumber"`
		Status          hexutil.Uint64 `json:"status"`
	} `json:"receipt"`
}

var (
	addressTy, _ = abi.NewType("address", "", nil)
	uint256Ty, _ = abi.NewType("uint256", "", nil)
	bytes32Ty, _ = abi.NewType("bytes32", "", nil)

	packedUserOpArgs = abi.Arguments{
		{Type: addressTy}, // sender
		{Type: uint256Ty}, // nonce
		{Type: bytes32Ty}, // keccak256(initCode)
		{Type: bytes32Ty}, // keccak256(callData)
		{Type: uint256Ty}, // callGasLimit
		{Type: uint256Ty}, // verificationGasLimit
		{Type: uint256Ty}, // preVerificationGas
		{Type: uint256Ty}, // maxFeePerGas
		{Type: uint256Ty}, // maxPriorityFeePerGas
		{Type: bytes32Ty}, // keccak256(paymasterAndData)
	}
	userOpHashArgs = abi.Arguments{
		{Type: bytes32Ty},
		{Type: addressTy},
		{Type: uint256Ty},
	}
)

// Hash returns the user operation hash the EntryPoint at entryPoint computes
// on chainID. The signature field is not part of it.
func (op *UserOperation) Hash(entryPoint common.Address, chainID *big.Int) (common.Hash, error) {
	packed, err := packedUserOpArgs.Pack(
		op.Sender,
		bigOf(op.Nonce),
		crypto.Keccak256Hash(op.InitCode),
		crypto.Keccak256Hash(op.CallData),
		bigOf(op.CallGasLimit),
		bigOf(op.VerificationGasLimit),
		bigOf(op.PreVerificationGas),
		bigOf(op.MaxFeePerGas),
		bigOf(op.MaxPriorityFeePerGas),
		crypto.Keccak256Hash(op.PaymasterAndData),
	)
	if err != nil {
		return common.Hash{}, err
	}

	encoded, err := userOpHashArgs.Pack(crypto.Keccak256Hash(packed), entryPoint, chainID)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(encoded), nil
}

func bigOf(v *hexutil.Big) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v.ToInt()
}

func hexBig(v *big.Int) *hexutil.Big {
	if v == nil {
		v = new(big.Int)
	}
	return (*hexutil.Big)(new(big.Int).Set(v))
}
