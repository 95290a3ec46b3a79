package types

import (
	"errors"
	"strings"

	sellout "github.com/sellout-xyz/sellout/go"
)

// Error kinds reported in ErrorResponse
const (
	KindValidation         = "validation"
	KindUnsupportedNetwork = "unsupported_network"
	KindRead               = "read"
	KindExecution          = "execution"
	KindBadRequest         = "bad_request"
	KindInternal           = "internal"
)

// ErrorResponse is the body of every failed gateway request
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	Operation string `json:"operation,omitempty"`
	Field     string `json:"field,omitempty"`
	ChainID   uint64 `json:"chainId,omitempty"`
	Target    string `json:"target,omitempty"`
	Method    string `json:"method,omitempty"`
	Strategy  string `json:"strategy,omitempty"`
	Stage     string `json:"stage,omitempty"`
	Reason    string `json:"reason,omitempty"`
	TxHash    string `json:"transactionHash,omitempty"`
}

// NewErrorResponse describes err, copying the details of the SDK's typed
// errors
func NewErrorResponse(err error) ErrorResponse {
	resp := ErrorResponse{Error: err.Error(), Kind: KindInternal}

	var (
		validationErr  *sellout.ValidationError
		unsupportedErr *sellout.UnsupportedNetworkError
		readErr        *sellout.ReadError
		execErr        *sellout.ExecutionError
	)
	switch {
	case errors.As(err, &validationErr):
		resp.Kind = KindValidation
		resp.Operation = validationErr.Operation
		resp.Field = validationErr.Field
		resp.Reason = validationErr.Reason
	case errors.As(err, &unsupportedErr):
		resp.Kind = KindUnsupportedNetwork
		resp.ChainID = unsupportedErr.ChainID
		if len(unsupportedErr.Missing) > 0 {
			resp.Reason = "missing contracts: " + strings.Join(unsupportedErr.Missing, ", ")
		}
	case errors.As(err, &execErr):
		resp.Kind = KindExecution
		resp.Target = execErr.Target
		resp.Method = execErr.Method
		resp.Strategy = execErr.Strategy
		resp.Stage = execErr.Stage
		resp.Reason = execErr.Reason
		resp.TxHash = execErr.TxHash
	case errors.As(err, &readErr):
		resp.Kind = KindRead
		resp.Target = readErr.Target
		resp.Method = readErr.Method
	}
	return resp
}

// BadRequest describes a request the gateway could not decode
func BadRequest(msg string) ErrorResponse {
	return ErrorResponse{Error: msg, Kind: KindBadRequest}
}
