package sellout

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels matched by the typed errors below through errors.Is
var (
	ErrUnsupportedNetwork = errors.New("unsupported network")
	ErrValidation         = errors.New("validation failed")
	ErrRead               = errors.New("contract read failed")
	ErrExecution          = errors.New("contract execution failed")
)

// Execution stages reported by ExecutionError
const (
	StageSimulate = "simulate"
	StageSubmit   = "submit"
	StageRelay    = "relay"
	StageReceipt  = "receipt"
)

// UnsupportedNetworkError is returned when a chain id has no deployment table,
// or when its table lacks some of the contracts listed in Missing
type UnsupportedNetworkError struct {
	ChainID uint64
	Missing []string
}

// NewUnsupportedNetworkError creates an UnsupportedNetworkError
func NewUnsupportedNetworkError(chainID uint64) *UnsupportedNetworkError {
	return &UnsupportedNetworkError{ChainID: chainID}
}

func (e *UnsupportedNetworkError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("unsupported network: %d: incomplete deployment, missing %s",
			e.ChainID, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("unsupported network: %d", e.ChainID)
}

// Is matches ErrUnsupportedNetwork
func (e *UnsupportedNetworkError) Is(target error) bool {
	return target == ErrUnsupportedNetwork
}

// ValidationError is returned when caller input does not conform to the
// operation's schema. It is always produced before any network access.
type ValidationError struct {
	Operation string
	Field     string
	Reason    string
}

// NewValidationError creates a ValidationError
func NewValidationError(operation, field, reason string) *ValidationError {
	return &ValidationError{
		Operation: operation,
		Field:     field,
		Reason:    reason,
	}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: invalid input: %s", e.Operation, e.Reason)
	}
	return fmt.Sprintf("%s: invalid %s: %s", e.Operation, e.Field, e.Reason)
}

// Is matches ErrValidation
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ReadError is returned when a stateless call fails or its result cannot be
// decoded. Decoding failures may leave Target and Method empty.
type ReadError struct {
	Target string
	Method string
	Err    error
}

// NewReadError creates a ReadError
func NewReadError(target, method string, err error) *ReadError {
	return &ReadError{
		Target: target,
		Method: method,
		Err:    err,
	}
}

func (e *ReadError) Error() string {
	msg := "read failed"
	if e.Method != "" || e.Target != "" {
		msg = fmt.Sprintf("read %s on %s failed", e.Method, e.Target)
	}
	if e.Err == nil {
		return msg
	}
	return msg + ": " + e.Err.Error()
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// Is matches ErrRead
func (e *ReadError) Is(target error) bool {
	return target == ErrRead
}

// ExecutionError is returned when a state-changing call is rejected during
// simulation, fails to submit, the relay is unavailable, or the receipt
// cannot be fetched. Reason carries a decoded revert reason when one exists.
type ExecutionError struct {
	Target   string
	Method   string
	Strategy string
	Stage    string
	Reason   string
	TxHash   string
	Err      error
}

// NewExecutionError creates an ExecutionError
func NewExecutionError(stage, strategy, target, method string, err error) *ExecutionError {
	return &ExecutionError{
		Target:   target,
		Method:   method,
		Strategy: strategy,
		Stage:    stage,
		Err:      err,
	}
}

func (e *ExecutionError) Error() string {
	msg := fmt.Sprintf("execute %s on %s failed at %s", e.Method, e.Target, e.Stage)
	if e.Strategy != "" {
		msg += " (" + e.Strategy + ")"
	}
	if e.Reason != "" {
		msg += ": reverted: " + e.Reason
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.TxHash != "" {
		msg += " [tx " + e.TxHash + "]"
	}
	return msg
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Is matches ErrExecution
func (e *ExecutionError) Is(target error) bool {
	return target == ErrExecution
}
