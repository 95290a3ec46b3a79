package sellout

// ExecutionResult is the normalized receipt of a submitted transaction
type ExecutionResult struct {
	TxHash      string `json:"transactionHash"`
	BlockNumber uint64 `json:"blockNumber"`
	Status      Status `json:"status"`
}

// Succeeded reports whether the transaction executed without reverting
func (r *ExecutionResult) Succeeded() bool {
	return r != nil && r.Status == StatusSuccess
}

// MutationResult is the envelope every state-changing operation returns
type MutationResult struct {
	Hash    string          `json:"hash"`
	Receipt ExecutionResult `json:"receipt"`
}

// NewMutationResult wraps an execution result into the caller-facing envelope
func NewMutationResult(res *ExecutionResult) *MutationResult {
	return &MutationResult{
		Hash:    res.TxHash,
		Receipt: *res,
	}
}
