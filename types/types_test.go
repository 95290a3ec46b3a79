package types

import (
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	sellout "github.com/sellout-xyz/sellout/go"
	"github.com/sellout-xyz/sellout/go/evm"
)

func TestNetworks(t *testing.T) {
	networks, err := Networks(evm.NewResolver(nil))
	require.NoError(t, err)
	require.Len(t, networks, 2)
	require.Equal(t, evm.ChainIDBaseSepolia, networks[0].ChainID)
	require.Equal(t, evm.ChainIDSepolia, networks[1].ChainID)
	require.Equal(t, "sepolia", networks[1].Name)
	require.Equal(t, evm.DefaultDeployments[evm.ChainIDSepolia].Contracts[evm.ContractShow].Hex(), networks[1].Contracts["Show"])
	require.Len(t, networks[1].Contracts, len(evm.ContractNames))
}

func TestNewErrorResponse(t *testing.T) {
	execErr := sellout.NewExecutionError(sellout.StageSimulate, sellout.StrategyDirect, "0x01", "cancelShow", errors.New("execution reverted"))
	execErr.Reason = "NotOrganizer()"

	tests := []struct {
		name string
		err  error
		want ErrorResponse
	}{
		{
			name: "validation",
			err:  fmt.Errorf("wrapped: %w", sellout.NewValidationError("show.cancelShow", "showId", "is required")),
			want: ErrorResponse{Kind: KindValidation, Operation: "show.cancelShow", Field: "showId", Reason: "is required"},
		},
		{
			name: "unsupported network",
			err:  sellout.NewUnsupportedNetworkError(999999),
			want: ErrorResponse{Kind: KindUnsupportedNetwork, ChainID: 999999},
		},
		{
			name: "incomplete network",
			err:  &sellout.UnsupportedNetworkError{ChainID: 31337, Missing: []string{"Ticket", "Vault"}},
			want: ErrorResponse{Kind: KindUnsupportedNetwork, ChainID: 31337, Reason: "missing contracts: Ticket, Vault"},
		},
		{
			name: "read",
			err:  sellout.NewReadError("0x01", "getShowStatus", errors.New("timeout")),
			want: ErrorResponse{Kind: KindRead, Target: "0x01", Method: "getShowStatus"},
		},
		{
			name: "execution",
			err:  execErr,
			want: ErrorResponse{
				Kind:     KindExecution,
				Target:   "0x01",
				Method:   "cancelShow",
				Strategy: sellout.StrategyDirect,
				Stage:    sellout.StageSimulate,
				Reason:   "NotOrganizer()",
			},
		},
		{
			name: "other",
			err:  errors.New("boom"),
			want: ErrorResponse{Kind: KindInternal},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewErrorResponse(tt.err)
			tt.want.Error = tt.err.Error()
			require.Equal(t, tt.want, got)
		})
	}
}

func TestDecimal(t *testing.T) {
	require.Equal(t, "0", Decimal(nil))
	require.Equal(t, "1000000000000000000", Decimal(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)))
}
