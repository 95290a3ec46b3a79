// Package abis carries the interface descriptors of every Sellout contract.
// Function names and argument order match the deployed contracts.
package abis

import (
	"bytes"
	"embed"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/sellout-xyz/sellout/go/evm"
)

//go:embed *.json
var files embed.FS

var parsed = func() map[evm.ContractName]*abi.ABI {
	out := make(map[evm.ContractName]*abi.ABI, len(evm.ContractNames))
	for _, name := range evm.ContractNames {
		out[name] = mustParse(name)
	}
	return out
}()

func mustParse(name evm.ContractName) *abi.ABI {
	raw, err := files.ReadFile(string(name) + ".json")
	if err != nil {
		panic(fmt.Sprintf("missing ABI for %s: %v", name, err))
	}
	contractABI, err := abi.JSON(bytes.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("invalid ABI for %s: %v", name, err))
	}
	return &contractABI
}

// Get returns the parsed ABI of a logical contract
func Get(name evm.ContractName) (*abi.ABI, error) {
	contractABI, ok := parsed[name]
	if !ok {
		return nil, fmt.Errorf("no ABI for contract %s", name)
	}
	return contractABI, nil
}

// All returns every known interface, used to decode custom errors raised by
// nested calls into other Sellout contracts
func All() []*abi.ABI {
	out := make([]*abi.ABI, 0, len(parsed))
	for _, name := range evm.ContractNames {
		out = append(out, parsed[name])
	}
	return out
}

func Show() *abi.ABI              { return parsed[evm.ContractShow] }
func Ticket() *abi.ABI            { return parsed[evm.ContractTicket] }
func Venue() *abi.ABI             { return parsed[evm.ContractVenue] }
func BoxOffice() *abi.ABI         { return parsed[evm.ContractBoxOffice] }
func ArtistRegistry() *abi.ABI    { return parsed[evm.ContractArtistRegistry] }
func OrganizerRegistry() *abi.ABI { return parsed[evm.ContractOrganizerRegistry] }
func VenueRegistry() *abi.ABI     { return parsed[evm.ContractVenueRegistry] }
func ReferralModule() *abi.ABI    { return parsed[evm.ContractReferralModule] }
func Vault() *abi.ABI             { return parsed[evm.ContractVault] }
