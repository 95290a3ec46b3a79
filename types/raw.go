// Package types holds the JSON shapes exchanged by the gateway and printed
// by the CLI
package types

import (
	"math/big"

	"github.com/sellout-xyz/sellout/go/evm"
)

// Network is one entry of the network listing
type Network struct {
	ChainID   uint64            `json:"chainId"`
	Name      string            `json:"name"`
	Contracts map[string]string `json:"contracts"`
}

// NewNetwork flattens a chain context into its listing form. Addresses are
// EIP-55 checksummed.
func NewNetwork(chain *evm.ChainContext) Network {
	contracts := make(map[string]string)
	for name, addr := range chain.Contracts() {
		contracts[string(name)] = addr.Hex()
	}
	return Network{
		ChainID:   chain.ChainID(),
		Name:      chain.Name(),
		Contracts: contracts,
	}
}

// Networks lists every network known to resolver, ordered by chain id
func Networks(resolver *evm.Resolver) ([]Network, error) {
	ids := resolver.ChainIDs()
	out := make([]Network, 0, len(ids))
	for _, id := range ids {
		chain, err := resolver.Resolve(id)
		if err != nil {
			return nil, err
		}
		out = append(out, NewNetwork(chain))
	}
	return out, nil
}

// ShowSummary is the aggregated state of one show. Amounts are decimal
// strings in the smallest unit.
type ShowSummary struct {
	ShowID           string `json:"showId"`
	Status           string `json:"status"`
	Organizer        string `json:"organizer"`
	TicketsSold      string `json:"ticketsSold"`
	TotalCapacity    string `json:"totalCapacity"`
	SellOutThreshold string `json:"sellOutThreshold"`
	MinPrice         string `json:"minPrice"`
	MaxPrice         string `json:"maxPrice"`
}

// Decimal formats n in base 10, "0" for nil
func Decimal(n *big.Int) string {
	if n == nil {
		return "0"
	}
	return n.String()
}

// Check is the answer to a yes/no query
type Check struct {
	Result bool `json:"result"`
}
