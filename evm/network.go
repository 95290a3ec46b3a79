package evm

import (
	"fmt"
	"io"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	sellout "github.com/sellout-xyz/sellout/go"
)

// Deployment is the address table of one network
type Deployment struct {
	ChainID   uint64
	Name      string
	Contracts map[ContractName]common.Address
}

// Deployments maps chain ids to their address tables
type Deployments map[uint64]Deployment

// Merge returns a new table with other layered over d. Contracts of a network
// present in both are merged name by name.
func (d Deployments) Merge(other Deployments) Deployments {
	out := make(Deployments, len(d)+len(other))
	for id, dep := range d {
		out[id] = dep.clone()
	}
	for id, dep := range other {
		base, ok := out[id]
		if !ok {
			out[id] = dep.clone()
			continue
		}
		if dep.Name != "" {
			base.Name = dep.Name
		}
		for name, addr := range dep.Contracts {
			base.Contracts[name] = addr
		}
		out[id] = base
	}
	return out
}

func (d Deployment) clone() Deployment {
	contracts := make(map[ContractName]common.Address, len(d.Contracts))
	for name, addr := range d.Contracts {
		contracts[name] = addr
	}
	return Deployment{
		ChainID:   d.ChainID,
		Name:      d.Name,
		Contracts: contracts,
	}
}

// deploymentsFile is the YAML layout accepted by LoadDeployments
type deploymentsFile struct {
	Networks []struct {
		ChainID   uint64            `yaml:"chainId"`
		Name      string            `yaml:"name"`
		Contracts map[string]string `yaml:"contracts"`
	} `yaml:"networks"`
}

// LoadDeployments reads an address table from YAML:
//
//	networks:
//	  - chainId: 31337
//	    name: anvil
//	    contracts:
//	      Show: "0x..."
//
// Contract names must be one of ContractNames. A network may list only the
// contracts it overrides; completeness is checked once the table is merged,
// see Validate.
func LoadDeployments(r io.Reader) (Deployments, error) {
	var file deploymentsFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode deployments: %w", err)
	}

	out := make(Deployments, len(file.Networks))
	for i, n := range file.Networks {
		if n.ChainID == 0 {
			return nil, fmt.Errorf("network #%d: missing chainId", i)
		}
		dep := Deployment{
			ChainID:   n.ChainID,
			Name:      n.Name,
			Contracts: make(map[ContractName]common.Address, len(n.Contracts)),
		}
		for name, addr := range n.Contracts {
			if !IsContractName(name) {
				return nil, fmt.Errorf("network %d: unknown contract %q", n.ChainID, name)
			}
			if !common.IsHexAddress(addr) {
				return nil, fmt.Errorf("network %d: invalid address for %s: %q", n.ChainID, name, addr)
			}
			dep.Contracts[ContractName(name)] = common.HexToAddress(addr)
		}
		out[n.ChainID] = dep
	}
	return out, nil
}

// IsContractName reports whether name is one of ContractNames. Names are
// case sensitive.
func IsContractName(name string) bool {
	for _, known := range ContractNames {
		if string(known) == name {
			return true
		}
	}
	return false
}

// Missing returns the contracts of ContractNames the deployment has no
// non-zero address for, in ContractNames order
func (d Deployment) Missing() []string {
	var missing []string
	for _, name := range ContractNames {
		if addr, ok := d.Contracts[name]; !ok || addr == (common.Address{}) {
			missing = append(missing, string(name))
		}
	}
	return missing
}

// Validate checks that every network carries the complete address table. The
// first incomplete network, by ascending chain id, is reported as an
// *sellout.UnsupportedNetworkError.
func (d Deployments) Validate() error {
	ids := make([]uint64, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if missing := d[id].Missing(); len(missing) > 0 {
			return &sellout.UnsupportedNetworkError{ChainID: id, Missing: missing}
		}
	}
	return nil
}

// Resolver maps chain ids to their deployed contract addresses. Only networks
// with a complete address table are supported.
type Resolver struct {
	deployments Deployments
	incomplete  map[uint64][]string
}

// NewResolver creates a Resolver over the given table. A nil table means
// DefaultDeployments. Networks missing any of ContractNames are kept out of
// the supported set and fail Resolve.
func NewResolver(deployments Deployments) *Resolver {
	if deployments == nil {
		deployments = DefaultDeployments
	}
	r := &Resolver{
		deployments: make(Deployments, len(deployments)),
		incomplete:  make(map[uint64][]string),
	}
	for id, dep := range deployments {
		if missing := dep.Missing(); len(missing) > 0 {
			r.incomplete[id] = missing
			continue
		}
		r.deployments[id] = dep.clone()
	}
	return r
}

// Resolve returns the chain context of chainID or an UnsupportedNetworkError
func (r *Resolver) Resolve(chainID uint64) (*ChainContext, error) {
	dep, ok := r.deployments[chainID]
	if !ok {
		return nil, &sellout.UnsupportedNetworkError{ChainID: chainID, Missing: r.incomplete[chainID]}
	}
	return &ChainContext{deployment: dep.clone()}, nil
}

// ChainIDs returns the supported chain ids in ascending order
func (r *Resolver) ChainIDs() []uint64 {
	ids := make([]uint64, 0, len(r.deployments))
	for id := range r.deployments {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Supports reports whether chainID has a complete address table
func (r *Resolver) Supports(chainID uint64) bool {
	_, ok := r.deployments[chainID]
	return ok
}

// ChainContext is the immutable view of one network's deployment
type ChainContext struct {
	deployment Deployment
}

// ChainID returns the network identifier
func (c *ChainContext) ChainID() uint64 {
	return c.deployment.ChainID
}

// BigChainID returns the network identifier as a big.Int
func (c *ChainContext) BigChainID() *big.Int {
	return new(big.Int).SetUint64(c.deployment.ChainID)
}

// Name returns the human-readable network name
func (c *ChainContext) Name() string {
	if c.deployment.Name != "" {
		return c.deployment.Name
	}
	return NetworkName(c.deployment.ChainID)
}

// Address returns the deployed address of a logical contract
func (c *ChainContext) Address(name ContractName) (common.Address, error) {
	addr, ok := c.deployment.Contracts[name]
	if !ok {
		return common.Address{}, fmt.Errorf("contract %s is not deployed on %s", name, c.Name())
	}
	return addr, nil
}

// Contracts returns a copy of the address table
func (c *ChainContext) Contracts() map[ContractName]common.Address {
	return c.deployment.clone().Contracts
}

// NetworkName returns a human-readable name for the given chain ID
func NetworkName(chainID uint64) string {
	switch chainID {
	case ChainIDSepolia:
		return "sepolia"
	case ChainIDBaseSepolia:
		return "base-sepolia"
	default:
		return "eip155:" + strconv.FormatUint(chainID, 10)
	}
}

// ParseChainID accepts a decimal chain id, a CAIP-2 identifier (eip155:<id>)
// or one of the known network names
func ParseChainID(network string) (uint64, error) {
	networkStr := strings.TrimSpace(strings.ToLower(network))

	// Normalize network name
	switch networkStr {
	case "sepolia":
		return ChainIDSepolia, nil
	case "base-sepolia":
		return ChainIDBaseSepolia, nil
	}

	networkStr = strings.TrimPrefix(networkStr, "eip155:")
	chainID, err := strconv.ParseUint(networkStr, 10, 64)
	if err != nil || chainID == 0 {
		return 0, fmt.Errorf("invalid network: %s", network)
	}
	return chainID, nil
}
