package evm

import (
	"github.com/ethereum/go-ethereum/common"
)

// ContractName is the logical name of a deployed contract
type ContractName string

const (
	ContractShow              ContractName = "Show"
	ContractTicket            ContractName = "Ticket"
	ContractVenue             ContractName = "Venue"
	ContractBoxOffice         ContractName = "BoxOffice"
	ContractArtistRegistry    ContractName = "ArtistRegistry"
	ContractOrganizerRegistry ContractName = "OrganizerRegistry"
	ContractVenueRegistry     ContractName = "VenueRegistry"
	ContractReferralModule    ContractName = "ReferralModule"
	ContractVault             ContractName = "Vault"
)

// ContractNames lists every logical contract a complete deployment carries
var ContractNames = []ContractName{
	ContractShow,
	ContractTicket,
	ContractVenue,
	ContractBoxOffice,
	ContractArtistRegistry,
	ContractOrganizerRegistry,
	ContractVenueRegistry,
	ContractReferralModule,
	ContractVault,
}

const (
	// Network chain IDs
	ChainIDSepolia     uint64 = 11155111
	ChainIDBaseSepolia uint64 = 84532

	// Transaction status
	TxStatusSuccess = 1
	TxStatusFailed  = 0

	// Gas estimate multiplier applied to simulated calls, in percent
	GasBufferPercent = 120

	// Gas limit used when estimation is unavailable
	DefaultGasLimit = 300000

	// EIP-1271 magic value (returned by isValidSignature on success)
	EIP1271MagicValue = "0x1626ba7e"

	// ERC-6492 magic value (last 32 bytes of wrapped signature)
	// This is bytes32(uint256(keccak256("erc6492.invalid.signature")) - 1)
	ERC6492MagicValue = "0x6492649264926492649264926492649264926492649264926492649264926492"

	// Error codes
	ErrUndeployedSmartWallet = "undeployed_smart_wallet"
)

// DefaultDeployments is the static address table shipped with the SDK
var DefaultDeployments = Deployments{
	ChainIDSepolia: {
		ChainID: ChainIDSepolia,
		Name:    "sepolia",
		Contracts: map[ContractName]common.Address{
			ContractShow:              common.HexToAddress("0x2a816684212cbbdf8f8e3b09e0de725274f0d186"),
			ContractTicket:            common.HexToAddress("0x0ed6a42014199848ea5d8ca6039cbc1c7c4a14fa"),
			ContractVenue:             common.HexToAddress("0xadb58400adef52de2c11db3e7a3a4a806ea119e7"),
			ContractBoxOffice:         common.HexToAddress("0x89aaaa189d59de62f9f035ec81388327d6a10986"),
			ContractArtistRegistry:    common.HexToAddress("0x53f0b32d48e35958a72218f1a1c46dab8ea4c8d1"),
			ContractOrganizerRegistry: common.HexToAddress("0xf671e9cbec996c80f3a658969f403a5daa4bbba2"),
			ContractVenueRegistry:     common.HexToAddress("0xa2e3d077ee80d35769f3ccad244079ee3bfe0d92"),
			ContractReferralModule:    common.HexToAddress("0x5cdacbaf87d106dd368652b53d9c6d4988280d4b"),
			ContractVault:             common.HexToAddress("0x4569b835308a257c0b5b7735800a058290aafa39"),
		},
	},
	ChainIDBaseSepolia: {
		ChainID: ChainIDBaseSepolia,
		Name:    "base-sepolia",
		Contracts: map[ContractName]common.Address{
			ContractShow:              common.HexToAddress("0xe14e9ada3d8714d7bf90a0219200ea467a155fc9"),
			ContractTicket:            common.HexToAddress("0x88fd263bb768bbbb08523a31f9f52cba8e492e41"),
			ContractVenue:             common.HexToAddress("0xc8ebdeb529a3922ab71a4a2db26f510294d348d9"),
			ContractBoxOffice:         common.HexToAddress("0x2f3f17801ebb9f4e6c46768899ee6be64f9c564b"),
			ContractArtistRegistry:    common.HexToAddress("0xd4bb24a71ea44d8b74cd82e1175b53b2961b2e89"),
			ContractOrganizerRegistry: common.HexToAddress("0x1b7feab6b0d5304e5cb2daa33f70fe9734382885"),
			ContractVenueRegistry:     common.HexToAddress("0x25a7ef2d215f8cc39618f639db0e0b9ee3fdf8cb"),
			ContractReferralModule:    common.HexToAddress("0x993a28dac5672abb4e3c577059319ecc654cf86b"),
			ContractVault:             common.HexToAddress("0x07cf67e1a0b50ebd64f3bcc27ed64f3e3fd9ca56"),
		},
	},
}
