package sellout

// Version constants
const (
	// Version is the SDK version
	Version = "1.4.0"

	// UserAgent is sent by the gateway and the bundler client
	UserAgent = "sellout-go/" + Version
)

// Status is the two-valued terminal outcome of a submitted transaction
type Status string

const (
	// StatusSuccess means the transaction was included and executed
	StatusSuccess Status = "success"

	// StatusReverted covers every terminal outcome other than success
	StatusReverted Status = "reverted"
)

// Strategy names, used in errors and logs
const (
	StrategyDirect  = "direct"
	StrategyRelayed = "relayed"
)
