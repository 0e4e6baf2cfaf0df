package config

// ContractsConfig bridge contract addresses and program ids
type ContractsConfig struct {
	DeBridge DeBridgeContracts `yaml:"debridge"`
	Mayan    MayanContracts    `yaml:"mayan"`
	Jupiter  string            `yaml:"jupiter"` // aggregator whose swapEvent instructions carry swap legs
}

// DeBridgeContracts DLN contracts (same address on every EVM chain)
type DeBridgeContracts struct {
	DlnSource           string `yaml:"dlnSource"`
	DlnDestination      string `yaml:"dlnDestination"`
	SolanaSource        string `yaml:"solanaSource"`
	SolanaDestination   string `yaml:"solanaDestination"`
	CrosschainForwarder string `yaml:"crosschainForwarder"`
}

// MayanContracts Mayan Swift contracts
type MayanContracts struct {
	Swift         string `yaml:"swift"`
	Forwarder     string `yaml:"forwarder"`
	SwiftSolana   string `yaml:"swiftSolana"`
	AuctionSolana string `yaml:"auctionSolana"`
}

// mainnet deployments
const (
	DefaultDlnSource           = "0xeF4fB24aD0916217251F553c0596F8Edc630EB66"
	DefaultDlnDestination      = "0xE7351Fd770A37282b91D153Ee690B63579D6dd7f"
	DefaultDlnSolanaSource     = "src5qyZHqTqecJV4aY6Cb6zDZLMDzrDKKezs22MPHr4"
	DefaultDlnSolanaDest       = "dst5MGcFPoBeREFAA5E3tU5ij8m5uVYwkzkSAbsLbNo"
	DefaultCrosschainForwarder = "0x663DC15D3C1aC63ff12E45Ab68FeA3F0a883C251"
	DefaultMayanSwift          = "0xC38e4e6A15593f908255214653d3D947CA1c2338"
	DefaultMayanForwarder      = "0x0654874eb7F59C6f5b39931FC45dC45337c967c3"
	DefaultMayanSwiftSolana    = "BLZRi6frs4X4DNLw56V4EXai1b6QVESN1BhHBTYM9VcY"
	DefaultMayanAuction        = "9w1D9okTM8xNE7Ntb7LpaAaoLc6LfU9nHFs2h2KTpX1H"
	DefaultJupiter             = "JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4"
)

// DefaultContracts returns the mainnet addresses.
func DefaultContracts() ContractsConfig {
	var c ContractsConfig
	c.applyDefaults()
	return c
}

func (c *ContractsConfig) applyDefaults() {
	setDefault(&c.DeBridge.DlnSource, DefaultDlnSource)
	setDefault(&c.DeBridge.DlnDestination, DefaultDlnDestination)
	setDefault(&c.DeBridge.SolanaSource, DefaultDlnSolanaSource)
	setDefault(&c.DeBridge.SolanaDestination, DefaultDlnSolanaDest)
	setDefault(&c.DeBridge.CrosschainForwarder, DefaultCrosschainForwarder)
	setDefault(&c.Mayan.Swift, DefaultMayanSwift)
	setDefault(&c.Mayan.Forwarder, DefaultMayanForwarder)
	setDefault(&c.Mayan.SwiftSolana, DefaultMayanSwiftSolana)
	setDefault(&c.Mayan.AuctionSolana, DefaultMayanAuction)
	setDefault(&c.Jupiter, DefaultJupiter)
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
