package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config application configuration structure
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	NATS       NATSConfig       `yaml:"nats"`
	Log        LogConfig        `yaml:"log"`
	Blockchain BlockchainConfig `yaml:"blockchain"`
	Contracts  ContractsConfig  `yaml:"contracts"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Valuation  ValuationConfig  `yaml:"valuation"`
}

// ServerConfig server configuration
type ServerConfig struct {
	Host            string   `yaml:"host"`
	Port            int      `yaml:"port"`
	AdminAllowedIPs []string `yaml:"adminAllowedIPs"` // IPs or CIDRs allowed on /api/v1/admin, localhost always allowed
}

// DatabaseConfig Database configuration
type DatabaseConfig struct {
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"maxOpenConns"`
	MaxIdleConns int    `yaml:"maxIdleConns"`
	LogLevel     string `yaml:"logLevel"` // silent | error | warn | info
}

// NATSConfig run summaries are published here; empty URL disables publishing
type NATSConfig struct {
	URL           string `yaml:"url"`
	Timeout       int    `yaml:"timeout"`
	ReconnectWait int    `yaml:"reconnect_wait"`
	MaxReconnects int    `yaml:"max_reconnects"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// LogConfig logrus configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text | json
}

// BlockchainConfig Blockchain configuration
type BlockchainConfig struct {
	Networks map[string]NetworkConfig `yaml:"networks"`
}

// NetworkConfig per-chain RPC configuration; the map key is the canonical chain name
type NetworkConfig struct {
	Family       string   `yaml:"family"` // evm | solana
	RPCEndpoints []string `yaml:"rpcEndpoints"`
	LogBatchSize uint64   `yaml:"logBatchSize"` // blocks per eth_getLogs call
	Enabled      bool     `yaml:"enabled"`
}

// ExtractionConfig sibling-instruction scan windows for the Solana decoders.
// A window is how many instructions after the decoded one are searched.
type ExtractionConfig struct {
	DeBridgeCreateWindow  int    `yaml:"debridgeCreateWindow"`
	DeBridgeFulfillWindow int    `yaml:"debridgeFulfillWindow"`
	DeBridgeClaimWindow   int    `yaml:"debridgeClaimWindow"`
	MayanInitOrderWindow  int    `yaml:"mayanInitOrderWindow"`
	MayanFulfillWindow    int    `yaml:"mayanFulfillWindow"`
	DecodedDumpDir        string `yaml:"decodedDumpDir"` // decoded Solana instruction dumps, one JSON file per signature
	SignaturePageSize     int    `yaml:"signaturePageSize"`
}

// ValuationConfig pricing service; empty BaseURL uses the no-op valuator
type ValuationConfig struct {
	BaseURL string `yaml:"baseUrl"`
	Timeout int    `yaml:"timeout"`
}

var AppConfig *Config

// LoadConfig Load configuration file
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
		if _, err := os.Stat("config.local.yaml"); err == nil {
			configPath = "config.local.yaml"
			log.Printf("🔧 Using local configuration file: config.local.yaml")
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config, err := Parse(data)
	if err != nil {
		return nil, err
	}
	overrideFromEnv(config)

	log.Printf("✅ Loaded configuration from %s (%d networks)", configPath, len(config.Blockchain.Networks))
	AppConfig = config
	return config, nil
}

// Parse decodes YAML and fills defaults for everything left unset.
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	applyDefaults(&config)
	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}
	if config.NATS.SubjectPrefix == "" {
		config.NATS.SubjectPrefix = "bridge-indexer"
	}
	if config.NATS.Timeout == 0 {
		config.NATS.Timeout = 10
	}

	e := &config.Extraction
	if e.DeBridgeCreateWindow == 0 {
		e.DeBridgeCreateWindow = 4
	}
	if e.DeBridgeFulfillWindow == 0 {
		e.DeBridgeFulfillWindow = 4
	}
	if e.DeBridgeClaimWindow == 0 {
		e.DeBridgeClaimWindow = 4
	}
	if e.MayanInitOrderWindow == 0 {
		e.MayanInitOrderWindow = 3
	}
	if e.MayanFulfillWindow == 0 {
		e.MayanFulfillWindow = 3
	}
	if e.SignaturePageSize == 0 {
		e.SignaturePageSize = 1000
	}

	for name, network := range config.Blockchain.Networks {
		if network.Family == "" {
			network.Family = "evm"
			if name == "solana" {
				network.Family = "solana"
			}
		}
		if network.LogBatchSize == 0 {
			network.LogBatchSize = 2000
		}
		config.Blockchain.Networks[name] = network
	}

	config.Contracts.applyDefaults()
}

// overrideFromEnv Override configuration from environment
func overrideFromEnv(config *Config) {
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		config.Database.DSN = dsn
	}

	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		config.NATS.URL = natsURL
	}
	if natsTimeout := os.Getenv("NATS_TIMEOUT"); natsTimeout != "" {
		if t, err := strconv.Atoi(natsTimeout); err == nil {
			config.NATS.Timeout = t
		}
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Log.Level = level
	}

	if valuationURL := os.Getenv("VALUATION_BASE_URL"); valuationURL != "" {
		config.Valuation.BaseURL = valuationURL
	}

	if dumpDir := os.Getenv("DECODED_DUMP_DIR"); dumpDir != "" {
		config.Extraction.DecodedDumpDir = dumpDir
	}

	// RPC endpoints read from environment variables, e.g. ARBITRUM_RPC_ENDPOINTS=url1,url2
	for networkName, networkConfig := range config.Blockchain.Networks {
		envRPC := fmt.Sprintf("%s_RPC_ENDPOINTS", strings.ToUpper(networkName))
		if rpcEndpoints := os.Getenv(envRPC); rpcEndpoints != "" {
			networkConfig.RPCEndpoints = strings.Split(rpcEndpoints, ",")
		}
		config.Blockchain.Networks[networkName] = networkConfig
	}
}

// GetNetworkConfig returns the enabled network with the given canonical name
func (c *Config) GetNetworkConfig(networkName string) (*NetworkConfig, error) {
	network, exists := c.Blockchain.Networks[networkName]
	if !exists {
		return nil, fmt.Errorf("network %s not found in config", networkName)
	}
	if !network.Enabled {
		return nil, fmt.Errorf("network %s is disabled", networkName)
	}
	if len(network.RPCEndpoints) == 0 {
		return nil, fmt.Errorf("network %s has no rpc endpoints", networkName)
	}
	return &network, nil
}
