package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the service
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Content  ContentConfig
	Chain    ChainConfig
	Wallet   WalletConfig
	Polling  PollingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int
}

// DatabaseConfig holds PostgreSQL configuration for the operation journal
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// ContentConfig holds the content platform API configuration
type ContentConfig struct {
	BaseURL   string
	AuthToken string
}

// ChainConfig holds the chain RPC configuration used by the embedded signer
type ChainConfig struct {
	RPCEndpoint string
}

// AdapterConfig describes one installed external wallet-adapter bridge
type AdapterConfig struct {
	Name     string
	Endpoint string
}

// WalletConfig holds signer configuration.
// Mode selects the backend; Mnemonic feeds the embedded custodial key,
// Adapters lists installed external wallet bridges (name=endpoint pairs).
type WalletConfig struct {
	Mode          string // "embedded" or "external"
	Mnemonic      string
	Adapters      []AdapterConfig
	ActiveAdapter string // optional, empty means not yet selected
}

// PollingConfig holds confirmation polling cadence and bounds
type PollingConfig struct {
	CollectInterval  time.Duration
	CollectMax       time.Duration
	PurchaseInterval time.Duration
	PurchaseMax      time.Duration
	RefreshInterval  time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvInt("SERVER_PORT", 8600),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "mintflow"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Content: ContentConfig{
			BaseURL:   getEnv("CONTENT_API_URL", ""),
			AuthToken: getEnv("CONTENT_API_TOKEN", ""),
		},
		Chain: ChainConfig{
			RPCEndpoint: getEnv("CHAIN_RPC_ENDPOINT", ""),
		},
		Wallet: WalletConfig{
			Mode:          getEnv("WALLET_MODE", "embedded"),
			Mnemonic:      getEnv("WALLET_MNEMONIC", ""),
			Adapters:      parseAdapters(getEnv("WALLET_ADAPTERS", "")),
			ActiveAdapter: getEnv("WALLET_ACTIVE_ADAPTER", ""),
		},
		Polling: PollingConfig{
			CollectInterval:  getEnvSeconds("COLLECT_POLL_INTERVAL_SECONDS", 5),
			CollectMax:       getEnvSeconds("COLLECT_POLL_MAX_SECONDS", 60),
			PurchaseInterval: getEnvSeconds("PURCHASE_POLL_INTERVAL_SECONDS", 5),
			PurchaseMax:      getEnvSeconds("PURCHASE_POLL_MAX_SECONDS", 90),
			RefreshInterval:  getEnvSeconds("ITEM_REFRESH_INTERVAL_SECONDS", 30),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Content.BaseURL == "" {
		return fmt.Errorf("CONTENT_API_URL is required")
	}

	switch c.Wallet.Mode {
	case "embedded":
		if c.Wallet.Mnemonic == "" {
			return fmt.Errorf("WALLET_MNEMONIC is required in embedded mode")
		}
		if c.Chain.RPCEndpoint == "" {
			return fmt.Errorf("CHAIN_RPC_ENDPOINT is required in embedded mode")
		}
	case "external":
		// Zero adapters is a valid runtime state, surfaced to callers as
		// "no wallet installed" rather than a startup failure.
	default:
		return fmt.Errorf("invalid wallet mode: %s", c.Wallet.Mode)
	}

	if c.Polling.CollectInterval <= 0 || c.Polling.PurchaseInterval <= 0 {
		return fmt.Errorf("poll intervals must be positive")
	}
	if c.Polling.CollectMax < c.Polling.CollectInterval ||
		c.Polling.PurchaseMax < c.Polling.PurchaseInterval {
		return fmt.Errorf("poll max duration must be at least one interval")
	}

	return nil
}

// parseAdapters parses a comma-separated list of name=endpoint pairs
func parseAdapters(s string) []AdapterConfig {
	if s == "" {
		return nil
	}

	var adapters []AdapterConfig
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, endpoint, ok := strings.Cut(part, "=")
		if !ok || name == "" || endpoint == "" {
			continue
		}
		adapters = append(adapters, AdapterConfig{
			Name:     strings.TrimSpace(name),
			Endpoint: strings.TrimSpace(endpoint),
		})
	}
	return adapters
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvSeconds(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvInt(key, defaultValue)) * time.Second
}
