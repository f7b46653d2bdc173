package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables consulted by Load. They override values from the file.
const (
	EnvRPCAddr      = "INFRAPROXY_RPC_ADDR"
	EnvPrivateKey   = "INFRAPROXY_PRIVATE_KEY"
	EnvMarketAddr   = "INFRAPROXY_MARKET_ADDR"
	EnvRegistryAddr = "INFRAPROXY_REGISTRY_ADDR"
	EnvChainID      = "INFRAPROXY_CHAIN_ID"
	EnvCatalogURI   = "INFRAPROXY_CATALOG_URI"
	EnvCatalogDrv   = "INFRAPROXY_CATALOG_DRIVER"
	EnvIpfsURL      = "INFRAPROXY_IPFS_URL"
	EnvDebug        = "INFRAPROXY_DEBUG"
)

// Load reads a YAML configuration file (optional, pass "" to skip), applies
// INFRAPROXY_* environment overrides after loading an optional .env file from
// the working directory, and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env is optional
	_ = godotenv.Load()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Timeouts = cfg.Timeouts.WithDefaults()
	cfg.Breaker = cfg.Breaker.WithDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.RPCAddr, EnvRPCAddr)
	setString(&c.PrivateKey, EnvPrivateKey)
	setString(&c.MarketAddr, EnvMarketAddr)
	setString(&c.RegistryAddr, EnvRegistryAddr)
	setString(&c.Catalog.URI, EnvCatalogURI)
	setString(&c.Catalog.Driver, EnvCatalogDrv)
	setString(&c.IpfsURL, EnvIpfsURL)
	if v := os.Getenv(EnvChainID); v != "" {
		c.Network = Network{ChainID: v, Name: c.Network.Name}
	}
	if v := os.Getenv(EnvDebug); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Debug = b
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
