// Package config provides configuration management for the marketplace SDK.
//
// The Config structure controls ledger network settings, RPC endpoints, the
// catalog store backend, storage gateways, circuit breaking and timeouts.
//
// # Basic Configuration
//
// The minimum required configuration needs an RPC endpoint:
//
//	cfg := &config.Config{
//		RPCAddr:    "https://sepolia.infura.io/v3/YOUR_PROJECT_ID",
//		MarketAddr: "0x5FbDB2315678afecb367f032d93F642f64180aa3",
//	}
//
// Validate applies implicit defaults:
//   - Network defaults to Sepolia
//   - Currency defaults to SUI
//   - RegistryAddr defaults to MarketAddr
//   - Catalog.Driver defaults to memory, Catalog.Database to sui-hackathon
//   - LighthouseURL defaults to the public Lighthouse gateway
//
// # Loading From Files
//
// Load reads a YAML file and then applies INFRAPROXY_* environment variables
// on top of it. A .env file in the working directory is loaded first if
// present:
//
//	cfg, err := config.Load("infraproxy.yaml")
//
// Example file:
//
//	rpc_addr: http://127.0.0.1:8545
//	market_addr: "0x5FbDB2315678afecb367f032d93F642f64180aa3"
//	network:
//	  chain_id: "31337"
//	  network_name: local
//	catalog:
//	  driver: mongo
//	  uri: mongodb://localhost:27017
//	timeouts:
//	  entitlement_ttl: 30s
//	  poll_interval: 30s
//
// # Timeouts
//
// Zero values are replaced with defaults via WithDefaults(). EntitlementTTL
// is the staleness window of cached entitlement reads and PollInterval the
// period of the entitlement poller; both default to 30s.
//
// # Thread Safety
//
// Config instances should be created once and not modified after passing to
// market.New. The Config is read-only during SDK operations.
package config
