// Package config defines the runtime configuration for the marketplace SDK,
// including ledger network settings, RPC endpoint, catalog store, storage
// gateways, debug mode and operation timeouts. It also provides validation,
// defaulting and file/environment loading helpers.
package config

import (
	"errors"
	"time"
)

// Config holds all settings required to initialize the ledger gateway, the
// catalog store and the entitlement client.
// Use Validate to fill implicit defaults and to check for required fields.
type Config struct {
	// Network selects the target chain (chain ID and human-readable name).
	Network Network `json:"network" yaml:"network"`
	// RPCAddr is the ledger RPC/WS endpoint URL (required).
	RPCAddr string `json:"rpc_addr" yaml:"rpc_addr"`
	// PrivateKey is the hex-encoded ECDSA private key used to sign purchases
	// and access proofs (optional for read-only usage).
	PrivateKey string `json:"private_key" yaml:"private_key"`
	// MarketAddr is the address of the marketplace contract purchases are sent to.
	MarketAddr string `json:"market_addr" yaml:"market_addr"`
	// RegistryAddr is the address entitlement queries are addressed to.
	// Default: MarketAddr.
	RegistryAddr string `json:"registry_addr" yaml:"registry_addr"`
	// Currency is the denomination symbol listings are priced in. Default: SUI.
	Currency string `json:"currency" yaml:"currency"`
	// Catalog selects and configures the listing store.
	Catalog Catalog `json:"catalog" yaml:"catalog"`
	// LighthouseURL is the HTTP gateway used to fetch Filecoin-backed content.
	// Default: https://gateway.lighthouse.storage/ipfs/
	LighthouseURL string `json:"lighthouse_url" yaml:"lighthouse_url"`
	// IpfsURL is the HTTP API endpoint of the IPFS node listing documents are
	// published to. Empty disables publishing.
	IpfsURL string `json:"ipfs_url" yaml:"ipfs_url"`
	// Debug enables verbose logging.
	Debug bool `json:"debug" yaml:"debug"`
	// Timeouts configures per-operation timeouts. See Timeouts.WithDefaults for defaults.
	Timeouts Timeouts `json:"timeouts" yaml:"timeouts"`
	// Breaker configures the circuit breaker around ledger calls.
	Breaker Breaker `json:"breaker" yaml:"breaker"`
}

// Network describes a ledger network (chain ID and name). ChainID is used
// for EIP-155 signing; Name is informational.
type Network struct {
	ChainID string `json:"chain_id" yaml:"chain_id"`
	Name    string `json:"network_name" yaml:"network_name"`
}

// Sepolia is a predefined Network for Ethereum Sepolia testnet.
var Sepolia = Network{
	ChainID: "11155111",
	Name:    "sepolia",
}

// Main is a predefined Network for Ethereum mainnet.
var Main = Network{
	ChainID: "1",
	Name:    "main",
}

// Local is a predefined Network for a development node (anvil, hardhat).
var Local = Network{
	ChainID: "31337",
	Name:    "local",
}

// Catalog store drivers.
const (
	DriverMemory = "memory"
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
)

// Catalog selects the listing store backend.
type Catalog struct {
	// Driver is one of memory, mongo or sqlite. Default: memory.
	Driver string `json:"driver" yaml:"driver"`
	// URI is the MongoDB connection string (mongo driver).
	URI string `json:"uri" yaml:"uri"`
	// Database is the MongoDB database name. Default: sui-hackathon.
	Database string `json:"database" yaml:"database"`
	// Path is the SQLite database file (sqlite driver). Default: infraproxy.db.
	Path string `json:"path" yaml:"path"`
}

// Timeouts controls SDK operation deadlines.
// Zero values will be replaced by sane defaults in WithDefaults.
type Timeouts struct {
	Dial           time.Duration `json:"dial" yaml:"dial"`                       // ledger/db dial
	ChainRead      time.Duration `json:"chain_read" yaml:"chain_read"`           // eth_call
	ChainSubmit    time.Duration `json:"chain_submit" yaml:"chain_submit"`       // send tx
	ReceiptWait    time.Duration `json:"receipt_wait" yaml:"receipt_wait"`       // wait tx
	EntitlementTTL time.Duration `json:"entitlement_ttl" yaml:"entitlement_ttl"` // cache staleness window
	PollInterval   time.Duration `json:"poll_interval" yaml:"poll_interval"`     // entitlement poller
	Probe          time.Duration `json:"probe" yaml:"probe"`                     // endpoint availability
}

// Breaker mirrors the subset of gobreaker settings exposed to callers.
type Breaker struct {
	Disabled         bool          `json:"disabled" yaml:"disabled"`
	MaxRequests      uint32        `json:"max_requests" yaml:"max_requests"`
	Interval         time.Duration `json:"interval" yaml:"interval"`
	Timeout          time.Duration `json:"timeout" yaml:"timeout"`
	FailureThreshold uint32        `json:"failure_threshold" yaml:"failure_threshold"`
}

// Validate normalizes the configuration by applying implicit defaults for
// LighthouseURL, Network (defaults to Sepolia), Currency, RegistryAddr and
// the catalog driver, and verifies that RPCAddr is provided.
func (c *Config) Validate() error {

	if c.LighthouseURL == "" {
		c.LighthouseURL = "https://gateway.lighthouse.storage/ipfs/"
	}

	if c.Network.ChainID == "" {
		c.Network = Sepolia
	}

	if c.Currency == "" {
		c.Currency = "SUI"
	}

	if c.RegistryAddr == "" {
		c.RegistryAddr = c.MarketAddr
	}

	switch c.Catalog.Driver {
	case "":
		c.Catalog.Driver = DriverMemory
	case DriverMemory, DriverSQLite:
	case DriverMongo:
		if c.Catalog.URI == "" {
			return errors.New("catalog URI is required for the mongo driver")
		}
	default:
		return errors.New("unknown catalog driver: " + c.Catalog.Driver)
	}
	if c.Catalog.Database == "" {
		c.Catalog.Database = "sui-hackathon"
	}
	if c.Catalog.Path == "" {
		c.Catalog.Path = "infraproxy.db"
	}

	if c.RPCAddr == "" {
		return errors.New("RPC address is required")
	}

	return nil
}

// WithDefaults returns a copy of t with zero values replaced by defaults:
//
//	Dial:           5s
//	ChainRead:      12s
//	ChainSubmit:    25s
//	ReceiptWait:    90s
//	EntitlementTTL: 30s
//	PollInterval:   30s
//	Probe:          5s
func (t Timeouts) WithDefaults() Timeouts {
	tt := t
	if tt.Dial == 0 {
		tt.Dial = 5 * time.Second
	}
	if tt.ChainRead == 0 {
		tt.ChainRead = 12 * time.Second
	}
	if tt.ChainSubmit == 0 {
		tt.ChainSubmit = 25 * time.Second
	}
	if tt.ReceiptWait == 0 {
		tt.ReceiptWait = 90 * time.Second
	}
	if tt.EntitlementTTL == 0 {
		tt.EntitlementTTL = 30 * time.Second
	}
	if tt.PollInterval == 0 {
		tt.PollInterval = 30 * time.Second
	}
	if tt.Probe == 0 {
		tt.Probe = 5 * time.Second
	}
	return tt
}

// WithDefaults returns a copy of b with zero values replaced by defaults:
// 1 half-open request, 60s closed interval, 30s open period, 5 consecutive
// failures to trip.
func (b Breaker) WithDefaults() Breaker {
	bb := b
	if bb.MaxRequests == 0 {
		bb.MaxRequests = 1
	}
	if bb.Interval == 0 {
		bb.Interval = 60 * time.Second
	}
	if bb.Timeout == 0 {
		bb.Timeout = 30 * time.Second
	}
	if bb.FailureThreshold == 0 {
		bb.FailureThreshold = 5
	}
	return bb
}
