package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestConfigValidate_AppliesDefaults verifies that Validate fills the
// implicit defaults when they are not explicitly set.
func TestConfigValidate_AppliesDefaults(t *testing.T) {
	cfg := &Config{
		RPCAddr:    "wss://rpc.example",
		MarketAddr: "0x01",
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}

	if cfg.LighthouseURL != "https://gateway.lighthouse.storage/ipfs/" {
		t.Fatalf("unexpected LighthouseURL: %s", cfg.LighthouseURL)
	}
	if cfg.Network != Sepolia {
		t.Fatalf("expected default Sepolia network, got %#v", cfg.Network)
	}
	if cfg.Currency != "SUI" {
		t.Fatalf("unexpected currency: %s", cfg.Currency)
	}
	if cfg.RegistryAddr != "0x01" {
		t.Fatalf("registry should default to market address, got %q", cfg.RegistryAddr)
	}
	if cfg.Catalog.Driver != DriverMemory || cfg.Catalog.Database != "sui-hackathon" {
		t.Fatalf("unexpected catalog defaults: %#v", cfg.Catalog)
	}
}

// TestConfigValidate_RequiresRPC verifies that Validate returns an error
// when RPCAddr is not provided.
func TestConfigValidate_RequiresRPC(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing RPC address")
	}
}

func TestConfigValidate_CatalogDriver(t *testing.T) {
	tests := []struct {
		name    string
		catalog Catalog
		wantErr bool
	}{
		{name: "sqlite", catalog: Catalog{Driver: DriverSQLite}},
		{name: "mongo with uri", catalog: Catalog{Driver: DriverMongo, URI: "mongodb://localhost"}},
		{name: "mongo without uri", catalog: Catalog{Driver: DriverMongo}, wantErr: true},
		{name: "unknown", catalog: Catalog{Driver: "redis"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{RPCAddr: "http://localhost:8545", Catalog: tt.catalog}
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestTimeoutsWithDefaults verifies that WithDefaults preserves explicitly set
// timeout values and fills in defaults for zero values.
func TestTimeoutsWithDefaults(t *testing.T) {
	in := Timeouts{
		Dial:        time.Second,
		ChainSubmit: 42 * time.Second,
	}

	out := in.WithDefaults()

	if out.Dial != time.Second {
		t.Fatalf("Dial overwritten: got %v", out.Dial)
	}
	if out.ChainSubmit != 42*time.Second {
		t.Fatalf("ChainSubmit overwritten: got %v", out.ChainSubmit)
	}

	if out.ChainRead != 12*time.Second {
		t.Fatalf("ChainRead default mismatch: %v", out.ChainRead)
	}
	if out.ReceiptWait != 90*time.Second {
		t.Fatalf("ReceiptWait default mismatch: %v", out.ReceiptWait)
	}
	if out.EntitlementTTL != 30*time.Second {
		t.Fatalf("EntitlementTTL default mismatch: %v", out.EntitlementTTL)
	}
	if out.PollInterval != 30*time.Second {
		t.Fatalf("PollInterval default mismatch: %v", out.PollInterval)
	}
}

func TestBreakerWithDefaults(t *testing.T) {
	out := Breaker{FailureThreshold: 2}.WithDefaults()
	if out.FailureThreshold != 2 {
		t.Fatalf("FailureThreshold overwritten: %d", out.FailureThreshold)
	}
	if out.MaxRequests != 1 || out.Timeout != 30*time.Second || out.Interval != time.Minute {
		t.Fatalf("unexpected defaults: %#v", out)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "infraproxy.yaml")
	body := `rpc_addr: http://file:8545
market_addr: "0xabc"
network:
  chain_id: "31337"
  network_name: local
catalog:
  driver: sqlite
  path: ` + filepath.Join(dir, "catalog.db") + `
timeouts:
  entitlement_ttl: 10s
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvRPCAddr, "http://env:8545")
	t.Setenv(EnvDebug, "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RPCAddr != "http://env:8545" {
		t.Fatalf("env override not applied: %s", cfg.RPCAddr)
	}
	if !cfg.Debug {
		t.Fatal("debug override not applied")
	}
	if cfg.Network != Local {
		t.Fatalf("unexpected network: %#v", cfg.Network)
	}
	if cfg.Catalog.Driver != DriverSQLite {
		t.Fatalf("unexpected driver: %s", cfg.Catalog.Driver)
	}
	if cfg.Timeouts.EntitlementTTL != 10*time.Second {
		t.Fatalf("ttl from file lost: %v", cfg.Timeouts.EntitlementTTL)
	}
	if cfg.Timeouts.PollInterval != 30*time.Second {
		t.Fatalf("defaults not applied: %v", cfg.Timeouts.PollInterval)
	}
	if cfg.RegistryAddr != "0xabc" {
		t.Fatalf("registry default: %s", cfg.RegistryAddr)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
