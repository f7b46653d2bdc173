// Package market is the high-level entry point of the InfraProxy marketplace
// SDK. It wires the ledger, the listing catalog, pricing, purchases,
// entitlements, listing documents and the user directory into one Core.
//
// # Quick Start
//
//	import (
//		"github.com/shamank/infraproxy-sdk-go/pkg/catalog"
//		"github.com/shamank/infraproxy-sdk-go/pkg/config"
//		"github.com/shamank/infraproxy-sdk-go/pkg/market"
//		"github.com/shamank/infraproxy-sdk-go/pkg/model"
//	)
//
//	func main() {
//		ctx := context.Background()
//		cfg := &config.Config{
//			RPCAddr:    "http://127.0.0.1:8545",
//			PrivateKey: "YOUR_PRIVATE_KEY",
//			MarketAddr: "0x5FbDB2315678afecb367f032d93F642f64180aa3",
//			Network:    config.Local,
//			Catalog:    config.Catalog{Driver: config.DriverSQLite, Path: "infraproxy.db"},
//		}
//
//		core, err := market.New(ctx, cfg)
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer core.Close()
//
//		budget, _ := core.Listings(ctx, catalog.Criteria{PriceBand: catalog.BandBudget})
//		for _, l := range budget {
//			fmt.Println(l.ID, l.Name)
//		}
//
//		out, err := core.Purchase(ctx, "supernode-rpc", model.ModePerRequest, 0)
//		if err != nil {
//			log.Fatal(err)
//		}
//		fmt.Println(out.Kind, out.Display, core.FormatEntitlement(out.Entitlement))
//	}
//
// # Components
//
// New connects everything described by config.Config:
//
//   - Ledger: blockchain.EVMGateway behind a circuit breaker, and a
//     blockchain.KeySigner when PrivateKey is set
//   - Catalog: memory, SQLite or MongoDB store (config.Catalog.Driver)
//   - Pricing: pricing.Resolver in the configured currency
//   - Purchases: purchase.Coordinator
//   - Entitlements: cached entitlement.Client plus a background Poller
//   - Documents: storage.Client over IPFS and Lighthouse
//   - Users: account.Directory, in MongoDB when the catalog is
//
// Assemble builds a Core over explicit backends, which is how tests and
// embedders substitute their own gateway or signer.
//
// # Read-only Mode
//
// Without a private key Purchase and Login fail with ErrReadOnly; browsing,
// quoting and entitlement queries for explicit users keep working.
//
// # Concurrent Purchases
//
// Core allows one purchase per (signer, listing) at a time. A second call
// while the first is running returns ErrPurchaseInFlight immediately.
//
// # Logging
//
// The package installs a console zap logger at Info level on import.
// config.Config.Debug switches it to Debug. Applications may replace it with
// zap.ReplaceGlobals.
package market
