// Package blockchain provides the ledger side of the marketplace.
//
// # Capabilities
//
// Two interfaces describe everything the rest of the SDK needs from a ledger:
//
//	type LedgerGateway interface {
//		Submit(ctx, *SignedTransaction) (*Receipt, error) // *RejectedError on refusal
//		Query(ctx, ReadCall) ([][]byte, error)            // ErrNotFound when absent
//	}
//
//	type Signer interface {
//		Address() string
//		SignTransaction(ctx, *Transaction) (*SignedTransaction, error) // ErrUserRejected
//		SignMessage(ctx, []byte) ([]byte, error)
//	}
//
// Purchase and entitlement code receive these as constructor parameters, so
// tests substitute fakes and applications can plug in other ledgers.
//
// # EVM Implementation
//
// InitEvm dials a JSON-RPC endpoint and checks its chain ID:
//
//	evm, err := blockchain.InitEvm(ctx, "http://127.0.0.1:8545", "31337", 5*time.Second)
//	gw := blockchain.NewEVMGateway(evm.Client, blockchain.WithTimeouts(12*time.Second, 25*time.Second, 90*time.Second))
//	signer, err := blockchain.NewKeySigner(privHex, evm.ChainID, evm.Client)
//
// The marketplace contract is described by MarketABIJSON:
//
//	subscriptionOf(uint256 serviceId, address user) view returns (bool exists, uint256 amount)
//	purchaseSubscription(uint256 serviceId) payable
//
// ReadCall arguments and results are encoded ledger-neutrally (unsigned
// integers as 8-byte little-endian, addresses as raw bytes); EVMGateway
// translates them to and from the ABI. A false "exists" output is reported
// as ErrNotFound.
//
// Submit waits for the receipt with exponential backoff. Reverted receipts
// and JSON-RPC refusals become *RejectedError; context errors are returned
// unchanged so callers can tell a timeout from a rejection.
//
// # Circuit Breaking
//
// NewBreakerGateway wraps any gateway with sony/gobreaker. Only transport
// failures trip it; ErrNotFound and rejections do not. While open, calls
// fail fast with ErrUnavailable.
//
// # Message Signatures
//
// GetSignature signs keccak256("\x19Ethereum Signed Message:\n32" ||
// keccak256(msg)); RecoverSigner and VerifySignature check such signatures.
package blockchain
