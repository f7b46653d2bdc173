// Package blockchain connects the marketplace to an EVM ledger. It defines
// the LedgerGateway and Signer capabilities the purchase and entitlement
// components depend on, and ships go-ethereum implementations of both: an
// EVMGateway for read calls and transaction submission, a KeySigner holding
// an ECDSA key, and a circuit-breaking decorator.
package blockchain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

var (
	// HashPrefix32Bytes is the standard Ethereum personal-sign prefix for 32-byte
	// messages: "\x19Ethereum Signed Message:\n32".
	// See Geth reference:
	// https://github.com/ethereum/go-ethereum/blob/bf468a81ec261745b25206b2a596eb0ee0a24a74/internal/ethapi/api.go#L361
	HashPrefix32Bytes = []byte("\x19Ethereum Signed Message:\n32")

	errReverted = errors.New("tx reverted")
)

// EVMClient holds a connected ethclient.Client and the chain ID it reported.
type EVMClient struct {
	Client  *ethclient.Client
	ChainID *big.Int
}

// InitEvm dials an Ethereum endpoint and verifies it by reading the chain
// ID within timeout. When wantChainID is non-empty a mismatching node is
// rejected.
func InitEvm(ctx context.Context, endpoint, wantChainID string, timeout time.Duration) (*EVMClient, error) {
	dctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	client, err := ethclient.DialContext(dctx, endpoint)
	if err != nil {
		zap.L().Error("Failed to ethdial", zap.Error(err))
		return nil, err
	}

	chainID, err := client.ChainID(dctx)
	if err != nil {
		client.Close()
		zap.L().Error("failed to get chain ID", zap.String("endpoint", endpoint), zap.Error(err))
		return nil, err
	}

	if wantChainID != "" && chainID.String() != wantChainID {
		client.Close()
		return nil, fmt.Errorf("chain ID mismatch: node reports %s, configured %s", chainID, wantChainID)
	}

	zap.L().Debug("Connected to ledger", zap.String("endpoint", endpoint), zap.String("chainID", chainID.String()))
	return &EVMClient{Client: client, ChainID: chainID}, nil
}

// Close releases the underlying RPC connection.
func (evm *EVMClient) Close() {
	if evm != nil && evm.Client != nil {
		evm.Client.Close()
	}
}

// withTimeout returns ctx unchanged if d <= 0, otherwise returns a child context with timeout d.
// The returned cancel function is always non-nil and should be called to release resources.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

// receiptSource is the part of ethclient.Client waitForTransaction needs.
type receiptSource interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// nextBackoff doubles cur, capped at maxBackoff (0 = unbounded).
func nextBackoff(cur, maxBackoff time.Duration) time.Duration {
	if maxBackoff == 0 {
		return cur * 2
	}
	return min(cur*2, maxBackoff)
}

// waitForTransaction polls for a transaction receipt with exponential backoff,
// starting at initial and doubling up to maxBackoff (0 = unbounded).
// A failed receipt yields errReverted.
func waitForTransaction(ctx context.Context, src receiptSource, txHash common.Hash, initial, maxBackoff time.Duration) (*types.Receipt, error) {
	backoff := initial
	if backoff <= 0 {
		backoff = time.Second
	}
	for {
		receipt, err := src.TransactionReceipt(ctx, txHash)
		switch {
		case err == nil:
			if receipt.Status == types.ReceiptStatusFailed {
				return receipt, fmt.Errorf("%w: %s", errReverted, txHash)
			}
			return receipt, nil
		case errors.Is(err, ethereum.NotFound):
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff = nextBackoff(backoff, maxBackoff)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err
		default:
			return nil, fmt.Errorf("receipt error: %w", err)
		}
	}
}
