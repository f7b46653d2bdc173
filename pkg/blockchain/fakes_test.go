package blockchain

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// fakeChain implements ChainClient and ChainState in memory.
type fakeChain struct {
	mu sync.Mutex

	callOut  []byte
	callErr  error
	lastCall ethereum.CallMsg

	sendErr       error
	sent          []*types.Transaction
	receiptStatus uint64
	receiptMisses int

	nonce       uint64
	gasPrice    *big.Int
	gas         uint64
	estimateErr error
	nonceErr    error
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		receiptStatus: types.ReceiptStatusSuccessful,
		gasPrice:      big.NewInt(1_000_000_000),
		gas:           60_000,
	}
}

func (f *fakeChain) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCall = msg
	return f.callOut, f.callErr
}

func (f *fakeChain) SendTransaction(_ context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, tx)
	return nil
}

func (f *fakeChain) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.receiptMisses > 0 {
		f.receiptMisses--
		return nil, ethereum.NotFound
	}
	return &types.Receipt{
		Status:      f.receiptStatus,
		TxHash:      hash,
		BlockNumber: big.NewInt(12),
		GasUsed:     f.gas,
	}, nil
}

func (f *fakeChain) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return f.nonce, f.nonceErr
}

func (f *fakeChain) SuggestGasPrice(context.Context) (*big.Int, error) {
	return f.gasPrice, nil
}

func (f *fakeChain) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return f.gas, f.estimateErr
}

// rpcError mimics a JSON-RPC error returned by a node.
type rpcError struct {
	code int
	msg  string
}

func (e rpcError) Error() string  { return e.msg }
func (e rpcError) ErrorCode() int { return e.code }

// fakeGateway is a scripted LedgerGateway.
type fakeGateway struct {
	queryErr  error
	submitErr error
	queries   int
	submits   int
}

func (g *fakeGateway) Query(context.Context, ReadCall) ([][]byte, error) {
	g.queries++
	if g.queryErr != nil {
		return nil, g.queryErr
	}
	return [][]byte{EncodeU64(1)}, nil
}

func (g *fakeGateway) Submit(context.Context, *SignedTransaction) (*Receipt, error) {
	g.submits++
	if g.submitErr != nil {
		return nil, g.submitErr
	}
	return &Receipt{TxHash: "0x01"}, nil
}
