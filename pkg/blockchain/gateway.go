package blockchain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

// ChainClient is the subset of ethclient.Client used by EVMGateway.
type ChainClient interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// EVMGateway implements LedgerGateway on top of an EVM JSON-RPC node.
type EVMGateway struct {
	client        ChainClient
	abi           abi.ABI
	readTimeout   time.Duration
	submitTimeout time.Duration
	receiptWait   time.Duration
	pollInitial   time.Duration
	pollMax       time.Duration
}

// GatewayOption configures an EVMGateway.
type GatewayOption func(*EVMGateway)

// WithTimeouts sets the read, submit and receipt-wait deadlines. Zero
// leaves the corresponding call bounded only by the caller's context.
func WithTimeouts(read, submit, receipt time.Duration) GatewayOption {
	return func(g *EVMGateway) {
		g.readTimeout, g.submitTimeout, g.receiptWait = read, submit, receipt
	}
}

// WithReceiptPolling sets the initial and maximum receipt polling backoff.
func WithReceiptPolling(initial, max time.Duration) GatewayOption {
	return func(g *EVMGateway) { g.pollInitial, g.pollMax = initial, max }
}

// WithABI replaces the marketplace ABI used to pack and unpack calls.
func WithABI(a abi.ABI) GatewayOption {
	return func(g *EVMGateway) { g.abi = a }
}

// NewEVMGateway returns a gateway over client.
func NewEVMGateway(client ChainClient, opts ...GatewayOption) *EVMGateway {
	g := &EVMGateway{
		client:      client,
		abi:         marketABI,
		pollInitial: time.Second,
		pollMax:     8 * time.Second,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Query packs call against the ABI, executes eth_call and returns the
// outputs re-encoded ledger-neutrally. A leading "exists" boolean output is
// consumed: false yields ErrNotFound.
func (g *EVMGateway) Query(ctx context.Context, call ReadCall) ([][]byte, error) {
	method, ok := g.abi.Methods[call.Function]
	if !ok {
		return nil, fmt.Errorf("unknown ledger function %q", call.Function)
	}
	args, err := decodeArgs(method.Inputs, call.Args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", call.Function, err)
	}
	input, err := g.abi.Pack(call.Function, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", call.Function, err)
	}

	qctx, cancel := withTimeout(ctx, g.readTimeout)
	defer cancel()

	to := common.HexToAddress(call.Target)
	out, err := g.client.CallContract(qctx, ethereum.CallMsg{To: &to, Data: input}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", call.Function, err)
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}

	values, err := method.Outputs.Unpack(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResult, err)
	}
	if len(method.Outputs) > 0 && method.Outputs[0].Name == "exists" {
		if exists, _ := values[0].(bool); !exists {
			return nil, ErrNotFound
		}
		values = values[1:]
	}
	return encodeValues(values)
}

// Submit broadcasts the signed transaction and waits for its receipt.
// Node-side refusals and reverts are reported as *RejectedError; context
// errors are returned unchanged.
func (g *EVMGateway) Submit(ctx context.Context, stx *SignedTransaction) (*Receipt, error) {
	if stx == nil || len(stx.Raw) == 0 {
		return nil, errors.New("empty signed transaction")
	}
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(stx.Raw); err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}

	sctx, cancel := withTimeout(ctx, g.submitTimeout)
	err := g.client.SendTransaction(sctx, tx)
	cancel()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		var rpcErr rpc.Error
		if errors.As(err, &rpcErr) {
			return nil, &RejectedError{Reason: rpcErr.Error()}
		}
		return nil, fmt.Errorf("send transaction: %w", err)
	}
	zap.L().Debug("Transaction sent", zap.String("hash", tx.Hash().Hex()))

	wctx, cancel := withTimeout(ctx, g.receiptWait)
	defer cancel()
	receipt, err := waitForTransaction(wctx, g.client, tx.Hash(), g.pollInitial, g.pollMax)
	if err != nil {
		if errors.Is(err, errReverted) {
			return nil, &RejectedError{Reason: err.Error()}
		}
		return nil, err
	}

	r := &Receipt{TxHash: receipt.TxHash.Hex(), GasUsed: receipt.GasUsed}
	if receipt.BlockNumber != nil {
		r.Block = receipt.BlockNumber.Uint64()
	}
	return r, nil
}

func decodeArgs(inputs abi.Arguments, raw [][]byte) ([]any, error) {
	if len(inputs) != len(raw) {
		return nil, fmt.Errorf("want %d arguments, got %d", len(inputs), len(raw))
	}
	args := make([]any, len(inputs))
	for i, in := range inputs {
		switch in.Type.T {
		case abi.UintTy:
			v, err := DecodeU64(raw[i])
			if err != nil {
				return nil, fmt.Errorf("argument %s: %w", in.Name, err)
			}
			switch {
			case in.Type.Size > 64:
				args[i] = new(big.Int).SetUint64(v)
			case in.Type.Size == 64:
				args[i] = v
			default:
				return nil, fmt.Errorf("argument %s: unsupported width uint%d", in.Name, in.Type.Size)
			}
		case abi.AddressTy:
			if len(raw[i]) != common.AddressLength {
				return nil, fmt.Errorf("argument %s: want %d address bytes, got %d", in.Name, common.AddressLength, len(raw[i]))
			}
			args[i] = common.BytesToAddress(raw[i])
		default:
			return nil, fmt.Errorf("argument %s: unsupported type %s", in.Name, in.Type)
		}
	}
	return args, nil
}

func encodeValues(values []any) ([][]byte, error) {
	out := make([][]byte, len(values))
	for i, v := range values {
		switch v := v.(type) {
		case *big.Int:
			if v.IsUint64() {
				out[i] = EncodeU64(v.Uint64())
			} else {
				// wider than u64, not decodable as a fixed-width amount
				out[i] = v.Bytes()
			}
		case uint64:
			out[i] = EncodeU64(v)
		case bool:
			if v {
				out[i] = []byte{1}
			} else {
				out[i] = []byte{0}
			}
		case common.Address:
			out[i] = v.Bytes()
		case []byte:
			out[i] = v
		default:
			return nil, fmt.Errorf("%w: unsupported output %T", ErrMalformedResult, v)
		}
	}
	return out, nil
}
