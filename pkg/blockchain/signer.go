package blockchain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// ChainState is the subset of ethclient.Client a KeySigner needs to fill
// nonce and gas fields.
type ChainState interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
}

// ApproveFunc is consulted before every signature. Returning false rejects
// the transaction with ErrUserRejected.
type ApproveFunc func(ctx context.Context, tx *Transaction) bool

// KeySigner signs marketplace purchases with a local ECDSA key.
type KeySigner struct {
	key     *ecdsa.PrivateKey
	addr    common.Address
	chainID *big.Int
	state   ChainState
	approve ApproveFunc
	abi     abi.ABI
}

// SignerOption configures a KeySigner.
type SignerOption func(*KeySigner)

// WithApproval installs an approval hook, e.g. an interactive confirmation.
func WithApproval(fn ApproveFunc) SignerOption {
	return func(s *KeySigner) { s.approve = fn }
}

// NewKeySigner parses a hex-encoded private key and binds it to chainID.
func NewKeySigner(hexKey string, chainID *big.Int, state ChainState, opts ...SignerOption) (*KeySigner, error) {
	if chainID == nil {
		return nil, errors.New("chain ID is required")
	}
	addr, key, err := ParsePrivateKeyECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	s := &KeySigner{key: key, addr: addr, chainID: chainID, state: state, abi: marketABI}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Address returns the hex address of the key.
func (s *KeySigner) Address() string { return s.addr.Hex() }

// TransactOpts returns a go-ethereum transactor for the same key, for callers
// that use generated contract bindings.
func (s *KeySigner) TransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(s.key, s.chainID)
	if err != nil {
		zap.L().Error("failed to create transactor", zap.Error(err))
		return nil, err
	}
	opts.Context = ctx
	return opts, nil
}

// SignTransaction builds a purchaseSubscription call carrying tx.Payment as
// value and signs it. Gas estimation failures mean the ledger would refuse
// the call and are reported as *RejectedError.
func (s *KeySigner) SignTransaction(ctx context.Context, tx *Transaction) (*SignedTransaction, error) {
	if tx == nil {
		return nil, errors.New("nil transaction")
	}
	if tx.Sender != "" && !strings.EqualFold(tx.Sender, s.addr.Hex()) {
		return nil, fmt.Errorf("sender %s does not match signer %s", tx.Sender, s.addr.Hex())
	}
	if s.approve != nil && !s.approve(ctx, tx) {
		return nil, ErrUserRejected
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := s.abi.Pack(FnPurchase, new(big.Int).SetUint64(tx.ServiceID))
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", FnPurchase, err)
	}
	to := common.HexToAddress(tx.Target)
	value := new(big.Int).SetUint64(tx.Payment)

	nonce, err := s.state.PendingNonceAt(ctx, s.addr)
	if err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	gasPrice, err := s.state.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("gas price: %w", err)
	}
	gas, err := s.state.EstimateGas(ctx, ethereum.CallMsg{From: s.addr, To: &to, Value: value, Data: data})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &RejectedError{Reason: err.Error()}
	}

	unsigned := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      gas,
		GasPrice: gasPrice,
		Data:     data,
	})
	signed, err := types.SignTx(unsigned, types.LatestSignerForChainID(s.chainID), s.key)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, err
	}
	zap.L().Debug("Signed purchase",
		zap.String("hash", signed.Hash().Hex()),
		zap.Uint64("serviceID", tx.ServiceID),
		zap.Uint64("payment", tx.Payment))
	return &SignedTransaction{Tx: tx, Raw: raw, Hash: signed.Hash().Hex()}, nil
}

// SignMessage returns a personal-sign signature over msg (see GetSignature).
func (s *KeySigner) SignMessage(ctx context.Context, msg []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sig := GetSignature(msg, s.key)
	if sig == nil {
		return nil, errors.New("failed to sign message")
	}
	return sig, nil
}
