package blockchain

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrNotFound is returned by LedgerGateway.Query when the ledger has no
	// record for the requested key.
	ErrNotFound = errors.New("ledger: not found")
	// ErrUserRejected is returned by a Signer when the holder declines to sign.
	ErrUserRejected = errors.New("ledger: user rejected signature")
	// ErrMalformedResult is returned when a read result cannot be decoded.
	ErrMalformedResult = errors.New("ledger: malformed result")
	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable = errors.New("ledger: unavailable")
)

// RejectedError is returned when the ledger refuses a transaction
// (insufficient funds, invalid target, revert).
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string { return "ledger rejected transaction: " + e.Reason }

// ReadCall is a read-only call against a ledger resource. Args are encoded
// ledger-neutrally: unsigned integers as 8-byte little-endian, addresses as
// their raw bytes.
type ReadCall struct {
	Target   string
	Function string
	Args     [][]byte
}

// Transaction is a purchase to be signed: a payment of exactly Payment base
// units to Target for service ServiceID.
type Transaction struct {
	ID        string
	Target    string
	ServiceID uint64
	Payment   uint64
	Sender    string
}

// SignedTransaction carries the ledger-encoded, signed form of a Transaction.
type SignedTransaction struct {
	Tx   *Transaction
	Raw  []byte
	Hash string
}

// Receipt confirms a transaction was included by the ledger.
type Receipt struct {
	TxHash  string
	Block   uint64
	GasUsed uint64
}

// LedgerGateway is the read/write surface of the external ledger.
type LedgerGateway interface {
	// Submit sends a signed transaction and blocks until it is confirmed or
	// rejected (*RejectedError).
	Submit(ctx context.Context, stx *SignedTransaction) (*Receipt, error)
	// Query executes a read-only call. It returns ErrNotFound when no record exists.
	Query(ctx context.Context, call ReadCall) ([][]byte, error)
}

// Signer is the wallet capability: it signs purchase transactions and
// arbitrary messages on behalf of one address.
type Signer interface {
	Address() string
	SignTransaction(ctx context.Context, tx *Transaction) (*SignedTransaction, error)
	SignMessage(ctx context.Context, msg []byte) ([]byte, error)
}

// EncodeU64 encodes v as 8 bytes little-endian.
func EncodeU64(v uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	return buf
}

// DecodeU64 decodes an 8-byte little-endian unsigned integer.
func DecodeU64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("%w: want 8 bytes, got %d", ErrMalformedResult, len(b))
	}
	return binary.LittleEndian.Uint64(b), nil
}

// EncodeAddress returns the raw bytes of a hex address.
func EncodeAddress(hex string) []byte {
	return common.HexToAddress(hex).Bytes()
}
