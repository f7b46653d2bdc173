package purchase

import (
	"context"
	"errors"
	"fmt"

	"github.com/shamank/infraproxy-sdk-go/pkg/blockchain"
)

var (
	// ErrNotAccepting is returned for listings retired from new purchases.
	ErrNotAccepting = errors.New("purchase: listing is not accepting new users")
	// ErrNotOnLedger is returned for paid purchases of a listing that has no
	// ledger service id.
	ErrNotOnLedger = errors.New("purchase: listing is not registered on the ledger")
)

// ErrorKind classifies a failed purchase.
type ErrorKind string

const (
	KindUserRejected   ErrorKind = "user_rejected"
	KindLedgerRejected ErrorKind = "ledger_rejected"
	KindTimeout        ErrorKind = "timeout"
	KindCanceled       ErrorKind = "canceled"
	KindTransport      ErrorKind = "transport"
)

// PurchaseError is a purchase that ended in Failed.
type PurchaseError struct {
	Kind      ErrorKind
	Reason    string
	AttemptID string
	Err       error
}

func (e *PurchaseError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("purchase %s: %s: %s", e.AttemptID, e.Kind, e.Reason)
	}
	return fmt.Sprintf("purchase %s: %s: %v", e.AttemptID, e.Kind, e.Err)
}

func (e *PurchaseError) Unwrap() error { return e.Err }

// IsKind reports whether err is a *PurchaseError of kind k.
func IsKind(err error, k ErrorKind) bool {
	var pe *PurchaseError
	return errors.As(err, &pe) && pe.Kind == k
}

func contextKind(err error) (ErrorKind, bool) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout, true
	case errors.Is(err, context.Canceled):
		return KindCanceled, true
	}
	return "", false
}

// signFailure classifies a Signer error. Only an explicit ErrUserRejected
// counts as the holder declining; a refusal surfaced while the wallet
// simulates the call is a ledger rejection, and node errors met while
// filling nonce or gas are transport failures.
func signFailure(id string, err error) *PurchaseError {
	pe := &PurchaseError{AttemptID: id, Err: err}
	var rej *blockchain.RejectedError
	if k, ok := contextKind(err); ok {
		pe.Kind = k
	} else if errors.Is(err, blockchain.ErrUserRejected) {
		pe.Kind = KindUserRejected
	} else if errors.As(err, &rej) {
		pe.Kind, pe.Reason = KindLedgerRejected, rej.Reason
	} else {
		pe.Kind = KindTransport
	}
	return pe
}

func submitFailure(id string, err error) *PurchaseError {
	pe := &PurchaseError{AttemptID: id, Err: err}
	var rej *blockchain.RejectedError
	if k, ok := contextKind(err); ok {
		pe.Kind = k
	} else if errors.As(err, &rej) {
		pe.Kind, pe.Reason = KindLedgerRejected, rej.Reason
	} else {
		pe.Kind = KindTransport
	}
	return pe
}
