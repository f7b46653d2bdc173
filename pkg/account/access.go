package account

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shamank/infraproxy-sdk-go/pkg/blockchain"
)

const accessPrefix = "Login to InfraProxy at "

var (
	// ErrBadProof is returned for a proof whose message or signature does not verify.
	ErrBadProof = errors.New("account: invalid access proof")
	// ErrProofExpired is returned for a proof older than the allowed age.
	ErrProofExpired = errors.New("account: access proof expired")
)

// AccessProof is a wallet's signed login message.
type AccessProof struct {
	Address   string `json:"address"`
	Message   string `json:"message"`
	Signature []byte `json:"signature"`
}

// AccessMessage is the text signed for a login at t.
func AccessMessage(t time.Time) string {
	return accessPrefix + strconv.FormatInt(t.UnixMilli(), 10)
}

// SignAccess asks signer to sign a login message stamped now.
func SignAccess(ctx context.Context, signer blockchain.Signer, now time.Time) (*AccessProof, error) {
	msg := AccessMessage(now)
	sig, err := signer.SignMessage(ctx, []byte(msg))
	if err != nil {
		return nil, fmt.Errorf("sign access message: %w", err)
	}
	return &AccessProof{Address: signer.Address(), Message: msg, Signature: sig}, nil
}

// VerifyAccess checks that p was signed by p.Address and is at most maxAge
// old at now. A zero maxAge skips the age check.
func VerifyAccess(p *AccessProof, now time.Time, maxAge time.Duration) error {
	if p == nil || !strings.HasPrefix(p.Message, accessPrefix) {
		return fmt.Errorf("%w: unexpected message", ErrBadProof)
	}
	ms, err := strconv.ParseInt(strings.TrimPrefix(p.Message, accessPrefix), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: timestamp: %v", ErrBadProof, err)
	}
	if !blockchain.VerifySignature([]byte(p.Message), p.Signature, p.Address) {
		return fmt.Errorf("%w: signature does not match %s", ErrBadProof, p.Address)
	}
	if maxAge > 0 {
		signed := time.UnixMilli(ms)
		if now.Sub(signed) > maxAge {
			return fmt.Errorf("%w: signed %s ago", ErrProofExpired, now.Sub(signed).Round(time.Second))
		}
	}
	return nil
}
