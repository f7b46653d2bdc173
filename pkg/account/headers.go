package account

import (
	"context"
	"errors"
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"google.golang.org/grpc/metadata"
)

// Headers carrying an AccessProof to a listing endpoint. gRPC calls use the
// metadata keys; HTTP calls use the same names as headers, with the signature
// hex-encoded instead of binary.
const (
	// ClientTypeHeader identifies the client making the call.
	ClientTypeHeader = "infraproxy-client-type"
	// UserAddressHeader contains the caller's wallet address.
	UserAddressHeader = "infraproxy-user-address"
	// AccessMessageHeader contains the signed login message.
	AccessMessageHeader = "infraproxy-access-message"
	// AccessSignatureHeader contains the signature. The -bin suffix makes
	// gRPC transport it as raw bytes.
	AccessSignatureHeader = "infraproxy-access-signature-bin"

	ClientType = "infraproxy-sdk-go"
)

var errNoProof = errors.New("account: no access proof in request")

// AppendToOutgoingContext attaches p to the outgoing gRPC metadata of ctx.
func (p *AccessProof) AppendToOutgoingContext(ctx context.Context) context.Context {
	return metadata.AppendToOutgoingContext(ctx,
		ClientTypeHeader, ClientType,
		UserAddressHeader, p.Address,
		AccessMessageHeader, p.Message,
		AccessSignatureHeader, string(p.Signature),
	)
}

// SetHeaders writes p to HTTP request headers.
func (p *AccessProof) SetHeaders(h http.Header) {
	h.Set(ClientTypeHeader, ClientType)
	h.Set(UserAddressHeader, p.Address)
	h.Set(AccessMessageHeader, p.Message)
	h.Set(AccessSignatureHeader, hexutil.Encode(p.Signature))
}

// ProofFromIncomingContext reads a proof from incoming gRPC metadata.
// Verify it with VerifyAccess.
func ProofFromIncomingContext(ctx context.Context) (*AccessProof, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, errNoProof
	}
	first := func(k string) string {
		if v := md.Get(k); len(v) > 0 {
			return v[0]
		}
		return ""
	}
	p := &AccessProof{
		Address:   first(UserAddressHeader),
		Message:   first(AccessMessageHeader),
		Signature: []byte(first(AccessSignatureHeader)),
	}
	if p.Address == "" || p.Message == "" || len(p.Signature) == 0 {
		return nil, errNoProof
	}
	return p, nil
}

// ProofFromHeaders reads a proof from HTTP request headers.
func ProofFromHeaders(h http.Header) (*AccessProof, error) {
	addr, msg, sig := h.Get(UserAddressHeader), h.Get(AccessMessageHeader), h.Get(AccessSignatureHeader)
	if addr == "" || msg == "" || sig == "" {
		return nil, errNoProof
	}
	raw, err := hexutil.Decode(sig)
	if err != nil {
		return nil, errors.Join(ErrBadProof, err)
	}
	return &AccessProof{Address: addr, Message: msg, Signature: raw}, nil
}
