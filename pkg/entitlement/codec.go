package entitlement

import (
	"errors"

	"github.com/shamank/infraproxy-sdk-go/pkg/blockchain"
)

// ReadCall builds the ledger read for k against registry.
func ReadCall(registry, function string, k Key) blockchain.ReadCall {
	return blockchain.ReadCall{
		Target:   registry,
		Function: function,
		Args: [][]byte{
			blockchain.EncodeU64(k.ServiceID),
			blockchain.EncodeAddress(k.User),
		},
	}
}

// DecodeAmount reads the first return value as an 8-byte little-endian u64.
func DecodeAmount(values [][]byte) (uint64, error) {
	if len(values) == 0 {
		return 0, errors.New("entitlement: empty result")
	}
	return blockchain.DecodeU64(values[0])
}
