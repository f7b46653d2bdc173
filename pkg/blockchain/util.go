package blockchain

import (
	"crypto/ecdsa"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// GetAddressFromPrivateKeyECDSA derives the Ethereum address from the given
// ECDSA private key. It returns nil if the key is nil or its public part cannot
// be asserted to *ecdsa.PublicKey.
func GetAddressFromPrivateKeyECDSA(privateKeyECDSA *ecdsa.PrivateKey) *common.Address {
	if privateKeyECDSA == nil {
		return nil
	}
	publicKey := privateKeyECDSA.Public()
	publicKeyECDSA, ok := publicKey.(*ecdsa.PublicKey)
	if !ok {
		return nil
	}
	addr := crypto.PubkeyToAddress(*publicKeyECDSA)
	return &addr
}

// ParsePrivateKeyECDSA parses a hex-encoded ECDSA private key and returns the
// corresponding Ethereum address together with the private key object.
func ParsePrivateKeyECDSA(privateKey string) (common.Address, *ecdsa.PrivateKey, error) {
	privateKeyECDSA, err := crypto.HexToECDSA(privateKey)
	if err != nil {
		return common.Address{}, nil, err
	}

	address := GetAddressFromPrivateKeyECDSA(privateKeyECDSA)
	if address == nil {
		return common.Address{}, nil, errors.New("failed to get public key")
	}
	return *address, privateKeyECDSA, nil
}

// messageHash is keccak256("\x19Ethereum Signed Message:\n32" || keccak256(message)).
func messageHash(message []byte) []byte {
	return crypto.Keccak256(
		HashPrefix32Bytes,
		crypto.Keccak256(message),
	)
}

// GetSignature produces an Ethereum-compatible personal-sign (EIP-191 style)
// signature over the given message and signs with the provided ECDSA private key.
//
// Returns the 65-byte signature (R||S||V). On signing error it logs and returns nil.
func GetSignature(message []byte, privateKeyECDSA *ecdsa.PrivateKey) []byte {
	signature, err := crypto.Sign(messageHash(message), privateKeyECDSA)
	if err != nil {
		zap.L().Error("Failed to sign message", zap.Error(err))
		return nil
	}

	return signature
}

// RecoverSigner returns the address that produced signature over message
// with GetSignature.
func RecoverSigner(message, signature []byte) (common.Address, error) {
	if len(signature) != crypto.SignatureLength {
		return common.Address{}, errors.New("invalid signature length")
	}
	sig := make([]byte, len(signature))
	copy(sig, signature)
	// accept wallets that encode V as 27/28
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(messageHash(message), sig)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// VerifySignature reports whether signature over message was produced by address.
func VerifySignature(message, signature []byte, address string) bool {
	signer, err := RecoverSigner(message, signature)
	if err != nil {
		return false
	}
	return signer == common.HexToAddress(address)
}
