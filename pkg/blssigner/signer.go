// Package blssigner implements the off-chain side of the oracle: BLS12-381
// secret keys that sign price messages for the on-chain verifier.
package blssigner

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/0xOmarA/radix-oracle-contracts/x/oracle/types"
)

// SecretKeySize is the length of an encoded secret scalar.
const SecretKeySize = fr.Bytes

var errZeroKey = errors.New("secret key cannot be zero")

// SecretKey is a non-zero scalar of the BLS12-381 scalar field.
type SecretKey struct {
	scalar fr.Element
}

// GenerateKey returns a fresh random secret key.
func GenerateKey() (*SecretKey, error) {
	var sk SecretKey
	for sk.scalar.IsZero() {
		if _, err := sk.scalar.SetRandom(); err != nil {
			return nil, fmt.Errorf("failed to sample secret key: %w", err)
		}
	}
	return &sk, nil
}

// KeyFromSeed derives a deterministic secret key from arbitrary seed bytes.
func KeyFromSeed(seed []byte) (*SecretKey, error) {
	digest := sha256.Sum256(seed)
	var sk SecretKey
	sk.scalar.SetBytes(digest[:])
	if sk.scalar.IsZero() {
		return nil, errZeroKey
	}
	return &sk, nil
}

// SecretKeyFromBytes decodes a canonical big-endian scalar.
func SecretKeyFromBytes(bz []byte) (*SecretKey, error) {
	if len(bz) != SecretKeySize {
		return nil, fmt.Errorf("secret key must be %d bytes, got %d", SecretKeySize, len(bz))
	}
	var sk SecretKey
	if err := sk.scalar.SetBytesCanonical(bz); err != nil {
		return nil, fmt.Errorf("invalid secret key: %w", err)
	}
	if sk.scalar.IsZero() {
		return nil, errZeroKey
	}
	return &sk, nil
}

// ParseSecretKey decodes the hex form produced by String.
func ParseSecretKey(s string) (*SecretKey, error) {
	bz, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("secret key is not hex: %w", err)
	}
	return SecretKeyFromBytes(bz)
}

// Bytes returns the big-endian scalar.
func (sk *SecretKey) Bytes() []byte {
	b := sk.scalar.Bytes()
	return b[:]
}

// String returns the hex encoded scalar.
func (sk *SecretKey) String() string {
	return hex.EncodeToString(sk.Bytes())
}

func (sk *SecretKey) bigInt() *big.Int {
	var b big.Int
	sk.scalar.BigInt(&b)
	return &b
}

// PublicKey returns sk·G1.
func (sk *SecretKey) PublicKey() types.PublicKey {
	_, _, g1, _ := bls12381.Generators()
	var p bls12381.G1Affine
	p.ScalarMultiplication(&g1, sk.bigInt())

	pk, err := types.NewPublicKey(p)
	if err != nil {
		// sk is non-zero and g1 has prime order, so p is a valid subgroup point.
		panic(fmt.Sprintf("derived public key is invalid: %v", err))
	}
	return pk
}

// Sign returns sk·H(message) where H hashes onto G2 under types.SignatureDST.
func (sk *SecretKey) Sign(message []byte) (types.Signature, error) {
	h, err := types.HashToSignatureGroup(message)
	if err != nil {
		return types.Signature{}, fmt.Errorf("failed to hash message: %w", err)
	}
	var s bls12381.G2Affine
	s.ScalarMultiplication(&h, sk.bigInt())
	return types.NewSignature(s)
}

// SignString signs the bytes of a wire message and returns the hex signature.
func (sk *SecretKey) SignString(message string) (string, error) {
	sig, err := sk.Sign([]byte(message))
	if err != nil {
		return "", err
	}
	return sig.String(), nil
}
