package types

import (
	"encoding/hex"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
)

const (
	// PublicKeySize is the length of a compressed BLS12-381 G1 point.
	PublicKeySize = bls12381.SizeOfG1AffineCompressed
	// SignatureSize is the length of a compressed BLS12-381 G2 point.
	SignatureSize = bls12381.SizeOfG2AffineCompressed

	// SignatureDST is the hash-to-curve domain separation tag of the basic
	// (non proof-of-possession) BLS signature scheme with G1 public keys.
	SignatureDST = "BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_NUL_"
)

// PublicKey is the authorized signer's key: a G1 point in the prime-order
// subgroup, never the identity.
type PublicKey struct {
	point bls12381.G1Affine
}

// ParsePublicKey decodes the hex encoding of a compressed G1 public key.
func ParsePublicKey(s string) (PublicKey, error) {
	bz, err := hex.DecodeString(s)
	if err != nil {
		return PublicKey{}, ErrInvalidKeyEncoding.Wrapf("not hex: %v", err)
	}
	return PublicKeyFromBytes(bz)
}

// PublicKeyFromBytes decodes a compressed G1 public key.
func PublicKeyFromBytes(bz []byte) (PublicKey, error) {
	if len(bz) != PublicKeySize {
		return PublicKey{}, ErrInvalidKeyEncoding.Wrapf("expected %d bytes, got %d", PublicKeySize, len(bz))
	}
	var pk PublicKey
	// SetBytes checks that the point is on the curve and in the subgroup.
	if _, err := pk.point.SetBytes(bz); err != nil {
		return PublicKey{}, ErrInvalidKeyEncoding.Wrap(err.Error())
	}
	if pk.point.IsInfinity() {
		return PublicKey{}, ErrInvalidKeyEncoding.Wrap("identity point is not a valid public key")
	}
	return pk, nil
}

// NewPublicKey wraps an already validated G1 point.
func NewPublicKey(point bls12381.G1Affine) (PublicKey, error) {
	b := point.Bytes()
	return PublicKeyFromBytes(b[:])
}

// Bytes returns the compressed encoding.
func (pk PublicKey) Bytes() []byte {
	b := pk.point.Bytes()
	return b[:]
}

// String returns the hex encoding accepted by ParsePublicKey.
func (pk PublicKey) String() string {
	return hex.EncodeToString(pk.Bytes())
}

// Equal reports whether both keys are the same point.
func (pk PublicKey) Equal(other PublicKey) bool {
	return pk.point.Equal(&other.point)
}

// Signature is a BLS signature: a G2 point in the prime-order subgroup.
type Signature struct {
	point bls12381.G2Affine
}

// ParseSignature decodes the hex encoding of a compressed G2 signature.
// Encoding problems are reported as ErrInvalidSignature: a signature that
// cannot be decoded is a signature that does not verify.
func ParseSignature(s string) (Signature, error) {
	bz, err := hex.DecodeString(s)
	if err != nil {
		return Signature{}, ErrInvalidSignature.Wrapf("not hex: %v", err)
	}
	return SignatureFromBytes(bz)
}

// SignatureFromBytes decodes a compressed G2 signature.
func SignatureFromBytes(bz []byte) (Signature, error) {
	if len(bz) != SignatureSize {
		return Signature{}, ErrInvalidSignature.Wrapf("expected %d bytes, got %d", SignatureSize, len(bz))
	}
	var sig Signature
	if _, err := sig.point.SetBytes(bz); err != nil {
		return Signature{}, ErrInvalidSignature.Wrap(err.Error())
	}
	if sig.point.IsInfinity() {
		return Signature{}, ErrInvalidSignature.Wrap("identity point is not a valid signature")
	}
	return sig, nil
}

// NewSignature wraps a G2 point.
func NewSignature(point bls12381.G2Affine) (Signature, error) {
	b := point.Bytes()
	return SignatureFromBytes(b[:])
}

// Bytes returns the compressed encoding.
func (s Signature) Bytes() []byte {
	b := s.point.Bytes()
	return b[:]
}

// String returns the hex encoding accepted by ParseSignature.
func (s Signature) String() string {
	return hex.EncodeToString(s.Bytes())
}

// HashToSignatureGroup maps a message onto G2 under SignatureDST.
func HashToSignatureGroup(message []byte) (bls12381.G2Affine, error) {
	return bls12381.HashToG2(message, []byte(SignatureDST))
}

// Verify checks e(pk, H(m)) == e(g1, sig). It only handles public material.
func (pk PublicKey) Verify(message []byte, sig Signature) bool {
	h, err := HashToSignatureGroup(message)
	if err != nil {
		return false
	}

	_, _, g1, _ := bls12381.Generators()
	var negG1 bls12381.G1Affine
	negG1.Neg(&g1)

	ok, err := bls12381.PairingCheck(
		[]bls12381.G1Affine{pk.point, negG1},
		[]bls12381.G2Affine{h, sig.point},
	)
	return err == nil && ok
}

// VerifySignature decodes signatureHex and verifies it over message with pk.
func VerifySignature(message []byte, signatureHex string, pk PublicKey) error {
	sig, err := ParseSignature(signatureHex)
	if err != nil {
		return err
	}
	if !pk.Verify(message, sig) {
		return ErrInvalidSignature.Wrapf("signature does not match public key %s", pk)
	}
	return nil
}
