package types_test

import (
	"encoding/hex"
	"math/big"
	"strings"
	"testing"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/0xOmarA/radix-oracle-contracts/pkg/blssigner"
	"github.com/0xOmarA/radix-oracle-contracts/x/oracle/types"
)

func mustSigner(t require.TestingT, seed string) *blssigner.SecretKey {
	sk, err := blssigner.KeyFromSeed([]byte(seed))
	require.NoError(t, err)
	return sk
}

func TestParsePublicKey(t *testing.T) {
	sk := mustSigner(t, "oracle")
	encoded := sk.PublicKey().String()
	require.Len(t, encoded, 2*types.PublicKeySize)

	pk, err := types.ParsePublicKey(encoded)
	require.NoError(t, err)
	require.True(t, pk.Equal(sk.PublicKey()))
	require.Equal(t, encoded, pk.String())
}

func TestParsePublicKeyInvalid(t *testing.T) {
	valid := mustSigner(t, "oracle").PublicKey().String()

	// The compressed identity: infinity flag set, everything else zero.
	infinity := make([]byte, types.PublicKeySize)
	infinity[0] = 0xc0

	_, _, _, g2 := bls12381.Generators()
	g2Bytes := g2.Bytes()

	tests := []struct {
		name string
		key  string
	}{
		{"empty", ""},
		{"not hex", strings.Repeat("zz", types.PublicKeySize)},
		{"0x prefix", "0x" + valid},
		{"truncated", valid[:len(valid)-2]},
		{"extended", valid + "00"},
		{"identity", hex.EncodeToString(infinity)},
		{"all zero", strings.Repeat("00", types.PublicKeySize)},
		{"not on curve", "8" + strings.Repeat("0", 2*types.PublicKeySize-2) + "5"},
		{"G2 point", hex.EncodeToString(g2Bytes[:])},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := types.ParsePublicKey(tt.key)
			require.ErrorIs(t, err, types.ErrInvalidKeyEncoding)
		})
	}
}

func TestParseSignatureInvalid(t *testing.T) {
	sig, err := mustSigner(t, "oracle").SignString("1|BTC|1|1")
	require.NoError(t, err)
	require.Len(t, sig, 2*types.SignatureSize)

	infinity := make([]byte, types.SignatureSize)
	infinity[0] = 0xc0

	for _, s := range []string{
		"",
		"zz",
		sig[:len(sig)-2],
		sig + "00",
		hex.EncodeToString(infinity),
		strings.Repeat("00", types.SignatureSize),
	} {
		_, err := types.ParseSignature(s)
		require.ErrorIs(t, err, types.ErrInvalidSignature)
	}
}

func TestVerifySignature(t *testing.T) {
	sk := mustSigner(t, "oracle")
	message := "42|BTC|65000|1700000000"
	sig, err := sk.SignString(message)
	require.NoError(t, err)

	require.NoError(t, types.VerifySignature([]byte(message), sig, sk.PublicKey()))

	other := mustSigner(t, "other")
	require.ErrorIs(t, types.VerifySignature([]byte(message), sig, other.PublicKey()), types.ErrInvalidSignature)
	require.ErrorIs(t, types.VerifySignature([]byte(message+" "), sig, sk.PublicKey()), types.ErrInvalidSignature)
	require.ErrorIs(t, types.VerifySignature([]byte(message), "not-hex", sk.PublicKey()), types.ErrInvalidSignature)
}

// The basic scheme signs the raw bytes: a signature made under a different
// domain separation tag does not verify.
func TestVerifySignatureDomainSeparation(t *testing.T) {
	sk := mustSigner(t, "oracle")
	message := []byte("1|BTC|1|1")

	h, err := bls12381.HashToG2(message, []byte("BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_POP_"))
	require.NoError(t, err)
	skBytes := sk.Bytes()
	var s bls12381.G2Affine
	s.ScalarMultiplication(&h, new(big.Int).SetBytes(skBytes))

	sig, err := types.NewSignature(s)
	require.NoError(t, err)
	require.False(t, sk.PublicKey().Verify(message, sig))
}

func TestPropertySignatureMutation(t *testing.T) {
	sk := mustSigner(t, "oracle")
	pk := sk.PublicKey()

	rapid.Check(t, func(t *rapid.T) {
		message := rapid.SliceOfN(rapid.Byte(), 1, 64).Draw(t, "message")
		sig, err := sk.Sign(message)
		require.NoError(t, err)
		require.True(t, pk.Verify(message, sig))

		target := rapid.SampledFrom([]string{"message", "signature", "key"}).Draw(t, "target")
		switch target {
		case "message":
			mutated := append([]byte(nil), message...)
			i := rapid.IntRange(0, len(mutated)-1).Draw(t, "index")
			mutated[i] ^= 1 << rapid.IntRange(0, 7).Draw(t, "bit")
			require.False(t, pk.Verify(mutated, sig))

		case "signature":
			mutated := sig.Bytes()
			i := rapid.IntRange(0, len(mutated)-1).Draw(t, "index")
			mutated[i] ^= 1 << rapid.IntRange(0, 7).Draw(t, "bit")
			err := types.VerifySignature(message, hex.EncodeToString(mutated), pk)
			require.ErrorIs(t, err, types.ErrInvalidSignature)

		case "key":
			mutated := pk.Bytes()
			i := rapid.IntRange(0, len(mutated)-1).Draw(t, "index")
			mutated[i] ^= 1 << rapid.IntRange(0, 7).Draw(t, "bit")
			other, err := types.PublicKeyFromBytes(mutated)
			if err != nil {
				require.ErrorIs(t, err, types.ErrInvalidKeyEncoding)
				return
			}
			require.False(t, other.Verify(message, sig))
		}
	})
}
