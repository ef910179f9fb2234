package blssigner

import (
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/cosmos/go-bip39"
)

// NewMnemonic returns a fresh BIP39 mnemonic of 12 or 24 words.
func NewMnemonic(words int) (string, error) {
	// 12 words = 128 bits, 24 words = 256 bits
	var entropySize int
	switch words {
	case 12:
		entropySize = 128 / 8
	case 24:
		entropySize = 256 / 8
	default:
		return "", fmt.Errorf("mnemonic length must be 12 or 24 words, got %d", words)
	}

	entropy := make([]byte, entropySize)
	if _, err := rand.Read(entropy); err != nil {
		return "", fmt.Errorf("failed to generate secure entropy: %w", err)
	}

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("failed to generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// NormalizeMnemonic collapses whitespace between words.
func NormalizeMnemonic(mnemonic string) string {
	return strings.Join(strings.Fields(mnemonic), " ")
}

// KeyFromMnemonic derives the secret key for a BIP39 mnemonic. The same
// mnemonic and passphrase always yield the same key.
func KeyFromMnemonic(mnemonic, passphrase string) (*SecretKey, error) {
	mnemonic = NormalizeMnemonic(mnemonic)

	words := len(strings.Fields(mnemonic))
	if words != 12 && words != 24 {
		return nil, fmt.Errorf("invalid mnemonic length: expected 12 or 24 words, got %d", words)
	}

	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("invalid mnemonic: %w", err)
	}
	return KeyFromSeed(seed)
}
