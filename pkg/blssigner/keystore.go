package blssigner

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"golang.org/x/crypto/argon2"
)

const (
	keyFileVersion = 1
	keyFileExt     = ".json"

	kdfArgon2id  = "argon2id"
	cipherAESGCM = "aes-256-gcm"

	saltSize = 16

	// maxKDFMemory caps Argon2 memory (KiB) read from disk at 4 GiB.
	maxKDFMemory = 4 * 1024 * 1024
)

// ErrKeyNotFound is returned by Keystore.Load for an unknown key name.
var ErrKeyNotFound = errors.New("key not found")

var keyNameRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]{0,63}$`)

// KDFParams are the Argon2id cost parameters of a key file.
type KDFParams struct {
	Time    uint32 `json:"time"`
	Memory  uint32 `json:"memory"`
	Threads uint8  `json:"threads"`
}

// Validate rejects parameters argon2 cannot run with. Memory is in KiB and
// must cover 8 KiB per thread.
func (p KDFParams) Validate() error {
	switch {
	case p.Time < 1:
		return errors.New("kdf time must be at least 1")
	case p.Threads < 1:
		return errors.New("kdf threads must be at least 1")
	case p.Memory < 8*uint32(p.Threads):
		return fmt.Errorf("kdf memory must be at least %d KiB for %d threads", 8*uint32(p.Threads), p.Threads)
	case p.Memory > maxKDFMemory:
		return fmt.Errorf("kdf memory exceeds %d KiB", maxKDFMemory)
	}
	return nil
}

// DefaultKDFParams: time=3, memory=64MB, threads=4.
var DefaultKDFParams = KDFParams{Time: 3, Memory: 64 * 1024, Threads: 4}

// KeyFile is the on-disk form of an encrypted secret key.
type KeyFile struct {
	Version    int       `json:"version"`
	Name       string    `json:"name"`
	PublicKey  string    `json:"public_key"`
	KDF        string    `json:"kdf"`
	KDFParams  KDFParams `json:"kdf_params"`
	Cipher     string    `json:"cipher"`
	Salt       string    `json:"salt"`
	Nonce      string    `json:"nonce"`
	Ciphertext string    `json:"ciphertext"`
}

// Keystore keeps passphrase-encrypted secret keys as JSON files in a
// directory.
type Keystore struct {
	dir    string
	params KDFParams
}

// NewKeystore opens a keystore rooted at dir.
func NewKeystore(dir string) *Keystore {
	return &Keystore{dir: dir, params: DefaultKDFParams}
}

// WithKDFParams returns a copy of the keystore that encrypts new keys with p.
func (ks *Keystore) WithKDFParams(p KDFParams) *Keystore {
	return &Keystore{dir: ks.dir, params: p}
}

func (ks *Keystore) path(name string) string {
	return filepath.Join(ks.dir, name+keyFileExt)
}

// Save encrypts sk under passphrase and writes it as name. Existing keys are
// never overwritten.
func (ks *Keystore) Save(name string, sk *SecretKey, passphrase string) (*KeyFile, error) {
	if !keyNameRe.MatchString(name) {
		return nil, fmt.Errorf("invalid key name %q", name)
	}
	if passphrase == "" {
		return nil, errors.New("passphrase cannot be empty")
	}
	if err := ks.params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid kdf params: %w", err)
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	key := deriveEncryptionKey([]byte(passphrase), salt, ks.params)
	ciphertext, nonce, err := encryptAESGCM(sk.Bytes(), key, []byte(name))
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt key: %w", err)
	}

	kf := &KeyFile{
		Version:    keyFileVersion,
		Name:       name,
		PublicKey:  sk.PublicKey().String(),
		KDF:        kdfArgon2id,
		KDFParams:  ks.params,
		Cipher:     cipherAESGCM,
		Salt:       hex.EncodeToString(salt),
		Nonce:      hex.EncodeToString(nonce),
		Ciphertext: hex.EncodeToString(ciphertext),
	}

	bz, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(ks.dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create keystore directory: %w", err)
	}

	f, err := os.OpenFile(ks.path(name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("key %q already exists", name)
		}
		return nil, err
	}
	defer f.Close()

	if _, err := f.Write(bz); err != nil {
		return nil, err
	}
	return kf, nil
}

// Info reads the key file of name without decrypting it.
func (ks *Keystore) Info(name string) (*KeyFile, error) {
	if !keyNameRe.MatchString(name) {
		return nil, fmt.Errorf("invalid key name %q", name)
	}
	bz, err := os.ReadFile(ks.path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, name)
		}
		return nil, err
	}

	var kf KeyFile
	if err := json.Unmarshal(bz, &kf); err != nil {
		return nil, fmt.Errorf("corrupt key file %s: %w", name, err)
	}
	if kf.Version != keyFileVersion || kf.KDF != kdfArgon2id || kf.Cipher != cipherAESGCM {
		return nil, fmt.Errorf("unsupported key file %s (version %d, kdf %s, cipher %s)", name, kf.Version, kf.KDF, kf.Cipher)
	}
	if err := kf.KDFParams.Validate(); err != nil {
		return nil, fmt.Errorf("corrupt key file %s: %w", name, err)
	}
	return &kf, nil
}

// Load decrypts the key stored as name.
func (ks *Keystore) Load(name, passphrase string) (*SecretKey, error) {
	kf, err := ks.Info(name)
	if err != nil {
		return nil, err
	}

	salt, err := hex.DecodeString(kf.Salt)
	if err != nil {
		return nil, fmt.Errorf("corrupt salt: %w", err)
	}
	nonce, err := hex.DecodeString(kf.Nonce)
	if err != nil {
		return nil, fmt.Errorf("corrupt nonce: %w", err)
	}
	ciphertext, err := hex.DecodeString(kf.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("corrupt ciphertext: %w", err)
	}

	key := deriveEncryptionKey([]byte(passphrase), salt, kf.KDFParams)
	plaintext, err := decryptAESGCM(ciphertext, key, nonce, []byte(kf.Name))
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt key %s: wrong passphrase?", name)
	}

	sk, err := SecretKeyFromBytes(plaintext)
	if err != nil {
		return nil, err
	}
	if sk.PublicKey().String() != kf.PublicKey {
		return nil, fmt.Errorf("key file %s: public key does not match secret key", name)
	}
	return sk, nil
}

// List returns the names of the stored keys.
func (ks *Keystore) List() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(ks.dir, "*"+keyFileExt))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		name := filepath.Base(m)
		names = append(names, name[:len(name)-len(keyFileExt)])
	}
	return names, nil
}

func deriveEncryptionKey(passphrase, salt []byte, p KDFParams) []byte {
	return argon2.IDKey(passphrase, salt, p.Time, p.Memory, p.Threads, 32)
}

func encryptAESGCM(plaintext, key, additionalData []byte) (ciphertext, nonce []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, err
	}

	nonce = make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, err
	}
	return gcm.Seal(nil, nonce, plaintext, additionalData), nonce, nil
}

func decryptAESGCM(ciphertext, key, nonce, additionalData []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, errors.New("invalid nonce size")
	}
	return gcm.Open(nil, nonce, ciphertext, additionalData)
}
