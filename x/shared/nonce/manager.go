// Package nonce provides store-backed nonce bookkeeping for replay attack prevention.
//
// The Manager tracks every nonce ever consumed under a key prefix. The set only
// grows: there is no expiry window and no pruning, so a nonce accepted once is
// rejected for the lifetime of the store.
package nonce

import (
	"context"
	"encoding/binary"
	"fmt"

	"cosmossdk.io/core/store"
	storetypes "cosmossdk.io/store/types"
)

// ErrorProvider allows modules to provide their own error types while using shared nonce logic.
// Each module implements this interface to wrap errors with their module-specific error types.
type ErrorProvider interface {
	// NonceReusedError returns an error for a nonce that was already consumed
	NonceReusedError(msg string) error
}

// Manager is an unbounded set of consumed uint64 nonces.
type Manager struct {
	storeService  store.KVStoreService
	prefix        []byte
	countKey      []byte
	errorProvider ErrorProvider
}

// NewManager creates a nonce manager.
// storeService: the module's store for persistence
// prefix: key prefix under which consumed nonces are recorded
// countKey: key holding the number of consumed nonces (must be outside prefix)
// errorProvider: module-specific error type provider
func NewManager(storeService store.KVStoreService, prefix, countKey []byte, errorProvider ErrorProvider) *Manager {
	return &Manager{
		storeService:  storeService,
		prefix:        prefix,
		countKey:      countKey,
		errorProvider: errorProvider,
	}
}

// encodeNonce encodes a uint64 nonce to bytes
func encodeNonce(n uint64) []byte {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, n)
	return bz
}

// decodeNonce decodes bytes to a uint64 nonce
func decodeNonce(bz []byte) uint64 {
	if len(bz) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(bz)
}

// nonceKey generates the store key for a consumed nonce
func (m *Manager) nonceKey(n uint64) []byte {
	key := make([]byte, 0, len(m.prefix)+8)
	key = append(key, m.prefix...)
	return append(key, encodeNonce(n)...)
}

// IsUsed reports whether n has been consumed.
func (m *Manager) IsUsed(ctx context.Context, n uint64) (bool, error) {
	return m.storeService.OpenKVStore(ctx).Has(m.nonceKey(n))
}

// Consume records n as used. Membership test and insert happen against the
// same store within one call; the host serializes calls, so two consumers can
// never both succeed for the same nonce.
func (m *Manager) Consume(ctx context.Context, n uint64) error {
	kvStore := m.storeService.OpenKVStore(ctx)
	key := m.nonceKey(n)

	used, err := kvStore.Has(key)
	if err != nil {
		return err
	}
	if used {
		return m.errorProvider.NonceReusedError(fmt.Sprintf("replay attack detected: nonce %d already used", n))
	}

	if err := kvStore.Set(key, []byte{1}); err != nil {
		return err
	}
	return m.incrementCount(ctx)
}

// Count returns the number of consumed nonces.
func (m *Manager) Count(ctx context.Context) (uint64, error) {
	bz, err := m.storeService.OpenKVStore(ctx).Get(m.countKey)
	if err != nil {
		return 0, err
	}
	return decodeNonce(bz), nil
}

func (m *Manager) incrementCount(ctx context.Context) error {
	count, err := m.Count(ctx)
	if err != nil {
		return err
	}
	return m.storeService.OpenKVStore(ctx).Set(m.countKey, encodeNonce(count+1))
}

// Iterate walks consumed nonces in ascending order until cb returns true.
func (m *Manager) Iterate(ctx context.Context, cb func(n uint64) (stop bool)) error {
	kvStore := m.storeService.OpenKVStore(ctx)
	iterator, err := kvStore.Iterator(m.prefix, storetypes.PrefixEndBytes(m.prefix))
	if err != nil {
		return err
	}
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		if cb(decodeNonce(iterator.Key()[len(m.prefix):])) {
			break
		}
	}
	return nil
}
