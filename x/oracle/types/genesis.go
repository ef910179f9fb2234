package types

import "fmt"

// GenesisState is the exported oracle state. An empty PublicKey means the
// oracle has not been instantiated yet.
type GenesisState struct {
	PublicKey  string   `json:"public_key,omitempty"`
	UsedNonces []uint64 `json:"used_nonces"`
}

// DefaultGenesis returns the default genesis state for the oracle module.
func DefaultGenesis() *GenesisState {
	return &GenesisState{
		UsedNonces: []uint64{},
	}
}

// Validate ensures the genesis state is well-formed.
func (gs GenesisState) Validate() error {
	if gs.PublicKey != "" {
		if _, err := ParsePublicKey(gs.PublicKey); err != nil {
			return ErrInvalidGenesis.Wrapf("public key: %v", err)
		}
	} else if len(gs.UsedNonces) > 0 {
		return ErrInvalidGenesis.Wrap("used nonces require an authorized public key")
	}

	seen := make(map[uint64]struct{}, len(gs.UsedNonces))
	for _, n := range gs.UsedNonces {
		if _, ok := seen[n]; ok {
			return ErrInvalidGenesis.Wrap(fmt.Sprintf("duplicate nonce %d", n))
		}
		seen[n] = struct{}{}
	}

	return nil
}
