package keeper

import (
	"context"
	"fmt"

	capabilitytypes "github.com/cosmos/ibc-go/modules/capability/types"

	"github.com/0xOmarA/radix-oracle-contracts/x/oracle/types"
)

// InitGenesis initializes the oracle module's state from a genesis state.
// A genesis carrying a public key instantiates the oracle and returns the
// freshly issued admin badge; an empty genesis leaves it uninstantiated.
func (k Keeper) InitGenesis(ctx context.Context, data types.GenesisState) (*capabilitytypes.Capability, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}
	if data.PublicKey == "" {
		return nil, nil
	}

	badge, err := k.Instantiate(ctx, data.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate oracle: %w", err)
	}

	for _, n := range data.UsedNonces {
		if err := k.nonces.Consume(ctx, n); err != nil {
			return nil, fmt.Errorf("failed to import nonce %d: %w", n, err)
		}
	}

	return badge, nil
}

// ExportGenesis exports the oracle module's state to a genesis state
func (k Keeper) ExportGenesis(ctx context.Context) (*types.GenesisState, error) {
	genesis := types.DefaultGenesis()

	pk, err := k.GetPublicKey(ctx)
	if types.ErrNotInstantiated.Is(err) {
		return genesis, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get public key: %w", err)
	}
	genesis.PublicKey = pk.String()

	err = k.IterateUsedNonces(ctx, func(n uint64) bool {
		genesis.UsedNonces = append(genesis.UsedNonces, n)
		return false
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get used nonces: %w", err)
	}

	return genesis, nil
}
