package keeper

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/0xOmarA/radix-oracle-contracts/x/oracle/types"
)

// GetPublicKey returns the authorized signer's key.
func (k Keeper) GetPublicKey(ctx context.Context) (types.PublicKey, error) {
	bz, err := k.storeService.OpenKVStore(ctx).Get(types.PublicKeyKey)
	if err != nil {
		return types.PublicKey{}, err
	}
	if bz == nil {
		return types.PublicKey{}, types.ErrNotInstantiated
	}
	return types.PublicKeyFromBytes(bz)
}

func (k Keeper) setPublicKey(ctx context.Context, pk types.PublicKey) error {
	return k.storeService.OpenKVStore(ctx).Set(types.PublicKeyKey, pk.Bytes())
}

// SetOraclePublicKey replaces the authorized key. The previous key stops
// verifying immediately; consumed nonces are kept. Authorization is the
// caller's responsibility (see MsgServer.SetOraclePublicKey).
func (k Keeper) SetOraclePublicKey(ctx context.Context, publicKey string) error {
	if _, err := k.GetPublicKey(ctx); err != nil {
		return err
	}

	pk, err := types.ParsePublicKey(publicKey)
	if err != nil {
		return err
	}

	if err := k.setPublicKey(ctx, pk); err != nil {
		return err
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypePublicKeyRotated,
			sdk.NewAttribute(types.AttributeKeyNewPublicKey, pk.String()),
		),
	)

	k.metrics.KeyRotations.Inc()
	k.Logger(ctx).Info("oracle public key rotated", "new_public_key", pk.String())
	return nil
}
