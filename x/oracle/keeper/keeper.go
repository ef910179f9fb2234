package keeper

import (
	"context"
	"fmt"

	"cosmossdk.io/core/store"
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	sdk "github.com/cosmos/cosmos-sdk/types"
	capabilitytypes "github.com/cosmos/ibc-go/modules/capability/types"

	"github.com/0xOmarA/radix-oracle-contracts/x/oracle/types"
	"github.com/0xOmarA/radix-oracle-contracts/x/shared/nonce"
)

// Keeper maintains the state of the Oracle module
type Keeper struct {
	storeService store.KVStoreService
	scopedKeeper types.ScopedKeeper
	nonces       *nonce.Manager
	metrics      *OracleMetrics
}

// NewKeeper creates a new Oracle Keeper instance
func NewKeeper(storeService store.KVStoreService, scopedKeeper types.ScopedKeeper) *Keeper {
	return &Keeper{
		storeService: storeService,
		scopedKeeper: scopedKeeper,
		nonces:       nonce.NewManager(storeService, types.UsedNonceKeyPrefix, types.UsedNonceCountKey, oracleErrorProvider{}),
		metrics:      NewOracleMetrics(),
	}
}

// oracleErrorProvider implements nonce.ErrorProvider for the oracle module.
type oracleErrorProvider struct{}

// NonceReusedError returns oracle module's nonce reuse error, carrying its
// recovery hint.
func (oracleErrorProvider) NonceReusedError(msg string) error {
	return types.WrapWithRecovery(types.ErrNonceReused, "%s", msg)
}

// Logger returns a module-specific logger
func (k Keeper) Logger(ctx context.Context) log.Logger {
	return sdk.UnwrapSDKContext(ctx).Logger().With("module", fmt.Sprintf("x/%s", types.ModuleName))
}

// Instantiate sets the initial authorized key and issues the admin badge.
// It can succeed once per store: the badge capability name is unique and a
// second call finds the key already set.
func (k Keeper) Instantiate(ctx context.Context, publicKey string) (*capabilitytypes.Capability, error) {
	if _, err := k.GetPublicKey(ctx); err == nil {
		return nil, types.ErrAlreadyInstantiated
	}

	pk, err := types.ParsePublicKey(publicKey)
	if err != nil {
		return nil, err
	}

	badge, err := k.issueAdminBadge(ctx)
	if err != nil {
		return nil, err
	}

	if err := k.setPublicKey(ctx, pk); err != nil {
		return nil, err
	}

	k.Logger(ctx).Info("oracle instantiated", "public_key", pk.String())
	return badge, nil
}

func (k Keeper) issueAdminBadge(ctx context.Context) (*capabilitytypes.Capability, error) {
	badge, err := k.scopedKeeper.NewCapability(sdk.UnwrapSDKContext(ctx), types.AdminBadgeName)
	if err != nil {
		return nil, errorsmod.Wrap(types.ErrAlreadyInstantiated, err.Error())
	}
	return badge, nil
}

// GetAdminBadge returns the admin badge owned by this module. Only the host
// that instantiated the oracle should call it, typically to recover the badge
// after a restart.
func (k Keeper) GetAdminBadge(ctx context.Context) (*capabilitytypes.Capability, bool) {
	return k.scopedKeeper.GetCapability(sdk.UnwrapSDKContext(ctx), types.AdminBadgeName)
}

// AuthenticateAdminBadge reports whether badge is the admin badge.
func (k Keeper) AuthenticateAdminBadge(ctx context.Context, badge *capabilitytypes.Capability) bool {
	if badge == nil {
		return false
	}
	return k.scopedKeeper.AuthenticateCapability(sdk.UnwrapSDKContext(ctx), badge, types.AdminBadgeName)
}
