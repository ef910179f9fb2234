package keeper

import (
	"testing"

	"cosmossdk.io/log"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	"github.com/cosmos/cosmos-sdk/runtime"
	sdk "github.com/cosmos/cosmos-sdk/types"
	capabilitykeeper "github.com/cosmos/ibc-go/modules/capability/keeper"
	capabilitytypes "github.com/cosmos/ibc-go/modules/capability/types"
	"github.com/stretchr/testify/require"

	"github.com/0xOmarA/radix-oracle-contracts/pkg/blssigner"
	"github.com/0xOmarA/radix-oracle-contracts/x/oracle/keeper"
	"github.com/0xOmarA/radix-oracle-contracts/x/oracle/types"
)

// OracleFixture bundles an in-memory oracle keeper with the stores and
// capability keeper behind it.
type OracleFixture struct {
	Keeper       *keeper.Keeper
	Ctx          sdk.Context
	Store        storetypes.CommitMultiStore
	ScopedKeeper capabilitykeeper.ScopedKeeper
}

// NewOracleFixture mounts the oracle and capability stores on a MemDB and
// returns an uninstantiated oracle.
func NewOracleFixture(t testing.TB) *OracleFixture {
	storeKey := storetypes.NewKVStoreKey(types.StoreKey)
	capStoreKey := storetypes.NewKVStoreKey(capabilitytypes.StoreKey)
	capMemStoreKey := storetypes.NewMemoryStoreKey(capabilitytypes.MemStoreKey)

	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), metrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	stateStore.MountStoreWithDB(capStoreKey, storetypes.StoreTypeIAVL, db)
	stateStore.MountStoreWithDB(capMemStoreKey, storetypes.StoreTypeMemory, nil)
	require.NoError(t, stateStore.LoadLatestVersion())

	registry := codectypes.NewInterfaceRegistry()
	cdc := codec.NewProtoCodec(registry)

	capKeeper := capabilitykeeper.NewKeeper(cdc, capStoreKey, capMemStoreKey)
	scopedOracleKeeper := capKeeper.ScopeToModule(types.ModuleName)
	capKeeper.Seal()

	ctx := sdk.NewContext(stateStore, cmtproto.Header{}, false, log.NewNopLogger())
	require.NoError(t, capKeeper.InitializeIndex(ctx, 1))
	capKeeper.InitMemStore(ctx)

	k := keeper.NewKeeper(runtime.NewKVStoreService(storeKey), scopedOracleKeeper)

	return &OracleFixture{
		Keeper:       k,
		Ctx:          ctx,
		Store:        stateStore,
		ScopedKeeper: scopedOracleKeeper,
	}
}

// OracleKeeper creates a test keeper for the Oracle module, instantiated with
// a deterministic signer. Returns the keeper, the signer, the admin badge and
// the context.
func OracleKeeper(t testing.TB) (*keeper.Keeper, *blssigner.SecretKey, *capabilitytypes.Capability, sdk.Context) {
	f := NewOracleFixture(t)
	sk := TestSigner(t, "oracle")

	badge, err := f.Keeper.Instantiate(f.Ctx, sk.PublicKey().String())
	require.NoError(t, err)

	return f.Keeper, sk, badge, f.Ctx
}

// TestSigner derives a deterministic signing key from seed.
func TestSigner(t testing.TB, seed string) *blssigner.SecretKey {
	sk, err := blssigner.KeyFromSeed([]byte(seed))
	require.NoError(t, err)
	return sk
}

// Sign signs message with sk and returns the hex signature.
func Sign(t testing.TB, sk *blssigner.SecretKey, message string) string {
	sig, err := sk.SignString(message)
	require.NoError(t, err)
	return sig
}
