// Package app hosts the oracle: it owns the persistent store, serializes every
// call into the oracle module, commits the result and fans events out to
// subscribers.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	pruningtypes "cosmossdk.io/store/pruning/types"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	"github.com/cosmos/cosmos-sdk/runtime"
	sdk "github.com/cosmos/cosmos-sdk/types"
	capabilitykeeper "github.com/cosmos/ibc-go/modules/capability/keeper"
	capabilitytypes "github.com/cosmos/ibc-go/modules/capability/types"

	"github.com/0xOmarA/radix-oracle-contracts/x/oracle"
	oraclekeeper "github.com/0xOmarA/radix-oracle-contracts/x/oracle/keeper"
	oracletypes "github.com/0xOmarA/radix-oracle-contracts/x/oracle/types"
)

const (
	// Name is the application name, also used as the database name.
	Name = "oracled"
)

var (
	// DefaultNodeHome is the default home directory for the application daemon.
	DefaultNodeHome string

	// ErrAlreadyInitialized is returned by InitChain on a store that has
	// already committed state.
	ErrAlreadyInitialized = errors.New("oracle store already initialized")
)

func init() {
	userHomeDir, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}
	DefaultNodeHome = filepath.Join(userHomeDir, "."+Name)
}

// EventHandler receives the events of every committed call.
type EventHandler func(sdk.Event)

// OracleApp is the host runtime of the oracle module.
type OracleApp struct {
	mu     sync.Mutex
	logger log.Logger
	db     dbm.DB
	cms    storetypes.CommitMultiStore

	keys    map[string]*storetypes.KVStoreKey
	memKeys map[string]*storetypes.MemoryStoreKey

	CapabilityKeeper   *capabilitykeeper.Keeper
	ScopedOracleKeeper capabilitykeeper.ScopedKeeper
	OracleKeeper       *oraclekeeper.Keeper

	oracleModule oracle.AppModule
	msgServer    oracletypes.MsgServer

	handlersMu sync.RWMutex
	handlers   []EventHandler

	// dispatchMu is taken before mu is released so events reach handlers in
	// commit order.
	dispatchMu sync.Mutex
}

// OpenDB opens the application database under <home>/data.
func OpenDB(home string, backend dbm.BackendType) (dbm.DB, error) {
	dataDir := filepath.Join(home, "data")
	if backend == dbm.MemDBBackend {
		return dbm.NewMemDB(), nil
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return dbm.NewDB(Name, backend, dataDir)
}

// New loads the latest committed state from db and wires the keepers.
func New(logger log.Logger, db dbm.DB) (*OracleApp, error) {
	app := &OracleApp{
		logger: logger.With("module", "app"),
		db:     db,
		keys: map[string]*storetypes.KVStoreKey{
			oracletypes.StoreKey:     storetypes.NewKVStoreKey(oracletypes.StoreKey),
			capabilitytypes.StoreKey: storetypes.NewKVStoreKey(capabilitytypes.StoreKey),
		},
		memKeys: map[string]*storetypes.MemoryStoreKey{
			capabilitytypes.MemStoreKey: storetypes.NewMemoryStoreKey(capabilitytypes.MemStoreKey),
		},
	}

	app.cms = store.NewCommitMultiStore(db, logger, metrics.NewNoOpMetrics())
	app.cms.SetPruning(pruningtypes.NewPruningOptions(pruningtypes.PruningEverything))
	for _, key := range app.keys {
		app.cms.MountStoreWithDB(key, storetypes.StoreTypeIAVL, nil)
	}
	for _, key := range app.memKeys {
		app.cms.MountStoreWithDB(key, storetypes.StoreTypeMemory, nil)
	}
	if err := app.cms.LoadLatestVersion(); err != nil {
		return nil, fmt.Errorf("failed to load latest version: %w", err)
	}

	cdc := codec.NewProtoCodec(codectypes.NewInterfaceRegistry())
	app.CapabilityKeeper = capabilitykeeper.NewKeeper(
		cdc,
		app.keys[capabilitytypes.StoreKey],
		app.memKeys[capabilitytypes.MemStoreKey],
	)
	app.ScopedOracleKeeper = app.CapabilityKeeper.ScopeToModule(oracletypes.ModuleName)
	app.CapabilityKeeper.Seal()

	app.OracleKeeper = oraclekeeper.NewKeeper(
		runtime.NewKVStoreService(app.keys[oracletypes.StoreKey]),
		app.ScopedOracleKeeper,
	)
	app.oracleModule = oracle.NewAppModule(app.OracleKeeper)
	app.msgServer = oraclekeeper.NewMsgServerImpl(app.OracleKeeper)

	// The capability index lives in the persistent store; the in-memory
	// owner map is rebuilt from it on every start.
	ctx := app.newContext(context.Background())
	if app.CapabilityKeeper.GetLatestIndex(ctx) == 0 {
		if err := app.CapabilityKeeper.InitializeIndex(ctx, 1); err != nil {
			return nil, fmt.Errorf("failed to initialize capability index: %w", err)
		}
	}
	app.CapabilityKeeper.InitMemStore(ctx)

	app.logger.Info("oracle store loaded", "height", app.LastBlockHeight())
	return app, nil
}

// Logger returns the application logger.
func (app *OracleApp) Logger() log.Logger {
	return app.logger
}

// LastBlockHeight returns the last committed version of the store.
func (app *OracleApp) LastBlockHeight() int64 {
	return app.cms.LastCommitID().Version
}

func (app *OracleApp) newContext(goCtx context.Context) sdk.Context {
	header := cmtproto.Header{
		ChainID: Name,
		Height:  app.LastBlockHeight() + 1,
		Time:    time.Now().UTC(),
	}
	return sdk.NewContext(app.cms, header, false, app.logger).WithContext(goCtx)
}

// Subscribe registers h for the events of every committed call. Handlers run
// one call at a time in commit order and must not call back into the app.
func (app *OracleApp) Subscribe(h EventHandler) {
	app.handlersMu.Lock()
	defer app.handlersMu.Unlock()
	app.handlers = append(app.handlers, h)
}

func (app *OracleApp) dispatch(events sdk.Events) {
	app.handlersMu.RLock()
	defer app.handlersMu.RUnlock()
	for _, event := range events {
		app.logger.Info("oracle event", "type", event.Type)
		for _, h := range app.handlers {
			h(event)
		}
	}
}

// execute runs fn under the host lock against a branch of the store. The
// branch is committed when fn succeeded, or when it failed after the boundary
// kept partial effects.
func (app *OracleApp) execute(goCtx context.Context, fn func(ctx sdk.Context) error) error {
	app.mu.Lock()
	cacheMS := app.cms.CacheMultiStore()
	ctx := app.newContext(goCtx).WithMultiStore(cacheMS)
	err := fn(ctx)
	committed := err == nil || oracletypes.ErrNonceReused.Is(err)
	if committed {
		cacheMS.Write()
		app.cms.Commit()
		app.dispatchMu.Lock()
	}
	app.mu.Unlock()

	if err != nil {
		app.logger.Debug("request rejected", "err", err)
	}
	if committed {
		defer app.dispatchMu.Unlock()
		app.dispatch(ctx.EventManager().Events())
	}
	return err
}

// query runs fn against a discarded branch of the latest state.
func (app *OracleApp) query(goCtx context.Context, fn func(ctx sdk.Context) error) error {
	app.mu.Lock()
	defer app.mu.Unlock()
	ctx := app.newContext(goCtx)
	return fn(ctx.WithMultiStore(app.cms.CacheMultiStore()))
}

// Instantiate constructs the oracle with its first authorized key and returns
// the admin badge.
func (app *OracleApp) Instantiate(goCtx context.Context, publicKey string) (*capabilitytypes.Capability, error) {
	var badge *capabilitytypes.Capability
	err := app.execute(goCtx, func(ctx sdk.Context) (err error) {
		badge, err = app.OracleKeeper.Instantiate(ctx, publicKey)
		return err
	})
	return badge, err
}

// CheckPriceInput verifies a signed price message.
func (app *OracleApp) CheckPriceInput(goCtx context.Context, msg *oracletypes.MsgCheckPriceInput) (*oracletypes.MsgCheckPriceInputResponse, error) {
	var resp *oracletypes.MsgCheckPriceInputResponse
	err := app.execute(goCtx, func(ctx sdk.Context) (err error) {
		resp, err = app.msgServer.CheckPriceInput(ctx, msg)
		return err
	})
	return resp, err
}

// CheckPricesInput verifies a signed batch of price messages.
func (app *OracleApp) CheckPricesInput(goCtx context.Context, msg *oracletypes.MsgCheckPricesInput) (*oracletypes.MsgCheckPricesInputResponse, error) {
	var resp *oracletypes.MsgCheckPricesInputResponse
	err := app.execute(goCtx, func(ctx sdk.Context) (err error) {
		resp, err = app.msgServer.CheckPricesInput(ctx, msg)
		return err
	})
	return resp, err
}

// SetOraclePublicKey rotates the authorized key with the badge carried by msg.
func (app *OracleApp) SetOraclePublicKey(goCtx context.Context, msg *oracletypes.MsgSetOraclePublicKey) error {
	return app.execute(goCtx, func(ctx sdk.Context) error {
		_, err := app.msgServer.SetOraclePublicKey(ctx, msg)
		return err
	})
}

// AdminBadge returns the admin badge held by the host.
func (app *OracleApp) AdminBadge(goCtx context.Context) (*capabilitytypes.Capability, error) {
	var badge *capabilitytypes.Capability
	err := app.query(goCtx, func(ctx sdk.Context) error {
		var found bool
		badge, found = app.OracleKeeper.GetAdminBadge(ctx)
		if !found {
			return oracletypes.ErrNotInstantiated
		}
		return nil
	})
	return badge, err
}

// RotatePublicKey rotates the authorized key using the host's admin badge.
// Callers must authenticate the operator before reaching it.
func (app *OracleApp) RotatePublicKey(goCtx context.Context, publicKey string) error {
	badge, err := app.AdminBadge(goCtx)
	if err != nil {
		return err
	}
	return app.SetOraclePublicKey(goCtx, &oracletypes.MsgSetOraclePublicKey{
		AdminBadge: badge,
		PublicKey:  publicKey,
	})
}

// Status summarizes the oracle state.
type Status struct {
	Instantiated bool   `json:"instantiated"`
	PublicKey    string `json:"public_key,omitempty"`
	UsedNonces   uint64 `json:"used_nonces"`
	Height       int64  `json:"height"`
}

// Status returns the current authorized key and used nonce count.
func (app *OracleApp) Status(goCtx context.Context) (Status, error) {
	var status Status
	err := app.query(goCtx, func(ctx sdk.Context) error {
		status.Height = app.LastBlockHeight()

		pk, err := app.OracleKeeper.GetPublicKey(ctx)
		if oracletypes.ErrNotInstantiated.Is(err) {
			return nil
		}
		if err != nil {
			return err
		}
		status.Instantiated = true
		status.PublicKey = pk.String()

		status.UsedNonces, err = app.OracleKeeper.UsedNonceCount(ctx)
		return err
	})
	return status, err
}

// IsNonceUsed reports whether nonce has been consumed.
func (app *OracleApp) IsNonceUsed(goCtx context.Context, nonce uint64) (bool, error) {
	var used bool
	err := app.query(goCtx, func(ctx sdk.Context) (err error) {
		used, err = app.OracleKeeper.IsNonceUsed(ctx, nonce)
		return err
	})
	return used, err
}

// Close releases the database.
func (app *OracleApp) Close() error {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.db.Close()
}
