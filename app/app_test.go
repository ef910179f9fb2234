package app_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"cosmossdk.io/log"
	dbm "github.com/cosmos/cosmos-db"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/0xOmarA/radix-oracle-contracts/app"
	"github.com/0xOmarA/radix-oracle-contracts/pkg/blssigner"
	oracletypes "github.com/0xOmarA/radix-oracle-contracts/x/oracle/types"
)

func signer(t *testing.T, seed string) *blssigner.SecretKey {
	sk, err := blssigner.KeyFromSeed([]byte(seed))
	require.NoError(t, err)
	return sk
}

func sign(t *testing.T, sk *blssigner.SecretKey, message string) string {
	sig, err := sk.SignString(message)
	require.NoError(t, err)
	return sig
}

func setupApp(t *testing.T, db dbm.DB, sk *blssigner.SecretKey) *app.OracleApp {
	oracleApp, err := app.New(log.NewNopLogger(), db)
	require.NoError(t, err)

	if sk != nil {
		gs, err := app.NewGenesisState(sk.PublicKey().String())
		require.NoError(t, err)
		require.NoError(t, oracleApp.InitChain(context.Background(), gs))
	}
	return oracleApp
}

func TestInitChain(t *testing.T) {
	ctx := context.Background()
	sk := signer(t, "oracle")
	oracleApp := setupApp(t, dbm.NewMemDB(), sk)

	status, err := oracleApp.Status(ctx)
	require.NoError(t, err)
	require.True(t, status.Instantiated)
	require.Equal(t, sk.PublicKey().String(), status.PublicKey)
	require.Zero(t, status.UsedNonces)
	require.Equal(t, int64(1), status.Height)

	badge, err := oracleApp.AdminBadge(ctx)
	require.NoError(t, err)
	require.NotNil(t, badge)

	err = oracleApp.InitChain(ctx, app.NewDefaultGenesisState())
	require.ErrorIs(t, err, app.ErrAlreadyInitialized)
}

func TestInitChainDefaultGenesis(t *testing.T) {
	ctx := context.Background()
	oracleApp := setupApp(t, dbm.NewMemDB(), nil)
	require.NoError(t, oracleApp.InitChain(ctx, app.NewDefaultGenesisState()))

	status, err := oracleApp.Status(ctx)
	require.NoError(t, err)
	require.False(t, status.Instantiated)

	_, err = oracleApp.AdminBadge(ctx)
	require.ErrorIs(t, err, oracletypes.ErrNotInstantiated)

	// Instantiation after an empty genesis.
	sk := signer(t, "oracle")
	badge, err := oracleApp.Instantiate(ctx, sk.PublicKey().String())
	require.NoError(t, err)
	require.NotNil(t, badge)

	_, err = oracleApp.Instantiate(ctx, sk.PublicKey().String())
	require.ErrorIs(t, err, oracletypes.ErrAlreadyInstantiated)
}

func TestInitChainInvalidGenesis(t *testing.T) {
	oracleApp := setupApp(t, dbm.NewMemDB(), nil)

	gs := app.GenesisState{oracletypes.ModuleName: json.RawMessage(`{"public_key":"abcd"}`)}
	require.Error(t, oracleApp.InitChain(context.Background(), gs))
	require.Zero(t, oracleApp.LastBlockHeight())
}

func TestCheckPriceInputCommits(t *testing.T) {
	ctx := context.Background()
	sk := signer(t, "oracle")
	oracleApp := setupApp(t, dbm.NewMemDB(), sk)

	message := "42|BTC|65000|1700000000"
	resp, err := oracleApp.CheckPriceInput(ctx, &oracletypes.MsgCheckPriceInput{Message: message, Signature: sign(t, sk, message)})
	require.NoError(t, err)
	require.Equal(t, "BTC", resp.PriceMessage.Symbol)
	require.Equal(t, int64(2), oracleApp.LastBlockHeight())

	_, err = oracleApp.CheckPriceInput(ctx, &oracletypes.MsgCheckPriceInput{Message: message, Signature: sign(t, sk, message)})
	require.ErrorIs(t, err, oracletypes.ErrNonceReused)

	_, err = oracleApp.CheckPriceInput(ctx, &oracletypes.MsgCheckPriceInput{Message: "43|BTC|1|1", Signature: sign(t, sk, message)})
	require.ErrorIs(t, err, oracletypes.ErrInvalidSignature)

	used, err := oracleApp.IsNonceUsed(ctx, 43)
	require.NoError(t, err)
	require.False(t, used)
}

func TestCheckPricesInputPartialCommit(t *testing.T) {
	ctx := context.Background()
	sk := signer(t, "oracle")
	oracleApp := setupApp(t, dbm.NewMemDB(), sk)

	batch := "1|BTC|1|1,2|ETH|1|1,2|XRD|1|1"
	_, err := oracleApp.CheckPricesInput(ctx, &oracletypes.MsgCheckPricesInput{Message: batch, Signature: sign(t, sk, batch)})
	require.ErrorIs(t, err, oracletypes.ErrNonceReused)

	status, err := oracleApp.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(2), status.UsedNonces)
}

func TestRotatePublicKeyEvents(t *testing.T) {
	ctx := context.Background()
	sk := signer(t, "oracle")
	oracleApp := setupApp(t, dbm.NewMemDB(), sk)

	var events []sdk.Event
	oracleApp.Subscribe(func(e sdk.Event) { events = append(events, e) })

	next := signer(t, "next")
	require.NoError(t, oracleApp.RotatePublicKey(ctx, next.PublicKey().String()))
	require.Len(t, events, 1)
	require.Equal(t, oracletypes.EventTypePublicKeyRotated, events[0].Type)

	require.ErrorIs(t, oracleApp.RotatePublicKey(ctx, "abcd"), oracletypes.ErrInvalidKeyEncoding)
	require.Len(t, events, 1)

	message := "7|BTC|1|1"
	_, err := oracleApp.CheckPriceInput(ctx, &oracletypes.MsgCheckPriceInput{Message: message, Signature: sign(t, sk, message)})
	require.ErrorIs(t, err, oracletypes.ErrInvalidSignature)
	_, err = oracleApp.CheckPriceInput(ctx, &oracletypes.MsgCheckPriceInput{Message: message, Signature: sign(t, next, message)})
	require.NoError(t, err)
}

func TestRotationEventsFollowCommitOrder(t *testing.T) {
	ctx := context.Background()
	oracleApp := setupApp(t, dbm.NewMemDB(), signer(t, "oracle"))

	var (
		mu        sync.Mutex
		delivered []string
	)
	oracleApp.Subscribe(func(e sdk.Event) {
		// Slow handler: a rotation committed meanwhile must wait its turn.
		time.Sleep(5 * time.Millisecond)
		for _, attr := range e.Attributes {
			if attr.Key == oracletypes.AttributeKeyNewPublicKey {
				mu.Lock()
				delivered = append(delivered, attr.Value)
				mu.Unlock()
			}
		}
	})

	const rotations = 8
	var wg sync.WaitGroup
	errs := make(chan error, rotations)
	for i := 0; i < rotations; i++ {
		key := signer(t, fmt.Sprintf("rotation-%d", i)).PublicKey().String()
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- oracleApp.RotatePublicKey(ctx, key)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	status, err := oracleApp.Status(ctx)
	require.NoError(t, err)
	require.Len(t, delivered, rotations)
	require.Equal(t, status.PublicKey, delivered[rotations-1], "last delivered rotation must be the committed key")
}

func TestRestartKeepsStateAndBadge(t *testing.T) {
	ctx := context.Background()
	db := dbm.NewMemDB()
	sk := signer(t, "oracle")
	first := setupApp(t, db, sk)

	message := "5|BTC|1|1"
	_, err := first.CheckPriceInput(ctx, &oracletypes.MsgCheckPriceInput{Message: message, Signature: sign(t, sk, message)})
	require.NoError(t, err)
	height := first.LastBlockHeight()

	restarted, err := app.New(log.NewNopLogger(), db)
	require.NoError(t, err)
	require.Equal(t, height, restarted.LastBlockHeight())

	_, err = restarted.CheckPriceInput(ctx, &oracletypes.MsgCheckPriceInput{Message: message, Signature: sign(t, sk, message)})
	require.ErrorIs(t, err, oracletypes.ErrNonceReused)

	next := signer(t, "next")
	require.NoError(t, restarted.RotatePublicKey(ctx, next.PublicKey().String()))
}

func TestExportGenesis(t *testing.T) {
	ctx := context.Background()
	sk := signer(t, "oracle")
	oracleApp := setupApp(t, dbm.NewMemDB(), sk)

	batch := "2|BTC|1|1,1|ETH|1|1"
	_, err := oracleApp.CheckPricesInput(ctx, &oracletypes.MsgCheckPricesInput{Message: batch, Signature: sign(t, sk, batch)})
	require.NoError(t, err)

	gs, err := oracleApp.ExportGenesis(ctx)
	require.NoError(t, err)
	require.NoError(t, gs.Validate())
	require.JSONEq(t,
		`{"public_key":"`+sk.PublicKey().String()+`","used_nonces":[1,2]}`,
		string(gs[oracletypes.ModuleName]))

	imported := setupApp(t, dbm.NewMemDB(), nil)
	require.NoError(t, imported.InitChain(ctx, gs))
	used, err := imported.IsNonceUsed(ctx, 2)
	require.NoError(t, err)
	require.True(t, used)
}

func TestGenesisFile(t *testing.T) {
	path := t.TempDir() + "/genesis.json"
	sk := signer(t, "oracle")

	gs, err := app.NewGenesisState(sk.PublicKey().String())
	require.NoError(t, err)
	require.NoError(t, app.WriteGenesisFile(path, gs))

	loaded, err := app.ReadGenesisFile(path)
	require.NoError(t, err)
	require.JSONEq(t, string(gs[oracletypes.ModuleName]), string(loaded[oracletypes.ModuleName]))

	_, err = app.NewGenesisState("abcd")
	require.ErrorIs(t, err, oracletypes.ErrInvalidGenesis)
}

func TestOpenDBGoLevelDB(t *testing.T) {
	home := t.TempDir()
	db, err := app.OpenDB(home, dbm.GoLevelDBBackend)
	require.NoError(t, err)

	sk := signer(t, "oracle")
	oracleApp := setupApp(t, db, sk)
	require.NoError(t, oracleApp.Close())

	db, err = app.OpenDB(home, dbm.GoLevelDBBackend)
	require.NoError(t, err)
	reopened, err := app.New(log.NewNopLogger(), db)
	require.NoError(t, err)
	defer reopened.Close()

	status, err := reopened.Status(context.Background())
	require.NoError(t, err)
	require.True(t, status.Instantiated)
}
