package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/module"

	"github.com/0xOmarA/radix-oracle-contracts/x/oracle"
	oracletypes "github.com/0xOmarA/radix-oracle-contracts/x/oracle/types"
)

// ModuleBasics defines the module BasicManager in charge of genesis defaults
// and validation.
var ModuleBasics = module.NewBasicManager(
	oracle.AppModuleBasic{},
)

// GenesisState represents the genesis state of the oracle host, keyed by
// module name.
type GenesisState map[string]json.RawMessage

// NewDefaultGenesisState returns an uninstantiated oracle.
func NewDefaultGenesisState() GenesisState {
	return ModuleBasics.DefaultGenesis(nil)
}

// NewGenesisState returns a genesis instantiating the oracle with publicKey.
func NewGenesisState(publicKey string) (GenesisState, error) {
	gs := oracletypes.DefaultGenesis()
	gs.PublicKey = publicKey
	if err := gs.Validate(); err != nil {
		return nil, err
	}
	bz, err := json.Marshal(gs)
	if err != nil {
		return nil, err
	}
	return GenesisState{oracletypes.ModuleName: bz}, nil
}

// Validate checks every module's genesis.
func (gs GenesisState) Validate() error {
	return ModuleBasics.ValidateGenesis(nil, nil, gs)
}

// ReadGenesisFile loads and validates a genesis file.
func ReadGenesisFile(path string) (GenesisState, error) {
	bz, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read genesis file: %w", err)
	}
	var gs GenesisState
	if err := json.Unmarshal(bz, &gs); err != nil {
		return nil, fmt.Errorf("failed to parse genesis file: %w", err)
	}
	if err := gs.Validate(); err != nil {
		return nil, err
	}
	return gs, nil
}

// WriteGenesisFile writes gs as indented JSON.
func WriteGenesisFile(path string, gs GenesisState) error {
	bz, err := json.MarshalIndent(gs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, bz, 0o600)
}

// InitChain loads gs into an empty store and commits it.
func (app *OracleApp) InitChain(goCtx context.Context, gs GenesisState) error {
	if app.LastBlockHeight() != 0 {
		return ErrAlreadyInitialized
	}
	if err := gs.Validate(); err != nil {
		return err
	}
	if _, ok := gs[oracletypes.ModuleName]; !ok {
		gs[oracletypes.ModuleName] = NewDefaultGenesisState()[oracletypes.ModuleName]
	}

	return app.execute(goCtx, func(ctx sdk.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("genesis initialization failed: %v", r)
			}
		}()
		app.oracleModule.InitGenesis(ctx, nil, gs[oracletypes.ModuleName])
		return nil
	})
}

// ExportGenesis exports the committed state.
func (app *OracleApp) ExportGenesis(goCtx context.Context) (GenesisState, error) {
	gs := make(GenesisState)
	err := app.query(goCtx, func(ctx sdk.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("genesis export failed: %v", r)
			}
		}()
		gs[oracletypes.ModuleName] = app.oracleModule.ExportGenesis(ctx, nil)
		return nil
	})
	return gs, err
}
