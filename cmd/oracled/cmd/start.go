package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	dbm "github.com/cosmos/cosmos-db"
	"github.com/spf13/cobra"

	"github.com/0xOmarA/radix-oracle-contracts/api"
	"github.com/0xOmarA/radix-oracle-contracts/app"
)

// StartCmd runs the oracle host and its HTTP API until interrupted.
func StartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Run the oracle and serve its API",
		Long: `Start opens the oracle store under <home>/data, loads genesis.json on first
start and serves the HTTP API until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cctx, err := getCmdContext(cmd)
			if err != nil {
				return err
			}
			cfg := cctx.config

			logger, err := newLogger(cmd.ErrOrStderr(), cfg.Log.Level)
			if err != nil {
				return err
			}

			oracleApp, err := openApp(cctx)
			if err != nil {
				return err
			}
			defer oracleApp.Close()

			ctx := cmd.Context()
			if err := bootstrap(ctx, oracleApp, cctx); err != nil {
				return err
			}

			server, err := api.NewServer(oracleApp, cfg.APIConfig(), logger)
			if err != nil {
				return err
			}
			return server.Start(ctx)
		},
	}

	cmd.Flags().String(flagAPIAddress, "", "API listen address, overrides "+keyAPIAddress)

	return cmd
}

func openApp(cctx *cmdContext) (*app.OracleApp, error) {
	logger, err := newLogger(os.Stderr, cctx.config.Log.Level)
	if err != nil {
		return nil, err
	}

	db, err := app.OpenDB(cctx.home, dbm.BackendType(cctx.config.DB.Backend))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	oracleApp, err := app.New(logger, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return oracleApp, nil
}

// bootstrap loads genesis into a fresh store, then instantiates the oracle
// from the configured key when genesis left it empty.
func bootstrap(ctx context.Context, oracleApp *app.OracleApp, cctx *cmdContext) error {
	if oracleApp.LastBlockHeight() == 0 {
		gs, err := app.ReadGenesisFile(genesisPath(cctx.home))
		if errors.Is(err, os.ErrNotExist) {
			gs = app.NewDefaultGenesisState()
		} else if err != nil {
			return err
		}
		if err := oracleApp.InitChain(ctx, gs); err != nil {
			return fmt.Errorf("failed to load genesis: %w", err)
		}
	}

	status, err := oracleApp.Status(ctx)
	if err != nil {
		return err
	}
	if status.Instantiated || cctx.config.Oracle.PublicKey == "" {
		return nil
	}

	if _, err := oracleApp.Instantiate(ctx, cctx.config.Oracle.PublicKey); err != nil {
		return fmt.Errorf("failed to instantiate oracle: %w", err)
	}
	return nil
}
