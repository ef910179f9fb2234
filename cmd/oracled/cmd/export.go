package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/0xOmarA/radix-oracle-contracts/app"
)

const flagOutput = "output"

// ExportCmd dumps the committed oracle state as a genesis file.
func ExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the oracle state as genesis JSON",
		Long: `Export writes the authorized public key and every used nonce as genesis JSON,
to stdout or to --output. The daemon must be stopped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cctx, err := getCmdContext(cmd)
			if err != nil {
				return err
			}

			oracleApp, err := openApp(cctx)
			if err != nil {
				return err
			}
			defer oracleApp.Close()

			gs, err := oracleApp.ExportGenesis(cmd.Context())
			if err != nil {
				return err
			}

			if output, _ := cmd.Flags().GetString(flagOutput); output != "" {
				if err := app.WriteGenesisFile(output, gs); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "exported genesis at height %d to %s\n", oracleApp.LastBlockHeight(), output)
				return nil
			}

			bz, err := json.MarshalIndent(gs, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(bz))
			return nil
		},
	}

	cmd.Flags().String(flagOutput, "", "Write the genesis to this file instead of stdout")

	return cmd
}
