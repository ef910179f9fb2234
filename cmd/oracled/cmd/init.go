package cmd

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/0xOmarA/radix-oracle-contracts/app"
	"github.com/0xOmarA/radix-oracle-contracts/pkg/blssigner"
	oracletypes "github.com/0xOmarA/radix-oracle-contracts/x/oracle/types"
)

const flagOverwrite = "overwrite"

// InitCmd writes the configuration and genesis files of a new oracle home.
func InitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the oracle configuration and genesis files",
		Long: `Initialize writes <home>/config/oracled.toml and <home>/config/genesis.json.

The authorized public key comes from --public-key or from the stored key named
by --from. Without either the oracle starts uninstantiated. A random admin
token secret is generated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cctx, err := getCmdContext(cmd)
			if err != nil {
				return err
			}

			overwrite, _ := cmd.Flags().GetBool(flagOverwrite)
			cfgFile := configPath(cctx.home)
			genFile := genesisPath(cctx.home)
			if !overwrite {
				for _, path := range []string{cfgFile, genFile} {
					if _, err := os.Stat(path); err == nil {
						return fmt.Errorf("%s already exists; use --%s to replace it", path, flagOverwrite)
					}
				}
			}

			publicKey, err := resolvePublicKey(cmd, cctx.home)
			if err != nil {
				return err
			}

			cfg := cctx.config
			cfg.Oracle.PublicKey = publicKey
			if cfg.API.JWTSecret == "" {
				secret := make([]byte, 32)
				if _, err := rand.Read(secret); err != nil {
					return fmt.Errorf("failed to generate JWT secret: %w", err)
				}
				cfg.API.JWTSecret = hex.EncodeToString(secret)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			gs := app.NewDefaultGenesisState()
			if publicKey != "" {
				if gs, err = app.NewGenesisState(publicKey); err != nil {
					return err
				}
			}

			if err := WriteConfigFile(cfgFile, cfg); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			if err := os.MkdirAll(filepath.Dir(genFile), 0o700); err != nil {
				return err
			}
			if err := app.WriteGenesisFile(genFile, gs); err != nil {
				return fmt.Errorf("failed to write genesis: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config:  %s\n", cfgFile)
			fmt.Fprintf(out, "genesis: %s\n", genFile)
			if publicKey != "" {
				fmt.Fprintf(out, "authorized public key: %s\n", publicKey)
			}
			return nil
		},
	}

	cmd.Flags().String(flagPublicKey, "", "Initial authorized public key (hex)")
	cmd.Flags().String(flagFrom, "", "Use the public key of this stored key")
	cmd.Flags().Bool(flagOverwrite, false, "Overwrite existing config and genesis files")

	return cmd
}

func resolvePublicKey(cmd *cobra.Command, home string) (string, error) {
	keyHex, _ := cmd.Flags().GetString(flagPublicKey)
	from, _ := cmd.Flags().GetString(flagFrom)

	switch {
	case keyHex != "" && from != "":
		return "", fmt.Errorf("--%s and --%s are mutually exclusive", flagPublicKey, flagFrom)
	case from != "":
		kf, err := blssigner.NewKeystore(keysDir(home)).Info(from)
		if err != nil {
			return "", err
		}
		keyHex = kf.PublicKey
	}

	if keyHex != "" {
		if _, err := oracletypes.ParsePublicKey(keyHex); err != nil {
			return "", err
		}
	}
	return keyHex, nil
}
