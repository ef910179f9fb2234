package cmd

import (
	"context"
	"fmt"
	"io"

	"cosmossdk.io/log"
	"github.com/cosmos/cosmos-sdk/client/flags"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/0xOmarA/radix-oracle-contracts/app"
)

const (
	flagLogLevel   = "log-level"
	flagAPIAddress = "api-address"
	flagFrom       = "from"
	flagBatch      = "batch"
)

type contextKey struct{}

// cmdContext is the state shared by subcommands once the root has loaded
// the configuration.
type cmdContext struct {
	home   string
	viper  *viper.Viper
	config Config
}

// NewRootCmd creates the oracled root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   app.Name,
		Short: "Signed price oracle daemon",
		Long: `oracled verifies BLS12-381 signed price attestations, rejects replayed
nonces and serves the oracle over HTTP. It also carries the off-chain signer
tooling used to produce attestations.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SetOut(cmd.OutOrStdout())
			cmd.SetErr(cmd.ErrOrStderr())

			home, err := cmd.Flags().GetString(flags.FlagHome)
			if err != nil {
				return err
			}

			v := newViper(home)
			if err := bindFlags(v, cmd.Flags()); err != nil {
				return err
			}
			cfg, err := LoadConfig(v)
			if err != nil {
				return err
			}

			cmd.SetContext(contextWith(cmd, &cmdContext{home: home, viper: v, config: cfg}))
			return nil
		},
	}

	rootCmd.PersistentFlags().String(flags.FlagHome, app.DefaultNodeHome, "directory for config and data")
	rootCmd.PersistentFlags().String(flagLogLevel, zerolog.InfoLevel.String(), "log level (trace|debug|info|warn|error)")

	rootCmd.AddCommand(
		KeysCmd(),
		SignCmd(),
		VerifyCmd(),
		InitCmd(),
		StartCmd(),
		ExportCmd(),
		AdminTokenCmd(),
	)

	return rootCmd
}

// bindFlags lets command line flags override the config file and env.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for key, name := range map[string]string{
		keyLogLevel:   flagLogLevel,
		keyAPIAddress: flagAPIAddress,
	} {
		if f := fs.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	return nil
}

func getCmdContext(cmd *cobra.Command) (*cmdContext, error) {
	if cmd.Context() != nil {
		if c, ok := cmd.Context().Value(contextKey{}).(*cmdContext); ok {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%s: configuration not loaded", cmd.CommandPath())
}

func contextWith(cmd *cobra.Command, c *cmdContext) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, contextKey{}, c)
}

func newLogger(w io.Writer, level string) (log.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return log.NewLogger(w, log.LevelOption(lvl)), nil
}
