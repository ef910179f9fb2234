package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/0xOmarA/radix-oracle-contracts/api"
)

const (
	flagSubject = "subject"
	flagTTL     = "ttl"
)

// AdminTokenCmd issues a bearer token for the key rotation endpoint.
func AdminTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin-token",
		Short: "Issue an admin bearer token for the API",
		Long: `Admin-token signs a token with api.jwt-secret. The token authorizes
POST /api/v1/admin/public-key until it expires.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cctx, err := getCmdContext(cmd)
			if err != nil {
				return err
			}
			if cctx.config.API.JWTSecret == "" {
				return errors.New("api.jwt-secret is not configured")
			}

			subject, _ := cmd.Flags().GetString(flagSubject)
			ttl, _ := cmd.Flags().GetDuration(flagTTL)
			if ttl <= 0 {
				return fmt.Errorf("--%s must be positive", flagTTL)
			}

			token, err := api.NewAuthService([]byte(cctx.config.API.JWTSecret)).GenerateToken(subject, api.RoleAdmin, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().String(flagSubject, "operator", "Token subject, recorded in the API log")
	cmd.Flags().Duration(flagTTL, time.Hour, "Token lifetime")

	return cmd
}
