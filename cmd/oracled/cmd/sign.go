package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/0xOmarA/radix-oracle-contracts/api"
	oracletypes "github.com/0xOmarA/radix-oracle-contracts/x/oracle/types"
)

const flagPublicKey = "public-key"

// signedMessage is the output of sign and the request body of the price
// check endpoints.
type signedMessage struct {
	api.CheckPriceRequest
	PublicKey string `json:"public_key"`
}

// SignCmd signs one price message, or several as a batch.
func SignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign [message]...",
		Short: "Sign price messages with a stored key",
		Long: `Sign a price message of the form <nonce>|<symbol>|<price>|<timestamp>.
Messages are signed in canonical form: 007|BTC|1.50|1 becomes 7|BTC|1.5|1.

With --batch, every argument is one message and the batch is signed as a whole.
The output can be posted as-is to /api/v1/prices/check or /check-batch.

Examples:
  oracled sign --from feeder '42|BTC|65000|1700000000'
  oracled sign --from feeder --batch '1|BTC|65000|1700000000' '2|ETH|3500|1700000000'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cctx, err := getCmdContext(cmd)
			if err != nil {
				return err
			}

			message, err := buildMessage(cmd, args)
			if err != nil {
				return err
			}

			sk, err := loadKey(cmd, cctx.home)
			if err != nil {
				return err
			}

			signature, err := sk.SignString(message)
			if err != nil {
				return err
			}

			return printJSON(cmd, signedMessage{
				CheckPriceRequest: api.CheckPriceRequest{Message: message, Signature: signature},
				PublicKey:         sk.PublicKey().String(),
			})
		},
	}

	cmd.Flags().String(flagFrom, "", "Name of the signing key")
	cmd.Flags().Bool(flagBatch, false, "Sign all arguments as one batch")

	return cmd
}

// buildMessage parses every argument and returns the canonical wire encoding,
// so the signed bytes are exactly what the oracle re-encodes.
func buildMessage(cmd *cobra.Command, args []string) (string, error) {
	batch, _ := cmd.Flags().GetBool(flagBatch)
	if !batch && len(args) != 1 {
		return "", fmt.Errorf("expected one message, got %d (use --%s to sign several)", len(args), flagBatch)
	}

	msgs := make([]oracletypes.PriceMessage, len(args))
	for i, arg := range args {
		msg, err := oracletypes.ParsePriceMessage(arg)
		if err != nil {
			return "", fmt.Errorf("message %d: %w", i, err)
		}
		msgs[i] = msg
	}
	return oracletypes.EncodePriceMessages(msgs), nil
}

// VerifyCmd checks a signature offline and prints the decoded prices.
func VerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [message] [signature]",
		Short: "Verify a signed price message without consuming its nonce",
		Long: `Verify checks the signature against --public-key (or oracle.public-key from
the configuration) and prints the decoded price messages. It does not touch
the nonce set.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cctx, err := getCmdContext(cmd)
			if err != nil {
				return err
			}

			keyHex, _ := cmd.Flags().GetString(flagPublicKey)
			if keyHex == "" {
				keyHex = cctx.config.Oracle.PublicKey
			}
			if keyHex == "" {
				return fmt.Errorf("no public key: pass --%s or set %s", flagPublicKey, keyOraclePublicKey)
			}

			pk, err := oracletypes.ParsePublicKey(keyHex)
			if err != nil {
				return err
			}
			if err := oracletypes.VerifySignature([]byte(args[0]), args[1], pk); err != nil {
				return err
			}

			msgs, err := oracletypes.ParsePriceMessages(args[0])
			if err != nil {
				return err
			}

			prices := make([]api.PriceResponse, len(msgs))
			for i, msg := range msgs {
				prices[i] = api.PriceResponse{
					Nonce:     msg.Nonce,
					Symbol:    msg.Symbol,
					Price:     oracletypes.FormatPrice(msg.Price),
					Timestamp: msg.Timestamp,
				}
			}
			return printJSON(cmd, api.CheckPricesResponse{Prices: prices})
		},
	}

	cmd.Flags().String(flagPublicKey, "", "Authorized public key (hex)")

	return cmd
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	bz, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(bz))
	return nil
}
