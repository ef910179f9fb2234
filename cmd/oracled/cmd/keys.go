package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/cosmos/cosmos-sdk/client/input"
	"github.com/spf13/cobra"

	"github.com/0xOmarA/radix-oracle-contracts/pkg/blssigner"
)

const (
	flagMnemonicLength = "mnemonic-length"
	flagNoBackup       = "no-backup"
)

// KeysCmd manages the encrypted oracle signing keys under <home>/keys.
func KeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage oracle signing keys with BIP39 mnemonic support",
		Long: `Keys are BLS12-381 secret keys stored encrypted under <home>/keys.

Every key is derived from a BIP39 mnemonic, so it can be recovered on another
machine with "keys recover". The mnemonic is shown once at generation time.`,
	}

	cmd.AddCommand(
		GenerateKeyCommand(),
		RecoverKeyCommand(),
		ShowKeyCommand(),
		ListKeysCommand(),
	)

	return cmd
}

// GenerateKeyCommand creates a new key from a fresh mnemonic.
func GenerateKeyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [name]",
		Short: "Generate a new signing key with a BIP39 mnemonic",
		Long: `Generate a new signing key from secure random entropy and store it encrypted.

WARNING: Keep your mnemonic phrase in a secure location. Anyone with access to
your mnemonic can sign prices the oracle will accept.

Examples:
  oracled keys generate feeder                        # 24-word mnemonic (default)
  oracled keys generate feeder --mnemonic-length 12   # 12-word mnemonic`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cctx, err := getCmdContext(cmd)
			if err != nil {
				return err
			}

			name := strings.TrimSpace(args[0])
			if name == "" {
				return fmt.Errorf("argument 'name' cannot be empty")
			}

			mnemonicLength, _ := cmd.Flags().GetInt(flagMnemonicLength)
			noBackup, _ := cmd.Flags().GetBool(flagNoBackup)

			mnemonic, err := blssigner.NewMnemonic(mnemonicLength)
			if err != nil {
				return err
			}

			sk, err := blssigner.KeyFromMnemonic(mnemonic, "")
			if err != nil {
				return err
			}

			buf := bufio.NewReader(cmd.InOrStdin())
			passphrase, err := readNewPassphrase(buf)
			if err != nil {
				return err
			}

			if _, err := blssigner.NewKeystore(keysDir(cctx.home)).Save(name, sk, passphrase); err != nil {
				return fmt.Errorf("failed to store key: %w", err)
			}

			printKey(cmd, name, sk.PublicKey().String())

			if !noBackup {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "**IMPORTANT** Write this mnemonic phrase in a safe place.\n")
				fmt.Fprintf(out, "It is the only way to recover your key if you ever forget your passphrase.\n")
				fmt.Fprintf(out, "\n")
				fmt.Fprintf(out, "%s\n", mnemonic)
				fmt.Fprintf(out, "\n")
			}
			return nil
		},
	}

	cmd.Flags().Int(flagMnemonicLength, 24, "Mnemonic length (12 or 24 words)")
	cmd.Flags().Bool(flagNoBackup, false, "Skip mnemonic display (WARNING: not recommended)")

	return cmd
}

// RecoverKeyCommand restores a key from its mnemonic.
func RecoverKeyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "recover [name]",
		Short: "Recover a signing key from a BIP39 mnemonic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cctx, err := getCmdContext(cmd)
			if err != nil {
				return err
			}

			buf := bufio.NewReader(cmd.InOrStdin())
			mnemonic, err := input.GetString("Enter your bip39 mnemonic", buf)
			if err != nil {
				return fmt.Errorf("failed to read mnemonic: %w", err)
			}

			sk, err := blssigner.KeyFromMnemonic(mnemonic, "")
			if err != nil {
				return err
			}

			passphrase, err := readNewPassphrase(buf)
			if err != nil {
				return err
			}

			if _, err := blssigner.NewKeystore(keysDir(cctx.home)).Save(args[0], sk, passphrase); err != nil {
				return fmt.Errorf("failed to recover key: %w", err)
			}

			printKey(cmd, args[0], sk.PublicKey().String())
			return nil
		},
	}
}

// ShowKeyCommand prints the public key of a stored key.
func ShowKeyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [name]",
		Short: "Show the public key of a signing key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cctx, err := getCmdContext(cmd)
			if err != nil {
				return err
			}

			kf, err := blssigner.NewKeystore(keysDir(cctx.home)).Info(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), kf.PublicKey)
			return nil
		},
	}
}

// ListKeysCommand lists the stored keys.
func ListKeysCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List signing keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cctx, err := getCmdContext(cmd)
			if err != nil {
				return err
			}

			ks := blssigner.NewKeystore(keysDir(cctx.home))
			names, err := ks.List()
			if err != nil {
				return err
			}
			for _, name := range names {
				kf, err := ks.Info(name)
				if err != nil {
					return err
				}
				printKey(cmd, name, kf.PublicKey)
			}
			return nil
		},
	}
}

func printKey(cmd *cobra.Command, name, publicKey string) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "- name: %s\n", name)
	fmt.Fprintf(out, "  type: bls12_381\n")
	fmt.Fprintf(out, "  public_key: %s\n", publicKey)
	fmt.Fprintf(out, "\n")
}

func readNewPassphrase(buf *bufio.Reader) (string, error) {
	passphrase, err := input.GetPassword("Enter keyring passphrase:", buf)
	if err != nil {
		return "", err
	}
	confirm, err := input.GetPassword("Re-enter keyring passphrase:", buf)
	if err != nil {
		return "", err
	}
	if passphrase != confirm {
		return "", errors.New("passphrases don't match")
	}
	return passphrase, nil
}

// loadKey decrypts the key named by --from, prompting for its passphrase.
func loadKey(cmd *cobra.Command, home string) (*blssigner.SecretKey, error) {
	name, _ := cmd.Flags().GetString(flagFrom)
	if name == "" {
		return nil, fmt.Errorf("--%s is required", flagFrom)
	}

	buf := bufio.NewReader(cmd.InOrStdin())
	passphrase, err := input.GetPassword("Enter keyring passphrase:", buf)
	if err != nil {
		return nil, err
	}
	return blssigner.NewKeystore(keysDir(home)).Load(name, passphrase)
}
