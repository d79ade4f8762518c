package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/keyfoldhq/keyfold/pkg/authn"
)

// tokenRevokeCmd represents the token revoke command
var tokenRevokeCmd = &cobra.Command{
	Use:   "revoke <token-id>",
	Short: "Revoke an API token",
	Long: `Revoke an API token by its id.

Revoked tokens stop authenticating immediately but remain listed for the
audit trail. Use --token to revoke by plaintext instead of id.

Example:
  keyfoldctl token revoke 6f1c...
  keyfoldctl token revoke --token kf_abc123`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		plaintext, _ := cmd.Flags().GetString("token")
		if (len(args) == 0) == (plaintext == "") {
			fmt.Fprintln(os.Stderr, "provide a token id argument or --token")
			os.Exit(1)
		}

		s, err := openServer()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		params := authn.RevokeParams{Token: plaintext}
		if len(args) > 0 {
			params.TokenID = args[0]
		}
		if err := s.TokenEngine.Revoke(params); err != nil {
			if errors.Is(err, authn.ErrTokenNotFound) {
				fmt.Fprintln(os.Stderr, "Token not found")
			} else {
				fmt.Fprintf(os.Stderr, "Failed to revoke token: %v\n", err)
			}
			os.Exit(1)
		}

		fmt.Println("Token revoked")
	},
}

func init() {
	tokenCmd.AddCommand(tokenRevokeCmd)
	tokenRevokeCmd.Flags().String("token", "", "Revoke by token plaintext instead of id")
}
