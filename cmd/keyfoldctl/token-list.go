package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// tokenListCmd represents the token list command
var tokenListCmd = &cobra.Command{
	Use:   "list",
	Short: "List API tokens",
	Long: `List API token metadata, newest first.

Token plaintext is never stored and cannot be shown. Revoked and expired
tokens are hidden unless --all is set.

Example:
  keyfoldctl token list
  keyfoldctl token list --all`,
	Run: func(cmd *cobra.Command, args []string) {
		includeRevoked, _ := cmd.Flags().GetBool("all")

		s, err := openServer()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		tokens, err := s.TokenEngine.List(includeRevoked)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to list tokens: %v\n", err)
			os.Exit(1)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTYPE\tSUBJECT\tPURPOSE\tCREATED\tEXPIRES\tSTATUS")
		for _, token := range tokens {
			subject := ""
			if token.SubjectUser != nil {
				subject = *token.SubjectUser
			} else if token.SubjectServiceName != nil {
				subject = *token.SubjectServiceName
			}
			expires := "never"
			if token.ExpiresAt != nil {
				expires = token.ExpiresAt.Format(time.RFC3339)
			}
			status := "active"
			if token.Revoked() {
				status = "revoked"
			} else if token.Expired(time.Now().UTC()) {
				status = "expired"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				token.ID, token.Type, subject, token.Purpose,
				token.CreatedAt.Format(time.RFC3339), expires, status)
		}
		_ = w.Flush()
	},
}

func init() {
	tokenCmd.AddCommand(tokenListCmd)
	tokenListCmd.Flags().Bool("all", false, "Include revoked and expired tokens")
}
