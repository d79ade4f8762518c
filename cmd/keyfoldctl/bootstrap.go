package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// bootstrapCmd represents the bootstrap command
var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap <username>",
	Short: "Initialize the system with its first owner account",
	Long: `Initialize the system with its first owner account.

Bootstrap creates the user, grants the workspace owner role, and prints a
long-lived API token. The token plaintext is shown exactly once; store it
safely. Bootstrap can only run once.

The password is read from the --password flag, the KEYFOLD_BOOTSTRAP_PASSWORD
environment variable, or standard input.

Example:
  keyfoldctl bootstrap admin --password secret
  echo secret | keyfoldctl bootstrap admin`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		username := args[0]

		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			password = os.Getenv("KEYFOLD_BOOTSTRAP_PASSWORD")
		}
		if password == "" {
			reader := bufio.NewReader(os.Stdin)
			line, err := reader.ReadString('\n')
			if err != nil && line == "" {
				fmt.Fprintln(os.Stderr, "a password is required")
				os.Exit(1)
			}
			password = strings.TrimRight(line, "\r\n")
		}
		if password == "" {
			fmt.Fprintln(os.Stderr, "a password is required")
			os.Exit(1)
		}

		s, err := openServer()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		result, err := s.OnboardingEngine.Bootstrap(username, password, true)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Bootstrap failed: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("System initialized by %s\n", username)
		if result.Token != nil {
			fmt.Println()
			fmt.Println("API token (shown once, store it safely):")
			fmt.Println(result.Token.Token)
			if result.Token.ExpiresAt != nil {
				fmt.Printf("Expires at: %s\n", result.Token.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"))
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(bootstrapCmd)
	bootstrapCmd.Flags().StringP("password", "p", "", "Password for the owner account")
}
