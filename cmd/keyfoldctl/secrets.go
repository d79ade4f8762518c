package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// secretsCmd represents the secrets command
var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Manage secrets",
	Long:  `Manage secrets from the command line.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'secrets' requires a subcommand (import)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(secretsCmd)
}
